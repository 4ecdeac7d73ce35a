// Package transfer implements the bulk JSON import/export formats.
//
// Import is deliberately narrow: it creates semesters and subjects only.
// Export is the superset payload with attendance and marks included, so an
// export/import cycle round-trips the semester and subject data and nothing
// else.
package transfer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unitel-app/unitel/internal/gradebook"
	"github.com/unitel-app/unitel/internal/models"
	"github.com/unitel-app/unitel/internal/store"
)

// ErrBadPayload wraps structural problems in an import payload; handlers
// answer 400 for it.
var ErrBadPayload = errors.New("bad import payload")

type SubjectImport struct {
	Name    string        `json:"name"`
	Credits int           `json:"credits"`
	Grade   *models.Grade `json:"grade,omitempty"`
}

type SemesterImport struct {
	Number   int             `json:"number"`
	Subjects []SubjectImport `json:"subjects,omitempty"`
}

type ImportPayload struct {
	Semesters []SemesterImport `json:"semesters"`
}

type ImportResult struct {
	SemestersCreated int `json:"semesters_created"`
	SubjectsCreated  int `json:"subjects_created"`
	SubjectsSkipped  int `json:"subjects_skipped"`
}

type Profile struct {
	Owner   string                  `json:"owner"`
	Summary *models.AcademicSummary `json:"summary,omitempty"`
}

type ExportPayload struct {
	Profile    Profile                   `json:"profile"`
	Semesters  []models.Semester         `json:"semesters"`
	Subjects   []models.Subject          `json:"subjects"`
	Attendance []models.AttendanceRecord `json:"attendance"`
	Marks      []models.MarksRecord      `json:"marks"`
	ExportedAt time.Time                 `json:"exportedAt"`
}

// ImportPayload reduces an export back to the part import understands.
func (e *ExportPayload) ImportPayload() ImportPayload {
	subjectsBySemester := make(map[string][]SubjectImport)
	for _, sub := range e.Subjects {
		subjectsBySemester[sub.SemesterID] = append(subjectsBySemester[sub.SemesterID], SubjectImport{
			Name:    sub.Name,
			Credits: sub.Credits,
			Grade:   sub.Grade,
		})
	}

	payload := ImportPayload{}
	for _, sem := range e.Semesters {
		payload.Semesters = append(payload.Semesters, SemesterImport{
			Number:   sem.Number,
			Subjects: subjectsBySemester[sem.ID],
		})
	}
	return payload
}

// Porter moves records in and out of the store in bulk.
type Porter struct {
	Store store.RecordStore
	Calc  *gradebook.Calculator
}

// Import creates the payload's semesters and subjects for owner. A semester
// whose number already exists is reused rather than duplicated; subjects
// whose name already exists in their semester are skipped.
func (p *Porter) Import(owner string, payload ImportPayload) (*ImportResult, error) {
	if len(payload.Semesters) == 0 {
		return nil, fmt.Errorf("%w: no semesters to import", ErrBadPayload)
	}

	existing, err := p.Store.ListSemesters(owner)
	if err != nil {
		return nil, err
	}
	semesterByNumber := make(map[int]*models.Semester)
	for i := range existing {
		semesterByNumber[existing[i].Number] = &existing[i]
	}

	result := &ImportResult{}
	for _, semImport := range payload.Semesters {
		if semImport.Number < 1 {
			return nil, fmt.Errorf("%w: semester number %d", ErrBadPayload, semImport.Number)
		}

		sem, ok := semesterByNumber[semImport.Number]
		if !ok {
			sem = &models.Semester{
				ID:               uuid.NewString(),
				Owner:            owner,
				Number:           semImport.Number,
				SourceJSONImport: true,
			}
			if err := p.Store.CreateSemester(sem); err != nil {
				return nil, err
			}
			semesterByNumber[sem.Number] = sem
			result.SemestersCreated++
		}

		created, skipped, err := p.importSubjects(owner, sem.ID, semImport.Subjects)
		if err != nil {
			return nil, err
		}
		result.SubjectsCreated += created
		result.SubjectsSkipped += skipped

		if created > 0 {
			if err := p.refreshSemesterDerived(owner, sem.ID); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func (p *Porter) importSubjects(owner, semesterID string, subjects []SubjectImport) (created, skipped int, err error) {
	existing, err := p.Store.ListSubjects(owner, semesterID)
	if err != nil {
		return 0, 0, err
	}
	taken := make(map[string]bool)
	for _, sub := range existing {
		taken[strings.ToLower(sub.Name)] = true
	}

	for _, subImport := range subjects {
		if taken[strings.ToLower(subImport.Name)] {
			skipped++
			continue
		}

		sub := &models.Subject{
			ID:         uuid.NewString(),
			SemesterID: semesterID,
			Owner:      owner,
			Name:       subImport.Name,
			Credits:    subImport.Credits,
			Grade:      subImport.Grade,
		}
		if err := sub.Validate(); err != nil {
			return created, skipped, fmt.Errorf("%w: subject %q: %v", ErrBadPayload, subImport.Name, err)
		}
		if sub.Grade != nil {
			points, err := p.Calc.GradePoints(*sub.Grade)
			if err != nil {
				return created, skipped, fmt.Errorf("%w: subject %q: grade %q not on the grading scale", ErrBadPayload, subImport.Name, *sub.Grade)
			}
			sub.GradePoints = &points
		}

		if err := p.Store.CreateSubject(sub); err != nil {
			return created, skipped, err
		}
		taken[strings.ToLower(sub.Name)] = true
		created++
	}

	return created, skipped, nil
}

func (p *Porter) refreshSemesterDerived(owner, semesterID string) error {
	subjects, err := p.Store.ListSubjects(owner, semesterID)
	if err != nil {
		return err
	}

	var sgpa *float64
	if p.Calc.GradedCredits(subjects) > 0 {
		value := p.Calc.SGPA(subjects)
		sgpa = &value
	}
	return p.Store.UpdateSemesterDerived(owner, semesterID, sgpa, p.Calc.GradedCredits(subjects))
}

// Export assembles the full dataset for owner.
func (p *Porter) Export(owner string) (*ExportPayload, error) {
	semesters, err := p.Store.ListSemesters(owner)
	if err != nil {
		return nil, err
	}
	subjects, err := p.Store.ListAllSubjects(owner)
	if err != nil {
		return nil, err
	}
	attendance, err := p.Store.ListAllAttendance(owner)
	if err != nil {
		return nil, err
	}
	marks, err := p.Store.ListAllMarks(owner)
	if err != nil {
		return nil, err
	}

	profile := Profile{Owner: owner}
	if row, err := p.Store.FetchSummaryStats(owner, p.Calc.FailingGrades); err == nil {
		summary := &models.AcademicSummary{
			TotalSemesters: row.TotalSemesters,
			TotalSubjects:  row.TotalSubjects,
			TotalCredits:   row.TotalCredits,
			Backlogs:       row.Backlogs,
		}
		if row.AverageSGPA != nil {
			summary.AverageSGPA = *row.AverageSGPA
		}
		if row.CGPA != nil {
			summary.CGPA = *row.CGPA
		}
		profile.Summary = summary
	}

	return &ExportPayload{
		Profile:    profile,
		Semesters:  semesters,
		Subjects:   subjects,
		Attendance: attendance,
		Marks:      marks,
		ExportedAt: time.Now().UTC(),
	}, nil
}
