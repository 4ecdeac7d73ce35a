package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unitel-app/unitel/internal/gradebook"
	"github.com/unitel-app/unitel/internal/metrics"
	"github.com/unitel-app/unitel/internal/models"
	"github.com/unitel-app/unitel/internal/store"
	"github.com/unitel-app/unitel/internal/transfer"
)

// ErrInvalid wraps validation failures so handlers can answer 400 before
// anything reaches the store.
var ErrInvalid = errors.New("invalid input")

type Service struct {
	Config    *Config
	Store     store.RecordStore
	Auth      *Auth
	Cache     *QueryCache
	ExamTypes *ExamTypeRegistry
	Calc      *gradebook.Calculator
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	recordStore, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	cache, err := NewQueryCache(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init cache: %w", err)
	}

	examTypes, err := NewExamTypeRegistry(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init exam type registry: %w", err)
	}

	return &Service{
		Config:    config,
		Store:     recordStore,
		Auth:      auth,
		Cache:     cache,
		ExamTypes: examTypes,
		Calc:      config.Calculator(),
	}, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}
	if err := s.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if err := s.ExamTypes.Close(); err != nil {
		errs = append(errs, fmt.Errorf("exam types: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}

func (s *Service) ValidateAuthAndOwner(r *http.Request, owner string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), owner, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// --- semesters ---

func (s *Service) ListSemesters(ctx context.Context, owner string) ([]models.Semester, error) {
	semesters := []models.Semester{}
	err := s.Cache.Fetch(ctx, SemestersKey(owner), &semesters, func(context.Context) (interface{}, error) {
		return s.Store.ListSemesters(owner)
	})
	return semesters, err
}

func (s *Service) CreateSemester(ctx context.Context, sem *models.Semester) (*models.Semester, error) {
	sem.ID = uuid.NewString()
	sem.SGPA = nil
	sem.TotalCredits = 0

	if err := sem.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := s.Store.CreateSemester(sem); err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("semester", "create").Inc()
	s.Cache.Invalidate(ctx, SemestersKey(sem.Owner), SummaryKey(sem.Owner))
	return sem, nil
}

type SemesterPatch struct {
	Number           *int  `json:"number"`
	SourceJSONImport *bool `json:"source_json_import"`
}

func (s *Service) UpdateSemester(ctx context.Context, owner, id string, patch SemesterPatch) (*models.Semester, error) {
	sem, err := s.Store.GetSemester(owner, id)
	if err != nil {
		return nil, err
	}

	if patch.Number != nil {
		sem.Number = *patch.Number
	}
	if patch.SourceJSONImport != nil {
		sem.SourceJSONImport = *patch.SourceJSONImport
	}

	if err := sem.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Store.UpdateSemester(sem); err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("semester", "update").Inc()
	s.Cache.Invalidate(ctx, SemestersKey(owner), SummaryKey(owner))
	return sem, nil
}

// DeleteSemester cascades to subjects, attendance and marks; ownership is
// re-verified by the owner-scoped delete itself.
func (s *Service) DeleteSemester(ctx context.Context, owner, id string) error {
	if err := s.Store.DeleteSemester(owner, id); err != nil {
		return err
	}

	metrics.RecordMutationsTotal.WithLabelValues("semester", "delete").Inc()
	s.Cache.Invalidate(ctx,
		SemestersKey(owner),
		SubjectsKey(owner, id),
		AttendanceKey(owner, id),
		MarksKey(owner, id),
		SummaryKey(owner),
	)
	return nil
}

// --- subjects ---

func (s *Service) ListSubjects(ctx context.Context, owner, semesterID string) ([]models.Subject, error) {
	subjects := []models.Subject{}
	err := s.Cache.Fetch(ctx, SubjectsKey(owner, semesterID), &subjects, func(context.Context) (interface{}, error) {
		return s.Store.ListSubjects(owner, semesterID)
	})
	return subjects, err
}

func (s *Service) CreateSubject(ctx context.Context, sub *models.Subject) (*models.Subject, error) {
	if _, err := s.Store.GetSemester(sub.Owner, sub.SemesterID); err != nil {
		return nil, err
	}

	sub.ID = uuid.NewString()
	if err := s.prepareSubject(sub); err != nil {
		return nil, err
	}
	if err := s.checkSubjectNameFree(sub.Owner, sub.SemesterID, sub.Name, ""); err != nil {
		return nil, err
	}

	if err := s.Store.CreateSubject(sub); err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("subject", "create").Inc()
	if err := s.recomputeSemester(ctx, sub.Owner, sub.SemesterID); err != nil {
		return nil, err
	}
	return sub, nil
}

type SubjectPatch struct {
	Name    *string `json:"name"`
	Credits *int    `json:"credits"`
	// Grade accepts a letter grade or "" to clear the grade again.
	Grade *string `json:"grade"`
}

func (s *Service) UpdateSubject(ctx context.Context, owner, id string, patch SubjectPatch) (*models.Subject, error) {
	sub, err := s.Store.GetSubject(owner, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		sub.Name = *patch.Name
	}
	if patch.Credits != nil {
		sub.Credits = *patch.Credits
	}
	if patch.Grade != nil {
		if *patch.Grade == "" {
			sub.Grade = nil
		} else {
			grade := models.Grade(*patch.Grade)
			sub.Grade = &grade
		}
	}

	if err := s.prepareSubject(sub); err != nil {
		return nil, err
	}
	if err := s.checkSubjectNameFree(owner, sub.SemesterID, sub.Name, sub.ID); err != nil {
		return nil, err
	}

	if err := s.Store.UpdateSubject(sub); err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("subject", "update").Inc()
	if err := s.recomputeSemester(ctx, owner, sub.SemesterID); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) DeleteSubject(ctx context.Context, owner, id string) error {
	sub, err := s.Store.GetSubject(owner, id)
	if err != nil {
		return err
	}

	if err := s.Store.DeleteSubject(owner, id); err != nil {
		return err
	}

	metrics.RecordMutationsTotal.WithLabelValues("subject", "delete").Inc()
	return s.recomputeSemester(ctx, owner, sub.SemesterID)
}

// prepareSubject validates the subject and keeps grade_points in sync with
// the grade; the calculator is the only place that mapping lives.
func (s *Service) prepareSubject(sub *models.Subject) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if sub.Grade == nil {
		sub.GradePoints = nil
		return nil
	}

	points, err := s.Calc.GradePoints(*sub.Grade)
	if err != nil {
		return fmt.Errorf("%w: grade %q not on the grading scale", ErrInvalid, *sub.Grade)
	}
	sub.GradePoints = &points
	return nil
}

func (s *Service) checkSubjectNameFree(owner, semesterID, name, excludeID string) error {
	existing, err := s.Store.ListSubjects(owner, semesterID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID != excludeID && strings.EqualFold(other.Name, name) {
			return fmt.Errorf("%w: subject %q already exists in this semester", ErrInvalid, name)
		}
	}
	return nil
}

// recomputeSemester refreshes the semester's server-derived SGPA and credit
// total after any subject mutation, then drops every cache key the change
// can be observed through.
func (s *Service) recomputeSemester(ctx context.Context, owner, semesterID string) error {
	subjects, err := s.Store.ListSubjects(owner, semesterID)
	if err != nil {
		return err
	}

	var sgpa *float64
	if graded := s.Calc.GradedCredits(subjects); graded > 0 {
		value := s.Calc.SGPA(subjects)
		sgpa = &value
		metrics.SGPAHistogram.WithLabelValues(owner).Observe(value)
	}

	if err := s.Store.UpdateSemesterDerived(owner, semesterID, sgpa, s.Calc.GradedCredits(subjects)); err != nil {
		return err
	}

	s.Cache.Invalidate(ctx,
		SubjectsKey(owner, semesterID),
		SemestersKey(owner),
		SummaryKey(owner),
	)
	return nil
}

// --- attendance ---

// AttendanceView decorates a record with its calculator-derived fields.
type AttendanceView struct {
	models.AttendanceRecord
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
	Color      string  `json:"color"`
}

func (s *Service) attendanceView(a models.AttendanceRecord) AttendanceView {
	pct := gradebook.AttendancePercentage(a.AttendedClasses, a.TotalClasses)
	band := s.Calc.AttendanceStatus(pct)
	return AttendanceView{
		AttendanceRecord: a,
		Percentage:       pct,
		Status:           band.Status,
		Color:            band.Color,
	}
}

func (s *Service) ListAttendance(ctx context.Context, owner, semesterID string) ([]AttendanceView, error) {
	records := []models.AttendanceRecord{}
	err := s.Cache.Fetch(ctx, AttendanceKey(owner, semesterID), &records, func(context.Context) (interface{}, error) {
		return s.Store.ListAttendance(owner, semesterID)
	})
	if err != nil {
		return nil, err
	}

	views := make([]AttendanceView, len(records))
	for i, r := range records {
		views[i] = s.attendanceView(r)
	}
	return views, nil
}

func (s *Service) CreateAttendance(ctx context.Context, a *models.AttendanceRecord) (*AttendanceView, error) {
	if _, err := s.Store.GetSemester(a.Owner, a.SemesterID); err != nil {
		return nil, err
	}

	a.ID = uuid.NewString()
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := s.Store.CreateAttendance(a); err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("attendance", "create").Inc()
	s.Cache.Invalidate(ctx, AttendanceKey(a.Owner, a.SemesterID))
	view := s.attendanceView(*a)
	return &view, nil
}

type AttendancePatch struct {
	SubjectName     *string `json:"subject_name"`
	TotalClasses    *int    `json:"total_classes"`
	AttendedClasses *int    `json:"attended_classes"`
	Note            *string `json:"note"`
}

func (s *Service) UpdateAttendance(ctx context.Context, owner, id string, patch AttendancePatch) (*AttendanceView, error) {
	a, err := s.Store.GetAttendance(owner, id)
	if err != nil {
		return nil, err
	}

	if patch.SubjectName != nil {
		a.SubjectName = *patch.SubjectName
	}
	if patch.TotalClasses != nil {
		a.TotalClasses = *patch.TotalClasses
	}
	if patch.AttendedClasses != nil {
		a.AttendedClasses = *patch.AttendedClasses
	}
	if patch.Note != nil {
		a.Note = *patch.Note
	}

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Store.UpdateAttendance(a); err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("attendance", "update").Inc()
	s.Cache.Invalidate(ctx, AttendanceKey(owner, a.SemesterID))
	view := s.attendanceView(*a)
	return &view, nil
}

func (s *Service) DeleteAttendance(ctx context.Context, owner, id string) error {
	a, err := s.Store.GetAttendance(owner, id)
	if err != nil {
		return err
	}

	if err := s.Store.DeleteAttendance(owner, id); err != nil {
		return err
	}

	metrics.RecordMutationsTotal.WithLabelValues("attendance", "delete").Inc()
	s.Cache.Invalidate(ctx, AttendanceKey(owner, a.SemesterID))
	return nil
}

// --- marks ---

// MarksView decorates a record with its derived percentages.
type MarksView struct {
	models.MarksRecord
	Percentage         float64 `json:"percentage"`
	WeightedPercentage float64 `json:"weighted_percentage"`
}

// MarksOverview is the per-semester marks listing plus the per-subject
// combined standing.
type MarksOverview struct {
	Rows          []MarksView        `json:"rows"`
	SubjectTotals map[string]float64 `json:"subject_totals"`
}

func marksView(m models.MarksRecord) MarksView {
	raw := gradebook.RawPercentage(m.ObtainedMarks, m.TotalMarks)
	return MarksView{
		MarksRecord:        m,
		Percentage:         raw,
		WeightedPercentage: gradebook.WeightedPercentage(raw, m.Weightage),
	}
}

func (s *Service) ListMarks(ctx context.Context, owner, semesterID string) (*MarksOverview, error) {
	records := []models.MarksRecord{}
	err := s.Cache.Fetch(ctx, MarksKey(owner, semesterID), &records, func(context.Context) (interface{}, error) {
		return s.Store.ListMarks(owner, semesterID)
	})
	if err != nil {
		return nil, err
	}

	overview := &MarksOverview{
		Rows:          make([]MarksView, len(records)),
		SubjectTotals: make(map[string]float64),
	}
	bySubject := make(map[string][]models.MarksRecord)
	for i, r := range records {
		overview.Rows[i] = marksView(r)
		bySubject[r.SubjectName] = append(bySubject[r.SubjectName], r)
	}
	for name, recs := range bySubject {
		overview.SubjectTotals[name] = gradebook.SubjectOverall(recs)
	}
	return overview, nil
}

func (s *Service) CreateMarks(ctx context.Context, m *models.MarksRecord) (*MarksView, error) {
	if _, err := s.Store.GetSemester(m.Owner, m.SemesterID); err != nil {
		return nil, err
	}

	m.ID = uuid.NewString()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := s.Store.CreateMarks(m); err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("marks", "create").Inc()
	s.Cache.Invalidate(ctx, MarksKey(m.Owner, m.SemesterID))
	view := marksView(*m)
	return &view, nil
}

type MarksPatch struct {
	SubjectName   *string  `json:"subject_name"`
	ExamType      *string  `json:"exam_type"`
	TotalMarks    *float64 `json:"total_marks"`
	ObtainedMarks *float64 `json:"obtained_marks"`
	Weightage     *float64 `json:"weightage"`
	ExamDate      *string  `json:"exam_date"`
	ExamTime      *string  `json:"exam_time"`
}

func (s *Service) UpdateMarks(ctx context.Context, owner, id string, patch MarksPatch) (*MarksView, error) {
	m, err := s.Store.GetMarks(owner, id)
	if err != nil {
		return nil, err
	}

	if patch.SubjectName != nil {
		m.SubjectName = *patch.SubjectName
	}
	if patch.ExamType != nil {
		m.ExamType = *patch.ExamType
	}
	if patch.TotalMarks != nil {
		m.TotalMarks = *patch.TotalMarks
	}
	if patch.ObtainedMarks != nil {
		m.ObtainedMarks = *patch.ObtainedMarks
	}
	if patch.Weightage != nil {
		m.Weightage = *patch.Weightage
	}
	if patch.ExamDate != nil {
		m.ExamDate = *patch.ExamDate
	}
	if patch.ExamTime != nil {
		m.ExamTime = *patch.ExamTime
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Store.UpdateMarks(m); err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("marks", "update").Inc()
	s.Cache.Invalidate(ctx, MarksKey(owner, m.SemesterID))
	view := marksView(*m)
	return &view, nil
}

func (s *Service) DeleteMarks(ctx context.Context, owner, id string) error {
	m, err := s.Store.GetMarks(owner, id)
	if err != nil {
		return err
	}

	if err := s.Store.DeleteMarks(owner, id); err != nil {
		return err
	}

	metrics.RecordMutationsTotal.WithLabelValues("marks", "delete").Inc()
	s.Cache.Invalidate(ctx, MarksKey(owner, m.SemesterID))
	return nil
}

// --- summary ---

// Summary serves the per-user aggregate. The heavy lifting happens in one
// SQL pass over grade points the calculator wrote; cached under the summary
// key until the next relevant mutation.
func (s *Service) Summary(ctx context.Context, owner string) (*models.AcademicSummary, error) {
	summary := &models.AcademicSummary{}
	err := s.Cache.Fetch(ctx, SummaryKey(owner), summary, func(context.Context) (interface{}, error) {
		row, err := s.Store.FetchSummaryStats(owner, s.Calc.FailingGrades)
		if err != nil {
			return nil, err
		}

		result := &models.AcademicSummary{
			TotalSemesters: row.TotalSemesters,
			TotalSubjects:  row.TotalSubjects,
			TotalCredits:   row.TotalCredits,
			Backlogs:       row.Backlogs,
		}
		if row.AverageSGPA != nil {
			result.AverageSGPA = *row.AverageSGPA
		}
		if row.CGPA != nil {
			result.CGPA = *row.CGPA
		}
		return result, nil
	})
	return summary, err
}

// --- bulk import/export ---

func (s *Service) ImportJSON(ctx context.Context, owner string, payload transfer.ImportPayload) (*transfer.ImportResult, error) {
	porter := &transfer.Porter{Store: s.Store, Calc: s.Calc}
	result, err := porter.Import(owner, payload)
	if err != nil {
		return nil, err
	}

	metrics.RecordMutationsTotal.WithLabelValues("import", "create").Inc()

	keys := []string{SemestersKey(owner), SummaryKey(owner)}
	if semesters, err := s.Store.ListSemesters(owner); err == nil {
		for _, sem := range semesters {
			keys = append(keys, SubjectsKey(owner, sem.ID))
		}
	}
	s.Cache.Invalidate(ctx, keys...)

	return result, nil
}

func (s *Service) ExportJSON(owner string) (*transfer.ExportPayload, error) {
	porter := &transfer.Porter{Store: s.Store, Calc: s.Calc}
	return porter.Export(owner)
}

// UpcomingExams lists scheduled exams from today onward, for reminders.
func (s *Service) UpcomingExams(owner string) ([]models.MarksRecord, error) {
	today := time.Now().UTC().Format("2006-01-02")
	return s.Store.ListUpcomingExams(owner, today)
}
