package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/unitel-app/unitel/internal/models"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// owner. Handlers turn it into a 404 distinct from generic failures.
var ErrNotFound = errors.New("record not found")

type RecordStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateSemester(s *models.Semester) error
	GetSemester(owner, id string) (*models.Semester, error)
	ListSemesters(owner string) ([]models.Semester, error)
	UpdateSemester(s *models.Semester) error
	UpdateSemesterDerived(owner, id string, sgpa *float64, totalCredits int) error
	DeleteSemester(owner, id string) error

	CreateSubject(s *models.Subject) error
	GetSubject(owner, id string) (*models.Subject, error)
	ListSubjects(owner, semesterID string) ([]models.Subject, error)
	ListAllSubjects(owner string) ([]models.Subject, error)
	UpdateSubject(s *models.Subject) error
	DeleteSubject(owner, id string) error

	CreateAttendance(a *models.AttendanceRecord) error
	GetAttendance(owner, id string) (*models.AttendanceRecord, error)
	ListAttendance(owner, semesterID string) ([]models.AttendanceRecord, error)
	ListAllAttendance(owner string) ([]models.AttendanceRecord, error)
	UpdateAttendance(a *models.AttendanceRecord) error
	DeleteAttendance(owner, id string) error

	CreateMarks(m *models.MarksRecord) error
	GetMarks(owner, id string) (*models.MarksRecord, error)
	ListMarks(owner, semesterID string) ([]models.MarksRecord, error)
	ListAllMarks(owner string) ([]models.MarksRecord, error)
	UpdateMarks(m *models.MarksRecord) error
	DeleteMarks(owner, id string) error

	ListUpcomingExams(owner, fromDate string) ([]models.MarksRecord, error)

	FetchSummaryStats(owner string, failingGrades []models.Grade) (*SummaryRow, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) CreateSemester(sem *models.Semester) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO semesters (id, owner, number, sgpa, total_credits, source_json_import)
		VALUES (:id, :owner, :number, :sgpa, :total_credits, :source_json_import)
	`, sem)
	if err != nil {
		return fmt.Errorf("failed to create semester: %w", err)
	}
	return nil
}

func (s *BaseStore) GetSemester(owner, id string) (*models.Semester, error) {
	var sem models.Semester
	query := s.Converter(`
		SELECT id, owner, number, sgpa, total_credits, source_json_import
		FROM semesters
		WHERE owner = ? AND id = ?
	`)

	err := s.DB.Get(&sem, query, owner, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get semester: %w", err)
	}
	return &sem, nil
}

func (s *BaseStore) ListSemesters(owner string) ([]models.Semester, error) {
	semesters := []models.Semester{}
	query := s.Converter(`
		SELECT id, owner, number, sgpa, total_credits, source_json_import
		FROM semesters
		WHERE owner = ?
		ORDER BY number ASC
	`)

	if err := s.DB.Select(&semesters, query, owner); err != nil {
		return nil, fmt.Errorf("failed to list semesters: %w", err)
	}
	return semesters, nil
}

func (s *BaseStore) UpdateSemester(sem *models.Semester) error {
	res, err := s.DB.NamedExec(`
		UPDATE semesters
		SET number = :number, source_json_import = :source_json_import
		WHERE owner = :owner AND id = :id
	`, sem)
	if err != nil {
		return fmt.Errorf("failed to update semester: %w", err)
	}
	return requireRowAffected(res)
}

// UpdateSemesterDerived writes the server-derived aggregates. Clients cannot
// reach this through the API; the service calls it after subject mutations.
func (s *BaseStore) UpdateSemesterDerived(owner, id string, sgpa *float64, totalCredits int) error {
	query := s.Converter(`
		UPDATE semesters
		SET sgpa = ?, total_credits = ?
		WHERE owner = ? AND id = ?
	`)
	res, err := s.DB.Exec(query, sgpa, totalCredits, owner, id)
	if err != nil {
		return fmt.Errorf("failed to update semester aggregates: %w", err)
	}
	return requireRowAffected(res)
}

// DeleteSemester removes the semester and all of its subjects, attendance
// and marks records in one transaction.
func (s *BaseStore) DeleteSemester(owner, id string) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"subjects", "attendance_records", "marks_records"} {
		query := s.Converter(fmt.Sprintf(
			"DELETE FROM %s WHERE owner = ? AND semester_id = ?", table,
		))
		if _, err := tx.Exec(query, owner, id); err != nil {
			return fmt.Errorf("failed to cascade delete %s: %w", table, err)
		}
	}

	res, err := tx.Exec(s.Converter("DELETE FROM semesters WHERE owner = ? AND id = ?"), owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete semester: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *BaseStore) CreateSubject(sub *models.Subject) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO subjects (id, semester_id, owner, name, credits, grade, grade_points)
		VALUES (:id, :semester_id, :owner, :name, :credits, :grade, :grade_points)
	`, sub)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

func (s *BaseStore) GetSubject(owner, id string) (*models.Subject, error) {
	var sub models.Subject
	query := s.Converter(`
		SELECT id, semester_id, owner, name, credits, grade, grade_points
		FROM subjects
		WHERE owner = ? AND id = ?
	`)

	err := s.DB.Get(&sub, query, owner, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &sub, nil
}

func (s *BaseStore) ListSubjects(owner, semesterID string) ([]models.Subject, error) {
	subjects := []models.Subject{}
	query := s.Converter(`
		SELECT id, semester_id, owner, name, credits, grade, grade_points
		FROM subjects
		WHERE owner = ? AND semester_id = ?
		ORDER BY name ASC
	`)

	if err := s.DB.Select(&subjects, query, owner, semesterID); err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

func (s *BaseStore) ListAllSubjects(owner string) ([]models.Subject, error) {
	subjects := []models.Subject{}
	query := s.Converter(`
		SELECT su.id, su.semester_id, su.owner, su.name, su.credits, su.grade, su.grade_points
		FROM subjects su
		JOIN semesters se ON se.id = su.semester_id
		WHERE su.owner = ?
		ORDER BY se.number, su.name ASC
	`)

	if err := s.DB.Select(&subjects, query, owner); err != nil {
		return nil, fmt.Errorf("failed to list all subjects: %w", err)
	}
	return subjects, nil
}

func (s *BaseStore) UpdateSubject(sub *models.Subject) error {
	res, err := s.DB.NamedExec(`
		UPDATE subjects
		SET name = :name, credits = :credits, grade = :grade, grade_points = :grade_points
		WHERE owner = :owner AND id = :id
	`, sub)
	if err != nil {
		return fmt.Errorf("failed to update subject: %w", err)
	}
	return requireRowAffected(res)
}

func (s *BaseStore) DeleteSubject(owner, id string) error {
	res, err := s.DB.Exec(s.Converter("DELETE FROM subjects WHERE owner = ? AND id = ?"), owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	return requireRowAffected(res)
}

func (s *BaseStore) CreateAttendance(a *models.AttendanceRecord) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO attendance_records (id, semester_id, owner, subject_name, total_classes, attended_classes, note)
		VALUES (:id, :semester_id, :owner, :subject_name, :total_classes, :attended_classes, :note)
	`, a)
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}
	return nil
}

func (s *BaseStore) GetAttendance(owner, id string) (*models.AttendanceRecord, error) {
	var a models.AttendanceRecord
	query := s.Converter(`
		SELECT id, semester_id, owner, subject_name, total_classes, attended_classes, note
		FROM attendance_records
		WHERE owner = ? AND id = ?
	`)

	err := s.DB.Get(&a, query, owner, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return &a, nil
}

func (s *BaseStore) ListAttendance(owner, semesterID string) ([]models.AttendanceRecord, error) {
	records := []models.AttendanceRecord{}
	query := s.Converter(`
		SELECT id, semester_id, owner, subject_name, total_classes, attended_classes, note
		FROM attendance_records
		WHERE owner = ? AND semester_id = ?
		ORDER BY subject_name ASC
	`)

	if err := s.DB.Select(&records, query, owner, semesterID); err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return records, nil
}

func (s *BaseStore) ListAllAttendance(owner string) ([]models.AttendanceRecord, error) {
	records := []models.AttendanceRecord{}
	query := s.Converter(`
		SELECT id, semester_id, owner, subject_name, total_classes, attended_classes, note
		FROM attendance_records
		WHERE owner = ?
		ORDER BY semester_id, subject_name ASC
	`)

	if err := s.DB.Select(&records, query, owner); err != nil {
		return nil, fmt.Errorf("failed to list all attendance records: %w", err)
	}
	return records, nil
}

func (s *BaseStore) UpdateAttendance(a *models.AttendanceRecord) error {
	res, err := s.DB.NamedExec(`
		UPDATE attendance_records
		SET subject_name = :subject_name, total_classes = :total_classes,
		    attended_classes = :attended_classes, note = :note
		WHERE owner = :owner AND id = :id
	`, a)
	if err != nil {
		return fmt.Errorf("failed to update attendance record: %w", err)
	}
	return requireRowAffected(res)
}

func (s *BaseStore) DeleteAttendance(owner, id string) error {
	res, err := s.DB.Exec(s.Converter("DELETE FROM attendance_records WHERE owner = ? AND id = ?"), owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}
	return requireRowAffected(res)
}

func (s *BaseStore) CreateMarks(m *models.MarksRecord) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO marks_records (id, semester_id, owner, subject_name, exam_type, total_marks, obtained_marks, weightage, exam_date, exam_time)
		VALUES (:id, :semester_id, :owner, :subject_name, :exam_type, :total_marks, :obtained_marks, :weightage, :exam_date, :exam_time)
	`, m)
	if err != nil {
		return fmt.Errorf("failed to create marks record: %w", err)
	}
	return nil
}

func (s *BaseStore) GetMarks(owner, id string) (*models.MarksRecord, error) {
	var m models.MarksRecord
	query := s.Converter(`
		SELECT id, semester_id, owner, subject_name, exam_type, total_marks, obtained_marks, weightage, exam_date, exam_time
		FROM marks_records
		WHERE owner = ? AND id = ?
	`)

	err := s.DB.Get(&m, query, owner, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get marks record: %w", err)
	}
	return &m, nil
}

func (s *BaseStore) ListMarks(owner, semesterID string) ([]models.MarksRecord, error) {
	records := []models.MarksRecord{}
	query := s.Converter(`
		SELECT id, semester_id, owner, subject_name, exam_type, total_marks, obtained_marks, weightage, exam_date, exam_time
		FROM marks_records
		WHERE owner = ? AND semester_id = ?
		ORDER BY subject_name, exam_type ASC
	`)

	if err := s.DB.Select(&records, query, owner, semesterID); err != nil {
		return nil, fmt.Errorf("failed to list marks records: %w", err)
	}
	return records, nil
}

func (s *BaseStore) ListAllMarks(owner string) ([]models.MarksRecord, error) {
	records := []models.MarksRecord{}
	query := s.Converter(`
		SELECT id, semester_id, owner, subject_name, exam_type, total_marks, obtained_marks, weightage, exam_date, exam_time
		FROM marks_records
		WHERE owner = ?
		ORDER BY semester_id, subject_name, exam_type ASC
	`)

	if err := s.DB.Select(&records, query, owner); err != nil {
		return nil, fmt.Errorf("failed to list all marks records: %w", err)
	}
	return records, nil
}

func (s *BaseStore) UpdateMarks(m *models.MarksRecord) error {
	res, err := s.DB.NamedExec(`
		UPDATE marks_records
		SET subject_name = :subject_name, exam_type = :exam_type,
		    total_marks = :total_marks, obtained_marks = :obtained_marks,
		    weightage = :weightage, exam_date = :exam_date, exam_time = :exam_time
		WHERE owner = :owner AND id = :id
	`, m)
	if err != nil {
		return fmt.Errorf("failed to update marks record: %w", err)
	}
	return requireRowAffected(res)
}

func (s *BaseStore) DeleteMarks(owner, id string) error {
	res, err := s.DB.Exec(s.Converter("DELETE FROM marks_records WHERE owner = ? AND id = ?"), owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete marks record: %w", err)
	}
	return requireRowAffected(res)
}

// ListUpcomingExams returns marks records scheduled on or after fromDate.
// Dates are ISO strings, so lexicographic compare works in both dialects.
func (s *BaseStore) ListUpcomingExams(owner, fromDate string) ([]models.MarksRecord, error) {
	records := []models.MarksRecord{}
	query := s.Converter(`
		SELECT id, semester_id, owner, subject_name, exam_type, total_marks, obtained_marks, weightage, exam_date, exam_time
		FROM marks_records
		WHERE owner = ? AND exam_date <> '' AND exam_date >= ?
		ORDER BY exam_date, exam_time ASC
	`)

	if err := s.DB.Select(&records, query, owner, fromDate); err != nil {
		return nil, fmt.Errorf("failed to list upcoming exams: %w", err)
	}
	return records, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
