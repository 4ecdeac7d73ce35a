package models

import (
	"github.com/go-playground/validator/v10"
)

// MarksRecord stores one exam result. Weightage is the percentage this exam
// contributes to the subject's overall standing and defaults to 100.
// ExamDate/ExamTime are optional scheduling fields ("2026-05-12", "09:30")
// used for upcoming-exam reminders; past exams usually leave them empty.
type MarksRecord struct {
	ID            string  `db:"id" json:"id"`
	SemesterID    string  `db:"semester_id" json:"semester_id"`
	Owner         string  `db:"owner" json:"-"`
	SubjectName   string  `db:"subject_name" json:"subject_name" validate:"required,min=2,max=100"`
	ExamType      string  `db:"exam_type" json:"exam_type" validate:"required,max=50"`
	TotalMarks    float64 `db:"total_marks" json:"total_marks" validate:"min=0"`
	ObtainedMarks float64 `db:"obtained_marks" json:"obtained_marks" validate:"min=0,ltefield=TotalMarks"`
	Weightage     float64 `db:"weightage" json:"weightage" validate:"min=0,max=100"`
	ExamDate      string  `db:"exam_date" json:"exam_date,omitempty"`
	ExamTime      string  `db:"exam_time" json:"exam_time,omitempty"`
}

func (m *MarksRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(m)
}
