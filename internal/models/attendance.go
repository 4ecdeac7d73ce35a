package models

import (
	"github.com/go-playground/validator/v10"
)

// AttendanceRecord tracks classes attended for one subject name within a
// semester. SubjectName is free text, not a foreign key: attendance can be
// tracked for subjects that were never formally registered.
type AttendanceRecord struct {
	ID              string `db:"id" json:"id"`
	SemesterID      string `db:"semester_id" json:"semester_id"`
	Owner           string `db:"owner" json:"-"`
	SubjectName     string `db:"subject_name" json:"subject_name" validate:"required,min=2,max=100"`
	TotalClasses    int    `db:"total_classes" json:"total_classes" validate:"min=0"`
	AttendedClasses int    `db:"attended_classes" json:"attended_classes" validate:"min=0,ltefield=TotalClasses"`
	Note            string `db:"note" json:"note,omitempty"`
}

func (a *AttendanceRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}
