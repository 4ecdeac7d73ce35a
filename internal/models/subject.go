package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Grade is a letter grade on the canonical UNI-TEL scale.
type Grade string

const (
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeE      Grade = "E"
	GradeF      Grade = "F"
	GradeI      Grade = "I"
)

// Grades lists every grade the API accepts, best first.
var Grades = []Grade{
	GradeA, GradeAMinus,
	GradeB, GradeBMinus,
	GradeC, GradeCMinus,
	GradeD, GradeE, GradeF, GradeI,
}

// Valid returns true when the grade is one of the canonical letters.
func (g Grade) Valid() bool {
	for _, known := range Grades {
		if g == known {
			return true
		}
	}
	return false
}

type Subject struct {
	ID          string   `db:"id" json:"id"`
	SemesterID  string   `db:"semester_id" json:"semester_id"`
	Owner       string   `db:"owner" json:"-"`
	Name        string   `db:"name" json:"name" validate:"required,min=2,max=100"`
	Credits     int      `db:"credits" json:"credits" validate:"required,min=1,max=10"`
	Grade       *Grade   `db:"grade" json:"grade,omitempty"`
	GradePoints *float64 `db:"grade_points" json:"grade_points,omitempty"`
}

func (s *Subject) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.Grade != nil && !s.Grade.Valid() {
		return fmt.Errorf("unknown grade %q", *s.Grade)
	}
	return nil
}
