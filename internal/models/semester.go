package models

import (
	"github.com/go-playground/validator/v10"
)

// Semester groups subjects, attendance and marks records for one term.
// SGPA and TotalCredits are derived from the semester's graded subjects
// and recomputed on every subject mutation; clients never write them.
type Semester struct {
	ID               string   `db:"id" json:"id"`
	Owner            string   `db:"owner" json:"-"`
	Number           int      `db:"number" json:"number" validate:"required,min=1"`
	SGPA             *float64 `db:"sgpa" json:"sgpa"`
	TotalCredits     int      `db:"total_credits" json:"total_credits"`
	SourceJSONImport bool     `db:"source_json_import" json:"source_json_import"`
}

func (s *Semester) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
