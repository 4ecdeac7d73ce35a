package models

// AcademicSummary is the per-user aggregate shown on the dashboard. It is
// derived, never stored as a row.
type AcademicSummary struct {
	TotalSemesters int     `json:"total_semesters"`
	TotalSubjects  int     `json:"total_subjects"`
	TotalCredits   int     `json:"total_credits"`
	AverageSGPA    float64 `json:"average_sgpa"`
	CGPA           float64 `json:"cgpa"`
	Backlogs       int     `json:"backlogs"`
}
