package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// SummaryRow is the raw result of the per-user academic aggregate query.
// Grade points were written by the calculator on subject mutation; the SQL
// only sums and averages them.
type SummaryRow struct {
	TotalSemesters int      `db:"total_semesters"`
	TotalSubjects  int      `db:"total_subjects"`
	TotalCredits   int      `db:"total_credits"`
	AverageSGPA    *float64 `db:"average_sgpa"`
	CGPA           *float64 `db:"cgpa"`
	Backlogs       int      `db:"backlogs"`
}
