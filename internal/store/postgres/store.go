package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/unitel-app/unitel/internal/models"
	"github.com/unitel-app/unitel/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

func (s *PostgresStore) FetchSummaryStats(owner string, failingGrades []models.Grade) (*store.SummaryRow, error) {
	query := `
		WITH graded AS (
			SELECT semester_id, credits, grade, grade_points
			FROM subjects
			WHERE owner = ?
			AND grade IS NOT NULL
		),
		per_semester AS (
			SELECT
				semester_id,
				SUM(credits * grade_points) / NULLIF(SUM(credits), 0) AS sgpa
			FROM graded
			GROUP BY semester_id
		)
		SELECT
			(SELECT COUNT(*) FROM semesters WHERE owner = ?) AS total_semesters,
			(SELECT COUNT(*) FROM subjects WHERE owner = ?) AS total_subjects,
			(SELECT COALESCE(SUM(credits), 0) FROM graded) AS total_credits,
			(SELECT AVG(sgpa) FROM per_semester) AS average_sgpa,
			(SELECT SUM(credits * grade_points) / NULLIF(SUM(credits), 0) FROM graded) AS cgpa,
			(SELECT COUNT(*) FROM subjects WHERE owner = ? AND grade IN (?)) AS backlogs
	`

	failing := make([]string, len(failingGrades))
	for i, g := range failingGrades {
		failing[i] = string(g)
	}

	expanded, args, err := sqlx.In(query, owner, owner, owner, owner, failing)
	if err != nil {
		return nil, fmt.Errorf("failed to expand summary query: %w", err)
	}

	var row store.SummaryRow
	if err := s.DB.Get(&row, s.Converter(expanded), args...); err != nil {
		return nil, fmt.Errorf("failed to fetch summary stats: %w", err)
	}

	return &row, nil
}
