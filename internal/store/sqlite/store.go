// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/unitel-app/unitel/internal/models"
	"github.com/unitel-app/unitel/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn, migrationsDir string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	replacements := map[string]string{
		"BIGSERIAL":        "INTEGER PRIMARY KEY AUTOINCREMENT",
		"SERIAL":           "INTEGER PRIMARY KEY AUTOINCREMENT",
		"BIGINT":           "INTEGER",
		"UUID":             "TEXT",
		"TRUE":             "1",
		"FALSE":            "0",
		"now()":            "CURRENT_TIMESTAMP",
		"DOUBLE PRECISION": "REAL",
		"VARCHAR(100)":     "TEXT",
		"VARCHAR(50)":      "TEXT",
		"VARCHAR(10)":      "TEXT",
		"::text":           "",
	}
	result := sql
	for from, to := range replacements {
		result = strings.ReplaceAll(result, from, to)
	}
	return result
}

func (s *SQLiteStore) FetchSummaryStats(owner string, failingGrades []models.Grade) (*store.SummaryRow, error) {
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
	if err := s.DB.Get(&row, expanded, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch summary stats: %w", err)
	}

	return &row, nil
}
