package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/unitel-app/unitel/internal/app"
	"github.com/unitel-app/unitel/internal/gradebook"
	"github.com/unitel-app/unitel/internal/models"
	"github.com/unitel-app/unitel/internal/store"
	"github.com/unitel-app/unitel/internal/transfer"
)

// GSheetExporter mirrors one owner's records into a spreadsheet on a cron
// schedule: one sheet each for Summary, Semesters, Subjects, Attendance and
// Marks.
type GSheetExporter struct {
	store         store.RecordStore
	calc          *gradebook.Calculator
	scheduler     *gocron.Scheduler
	sheetsService *sheets.Service
}

func NewGSheetExporter(config *app.Config, recordStore store.RecordStore) (*gocron.Scheduler, error) {
	ctx := context.Background()
	scheduler := gocron.NewScheduler(time.UTC)
	calc := config.Calculator()

	for owner, configs := range config.GSheet {
		for _, cfg := range configs {
			svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
			if err != nil {
				return nil, fmt.Errorf("failed to create sheets service: %w", err)
			}

			exporter := &GSheetExporter{
				store:         recordStore,
				calc:          calc,
				scheduler:     scheduler,
				sheetsService: svc,
			}

			owner := owner
			spreadsheetID := cfg.SpreadsheetID
			_, err = scheduler.Cron(cfg.Schedule).Do(func() {
				if err := exporter.Export(owner, spreadsheetID); err != nil {
					fmt.Printf("Export failed for %s: %v\n", owner, err)
				}
			})
			if err != nil {
				return nil, fmt.Errorf("failed to schedule export: %w", err)
			}
		}
	}

	scheduler.StartAsync()
	return scheduler, nil
}

// Export writes the owner's full dataset into the spreadsheet.
func (e *GSheetExporter) Export(owner, spreadsheetID string) error {
	porter := &transfer.Porter{Store: e.store, Calc: e.calc}
	payload, err := porter.Export(owner)
	if err != nil {
		return fmt.Errorf("failed to assemble export: %w", err)
	}

	sheetData := map[string][][]interface{}{
		"Summary":    e.summaryRows(payload),
		"Semesters":  e.semesterRows(payload.Semesters),
		"Subjects":   e.subjectRows(payload.Subjects),
		"Attendance": e.attendanceRows(payload.Attendance),
		"Marks":      e.marksRows(payload.Marks),
	}

	for sheetName, rows := range sheetData {
		writeRange := fmt.Sprintf("%s!A1", sheetName)
		_, err := e.sheetsService.Spreadsheets.Values.Update(spreadsheetID, writeRange,
			&sheets.ValueRange{Values: rows}).ValueInputOption("RAW").Do()
		if err != nil {
			return fmt.Errorf("failed to update sheet %s: %w", sheetName, err)
		}
	}

	return nil
}

func (e *GSheetExporter) summaryRows(payload *transfer.ExportPayload) [][]interface{} {
	rows := [][]interface{}{
		{"Exported", time.Now().Format("2 January 15:04")},
	}
	if payload.Profile.Summary == nil {
		return rows
	}

	s := payload.Profile.Summary
	return append(rows,
		[]interface{}{"Semesters", s.TotalSemesters},
		[]interface{}{"Subjects", s.TotalSubjects},
		[]interface{}{"Credits", s.TotalCredits},
		[]interface{}{"Average SGPA", s.AverageSGPA},
		[]interface{}{"CGPA", s.CGPA},
		[]interface{}{"Backlogs", s.Backlogs},
	)
}

func (e *GSheetExporter) semesterRows(semesters []models.Semester) [][]interface{} {
	rows := [][]interface{}{{"Number", "SGPA", "Credits", "Imported"}}
	for _, sem := range semesters {
		sgpa := ""
		if sem.SGPA != nil {
			sgpa = fmt.Sprintf("%.2f", *sem.SGPA)
		}
		rows = append(rows, []interface{}{sem.Number, sgpa, sem.TotalCredits, sem.SourceJSONImport})
	}
	return rows
}

func (e *GSheetExporter) subjectRows(subjects []models.Subject) [][]interface{} {
	rows := [][]interface{}{{"Name", "Credits", "Grade", "Points"}}
	for _, sub := range subjects {
		grade, points := "", ""
		if sub.Grade != nil {
			grade = string(*sub.Grade)
		}
		if sub.GradePoints != nil {
			points = fmt.Sprintf("%.1f", *sub.GradePoints)
		}
		rows = append(rows, []interface{}{sub.Name, sub.Credits, grade, points})
	}
	return rows
}

func (e *GSheetExporter) attendanceRows(records []models.AttendanceRecord) [][]interface{} {
	rows := [][]interface{}{{"Subject", "Attended", "Total", "Percentage", "Status"}}
	for _, a := range records {
		pct := gradebook.AttendancePercentage(a.AttendedClasses, a.TotalClasses)
		band := e.calc.AttendanceStatus(pct)
		rows = append(rows, []interface{}{
			a.SubjectName,
			a.AttendedClasses,
			a.TotalClasses,
			fmt.Sprintf("%.1f%%", pct),
			band.Status,
		})
	}
	return rows
}

func (e *GSheetExporter) marksRows(records []models.MarksRecord) [][]interface{} {
	rows := [][]interface{}{{"Subject", "Exam", "Obtained", "Total", "Percentage", "Weightage", "Weighted"}}
	for _, m := range records {
		raw := gradebook.RawPercentage(m.ObtainedMarks, m.TotalMarks)
		rows = append(rows, []interface{}{
			m.SubjectName,
			m.ExamType,
			m.ObtainedMarks,
			m.TotalMarks,
			fmt.Sprintf("%.1f%%", raw),
			m.Weightage,
			fmt.Sprintf("%.1f%%", gradebook.WeightedPercentage(raw, m.Weightage)),
		})
	}
	return rows
}
