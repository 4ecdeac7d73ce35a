// internal/gradebook/calculator.go
package gradebook

import (
	"errors"

	"github.com/unitel-app/unitel/internal/models"
)

// ErrUnknownGrade is returned for letters outside the canonical scale.
// Unknown grades are an error, never a silent zero.
var ErrUnknownGrade = errors.New("unknown grade")

// AttendanceBand classifies an attendance percentage for the dashboard.
type AttendanceBand struct {
	Status string `json:"status"`
	Color  string `json:"color"`
}

// Calculator turns grades, attendance counts and exam marks into the derived
// numbers the dashboard shows. All methods are pure; thresholds and the
// grade-point scale come from config with the defaults below.
type Calculator struct {
	Scale             map[models.Grade]float64 `toml:"scale"`
	FailingGrades     []models.Grade           `toml:"failing_grades"`
	GoodAttendanceMin float64                  `toml:"good_attendance_min"`
	WarnAttendanceMin float64                  `toml:"warn_attendance_min"`
}

// DefaultScale is the 10-point scale used when config specifies none.
// I (incomplete) scores zero until the subject is cleared.
func DefaultScale() map[models.Grade]float64 {
	return map[models.Grade]float64{
		models.GradeA:      9,
		models.GradeAMinus: 8,
		models.GradeB:      7,
		models.GradeBMinus: 6,
		models.GradeC:      5,
		models.GradeCMinus: 4,
		models.GradeD:      3,
		models.GradeE:      2,
		models.GradeF:      0,
		models.GradeI:      0,
	}
}

// DefaultFailingGrades: D and below count as backlogs.
func DefaultFailingGrades() []models.Grade {
	return []models.Grade{models.GradeD, models.GradeE, models.GradeF, models.GradeI}
}

func NewCalculator(
	scale map[models.Grade]float64,
	failingGrades []models.Grade,
	goodAttendanceMin float64,
	warnAttendanceMin float64,
) *Calculator {
	if len(scale) == 0 {
		scale = DefaultScale()
	}
	if len(failingGrades) == 0 {
		failingGrades = DefaultFailingGrades()
	}
	if goodAttendanceMin == 0 {
		goodAttendanceMin = 75
	}
	if warnAttendanceMin == 0 {
		warnAttendanceMin = 65
	}

	return &Calculator{
		Scale:             scale,
		FailingGrades:     failingGrades,
		GoodAttendanceMin: goodAttendanceMin,
		WarnAttendanceMin: warnAttendanceMin,
	}
}

// GradePoints maps a letter grade to grade points on the configured scale.
func (c *Calculator) GradePoints(grade models.Grade) (float64, error) {
	points, ok := c.Scale[grade]
	if !ok {
		return 0, ErrUnknownGrade
	}
	return points, nil
}

// SGPA is the credit-weighted mean of grade points over the graded subjects.
// Ungraded subjects are excluded from both numerator and denominator.
// Returns 0 when nothing is graded yet.
func (c *Calculator) SGPA(subjects []models.Subject) float64 {
	var weightedPoints, credits float64
	for _, s := range subjects {
		if s.Grade == nil {
			continue
		}
		points, err := c.GradePoints(*s.Grade)
		if err != nil {
			continue
		}
		weightedPoints += float64(s.Credits) * points
		credits += float64(s.Credits)
	}

	if credits == 0 {
		return 0
	}
	return weightedPoints / credits
}

// CGPA is SGPA applied to the cumulative subject set: same formula, the
// caller decides which semesters' subjects go in.
func (c *Calculator) CGPA(subjects []models.Subject) float64 {
	return c.SGPA(subjects)
}

// GradedCredits sums the credits of subjects that carry a grade.
func (c *Calculator) GradedCredits(subjects []models.Subject) int {
	total := 0
	for _, s := range subjects {
		if s.Grade != nil {
			total += s.Credits
		}
	}
	return total
}

// IsFailing reports whether a grade counts toward the backlog total.
func (c *Calculator) IsFailing(grade models.Grade) bool {
	for _, f := range c.FailingGrades {
		if grade == f {
			return true
		}
	}
	return false
}

// Backlogs counts subjects whose grade is in the failing set.
func (c *Calculator) Backlogs(subjects []models.Subject) int {
	count := 0
	for _, s := range subjects {
		if s.Grade != nil && c.IsFailing(*s.Grade) {
			count++
		}
	}
	return count
}

// AttendanceStatus buckets a percentage. Lower bounds are inclusive: exactly
// 75 is Good, exactly 65 is Warning.
func (c *Calculator) AttendanceStatus(percentage float64) AttendanceBand {
	switch {
	case percentage >= c.GoodAttendanceMin:
		return AttendanceBand{Status: "Good", Color: "green"}
	case percentage >= c.WarnAttendanceMin:
		return AttendanceBand{Status: "Warning", Color: "yellow"}
	default:
		return AttendanceBand{Status: "Critical", Color: "red"}
	}
}

// AttendancePercentage is attended/total as a percentage, 0 when no classes
// were held yet.
func AttendancePercentage(attended, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}

// RawPercentage is obtained/total as a percentage, 0 when total is 0.
func RawPercentage(obtained, total float64) float64 {
	if total == 0 {
		return 0
	}
	return obtained / total * 100
}

// WeightedPercentage scales a raw exam percentage by its weightage.
func WeightedPercentage(raw, weightage float64) float64 {
	return raw * weightage / 100
}

// SubjectOverall combines a subject's exam records into one percentage: the
// weightage-weighted mean of raw percentages, or the plain mean when no
// record carries a weightage. This is the single combination rule used
// everywhere a subject total is shown.
func SubjectOverall(records []models.MarksRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	var weightedSum, weightSum float64
	for _, r := range records {
		raw := RawPercentage(r.ObtainedMarks, r.TotalMarks)
		weightedSum += raw * r.Weightage
		weightSum += r.Weightage
	}
	if weightSum > 0 {
		return weightedSum / weightSum
	}

	var rawSum float64
	for _, r := range records {
		rawSum += RawPercentage(r.ObtainedMarks, r.TotalMarks)
	}
	return rawSum / float64(len(records))
}
