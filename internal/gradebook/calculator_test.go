package gradebook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitel-app/unitel/internal/models"
)

func grade(g models.Grade) *models.Grade {
	return &g
}

func TestCalculator_GradePoints(t *testing.T) {
	calc := NewCalculator(nil, nil, 0, 0)

	testCases := []struct {
		grade          models.Grade
		expectedPoints float64
	}{
		{models.GradeA, 9},
		{models.GradeAMinus, 8},
		{models.GradeB, 7},
		{models.GradeBMinus, 6},
		{models.GradeC, 5},
		{models.GradeCMinus, 4},
		{models.GradeD, 3},
		{models.GradeE, 2},
		{models.GradeF, 0},
		{models.GradeI, 0},
	}

	for _, tc := range testCases {
		t.Run(string(tc.grade), func(t *testing.T) {
			points, err := calc.GradePoints(tc.grade)
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedPoints, points)

			// same grade always yields the same points
			again, err := calc.GradePoints(tc.grade)
			assert.NoError(t, err)
			assert.Equal(t, points, again)
		})
	}

	t.Run("unknown grade is an error, not a zero", func(t *testing.T) {
		_, err := calc.GradePoints(models.Grade("Z+"))
		assert.ErrorIs(t, err, ErrUnknownGrade)
	})
}

func TestCalculator_SGPA(t *testing.T) {
	calc := NewCalculator(nil, nil, 0, 0)

	testCases := []struct {
		name     string
		subjects []models.Subject
		expected float64
	}{
		{
			name:     "no subjects",
			subjects: nil,
			expected: 0,
		},
		{
			name: "all subjects ungraded",
			subjects: []models.Subject{
				{Name: "Maths", Credits: 4},
				{Name: "Physics", Credits: 3},
			},
			expected: 0,
		},
		{
			name: "credit-weighted mean: 4xA + 2xB",
			subjects: []models.Subject{
				{Name: "Maths", Credits: 4, Grade: grade(models.GradeA)},
				{Name: "Physics", Credits: 2, Grade: grade(models.GradeB)},
			},
			expected: (4*9 + 2*7) / 6.0,
		},
		{
			name: "ungraded subject excluded from numerator and denominator",
			subjects: []models.Subject{
				{Name: "Maths", Credits: 4, Grade: grade(models.GradeA)},
				{Name: "Elective", Credits: 10},
			},
			expected: 9,
		},
		{
			name: "all-F semester is 0, not NaN",
			subjects: []models.Subject{
				{Name: "Maths", Credits: 4, Grade: grade(models.GradeF)},
			},
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, calc.SGPA(tc.subjects), 1e-9)
		})
	}
}

func TestCalculator_CGPA_IsSameFormulaOverCumulativeSet(t *testing.T) {
	calc := NewCalculator(nil, nil, 0, 0)

	sem1 := []models.Subject{
		{Name: "Maths I", Credits: 4, Grade: grade(models.GradeA)},
	}
	sem2 := []models.Subject{
		{Name: "Maths II", Credits: 4, Grade: grade(models.GradeB)},
	}

	all := append(append([]models.Subject{}, sem1...), sem2...)
	assert.InDelta(t, 8.0, calc.CGPA(all), 1e-9)
	assert.Equal(t, calc.SGPA(all), calc.CGPA(all))
}

func TestCalculator_AttendanceStatus(t *testing.T) {
	calc := NewCalculator(nil, nil, 0, 0)

	testCases := []struct {
		name       string
		percentage float64
		status     string
		color      string
	}{
		{"exactly at good threshold", 75, "Good", "green"},
		{"just under good threshold", 74.99, "Warning", "yellow"},
		{"exactly at warning threshold", 65, "Warning", "yellow"},
		{"just under warning threshold", 64.99, "Critical", "red"},
		{"full attendance", 100, "Good", "green"},
		{"zero", 0, "Critical", "red"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			band := calc.AttendanceStatus(tc.percentage)
			assert.Equal(t, tc.status, band.Status)
			assert.Equal(t, tc.color, band.Color)
		})
	}
}

func TestAttendancePercentage(t *testing.T) {
	assert.Equal(t, 0.0, AttendancePercentage(0, 0))
	assert.Equal(t, 50.0, AttendancePercentage(10, 20))
	assert.InDelta(t, 76.67, AttendancePercentage(23, 30), 0.01)
}

func TestSubjectOverall(t *testing.T) {
	testCases := []struct {
		name     string
		records  []models.MarksRecord
		expected float64
	}{
		{
			name:     "no records",
			records:  nil,
			expected: 0,
		},
		{
			name: "single full-weight exam",
			records: []models.MarksRecord{
				{ObtainedMarks: 40, TotalMarks: 50, Weightage: 100},
			},
			expected: 80,
		},
		{
			name: "weightage-weighted mean across exams",
			records: []models.MarksRecord{
				// midterm 80% at weight 30, final 60% at weight 70
				{ObtainedMarks: 24, TotalMarks: 30, Weightage: 30},
				{ObtainedMarks: 60, TotalMarks: 100, Weightage: 70},
			},
			expected: (80*30 + 60*70) / 100.0,
		},
		{
			name: "falls back to plain mean when no weightages set",
			records: []models.MarksRecord{
				{ObtainedMarks: 80, TotalMarks: 100},
				{ObtainedMarks: 60, TotalMarks: 100},
			},
			expected: 70,
		},
		{
			name: "zero total marks scores zero instead of dividing",
			records: []models.MarksRecord{
				{ObtainedMarks: 0, TotalMarks: 0, Weightage: 100},
				{ObtainedMarks: 50, TotalMarks: 100, Weightage: 100},
			},
			expected: 25,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, SubjectOverall(tc.records), 1e-9)
		})
	}
}

func TestWeightedPercentage(t *testing.T) {
	assert.Equal(t, 40.0, WeightedPercentage(80, 50))
	assert.Equal(t, 80.0, WeightedPercentage(80, 100))
	assert.Equal(t, 0.0, WeightedPercentage(80, 0))
}

func TestCalculator_Backlogs(t *testing.T) {
	calc := NewCalculator(nil, nil, 0, 0)

	subjects := []models.Subject{
		{Name: "Maths", Credits: 4, Grade: grade(models.GradeA)},
		{Name: "Physics", Credits: 3, Grade: grade(models.GradeF)},
		{Name: "Chemistry", Credits: 3, Grade: grade(models.GradeI)},
		{Name: "Biology", Credits: 3, Grade: grade(models.GradeD)},
		{Name: "Elective", Credits: 2},
	}

	assert.Equal(t, 3, calc.Backlogs(subjects))
}

func TestCalculator_CustomScaleFromConfig(t *testing.T) {
	calc := NewCalculator(
		map[models.Grade]float64{models.GradeA: 10, models.GradeB: 8},
		[]models.Grade{models.GradeF},
		80,
		70,
	)

	points, err := calc.GradePoints(models.GradeA)
	assert.NoError(t, err)
	assert.Equal(t, 10.0, points)

	// grades outside the configured scale are unknown
	_, err = calc.GradePoints(models.GradeC)
	assert.ErrorIs(t, err, ErrUnknownGrade)

	assert.Equal(t, "Warning", calc.AttendanceStatus(75).Status)
}
