package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func gptr(g Grade) *Grade { return &g }

func TestGradeValid(t *testing.T) {
	for _, g := range Grades {
		assert.True(t, g.Valid(), "grade %s should be valid", g)
	}

	for _, g := range []Grade{"Z", "A+", "a", ""} {
		assert.False(t, g.Valid(), "grade %q should be invalid", g)
	}
}

func TestSubjectValidate(t *testing.T) {
	valid := Subject{Name: "Algorithms", Credits: 4, Grade: gptr(GradeA)}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		subject Subject
	}{
		{"empty name", Subject{Name: "", Credits: 4}},
		{"name too short", Subject{Name: "A", Credits: 4}},
		{"zero credits", Subject{Name: "Algorithms", Credits: 0}},
		{"credits above cap", Subject{Name: "Algorithms", Credits: 11}},
		{"unknown grade", Subject{Name: "Algorithms", Credits: 4, Grade: gptr(Grade("A+"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.subject.Validate())
		})
	}
}

func TestSubjectValidateUngraded(t *testing.T) {
	s := Subject{Name: "Seminar", Credits: 1}
	assert.NoError(t, s.Validate())
}

func TestSemesterValidate(t *testing.T) {
	assert.NoError(t, (&Semester{Number: 1}).Validate())
	assert.NoError(t, (&Semester{Number: 12}).Validate())
	assert.Error(t, (&Semester{Number: 0}).Validate())
	assert.Error(t, (&Semester{Number: -3}).Validate())
}

func TestAttendanceRecordValidate(t *testing.T) {
	ok := AttendanceRecord{SubjectName: "Discrete Math", TotalClasses: 40, AttendedClasses: 31}
	assert.NoError(t, ok.Validate())

	zero := AttendanceRecord{SubjectName: "Discrete Math"}
	assert.NoError(t, zero.Validate())

	overAttended := AttendanceRecord{SubjectName: "Discrete Math", TotalClasses: 10, AttendedClasses: 11}
	assert.Error(t, overAttended.Validate())

	negative := AttendanceRecord{SubjectName: "Discrete Math", TotalClasses: -1, AttendedClasses: -1}
	assert.Error(t, negative.Validate())
}

func TestMarksRecordValidate(t *testing.T) {
	ok := MarksRecord{SubjectName: "Networks", ExamType: "Midterm", TotalMarks: 50, ObtainedMarks: 42, Weightage: 30}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name   string
		record MarksRecord
	}{
		{"missing exam type", MarksRecord{SubjectName: "Networks", TotalMarks: 50, ObtainedMarks: 10}},
		{"obtained above total", MarksRecord{SubjectName: "Networks", ExamType: "Quiz", TotalMarks: 10, ObtainedMarks: 11}},
		{"weightage above hundred", MarksRecord{SubjectName: "Networks", ExamType: "Quiz", TotalMarks: 10, ObtainedMarks: 5, Weightage: 101}},
		{"negative marks", MarksRecord{SubjectName: "Networks", ExamType: "Quiz", TotalMarks: -5, ObtainedMarks: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.record.Validate())
		})
	}
}
