package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitel-app/unitel/internal/models"
	"github.com/unitel-app/unitel/internal/store"
	"github.com/unitel-app/unitel/internal/store/sqlite"
)

// newTestService wires a service against in-memory SQLite with the local
// cache, no redis anywhere
func newTestService(t *testing.T) (*Service, func()) {
	cfg := &Config{}
	cfg.Server.Port = ":0"

	recordStore, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)

	auth, err := NewAuth(cfg)
	require.NoError(t, err)

	cache, err := NewQueryCache(cfg)
	require.NoError(t, err)

	examTypes, err := NewExamTypeRegistry(cfg)
	require.NoError(t, err)

	svc := &Service{
		Config:    cfg,
		Store:     recordStore,
		Auth:      auth,
		Cache:     cache,
		ExamTypes: examTypes,
		Calc:      cfg.Calculator(),
	}

	return svc, func() { svc.Close() }
}

func createTestSemester(t *testing.T, svc *Service, owner string, number int) *models.Semester {
	sem, err := svc.CreateSemester(context.Background(), &models.Semester{Owner: owner, Number: number})
	require.NoError(t, err)
	return sem
}

func strp(s string) *string { return &s }

func intp(i int) *int { return &i }

func TestCreateSemesterIgnoresClientDerivedFields(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	sgpa := 9.9
	sem, err := svc.CreateSemester(context.Background(), &models.Semester{
		Owner:        "john.doe",
		Number:       1,
		SGPA:         &sgpa,
		TotalCredits: 99,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, sem.ID)
	assert.Nil(t, sem.SGPA)
	assert.Equal(t, 0, sem.TotalCredits)
}

func TestCreateSemesterValidation(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.CreateSemester(context.Background(), &models.Semester{Owner: "john.doe", Number: 0})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSubjectMutationsRecomputeSemester(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	sem := createTestSemester(t, svc, "john.doe", 1)

	gradeA := models.GradeA
	sub1, err := svc.CreateSubject(ctx, &models.Subject{
		Owner:      "john.doe",
		SemesterID: sem.ID,
		Name:       "Algorithms",
		Credits:    4,
		Grade:      &gradeA,
	})
	require.NoError(t, err)
	require.NotNil(t, sub1.GradePoints)
	assert.InDelta(t, 9.0, *sub1.GradePoints, 0.001)

	gradeB := models.GradeB
	_, err = svc.CreateSubject(ctx, &models.Subject{
		Owner:      "john.doe",
		SemesterID: sem.ID,
		Name:       "Databases",
		Credits:    2,
		Grade:      &gradeB,
	})
	require.NoError(t, err)

	// semester list serves fresh data after the mutation, (4*9+2*7)/6
	semesters, err := svc.ListSemesters(ctx, "john.doe")
	require.NoError(t, err)
	require.Len(t, semesters, 1)
	require.NotNil(t, semesters[0].SGPA)
	assert.InDelta(t, 50.0/6.0, *semesters[0].SGPA, 0.001)
	assert.Equal(t, 6, semesters[0].TotalCredits)

	// clearing the grade drops it from the aggregate
	_, err = svc.UpdateSubject(ctx, "john.doe", sub1.ID, SubjectPatch{Grade: strp("")})
	require.NoError(t, err)

	semesters, err = svc.ListSemesters(ctx, "john.doe")
	require.NoError(t, err)
	require.NotNil(t, semesters[0].SGPA)
	assert.InDelta(t, 7.0, *semesters[0].SGPA, 0.001)
	assert.Equal(t, 2, semesters[0].TotalCredits)
}

func TestCreateSubjectRejectsUnknownGrade(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	sem := createTestSemester(t, svc, "john.doe", 1)

	grade := models.Grade("A+")
	_, err := svc.CreateSubject(context.Background(), &models.Subject{
		Owner:      "john.doe",
		SemesterID: sem.ID,
		Name:       "Algorithms",
		Credits:    4,
		Grade:      &grade,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateSubjectRejectsDuplicateName(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	sem := createTestSemester(t, svc, "john.doe", 1)

	_, err := svc.CreateSubject(ctx, &models.Subject{
		Owner: "john.doe", SemesterID: sem.ID, Name: "Algorithms", Credits: 4,
	})
	require.NoError(t, err)

	_, err = svc.CreateSubject(ctx, &models.Subject{
		Owner: "john.doe", SemesterID: sem.ID, Name: "ALGORITHMS", Credits: 3,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateSubjectForMissingSemester(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.CreateSubject(context.Background(), &models.Subject{
		Owner: "john.doe", SemesterID: "no-such-semester", Name: "Algorithms", Credits: 4,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteSemesterInvalidatesListings(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	sem := createTestSemester(t, svc, "john.doe", 1)

	// warm the cache
	semesters, err := svc.ListSemesters(ctx, "john.doe")
	require.NoError(t, err)
	require.Len(t, semesters, 1)

	require.NoError(t, svc.DeleteSemester(ctx, "john.doe", sem.ID))

	semesters, err = svc.ListSemesters(ctx, "john.doe")
	require.NoError(t, err)
	assert.Empty(t, semesters)

	err = svc.DeleteSemester(ctx, "john.doe", sem.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAttendanceViewsCarryStatus(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	sem := createTestSemester(t, svc, "john.doe", 1)

	view, err := svc.CreateAttendance(ctx, &models.AttendanceRecord{
		Owner:           "john.doe",
		SemesterID:      sem.ID,
		SubjectName:     "Discrete Math",
		TotalClasses:    40,
		AttendedClasses: 30,
	})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, view.Percentage, 0.001)
	assert.Equal(t, "Good", view.Status)

	updated, err := svc.UpdateAttendance(ctx, "john.doe", view.ID, AttendancePatch{
		AttendedClasses: intp(26),
	})
	require.NoError(t, err)
	assert.InDelta(t, 65.0, updated.Percentage, 0.001)
	assert.Equal(t, "Warning", updated.Status)

	views, err := svc.ListAttendance(ctx, "john.doe", sem.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Warning", views[0].Status)
}

func TestMarksOverviewCombinesSubjectTotals(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	sem := createTestSemester(t, svc, "john.doe", 1)

	_, err := svc.CreateMarks(ctx, &models.MarksRecord{
		Owner:         "john.doe",
		SemesterID:    sem.ID,
		SubjectName:   "Networks",
		ExamType:      "Midterm",
		TotalMarks:    50,
		ObtainedMarks: 40,
		Weightage:     30,
	})
	require.NoError(t, err)

	_, err = svc.CreateMarks(ctx, &models.MarksRecord{
		Owner:         "john.doe",
		SemesterID:    sem.ID,
		SubjectName:   "Networks",
		ExamType:      "Final",
		TotalMarks:    100,
		ObtainedMarks: 60,
		Weightage:     70,
	})
	require.NoError(t, err)

	overview, err := svc.ListMarks(ctx, "john.doe", sem.ID)
	require.NoError(t, err)
	require.Len(t, overview.Rows, 2)

	// (80*30 + 60*70) / 100
	assert.InDelta(t, 66.0, overview.SubjectTotals["Networks"], 0.001)
}

func TestSummaryReflectsMutations(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	sem := createTestSemester(t, svc, "john.doe", 1)

	summary, err := svc.Summary(ctx, "john.doe")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSemesters)
	assert.Equal(t, 0, summary.TotalSubjects)

	gradeF := models.GradeF
	_, err = svc.CreateSubject(ctx, &models.Subject{
		Owner:      "john.doe",
		SemesterID: sem.ID,
		Name:       "Compilers",
		Credits:    4,
		Grade:      &gradeF,
	})
	require.NoError(t, err)

	summary, err = svc.Summary(ctx, "john.doe")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSubjects)
	assert.Equal(t, 1, summary.Backlogs)
	assert.InDelta(t, 0.0, summary.CGPA, 0.001)
}

func TestExamTypeRegistryDefaultsAndCustom(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	types, err := svc.ExamTypes.List(ctx, "john.doe")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Assignment", "Final", "Midterm", "Quiz"}, types)

	require.NoError(t, svc.ExamTypes.Add(ctx, "john.doe", "Viva"))

	types, err = svc.ExamTypes.List(ctx, "john.doe")
	require.NoError(t, err)
	assert.Contains(t, types, "Viva")

	// custom types are per owner
	types, err = svc.ExamTypes.List(ctx, "jane.doe")
	require.NoError(t, err)
	assert.NotContains(t, types, "Viva")

	assert.Error(t, svc.ExamTypes.Remove(ctx, "john.doe", "Final"))
	require.NoError(t, svc.ExamTypes.Remove(ctx, "john.doe", "Viva"))

	types, err = svc.ExamTypes.List(ctx, "john.doe")
	require.NoError(t, err)
	assert.NotContains(t, types, "Viva")
}
