package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitel-app/unitel/internal/gradebook"
	"github.com/unitel-app/unitel/internal/models"
	"github.com/unitel-app/unitel/internal/store/sqlite"
)

func newTestPorter(t *testing.T) (*Porter, func()) {
	s, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)

	calc := gradebook.NewCalculator(gradebook.DefaultScale(), gradebook.DefaultFailingGrades(), 0, 0)

	cleanup := func() { s.Close() }
	return &Porter{Store: s, Calc: calc}, cleanup
}

func gptr(g models.Grade) *models.Grade { return &g }

func TestImportCreatesSemestersAndSubjects(t *testing.T) {
	porter, cleanup := newTestPorter(t)
	defer cleanup()

	payload := ImportPayload{
		Semesters: []SemesterImport{
			{
				Number: 1,
				Subjects: []SubjectImport{
					{Name: "Algorithms", Credits: 4, Grade: gptr(models.GradeA)},
					{Name: "Databases", Credits: 2, Grade: gptr(models.GradeB)},
				},
			},
			{
				Number:   2,
				Subjects: []SubjectImport{{Name: "Networks", Credits: 3}},
			},
		},
	}

	result, err := porter.Import("john.doe", payload)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SemestersCreated)
	assert.Equal(t, 3, result.SubjectsCreated)
	assert.Equal(t, 0, result.SubjectsSkipped)

	semesters, err := porter.Store.ListSemesters("john.doe")
	require.NoError(t, err)
	require.Len(t, semesters, 2)
	assert.True(t, semesters[0].SourceJSONImport)

	// (4*9 + 2*7) / 6
	require.NotNil(t, semesters[0].SGPA)
	assert.InDelta(t, 50.0/6.0, *semesters[0].SGPA, 0.001)
	assert.Equal(t, 6, semesters[0].TotalCredits)

	// ungraded semester carries no SGPA
	assert.Nil(t, semesters[1].SGPA)
}

func TestImportReusesSemesterAndSkipsDuplicates(t *testing.T) {
	porter, cleanup := newTestPorter(t)
	defer cleanup()

	payload := ImportPayload{
		Semesters: []SemesterImport{
			{
				Number: 1,
				Subjects: []SubjectImport{
					{Name: "Algorithms", Credits: 4, Grade: gptr(models.GradeA)},
				},
			},
		},
	}

	_, err := porter.Import("john.doe", payload)
	require.NoError(t, err)

	// same semester number, one known subject (different case), one new
	payload.Semesters[0].Subjects = []SubjectImport{
		{Name: "ALGORITHMS", Credits: 4, Grade: gptr(models.GradeA)},
		{Name: "Databases", Credits: 2},
	}

	result, err := porter.Import("john.doe", payload)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SemestersCreated)
	assert.Equal(t, 1, result.SubjectsCreated)
	assert.Equal(t, 1, result.SubjectsSkipped)

	semesters, err := porter.Store.ListSemesters("john.doe")
	require.NoError(t, err)
	assert.Len(t, semesters, 1)
}

func TestImportRejectsBadPayloads(t *testing.T) {
	porter, cleanup := newTestPorter(t)
	defer cleanup()

	tests := []struct {
		name    string
		payload ImportPayload
	}{
		{
			name:    "empty payload",
			payload: ImportPayload{},
		},
		{
			name:    "semester number below one",
			payload: ImportPayload{Semesters: []SemesterImport{{Number: 0}}},
		},
		{
			name: "subject with invalid credits",
			payload: ImportPayload{Semesters: []SemesterImport{{
				Number:   1,
				Subjects: []SubjectImport{{Name: "Algorithms", Credits: 11}},
			}}},
		},
		{
			name: "subject with unknown grade",
			payload: ImportPayload{Semesters: []SemesterImport{{
				Number:   1,
				Subjects: []SubjectImport{{Name: "Algorithms", Credits: 4, Grade: gptr(models.Grade("Z"))}},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := porter.Import("john.doe", tt.payload)
			assert.ErrorIs(t, err, ErrBadPayload)
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	source, cleanupSource := newTestPorter(t)
	defer cleanupSource()

	payload := ImportPayload{
		Semesters: []SemesterImport{
			{
				Number: 1,
				Subjects: []SubjectImport{
					{Name: "Algorithms", Credits: 4, Grade: gptr(models.GradeA)},
					{Name: "Databases", Credits: 2, Grade: gptr(models.GradeB)},
				},
			},
			{
				Number:   2,
				Subjects: []SubjectImport{{Name: "Networks", Credits: 3}},
			},
		},
	}
	_, err := source.Import("john.doe", payload)
	require.NoError(t, err)

	exported, err := source.Export("john.doe")
	require.NoError(t, err)
	assert.Equal(t, "john.doe", exported.Profile.Owner)
	require.NotNil(t, exported.Profile.Summary)
	assert.Equal(t, 2, exported.Profile.Summary.TotalSemesters)
	assert.Len(t, exported.Subjects, 3)
	assert.False(t, exported.ExportedAt.IsZero())

	// feed the export into a fresh database
	target, cleanupTarget := newTestPorter(t)
	defer cleanupTarget()

	result, err := target.Import("jane.doe", exported.ImportPayload())
	require.NoError(t, err)
	assert.Equal(t, 2, result.SemestersCreated)
	assert.Equal(t, 3, result.SubjectsCreated)

	reExported, err := target.Export("jane.doe")
	require.NoError(t, err)
	require.Len(t, reExported.Semesters, len(exported.Semesters))
	require.Len(t, reExported.Subjects, len(exported.Subjects))

	for i := range exported.Semesters {
		assert.Equal(t, exported.Semesters[i].Number, reExported.Semesters[i].Number)
		if exported.Semesters[i].SGPA == nil {
			assert.Nil(t, reExported.Semesters[i].SGPA)
		} else {
			require.NotNil(t, reExported.Semesters[i].SGPA)
			assert.InDelta(t, *exported.Semesters[i].SGPA, *reExported.Semesters[i].SGPA, 0.001)
		}
	}
	for i := range exported.Subjects {
		assert.Equal(t, exported.Subjects[i].Name, reExported.Subjects[i].Name)
		assert.Equal(t, exported.Subjects[i].Credits, reExported.Subjects[i].Credits)
		assert.Equal(t, exported.Subjects[i].Grade, reExported.Subjects[i].Grade)
	}
}
