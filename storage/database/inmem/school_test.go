package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/school"
)

func TestSchoolRepository_catalogs(t *testing.T) {
	ctx := context.Background()
	repo := NewSchoolRepository(Open())

	require.NoError(t, repo.AddClasses(ctx, "X-B", "X-A"))
	require.NoError(t, repo.AddClasses(ctx, "X-A", "XI-A"))
	classes, err := repo.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"X-B", "X-A", "XI-A"}, classes)

	classes[0] = "changed"
	classes, err = repo.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "X-B", classes[0], "callers get a copy")

	require.NoError(t, repo.SetHomeroom(ctx, school.Homeroom{Class: "XII-A", Teacher: "Mali, S.Pd"}))
	classes, err = repo.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"X-B", "X-A", "XI-A", "XII-A"}, classes, "configured classes join the catalog")
}

func TestSchoolRepository_classSubjects(t *testing.T) {
	ctx := context.Background()
	repo := NewSchoolRepository(Open())

	_, err := repo.GetClassSubjects(ctx, "X-A")
	assert.Equal(t, school.ErrNotFound, err)

	active := []string{"Matematika", "PJOK"}
	require.NoError(t, repo.SetClassSubjects(ctx, "X-A", active))
	active[0] = "changed"
	got, err := repo.GetClassSubjects(ctx, "X-A")
	require.NoError(t, err)
	assert.Equal(t, []string{"Matematika", "PJOK"}, got)

	require.NoError(t, repo.SetClassSubjects(ctx, "X-A", nil))
	got, err = repo.GetClassSubjects(ctx, "X-A")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
}

func TestSchoolRepository_students(t *testing.T) {
	ctx := context.Background()
	repo := NewSchoolRepository(Open())

	ahmad := school.Student{ID: "s1", Name: "Ahmad", Class: "X-A"}
	budi := school.Student{ID: "s2", Name: "budi", Class: "X-A"}
	citra := school.Student{ID: "s3", Name: "Citra", Class: "X-B"}
	require.NoError(t, repo.CreateStudents(ctx, budi, ahmad, citra))

	tests := []struct {
		name     string
		filter   school.QueryFilter
		ordering []core.DBOrdering
		want     []school.Student
	}{
		{"all", school.QueryFilter{}, nil, []school.Student{budi, ahmad, citra}},
		{"class", school.QueryFilter{Class: "X-B"}, nil, []school.Student{citra}},
		{"search", school.QueryFilter{Search: "ud"}, nil, []school.Student{budi}},
		{"name desc", school.QueryFilter{}, []core.DBOrdering{{Field: "name"}}, []school.Student{budi, citra, ahmad}},
		{"class then name", school.QueryFilter{}, []core.DBOrdering{{Field: "class", Ascending: true}, {Field: "name", Ascending: true}}, []school.Student{ahmad, budi, citra}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryStudents(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	n, err := repo.CountStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = repo.GetStudent(ctx, "nope")
	assert.Equal(t, school.ErrStudentNotFound, err)
	_, err = repo.UpdateStudent(ctx, school.Student{ID: "nope"})
	assert.Equal(t, school.ErrStudentNotFound, err)
}

func TestSchoolRepository_gradebook(t *testing.T) {
	ctx := context.Background()
	repo := NewSchoolRepository(Open())

	key := school.ScoreKey{StudentID: "s1", Subject: "Matematika"}
	_, err := repo.GetScore(ctx, key)
	assert.Equal(t, school.ErrNotFound, err)
	require.NoError(t, repo.SetScores(ctx, school.ScoreRecord{StudentID: "s1", Subject: "Matematika", Value: 70}))
	require.NoError(t, repo.SetScores(ctx, school.ScoreRecord{StudentID: "s1", Subject: "Matematika", Value: 0}))
	v, err := repo.GetScore(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, repo.SetKKM(ctx, school.KKM{Class: "X-B", Subject: "PJOK", Value: 70}))
	require.NoError(t, repo.SetKKM(ctx, school.KKM{Class: "X-A", Subject: "PJOK", Value: 60}))
	require.NoError(t, repo.SetKKM(ctx, school.KKM{Class: "X-A", Subject: "Matematika", Value: 65}))
	kkms, err := repo.ListKKM(ctx)
	require.NoError(t, err)
	assert.Equal(t, []school.KKM{
		{Class: "X-A", Subject: "Matematika", Value: 65},
		{Class: "X-A", Subject: "PJOK", Value: 60},
		{Class: "X-B", Subject: "PJOK", Value: 70},
	}, kkms)

	require.NoError(t, repo.SetAssignment(ctx, school.Assignment{Class: "X-B", Subject: "PJOK", Teacher: "Mali, S.Pd"}))
	require.NoError(t, repo.SetAssignment(ctx, school.Assignment{Class: "X-B", Subject: "PJOK", Teacher: "Antoni Firdaus M.Pd."}))
	assignments, err := repo.ListAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []school.Assignment{{Class: "X-B", Subject: "PJOK", Teacher: "Antoni Firdaus M.Pd."}}, assignments)
}

func TestSchoolRepository_info(t *testing.T) {
	ctx := context.Background()
	repo := NewSchoolRepository(Open())

	_, err := repo.GetInfo(ctx)
	assert.Equal(t, school.ErrNotFound, err)

	info := school.DefaultInfo
	require.NoError(t, repo.SetInfo(ctx, info))
	info.City = "Bogor"
	got, err := repo.GetInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, school.DefaultInfo, got, "stored by value")
}
