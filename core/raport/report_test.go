package raport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/raport/core/school"
)

func TestAssemble(t *testing.T) {
	student := school.Student{ID: "s1", Name: "Ahmad Fauzi", Class: "X-A"}

	t.Run("rows follow the active subjects", func(t *testing.T) {
		r := Assemble(Input{
			Student:     student,
			School:      school.DefaultInfo,
			Homeroom:    "Mali, S.Pd",
			Subjects:    []string{"Matematika", "Fisika (IPA)", "Bahasa Sunda"},
			Scores:      map[string]int{"Matematika": 80, "Bahasa Sunda": 90, "Sejarah": 100},
			KKM:         map[string]int{"Bahasa Sunda": 95},
			NonAcademic: school.DefaultNonAcademic("s1"),
			Rank:        2,
			ClassSize:   30,
		})

		require.Len(t, r.Rows, 3)
		assert.Equal(t, Row{No: 1, Subject: "Matematika", KKM: 75, Score: 80, Words: "Delapan Puluh ", Predicate: "B"}, r.Rows[0])
		assert.Equal(t, Row{No: 2, Subject: "Fisika (IPA)", KKM: 75, Score: 0, Words: "", Predicate: "-"}, r.Rows[1])
		assert.Equal(t, Row{No: 3, Subject: "Bahasa Sunda", KKM: 95, Score: 90, Words: "Sembilan Puluh ", Predicate: "C"}, r.Rows[2])
		assert.Equal(t, 170, r.Total)
		assert.Equal(t, 2, r.GradedCount)
		assert.Equal(t, "85.00", r.Average)
		assert.Equal(t, 2, r.Rank)
		assert.Equal(t, 30, r.ClassSize)
		assert.Equal(t, "Mali, S.Pd", r.Homeroom)
	})

	t.Run("student without scores", func(t *testing.T) {
		r := Assemble(Input{
			Student:  student,
			Subjects: []string{"Matematika", "PJOK"},
		})

		require.Len(t, r.Rows, 2)
		for _, row := range r.Rows {
			assert.Equal(t, 0, row.Score)
			assert.Equal(t, school.DefaultKKM, row.KKM)
			assert.Equal(t, "-", row.Predicate)
		}
		assert.Equal(t, 0, r.Total)
		assert.Equal(t, "0", r.Average)
		assert.Equal(t, UnknownHomeroom, r.Homeroom)
	})

	t.Run("no active subjects", func(t *testing.T) {
		r := Assemble(Input{Student: student})
		assert.Empty(t, r.Rows)
		assert.Equal(t, "0", r.Average)
	})
}

func TestShortName(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"Matematika", "MATE"},
		{"PJOK", "PJOK"},
		{"Seni Budaya", "SENI"},
		{"IPA", "IPA"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortName(tt.subject))
		})
	}
}

func TestBuildLeger(t *testing.T) {
	subjects := []string{"Matematika", "Fisika (IPA)"}
	students := []LegerStudent{
		{
			Student:     school.Student{ID: "s1", Name: "Ahmad", NationalID: "001"},
			Scores:      map[string]int{"Matematika": 80, "Fisika (IPA)": 70},
			NonAcademic: school.NonAcademicRecord{StudentID: "s1", Sick: 2, Permitted: 1},
		},
		{
			Student: school.Student{ID: "s2", Name: "Budi", NationalID: "-"},
			Scores:  map[string]int{"Fisika (IPA)": 90},
		},
	}

	l := BuildLeger("X-A", subjects, students, map[string]int{"s1": 1, "s2": 2})

	assert.Equal(t, "X-A", l.Class)
	assert.Equal(t, []string{"MATE", "FISI"}, l.Headers)
	require.Len(t, l.Rows, 2)
	assert.Equal(t, LegerRow{
		No: 1, StudentID: "s1", Name: "Ahmad", NationalID: "001", Scores: []int{80, 70},
		Average: "75.00", Rank: 1, Sick: 2, Permitted: 1,
	}, l.Rows[0])
	assert.Equal(t, []int{0, 90}, l.Rows[1].Scores)
	assert.Equal(t, "90.00", l.Rows[1].Average)
	assert.Equal(t, 2, l.Rows[1].Rank)
}
