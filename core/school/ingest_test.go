package school

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "comma", line: "X-A, Ahmad , 123", want: []string{"X-A", "Ahmad", "123"}},
		{name: "tab wins over comma", line: "X-A\tFauzi, Ahmad\t123", want: []string{"X-A", "Fauzi, Ahmad", "123"}},
		{name: "single field", line: "Ahmad", want: []string{"Ahmad"}},
		{name: "empty fields kept", line: "X-A,,", want: []string{"X-A", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitFields(tt.line))
		})
	}
}

func TestParseStudentLines(t *testing.T) {
	text := "KELAS\tNAMA\tNIPD\tJK\tNISN\n" +
		"X-A\tAhmad Fauzi\t1001\tL\t0051\n" +
		"X-B, Budi Santoso\n" +
		"\n" +
		"lonely field\n" +
		"X-A, Citra, , P\r\n" +
		", Nobody\n" +
		"kelas, nama\n" +
		"XI-A,   \n"

	want := []NewStudent{
		{Class: "X-A", Name: "Ahmad Fauzi", RegistrationID: "1001", Sex: "L", NationalID: "0051"},
		{Class: "X-B", Name: "Budi Santoso", RegistrationID: "-", Sex: "-", NationalID: "-"},
		{Class: "X-A", Name: "Citra", RegistrationID: "-", Sex: "P", NationalID: "-"},
	}
	assert.Equal(t, want, ParseStudentLines(text))
	assert.Empty(t, ParseStudentLines(""))
}

func TestParseGradeLines(t *testing.T) {
	text := "Ahmad\t85\n" +
		"Budi, 90.7\n" +
		"no score\n" +
		"Citra\tlol\n" +
		"\tDewi\t70"

	want := []GradeRow{
		{Line: 1, Name: "Ahmad", Score: 85},
		{Line: 2, Name: "Budi", Score: 90},
		{Line: 4, Name: "Citra", Score: 0},
		{Line: 5, Name: "", Score: 0},
	}
	assert.Equal(t, want, ParseGradeLines(text))
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"85", 85},
		{" 85 ", 85},
		{"85.9", 85},
		{"-3.5", -3},
		{"1e2", 100},
		{"150", 150},
		{"", 0},
		{"lol", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"1e300", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseScore(tt.in))
		})
	}
}

func TestCatalogLines(t *testing.T) {
	assert.Equal(t, []string{"X-C", "XI-B"}, CatalogLines(" X-C \n\nXI-B\r\nX-C\n   "))
	assert.Empty(t, CatalogLines(""))
}

func TestMatchStudent(t *testing.T) {
	roster := []Student{{ID: "1", Name: "Ahmad Fauzi"}, {ID: "2", Name: "Fauzi Rahman"}, {ID: "3", Name: "Budi"}}

	tests := []struct {
		name   string
		query  string
		wantID string
		wantOK bool
	}{
		{name: "exact", query: "Budi", wantID: "3", wantOK: true},
		{name: "case-insensitive", query: "BUDI", wantID: "3", wantOK: true},
		{name: "first containing wins", query: "fauzi", wantID: "1", wantOK: true},
		{name: "substring", query: "rahman", wantID: "2", wantOK: true},
		{name: "no match", query: "Citra", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := matchStudent(roster, tt.query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, s.ID)
		})
	}
}

func TestSuggestStudent(t *testing.T) {
	roster := []Student{{Name: "Ahmad"}, {Name: "Budi Santoso"}}

	assert.Equal(t, "Ahmad", suggestStudent(roster, "Ahmd"))
	assert.Equal(t, "Budi Santoso", suggestStudent(roster, "budi santosa"))
	assert.Equal(t, "", suggestStudent(roster, "Xyz"))
	assert.Equal(t, "", suggestStudent(nil, "Ahmad"))
}
