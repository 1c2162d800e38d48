package raport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{-1, ""},
		{0, ""},
		{1, "Satu"},
		{9, "Sembilan"},
		{10, "Sepuluh"},
		{11, "Sebelas"},
		{12, "Dua Belas"},
		{15, "Lima Belas"},
		{19, "Sembilan Belas"},
		{20, "Dua Puluh "},
		{21, "Dua Puluh Satu"},
		{75, "Tujuh Puluh Lima"},
		{85, "Delapan Puluh Lima"},
		{90, "Sembilan Puluh "},
		{99, "Sembilan Puluh Sembilan"},
		{100, "Seratus"},
		{101, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Words(tt.n), "Words(%d)", tt.n)
		})
	}
}

func TestWords_total(t *testing.T) {
	for n := 1; n <= 100; n++ {
		assert.NotEmpty(t, Words(n), "Words(%d)", n)
	}
}

func TestPredicate(t *testing.T) {
	tests := []struct {
		name  string
		score int
		kkm   int
		want  string
	}{
		{name: "above kkm", score: 90, kkm: 75, want: "B"},
		{name: "equal to kkm", score: 75, kkm: 75, want: "B"},
		{name: "below kkm", score: 74, kkm: 75, want: "C"},
		{name: "lowest graded", score: 1, kkm: 75, want: "C"},
		{name: "not graded", score: 0, kkm: 75, want: "-"},
		{name: "kkm 100", score: 100, kkm: 100, want: "B"},
		{name: "kkm 0 passes everything", score: 0, kkm: 0, want: "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Predicate(tt.score, tt.kkm))
		})
	}
}
