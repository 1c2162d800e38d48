package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGradebook struct {
	rosters  map[string][]string
	subjects map[string][]string
	scores   map[string]map[string]int // student => subject => score
	err      error
}

func (gb fakeGradebook) RosterForClass(_ context.Context, class string) ([]string, error) {
	return gb.rosters[class], gb.err
}

func (gb fakeGradebook) SubjectsForClass(_ context.Context, class string) ([]string, error) {
	return gb.subjects[class], nil
}

func (gb fakeGradebook) GetScore(_ context.Context, studentID, subject string) (int, error) {
	return gb.scores[studentID][subject], nil
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name        string
		scores      []int
		wantTotal   int
		wantGraded  int
		wantAverage string
	}{
		{name: "no subjects", wantAverage: "0"},
		{name: "nothing graded", scores: []int{0, 0, 0}, wantAverage: "0"},
		{name: "zero excluded from average", scores: []int{80, 0, 90}, wantTotal: 170, wantGraded: 2, wantAverage: "85.00"},
		{name: "two decimals", scores: []int{70, 75, 76}, wantTotal: 221, wantGraded: 3, wantAverage: "73.67"},
		{name: "single score", scores: []int{100}, wantTotal: 100, wantGraded: 1, wantAverage: "100.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.scores)
			assert.Equal(t, tt.wantTotal, s.Total)
			assert.Equal(t, tt.wantGraded, s.GradedCount)
			assert.Equal(t, tt.wantAverage, s.FormatAverage())
		})
	}
}

func TestRank(t *testing.T) {
	tests := []struct {
		name      string
		ids       []string
		totals    map[string]int
		wantOrder []string
	}{
		{name: "empty class", ids: []string{}, wantOrder: []string{}},
		{
			name:      "distinct totals",
			ids:       []string{"a", "b", "c"},
			totals:    map[string]int{"a": 150, "b": 170, "c": 160},
			wantOrder: []string{"b", "c", "a"},
		},
		{
			name:      "ties keep roster order",
			ids:       []string{"a", "b", "c", "d"},
			totals:    map[string]int{"a": 100, "b": 120, "c": 100, "d": 120},
			wantOrder: []string{"b", "d", "a", "c"},
		},
		{
			name:      "missing summary counts as zero",
			ids:       []string{"a", "b"},
			totals:    map[string]int{"b": 10},
			wantOrder: []string{"b", "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries := make(map[string]Summary, len(tt.totals))
			for id, total := range tt.totals {
				summaries[id] = Summary{Total: total, GradedCount: 1}
			}

			res := Rank(tt.ids, summaries)
			assert.Equal(t, len(tt.ids), res.Size)
			require.Len(t, res.Entries, len(tt.wantOrder))
			for i, id := range tt.wantOrder {
				assert.Equal(t, id, res.Entries[i].StudentID)
				assert.Equal(t, i+1, res.Entries[i].Rank)
				assert.Equal(t, i+1, res.Ranks[id])
			}
		})
	}
}

func TestCompute(t *testing.T) {
	gb := fakeGradebook{
		rosters: map[string][]string{
			"X-A": {"s1", "s2", "s3"},
			"X-B": {"s4"},
		},
		subjects: map[string][]string{
			"X-A": {"Matematika", "Fisika", "Kimia"},
			"X-B": {"Matematika"},
		},
		scores: map[string]map[string]int{
			"s1": {"Matematika": 80, "Kimia": 90},
			"s2": {"Matematika": 95, "Fisika": 90, "Sejarah": 100}, // Sejarah is not active
			"s3": {},
			"s4": {"Matematika": 60, "Fisika": 100},
		},
	}
	ctx := context.Background()

	t.Run("ranks over active subjects", func(t *testing.T) {
		res, err := Compute(ctx, gb, "X-A")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Size)
		assert.Equal(t, map[string]int{"s2": 1, "s1": 2, "s3": 3}, res.Ranks)
		assert.Equal(t, Summary{Total: 185, GradedCount: 2}, res.Entries[0].Summary)
		assert.Equal(t, Summary{Total: 170, GradedCount: 2}, res.Entries[1].Summary)
		assert.Equal(t, "85.00", res.Entries[1].FormatAverage())
		assert.Equal(t, "0", res.Entries[2].FormatAverage())
	})

	t.Run("other class", func(t *testing.T) {
		res, err := Compute(ctx, gb, "X-B")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Size)
		assert.Equal(t, 60, res.Entries[0].Total)
	})

	t.Run("empty class", func(t *testing.T) {
		res, err := Compute(ctx, gb, "XII-A")
		require.NoError(t, err)
		assert.Equal(t, 0, res.Size)
		assert.Empty(t, res.Entries)
		assert.Empty(t, res.Ranks)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := Compute(ctx, gb, "X-A")
		require.NoError(t, err)
		second, err := Compute(ctx, gb, "X-A")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("store error", func(t *testing.T) {
		broken := gb
		broken.err = errors.New("boom")
		_, err := Compute(ctx, broken, "X-A")
		assert.Error(t, err)
	})
}
