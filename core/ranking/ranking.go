// Package ranking computes per-student totals and the class ranking.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Gradebook is the part of the store the ranking reads from.
type Gradebook interface {
	RosterForClass(ctx context.Context, class string) ([]string, error)
	SubjectsForClass(ctx context.Context, class string) ([]string, error)
	GetScore(ctx context.Context, studentID, subject string) (int, error)
}

// Summary aggregates the scores of one student over the active subjects of their class.
type Summary struct {
	Total       int `json:"total"`
	GradedCount int `json:"graded_count"` // subjects with a score > 0
}

// Summarize totals the scores; a score of 0 counts as not graded.
func Summarize(scores []int) Summary {
	var s Summary
	for _, v := range scores {
		s.Total += v
		if v > 0 {
			s.GradedCount++
		}
	}
	return s
}

// Average is Total/GradedCount, or 0 when nothing was graded.
func (s Summary) Average() float64 {
	if s.GradedCount == 0 {
		return 0
	}
	return float64(s.Total) / float64(s.GradedCount)
}

// FormatAverage renders the average with 2 decimals, or "0" when nothing was graded.
func (s Summary) FormatAverage() string {
	if s.GradedCount == 0 {
		return "0"
	}
	return fmt.Sprintf("%.2f", s.Average())
}

type Entry struct {
	StudentID string `json:"student_id"`
	Summary
	Rank int `json:"rank"`
}

type Result struct {
	Entries []Entry        // in rank order
	Ranks   map[string]int // student ID => 1-based rank
	Size    int            // number of students in the class
}

// Rank orders the students by total, highest first. Students with equal totals keep their order in `ids`.
// Every student of `ids` gets a distinct rank in 1..len(ids).
func Rank(ids []string, summaries map[string]Summary) Result {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, Entry{StudentID: id, Summary: summaries[id]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Total > entries[j].Total })

	ranks := make(map[string]int, len(entries))
	for i := range entries {
		entries[i].Rank = i + 1
		ranks[entries[i].StudentID] = i + 1
	}
	return Result{Entries: entries, Ranks: ranks, Size: len(ids)}
}

// StudentSummary totals the student's scores over the given subjects; missing scores count as 0.
func StudentSummary(ctx context.Context, gb Gradebook, studentID string, subjects []string) (Summary, error) {
	scores := make([]int, 0, len(subjects))
	for _, subj := range subjects {
		v, err := gb.GetScore(ctx, studentID, subj)
		if err != nil {
			return Summary{}, errors.Wrap(err, "getting score")
		}
		scores = append(scores, v)
	}
	return Summarize(scores), nil
}

// Compute ranks the students of the class by their total over the class's active subjects.
// It never writes to the gradebook; an empty class yields an empty result.
func Compute(ctx context.Context, gb Gradebook, class string) (Result, error) {
	ids, err := gb.RosterForClass(ctx, class)
	if err != nil {
		return Result{}, errors.Wrap(err, "getting class roster")
	}
	subjects, err := gb.SubjectsForClass(ctx, class)
	if err != nil {
		return Result{}, errors.Wrap(err, "getting class subjects")
	}

	summaries := make(map[string]Summary, len(ids))
	for _, id := range ids {
		if summaries[id], err = StudentSummary(ctx, gb, id, subjects); err != nil {
			return Result{}, err
		}
	}
	return Rank(ids, summaries), nil
}
