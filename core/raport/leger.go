package raport

import (
	"strings"

	"github.com/trezcool/raport/core/ranking"
	"github.com/trezcool/raport/core/school"
)

type (
	// LegerRow holds one student's line of the class ledger.
	// Scores are positional: Scores[i] is the score of Leger.Subjects[i].
	LegerRow struct {
		No         int    `json:"no"`
		StudentID  string `json:"student_id"`
		Name       string `json:"name"`
		NationalID string `json:"nisn"`
		Scores     []int  `json:"scores"`
		Average    string `json:"average"`
		Rank       int    `json:"rank"`
		Sick       int    `json:"sick"`
		Permitted  int    `json:"permitted"`
		Unexcused  int    `json:"unexcused"`
	}

	Leger struct {
		Class    string     `json:"class"`
		Subjects []string   `json:"subjects"`
		Headers  []string   `json:"headers"` // short subject names
		Rows     []LegerRow `json:"rows"`
	}

	// LegerStudent is one roster student with everything the ledger needs.
	LegerStudent struct {
		Student     school.Student
		Scores      map[string]int
		NonAcademic school.NonAcademicRecord
	}
)

// ShortName abbreviates a subject for ledger headers: its first 4 characters, upper-cased.
func ShortName(subject string) string {
	r := []rune(subject)
	if len(r) > 4 {
		r = r[:4]
	}
	return strings.ToUpper(string(r))
}

// BuildLeger lays out the ledger of a class, students in roster order.
func BuildLeger(class string, subjects []string, students []LegerStudent, ranks map[string]int) Leger {
	l := Leger{
		Class:    class,
		Subjects: subjects,
		Headers:  make([]string, 0, len(subjects)),
		Rows:     make([]LegerRow, 0, len(students)),
	}
	for _, subj := range subjects {
		l.Headers = append(l.Headers, ShortName(subj))
	}

	for i, ls := range students {
		scores := make([]int, 0, len(subjects))
		for _, subj := range subjects {
			scores = append(scores, ls.Scores[subj])
		}
		l.Rows = append(l.Rows, LegerRow{
			No:         i + 1,
			StudentID:  ls.Student.ID,
			Name:       ls.Student.Name,
			NationalID: ls.Student.NationalID,
			Scores:     scores,
			Average:    ranking.Summarize(scores).FormatAverage(),
			Rank:       ranks[ls.Student.ID],
			Sick:       ls.NonAcademic.Sick,
			Permitted:  ls.NonAcademic.Permitted,
			Unexcused:  ls.NonAcademic.Unexcused,
		})
	}
	return l
}
