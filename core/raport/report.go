// Package raport assembles the report cards (raport) and class ledgers (leger) of a class.
package raport

import (
	"github.com/trezcool/raport/core/ranking"
	"github.com/trezcool/raport/core/school"
)

const (
	Title          = "LAPORAN HASIL BELAJAR PESERTA DIDIK"
	AssessmentName = "PENILAIAN TENGAH SEMESTER GENAP"

	// UnknownHomeroom is printed in the signature block when the class has no homeroom teacher.
	UnknownHomeroom = "(............)"
)

type (
	Row struct {
		No        int    `json:"no"`
		Subject   string `json:"subject"`
		KKM       int    `json:"kkm"`
		Score     int    `json:"score"`
		Words     string `json:"words"`
		Predicate string `json:"predicate"`
	}

	Report struct {
		Student     school.Student           `json:"student"`
		School      school.Info              `json:"school"`
		Homeroom    string                   `json:"homeroom"`
		Rows        []Row                    `json:"rows"`
		Total       int                      `json:"total"`
		GradedCount int                      `json:"graded_count"`
		Average     string                   `json:"average"`
		Rank        int                      `json:"rank"`
		ClassSize   int                      `json:"class_size"`
		NonAcademic school.NonAcademicRecord `json:"non_academic"`
	}

	// Input is everything known about one student that goes into their report.
	Input struct {
		Student     school.Student
		School      school.Info
		Homeroom    string
		Subjects    []string       // active subjects of the class, in report order
		Scores      map[string]int // subject => score; missing means 0
		KKM         map[string]int // subject => KKM; missing means school.DefaultKKM
		NonAcademic school.NonAcademicRecord
		Rank        int
		ClassSize   int
	}
)

// Assemble builds the report rows and summary figures. Missing data falls back to defaults.
func Assemble(in Input) Report {
	r := Report{
		Student:     in.Student,
		School:      in.School,
		Homeroom:    in.Homeroom,
		Rows:        make([]Row, 0, len(in.Subjects)),
		Rank:        in.Rank,
		ClassSize:   in.ClassSize,
		NonAcademic: in.NonAcademic,
	}
	if r.Homeroom == "" {
		r.Homeroom = UnknownHomeroom
	}

	scores := make([]int, 0, len(in.Subjects))
	for i, subj := range in.Subjects {
		score := in.Scores[subj]
		kkm, ok := in.KKM[subj]
		if !ok {
			kkm = school.DefaultKKM
		}
		r.Rows = append(r.Rows, Row{
			No:        i + 1,
			Subject:   subj,
			KKM:       kkm,
			Score:     score,
			Words:     Words(score),
			Predicate: Predicate(score, kkm),
		})
		scores = append(scores, score)
	}

	sum := ranking.Summarize(scores)
	r.Total = sum.Total
	r.GradedCount = sum.GradedCount
	r.Average = sum.FormatAverage()
	return r
}
