package inmemdb

import (
	"sync"

	"github.com/trezcool/raport/core/school"
)

type (
	// DB keeps the whole school in memory; it lives as long as the process.
	DB struct {
		sync.RWMutex

		classes       []string
		subjects      []string
		teachers      []string
		classSubjects map[string][]string
		homerooms     map[string]string

		students     map[string]*school.Student
		studentOrder []string

		scores      map[school.ScoreKey]int
		kkm         map[school.ClassSubject]int
		assignments map[school.ClassSubject]string
		nonAcademic map[string]school.NonAcademicRecord

		info *school.Info
	}
)

func Open() *DB {
	return &DB{
		classSubjects: make(map[string][]string),
		homerooms:     make(map[string]string),
		students:      make(map[string]*school.Student),
		scores:        make(map[school.ScoreKey]int),
		kkm:           make(map[school.ClassSubject]int),
		assignments:   make(map[school.ClassSubject]string),
		nonAcademic:   make(map[string]school.NonAcademicRecord),
	}
}
