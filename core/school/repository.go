package school

import (
	"context"

	"github.com/trezcool/raport/core"
)

// Repository is the gradebook store. Two implementations exist: an in-memory one and a relational one.
// Catalog listings (classes, subjects, teachers) and student queries without ordering
// keep insertion order.
type Repository interface {
	ListClasses(ctx context.Context) ([]string, error)
	// AddClasses appends the given names, ignoring the ones already present.
	AddClasses(ctx context.Context, names ...string) error
	ListSubjects(ctx context.Context) ([]string, error)
	AddSubjects(ctx context.Context, names ...string) error
	ListTeachers(ctx context.Context) ([]string, error)
	AddTeachers(ctx context.Context, names ...string) error

	// GetClassSubjects returns ErrNotFound when the class has no active-subject configuration.
	GetClassSubjects(ctx context.Context, class string) ([]string, error)
	SetClassSubjects(ctx context.Context, class string, subjects []string) error

	// GetHomeroom returns ErrNotFound when the class has no homeroom teacher.
	GetHomeroom(ctx context.Context, class string) (string, error)
	SetHomeroom(ctx context.Context, hr Homeroom) error
	ListHomerooms(ctx context.Context) ([]Homeroom, error)

	CreateStudents(ctx context.Context, students ...Student) error
	// GetStudent returns ErrStudentNotFound when no student has the given ID.
	GetStudent(ctx context.Context, id string) (Student, error)
	QueryStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error)
	UpdateStudent(ctx context.Context, s Student) (Student, error)
	CountStudents(ctx context.Context) (int, error)

	// GetScore returns ErrNotFound when no score was recorded.
	GetScore(ctx context.Context, key ScoreKey) (int, error)
	// SetScores upserts the records; the last write wins.
	SetScores(ctx context.Context, records ...ScoreRecord) error

	// GetKKM returns ErrNotFound when no KKM was set.
	GetKKM(ctx context.Context, key ClassSubject) (int, error)
	SetKKM(ctx context.Context, kkm KKM) error
	ListKKM(ctx context.Context) ([]KKM, error)

	// SetAssignment upserts the teacher of a (class, subject).
	SetAssignment(ctx context.Context, a Assignment) error
	ListAssignments(ctx context.Context) ([]Assignment, error)

	// GetNonAcademic returns ErrNotFound when nothing was recorded for the student.
	GetNonAcademic(ctx context.Context, studentID string) (NonAcademicRecord, error)
	SetNonAcademic(ctx context.Context, records ...NonAcademicRecord) error

	// GetInfo returns ErrNotFound when the school info was never saved.
	GetInfo(ctx context.Context) (Info, error)
	SetInfo(ctx context.Context, info Info) error
}
