package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func appendNew(list []string, names ...string) []string {
	for _, n := range names {
		found := false
		for _, item := range list {
			if item == n {
				found = true
				break
			}
		}
		if !found {
			list = append(list, n)
		}
	}
	return list
}

func copyOf(list []string) []string {
	return append(make([]string, 0, len(list)), list...)
}

func (repo *schoolRepository) ListClasses(ctx context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return copyOf(repo.db.classes), nil
}

func (repo *schoolRepository) AddClasses(ctx context.Context, names ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.classes = appendNew(repo.db.classes, names...)
	return nil
}

func (repo *schoolRepository) ListSubjects(ctx context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return copyOf(repo.db.subjects), nil
}

func (repo *schoolRepository) AddSubjects(ctx context.Context, names ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.subjects = appendNew(repo.db.subjects, names...)
	return nil
}

func (repo *schoolRepository) ListTeachers(ctx context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return copyOf(repo.db.teachers), nil
}

func (repo *schoolRepository) AddTeachers(ctx context.Context, names ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.teachers = appendNew(repo.db.teachers, names...)
	return nil
}

func (repo *schoolRepository) GetClassSubjects(ctx context.Context, class string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	subjects, ok := repo.db.classSubjects[class]
	if !ok {
		return nil, school.ErrNotFound
	}
	return copyOf(subjects), nil
}

func (repo *schoolRepository) SetClassSubjects(ctx context.Context, class string, subjects []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.classes = appendNew(repo.db.classes, class)
	repo.db.classSubjects[class] = copyOf(subjects)
	return nil
}

func (repo *schoolRepository) GetHomeroom(ctx context.Context, class string) (string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	teacher, ok := repo.db.homerooms[class]
	if !ok {
		return "", school.ErrNotFound
	}
	return teacher, nil
}

func (repo *schoolRepository) SetHomeroom(ctx context.Context, hr school.Homeroom) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.classes = appendNew(repo.db.classes, hr.Class)
	repo.db.homerooms[hr.Class] = hr.Teacher
	return nil
}

func (repo *schoolRepository) ListHomerooms(ctx context.Context) ([]school.Homeroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	hrs := make([]school.Homeroom, 0, len(repo.db.homerooms))
	// catalog order
	for _, class := range repo.db.classes {
		if teacher, ok := repo.db.homerooms[class]; ok {
			hrs = append(hrs, school.Homeroom{Class: class, Teacher: teacher})
		}
	}
	return hrs, nil
}

func (repo *schoolRepository) CreateStudents(ctx context.Context, students ...school.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, s := range students {
		s := s
		if _, ok := repo.db.students[s.ID]; !ok {
			repo.db.studentOrder = append(repo.db.studentOrder, s.ID)
		}
		repo.db.students[s.ID] = &s
	}
	return nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter school.QueryFilter, ordering []core.DBOrdering) ([]school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]school.Student, 0)
	for _, id := range repo.db.studentOrder {
		if s := repo.db.students[id]; filter.Matches(*s) {
			students = append(students, *s)
		}
	}
	if len(ordering) > 0 {
		sort.SliceStable(students, func(i, j int) bool { return studentLess(students[i], students[j], ordering) })
	}
	return students, nil
}

// studentLess compares two students on the ordering fields; unknown fields are ignored.
func studentLess(a, b school.Student, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var va, vb string
		switch ord.Field {
		case "name":
			va, vb = a.Name, b.Name
		case "class":
			va, vb = a.Class, b.Class
		case "nipd":
			va, vb = a.RegistrationID, b.RegistrationID
		case "nisn":
			va, vb = a.NationalID, b.NationalID
		default:
			continue
		}
		if c := strings.Compare(va, vb); c != 0 {
			return (c < 0) == ord.Ascending
		}
	}
	return false
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.students[s.ID]; !ok {
		return school.Student{}, school.ErrStudentNotFound
	}
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) CountStudents(ctx context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.students), nil
}

func (repo *schoolRepository) GetScore(ctx context.Context, key school.ScoreKey) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	v, ok := repo.db.scores[key]
	if !ok {
		return 0, school.ErrNotFound
	}
	return v, nil
}

func (repo *schoolRepository) SetScores(ctx context.Context, records ...school.ScoreRecord) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, rec := range records {
		repo.db.scores[rec.Key()] = rec.Value
	}
	return nil
}

func (repo *schoolRepository) GetKKM(ctx context.Context, key school.ClassSubject) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	v, ok := repo.db.kkm[key]
	if !ok {
		return 0, school.ErrNotFound
	}
	return v, nil
}

func (repo *schoolRepository) SetKKM(ctx context.Context, kkm school.KKM) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.kkm[kkm.Key()] = kkm.Value
	return nil
}

func (repo *schoolRepository) ListKKM(ctx context.Context) ([]school.KKM, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	list := make([]school.KKM, 0, len(repo.db.kkm))
	for key, v := range repo.db.kkm {
		list = append(list, school.KKM{Class: key.Class, Subject: key.Subject, Value: v})
	}
	sort.Slice(list, func(i, j int) bool { return classSubjectLess(list[i].Key(), list[j].Key()) })
	return list, nil
}

func (repo *schoolRepository) SetAssignment(ctx context.Context, a school.Assignment) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.assignments[a.Key()] = a.Teacher
	return nil
}

func (repo *schoolRepository) ListAssignments(ctx context.Context) ([]school.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	list := make([]school.Assignment, 0, len(repo.db.assignments))
	for key, teacher := range repo.db.assignments {
		list = append(list, school.Assignment{Class: key.Class, Subject: key.Subject, Teacher: teacher})
	}
	sort.Slice(list, func(i, j int) bool { return classSubjectLess(list[i].Key(), list[j].Key()) })
	return list, nil
}

func classSubjectLess(a, b school.ClassSubject) bool {
	if a.Class != b.Class {
		return a.Class < b.Class
	}
	return a.Subject < b.Subject
}

func (repo *schoolRepository) GetNonAcademic(ctx context.Context, studentID string) (school.NonAcademicRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	rec, ok := repo.db.nonAcademic[studentID]
	if !ok {
		return school.NonAcademicRecord{}, school.ErrNotFound
	}
	return rec, nil
}

func (repo *schoolRepository) SetNonAcademic(ctx context.Context, records ...school.NonAcademicRecord) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, rec := range records {
		repo.db.nonAcademic[rec.StudentID] = rec
	}
	return nil
}

func (repo *schoolRepository) GetInfo(ctx context.Context) (school.Info, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if repo.db.info == nil {
		return school.Info{}, school.ErrNotFound
	}
	return *repo.db.info, nil
}

func (repo *schoolRepository) SetInfo(ctx context.Context, info school.Info) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.info = &info
	return nil
}
