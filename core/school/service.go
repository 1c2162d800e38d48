package school

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/raport/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureDefaults seeds the empty catalogs with the defaults of a fresh installation.
func (svc *Service) EnsureDefaults(ctx context.Context) error {
	seeds := []struct {
		name string
		list func(context.Context) ([]string, error)
		add  func(context.Context, ...string) error
		vals []string
	}{
		{"classes", svc.repo.ListClasses, svc.repo.AddClasses, DefaultClasses},
		{"subjects", svc.repo.ListSubjects, svc.repo.AddSubjects, DefaultSubjects},
		{"teachers", svc.repo.ListTeachers, svc.repo.AddTeachers, DefaultTeachers},
	}
	for _, s := range seeds {
		existing, err := s.list(ctx)
		if err != nil {
			return errors.Wrap(err, "listing "+s.name)
		}
		if len(existing) > 0 {
			continue
		}
		if err = s.add(ctx, s.vals...); err != nil {
			return errors.Wrap(err, "seeding "+s.name)
		}
	}
	return nil
}

// Gradebook

// GetScore returns the recorded score, or 0 when none was recorded.
func (svc *Service) GetScore(ctx context.Context, studentID, subject string) (int, error) {
	v, err := svc.repo.GetScore(ctx, ScoreKey{StudentID: studentID, Subject: subject})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return 0, nil
		}
		return 0, errors.Wrap(err, "getting score")
	}
	return v, nil
}

// SetScore upserts a score; the last write wins.
func (svc *Service) SetScore(ctx context.Context, studentID, subject string, value int) error {
	if !core.IsScore(value) {
		return core.NewValidationError(ErrInvalidScore, core.FieldError{Field: "score", Error: ErrInvalidScore.Error()})
	}
	rec := ScoreRecord{StudentID: studentID, Subject: subject, Value: value}
	return errors.Wrap(svc.repo.SetScores(ctx, rec), "setting score")
}

// SubjectsForClass returns the active subjects of the class, or the whole subject catalog
// when the class was never configured.
func (svc *Service) SubjectsForClass(ctx context.Context, class string) ([]string, error) {
	subjects, err := svc.repo.GetClassSubjects(ctx, class)
	if err == nil {
		return subjects, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return nil, errors.Wrap(err, "getting class subjects")
	}
	subjects, err = svc.repo.ListSubjects(ctx)
	return subjects, errors.Wrap(err, "listing subjects")
}

// KKMFor returns the last KKM set for (class, subject), or DefaultKKM.
func (svc *Service) KKMFor(ctx context.Context, class, subject string) (int, error) {
	v, err := svc.repo.GetKKM(ctx, ClassSubject{Class: class, Subject: subject})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return DefaultKKM, nil
		}
		return 0, errors.Wrap(err, "getting KKM")
	}
	return v, nil
}

// Roster returns the students of the class in ingestion order.
func (svc *Service) Roster(ctx context.Context, class string) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx, QueryFilter{Class: class}, nil)
	return students, errors.Wrap(err, "querying class students")
}

// RosterForClass returns the IDs of the students of the class in ingestion order.
func (svc *Service) RosterForClass(ctx context.Context, class string) ([]string, error) {
	students, err := svc.Roster(ctx, class)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// NonAcademicFor returns the student's record, or the default one.
func (svc *Service) NonAcademicFor(ctx context.Context, studentID string) (NonAcademicRecord, error) {
	rec, err := svc.repo.GetNonAcademic(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return DefaultNonAcademic(studentID), nil
		}
		return NonAcademicRecord{}, errors.Wrap(err, "getting non-academic record")
	}
	return rec, nil
}

// HomeroomFor returns the homeroom teacher of the class, or "" when none was set.
func (svc *Service) HomeroomFor(ctx context.Context, class string) (string, error) {
	teacher, err := svc.repo.GetHomeroom(ctx, class)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return "", nil
		}
		return "", errors.Wrap(err, "getting homeroom")
	}
	return teacher, nil
}

// Info returns the school info, or DefaultInfo when it was never saved.
func (svc *Service) Info(ctx context.Context) (Info, error) {
	info, err := svc.repo.GetInfo(ctx)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return DefaultInfo, nil
		}
		return Info{}, errors.Wrap(err, "getting school info")
	}
	return info, nil
}

func (svc *Service) UpdateInfo(ctx context.Context, info Info) (Info, error) {
	info.Name = core.CleanString(info.Name)
	if err := svc.repo.SetInfo(ctx, info); err != nil {
		return Info{}, errors.Wrap(err, "setting school info")
	}
	return info, nil
}

// Catalogs

func (svc *Service) Classes(ctx context.Context) ([]string, error) {
	classes, err := svc.repo.ListClasses(ctx)
	return classes, errors.Wrap(err, "listing classes")
}

func (svc *Service) Subjects(ctx context.Context) ([]string, error) {
	subjects, err := svc.repo.ListSubjects(ctx)
	return subjects, errors.Wrap(err, "listing subjects")
}

func (svc *Service) Teachers(ctx context.Context) ([]string, error) {
	teachers, err := svc.repo.ListTeachers(ctx)
	return teachers, errors.Wrap(err, "listing teachers")
}

// AddClasses adds every non-blank line of text to the class catalog and returns the catalog.
func (svc *Service) AddClasses(ctx context.Context, text string) ([]string, error) {
	if err := svc.repo.AddClasses(ctx, CatalogLines(text)...); err != nil {
		return nil, errors.Wrap(err, "adding classes")
	}
	return svc.Classes(ctx)
}

// AddSubjects adds every non-blank line of text to the subject catalog and returns the catalog.
func (svc *Service) AddSubjects(ctx context.Context, text string) ([]string, error) {
	if err := svc.repo.AddSubjects(ctx, CatalogLines(text)...); err != nil {
		return nil, errors.Wrap(err, "adding subjects")
	}
	return svc.Subjects(ctx)
}

// AddTeachers adds every non-blank line of text to the teacher catalog and returns the catalog.
func (svc *Service) AddTeachers(ctx context.Context, text string) ([]string, error) {
	if err := svc.repo.AddTeachers(ctx, CatalogLines(text)...); err != nil {
		return nil, errors.Wrap(err, "adding teachers")
	}
	return svc.Teachers(ctx)
}

func (svc *Service) HasClass(ctx context.Context, class string) (bool, error) {
	classes, err := svc.Classes(ctx)
	return contains(classes, class), err
}

func (svc *Service) HasSubject(ctx context.Context, subject string) (bool, error) {
	subjects, err := svc.Subjects(ctx)
	return contains(subjects, subject), err
}

func (svc *Service) HasTeacher(ctx context.Context, teacher string) (bool, error) {
	teachers, err := svc.Teachers(ctx)
	return contains(teachers, teacher), err
}

// SetClassSubjects sets the active subjects of a class, in the given order.
func (svc *Service) SetClassSubjects(ctx context.Context, class string, subjects []string) ([]string, error) {
	if err := svc.requireClass(ctx, class); err != nil {
		return nil, err
	}
	catalog, err := svc.Subjects(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(subjects))
	active := make([]string, 0, len(subjects))
	for _, s := range subjects {
		s = core.CleanString(s)
		if seen[s] {
			continue
		}
		if !contains(catalog, s) {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "subjects", Error: "unknown subject: " + s})
		}
		seen[s] = true
		active = append(active, s)
	}

	if err = svc.repo.SetClassSubjects(ctx, class, active); err != nil {
		return nil, errors.Wrap(err, "setting class subjects")
	}
	return active, nil
}

func (svc *Service) SetHomeroom(ctx context.Context, hr Homeroom) error {
	if err := svc.requireClass(ctx, hr.Class); err != nil {
		return err
	}
	ok, err := svc.HasTeacher(ctx, hr.Teacher)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "teacher", Error: "unknown teacher"})
	}
	return errors.Wrap(svc.repo.SetHomeroom(ctx, hr), "setting homeroom")
}

func (svc *Service) Homerooms(ctx context.Context) ([]Homeroom, error) {
	hrs, err := svc.repo.ListHomerooms(ctx)
	return hrs, errors.Wrap(err, "listing homerooms")
}

// Monitoring returns, for every subject and class, who claimed the teaching and the current KKM.
func (svc *Service) Monitoring(ctx context.Context) (Monitoring, error) {
	classes, err := svc.Classes(ctx)
	if err != nil {
		return Monitoring{}, err
	}
	subjects, err := svc.Subjects(ctx)
	if err != nil {
		return Monitoring{}, err
	}
	assignments, err := svc.repo.ListAssignments(ctx)
	if err != nil {
		return Monitoring{}, errors.Wrap(err, "listing assignments")
	}
	kkms, err := svc.repo.ListKKM(ctx)
	if err != nil {
		return Monitoring{}, errors.Wrap(err, "listing KKM")
	}

	teachers := make(map[ClassSubject]string, len(assignments))
	for _, a := range assignments {
		teachers[a.Key()] = a.Teacher
	}
	thresholds := make(map[ClassSubject]int, len(kkms))
	for _, k := range kkms {
		thresholds[k.Key()] = k.Value
	}

	mon := Monitoring{Classes: classes, Rows: make([]MonitoringRow, 0, len(subjects))}
	for _, subj := range subjects {
		row := MonitoringRow{Subject: subj, Cells: make([]MonitoringCell, 0, len(classes))}
		for _, class := range classes {
			key := ClassSubject{Class: class, Subject: subj}
			cell := MonitoringCell{Class: class, KKM: DefaultKKM}
			if v, ok := thresholds[key]; ok {
				cell.KKM = v
			}
			if t, ok := teachers[key]; ok {
				cell.Teacher, cell.Claimed = t, true
			}
			row.Cells = append(row.Cells, cell)
		}
		mon.Rows = append(mon.Rows, row)
	}
	return mon, nil
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.Students, err = svc.repo.CountStudents(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	lists := []struct {
		n    *int
		list func(context.Context) ([]string, error)
	}{
		{&st.Classes, svc.repo.ListClasses},
		{&st.Subjects, svc.repo.ListSubjects},
		{&st.Teachers, svc.repo.ListTeachers},
	}
	for _, l := range lists {
		names, err := l.list(ctx)
		if err != nil {
			return Stats{}, errors.Wrap(err, "listing catalog")
		}
		*l.n = len(names)
	}
	return st, nil
}

// Students

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return Student{}, ErrStudentNotFound
		}
		return Student{}, errors.Wrap(err, "getting student")
	}
	return s, nil
}

func (svc *Service) QueryStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	filter.Clean()
	students, err := svc.repo.QueryStudents(ctx, filter, ordering)
	return students, errors.Wrap(err, "querying students")
}

// CreateStudent adds a student; an unknown class is added to the class catalog.
func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	created, err := svc.createStudents(ctx, []NewStudent{ns})
	if err != nil {
		return Student{}, err
	}
	return created[0], nil
}

// ImportStudents ingests pasted roster lines and returns the number of students added.
func (svc *Service) ImportStudents(ctx context.Context, text string) (int, error) {
	created, err := svc.createStudents(ctx, ParseStudentLines(text))
	return len(created), err
}

func (svc *Service) createStudents(ctx context.Context, news []NewStudent) ([]Student, error) {
	if len(news) == 0 {
		return []Student{}, nil
	}
	classes := make([]string, 0)
	students := make([]Student, 0, len(news))
	for _, ns := range news {
		s := Student{
			ID:             uuid.New().String(),
			Name:           core.CleanString(ns.Name),
			Class:          core.CleanString(ns.Class),
			RegistrationID: placeholderIfBlank(ns.RegistrationID),
			Sex:            placeholderIfBlank(ns.Sex),
			NationalID:     placeholderIfBlank(ns.NationalID),
			GuardianEmail:  core.CleanString(ns.GuardianEmail, true),
		}
		if !contains(classes, s.Class) {
			classes = append(classes, s.Class)
		}
		students = append(students, s)
	}

	if err := svc.repo.AddClasses(ctx, classes...); err != nil {
		return nil, errors.Wrap(err, "adding classes")
	}
	if err := svc.repo.CreateStudents(ctx, students...); err != nil {
		return nil, errors.Wrap(err, "creating students")
	}
	return students, nil
}

// MoveStudent moves a student to another existing class.
func (svc *Service) MoveStudent(ctx context.Context, id, class string) (Student, error) {
	if err := svc.requireClass(ctx, class); err != nil {
		return Student{}, err
	}
	s, err := svc.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	s.Class = class
	s, err = svc.repo.UpdateStudent(ctx, s)
	return s, errors.Wrap(err, "updating student")
}

// Grade entry

// GradeSheet returns the class roster with the current scores of the subject.
func (svc *Service) GradeSheet(ctx context.Context, class, subject string) (GradeSheet, error) {
	kkm, err := svc.KKMFor(ctx, class, subject)
	if err != nil {
		return GradeSheet{}, err
	}
	roster, err := svc.Roster(ctx, class)
	if err != nil {
		return GradeSheet{}, err
	}
	sheet := GradeSheet{Class: class, Subject: subject, KKM: kkm, Rows: make([]GradeSheetRow, 0, len(roster))}
	for _, s := range roster {
		score, err := svc.GetScore(ctx, s.ID, subject)
		if err != nil {
			return GradeSheet{}, err
		}
		sheet.Rows = append(sheet.Rows, GradeSheetRow{StudentID: s.ID, Name: s.Name, Score: score})
	}
	return sheet, nil
}

// SaveGrades saves the scores of the target's students, sets the KKM and claims the teaching.
func (svc *Service) SaveGrades(ctx context.Context, target GradeTarget, scores map[string]int) error {
	if err := validateTarget(target); err != nil {
		return err
	}
	roster, err := svc.Roster(ctx, target.Class)
	if err != nil {
		return err
	}
	inClass := make(map[string]bool, len(roster))
	for _, s := range roster {
		inClass[s.ID] = true
	}

	records := make([]ScoreRecord, 0, len(scores))
	// roster order keeps the writes deterministic
	for _, s := range roster {
		if v, ok := scores[s.ID]; ok {
			if !core.IsScore(v) {
				return core.NewValidationError(ErrInvalidScore, core.FieldError{Field: "scores", Error: ErrInvalidScore.Error()})
			}
			records = append(records, ScoreRecord{StudentID: s.ID, Subject: target.Subject, Value: v})
		}
	}
	for id := range scores {
		if !inClass[id] {
			return core.NewValidationError(nil, core.FieldError{Field: "scores", Error: "student not in class: " + id})
		}
	}

	if err = svc.repo.SetScores(ctx, records...); err != nil {
		return errors.Wrap(err, "setting scores")
	}
	return svc.finishEntry(ctx, target)
}

// PasteGrades applies pasted "Name<sep>Score" lines to the target's class.
func (svc *Service) PasteGrades(ctx context.Context, target GradeTarget, text string) (EntryResult, error) {
	return svc.ApplyGradeRows(ctx, target, ParseGradeLines(text))
}

// ApplyGradeRows matches every row to the first student of the class whose name contains the row's name
// (case-insensitive) and saves the scores. The KKM is set and the teaching claimed even if nothing matched.
func (svc *Service) ApplyGradeRows(ctx context.Context, target GradeTarget, rows []GradeRow) (EntryResult, error) {
	if err := validateTarget(target); err != nil {
		return EntryResult{}, err
	}
	roster, err := svc.Roster(ctx, target.Class)
	if err != nil {
		return EntryResult{}, err
	}

	res := EntryResult{Unmatched: make([]UnmatchedRow, 0)}
	records := make([]ScoreRecord, 0, len(rows))
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		if !core.IsScore(row.Score) {
			res.Unmatched = append(res.Unmatched, UnmatchedRow{
				Line: row.Line, Name: row.Name, Score: row.Score, Reason: ErrInvalidScore.Error(),
			})
			continue
		}
		s, ok := matchStudent(roster, row.Name)
		if !ok {
			res.Unmatched = append(res.Unmatched, UnmatchedRow{
				Line: row.Line, Name: row.Name, Score: row.Score, Reason: "no matching student",
				Suggestion: suggestStudent(roster, row.Name),
			})
			continue
		}
		records = append(records, ScoreRecord{StudentID: s.ID, Subject: target.Subject, Value: row.Score})
		res.Updated++
	}

	if err = svc.repo.SetScores(ctx, records...); err != nil {
		return EntryResult{}, errors.Wrap(err, "setting scores")
	}
	if err = svc.finishEntry(ctx, target); err != nil {
		return EntryResult{}, err
	}
	return res, nil
}

func (svc *Service) finishEntry(ctx context.Context, target GradeTarget) error {
	kkm := KKM{Class: target.Class, Subject: target.Subject, Value: target.KKM}
	if err := svc.repo.SetKKM(ctx, kkm); err != nil {
		return errors.Wrap(err, "setting KKM")
	}
	a := Assignment{Class: target.Class, Subject: target.Subject, Teacher: target.Teacher}
	return errors.Wrap(svc.repo.SetAssignment(ctx, a), "claiming assignment")
}

func validateTarget(target GradeTarget) error {
	if !core.IsScore(target.KKM) {
		return core.NewValidationError(nil, core.FieldError{Field: "kkm", Error: ErrInvalidScore.Error()})
	}
	return nil
}

// Non-academic records

// NonAcademicSheet returns the records of the class roster, with defaults for unrated students.
func (svc *Service) NonAcademicSheet(ctx context.Context, class string) ([]NonAcademicRow, error) {
	roster, err := svc.Roster(ctx, class)
	if err != nil {
		return nil, err
	}
	rows := make([]NonAcademicRow, 0, len(roster))
	for _, s := range roster {
		rec, err := svc.NonAcademicFor(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, NonAcademicRow{Student: s, Record: rec})
	}
	return rows, nil
}

// SaveNonAcademic replaces the records of students of the class.
func (svc *Service) SaveNonAcademic(ctx context.Context, class string, forms []NonAcademicForm) error {
	roster, err := svc.RosterForClass(ctx, class)
	if err != nil {
		return err
	}
	records := make([]NonAcademicRecord, 0, len(forms))
	for _, f := range forms {
		if !contains(roster, f.StudentID) {
			return core.NewValidationError(nil, core.FieldError{Field: "records", Error: "student not in class: " + f.StudentID})
		}
		if !(core.IsRating(f.Neatness) && core.IsRating(f.Discipline) && core.IsRating(f.Honesty)) {
			return core.NewValidationError(nil, core.FieldError{Field: "records", Error: "invalid rating"})
		}
		if f.Sick < 0 || f.Permitted < 0 || f.Unexcused < 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "records", Error: "attendance counters cannot be negative"})
		}
		records = append(records, f.record())
	}
	return errors.Wrap(svc.repo.SetNonAcademic(ctx, records...), "setting non-academic records")
}

func (svc *Service) requireClass(ctx context.Context, class string) error {
	ok, err := svc.HasClass(ctx, class)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "class", Error: "unknown class"})
	}
	return nil
}

func placeholderIfBlank(s string) string {
	s = core.CleanString(s)
	if s == "" {
		return Placeholder
	}
	return s
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
