package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/school"
)

type (
	studentRow struct {
		ID             string      `db:"id"`
		Name           string      `db:"name"`
		Class          string      `db:"class_name"`
		RegistrationID string      `db:"nipd"`
		Sex            string      `db:"sex"`
		NationalID     string      `db:"nisn"`
		GuardianEmail  null.String `db:"guardian_email"`
	}

	homeroomRow struct {
		Class   string      `db:"name"`
		Teacher null.String `db:"homeroom_teacher"`
	}

	nonAcademicRow struct {
		StudentID  string `db:"student_id"`
		Neatness   string `db:"neatness"`
		Discipline string `db:"discipline"`
		Honesty    string `db:"honesty"`
		Sick       int    `db:"sick"`
		Permitted  int    `db:"permitted"`
		Unexcused  int    `db:"unexcused"`
	}

	infoRow struct {
		Name         string `db:"name"`
		Address      string `db:"address"`
		Principal    string `db:"principal"`
		Semester     string `db:"semester"`
		AcademicYear string `db:"academic_year"`
		City         string `db:"city"`
		IssueDate    string `db:"issue_date"`
	}
)

func fromStudent(s school.Student) studentRow {
	return studentRow{
		ID:             s.ID,
		Name:           s.Name,
		Class:          s.Class,
		RegistrationID: s.RegistrationID,
		Sex:            s.Sex,
		NationalID:     s.NationalID,
		GuardianEmail:  null.NewString(s.GuardianEmail, s.GuardianEmail != ""),
	}
}

func (r studentRow) student() school.Student {
	return school.Student{
		ID:             r.ID,
		Name:           r.Name,
		Class:          r.Class,
		RegistrationID: r.RegistrationID,
		Sex:            r.Sex,
		NationalID:     r.NationalID,
		GuardianEmail:  r.GuardianEmail.String,
	}
}

const studentColumns = "id, name, class_name, nipd, sex, nisn, guardian_email"

// catalog tables sharing the (name, position) layout
const (
	classTable   = "school_class"
	subjectTable = "subject"
	teacherTable = "teacher"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

// q rebinds a "?" query to the driver's placeholders.
func (repo *schoolRepository) q(query string) string {
	return repo.db.Rebind(query)
}

// trapNoRowsErr maps the "no rows" err to `notFound`
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// inTx runs fn in a transaction, rolled back when fn fails.
func (repo *schoolRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *schoolRepository) listCatalog(ctx context.Context, table string) ([]string, error) {
	names := make([]string, 0)
	err := repo.db.SelectContext(ctx, &names, "SELECT name FROM "+table+" ORDER BY position")
	return names, errors.Wrap(err, "selecting "+table)
}

func (repo *schoolRepository) addToCatalog(ctx context.Context, table string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	query := repo.q(
		"INSERT INTO " + table + " (name, position) " +
			"VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM " + table + ")) " +
			"ON CONFLICT (name) DO NOTHING",
	)
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, n := range names {
			if _, err := tx.ExecContext(ctx, query, n); err != nil {
				return errors.Wrap(err, "inserting into "+table)
			}
		}
		return nil
	})
}

func (repo *schoolRepository) ListClasses(ctx context.Context) ([]string, error) {
	return repo.listCatalog(ctx, classTable)
}

func (repo *schoolRepository) AddClasses(ctx context.Context, names ...string) error {
	return repo.addToCatalog(ctx, classTable, names)
}

func (repo *schoolRepository) ListSubjects(ctx context.Context) ([]string, error) {
	return repo.listCatalog(ctx, subjectTable)
}

func (repo *schoolRepository) AddSubjects(ctx context.Context, names ...string) error {
	return repo.addToCatalog(ctx, subjectTable, names)
}

func (repo *schoolRepository) ListTeachers(ctx context.Context) ([]string, error) {
	return repo.listCatalog(ctx, teacherTable)
}

func (repo *schoolRepository) AddTeachers(ctx context.Context, names ...string) error {
	return repo.addToCatalog(ctx, teacherTable, names)
}

func (repo *schoolRepository) GetClassSubjects(ctx context.Context, class string) ([]string, error) {
	var configured bool
	err := repo.db.GetContext(ctx, &configured, repo.q("SELECT subjects_configured FROM school_class WHERE name = ?"), class)
	if err != nil {
		return nil, trapNoRowsErr(err, school.ErrNotFound, "selecting class")
	}
	if !configured {
		return nil, school.ErrNotFound
	}

	subjects := make([]string, 0)
	err = repo.db.SelectContext(ctx, &subjects,
		repo.q("SELECT subject FROM class_subject WHERE class_name = ? ORDER BY position"), class)
	return subjects, errors.Wrap(err, "selecting class subjects")
}

func (repo *schoolRepository) SetClassSubjects(ctx context.Context, class string, subjects []string) error {
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, repo.q(
			"INSERT INTO school_class (name, position, subjects_configured) "+
				"VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM school_class), TRUE) "+
				"ON CONFLICT (name) DO UPDATE SET subjects_configured = TRUE",
		), class)
		if err != nil {
			return errors.Wrap(err, "configuring class")
		}
		if _, err = tx.ExecContext(ctx, repo.q("DELETE FROM class_subject WHERE class_name = ?"), class); err != nil {
			return errors.Wrap(err, "clearing class subjects")
		}
		insert := repo.q("INSERT INTO class_subject (class_name, subject, position) VALUES (?, ?, ?)")
		for i, subj := range subjects {
			if _, err = tx.ExecContext(ctx, insert, class, subj, i+1); err != nil {
				return errors.Wrap(err, "inserting class subject")
			}
		}
		return nil
	})
}

func (repo *schoolRepository) GetHomeroom(ctx context.Context, class string) (string, error) {
	var teacher null.String
	err := repo.db.GetContext(ctx, &teacher, repo.q("SELECT homeroom_teacher FROM school_class WHERE name = ?"), class)
	if err != nil {
		return "", trapNoRowsErr(err, school.ErrNotFound, "selecting homeroom")
	}
	if !teacher.Valid {
		return "", school.ErrNotFound
	}
	return teacher.String, nil
}

func (repo *schoolRepository) SetHomeroom(ctx context.Context, hr school.Homeroom) error {
	_, err := repo.db.ExecContext(ctx, repo.q(
		"INSERT INTO school_class (name, position, homeroom_teacher) "+
			"VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM school_class), ?) "+
			"ON CONFLICT (name) DO UPDATE SET homeroom_teacher = excluded.homeroom_teacher",
	), hr.Class, hr.Teacher)
	return errors.Wrap(err, "setting homeroom")
}

func (repo *schoolRepository) ListHomerooms(ctx context.Context) ([]school.Homeroom, error) {
	rows := make([]homeroomRow, 0)
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT name, homeroom_teacher FROM school_class WHERE homeroom_teacher IS NOT NULL ORDER BY position")
	if err != nil {
		return nil, errors.Wrap(err, "selecting homerooms")
	}
	hrs := make([]school.Homeroom, 0, len(rows))
	for _, r := range rows {
		hrs = append(hrs, school.Homeroom{Class: r.Class, Teacher: r.Teacher.String})
	}
	return hrs, nil
}

func (repo *schoolRepository) CreateStudents(ctx context.Context, students ...school.Student) error {
	if len(students) == 0 {
		return nil
	}
	query := repo.q(
		"INSERT INTO student (id, seq, name, class_name, nipd, sex, nisn, guardian_email) " +
			"VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM student), ?, ?, ?, ?, ?, ?)",
	)
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, s := range students {
			r := fromStudent(s)
			if _, err := tx.ExecContext(ctx, query,
				r.ID, r.Name, r.Class, r.RegistrationID, r.Sex, r.NationalID, r.GuardianEmail,
			); err != nil {
				return errors.Wrap(err, "inserting student")
			}
		}
		return nil
	})
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	var r studentRow
	err := repo.db.GetContext(ctx, &r, repo.q("SELECT "+studentColumns+" FROM student WHERE id = ?"), id)
	if err != nil {
		return school.Student{}, trapNoRowsErr(err, school.ErrStudentNotFound, "selecting student")
	}
	return r.student(), nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter school.QueryFilter, ordering []core.DBOrdering) ([]school.Student, error) {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.Class != "" {
		conds = append(conds, "class_name = ?")
		args = append(args, filter.Class)
	}
	if filter.Search != "" {
		conds = append(conds, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + studentColumns + " FROM student")
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	if orderBy := core.OrderBy(ordering, school.StudentOrderingFields); orderBy != "" {
		sb.WriteString(orderBy + ", ")
	}
	sb.WriteString("seq")

	rows := make([]studentRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, repo.q(sb.String()), args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	r := fromStudent(s)
	res, err := repo.db.ExecContext(ctx, repo.q(
		"UPDATE student SET name = ?, class_name = ?, nipd = ?, sex = ?, nisn = ?, guardian_email = ? WHERE id = ?",
	), r.Name, r.Class, r.RegistrationID, r.Sex, r.NationalID, r.GuardianEmail, r.ID)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "updating student")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "updating student")
	}
	if n == 0 {
		return school.Student{}, school.ErrStudentNotFound
	}
	return s, nil
}

func (repo *schoolRepository) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM student")
	return n, errors.Wrap(err, "counting students")
}

func (repo *schoolRepository) GetScore(ctx context.Context, key school.ScoreKey) (int, error) {
	var v int
	err := repo.db.GetContext(ctx, &v,
		repo.q("SELECT value FROM score WHERE student_id = ? AND subject = ?"), key.StudentID, key.Subject)
	if err != nil {
		return 0, trapNoRowsErr(err, school.ErrNotFound, "selecting score")
	}
	return v, nil
}

func (repo *schoolRepository) SetScores(ctx context.Context, records ...school.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := repo.q(
		"INSERT INTO score (student_id, subject, value) VALUES (?, ?, ?) " +
			"ON CONFLICT (student_id, subject) DO UPDATE SET value = excluded.value",
	)
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, query, rec.StudentID, rec.Subject, rec.Value); err != nil {
				return errors.Wrap(err, "upserting score")
			}
		}
		return nil
	})
}

func (repo *schoolRepository) GetKKM(ctx context.Context, key school.ClassSubject) (int, error) {
	var v int
	err := repo.db.GetContext(ctx, &v,
		repo.q("SELECT value FROM kkm WHERE class_name = ? AND subject = ?"), key.Class, key.Subject)
	if err != nil {
		return 0, trapNoRowsErr(err, school.ErrNotFound, "selecting KKM")
	}
	return v, nil
}

func (repo *schoolRepository) SetKKM(ctx context.Context, kkm school.KKM) error {
	_, err := repo.db.ExecContext(ctx, repo.q(
		"INSERT INTO kkm (class_name, subject, value) VALUES (?, ?, ?) "+
			"ON CONFLICT (class_name, subject) DO UPDATE SET value = excluded.value",
	), kkm.Class, kkm.Subject, kkm.Value)
	return errors.Wrap(err, "upserting KKM")
}

func (repo *schoolRepository) ListKKM(ctx context.Context) ([]school.KKM, error) {
	list := make([]school.KKM, 0)
	err := repo.db.SelectContext(ctx, &list,
		`SELECT class_name AS "class", subject, value FROM kkm ORDER BY class_name, subject`)
	return list, errors.Wrap(err, "selecting KKM")
}

func (repo *schoolRepository) SetAssignment(ctx context.Context, a school.Assignment) error {
	_, err := repo.db.ExecContext(ctx, repo.q(
		"INSERT INTO assignment (class_name, subject, teacher) VALUES (?, ?, ?) "+
			"ON CONFLICT (class_name, subject) DO UPDATE SET teacher = excluded.teacher",
	), a.Class, a.Subject, a.Teacher)
	return errors.Wrap(err, "upserting assignment")
}

func (repo *schoolRepository) ListAssignments(ctx context.Context) ([]school.Assignment, error) {
	list := make([]school.Assignment, 0)
	err := repo.db.SelectContext(ctx, &list,
		`SELECT class_name AS "class", subject, teacher FROM assignment ORDER BY class_name, subject`)
	return list, errors.Wrap(err, "selecting assignments")
}

func (repo *schoolRepository) GetNonAcademic(ctx context.Context, studentID string) (school.NonAcademicRecord, error) {
	var r nonAcademicRow
	err := repo.db.GetContext(ctx, &r, repo.q(
		"SELECT student_id, neatness, discipline, honesty, sick, permitted, unexcused FROM non_academic WHERE student_id = ?",
	), studentID)
	if err != nil {
		return school.NonAcademicRecord{}, trapNoRowsErr(err, school.ErrNotFound, "selecting non-academic record")
	}
	return school.NonAcademicRecord(r), nil
}

func (repo *schoolRepository) SetNonAcademic(ctx context.Context, records ...school.NonAcademicRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := repo.q(
		"INSERT INTO non_academic (student_id, neatness, discipline, honesty, sick, permitted, unexcused) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?) " +
			"ON CONFLICT (student_id) DO UPDATE SET neatness = excluded.neatness, discipline = excluded.discipline, " +
			"honesty = excluded.honesty, sick = excluded.sick, permitted = excluded.permitted, unexcused = excluded.unexcused",
	)
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, r := range records {
			if _, err := tx.ExecContext(ctx, query,
				r.StudentID, r.Neatness, r.Discipline, r.Honesty, r.Sick, r.Permitted, r.Unexcused,
			); err != nil {
				return errors.Wrap(err, "upserting non-academic record")
			}
		}
		return nil
	})
}

func (repo *schoolRepository) GetInfo(ctx context.Context) (school.Info, error) {
	var r infoRow
	err := repo.db.GetContext(ctx, &r,
		"SELECT name, address, principal, semester, academic_year, city, issue_date FROM school_info WHERE id = 1")
	if err != nil {
		return school.Info{}, trapNoRowsErr(err, school.ErrNotFound, "selecting school info")
	}
	return school.Info(r), nil
}

func (repo *schoolRepository) SetInfo(ctx context.Context, info school.Info) error {
	_, err := repo.db.ExecContext(ctx, repo.q(
		"INSERT INTO school_info (id, name, address, principal, semester, academic_year, city, issue_date) "+
			"VALUES (1, ?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT (id) DO UPDATE SET name = excluded.name, address = excluded.address, "+
			"principal = excluded.principal, semester = excluded.semester, academic_year = excluded.academic_year, "+
			"city = excluded.city, issue_date = excluded.issue_date",
	), info.Name, info.Address, info.Principal, info.Semester, info.AcademicYear, info.City, info.IssueDate)
	return errors.Wrap(err, "upserting school info")
}
