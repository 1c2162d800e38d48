package school

import (
	"errors"
	"strings"

	"github.com/trezcool/raport/core"
)

const (
	// DefaultKKM is the passing threshold used when none was set for a (class, subject).
	DefaultKKM = 75

	// NoRating is the personality rating of a student who was not rated yet.
	NoRating = "-"

	// Placeholder is used for missing optional student fields and unknown homeroom teachers.
	Placeholder = "-"
)

var (
	// errors
	ErrNotFound        = errors.New("not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidScore    = errors.New("score must be between 0 and 100")
)

// defaults of a freshly installed school
var (
	DefaultClasses  = []string{"X-A", "X-B", "XI-A", "XII-A"}
	DefaultTeachers = []string{"Liyas Syarifudin, M.Pd", "Mali, S.Pd", "Antoni Firdaus M.Pd."}
	DefaultSubjects = []string{
		"Pendidikan Agama Islam", "Pendidikan Pancasila", "Bahasa Indonesia", "Matematika", "Fisika (IPA)",
		"Kimia (IPA)", "Biologi (IPA)", "Sosiologi", "Ekonomi", "Sejarah", "Geografi", "Bahasa Inggris", "PJOK",
		"Informatika", "Seni Budaya", "Prakarya", "Bahasa Sunda",
	}
	DefaultInfo = Info{
		Name:         "SMA ISLAM AL-GHOZALI",
		Address:      "Jl. Permata No. 19 Desa Curug Kec. Gunungsindur Kab. Bogor Telp. (0251)8614072",
		Principal:    "Antoni Firdaus M.Pd.",
		Semester:     "Genap",
		AcademicYear: "2024/2025",
		City:         "Gunungsindur",
		IssueDate:    "20 Maret 2025",
	}
)

type (
	Student struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Class          string `json:"class"`
		RegistrationID string `json:"nipd"`
		Sex            string `json:"sex"`
		NationalID     string `json:"nisn"`
		GuardianEmail  string `json:"guardian_email,omitempty"`
	}

	// ClassSubject is the composite key of per-class subject settings (KKM, teaching assignment).
	ClassSubject struct {
		Class   string
		Subject string
	}

	// ScoreKey is the composite key of a score record.
	ScoreKey struct {
		StudentID string
		Subject   string
	}

	ScoreRecord struct {
		StudentID string `json:"student_id"`
		Subject   string `json:"subject"`
		Value     int    `json:"value"`
	}

	KKM struct {
		Class   string `json:"class"`
		Subject string `json:"subject"`
		Value   int    `json:"value"`
	}

	// Assignment records which teacher claimed a subject in a class.
	Assignment struct {
		Class   string `json:"class"`
		Subject string `json:"subject"`
		Teacher string `json:"teacher"`
	}

	Homeroom struct {
		Class   string `json:"class"`
		Teacher string `json:"teacher"`
	}

	NonAcademicRecord struct {
		StudentID  string `json:"student_id"`
		Neatness   string `json:"neatness"`
		Discipline string `json:"discipline"`
		Honesty    string `json:"honesty"`
		Sick       int    `json:"sick"`
		Permitted  int    `json:"permitted"`
		Unexcused  int    `json:"unexcused"`
	}

	// Info holds the school identity printed on every report.
	Info struct {
		Name         string `json:"name" validate:"notblank"`
		Address      string `json:"address"`
		Principal    string `json:"principal"`
		Semester     string `json:"semester"`
		AcademicYear string `json:"academic_year"`
		City         string `json:"city"`
		IssueDate    string `json:"issue_date"`
	}
)

func (k ScoreRecord) Key() ScoreKey { return ScoreKey{StudentID: k.StudentID, Subject: k.Subject} }
func (k KKM) Key() ClassSubject     { return ClassSubject{Class: k.Class, Subject: k.Subject} }

func (a Assignment) Key() ClassSubject { return ClassSubject{Class: a.Class, Subject: a.Subject} }

// DefaultNonAcademic is the record of a student whose homeroom teacher did not fill anything yet.
func DefaultNonAcademic(studentID string) NonAcademicRecord {
	return NonAcademicRecord{
		StudentID:  studentID,
		Neatness:   NoRating,
		Discipline: NoRating,
		Honesty:    NoRating,
	}
}

// QueryFilter applies AND operation on its set fields.
// Search does a case-insensitive match on the student's name.
type QueryFilter struct {
	Class  string `query:"class"`
	Search string `query:"search"`
}

func (f *QueryFilter) Clean() {
	f.Class = core.CleanString(f.Class)
	f.Search = core.CleanString(f.Search, true)
}

// Matches reports whether the student satisfies the filter.
func (f QueryFilter) Matches(s Student) bool {
	if f.Class != "" && s.Class != f.Class {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(s.Name), f.Search) {
		return false
	}
	return true
}

// StudentOrderingFields maps the "ordering" query param fields to student columns.
var StudentOrderingFields = map[string]string{
	"name":  "name",
	"class": "class_name",
	"nipd":  "nipd",
	"nisn":  "nisn",
}
