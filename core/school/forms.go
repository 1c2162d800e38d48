package school

import (
	"github.com/go-playground/validator/v10"
)

type (
	NewStudent struct {
		Class          string `json:"class" validate:"notblank"`
		Name           string `json:"name" validate:"notblank"`
		RegistrationID string `json:"nipd"`
		Sex            string `json:"sex"`
		NationalID     string `json:"nisn"`
		GuardianEmail  string `json:"guardian_email" validate:"omitempty,email"`
	}

	// GradeTarget is the (class, subject) a teacher enters grades for, along with the KKM they set.
	GradeTarget struct {
		Class   string
		Subject string
		Teacher string
		KKM     int
	}

	GradeEntry struct {
		KKM    int            `json:"kkm" validate:"score"`
		Scores map[string]int `json:"scores" validate:"dive,score"` // student ID => score
	}

	UnmatchedRow struct {
		Line       int    `json:"line"`
		Name       string `json:"name"`
		Score      int    `json:"score"`
		Reason     string `json:"reason"`
		Suggestion string `json:"suggestion,omitempty"`
	}

	// EntryResult reports the outcome of a paste or upload.
	EntryResult struct {
		Updated   int            `json:"updated"`
		Unmatched []UnmatchedRow `json:"unmatched"`
	}

	GradeSheetRow struct {
		StudentID string `json:"student_id"`
		Name      string `json:"name"`
		Score     int    `json:"score"`
	}

	GradeSheet struct {
		Class   string          `json:"class"`
		Subject string          `json:"subject"`
		KKM     int             `json:"kkm"`
		Rows    []GradeSheetRow `json:"rows"`
	}

	NonAcademicRow struct {
		Student Student           `json:"student"`
		Record  NonAcademicRecord `json:"record"`
	}

	NonAcademicForm struct {
		StudentID  string `json:"student_id" validate:"required"`
		Neatness   string `json:"neatness" validate:"rating"`
		Discipline string `json:"discipline" validate:"rating"`
		Honesty    string `json:"honesty" validate:"rating"`
		Sick       int    `json:"sick" validate:"min=0"`
		Permitted  int    `json:"permitted" validate:"min=0"`
		Unexcused  int    `json:"unexcused" validate:"min=0"`
	}

	NonAcademicEntry struct {
		Records []NonAcademicForm `json:"records" validate:"required,dive"`
	}

	MonitoringCell struct {
		Class   string `json:"class"`
		Teacher string `json:"teacher,omitempty"`
		Claimed bool   `json:"claimed"`
		KKM     int    `json:"kkm"`
	}

	MonitoringRow struct {
		Subject string           `json:"subject"`
		Cells   []MonitoringCell `json:"cells"`
	}

	Monitoring struct {
		Classes []string        `json:"classes"`
		Rows    []MonitoringRow `json:"rows"`
	}

	Stats struct {
		Students int `json:"students"`
		Classes  int `json:"classes"`
		Subjects int `json:"subjects"`
		Teachers int `json:"teachers"`
	}
)

func (ns NewStudent) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

func (ge GradeEntry) Validate(validate *validator.Validate) error {
	return validate.Struct(ge)
}

func (ne NonAcademicEntry) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

func (info Info) Validate(validate *validator.Validate) error {
	return validate.Struct(info)
}

func (f NonAcademicForm) record() NonAcademicRecord {
	return NonAcademicRecord{
		StudentID:  f.StudentID,
		Neatness:   f.Neatness,
		Discipline: f.Discipline,
		Honesty:    f.Honesty,
		Sick:       f.Sick,
		Permitted:  f.Permitted,
		Unexcused:  f.Unexcused,
	}
}
