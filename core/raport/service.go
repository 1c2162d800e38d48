package raport

import (
	"bytes"
	"context"
	"io"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/ranking"
	"github.com/trezcool/raport/core/school"
)

const (
	DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	XlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	reportEmailTemplate = "raport"
)

var ErrNoRecipient = errors.New("no email address to send the report to")

type (
	// Store is the part of the school service reports are built from.
	Store interface {
		ranking.Gradebook
		GetStudent(ctx context.Context, id string) (school.Student, error)
		Roster(ctx context.Context, class string) ([]school.Student, error)
		KKMFor(ctx context.Context, class, subject string) (int, error)
		NonAcademicFor(ctx context.Context, studentID string) (school.NonAcademicRecord, error)
		HomeroomFor(ctx context.Context, class string) (string, error)
		Info(ctx context.Context) (school.Info, error)
	}

	// DocumentWriter renders reports and ledgers to office documents.
	DocumentWriter interface {
		WriteReport(w io.Writer, r Report) error
		WriteLeger(w io.Writer, l Leger) error
	}

	Document struct {
		Filename    string
		ContentType string
		Content     []byte
	}

	RankingRow struct {
		ranking.Entry
		Name    string `json:"name"`
		Average string `json:"average"`
	}

	Ranking struct {
		Class     string       `json:"class"`
		ClassSize int          `json:"class_size"`
		Rows      []RankingRow `json:"rows"`
	}

	// ReportSummary is a report listing line.
	ReportSummary struct {
		StudentID string `json:"student_id"`
		Name      string `json:"name"`
		Rank      int    `json:"rank"`
		ClassSize int    `json:"class_size"`
		Average   string `json:"average"`
	}

	reportEmailData struct {
		StudentName  string
		Class        string
		Semester     string
		AcademicYear string
		Rank         int
		ClassSize    int
		Average      string
		Homeroom     string
		School       string
	}
)

type Service struct {
	store   Store
	docs    DocumentWriter
	mailSvc core.EmailService
}

func NewService(store Store, docs DocumentWriter, mailSvc core.EmailService) *Service {
	return &Service{store: store, docs: docs, mailSvc: mailSvc}
}

// Ranking returns the class ranking with the students' names and averages.
func (svc *Service) Ranking(ctx context.Context, class string) (Ranking, error) {
	res, err := ranking.Compute(ctx, svc.store, class)
	if err != nil {
		return Ranking{}, errors.Wrap(err, "computing ranking")
	}
	roster, err := svc.store.Roster(ctx, class)
	if err != nil {
		return Ranking{}, err
	}
	names := make(map[string]string, len(roster))
	for _, s := range roster {
		names[s.ID] = s.Name
	}

	rk := Ranking{Class: class, ClassSize: res.Size, Rows: make([]RankingRow, 0, len(res.Entries))}
	for _, e := range res.Entries {
		rk.Rows = append(rk.Rows, RankingRow{Entry: e, Name: names[e.StudentID], Average: e.FormatAverage()})
	}
	return rk, nil
}

// Report assembles the report of a student of the class.
func (svc *Service) Report(ctx context.Context, class, studentID string) (Report, error) {
	s, err := svc.classStudent(ctx, class, studentID)
	if err != nil {
		return Report{}, err
	}
	res, err := ranking.Compute(ctx, svc.store, class)
	if err != nil {
		return Report{}, errors.Wrap(err, "computing ranking")
	}
	return svc.assemble(ctx, s, res)
}

// Reports lists the students of the class with their rank, in roster order.
func (svc *Service) Reports(ctx context.Context, class string) ([]ReportSummary, error) {
	res, err := ranking.Compute(ctx, svc.store, class)
	if err != nil {
		return nil, errors.Wrap(err, "computing ranking")
	}
	roster, err := svc.store.Roster(ctx, class)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]ranking.Entry, len(res.Entries))
	for _, e := range res.Entries {
		byID[e.StudentID] = e
	}

	list := make([]ReportSummary, 0, len(roster))
	for _, s := range roster {
		e := byID[s.ID]
		list = append(list, ReportSummary{
			StudentID: s.ID,
			Name:      s.Name,
			Rank:      e.Rank,
			ClassSize: res.Size,
			Average:   e.FormatAverage(),
		})
	}
	return list, nil
}

func (svc *Service) assemble(ctx context.Context, s school.Student, res ranking.Result) (Report, error) {
	info, err := svc.store.Info(ctx)
	if err != nil {
		return Report{}, err
	}
	homeroom, err := svc.store.HomeroomFor(ctx, s.Class)
	if err != nil {
		return Report{}, err
	}
	subjects, err := svc.store.SubjectsForClass(ctx, s.Class)
	if err != nil {
		return Report{}, errors.Wrap(err, "getting class subjects")
	}
	nonAcad, err := svc.store.NonAcademicFor(ctx, s.ID)
	if err != nil {
		return Report{}, err
	}

	in := Input{
		Student:     s,
		School:      info,
		Homeroom:    homeroom,
		Subjects:    subjects,
		Scores:      make(map[string]int, len(subjects)),
		KKM:         make(map[string]int, len(subjects)),
		NonAcademic: nonAcad,
		Rank:        res.Ranks[s.ID],
		ClassSize:   res.Size,
	}
	for _, subj := range subjects {
		if in.Scores[subj], err = svc.store.GetScore(ctx, s.ID, subj); err != nil {
			return Report{}, errors.Wrap(err, "getting score")
		}
		if in.KKM[subj], err = svc.store.KKMFor(ctx, s.Class, subj); err != nil {
			return Report{}, errors.Wrap(err, "getting KKM")
		}
	}
	return Assemble(in), nil
}

// Leger builds the class ledger.
func (svc *Service) Leger(ctx context.Context, class string) (Leger, error) {
	res, err := ranking.Compute(ctx, svc.store, class)
	if err != nil {
		return Leger{}, errors.Wrap(err, "computing ranking")
	}
	subjects, err := svc.store.SubjectsForClass(ctx, class)
	if err != nil {
		return Leger{}, errors.Wrap(err, "getting class subjects")
	}
	roster, err := svc.store.Roster(ctx, class)
	if err != nil {
		return Leger{}, err
	}

	students := make([]LegerStudent, 0, len(roster))
	for _, s := range roster {
		ls := LegerStudent{Student: s, Scores: make(map[string]int, len(subjects))}
		for _, subj := range subjects {
			if ls.Scores[subj], err = svc.store.GetScore(ctx, s.ID, subj); err != nil {
				return Leger{}, errors.Wrap(err, "getting score")
			}
		}
		if ls.NonAcademic, err = svc.store.NonAcademicFor(ctx, s.ID); err != nil {
			return Leger{}, err
		}
		students = append(students, ls)
	}
	return BuildLeger(class, subjects, students, res.Ranks), nil
}

// ReportDocument renders the report of a student of the class as a .docx document.
func (svc *Service) ReportDocument(ctx context.Context, class, studentID string) (Document, error) {
	r, err := svc.Report(ctx, class, studentID)
	if err != nil {
		return Document{}, err
	}
	return svc.reportDocument(r)
}

func (svc *Service) reportDocument(r Report) (Document, error) {
	var buf bytes.Buffer
	if err := svc.docs.WriteReport(&buf, r); err != nil {
		return Document{}, errors.Wrap(err, "writing report document")
	}
	return Document{
		Filename:    "Raport_" + r.Student.Name + ".docx",
		ContentType: DocxContentType,
		Content:     buf.Bytes(),
	}, nil
}

// LegerDocument renders the class ledger as a .xlsx workbook.
func (svc *Service) LegerDocument(ctx context.Context, class string) (Document, error) {
	l, err := svc.Leger(ctx, class)
	if err != nil {
		return Document{}, err
	}
	var buf bytes.Buffer
	if err = svc.docs.WriteLeger(&buf, l); err != nil {
		return Document{}, errors.Wrap(err, "writing leger workbook")
	}
	return Document{
		Filename:    "Leger_" + class + ".xlsx",
		ContentType: XlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}

// SendReport emails the report document of a student of the class to `to`,
// or to the student's guardian when `to` is empty.
func (svc *Service) SendReport(ctx context.Context, class, studentID, to string) (mail.Address, error) {
	r, err := svc.Report(ctx, class, studentID)
	if err != nil {
		return mail.Address{}, err
	}
	if to == "" {
		to = r.Student.GuardianEmail
	}
	if to == "" {
		return mail.Address{}, core.NewValidationError(ErrNoRecipient, core.FieldError{Field: "email", Error: ErrNoRecipient.Error()})
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return mail.Address{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: "invalid email address"})
	}

	doc, err := svc.reportDocument(r)
	if err != nil {
		return mail.Address{}, err
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      "Laporan Hasil Belajar " + r.Student.Name,
		TemplateName: reportEmailTemplate,
		TemplateData: reportEmailData{
			StudentName:  r.Student.Name,
			Class:        r.Student.Class,
			Semester:     r.School.Semester,
			AcademicYear: r.School.AcademicYear,
			Rank:         r.Rank,
			ClassSize:    r.ClassSize,
			Average:      r.Average,
			Homeroom:     r.Homeroom,
			School:       r.School.Name,
		},
	}
	if err = msg.Attach(bytes.NewReader(doc.Content), doc.Filename, doc.ContentType); err != nil {
		return mail.Address{}, errors.Wrap(err, "attaching report")
	}
	svc.mailSvc.SendMessages(msg)
	return *addr, nil
}

func (svc *Service) classStudent(ctx context.Context, class, studentID string) (school.Student, error) {
	s, err := svc.store.GetStudent(ctx, studentID)
	if err != nil {
		return school.Student{}, err
	}
	if s.Class != class {
		return school.Student{}, school.ErrStudentNotFound
	}
	return s, nil
}
