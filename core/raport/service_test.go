package raport_test

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/raport"
	"github.com/trezcool/raport/core/school"
	emailsvc "github.com/trezcool/raport/services/email"
	exportsvc "github.com/trezcool/raport/services/export"
	inmemdb "github.com/trezcool/raport/storage/database/inmem"
	testutil "github.com/trezcool/raport/tests"
)

type fixture struct {
	schoolSvc *school.Service
	raportSvc *raport.Service
	mailSvc   *emailsvc.ConsoleServiceMock
	students  []school.Student
}

// setup creates class X-A with 3 students graded on 2 active subjects:
// Ahmad 80+90, Budi 95+0, Citra 70+100.
func setup(t *testing.T) fixture {
	ctx := context.Background()
	schoolSvc := school.NewService(inmemdb.NewSchoolRepository(inmemdb.Open()))
	require.NoError(t, schoolSvc.EnsureDefaults(ctx))
	mailSvc := emailsvc.NewConsoleServiceMock(testutil.NewConfig())

	f := fixture{
		schoolSvc: schoolSvc,
		raportSvc: raport.NewService(schoolSvc, exportsvc.NewWriter(), mailSvc),
		mailSvc:   mailSvc,
	}
	f.students = testutil.CreateStudents(t, schoolSvc, "X-A", "Ahmad", "Budi", "Citra")
	testutil.SetActiveSubjects(t, schoolSvc, "X-A", "Matematika", "Bahasa Sunda")
	testutil.SetScores(t, schoolSvc, "Matematika", map[string]int{
		f.students[0].ID: 80, f.students[1].ID: 95, f.students[2].ID: 70,
	})
	testutil.SetScores(t, schoolSvc, "Bahasa Sunda", map[string]int{
		f.students[0].ID: 90, f.students[2].ID: 100,
	})
	return f
}

func TestService_Ranking(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rk, err := f.raportSvc.Ranking(ctx, "X-A")
	require.NoError(t, err)
	assert.Equal(t, 3, rk.ClassSize)
	require.Len(t, rk.Rows, 3)
	assert.Equal(t, []string{"Ahmad", "Citra", "Budi"}, []string{rk.Rows[0].Name, rk.Rows[1].Name, rk.Rows[2].Name})
	assert.Equal(t, "85.00", rk.Rows[0].Average)
	assert.Equal(t, "95.00", rk.Rows[2].Average)

	t.Run("empty class", func(t *testing.T) {
		rk, err := f.raportSvc.Ranking(ctx, "XII-A")
		require.NoError(t, err)
		assert.Equal(t, 0, rk.ClassSize)
		assert.Empty(t, rk.Rows)
	})
}

func TestService_Report(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	citra := f.students[2]

	require.NoError(t, f.schoolSvc.SetHomeroom(ctx, school.Homeroom{Class: "X-A", Teacher: "Mali, S.Pd"}))
	require.NoError(t, f.schoolSvc.SaveGrades(ctx, school.GradeTarget{
		Class: "X-A", Subject: "Bahasa Sunda", Teacher: "Mali, S.Pd", KKM: 100,
	}, map[string]int{citra.ID: 100}))

	r, err := f.raportSvc.Report(ctx, "X-A", citra.ID)
	require.NoError(t, err)
	assert.Equal(t, citra, r.Student)
	assert.Equal(t, school.DefaultInfo, r.School)
	assert.Equal(t, "Mali, S.Pd", r.Homeroom)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, raport.Row{No: 1, Subject: "Matematika", KKM: 75, Score: 70, Words: "Tujuh Puluh ", Predicate: "C"}, r.Rows[0])
	assert.Equal(t, raport.Row{No: 2, Subject: "Bahasa Sunda", KKM: 100, Score: 100, Words: "Seratus", Predicate: "B"}, r.Rows[1])
	assert.Equal(t, 170, r.Total)
	assert.Equal(t, "85.00", r.Average)
	assert.Equal(t, 2, r.Rank)
	assert.Equal(t, 3, r.ClassSize)
	assert.Equal(t, school.DefaultNonAcademic(citra.ID), r.NonAcademic)

	t.Run("student of another class", func(t *testing.T) {
		_, err := f.raportSvc.Report(ctx, "X-B", citra.ID)
		assert.Equal(t, school.ErrStudentNotFound, errors.Cause(err))
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := f.raportSvc.Report(ctx, "X-A", "lol")
		assert.Equal(t, school.ErrStudentNotFound, errors.Cause(err))
	})
}

func TestService_Reports(t *testing.T) {
	f := setup(t)

	list, err := f.raportSvc.Reports(context.Background(), "X-A")
	require.NoError(t, err)
	require.Len(t, list, 3)
	// roster order
	assert.Equal(t, raport.ReportSummary{StudentID: f.students[0].ID, Name: "Ahmad", Rank: 1, ClassSize: 3, Average: "85.00"}, list[0])
	assert.Equal(t, raport.ReportSummary{StudentID: f.students[1].ID, Name: "Budi", Rank: 3, ClassSize: 3, Average: "95.00"}, list[1])
	assert.Equal(t, raport.ReportSummary{StudentID: f.students[2].ID, Name: "Citra", Rank: 2, ClassSize: 3, Average: "85.00"}, list[2])
}

func TestService_ReportDocument(t *testing.T) {
	f := setup(t)

	doc, err := f.raportSvc.ReportDocument(context.Background(), "X-A", f.students[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Raport_Ahmad.docx", doc.Filename)
	assert.Equal(t, raport.DocxContentType, doc.ContentType)

	zr, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	assert.Contains(t, names, "word/document.xml")
}

func TestService_LegerDocument(t *testing.T) {
	f := setup(t)

	doc, err := f.raportSvc.LegerDocument(context.Background(), "X-A")
	require.NoError(t, err)
	assert.Equal(t, "Leger_X-A.xlsx", doc.Filename)
	assert.Equal(t, raport.XlsxContentType, doc.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(doc.Content))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	rows, err := wb.GetRows("Leger")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"No", "Nama", "NISN", "MATE", "BAHA", "Rata", "Rank", "S", "I", "A"}, rows[0])
	assert.Equal(t, []string{"2", "Budi", "-", "95", "0", "95.00", "3", "0", "0", "0"}, rows[2])
}

func TestService_SendReport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ahmad := f.students[0]

	t.Run("no recipient", func(t *testing.T) {
		_, err := f.raportSvc.SendReport(ctx, "X-A", ahmad.ID, "")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, raport.ErrNoRecipient, vErr.Err)
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := f.raportSvc.SendReport(ctx, "X-A", ahmad.ID, "lol")
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("explicit address", func(t *testing.T) {
		addr, err := f.raportSvc.SendReport(ctx, "X-A", ahmad.ID, "parent@test.id")
		require.NoError(t, err)
		assert.Equal(t, "parent@test.id", addr.Address)

		sent := f.mailSvc.Sent()
		require.Len(t, sent, 1)
		msg := sent[0]
		assert.Equal(t, "parent@test.id", msg.To[0].Address)
		assert.Contains(t, msg.TextContent, "Ahmad")
		assert.NotEmpty(t, msg.HTMLContent)
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "Raport_Ahmad.docx", msg.Attachments[0].Filename)
		assert.Equal(t, raport.DocxContentType, msg.Attachments[0].ContentType)
	})

	t.Run("guardian address", func(t *testing.T) {
		s, err := f.schoolSvc.CreateStudent(ctx, school.NewStudent{Class: "X-A", Name: "Dewi", GuardianEmail: "Wali.Dewi@test.id"})
		require.NoError(t, err)

		addr, err := f.raportSvc.SendReport(ctx, "X-A", s.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "wali.dewi@test.id", addr.Address)
		assert.Len(t, f.mailSvc.Sent(), 2)
	})
}
