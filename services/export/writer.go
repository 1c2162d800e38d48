package exportsvc

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/raport/core/raport"
)

const (
	headerFill = "E0F7FA"
	legerSheet = "Leger"
)

var (
	bold = runStyle{bold: true}

	// grade table columns: NO, subject, KKM, score, score in words, predicate
	gradeWidths = []int{600, 4266, 900, 1100, 2400, 1200}
)

// Writer renders reports as .docx documents and ledgers as .xlsx workbooks.
type Writer struct{}

var _ raport.DocumentWriter = (*Writer)(nil) // interface compliance check

func NewWriter() *Writer {
	return &Writer{}
}

// WriteReport writes the report card of one student.
func (w *Writer) WriteReport(out io.Writer, r raport.Report) error {
	var b docBuilder

	// header
	b.paragraph(raport.Title, alignCenter, runStyle{bold: true, size: 24}, false)
	b.paragraph(raport.AssessmentName, alignCenter, runStyle{bold: true, size: 28}, false)
	b.paragraph(r.School.Name, alignCenter, runStyle{bold: true, size: 32}, false)
	b.paragraph("TAHUN PELAJARAN "+r.School.AcademicYear, alignCenter, runStyle{bold: true, size: 24}, false)
	b.paragraph(r.School.Address, alignCenter, runStyle{size: 20}, true)
	b.emptyParagraph()

	// identity
	b.table(table{
		widths: []int{1800, 4000, 1400, 3266},
		rows: [][]cell{
			{{text: "Nama"}, {text: ": " + r.Student.Name}, {text: "NIPD"}, {text: ": " + r.Student.RegistrationID}},
			{{text: "Sekolah"}, {text: ": " + r.School.Name}, {text: "NISN"}, {text: ": " + r.Student.NationalID}},
			{
				{text: "Kls/Smt"}, {text: fmt.Sprintf(": %s/%s", r.Student.Class, r.School.Semester)},
				{text: "Thn"}, {text: ": " + r.School.AcademicYear},
			},
		},
	})
	b.emptyParagraph()

	// grades
	b.table(gradeTable(r))
	b.emptyParagraph()

	// personality & attendance
	b.paragraph("B. Kepribadian dan Ketidakhadiran", "", bold, false)
	na := r.NonAcademic
	personality := twoColumns("Kepribadian", [][2]string{
		{"Kerapihan", na.Neatness}, {"Kedisiplinan", na.Discipline}, {"Kejujuran", na.Honesty},
	})
	attendance := twoColumns("Absensi", [][2]string{
		{"Sakit", strconv.Itoa(na.Sick)}, {"Izin", strconv.Itoa(na.Permitted)}, {"Alpha", strconv.Itoa(na.Unexcused)},
	})
	b.table(table{
		widths:  []int{5233, 5233},
		borders: true,
		rows:    [][]cell{{{inner: &personality}, {inner: &attendance}}},
	})

	b.emptyParagraph()
	b.paragraph(fmt.Sprintf("Peringkat Kelas: %d dari %d siswa", r.Rank, r.ClassSize), "", runStyle{}, false)

	// signatures
	homeroom := r.Homeroom
	if homeroom != raport.UnknownHomeroom {
		homeroom = "(" + homeroom + ")"
	}
	b.table(table{
		widths: []int{3488, 3489, 3489},
		center: true,
		rows: [][]cell{{
			{text: "\nOrang Tua\n\n\n(..........)", align: alignCenter},
			{text: "\nMengetahui\nKepala Sekolah\n\n\n(" + r.School.Principal + ")", align: alignCenter},
			{text: r.School.City + ", " + r.School.IssueDate + "\nWali Kelas\n\n\n" + homeroom, align: alignCenter},
		}},
	})

	return errors.Wrap(writeDocx(out, b.buf.Bytes()), "writing report document")
}

func gradeTable(r raport.Report) table {
	header := func(text string, vMerge string, span int) cell {
		return cell{text: text, vMerge: vMerge, span: span, fill: headerFill, align: alignCenter, style: bold}
	}
	rows := [][]cell{
		{
			header("NO", vMergeRestart, 1), header("Komponen Mata Pelajaran", vMergeRestart, 1),
			header("KKM", vMergeRestart, 1), header("Nilai", "", 2), header("Afektif", vMergeRestart, 1),
		},
		{
			header("", vMergeContinue, 1), header("", vMergeContinue, 1), header("", vMergeContinue, 1),
			header("Angka", "", 1), header("Huruf", "", 1), header("", vMergeContinue, 1),
		},
	}
	for _, row := range r.Rows {
		rows = append(rows, []cell{
			{text: strconv.Itoa(row.No), align: alignCenter},
			{text: row.Subject, align: alignLeft},
			{text: strconv.Itoa(row.KKM), align: alignCenter},
			{text: strconv.Itoa(row.Score), align: alignCenter},
			{text: row.Words, align: alignCenter},
			{text: row.Predicate, align: alignCenter},
		})
	}
	rows = append(rows,
		[]cell{
			{text: "Jumlah", span: 3, align: alignCenter, style: bold},
			{text: strconv.Itoa(r.Total), align: alignCenter}, {}, {},
		},
		[]cell{
			{text: "Rata - rata", span: 3, align: alignCenter, style: bold},
			{text: r.Average, align: alignCenter}, {}, {},
		},
	)
	return table{widths: gradeWidths, borders: true, rows: rows}
}

func twoColumns(title string, lines [][2]string) table {
	rows := [][]cell{{{text: title, style: bold}, {text: "Ket", style: bold}}}
	for _, l := range lines {
		rows = append(rows, []cell{{text: l[0]}, {text: l[1]}})
	}
	return table{widths: []int{3000, 2000}, borders: true, rows: rows}
}

// WriteLeger writes the class ledger on a single "Leger" sheet.
func (w *Writer) WriteLeger(out io.Writer, l raport.Leger) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), legerSheet); err != nil {
		return errors.Wrap(err, "naming leger sheet")
	}

	header := []interface{}{"No", "Nama", "NISN"}
	for _, h := range l.Headers {
		header = append(header, h)
	}
	header = append(header, "Rata", "Rank", "S", "I", "A")
	if err := f.SetSheetRow(legerSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing leger header")
	}

	for i, row := range l.Rows {
		vals := []interface{}{row.No, row.Name, row.NationalID}
		for _, s := range row.Scores {
			vals = append(vals, s)
		}
		vals = append(vals, row.Average, row.Rank, row.Sick, row.Permitted, row.Unexcused)

		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "locating leger row")
		}
		if err = f.SetSheetRow(legerSheet, axis, &vals); err != nil {
			return errors.Wrap(err, "writing leger row")
		}
	}

	if err := f.SetPanes(legerSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return errors.Wrap(err, "freezing leger header")
	}
	return errors.Wrap(f.Write(out), "writing leger workbook")
}
