package exportsvc

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/raport/core/school"
)

const (
	nameColumn  = "nama"
	scoreColumn = "nilai"
)

var ErrUnsupportedFile = errors.New("unsupported file type, expected .csv or .xlsx")

// ReadGradeRows reads the "nama" and "nilai" columns of an uploaded .csv or .xlsx grade file.
// Header names are matched case-insensitively; the first sheet of a workbook is used.
// The whole file is read before returning, so a malformed file yields no rows at all.
func ReadGradeRows(r io.Reader, filename string) ([]school.GradeRow, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, err
	}
	return gradeRows(records)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	return records, errors.Wrap(err, "reading csv")
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	return rows, errors.Wrap(err, "reading workbook rows")
}

func gradeRows(records [][]string) ([]school.GradeRow, error) {
	if len(records) == 0 {
		return nil, errors.New("empty file")
	}

	nameIdx, scoreIdx := -1, -1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case nameColumn:
			nameIdx = i
		case scoreColumn:
			scoreIdx = i
		}
	}
	if nameIdx < 0 || scoreIdx < 0 {
		return nil, errors.Errorf("columns %q and %q are required", nameColumn, scoreColumn)
	}

	rows := make([]school.GradeRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := school.GradeRow{Line: i + 2}
		if nameIdx < len(rec) {
			row.Name = strings.TrimSpace(rec[nameIdx])
		}
		if scoreIdx < len(rec) {
			row.Score = school.ParseScore(rec[scoreIdx])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
