package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/raport/apps/api/echo"
	"github.com/trezcool/raport/core/school"
	exportsvc "github.com/trezcool/raport/services/export"
	testutil "github.com/trezcool/raport/tests"
)

func Test_gradebookApi_sheet(t *testing.T) {
	env := setup(t)
	students := testutil.CreateStudents(t, env.schoolSvc, "X-A", "Ahmad", "Budi")
	other := testutil.CreateStudents(t, env.schoolSvc, "X-B", "Citra")[0]
	ahmad, budi := students[0], students[1]

	sheet := func(kkm int, scores ...int) []byte {
		return marchallObj(t, school.GradeSheet{
			Class: "X-A", Subject: "Matematika", KKM: kkm,
			Rows: []school.GradeSheetRow{
				{StudentID: ahmad.ID, Name: "Ahmad", Score: scores[0]},
				{StudentID: budi.ID, Name: "Budi", Score: scores[1]},
			},
		})
	}

	runTests(t, env.app, []httpTest{
		{name: "auth required", path: "/v1/gradebook", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "guru required", path: "/v1/gradebook", token: env.homeroomToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "empty sheet", path: "/v1/gradebook", token: env.teacherToken, wantData: sheet(school.DefaultKKM, 0, 0)},
		{
			name: "save: invalid score", method: http.MethodPut, path: "/v1/gradebook", token: env.teacherToken,
			body:     marchallObj(t, school.GradeEntry{KKM: 70, Scores: map[string]int{ahmad.ID: 120}}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "save: invalid KKM", method: http.MethodPut, path: "/v1/gradebook", token: env.teacherToken,
			body:     marchallObj(t, school.GradeEntry{KKM: -1}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"kkm": "must be a number between 0 and 100"}),
		},
		{
			name: "save: other class", method: http.MethodPut, path: "/v1/gradebook", token: env.teacherToken,
			body:     marchallObj(t, school.GradeEntry{KKM: 70, Scores: map[string]int{other.ID: 80}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"scores": "student not in class: " + other.ID}),
		},
		{
			name: "save", method: http.MethodPut, path: "/v1/gradebook", token: env.teacherToken,
			body:     marchallObj(t, school.GradeEntry{KKM: 70, Scores: map[string]int{ahmad.ID: 80, budi.ID: 65}}),
			wantData: sheet(70, 80, 65),
		},
		{name: "saved", path: "/v1/gradebook", token: env.teacherToken, wantData: sheet(70, 80, 65)},
	})

	mon, err := env.schoolSvc.Monitoring(context.Background())
	require.NoError(t, err)
	for _, row := range mon.Rows {
		if row.Subject == "Matematika" {
			assert.Equal(t, school.MonitoringCell{Class: "X-A", Teacher: teacher, Claimed: true, KKM: 70}, row.Cells[0])
		}
	}
}

func Test_gradebookApi_paste(t *testing.T) {
	env := setup(t)
	students := testutil.CreateStudents(t, env.schoolSvc, "X-A", "Ahmad Fauzi", "Budi Santoso")

	runTests(t, env.app, []httpTest{
		{
			name: "blank text", method: http.MethodPost, path: "/v1/gradebook/paste", token: env.teacherToken,
			body:     marchallObj(t, PasteGradesRequest{KKM: 70}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"text": "this field cannot be blank"}),
		},
		{
			name: "paste", method: http.MethodPost, path: "/v1/gradebook/paste", token: env.teacherToken,
			body: marchallObj(t, PasteGradesRequest{KKM: 72, Text: "ahmad\t88.5\nBudi Santosa\t70\n"}),
			wantData: marchallObj(t, school.EntryResult{
				Updated: 1,
				Unmatched: []school.UnmatchedRow{
					{Line: 2, Name: "Budi Santosa", Score: 70, Reason: "no matching student", Suggestion: "Budi Santoso"},
				},
			}),
		},
	})

	v, err := env.schoolSvc.GetScore(context.Background(), students[0].ID, "Matematika")
	require.NoError(t, err)
	assert.Equal(t, 88, v)
	kkm, err := env.schoolSvc.KKMFor(context.Background(), "X-A", "Matematika")
	require.NoError(t, err)
	assert.Equal(t, 72, kkm)
}

func Test_gradebookApi_upload(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	students := testutil.CreateStudents(t, env.schoolSvc, "X-A", "Ahmad", "Budi")
	csv := []byte("No,Nama,Nilai\n1,Ahmad,90\n2,budi,77.9\n3,Zaenal,60\n")

	tests := []struct {
		name     string
		filename string
		file     []byte
		fields   map[string]string
		wantCode int
		wantData []byte
	}{
		{
			name: "file required", fields: map[string]string{"kkm": "70"},
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file": "a .csv or .xlsx file is required"}),
		},
		{
			name: "invalid KKM", filename: "nilai.csv", file: csv, fields: map[string]string{"kkm": "lol"},
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"kkm": school.ErrInvalidScore.Error()}),
		},
		{
			name: "unsupported file", filename: "nilai.pdf", file: csv,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file": exportsvc.ErrUnsupportedFile.Error()}),
		},
		{
			name: "missing columns", filename: "nilai.csv", file: []byte("nama,skor\nAhmad,90\n"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file": `columns "nama" and "nilai" are required`}),
		},
		{
			name: "upload", filename: "nilai.csv", file: csv, fields: map[string]string{"kkm": "65"},
			wantCode: http.StatusOK,
			wantData: marchallObj(t, school.EntryResult{
				Updated:   2,
				Unmatched: []school.UnmatchedRow{{Line: 4, Name: "Zaenal", Score: 60, Reason: "no matching student"}},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newUploadRequest(t, "/v1/gradebook/upload", env.teacherToken, tt.filename, tt.file, tt.fields)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)
		})
	}

	sheet, err := env.schoolSvc.GradeSheet(ctx, "X-A", "Matematika")
	require.NoError(t, err)
	assert.Equal(t, 65, sheet.KKM)
	assert.Equal(t, []school.GradeSheetRow{
		{StudentID: students[0].ID, Name: "Ahmad", Score: 90},
		{StudentID: students[1].ID, Name: "Budi", Score: 77},
	}, sheet.Rows)

	t.Run("KKM defaults to the current one", func(t *testing.T) {
		req, rec := newUploadRequest(t, "/v1/gradebook/upload", env.teacherToken, "nilai.csv", []byte("nama,nilai\nAhmad,95\n"), nil)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		kkm, err := env.schoolSvc.KKMFor(ctx, "X-A", "Matematika")
		require.NoError(t, err)
		assert.Equal(t, 65, kkm)
	})
}
