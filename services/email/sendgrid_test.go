package emailsvc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/raport/core"
	testutil "github.com/trezcool/raport/tests"
)

type sgPayload struct {
	From struct {
		Email string `json:"email"`
	} `json:"from"`
	Personalizations []struct {
		Subject string `json:"subject"`
		To      []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"to"`
	} `json:"personalizations"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
	Attachments []struct {
		Filename string `json:"filename"`
		Type     string `json:"type"`
	} `json:"attachments"`
	Categories []string `json:"categories"`
}

type fakeSendgrid struct {
	mu       sync.Mutex
	statuses []int // answered in order, then 202
	payloads []sgPayload
	auth     string
}

func (f *fakeSendgrid) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var p sgPayload
	_ = json.NewDecoder(r.Body).Decode(&p)
	f.payloads = append(f.payloads, p)
	f.auth = r.Header.Get("Authorization")

	status := http.StatusAccepted
	if len(f.statuses) > 0 {
		status, f.statuses = f.statuses[0], f.statuses[1:]
	}
	w.WriteHeader(status)
}

func newSendgridTest(t *testing.T, statuses ...int) (*sendgridService, *fakeSendgrid) {
	fake := &fakeSendgrid{statuses: statuses}
	srv := httptest.NewServer(fake)

	origHost, origDelay := host, retryDelay
	host, retryDelay = srv.URL, time.Millisecond
	t.Cleanup(func() {
		host, retryDelay = origHost, origDelay
		srv.Close()
	})

	conf := testutil.NewConfig()
	conf.Email.SendgridAPIKey = "sg-key"
	return NewSendgridService(conf, nil), fake
}

func reportMessage(t *testing.T) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: "Orang Tua", Address: "ortu@example.com"}},
		Subject:      "Laporan Hasil Belajar Ahmad",
		TemplateName: "raport",
		TemplateData: map[string]interface{}{
			"StudentName": "Ahmad", "Class": "X-A", "Semester": "Genap", "AcademicYear": "2020/2021",
			"Rank": 1, "ClassSize": 30, "Average": "85.00", "Homeroom": "Mali, S.Pd", "School": "SMA Negeri 1",
		},
	}
	require.NoError(t, msg.Attach(strings.NewReader("PK"), "Raport_Ahmad.docx", "application/zip"))
	return msg
}

func Test_sendgridService_deliver(t *testing.T) {
	svc, fake := newSendgridTest(t)

	require.NoError(t, svc.deliver(reportMessage(t)))
	require.Len(t, fake.payloads, 1)
	assert.Equal(t, "Bearer sg-key", fake.auth)

	p := fake.payloads[0]
	assert.Equal(t, "noreply@localhost", p.From.Email)
	require.Len(t, p.Personalizations, 1)
	assert.Equal(t, "[Raport] Laporan Hasil Belajar Ahmad", p.Personalizations[0].Subject)
	assert.Equal(t, "ortu@example.com", p.Personalizations[0].To[0].Email)
	require.Len(t, p.Content, 2)
	assert.Equal(t, "text/plain", p.Content[0].Type)
	assert.Contains(t, p.Content[0].Value, "Peringkat kelas: 1 dari 30 siswa.")
	assert.Equal(t, "text/html", p.Content[1].Type)
	require.Len(t, p.Attachments, 1)
	assert.Equal(t, "Raport_Ahmad.docx", p.Attachments[0].Filename)
	assert.Equal(t, []string{"raport"}, p.Categories)
}

func Test_sendgridService_retries(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantErr      bool
		wantAttempts int
	}{
		{"accepted", nil, false, 1},
		{"rate limited once", []int{http.StatusTooManyRequests}, false, 2},
		{"server errors", []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusInternalServerError}, true, 3},
		{"bad request", []int{http.StatusBadRequest}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fake := newSendgridTest(t, tt.statuses...)
			err := svc.deliver(&core.EmailMessage{
				To:      []mail.Address{{Address: "ortu@example.com"}},
				Subject: "Halo",
				BodyStr: "Selamat pagi",
			})
			assert.Equal(t, tt.wantErr, err != nil, "error: %v", err)
			assert.Len(t, fake.payloads, tt.wantAttempts)
		})
	}
}

func Test_sendgridService_skipsEmpty(t *testing.T) {
	svc, fake := newSendgridTest(t)
	require.NoError(t, svc.deliver(&core.EmailMessage{Subject: "no recipient", BodyStr: "lost"}))
	require.NoError(t, svc.deliver(&core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}}))
	assert.Empty(t, fake.payloads)
}
