package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/raport/core"
	testutil "github.com/trezcool/raport/tests"
)

func TestRollbarLogger(t *testing.T) {
	out := new(bytes.Buffer)
	logger := NewRollbarLogger(log.New(out, "", 0), testutil.NewConfig())
	logger.Enable(false)

	actor := core.Actor{Role: core.RoleHomeroom, Teacher: "Mali, S.Pd", Class: "X-A"}
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"info", func() { logger.Info("server started") }, "[INFO] server started\n"},
		{"warn", func() { logger.Warn("slow request", map[string]interface{}{"ms": 1200}) }, "[WARN] slow request\nmap[ms:1200]\n"},
		{
			name: "error with actor",
			log:  func() { logger.Error("GET /v1/homeroom/leger: boom", errors.New("boom"), actor) },
			want: "[ERROR] GET /v1/homeroom/leger: boom\nboom\nactor: wali:Mali, S.Pd\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			tt.log()
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(new(bytes.Buffer), "", 0), testutil.NewConfig())
	logger.Enable(false)

	actor := core.Actor{Role: core.RoleAdmin}
	err := errors.New("boom")
	got := logger.prepare("failed", []interface{}{err, actor, core.Actor{Role: core.RoleTeacher}})
	assert.Equal(t, []interface{}{"failed", err}, got, "actors are reported as the person, not as args")
}
