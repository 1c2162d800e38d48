// Package testutil holds the fixtures shared by the packages' tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/school"
	"github.com/trezcool/raport/storage/database"
)

// NewConfig returns the configuration used by tests.
func NewConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Raport",
		SecretKey: "test-secret",
		Storage:   core.StorageMemory,
		Server: core.ServerConfig{
			Address:                   ":0",
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Database: core.DatabaseConfig{Engine: core.EngineSQLite},
		Auth:     core.AuthConfig{AdminPassword: "admin"},
		Email:    core.EmailConfig{DefaultFrom: "Raport <noreply@localhost>"},
	}
}

// PrepareDB opens a migrated sqlite database that is removed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "raport.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// CreateStudents adds students named `names` to class, in order.
func CreateStudents(t *testing.T, svc *school.Service, class string, names ...string) []school.Student {
	t.Helper()

	students := make([]school.Student, 0, len(names))
	for _, name := range names {
		s, err := svc.CreateStudent(context.Background(), school.NewStudent{Class: class, Name: name})
		if err != nil {
			t.Fatalf("CreateStudents() failed: %v", err)
		}
		students = append(students, s)
	}
	return students
}

// SetActiveSubjects configures the active subjects of class.
func SetActiveSubjects(t *testing.T, svc *school.Service, class string, subjects ...string) {
	t.Helper()

	if _, err := svc.SetClassSubjects(context.Background(), class, subjects); err != nil {
		t.Fatalf("SetActiveSubjects() failed: %v", err)
	}
}

// SetScores records scores of one subject, keyed by student ID.
func SetScores(t *testing.T, svc *school.Service, subject string, scores map[string]int) {
	t.Helper()

	for id, v := range scores {
		if err := svc.SetScore(context.Background(), id, subject, v); err != nil {
			t.Fatalf("SetScores() failed: %v", err)
		}
	}
}
