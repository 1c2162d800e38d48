package core

// Role names carried by authenticated actors.
const (
	RoleAdmin    = "admin"
	RoleTeacher  = "guru"
	RoleHomeroom = "wali"
)

// Actor identifies who performed an operation; loggers attach it to reported errors.
type Actor struct {
	Role    string
	Teacher string
	Class   string
	Subject string
}

// ID returns a stable identifier for the actor.
func (a Actor) ID() string {
	if a.Role == RoleAdmin || a.Teacher == "" {
		return a.Role
	}
	return a.Role + ":" + a.Teacher
}

type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
