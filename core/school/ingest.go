package school

import (
	"math"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/raport/core"
)

// minSuggestionRatio is the lowest similarity for a roster name to be suggested for an unmatched row.
const minSuggestionRatio = 0.6

// GradeRow is one "Name<sep>Score" row of pasted or uploaded grades.
type GradeRow struct {
	Line  int
	Name  string
	Score int
}

// SplitFields splits a pasted line on tabs when it holds one, otherwise on commas, and trims every field.
func SplitFields(line string) []string {
	sep := ","
	if strings.Contains(line, "\t") {
		sep = "\t"
	}
	parts := strings.Split(line, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ParseStudentLines parses "Class, Name[, NIPD[, Sex[, NISN]]]" lines.
// Header lines (first field "KELAS") and lines without a class or a name are dropped.
func ParseStudentLines(text string) []NewStudent {
	students := make([]NewStudent, 0)
	for _, line := range core.Lines(strings.TrimSpace(text)) {
		parts := SplitFields(line)
		if len(parts) < 2 {
			continue
		}
		class, name := parts[0], parts[1]
		if strings.ToUpper(class) == "KELAS" || class == "" || name == "" {
			continue
		}
		students = append(students, NewStudent{
			Class:          class,
			Name:           name,
			RegistrationID: fieldOrPlaceholder(parts, 2),
			Sex:            fieldOrPlaceholder(parts, 3),
			NationalID:     fieldOrPlaceholder(parts, 4),
		})
	}
	return students
}

func fieldOrPlaceholder(parts []string, i int) string {
	if i < len(parts) && parts[i] != "" {
		return parts[i]
	}
	return Placeholder
}

// ParseGradeLines parses "Name<sep>Score" lines. Lines with less than 2 fields are dropped.
func ParseGradeLines(text string) []GradeRow {
	rows := make([]GradeRow, 0)
	for i, line := range core.Lines(text) {
		parts := SplitFields(line)
		if len(parts) < 2 {
			continue
		}
		rows = append(rows, GradeRow{Line: i + 1, Name: parts[0], Score: ParseScore(parts[1])})
	}
	return rows
}

// ParseScore reads a number and truncates it toward zero; anything unreadable is 0.
func ParseScore(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// CatalogLines returns the trimmed, non-blank and distinct lines of text, in order.
func CatalogLines(text string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, line := range core.Lines(text) {
		name := core.CleanString(line)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// matchStudent returns the first student whose name contains `name`, case-insensitively.
func matchStudent(roster []Student, name string) (Student, bool) {
	needle := strings.ToLower(name)
	for _, s := range roster {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			return s, true
		}
	}
	return Student{}, false
}

// suggestStudent returns the roster name closest to `name`, if any is similar enough.
func suggestStudent(roster []Student, name string) string {
	needle := strings.Split(strings.ToLower(name), "")
	var best string
	var bestRatio float64
	for _, s := range roster {
		m := difflib.NewMatcher(needle, strings.Split(strings.ToLower(s.Name), ""))
		if r := m.Ratio(); r > bestRatio {
			best, bestRatio = s.Name, r
		}
	}
	if bestRatio < minSuggestionRatio {
		return ""
	}
	return best
}
