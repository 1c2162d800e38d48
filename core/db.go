package core

import "strings"

// DBOrdering is one "ordering" query param item, e.g. "-name" => {Field: "name", Ascending: false}.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderBy renders the orderings as a SQL ORDER BY list.
// Only fields found in `columns` (field => column) are kept; unknown fields are ignored.
func OrderBy(orderings []DBOrdering, columns map[string]string) string {
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		parts = append(parts, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	return strings.Join(parts, ", ")
}
