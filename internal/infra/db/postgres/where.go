package postgres

import (
	"strconv"
	"strings"
)

// whereBuilder assembles AND-ed filter clauses. Each "?" in a clause is
// replaced with the next positional placeholder.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		clause = strings.Replace(clause, "?", placeholder(len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func placeholder(n int) string { return "$" + strconv.Itoa(n) }
