package database

import (
	"fmt"
	"strings"
)

// Filter accumulates optional predicates for list queries, producing numbered
// placeholders instead of interpolated SQL. Callers create it with the index
// of the first free placeholder and append conditions for the parameters the
// request actually carried.
type Filter struct {
	next  int
	conds []string
	args  []any
}

func NewFilter(firstPlaceholder int) *Filter {
	return &Filter{next: firstPlaceholder}
}

func (f *Filter) Equal(column string, value any) *Filter {
	f.conds = append(f.conds, fmt.Sprintf("%s = $%d", column, f.next))
	f.args = append(f.args, value)
	f.next++
	return f
}

func (f *Filter) ILike(column, pattern string) *Filter {
	f.conds = append(f.conds, fmt.Sprintf("%s ILIKE $%d", column, f.next))
	f.args = append(f.args, pattern)
	f.next++
	return f
}

func (f *Filter) IsNull(column string) *Filter {
	f.conds = append(f.conds, column+" IS NULL")
	return f
}

func (f *Filter) IsNotNull(column string) *Filter {
	f.conds = append(f.conds, column+" IS NOT NULL")
	return f
}

func (f *Filter) Between(column string, from, to any) *Filter {
	f.conds = append(f.conds, fmt.Sprintf("%s BETWEEN $%d AND $%d", column, f.next, f.next+1))
	f.args = append(f.args, from, to)
	f.next += 2
	return f
}

// Clause renders the accumulated conditions prefixed with AND, or an empty
// string when no conditions were added. Safe to append to a query that
// already has a WHERE.
func (f *Filter) Clause() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " AND " + strings.Join(f.conds, " AND ")
}

func (f *Filter) Args() []any {
	return f.args
}
