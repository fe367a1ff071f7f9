// Package query holds the paging, sorting and filtering helpers shared by
// the SQL repositories.
package query

import (
	"fmt"
	"strings"
)

const (
	MaxPageSize     = 50
	DefaultPageSize = 10
)

// Parameters describe one page request. OrderBy is a comma separated list
// of "field" or "field desc" items.
type Parameters struct {
	PageNumber int    `form:"pageNumber"`
	PageSize   int    `form:"pageSize"`
	OrderBy    string `form:"orderBy"`
}

// Normalize clamps the page number to >= 1 and the page size to
// 1..MaxPageSize.
func (p Parameters) Normalize() Parameters {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Parameters) Offset() int {
	n := p.Normalize()
	return (n.PageNumber - 1) * n.PageSize
}

func (p Parameters) Limit() int {
	return p.Normalize().PageSize
}

// PagedList is one page of T together with the paging metadata.
type PagedList[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	PageSize    int  `json:"pageSize"`
	TotalCount  int  `json:"totalCount"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

func NewPagedList[T any](items []T, totalCount int, p Parameters) *PagedList[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}

	totalPages := (totalCount + p.PageSize - 1) / p.PageSize
	return &PagedList[T]{
		Items:       items,
		CurrentPage: p.PageNumber,
		TotalPages:  totalPages,
		PageSize:    p.PageSize,
		TotalCount:  totalCount,
		HasPrevious: p.PageNumber > 1,
		HasNext:     p.PageNumber < totalPages,
	}
}

// OrderBy turns a user supplied sort expression into an ORDER BY body.
// Only fields present in allowed (lower-cased API name -> SQL column) are
// kept; unknown fields are skipped. fallback is used when nothing remains.
func OrderBy(expr string, allowed map[string]string, fallback string) string {
	var parts []string

	for _, item := range strings.Split(expr, ",") {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}

		column, ok := allowed[strings.ToLower(fields[0])]
		if !ok {
			continue
		}

		dir := "ASC"
		if len(fields) > 1 && strings.EqualFold(fields[1], "desc") {
			dir = "DESC"
		}
		parts = append(parts, column+" "+dir)
	}

	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}

// Conditions accumulates AND-ed WHERE clauses with positional arguments.
type Conditions struct {
	clauses []string
	args    []any
}

// Add appends a clause. expr must contain exactly one %d which is replaced
// with the argument's placeholder number.
func (c *Conditions) Add(expr string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(expr, len(c.args)))
}

// Where returns " WHERE a AND b" or "" when there are no clauses.
func (c *Conditions) Where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func (c *Conditions) Args() []any {
	return append([]any{}, c.args...)
}

// Page returns " LIMIT $n OFFSET $n+1" and the full argument list for it.
func (c *Conditions) Page(p Parameters) (string, []any) {
	n := len(c.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), append(c.Args(), p.Limit(), p.Offset())
}

// Contains wraps s for a case-insensitive ILIKE match, escaping wildcards.
func Contains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
