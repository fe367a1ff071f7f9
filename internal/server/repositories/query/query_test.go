package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameters_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Parameters
		want Parameters
	}{
		{"zero values", Parameters{}, Parameters{PageNumber: 1, PageSize: DefaultPageSize}},
		{"page size capped", Parameters{PageNumber: 3, PageSize: 500}, Parameters{PageNumber: 3, PageSize: MaxPageSize}},
		{"negative page", Parameters{PageNumber: -2, PageSize: 5}, Parameters{PageNumber: 1, PageSize: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}

	p := Parameters{PageNumber: 3, PageSize: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
}

func TestNewPagedList(t *testing.T) {
	l := NewPagedList([]int{1, 2}, 12, Parameters{PageNumber: 2, PageSize: 5})

	assert.Equal(t, 3, l.TotalPages)
	assert.Equal(t, 2, l.CurrentPage)
	assert.True(t, l.HasPrevious)
	assert.True(t, l.HasNext)

	empty := NewPagedList[string](nil, 0, Parameters{})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrevious)
}

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{"name": "c.name", "id": "c.id"}

	assert.Equal(t, "c.name DESC, c.id ASC", OrderBy("Name desc, id", allowed, "c.id"))
	assert.Equal(t, "c.id", OrderBy("", allowed, "c.id"))
	assert.Equal(t, "c.id", OrderBy("password; drop table users", allowed, "c.id"))
	assert.Equal(t, "c.name ASC", OrderBy("name sideways,bogus", allowed, "c.id"))
}

func TestConditions(t *testing.T) {
	var c Conditions
	assert.Empty(t, c.Where())

	c.Add("u.username ILIKE $%d", "%al%")
	c.Add("u.is_blocked = $%d", true)

	assert.Equal(t, " WHERE u.username ILIKE $1 AND u.is_blocked = $2", c.Where())
	assert.Equal(t, []any{"%al%", true}, c.Args())

	page, args := c.Page(Parameters{PageNumber: 2, PageSize: 10})
	assert.Equal(t, " LIMIT $3 OFFSET $4", page)
	assert.Equal(t, []any{"%al%", true, 10, 10}, args)
}

func TestContains(t *testing.T) {
	assert.Equal(t, "%food%", Contains("food"))
	assert.Equal(t, `%50\%\_off%`, Contains("50%_off"))
}
