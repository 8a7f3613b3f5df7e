package sqlxrepos

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koinonia-app/koinonia/core"
)

func Test_orderBy(t *testing.T) {
	allowed := map[string]string{"name": "u.name", "date": "u.created_at"}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		dflt     string
		want     string
	}{
		{name: "default", want: " ORDER BY u.name ASC", dflt: "u.name ASC"},
		{name: "no default"},
		{
			name:     "mapped fields",
			ordering: []core.DBOrdering{{Field: "date"}, {Field: "name", Ascending: true}},
			dflt:     "u.name ASC",
			want:     " ORDER BY u.created_at DESC, u.name ASC",
		},
		{
			name:     "unknown fields are skipped",
			ordering: []core.DBOrdering{{Field: "password_hash"}, {Field: "name", Ascending: true}},
			want:     " ORDER BY u.name ASC",
		},
		{
			name:     "only unknown fields",
			ordering: []core.DBOrdering{{Field: "1; DROP TABLE users"}},
			dflt:     "u.created_at DESC",
			want:     " ORDER BY u.created_at DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.ordering, allowed, tt.dflt))
		})
	}
}

func Test_limitOffset(t *testing.T) {
	tests := []struct {
		name     string
		page     core.Pagination
		wantSQL  string
		wantArgs []interface{}
	}{
		{name: "everything", page: core.Pagination{}},
		{name: "first page", page: core.Pagination{Page: 1, PageSize: 10}, wantSQL: " LIMIT ? OFFSET ?", wantArgs: []interface{}{10, 0}},
		{name: "third page", page: core.Pagination{Page: 3, PageSize: 10}, wantSQL: " LIMIT ? OFFSET ?", wantArgs: []interface{}{10, 20}},
		{name: "default size", page: core.Pagination{Page: 2}, wantSQL: " LIMIT ? OFFSET ?", wantArgs: []interface{}{core.DefaultPageSize, core.DefaultPageSize}},
		{name: "capped page", page: core.Pagination{Page: math.MaxInt, PageSize: 100}, wantSQL: " LIMIT ? OFFSET ?", wantArgs: []interface{}{100, (core.MaxPage - 1) * 100}},
		{name: "capped size", page: core.Pagination{Page: 1, PageSize: 1000}, wantSQL: " LIMIT ? OFFSET ?", wantArgs: []interface{}{core.MaxPageSize, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := limitOffset(tt.page)
			assert.Equal(t, tt.wantSQL, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func Test_where(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())

	w.add("kind = ?", "tithe")
	w.search("  Ama ", "first_name", "last_name")
	w.search("")
	w.notIn("id", nil)
	w.dateRange("entry_date", core.DateRange{From: core.NewDate(2024, 1, 1)})
	assert.Equal(t, " WHERE kind = ? AND (LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?) AND entry_date >= ?", w.String())
	assert.Equal(t, []interface{}{"tithe", "%ama%", "%ama%", core.NewDate(2024, 1, 1)}, w.args)

	var none where
	none.in("id", nil)
	assert.Equal(t, " WHERE 1 = 0", none.String())
}

func Test_lists(t *testing.T) {
	assert.Equal(t, "", joinList(nil))
	assert.Equal(t, "faith,hope", joinList([]string{"faith", "hope"}))

	assert.Equal(t, []string{}, splitList(""))
	assert.Equal(t, []string{}, splitList("  "))
	assert.Equal(t, []string{"faith", "hope"}, splitList("faith, ,hope,"))
}
