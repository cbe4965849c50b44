// File: internal/response/pagination_test.go
package response

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseQuery(t *testing.T, raw string) (*PaginationParams, error) {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return NewPaginationParser(nil).ParseFromQuery(values)
}

func TestParseFromQueryDefaults(t *testing.T) {
	params, err := parseQuery(t, "")
	require.NoError(t, err)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.PageSize)
	assert.Equal(t, "desc", params.Order)
	assert.Equal(t, 0, params.Offset)
	assert.Empty(t, params.Sort)
}

func TestParseFromQueryExplicitValues(t *testing.T) {
	params, err := parseQuery(t, "page=3&page_size=10&sort=price&order=ASC")
	require.NoError(t, err)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 10, params.PageSize)
	assert.Equal(t, "price", params.Sort)
	assert.Equal(t, "asc", params.Order, "order is case-insensitive")
	assert.Equal(t, 20, params.Offset)
}

func TestParseFromQueryRejectsBadInput(t *testing.T) {
	cases := []struct{ name, query string }{
		{"non-numeric page", "page=abc"},
		{"zero page", "page=0"},
		{"negative page", "page=-2"},
		{"non-numeric size", "page_size=many"},
		{"zero size", "page_size=0"},
		{"oversized page", "page_size=101"},
		{"unknown sort field", "sort=password_hash"},
		{"sort injection", "sort=price%3Bdrop+table+listings"},
		{"bad order", "order=sideways"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseQuery(t, tc.query)
			assert.Error(t, err)
		})
	}
}

func TestParseFromQueryMaxPageSizeBoundary(t *testing.T) {
	params, err := parseQuery(t, "page_size=100")
	require.NoError(t, err)
	assert.Equal(t, 100, params.PageSize)
}

func TestToModelParams(t *testing.T) {
	params, err := parseQuery(t, "page=2&page_size=25&sort=created_at&order=asc")
	require.NoError(t, err)

	model := params.ToModelParams()
	assert.Equal(t, 25, model.Limit)
	assert.Equal(t, 25, model.Offset)
	assert.Equal(t, "created_at", model.Sort)
	assert.Equal(t, "asc", model.Order)
}

func TestCalculateOffset(t *testing.T) {
	assert.Equal(t, 0, CalculateOffset(1, 20))
	assert.Equal(t, 20, CalculateOffset(2, 20))
	assert.Equal(t, 90, CalculateOffset(10, 10))
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 0, CalculateTotalPages(0, 20))
	assert.Equal(t, 1, CalculateTotalPages(1, 20))
	assert.Equal(t, 1, CalculateTotalPages(20, 20))
	assert.Equal(t, 2, CalculateTotalPages(21, 20))
	assert.Equal(t, 0, CalculateTotalPages(10, 0), "guard against a zero page size")
}

func TestBuildMeta(t *testing.T) {
	builder := NewPaginationBuilder(nil)
	params := &PaginationParams{Page: 2, PageSize: 10}

	meta := builder.BuildMeta(params, 35)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 4, meta.TotalPages)
	assert.Equal(t, int64(35), meta.Total)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	last := builder.BuildMeta(&PaginationParams{Page: 4, PageSize: 10}, 35)
	assert.False(t, last.HasNext)
}
