package request

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationFromQuery(t *testing.T) {
	tests := []struct {
		query  string
		page   int
		limit  int
		offset int
	}{
		{"", 1, 10, 0},
		{"page=3&per_page=20", 3, 20, 40},
		{"page=-1&per_page=abc", 1, 10, 0},
		{"page=2&per_page=500", 2, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			req := PaginationFromQuery(values)
			assert.Equal(t, tt.page, req.Page)
			assert.Equal(t, tt.limit, req.Limit())
			assert.Equal(t, tt.offset, req.Offset())
		})
	}
}
