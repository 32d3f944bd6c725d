package core_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-portal/core"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		pr       core.PageRequest
		wantData []int
		wantNext bool
		wantPrev bool
	}{
		{"first page", core.PageRequest{Page: 1, Limit: 2}, []int{1, 2}, true, false},
		{"last partial page", core.PageRequest{Page: 3, Limit: 2}, []int{5}, false, true},
		{"exact last page", core.PageRequest{Page: 1, Limit: 5}, []int{1, 2, 3, 4, 5}, false, false},
		{"past the end", core.PageRequest{Page: 4, Limit: 2}, []int{}, false, true},
		{"huge page", core.PageRequest{Page: math.MaxInt / 50, Limit: 100}, []int{}, false, true},
		{"max page and limit", core.PageRequest{Page: math.MaxInt, Limit: math.MaxInt}, []int{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page core.Page[int]
			assert.NotPanics(t, func() { page = core.Paginate(items, tt.pr) })
			assert.Equal(t, tt.wantData, page.Data)
			assert.Equal(t, 5, page.Total)
			assert.Equal(t, tt.wantNext, page.HasNext)
			assert.Equal(t, tt.wantPrev, page.HasPrev)
		})
	}
}

func TestPageRequest_Normalize(t *testing.T) {
	pr := core.PageRequest{Page: math.MaxInt, Limit: 50}.Normalize(core.DefaultPageSize)
	assert.Equal(t, math.MaxInt/50, pr.Page)
	assert.GreaterOrEqual(t, pr.Offset(), 0)
	assert.GreaterOrEqual(t, pr.Offset()+pr.Limit, pr.Offset())

	pr = core.PageRequest{}.Normalize(0)
	assert.Equal(t, core.PageRequest{Page: core.DefaultPage, Limit: core.DefaultPageSize, SortOrder: core.SortAsc}, pr)
	assert.Equal(t, 0, pr.Offset())
}
