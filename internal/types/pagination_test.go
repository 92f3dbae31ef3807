package types

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestNewListResponse(t *testing.T) {
	tests := []struct {
		name   string
		items  []string
		total  int
		filter BaseFilter
		want   PaginationResponse
	}{
		{
			name:   "first of several pages",
			items:  []string{"a", "b"},
			total:  5,
			filter: &QueryFilter{Limit: lo.ToPtr(2), Offset: lo.ToPtr(0)},
			want:   PaginationResponse{Total: 5, Limit: 2, Offset: 0, HasMore: true},
		},
		{
			name:   "last page",
			items:  []string{"e"},
			total:  5,
			filter: &QueryFilter{Limit: lo.ToPtr(2), Offset: lo.ToPtr(4)},
			want:   PaginationResponse{Total: 5, Limit: 2, Offset: 4},
		},
		{
			name:   "unlimited",
			items:  []string{"a", "b", "c"},
			total:  3,
			filter: NewNoLimitQueryFilter(),
			want:   PaginationResponse{Total: 3},
		},
		{
			name:   "past the end",
			items:  nil,
			total:  3,
			filter: &QueryFilter{Limit: lo.ToPtr(10), Offset: lo.ToPtr(10)},
			want:   PaginationResponse{Total: 3, Limit: 10, Offset: 10},
		},
		{
			name:  "no filter",
			items: []string{"a"},
			total: 1,
			want:  PaginationResponse{Total: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewListResponse(tt.items, tt.total, tt.filter)
			assert.Equal(t, tt.want, got.Pagination)
			assert.NotNil(t, got.Items)
			assert.Len(t, got.Items, len(tt.items))
		})
	}
}
