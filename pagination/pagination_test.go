package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rise-and-shine/redq/pagination"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		req  pagination.Request
		opts []pagination.Option
		want pagination.Request
	}{
		{name: "defaults", want: pagination.Request{PageNumber: 1, PageSize: 20}},
		{name: "kept", req: pagination.Request{PageNumber: 3, PageSize: 5}, want: pagination.Request{PageNumber: 3, PageSize: 5}},
		{name: "capped", req: pagination.Request{PageSize: 500}, want: pagination.Request{PageNumber: 1, PageSize: 100}},
		{
			name: "custom options",
			req:  pagination.Request{PageSize: 50},
			opts: []pagination.Option{pagination.WithMaxPageSize(10)},
			want: pagination.Request{PageNumber: 1, PageSize: 10},
		},
		{
			name: "default above max",
			opts: []pagination.Option{pagination.WithDefaultPageSize(30), pagination.WithMaxPageSize(10)},
			want: pagination.Request{PageNumber: 1, PageSize: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(tt.opts...)
			assert.Equal(t, tt.want, tt.req)
		})
	}
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	page := pagination.Paginate(all, pagination.Request{PageNumber: 2, PageSize: 2})
	assert.Equal(t, []int{3, 4}, page.PageContent)
	assert.Equal(t, 3, page.PageCount)
	assert.EqualValues(t, 5, page.TotalCount)

	page = pagination.Paginate(all, pagination.Request{PageNumber: 3, PageSize: 2})
	assert.Equal(t, []int{5}, page.PageContent)

	page = pagination.Paginate(all, pagination.Request{PageNumber: 9, PageSize: 2})
	assert.Empty(t, page.PageContent)
	assert.Equal(t, 9, page.PageNumber)
}
