// Package pagination pages through in-memory listings of the admin API.
package pagination

// Request holds the requested page, bound from query parameters.
type Request struct {
	PageNumber int `query:"page_number" validate:"gte=0"`
	PageSize   int `query:"page_size"   validate:"gte=0"`
}

// Normalize applies defaults and constraints.
func (r *Request) Normalize(opts ...Option) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.DefaultPageSize > o.MaxPageSize {
		o.DefaultPageSize = o.MaxPageSize
	}

	if r.PageNumber <= 0 {
		r.PageNumber = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = o.DefaultPageSize
	}
	if r.PageSize > o.MaxPageSize {
		r.PageSize = o.MaxPageSize
	}
}

// Offset returns the index of the first item of the page.
func (r *Request) Offset() int {
	return (r.PageNumber - 1) * r.PageSize
}

// Limit returns the maximum number of items of the page.
func (r *Request) Limit() int {
	return r.PageSize
}

// Response is one page of a listing.
type Response[T any] struct {
	PageNumber  int   `json:"page_number"`
	PageSize    int   `json:"page_size"`
	PageCount   int   `json:"page_count"`
	TotalCount  int64 `json:"total_count"`
	PageContent []T   `json:"page_content"`
}

// Paginate cuts the requested page out of all. req must be normalized.
func Paginate[T any](all []T, req Request) Response[T] {
	start := min(req.Offset(), len(all))
	end := min(start+req.Limit(), len(all))

	page := make([]T, end-start)
	copy(page, all[start:end])

	return NewResponse(page, int64(len(all)), req)
}

// NewResponse creates paginated response from items and total count.
func NewResponse[T any](items []T, totalCount int64, req Request) Response[T] {
	pageCount := 0
	if req.PageSize > 0 {
		pageCount = int(totalCount) / req.PageSize
		if int(totalCount)%req.PageSize > 0 {
			pageCount++
		}
	}

	return Response[T]{
		PageNumber:  req.PageNumber,
		PageSize:    req.PageSize,
		PageCount:   pageCount,
		TotalCount:  totalCount,
		PageContent: items,
	}
}
