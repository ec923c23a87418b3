package service

import "github.com/vedran77/circle/internal/repository"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NewPage clamps client-supplied paging values.
func NewPage(page, limit int) repository.Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return repository.Page{Page: page, Limit: limit}
}

// PageResponse wraps one page of results. HasMore is a hint: the page was full.
type PageResponse[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

func newPageResponse[T any](items []T, page repository.Page) *PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResponse[T]{
		Items:   items,
		Page:    page.Page,
		Limit:   page.Limit,
		HasMore: len(items) == page.Limit,
	}
}
