package core

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PageRequest carries the 1-indexed page, page size and ordering of a list query.
type PageRequest struct {
	Page      int       `query:"page"`
	Limit     int       `query:"limit"`
	SortBy    string    `query:"sortBy"`
	SortOrder SortOrder `query:"sortOrder"`
}

// Normalize fills missing values with defaults; limit falls back to defaultLimit.
func (pr PageRequest) Normalize(defaultLimit int) PageRequest {
	if defaultLimit < 1 {
		defaultLimit = DefaultPageSize
	}
	if pr.Page < 1 {
		pr.Page = DefaultPage
	}
	if pr.Limit < 1 {
		pr.Limit = defaultLimit
	}
	if pr.Limit > MaxPageSize {
		pr.Limit = MaxPageSize
	}
	// keeps (Page-1)*Limit within int
	if maxPage := math.MaxInt / pr.Limit; pr.Page > maxPage {
		pr.Page = maxPage
	}
	pr.SortBy = CleanString(pr.SortBy)
	if pr.SortOrder != SortDesc {
		pr.SortOrder = SortAsc
	}
	return pr
}

// Offset is the index of the first item of the page, saturating at math.MaxInt.
func (pr PageRequest) Offset() int {
	if pr.Page <= 1 || pr.Limit <= 0 {
		return 0
	}
	if pr.Page-1 > math.MaxInt/pr.Limit {
		return math.MaxInt
	}
	return (pr.Page - 1) * pr.Limit
}

// Encode adds the non-zero fields to q.
func (pr PageRequest) Encode(q url.Values) {
	if pr.Page > 0 {
		q.Set("page", strconv.Itoa(pr.Page))
	}
	if pr.Limit > 0 {
		q.Set("limit", strconv.Itoa(pr.Limit))
	}
	if pr.SortBy != "" {
		q.Set("sortBy", pr.SortBy)
	}
	if pr.SortOrder != "" {
		q.Set("sortOrder", string(pr.SortOrder))
	}
}

// ParsePageRequest reads page, limit, sortBy & sortOrder from a query string.
// Invalid numbers are ignored.
func ParsePageRequest(q url.Values) PageRequest {
	var pr PageRequest
	pr.Page, _ = strconv.Atoi(q.Get("page"))
	pr.Limit, _ = strconv.Atoi(q.Get("limit"))
	pr.SortBy = q.Get("sortBy")
	pr.SortOrder = SortOrder(strings.ToLower(q.Get("sortOrder")))
	return pr
}

// Pagination is the envelope metadata of a list response.
type Pagination struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is one window of a filtered and sorted collection.
type Page[T any] struct {
	Data    []T  `json:"data"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

func (p Page[T]) Pagination() Pagination {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (p.Total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
		HasNext:    p.HasNext,
		HasPrev:    p.HasPrev,
	}
}

// NewPage builds a Page from the envelope metadata of a list response.
func NewPage[T any](data []T, meta *Pagination, pr PageRequest) Page[T] {
	if data == nil {
		data = []T{}
	}
	if meta == nil {
		return Page[T]{Data: data, Total: len(data), Page: pr.Page, Limit: pr.Limit, HasPrev: pr.Page > 1}
	}
	return Page[T]{
		Data:    data,
		Total:   meta.Total,
		Page:    meta.Page,
		Limit:   meta.Limit,
		HasNext: meta.HasNext,
		HasPrev: meta.HasPrev,
	}
}

// Paginate returns the window of items selected by pr (already normalized).
// hasNext and hasPrev are derived from the total count and the current window only.
func Paginate[T any](items []T, pr PageRequest) Page[T] {
	total := len(items)
	start := pr.Offset()
	if start > total {
		start = total
	}
	end := total
	if pr.Limit >= 0 && pr.Limit < total-start {
		end = start + pr.Limit
	}
	data := make([]T, end-start)
	copy(data, items[start:end])
	return Page[T]{
		Data:    data,
		Total:   total,
		Page:    pr.Page,
		Limit:   pr.Limit,
		HasNext: end < total,
		HasPrev: pr.Page > 1 && total > 0,
	}
}

// Comparator returns <0, 0 or >0 when a sorts before, with or after b.
type Comparator[T any] func(a, b T) int

// SortBy stable-sorts items by cmp in the requested order; ties are broken by id ascending.
func SortBy[T any](items []T, cmp Comparator[T], order SortOrder, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(items[i], items[j])
		if order == SortDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return id(items[i]) < id(items[j])
	})
}

// CompareFold compares strings case-insensitively.
func CompareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
