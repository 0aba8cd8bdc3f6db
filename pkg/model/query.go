package model

import "time"

const (
	MinPageSize     = 10
	MaxPageSize     = 100
	DefaultPageSize = MinPageSize

	// NoPage marks an absent prev/next cursor in a FilterPager.
	NoPage int64 = -1
)

// ReservationQuery selects reservations with offset pagination.
// Empty strings and nil bounds leave that dimension unconstrained.
type ReservationQuery struct {
	UserID     string            `json:"user_id"`
	ResourceID string            `json:"resource_id"`
	Status     ReservationStatus `json:"status"`
	Start      *time.Time        `json:"start,omitempty"`
	End        *time.Time        `json:"end,omitempty"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Desc       bool              `json:"desc"`
}

// ReservationFilter selects reservations with keyset pagination on id.
// A Cursor of 0 (or below) starts from the first row in the requested direction.
type ReservationFilter struct {
	UserID     string            `json:"user_id"`
	ResourceID string            `json:"resource_id"`
	Status     ReservationStatus `json:"status"`
	Cursor     int64             `json:"cursor"`
	PageSize   int               `json:"page_size"`
	Desc       bool              `json:"desc"`
}

// FilterPager describes the neighbours of a filtered page.
// Total is never computed and is always zero.
type FilterPager struct {
	Prev  int64 `json:"prev"`
	Next  int64 `json:"next"`
	Total int64 `json:"total"`
}

// NormalizePageSize resets sizes outside [MinPageSize, MaxPageSize] to DefaultPageSize.
func NormalizePageSize(size int) int {
	if size < MinPageSize || size > MaxPageSize {
		return DefaultPageSize
	}
	return size
}

func NormalizePage(page int) int {
	return max(page, 1)
}

// Normalize returns a copy with page, page size and status defaults applied.
func (q ReservationQuery) Normalize() ReservationQuery {
	q.Page = NormalizePage(q.Page)
	q.PageSize = NormalizePageSize(q.PageSize)
	q.Status = StatusOrDefault(q.Status)
	return q
}

func (f ReservationFilter) Normalize() ReservationFilter {
	f.PageSize = NormalizePageSize(f.PageSize)
	f.Status = StatusOrDefault(f.Status)
	if f.Cursor < 0 {
		f.Cursor = 0
	}
	return f
}

// NextPage returns the filter for the page after the one described by pager.
// ok is false when there is no next page.
func (f ReservationFilter) NextPage(pager *FilterPager) (next ReservationFilter, ok bool) {
	if pager == nil || pager.Next == NoPage {
		return f, false
	}
	f.Cursor = pager.Next
	return f, true
}
