package domain

import (
	"fmt"
	"strings"
	"time"

	"unibox-backend/internal/errs"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query is the caller-facing filter for list, search and aggregate reads.
// Its JSON form is part of the cache key.
type Query struct {
	TimeMin time.Time  `json:"timeMin"`
	TimeMax *time.Time `json:"timeMax,omitempty"`
	Search  string     `json:"q,omitempty"`
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
}

// Normalize applies defaults and validates the query for the given kind.
func (q Query) Normalize(kind Kind) (Query, error) {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Page < 1 {
		return q, fmt.Errorf("%w: page must be >= 1", errs.ErrValidation)
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return q, fmt.Errorf("%w: limit must be between 1 and %d", errs.ErrValidation, MaxLimit)
	}
	if kind == KindEvent && q.TimeMin.IsZero() {
		return q, fmt.Errorf("%w: timeMin is required", errs.ErrValidation)
	}
	if q.TimeMax != nil && !q.TimeMin.IsZero() && !q.TimeMax.After(q.TimeMin) {
		return q, fmt.Errorf("%w: timeMax must be after timeMin", errs.ErrValidation)
	}
	if !q.TimeMin.IsZero() {
		q.TimeMin = q.TimeMin.UTC()
	}
	if q.TimeMax != nil {
		t := q.TimeMax.UTC()
		q.TimeMax = &t
	}
	return q, nil
}

// Offset is the index of the first item of the requested page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one account's slice of results.
type Page struct {
	Items           []*Item `json:"items"`
	Total           int     `json:"total"`
	Page            int     `json:"page"`
	Limit           int     `json:"limit"`
	TotalPages      int     `json:"totalPages"`
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	// FromMirror is set when the remote provider failed and the page was served
	// from the local mirror.
	FromMirror bool `json:"fromMirror,omitempty"`
}

// AggregatePage is the merged, globally ordered result across linked accounts.
type AggregatePage struct {
	Items                []*AggregatedItem `json:"items"`
	Total                int               `json:"total"`
	Page                 int               `json:"page"`
	Limit                int               `json:"limit"`
	TotalPages           int               `json:"totalPages"`
	HasNextPage          bool              `json:"hasNextPage"`
	HasPreviousPage      bool              `json:"hasPreviousPage"`
	AccountsParticipated []string          `json:"accountsParticipated"`
}

// PageMeta computes totalPages and the navigation flags.
func PageMeta(total, page, limit int) (totalPages int, hasNext, hasPrev bool) {
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return totalPages, page < totalPages, page > 1
}

// SliceBounds clamps [offset, offset+limit) to a list of length n.
func SliceBounds(n, offset, limit int) (start, end int) {
	start = offset
	if start > n {
		start = n
	}
	end = start + limit
	if end > n {
		end = n
	}
	return start, end
}
