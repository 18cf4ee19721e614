package pagination

import (
	"net/url"
	"strconv"

	"mung-manager/internal/apperr"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type Params struct {
	Limit  int
	Offset int
}

// FromQuery parses limit/offset query parameters. Bounds: limit 1..50
// (default 10), offset >= 0 (default 0).
func FromQuery(q url.Values) (Params, error) {
	p := Params{Limit: DefaultLimit}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return Params{}, apperr.Validation("invalid_parameter_format", "limit must be an integer between 1 and 50")
		}
		p.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Params{}, apperr.Validation("invalid_parameter_format", "offset must be a non-negative integer")
		}
		p.Offset = n
	}

	return p, nil
}

// Page is the envelope every paginated listing returns.
type Page[T any] struct {
	Count   int `json:"count"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Results []T `json:"results"`
}

func NewPage[T any](count int, p Params, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Count: count, Limit: p.Limit, Offset: p.Offset, Results: results}
}

// Slice applies params to an already-materialized list. The postgres
// repositories page in SQL; the in-memory ones use this.
func Slice[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
