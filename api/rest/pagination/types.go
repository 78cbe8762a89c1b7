package pagination

import (
	"net/url"
	"strconv"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters from request
type Params struct {
	Limit  int
	Offset int
}

// Meta holds pagination metadata for response
type Meta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// Page is a list response with its pagination metadata
type Page[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// NewMeta creates pagination metadata from params and total count
func NewMeta(params Params, total int) Meta {
	return Meta{
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
		HasMore: params.Offset < total-params.Limit,
	}
}

// NewPage wraps items; a nil slice is emitted as []
func NewPage[T any](items []T, params Params, total int) Page[T] {
	if items == nil {
		items = []T{}
	}

	return Page[T]{Items: items, Pagination: NewMeta(params, total)}
}

// DefaultParams returns pagination params with defaults applied
// defaultLimit: default items per page, maxLimit: maximum allowed limit
func DefaultParams(limit, offset, defaultLimit, maxLimit int) Params {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{
		Limit:  limit,
		Offset: offset,
	}
}

// FromQuery reads limit and offset from the query string
// non-numeric values are a validation error; out-of-range values are clamped
func FromQuery(q url.Values) (Params, error) {
	var fields apperrors.FieldErrors

	limit, ok := intParam(q, "limit")
	if !ok {
		fields = fields.Add("limit", "must be an integer")
	}

	offset, ok := intParam(q, "offset")
	if !ok {
		fields = fields.Add("offset", "must be an integer")
	}

	if len(fields) > 0 {
		return Params{}, apperrors.Validation(fields)
	}

	return DefaultParams(limit, offset, DefaultLimit, MaxLimit), nil
}

func intParam(q url.Values, key string) (int, bool) {
	raw := q.Get(key)
	if raw == "" {
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	return n, err == nil
}
