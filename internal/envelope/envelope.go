// Package envelope holds the resource transformers that shape every API response.
//
// A response is always
//
//	{"success": true,  "data": ...,  "meta": {...}}
//	{"success": false, "error": {...}, "meta": {...}}
//
// with exactly one of data and error present.
package envelope

import (
	"encoding/json"
	"reflect"
	"time"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
)

// HeaderCorrelationID carries the per-request correlation id
const HeaderCorrelationID = "X-Correlation-ID"

// request-scoped metadata echoed on every response
type Meta struct {
	CorrelationID string    `json:"correlationId"`
	Timestamp     time.Time `json:"timestamp"`
}

// the error half of an envelope
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// canonical response wrapper
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    Meta       `json:"meta"`
}

// wraps data in a success envelope; nil data, typed or not, becomes an empty object
func Success(data any, meta Meta) Envelope {
	if isNil(data) {
		data = struct{}{}
	}

	return Envelope{
		Success: true,
		Data:    data,
		Meta:    normalize(meta),
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// wraps a registry rendering in an error envelope
func Failure(r apperrors.Rendering, meta Meta) Envelope {
	return Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    r.Code,
			Message: r.Message,
			Details: r.Details,
		},
		Meta: normalize(meta),
	}
}

// renders err through registry and wraps the result
func FromError(registry *apperrors.Registry, err error, meta Meta) (Envelope, apperrors.Rendering) {
	r := registry.Render(err)
	return Failure(r, meta), r
}

// serializes an envelope; identical envelopes yield identical bytes
func Marshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func normalize(meta Meta) Meta {
	meta.Timestamp = meta.Timestamp.UTC()
	return meta
}
