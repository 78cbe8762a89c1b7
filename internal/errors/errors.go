package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error Handling Guidelines:
//
// For controllers and pipeline stages:
//   - Return *Error values (BadRequest, NotFound, ...) or plain errors; the pipeline
//     renders them through the Registry, logs 5xx causes and writes the envelope
//   - Never write a response directly
//
// For services:
//   - Translate expected domain conditions into typed exceptions
//   - Let unexpected failures bubble up wrapped with fmt.Errorf("context: %w", err)
//
// For repositories/internal packages:
//   - Return wrapped errors with context; do not log (avoid double logging)

// an immutable, typed failure raised anywhere in the request path
type Error struct {
	kind    Kind
	status  int
	code    string
	message string
	details any
	cause   error
}

// creates an exception of the given kind; an empty message uses the registry default
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	switch {
	case e.message == "" && e.cause == nil:
		return string(e.kind)
	case e.message == "":
		return fmt.Sprintf("%s: %v", e.kind, e.cause)
	case e.cause == nil:
		return fmt.Sprintf("%s: %s", e.kind, e.message)
	default:
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind      { return e.kind }
func (e *Error) Message() string { return e.message }
func (e *Error) Details() any    { return e.details }
func (e *Error) Cause() error    { return e.cause }

// per-instance status override, 0 when the registry entry applies
func (e *Error) Status() int { return e.status }

// per-instance code override, "" when the registry entry applies
func (e *Error) Code() string { return e.code }

// returns a copy carrying details
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.details = details
	return &c
}

// returns a copy wrapping cause
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// returns a copy with a custom status and code
func (e *Error) WithStatus(status int, code string) *Error {
	c := *e
	c.status = status
	c.code = code
	return &c
}

// extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}

	return nil, false
}

// reports whether err's chain holds an exception of kind
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.kind == kind
}

// returns a 400 carrying per-field violations; fields are deep-copied
func Validation(fields FieldErrors) *Error {
	return &Error{
		kind:    KindValidation,
		message: "request validation failed",
		details: fields.Clone(),
	}
}

// returns a 400 bad request
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// returns a 401; empty message means "authentication required"
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// returns a 403; empty message means "permission denied"
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// returns a 404 for the named resource
func NotFound(resource string) *Error {
	if resource == "" {
		resource = "resource"
	}

	return New(KindNotFound, resource+" not found")
}

// returns a 404 for an unmatched route
func RouteNotFound(method, path string) *Error {
	return New(KindRouteNotFound, fmt.Sprintf("route %s %s not found", method, path))
}

// returns a 405 for a route that exists under another method
func MethodNotAllowed(method, path string) *Error {
	return New(KindMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", method, path))
}

// returns a 409 conflict
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// returns a 413 naming the body limit
func PayloadTooLarge(limit int64) *Error {
	return New(KindPayloadTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
}

// returns a 429 with the seconds until the window resets
func TooManyRequests(retryAfter time.Duration) *Error {
	e := New(KindTooManyRequests, "")
	if retryAfter > 0 {
		e.details = map[string]any{"retryAfterSeconds": int64(retryAfter.Round(time.Second) / time.Second)}
	}

	return e
}

// returns a 504 for a request that exceeded its deadline
func Timeout(after time.Duration) *Error {
	if after <= 0 {
		return New(KindTimeout, "")
	}

	return New(KindTimeout, fmt.Sprintf("request timed out after %s", after))
}

// returns a 499 for a request the client abandoned
func Canceled() *Error {
	return New(KindCanceled, "")
}

// returns a 500 wrapping an unexpected failure; the cause is never rendered
func Internal(cause error) *Error {
	return &Error{kind: KindInternal, cause: cause}
}

// returns a 500 for a response that could not be produced
func Response(cause error) *Error {
	return &Error{kind: KindResponse, cause: cause}
}

// returns a 503
func Unavailable(message string) *Error {
	return New(KindUnavailable, message)
}

// entries for the built-in kinds
func defaultEntries() []Entry {
	return []Entry{
		{Kind: KindValidation, Status: http.StatusBadRequest, Code: CodeValidation, Message: "request validation failed", Expose: true},
		{Kind: KindBadRequest, Status: http.StatusBadRequest, Code: CodeBadRequest, Message: "invalid request", Expose: true},
		{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: "authentication required", Expose: true},
		{Kind: KindForbidden, Status: http.StatusForbidden, Code: CodeForbidden, Message: "permission denied", Expose: true},
		{Kind: KindNotFound, Status: http.StatusNotFound, Code: CodeNotFound, Message: "resource not found", Expose: true},
		{Kind: KindRouteNotFound, Status: http.StatusNotFound, Code: CodeRouteNotFound, Message: "route not found", Expose: true},
		{Kind: KindMethodNotAllowed, Status: http.StatusMethodNotAllowed, Code: CodeMethodNotAllowed, Message: "method not allowed", Expose: true},
		{Kind: KindConflict, Status: http.StatusConflict, Code: CodeConflict, Message: "resource conflict", Expose: true},
		{Kind: KindPayloadTooLarge, Status: http.StatusRequestEntityTooLarge, Code: CodePayloadTooLarge, Message: "request body too large", Expose: true},
		{Kind: KindTooManyRequests, Status: http.StatusTooManyRequests, Code: CodeTooManyRequests, Message: "too many requests", Expose: true},
		{Kind: KindCanceled, Status: StatusClientClosedRequest, Code: CodeCanceled, Message: "request canceled", Expose: true},
		{Kind: KindInternal, Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal error", Expose: false},
		{Kind: KindResponse, Status: http.StatusInternalServerError, Code: CodeResponse, Message: "failed to produce response", Expose: false},
		{Kind: KindUnavailable, Status: http.StatusServiceUnavailable, Code: CodeUnavailable, Message: "service unavailable", Expose: true},
		{Kind: KindTimeout, Status: http.StatusGatewayTimeout, Code: CodeTimeout, Message: "request timed out", Expose: true},
	}
}
