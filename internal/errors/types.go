package errors

// identifies a family of failures; the registry maps each kind to its HTTP rendering
type Kind string

// built-in kinds
const (
	KindValidation       Kind = "validation"
	KindBadRequest       Kind = "bad_request"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindRouteNotFound    Kind = "route_not_found"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindConflict         Kind = "conflict"
	KindPayloadTooLarge  Kind = "payload_too_large"
	KindTooManyRequests  Kind = "too_many_requests"
	KindCanceled         Kind = "canceled"
	KindInternal         Kind = "internal"
	KindResponse         Kind = "response"
	KindUnavailable      Kind = "unavailable"
	KindTimeout          Kind = "timeout"
)

// stable machine-readable error codes
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeConflict         = "CONFLICT"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodeCanceled         = "REQUEST_CANCELED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeResponse         = "RESPONSE_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeTimeout          = "REQUEST_TIMEOUT"
)

// StatusClientClosedRequest is the nginx convention for a client that went away
const StatusClientClosedRequest = 499

// rendering rule for one kind
type Entry struct {
	Kind   Kind
	Status int
	Code   string

	// message used when the exception carries none, or always when Expose is false
	Message string

	// whether the exception's own message and details reach the client
	Expose bool

	// optional details renderer; nil passes the exception details through
	Details func(*Error) any
}

// the deterministic (status, code, message, details) tuple produced for one error
type Rendering struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Details any

	// never serialized; kept for server-side logging
	Cause error
}
