package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// lifecycle position of a request in the chain
type State int32

const (
	StateReceived State = iota
	StateCorrelationAssigned
	StateLogged
	StateSanitized
	StateValidated
	StateDispatched
	StateSucceeded
	StateFailed
	StateResponseSent
)

var stateNames = [...]string{
	"received",
	"correlation_assigned",
	"logged",
	"sanitized",
	"validated",
	"dispatched",
	"succeeded",
	"failed",
	"response_sent",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

type outcomeKind int

const (
	outcomeContinue outcomeKind = iota
	outcomeRespond
	outcomeFail
)

// tagged result of a stage or handler: continue, or terminate with data or an error
type Outcome struct {
	kind   outcomeKind
	status int
	data   any
	err    error
}

// advances to the next stage
func Continue() Outcome {
	return Outcome{kind: outcomeContinue}
}

// terminates with a success envelope
func Respond(status int, data any) Outcome {
	return Outcome{kind: outcomeRespond, status: status, data: data}
}

// terminates with an error envelope; a nil err is treated as an internal error
func Fail(err error) Outcome {
	return Outcome{kind: outcomeFail, err: err}
}

func (o Outcome) IsContinue() bool { return o.kind == outcomeContinue }
func (o Outcome) IsFailure() bool  { return o.kind == outcomeFail }
func (o Outcome) Status() int      { return o.status }
func (o Outcome) Data() any        { return o.data }
func (o Outcome) Err() error       { return o.err }

// one step of the chain
type Stage struct {
	Name string

	// state entered when Run continues; zero keeps the current state
	State State

	Run func(req *Request) Outcome
}

// controller signature: parsed request in, outcome out
type Handler func(req *Request) Outcome

// everything a stage or controller may read about one in-flight request
// values are copied out of gin so the request outlives the gin context safely
type Request struct {
	CorrelationID string
	ReceivedAt    time.Time

	Method   string
	Path     string
	Route    string
	ClientIP string
	Header   http.Header
	Params   map[string]string
	Query    url.Values

	// body as read from the wire, then cleaned by the sanitization stage
	RawBody []byte
	Body    []byte

	// typed value produced by the validation stage
	Input any

	// subject of a verified bearer token
	UserID string
	Email  string

	Logger *slog.Logger

	ctx        context.Context
	bodyReader io.ReadCloser
	state      atomic.Int32
	closed     atomic.Bool
	timedOut   atomic.Bool
	responded  atomic.Bool

	// guards closing against late state and header writes
	mu              sync.Mutex
	responseHeaders http.Header
}

// returns the request context; canceled when the deadline passes or the client leaves
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}

	return r.ctx
}

// returns a path parameter
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// current lifecycle state
func (r *Request) State() State {
	return State(r.state.Load())
}

// records a state transition; ignored once the request is closed
func (r *Request) advance(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return
	}

	r.state.Store(int32(s))
}

// reports whether the response has been decided and late results must be discarded
func (r *Request) Closed() bool {
	return r.closed.Load()
}

// reports whether the request hit its deadline
func (r *Request) TimedOut() bool {
	return r.timedOut.Load()
}

// queues a header to be written with the response; ignored once the request is closed
func (r *Request) SetHeader(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return
	}

	if r.responseHeaders == nil {
		r.responseHeaders = make(http.Header)
	}

	r.responseHeaders.Set(key, value)
}

// marks the request closed; later state changes and headers are discarded
func (r *Request) close() {
	r.mu.Lock()
	r.closed.Store(true)
	r.mu.Unlock()
}

// returns a snapshot of the queued response headers
func (r *Request) headers() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.responseHeaders.Clone()
}
