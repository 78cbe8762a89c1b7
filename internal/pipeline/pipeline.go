package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultBodyLimit = 1 << 20
)

// settings for a pipeline; zero values fall back to defaults
type Options struct {
	Registry *apperrors.Registry

	// deadline for route stages plus dispatch
	Timeout time.Duration

	// maximum accepted request body size in bytes
	BodyLimit int64

	// optional per-client rate limiter; nil disables the stage
	Limiter *limiter.Limiter

	Sanitizer *Sanitizer

	// overridable for tests
	NewID func() string
	Now   func() time.Time
}

// ordered request chain shared by every route
//
// fixed stages run first in this order: correlation, logging, rate limit,
// body read, sanitization. route stages (auth, then validation) follow and
// race the request deadline together with the controller.
type Pipeline struct {
	registry  *apperrors.Registry
	timeout   time.Duration
	bodyLimit int64
	prefix    []Stage
	newID     func() string
	now       func() time.Time
}

// builds a pipeline; safe for concurrent use once constructed
func New(opts Options) *Pipeline {
	p := &Pipeline{
		registry:  opts.Registry,
		timeout:   opts.Timeout,
		bodyLimit: opts.BodyLimit,
		newID:     opts.NewID,
		now:       opts.Now,
	}

	if p.registry == nil {
		p.registry = apperrors.DefaultRegistry()
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	if p.bodyLimit <= 0 {
		p.bodyLimit = defaultBodyLimit
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.now == nil {
		p.now = time.Now
	}

	sanitizer := opts.Sanitizer
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}

	p.prefix = []Stage{
		Correlation(p.newID),
		Logging(),
	}
	if opts.Limiter != nil {
		p.prefix = append(p.prefix, RateLimit(opts.Limiter))
	}
	p.prefix = append(p.prefix,
		readBody(),
		Sanitize(sanitizer),
	)

	return p
}

// returns the registry used to render failures
func (p *Pipeline) Registry() *apperrors.Registry {
	return p.registry
}

// returns the per-request deadline
func (p *Pipeline) Timeout() time.Duration {
	return p.timeout
}

// panics when a validation stage is followed by a non-validation stage
func checkOrder(stages []Stage) {
	validated := false
	for _, s := range stages {
		if s.Run == nil {
			panic(fmt.Sprintf("pipeline: stage %q has no Run func", s.Name))
		}

		if s.State == StateValidated {
			validated = true
			continue
		}

		if validated {
			panic(fmt.Sprintf("pipeline: stage %q registered after validation", s.Name))
		}
	}
}

// drives a request through every stage and the handler, returning exactly one terminal outcome
func (p *Pipeline) run(req *Request, h Handler, stages []Stage) Outcome {
	for _, s := range p.prefix {
		if out := step(req, s); !out.IsContinue() {
			return out
		}
	}

	return p.race(req, h, stages)
}

// runs route stages and the handler against the deadline
// the first of (result, deadline) wins; a late result is dropped
func (p *Pipeline) race(req *Request, h Handler, stages []Stage) Outcome {
	ctx, cancel := context.WithTimeout(req.Context(), p.timeout)
	defer cancel()

	req.ctx = ctx

	done := make(chan Outcome, 1)
	go func() {
		done <- dispatch(req, h, stages)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		req.close()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			req.timedOut.Store(true)
			return Fail(apperrors.Timeout(p.timeout))
		}

		return Fail(apperrors.Canceled())
	}
}

func dispatch(req *Request, h Handler, stages []Stage) (out Outcome) {
	for _, s := range stages {
		if out = step(req, s); !out.IsContinue() {
			return out
		}
	}

	req.advance(StateDispatched)

	defer func() {
		if rec := recover(); rec != nil {
			out = Fail(apperrors.Internal(fmt.Errorf("handler panicked: %v", rec)))
		}
	}()

	out = h(req)
	if out.IsContinue() {
		return Fail(apperrors.Internal(errors.New("handler returned without a response")))
	}

	return out
}

// runs one stage, converting a panic into an internal failure
func step(req *Request, s Stage) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Fail(apperrors.Internal(fmt.Errorf("stage %s panicked: %v", s.Name, rec)))
		}
	}()

	out = s.Run(req)
	if out.IsContinue() && s.State != StateReceived {
		req.advance(s.State)
	}

	return out
}
