package pipeline

import (
	"io"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"

	"codeberg.org/algorave/apikit/internal/envelope"
	apperrors "codeberg.org/algorave/apikit/internal/errors"
	"codeberg.org/algorave/apikit/internal/logger"
)

// assigns the request correlation id
// an inbound X-Correlation-ID is kept only when it is a valid UUID
func Correlation(newID func() string) Stage {
	return Stage{
		Name:  "correlation",
		State: StateCorrelationAssigned,
		Run: func(req *Request) Outcome {
			id := req.Header.Get(envelope.HeaderCorrelationID)
			if !apperrors.IsValidUUID(id) {
				id = newID()
			}

			req.CorrelationID = id
			req.ctx = logger.WithCorrelationID(req.Context(), id)

			return Continue()
		},
	}
}

// binds a request-scoped logger carrying the correlation id
func Logging() Stage {
	return Stage{
		Name:  "logging",
		State: StateLogged,
		Run: func(req *Request) Outcome {
			req.Logger = logger.FromContext(req.Context()).With(
				"method", req.Method,
				"path", req.Path,
			)
			req.ctx = logger.WithContext(req.Context(), req.Logger)

			req.Logger.Debug("request received", "client_ip", req.ClientIP)

			return Continue()
		},
	}
}

// limits requests per client IP, exposing the window on X-RateLimit-* headers
// a failing limiter store lets the request through
func RateLimit(l *limiter.Limiter) Stage {
	return Stage{
		Name: "rate_limit",
		Run: func(req *Request) Outcome {
			lctx, err := l.Get(req.Context(), req.ClientIP)
			if err != nil {
				req.Logger.Warn("rate limiter unavailable", "error", err)
				return Continue()
			}

			req.SetHeader("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			req.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			req.SetHeader("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if !lctx.Reached {
				return Continue()
			}

			retryAfter := time.Until(time.Unix(lctx.Reset, 0))
			if retryAfter < time.Second {
				retryAfter = time.Second
			}
			req.SetHeader("Retry-After", strconv.FormatInt(int64(retryAfter.Round(time.Second)/time.Second), 10))

			return Fail(apperrors.TooManyRequests(retryAfter))
		},
	}
}

// reads the size-capped body into RawBody
func readBody() Stage {
	return Stage{
		Name: "read_body",
		Run: func(req *Request) Outcome {
			if req.bodyReader == nil {
				return Continue()
			}
			defer req.bodyReader.Close()

			raw, err := io.ReadAll(req.bodyReader)
			if err != nil {
				e := apperrors.From(err)
				if e.Kind() == apperrors.KindInternal {
					return Fail(apperrors.BadRequest("failed to read request body").WithCause(err))
				}

				return Fail(e)
			}

			req.RawBody = raw
			return Continue()
		},
	}
}
