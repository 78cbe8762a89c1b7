package pipeline

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/algorave/apikit/internal/envelope"
	apperrors "codeberg.org/algorave/apikit/internal/errors"
	"codeberg.org/algorave/apikit/internal/logger"
)

const contentTypeJSON = "application/json; charset=utf-8"

// fallback body when even the error envelope cannot be serialized
var lastResortBody = []byte(`{"success":false,"error":{"code":"` + apperrors.CodeResponse + `","message":"failed to produce response"},"meta":{}}`)

// adapts a controller and its route stages into a gin handler
// panics at registration when stages are out of order
func (p *Pipeline) Handle(h Handler, stages ...Stage) gin.HandlerFunc {
	checkOrder(stages)

	route := append([]Stage(nil), stages...)

	return func(c *gin.Context) {
		req := p.newRequest(c)
		out := p.run(req, h, route)
		p.respond(c, req, out)
	}
}

// handler for unmatched paths
func (p *Pipeline) NotFound() gin.HandlerFunc {
	return p.Handle(func(req *Request) Outcome {
		return Fail(apperrors.RouteNotFound(req.Method, req.Path))
	})
}

// handler for paths matched under a different method
func (p *Pipeline) MethodNotAllowed() gin.HandlerFunc {
	return p.Handle(func(req *Request) Outcome {
		return Fail(apperrors.MethodNotAllowed(req.Method, req.Path))
	})
}

// copies everything the chain needs out of the gin context
func (p *Pipeline) newRequest(c *gin.Context) *Request {
	params := make(map[string]string, len(c.Params))
	for _, param := range c.Params {
		params[param.Key] = param.Value
	}

	req := &Request{
		ReceivedAt: p.now(),
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		Route:      c.FullPath(),
		ClientIP:   c.ClientIP(),
		Header:     c.Request.Header.Clone(),
		Params:     params,
		Query:      c.Request.URL.Query(),
		Logger:     logger.Default(),
		ctx:        c.Request.Context(),
	}

	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		req.bodyReader = http.MaxBytesReader(c.Writer, c.Request.Body, p.bodyLimit)
	}

	return req
}

// writes the single response for a request; later calls are no-ops
func (p *Pipeline) respond(c *gin.Context, req *Request, out Outcome) {
	if !req.responded.CompareAndSwap(false, true) {
		req.Logger.Warn("duplicate response suppressed", "state", req.State().String())
		return
	}

	req.close()

	if req.CorrelationID == "" {
		req.CorrelationID = p.newID()
	}

	meta := envelope.Meta{CorrelationID: req.CorrelationID, Timestamp: p.now()}

	var (
		env    envelope.Envelope
		status int
	)

	if out.IsFailure() || out.IsContinue() {
		env, status = p.failure(req, out.Err(), meta)
	} else {
		req.state.Store(int32(StateSucceeded))
		env = envelope.Success(out.Data(), meta)
		status = successStatus(out.Status())
	}

	body, err := envelope.Marshal(env)
	if err != nil {
		env, status = p.failure(req, apperrors.Response(err), meta)
		if body, err = envelope.Marshal(env); err != nil {
			req.Logger.Error("error envelope not serializable", "error", err)
			body = lastResortBody
		}
	}

	for key, values := range req.headers() {
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}
	c.Header(envelope.HeaderCorrelationID, req.CorrelationID)
	c.Data(status, contentTypeJSON, body)

	req.state.Store(int32(StateResponseSent))

	req.Logger.Info("request completed",
		"status", status,
		"duration_ms", p.now().Sub(req.ReceivedAt).Milliseconds(),
		"timed_out", req.TimedOut(),
	)
}

func (p *Pipeline) failure(req *Request, err error, meta envelope.Meta) (envelope.Envelope, int) {
	if err == nil {
		err = apperrors.Internal(nil)
	}

	req.state.Store(int32(StateFailed))

	env, r := envelope.FromError(p.registry, err, meta)
	if r.Status >= http.StatusInternalServerError {
		req.Logger.Error("request failed", "status", r.Status, "code", r.Code, "error", r.Cause)
	} else {
		req.Logger.Debug("request rejected", "status", r.Status, "code", r.Code, "error", r.Cause)
	}

	return env, r.Status
}

// success envelopes always carry a body, so only body-bearing 2xx statuses pass
func successStatus(status int) int {
	if status < http.StatusOK || status >= http.StatusMultipleChoices || status == http.StatusNoContent || status == http.StatusResetContent {
		return http.StatusOK
	}

	return status
}
