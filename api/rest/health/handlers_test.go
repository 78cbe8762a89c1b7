package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"codeberg.org/algorave/apikit/internal/pipeline"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func serve(h pipeline.Handler) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	p := pipeline.New(pipeline.Options{})
	r := gin.New()
	r.GET("/health", p.Handle(h))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	return w
}

func TestHandler_Healthy(t *testing.T) {
	w := serve(Handler(map[string]Pinger{
		"database": pingerFunc(func(context.Context) error { return nil }),
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}

func TestHandler_DependencyDown(t *testing.T) {
	w := serve(Handler(map[string]Pinger{
		"database": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"unavailable"`)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestPingHandler(t *testing.T) {
	w := serve(PingHandler)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"pong"`)
}
