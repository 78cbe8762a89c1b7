package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_WithHelpersCopy(t *testing.T) {
	base := BadRequest("bad input")
	withDetails := base.WithDetails(map[string]string{"a": "b"})
	withCause := base.WithCause(errors.New("root"))

	assert.Nil(t, base.Details())
	assert.Nil(t, base.Cause())
	assert.NotNil(t, withDetails.Details())
	assert.NotNil(t, withCause.Cause())
}

func TestError_String(t *testing.T) {
	cause := errors.New("connection reset")

	assert.Equal(t, "internal: connection reset", Internal(cause).Error())
	assert.Equal(t, "bad_request: bad input", BadRequest("bad input").Error())
	assert.Equal(t, "canceled", Canceled().Error())
	assert.Equal(t, "bad_request: bad input: connection reset", BadRequest("bad input").WithCause(cause).Error())
}

func TestError_UnwrapAndIs(t *testing.T) {
	root := errors.New("root")
	wrapped := fmt.Errorf("service: %w", Internal(root))

	assert.True(t, Is(wrapped, KindInternal))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.ErrorIs(t, wrapped, root)

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindInternal, e.Kind())
}

func TestValidation_CopiesFields(t *testing.T) {
	fields := FieldErrors{}.Add("email", "is required")
	e := Validation(fields)

	fields[0].Messages[0] = "mutated"

	details := e.Details().(FieldErrors)
	assert.Equal(t, []string{"is required"}, details.Get("email"))
}

func TestConstructors_Messages(t *testing.T) {
	assert.Equal(t, "user not found", NotFound("user").Message())
	assert.Equal(t, "resource not found", NotFound("").Message())
	assert.Equal(t, "route GET /nope not found", RouteNotFound("GET", "/nope").Message())
	assert.Equal(t, "request body exceeds 10 bytes", PayloadTooLarge(10).Message())
	assert.Equal(t, "request timed out after 2s", Timeout(2*time.Second).Message())
	assert.Equal(t, map[string]any{"retryAfterSeconds": int64(30)}, TooManyRequests(30*time.Second).Details())
}

func TestFrom_Classification(t *testing.T) {
	var syntaxErr error
	{
		var v any
		syntaxErr = json.Unmarshal([]byte("{"), &v)
	}

	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"no rows", fmt.Errorf("find user: %w", pgx.ErrNoRows), KindNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, KindConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, KindConflict},
		{"invalid text", &pgconn.PgError{Code: "22P02"}, KindBadRequest},
		{"other pg", &pgconn.PgError{Code: "53300"}, KindInternal},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"canceled", context.Canceled, KindCanceled},
		{"max bytes", &http.MaxBytesError{Limit: 5}, KindPayloadTooLarge},
		{"json syntax", syntaxErr, KindBadRequest},
		{"plain", errors.New("boom"), KindInternal},
		{"exception", Forbidden(""), KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := From(tt.err)
			require.NotNil(t, e)
			assert.Equal(t, tt.kind, e.Kind())
		})
	}

	assert.Nil(t, From(nil))
}

func TestFieldErrors_OrderedJSON(t *testing.T) {
	fields := FieldErrors{}.
		Add("zeta", "is required").
		Add("alpha", "must be a valid email address").
		Add("zeta", "must be at least 3 characters")

	data, err := json.Marshal(fields)

	require.NoError(t, err)
	assert.Equal(t, `{"zeta":["is required","must be at least 3 characters"],"alpha":["must be a valid email address"]}`, string(data))
}

func TestFieldErrors_EmptyJSON(t *testing.T) {
	data, err := json.Marshal(FieldErrors{})

	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("3f2c8f0e-8a5e-4c1b-9a0e-6a7b1c2d3e4f"))
	assert.True(t, IsValidUUID("3F2C8F0E-8A5E-4C1B-9A0E-6A7B1C2D3E4F"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
}
