package envelope

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMeta = Meta{
	CorrelationID: "7d1f5a52-2f5e-4bd4-8d0b-1f2f0c2b9a11",
	Timestamp:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
}

func decode(t *testing.T, env Envelope) map[string]any {
	t.Helper()

	data, err := Marshal(env)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestSuccess_Shape(t *testing.T) {
	out := decode(t, Success(map[string]string{"id": "1"}, testMeta))

	assert.Equal(t, true, out["success"])
	assert.Contains(t, out, "data")
	assert.NotContains(t, out, "error")

	meta := out["meta"].(map[string]any)
	assert.Equal(t, testMeta.CorrelationID, meta["correlationId"])
	assert.Equal(t, "2026-01-02T03:04:05Z", meta["timestamp"])
}

func TestSuccess_NilDataIsEmptyObject(t *testing.T) {
	out := decode(t, Success(nil, testMeta))

	assert.Equal(t, map[string]any{}, out["data"])
	assert.NotContains(t, out, "error")
}

func TestSuccess_TypedNilDataIsEmptyObject(t *testing.T) {
	var ptr *struct{ Name string }
	var list []string
	var m map[string]int

	for _, data := range []any{ptr, list, m} {
		out := decode(t, Success(data, testMeta))
		assert.Equal(t, map[string]any{}, out["data"], "%T", data)
	}

	out := decode(t, Success([]string{}, testMeta))
	assert.Equal(t, []any{}, out["data"])
}

func TestFailure_Shape(t *testing.T) {
	registry := apperrors.DefaultRegistry()
	fields := apperrors.FieldErrors{}.Add("email", "is required")

	env, rendering := FromError(registry, apperrors.Validation(fields), testMeta)
	out := decode(t, env)

	assert.Equal(t, http.StatusBadRequest, rendering.Status)
	assert.Equal(t, false, out["success"])
	assert.NotContains(t, out, "data")

	body := out["error"].(map[string]any)
	assert.Equal(t, apperrors.CodeValidation, body["code"])
	assert.Equal(t, map[string]any{"email": []any{"is required"}}, body["details"])
}

func TestFailure_OmitsEmptyDetails(t *testing.T) {
	env, _ := FromError(apperrors.DefaultRegistry(), errors.New("boom"), testMeta)
	out := decode(t, env)

	body := out["error"].(map[string]any)
	assert.Equal(t, apperrors.CodeInternal, body["code"])
	assert.Equal(t, "internal error", body["message"])
	assert.NotContains(t, body, "details")
}

func TestFailure_IsTotalOverTaxonomy(t *testing.T) {
	registry := apperrors.DefaultRegistry()

	for _, kind := range registry.Kinds() {
		env, _ := FromError(registry, apperrors.New(kind, ""), testMeta)

		assert.False(t, env.Success, kind)
		assert.Nil(t, env.Data, kind)
		require.NotNil(t, env.Error, kind)
		assert.NotEmpty(t, env.Error.Code, kind)
	}
}

func TestFailure_ByteIdenticalRenderings(t *testing.T) {
	registry := apperrors.DefaultRegistry()
	exc := apperrors.Validation(apperrors.FieldErrors{}.Add("b", "x").Add("a", "y"))

	first, _ := FromError(registry, exc, testMeta)
	second, _ := FromError(registry, exc, testMeta)

	a, err := Marshal(first)
	require.NoError(t, err)
	b, err := Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestTransformers_DoNotMutateInput(t *testing.T) {
	data := map[string]string{"id": "1"}
	meta := Meta{CorrelationID: "c", Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.FixedZone("X", 3600))}

	env := Success(data, meta)

	assert.Equal(t, map[string]string{"id": "1"}, data)
	assert.Equal(t, "X", meta.Timestamp.Location().String())
	assert.Equal(t, time.UTC, env.Meta.Timestamp.Location())
}
