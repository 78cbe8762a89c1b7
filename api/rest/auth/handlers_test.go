package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algorave/apikit/apikit/users"
	apperrors "codeberg.org/algorave/apikit/internal/errors"
	"codeberg.org/algorave/apikit/internal/pipeline"
)

type fakeService struct {
	registered []users.Registration
	password   string
}

func (f *fakeService) Register(_ context.Context, reg users.Registration) (*users.Session, error) {
	for _, r := range f.registered {
		if r.Email == reg.Email {
			return nil, apperrors.New(users.KindUserExists, "")
		}
	}

	f.registered = append(f.registered, reg)
	return session(reg.Email, reg.Name), nil
}

func (f *fakeService) Login(_ context.Context, email, password string) (*users.Session, error) {
	if password != f.password {
		return nil, apperrors.New(users.KindInvalidCredentials, "")
	}

	return session(email, "Ada"), nil
}

func session(email, name string) *users.Session {
	return &users.Session{
		User:      &users.User{ID: "7f1f3c9e-5f36-4a8e-9d8b-2b0c1f4a6e10", Email: email, Name: name},
		Token:     "signed-token",
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func setup(t *testing.T, svc Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry, err := apperrors.NewRegistry(users.ErrorEntries()...)
	require.NoError(t, err)

	p := pipeline.New(pipeline.Options{Registry: registry})
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), p, svc)
	return r
}

func post(t *testing.T, r *gin.Engine, path, body string) (int, response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestRegister(t *testing.T) {
	svc := &fakeService{}
	r := setup(t, svc)

	status, resp := post(t, r, "/api/v1/auth/register", `{"email":"ada@example.com","name":" <b>Ada</b> ","password":"correct-horse"}`)

	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, resp.Success)
	require.Len(t, svc.registered, 1)
	assert.Equal(t, "Ada", svc.registered[0].Name)
	assert.Contains(t, string(resp.Data), `"token":"signed-token"`)
}

func TestRegister_PasswordKeptAsSent(t *testing.T) {
	svc := &fakeService{}
	r := setup(t, svc)

	status, _ := post(t, r, "/api/v1/auth/register", `{"email":"ada@example.com","name":"Ada","password":"hunter2<secretpart>"}`)

	assert.Equal(t, http.StatusCreated, status)
	require.Len(t, svc.registered, 1)
	assert.Equal(t, "hunter2<secretpart>", svc.registered[0].Password)
}

func TestLogin_PasswordKeptAsSent(t *testing.T) {
	r := setup(t, &fakeService{password: "hunter2<secretpart>"})

	status, _ := post(t, r, "/api/v1/auth/login", `{"email":"ada@example.com","password":"hunter2<secretpart>"}`)
	assert.Equal(t, http.StatusOK, status)

	status, _ = post(t, r, "/api/v1/auth/login", `{"email":"ada@example.com","password":"hunter2<anything-else>"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegister_MissingFields(t *testing.T) {
	svc := &fakeService{}
	r := setup(t, svc)

	status, resp := post(t, r, "/api/v1/auth/register", `{"email":"not-an-email","password":"short"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.JSONEq(t, `{"email":["must be a valid email address"],"name":["is required"],"password":["must be at least 8 characters"]}`,
		string(resp.Error.Details))
	assert.Empty(t, svc.registered)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := setup(t, &fakeService{})
	body := `{"email":"ada@example.com","name":"Ada","password":"correct-horse"}`

	status, _ := post(t, r, "/api/v1/auth/register", body)
	require.Equal(t, http.StatusCreated, status)

	status, resp := post(t, r, "/api/v1/auth/register", body)

	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "USER_EXISTS", resp.Error.Code)
}

func TestLogin(t *testing.T) {
	r := setup(t, &fakeService{password: "correct-horse"})

	status, resp := post(t, r, "/api/v1/auth/login", `{"email":"ada@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)

	status, resp = post(t, r, "/api/v1/auth/login", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}
