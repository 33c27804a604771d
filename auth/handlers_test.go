package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/gatehouse-go/config"
	"github.com/user/gatehouse-go/session"
	"github.com/user/gatehouse-go/store"
	"github.com/user/gatehouse-go/throttle"
)

type envelope struct {
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
	Message string          `json:"message"`
}

func newRouter(env *testEnv) http.Handler {
	h := NewHandlers(env.service, nopLogger())
	r := chi.NewRouter()
	r.Use(Recoverer(nopLogger()))
	r.Post("/api/login", h.HandleLogin())
	r.Post("/api/signup", h.HandleSignup())
	r.Post("/api/logout", h.HandleLogout())
	r.With(RequireAuth(env.negotiator, nopLogger())).Get("/api/whoami", func(w http.ResponseWriter, r *http.Request) {
		p, ok := ProfileFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(p.Email))
	})
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, mutate func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func fromAddr(addr string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("X-Forwarded-For", addr+", 10.0.0.1") }
}

func TestSourceAddress(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	assert.Equal(t, UnknownSourceAddress, SourceAddress(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", SourceAddress(r))

	r.Header.Set("X-Forwarded-For", ",10.0.0.1")
	assert.Equal(t, UnknownSourceAddress, SourceAddress(r))
}

func TestHandleLogin_SessionMode(t *testing.T) {
	env := newTestEnv(t, config.AuthModeSession)
	u := env.addUser(t, "user@example.com", "correct1", "")
	router := newRouter(env)

	rec, body := do(t, router, http.MethodPost, "/api/login",
		`{"email":"user@example.com","password":"correct1"}`, fromAddr(addrA))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)

	var p Profile
	require.NoError(t, json.Unmarshal(body.Payload, &p))
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "user@example.com", p.Email)
	assert.NotContains(t, rec.Body.String(), "$2a$", "no hash in the response")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 10800, cookies[0].MaxAge)

	rec, _ = do(t, router, http.MethodGet, "/api/whoami", "", func(r *http.Request) { r.AddCookie(cookies[0]) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user@example.com", rec.Body.String())

	rec, body = do(t, router, http.MethodPost, "/api/logout", "", func(r *http.Request) { r.AddCookie(cookies[0]) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)

	rec, body = do(t, router, http.MethodGet, "/api/whoami", "", func(r *http.Request) { r.AddCookie(cookies[0]) })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgNotSignedIn, body.Message)
}

func TestHandleLogin_JWTMode(t *testing.T) {
	env := newTestEnv(t, config.AuthModeJWT)
	env.addUser(t, "user@example.com", "correct1", "")
	router := newRouter(env)

	rec, body := do(t, router, http.MethodPost, "/api/login",
		`{"email":"user@example.com","password":"correct1"}`, fromAddr(addrA))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	var token string
	require.NoError(t, json.Unmarshal(body.Payload, &token))
	require.NotEmpty(t, token)

	rec, _ = do(t, router, http.MethodGet, "/api/whoami", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user@example.com", rec.Body.String())

	rec, _ = do(t, router, http.MethodGet, "/api/whoami", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleLogin_Failures(t *testing.T) {
	env := newTestEnv(t, config.AuthModeSession)
	env.addUser(t, "user@example.com", "correct1", "")
	router := newRouter(env)

	rec, body := do(t, router, http.MethodPost, "/api/login", `not json`, fromAddr(addrA))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "null", string(body.Payload))
	assert.Equal(t, MsgMalformed, body.Message)

	for i := 0; i < throttle.MaxAttempts; i++ {
		rec, body = do(t, router, http.MethodPost, "/api/login",
			`{"email":"user@example.com","password":"wrong1"}`, fromAddr(addrA))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgBadCredentials, body.Message)
	}

	rec, body = do(t, router, http.MethodPost, "/api/login",
		`{"email":"user@example.com","password":"correct1"}`, fromAddr(addrA))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, MsgLocked, body.Message)
	assert.Equal(t, "600", rec.Header().Get("Retry-After"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandleSignup(t *testing.T) {
	env := newTestEnv(t, config.AuthModeSession)
	router := newRouter(env)
	payload := `{"name":"Test Taro","email":"new@example.com","password":"correct1","secretPhrase":"open sesame"}`

	rec, body := do(t, router, http.MethodPost, "/api/signup", payload, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, body.Success)
	var p Profile
	require.NoError(t, json.Unmarshal(body.Payload, &p))
	assert.Equal(t, "new@example.com", p.Email)

	rec, body = do(t, router, http.MethodPost, "/api/signup", payload, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, MsgSignupConflict, body.Message)

	rec, body = do(t, router, http.MethodPost, "/api/signup", `{"name":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgMalformed, body.Message)
}

func TestRecoverer(t *testing.T) {
	env := newTestEnv(t, config.AuthModeSession)
	rec, body := do(t, newRouter(env), http.MethodGet, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, body.Success)
	assert.NotContains(t, body.Message, "boom")
}

// unreachableSessions fails every lookup the way a dropped database connection would.
type unreachableSessions struct {
	store.SessionStore
}

func (unreachableSessions) FindSession(context.Context, string) (*store.Session, error) {
	return nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

func TestRequireAuth_StoreFailureIsInternal(t *testing.T) {
	env := newTestEnv(t, config.AuthModeSession)
	manager := session.NewManager(unreachableSessions{env.mem}, env.mem)
	n, err := NewNegotiator(config.AuthConfig{Mode: config.AuthModeSession}, manager)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequireAuth(n, zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec, body := do(t, handler, http.MethodGet, "/api/me", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "some-session"})
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, body.Success)
	assert.NotContains(t, body.Message, "connection refused")

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request failed", entries[0].Message)
}

func TestRequireAuth_InvalidCredentialIsUnauthorized(t *testing.T) {
	env := newTestEnv(t, config.AuthModeSession)
	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequireAuth(env.negotiator, zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec, body := do(t, handler, http.MethodGet, "/api/me", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "unknown"})
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgNotSignedIn, body.Message)
	assert.Zero(t, logs.Len())

	jwtEnv := newTestEnv(t, config.AuthModeJWT)
	handler = RequireAuth(jwtEnv.negotiator, zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec, _ = do(t, handler, http.MethodGet, "/api/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
