package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/infrastructure/firebase"
	"goldmarket/internal/infrastructure/ratelimit"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/logger"
)

type fakeVerifier map[string]*firebase.VerifiedUser

func (f fakeVerifier) VerifyToken(ctx context.Context, token string) (*firebase.VerifiedUser, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, stderrors.New("bad token")
}

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request, prepare func(echo.Context)) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if prepare != nil {
		prepare(c)
	}

	reached := false
	err := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	return rec, c, reached
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{
		"good":  {UID: "alice"},
		"admin": {UID: "root", Admin: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec, c, reached := run(t, m.Authenticate, req, nil)
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", c.Get(ContextUID))
	assert.Equal(t, false, c.Get(ContextAdmin))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer admin")
	_, c, _ = run(t, m.Authenticate, req, nil)
	assert.Equal(t, true, c.Get(ContextAdmin))

	for _, header := range []string{"", "Bearer", "Basic good", "Bearer nope"} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec, _, reached = run(t, m.Authenticate, req, nil)
		assert.False(t, reached, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestAuthenticateWebSocketQueryToken(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{"good": {UID: "alice"}})

	req := httptest.NewRequest(http.MethodGet, "/v1/chats/c1/ws?token=good", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	_, c, reached := run(t, m.Authenticate, req, nil)
	assert.True(t, reached)
	assert.Equal(t, "alice", c.Get(ContextUID))

	// plain requests cannot use the query parameter
	req = httptest.NewRequest(http.MethodGet, "/v1/chats?token=good", nil)
	rec, _, reached := run(t, m.Authenticate, req, nil)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type roleRepo struct {
	users map[string]*entity.User
}

func (r roleRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errors.NotFound("User", nil)
}

func (roleRepo) GetFCMTokens(ctx context.Context, userID string) ([]string, error) { return nil, nil }
func (roleRepo) AddFCMToken(ctx context.Context, userID, token string) error         { return nil }
func (roleRepo) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	return nil
}

func TestAdminOnly(t *testing.T) {
	m := NewAdminMiddleware(roleRepo{users: map[string]*entity.User{
		"legacy-admin": {ID: "legacy-admin", Role: entity.RoleAdmin},
		"bob":          {ID: "bob", Role: "user"},
	}})

	cases := []struct {
		uid     string
		claim   bool
		allowed bool
		status  int
	}{
		{"root", true, true, http.StatusOK},
		{"legacy-admin", false, true, http.StatusOK},
		{"bob", false, false, http.StatusForbidden},
		{"ghost", false, false, http.StatusForbidden},
		{"", false, false, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec, _, reached := run(t, m.AdminOnly, req, func(c echo.Context) {
			if tc.uid != "" {
				c.Set(ContextUID, tc.uid)
			}
			c.Set(ContextAdmin, tc.claim)
		})
		assert.Equal(t, tc.allowed, reached, tc.uid)
		assert.Equal(t, tc.status, rec.Code, tc.uid)
	}
}

func TestTriggerSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(TriggerSecretHeader, "s3cret")
	_, _, reached := run(t, TriggerSecret("s3cret"), req, nil)
	assert.True(t, reached)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(TriggerSecretHeader, "guess")
	rec, _, reached := run(t, TriggerSecret("s3cret"), req, nil)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, _, reached = run(t, TriggerSecret(""), httptest.NewRequest(http.MethodPost, "/", nil), nil)
	assert.True(t, reached)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewRateLimiterWithPolicies(map[string]ratelimit.Policy{
		"test": {Burst: 2, Every: time.Hour},
	})
	mw := RateLimit(limiter, "test", logger.Nop())
	asAlice := func(c echo.Context) { c.Set(ContextUID, "alice") }

	for i := 0; i < 2; i++ {
		_, _, reached := run(t, mw, httptest.NewRequest(http.MethodPost, "/", nil), asAlice)
		assert.True(t, reached)
	}

	rec, _, reached := run(t, mw, httptest.NewRequest(http.MethodPost, "/", nil), asAlice)
	assert.False(t, reached)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	_, _, reached = run(t, mw, httptest.NewRequest(http.MethodPost, "/", nil), func(c echo.Context) { c.Set(ContextUID, "bob") })
	assert.True(t, reached)
}
