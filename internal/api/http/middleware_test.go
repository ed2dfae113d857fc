package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"saju-backend/internal/config"
	"saju-backend/internal/domain"
	"saju-backend/internal/security"
	"saju-backend/internal/service"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(req), header)
	}
}

func TestCheckSecurityLevel(t *testing.T) {
	user := &service.Principal{UserID: 1, Role: domain.UserRoleUser, TokenType: security.TokenTypeAccess}
	admin := &service.Principal{UserID: 2, Role: domain.UserRoleAdmin, TokenType: security.TokenTypeAccess}
	refresh := &service.Principal{UserID: 1, Role: domain.UserRoleUser, TokenType: security.TokenTypeRefresh}

	assert.NoError(t, checkSecurityLevel(config.SecurityAccess, user))
	assert.ErrorIs(t, checkSecurityLevel(config.SecurityAccess, refresh), domain.ErrForbidden)
	assert.NoError(t, checkSecurityLevel(config.SecurityRefresh, refresh))
	assert.ErrorIs(t, checkSecurityLevel(config.SecurityRefresh, user), domain.ErrForbidden)
	assert.NoError(t, checkSecurityLevel(config.SecurityAdmin, admin))
	assert.ErrorIs(t, checkSecurityLevel(config.SecurityAdmin, user), domain.ErrForbidden)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInsufficientBalance, http.StatusPaymentRequired},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrInvalidChartInput, http.StatusBadRequest},
		{domain.ErrEmailTaken, http.StatusConflict},
		{domain.ErrIdempotencyConflict, http.StatusConflict},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, resp := classify(tc.err)
		assert.Equal(t, tc.want, status, tc.err.Error())
		assert.NotEmpty(t, resp.Message)
	}

	_, resp := classify(assert.AnError)
	assert.Equal(t, msgInternal, resp.Message)
	assert.Empty(t, resp.Detail)
}

func TestRateLimiter_SeparatesClients(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := l.Middleware(ok)

	serve := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:1001"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1000"))
}
