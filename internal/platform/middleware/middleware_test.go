package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	t.Run("forwarded-for first hop wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
		r.Header.Set("CF-Connecting-IP", "198.51.100.7")
		assert.Equal(t, "203.0.113.5", ClientIPFromRequest(r))
	})

	t.Run("cdn header before real-ip", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("CF-Connecting-IP", "198.51.100.7")
		r.Header.Set("X-Real-IP", "192.0.2.9")
		assert.Equal(t, "198.51.100.7", ClientIPFromRequest(r))
	})

	t.Run("real-ip header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-IP", "192.0.2.9")
		assert.Equal(t, "192.0.2.9", ClientIPFromRequest(r))
	})

	t.Run("falls back to remote addr without port", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.10:54321"
		assert.Equal(t, "192.0.2.10", ClientIPFromRequest(r))
	})

	t.Run("ipv6 remote addr strips brackets", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "[::1]:54321"
		assert.Equal(t, "::1", ClientIPFromRequest(r))
	})
}

type staticValidator struct {
	claims *TokenClaims
	err    error
}

func (v staticValidator) Validate(string) (*TokenClaims, error) { return v.claims, v.err }

func TestRequireEmployee(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requestcontext.EmployeeID(r.Context())))
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		h := RequireEmployee(staticValidator{}, logger)(echo)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		v := staticValidator{err: dErrors.New(dErrors.CodeUnauthorized, "token has expired")}
		h := RequireEmployee(v, logger)(echo)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer bad")
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin token cannot call employee endpoints", func(t *testing.T) {
		v := staticValidator{claims: &TokenClaims{Subject: "admin", Role: RoleAdmin}}
		h := RequireEmployee(v, logger)(echo)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer t")
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token sets employee id in context", func(t *testing.T) {
		v := staticValidator{claims: &TokenClaims{Subject: "john-smith", Role: RoleEmployee}}
		h := RequireEmployee(v, logger)(echo)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer t")
		h.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "john-smith", w.Body.String())
	})
}
