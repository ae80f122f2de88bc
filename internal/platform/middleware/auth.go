package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	Validate(token string) (*TokenClaims, error)
}

// TokenClaims represents the claims we expect from the token validator.
type TokenClaims struct {
	Subject string
	Role    string // "employee" or "admin"
}

const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// RequireEmployee admits only employee tokens and stores the employee ID in
// the request context.
func RequireEmployee(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(validator, logger, RoleEmployee)
}

// RequireAdmin admits only admin tokens and stores the acting admin identity
// in the request context.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(validator, logger, RoleAdmin)
}

func requireRole(validator TokenValidator, logger *slog.Logger, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if claims.Role != role {
				logger.WarnContext(ctx, "unauthorized access - wrong role",
					"role", claims.Role,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			switch role {
			case RoleAdmin:
				ctx = requestcontext.WithAdminUser(ctx, claims.Subject)
			default:
				ctx = requestcontext.WithEmployeeID(ctx, claims.Subject)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + desc + `"}`))
}
