// Package auth issues and validates the session tokens that gate the clock
// and admin surfaces, and authenticates logins against the employee roster.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mattrav05/timeclock-app/internal/platform/middleware"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
)

// Session lifetimes. Employee sessions cover a working day with margin;
// admin sessions last a full day.
const (
	EmployeeTokenTTL = 8 * time.Hour
	AdminTokenTTL    = 24 * time.Hour
)

// Claims is the JWT payload for both roles.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 session tokens. It satisfies
// middleware.TokenValidator.
type TokenService struct {
	signingKey []byte
}

func NewTokenService(signingKey string) (*TokenService, error) {
	if signingKey == "" {
		return nil, errors.New("token service: signing key is required")
	}
	return &TokenService{signingKey: []byte(signingKey)}, nil
}

// IssueEmployee mints a session token for an employee.
func (s *TokenService) IssueEmployee(employeeID string, now time.Time) (string, error) {
	return s.issue(employeeID, middleware.RoleEmployee, now, EmployeeTokenTTL)
}

// IssueAdmin mints a session token for the admin user.
func (s *TokenService) IssueAdmin(adminUser string, now time.Time) (string, error) {
	return s.issue(adminUser, middleware.RoleAdmin, now, AdminTokenTTL)
}

func (s *TokenService) issue(subject, role string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its subject and role.
func (s *TokenService) Validate(tokenString string) (*middleware.TokenClaims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	if !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing subject or role")
	}
	return &middleware.TokenClaims{Subject: claims.Subject, Role: claims.Role}, nil
}
