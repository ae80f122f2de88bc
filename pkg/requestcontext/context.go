// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
// Tests inject them directly:
//
//	ctx = requestcontext.WithEmployeeID(ctx, "john-smith")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	employeeIDKey  struct{}
	adminUserKey   struct{}
	clientIPKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// EmployeeID retrieves the authenticated employee ID from the context.
// Returns "" if the request was not employee-authenticated.
func EmployeeID(ctx context.Context) string {
	if id, ok := ctx.Value(employeeIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithEmployeeID injects an employee ID into the context.
func WithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, employeeIDKey{}, employeeID)
}

// AdminUser retrieves the acting admin identity from the context.
// Returns "" if the request was not admin-authenticated.
func AdminUser(ctx context.Context) string {
	if admin, ok := ctx.Value(adminUserKey{}).(string); ok {
		return admin
	}
	return ""
}

// WithAdminUser injects the acting admin identity into the context.
func WithAdminUser(ctx context.Context, admin string) context.Context {
	return context.WithValue(ctx, adminUserKey{}, admin)
}

// ClientIP retrieves the resolved client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects a client IP into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. All writes within one
// request share a single "now" so clock-in timestamps, employee status and
// audit entries agree. Falls back to time.Now() outside HTTP (workers, CLI,
// tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
