package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mattrav05/timeclock-app/internal/domain"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

// EmployeeReader is the roster lookup the login flow needs.
type EmployeeReader interface {
	Get(ctx context.Context, id string) (*domain.Employee, error)
}

// Service authenticates logins and hands out session tokens.
type Service struct {
	employees     EmployeeReader
	tokens        *TokenService
	adminPassword string
	logger        *slog.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(employees EmployeeReader, tokens *TokenService, adminPassword string, opts ...Option) (*Service, error) {
	if employees == nil {
		return nil, errors.New("auth service: employee store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth service: token service is required")
	}
	if adminPassword == "" {
		return nil, errors.New("auth service: admin password is required")
	}
	s := &Service{
		employees:     employees,
		tokens:        tokens,
		adminPassword: adminPassword,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoginEmployee checks the employee's credentials and returns a session
// token. Unknown ids and wrong passwords are indistinguishable to the
// caller; deactivated employees are told so explicitly.
func (s *Service) LoginEmployee(ctx context.Context, employeeID, password string) (string, *domain.Employee, error) {
	emp, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if emp == nil || emp.PasswordHash == "" {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid employee ID or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid employee ID or password")
	}
	if !emp.IsActive {
		return "", nil, dErrors.New(dErrors.CodeForbidden, "employee is deactivated")
	}

	token, err := s.tokens.IssueEmployee(emp.ID, requestcontext.Now(ctx))
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue session token")
	}
	s.logger.InfoContext(ctx, "employee logged in", "employee_id", emp.ID)
	return token, emp, nil
}

// LoginAdmin checks the shared admin password and returns an admin session
// token.
func (s *Service) LoginAdmin(ctx context.Context, password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid admin password")
	}
	token, err := s.tokens.IssueAdmin("admin", requestcontext.Now(ctx))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "issue session token")
	}
	s.logger.InfoContext(ctx, "admin logged in")
	return token, nil
}
