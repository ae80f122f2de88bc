// Package admin is the management surface: the dashboard aggregation,
// employee and allow-list administration, and the timesheet CSV export.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/mattrav05/timeclock-app/internal/attendance"
	"github.com/mattrav05/timeclock-app/internal/domain"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

// EmployeeStore is the roster surface the admin service needs.
type EmployeeStore interface {
	All(ctx context.Context) ([]domain.Employee, error)
	Get(ctx context.Context, id string) (*domain.Employee, error)
	Append(ctx context.Context, emp domain.Employee) error
	Update(ctx context.Context, emp domain.Employee) error
}

// EntryReader is the ledger surface the dashboard and export need.
type EntryReader interface {
	All(ctx context.Context) ([]domain.TimeEntry, error)
	ByEmployee(ctx context.Context, employeeID string) ([]domain.TimeEntry, error)
}

// NetworkStore is the allow-list surface.
type NetworkStore interface {
	All(ctx context.Context) ([]domain.NetworkRule, error)
	Get(ctx context.Context, id string) (*domain.NetworkRule, error)
	Append(ctx context.Context, rule domain.NetworkRule) error
	Update(ctx context.Context, rule domain.NetworkRule) error
}

// Service implements the admin operations.
type Service struct {
	employees EmployeeStore
	entries   EntryReader
	networks  NetworkStore
	logger    *slog.Logger
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

func NewService(employees EmployeeStore, entries EntryReader, networks NetworkStore, opts ...Option) (*Service, error) {
	if employees == nil {
		return nil, errors.New("admin service: employee store is required")
	}
	if entries == nil {
		return nil, errors.New("admin service: entry store is required")
	}
	if networks == nil {
		return nil, errors.New("admin service: network store is required")
	}
	s := &Service{
		employees: employees,
		entries:   entries,
		networks:  networks,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ==================== Dashboard ====================

// recentEntryLimit caps the dashboard's recent-activity list.
const recentEntryLimit = 20

// EmployeeSummary is one dashboard row.
type EmployeeSummary struct {
	Employee   domain.Employee
	TodayHours float64
	WeekHours  float64
}

// Dashboard is the aggregated admin overview.
type Dashboard struct {
	Employees      []EmployeeSummary
	ClockedIn      []domain.Employee
	TodayHours     float64
	WeekHours      float64
	RecentEntries  []domain.TimeEntry
	OpenEntryCount int
}

// Dashboard builds the overview. Roster and ledger reads fan out
// concurrently; totals count completed entries only.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		employees []domain.Employee
		entries   []domain.TimeEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = s.employees.All(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.entries.All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "dashboard reads failed")
	}

	now := requestcontext.Now(ctx)
	today := now.Format("2006-01-02")
	weekStart := attendance.StartOfWeek(now)

	perToday := make(map[string]float64)
	perWeek := make(map[string]float64)
	dash := &Dashboard{}
	for _, entry := range entries {
		if entry.Open() {
			dash.OpenEntryCount++
			continue
		}
		if entry.Date == today {
			perToday[entry.EmployeeID] += entry.HoursWorked
		}
		if !entry.ClockInTime.Before(weekStart) {
			perWeek[entry.EmployeeID] += entry.HoursWorked
		}
	}

	for _, emp := range employees {
		summary := EmployeeSummary{
			Employee:   emp,
			TodayHours: round2(perToday[emp.ID]),
			WeekHours:  round2(perWeek[emp.ID]),
		}
		dash.Employees = append(dash.Employees, summary)
		dash.TodayHours = round2(dash.TodayHours + summary.TodayHours)
		dash.WeekHours = round2(dash.WeekHours + summary.WeekHours)
		if emp.CurrentStatus == domain.StatusClockedIn {
			dash.ClockedIn = append(dash.ClockedIn, emp)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ClockInTime.After(entries[j].ClockInTime)
	})
	if len(entries) > recentEntryLimit {
		entries = entries[:recentEntryLimit]
	}
	dash.RecentEntries = entries
	return dash, nil
}

// ==================== Employees ====================

// ListEmployees returns the roster, optionally with deactivated employees.
func (s *Service) ListEmployees(ctx context.Context, includeInactive bool) ([]domain.Employee, error) {
	all, err := s.employees.All(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if includeInactive {
		return all, nil
	}
	active := make([]domain.Employee, 0, len(all))
	for _, emp := range all {
		if emp.IsActive {
			active = append(active, emp)
		}
	}
	return active, nil
}

// CreateEmployee adds a new active employee. The id is a slug of the name;
// a colliding slug is a conflict, not an overwrite.
func (s *Service) CreateEmployee(ctx context.Context, name, password string) (*domain.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if password == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	id := Slug(name)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name must contain letters or digits")
	}

	existing, err := s.employees.Get(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if existing != nil {
		return nil, dErrors.Newf(dErrors.CodeConflict, "employee %q already exists", id)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	emp := domain.Employee{
		ID:            id,
		Name:          name,
		IsActive:      true,
		CurrentStatus: domain.StatusClockedOut,
		PasswordHash:  string(hash),
	}
	if err := s.employees.Append(ctx, emp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "append employee")
	}
	s.logger.InfoContext(ctx, "employee created",
		"employee_id", id, "admin", requestcontext.AdminUser(ctx))
	return &emp, nil
}

// EmployeeUpdate carries the mutable employee fields; nil means unchanged.
type EmployeeUpdate struct {
	Name     *string
	IsActive *bool
	Password *string
}

// UpdateEmployee applies the update and rewrites the row in full.
// Deactivation is the soft delete; rows are never removed.
func (s *Service) UpdateEmployee(ctx context.Context, id string, upd EmployeeUpdate) (*domain.Employee, error) {
	emp, err := s.employees.Get(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if emp == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "name must not be empty")
		}
		emp.Name = name
	}
	if upd.IsActive != nil {
		emp.IsActive = *upd.IsActive
	}
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "password must not be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
		}
		emp.PasswordHash = string(hash)
	}

	if err := s.employees.Update(ctx, *emp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "update employee")
	}
	s.logger.InfoContext(ctx, "employee updated",
		"employee_id", id, "admin", requestcontext.AdminUser(ctx))
	return emp, nil
}

// ==================== Networks ====================

// ListNetworks returns every allow-list rule.
func (s *Service) ListNetworks(ctx context.Context) ([]domain.NetworkRule, error) {
	rules, err := s.networks.All(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "network lookup failed")
	}
	return rules, nil
}

// AddNetwork allow-lists a new address as an active rule.
func (s *Service) AddNetwork(ctx context.Context, name, ipAddress, notes string) (*domain.NetworkRule, error) {
	name = strings.TrimSpace(name)
	ipAddress = strings.TrimSpace(ipAddress)
	if name == "" || ipAddress == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name and ipAddress are required")
	}
	id := Slug(name)
	existing, err := s.networks.Get(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "network lookup failed")
	}
	if existing != nil {
		return nil, dErrors.Newf(dErrors.CodeConflict, "network rule %q already exists", id)
	}

	rule := domain.NetworkRule{ID: id, Name: name, IPAddress: ipAddress, IsActive: true, Notes: notes}
	if err := s.networks.Append(ctx, rule); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "append network rule")
	}
	s.logger.InfoContext(ctx, "network rule added",
		"rule_id", id, "admin", requestcontext.AdminUser(ctx))
	return &rule, nil
}

// NetworkUpdate carries the mutable rule fields; nil means unchanged.
type NetworkUpdate struct {
	Name      *string
	IPAddress *string
	IsActive  *bool
	Notes     *string
}

// UpdateNetwork applies the update and rewrites the row in full.
func (s *Service) UpdateNetwork(ctx context.Context, id string, upd NetworkUpdate) (*domain.NetworkRule, error) {
	rule, err := s.networks.Get(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "network lookup failed")
	}
	if rule == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "network rule not found")
	}

	if upd.Name != nil {
		rule.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.IPAddress != nil {
		rule.IPAddress = strings.TrimSpace(*upd.IPAddress)
	}
	if upd.IsActive != nil {
		rule.IsActive = *upd.IsActive
	}
	if upd.Notes != nil {
		rule.Notes = *upd.Notes
	}
	if rule.Name == "" || rule.IPAddress == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name and ipAddress must not be empty")
	}

	if err := s.networks.Update(ctx, *rule); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "update network rule")
	}
	s.logger.InfoContext(ctx, "network rule updated",
		"rule_id", id, "admin", requestcontext.AdminUser(ctx))
	return rule, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Slug derives a stable id from a display name: lowercase, runs of spaces
// and hyphens collapse to a single hyphen, everything else outside
// [a-z0-9] is dropped.
func Slug(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		case r == ' ', r == '-':
			hyphen = true
		}
	}
	return b.String()
}
