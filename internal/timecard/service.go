// Package timecard is the admin reconciliation surface: correcting, adding,
// and removing time entries on an employee's behalf, with every mutation
// recorded to the append-only audit log.
package timecard

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks EntryStore,EmployeeReader,AuditSink

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/mattrav05/timeclock-app/internal/attendance"
	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/store"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

// EntryStore is the time-entry surface reconciliation needs.
type EntryStore interface {
	ByEmployee(ctx context.Context, employeeID string) ([]domain.TimeEntry, error)
	Append(ctx context.Context, entry domain.TimeEntry) error
	Update(ctx context.Context, employeeID, keyClockIn string, entry domain.TimeEntry) error
	Tombstone(ctx context.Context, employeeID, keyClockIn string) (*domain.TimeEntry, error)
}

// EmployeeReader resolves the employee a correction targets.
type EmployeeReader interface {
	Get(ctx context.Context, id string) (*domain.Employee, error)
}

// AuditSink records admin mutations. Appends happen strictly after the
// primary write and are never rolled back; a failed append is logged and
// the mutation stands.
type AuditSink interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
}

// Service implements the reconciliation operations.
type Service struct {
	entries   EntryStore
	employees EmployeeReader
	audit     AuditSink
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

func NewService(entries EntryStore, employees EmployeeReader, audit AuditSink, opts ...Option) (*Service, error) {
	if entries == nil {
		return nil, errors.New("timecard service: entry store is required")
	}
	if employees == nil {
		return nil, errors.New("timecard service: employee store is required")
	}
	if audit == nil {
		return nil, errors.New("timecard service: audit sink is required")
	}
	s := &Service{
		entries:   entries,
		employees: employees,
		audit:     audit,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns the employee's entries, newest first.
func (s *Service) List(ctx context.Context, employeeID string) ([]domain.TimeEntry, error) {
	if _, err := s.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	entries, err := s.entries.ByEmployee(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "time entry lookup failed")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ClockInTime.After(entries[j].ClockInTime)
	})
	return entries, nil
}

// Correction is the admin-supplied replacement for an entry's mutable
// fields. ClockOutTime may be zero on Edit to reopen an entry; Add requires
// both timestamps.
type Correction struct {
	ClockInTime  time.Time
	ClockOutTime time.Time
	Notes        string
}

// Edit replaces an entry's timestamps and notes. The entry keeps its
// location; hours are recomputed when both timestamps are present, and the
// row is marked edited by the acting admin.
func (s *Service) Edit(ctx context.Context, employeeID, keyClockIn string, c Correction) (*domain.TimeEntry, error) {
	emp, err := s.requireEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	all, err := s.entries.ByEmployee(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "time entry lookup failed")
	}
	prior := findEntry(all, keyClockIn)
	if prior == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "time entry not found")
	}
	if c.ClockInTime.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "clockInTime is required")
	}
	if !c.ClockOutTime.IsZero() && c.ClockOutTime.Before(c.ClockInTime) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "clock-out precedes clock-in")
	}
	if c.ClockOutTime.IsZero() {
		// Reopening an entry must not leave the employee with two open
		// sessions.
		for i := range all {
			other := &all[i]
			if other == prior {
				continue
			}
			if other.ClockOutTime.IsZero() {
				return nil, dErrors.New(dErrors.CodeConflict, "employee already has an open entry")
			}
		}
	}

	next := *prior
	next.ClockInTime = c.ClockInTime
	next.ClockOutTime = c.ClockOutTime
	next.Date = c.ClockInTime.Format("2006-01-02")
	next.Notes = c.Notes
	next.IsEdited = true
	next.EditedBy = requestcontext.AdminUser(ctx)
	if c.ClockOutTime.IsZero() {
		next.HoursWorked = 0
	} else {
		next.HoursWorked = attendance.RoundHours(c.ClockOutTime.Sub(c.ClockInTime))
	}

	if err := s.entries.Update(ctx, employeeID, keyClockIn, next); err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "time entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "update time entry")
	}

	s.recordAudit(ctx, domain.AuditEditTimeEntry, emp, "edited time entry "+keyClockIn, prior, &next)
	return &next, nil
}

// Add inserts a completed entry on the employee's behalf. Both timestamps
// are required: open entries can only be created by the employee clocking
// in.
func (s *Service) Add(ctx context.Context, employeeID string, c Correction) (*domain.TimeEntry, error) {
	emp, err := s.requireEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if c.ClockInTime.IsZero() || c.ClockOutTime.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "both clockInTime and clockOutTime are required")
	}
	if c.ClockOutTime.Before(c.ClockInTime) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "clock-out precedes clock-in")
	}

	entry := domain.TimeEntry{
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		ClockInTime:  c.ClockInTime,
		ClockOutTime: c.ClockOutTime,
		Date:         c.ClockInTime.Format("2006-01-02"),
		HoursWorked:  attendance.RoundHours(c.ClockOutTime.Sub(c.ClockInTime)),
		IsEdited:     true,
		EditedBy:     requestcontext.AdminUser(ctx),
		Notes:        c.Notes,
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "append time entry")
	}

	s.recordAudit(ctx, domain.AuditAddTimeEntry, emp, "added manual time entry", nil, &entry)
	return &entry, nil
}

// Delete tombstones an entry, preserving its final state in the audit log.
func (s *Service) Delete(ctx context.Context, employeeID, keyClockIn string) error {
	emp, err := s.requireEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	prior, err := s.entries.Tombstone(ctx, employeeID, keyClockIn)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "time entry not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete time entry")
	}

	s.recordAudit(ctx, domain.AuditDeleteTimeEntry, emp, "deleted time entry "+keyClockIn, prior, nil)
	return nil
}

func (s *Service) requireEmployee(ctx context.Context, employeeID string) (*domain.Employee, error) {
	emp, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if emp == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
	}
	return emp, nil
}

func findEntry(entries []domain.TimeEntry, keyClockIn string) *domain.TimeEntry {
	for i := range entries {
		if entries[i].ClockInTime.UTC().Format(time.RFC3339) == keyClockIn {
			return &entries[i]
		}
	}
	return nil
}

// recordAudit appends an audit entry after the mutation. Best effort: a
// failed append must not undo or fail the reconciliation itself.
func (s *Service) recordAudit(ctx context.Context, action domain.AuditAction, emp *domain.Employee, details string, prior, next *domain.TimeEntry) {
	entry := domain.AuditLogEntry{
		Timestamp:    requestcontext.Now(ctx),
		AdminUser:    requestcontext.AdminUser(ctx),
		Action:       action,
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		Details:      details,
		OriginalData: marshalSnapshot(prior),
		NewData:      marshalSnapshot(next),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			"action", action, "employee_id", emp.ID, "error", err)
	}
}

func marshalSnapshot(entry *domain.TimeEntry) string {
	if entry == nil {
		return ""
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	return string(raw)
}
