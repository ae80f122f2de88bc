// Package attendance is the clock engine: verified clock-in, clock-out with
// hours computation, live status, and the employee's own timesheet view.
//
// Verification is network-first. A request whose public IP matches an active
// allow-list rule is admitted without a GPS check; otherwise the submitted
// coordinates must fall inside the default job site's geofence.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/geo"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

// EmployeeStore is the roster surface the engine needs.
type EmployeeStore interface {
	Get(ctx context.Context, id string) (*domain.Employee, error)
	Update(ctx context.Context, emp domain.Employee) error
}

// EntryStore is the time-entry surface the engine needs.
type EntryStore interface {
	ByEmployee(ctx context.Context, employeeID string) ([]domain.TimeEntry, error)
	Open(ctx context.Context, employeeID string) ([]domain.TimeEntry, error)
	Append(ctx context.Context, entry domain.TimeEntry) error
	Update(ctx context.Context, employeeID, keyClockIn string, entry domain.TimeEntry) error
}

// SiteSource supplies the geofence to check coordinates against.
type SiteSource interface {
	Default(ctx context.Context) (*domain.JobSite, error)
}

// NetworkVerifier is the allow-list presence check.
type NetworkVerifier interface {
	Verify(ctx context.Context, clientIP string) (bool, string, error)
}

// OutOfRangeError carries the geofence miss details surfaced to the client.
type OutOfRangeError struct {
	SiteName string
	Address  string
	Distance float64
	Radius   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("location is %.0fm from %s, allowed radius %.0fm",
		e.Distance, e.SiteName, e.Radius)
}

// Engine implements the clock operations.
type Engine struct {
	employees EmployeeStore
	entries   EntryStore
	sites     SiteSource
	network   NetworkVerifier
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(employees EmployeeStore, entries EntryStore, sites SiteSource, network NetworkVerifier, opts ...Option) (*Engine, error) {
	if employees == nil {
		return nil, errors.New("attendance engine: employee store is required")
	}
	if entries == nil {
		return nil, errors.New("attendance engine: entry store is required")
	}
	if sites == nil {
		return nil, errors.New("attendance engine: site source is required")
	}
	if network == nil {
		return nil, errors.New("attendance engine: network verifier is required")
	}
	e := &Engine{
		employees: employees,
		entries:   entries,
		sites:     sites,
		network:   network,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ClockIn opens a time entry for the employee after presence verification.
// The entry is appended before the employee's status row is rewritten, so a
// partial failure leaves a recoverable open entry rather than a phantom
// clocked-in status with no entry behind it.
func (e *Engine) ClockIn(ctx context.Context, employeeID string, lat, lng float64) (*domain.TimeEntry, domain.VerificationChannel, error) {
	emp, err := e.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if emp == nil {
		e.metrics.Rejected("unknown_employee")
		return nil, "", dErrors.New(dErrors.CodeNotFound, "employee not found")
	}
	if !emp.IsActive {
		e.metrics.Rejected("inactive")
		return nil, "", dErrors.New(dErrors.CodeForbidden, "employee is deactivated")
	}
	if !validCoordinates(lat, lng) {
		e.metrics.Rejected("bad_coordinates")
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "invalid coordinates")
	}

	open, err := e.entries.Open(ctx, employeeID)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "time entry lookup failed")
	}
	if len(open) > 0 {
		e.metrics.Rejected("already_clocked_in")
		return nil, "", dErrors.New(dErrors.CodeConflict, "already clocked in")
	}

	channel, err := e.verify(ctx, lat, lng)
	if err != nil {
		e.metrics.Rejected("verification")
		return nil, "", err
	}

	now := requestcontext.Now(ctx)
	entry := domain.TimeEntry{
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		ClockInTime:  now,
		Date:         now.Format("2006-01-02"),
		LocationLat:  lat,
		LocationLng:  lng,
	}
	if err := e.entries.Append(ctx, entry); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "record clock-in")
	}

	emp.CurrentStatus = domain.StatusClockedIn
	emp.LastClockIn = now
	if err := e.employees.Update(ctx, *emp); err != nil {
		// The entry is already on the ledger; the status row will read as
		// inconsistent until the next successful write. Surfaced by Status.
		e.logger.ErrorContext(ctx, "status update failed after clock-in",
			"employee_id", emp.ID, "error", err)
		return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "update employee status")
	}

	e.metrics.ClockIn(string(channel))
	e.logger.InfoContext(ctx, "clocked in", "employee_id", emp.ID, "channel", channel)
	return &entry, channel, nil
}

// verify runs the two presence channels in order: allow-list first, then
// geofence. A network-check failure is logged and treated as a miss.
func (e *Engine) verify(ctx context.Context, lat, lng float64) (domain.VerificationChannel, error) {
	matched, resolvedIP, err := e.network.Verify(ctx, requestcontext.ClientIP(ctx))
	if err != nil {
		e.logger.WarnContext(ctx, "network verification unavailable, falling back to GPS", "error", err)
	} else if matched {
		e.logger.InfoContext(ctx, "presence verified by network", "ip", resolvedIP)
		return domain.VerifiedByNetwork, nil
	}

	site, err := e.sites.Default(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "job site lookup failed")
	}
	if site == nil {
		return "", dErrors.New(dErrors.CodeOutOfRange, "no job site configured and network not recognized")
	}

	distance := geo.Distance(lat, lng, site.Latitude, site.Longitude)
	if distance > site.Radius {
		return "", dErrors.Wrap(
			&OutOfRangeError{SiteName: site.Name, Address: site.Address, Distance: distance, Radius: site.Radius},
			dErrors.CodeOutOfRange, "outside job site boundary")
	}
	return domain.VerifiedByGPS, nil
}

// ClockOut closes the employee's open entry, computing worked hours rounded
// to two decimals. A clock-out earlier than the clock-in is rejected;
// zero-length sessions are allowed.
func (e *Engine) ClockOut(ctx context.Context, employeeID string) (*domain.TimeEntry, error) {
	emp, err := e.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if emp == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
	}

	open, err := e.entries.Open(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "time entry lookup failed")
	}
	if len(open) == 0 {
		e.metrics.Rejected("no_active_session")
		return nil, dErrors.New(dErrors.CodeConflict, "not clocked in")
	}
	if len(open) > 1 {
		e.logger.WarnContext(ctx, "multiple open entries, closing the earliest",
			"employee_id", employeeID, "open", len(open))
	}
	entry := open[0]

	now := requestcontext.Now(ctx)
	if now.Before(entry.ClockInTime) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "clock-out precedes clock-in")
	}

	entry.ClockOutTime = now
	entry.HoursWorked = RoundHours(now.Sub(entry.ClockInTime))
	keyClockIn := entry.ClockInTime.UTC().Format(time.RFC3339)
	if err := e.entries.Update(ctx, employeeID, keyClockIn, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "record clock-out")
	}

	emp.CurrentStatus = domain.StatusClockedOut
	emp.LastClockOut = now
	emp.TotalHoursThisWeek = round2(emp.TotalHoursThisWeek + entry.HoursWorked)
	if err := e.employees.Update(ctx, *emp); err != nil {
		e.logger.ErrorContext(ctx, "status update failed after clock-out",
			"employee_id", emp.ID, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "update employee status")
	}

	e.metrics.ClockOut()
	e.logger.InfoContext(ctx, "clocked out",
		"employee_id", emp.ID, "hours", entry.HoursWorked)
	return &entry, nil
}

// StatusReport is the employee's live clock state. The entry ledger is the
// source of truth; Inconsistent flags a status row that disagrees with it.
type StatusReport struct {
	Employee     domain.Employee
	OpenEntry    *domain.TimeEntry
	Inconsistent bool
}

// Status reports the employee's current state.
func (e *Engine) Status(ctx context.Context, employeeID string) (*StatusReport, error) {
	emp, err := e.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if emp == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
	}

	open, err := e.entries.Open(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "time entry lookup failed")
	}

	report := &StatusReport{Employee: *emp}
	if len(open) > 0 {
		report.OpenEntry = &open[0]
	}
	clockedIn := emp.CurrentStatus == domain.StatusClockedIn
	if clockedIn != (len(open) > 0) {
		report.Inconsistent = true
		e.logger.WarnContext(ctx, "status row disagrees with entry ledger",
			"employee_id", employeeID, "status", emp.CurrentStatus, "open_entries", len(open))
	}
	return report, nil
}

// Timesheet is the employee's recent-entry view.
type Timesheet struct {
	Entries    []domain.TimeEntry
	TodayHours float64
	WeekHours  float64
}

// timesheetMaxEntries caps the recent-entry list.
const timesheetMaxEntries = 10

// Timesheet returns the employee's entries from the last seven days, newest
// first, capped at timesheetMaxEntries, with completed-hours totals for
// today and the current week (weeks start Sunday).
func (e *Engine) Timesheet(ctx context.Context, employeeID string) (*Timesheet, error) {
	emp, err := e.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}
	if emp == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
	}

	all, err := e.entries.ByEmployee(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "time entry lookup failed")
	}

	now := requestcontext.Now(ctx)
	today := now.Format("2006-01-02")
	weekStart := StartOfWeek(now)
	cutoff := now.AddDate(0, 0, -7)

	sheet := &Timesheet{}
	recent := make([]domain.TimeEntry, 0, len(all))
	for _, entry := range all {
		if !entry.ClockInTime.Before(cutoff) {
			recent = append(recent, entry)
		}
		if entry.Open() {
			continue
		}
		if entry.Date == today {
			sheet.TodayHours = round2(sheet.TodayHours + entry.HoursWorked)
		}
		if !entry.ClockInTime.Before(weekStart) {
			sheet.WeekHours = round2(sheet.WeekHours + entry.HoursWorked)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].ClockInTime.After(recent[j].ClockInTime)
	})
	if len(recent) > timesheetMaxEntries {
		recent = recent[:timesheetMaxEntries]
	}
	sheet.Entries = recent
	return sheet, nil
}

// RoundHours converts a worked duration to hours rounded to two decimals.
func RoundHours(d time.Duration) float64 {
	return round2(d.Hours())
}

// StartOfWeek returns midnight of the Sunday beginning t's week, in t's
// location.
func StartOfWeek(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// validCoordinates rejects NaN, infinities, and out-of-range pairs before
// they reach the distance computation, where NaN compares false against
// every radius.
func validCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
