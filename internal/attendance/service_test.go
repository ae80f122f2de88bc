package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/sheets"
	"github.com/mattrav05/timeclock-app/internal/store"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

// Site used throughout: 150 m fence around downtown Manhattan. A point
// ~111 m north is inside; ~222 m north is outside.
const (
	siteLat = 40.7128
	siteLng = -74.0060

	nearLat = 40.7138
	farLat  = 40.7148
)

type verifierStub struct {
	matched bool
	err     error
}

func (v *verifierStub) Verify(_ context.Context, clientIP string) (bool, string, error) {
	return v.matched, clientIP, v.err
}

type EngineSuite struct {
	suite.Suite
	mem       *sheets.Memory
	employees *store.Employees
	entries   *store.TimeEntries
	verifier  *verifierStub
	engine    *Engine
	now       time.Time
	ctx       context.Context
}

func (s *EngineSuite) SetupTest() {
	s.mem = sheets.NewMemory()
	s.mem.Seed(store.SheetEmployees, store.EmployeeColumns, [][]string{
		{"john-doe", "John Doe", "true", "clocked_out", "", "", "0", "hash"},
		{"jane-gone", "Jane Gone", "false", "clocked_out", "", "", "0", "hash"},
	})
	s.mem.Seed(store.SheetJobSites, store.JobSiteColumns, [][]string{
		{"hq", "HQ", fmt.Sprintf("%v", siteLat), fmt.Sprintf("%v", siteLng), "150", "1 Main St"},
	})
	s.mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, nil)

	var err error
	s.employees, err = store.NewEmployees(s.mem)
	s.Require().NoError(err)
	s.entries, err = store.NewTimeEntries(s.mem)
	s.Require().NoError(err)
	settings, err := store.NewSettings(s.mem)
	s.Require().NoError(err)
	sites, err := store.NewSites(s.mem, settings)
	s.Require().NoError(err)

	s.verifier = &verifierStub{}
	s.engine, err = NewEngine(s.employees, s.entries, sites, s.verifier)
	s.Require().NoError(err)

	s.now = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC) // a Wednesday
	s.ctx = requestcontext.WithClientIP(
		requestcontext.WithTime(context.Background(), s.now), "203.0.113.7")
}

func (s *EngineSuite) at(t time.Time) context.Context {
	return requestcontext.WithClientIP(
		requestcontext.WithTime(context.Background(), t), "203.0.113.7")
}

// ==================== Clock-in ====================

func (s *EngineSuite) TestClockInByNetworkSkipsGeofence() {
	s.verifier.matched = true

	// Coordinates far outside the fence; the network match must win.
	entry, channel, err := s.engine.ClockIn(s.ctx, "john-doe", 0, 0)
	s.Require().NoError(err)
	s.Equal(domain.VerifiedByNetwork, channel)
	s.Equal(s.now, entry.ClockInTime)
	s.Equal("2024-03-06", entry.Date)

	emp, err := s.employees.Get(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.Equal(domain.StatusClockedIn, emp.CurrentStatus)
	s.Equal(s.now, emp.LastClockIn)
}

func (s *EngineSuite) TestClockInByGPSInsideFence() {
	entry, channel, err := s.engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.Require().NoError(err)
	s.Equal(domain.VerifiedByGPS, channel)
	s.Equal(nearLat, entry.LocationLat)
}

func (s *EngineSuite) TestClockInOutsideFenceRejected() {
	_, _, err := s.engine.ClockIn(s.ctx, "john-doe", farLat, siteLng)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeOutOfRange))

	var oor *OutOfRangeError
	s.Require().True(errors.As(err, &oor))
	s.Equal("HQ", oor.SiteName)
	s.Equal("1 Main St", oor.Address)
	s.Equal(150.0, oor.Radius)
	s.Greater(oor.Distance, 150.0)

	// No entry appended, status untouched.
	open, err := s.entries.Open(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.Empty(open)
	emp, err := s.employees.Get(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.Equal(domain.StatusClockedOut, emp.CurrentStatus)
}

func (s *EngineSuite) TestClockInRejectsMalformedCoordinates() {
	// NaN compares false against any radius, so it must never reach the
	// distance check. Same for out-of-range pairs.
	cases := []struct{ lat, lng float64 }{
		{math.NaN(), math.NaN()},
		{math.NaN(), siteLng},
		{siteLat, math.NaN()},
		{math.Inf(1), siteLng},
		{91, siteLng},
		{siteLat, -181},
	}
	for _, tc := range cases {
		_, _, err := s.engine.ClockIn(s.ctx, "john-doe", tc.lat, tc.lng)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "lat=%v lng=%v", tc.lat, tc.lng)
	}

	open, err := s.entries.Open(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.Empty(open)
}

func (s *EngineSuite) TestClockInNetworkCheckFailureFallsBackToGPS() {
	s.verifier.err = errors.New("lookup timed out")

	_, channel, err := s.engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.Require().NoError(err)
	s.Equal(domain.VerifiedByGPS, channel)
}

func (s *EngineSuite) TestClockInUnknownEmployee() {
	_, _, err := s.engine.ClockIn(s.ctx, "nobody", nearLat, siteLng)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EngineSuite) TestClockInDeactivatedEmployee() {
	_, _, err := s.engine.ClockIn(s.ctx, "jane-gone", nearLat, siteLng)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *EngineSuite) TestClockInTwiceConflicts() {
	_, _, err := s.engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.Require().NoError(err)

	_, _, err = s.engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *EngineSuite) TestClockInNoSiteNoNetwork() {
	mem := sheets.NewMemory()
	mem.Seed(store.SheetEmployees, store.EmployeeColumns, [][]string{
		{"john-doe", "John Doe", "true", "clocked_out", "", "", "0", "hash"},
	})
	mem.Seed(store.SheetJobSites, store.JobSiteColumns, nil)
	mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, nil)
	employees, err := store.NewEmployees(mem)
	s.Require().NoError(err)
	entries, err := store.NewTimeEntries(mem)
	s.Require().NoError(err)
	settings, err := store.NewSettings(mem)
	s.Require().NoError(err)
	sites, err := store.NewSites(mem, settings)
	s.Require().NoError(err)
	engine, err := NewEngine(employees, entries, sites, &verifierStub{})
	s.Require().NoError(err)

	_, _, err = engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.True(dErrors.HasCode(err, dErrors.CodeOutOfRange))
}

// ==================== Clock-out ====================

func (s *EngineSuite) TestClockOutComputesRoundedHours() {
	_, _, err := s.engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.Require().NoError(err)

	// 8h07m = 8.116... hours, rounds to 8.12.
	later := s.at(s.now.Add(8*time.Hour + 7*time.Minute))
	entry, err := s.engine.ClockOut(later, "john-doe")
	s.Require().NoError(err)
	s.Equal(8.12, entry.HoursWorked)
	s.False(entry.Open())

	emp, err := s.employees.Get(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.Equal(domain.StatusClockedOut, emp.CurrentStatus)
	s.Equal(8.12, emp.TotalHoursThisWeek)
}

func (s *EngineSuite) TestClockOutZeroDurationAllowed() {
	_, _, err := s.engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.Require().NoError(err)

	entry, err := s.engine.ClockOut(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.Zero(entry.HoursWorked)
}

func (s *EngineSuite) TestClockOutWithoutSession() {
	_, err := s.engine.ClockOut(s.ctx, "john-doe")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *EngineSuite) TestClockOutBeforeClockInRejected() {
	_, _, err := s.engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.Require().NoError(err)

	earlier := s.at(s.now.Add(-time.Minute))
	_, err = s.engine.ClockOut(earlier, "john-doe")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// ==================== Status ====================

func (s *EngineSuite) TestStatusConsistent() {
	report, err := s.engine.Status(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.False(report.Inconsistent)
	s.Nil(report.OpenEntry)

	_, _, err = s.engine.ClockIn(s.ctx, "john-doe", nearLat, siteLng)
	s.Require().NoError(err)

	report, err = s.engine.Status(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.False(report.Inconsistent)
	s.Require().NotNil(report.OpenEntry)
	s.Equal(s.now, report.OpenEntry.ClockInTime)
}

func (s *EngineSuite) TestStatusSurfacesInconsistency() {
	// Justification: with no transactions, a crash between the entry append
	// and the status write leaves the two disagreeing. The ledger is the
	// source of truth and the report must say so rather than hide it.
	s.mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, [][]string{
		{"john-doe", "John Doe", "2024-03-06T08:00:00Z", "", "2024-03-06",
			"0", "0", "", "false", "", ""},
	})

	report, err := s.engine.Status(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.True(report.Inconsistent, "open entry but status row says clocked out")
	s.NotNil(report.OpenEntry)
}

// ==================== Timesheet ====================

func (s *EngineSuite) TestTimesheetWindowAndTotals() {
	rows := [][]string{
		// Today, 4h.
		{"john-doe", "John Doe", "2024-03-06T04:00:00Z", "2024-03-06T08:00:00Z", "2024-03-06", "0", "0", "4", "false", "", ""},
		// Monday this week, 8h.
		{"john-doe", "John Doe", "2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z", "2024-03-04", "0", "0", "8", "false", "", ""},
		// Saturday before the Sunday week start: in the 7-day window but
		// not in this week's total.
		{"john-doe", "John Doe", "2024-03-02T09:00:00Z", "2024-03-02T13:00:00Z", "2024-03-02", "0", "0", "4", "false", "", ""},
		// Older than seven days: excluded from the list entirely.
		{"john-doe", "John Doe", "2024-02-20T09:00:00Z", "2024-02-20T17:00:00Z", "2024-02-20", "0", "0", "8", "false", "", ""},
		// Another employee.
		{"someone-else", "Someone Else", "2024-03-06T04:00:00Z", "2024-03-06T08:00:00Z", "2024-03-06", "0", "0", "4", "false", "", ""},
	}
	s.mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, rows)

	sheet, err := s.engine.Timesheet(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.Len(sheet.Entries, 3)
	// Newest first.
	s.Equal("2024-03-06", sheet.Entries[0].Date)
	s.Equal("2024-03-02", sheet.Entries[2].Date)
	s.Equal(4.0, sheet.TodayHours)
	s.Equal(12.0, sheet.WeekHours, "Saturday entry is outside the Sunday-start week")
}

func (s *EngineSuite) TestTimesheetCapsAtTen() {
	rows := make([][]string, 0, 14)
	for i := 0; i < 14; i++ {
		in := s.now.Add(-time.Duration(i) * time.Hour)
		out := in.Add(30 * time.Minute)
		rows = append(rows, []string{
			"john-doe", "John Doe",
			in.Format(time.RFC3339), out.Format(time.RFC3339),
			in.Format("2006-01-02"), "0", "0", "0.5", "false", "", "",
		})
	}
	s.mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, rows)

	sheet, err := s.engine.Timesheet(s.ctx, "john-doe")
	s.Require().NoError(err)
	s.Len(sheet.Entries, timesheetMaxEntries)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// ==================== Partial failure ordering ====================

type failingEmployeeStore struct {
	*store.Employees
	failUpdate bool
}

func (f *failingEmployeeStore) Update(ctx context.Context, emp domain.Employee) error {
	if f.failUpdate {
		return errors.New("quota exceeded")
	}
	return f.Employees.Update(ctx, emp)
}

func TestClockInAppendsEntryBeforeStatusWrite(t *testing.T) {
	mem := sheets.NewMemory()
	mem.Seed(store.SheetEmployees, store.EmployeeColumns, [][]string{
		{"john-doe", "John Doe", "true", "clocked_out", "", "", "0", "hash"},
	})
	mem.Seed(store.SheetJobSites, store.JobSiteColumns, [][]string{
		{"hq", "HQ", fmt.Sprintf("%v", siteLat), fmt.Sprintf("%v", siteLng), "150", ""},
	})
	mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, nil)
	employees, err := store.NewEmployees(mem)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := store.NewTimeEntries(mem)
	if err != nil {
		t.Fatal(err)
	}
	settings, err := store.NewSettings(mem)
	if err != nil {
		t.Fatal(err)
	}
	sites, err := store.NewSites(mem, settings)
	if err != nil {
		t.Fatal(err)
	}
	failing := &failingEmployeeStore{Employees: employees, failUpdate: true}
	engine, err := NewEngine(failing, entries, sites, &verifierStub{matched: true})
	if err != nil {
		t.Fatal(err)
	}

	ctx := requestcontext.WithClientIP(
		requestcontext.WithTime(context.Background(), time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)),
		"203.0.113.7")
	_, _, err = engine.ClockIn(ctx, "john-doe", 0, 0)
	if !dErrors.HasCode(err, dErrors.CodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}

	// The entry made it to the ledger even though the status write failed;
	// the session is recoverable, not lost.
	open, err := entries.Open(ctx, "john-doe")
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 {
		t.Fatalf("want 1 open entry, got %d", len(open))
	}
}
