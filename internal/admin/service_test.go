package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/sheets"
	"github.com/mattrav05/timeclock-app/internal/store"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

type AdminSuite struct {
	suite.Suite
	mem       *sheets.Memory
	employees *store.Employees
	service   *Service
	ctx       context.Context
}

func (s *AdminSuite) SetupTest() {
	s.mem = sheets.NewMemory()
	s.mem.Seed(store.SheetEmployees, store.EmployeeColumns, [][]string{
		{"john-doe", "John Doe", "true", "clocked_in", "2024-03-06T08:00:00Z", "", "8", "h1"},
		{"mary-major", "Mary Major", "true", "clocked_out", "", "2024-03-05T17:00:00Z", "16", "h2"},
		{"jane-gone", "Jane Gone", "false", "clocked_out", "", "", "0", "h3"},
	})
	s.mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, [][]string{
		// John: open entry today.
		{"john-doe", "John Doe", "2024-03-06T08:00:00Z", "", "2024-03-06", "0", "0", "", "false", "", ""},
		// Mary: 8h yesterday (this week), 4h today.
		{"mary-major", "Mary Major", "2024-03-05T09:00:00Z", "2024-03-05T17:00:00Z", "2024-03-05", "0", "0", "8", "false", "", ""},
		{"mary-major", "Mary Major", "2024-03-06T04:00:00Z", "2024-03-06T08:00:00Z", "2024-03-06", "0", "0", "4", "false", "", ""},
		// Mary: last month, outside the week.
		{"mary-major", "Mary Major", "2024-02-10T09:00:00Z", "2024-02-10T17:00:00Z", "2024-02-10", "0", "0", "8", "false", "", ""},
	})

	var err error
	s.employees, err = store.NewEmployees(s.mem)
	s.Require().NoError(err)
	entries, err := store.NewTimeEntries(s.mem)
	s.Require().NoError(err)
	networks, err := store.NewNetworks(s.mem)
	s.Require().NoError(err)

	s.service, err = NewService(s.employees, entries, networks)
	s.Require().NoError(err)

	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC) // a Wednesday
	s.ctx = requestcontext.WithAdminUser(
		requestcontext.WithTime(context.Background(), now), "admin")
}

// ==================== Dashboard ====================

func (s *AdminSuite) TestDashboardAggregates() {
	dash, err := s.service.Dashboard(s.ctx)
	s.Require().NoError(err)

	s.Len(dash.Employees, 3)
	s.Require().Len(dash.ClockedIn, 1)
	s.Equal("john-doe", dash.ClockedIn[0].ID)
	s.Equal(1, dash.OpenEntryCount)

	s.Equal(4.0, dash.TodayHours, "only completed entries count")
	s.Equal(12.0, dash.WeekHours)

	s.Require().Len(dash.RecentEntries, 4)
	s.Equal("2024-03-06", dash.RecentEntries[0].Date, "newest first")

	var mary EmployeeSummary
	for _, summary := range dash.Employees {
		if summary.Employee.ID == "mary-major" {
			mary = summary
		}
	}
	s.Equal(4.0, mary.TodayHours)
	s.Equal(12.0, mary.WeekHours)
}

// ==================== Employees ====================

func (s *AdminSuite) TestCreateEmployeeSlugAndHash() {
	emp, err := s.service.CreateEmployee(s.ctx, "Zoë  O'Brien Jr", "pass123")
	s.Require().NoError(err)
	s.Equal("zo-obrien-jr", emp.ID)
	s.True(emp.IsActive)
	s.Equal(domain.StatusClockedOut, emp.CurrentStatus)

	stored, err := s.employees.Get(s.ctx, emp.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")))
}

func (s *AdminSuite) TestCreateEmployeeDuplicateSlugConflicts() {
	_, err := s.service.CreateEmployee(s.ctx, "John Doe", "pass123")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AdminSuite) TestUpdateEmployeeDeactivateIsSoftDelete() {
	active := false
	_, err := s.service.UpdateEmployee(s.ctx, "mary-major", EmployeeUpdate{IsActive: &active})
	s.Require().NoError(err)

	// Gone from the default listing but still on the roster.
	listed, err := s.service.ListEmployees(s.ctx, false)
	s.Require().NoError(err)
	s.Len(listed, 1)
	all, err := s.service.ListEmployees(s.ctx, true)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *AdminSuite) TestUpdateEmployeePreservesUntouchedFields() {
	name := "Mary M. Major"
	emp, err := s.service.UpdateEmployee(s.ctx, "mary-major", EmployeeUpdate{Name: &name})
	s.Require().NoError(err)
	s.Equal("Mary M. Major", emp.Name)
	s.Equal("h2", emp.PasswordHash)
	s.Equal(16.0, emp.TotalHoursThisWeek)
}

func (s *AdminSuite) TestUpdateEmployeeUnknown() {
	name := "Ghost"
	_, err := s.service.UpdateEmployee(s.ctx, "ghost", EmployeeUpdate{Name: &name})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// ==================== Networks ====================

func (s *AdminSuite) TestNetworkLifecycle() {
	rule, err := s.service.AddNetwork(s.ctx, "Main Office", "203.0.113.7", "front desk")
	s.Require().NoError(err)
	s.Equal("main-office", rule.ID)
	s.True(rule.IsActive)

	inactive := false
	rule, err = s.service.UpdateNetwork(s.ctx, "main-office", NetworkUpdate{IsActive: &inactive})
	s.Require().NoError(err)
	s.False(rule.IsActive)
	s.Equal("203.0.113.7", rule.IPAddress, "untouched fields survive the full-row write")

	rules, err := s.service.ListNetworks(s.ctx)
	s.Require().NoError(err)
	s.Len(rules, 1)
}

func (s *AdminSuite) TestAddNetworkValidation() {
	_, err := s.service.AddNetwork(s.ctx, "", "203.0.113.7", "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.AddNetwork(s.ctx, "Office", "", "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// ==================== Export ====================

func (s *AdminSuite) TestExportCSVFiltered() {
	var buf bytes.Buffer
	s.Require().NoError(s.service.ExportCSV(s.ctx, &buf, "mary-major"))

	records, err := csv.NewReader(&buf).ReadAll()
	s.Require().NoError(err)
	s.Require().Len(records, 4, "header plus three entries")
	s.Equal(exportHeader, records[0])
	s.Equal("2024-03-06", records[1][2], "newest first")
	s.Equal("4.00", records[1][5])
}

func (s *AdminSuite) TestExportCSVAllIncludesOpenEntries() {
	var buf bytes.Buffer
	s.Require().NoError(s.service.ExportCSV(s.ctx, &buf, ""))

	records, err := csv.NewReader(&buf).ReadAll()
	s.Require().NoError(err)
	s.Len(records, 5)
	s.Equal("", records[1][4], "open entry has no clock-out")
}

func TestAdminSuite(t *testing.T) {
	suite.Run(t, new(AdminSuite))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"John Doe":      "john-doe",
		"  John  Doe  ": "john-doe",
		"O'Brien":       "obrien",
		"ALL CAPS":      "all-caps",
		"---":           "",
		"a b-c":         "a-b-c",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
