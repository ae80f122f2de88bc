package attendance

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattrav05/timeclock-app/internal/sheets"
	"github.com/mattrav05/timeclock-app/internal/store"
	"github.com/mattrav05/timeclock-app/pkg/testutil"
)

func newTestRouter(t *testing.T, verifier *verifierStub) (chi.Router, *sheets.Memory) {
	t.Helper()
	mem := sheets.NewMemory()
	mem.Seed(store.SheetEmployees, store.EmployeeColumns, [][]string{
		{"john-doe", "John Doe", "true", "clocked_out", "", "", "0", "hash"},
	})
	mem.Seed(store.SheetJobSites, store.JobSiteColumns, [][]string{
		{"hq", "HQ", fmt.Sprintf("%v", siteLat), fmt.Sprintf("%v", siteLng), "150", "1 Main St"},
	})
	mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, nil)

	employees, err := store.NewEmployees(mem)
	require.NoError(t, err)
	entries, err := store.NewTimeEntries(mem)
	require.NoError(t, err)
	settings, err := store.NewSettings(mem)
	require.NoError(t, err)
	sites, err := store.NewSites(mem, settings)
	require.NoError(t, err)
	engine, err := NewEngine(employees, entries, sites, verifier)
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(engine).Register(r)
	return r, mem
}

func clockRequest(t *testing.T, method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(t, method, path, body)
	req = testutil.AsEmployee(req, "john-doe")
	req = testutil.At(req, time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC))
	return testutil.FromIP(req, "203.0.113.7")
}

func TestClockInEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &verifierStub{matched: true})

	rr := testutil.DoRequest(router, clockRequest(t, http.MethodPost, "/api/clockin",
		map[string]float64{"latitude": nearLat, "longitude": siteLng}))

	require.Equal(t, http.StatusOK, rr.Code)
	body := testutil.DecodeJSON[struct {
		Entry      entryPayload `json:"entry"`
		VerifiedBy string       `json:"verifiedBy"`
	}](t, rr)
	assert.Equal(t, "network", body.VerifiedBy)
	assert.Equal(t, "2024-03-06T09:00:00Z", body.Entry.ClockInTime)
	assert.Empty(t, body.Entry.ClockOutTime)
}

func TestClockInEndpointOutOfRangeDetails(t *testing.T) {
	router, _ := newTestRouter(t, &verifierStub{})

	rr := testutil.DoRequest(router, clockRequest(t, http.MethodPost, "/api/clockin",
		map[string]float64{"latitude": farLat, "longitude": siteLng}))

	require.Equal(t, http.StatusForbidden, rr.Code)
	body := testutil.DecodeJSON[struct {
		Error   string         `json:"error"`
		Details map[string]any `json:"details"`
	}](t, rr)
	assert.Equal(t, "out_of_range", body.Error)
	assert.Equal(t, "HQ", body.Details["jobSite"])
	assert.Equal(t, "1 Main St", body.Details["address"])
	assert.Equal(t, 150.0, body.Details["allowedRadius"])
	assert.Greater(t, body.Details["distance"].(float64), 150.0)
}

func TestClockOutEndpoint(t *testing.T) {
	router, mem := newTestRouter(t, &verifierStub{})
	mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, [][]string{
		{"john-doe", "John Doe", "2024-03-06T01:00:00Z", "", "2024-03-06", "0", "0", "", "false", "", ""},
	})
	mem.Seed(store.SheetEmployees, store.EmployeeColumns, [][]string{
		{"john-doe", "John Doe", "true", "clocked_in", "2024-03-06T01:00:00Z", "", "0", "hash"},
	})

	rr := testutil.DoRequest(router, clockRequest(t, http.MethodPost, "/api/clockout", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := testutil.DecodeJSON[struct {
		HoursWorked float64 `json:"hoursWorked"`
	}](t, rr)
	assert.Equal(t, 8.0, body.HoursWorked)
}

func TestClockOutEndpointWithoutSession(t *testing.T) {
	router, _ := newTestRouter(t, &verifierStub{})

	rr := testutil.DoRequest(router, clockRequest(t, http.MethodPost, "/api/clockout", nil))

	require.Equal(t, http.StatusConflict, rr.Code)
	body := testutil.DecodeJSON[struct {
		Error string `json:"error"`
	}](t, rr)
	assert.Equal(t, "conflict", body.Error)
}

func TestStatusEndpointFlagsInconsistency(t *testing.T) {
	router, mem := newTestRouter(t, &verifierStub{})
	// Open entry on the ledger while the status row still says clocked out.
	mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, [][]string{
		{"john-doe", "John Doe", "2024-03-06T08:00:00Z", "", "2024-03-06", "0", "0", "", "false", "", ""},
	})

	rr := testutil.DoRequest(router, clockRequest(t, http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := testutil.DecodeJSON[statusResponse](t, rr)
	assert.True(t, body.Inconsistent)
	require.NotNil(t, body.OpenEntry)
	assert.Equal(t, "2024-03-06T08:00:00Z", body.OpenEntry.ClockInTime)
}

func TestTimesheetEndpoint(t *testing.T) {
	router, mem := newTestRouter(t, &verifierStub{})
	mem.Seed(store.SheetTimeEntries, store.TimeEntryColumns, [][]string{
		{"john-doe", "John Doe", "2024-03-06T04:00:00Z", "2024-03-06T08:00:00Z", "2024-03-06", "0", "0", "4", "false", "", ""},
	})

	rr := testutil.DoRequest(router, clockRequest(t, http.MethodGet, "/api/timesheet", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := testutil.DecodeJSON[timesheetResponse](t, rr)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, 4.0, body.TodayHours)
	assert.Equal(t, 4.0, body.WeekHours)
}
