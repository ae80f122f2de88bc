// Package store decodes the tabular ledger into the typed entities of the
// domain package and encodes them back. Untyped rows never leave this layer.
//
// Writes follow the row-addressing discipline: locate by natural key, write
// the full row, never remove rows.
package store

import (
	"context"
	"fmt"

	"github.com/mattrav05/timeclock-app/internal/sheets"
)

// Sheet names.
const (
	SheetEmployees   = "Employees"
	SheetTimeEntries = "TimeEntries"
	SheetJobSites    = "JobSites"
	SheetNetworks    = "AllowedNetworks"
	SheetAuditLog    = "AuditLog"
	SheetSettings    = "Settings"
)

// Column sets, in sheet order. Headers are looked up by name on read; the
// order matters only for full-row writes and header initialization.
var (
	EmployeeColumns = []string{
		"id", "name", "isActive", "currentStatus",
		"lastClockIn", "lastClockOut", "totalHoursThisWeek", "passwordHash",
	}
	TimeEntryColumns = []string{
		"employeeId", "employeeName", "clockInTime", "clockOutTime", "date",
		"locationLat", "locationLng", "hoursWorked", "isEdited", "editedBy", "notes",
	}
	JobSiteColumns = []string{"id", "name", "latitude", "longitude", "radius", "address"}
	NetworkColumns = []string{"id", "name", "ipAddress", "isActive", "notes"}
	AuditColumns   = []string{
		"timestamp", "adminUser", "action", "employeeId", "employeeName",
		"details", "originalData", "newData",
	}
	SettingsColumns = []string{"setting", "value"}
)

// EnsureSchema creates every sheet the service reads, with header rows.
// Existing sheets are left alone.
func EnsureSchema(ctx context.Context, s sheets.Store) error {
	tabs := []struct {
		name    string
		headers []string
	}{
		{SheetEmployees, EmployeeColumns},
		{SheetTimeEntries, TimeEntryColumns},
		{SheetJobSites, JobSiteColumns},
		{SheetNetworks, NetworkColumns},
		{SheetAuditLog, AuditColumns},
		{SheetSettings, SettingsColumns},
	}
	for _, tab := range tabs {
		if err := s.EnsureSheet(ctx, tab.name, tab.headers); err != nil {
			return fmt.Errorf("ensure %s: %w", tab.name, err)
		}
	}
	return nil
}

// rowRange builds the A1 range covering one full row of a sheet with the
// given column count, e.g. rowRange(11, 5) == "A5:K5".
func rowRange(columns, rowNumber int) string {
	return fmt.Sprintf("A%d:%c%d", rowNumber, rune('A'+columns-1), rowNumber)
}
