// Package domain holds the typed entities decoded at the record-store
// boundary. Nothing above the store layer sees raw sheet rows.
package domain

import "time"

// Status is the employee-visible clock state. There is no third state;
// transitions happen only through the attendance engine.
type Status string

const (
	StatusClockedIn  Status = "clocked_in"
	StatusClockedOut Status = "clocked_out"
)

// Employee mirrors a row of the Employees sheet. PasswordHash is a bcrypt
// hash; the plain-text display password of the legacy system is deliberately
// not carried.
type Employee struct {
	ID                 string
	Name               string
	IsActive           bool
	CurrentStatus      Status
	LastClockIn        time.Time
	LastClockOut       time.Time
	TotalHoursThisWeek float64
	PasswordHash       string
}

// TimeEntry mirrors a row of the TimeEntries sheet. A zero ClockOutTime
// means the entry is open; HoursWorked is meaningful only once closed.
type TimeEntry struct {
	EmployeeID   string
	EmployeeName string
	ClockInTime  time.Time
	ClockOutTime time.Time
	Date         string // local calendar date of clock-in, YYYY-MM-DD
	LocationLat  float64
	LocationLng  float64
	HoursWorked  float64
	IsEdited     bool
	EditedBy     string
	Notes        string
}

// Open reports whether the entry has no clock-out yet.
func (e TimeEntry) Open() bool { return e.ClockOutTime.IsZero() }

// Tombstoned reports whether the row was blanked by an admin delete. Rows
// are never physically removed so row addressing stays stable.
func (e TimeEntry) Tombstoned() bool {
	return e.EmployeeID == "" && e.ClockInTime.IsZero()
}

// JobSite is the geofence reference: a circular boundary around a center
// coordinate, radius in meters.
type JobSite struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	Radius    float64
	Address   string
}

// NetworkRule allow-lists a single public IP as proof of presence.
// Matching is exact-string; CIDR ranges are out of scope.
type NetworkRule struct {
	ID        string
	Name      string
	IPAddress string
	IsActive  bool
	Notes     string
}

// AuditAction identifies the kind of admin mutation an audit entry records.
type AuditAction string

const (
	AuditAddTimeEntry    AuditAction = "add_time_entry"
	AuditEditTimeEntry   AuditAction = "edit_time_entry"
	AuditDeleteTimeEntry AuditAction = "delete_time_entry"
)

// AuditLogEntry is an append-only record of an admin mutation. OriginalData
// and NewData are JSON snapshots; OriginalData is empty for adds and NewData
// is empty for deletes.
type AuditLogEntry struct {
	Timestamp    time.Time
	AdminUser    string
	Action       AuditAction
	EmployeeID   string
	EmployeeName string
	Details      string
	OriginalData string
	NewData      string
}

// VerificationChannel names which presence check admitted a clock-in.
type VerificationChannel string

const (
	VerifiedByNetwork VerificationChannel = "network"
	VerifiedByGPS     VerificationChannel = "gps"
)
