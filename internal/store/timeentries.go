package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/sheets"
)

// ErrEntryNotFound reports that no time entry matched the natural key
// (employee id + clock-in timestamp).
var ErrEntryNotFound = errors.New("time entry not found")

// TimeEntries reads and writes the TimeEntries sheet. Entries have no row id;
// the natural key is (employeeId, clockInTime), and mutations locate the row
// by scanning so the row number is never trusted across calls.
type TimeEntries struct {
	sheet sheets.Store
}

func NewTimeEntries(sheet sheets.Store) (*TimeEntries, error) {
	if sheet == nil {
		return nil, errors.New("time entries store: sheet store is required")
	}
	return &TimeEntries{sheet: sheet}, nil
}

// All returns every non-tombstoned entry in sheet order.
func (s *TimeEntries) All(ctx context.Context) ([]domain.TimeEntry, error) {
	rows, err := s.sheet.ReadSheet(ctx, SheetTimeEntries)
	if err != nil {
		return nil, fmt.Errorf("read time entries: %w", err)
	}
	out := make([]domain.TimeEntry, 0, len(rows))
	for _, row := range rows {
		entry := decodeTimeEntry(row)
		if entry.Tombstoned() {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// ByEmployee returns the employee's non-tombstoned entries in sheet order.
func (s *TimeEntries) ByEmployee(ctx context.Context, employeeID string) ([]domain.TimeEntry, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TimeEntry, 0, len(all))
	for _, entry := range all {
		if entry.EmployeeID == employeeID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Open returns the employee's open entries (clocked in, not yet out). Under
// the no-isolation discipline there can transiently be more than one; callers
// decide how to surface that.
func (s *TimeEntries) Open(ctx context.Context, employeeID string) ([]domain.TimeEntry, error) {
	entries, err := s.ByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	open := make([]domain.TimeEntry, 0, 1)
	for _, entry := range entries {
		if entry.Open() {
			open = append(open, entry)
		}
	}
	return open, nil
}

// Append adds a new entry row.
func (s *TimeEntries) Append(ctx context.Context, entry domain.TimeEntry) error {
	if err := s.sheet.AppendRows(ctx, SheetTimeEntries, [][]string{encodeTimeEntry(entry)}); err != nil {
		return fmt.Errorf("append time entry for %s: %w", entry.EmployeeID, err)
	}
	return nil
}

// Update rewrites the full row identified by the natural key. keyClockIn is
// the clock-in timestamp the row currently holds; entry may carry a new one.
// Returns ErrEntryNotFound when no live row matches.
func (s *TimeEntries) Update(ctx context.Context, employeeID, keyClockIn string, entry domain.TimeEntry) error {
	rowNum, _, err := s.locate(ctx, employeeID, keyClockIn)
	if err != nil {
		return err
	}
	rangeRef := rowRange(len(TimeEntryColumns), rowNum)
	if err := s.sheet.UpdateRange(ctx, SheetTimeEntries, rangeRef, [][]string{encodeTimeEntry(entry)}); err != nil {
		return fmt.Errorf("update time entry for %s: %w", employeeID, err)
	}
	return nil
}

// Tombstone blanks the row identified by the natural key, keeping the row in
// place so other rows keep their numbers. Returns the entry as it stood
// before deletion, or ErrEntryNotFound.
func (s *TimeEntries) Tombstone(ctx context.Context, employeeID, keyClockIn string) (*domain.TimeEntry, error) {
	rowNum, prior, err := s.locate(ctx, employeeID, keyClockIn)
	if err != nil {
		return nil, err
	}
	blank := make([]string, len(TimeEntryColumns))
	rangeRef := rowRange(len(TimeEntryColumns), rowNum)
	if err := s.sheet.UpdateRange(ctx, SheetTimeEntries, rangeRef, [][]string{blank}); err != nil {
		return nil, fmt.Errorf("tombstone time entry for %s: %w", employeeID, err)
	}
	return prior, nil
}

// locate scans for the live row matching the natural key and returns its
// 1-based sheet row number together with the decoded entry.
func (s *TimeEntries) locate(ctx context.Context, employeeID, keyClockIn string) (int, *domain.TimeEntry, error) {
	rows, err := s.sheet.ReadSheet(ctx, SheetTimeEntries)
	if err != nil {
		return 0, nil, fmt.Errorf("read time entries: %w", err)
	}
	for i, row := range rows {
		if row["employeeId"] != employeeID || row["clockInTime"] != keyClockIn {
			continue
		}
		entry := decodeTimeEntry(row)
		return i + 2, &entry, nil
	}
	return 0, nil, ErrEntryNotFound
}

func decodeTimeEntry(row sheets.Row) domain.TimeEntry {
	return domain.TimeEntry{
		EmployeeID:   row["employeeId"],
		EmployeeName: row["employeeName"],
		ClockInTime:  parseTime(row["clockInTime"]),
		ClockOutTime: parseTime(row["clockOutTime"]),
		Date:         row["date"],
		LocationLat:  parseFloat(row["locationLat"]),
		LocationLng:  parseFloat(row["locationLng"]),
		HoursWorked:  parseFloat(row["hoursWorked"]),
		IsEdited:     parseBool(row["isEdited"]),
		EditedBy:     row["editedBy"],
		Notes:        row["notes"],
	}
}

func encodeTimeEntry(entry domain.TimeEntry) []string {
	return []string{
		entry.EmployeeID,
		entry.EmployeeName,
		formatTime(entry.ClockInTime),
		formatTime(entry.ClockOutTime),
		entry.Date,
		formatFloat(entry.LocationLat),
		formatFloat(entry.LocationLng),
		formatFloat(entry.HoursWorked),
		formatBool(entry.IsEdited),
		entry.EditedBy,
		entry.Notes,
	}
}
