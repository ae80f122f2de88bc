package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/mattrav05/timeclock-app/internal/domain"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
)

var exportHeader = []string{
	"employeeId", "employeeName", "date", "clockInTime", "clockOutTime",
	"hoursWorked", "isEdited", "editedBy", "notes",
}

// ExportCSV streams time entries as CSV, newest first. An empty employeeID
// exports the whole ledger.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, employeeID string) error {
	var (
		entries []domain.TimeEntry
		err     error
	)
	if employeeID == "" {
		entries, err = s.entries.All(ctx)
	} else {
		entries, err = s.entries.ByEmployee(ctx, employeeID)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "time entry lookup failed")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ClockInTime.After(entries[j].ClockInTime)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		clockOut := ""
		if !entry.ClockOutTime.IsZero() {
			clockOut = entry.ClockOutTime.UTC().Format(time.RFC3339)
		}
		record := []string{
			entry.EmployeeID,
			entry.EmployeeName,
			entry.Date,
			entry.ClockInTime.UTC().Format(time.RFC3339),
			clockOut,
			strconv.FormatFloat(entry.HoursWorked, 'f', 2, 64),
			strconv.FormatBool(entry.IsEdited),
			entry.EditedBy,
			entry.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
