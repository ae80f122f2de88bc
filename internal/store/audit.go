package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/sheets"
)

// Audit appends to and reads the AuditLog sheet. The log is append-only and
// written after the mutation it describes; callers treat append failures as
// non-fatal so an audit outage cannot block reconciliation.
type Audit struct {
	sheet sheets.Store
}

func NewAudit(sheet sheets.Store) (*Audit, error) {
	if sheet == nil {
		return nil, errors.New("audit store: sheet store is required")
	}
	return &Audit{sheet: sheet}, nil
}

// Append records one audit entry, creating the sheet first if it is missing.
func (s *Audit) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	if err := s.sheet.EnsureSheet(ctx, SheetAuditLog, AuditColumns); err != nil {
		return fmt.Errorf("ensure audit log sheet: %w", err)
	}
	row := []string{
		formatTime(entry.Timestamp),
		entry.AdminUser,
		string(entry.Action),
		entry.EmployeeID,
		entry.EmployeeName,
		entry.Details,
		entry.OriginalData,
		entry.NewData,
	}
	if err := s.sheet.AppendRows(ctx, SheetAuditLog, [][]string{row}); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// All returns every audit entry in sheet order. A missing sheet reads as an
// empty log.
func (s *Audit) All(ctx context.Context) ([]domain.AuditLogEntry, error) {
	rows, err := s.sheet.ReadSheet(ctx, SheetAuditLog)
	if err != nil {
		if errors.Is(err, sheets.ErrSheetNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	out := make([]domain.AuditLogEntry, 0, len(rows))
	for _, row := range rows {
		if row["timestamp"] == "" && row["action"] == "" {
			continue
		}
		out = append(out, domain.AuditLogEntry{
			Timestamp:    parseTime(row["timestamp"]),
			AdminUser:    row["adminUser"],
			Action:       domain.AuditAction(row["action"]),
			EmployeeID:   row["employeeId"],
			EmployeeName: row["employeeName"],
			Details:      row["details"],
			OriginalData: row["originalData"],
			NewData:      row["newData"],
		})
	}
	return out, nil
}
