package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/sheets"
)

// Employees reads and writes the Employees sheet. Lookups are keyed by
// employee id; a miss returns (nil, nil) so callers decide what absence means.
type Employees struct {
	sheet sheets.Store
}

func NewEmployees(sheet sheets.Store) (*Employees, error) {
	if sheet == nil {
		return nil, errors.New("employees store: sheet store is required")
	}
	return &Employees{sheet: sheet}, nil
}

// All returns every non-tombstoned employee in sheet order.
func (s *Employees) All(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.sheet.ReadSheet(ctx, SheetEmployees)
	if err != nil {
		return nil, fmt.Errorf("read employees: %w", err)
	}
	out := make([]domain.Employee, 0, len(rows))
	for _, row := range rows {
		if row["id"] == "" {
			continue
		}
		out = append(out, decodeEmployee(row))
	}
	return out, nil
}

// Get returns the employee with the given id, or (nil, nil) when absent.
func (s *Employees) Get(ctx context.Context, id string) (*domain.Employee, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Append adds a new employee row.
func (s *Employees) Append(ctx context.Context, emp domain.Employee) error {
	if err := s.sheet.AppendRows(ctx, SheetEmployees, [][]string{encodeEmployee(emp)}); err != nil {
		return fmt.Errorf("append employee %s: %w", emp.ID, err)
	}
	return nil
}

// Update locates the employee's row by id and rewrites it in full, so the
// status- and summary columns can never drift out of step with each other.
func (s *Employees) Update(ctx context.Context, emp domain.Employee) error {
	rowNum, err := s.sheet.FindRowNumber(ctx, SheetEmployees, "id", emp.ID)
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			return fmt.Errorf("update employee %s: %w", emp.ID, sheets.ErrRowNotFound)
		}
		return fmt.Errorf("locate employee %s: %w", emp.ID, err)
	}
	rangeRef := rowRange(len(EmployeeColumns), rowNum)
	if err := s.sheet.UpdateRange(ctx, SheetEmployees, rangeRef, [][]string{encodeEmployee(emp)}); err != nil {
		return fmt.Errorf("update employee %s: %w", emp.ID, err)
	}
	return nil
}

func decodeEmployee(row sheets.Row) domain.Employee {
	return domain.Employee{
		ID:                 row["id"],
		Name:               row["name"],
		IsActive:           parseBool(row["isActive"]),
		CurrentStatus:      domain.Status(row["currentStatus"]),
		LastClockIn:        parseTime(row["lastClockIn"]),
		LastClockOut:       parseTime(row["lastClockOut"]),
		TotalHoursThisWeek: parseFloat(row["totalHoursThisWeek"]),
		PasswordHash:       row["passwordHash"],
	}
}

func encodeEmployee(emp domain.Employee) []string {
	return []string{
		emp.ID,
		emp.Name,
		formatBool(emp.IsActive),
		string(emp.CurrentStatus),
		formatTime(emp.LastClockIn),
		formatTime(emp.LastClockOut),
		formatFloat(emp.TotalHoursThisWeek),
		emp.PasswordHash,
	}
}
