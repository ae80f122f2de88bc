package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Memory is an in-memory Store with the same addressing semantics as the
// spreadsheet: header row at row 1, data from row 2, ranges in A1 notation.
// Used by service tests and as a fallback for local development.
type Memory struct {
	mu     sync.RWMutex
	sheets map[string]*memSheet
}

type memSheet struct {
	headers []string
	rows    [][]string
}

func NewMemory() *Memory {
	return &Memory{sheets: make(map[string]*memSheet)}
}

// Seed creates a sheet with headers and initial data rows, replacing any
// existing sheet of that name. Test setup helper.
func (m *Memory) Seed(name string, headers []string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]string, len(rows))
	for i, r := range rows {
		copied[i] = append([]string(nil), r...)
	}
	m.sheets[name] = &memSheet{headers: append([]string(nil), headers...), rows: copied}
}

func (m *Memory) ReadSheet(_ context.Context, name string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sheet, ok := m.sheets[name]
	if !ok {
		return nil, fmt.Errorf("sheet %s: %w", name, ErrSheetNotFound)
	}

	rows := make([]Row, 0, len(sheet.rows))
	for _, raw := range sheet.rows {
		row := make(Row, len(sheet.headers))
		for i, header := range sheet.headers {
			if i < len(raw) {
				row[header] = raw[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *Memory) AppendRows(_ context.Context, name string, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet, ok := m.sheets[name]
	if !ok {
		return fmt.Errorf("sheet %s: %w", name, ErrSheetNotFound)
	}
	for _, row := range values {
		sheet.rows = append(sheet.rows, append([]string(nil), row...))
	}
	return nil
}

func (m *Memory) UpdateRange(_ context.Context, name, rangeRef string, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet, ok := m.sheets[name]
	if !ok {
		return fmt.Errorf("sheet %s: %w", name, ErrSheetNotFound)
	}

	startCol, startRow, err := parseCellRef(strings.Split(rangeRef, ":")[0])
	if err != nil {
		return fmt.Errorf("sheet %s: range %q: %w", name, rangeRef, err)
	}

	for i, rowValues := range values {
		// Sheet rows are 1-based with the header at row 1.
		dataIdx := startRow - 2 + i
		if dataIdx < 0 {
			return fmt.Errorf("sheet %s: range %q addresses the header row", name, rangeRef)
		}
		for dataIdx >= len(sheet.rows) {
			sheet.rows = append(sheet.rows, make([]string, len(sheet.headers)))
		}
		row := sheet.rows[dataIdx]
		for j, v := range rowValues {
			col := startCol + j
			for col >= len(row) {
				row = append(row, "")
			}
			row[col] = v
		}
		sheet.rows[dataIdx] = row
	}
	return nil
}

func (m *Memory) FindRowNumber(ctx context.Context, name, column, value string) (int, error) {
	rows, err := m.ReadSheet(ctx, name)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if row[column] == value {
			return i + 2, nil
		}
	}
	return 0, ErrRowNotFound
}

func (m *Memory) EnsureSheet(_ context.Context, name string, headers []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sheets[name]; ok {
		return nil
	}
	m.sheets[name] = &memSheet{headers: append([]string(nil), headers...)}
	return nil
}

// parseCellRef splits "D7" into column index 3, row 7.
func parseCellRef(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
	}
	return col - 1, row, nil
}
