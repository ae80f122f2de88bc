// Package sheets is the record-store adapter. The backing store is a tabular
// ledger (a Google spreadsheet in production, an in-memory fake in tests)
// with header-named columns, no transactions, and addressing only by 1-based
// row number.
//
// The consistency discipline lives here and in the typed stores above it:
// rows are located by scanning on a natural key, updates write full rows to
// avoid partially-stale columns, appends are at-least-once, and deletes blank
// cells in place so row numbers stay stable for concurrent operations.
package sheets

import "context"

// Row is one data row keyed by header name. Values are the raw cell strings;
// decoding into typed entities happens in the store layer.
type Row map[string]string

// Store is the adapter contract consumed by every typed store.
type Store interface {
	// ReadSheet returns all data rows of a sheet in order. A sheet that does
	// not exist yields ErrSheetNotFound; callers that treat the sheet as
	// optional read that as "no data yet".
	ReadSheet(ctx context.Context, name string) ([]Row, error)

	// AppendRows appends rows after the last data row. At-least-once: a
	// retry after an ambiguous failure can duplicate the append, so callers
	// must re-check their invariants rather than retry blindly.
	AppendRows(ctx context.Context, name string, values [][]string) error

	// UpdateRange overwrites the cells of rangeRef (e.g. "A5:K5") with
	// values. Last-writer-wins; there is no read-modify-write isolation.
	UpdateRange(ctx context.Context, name, rangeRef string, values [][]string) error

	// FindRowNumber scans column for the first exact value match and returns
	// its 1-based sheet row number (header row is row 1, first data row is
	// row 2). Returns ErrRowNotFound when no row matches.
	FindRowNumber(ctx context.Context, name, column, value string) (int, error)

	// EnsureSheet creates the named sheet with the given header row if it is
	// missing. No-op when the sheet already exists.
	EnsureSheet(ctx context.Context, name string, headers []string) error
}
