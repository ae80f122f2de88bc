package sheets

import "errors"

// Sentinel errors for store facts. Typed stores translate these into domain
// errors at their boundary.
var (
	// ErrSheetNotFound: the named sheet does not exist in the spreadsheet.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrRowNotFound: no row matched the requested column value.
	ErrRowNotFound = errors.New("row not found")

	// ErrUnavailable: the remote store call failed or timed out. Retryable
	// by the client, never retried here.
	ErrUnavailable = errors.New("record store unavailable")
)
