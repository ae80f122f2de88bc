package store

import (
	"strconv"
	"strings"
	"time"
)

// Cell codecs. The spreadsheet stores everything as strings; blank or
// malformed cells decode to zero values rather than failing the whole read,
// because a ledger shared with human editors will accumulate both.

const timeLayout = time.RFC3339

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
