package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattrav05/timeclock-app/internal/sheets"
)

// Settings reads the key/value Settings sheet. The sheet is optional; a
// missing sheet or key reads as the empty string.
type Settings struct {
	sheet sheets.Store
}

func NewSettings(sheet sheets.Store) (*Settings, error) {
	if sheet == nil {
		return nil, errors.New("settings store: sheet store is required")
	}
	return &Settings{sheet: sheet}, nil
}

// Value returns the value for key, or "" when the sheet or key is absent.
func (s *Settings) Value(ctx context.Context, key string) (string, error) {
	rows, err := s.sheet.ReadSheet(ctx, SheetSettings)
	if err != nil {
		if errors.Is(err, sheets.ErrSheetNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read settings: %w", err)
	}
	for _, row := range rows {
		if row["setting"] == key {
			return row["value"], nil
		}
	}
	return "", nil
}
