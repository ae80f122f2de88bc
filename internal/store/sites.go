package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/sheets"
)

// Sites reads the JobSites sheet. The default site is named by the
// defaultJobSiteId setting.
type Sites struct {
	sheet    sheets.Store
	settings *Settings
}

func NewSites(sheet sheets.Store, settings *Settings) (*Sites, error) {
	if sheet == nil {
		return nil, errors.New("sites store: sheet store is required")
	}
	if settings == nil {
		return nil, errors.New("sites store: settings store is required")
	}
	return &Sites{sheet: sheet, settings: settings}, nil
}

// All returns every job site in sheet order. A missing sheet reads as none.
func (s *Sites) All(ctx context.Context) ([]domain.JobSite, error) {
	rows, err := s.sheet.ReadSheet(ctx, SheetJobSites)
	if err != nil {
		if errors.Is(err, sheets.ErrSheetNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read job sites: %w", err)
	}
	out := make([]domain.JobSite, 0, len(rows))
	for _, row := range rows {
		if row["id"] == "" {
			continue
		}
		out = append(out, domain.JobSite{
			ID:        row["id"],
			Name:      row["name"],
			Latitude:  parseFloat(row["latitude"]),
			Longitude: parseFloat(row["longitude"]),
			Radius:    parseFloat(row["radius"]),
			Address:   row["address"],
		})
	}
	return out, nil
}

// Default returns the site named by the defaultJobSiteId setting, falling
// back to the first site, or (nil, nil) when no sites are configured.
func (s *Sites) Default(ctx context.Context) (*domain.JobSite, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	wantID, err := s.settings.Value(ctx, "defaultJobSiteId")
	if err != nil {
		return nil, err
	}
	if wantID != "" {
		for i := range all {
			if all[i].ID == wantID {
				return &all[i], nil
			}
		}
	}
	return &all[0], nil
}
