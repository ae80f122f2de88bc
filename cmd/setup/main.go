// Command setup bootstraps the record store: it creates every sheet the
// service expects (with header rows) in the configured spreadsheet and
// seeds an initial job site and settings when the tabs are empty. Safe to
// run repeatedly; existing sheets and rows are left alone.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/mattrav05/timeclock-app/internal/platform/config"
	"github.com/mattrav05/timeclock-app/internal/platform/logger"
	"github.com/mattrav05/timeclock-app/internal/sheets"
	"github.com/mattrav05/timeclock-app/internal/store"
)

func main() {
	siteName := flag.String("site-name", "Main Office", "seed job site name")
	siteLat := flag.Float64("site-lat", 41.8781, "seed job site latitude")
	siteLng := flag.Float64("site-lng", -87.6298, "seed job site longitude")
	siteRadius := flag.Float64("site-radius", 100, "seed job site geofence radius in meters")
	siteAddress := flag.String("site-address", "", "seed job site street address")
	company := flag.String("company", "Timeclock", "company name stored in settings")
	flag.Parse()

	log := logger.New()
	slog.SetDefault(log)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if cfg.SpreadsheetID == "" {
		log.Error("SPREADSHEET_ID is required")
		os.Exit(1)
	}

	ctx := context.Background()
	sheetStore, err := sheets.NewGoogle(ctx, cfg)
	if err != nil {
		log.Error("connect to spreadsheet failed", "error", err)
		os.Exit(1)
	}

	seed := seedSite{
		name:    *siteName,
		lat:     *siteLat,
		lng:     *siteLng,
		radius:  *siteRadius,
		address: *siteAddress,
	}
	if err := bootstrap(ctx, sheetStore, seed, *company); err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	log.Info("record store ready", "spreadsheet_id", cfg.SpreadsheetID)
}

type seedSite struct {
	name    string
	lat     float64
	lng     float64
	radius  float64
	address string
}

// bootstrap ensures every sheet exists and seeds the empty optional ones.
func bootstrap(ctx context.Context, s sheets.Store, site seedSite, company string) error {
	if err := store.EnsureSchema(ctx, s); err != nil {
		return err
	}

	empty, err := sheetEmpty(ctx, s, store.SheetJobSites)
	if err != nil {
		return err
	}
	if empty {
		row := []string{
			"1", site.name,
			strconv.FormatFloat(site.lat, 'f', -1, 64),
			strconv.FormatFloat(site.lng, 'f', -1, 64),
			strconv.FormatFloat(site.radius, 'f', -1, 64),
			site.address,
		}
		if err := s.AppendRows(ctx, store.SheetJobSites, [][]string{row}); err != nil {
			return fmt.Errorf("seed job site: %w", err)
		}
	}

	empty, err = sheetEmpty(ctx, s, store.SheetSettings)
	if err != nil {
		return err
	}
	if empty {
		rows := [][]string{
			{"companyName", company},
			{"defaultJobSiteId", "1"},
		}
		if err := s.AppendRows(ctx, store.SheetSettings, rows); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
	}
	return nil
}

func sheetEmpty(ctx context.Context, s sheets.Store, name string) (bool, error) {
	rows, err := s.ReadSheet(ctx, name)
	if err != nil {
		if errors.Is(err, sheets.ErrSheetNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	return len(rows) == 0, nil
}
