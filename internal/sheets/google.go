package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mattrav05/timeclock-app/internal/platform/config"
)

// Google implements Store against the Google Sheets API. All calls are
// bounded by callTimeout on top of the request context.
type Google struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	callTimeout   time.Duration
}

// serviceAccountKey is the minimal credentials document the Sheets client
// needs; built from the two env values the deployment provides.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// NewGoogle builds a Sheets-backed store from service account credentials.
func NewGoogle(ctx context.Context, cfg config.Config) (*Google, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}

	key, err := json.Marshal(serviceAccountKey{
		Type:        "service_account",
		ClientEmail: cfg.SheetsClientEmail,
		// Deployment env vars carry the key with escaped newlines.
		PrivateKey: strings.ReplaceAll(cfg.SheetsPrivateKey, `\n`, "\n"),
		TokenURI:   "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(key),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Google{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		callTimeout:   cfg.SheetsCallTimeout,
	}, nil
}

func (g *Google) ReadSheet(ctx context.Context, name string) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	resp, err := g.svc.Spreadsheets.Values.
		Get(g.spreadsheetID, name+"!A:Z").
		Context(ctx).Do()
	if err != nil {
		return nil, classify(name, err)
	}

	if len(resp.Values) == 0 {
		return nil, nil
	}

	headers := make([]string, len(resp.Values[0]))
	for i, h := range resp.Values[0] {
		headers[i] = cellString(h)
	}

	rows := make([]Row, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(raw) {
				row[header] = cellString(raw[i])
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *Google) AppendRows(ctx context.Context, name string, values [][]string) error {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	_, err := g.svc.Spreadsheets.Values.
		Append(g.spreadsheetID, name+"!A:Z", &sheetsapi.ValueRange{Values: toCells(values)}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return classify(name, err)
	}
	return nil
}

func (g *Google) UpdateRange(ctx context.Context, name, rangeRef string, values [][]string) error {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	_, err := g.svc.Spreadsheets.Values.
		Update(g.spreadsheetID, name+"!"+rangeRef, &sheetsapi.ValueRange{Values: toCells(values)}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return classify(name, err)
	}
	return nil
}

func (g *Google) FindRowNumber(ctx context.Context, name, column, value string) (int, error) {
	rows, err := g.ReadSheet(ctx, name)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if row[column] == value {
			// +2: header row plus 1-based indexing.
			return i + 2, nil
		}
	}
	return 0, ErrRowNotFound
}

func (g *Google) EnsureSheet(ctx context.Context, name string, headers []string) error {
	_, err := g.ReadSheet(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrSheetNotFound) {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: name},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return classify(name, err)
	}

	headerRange := fmt.Sprintf("A1:%s1", columnLetter(len(headers)-1))
	return g.UpdateRange(ctx, name, headerRange, [][]string{headers})
}

// classify maps Sheets API failures onto the adapter's sentinel errors.
// A 400 "Unable to parse range" is how the API reports a missing sheet.
func classify(sheet string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 404 ||
			(gerr.Code == 400 && strings.Contains(gerr.Message, "Unable to parse range")) {
			return fmt.Errorf("sheet %s: %w", sheet, ErrSheetNotFound)
		}
	}
	return fmt.Errorf("sheet %s: %w: %w", sheet, ErrUnavailable, err)
}

func toCells(values [][]string) [][]any {
	cells := make([][]any, len(values))
	for i, row := range values {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = v
		}
	}
	return cells
}

func cellString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// columnLetter converts a zero-based column index to its A1 letter. Sheets
// here never exceed 26 columns.
func columnLetter(idx int) string {
	return string(rune('A' + idx))
}
