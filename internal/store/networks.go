package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/internal/sheets"
)

// Networks reads and writes the AllowedNetworks sheet. The sheet is optional:
// a deployment without it verifies by GPS only.
type Networks struct {
	sheet sheets.Store
}

func NewNetworks(sheet sheets.Store) (*Networks, error) {
	if sheet == nil {
		return nil, errors.New("networks store: sheet store is required")
	}
	return &Networks{sheet: sheet}, nil
}

// All returns every rule in sheet order. A missing sheet reads as no rules.
func (s *Networks) All(ctx context.Context) ([]domain.NetworkRule, error) {
	rows, err := s.sheet.ReadSheet(ctx, SheetNetworks)
	if err != nil {
		if errors.Is(err, sheets.ErrSheetNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read allowed networks: %w", err)
	}
	out := make([]domain.NetworkRule, 0, len(rows))
	for _, row := range rows {
		if row["id"] == "" {
			continue
		}
		out = append(out, decodeNetworkRule(row))
	}
	return out, nil
}

// Active returns only the rules with isActive set.
func (s *Networks) Active(ctx context.Context) ([]domain.NetworkRule, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.NetworkRule, 0, len(all))
	for _, rule := range all {
		if rule.IsActive {
			active = append(active, rule)
		}
	}
	return active, nil
}

// Get returns the rule with the given id, or (nil, nil) when absent.
func (s *Networks) Get(ctx context.Context, id string) (*domain.NetworkRule, error) {
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

// Append adds a new rule row, creating the sheet first if it is missing.
func (s *Networks) Append(ctx context.Context, rule domain.NetworkRule) error {
	if err := s.sheet.EnsureSheet(ctx, SheetNetworks, NetworkColumns); err != nil {
		return fmt.Errorf("ensure allowed networks sheet: %w", err)
	}
	if err := s.sheet.AppendRows(ctx, SheetNetworks, [][]string{encodeNetworkRule(rule)}); err != nil {
		return fmt.Errorf("append network rule %s: %w", rule.ID, err)
	}
	return nil
}

// Update locates the rule's row by id and rewrites it in full.
func (s *Networks) Update(ctx context.Context, rule domain.NetworkRule) error {
	rowNum, err := s.sheet.FindRowNumber(ctx, SheetNetworks, "id", rule.ID)
	if err != nil {
		return fmt.Errorf("locate network rule %s: %w", rule.ID, err)
	}
	rangeRef := rowRange(len(NetworkColumns), rowNum)
	if err := s.sheet.UpdateRange(ctx, SheetNetworks, rangeRef, [][]string{encodeNetworkRule(rule)}); err != nil {
		return fmt.Errorf("update network rule %s: %w", rule.ID, err)
	}
	return nil
}

func decodeNetworkRule(row sheets.Row) domain.NetworkRule {
	return domain.NetworkRule{
		ID:        row["id"],
		Name:      row["name"],
		IPAddress: row["ipAddress"],
		IsActive:  parseBool(row["isActive"]),
		Notes:     row["notes"],
	}
}

func encodeNetworkRule(rule domain.NetworkRule) []string {
	return []string{rule.ID, rule.Name, rule.IPAddress, formatBool(rule.IsActive), rule.Notes}
}
