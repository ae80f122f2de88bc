package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15*time.Second, cfg.SheetsCallTimeout)
	assert.Equal(t, 5*time.Second, cfg.IPLookupTimeout)
	assert.Equal(t, 30*time.Second, cfg.Redis.RuleCacheTTL)
	assert.Empty(t, cfg.Redis.URL, "redis should be disabled by default")
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TIMECLOCK_ADDR", ":9090")
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("SHEETS_CALL_TIMEOUT", "3s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, 3*time.Second, cfg.SheetsCallTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}
