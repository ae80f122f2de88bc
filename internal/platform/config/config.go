// Package config resolves process configuration once at startup. Components
// receive the values they need through constructors; business logic never
// reads the environment directly.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr string `env:"TIMECLOCK_ADDR" envDefault:":8080"`

	// Record store (Google Sheets) credentials.
	SpreadsheetID     string        `env:"SPREADSHEET_ID"`
	SheetsClientEmail string        `env:"GOOGLE_SHEETS_CLIENT_EMAIL"`
	SheetsPrivateKey  string        `env:"GOOGLE_SHEETS_PRIVATE_KEY"`
	SheetsCallTimeout time.Duration `env:"SHEETS_CALL_TIMEOUT" envDefault:"15s"`

	// Session gate. Admin password gates token issuance; tokens themselves
	// are signed with the JWT key.
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin123"`

	// Public IP fallback used when the resolved client address is loopback
	// (local development accommodation, not the production path).
	IPLookupURL     string        `env:"IP_LOOKUP_URL" envDefault:"https://api.ipify.org?format=json"`
	IPLookupTimeout time.Duration `env:"IP_LOOKUP_TIMEOUT" envDefault:"5s"`

	Redis RedisConfig `envPrefix:"REDIS_"`
}

// RedisConfig configures the optional allow-list cache. An empty URL
// disables caching entirely.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	RuleCacheTTL time.Duration `env:"RULE_CACHE_TTL" envDefault:"30s"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
