// Package netverify decides whether a request's network location proves
// presence: the client's public IP must exactly match an active allow-list
// rule. It is the first, cheaper verification channel; a miss here is not a
// rejection, the caller falls through to the GPS check.
package netverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/mattrav05/timeclock-app/internal/domain"
	platformredis "github.com/mattrav05/timeclock-app/internal/platform/redis"
)

const cacheKey = "netverify:active_ips"

// RuleSource supplies the active allow-list rules.
type RuleSource interface {
	Active(ctx context.Context) ([]domain.NetworkRule, error)
}

// IPLookup resolves the caller's public IP when the request address is not
// itself routable.
type IPLookup interface {
	PublicIP(ctx context.Context) (string, error)
}

// Verifier matches a request's public IP against the active allow-list.
type Verifier struct {
	rules    RuleSource
	lookup   IPLookup
	cache    *platformredis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Option configures optional Verifier collaborators.
type Option func(*Verifier)

// WithLogger sets the logger used for cache and lookup diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithCache enables read-through caching of the active rule set. A nil
// client leaves caching disabled.
func WithCache(cache *platformredis.Client, ttl time.Duration) Option {
	return func(v *Verifier) {
		v.cache = cache
		v.cacheTTL = ttl
	}
}

func New(rules RuleSource, lookup IPLookup, opts ...Option) (*Verifier, error) {
	if rules == nil {
		return nil, errors.New("netverify: rule source is required")
	}
	if lookup == nil {
		return nil, errors.New("netverify: ip lookup is required")
	}
	v := &Verifier{
		rules:  rules,
		lookup: lookup,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify reports whether clientIP (after public-address resolution) matches
// an active rule, and returns the address that was actually checked. An
// error means the check could not be completed; callers treat that the same
// as a miss.
func (v *Verifier) Verify(ctx context.Context, clientIP string) (bool, string, error) {
	resolved := clientIP
	if !routable(clientIP) {
		publicIP, err := v.lookup.PublicIP(ctx)
		if err != nil {
			return false, clientIP, fmt.Errorf("resolve public ip: %w", err)
		}
		resolved = publicIP
	}

	allowed, err := v.activeIPs(ctx)
	if err != nil {
		return false, resolved, err
	}
	for _, ip := range allowed {
		if ip == resolved {
			return true, resolved, nil
		}
	}
	return false, resolved, nil
}

// activeIPs returns the active allow-list addresses, consulting the cache
// first when one is configured. Cache failures degrade to a direct read.
func (v *Verifier) activeIPs(ctx context.Context) ([]string, error) {
	if v.cache != nil {
		raw, err := v.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var ips []string
			if jsonErr := json.Unmarshal(raw, &ips); jsonErr == nil {
				return ips, nil
			}
		}
	}

	rules, err := v.rules.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("load allow-list rules: %w", err)
	}
	ips := make([]string, 0, len(rules))
	for _, rule := range rules {
		ips = append(ips, rule.IPAddress)
	}

	if v.cache != nil {
		if raw, err := json.Marshal(ips); err == nil {
			if err := v.cache.Set(ctx, cacheKey, raw, v.cacheTTL).Err(); err != nil {
				v.logger.WarnContext(ctx, "allow-list cache write failed", "error", err)
			}
		}
	}
	return ips, nil
}

// routable reports whether addr is a public address worth matching directly.
// Loopback, private-range, and unparsable addresses all need the public
// lookup first.
func routable(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	return !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() && !ip.IsLinkLocalUnicast()
}
