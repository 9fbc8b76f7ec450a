package core

import (
	"context"
	"sync"
	"time"

	"github.com/hausmate/hausmate-core/internal/domain/payroll"
)

// RateSource loads the current deduction/fee rate table from wherever it is
// authored (configuration, an admin settings document).
type RateSource interface {
	Load(ctx context.Context) (payroll.RateTable, error)
}

// RateSourceFunc adapts a function to the RateSource interface.
type RateSourceFunc func(ctx context.Context) (payroll.RateTable, error)

// Load implements the RateSource interface.
func (f RateSourceFunc) Load(ctx context.Context) (payroll.RateTable, error) {
	return f(ctx)
}

// StaticRateSource returns a RateSource that always yields the given table.
func StaticRateSource(table payroll.RateTable) RateSource {
	return RateSourceFunc(func(context.Context) (payroll.RateTable, error) {
		return table, nil
	})
}

// RateTableCacheConfig holds configuration for the rate-table cache.
type RateTableCacheConfig struct {
	TTL time.Duration `json:"ttl"`
}

// DefaultRateTableCacheConfig returns a RateTableCacheConfig with sensible defaults.
func DefaultRateTableCacheConfig() RateTableCacheConfig {
	return RateTableCacheConfig{TTL: 10 * time.Minute}
}

// RateTableCacheOptions bundles dependencies for NewRateTableCache.
type RateTableCacheOptions struct {
	Source RateSource
	Clock  Clock
	Config RateTableCacheConfig
}

// RateTableCache is an explicit TTL cache over a RateSource. It is owned and
// wired by the caller, carries an injectable clock, and supports explicit
// invalidation; there is no module-level singleton.
type RateTableCache struct {
	source RateSource
	clock  Clock
	ttl    time.Duration

	mu        sync.Mutex
	table     payroll.RateTable
	fetchedAt time.Time
	valid     bool
}

// NewRateTableCache creates a RateTableCache.
func NewRateTableCache(opts RateTableCacheOptions) *RateTableCache {
	clock := opts.Clock
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	ttl := opts.Config.TTL
	if ttl <= 0 {
		ttl = DefaultRateTableCacheConfig().TTL
	}
	return &RateTableCache{
		source: opts.Source,
		clock:  clock,
		ttl:    ttl,
	}
}

// Get returns the cached rate table, reloading from the source when the entry
// is missing, expired, or invalidated. A reload failure with a live cached
// entry serves the stale table rather than failing the billing path.
func (c *RateTableCache) Get(ctx context.Context) (payroll.RateTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.valid && now.Sub(c.fetchedAt) < c.ttl {
		return c.table, nil
	}

	table, err := c.source.Load(ctx)
	if err != nil {
		if c.valid {
			return c.table, nil
		}
		return payroll.RateTable{}, err
	}
	if verr := table.Validate(); verr != nil {
		if c.valid {
			return c.table, nil
		}
		return payroll.RateTable{}, verr
	}

	c.table = table
	c.fetchedAt = now
	c.valid = true
	return c.table, nil
}

// Invalidate drops the cached entry so the next Get reloads from the source.
func (c *RateTableCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}
