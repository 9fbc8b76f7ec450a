package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausmate/hausmate-core/internal/domain/payroll"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRateTableCache_ServesCachedWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	loads := 0
	source := RateSourceFunc(func(context.Context) (payroll.RateTable, error) {
		loads++
		return payroll.DefaultRateTable(), nil
	})

	cache := NewRateTableCache(RateTableCacheOptions{
		Source: source,
		Clock:  clock,
		Config: RateTableCacheConfig{TTL: time.Minute},
	})

	ctx := context.Background()
	_, err := cache.Get(ctx)
	require.NoError(t, err)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loads, "second Get within TTL must not hit the source")

	clock.Advance(2 * time.Minute)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "expired entry must reload")
}

func TestRateTableCache_InvalidateForcesReload(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	loads := 0
	source := RateSourceFunc(func(context.Context) (payroll.RateTable, error) {
		loads++
		return payroll.DefaultRateTable(), nil
	})

	cache := NewRateTableCache(RateTableCacheOptions{
		Source: source,
		Clock:  clock,
		Config: RateTableCacheConfig{TTL: time.Hour},
	})

	ctx := context.Background()
	_, err := cache.Get(ctx)
	require.NoError(t, err)

	cache.Invalidate()
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestRateTableCache_ServesStaleOnReloadFailure(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	calls := 0
	source := RateSourceFunc(func(context.Context) (payroll.RateTable, error) {
		calls++
		if calls > 1 {
			return payroll.RateTable{}, errors.New("settings store down")
		}
		return payroll.DefaultRateTable(), nil
	})

	cache := NewRateTableCache(RateTableCacheOptions{
		Source: source,
		Clock:  clock,
		Config: RateTableCacheConfig{TTL: time.Minute},
	})

	ctx := context.Background()
	first, err := cache.Get(ctx)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	stale, err := cache.Get(ctx)
	require.NoError(t, err, "stale table is preferable to a failed billing path")
	assert.Equal(t, first, stale)
}

func TestRateTableCache_FirstLoadFailurePropagates(t *testing.T) {
	source := RateSourceFunc(func(context.Context) (payroll.RateTable, error) {
		return payroll.RateTable{}, errors.New("boom")
	})
	cache := NewRateTableCache(RateTableCacheOptions{Source: source})

	_, err := cache.Get(context.Background())
	assert.Error(t, err)
}
