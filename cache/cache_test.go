package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleFlight(t *testing.T) {
	c := New(0)
	ctx := context.Background()

	var computations int64
	started := make(chan struct{})
	release := make(chan struct{})

	compute := func(context.Context) (any, error) {
		if atomic.AddInt64(&computations, 1) == 1 {
			close(started)
		}
		<-release
		return 42, nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]any, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Do(ctx, "correl:ACME,BETA:month:2024-03-01", 1, compute)
		}(i)
	}

	<-started
	// Give the remaining callers time to attach to the flight.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&computations),
		"concurrent identical requests must share one computation")
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}
}

func TestGenerationInvalidation(t *testing.T) {
	c := New(0)
	ctx := context.Background()

	var calls int
	compute := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	v, err := c.Do(ctx, "k", 1, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// Same generation: served from cache.
	v, err = c.Do(ctx, "k", 1, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	// Generation advanced: stale entry is recomputed, not served.
	v, err = c.Do(ctx, "k", 2, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestErrorsNotCached(t *testing.T) {
	c := New(0)
	ctx := context.Background()

	boom := errors.New("store unavailable")
	calls := 0
	_, err := c.Do(ctx, "k", 1, func(context.Context) (any, error) {
		calls++
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := c.Do(ctx, "k", 1, func(context.Context) (any, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestTTLExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	_, err := c.Do(ctx, "k", 1, compute)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	v, err := c.Do(ctx, "k", 1, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestExpirySweep(t *testing.T) {
	c := New(30 * time.Millisecond)
	ctx := context.Background()
	value := func(context.Context) (any, error) { return 1, nil }

	// Fill up to the sweep threshold; everything is fresh, so the
	// first sweep keeps the lot and doubles the threshold.
	for i := 0; i < sweepFloor; i++ {
		_, err := c.Do(ctx, "old:"+strconv.Itoa(i), 1, value)
		require.NoError(t, err)
	}
	require.Equal(t, sweepFloor, c.Len())

	time.Sleep(60 * time.Millisecond)

	// A second batch pushes the map over the doubled threshold; the
	// sweep it triggers drops the expired first batch.
	for i := 0; i < sweepFloor; i++ {
		_, err := c.Do(ctx, "new:"+strconv.Itoa(i), 1, value)
		require.NoError(t, err)
	}
	assert.Equal(t, sweepFloor, c.Len(),
		"expired entries must be evicted, not accumulate")
}

func TestPurge(t *testing.T) {
	c := New(0)
	_, err := c.Do(context.Background(), "k", 1, func(context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())
}
