package versioncheck

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestIsStale(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		entry    *Entry
		maxAge   time.Duration
		expected bool
	}{
		{"nil entry is stale", nil, time.Hour, true},
		{"fresh result", &Entry{Result: &Result{}, CheckedAt: now}, time.Hour, false},
		{"old result", &Entry{Result: &Result{}, CheckedAt: now.Add(-2 * time.Hour)}, time.Hour, true},
		{"error ages faster", &Entry{Err: errors.New("x"), CheckedAt: now.Add(-2 * time.Minute)}, time.Hour, true},
		{"fresh error", &Entry{Err: errors.New("x"), CheckedAt: now.Add(-10 * time.Second)}, time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsStale(tt.entry, tt.maxAge, now))
		})
	}
}

func TestCache_ServesAndRefreshesInBackground(t *testing.T) {
	current := &staticSource{name: "local", value: "202401010000"}
	primary := &staticSource{name: "primary", value: "202401010000"}
	r := newTestResolver(current, primary, &staticSource{name: "fallback"}, time.Second)

	clock := &fakeClock{now: fixedNow}
	c := NewCache(r, time.Minute, quietLogger())
	c.now = clock.Now

	res, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, res.HasUpdate)
	assert.Equal(t, int32(1), primary.calls.Load())

	// Fresh: no new fetch.
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), primary.calls.Load())

	// Upstream moves on; the stale entry is served once more while refreshing.
	primary.value = "202402010000"
	clock.Advance(2 * time.Minute)

	res, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, res.HasUpdate, "stale entry is returned while refreshing")

	c.Wait()
	assert.Equal(t, int32(2), primary.calls.Load())

	res, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, res.HasUpdate)
}

func TestCache_ZeroMaxAgeAlwaysResolves(t *testing.T) {
	current := &staticSource{name: "local", value: "202401010000"}
	primary := &staticSource{name: "primary", value: "202401010000"}
	c := NewCache(newTestResolver(current, primary, &staticSource{name: "fallback"}, time.Second), 0, quietLogger())

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), primary.calls.Load())
	assert.Nil(t, c.peek())
}

func TestCache_CachesFailures(t *testing.T) {
	current := &staticSource{name: "local", err: errors.New("gone")}
	primary := &staticSource{name: "primary", value: "202401010000"}
	c := NewCache(newTestResolver(current, primary, &staticSource{name: "fallback"}, time.Second), time.Hour, quietLogger())

	_, err := c.Get(context.Background())
	require.ErrorIs(t, err, ErrCurrentUnavailable)

	entry := c.peek()
	require.NotNil(t, entry)
	assert.Nil(t, entry.Result)
	assert.ErrorIs(t, entry.Err, ErrCurrentUnavailable)
}

func TestCache_RefreshGivesUpOnHungFallback(t *testing.T) {
	current := &staticSource{name: "local", value: "202401010000"}
	primary := &staticSource{name: "primary", err: errors.New("bad gateway")}
	fallback := &staticSource{name: "fallback", value: "202401010000", delay: time.Hour}
	r := newTestResolver(current, primary, fallback, time.Second)

	clock := &fakeClock{now: fixedNow}
	c := NewCache(r, time.Hour, quietLogger())
	c.now = clock.Now
	c.timeout = 20 * time.Millisecond

	_, err := c.Get(context.Background())
	require.ErrorIs(t, err, ErrLatestUnavailable)
	assert.Equal(t, int32(1), primary.calls.Load())

	// Each stale read starts a refresh that ends within the timeout.
	for want := int32(2); want <= 3; want++ {
		clock.Advance(24 * time.Hour)
		_, err = c.Get(context.Background())
		require.ErrorIs(t, err, ErrLatestUnavailable)
		c.Wait()
		assert.Equal(t, want, primary.calls.Load())
	}

	entry := c.peek()
	require.NotNil(t, entry)
	assert.Equal(t, clock.Now(), entry.CheckedAt, "entry replaced by the last refresh")
}

func TestCache_ConcurrentFirstGetsShareOneCheck(t *testing.T) {
	current := &staticSource{name: "local", value: "202401010000"}
	primary := &staticSource{name: "primary", value: "202402010000", delay: 100 * time.Millisecond}
	c := NewCache(newTestResolver(current, primary, &staticSource{name: "fallback"}, time.Second), time.Hour, quietLogger())

	var wg sync.WaitGroup
	results := make([]*Result, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Get(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), current.calls.Load())
	for _, res := range results {
		require.NotNil(t, res)
		assert.True(t, res.HasUpdate)
	}
}

func TestCache_FirstGetCancelledByCaller(t *testing.T) {
	current := &staticSource{name: "local", value: "202401010000"}
	primary := &staticSource{name: "primary", value: "202402010000", delay: 50 * time.Millisecond}
	c := NewCache(newTestResolver(current, primary, &staticSource{name: "fallback"}, time.Second), time.Hour, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The shared check keeps running and fills the cache for the next caller.
	res, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, res.HasUpdate)
	assert.Equal(t, int32(1), primary.calls.Load())
}
