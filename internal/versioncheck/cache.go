package versioncheck

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCacheMaxAge is how long a successful check is served before a
	// background refresh is started.
	DefaultCacheMaxAge = 15 * time.Minute
	// DefaultRefreshTimeout bounds every check the cache starts itself,
	// including a fallback fetch that never answers.
	DefaultRefreshTimeout = 30 * time.Second
	// errorMaxAge caps how long a failed check is served.
	errorMaxAge = time.Minute
)

// Entry is one cached check outcome. Exactly one of Result and Err is set.
type Entry struct {
	Result    *Result
	Err       error
	CheckedAt time.Time
}

// IsStale returns true if the entry is nil or older than maxAge. Failed
// checks go stale after at most one minute.
func IsStale(e *Entry, maxAge time.Duration, now time.Time) bool {
	if e == nil {
		return true
	}
	if e.Err != nil && maxAge > errorMaxAge {
		maxAge = errorMaxAge
	}
	return now.Sub(e.CheckedAt) > maxAge
}

// Cache keeps the last check outcome in memory for a running server. It never
// blocks a caller once an entry exists: stale entries are served while a
// single background refresh runs.
type Cache struct {
	resolver *Resolver
	maxAge   time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group

	mu         sync.Mutex
	entry      *Entry
	refreshing bool
	wg         sync.WaitGroup
}

// NewCache wraps r. A maxAge of zero disables caching; every Get resolves.
func NewCache(r *Resolver, maxAge time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		resolver: r,
		maxAge:   maxAge,
		timeout:  DefaultRefreshTimeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the cached outcome, resolving synchronously on first use.
func (c *Cache) Get(ctx context.Context) (*Result, error) {
	if c.maxAge <= 0 {
		return c.resolver.Resolve(ctx)
	}

	c.mu.Lock()
	entry := c.entry
	if entry == nil {
		c.mu.Unlock()
		return c.load(ctx)
	}

	if IsStale(entry, c.maxAge, c.now()) && !c.refreshing {
		c.refreshing = true
		c.wg.Add(1)
		go c.refresh(context.WithoutCancel(ctx))
	}
	c.mu.Unlock()

	return entry.Result, entry.Err
}

// load resolves the first entry. Concurrent callers share a single check,
// which keeps running under the refresh timeout if a caller gives up.
func (c *Cache) load(ctx context.Context) (*Result, error) {
	ch := c.group.DoChan("load", func() (any, error) {
		if e := c.peek(); e != nil {
			return e, nil
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		e := c.resolve(rctx)
		c.store(e)
		return e, nil
	})

	select {
	case r := <-ch:
		e := r.Val.(*Entry)
		return e.Result, e.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) peek() *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry
}

// Wait blocks until any background refresh has finished. Refreshes are
// bounded by the refresh timeout.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// refresh resolves again and replaces the entry. It runs in a background
// goroutine and never fails loudly.
func (c *Cache) refresh(ctx context.Context) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	e := c.resolve(ctx)
	if e.Err != nil {
		c.logger.Warn("background version refresh failed", "error", e.Err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = e
	c.refreshing = false
}

func (c *Cache) resolve(ctx context.Context) *Entry {
	res, err := c.resolver.Resolve(ctx)
	return &Entry{Result: res, Err: err, CheckedAt: c.now()}
}

func (c *Cache) store(e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = e
}
