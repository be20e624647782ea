package versioncheck

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// DefaultPrimaryTimeout bounds the primary endpoint before falling back.
const DefaultPrimaryTimeout = 1500 * time.Millisecond

// Result is the outcome of one version check.
type Result struct {
	Current          string    `json:"current"`
	Latest           string    `json:"latest"`
	HasUpdate        bool      `json:"has_update"`
	CurrentFormatted string    `json:"current_formatted"`
	LatestFormatted  string    `json:"latest_formatted"`
	Source           Role      `json:"source"`
	CheckedAt        time.Time `json:"checked_at"`
}

// Resolver fetches and compares the current and latest versions.
type Resolver struct {
	current  Source
	primary  Source
	fallback Source
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPrimaryTimeout sets how long the primary endpoint may take before the
// fallback is tried.
func WithPrimaryTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithClock overrides the time source stamped on results (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver reading the current version from current and
// the latest version from primary, then fallback.
func NewResolver(current, primary, fallback Source, opts ...Option) *Resolver {
	r := &Resolver{
		current:  current,
		primary:  primary,
		fallback: fallback,
		timeout:  DefaultPrimaryTimeout,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one check. On failure the returned error is a *CheckError and
// the result is nil.
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	var (
		current, latest string
		source          Role
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := fetchAs(gctx, RoleLocal, r.current)
		if err != nil {
			return &CheckError{Kind: ErrCurrentUnavailable, Err: err}
		}
		current = v
		return nil
	})
	g.Go(func() error {
		v, role, err := r.fetchLatest(gctx)
		if err != nil {
			return &CheckError{Kind: ErrLatestUnavailable, Err: err}
		}
		latest, source = v, role
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	current = strings.TrimSpace(current)
	latest = strings.TrimSpace(latest)

	r.logger.Debug("versions resolved", "current", current, "latest", latest, "source", source)
	if !Comparable(current, latest) {
		r.logger.Warn("version strings are not comparable, reporting no update",
			"current", current, "latest", latest)
	}

	return &Result{
		Current:          current,
		Latest:           latest,
		HasUpdate:        HasUpdate(current, latest),
		CurrentFormatted: FormatVersion(current),
		LatestFormatted:  FormatVersion(latest),
		Source:           source,
		CheckedAt:        r.now(),
	}, nil
}

// fetchLatest tries the primary endpoint under the timeout and falls back to
// the secondary endpoint, which runs under ctx alone. Cancelling ctx aborts
// without a fallback attempt.
func (r *Resolver) fetchLatest(ctx context.Context) (string, Role, error) {
	pctx, cancel := context.WithTimeout(ctx, r.timeout)
	v, perr := fetchAs(pctx, RolePrimary, r.primary)
	timedOut := errors.Is(pctx.Err(), context.DeadlineExceeded)
	cancel()
	if perr == nil {
		return v, RolePrimary, nil
	}

	if ctx.Err() != nil {
		return "", "", ctx.Err()
	}
	if timedOut {
		perr = &TimeoutError{URL: r.primary.String(), After: r.timeout}
	}
	r.logger.Info("primary version source failed, trying fallback", "error", perr)

	v, ferr := fetchAs(ctx, RoleFallback, r.fallback)
	if ferr != nil {
		r.logger.Error("all latest version sources failed", "error", ferr)
		return "", "", multierror.Append(perr, ferr)
	}
	return v, RoleFallback, nil
}

// fetchAs calls src and tags any failure with role.
func fetchAs(ctx context.Context, role Role, src Source) (string, error) {
	v, err := src.Fetch(ctx)
	if err == nil {
		return v, nil
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		tagged := *fe
		tagged.Role = role
		return "", &tagged
	}
	return "", &FetchError{Role: role, URL: src.String(), Err: err}
}
