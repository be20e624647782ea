package versioncheck

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCurrentUnavailable marks a check that could not read the local version.
	ErrCurrentUnavailable = errors.New("current version unavailable")
	// ErrLatestUnavailable marks a check where every upstream attempt failed.
	ErrLatestUnavailable = errors.New("latest version unavailable")
)

// Role identifies which endpoint a fetch was made against.
type Role string

const (
	RoleLocal    Role = "local"
	RolePrimary  Role = "primary"
	RoleFallback Role = "fallback"
)

// CheckError is returned by Resolve when no result can be produced. Kind is
// one of ErrCurrentUnavailable or ErrLatestUnavailable.
type CheckError struct {
	Kind error
	Err  error
}

func (e *CheckError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CheckError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// FetchError reports a non-success status or a transport failure for one
// endpoint. StatusCode is zero for transport failures.
type FetchError struct {
	Role       Role
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s fetch %s: status %d", e.Role, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s fetch %s: %v", e.Role, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TimeoutError reports that the primary endpoint did not answer within its
// time budget. It is recovered by the fallback and only surfaces when the
// fallback also fails.
type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("primary fetch %s: no response within %s", e.URL, e.After)
}
