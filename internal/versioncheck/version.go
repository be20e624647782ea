package versioncheck

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// UnknownVersion is what FormatVersion renders for an empty value.
const UnknownVersion = "unknown version"

// timestampLen is the length of a YYYYMMDDhhmm version token.
const timestampLen = 12

// FormatVersion renders a YYYYMMDDhhmm token as "YYYY-MM-DD hh:mm". Empty
// input renders as UnknownVersion; any other length is returned trimmed but
// otherwise unchanged, so already formatted strings pass through.
func FormatVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return UnknownVersion
	}

	r := []rune(v)
	if len(r) != timestampLen {
		return v
	}
	return string(r[0:4]) + "-" + string(r[4:6]) + "-" + string(r[6:8]) +
		" " + string(r[8:10]) + ":" + string(r[10:12])
}

// HasUpdate reports whether latest is strictly newer than current.
//
// Both values are trimmed. When both parse as base-10 integers they are
// compared numerically. Otherwise, when both are semantic versions (a leading
// "v" is tolerated), semver precedence decides. Anything else is treated as
// "no update".
func HasUpdate(current, latest string) bool {
	current = strings.TrimSpace(current)
	latest = strings.TrimSpace(latest)

	ci, cErr := strconv.ParseInt(current, 10, 64)
	li, lErr := strconv.ParseInt(latest, 10, 64)
	if cErr == nil && lErr == nil {
		return li > ci
	}

	cv, cErr := parseSemver(current)
	lv, lErr := parseSemver(latest)
	if cErr == nil && lErr == nil {
		return lv.GreaterThan(cv)
	}
	return false
}

// Comparable reports whether HasUpdate can give a meaningful answer for the
// pair, as opposed to defaulting to false.
func Comparable(current, latest string) bool {
	current = strings.TrimSpace(current)
	latest = strings.TrimSpace(latest)

	_, cErr := strconv.ParseInt(current, 10, 64)
	_, lErr := strconv.ParseInt(latest, 10, 64)
	if cErr == nil && lErr == nil {
		return true
	}
	_, cErr = parseSemver(current)
	_, lErr = parseSemver(latest)
	return cErr == nil && lErr == nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
