// Package versioncheck resolves the running deployment's version and the
// latest upstream version, then compares them. The current version comes from
// a local source (the site's own VERSION.txt); the latest version comes from a
// primary mirror raced against a short timeout, falling back to the direct
// GitHub raw URL. A small in-memory cache serves repeated page renders.
package versioncheck
