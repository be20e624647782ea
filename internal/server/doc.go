// Package server serves a static site and injects the version indicator into
// every HTML page it returns. The site's own VERSION.txt is the current
// version; the latest version is resolved through a shared in-memory cache.
package server
