package versioncheck

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// maxVersionBytes caps how much of a version body is read.
const maxVersionBytes = 64 << 10

// Source yields a raw version string. String describes where it reads from
// and is used in error messages.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	String() string
}

// HTTPSource reads a version token with a plain GET.
type HTTPSource struct {
	URL       string
	Client    *http.Client
	UserAgent string
	// NoCache asks every cache on the way to revalidate.
	NoCache bool
}

// NewHTTPSource returns an HTTPSource for url using client, or
// http.DefaultClient when client is nil.
func NewHTTPSource(url string, client *http.Client, noCache bool) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{URL: url, Client: client, UserAgent: "verbadge", NoCache: noCache}
}

func (s *HTTPSource) String() string { return s.URL }

// Fetch performs the GET and returns the body. A non-2xx status yields a
// *FetchError carrying the status code.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "text/plain")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	if s.NoCache {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}

	// Support optional GitHub token for higher rate limits.
	if token := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); token != "" && isGitHubHost(s.URL) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", &FetchError{URL: s.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxVersionBytes))
		return "", &FetchError{URL: s.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVersionBytes))
	if err != nil {
		return "", &FetchError{URL: s.URL, Err: fmt.Errorf("reading response body: %w", err)}
	}
	return string(body), nil
}

func isGitHubHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || strings.HasSuffix(host, ".github.com") ||
		host == "githubusercontent.com" || strings.HasSuffix(host, ".githubusercontent.com")
}

// FileSource reads a version token from a file system, typically the
// VERSION.txt at the root of a served site.
type FileSource struct {
	FS   fs.FS
	Name string
}

func (s *FileSource) String() string { return s.Name }

// Fetch reads the file. The context is only checked before reading.
func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := fs.ReadFile(s.FS, s.Name)
	if err != nil {
		return "", &FetchError{URL: s.Name, Err: err}
	}
	return string(data), nil
}
