package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librespark/verbadge/internal/config"
	"github.com/librespark/verbadge/internal/versioncheck"
)

const page = `<html><head></head><body>
<footer class="footer"><div class="container"><div>
<p class="text-gray-500 text-sm">© 2024 LibreTV</p>
</div></div></footer></body></html>`

// upstream serves a failing mirror and a working direct endpoint.
func upstream(t *testing.T, latest string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/proxy/VERSION.txt", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	mux.HandleFunc("/direct/VERSION.txt", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, latest+"\n")
	})
	mux.HandleFunc("/VERSION.txt", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "202401010000\n")
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	t.Setenv("VERBADGE_HOME", t.TempDir())
	t.Setenv("VERBADGE_PRIMARY_URL", ts.URL+"/proxy/VERSION.txt")
	t.Setenv("VERBADGE_FALLBACK_URL", ts.URL+"/direct/VERSION.txt")
	return ts
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	upstream(t, "202402010000")

	dir := t.TempDir()
	versionPath := filepath.Join(dir, "VERSION.txt")
	pagePath := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(versionPath, []byte("202401010000\n"), 0644))
	require.NoError(t, os.WriteFile(pagePath, []byte(page), 0644))

	out, err := execute(t, "render", pagePath, "--current-file", versionPath, "--lang", "en")
	require.NoError(t, err)
	assert.Contains(t, out, "New version found")
	assert.Contains(t, out, `href="https://github.com/LibreSpark/LibreTV"`)

	// Input untouched unless --in-place.
	orig, err := os.ReadFile(pagePath)
	require.NoError(t, err)
	assert.Equal(t, page, string(orig))
}

func TestCheckCommandJSON(t *testing.T) {
	ts := upstream(t, "202401010000")

	out, err := execute(t, "check", "--base-url", ts.URL, "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "202401010000", got["current"])
	assert.Equal(t, false, got["has_update"])
	assert.Equal(t, "fallback", got["source"])
}

func TestPrintCheck_Table(t *testing.T) {
	var buf bytes.Buffer
	err := printCheck(&buf, &versioncheck.Result{
		Current:          "202401010000",
		Latest:           "202402010000",
		HasUpdate:        true,
		CurrentFormatted: "2024-01-01 00:00",
		LatestFormatted:  "2024-02-01 00:00",
		Source:           versioncheck.RolePrimary,
	}, nil, false)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "2024-02-01 00:00")
	assert.Contains(t, out, "Update available: 2024-01-01 00:00 -> 2024-02-01 00:00")
}

func TestPrintCheck_UpToDate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCheck(&buf, &versioncheck.Result{CurrentFormatted: "2024-01-01 00:00"}, nil, false))
	assert.Contains(t, buf.String(), "You are on the latest version (2024-01-01 00:00)")
}

func TestPrintCheck_Failure(t *testing.T) {
	checkErr := &versioncheck.CheckError{Kind: versioncheck.ErrLatestUnavailable, Err: errors.New("boom")}

	var buf bytes.Buffer
	err := printCheck(&buf, nil, checkErr, false)
	assert.ErrorIs(t, err, versioncheck.ErrLatestUnavailable)
	assert.Equal(t, "Version: detection failed\n", buf.String())

	buf.Reset()
	err = printCheck(&buf, nil, checkErr, true)
	assert.Error(t, err)
	assert.JSONEq(t, `{"error":"latest version unavailable: boom"}`, buf.String())
}

func TestLocalURL(t *testing.T) {
	tests := []struct {
		base, path, expected string
	}{
		{"http://localhost:8080", "/VERSION.txt", "http://localhost:8080/VERSION.txt"},
		{"https://tv.example.com/", "/VERSION.txt", "https://tv.example.com/VERSION.txt"},
		{"https://example.com/tv", "VERSION.txt", "https://example.com/tv/VERSION.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, localURL(config.Settings{BaseURL: tt.base, LocalPath: tt.path}))
		})
	}
}

func TestCurrentSource(t *testing.T) {
	src := currentSource(&sourceFlags{currentFile: "site/VERSION.txt"}, config.Settings{}, nil)
	fs, ok := src.(*versioncheck.FileSource)
	require.True(t, ok)
	assert.Equal(t, "VERSION.txt", fs.Name)

	src = currentSource(&sourceFlags{}, config.Settings{BaseURL: "http://h", LocalPath: "/VERSION.txt"}, http.DefaultClient)
	hs, ok := src.(*versioncheck.HTTPSource)
	require.True(t, ok)
	assert.True(t, hs.NoCache)
	assert.Equal(t, "http://h/VERSION.txt", hs.URL)
}

func TestConfigSet_RejectsInvalidValue(t *testing.T) {
	home := t.TempDir()
	t.Setenv("VERBADGE_HOME", home)

	out, err := execute(t, "config", "set", "timeout", "soon")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Empty(t, out)
	_, statErr := os.Stat(filepath.Join(home, "config.yaml"))
	assert.True(t, os.IsNotExist(statErr))

	out, err = execute(t, "config", "set", "timeout", "3s")
	require.NoError(t, err)
	assert.Equal(t, "Set timeout = 3s\n", out)

	out, err = execute(t, "config", "get", "timeout")
	require.NoError(t, err)
	assert.Equal(t, "3s\n", out)
}

func TestRenderCommand_OutputFile(t *testing.T) {
	upstream(t, "202401010000")
	t.Cleanup(func() { renderOutput = "-" })

	dir := t.TempDir()
	versionPath := filepath.Join(dir, "VERSION.txt")
	pagePath := filepath.Join(dir, "index.html")
	outPath := filepath.Join(dir, "out.html")
	require.NoError(t, os.WriteFile(versionPath, []byte("202401010000\n"), 0644))
	require.NoError(t, os.WriteFile(pagePath, []byte(page), 0644))

	out, err := execute(t, "render", pagePath, "--current-file", versionPath, "--lang", "en", "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, out, "nothing on stdout when writing to a file")

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), `data-verbadge="latest"`)
	assert.Contains(t, string(written), "(latest)")

	orig, err := os.ReadFile(pagePath)
	require.NoError(t, err)
	assert.Equal(t, page, string(orig))
}

func TestRenderCommand_InPlace(t *testing.T) {
	upstream(t, "202402010000")
	t.Cleanup(func() { renderInPlace = false })

	dir := t.TempDir()
	versionPath := filepath.Join(dir, "VERSION.txt")
	pagePath := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(versionPath, []byte("202401010000\n"), 0644))
	require.NoError(t, os.WriteFile(pagePath, []byte(page), 0644))

	out, err := execute(t, "render", pagePath, "--current-file", versionPath, "--lang", "en", "--in-place")
	require.NoError(t, err)
	assert.Empty(t, out)

	rewritten, err := os.ReadFile(pagePath)
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), `data-verbadge="update"`)
	assert.Contains(t, string(rewritten), "New version found")
	assert.Contains(t, string(rewritten), `id="verbadge-pulse"`)
}
