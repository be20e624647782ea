package cli

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/librespark/verbadge/internal/branding"
	"github.com/librespark/verbadge/internal/config"
	"github.com/librespark/verbadge/internal/versioncheck"
	"github.com/spf13/cobra"
)

// sourceFlags are the flags shared by commands that run a check.
type sourceFlags struct {
	baseURL     string
	currentFile string
	timeout     time.Duration
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Base URL of the deployment serving VERSION.txt")
	cmd.Flags().StringVar(&f.currentFile, "current-file", "", "Read the current version from a local file instead of the deployment")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "How long the primary mirror may take before falling back")
}

// apply overlays explicitly set flags onto the loaded settings.
func (f *sourceFlags) apply(cmd *cobra.Command, s *config.Settings) {
	if cmd.Flags().Changed("base-url") {
		s.BaseURL = f.baseURL
	}
	if cmd.Flags().Changed("timeout") {
		s.Timeout = f.timeout
	}
}

func userAgent() string {
	return branding.CLIName() + "/" + buildVersion
}

func httpSource(url string, client *http.Client, noCache bool) *versioncheck.HTTPSource {
	src := versioncheck.NewHTTPSource(url, client, noCache)
	src.UserAgent = userAgent()
	return src
}

// localURL joins the deployment base URL and the version file path.
func localURL(s config.Settings) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(s.LocalPath, "/")
}

// currentSource picks the local version source: a file when given, else the
// deployment's VERSION.txt over HTTP with caches bypassed.
func currentSource(f *sourceFlags, s config.Settings, client *http.Client) versioncheck.Source {
	if f.currentFile != "" {
		dir, name := filepath.Split(filepath.Clean(f.currentFile))
		if dir == "" {
			dir = "."
		}
		return &versioncheck.FileSource{FS: os.DirFS(dir), Name: name}
	}
	return httpSource(localURL(s), client, true)
}

// newResolver wires the upstream sources from settings around current.
func newResolver(s config.Settings, current versioncheck.Source, client *http.Client, logger *slog.Logger) *versioncheck.Resolver {
	return versioncheck.NewResolver(
		current,
		httpSource(s.PrimaryURL, client, false),
		httpSource(s.FallbackURL, client, false),
		versioncheck.WithPrimaryTimeout(s.Timeout),
		versioncheck.WithLogger(logger),
	)
}
