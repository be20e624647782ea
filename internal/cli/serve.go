package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/librespark/verbadge/internal/config"
	"github.com/librespark/verbadge/internal/footer"
	"github.com/librespark/verbadge/internal/server"
	"github.com/librespark/verbadge/internal/versioncheck"
	"github.com/spf13/cobra"
)

var (
	serveDir      string
	serveAddr     string
	serveCacheTTL time.Duration
	serveLang     string
	serveTimeout  time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "Site directory to serve (default from config site_dir)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config addr)")
	serveCmd.Flags().DurationVar(&serveCacheTTL, "cache-ttl", 0, "How long a check result is reused; 0 checks on every page")
	serveCmd.Flags().StringVar(&serveLang, "lang", "", "Label language when the browser sends none")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 0, "How long the primary mirror may take before falling back")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a static site with the version indicator injected",
	Long: `Serves the site directory and injects the version indicator into every
HTML page. The current version is the site's own VERSION.txt.

  verbadge serve --dir ./site --addr :8080
  verbadge serve --cache-ttl 0    # check on every page load`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Current()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dir") {
			s.SiteDir = serveDir
		}
		if cmd.Flags().Changed("addr") {
			s.Addr = serveAddr
		}
		if cmd.Flags().Changed("cache-ttl") {
			s.CacheTTL = serveCacheTTL
		}
		if cmd.Flags().Changed("lang") {
			s.Lang = serveLang
		}
		if cmd.Flags().Changed("timeout") {
			s.Timeout = serveTimeout
		}

		info, err := os.Stat(s.SiteDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("site directory %q is not a directory", s.SiteDir)
		}

		logger := slog.Default()
		site := os.DirFS(s.SiteDir)
		versionFile := strings.TrimLeft(s.LocalPath, "/")

		client := &http.Client{}
		current := &versioncheck.FileSource{FS: site, Name: versionFile}
		cache := versioncheck.NewCache(newResolver(s, current, client, logger), s.CacheTTL, logger)

		srv := server.New(site, cache, footer.Link{URL: s.RepoURL, NewTab: true},
			server.WithLanguage(s.Lang),
			server.WithLogger(logger),
			server.WithVersionFile(versionFile),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on %s\n", s.SiteDir, s.Addr)
		err = srv.Run(ctx, s.Addr)
		cache.Wait()
		return err
	},
}
