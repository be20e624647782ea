package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/librespark/verbadge/internal/footer"
	"github.com/librespark/verbadge/internal/versioncheck"
)

const shutdownTimeout = 5 * time.Second

// Checker yields the current check outcome.
type Checker interface {
	Get(ctx context.Context) (*versioncheck.Result, error)
}

// Server serves Site with the footer indicator injected.
type Server struct {
	site        fs.FS
	versionFile string
	checker     Checker
	badge       footer.Link
	lang        string
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLanguage sets the label language used when a request sends no usable
// Accept-Language header.
func WithLanguage(lang string) Option {
	return func(s *Server) {
		s.lang = lang
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithVersionFile overrides the name of the version file within the site.
func WithVersionFile(name string) Option {
	return func(s *Server) {
		s.versionFile = strings.TrimPrefix(name, "/")
	}
}

// New creates a Server for site.
func New(site fs.FS, checker Checker, badge footer.Link, opts ...Option) *Server {
	s := &Server{
		site:        site,
		versionFile: "VERSION.txt",
		checker:     checker,
		badge:       badge,
		lang:        "en",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /"+s.versionFile, s.handleVersionFile)
	mux.Handle("GET /", s.pages(http.FileServerFS(s.site)))
	return mux
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving site", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type versionResponse struct {
	*versioncheck.Result
	Error string `json:"error,omitempty"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	res, err := s.checker.Get(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	status := http.StatusOK
	body := versionResponse{Result: res}
	if err != nil {
		status = http.StatusBadGateway
		body = versionResponse{Error: err.Error()}
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("writing version response", "error", err)
	}
}

func (s *Server) handleVersionFile(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(s.site, s.versionFile)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// pages rewrites HTML pages and hands everything else to next.
func (s *Server) pages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := s.htmlFile(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		page, err := fs.ReadFile(s.site, name)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		res, checkErr := s.checker.Get(r.Context())
		if checkErr != nil {
			s.logger.Warn("version check failed", "error", checkErr)
		}

		labels := footer.NewLabels(r.Header.Get("Accept-Language"), s.lang)
		out, err := footer.New(labels, s.badge).Rewrite(page, res, checkErr)
		if err != nil {
			s.logger.Warn("serving page without version indicator", "page", name, "error", err)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(out)
	})
}

// htmlFile maps a request path to an HTML file in the site, resolving
// directory requests to their index.html. Directories requested without a
// trailing slash are left to the file server, which redirects them.
func (s *Server) htmlFile(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || strings.HasSuffix(urlPath, "/") {
		name = path.Join(name, "index.html")
	}
	if !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".htm") {
		return "", false
	}
	if info, err := fs.Stat(s.site, name); err != nil || info.IsDir() {
		return "", false
	}
	return name, true
}
