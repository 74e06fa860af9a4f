// Package serve renders the layer page on every navigation, loading the
// manifest fresh each time, and serves the manifest files themselves.
package serve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/b1naryth1ef/layerlist"
	"github.com/b1naryth1ef/layerlist/dl"
	"github.com/b1naryth1ef/layerlist/web"
)

type Config struct {
	Listen string

	// BaseURL is where manifests are fetched from. When empty the manifest is
	// read in-process from StaticDir; one of the two must be set.
	BaseURL string
	Variant dl.Variant

	// StaticDir, when set, is served at the root (e.g. shapefiles.json).
	StaticDir string

	Fetcher dl.Fetcher
	Logger  *slog.Logger
}

type Server struct {
	listen    string
	baseURL   string
	variant   dl.Variant
	staticDir string
	fetcher   dl.Fetcher
	logger    *slog.Logger
}

// localBaseURL addresses the in-process static directory fetcher. Its host is
// never dialled.
const localBaseURL = "http://static.local"

var ErrNoManifestSource = errors.New("no manifest source: set manifest base_url or server static_dir")

func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.BaseURL
	fetcher := cfg.Fetcher
	switch {
	case baseURL != "":
		if fetcher == nil {
			fetcher = dl.NewClient(10 * time.Second)
		}
	case cfg.StaticDir != "":
		baseURL = localBaseURL
		fetcher = dirFetcher{handler: http.FileServer(http.Dir(cfg.StaticDir))}
	default:
		return nil, ErrNoManifestSource
	}

	return &Server{
		listen:    cfg.Listen,
		baseURL:   baseURL,
		variant:   cfg.Variant,
		staticDir: cfg.StaticDir,
		fetcher:   fetcher,
		logger:    logger,
	}, nil
}

// dirFetcher answers manifest requests from the served directory without
// touching the network, so the fetch target never depends on the incoming
// request.
type dirFetcher struct {
	handler http.Handler
}

func (f dirFetcher) Do(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", s.handleIndex)

	r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.FS(web.StaticFS()))))

	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	loader := dl.Loader{
		Fetcher: s.fetcher,
		BaseURL: s.baseURL,
		Variant: s.variant,
		Logger:  s.logger,
	}
	result := loader.Load(r.Context())

	page, err := renderPage(result)
	if err != nil {
		s.logger.Error("failed to render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = page.WriteTo(w)
}

func renderPage(result layerlist.LoadResult) (*bytes.Buffer, error) {
	data, err := web.NewPageData(result)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := web.Render(&buf, data); err != nil {
		return nil, err
	}
	return &buf, nil
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.listen)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.listen,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
