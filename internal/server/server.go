package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/enesbrtc/enes.codes/internal/config"
	"github.com/enesbrtc/enes.codes/internal/hub"
	"github.com/enesbrtc/enes.codes/internal/metrics"
	"github.com/enesbrtc/enes.codes/internal/store"
	"github.com/enesbrtc/enes.codes/web"
)

const shutdownTimeout = 5 * time.Second

var shutdownNotice = []string{"", "Connection to enes.codes closed by remote host."}

type Server struct {
	cfg        *config.Config
	hub        *hub.Hub
	store      *store.Store
	handler    http.Handler
	httpServer *http.Server
}

func New(cfg *config.Config, h *hub.Hub, st *store.Store, m *metrics.Metrics) (*Server, error) {
	mux := http.NewServeMux()

	subFS, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to sub filesystem: %w", err)
	}
	fileServer := http.FileServer(http.FS(subFS))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		cleanPath := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if cleanPath == "" || cleanPath == "." {
			cleanPath = "index.html"
		}

		if _, err := fs.Stat(subFS, cleanPath); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}

		fallbackReq := r.Clone(r.Context())
		fallbackURL := *r.URL
		fallbackURL.Path = "/"
		fallbackReq.URL = &fallbackURL
		fileServer.ServeHTTP(w, fallbackReq)
	}))

	s := &Server{cfg: cfg, hub: h, store: st}

	mux.HandleFunc("/ws", h.HandleWebSocket)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/cv", s.handleCV)

	s.handler = m.Middleware(routeLabel, mux)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler is the full route tree, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		s.hub.Broadcast(shutdownNotice)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.SQL().PingContext(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleCV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.cfg.CVPath == "" {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(s.cfg.CVPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("open cv", "path", s.cfg.CVPath, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="cv.pdf"`)
	http.ServeContent(w, r, "cv.pdf", info.ModTime(), f)
}

// routeLabel keeps the metrics path label bounded.
func routeLabel(p string) string {
	switch p {
	case "/ws", "/metrics", "/healthz", "/api/cv":
		return p
	}
	if strings.HasPrefix(p, "/api/") {
		return "/api/other"
	}
	return "/static"
}
