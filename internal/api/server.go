package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
	"github.com/MikeSquared-Agency/vibetrace/internal/vibe"
)

const defaultMaxUploadBytes = 20 << 20

// Analyzer is the pipeline the HTTP layer drives.
type Analyzer interface {
	Analyze(ctx context.Context, req vibe.Request) (*vibe.Response, error)
	Cached(ctx context.Context, accountID string, repo commits.Repository) (*vibe.Response, error)
}

type Server struct {
	router         *chi.Mux
	port           int
	analyzer       Analyzer
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewServer(port int, apiToken string, analyzer Analyzer, maxUploadBytes int64, logger *slog.Logger) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:         router,
		port:           port,
		analyzer:       analyzer,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1/repos/{owner}/{name}/vibe-history", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/", s.getVibeHistory)
		r.Post("/", s.postVibeHistory)
	})

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("API server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
