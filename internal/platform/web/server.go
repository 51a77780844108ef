// Package web serves levels and runs over HTTP: a JSON API for grading
// programs and a websocket that streams a run live while it animates.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/tui-codequest/internal/config"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

// Options configure a Server.
type Options struct {
	Config config.Config
	Store  *storage.Store
	Logger *log.Logger
	// FrameRate of the animator behind the live stream. Zero uses the
	// configured render frame rate.
	FrameRate int
	// RunTimeout bounds one graded run. Zero means 10 seconds.
	RunTimeout time.Duration
}

// Server is the HTTP front end.
type Server struct {
	opts   Options
	store  *storage.Store
	logger *log.Logger
	router chi.Router
}

// NewServer builds the router. Store may be nil, in which case runs are not
// recorded and the history endpoint is empty.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "codequest-web",
		})
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 10 * time.Second
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = opts.Config.Render.FrameRate
	}

	s := &Server{
		opts:   opts,
		store:  opts.Store,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/levels", s.listLevels)
		r.Get("/levels/{id}", s.getLevel)

		r.Post("/runs", s.postRun)
		r.Get("/runs/recent", s.recentRuns)
		r.Get("/runs/stream", s.streamRun)
		r.Get("/runs/{id}", s.getRun)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// logRequests logs every request once it has been served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // The client may already be gone
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
