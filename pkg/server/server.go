// Package server exposes the board, progress tracking and calculators over
// a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elonfeng/founderboard/pkg/alert"
	"github.com/elonfeng/founderboard/pkg/discussion"
	"github.com/elonfeng/founderboard/pkg/progress"
	"github.com/elonfeng/founderboard/pkg/render"
	"github.com/elonfeng/founderboard/pkg/search"
)

// Pinger reports whether the backing store is reachable and which driver
// backs it.
type Pinger interface {
	Ping(ctx context.Context) error
	Driver() string
}

// Deps are the components the API serves.
type Deps struct {
	Discussions *discussion.Store
	Progress    *progress.Tracker
	Renderer    *render.Renderer
	Index       *search.Index
	Alerts      *alert.Manager
	DB          Pinger

	AllowedOrigins []string
	BaseURL        string
	MaxResults     int
}

// Server provides the HTTP API.
type Server struct {
	deps   Deps
	port   int
	router http.Handler

	// stale is set whenever the discussions change; search rebuilds the
	// index on the next query.
	stale     atomic.Bool
	rebuildMu sync.Mutex

	// alerts tracks in-flight notifications so shutdown can drain them.
	alerts sync.WaitGroup
}

// alertTimeout bounds one background delivery, retries included.
const alertTimeout = time.Minute

// New creates a new HTTP server.
func New(deps Deps, port int) *Server {
	if port == 0 {
		port = 8080
	}
	if deps.MaxResults <= 0 {
		deps.MaxResults = 20
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}
	s := &Server{deps: deps, port: port}
	s.stale.Store(true)
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// notify delivers n in the background. The request context is detached so
// a client hanging up does not cancel delivery.
func (s *Server) notify(ctx context.Context, n *alert.Notification) {
	if !s.deps.Alerts.HasNotifiers() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.alerts.Add(1)
	go func() {
		defer s.alerts.Done()
		ctx, cancel := context.WithTimeout(ctx, alertTimeout)
		defer cancel()
		s.deps.Alerts.Notify(ctx, n)
	}()
}

// MarkStale forces a search index rebuild on the next query. Callers that
// change discussions outside the API use it.
func (s *Server) MarkStale() { s.stale.Store(true) }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", s.handleCategories)
		r.Get("/search", s.handleSearch)

		r.Route("/discussions", func(r chi.Router) {
			r.Get("/", s.handleListDiscussions)
			r.Post("/", s.handleCreateDiscussion)
			r.Get("/{id}", s.handleGetDiscussion)
			r.Delete("/{id}", s.handleDeleteDiscussion)
			r.Get("/{id}/replies", s.handleListReplies)
			r.Post("/{id}/replies", s.handleAddReply)
		})

		r.Get("/progress", s.handleGetProgress)
		r.Delete("/progress", s.handleResetProgress)
		r.Put("/progress/{section}/{item}", s.handleSetProgress)
		r.Get("/mvp", s.handleGetMVP)
		r.Put("/mvp", s.handleSaveMVP)

		r.Route("/calc", func(r chi.Router) {
			r.Post("/idea", s.handleCalcIdea)
			r.Post("/funding", s.handleCalcFunding)
			r.Post("/patent", s.handleCalcPatent)
			r.Post("/path", s.handleCalcPath)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("founderboard server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.alerts.Wait()
	if err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	driver := s.deps.DB.Driver()
	if err := s.deps.DB.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "driver": driver, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "driver": driver})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
