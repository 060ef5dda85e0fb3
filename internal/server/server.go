package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/runebook/runebook/internal/config"
	"github.com/runebook/runebook/internal/lessons"
	"github.com/runebook/runebook/internal/sandbox"
	"github.com/runebook/runebook/internal/storage"
)

// Server is the HTTP server for the Runebook web API.
type Server struct {
	cfg     *config.Config
	catalog *lessons.Catalog
	store   storage.Store
	exec    sandbox.Executor
	metrics *Metrics
	router  chi.Router
	http    *http.Server
}

// New creates a new Server. exec is expected to already be bounded (a
// sandbox.Pool) — the server itself applies no concurrency ceiling.
func New(cfg *config.Config, catalog *lessons.Catalog, store storage.Store, exec sandbox.Executor) *Server {
	s := &Server{
		cfg:     cfg,
		catalog: catalog,
		store:   store,
		exec:    exec,
		metrics: NewMetrics(),
		router:  chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		// Lessons
		r.Get("/lessons", s.handleListLessons)
		r.Get("/lessons/{slug}", s.handleGetLesson)

		// Execution
		r.Post("/execute", s.handleExecute)

		// WebSocket (no JSON content-type)
		r.Get("/execute/ws", s.handleExecuteWS)

		// Progress
		r.Get("/progress", s.handleListProgress)
		r.Put("/progress/{slug}", s.handlePutProgress)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	// Embedded UI with client-side routing fallback
	r.Handle("/*", uiHandler())
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("Runebook server starting on http://localhost%s", addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
