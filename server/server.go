// Package server implements the ops HTTP surface: status, import statistics, manual triggers and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/jobimport/pkg/domain"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/run_store.go -pkg mocks -skip-ensure -fmt goimports . RunStore
//go:generate moq -out mocks/task_queue.go -pkg mocks -skip-ensure -fmt goimports . TaskQueue
//go:generate moq -out mocks/sweeper.go -pkg mocks -skip-ensure -fmt goimports . Sweeper

// Server represents HTTP server instance
type Server struct {
	Params

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// RunStore provides import run statistics
type RunStore interface {
	GetAggregateStats(ctx context.Context) (domain.AggregateStats, error)
	ListRuns(ctx context.Context, limit int) ([]domain.ImportRun, error)
}

// TaskQueue enqueues single imports and reports queue depth
type TaskQueue interface {
	Add(ctx context.Context, name string, data any) (string, error)
	Stats(ctx context.Context) (domain.QueueStats, error)
}

// Sweeper runs a manual sweep over all active feeds
type Sweeper interface {
	TriggerManual(ctx context.Context) (int, error)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// Params defines server dependencies
type Params struct {
	Config  ConfigProvider
	Runs    RunStore
	Queue   TaskQueue
	Sweeper Sweeper
	Metrics http.Handler // prometheus exposition, /metrics is not served if nil
	Version string
	Debug   bool
}

// New initializes a new server instance
func New(params Params) *Server {
	s := &Server{Params: params, router: routegroup.New(http.NewServeMux())}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.Config.GetServerConfig()
	lgr.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	httpServer := s.httpServer
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("jobimport", "umputun", s.Version))
	s.router.Use(rest.Ping)

	if s.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024))
}

func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /stats", s.statsHandler)
		r.HandleFunc("POST /trigger", s.triggerHandler)
		r.HandleFunc("POST /trigger-bulk", s.triggerBulkHandler)
	})

	if s.Metrics != nil {
		s.router.Handle("GET /metrics", s.Metrics)
	}
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
