// Package server is the HTTP presentation API over directory.Service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/palantir/compute-module-people-directory/internal/directory"
	"github.com/palantir/compute-module-people-directory/internal/logging"
	"github.com/palantir/compute-module-people-directory/internal/metrics"
	"github.com/palantir/compute-module-people-directory/internal/redact"
)

// Directory is the part of directory.Service the API needs.
type Directory interface {
	FetchDirectory(ctx context.Context) ([]directory.EnrichedEntry, error)
}

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Security        SecurityConfig
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Security:        DefaultSecurityConfig(),
	}
}

type Server struct {
	dir     Directory
	metrics *metrics.Metrics
	logger  logging.Logger
	cfg     Config
}

func New(dir Directory, m *metrics.Metrics, logger logging.Logger, cfg Config) *Server {
	if m == nil {
		m = metrics.NewMetrics()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{dir: dir, metrics: m, logger: logger, cfg: cfg}
}

// Handler returns the routed API with metrics and security middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(path, SecurityMiddleware(s.cfg.Security, s.metricsMiddleware(path, h)))
	}
	route("/api/directory", s.handleDirectory)
	route("/api/departments", s.handleDepartments)
	route("/healthz", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", logging.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

type directoryResponse struct {
	Entries []directory.EnrichedEntry `json:"entries"`
	Count   int                       `json:"count"`
}

type departmentsResponse struct {
	Departments []string `json:"departments"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	entries, ok := s.fetch(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	entries = directory.Filter(entries, q.Get("search"), q.Get("department"))
	writeJSON(w, http.StatusOK, directoryResponse{Entries: entries, Count: len(entries)})
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	entries, ok := s.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, departmentsResponse{Departments: directory.Departments(entries)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.logger.Debug("rejected metrics request", logging.String("method", r.Method))
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

// fetch runs one directory fetch and writes the error response on failure.
func (s *Server) fetch(w http.ResponseWriter, r *http.Request) ([]directory.EnrichedEntry, bool) {
	entries, err := s.dir.FetchDirectory(r.Context())
	if err == nil {
		return entries, true
	}

	msg := redact.Secrets(err.Error())
	var fetchErr *directory.DirectoryFetchError
	switch {
	case errors.As(err, &fetchErr):
		s.logger.Error("directory unavailable", errors.New(msg), logging.String("path", r.URL.Path))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: msg})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg})
	default:
		s.logger.Error("directory request failed", errors.New(msg), logging.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
	}
	return nil, false
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
