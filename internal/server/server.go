// Package server exposes detection and extraction over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/detect"
	"github.com/mydoor3520/log-detective/pkg/extract"
)

// DefaultMaxBodyBytes bounds the size of a request body.
const DefaultMaxBodyBytes = 10 << 20

// Config holds configuration for the HTTP service.
type Config struct {
	Addr         string
	MaxBodyBytes int64
	Logger       *slog.Logger
	Version      string
}

// Server is the HTTP service.
type Server struct {
	addr         string
	maxBodyBytes int64
	version      string
	logger       *slog.Logger
	metrics      *Metrics
	router       chi.Router
}

// New creates a server and its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		addr:         cfg.Addr,
		maxBodyBytes: cfg.MaxBodyBytes,
		version:      cfg.Version,
		logger:       cfg.Logger,
		metrics:      NewMetrics(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() chi.Router {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.observe,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Post("/detect", s.handleDetect)
	})

	return r
}

// observe logs each request and records it in the metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.metrics.RecordRequest(route, status, elapsed)
		s.logger.Debug("request served",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Serve listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting server", "addr", ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// --- Handlers ---

type healthResponse struct {
	Status     string           `json:"status"`
	Version    string           `json:"version,omitempty"`
	Ecosystems []core.Ecosystem `json:"ecosystems"`
}

type detectResponse struct {
	Language core.Ecosystem `json:"language"`
	Scores   detect.Score   `json:"scores"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Version:    s.version,
		Ecosystems: extract.Ecosystems(),
	})
}

// handleParse extracts records from the request body. The optional language
// query parameter (auto, java, python) skips detection.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	eco, err := parseLanguage(r.URL.Query().Get("language"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	text, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var records []core.ErrorRecord
	if eco == core.EcosystemUnknown {
		eco, records = extract.Parse(text)
	} else {
		records, err = extract.ParseAs(text, eco)
		var unsupported *extract.UnsupportedEcosystemError
		if errors.As(err, &unsupported) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	s.metrics.RecordDetection(eco)
	s.metrics.RecordExtraction(records)
	s.writeJSON(w, http.StatusOK, extract.NewDocument(r.URL.Query().Get("source"), eco, records))
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readBody(w, r)
	if !ok {
		return
	}

	scores := detect.Scores(text)
	eco := scores.Ecosystem()
	s.metrics.RecordDetection(eco)
	s.writeJSON(w, http.StatusOK, detectResponse{Language: eco, Scores: scores})
}

// readBody reads the bounded request body, writing an error response on failure.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return "", false
		}
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return "", false
	}
	return string(body), true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// parseLanguage accepts "", "auto" and the registered ecosystem names.
func parseLanguage(s string) (core.Ecosystem, error) {
	if s == "" || strings.EqualFold(s, "auto") {
		return core.EcosystemUnknown, nil
	}
	eco, ok := core.ParseEcosystem(s)
	if !ok || eco == core.EcosystemUnknown {
		return core.EcosystemUnknown, fmt.Errorf("invalid language %q (expected one of: auto, java, python)", s)
	}
	return eco, nil
}
