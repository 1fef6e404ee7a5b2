// SPDX-License-Identifier: MIT
//
// Package api exposes a topology over HTTP/JSON.
//
// Routes:
//
//	GET  /api/topology/device-types                      types in use
//	GET  /api/topology/devices/{id}                      one device (404 when unknown)
//	GET  /api/topology/devices/{id}/trace                path to the feeding generator
//	GET  /api/topology/test-opening?ids=1&ids=2          devices that would lose power
//	GET  /api/topology/test-closing?ids=1,2              devices that would gain power
//	PUT  /api/topology/open?ids=…                        open; returns de-energized devices
//	PUT  /api/topology/close?ids=…                       close; returns energized devices
//	POST /api/topology/energize                          full recompute; returns stats
//	GET  /api/topology/stats                             counts
//	GET  /api/topology/validate                          consistency check (409 when violated)
//	GET  /api/geography/{minLat}/{minLng}/{maxLat}/{maxLng}  devices and edges in a viewport
//	GET  /metrics                                        Prometheus, when a gatherer is set
//	GET  /healthz
//
// Every response carries an X-Request-ID header; handlers log through a
// request-scoped slog logger that includes it.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/katalvlaran/netmanager/topology"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// Server routes HTTP requests to a topology.
type Server struct {
	topo     *topology.Topology
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New builds the routing table over topo.
func New(topo *topology.Topology, opts ...Option) *Server {
	s := &Server{
		topo:   topo,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/topology/device-types", s.handleDeviceTypes)
	mux.HandleFunc("GET /api/topology/devices/{id}", s.handleDevice)
	mux.HandleFunc("GET /api/topology/devices/{id}/trace", s.handleTrace)
	mux.HandleFunc("GET /api/topology/test-opening", s.switching(topo.TestOpeningDevices))
	mux.HandleFunc("GET /api/topology/test-closing", s.switching(topo.TestClosingDevices))
	mux.HandleFunc("PUT /api/topology/open", s.switching(topo.OpenDevices))
	mux.HandleFunc("PUT /api/topology/close", s.switching(topo.CloseDevices))
	mux.HandleFunc("POST /api/topology/energize", s.handleEnergize)
	mux.HandleFunc("GET /api/topology/stats", s.handleStats)
	mux.HandleFunc("GET /api/topology/validate", s.handleValidate)
	mux.HandleFunc("GET /api/geography/{minLat}/{minLng}/{maxLat}/{maxLng}", s.handleGeography)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.handler = s.withRequestID(s.withRecovery(mux))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// statusWriter captures the response status for the access log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withRequestID assigns a request ID (keeping a client-supplied one), stores
// a logger carrying it in the context, and logs each request once.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := s.logger.With(slog.String("request_id", id))
		r = r.WithContext(withLogger(r.Context(), logger))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("elapsed", time.Since(start)))
	})
}

// withRecovery turns a handler panic into a 500. In verification mode an
// engine invariant violation surfaces here.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				loggerFrom(r.Context(), s.logger).Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path))
				s.writeJSON(w, r, http.StatusInternalServerError, ErrorDTO{
					Error:     "internal server error",
					RequestID: w.Header().Get(RequestIDHeader),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
