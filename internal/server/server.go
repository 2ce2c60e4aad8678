// Package server wires the HTTP surface: route registration, request
// decoding, and the mapping from domain failures to HTTP statuses.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/skinvault/skinport-api/pkg/logging"
	"github.com/skinvault/skinport-api/pkg/prices"
	"github.com/skinvault/skinport-api/pkg/purchase"
)

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_request_duration_seconds",
	Help:    "HTTP request duration in seconds by path and status",
	Buckets: []float64{0.005, 0.05, 0.1, 0.5, 1, 5, 10},
}, []string{"path", "status"})

// PriceService is the read side the server exposes at /items.
type PriceService interface {
	GetPrices(ctx context.Context) ([]prices.Summary, error)
}

// Purchaser is the write side the server exposes at /purchase.
type Purchaser interface {
	Purchase(ctx context.Context, userID, productID int64) (purchase.Receipt, error)
}

// Server is the HTTP boundary of the service.
type Server struct {
	httpServer *http.Server
	prices     PriceService
	purchases  Purchaser
	apiKeys    map[string]int64
	logger     zerolog.Logger
}

// New creates the HTTP server with all routes registered.
func New(addr string, priceService PriceService, purchaser Purchaser, apiKeys map[string]int64) *Server {
	s := &Server{
		prices:    priceService,
		purchases: purchaser,
		apiKeys:   apiKeys,
		logger:    logging.NewLogger("http-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/items", s.handleItems)
	mux.HandleFunc("/purchase", s.handlePurchase)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/openapi.json", s.handleOpenAPI)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.withRequestLogging(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the server's root handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		httpRequestDuration.WithLabelValues(r.URL.Path, strconv.Itoa(recorder.status)).
			Observe(duration.Seconds())

		logEvent := s.logger.Info()
		if recorder.status >= 500 {
			logEvent = s.logger.Error()
		}
		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", duration).
			Msg("Request handled")
	})
}
