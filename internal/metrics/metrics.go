package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evp_fetch_requests_total",
			Help: "Total number of source fetches by category and outcome",
		},
		[]string{"category", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evp_fetch_duration_seconds",
			Help:    "Duration of source fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"category"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evp_fetch_bytes_total",
			Help: "Total bytes downloaded across all source fetches",
		},
		[]string{"category"},
	)

	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evp_search_requests_total",
			Help: "Total number of keyword searches by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	CompletionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evp_completion_requests_total",
			Help: "Total number of chat completion requests by outcome",
		},
		[]string{"outcome"},
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evp_completion_duration_seconds",
			Help:    "Duration of chat completion requests in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120},
		},
	)
)

// RecordFetch updates the fetch metrics. A status of 0 means the request
// never produced a response.
func RecordFetch(category string, status int, d time.Duration, size int) {
	statusStr := "error"
	if status > 0 {
		statusStr = strconv.Itoa(status)
	}
	FetchRequestsTotal.WithLabelValues(category, statusStr).Inc()
	FetchDuration.WithLabelValues(category).Observe(d.Seconds())
	FetchBytesTotal.WithLabelValues(category).Add(float64(size))
}

// RecordSearch counts one keyword search.
func RecordSearch(category string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SearchRequestsTotal.WithLabelValues(category, outcome).Inc()
}

// RecordCompletion counts one chat completion request.
func RecordCompletion(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CompletionRequestsTotal.WithLabelValues(outcome).Inc()
	CompletionDuration.Observe(d.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// NewServer prepares a server exposing /metrics on the given port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{srv: &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// ListenAndServe blocks until the server stops. An intentional shutdown is
// not reported as an error.
func (s *Server) ListenAndServe() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
