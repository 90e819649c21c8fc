// Package metrics exposes prometheus collectors for HTTP traffic, chat turns
// and model calls.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_ai_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_ai_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	TurnCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_ai_turns_total",
			Help: "Student message turns by outcome",
		},
		[]string{"outcome"},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_ai_generation_duration_seconds",
			Help:    "Latency of hosted model calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
		},
		[]string{"mode", "status"},
	)
)

// Turn outcomes.
const (
	TurnDelivered = "delivered"
	TurnPending   = "pending"
	TurnFailed    = "failed"
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, TurnCounter, GenerationDuration)
	})
}

// ObserveGeneration records one model call.
func ObserveGeneration(mode string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	GenerationDuration.WithLabelValues(mode, status).Observe(time.Since(started).Seconds())
}

// ObserveTurn counts a finished turn.
func ObserveTurn(outcome string) {
	TurnCounter.WithLabelValues(outcome).Inc()
}

// Middleware records request count and latency labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
