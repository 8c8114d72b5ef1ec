// Package metrics exposes Prometheus counters for the fetch loop.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes
const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
)

// Metrics holds the fetch-loop counters on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	requests          *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	subjectsProcessed prometheus.Counter
	fragmentsWritten  *prometheus.CounterVec
	propertyBatches   *prometheus.CounterVec
}

// New registers every counter on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubchem_requests_total",
			Help: "Heading requests sent to the remote service, by heading and outcome.",
		}, []string{"source", "outcome"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubchem_cache_hits_total",
			Help: "Heading lookups served from the response cache.",
		}, []string{"source"}),
		subjectsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubchem_subjects_processed_total",
			Help: "Compounds whose headings were all attempted.",
		}),
		fragmentsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubchem_fragments_written_total",
			Help: "Table fragments written, by category.",
		}, []string{"category"}),
		propertyBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubchem_property_batches_total",
			Help: "Batched property lookups, by outcome.",
		}, []string{"outcome"}),
	}

	m.Registry.MustRegister(m.requests, m.cacheHits, m.subjectsProcessed, m.fragmentsWritten, m.propertyBatches)
	return m
}

// ObserveRequest counts one network request
func (m *Metrics) ObserveRequest(source, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source, outcome).Inc()
}

// ObserveCacheHit counts one cached lookup
func (m *Metrics) ObserveCacheHit(source string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(source).Inc()
}

// ObserveSubject counts one processed compound
func (m *Metrics) ObserveSubject() {
	if m == nil {
		return
	}
	m.subjectsProcessed.Inc()
}

// ObserveFragment counts one written fragment
func (m *Metrics) ObserveFragment(category string) {
	if m == nil {
		return
	}
	m.fragmentsWritten.WithLabelValues(category).Inc()
}

// ObservePropertyBatch counts one property lookup
func (m *Metrics) ObservePropertyBatch(outcome string) {
	if m == nil {
		return
	}
	m.propertyBatches.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
}
