// Package metrics exposes exploration metrics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "craftgraph"

// PrometheusMetrics implements engine.Metrics.
//
// Metrics (all namespaced "craftgraph_"):
//   - cache_hits_total: resolves answered from the dedup cache
//   - oracle_calls_total, oracle_latency_seconds: oracle calls and duration
//   - oracle_errors_total{code}: failed calls by runtime error code
//   - probes_total{kind}: completed calls by outcome (new, first, known)
//   - known_elements: size of the glyph table
//   - queue_depth: user requests waiting
type PrometheusMetrics struct {
	cacheHits     prometheus.Counter
	oracleCalls   prometheus.Counter
	oracleLatency prometheus.Histogram
	oracleErrors  *prometheus.CounterVec
	probes        *prometheus.CounterVec
	knownElements prometheus.Gauge
	queueDepth    prometheus.Gauge
}

// NewPrometheusMetrics creates and registers the metrics with registry.
// A nil registry means prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Resolves answered from the dedup cache without an oracle call",
		}),
		oracleCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Oracle calls issued",
		}),
		oracleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_latency_seconds",
			Help:      "Oracle call duration including transparent retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		oracleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_errors_total",
			Help:      "Failed oracle calls by error code",
		}, []string{"code"}),
		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Completed oracle calls by outcome",
		}, []string{"kind"}),
		knownElements: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "known_elements",
			Help:      "Elements in the glyph table",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "User requests waiting to be explored",
		}),
	}
}

func (m *PrometheusMetrics) CacheHit() {
	m.cacheHits.Inc()
}

func (m *PrometheusMetrics) OracleCall(elapsed time.Duration) {
	m.oracleCalls.Inc()
	m.oracleLatency.Observe(elapsed.Seconds())
}

func (m *PrometheusMetrics) OracleError(code string) {
	m.oracleErrors.WithLabelValues(code).Inc()
}

func (m *PrometheusMetrics) Discovered(kind string) {
	m.probes.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) KnownElements(n int) {
	m.knownElements.Set(float64(n))
}

func (m *PrometheusMetrics) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("metrics listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
