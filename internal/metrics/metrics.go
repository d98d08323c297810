// Package metrics defines the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authenticity"

// Metrics holds the classification collectors. A nil *Metrics records nothing.
type Metrics struct {
	Classifications *prometheus.CounterVec
	Fallbacks       *prometheus.CounterVec
	CacheRequests   *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	ScanBlocks      prometheus.Counter
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifications by operation, analysis path and resulting status.",
		}, []string{"operation", "path", "status"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Model failures that were answered by the heuristic engine.",
		}, []string{"operation", "reason"}),
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Verdict cache lookups by result.",
		}, []string{"result"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_duration_seconds",
			Help:      "Time spent producing a verdict.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "path"}),
		ScanBlocks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_blocks_total",
			Help:      "Text blocks analysed by page scans.",
		}),
	}
}

// RecordClassification counts a verdict and observes how long it took
func (m *Metrics) RecordClassification(operation, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(operation, path, status).Inc()
	m.Duration.WithLabelValues(operation, path).Observe(d.Seconds())
}

// RecordFallback counts a model failure
func (m *Metrics) RecordFallback(operation, reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(operation, reason).Inc()
}

// RecordCache counts a cache hit or miss
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// RecordScanBlocks counts blocks analysed by a page scan
func (m *Metrics) RecordScanBlocks(n int) {
	if m == nil {
		return
	}
	m.ScanBlocks.Add(float64(n))
}
