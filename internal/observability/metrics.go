package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsClient is the metrics contract every component depends on.
type MetricsClient interface {
	RecordCounter(name string, value float64, labels map[string]string)
	RecordGauge(name string, value float64, labels map[string]string)
	RecordHistogram(name string, value float64, labels map[string]string)
	RecordOperation(component, operation string, success bool, durationSeconds float64)
	StartTimer(name string, labels map[string]string) func()
	// Handler returns the HTTP handler each service mounts at GET /metrics.
	Handler() http.Handler
}

type promMetrics struct {
	registry    *prometheus.Registry
	counters    *prometheus.CounterVec
	gauges      *prometheus.GaugeVec
	histograms  *prometheus.HistogramVec
	operations  *prometheus.HistogramVec
	namespace   string
}

// NewMetricsClient builds a fresh prometheus registry scoped to a
// namespace (e.g. "headhunter_search"), with a small set of generic
// vector metrics that every component reuses by name rather than each
// component registering bespoke series.
func NewMetricsClient(namespace string) MetricsClient {
	reg := prometheus.NewRegistry()
	m := &promMetrics{
		registry:  reg,
		namespace: namespace,
		counters: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_total",
		}, []string{"name", "label"}),
		gauges: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gauge",
		}, []string{"name", "label"}),
		histograms: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "histogram_seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name", "label"}),
		operations: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"component", "operation", "success"}),
	}
	return m
}

func firstLabel(labels map[string]string) string {
	for _, v := range labels {
		return v
	}
	return ""
}

func (m *promMetrics) RecordCounter(name string, value float64, labels map[string]string) {
	m.counters.WithLabelValues(name, firstLabel(labels)).Add(value)
}

func (m *promMetrics) RecordGauge(name string, value float64, labels map[string]string) {
	m.gauges.WithLabelValues(name, firstLabel(labels)).Set(value)
}

func (m *promMetrics) RecordHistogram(name string, value float64, labels map[string]string) {
	m.histograms.WithLabelValues(name, firstLabel(labels)).Observe(value)
}

func (m *promMetrics) RecordOperation(component, operation string, success bool, durationSeconds float64) {
	succ := "true"
	if !success {
		succ = "false"
	}
	m.operations.WithLabelValues(component, operation, succ).Observe(durationSeconds)
}

func (m *promMetrics) StartTimer(name string, labels map[string]string) func() {
	start := time.Now()
	return func() {
		m.RecordHistogram(name, time.Since(start).Seconds(), labels)
	}
}

func (m *promMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NoopMetrics satisfies MetricsClient without recording anything;
// used in unit tests that construct components directly.
type NoopMetrics struct{}

func (NoopMetrics) RecordCounter(string, float64, map[string]string)   {}
func (NoopMetrics) RecordGauge(string, float64, map[string]string)     {}
func (NoopMetrics) RecordHistogram(string, float64, map[string]string) {}
func (NoopMetrics) RecordOperation(string, string, bool, float64)      {}
func (NoopMetrics) StartTimer(string, map[string]string) func()        { return func() {} }
func (NoopMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}
