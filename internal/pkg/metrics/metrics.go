package metrics

import (
	"net/http"
	"time"

	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the calculation and HTTP metrics of the service.
type Registry struct {
	registry *prometheus.Registry

	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration *prometheus.HistogramVec
	CablesSolvedTotal   *prometheus.CounterVec
	ApproximateCables   prometheus.Counter
	WorstDropPercent    *prometheus.GaugeVec
	GlobalLossesKW      *prometheus.GaugeVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initCalculationMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initCalculationMetrics() {
	r.CalculationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lvnet_calculations_total",
			Help: "Total number of network calculations",
		},
		[]string{"scenario", "outcome"},
	)

	r.CalculationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lvnet_calculation_duration_seconds",
			Help:    "Network calculation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"scenario"},
	)

	r.CablesSolvedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lvnet_cables_solved_total",
			Help: "Total number of solved cables by compliance band",
		},
		[]string{"compliance"},
	)

	r.ApproximateCables = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lvnet_cables_approximate_total",
			Help: "Total number of cables solved outside the radial tree",
		},
	)

	r.WorstDropPercent = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lvnet_max_voltage_drop_percent",
			Help: "Worst voltage deviation of the last calculation",
		},
		[]string{"scenario"},
	)

	r.GlobalLossesKW = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lvnet_global_losses_kw",
			Help: "Total ohmic losses of the last calculation",
		},
		[]string{"scenario"},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lvnet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lvnet_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
}

// RecordCalculation records a successful calculation.
func (r *Registry) RecordCalculation(res network.CalculationResult, duration time.Duration) {
	scenario := res.Scenario.String()
	r.CalculationsTotal.WithLabelValues(scenario, "ok").Inc()
	r.CalculationDuration.WithLabelValues(scenario).Observe(duration.Seconds())
	r.WorstDropPercent.WithLabelValues(scenario).Set(res.MaxVoltageDropPercent)
	r.GlobalLossesKW.WithLabelValues(scenario).Set(res.GlobalLossesKW)

	for _, c := range res.Cables {
		r.CablesSolvedTotal.WithLabelValues(string(c.Compliance)).Inc()
		if c.Approximate {
			r.ApproximateCables.Inc()
		}
	}
}

// RecordFailure records a rejected calculation.
func (r *Registry) RecordFailure(scenario network.Scenario, duration time.Duration) {
	r.CalculationsTotal.WithLabelValues(scenario.String(), "error").Inc()
	r.CalculationDuration.WithLabelValues(scenario.String()).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
