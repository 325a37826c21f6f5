package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry wraps the prometheus registry coupon metrics are registered on
type Registry struct {
	*prometheus.Registry

	// VerifyTotal counts coupon verifications by outcome (valid or the ineligibility reason)
	VerifyTotal *prometheus.CounterVec
	// VerifyDuration tracks how long an eligibility evaluation takes
	VerifyDuration prometheus.Histogram
	// MutationsTotal counts coupon writes by operation
	MutationsTotal *prometheus.CounterVec
	// HTTPRequestsTotal counts served requests by route, method and status
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration tracks request latency by route
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with the process and go collectors plus the coupon metrics
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Registry{
		Registry: reg,
		VerifyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coupon",
			Name:      "verify_total",
			Help:      "Coupon verifications by outcome.",
		}, []string{"outcome"}),
		VerifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coupon",
			Name:      "verify_duration_seconds",
			Help:      "Time spent evaluating coupon eligibility.",
			Buckets:   prometheus.DefBuckets,
		}),
		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coupon",
			Name:      "mutations_total",
			Help:      "Coupon writes by operation.",
		}, []string{"operation"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coupon",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coupon",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveVerify records one verification outcome
func (r *Registry) ObserveVerify(outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.VerifyTotal.WithLabelValues(outcome).Inc()
	r.VerifyDuration.Observe(seconds)
}

// ObserveMutation records one coupon write
func (r *Registry) ObserveMutation(operation string) {
	if r == nil {
		return
	}
	r.MutationsTotal.WithLabelValues(operation).Inc()
}
