package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the booking service.
// A nil *Registry is valid and records nothing.
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Booking Metrics
	AllocationsTotal   *prometheus.CounterVec
	AllocationDuration prometheus.Histogram
	SeatsBookedTotal   prometheus.Counter
	SeatsReleasedTotal prometheus.Counter
	RateLimitedTotal   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every metric on reg. Pass prometheus.NewRegistry() in tests
// so repeated construction does not collide on the default registerer.
func New(reg *prometheus.Registry) *Registry {
	f := promauto.With(reg)
	return &Registry{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seatbooking_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seatbooking_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seatbooking_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		AllocationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seatbooking_allocations_total",
				Help: "Seat allocation attempts by outcome",
			},
			[]string{"outcome"},
		),
		AllocationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seatbooking_allocation_duration_seconds",
				Help:    "Time spent in one allocation attempt",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		SeatsBookedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "seatbooking_seats_booked_total",
			Help: "Seats committed by successful allocations",
		}),
		SeatsReleasedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "seatbooking_seats_released_total",
			Help: "Seats removed by release requests",
		}),
		RateLimitedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seatbooking_rate_limited_total",
				Help: "Requests rejected by the rate limiter, by backend",
			},
			[]string{"backend"},
		),
		gatherer: reg,
	}
}

// ObserveAllocation records one allocation attempt.
func (r *Registry) ObserveAllocation(outcome string, took time.Duration, seats int) {
	if r == nil {
		return
	}
	r.AllocationsTotal.WithLabelValues(outcome).Inc()
	r.AllocationDuration.Observe(took.Seconds())
	if seats > 0 {
		r.SeatsBookedTotal.Add(float64(seats))
	}
}

// ObserveRelease records seats deleted by a release.
func (r *Registry) ObserveRelease(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.SeatsReleasedTotal.Add(float64(n))
}

// ObserveRateLimited counts one rejected request.
func (r *Registry) ObserveRateLimited(backend string) {
	if r == nil {
		return
	}
	r.RateLimitedTotal.WithLabelValues(backend).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
