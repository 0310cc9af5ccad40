package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smart_parking",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	gateScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smart_parking",
			Name:      "gate_scans_total",
			Help:      "Gate scans by gate and outcome.",
		},
		[]string{"gate", "outcome"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smart_parking",
			Name:      "bookings_created_total",
			Help:      "Successfully created bookings.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, gateScans, bookingsCreated)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncGateScan increments the gate scan counter. outcome is "granted" or the
// denial reason.
func IncGateScan(gate, outcome string) {
	gateScans.WithLabelValues(gate, outcome).Inc()
}

// IncBookingCreated increments the created-bookings counter.
func IncBookingCreated() {
	bookingsCreated.Inc()
}
