// Package metrics holds the Prometheus collectors of the service.  They
// are registered on the default registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts finished requests by route template, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_http_requests_total",
		Help: "Total number of handled HTTP requests",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes handler latency by route template.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hotel_http_request_duration_seconds",
		Help:    "Duration of HTTP request handling",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// ReservationOps counts reservation lifecycle calls by operation
	// (create, update, delete) and outcome (ok, invalid, not_found,
	// conflict, unauthorized, error).
	ReservationOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_reservation_operations_total",
		Help: "Reservation lifecycle operations by outcome",
	}, []string{"op", "outcome"})

	// UnitTransitions counts room unit status changes.
	UnitTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_room_unit_transitions_total",
		Help: "Room unit status transitions",
	}, []string{"from", "to"})

	// EventsPublished counts relay deliveries per sink and result.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_events_published_total",
		Help: "Reservation and room status events handed to a sink",
	}, []string{"sink", "event", "result"})

	// LiveSubscribers tracks open event streams.
	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hotel_event_stream_subscribers",
		Help: "Number of connected event stream clients",
	})
)
