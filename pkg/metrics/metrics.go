// Package metrics provides Prometheus metrics for the booking simulator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsAcceptedTotal tracks accepted lifecycle events by action
	EventsAcceptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookingsim",
			Subsystem: "generator",
			Name:      "events_accepted_total",
			Help:      "Total number of accepted lifecycle events by action",
		},
		[]string{"action"},
	)

	// OverlapRejectionsTotal tracks candidates discarded due to interval overlap
	OverlapRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookingsim",
			Subsystem: "generator",
			Name:      "overlap_rejections_total",
			Help:      "Total number of candidate events rejected by the booking index",
		},
		[]string{"action"},
	)

	// SlotsSkippedTotal tracks generation slots abandoned after the attempt cap
	SlotsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookingsim",
			Subsystem: "generator",
			Name:      "slots_skipped_total",
			Help:      "Total number of generation slots skipped after exhausting attempts",
		},
	)

	// CycleDuration tracks full cycle duration in seconds
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookingsim",
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Duration of full generation cycles in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// SnapshotFailuresTotal tracks snapshot store read/write failures
	SnapshotFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookingsim",
			Subsystem: "snapshot",
			Name:      "failures_total",
			Help:      "Total number of snapshot store failures by operation",
		},
		[]string{"operation"},
	)

	// PublishFailuresTotal tracks failed batch publishes to the stream sink
	PublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookingsim",
			Subsystem: "sink",
			Name:      "publish_failures_total",
			Help:      "Total number of failed batch publishes to the stream sink",
		},
	)

	// PendingReservations tracks the size of the pending set after each cycle
	PendingReservations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bookingsim",
			Subsystem: "state",
			Name:      "pending_reservations",
			Help:      "Number of future reservations eligible for modify/cancel",
		},
	)

	// BookedIntervals tracks the size of the booking index after each cycle
	BookedIntervals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bookingsim",
			Subsystem: "state",
			Name:      "booked_intervals",
			Help:      "Number of booked intervals tracked across all apartments",
		},
	)
)
