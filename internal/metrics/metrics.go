// Package metrics holds the prometheus collectors for tree edits and
// transfers. They register with the default registry, served at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gotrabandhus"

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// Mutations counts edit operations.
	// Labels: op (add, update, delete, profile, clear), status (ok, error)
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tree",
		Name:      "mutations_total",
		Help:      "Total tree edit operations",
	}, []string{"op", "status"})

	// MutationDuration measures edit latency including persistence.
	// Labels: op
	MutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tree",
		Name:      "mutation_duration_seconds",
		Help:      "Tree edit latency in seconds",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"op"})

	// Transfers counts imports and exports.
	// Labels: direction (import, export), format (json, yaml), status
	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "codec",
		Name:      "transfers_total",
		Help:      "Total tree imports and exports",
	}, []string{"direction", "format", "status"})

	// TransferBytes tracks payload sizes of imports and exports.
	// Labels: direction
	TransferBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "codec",
		Name:      "transfer_bytes",
		Help:      "Size of imported and exported documents",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"direction"})

	// TreeMembers is the member count of each tree after its last write.
	// Labels: tree
	TreeMembers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tree",
		Name:      "members",
		Help:      "Number of members in a tree after the last write",
	}, []string{"tree"})

	// SSEClients is the number of connected event stream clients
	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "sse_clients",
		Help:      "Connected server-sent event clients",
	})

	// DroppedEvents counts events not delivered to a slow subscriber
	DroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Events dropped because a subscriber was not ready",
	})
)

// Status maps an error to a status label
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ObserveMutation records one edit operation
func ObserveMutation(op string, start time.Time, err error) {
	Mutations.WithLabelValues(op, Status(err)).Inc()
	MutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveTransfer records one import or export
func ObserveTransfer(direction, format string, size int, err error) {
	Transfers.WithLabelValues(direction, format, Status(err)).Inc()
	if err == nil {
		TransferBytes.WithLabelValues(direction).Observe(float64(size))
	}
}
