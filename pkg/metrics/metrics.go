// Package metrics holds the prometheus counters of the decoder.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Discard reasons used as label values.
const (
	ReasonMalformedGap   = "malformed_gap"
	ReasonLengthMismatch = "length_mismatch"
	ReasonStaleFrame     = "stale_frame"
)

var (
	registerOnce sync.Once

	// Frames, Discarded, Edges and Readings are registered by Register.
	Frames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auriol",
			Subsystem: "decoder",
			Name:      "frames_total",
			Help:      "Frames of exactly 37 bits terminated by a sync.",
		},
	)
	Discarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auriol",
			Subsystem: "decoder",
			Name:      "discarded_frames_total",
			Help:      "Frames in progress discarded, by reason.",
		},
		[]string{"reason"},
	)
	Edges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auriol",
			Subsystem: "decoder",
			Name:      "edges_total",
			Help:      "Rising edges received, ignored ones are counted during the hold-off.",
		},
		[]string{"ignored"},
	)
	Readings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auriol",
			Subsystem: "app",
			Name:      "readings_total",
			Help:      "Readings handed to display and broker, by channel.",
		},
		[]string{"channel"},
	)
)

// Register registers the counters with the default registry. It is safe to call it more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Frames, Discarded, Edges, Readings)
	})
}

// RecordFrame counts a released frame.
func RecordFrame() {
	Frames.Inc()
}

// RecordDiscard counts a discarded frame in progress.
func RecordDiscard(reason string) {
	Discarded.WithLabelValues(reason).Inc()
}

// RecordEdge counts a rising edge.
func RecordEdge(ignored bool) {
	Edges.WithLabelValues(strconv.FormatBool(ignored)).Inc()
}

// RecordReading counts a reading passed on to the sinks.
func RecordReading(channel int) {
	Readings.WithLabelValues(strconv.Itoa(channel)).Inc()
}
