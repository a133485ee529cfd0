// Package metrics provides Prometheus instrumentation for share generation
// and message disclosure. Collectors register with the default registry;
// embedding applications expose them however they serve metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all quorum metrics
	Namespace = "quorum"

	// Label names
	LabelStatus = "status"

	// Reveal status values
	StatusClear     = "clear"
	StatusMasked    = "masked"
	StatusPlaintext = "plaintext"
	StatusEcho      = "echo"
	StatusError     = "error"
)

var (
	// SharesGeneratedTotal counts share strings produced by split operations.
	SharesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "shares_generated_total",
		Help:      "Total number of shares generated",
	})

	// SplitDuration tracks how long one GenerateShares call takes.
	SplitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "split_duration_seconds",
		Help:      "Duration of share generation in seconds",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	})

	// MessagesSentTotal counts messages persisted by the chat service.
	MessagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of messages sent",
	})

	// RevealsTotal counts message reads by outcome.
	RevealsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reveals_total",
			Help:      "Total number of message reveals by status",
		},
		[]string{LabelStatus},
	)
)

// RecordSplit records one split producing the given number of shares.
func RecordSplit(shares int, took time.Duration) {
	SharesGeneratedTotal.Add(float64(shares))
	SplitDuration.Observe(took.Seconds())
}

// RecordSend records one persisted message.
func RecordSend() {
	MessagesSentTotal.Inc()
}

// RecordReveal records the outcome of one read.
func RecordReveal(status string) {
	RevealsTotal.WithLabelValues(status).Inc()
}

// WriteTextfile writes the default registry in the text exposition format
// to path, for pickup by a textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
