// Package monitor exposes Prometheus metrics for the relay pipeline.
package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fuchsia74/gemini-pool/relay/relaymode"
)

var (
	relayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gemini_pool_relay_requests_total",
		Help: "Relay requests by mode and outcome.",
	}, []string{"mode", "outcome"})

	relayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gemini_pool_relay_request_duration_seconds",
		Help:    "Relay request duration by mode.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	relayRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gemini_pool_relay_requests_in_flight",
		Help: "Relay requests currently being served.",
	})

	relayAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gemini_pool_relay_attempts_total",
		Help: "Upstream attempts by credential source.",
	}, []string{"source"})
)

// ModeLabel renders a relay mode constant as a stable metric label.
func ModeLabel(mode int) string {
	switch mode {
	case relaymode.ChatCompletions:
		return "chat_completions"
	case relaymode.Embeddings:
		return "embeddings"
	case relaymode.ImagesGenerations:
		return "images_generations"
	case relaymode.ModelList:
		return "model_list"
	case relaymode.Native:
		return "native"
	default:
		return "unknown"
	}
}

// RelayStarted marks a request entering the relay pipeline.
func RelayStarted() {
	relayRequestsInFlight.Inc()
}

// RelayFinished records the outcome and duration of a relay request.
func RelayFinished(mode int, startTime time.Time, success bool) {
	relayRequestsInFlight.Dec()
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	label := ModeLabel(mode)
	relayRequestsTotal.WithLabelValues(label, outcome).Inc()
	relayRequestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
}

// RecordAttempt counts one upstream attempt under a credential source, either
// "pool", "fallback", or "passthrough".
func RecordAttempt(source string) {
	relayAttemptsTotal.WithLabelValues(source).Inc()
}
