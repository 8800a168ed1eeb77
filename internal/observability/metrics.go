package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	chatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_chat_turns_total",
			Help: "Chat submissions by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_executions_total",
			Help: "Query executions by dialect and outcome.",
		},
		[]string{"dialect", "outcome"},
	)

	upstreamRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querypilot_upstream_request_duration_seconds",
			Help:    "Gateway call latency by call name and outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(chatTurnsTotal, executionsTotal, upstreamRequestDurationSeconds)
}

// RecordChatTurn counts one chat submission.
func RecordChatTurn(mode, outcome string) {
	chatTurnsTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordExecution counts one dispatched execution.
func RecordExecution(dialect, outcome string) {
	executionsTotal.WithLabelValues(dialect, outcome).Inc()
}

// ObserveUpstream records one gateway round trip.
func ObserveUpstream(call string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	upstreamRequestDurationSeconds.WithLabelValues(call, outcome).Observe(time.Since(start).Seconds())
}
