// Package metrics exposes process-wide Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolExecutions counts dispatcher outcomes per tool.
	ToolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipyard_tool_executions_total",
		Help: "Tool executions by tool name and outcome.",
	}, []string{"tool", "outcome"})

	// Approvals counts approval decisions.
	Approvals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipyard_approvals_total",
		Help: "Approval decisions on pending tool executions.",
	}, []string{"decision"})

	// StreamDuration observes end-to-end SSE stream durations.
	StreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipyard_stream_duration_seconds",
		Help:    "Duration of chat and agent SSE streams.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"kind"})
)

// Outcome labels for ToolExecutions.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeInvalid   = "invalid_params"
	OutcomeUnknown   = "unknown_tool"
	OutcomeRecovered = "panic"
)
