// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package observability provides Prometheus metrics for the portfolio
// backend's streaming chat surface.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Endpoint and Error Code Labels
// =============================================================================

// Endpoint identifies which HTTP surface a metric belongs to.
type Endpoint string

const (
	EndpointChatStream Endpoint = "chat_stream"
	EndpointHealth     Endpoint = "health"
	EndpointProfile    Endpoint = "profile"
)

// ErrorCode categorizes failures for the errors counter.
type ErrorCode string

const (
	ErrorCodeValidation       ErrorCode = "validation"
	ErrorCodeLLMError         ErrorCode = "llm_error"
	ErrorCodeClientDisconnect ErrorCode = "client_disconnect"
	ErrorCodeInternal         ErrorCode = "internal"
)

// =============================================================================
// Metrics
// =============================================================================

// StreamingMetrics holds the Prometheus collectors for the chat stream.
//
// # Description
//
// All metrics share the glassbox/portfolio namespace. Counters and
// histograms are registered with promauto at construction; construct at
// most once per process (or per registry in tests).
//
// # Thread Safety
//
// Safe for concurrent use; Prometheus collectors are internally locked.
type StreamingMetrics struct {
	requestsTotal    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	activeStreams    *prometheus.GaugeVec
	streamDuration   *prometheus.HistogramVec
	timeToFirstToken *prometheus.HistogramVec
	tokensStreamed   *prometheus.CounterVec
	keepAlivesTotal  *prometheus.CounterVec
	disconnectsTotal *prometheus.CounterVec
	brainLogEntries  *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
}

// DefaultMetrics is the process-wide metrics instance, set by main at
// startup. Nil checks at call sites keep tests free of global state.
var DefaultMetrics *StreamingMetrics

// NewStreamingMetrics registers the metric collectors with the given
// registerer (use prometheus.DefaultRegisterer in main).
func NewStreamingMetrics(reg prometheus.Registerer) *StreamingMetrics {
	factory := promauto.With(reg)
	const namespace = "glassbox"
	const subsystem = "portfolio"

	return &StreamingMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total requests by endpoint and outcome.",
		}, []string{"endpoint", "success"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total errors by endpoint and category.",
		}, []string{"endpoint", "code"}),

		activeStreams: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_streams",
			Help:      "Currently open SSE streams.",
		}, []string{"endpoint"}),

		streamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_duration_seconds",
			Help:      "End-to-end stream duration.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"endpoint", "success"}),

		timeToFirstToken: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "time_to_first_token_seconds",
			Help:      "Latency until the first streamed token.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		tokensStreamed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tokens_streamed_total",
			Help:      "Total token frames written to clients.",
		}, []string{"endpoint"}),

		keepAlivesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "keepalives_total",
			Help:      "Total SSE keepalive comments sent.",
		}, []string{"endpoint"}),

		disconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "client_disconnects_total",
			Help:      "Streams ended by client disconnect.",
		}, []string{"endpoint"}),

		brainLogEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "brain_log_entries_total",
			Help:      "Brain log entries streamed, by entry kind.",
		}, []string{"kind"}),

		toolCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_call_duration_seconds",
			Help:      "Agent tool execution time.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"tool", "success"}),
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// RecordRequest counts a completed request.
func (m *StreamingMetrics) RecordRequest(endpoint Endpoint, success bool) {
	m.requestsTotal.WithLabelValues(string(endpoint), boolLabel(success)).Inc()
}

// RecordError counts a categorized failure.
func (m *StreamingMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.errorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// StreamStarted increments the active stream gauge.
func (m *StreamingMetrics) StreamStarted(endpoint Endpoint) {
	m.activeStreams.WithLabelValues(string(endpoint)).Inc()
}

// StreamEnded decrements the active stream gauge.
func (m *StreamingMetrics) StreamEnded(endpoint Endpoint) {
	m.activeStreams.WithLabelValues(string(endpoint)).Dec()
}

// RecordStreamDuration observes a completed stream's duration in seconds.
func (m *StreamingMetrics) RecordStreamDuration(endpoint Endpoint, seconds float64, success bool) {
	m.streamDuration.WithLabelValues(string(endpoint), boolLabel(success)).Observe(seconds)
}

// RecordTimeToFirstToken observes TTFT in seconds.
func (m *StreamingMetrics) RecordTimeToFirstToken(endpoint Endpoint, seconds float64) {
	m.timeToFirstToken.WithLabelValues(string(endpoint)).Observe(seconds)
}

// RecordTokens counts streamed token frames.
func (m *StreamingMetrics) RecordTokens(endpoint Endpoint, count int) {
	m.tokensStreamed.WithLabelValues(string(endpoint)).Add(float64(count))
}

// RecordKeepAlive counts one keepalive comment.
func (m *StreamingMetrics) RecordKeepAlive(endpoint Endpoint) {
	m.keepAlivesTotal.WithLabelValues(string(endpoint)).Inc()
}

// RecordClientDisconnect counts a stream ended by the client.
func (m *StreamingMetrics) RecordClientDisconnect(endpoint Endpoint) {
	m.disconnectsTotal.WithLabelValues(string(endpoint)).Inc()
}

// RecordBrainLogEntry counts one streamed brain log entry.
func (m *StreamingMetrics) RecordBrainLogEntry(kind string) {
	m.brainLogEntries.WithLabelValues(kind).Inc()
}

// RecordToolCall observes one tool execution.
func (m *StreamingMetrics) RecordToolCall(tool string, seconds float64, success bool) {
	m.toolCallDuration.WithLabelValues(tool, boolLabel(success)).Observe(seconds)
}
