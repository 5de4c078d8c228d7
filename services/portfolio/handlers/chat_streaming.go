// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package handlers implements the HTTP surface of the portfolio backend.
// The streaming chat handler multiplexes agent output and brain log frames
// onto one SSE stream per request.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/george-dekermenjian/glassbox/services/portfolio/agent"
	"github.com/george-dekermenjian/glassbox/services/portfolio/brainlog"
	"github.com/george-dekermenjian/glassbox/services/portfolio/datatypes"
	"github.com/george-dekermenjian/glassbox/services/portfolio/observability"
)

// heartbeatInterval is the interval for sending keepalive pings.
// Set to 15s to stay well under typical LB timeouts (60s for ALB/Nginx).
const heartbeatInterval = 15 * time.Second

// =============================================================================
// Interface Definition
// =============================================================================

// StreamingChatHandler handles the streaming chat endpoint.
//
// # Description
//
// HandleChatStream processes POST /chat requests: it validates the body,
// creates a request-scoped brain log collector, runs the agent, and writes
// the multiplexed SSE stream. Brain log state lives on the request context,
// never in globals, so concurrent requests cannot observe each other's
// entries.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; gin calls handlers from
// many goroutines.
type StreamingChatHandler interface {
	HandleChatStream(c *gin.Context)
}

// chatHandler implements StreamingChatHandler on top of an agent runtime.
type chatHandler struct {
	runtime agent.Runtime
	tracer  trace.Tracer
}

var _ StreamingChatHandler = (*chatHandler)(nil)

// NewStreamingChatHandler creates the handler for the given runtime.
func NewStreamingChatHandler(runtime agent.Runtime) StreamingChatHandler {
	return &chatHandler{
		runtime: runtime,
		tracer:  otel.Tracer("portfolio/handlers"),
	}
}

// =============================================================================
// Handler
// =============================================================================

// HandleChatStream processes one streaming chat request.
func (h *chatHandler) HandleChatStream(c *gin.Context) {
	startTime := time.Now()
	endpoint := observability.EndpointChatStream

	ctx, span := h.tracer.Start(c.Request.Context(), "HandleChatStream")
	defer span.End()

	if m := observability.DefaultMetrics; m != nil {
		m.StreamStarted(endpoint)
		defer m.StreamEnded(endpoint)
	}

	success := false
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			duration := time.Since(startTime).Seconds()
			m.RecordRequest(endpoint, success)
			m.RecordStreamDuration(endpoint, duration, success)
		}
	}()

	// Step 1: Parse request body
	var req datatypes.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		slog.Error("Failed to parse chat request", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Step 2: Validate request
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		slog.Error("Chat request validation failed",
			"error", err,
			"requestId", req.RequestID,
		)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: validation failed"})
		return
	}
	req.EnsureDefaults()

	span.SetAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.Int("request.message_count", len(req.Messages)),
	)

	// Step 3: Set up the SSE stream
	SetSSEHeaders(c.Writer)
	sseWriter, err := NewSSEWriter(c.Writer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "streaming unsupported")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	// Step 4: Create the request-scoped brain log collector and seed it
	// with the input entry. The collector travels on the context so tool
	// executions deep in the agent can record against it.
	collector := brainlog.NewCollector()
	ctx = brainlog.WithCollector(ctx, collector)
	collector.AddInputEntry(req.LatestUserMessage())

	tap := newStreamTap(sseWriter, collector)
	if err := tap.Flush(); err != nil {
		slog.Debug("initial brain log flush failed", "error", err)
		return
	}

	// Step 5: Heartbeat goroutine so proxies keep the connection open
	heartbeatDone := make(chan struct{})
	go h.runHeartbeat(ctx, sseWriter, endpoint, heartbeatDone)

	// Step 6: Run the agent through the tap
	messages := make([]agent.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, agent.Message{Role: m.Role, Content: m.Content})
	}
	params := agent.GenerationParams{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	streamErr := h.runtime.Run(ctx, messages, params, tap.HandleEvent)

	close(heartbeatDone)

	if m := observability.DefaultMetrics; m != nil {
		m.RecordTokens(endpoint, tap.TokenCount())
	}

	if streamErr != nil {
		span.RecordError(streamErr)
		span.SetStatus(codes.Error, "agent streaming failed")
		slog.Error("Agent streaming failed",
			"error", streamErr,
			"requestId", req.RequestID,
			"tokenCount", tap.TokenCount(),
		)

		if errors.Is(streamErr, context.Canceled) {
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeClientDisconnect)
				m.RecordClientDisconnect(endpoint)
			}
			// Client is gone; nothing left to write.
			return
		}
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeLLMError)
		}
		// Sanitized message only; internals stay in the logs. The final
		// flush still runs so the client gets the performance entry and
		// any pending brain log frames collected before the failure.
		_ = sseWriter.WriteError("Agent processing failed")
		_ = tap.Finish()
		return
	}

	// Step 7: Record TTFT and emit the final performance entry
	if ttft := collector.TTFTMs(); ttft != nil {
		seconds := *ttft / 1000
		span.SetAttributes(attribute.Float64("stream.time_to_first_token_seconds", seconds))
		if m := observability.DefaultMetrics; m != nil {
			m.RecordTimeToFirstToken(endpoint, seconds)
		}
	}
	span.SetAttributes(attribute.Int("stream.token_count", tap.TokenCount()))

	if err := tap.Finish(); err != nil {
		slog.Debug("final brain log flush failed", "error", err, "requestId", req.RequestID)
		return
	}

	// Step 8: Emit done event
	if err := sseWriter.WriteDone(req.RequestID); err != nil {
		span.RecordError(err)
		slog.Error("Failed to write done event",
			"error", err,
			"requestId", req.RequestID,
		)
		return
	}

	success = true
	slog.Info("Chat stream completed",
		"requestId", req.RequestID,
		"tokenCount", tap.TokenCount(),
		"durationMs", time.Since(startTime).Milliseconds(),
	)
}

// runHeartbeat sends keepalive comments until the stream finishes or the
// client disconnects.
func (h *chatHandler) runHeartbeat(
	ctx context.Context,
	writer SSEWriter,
	endpoint observability.Endpoint,
	done <-chan struct{},
) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writer.WriteKeepAlive(); err != nil {
				slog.Debug("Failed to write keepalive", "error", err)
				return
			}
			if m := observability.DefaultMetrics; m != nil {
				m.RecordKeepAlive(endpoint)
			}
		}
	}
}
