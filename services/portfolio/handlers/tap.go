// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package handlers

import (
	"log/slog"
	"time"

	"github.com/george-dekermenjian/glassbox/services/portfolio/agent"
	"github.com/george-dekermenjian/glassbox/services/portfolio/brainlog"
	"github.com/george-dekermenjian/glassbox/services/portfolio/observability"
)

// =============================================================================
// Stream Tap
// =============================================================================

// streamTap adapts agent stream events into SSE frames.
//
// # Description
//
// The tap sits between the agent runtime's event callback and the SSE
// writer. It forwards chat content (tokens, thinking) unchanged and, at
// defined points in the stream, drains the request's brain log collector
// onto the same wire as data-brain-log frames. Chat frames are never
// delayed behind brain log frames: at every injection point the chat
// frame for the triggering event is written in the documented order
// relative to the drain.
//
// Injection points and their ordering:
//   - step start: drain (flushes entries queued before the step)
//   - text start: record first-token time, then drain
//   - text end: text entry, then drain
//   - reasoning end: thinking entry, then drain
//   - tool call start: routing entry, then drain
//   - tool call end: drain (flushes the pending/updated tool call entries
//     recorded during execution)
//   - tool result: completion entry with duration, then drain
//   - stream end (Finish): performance entry, then drain
//
// A nil collector disables recording entirely; the tap degrades to a
// pass-through and the chat stream is unaffected.
//
// # Thread Safety
//
// Not safe for concurrent use. The agent runtime invokes the callback
// sequentially for one request, and each request gets its own tap.
type streamTap struct {
	writer     SSEWriter
	collector  *brainlog.Collector
	toolStart  map[string]time.Time
	tokenCount int
}

// newStreamTap creates a tap for one request. collector may be nil.
func newStreamTap(writer SSEWriter, collector *brainlog.Collector) *streamTap {
	return &streamTap{
		writer:    writer,
		collector: collector,
		toolStart: make(map[string]time.Time),
	}
}

// Flush drains all pending brain log entries onto the stream. The drain is
// destructive: each entry is written at most once across all injection
// points.
func (t *streamTap) Flush() error {
	if t.collector == nil {
		return nil
	}
	for _, entry := range t.collector.PendingEntries() {
		if err := t.writer.WriteBrainLog(entry); err != nil {
			return err
		}
		if m := observability.DefaultMetrics; m != nil {
			m.RecordBrainLogEntry(string(entry.Kind))
		}
	}
	return nil
}

// TokenCount reports how many token frames this tap has written.
func (t *streamTap) TokenCount() int {
	return t.tokenCount
}

// HandleEvent processes one agent stream event. Unknown event types are
// skipped without error so runtime additions never break the stream.
func (t *streamTap) HandleEvent(ev agent.StreamEvent) error {
	switch ev.Type {
	case agent.EventStepStart:
		return t.Flush()

	case agent.EventTextStart:
		if t.collector != nil {
			t.collector.RecordFirstToken()
		}
		return t.Flush()

	case agent.EventTextDelta:
		t.tokenCount++
		return t.writer.WriteToken(ev.Content)

	case agent.EventTextEnd:
		if t.collector != nil && ev.Content != "" {
			t.collector.AddTextEntry(ev.Content, false)
		}
		return t.Flush()

	case agent.EventReasoningStart:
		return nil

	case agent.EventReasoningDelta:
		return t.writer.WriteThinking(ev.Content)

	case agent.EventReasoningEnd:
		if t.collector != nil && ev.Content != "" {
			t.collector.AddThinkingEntry(ev.Content)
		}
		return t.Flush()

	case agent.EventToolCallStart:
		t.toolStart[ev.CallID] = time.Now()
		if t.collector != nil {
			t.collector.AddRoutingEntry(ev.ToolName,
				"LLM selected this tool based on user query", nil)
		}
		return t.Flush()

	case agent.EventToolCallEnd:
		return t.Flush()

	case agent.EventToolResult:
		t.recordToolResult(ev)
		return t.Flush()

	default:
		slog.Debug("unhandled stream event", "type", ev.Type)
		return nil
	}
}

// recordToolResult logs a tool's outcome. Result presence decides the
// status: a result means success, its absence means failure.
func (t *streamTap) recordToolResult(ev agent.StreamEvent) {
	if t.collector == nil {
		return
	}

	var durationMs *float64
	if start, ok := t.toolStart[ev.CallID]; ok {
		delete(t.toolStart, ev.CallID)
		d := float64(time.Since(start)) / float64(time.Millisecond)
		durationMs = &d
	}

	toolName := ev.ToolName
	if toolName == "" {
		toolName = "unknown"
	}

	if ev.HasResult {
		preview := brainlog.TruncateResultPreview(ev.Content)
		t.collector.AddToolResultEntry(toolName, preview, brainlog.StatusSuccess, "", durationMs)
		return
	}
	t.collector.AddToolResultEntry(toolName, "", brainlog.StatusFailure,
		"Tool execution failed", durationMs)
}

// Finish records the end-of-request performance entry and drains it.
// Idempotent entries are the collector's concern; Finish should be called
// once per request.
func (t *streamTap) Finish() error {
	if t.collector == nil {
		return nil
	}
	ttft := t.collector.TTFTMs()
	total := t.collector.TotalMs()
	t.collector.AddPerformanceEntry(ttft, &total, nil, nil)
	return t.Flush()
}
