// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package brainlog implements the structured execution trace behind the
// Glass Box mode: typed log entries describing what the agent did (input
// received, tool routing, reasoning, tool calls, performance), collected
// per request and streamed to the client alongside the chat response.
package brainlog

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Entry Kinds and Statuses
// =============================================================================

// EntryKind identifies what kind of agent activity an entry describes.
type EntryKind string

const (
	KindInput       EntryKind = "input"
	KindRouting     EntryKind = "routing"
	KindThinking    EntryKind = "thinking"
	KindText        EntryKind = "text"
	KindToolCall    EntryKind = "tool_call"
	KindToolResult  EntryKind = "tool_result"
	KindValidation  EntryKind = "validation"
	KindPerformance EntryKind = "performance"
)

// EntryStatus is the outcome state of an entry. Pending is only meaningful
// for tool call entries awaiting their result.
type EntryStatus string

const (
	StatusPending EntryStatus = "pending"
	StatusSuccess EntryStatus = "success"
	StatusFailure EntryStatus = "failure"
)

// Preview truncation bounds. These are wire-size controls, not display
// decisions; the frontend relies on the exact values.
const (
	// InputPreviewBound caps the message_preview field of input entries.
	InputPreviewBound = 100

	// PreviewBound caps reasoning, text, and tool result previews.
	PreviewBound = 200
)

// =============================================================================
// Entry
// =============================================================================

// Entry is one observable event in the agent's execution.
//
// # Description
//
// Entries are created through the kind-specific constructors below, which
// derive the title deterministically from the kind and key details. An entry
// is immutable after creation except through Collector.UpdateToolCall, which
// amends a pending tool call in place and re-announces it.
//
// # Fields
//
//   - Id: UUID v4, used to correlate a pending tool call with its update.
//   - Timestamp: creation time. Serialized as epoch milliseconds.
//   - Kind: the entry variant. Determines the shape of Details.
//   - Title: short human-readable summary.
//   - Details: kind-specific named fields (never positional).
//   - Status: pending, success, or failure.
//   - DurationMs: set when a timed operation completes; nil otherwise.
//
// # Thread Safety
//
// Entries are not safe for concurrent mutation; the owning Collector
// serializes access.
type Entry struct {
	Id         string
	Timestamp  time.Time
	Kind       EntryKind
	Title      string
	Details    map[string]any
	Status     EntryStatus
	DurationMs *float64
}

// StreamDict converts the entry to the wire payload carried inside a
// brain log frame. Timestamps are epoch-millisecond integers so the
// frontend never parses time strings.
func (e *Entry) StreamDict() map[string]any {
	var duration any
	if e.DurationMs != nil {
		duration = *e.DurationMs
	}
	return map[string]any{
		"id":          e.Id,
		"timestamp":   e.Timestamp.UnixMilli(),
		"type":        string(e.Kind),
		"title":       e.Title,
		"details":     e.Details,
		"status":      string(e.Status),
		"duration_ms": duration,
	}
}

func newEntry(kind EntryKind, title string, details map[string]any) *Entry {
	if details == nil {
		details = map[string]any{}
	}
	return &Entry{
		Id:        uuid.New().String(),
		Timestamp: time.Now(),
		Kind:      kind,
		Title:     title,
		Details:   details,
		Status:    StatusSuccess,
	}
}

// TruncateResultPreview bounds tool result text to the standard preview
// size. Exposed for callers that build previews before constructing entries.
func TruncateResultPreview(s string) string {
	return truncatePreview(s, PreviewBound)
}

// truncatePreview bounds s to limit characters, appending "..." when cut.
// Bounds are measured in runes so multibyte text is never split mid-character.
func truncatePreview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// =============================================================================
// Constructors
// =============================================================================

// NewInputEntry records that a user message was received. The preview is
// bounded to InputPreviewBound; details.length carries the full length.
func NewInputEntry(message string) *Entry {
	return newEntry(KindInput, "User message received", map[string]any{
		"message_preview": truncatePreview(message, InputPreviewBound),
		"length":          len([]rune(message)),
	})
}

// NewRoutingEntry records a tool routing decision. An empty selectedTool
// means the model answered directly without calling a tool.
func NewRoutingEntry(selectedTool, reason string, alternatives []string) *Entry {
	details := map[string]any{"reason": reason}
	title := "Direct response (no tool)"
	if selectedTool != "" {
		details["selected_tool"] = selectedTool
		title = fmt.Sprintf("Selected tool: %s", selectedTool)
	}
	if len(alternatives) > 0 {
		details["alternatives_considered"] = alternatives
	}
	return newEntry(KindRouting, title, details)
}

// NewThinkingEntry records accumulated model reasoning text.
func NewThinkingEntry(thinkingText string) *Entry {
	return newEntry(KindThinking, "Model reasoning", map[string]any{
		"preview": truncatePreview(thinkingText, PreviewBound),
		"length":  len([]rune(thinkingText)),
	})
}

// NewTextEntry records model output text. Partial entries describe a chunk
// flushed before the full response was available.
func NewTextEntry(text string, isPartial bool) *Entry {
	title := "Text response"
	if isPartial {
		title = "Text chunk"
	}
	return newEntry(KindText, title, map[string]any{
		"preview":    truncatePreview(text, PreviewBound),
		"length":     len([]rune(text)),
		"is_partial": isPartial,
	})
}

// NewToolCallPending records a tool invocation that has started but not yet
// completed. The entry is amended later via Collector.UpdateToolCall.
func NewToolCallPending(toolName string, arguments map[string]any) *Entry {
	if arguments == nil {
		arguments = map[string]any{}
	}
	entry := newEntry(KindToolCall, fmt.Sprintf("Calling %s...", toolName), map[string]any{
		"tool":      toolName,
		"arguments": arguments,
	})
	entry.Status = StatusPending
	return entry
}

// NewToolCallComplete records a finished tool invocation in one shot, used
// when the start was never observed separately.
func NewToolCallComplete(toolName string, arguments map[string]any, resultPreview string, status EntryStatus, errMsg string, durationMs *float64) *Entry {
	if arguments == nil {
		arguments = map[string]any{}
	}
	details := map[string]any{
		"tool":      toolName,
		"arguments": arguments,
	}
	if resultPreview != "" {
		details["result_preview"] = resultPreview
	}
	if errMsg != "" {
		details["error"] = errMsg
	}
	entry := newEntry(KindToolCall, fmt.Sprintf("Tool call: %s", toolName), details)
	entry.Status = status
	entry.DurationMs = durationMs
	return entry
}

// NewToolResultEntry records a tool's result separately from its invocation.
func NewToolResultEntry(toolName string, resultPreview string, status EntryStatus, errMsg string, durationMs *float64) *Entry {
	details := map[string]any{"tool": toolName}
	if resultPreview != "" {
		details["result_preview"] = resultPreview
	}
	if errMsg != "" {
		details["error"] = errMsg
	}
	title := fmt.Sprintf("Tool result: %s", toolName)
	if status == StatusFailure {
		title = fmt.Sprintf("Tool failed: %s", toolName)
	}
	entry := newEntry(KindToolResult, title, details)
	entry.Status = status
	entry.DurationMs = durationMs
	return entry
}

// NewValidationEntry records an output schema validation outcome.
func NewValidationEntry(schemaName string, status EntryStatus, validationErrors []string, fallbackAction string) *Entry {
	details := map[string]any{"schema": schemaName}
	if len(validationErrors) > 0 {
		details["errors"] = validationErrors
	}
	if fallbackAction != "" {
		details["fallback_action"] = fallbackAction
	}
	entry := newEntry(KindValidation, fmt.Sprintf("Output schema validated: %s", schemaName), details)
	entry.Status = status
	return entry
}

// NewPerformanceEntry records end-of-request timing metrics. Metric values
// are rounded to 2 decimal places at creation time, not at render time.
func NewPerformanceEntry(ttftMs, totalMs *float64, tokensIn, tokensOut *int) *Entry {
	details := map[string]any{}
	if ttftMs != nil {
		details["ttft_ms"] = round2(*ttftMs)
	}
	if totalMs != nil {
		details["total_ms"] = round2(*totalMs)
	}
	if tokensIn != nil {
		details["tokens_in"] = *tokensIn
	}
	if tokensOut != nil {
		details["tokens_out"] = *tokensOut
	}
	entry := newEntry(KindPerformance, "Request complete", details)
	entry.DurationMs = totalMs
	return entry
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
