// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package brainlog

import (
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// Collector
// =============================================================================

// Collector accumulates brain log entries for exactly one chat request.
//
// # Description
//
// The collector owns the full entry history, a FIFO pending queue of entries
// not yet flushed to the wire, and the timing anchors used for the final
// performance entry (request start, first token). One collector is created
// per request by the streaming handler and discarded when the response
// finishes; nothing persists across requests.
//
// # Thread Safety
//
// Safe for concurrent use. The streaming handler's heartbeat goroutine and
// the event callback may touch the collector at the same time.
//
// # Limitations
//
//   - Entries are held in memory for the request lifetime; very long agent
//     runs grow the history unboundedly.
type Collector struct {
	mu             sync.Mutex
	entries        []*Entry
	pending        []*Entry
	byID           map[string]*Entry
	startTime      time.Time
	firstTokenTime time.Time
}

// NewCollector creates a collector anchored at the current time.
func NewCollector() *Collector {
	return &Collector{
		byID:      make(map[string]*Entry),
		startTime: time.Now(),
	}
}

// Add appends an entry to both the full history and the pending queue.
func (c *Collector) Add(entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(entry)
}

func (c *Collector) addLocked(entry *Entry) {
	c.entries = append(c.entries, entry)
	c.pending = append(c.pending, entry)
	c.byID[entry.Id] = entry
}

// PendingEntries returns the pending queue in insertion order and clears it.
// The drain is destructive: a second immediate call returns nil.
func (c *Collector) PendingEntries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pending
	c.pending = nil
	return pending
}

// AllEntries returns a snapshot of every entry ever added, in order.
// Re-announced tool call updates appear once per announcement.
func (c *Collector) AllEntries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// RecordFirstToken marks the first observable output token. Idempotent:
// only the first call's timestamp is retained.
func (c *Collector) RecordFirstToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firstTokenTime.IsZero() {
		c.firstTokenTime = time.Now()
	}
}

// FirstTokenRecorded reports whether a first token has been seen.
func (c *Collector) FirstTokenRecorded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.firstTokenTime.IsZero()
}

// TTFTMs returns time-to-first-token in milliseconds, or nil if no token
// has been observed yet.
func (c *Collector) TTFTMs() *float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firstTokenTime.IsZero() {
		return nil
	}
	ms := float64(c.firstTokenTime.Sub(c.startTime)) / float64(time.Millisecond)
	return &ms
}

// TotalMs returns elapsed time since request start in milliseconds.
func (c *Collector) TotalMs() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(time.Since(c.startTime)) / float64(time.Millisecond)
}

// UpdateToolCall amends a previously added pending tool call and re-enqueues
// it for transmission.
//
// # Description
//
// Looks up the entry by id; an unknown id is a silent no-op (stale or
// duplicate updates never fail the stream). Otherwise status, duration, and
// the provided detail fields are merged in place, the title is re-derived
// from the outcome, and the same entry is appended to both the history and
// pending queue so the client sees the amended version.
//
// # Inputs
//
//   - entryID: id returned by AddToolCallPending.
//   - status: the final status (success or failure).
//   - resultPreview: optional truncated result text.
//   - errMsg: optional error description.
//   - durationMs: optional elapsed time; nil when the start was never timed.
func (c *Collector) UpdateToolCall(entryID string, status EntryStatus, resultPreview, errMsg string, durationMs *float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.byID[entryID]
	if !ok {
		return
	}

	entry.Status = status
	entry.DurationMs = durationMs
	if resultPreview != "" {
		entry.Details["result_preview"] = resultPreview
	}
	if errMsg != "" {
		entry.Details["error"] = errMsg
	}

	toolName, _ := entry.Details["tool"].(string)
	if toolName == "" {
		toolName = "unknown"
	}
	switch status {
	case StatusSuccess:
		entry.Title = fmt.Sprintf("Tool call: %s", toolName)
	case StatusFailure:
		entry.Title = fmt.Sprintf("Tool call failed: %s", toolName)
	}

	// Re-announce the amended entry.
	c.entries = append(c.entries, entry)
	c.pending = append(c.pending, entry)
}

// =============================================================================
// Convenience Constructors
// =============================================================================

// AddInputEntry records the user message that started the request.
func (c *Collector) AddInputEntry(message string) {
	c.Add(NewInputEntry(message))
}

// AddRoutingEntry records a tool routing decision.
func (c *Collector) AddRoutingEntry(selectedTool, reason string, alternatives []string) {
	c.Add(NewRoutingEntry(selectedTool, reason, alternatives))
}

// AddToolCallPending records an in-flight tool call and returns its id for
// the later UpdateToolCall.
func (c *Collector) AddToolCallPending(toolName string, arguments map[string]any) string {
	entry := NewToolCallPending(toolName, arguments)
	c.Add(entry)
	return entry.Id
}

// AddToolCallComplete records a finished tool call in one entry.
func (c *Collector) AddToolCallComplete(toolName string, arguments map[string]any, resultPreview string, status EntryStatus, errMsg string, durationMs *float64) {
	c.Add(NewToolCallComplete(toolName, arguments, resultPreview, status, errMsg, durationMs))
}

// AddToolResultEntry records a tool result separately from its invocation.
func (c *Collector) AddToolResultEntry(toolName, resultPreview string, status EntryStatus, errMsg string, durationMs *float64) {
	c.Add(NewToolResultEntry(toolName, resultPreview, status, errMsg, durationMs))
}

// AddValidationEntry records an output schema validation outcome.
func (c *Collector) AddValidationEntry(schemaName string, status EntryStatus, validationErrors []string, fallbackAction string) {
	c.Add(NewValidationEntry(schemaName, status, validationErrors, fallbackAction))
}

// AddPerformanceEntry records end-of-request timing metrics.
func (c *Collector) AddPerformanceEntry(ttftMs, totalMs *float64, tokensIn, tokensOut *int) {
	c.Add(NewPerformanceEntry(ttftMs, totalMs, tokensIn, tokensOut))
}

// AddThinkingEntry records accumulated model reasoning.
func (c *Collector) AddThinkingEntry(thinkingText string) {
	c.Add(NewThinkingEntry(thinkingText))
}

// AddTextEntry records model output text.
func (c *Collector) AddTextEntry(text string, isPartial bool) {
	c.Add(NewTextEntry(text, isPartial))
}
