// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package brainlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// StreamDict Tests
// =============================================================================

// TestStreamDict_Fields verifies the exact wire payload shape.
func TestStreamDict_Fields(t *testing.T) {
	entry := NewInputEntry("Hello")
	dict := entry.StreamDict()

	assert.Equal(t, entry.Id, dict["id"])
	assert.Equal(t, entry.Timestamp.UnixMilli(), dict["timestamp"])
	assert.Equal(t, "input", dict["type"])
	assert.Equal(t, "User message received", dict["title"])
	assert.Equal(t, "success", dict["status"])
	assert.Nil(t, dict["duration_ms"], "duration should be null when unset")
}

// TestStreamDict_DurationSet verifies duration_ms round-trips when present.
func TestStreamDict_DurationSet(t *testing.T) {
	d := 42.5
	entry := NewToolResultEntry("get_skills", "ok", StatusSuccess, "", &d)

	dict := entry.StreamDict()

	assert.Equal(t, 42.5, dict["duration_ms"])
}

// =============================================================================
// Input Entry Tests
// =============================================================================

// TestNewInputEntry_ShortMessage verifies short messages pass through unchanged.
func TestNewInputEntry_ShortMessage(t *testing.T) {
	entry := NewInputEntry("What is your email?")

	assert.Equal(t, KindInput, entry.Kind)
	assert.Equal(t, "What is your email?", entry.Details["message_preview"])
	assert.Equal(t, 19, entry.Details["length"])
}

// TestNewInputEntry_LongMessageTruncated verifies the 100-char preview bound:
// a 150-char message yields exactly the first 100 chars plus "...", with the
// full length preserved in details.
func TestNewInputEntry_LongMessageTruncated(t *testing.T) {
	message := strings.Repeat("a", 150)

	entry := NewInputEntry(message)

	preview, ok := entry.Details["message_preview"].(string)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("a", 100)+"...", preview)
	assert.Equal(t, 150, entry.Details["length"])
}

// TestNewInputEntry_ExactBoundNotTruncated verifies a message exactly at the
// bound is stored unmodified.
func TestNewInputEntry_ExactBoundNotTruncated(t *testing.T) {
	message := strings.Repeat("x", 100)

	entry := NewInputEntry(message)

	assert.Equal(t, message, entry.Details["message_preview"])
}

// =============================================================================
// Truncation Law
// =============================================================================

// TestTruncatePreview_Law checks the truncation invariant across lengths:
// stored preview length <= bound+3, and equality when under the bound.
func TestTruncatePreview_Law(t *testing.T) {
	for _, length := range []int{0, 1, 99, 100, 101, 150, 500} {
		s := strings.Repeat("z", length)
		got := truncatePreview(s, 100)

		assert.LessOrEqual(t, len([]rune(got)), 103, "length %d", length)
		if length <= 100 {
			assert.Equal(t, s, got, "length %d should be unmodified", length)
		} else {
			assert.Equal(t, s[:100]+"...", got, "length %d", length)
		}
	}
}

// TestTruncatePreview_Multibyte verifies truncation never splits a rune.
func TestTruncatePreview_Multibyte(t *testing.T) {
	s := strings.Repeat("é", 250)

	got := truncatePreview(s, 200)

	assert.Equal(t, strings.Repeat("é", 200)+"...", got)
}

// =============================================================================
// Routing Entry Tests
// =============================================================================

func TestNewRoutingEntry_WithTool(t *testing.T) {
	entry := NewRoutingEntry("get_skills", "LLM selected this tool based on user query", nil)

	assert.Equal(t, KindRouting, entry.Kind)
	assert.Equal(t, "Selected tool: get_skills", entry.Title)
	assert.Equal(t, "get_skills", entry.Details["selected_tool"])
	assert.Equal(t, "LLM selected this tool based on user query", entry.Details["reason"])
	assert.NotContains(t, entry.Details, "alternatives_considered")
}

func TestNewRoutingEntry_NoTool(t *testing.T) {
	entry := NewRoutingEntry("", "no tool needed", nil)

	assert.Equal(t, "Direct response (no tool)", entry.Title)
	assert.NotContains(t, entry.Details, "selected_tool")
}

func TestNewRoutingEntry_Alternatives(t *testing.T) {
	entry := NewRoutingEntry("find_symbol", "best match", []string{"find_references"})

	assert.Equal(t, []string{"find_references"}, entry.Details["alternatives_considered"])
}

// =============================================================================
// Tool Call Entry Tests
// =============================================================================

func TestNewToolCallPending(t *testing.T) {
	entry := NewToolCallPending("get_projects", map[string]any{"limit": 5})

	assert.Equal(t, KindToolCall, entry.Kind)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, "Calling get_projects...", entry.Title)
	assert.Equal(t, "get_projects", entry.Details["tool"])
	assert.Equal(t, map[string]any{"limit": 5}, entry.Details["arguments"])
}

func TestNewToolCallComplete_Success(t *testing.T) {
	d := 12.0
	entry := NewToolCallComplete("get_skills", nil, "skills list", StatusSuccess, "", &d)

	assert.Equal(t, "Tool call: get_skills", entry.Title)
	assert.Equal(t, StatusSuccess, entry.Status)
	assert.Equal(t, "skills list", entry.Details["result_preview"])
	assert.NotContains(t, entry.Details, "error")
	require.NotNil(t, entry.DurationMs)
	assert.Equal(t, 12.0, *entry.DurationMs)
}

func TestNewToolResultEntry_FailureTitle(t *testing.T) {
	entry := NewToolResultEntry("get_skills", "", StatusFailure, "Tool execution failed", nil)

	assert.Equal(t, "Tool failed: get_skills", entry.Title)
	assert.Equal(t, StatusFailure, entry.Status)
	assert.Equal(t, "Tool execution failed", entry.Details["error"])
}

// =============================================================================
// Thinking / Text Entry Tests
// =============================================================================

func TestNewThinkingEntry_Truncates(t *testing.T) {
	text := strings.Repeat("r", 250)

	entry := NewThinkingEntry(text)

	assert.Equal(t, "Model reasoning", entry.Title)
	assert.Equal(t, strings.Repeat("r", 200)+"...", entry.Details["preview"])
	assert.Equal(t, 250, entry.Details["length"])
}

func TestNewTextEntry_Titles(t *testing.T) {
	full := NewTextEntry("hello", false)
	partial := NewTextEntry("hel", true)

	assert.Equal(t, "Text response", full.Title)
	assert.Equal(t, false, full.Details["is_partial"])
	assert.Equal(t, "Text chunk", partial.Title)
	assert.Equal(t, true, partial.Details["is_partial"])
}

// =============================================================================
// Validation / Performance Entry Tests
// =============================================================================

func TestNewValidationEntry(t *testing.T) {
	entry := NewValidationEntry("SkillsResponse", StatusFailure, []string{"missing field"}, "retry")

	assert.Equal(t, "Output schema validated: SkillsResponse", entry.Title)
	assert.Equal(t, []string{"missing field"}, entry.Details["errors"])
	assert.Equal(t, "retry", entry.Details["fallback_action"])
}

// TestNewPerformanceEntry_Rounding verifies metrics round to 2 decimals at
// creation and duration_ms mirrors total_ms.
func TestNewPerformanceEntry_Rounding(t *testing.T) {
	ttft := 123.456789
	total := 987.654321

	entry := NewPerformanceEntry(&ttft, &total, nil, nil)

	assert.Equal(t, "Request complete", entry.Title)
	assert.Equal(t, 123.46, entry.Details["ttft_ms"])
	assert.Equal(t, 987.65, entry.Details["total_ms"])
	require.NotNil(t, entry.DurationMs)
	assert.Equal(t, total, *entry.DurationMs)
}

func TestNewPerformanceEntry_OmitsAbsentMetrics(t *testing.T) {
	total := 10.0

	entry := NewPerformanceEntry(nil, &total, nil, nil)

	assert.NotContains(t, entry.Details, "ttft_ms")
	assert.NotContains(t, entry.Details, "tokens_in")
	assert.Contains(t, entry.Details, "total_ms")
}
