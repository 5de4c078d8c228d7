// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package agent defines the streaming agent runtime: the event taxonomy a
// run produces, the runtime contract, and the OpenAI-backed implementation
// that drives tool-calling chat completions.
package agent

// EventType identifies one category of agent stream event.
type EventType string

const (
	// EventStepStart marks the beginning of one model response step.
	// A run has one step per model round-trip; tool calls start a new step.
	EventStepStart EventType = "step_start"

	// EventTextStart / EventTextDelta / EventTextEnd bracket a streamed
	// span of user-visible response text, correlated by StreamID.
	EventTextStart EventType = "text_start"
	EventTextDelta EventType = "text_delta"
	EventTextEnd   EventType = "text_end"

	// EventReasoningStart / Delta / End bracket a streamed span of model
	// reasoning text, correlated by StreamID.
	EventReasoningStart EventType = "reasoning_start"
	EventReasoningDelta EventType = "reasoning_delta"
	EventReasoningEnd   EventType = "reasoning_end"

	// EventToolCallStart announces a tool invocation (name + arguments).
	// EventToolCallEnd marks the call dispatched, before the result is known.
	EventToolCallStart EventType = "tool_call_start"
	EventToolCallEnd   EventType = "tool_call_end"

	// EventToolResult carries a tool's outcome, correlated by CallID.
	EventToolResult EventType = "tool_result"
)

// StreamEvent is one event in an agent run's stream.
//
// # Fields
//
//   - Type: event category. Consumers must skip types they don't recognize.
//   - StreamID: correlation id for text/reasoning spans.
//   - CallID: correlation id for tool call start/end/result triples.
//   - ToolName: tool name for tool events. May be empty on malformed
//     upstream events; consumers substitute "unknown".
//   - Arguments: parsed tool arguments, tool_call_start only.
//   - Content: delta text, or the stringified tool result payload.
//   - HasResult: tool_result only. False means the call produced no usable
//     payload and is treated as a failure.
type StreamEvent struct {
	Type      EventType
	StreamID  string
	CallID    string
	ToolName  string
	Arguments map[string]any
	Content   string
	HasResult bool
}

// StreamCallback receives each event of a run in order. Returning a non-nil
// error aborts the run; the error propagates out of Run.
type StreamCallback func(event StreamEvent) error
