// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package agent

import "context"

// Message is one turn of conversation history passed to a run.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams are optional sampling parameters for a run.
// Nil fields fall back to backend defaults.
type GenerationParams struct {
	Temperature *float32
	MaxTokens   *int
	TopP        *float32
	Stop        []string
}

// Runtime is the agent execution contract.
//
// # Description
//
// A Runtime takes conversation history, drives the model (including any tool
// calls it decides to make), and reports progress as an ordered sequence of
// StreamEvents through the callback. The callback is invoked from a single
// goroutine; events for one run never interleave.
//
// # Limitations
//
//   - Run blocks until the stream is exhausted or the callback/context
//     aborts it.
type Runtime interface {
	Run(ctx context.Context, messages []Message, params GenerationParams, callback StreamCallback) error
}
