// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package datatypes

// StreamEvent is one frame on the SSE wire.
//
// # Description
//
// Every frame carries integrity metadata set by the writer: a UUID, a
// creation timestamp in epoch milliseconds, a SHA-256 hash of the frame
// content, and the hash of the previous frame. The hash chain lets a
// client verify that no frame was dropped or reordered in transit.
//
// # Fields
//
//   - Type: frame type ("token", "thinking", "status", "data-brain-log",
//     "error", "done").
//   - Content: token or thinking text.
//   - Message: status text.
//   - Error: sanitized error message.
//   - SessionId: set on the final done frame.
//   - BrainLog: the brain log entry payload, set only on data-brain-log
//     frames.
type StreamEvent struct {
	Id        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt int64          `json:"created_at"`
	Hash      string         `json:"hash"`
	PrevHash  string         `json:"prev_hash"`
	Content   string         `json:"content,omitempty"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	SessionId string         `json:"session_id,omitempty"`
	BrainLog  map[string]any `json:"brain_log,omitempty"`
}
