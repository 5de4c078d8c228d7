// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/george-dekermenjian/glassbox/services/portfolio/brainlog"
	"github.com/george-dekermenjian/glassbox/services/portfolio/datatypes"
)

// =============================================================================
// Interface Definition
// =============================================================================

// SSEWriter writes Server-Sent Events to an HTTP response.
//
// # Description
//
// SSEWriter abstracts SSE event serialization from HTTP response mechanics.
// Implementations handle the wire format (event: type\ndata: json\n\n) and
// stamp every frame with:
//   - Id: UUID v4 for ordering and deduplication
//   - CreatedAt: Unix timestamp in milliseconds
//   - Hash: SHA-256 hash of frame content for integrity
//   - PrevHash: hash of the previous frame for chain verification
//
// Chat tokens and brain log frames share one writer, so one stream carries
// both and the hash chain covers their interleaving.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. The agent callback and
// the keep-alive goroutine write from different goroutines.
//
// # Assumptions
//
//   - Caller has set SSE headers via SetSSEHeaders before the first write.
type SSEWriter interface {
	// WriteEvent writes a single SSE frame, stamping Id, CreatedAt, Hash,
	// and PrevHash, and flushes immediately.
	WriteEvent(event datatypes.StreamEvent) error

	// WriteStatus writes a status frame with a human-readable message.
	WriteStatus(message string) error

	// WriteToken writes a token frame carrying response text.
	WriteToken(content string) error

	// WriteThinking writes a thinking frame carrying model reasoning text.
	WriteThinking(content string) error

	// WriteBrainLog writes one brain log entry as a data-brain-log frame.
	// Interleaves with token frames on the same stream without disturbing
	// them.
	WriteBrainLog(entry *brainlog.Entry) error

	// WriteError writes an error frame. The message must already be
	// sanitized; internal details never reach the client.
	WriteError(errMsg string) error

	// WriteDone writes the final done frame with the session ID.
	WriteDone(sessionID string) error

	// WriteKeepAlive sends an SSE comment (": ping") to hold the
	// connection open through proxy idle timeouts. Comments are not
	// events and do not advance the hash chain.
	WriteKeepAlive() error
}

// =============================================================================
// Struct Definition
// =============================================================================

// sseWriter implements SSEWriter over an http.ResponseWriter.
//
// # Thread Safety
//
// Thread-safe via mutex. Hash chain integrity holds across concurrent
// writes.
//
// # Limitations
//
//   - Cannot be reused across requests.
type sseWriter struct {
	writer   http.ResponseWriter
	flusher  http.Flusher
	prevHash string
	mu       sync.Mutex
}

var _ SSEWriter = (*sseWriter)(nil)

// NewSSEWriter creates an SSEWriter for the given ResponseWriter, which
// must implement http.Flusher.
func NewSSEWriter(w http.ResponseWriter) (SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter does not support http.Flusher")
	}
	return &sseWriter{writer: w, flusher: flusher}, nil
}

// =============================================================================
// Methods
// =============================================================================

// WriteEvent writes a single SSE frame and flushes.
func (w *sseWriter) WriteEvent(event datatypes.StreamEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	event.Id = uuid.New().String()
	event.CreatedAt = time.Now().UnixMilli()
	event.PrevHash = w.prevHash
	event.Hash = w.computeEventHash(event)
	w.prevHash = event.Hash

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	w.flusher.Flush()
	return nil
}

// computeEventHash hashes the frame's content fields. The Hash field itself
// is excluded; it must be empty when this is called.
func (w *sseWriter) computeEventHash(event datatypes.StreamEvent) string {
	brainLogJSON := ""
	if len(event.BrainLog) > 0 {
		if data, err := json.Marshal(event.BrainLog); err == nil {
			brainLogJSON = string(data)
		}
	}

	hashInput := fmt.Sprintf("%s|%s|%d|%s|%s|%s|%s|%s|%s",
		event.Id,
		event.Type,
		event.CreatedAt,
		event.PrevHash,
		event.Content,
		event.Message,
		event.Error,
		event.SessionId,
		brainLogJSON,
	)

	hash := sha256.Sum256([]byte(hashInput))
	return hex.EncodeToString(hash[:])
}

// WriteStatus writes a status frame.
func (w *sseWriter) WriteStatus(message string) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:    "status",
		Message: message,
	})
}

// WriteToken writes a token frame.
func (w *sseWriter) WriteToken(content string) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:    "token",
		Content: content,
	})
}

// WriteThinking writes a thinking frame.
func (w *sseWriter) WriteThinking(content string) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:    "thinking",
		Content: content,
	})
}

// WriteBrainLog writes one brain log entry as a data-brain-log frame.
func (w *sseWriter) WriteBrainLog(entry *brainlog.Entry) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:     "data-brain-log",
		BrainLog: entry.StreamDict(),
	})
}

// WriteError writes an error frame. The stream should close after this.
func (w *sseWriter) WriteError(errMsg string) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:  "error",
		Error: errMsg,
	})
}

// WriteDone writes the final done frame.
func (w *sseWriter) WriteDone(sessionID string) error {
	return w.WriteEvent(datatypes.StreamEvent{
		Type:      "done",
		SessionId: sessionID,
	})
}

// WriteKeepAlive sends an SSE comment line.
func (w *sseWriter) WriteKeepAlive() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintf(w.writer, ": ping\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}

	w.flusher.Flush()
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// SetSSEHeaders configures the response headers required for SSE streaming.
// Must be called before any body bytes are written.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
