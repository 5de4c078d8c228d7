// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package datatypes provides request and response types for the portfolio
// backend's HTTP surface.
package datatypes

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Size Limits
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single message content.
	// Checked in bytes, not runes, to bound memory regardless of encoding.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxMessagesPerRequest is the maximum number of messages in a request.
	MaxMessagesPerRequest = 100
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes validates that a string field does not exceed
// MaxMessageContentBytes. Byte length, not rune count, so oversized
// multibyte payloads are rejected too.
func validateMaxBytes(fl validator.FieldLevel) bool {
	content := fl.Field().String()
	return len(content) <= MaxMessageContentBytes
}

// =============================================================================
// Chat Request Types
// =============================================================================

// ChatMessage is one message in the conversation history.
//
// # Description
//
// Content accepts two JSON shapes: a plain string, or an array of parts
// where each part may be {"type":"text","text":...} (other part types are
// ignored). Frontend SDKs emit either shape depending on version, so the
// backend normalizes both into a single string at decode time.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"maxbytes"`
}

// contentPart is one element of the multi-part content array shape.
type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UnmarshalJSON decodes both content shapes. Unknown part types and
// malformed parts contribute nothing rather than failing the request.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role

	if len(raw.Content) == 0 {
		m.Content = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(raw.Content, &s); err == nil {
		m.Content = s
		return nil
	}

	var parts []contentPart
	if err := json.Unmarshal(raw.Content, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		m.Content = b.String()
		return nil
	}

	// Neither shape matched; treat as empty rather than rejecting.
	m.Content = ""
	return nil
}

// ChatRequest is the POST /chat request body.
//
// # Description
//
// Contains the conversation history plus optional generation parameters.
// Every request carries a unique ID and timestamp for tracing; both are
// generated server-side when the client omits them (EnsureDefaults).
//
// # Validation
//
//   - RequestID: must be a valid UUID v4 when present
//   - Messages: 1-100 elements, each element validated
//   - Messages[].Content: max 32768 bytes (32KB)
type ChatRequest struct {
	RequestID   string        `json:"request_id,omitempty" validate:"omitempty,uuid4"`
	Timestamp   int64         `json:"timestamp,omitempty" validate:"gte=0"`
	Messages    []ChatMessage `json:"messages" validate:"required,min=1,max=100,dive"`
	Temperature *float32      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int          `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
}

// Validate validates the ChatRequest fields after JSON binding.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// EnsureDefaults populates RequestID and Timestamp when the client did not.
func (r *ChatRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.New().String()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// LatestUserMessage returns the content of the most recent user message,
// or "" when the conversation has none. Fail-soft: callers use the result
// for trace previews, not control flow.
func (r *ChatRequest) LatestUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// =============================================================================
// Health and Info Response Types
// =============================================================================

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Timestamp     int64   `json:"timestamp"`
}

// APIInfoResponse is the GET / payload describing the service surface.
type APIInfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
