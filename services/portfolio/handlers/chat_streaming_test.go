// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/george-dekermenjian/glassbox/services/portfolio/agent"
	"github.com/george-dekermenjian/glassbox/services/portfolio/brainlog"
	"github.com/george-dekermenjian/glassbox/services/portfolio/tools"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scriptedRuntime delegates Run to a test-provided function.
type scriptedRuntime struct {
	run func(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error
}

func (r *scriptedRuntime) Run(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error {
	return r.run(ctx, messages, params, cb)
}

func newChatRouter(runtime agent.Runtime) *gin.Engine {
	router := gin.New()
	router.POST("/chat", NewStreamingChatHandler(runtime).HandleChatStream)
	return router
}

func postChat(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleChatStreamRejectsMalformedBody(t *testing.T) {
	router := newChatRouter(&scriptedRuntime{})
	rec := postChat(t, router, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatStreamRejectsEmptyMessages(t *testing.T) {
	router := newChatRouter(&scriptedRuntime{})
	rec := postChat(t, router, `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatStreamSimpleResponse(t *testing.T) {
	runtime := &scriptedRuntime{
		run: func(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error {
			require.Len(t, messages, 1)
			assert.Equal(t, "what do you do?", messages[0].Content)

			events := []agent.StreamEvent{
				{Type: agent.EventStepStart},
				{Type: agent.EventTextStart, StreamID: "t0"},
				{Type: agent.EventTextDelta, StreamID: "t0", Content: "I build"},
				{Type: agent.EventTextDelta, StreamID: "t0", Content: " things."},
				{Type: agent.EventTextEnd, StreamID: "t0", Content: "I build things."},
			}
			for _, ev := range events {
				if err := cb(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rec := postChat(t, newChatRouter(runtime),
		`{"messages":[{"role":"user","content":"what do you do?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames := parseSSEFrames(t, rec.Body.String())
	require.NotEmpty(t, frames)

	// Input entry reaches the client before any token.
	assert.Equal(t, "data-brain-log", frames[0].EventType)
	assert.Equal(t, "input", frames[0].Event.BrainLog["type"])
	details := frames[0].Event.BrainLog["details"].(map[string]any)
	assert.Equal(t, "what do you do?", details["message_preview"])

	var tokens []string
	for _, f := range frames {
		if f.EventType == "token" {
			tokens = append(tokens, f.Event.Content)
		}
	}
	assert.Equal(t, []string{"I build", " things."}, tokens)

	kinds := brainLogKinds(frames)
	assert.Equal(t, []string{"input", "text", "performance"}, kinds)

	last := frames[len(frames)-1]
	assert.Equal(t, "done", last.EventType)
	assert.NotEmpty(t, last.Event.SessionId)

	// Hash chain holds across the whole multiplexed stream.
	for i := 1; i < len(frames); i++ {
		assert.Equal(t, frames[i-1].Event.Hash, frames[i].Event.PrevHash)
	}
}

func TestHandleChatStreamWithToolCall(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(tools.NewFuncTool("get_skills", "skills", nil,
		func(ctx context.Context, args map[string]any) (any, error) {
			return "Go, Python", nil
		}))

	runtime := &scriptedRuntime{
		run: func(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error {
			if err := cb(agent.StreamEvent{Type: agent.EventStepStart}); err != nil {
				return err
			}
			if err := cb(agent.StreamEvent{
				Type: agent.EventToolCallStart, CallID: "call_1", ToolName: "get_skills",
				Arguments: map[string]any{},
			}); err != nil {
				return err
			}
			// Registry call records pending + update entries through the
			// collector carried on ctx.
			out, err := registry.Call(ctx, "get_skills", map[string]any{})
			require.NoError(t, err)
			if err := cb(agent.StreamEvent{
				Type: agent.EventToolCallEnd, CallID: "call_1", ToolName: "get_skills",
			}); err != nil {
				return err
			}
			if err := cb(agent.StreamEvent{
				Type: agent.EventToolResult, CallID: "call_1", ToolName: "get_skills",
				Content: out, HasResult: true,
			}); err != nil {
				return err
			}

			for _, ev := range []agent.StreamEvent{
				{Type: agent.EventStepStart},
				{Type: agent.EventTextStart, StreamID: "t1"},
				{Type: agent.EventTextDelta, StreamID: "t1", Content: "I know Go."},
				{Type: agent.EventTextEnd, StreamID: "t1", Content: "I know Go."},
			} {
				if err := cb(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rec := postChat(t, newChatRouter(runtime),
		`{"messages":[{"role":"user","content":"skills?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	frames := parseSSEFrames(t, rec.Body.String())
	kinds := brainLogKinds(frames)
	assert.Equal(t, []string{
		"input",       // request received
		"routing",     // tool selected
		"tool_call",   // pending announcement
		"tool_call",   // amended with result
		"tool_result", // outcome with duration
		"text",        // final answer
		"performance", // request complete
	}, kinds)

	// The amended tool call carries the result preview.
	var amended map[string]any
	for _, f := range frames {
		if f.EventType == "data-brain-log" && f.Event.BrainLog["title"] == "Tool call: get_skills" {
			amended = f.Event.BrainLog
		}
	}
	require.NotNil(t, amended)
	assert.Equal(t, "Go, Python", amended["details"].(map[string]any)["result_preview"])
}

func TestHandleChatStreamFailingTool(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(tools.NewFuncTool("flaky", "fails", nil,
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("upstream timeout")
		}))

	runtime := &scriptedRuntime{
		run: func(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error {
			_ = cb(agent.StreamEvent{Type: agent.EventToolCallStart, CallID: "c1", ToolName: "flaky"})
			_, err := registry.Call(ctx, "flaky", nil)
			require.Error(t, err)
			_ = cb(agent.StreamEvent{Type: agent.EventToolCallEnd, CallID: "c1", ToolName: "flaky"})
			_ = cb(agent.StreamEvent{Type: agent.EventToolResult, CallID: "c1", ToolName: "flaky", HasResult: false})
			// Model recovers with a direct answer.
			_ = cb(agent.StreamEvent{Type: agent.EventTextStart, StreamID: "t0"})
			_ = cb(agent.StreamEvent{Type: agent.EventTextDelta, StreamID: "t0", Content: "Sorry."})
			_ = cb(agent.StreamEvent{Type: agent.EventTextEnd, StreamID: "t0", Content: "Sorry."})
			return nil
		},
	}

	rec := postChat(t, newChatRouter(runtime),
		`{"messages":[{"role":"user","content":"try the flaky tool"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	frames := parseSSEFrames(t, rec.Body.String())

	var failTitles []string
	for _, f := range frames {
		if f.EventType != "data-brain-log" {
			continue
		}
		if f.Event.BrainLog["status"] == "failure" {
			failTitles = append(failTitles, f.Event.BrainLog["title"].(string))
		}
	}
	assert.Contains(t, failTitles, "Tool call failed: flaky")
	assert.Contains(t, failTitles, "Tool failed: flaky")

	// Stream still completes normally after a tool failure.
	assert.Equal(t, "done", frames[len(frames)-1].EventType)
}

func TestHandleChatStreamRuntimeErrorWritesErrorFrame(t *testing.T) {
	runtime := &scriptedRuntime{
		run: func(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error {
			return errors.New("model exploded: secret internal detail")
		},
	}

	rec := postChat(t, newChatRouter(runtime),
		`{"messages":[{"role":"user","content":"hi"}]}`)

	frames := parseSSEFrames(t, rec.Body.String())
	require.NotEmpty(t, frames)

	var errFrame *parsedFrame
	for i := range frames {
		if frames[i].EventType == "error" {
			errFrame = &frames[i]
		}
	}
	require.NotNil(t, errFrame)
	assert.Equal(t, "Agent processing failed", errFrame.Event.Error,
		"internal error details never reach the client")
	assert.NotContains(t, rec.Body.String(), "secret internal detail")
}

func TestHandleChatStreamRuntimeErrorStillFlushesPerformance(t *testing.T) {
	runtime := &scriptedRuntime{
		run: func(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error {
			for _, ev := range []agent.StreamEvent{
				{Type: agent.EventStepStart},
				{Type: agent.EventTextStart, StreamID: "t0"},
				{Type: agent.EventTextDelta, StreamID: "t0", Content: "partial"},
			} {
				if err := cb(ev); err != nil {
					return err
				}
			}
			return errors.New("upstream connection dropped")
		},
	}

	rec := postChat(t, newChatRouter(runtime),
		`{"messages":[{"role":"user","content":"hi"}]}`)

	frames := parseSSEFrames(t, rec.Body.String())
	kinds := brainLogKinds(frames)
	assert.Contains(t, kinds, "performance",
		"the final flush runs even when the stream fails")

	// The performance entry lands after the sanitized error frame.
	errIdx, perfIdx := -1, -1
	for i, f := range frames {
		switch {
		case f.EventType == "error":
			errIdx = i
		case f.EventType == "data-brain-log" && f.Event.BrainLog["type"] == "performance":
			perfIdx = i
		}
	}
	require.NotEqual(t, -1, errIdx)
	require.NotEqual(t, -1, perfIdx)
	assert.Greater(t, perfIdx, errIdx)
}

func TestHandleChatStreamReasoningThenText(t *testing.T) {
	runtime := &scriptedRuntime{
		run: func(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error {
			collector := brainlog.FromContext(ctx)
			require.NotNil(t, collector, "collector must be request-scoped on ctx")

			for _, ev := range []agent.StreamEvent{
				{Type: agent.EventReasoningStart, StreamID: "r0"},
				{Type: agent.EventReasoningDelta, StreamID: "r0", Content: "a"},
				{Type: agent.EventReasoningDelta, StreamID: "r0", Content: "b"},
				{Type: agent.EventReasoningEnd, StreamID: "r0", Content: "ab"},
				{Type: agent.EventTextStart, StreamID: "t0"},
				{Type: agent.EventTextDelta, StreamID: "t0", Content: "hi"},
				{Type: agent.EventTextEnd, StreamID: "t0", Content: "hi"},
			} {
				if err := cb(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rec := postChat(t, newChatRouter(runtime),
		`{"messages":[{"role":"user","content":"think about it"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	frames := parseSSEFrames(t, rec.Body.String())
	kinds := brainLogKinds(frames)
	assert.Equal(t, []string{"input", "thinking", "text", "performance"}, kinds)

	// TTFT is anchored at text start, after reasoning finished.
	perf := frames[len(frames)-2].Event.BrainLog
	require.Equal(t, "performance", perf["type"])
	details := perf["details"].(map[string]any)
	assert.Contains(t, details, "ttft_ms")
}

func TestHandleChatStreamMultiPartContent(t *testing.T) {
	var got string
	runtime := &scriptedRuntime{
		run: func(ctx context.Context, messages []agent.Message, params agent.GenerationParams, cb agent.StreamCallback) error {
			got = messages[0].Content
			return cb(agent.StreamEvent{Type: agent.EventTextDelta, StreamID: "t0", Content: "ok"})
		},
	}

	rec := postChat(t, newChatRouter(runtime),
		`{"messages":[{"role":"user","content":[{"type":"text","text":"hello "},{"type":"text","text":"world"}]}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", got)
}
