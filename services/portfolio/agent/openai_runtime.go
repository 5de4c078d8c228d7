// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/george-dekermenjian/glassbox/services/portfolio/tools"
)

const (
	defaultModel    = "gpt-4o-mini"
	defaultMaxSteps = 8
)

// OpenAIRuntime runs the tool-calling agent loop against an
// OpenAI-compatible chat completions endpoint.
//
// # Description
//
// Run executes up to maxSteps model calls. Each step streams the response,
// translating deltas into StreamEvents for the callback. When the model
// requests tool calls, the runtime executes them through the registry,
// appends the results to the conversation, and starts the next step. A step
// that produces no tool calls ends the loop.
//
// # Thread Safety
//
// Safe for concurrent Run calls; all per-request state is local.
type OpenAIRuntime struct {
	client   *openai.Client
	model    string
	registry *tools.Registry
	maxSteps int
}

var _ Runtime = (*OpenAIRuntime)(nil)

// NewOpenAIRuntime builds a runtime from the environment. OPENAI_API_KEY is
// required; OPENAI_BASE_URL and OPENAI_MODEL override the defaults.
func NewOpenAIRuntime(registry *tools.Registry) (*OpenAIRuntime, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}
	slog.Info("openai runtime configured", "model", model)

	return &OpenAIRuntime{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		registry: registry,
		maxSteps: defaultMaxSteps,
	}, nil
}

// Run executes the agent loop, emitting stream events to cb.
func (r *OpenAIRuntime) Run(ctx context.Context, messages []Message, params GenerationParams, cb StreamCallback) error {
	conversation := buildConversation(messages)

	for step := 0; step < r.maxSteps; step++ {
		if err := cb(StreamEvent{Type: EventStepStart}); err != nil {
			return err
		}

		req := r.buildRequest(conversation, params)
		stream, err := r.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return fmt.Errorf("create completion stream: %w", err)
		}

		assistant, err := r.consumeStream(stream, step, cb)
		stream.Close()
		if err != nil {
			return err
		}
		conversation = append(conversation, assistant.message())

		if len(assistant.toolCalls) == 0 {
			return nil
		}

		results, err := r.executeToolCalls(ctx, assistant.toolCalls, cb)
		if err != nil {
			return err
		}
		conversation = append(conversation, results...)
	}

	slog.Warn("agent loop hit step limit", "max_steps", r.maxSteps)
	return nil
}

// buildConversation prepends the system prompt and converts the request
// messages to the wire format.
func buildConversation(messages []Message) []openai.ChatCompletionMessage {
	conversation := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	conversation = append(conversation, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: SystemPrompt,
	})
	for _, m := range messages {
		conversation = append(conversation, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return conversation
}

func (r *OpenAIRuntime) buildRequest(conversation []openai.ChatCompletionMessage, params GenerationParams) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: conversation,
		Stream:   true,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}
	if r.registry != nil {
		for _, t := range r.registry.List() {
			req.Tools = append(req.Tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name(),
					Description: t.Description(),
					Parameters:  t.Parameters(),
				},
			})
		}
	}
	return req
}

// assistantTurn accumulates one streamed assistant message.
type assistantTurn struct {
	content   strings.Builder
	reasoning strings.Builder
	toolCalls []openai.ToolCall
}

func (t *assistantTurn) message() openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   t.content.String(),
		ToolCalls: t.toolCalls,
	}
}

// accumulateToolCall merges a streamed tool call delta into the turn.
// Streamed tool calls arrive as fragments keyed by index: the first fragment
// carries the id and function name, later ones append argument bytes.
func (t *assistantTurn) accumulateToolCall(delta openai.ToolCall) {
	idx := 0
	if delta.Index != nil {
		idx = *delta.Index
	}
	for len(t.toolCalls) <= idx {
		t.toolCalls = append(t.toolCalls, openai.ToolCall{Type: openai.ToolTypeFunction})
	}
	call := &t.toolCalls[idx]
	if delta.ID != "" {
		call.ID = delta.ID
	}
	if delta.Function.Name != "" {
		call.Function.Name += delta.Function.Name
	}
	call.Function.Arguments += delta.Function.Arguments
}

// completionStream is the part of the SDK stream the consumer needs.
type completionStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
}

// consumeStream drains one model response, emitting text and reasoning
// events, and returns the accumulated assistant turn.
func (r *OpenAIRuntime) consumeStream(stream completionStream, step int, cb StreamCallback) (*assistantTurn, error) {
	turn := &assistantTurn{}
	textID := fmt.Sprintf("text-%d", step)
	reasoningID := fmt.Sprintf("reasoning-%d", step)
	textOpen := false
	reasoningOpen := false

	closeOpenBlocks := func() error {
		if reasoningOpen {
			reasoningOpen = false
			if err := cb(StreamEvent{Type: EventReasoningEnd, StreamID: reasoningID, Content: turn.reasoning.String()}); err != nil {
				return err
			}
		}
		if textOpen {
			textOpen = false
			if err := cb(StreamEvent{Type: EventTextEnd, StreamID: textID, Content: turn.content.String()}); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return turn, closeOpenBlocks()
		}
		if err != nil {
			return nil, fmt.Errorf("receive stream chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.ReasoningContent != "" {
			if !reasoningOpen {
				reasoningOpen = true
				if err := cb(StreamEvent{Type: EventReasoningStart, StreamID: reasoningID}); err != nil {
					return nil, err
				}
			}
			turn.reasoning.WriteString(delta.ReasoningContent)
			if err := cb(StreamEvent{Type: EventReasoningDelta, StreamID: reasoningID, Content: delta.ReasoningContent}); err != nil {
				return nil, err
			}
		}

		if delta.Content != "" {
			// Reasoning always precedes text within a step; close it out.
			if reasoningOpen {
				reasoningOpen = false
				if err := cb(StreamEvent{Type: EventReasoningEnd, StreamID: reasoningID, Content: turn.reasoning.String()}); err != nil {
					return nil, err
				}
			}
			if !textOpen {
				textOpen = true
				if err := cb(StreamEvent{Type: EventTextStart, StreamID: textID}); err != nil {
					return nil, err
				}
			}
			turn.content.WriteString(delta.Content)
			if err := cb(StreamEvent{Type: EventTextDelta, StreamID: textID, Content: delta.Content}); err != nil {
				return nil, err
			}
		}

		for _, tc := range delta.ToolCalls {
			turn.accumulateToolCall(tc)
		}
	}
}

// executeToolCalls runs each requested tool through the registry and
// returns the tool result messages to append to the conversation.
func (r *OpenAIRuntime) executeToolCalls(ctx context.Context, calls []openai.ToolCall, cb StreamCallback) ([]openai.ChatCompletionMessage, error) {
	var results []openai.ChatCompletionMessage

	for _, call := range calls {
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				slog.Warn("malformed tool arguments",
					"tool", call.Function.Name, "error", err)
				args = map[string]any{}
			}
		}

		if err := cb(StreamEvent{
			Type:      EventToolCallStart,
			CallID:    call.ID,
			ToolName:  call.Function.Name,
			Arguments: args,
		}); err != nil {
			return nil, err
		}

		output, callErr := r.registry.Call(ctx, call.Function.Name, args)

		if err := cb(StreamEvent{
			Type:      EventToolCallEnd,
			CallID:    call.ID,
			ToolName:  call.Function.Name,
			Arguments: args,
		}); err != nil {
			return nil, err
		}

		resultEvent := StreamEvent{
			Type:     EventToolResult,
			CallID:   call.ID,
			ToolName: call.Function.Name,
		}
		content := output
		if callErr != nil {
			if errors.Is(callErr, context.Canceled) {
				return nil, callErr
			}
			content = fmt.Sprintf("Error: %v", callErr)
		} else {
			resultEvent.HasResult = true
			resultEvent.Content = output
		}
		if err := cb(resultEvent); err != nil {
			return nil, err
		}

		results = append(results, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    content,
			ToolCallID: call.ID,
		})
	}
	return results, nil
}
