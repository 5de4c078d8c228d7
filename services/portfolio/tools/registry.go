// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package tools implements the agent's tool surface: the registry the
// runtime dispatches through, plus the profile, codebase, and architecture
// tools themselves. Registration wraps every tool with brain log recording
// so each invocation is visible in Glass Box mode.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/george-dekermenjian/glassbox/services/portfolio/brainlog"
	"github.com/george-dekermenjian/glassbox/services/portfolio/observability"
)

// =============================================================================
// Tool Interface
// =============================================================================

// Tool is one callable capability exposed to the model.
type Tool interface {
	// Name returns the function name the model calls.
	Name() string

	// Description tells the model when to use this tool.
	Description() string

	// Parameters returns the JSON schema of the tool's arguments.
	Parameters() map[string]any

	// Call executes the tool. The returned value must be JSON-serializable.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// funcTool adapts a plain function into a Tool.
type funcTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

func (t *funcTool) Name() string               { return t.name }
func (t *funcTool) Description() string        { return t.description }
func (t *funcTool) Parameters() map[string]any { return t.parameters }
func (t *funcTool) Call(ctx context.Context, args map[string]any) (any, error) {
	return t.fn(ctx, args)
}

// NewFuncTool wraps a function as a Tool. A nil parameters schema becomes
// an empty object schema.
func NewFuncTool(name, description string, parameters map[string]any, fn func(ctx context.Context, args map[string]any) (any, error)) Tool {
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	if fn == nil {
		panic("tools: NewFuncTool requires a function")
	}
	return &funcTool{name: name, description: description, parameters: parameters, fn: fn}
}

// =============================================================================
// Registry
// =============================================================================

// Registry holds the registered tools and dispatches calls through the
// brain log recording layer.
//
// # Description
//
// Register wraps each tool so that every Call produces two brain log
// announcements on the request's collector: a pending TOOL_CALL entry
// before the tool runs, and the same entry amended with the outcome
// (success with a truncated result preview, or failure with the error)
// after it returns. Paths invoked without a request-scoped collector skip
// recording entirely; the tool still runs.
//
// # Thread Safety
//
// Safe for concurrent use. Registration normally happens once at startup.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, wrapping it with brain log recording. Registering
// the same name twice replaces the earlier tool.
func (r *Registry) Register(t Tool) {
	if t == nil {
		panic("tools: Register requires a tool")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = &loggedTool{inner: t}
}

// Get returns the named tool, if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call dispatches to the named tool and renders its result to a string for
// the model. Unknown tool names are an error (the model hallucinated a
// tool); tool execution errors propagate to the caller.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	result, err := t.Call(ctx, args)
	if err != nil {
		return "", err
	}
	return renderResult(result)
}

// renderResult converts a tool's return value to the string handed back to
// the model. Strings pass through; everything else is JSON.
func renderResult(result any) (string, error) {
	if s, ok := result.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("render tool result: %w", err)
	}
	return string(data), nil
}

// =============================================================================
// Brain Log Recording Wrapper
// =============================================================================

// loggedTool records every invocation on the request's collector.
type loggedTool struct {
	inner Tool
}

func (t *loggedTool) Name() string               { return t.inner.Name() }
func (t *loggedTool) Description() string        { return t.inner.Description() }
func (t *loggedTool) Parameters() map[string]any { return t.inner.Parameters() }

func (t *loggedTool) Call(ctx context.Context, args map[string]any) (any, error) {
	collector := brainlog.FromContext(ctx)

	var entryID string
	if collector != nil {
		entryID = collector.AddToolCallPending(t.inner.Name(), args)
	}
	start := time.Now()

	result, err := t.inner.Call(ctx, args)
	elapsed := time.Since(start)
	durationMs := float64(elapsed) / float64(time.Millisecond)

	if m := observability.DefaultMetrics; m != nil {
		m.RecordToolCall(t.inner.Name(), elapsed.Seconds(), err == nil)
	}

	if err != nil {
		slog.Warn("tool call failed", "tool", t.inner.Name(), "error", err)
		if collector != nil {
			collector.UpdateToolCall(entryID, brainlog.StatusFailure, "", err.Error(), &durationMs)
		}
		return nil, err
	}

	preview := ""
	if rendered, renderErr := renderResult(result); renderErr == nil {
		preview = brainlog.TruncateResultPreview(rendered)
	}
	if collector != nil {
		collector.UpdateToolCall(entryID, brainlog.StatusSuccess, preview, "", &durationMs)
	}
	return result, nil
}
