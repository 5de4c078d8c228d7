// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleStructureClassifiesDirectories(t *testing.T) {
	root := writeTree(t, map[string]string{
		"handlers/chat.go":      "package handlers\n\nfunc HandleChat() {}\n",
		"datatypes/chat.go":     "package datatypes\n\ntype ChatRequest struct{}\n",
		"node_modules/x/ix.js":  "ignored\n",
		"handlers/chat_test.go": "package handlers\n",
	})
	analyzer := NewAnalyzer(NewOracle(root, 0))

	result, err := analyzer.ModuleStructure()
	require.NoError(t, err)
	require.Len(t, result.Modules, 2)

	byPath := map[string]ModuleInfo{}
	for _, m := range result.Modules {
		byPath[m.Path] = m
	}
	assert.Equal(t, "Request handlers", byPath["handlers"].Purpose)
	assert.Equal(t, "Data schemas and validation", byPath["datatypes"].Purpose)
	assert.Contains(t, byPath["handlers"].Exports, "func HandleChat")
	assert.Contains(t, result.Layers["Data Layer"], "datatypes")
}

func TestDependencyGraphReadsGoModAndClassifiesImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod": "module example.com/demo\n\ngo 1.25\n\nrequire (\n\tgithub.com/gin-gonic/gin v1.11.0\n\tgithub.com/bytedance/sonic v1.14.0 // indirect\n)\n",
		"app/main.go": "package main\n\nimport (\n\t\"fmt\"\n\n\t\"example.com/demo/internal/core\"\n)\n\nfunc main() { fmt.Println(core.Answer) }\n",
		"internal/core/core.go": "package core\n\nconst Answer = 42\n",
	})
	analyzer := NewAnalyzer(NewOracle(root, 0))

	result, err := analyzer.DependencyGraph("all")
	require.NoError(t, err)

	assert.Equal(t, []string{"github.com/gin-gonic/gin v1.11.0"}, result.ModuleRequirements,
		"indirect requirements are excluded")

	var internal, external int
	for _, e := range result.Edges {
		switch e.ImportType {
		case "internal":
			internal++
			assert.Equal(t, "internal/core", e.Target)
		case "external":
			external++
		}
	}
	assert.Equal(t, 1, internal)
	assert.Equal(t, 1, external)
	assert.Empty(t, result.CircularDependencies)
}

func TestDetectCyclesFindsCyclesFromEveryRoot(t *testing.T) {
	// Two disjoint cycles. A shared-visited DFS starting at "a" would mark
	// nothing in the second component and still find it, but a DFS that
	// never resets state after the first root can miss cycles whose nodes
	// were already visited. Fresh per-root state must report both.
	adjacency := map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"x": {"y"},
		"y": {"z"},
		"z": {"x"},
	}
	cycles := detectCycles(adjacency)
	require.Len(t, cycles, 2)

	joined := make([]string, len(cycles))
	for i, c := range cycles {
		joined[i] = strings.Join(c, "->")
	}
	assert.Contains(t, joined[0]+" "+joined[1], "a->b->a")
}

func TestDetectCyclesDeduplicatesRotations(t *testing.T) {
	// The same triangle reachable from three roots reports once.
	adjacency := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}
	cycles := detectCycles(adjacency)
	assert.Len(t, cycles, 1)
}

func TestAPIContractsFindsSchemasAndEndpoints(t *testing.T) {
	root := writeTree(t, map[string]string{
		"datatypes/chat.go": "package datatypes\n\ntype ChatRequest struct {\n\tRequestID string `json:\"request_id\"`\n\tMessages  []any  `json:\"messages\"`\n}\n\ntype internalOnly struct {\n\tplain string\n}\n",
		"routes/routes.go":  "package routes\n\nfunc Setup(r Router) {\n\tr.POST(\"/chat\", nil)\n\tr.GET(\"/health\", nil)\n}\n",
	})
	analyzer := NewAnalyzer(NewOracle(root, 0))

	result, err := analyzer.APIContracts()
	require.NoError(t, err)

	require.Len(t, result.Schemas, 1, "structs without json tags are not wire schemas")
	assert.Equal(t, "ChatRequest", result.Schemas[0].Name)
	assert.Equal(t, []string{"request_id", "messages"}, result.Schemas[0].Fields)

	require.Len(t, result.Endpoints, 2)
	methods := map[string]string{}
	for _, e := range result.Endpoints {
		methods[e.Path] = e.Method
	}
	assert.Equal(t, "POST", methods["/chat"])
	assert.Equal(t, "GET", methods["/health"])
}

func TestExplainArchitectureReportsStackFromGoMod(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":     "module example.com/demo\n\ngo 1.25\n\nrequire github.com/gin-gonic/gin v1.11.0\n",
		"Dockerfile": "FROM golang:1.25\n",
	})
	analyzer := NewAnalyzer(NewOracle(root, 0))

	overview := analyzer.ExplainArchitecture()
	assert.Contains(t, overview.TechStack["backend"], "Go")
	assert.Contains(t, overview.TechStack["backend"], "gin")
	assert.Contains(t, overview.TechStack["deployment"], "Docker")
	assert.Contains(t, overview.Summary, "Glass Box")
	assert.NotEmpty(t, overview.KeyComponents)
}

func TestTraceDataFlowCuratedFlows(t *testing.T) {
	analyzer := NewAnalyzer(NewOracle(t.TempDir(), 0))

	msg := analyzer.TraceDataFlow("chat message")
	assert.Equal(t, "request", msg.FlowType)
	assert.Equal(t, "User chat input", msg.EntryPoint)
	assert.NotEmpty(t, msg.Steps)

	logFlow := analyzer.TraceDataFlow("brainlog entry")
	assert.Equal(t, "event", logFlow.FlowType)
	assert.Equal(t, "Brain Log panel display", logFlow.ExitPoint)
}

func TestTraceDataFlowFallsBackToSearch(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/thing.go": "package app\n\nvar FrobnicatorState = 1\n",
	})
	analyzer := NewAnalyzer(NewOracle(root, 0))

	result := analyzer.TraceDataFlow("FrobnicatorState")
	assert.Equal(t, "data", result.FlowType)
	require.NotEmpty(t, result.Steps)
	assert.Equal(t, "app/thing.go", result.Steps[0].File)
}

func TestNewDefaultRegistryRegistersAllTools(t *testing.T) {
	profile, err := LoadProfile()
	require.NoError(t, err)

	r := NewDefaultRegistry(profile, NewOracle(t.TempDir(), 0))
	expected := []string{
		"get_professional_experience", "get_skills", "get_projects",
		"find_symbol", "get_file_content", "find_references",
		"get_module_structure", "get_dependency_graph", "get_api_contracts",
		"explain_architecture", "trace_data_flow",
	}
	for _, name := range expected {
		_, ok := r.Get(name)
		assert.True(t, ok, "missing tool %s", name)
	}
	assert.Len(t, r.Names(), len(expected))
}
