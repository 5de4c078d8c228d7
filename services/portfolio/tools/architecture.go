// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// =============================================================================
// Architecture Analysis Types
// =============================================================================

// ModuleInfo describes one top-level directory of the codebase.
type ModuleInfo struct {
	Path      string   `json:"path"`
	Purpose   string   `json:"purpose"`
	FileCount int      `json:"file_count"`
	MainFiles []string `json:"main_files"`
	Exports   []string `json:"exports"`
}

// ModuleStructureResult is the get_module_structure payload.
type ModuleStructureResult struct {
	RootPath         string              `json:"root_path"`
	Modules          []ModuleInfo        `json:"modules"`
	ArchitectureType string              `json:"architecture_type"`
	Layers           map[string][]string `json:"layers"`
}

// DependencyEdge is one import relationship.
type DependencyEdge struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	ImportType string `json:"import_type"`
}

// DependencyGraphResult is the get_dependency_graph payload.
type DependencyGraphResult struct {
	Nodes                []string         `json:"nodes"`
	Edges                []DependencyEdge `json:"edges"`
	ModuleRequirements   []string         `json:"module_requirements"`
	EntryPoints          []string         `json:"entry_points"`
	LeafNodes            []string         `json:"leaf_nodes"`
	CircularDependencies [][]string       `json:"circular_dependencies"`
}

// EndpointInfo is one discovered HTTP endpoint.
type EndpointInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	File   string `json:"file"`
	Line   int    `json:"line"`
}

// SchemaInfo is one discovered data schema (a struct with JSON tags).
type SchemaInfo struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Line   int      `json:"line"`
	Fields []string `json:"fields"`
}

// APIContractsResult is the get_api_contracts payload.
type APIContractsResult struct {
	Schemas   []SchemaInfo   `json:"schemas"`
	Endpoints []EndpointInfo `json:"endpoints"`
}

// ArchitectureOverview is the explain_architecture payload.
type ArchitectureOverview struct {
	Summary              string              `json:"summary"`
	TechStack            map[string][]string `json:"tech_stack"`
	ArchitecturePattern  string              `json:"architecture_pattern"`
	KeyComponents        []map[string]string `json:"key_components"`
	DataStores           []string            `json:"data_stores"`
	ExternalIntegrations []string            `json:"external_integrations"`
	EntryPoints          []map[string]string `json:"entry_points"`
}

// DataFlowStep is one step in a traced flow.
type DataFlowStep struct {
	File        string `json:"file"`
	Function    string `json:"function"`
	Line        int    `json:"line"`
	Description string `json:"description"`
}

// DataFlowResult is the trace_data_flow payload.
type DataFlowResult struct {
	Entity     string         `json:"entity"`
	FlowType   string         `json:"flow_type"`
	Steps      []DataFlowStep `json:"steps"`
	EntryPoint string         `json:"entry_point"`
	ExitPoint  string         `json:"exit_point"`
}

// purposePatterns maps directory name fragments to inferred purposes.
var purposePatterns = []struct {
	pattern string
	purpose string
}{
	{"components", "UI components"},
	{"pages", "Route pages/views"},
	{"handlers", "Request handlers"},
	{"routes", "Route registration"},
	{"middleware", "Request/response middleware"},
	{"services", "Service layer / business logic"},
	{"api", "API routes or client"},
	{"tools", "Agent tools or utilities"},
	{"schemas", "Data schemas and validation"},
	{"datatypes", "Data schemas and validation"},
	{"models", "Data models"},
	{"observability", "Metrics and instrumentation"},
	{"config", "Configuration"},
	{"tests", "Test files"},
	{"types", "Type definitions"},
	{"lib", "Utility libraries and helpers"},
	{"utils", "Utility functions"},
	{"hooks", "React hooks"},
	{"assets", "Static assets"},
	{"public", "Public static files"},
	{"styles", "Stylesheets"},
	{"app", "Application entry and routing"},
}

func inferPurpose(dirName string) string {
	lower := strings.ToLower(dirName)
	for _, p := range purposePatterns {
		if strings.Contains(lower, p.pattern) {
			return p.purpose
		}
	}
	return "Application module"
}

// =============================================================================
// Analyzer
// =============================================================================

// Analyzer answers high-level architecture questions about the repository.
type Analyzer struct {
	oracle *Oracle
}

// NewAnalyzer creates an analyzer sharing the oracle's root and scan rules.
func NewAnalyzer(o *Oracle) *Analyzer {
	if o == nil {
		panic("tools: NewAnalyzer requires an oracle")
	}
	return &Analyzer{oracle: o}
}

// goExportPattern matches exported top-level Go declarations.
var goExportPattern = regexp.MustCompile(`(?m)^(func|type)\s+([A-Z]\w*)`)

// ModuleStructure analyzes the top-level directory layout.
func (a *Analyzer) ModuleStructure() (ModuleStructureResult, error) {
	entries, err := os.ReadDir(a.oracle.Root)
	if err != nil {
		return ModuleStructureResult{}, fmt.Errorf("read root: %w", err)
	}

	var modules []ModuleInfo
	layers := map[string][]string{}

	for _, entry := range entries {
		if !entry.IsDir() || skipDirs[entry.Name()] {
			continue
		}
		dirName := entry.Name()

		var files, mainFiles, exports []string
		_ = filepath.WalkDir(filepath.Join(a.oracle.Root, dirName), func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			rel, _ := filepath.Rel(filepath.Join(a.oracle.Root, dirName), path)
			rel = filepath.ToSlash(rel)
			files = append(files, rel)

			switch d.Name() {
			case "main.go", "main.py", "index.ts", "index.tsx", "index.js", "__init__.py":
				mainFiles = append(mainFiles, rel)
			}
			if strings.HasSuffix(d.Name(), ".go") && !strings.HasSuffix(d.Name(), "_test.go") {
				if content, readErr := os.ReadFile(path); readErr == nil {
					for _, m := range goExportPattern.FindAllStringSubmatch(string(content), -1) {
						exports = append(exports, m[1]+" "+m[2])
					}
				}
			}
			return nil
		})

		sort.Strings(exports)
		if len(mainFiles) > 5 {
			mainFiles = mainFiles[:5]
		}
		if len(exports) > 10 {
			exports = exports[:10]
		}
		modules = append(modules, ModuleInfo{
			Path:      dirName,
			Purpose:   inferPurpose(dirName),
			FileCount: len(files),
			MainFiles: mainFiles,
			Exports:   exports,
		})

		lower := strings.ToLower(dirName)
		switch {
		case strings.Contains(lower, "api") || strings.Contains(lower, "routes"):
			layers["API Layer"] = append(layers["API Layer"], dirName)
		case strings.Contains(lower, "service"):
			layers["Service Layer"] = append(layers["Service Layer"], dirName)
		case strings.Contains(lower, "component") || strings.Contains(lower, "ui"):
			layers["Presentation Layer"] = append(layers["Presentation Layer"], dirName)
		case strings.Contains(lower, "model") || strings.Contains(lower, "schema") || strings.Contains(lower, "datatype"):
			layers["Data Layer"] = append(layers["Data Layer"], dirName)
		case strings.Contains(lower, "tool"):
			layers["Tools Layer"] = append(layers["Tools Layer"], dirName)
		default:
			layers["Core"] = append(layers["Core"], dirName)
		}
	}

	hasFrontend := false
	hasBackend := false
	for _, m := range modules {
		lower := strings.ToLower(m.Path)
		if strings.Contains(lower, "web") || strings.Contains(lower, "app") {
			hasFrontend = true
		}
		if strings.Contains(lower, "backend") || strings.Contains(lower, "service") || strings.Contains(lower, "api") {
			hasBackend = true
		}
	}
	archType := "Library/Package"
	switch {
	case hasFrontend && hasBackend:
		archType = "Full-stack monorepo (Frontend + Backend)"
	case hasBackend:
		archType = "Backend service"
	case hasFrontend:
		archType = "Frontend application"
	}

	return ModuleStructureResult{
		RootPath:         a.oracle.Root,
		Modules:          modules,
		ArchitectureType: archType,
		Layers:           layers,
	}, nil
}

// DependencyGraph builds the import graph of the repository's Go files,
// plus the module requirements from go.mod.
//
// Cycle detection runs a DFS with a fresh state per root so cycles
// reachable only from later roots are still reported; discovered cycles
// are deduplicated by their canonical rotation.
func (a *Analyzer) DependencyGraph(scope string) (DependencyGraphResult, error) {
	searchRoot := a.oracle.Root
	if scope != "" && scope != "all" {
		candidate := filepath.Join(a.oracle.Root, scope)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			searchRoot = candidate
		}
	}

	modulePath, requirements := a.readGoMod()

	fset := token.NewFileSet()
	nodes := map[string]bool{}
	adjacency := map[string][]string{}
	var edges []DependencyEdge

	scanOracle := &Oracle{Root: searchRoot, MaxFileLines: a.oracle.MaxFileLines}
	files, err := scanOracle.collectFiles(map[string]bool{".go": true})
	if err != nil {
		return DependencyGraphResult{}, err
	}

	for _, rel := range files {
		full := filepath.Join(searchRoot, rel)
		parsed, parseErr := parser.ParseFile(fset, full, nil, parser.ImportsOnly)
		if parseErr != nil {
			continue
		}
		source := filepath.ToSlash(rel)
		nodes[source] = true

		for _, imp := range parsed.Imports {
			target := strings.Trim(imp.Path.Value, `"`)
			importType := "external"
			if modulePath != "" && strings.HasPrefix(target, modulePath) {
				importType = "internal"
				target = strings.TrimPrefix(strings.TrimPrefix(target, modulePath), "/")
			}
			edges = append(edges, DependencyEdge{Source: source, Target: target, ImportType: importType})
			if importType == "internal" {
				// Graph edges run file -> package directory.
				adjacency[filepath.ToSlash(filepath.Dir(source))] = append(
					adjacency[filepath.ToSlash(filepath.Dir(source))], target)
				nodes[target] = true
			}
		}
	}

	targets := map[string]bool{}
	sources := map[string]bool{}
	for _, e := range edges {
		targets[e.Target] = true
		sources[e.Source] = true
	}
	var entryPoints, leafNodes, nodeList []string
	for n := range nodes {
		nodeList = append(nodeList, n)
		if !targets[n] {
			entryPoints = append(entryPoints, n)
		}
		if !sources[n] && adjacency[n] == nil {
			leafNodes = append(leafNodes, n)
		}
	}
	sort.Strings(nodeList)
	sort.Strings(entryPoints)
	sort.Strings(leafNodes)

	circular := detectCycles(adjacency)

	if len(edges) > 200 {
		edges = edges[:200]
	}
	if len(entryPoints) > 20 {
		entryPoints = entryPoints[:20]
	}
	if len(leafNodes) > 20 {
		leafNodes = leafNodes[:20]
	}
	if len(circular) > 10 {
		circular = circular[:10]
	}

	return DependencyGraphResult{
		Nodes:                nodeList,
		Edges:                edges,
		ModuleRequirements:   requirements,
		EntryPoints:          entryPoints,
		LeafNodes:            leafNodes,
		CircularDependencies: circular,
	}, nil
}

// readGoMod parses the repository's go.mod for the module path and direct
// requirements. Missing or unparseable go.mod yields empty results.
func (a *Analyzer) readGoMod() (string, []string) {
	data, err := os.ReadFile(filepath.Join(a.oracle.Root, "go.mod"))
	if err != nil {
		return "", nil
	}
	parsed, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return "", nil
	}
	var requirements []string
	for _, req := range parsed.Require {
		if !req.Indirect {
			requirements = append(requirements, req.Mod.Path+" "+req.Mod.Version)
		}
	}
	sort.Strings(requirements)
	modulePath := ""
	if parsed.Module != nil {
		modulePath = parsed.Module.Mod.Path
	}
	return modulePath, requirements
}

// detectCycles finds directed cycles in the adjacency map, restarting the
// DFS state for every root so no reachable cycle is missed.
func detectCycles(adjacency map[string][]string) [][]string {
	var roots []string
	for n := range adjacency {
		roots = append(roots, n)
	}
	sort.Strings(roots)

	seen := map[string]bool{}
	var cycles [][]string

	for _, root := range roots {
		visited := map[string]bool{}
		var path []string
		onPath := map[string]bool{}

		var dfs func(current string)
		dfs = func(current string) {
			if onPath[current] {
				idx := 0
				for i, n := range path {
					if n == current {
						idx = i
						break
					}
				}
				cycle := append(append([]string{}, path[idx:]...), current)
				key := canonicalCycle(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
				return
			}
			if visited[current] {
				return
			}
			visited[current] = true
			onPath[current] = true
			path = append(path, current)
			for _, next := range adjacency[current] {
				dfs(next)
			}
			path = path[:len(path)-1]
			onPath[current] = false
		}
		dfs(root)
	}
	return cycles
}

// canonicalCycle rotates a cycle to start at its smallest element so the
// same loop found from different roots deduplicates.
func canonicalCycle(cycle []string) string {
	if len(cycle) < 2 {
		return strings.Join(cycle, "->")
	}
	body := cycle[:len(cycle)-1] // drop the repeated closing node
	minIdx := 0
	for i, n := range body {
		if n < body[minIdx] {
			minIdx = i
		}
	}
	rotated := append(append([]string{}, body[minIdx:]...), body[:minIdx]...)
	return strings.Join(rotated, "->")
}

// ginRoutePattern matches gin route registrations.
var ginRoutePattern = regexp.MustCompile(`\.(GET|POST|PUT|DELETE|PATCH)\s*\(\s*"([^"]+)"`)

// structPattern matches struct type declarations.
var structPattern = regexp.MustCompile(`(?m)^type\s+(\w+)\s+struct\s*\{`)

// jsonFieldPattern matches struct fields carrying a json tag.
var jsonFieldPattern = regexp.MustCompile("(?m)^\\s*(\\w+)\\s+[^`\n]+`[^`]*json:\"([^,\"]+)")

// APIContracts extracts JSON-tagged struct schemas and gin endpoints.
func (a *Analyzer) APIContracts() (APIContractsResult, error) {
	files, err := a.oracle.collectFiles(map[string]bool{".go": true})
	if err != nil {
		return APIContractsResult{}, err
	}

	var schemas []SchemaInfo
	var endpoints []EndpointInfo

	for _, rel := range files {
		content, readErr := os.ReadFile(filepath.Join(a.oracle.Root, rel))
		if readErr != nil {
			continue
		}
		text := string(content)
		relSlash := filepath.ToSlash(rel)

		for _, loc := range structPattern.FindAllStringSubmatchIndex(text, -1) {
			name := text[loc[2]:loc[3]]
			line := strings.Count(text[:loc[0]], "\n") + 1

			// Fields up to the closing brace of this struct body.
			bodyEnd := strings.Index(text[loc[1]:], "\n}")
			body := text[loc[1]:]
			if bodyEnd >= 0 {
				body = text[loc[1] : loc[1]+bodyEnd]
			}
			var fields []string
			for _, fm := range jsonFieldPattern.FindAllStringSubmatch(body, -1) {
				fields = append(fields, fm[2])
			}
			if len(fields) == 0 {
				continue // not a wire schema
			}
			schemas = append(schemas, SchemaInfo{Name: name, File: relSlash, Line: line, Fields: fields})
		}

		for _, loc := range ginRoutePattern.FindAllStringSubmatchIndex(text, -1) {
			endpoints = append(endpoints, EndpointInfo{
				Method: text[loc[2]:loc[3]],
				Path:   text[loc[4]:loc[5]],
				File:   relSlash,
				Line:   strings.Count(text[:loc[0]], "\n") + 1,
			})
		}
	}

	if len(schemas) > 50 {
		schemas = schemas[:50]
	}
	if len(endpoints) > 30 {
		endpoints = endpoints[:30]
	}
	return APIContractsResult{Schemas: schemas, Endpoints: endpoints}, nil
}

// ExplainArchitecture generates a high-level overview of the repository.
func (a *Analyzer) ExplainArchitecture() ArchitectureOverview {
	techStack := map[string][]string{}

	if modulePath, requirements := a.readGoMod(); modulePath != "" {
		backend := []string{"Go"}
		for _, req := range requirements {
			switch {
			case strings.Contains(req, "gin-gonic/gin"):
				backend = append(backend, "gin")
			case strings.Contains(req, "go-openai"):
				backend = append(backend, "OpenAI client")
			case strings.Contains(req, "prometheus"):
				backend = append(backend, "Prometheus")
			case strings.Contains(req, "opentelemetry"):
				backend = append(backend, "OpenTelemetry")
			}
		}
		techStack["backend"] = backend
	}

	for _, candidate := range []string{"web/package.json", "package.json"} {
		data, err := os.ReadFile(filepath.Join(a.oracle.Root, candidate))
		if err != nil {
			continue
		}
		var pkg struct {
			Dependencies    map[string]string `json:"dependencies"`
			DevDependencies map[string]string `json:"devDependencies"`
		}
		if json.Unmarshal(data, &pkg) != nil {
			continue
		}
		deps := map[string]string{}
		for k, v := range pkg.Dependencies {
			deps[k] = v
		}
		for k, v := range pkg.DevDependencies {
			deps[k] = v
		}
		var frontend []string
		if _, ok := deps["next"]; ok {
			frontend = append(frontend, "Next.js")
		}
		if _, ok := deps["react"]; ok {
			frontend = append(frontend, "React")
		}
		if _, ok := deps["tailwindcss"]; ok {
			frontend = append(frontend, "Tailwind CSS")
		}
		if _, ok := deps["typescript"]; ok {
			frontend = append(frontend, "TypeScript")
		}
		if len(frontend) > 0 {
			techStack["frontend"] = frontend
		}
		break
	}

	var deployment []string
	if _, err := os.Stat(filepath.Join(a.oracle.Root, "Dockerfile")); err == nil {
		deployment = append(deployment, "Docker")
	}
	if _, err := os.Stat(filepath.Join(a.oracle.Root, "vercel.json")); err == nil {
		deployment = append(deployment, "Vercel")
	}
	if len(deployment) > 0 {
		techStack["deployment"] = deployment
	}

	keyComponents := []map[string]string{
		{
			"name": "Agent Runtime",
			"file": "services/portfolio/agent/",
			"role": "streaming tool-calling agent over chat completions",
		},
		{
			"name": "Brain Log Pipeline",
			"file": "services/portfolio/brainlog/",
			"role": "per-request reasoning trace collected and streamed in Glass Box mode",
		},
		{
			"name": "Streaming Chat Handler",
			"file": "services/portfolio/handlers/",
			"role": "multiplexes chat tokens and brain log frames onto one SSE stream",
		},
	}
	entryPoints := []map[string]string{
		{
			"type":        "backend",
			"file":        "services/portfolio/main.go",
			"description": "gin server entry point",
		},
	}

	backendTech := strings.Join(techStack["backend"], ", ")
	if backendTech == "" {
		backendTech = "Unknown"
	}
	summary := fmt.Sprintf(`This is an Explainable Agentic System (Glass Box Architecture).

**Backend**: Built with %s. Implements an AI agent with tools for answering questions about professional experience and codebase analysis.

**Key Innovation**: The Glass Box system shows real-time brain logs including input processing, tool selection, validation, and performance metrics - making the AI's decision-making transparent.`, backendTech)

	return ArchitectureOverview{
		Summary:              summary,
		TechStack:            techStack,
		ArchitecturePattern:  "Explainable Agentic System (Glass Box Architecture)",
		KeyComponents:        keyComponents,
		DataStores:           []string{"In-memory (agent tools contain static data)"},
		ExternalIntegrations: []string{"OpenAI-compatible chat completions API"},
		EntryPoints:          entryPoints,
	}
}

// TraceDataFlow describes how a named entity moves through the system.
// Chat messages and brain logs have curated flows; anything else falls back
// to a bounded occurrence search.
func (a *Analyzer) TraceDataFlow(entityName string) DataFlowResult {
	lower := strings.ToLower(entityName)

	switch {
	case strings.Contains(lower, "message") || strings.Contains(lower, "chat"):
		return DataFlowResult{
			Entity:   entityName,
			FlowType: "request",
			Steps: []DataFlowStep{
				{File: "services/portfolio/handlers/chat_streaming.go", Function: "HandleChatStream", Description: "gin receives POST /chat request"},
				{File: "services/portfolio/datatypes/chat.go", Function: "LatestUserMessage", Description: "latest user message extracted from the conversation"},
				{File: "services/portfolio/brainlog/collector.go", Function: "AddInputEntry", Description: "input entry seeded into the request's collector"},
				{File: "services/portfolio/agent/openai_runtime.go", Function: "Run", Description: "agent streams the model response and executes tools"},
				{File: "services/portfolio/handlers/tap.go", Function: "HandleEvent", Description: "tap forwards chat frames and injects brain log frames"},
				{File: "services/portfolio/handlers/sse_writer.go", Function: "WriteEvent", Description: "multiplexed SSE stream written to the client"},
			},
			EntryPoint: "User chat input",
			ExitPoint:  "Rendered response in chat",
		}
	case strings.Contains(lower, "brainlog") || strings.Contains(lower, "log"):
		return DataFlowResult{
			Entity:   entityName,
			FlowType: "event",
			Steps: []DataFlowStep{
				{File: "services/portfolio/brainlog/collector.go", Function: "NewCollector", Description: "collector created at request start"},
				{File: "services/portfolio/handlers/tap.go", Function: "OnBeforeStream", Description: "input entry flushed before streaming begins"},
				{File: "services/portfolio/handlers/tap.go", Function: "OnToolCallStart", Description: "routing decision logged"},
				{File: "services/portfolio/handlers/tap.go", Function: "OnToolResult", Description: "tool outcome logged with duration"},
				{File: "services/portfolio/handlers/tap.go", Function: "OnStreamEnd", Description: "performance metrics logged"},
				{File: "services/portfolio/handlers/sse_writer.go", Function: "WriteBrainLog", Description: "entries framed as data-brain-log events"},
			},
			EntryPoint: "Agent processing start",
			ExitPoint:  "Brain Log panel display",
		}
	}

	// Generic fallback: bounded occurrence search.
	var steps []DataFlowStep
	if result, err := a.oracle.FindReferences(context.Background(), entityName); err == nil {
		for _, ref := range result.References {
			steps = append(steps, DataFlowStep{
				File:        ref.File,
				Function:    "(see context)",
				Line:        ref.Line,
				Description: ref.Context,
			})
			if len(steps) >= 10 {
				break
			}
		}
	}
	return DataFlowResult{
		Entity:     entityName,
		FlowType:   "data",
		Steps:      steps,
		EntryPoint: "Unknown",
		ExitPoint:  "Unknown",
	}
}

// =============================================================================
// Tool Constructors
// =============================================================================

// NewModuleStructureTool exposes Analyzer.ModuleStructure as get_module_structure.
func NewModuleStructureTool(a *Analyzer) Tool {
	return NewFuncTool(
		"get_module_structure",
		"Analyze the high-level module structure of the codebase: modules, layers, and architecture pattern.",
		nil,
		func(ctx context.Context, args map[string]any) (any, error) {
			return a.ModuleStructure()
		},
	)
}

// NewDependencyGraphTool exposes Analyzer.DependencyGraph as get_dependency_graph.
func NewDependencyGraphTool(a *Analyzer) Tool {
	return NewFuncTool(
		"get_dependency_graph",
		"Build a dependency graph of import relationships, including entry points, leaf nodes, and circular dependencies.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"scope": map[string]any{
					"type":        "string",
					"description": "Scope of analysis: \"all\" or a subdirectory path.",
				},
			},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			scope := stringArg(args, "scope")
			if scope == "" {
				scope = "all"
			}
			return a.DependencyGraph(scope)
		},
	)
}

// NewAPIContractsTool exposes Analyzer.APIContracts as get_api_contracts.
func NewAPIContractsTool(a *Analyzer) Tool {
	return NewFuncTool(
		"get_api_contracts",
		"Extract data schemas and API endpoints defined in the codebase.",
		nil,
		func(ctx context.Context, args map[string]any) (any, error) {
			return a.APIContracts()
		},
	)
}

// NewExplainArchitectureTool exposes Analyzer.ExplainArchitecture as explain_architecture.
func NewExplainArchitectureTool(a *Analyzer) Tool {
	return NewFuncTool(
		"explain_architecture",
		"Generate a high-level architecture overview: summary, tech stack, key components, and entry points.",
		nil,
		func(ctx context.Context, args map[string]any) (any, error) {
			return a.ExplainArchitecture(), nil
		},
	)
}

// NewTraceDataFlowTool exposes Analyzer.TraceDataFlow as trace_data_flow.
func NewTraceDataFlowTool(a *Analyzer) Tool {
	return NewFuncTool(
		"trace_data_flow",
		"Trace how a piece of data (e.g. a chat message or brain log entry) flows through the system.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"entity_name": map[string]any{
					"type":        "string",
					"description": "Name of the data entity to trace.",
				},
			},
			"required": []string{"entity_name"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return a.TraceDataFlow(stringArg(args, "entity_name")), nil
		},
	)
}

// NewDefaultRegistry builds the full portfolio tool registry.
func NewDefaultRegistry(profile *Profile, oracle *Oracle) *Registry {
	analyzer := NewAnalyzer(oracle)
	r := NewRegistry()
	r.Register(NewExperienceTool(profile))
	r.Register(NewSkillsTool(profile))
	r.Register(NewProjectsTool(profile))
	r.Register(NewFindSymbolTool(oracle))
	r.Register(NewFileContentTool(oracle))
	r.Register(NewFindReferencesTool(oracle))
	r.Register(NewModuleStructureTool(analyzer))
	r.Register(NewDependencyGraphTool(analyzer))
	r.Register(NewAPIContractsTool(analyzer))
	r.Register(NewExplainArchitectureTool(analyzer))
	r.Register(NewTraceDataFlowTool(analyzer))
	return r
}
