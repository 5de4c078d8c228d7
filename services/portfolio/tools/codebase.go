// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Codebase Oracle
// =============================================================================

// Result caps. The model gets enough to answer; nobody gets a megabyte of
// grep output.
const (
	maxSymbolResults    = 20
	maxReferenceResults = 50
	referenceContextLen = 200
	snippetContextLines = 2
)

// skipDirs are directory names never descended into during scans.
var skipDirs = map[string]bool{
	".git": true, ".venv": true, "venv": true, "node_modules": true,
	"__pycache__": true, ".next": true, "dist": true, "build": true,
	".uv": true, ".pytest_cache": true, "coverage": true, "vendor": true,
}

// definitionExtensions are file types searched for symbol definitions.
var definitionExtensions = map[string]bool{
	".go": true, ".py": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
}

// referenceExtensions additionally include docs and config.
var referenceExtensions = map[string]bool{
	".go": true, ".py": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".json": true, ".md": true, ".yaml": true, ".yml": true, ".toml": true,
}

// languageByExtension maps file extensions to display languages.
var languageByExtension = map[string]string{
	".go": "go", ".py": "python", ".ts": "typescript", ".tsx": "typescript",
	".js": "javascript", ".jsx": "javascript", ".json": "json", ".md": "markdown",
	".yaml": "yaml", ".yml": "yaml", ".toml": "toml", ".css": "css", ".html": "html",
}

// SymbolLocation is one place a symbol is defined.
type SymbolLocation struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// FindSymbolResult lists where a symbol is defined.
type FindSymbolResult struct {
	Symbol     string           `json:"symbol"`
	Locations  []SymbolLocation `json:"locations"`
	TotalFound int              `json:"total_found"`
}

// FileContentResult is a line-numbered window into one file.
type FileContentResult struct {
	FilePath   string `json:"file_path"`
	Content    string `json:"content"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	TotalLines int    `json:"total_lines"`
	Language   string `json:"language"`
}

// Reference is one usage of a symbol.
type Reference struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Context string `json:"context"`
}

// FindReferencesResult lists usages of a symbol.
type FindReferencesResult struct {
	Symbol     string      `json:"symbol"`
	References []Reference `json:"references"`
	TotalFound int         `json:"total_found"`
}

// Oracle answers structural questions about the codebase rooted at Root.
//
// # Description
//
// The oracle walks the repository tree, applying definition regexes for Go,
// Python, and TypeScript, and serves bounded, line-numbered file windows.
// Scans fan out across a worker pool; results are merged and sorted so
// output is deterministic for a given tree.
//
// # Limitations
//
//   - Regex-based: no type information, no cross-file resolution.
//   - Binary and oversized files are skipped silently.
type Oracle struct {
	Root         string
	MaxFileLines int
}

// NewOracle creates an oracle for the given repository root.
func NewOracle(root string, maxFileLines int) *Oracle {
	if maxFileLines <= 0 {
		maxFileLines = 500
	}
	return &Oracle{Root: root, MaxFileLines: maxFileLines}
}

// collectFiles walks the tree and returns relative paths whose extension is
// in allowed, skipping ignored directories.
func (o *Oracle) collectFiles(allowed map[string]bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(o.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !allowed[filepath.Ext(path)] {
			return nil
		}
		rel, relErr := filepath.Rel(o.Root, path)
		if relErr != nil {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", o.Root, err)
	}
	sort.Strings(files)
	return files, nil
}

// definitionPattern builds the combined regex matching definitions of name
// across the supported languages.
func definitionPattern(name string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(name)
	patterns := []string{
		// Go
		`^\s*func\s+(\([^)]*\)\s*)?` + quoted + `\s*[(\[]`,
		`^\s*type\s+` + quoted + `\s`,
		`^\s*(var|const)\s+` + quoted + `\b`,
		// Python
		`^\s*def\s+` + quoted + `\s*\(`,
		`^\s*class\s+` + quoted + `\s*[:(]`,
		`^\s*` + quoted + `\s*=`,
		// TypeScript / JavaScript
		`^\s*(async\s+)?function\s+` + quoted + `\s*\(`,
		`^\s*(export\s+)?(const|let|var)\s+` + quoted + `\s*=`,
		`^\s*(export\s+)?class\s+` + quoted + `\b`,
		`^\s*(export\s+)?interface\s+` + quoted + `\b`,
		`^\s*(export\s+)?type\s+` + quoted + `\s*=`,
	}
	return regexp.MustCompile(`(?i)` + strings.Join(patterns, "|"))
}

// snippet renders context lines around lineNum (1-indexed) with a ">>> "
// marker on the matching line.
func snippet(lines []string, lineNum int) string {
	start := lineNum - snippetContextLines - 1
	if start < 0 {
		start = 0
	}
	end := lineNum + snippetContextLines
	if end > len(lines) {
		end = len(lines)
	}
	var b strings.Builder
	for i := start; i < end; i++ {
		prefix := "    "
		if i == lineNum-1 {
			prefix = ">>> "
		}
		fmt.Fprintf(&b, "%s%d: %s", prefix, i+1, lines[i])
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// FindSymbol locates definitions of a function, type, class, or variable.
func (o *Oracle) FindSymbol(ctx context.Context, symbolName string) (FindSymbolResult, error) {
	files, err := o.collectFiles(definitionExtensions)
	if err != nil {
		return FindSymbolResult{}, err
	}

	pattern := definitionPattern(symbolName)
	var mu sync.Mutex
	var locations []SymbolLocation

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, rel := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			content, readErr := os.ReadFile(filepath.Join(o.Root, rel))
			if readErr != nil {
				return nil
			}
			lines := strings.Split(string(content), "\n")
			for i, line := range lines {
				if pattern.MatchString(line) {
					mu.Lock()
					locations = append(locations, SymbolLocation{
						File:    filepath.ToSlash(rel),
						Line:    i + 1,
						Snippet: snippet(lines, i+1),
					})
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FindSymbolResult{}, err
	}

	sort.Slice(locations, func(i, j int) bool {
		if locations[i].File != locations[j].File {
			return locations[i].File < locations[j].File
		}
		return locations[i].Line < locations[j].Line
	})

	total := len(locations)
	if len(locations) > maxSymbolResults {
		locations = locations[:maxSymbolResults]
	}
	return FindSymbolResult{Symbol: symbolName, Locations: locations, TotalFound: total}, nil
}

// FileContent returns a bounded, line-numbered window into a file.
// Errors (missing file, traversal attempts) come back as content so a bad
// path never fails the whole agent run.
func (o *Oracle) FileContent(filePath string, startLine, endLine int) FileContentResult {
	errorResult := func(msg string) FileContentResult {
		return FileContentResult{FilePath: filePath, Content: msg, Language: "text"}
	}

	cleaned := strings.TrimPrefix(filePath, "/")
	full := filepath.Join(o.Root, cleaned)

	// Keep reads inside the repository root.
	rootAbs, err := filepath.Abs(o.Root)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err))
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err))
	}
	if fullAbs != rootAbs && !strings.HasPrefix(fullAbs, rootAbs+string(filepath.Separator)) {
		return errorResult(fmt.Sprintf("Error: path %s is outside the codebase root", filePath))
	}

	content, err := os.ReadFile(fullAbs)
	if err != nil {
		if os.IsNotExist(err) {
			return errorResult(fmt.Sprintf("Error: File not found: %s", filePath))
		}
		return errorResult(fmt.Sprintf("Error reading file: %v", err))
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	totalLines := len(lines)

	startIdx := startLine - 1
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := endLine
	if endIdx <= 0 {
		endIdx = startIdx + o.MaxFileLines
	}
	if endIdx > totalLines {
		endIdx = totalLines
	}
	if startIdx > endIdx {
		startIdx = endIdx
	}

	var b strings.Builder
	for i := startIdx; i < endIdx; i++ {
		fmt.Fprintf(&b, "%4d: %s", i+1, lines[i])
		if i < endIdx-1 {
			b.WriteByte('\n')
		}
	}

	language := languageByExtension[strings.ToLower(filepath.Ext(cleaned))]
	if language == "" {
		language = "text"
	}
	return FileContentResult{
		FilePath:   filePath,
		Content:    b.String(),
		StartLine:  startIdx + 1,
		EndLine:    endIdx,
		TotalLines: totalLines,
		Language:   language,
	}
}

// FindReferences locates usages of a symbol across code, docs, and config.
func (o *Oracle) FindReferences(ctx context.Context, symbolName string) (FindReferencesResult, error) {
	files, err := o.collectFiles(referenceExtensions)
	if err != nil {
		return FindReferencesResult{}, err
	}

	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(symbolName) + `\b`)
	var mu sync.Mutex
	var refs []Reference

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, rel := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			content, readErr := os.ReadFile(filepath.Join(o.Root, rel))
			if readErr != nil {
				return nil
			}
			for i, line := range strings.Split(string(content), "\n") {
				if pattern.MatchString(line) {
					trimmed := strings.TrimSpace(line)
					if len(trimmed) > referenceContextLen {
						trimmed = trimmed[:referenceContextLen]
					}
					mu.Lock()
					refs = append(refs, Reference{
						File:    filepath.ToSlash(rel),
						Line:    i + 1,
						Context: trimmed,
					})
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FindReferencesResult{}, err
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].File != refs[j].File {
			return refs[i].File < refs[j].File
		}
		return refs[i].Line < refs[j].Line
	})

	total := len(refs)
	if len(refs) > maxReferenceResults {
		refs = refs[:maxReferenceResults]
	}
	return FindReferencesResult{Symbol: symbolName, References: refs, TotalFound: total}, nil
}

// =============================================================================
// Tool Constructors
// =============================================================================

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// NewFindSymbolTool exposes Oracle.FindSymbol as find_symbol.
func NewFindSymbolTool(o *Oracle) Tool {
	return NewFuncTool(
		"find_symbol",
		"Find where a function, type, class, or variable is defined in the codebase.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"symbol_name": map[string]any{
					"type":        "string",
					"description": "Name of the function, type, class, or variable to find.",
				},
			},
			"required": []string{"symbol_name"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return o.FindSymbol(ctx, stringArg(args, "symbol_name"))
		},
	)
}

// NewFileContentTool exposes Oracle.FileContent as get_file_content.
func NewFileContentTool(o *Oracle) Tool {
	return NewFuncTool(
		"get_file_content",
		"Get the content of a file in the codebase with line numbers. Supports start_line/end_line windows.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path":  map[string]any{"type": "string", "description": "Relative path from the repository root."},
				"start_line": map[string]any{"type": "integer", "description": "First line to retrieve (1-indexed)."},
				"end_line":   map[string]any{"type": "integer", "description": "Last line to retrieve (inclusive)."},
			},
			"required": []string{"file_path"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			start := intArg(args, "start_line")
			if start == 0 {
				start = 1
			}
			return o.FileContent(stringArg(args, "file_path"), start, intArg(args, "end_line")), nil
		},
	)
}

// NewFindReferencesTool exposes Oracle.FindReferences as find_references.
func NewFindReferencesTool(o *Oracle) Tool {
	return NewFuncTool(
		"find_references",
		"Find all references to a symbol across the codebase, to understand how components are connected.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"symbol_name": map[string]any{
					"type":        "string",
					"description": "Name of the symbol to find references for.",
				},
			},
			"required": []string{"symbol_name"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return o.FindReferences(ctx, stringArg(args, "symbol_name"))
		},
	)
}
