package mcpserver

import (
	"os"
	"path/filepath"
	"strings"

	"codegraph/internal/apperrors"
	cgcontext "codegraph/internal/context"
	"codegraph/internal/graph"
)

func argString(args map[string]interface{}, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func argInt(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func argBool(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func (s *Server) toolGetFileContext(args map[string]interface{}) (interface{}, error) {
	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, apperrors.New(apperrors.BadArguments, "file_path is required")
	}

	fc, err := s.store.FileContext(filePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load file context", err)
	}

	return map[string]interface{}{
		"file":     filePath,
		"symbols":  fc.Nodes,
		"incoming": fc.Incoming,
		"outgoing": fc.Outgoing,
	}, nil
}

func (s *Server) toolSearchSymbols(args map[string]interface{}) (interface{}, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, apperrors.New(apperrors.BadArguments, "query is required")
	}

	nodes, err := s.store.SearchByName(query, 100)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to search symbols", err)
	}
	return map[string]interface{}{"nodes": nodes}, nil
}

func (s *Server) toolFindReferences(args map[string]interface{}) (interface{}, error) {
	symbol, ok := args["symbol"].(string)
	if !ok || symbol == "" {
		return nil, apperrors.New(apperrors.BadArguments, "symbol is required")
	}

	matches, err := s.findExactOrSuggest(symbol)
	if err != nil {
		return nil, err
	}

	type reference struct {
		Definition *graph.Node   `json:"definition"`
		Usages     []*graph.Node `json:"usages"`
	}

	var results []reference
	for _, def := range matches {
		edges, err := s.store.ResolvedUsersOf(def.ID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load usages", err)
		}
		seen := map[string]bool{}
		var usages []*graph.Node
		for _, e := range edges {
			if seen[e.SourceID] {
				continue
			}
			seen[e.SourceID] = true
			n, err := s.store.GetNode(e.SourceID)
			if err != nil || n == nil {
				continue
			}
			usages = append(usages, n)
		}
		results = append(results, reference{Definition: def, Usages: usages})
	}

	return map[string]interface{}{"references": results}, nil
}

func (s *Server) toolGetCallGraph(args map[string]interface{}) (interface{}, error) {
	functionName, ok := args["function_name"].(string)
	if !ok || functionName == "" {
		return nil, apperrors.New(apperrors.BadArguments, "function_name is required")
	}

	target, err := s.firstMatch(functionName)
	if err != nil {
		return nil, err
	}

	callers, err := s.store.ResolvedCallersOf(target.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load callers", err)
	}
	callees, err := s.store.ResolvedCalleesOf(target.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load callees", err)
	}

	return map[string]interface{}{
		"function": target,
		"callers":  callers,
		"callees":  callees,
	}, nil
}

func (s *Server) toolGetByType(args map[string]interface{}) (interface{}, error) {
	nodeType, ok := args["node_type"].(string)
	if !ok || nodeType == "" {
		return nil, apperrors.New(apperrors.BadArguments, "node_type is required")
	}

	nodes, err := s.store.GetByType(graph.NodeType(nodeType))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load nodes by type", err)
	}
	return map[string]interface{}{"nodes": nodes}, nil
}

func (s *Server) toolGetGraphStats(args map[string]interface{}) (interface{}, error) {
	stats, err := s.store.Stats()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load stats", err)
	}
	resolution, err := s.store.ResolutionStats()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load resolution stats", err)
	}
	return map[string]interface{}{
		"totalNodes": stats.TotalNodes,
		"totalEdges": stats.TotalEdges,
		"byType":     stats.ByType,
		"byLanguage": stats.ByLanguage,
		"resolution": resolution,
	}, nil
}

func (s *Server) toolGetImpactAnalysis(args map[string]interface{}) (interface{}, error) {
	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, apperrors.New(apperrors.BadArguments, "file_path is required")
	}

	fc, err := s.store.FileContext(filePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load file context", err)
	}

	var exports []*graph.Node
	for _, n := range fc.Nodes {
		if n.Type == graph.NodeExport {
			exports = append(exports, n)
			continue
		}
		if exported, ok := n.Metadata["isExported"].(bool); ok && exported {
			exports = append(exports, n)
		}
	}

	dependentFiles := map[string]bool{}
	for _, e := range fc.Incoming {
		src, err := s.store.GetNode(e.SourceID)
		if err != nil || src == nil {
			continue
		}
		dependentFiles[src.FilePath] = true
	}

	var files []string
	for f := range dependentFiles {
		files = append(files, f)
	}

	risk := "low"
	switch {
	case len(files) > 10:
		risk = "high"
	case len(files) > 3:
		risk = "medium"
	}

	return map[string]interface{}{
		"file":           filePath,
		"exports":        exports,
		"dependentFiles": files,
		"risk":           risk,
	}, nil
}

func (s *Server) toolGetSourceCode(args map[string]interface{}) (interface{}, error) {
	contextLines := argInt(args, "context_lines", 0)

	var node *graph.Node
	var err error

	if nodeID, ok := args["node_id"].(string); ok && nodeID != "" {
		node, err = s.store.GetNode(nodeID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load node", err)
		}
		if node == nil {
			return nil, apperrors.New(apperrors.SymbolNotFound, "no node with id "+nodeID)
		}
	} else if symbolName, ok := args["symbol_name"].(string); ok && symbolName != "" {
		node, err = s.firstMatch(symbolName)
		if err != nil {
			return nil, err
		}
	} else {
		return nil, apperrors.New(apperrors.BadArguments, "symbol_name or node_id is required")
	}

	snippet, err := s.readSnippet(node.FilePath, node.LineStart, node.LineEnd, contextLines)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to read source", err)
	}

	return map[string]interface{}{
		"node":   node,
		"source": snippet,
	}, nil
}

func (s *Server) toolGetUsageExamples(args map[string]interface{}) (interface{}, error) {
	symbolName, ok := args["symbol_name"].(string)
	if !ok || symbolName == "" {
		return nil, apperrors.New(apperrors.BadArguments, "symbol_name is required")
	}
	maxExamples := argInt(args, "max_examples", 5)
	contextLines := argInt(args, "context_lines", 2)

	def, err := s.firstMatch(symbolName)
	if err != nil {
		return nil, err
	}

	edges, err := s.store.ResolvedUsersOf(def.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to load usages", err)
	}

	type example struct {
		File    string `json:"file"`
		Snippet string `json:"snippet"`
	}
	var examples []example
	seen := map[string]bool{}
	for _, e := range edges {
		if len(examples) >= maxExamples {
			break
		}
		if seen[e.SourceID] {
			continue
		}
		seen[e.SourceID] = true

		caller, err := s.store.GetNode(e.SourceID)
		if err != nil || caller == nil {
			continue
		}
		snippet, err := s.readSnippet(caller.FilePath, caller.LineStart, caller.LineEnd, contextLines)
		if err != nil {
			continue
		}
		examples = append(examples, example{File: caller.FilePath, Snippet: snippet})
	}

	return map[string]interface{}{
		"symbol":   def.Name,
		"examples": examples,
	}, nil
}

func (s *Server) toolGetEditingContext(args map[string]interface{}) (interface{}, error) {
	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, apperrors.New(apperrors.BadArguments, "file_path is required")
	}

	result, err := s.assembler.Assemble(cgcontext.Request{
		FilePath:     filePath,
		TaskHint:     argString(args, "task", ""),
		MaxTokens:    argInt(args, "max_tokens", 0),
		IncludeTests: argBool(args, "include_tests", false),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to assemble editing context", err)
	}
	return result, nil
}

// firstMatch returns the single best-matching node for name: an exact name
// match if one exists, else the first substring match, else a
// SymbolNotFound error carrying up to 5 near-miss suggestions.
func (s *Server) firstMatch(name string) (*graph.Node, error) {
	matches, err := s.findExactOrSuggest(name)
	if err != nil {
		return nil, err
	}
	return matches[0], nil
}

// findExactOrSuggest returns every node with an exact name match; if there
// is none, every substring match; if there is none of those either, a
// SymbolNotFound error with substring-search suggestions.
func (s *Server) findExactOrSuggest(name string) ([]*graph.Node, error) {
	candidates, err := s.store.SearchByName(name, 100)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to search symbols", err)
	}

	var exact []*graph.Node
	for _, n := range candidates {
		if n.Name == name || shortName(n.Name) == name {
			exact = append(exact, n)
		}
	}
	if len(exact) > 0 {
		return exact, nil
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	suggestions, _ := s.store.SearchByName(name, 5)
	names := make([]string, 0, len(suggestions))
	for _, n := range suggestions {
		names = append(names, n.Name)
	}
	return nil, apperrors.New(apperrors.SymbolNotFound, "no symbol named "+name).WithDetails(map[string]interface{}{
		"suggestions": names,
	})
}

func shortName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

func (s *Server) readSnippet(relPath string, lineStart, lineEnd, contextLines int) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.repoRoot, relPath))
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(data), "\n")

	start := lineStart - 1 - contextLines
	end := lineEnd + contextLines
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return "", nil
	}
	return strings.Join(lines[start:end], "\n"), nil
}
