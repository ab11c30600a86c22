package mcpserver

// Tool describes one entry in the fixed tool-server table from spec §6.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func schema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

// toolDefinitions is the fixed, advertised tool list. It never changes at
// runtime: the protocol has no presets or pagination, unlike a larger
// multi-repo tool server.
var toolDefinitions = []Tool{
	{
		Name:        "get_file_context",
		Description: "Get a file's symbols and its incoming/outgoing cross-file dependency edges",
		InputSchema: schema(map[string]interface{}{
			"file_path":    prop("string", "repo-relative file path"),
			"project_path": prop("string", "project root, defaults to the server's repo root"),
		}, "file_path"),
	},
	{
		Name:        "search_symbols",
		Description: "Search nodes by substring match on name, capped at 100 results",
		InputSchema: schema(map[string]interface{}{
			"query":        prop("string", "substring to search for"),
			"project_path": prop("string", "project root, defaults to the server's repo root"),
		}, "query"),
	},
	{
		Name:        "find_references",
		Description: "Find the definition and all usages of a symbol by name",
		InputSchema: schema(map[string]interface{}{
			"symbol":       prop("string", "symbol name to look up"),
			"project_path": prop("string", "project root, defaults to the server's repo root"),
		}, "symbol"),
	},
	{
		Name:        "get_call_graph",
		Description: "Get the resolved callers and callees of the first function/method matching the given name",
		InputSchema: schema(map[string]interface{}{
			"function_name": prop("string", "function or method name"),
			"project_path":  prop("string", "project root, defaults to the server's repo root"),
		}, "function_name"),
	},
	{
		Name:        "get_by_type",
		Description: "Get all nodes of a given type (e.g. class, endpoint, controller)",
		InputSchema: schema(map[string]interface{}{
			"node_type":    prop("string", "node type, e.g. \"endpoint\""),
			"project_path": prop("string", "project root, defaults to the server's repo root"),
		}, "node_type"),
	},
	{
		Name:        "get_graph_stats",
		Description: "Get totals and per-type/per-language counts over the whole graph",
		InputSchema: schema(map[string]interface{}{
			"project_path": prop("string", "project root, defaults to the server's repo root"),
		}),
	},
	{
		Name:        "get_impact_analysis",
		Description: "Get a file's exported symbols, dependent files, and a high/medium/low risk rating",
		InputSchema: schema(map[string]interface{}{
			"file_path":    prop("string", "repo-relative file path"),
			"project_path": prop("string", "project root, defaults to the server's repo root"),
		}, "file_path"),
	},
	{
		Name:        "get_source_code",
		Description: "Get a source slice for a symbol by name or node id, with surrounding context lines",
		InputSchema: schema(map[string]interface{}{
			"project_path":  prop("string", "project root, defaults to the server's repo root"),
			"symbol_name":   prop("string", "symbol name to look up"),
			"node_id":       prop("string", "exact node id to look up"),
			"context_lines": prop("integer", "lines of context before/after, default 0"),
		}, "project_path"),
	},
	{
		Name:        "get_usage_examples",
		Description: "Get snippets showing how a symbol is used elsewhere in the project",
		InputSchema: schema(map[string]interface{}{
			"project_path":  prop("string", "project root, defaults to the server's repo root"),
			"symbol_name":   prop("string", "symbol name to look up"),
			"max_examples":  prop("integer", "maximum usage snippets to return, default 5"),
			"context_lines": prop("integer", "lines of context before/after, default 2"),
		}, "project_path", "symbol_name"),
	},
	{
		Name:        "get_editing_context",
		Description: "Assemble a token-budgeted editing context for a file: target source, imports, dependents, related types, similar functions",
		InputSchema: schema(map[string]interface{}{
			"project_path":  prop("string", "project root, defaults to the server's repo root"),
			"file_path":     prop("string", "repo-relative file path"),
			"task":          prop("string", "optional task description used to find similar functions"),
			"max_tokens":    prop("integer", "token budget, default 8000"),
			"include_tests": prop("boolean", "include test-file dependents, default false"),
		}, "project_path", "file_path"),
	},
}

func (s *Server) registerTools() {
	s.tools["get_file_context"] = s.toolGetFileContext
	s.tools["search_symbols"] = s.toolSearchSymbols
	s.tools["find_references"] = s.toolFindReferences
	s.tools["get_call_graph"] = s.toolGetCallGraph
	s.tools["get_by_type"] = s.toolGetByType
	s.tools["get_graph_stats"] = s.toolGetGraphStats
	s.tools["get_impact_analysis"] = s.toolGetImpactAnalysis
	s.tools["get_source_code"] = s.toolGetSourceCode
	s.tools["get_usage_examples"] = s.toolGetUsageExamples
	s.tools["get_editing_context"] = s.toolGetEditingContext
}
