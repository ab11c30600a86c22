// Package context assembles a token-budgeted view of a file and its
// immediate graph neighborhood for consumption by an LLM tool caller.
package context

import (
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"codegraph/internal/graph"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

const defaultMaxTokens = 8000

// Request parameterises one context-assembly call.
type Request struct {
	FilePath     string
	TaskHint     string
	MaxTokens    int
	IncludeTests bool
}

// Snippet is a labeled excerpt of source pulled from the graph.
type Snippet struct {
	FilePath  string `json:"filePath"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Result is the structured context object returned to the caller.
type Result struct {
	TargetFile       Snippet        `json:"targetFile"`
	ImportedSymbols  []Snippet      `json:"importedSymbols"`
	Dependents       []Snippet      `json:"dependents"`
	RelatedTypes     []*graph.Node  `json:"relatedTypes"`
	SimilarFunctions []*graph.Node  `json:"similarFunctions"`
	TokensUsed       int            `json:"tokensUsed"`
}

// Assembler builds Result values against a project's store and files.
type Assembler struct {
	store    *store.Store
	repoRoot string
	logger   *logging.Logger
}

// New creates an Assembler rooted at repoRoot.
func New(st *store.Store, repoRoot string, logger *logging.Logger) *Assembler {
	return &Assembler{store: st, repoRoot: repoRoot, logger: logger}
}

// estimateTokens approximates token count as ceil(chars/4), per spec.
func estimateTokens(s string) int {
	return int(math.Ceil(float64(len(s)) / 4.0))
}

func isTestFile(path string) bool {
	return strings.Contains(path, ".test.") ||
		strings.Contains(path, ".spec.") ||
		strings.Contains(path, "__tests__")
}

// Assemble builds the context object for req.
func (a *Assembler) Assemble(req Request) (*Result, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	remaining := maxTokens
	result := &Result{}

	targetBudget := int(float64(remaining) * 0.6)
	target, used, err := a.buildTargetFile(req.FilePath, targetBudget)
	if err != nil {
		return nil, err
	}
	result.TargetFile = target
	remaining -= used

	importsBudget := int(float64(remaining) * 0.3)
	imports, used := a.buildImportedSymbols(req.FilePath, importsBudget)
	result.ImportedSymbols = imports
	remaining -= used

	dependentsBudget := int(float64(remaining) * 0.3)
	dependents, used, err := a.buildDependents(req.FilePath, req.IncludeTests, dependentsBudget)
	if err != nil {
		return nil, err
	}
	result.Dependents = dependents
	remaining -= used

	relatedBudget := int(float64(remaining) * 0.5)
	related, used, err := a.buildRelatedTypes(req.FilePath, relatedBudget)
	if err != nil {
		return nil, err
	}
	result.RelatedTypes = related
	remaining -= used

	similarBudget := remaining
	if req.TaskHint != "" {
		similar, used := a.buildSimilarFunctions(req.FilePath, req.TaskHint, similarBudget)
		result.SimilarFunctions = similar
		remaining -= used
	}

	result.TokensUsed = maxTokens - remaining
	return result, nil
}

func (a *Assembler) readFile(relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(a.repoRoot, relPath))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *Assembler) buildTargetFile(relPath string, budget int) (Snippet, int, error) {
	content, err := a.readFile(relPath)
	if err != nil {
		return Snippet{}, 0, err
	}

	tokens := estimateTokens(content)
	if tokens <= budget {
		return Snippet{FilePath: relPath, Name: filepath.Base(relPath), Content: content}, tokens, nil
	}

	charLimit := budget * 4
	cutoff := int(float64(charLimit) * 0.8)
	if cutoff > len(content) {
		cutoff = len(content)
	}
	truncateAt := strings.LastIndexByte(content[:cutoff], '\n')
	if truncateAt < 0 {
		truncateAt = cutoff
	}
	truncated := content[:truncateAt] + "\n// ... truncated ...\n"

	return Snippet{
		FilePath: relPath, Name: filepath.Base(relPath),
		Content: truncated, Truncated: true,
	}, estimateTokens(truncated), nil
}

func (a *Assembler) buildImportedSymbols(relPath string, budget int) ([]Snippet, int) {
	fileNodes, err := a.store.GetByFile(relPath)
	if err != nil {
		return nil, 0
	}

	allNodes, err := a.store.AllNodes()
	if err != nil {
		return nil, 0
	}

	var snippets []Snippet
	used := 0
	dir := path.Dir(relPath)

	for _, n := range fileNodes {
		if n.Type != graph.NodeImport || n.Metadata == nil {
			continue
		}
		moduleSpecifier, _ := n.Metadata["moduleSpecifier"].(string)
		if moduleSpecifier == "" {
			moduleSpecifier = n.Name
		}

		names := importedNames(n)
		for _, symbolName := range names {
			target := findSymbolInModule(allNodes, dir, moduleSpecifier, symbolName)
			if target == nil {
				continue
			}
			snippet, err := a.nodeSnippet(target)
			if err != nil {
				continue
			}
			cost := estimateTokens(snippet.Content)
			if used+cost > budget {
				return snippets, used
			}
			snippets = append(snippets, snippet)
			used += cost
		}
	}
	return snippets, used
}

func importedNames(importNode *graph.Node) []string {
	var names []string
	if defaultImport, ok := importNode.Metadata["defaultImport"].(string); ok && defaultImport != "" {
		names = append(names, defaultImport)
	}
	var named []map[string]interface{}
	switch v := importNode.Metadata["namedImports"].(type) {
	case []map[string]interface{}:
		named = v
	case []interface{}:
		for _, item := range v {
			if entry, ok := item.(map[string]interface{}); ok {
				named = append(named, entry)
			}
		}
	}
	for _, entry := range named {
		if name, ok := entry["name"].(string); ok && name != "" && name != "*" {
			names = append(names, name)
		}
	}
	return names
}

func findSymbolInModule(allNodes []*graph.Node, sourceDir, moduleSpecifier, symbolName string) *graph.Node {
	isRelative := strings.HasPrefix(moduleSpecifier, ".")
	resolved := moduleSpecifier
	if isRelative {
		resolved = path.Clean(path.Join(sourceDir, moduleSpecifier))
	}

	for _, n := range allNodes {
		if n.Name != symbolName && shortSymbolName(n.Name) != symbolName {
			continue
		}
		noExt := strings.TrimSuffix(n.FilePath, path.Ext(n.FilePath))
		if isRelative {
			if n.FilePath == resolved || noExt == resolved || strings.HasPrefix(noExt, resolved) {
				return n
			}
		} else if strings.Contains(n.FilePath, resolved) {
			return n
		}
	}
	return nil
}

func shortSymbolName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

func (a *Assembler) nodeSnippet(n *graph.Node) (Snippet, error) {
	content, err := a.readFile(n.FilePath)
	if err != nil {
		return Snippet{}, err
	}
	lines := strings.Split(content, "\n")
	start := n.LineStart - 1
	end := n.LineEnd
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return Snippet{FilePath: n.FilePath, Name: n.Name, Content: ""}, nil
	}
	return Snippet{
		FilePath: n.FilePath,
		Name:     n.Name,
		Content:  strings.Join(lines[start:end], "\n"),
	}, nil
}

func (a *Assembler) buildDependents(relPath string, includeTests bool, budget int) ([]Snippet, int, error) {
	fc, err := a.store.FileContext(relPath)
	if err != nil {
		return nil, 0, err
	}

	var snippets []Snippet
	used := 0
	seen := map[string]bool{}

	for _, edge := range fc.Incoming {
		callerNode, err := a.store.GetNode(edge.SourceID)
		if err != nil || callerNode == nil {
			continue
		}
		if !includeTests && isTestFile(callerNode.FilePath) {
			continue
		}
		if seen[callerNode.ID] {
			continue
		}
		seen[callerNode.ID] = true

		snippet, err := a.nodeSnippet(callerNode)
		if err != nil {
			continue
		}
		cost := estimateTokens(snippet.Content)
		if used+cost > budget {
			return snippets, used, nil
		}
		snippets = append(snippets, snippet)
		used += cost
	}
	return snippets, used, nil
}

func (a *Assembler) buildRelatedTypes(relPath string, budget int) ([]*graph.Node, int, error) {
	fc, err := a.store.FileContext(relPath)
	if err != nil {
		return nil, 0, err
	}

	var related []*graph.Node
	used := 0
	seen := map[string]bool{}

	relevant := map[graph.EdgeType]bool{graph.EdgeExtends: true, graph.EdgeImplements: true, graph.EdgeUses: true}

	candidates, err := a.store.AllNodes()
	if err != nil {
		return nil, 0, err
	}
	candidateByID := make(map[string]*graph.Node, len(candidates))
	for _, c := range candidates {
		candidateByID[c.ID] = c
	}

	for _, edge := range fc.Outgoing {
		if !relevant[edge.Type] || graph.IsRef(edge.TargetID) {
			continue
		}
		target := candidateByID[edge.TargetID]
		if target == nil || seen[target.ID] {
			continue
		}
		seen[target.ID] = true

		cost := estimateTokens(fmt.Sprintf("%s %s %s", target.Type, target.Name, target.FilePath))
		if used+cost > budget {
			return related, used, nil
		}
		related = append(related, target)
		used += cost
	}

	return related, used, nil
}

func (a *Assembler) buildSimilarFunctions(targetFile, taskHint string, budget int) ([]*graph.Node, int) {
	words := keywordsFrom(taskHint)
	var results []*graph.Node
	used := 0
	seen := map[string]bool{}

	for _, word := range words {
		matches, err := a.store.SearchByName(word, 50)
		if err != nil {
			continue
		}
		admitted := 0
		for _, m := range matches {
			if m.FilePath == targetFile {
				continue
			}
			if m.Type != graph.NodeFunction && m.Type != graph.NodeMethod {
				continue
			}
			if seen[m.ID] {
				continue
			}
			if admitted >= 2 {
				break
			}
			cost := estimateTokens(fmt.Sprintf("%s %s", m.Name, m.FilePath))
			if used+cost > budget {
				return results, used
			}
			seen[m.ID] = true
			results = append(results, m)
			used += cost
			admitted++
		}
	}
	return results, used
}

func keywordsFrom(task string) []string {
	fields := strings.Fields(task)
	var out []string
	for _, f := range fields {
		if len(f) > 3 {
			out = append(out, f)
		}
		if len(out) == 3 {
			break
		}
	}
	return out
}
