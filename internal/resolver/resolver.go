// Package resolver converts the unresolved ref:<kind>:<name> edges left by
// extractors into concrete node identities, using a symbol index built once
// per run.
package resolver

import (
	"path"
	"sort"
	"strings"

	"codegraph/internal/graph"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

// ambiguityGap is the score lead the top candidate must exceed over the
// runner-up to be resolved outright; a lead of ambiguityGap or less is
// ambiguous.
const ambiguityGap = 10

// Result reports how a resolution run disposed of its unresolved edges.
type Result struct {
	Resolved   int `json:"resolved"`
	Ambiguous  int `json:"ambiguous"`
	Unresolved int `json:"unresolved"`
}

// Resolver binds ref: placeholder edges to concrete nodes.
type Resolver struct {
	store  *store.Store
	logger *logging.Logger
}

// New creates a resolver over st.
func New(st *store.Store, logger *logging.Logger) *Resolver {
	return &Resolver{store: st, logger: logger}
}

// candidate is an indexable node projection used during scoring.
type candidate struct {
	node       *graph.Node
	fullName   string
	exported   bool
}

// importRef is one entry of a file's import metadata, normalised for
// specifier matching.
type importRef struct {
	aliasOrName     string
	originalName    string
	moduleSpecifier string
	isRelative      bool
}

// Resolve runs one full resolution pass and returns aggregate counts.
func (r *Resolver) Resolve() (*Result, error) {
	nodes, err := r.store.AllNodes()
	if err != nil {
		return nil, err
	}

	index := buildSymbolIndex(nodes)
	fileImports := buildFileImportMap(nodes)

	edges, err := r.store.GetUnresolvedEdges()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, edge := range edges {
		status, err := r.resolveEdge(edge, index, fileImports)
		if err != nil {
			return nil, err
		}
		switch status {
		case statusResolved:
			result.Resolved++
		case statusAmbiguous:
			result.Ambiguous++
		case statusUnresolved:
			result.Unresolved++
		}
	}

	return result, nil
}

type resolution int

const (
	statusUnresolved resolution = iota
	statusResolved
	statusAmbiguous
)

func (r *Resolver) resolveEdge(edge *graph.Edge, index map[string][]*candidate, fileImports map[string][]importRef) (resolution, error) {
	targetName, ok := targetNameOf(edge)
	if !ok {
		return statusUnresolved, nil
	}

	source, err := r.store.GetNode(edge.SourceID)
	if err != nil {
		return statusUnresolved, err
	}
	if source == nil {
		return statusUnresolved, nil
	}

	cleaned := stripReceiverPrefix(targetName)

	candidates := collectCandidates(cleaned, source, index, fileImports[source.FilePath])
	candidates = filterByEdgeType(candidates, edge.Type)

	switch len(candidates) {
	case 0:
		return statusUnresolved, nil
	case 1:
		if err := r.store.UpdateEdgeTarget(edge.ID, candidates[0].node.ID, false); err != nil {
			return statusUnresolved, err
		}
		return statusResolved, nil
	}

	scored := scoreCandidates(candidates, source, cleaned, fileImports[source.FilePath])
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if scored[0].score-scored[1].score > ambiguityGap {
		if err := r.store.UpdateEdgeTarget(edge.ID, scored[0].candidate.node.ID, false); err != nil {
			return statusUnresolved, err
		}
		return statusResolved, nil
	}

	top := scored
	if len(top) > 5 {
		top = top[:5]
	}
	names := make([]string, 0, len(top))
	for _, s := range top {
		names = append(names, s.candidate.fullName+" ("+s.candidate.node.FilePath+")")
	}

	meta := cloneMetadata(edge.Metadata)
	meta["unresolved"] = true
	meta["targetName"] = targetName
	meta["ambiguousCandidates"] = names
	if err := r.store.UpdateEdgeMetadata(edge.ID, meta); err != nil {
		return statusUnresolved, err
	}
	return statusAmbiguous, nil
}

func targetNameOf(edge *graph.Edge) (string, bool) {
	if edge.Metadata == nil {
		return "", false
	}
	name, ok := edge.Metadata["targetName"].(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func stripReceiverPrefix(name string) string {
	for _, prefix := range []string{"this.", "self.", "super."} {
		if strings.HasPrefix(name, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// buildSymbolIndex builds a multi-map keyed by a node's short name and its
// full dotted name (file and import nodes are not indexable).
func buildSymbolIndex(nodes []*graph.Node) map[string][]*candidate {
	index := make(map[string][]*candidate)
	add := func(key string, c *candidate) {
		if key == "" {
			return
		}
		index[key] = append(index[key], c)
	}

	for _, n := range nodes {
		if n.Type == graph.NodeFile || n.Type == graph.NodeImport {
			continue
		}
		c := &candidate{node: n, fullName: n.Name, exported: isExported(n)}

		add(n.Name, c)
		add(shortName(n.Name), c)
	}
	return index
}

func isExported(n *graph.Node) bool {
	if n.Metadata == nil {
		return false
	}
	if v, ok := n.Metadata["isExported"].(bool); ok {
		return v
	}
	return false
}

func shortName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

// buildFileImportMap collects each file's import nodes into a normalised
// list of aliasOrName -> module specifier mappings.
func buildFileImportMap(nodes []*graph.Node) map[string][]importRef {
	out := make(map[string][]importRef)
	for _, n := range nodes {
		if n.Type != graph.NodeImport || n.Metadata == nil {
			continue
		}
		moduleSpecifier, _ := n.Metadata["moduleSpecifier"].(string)
		if moduleSpecifier == "" {
			moduleSpecifier = n.Name
		}
		isRelative, _ := n.Metadata["isRelative"].(bool)
		if !isRelative {
			isRelative = strings.HasPrefix(moduleSpecifier, ".")
		}

		if defaultImport, ok := n.Metadata["defaultImport"].(string); ok && defaultImport != "" {
			out[n.FilePath] = append(out[n.FilePath], importRef{
				aliasOrName: defaultImport, originalName: "default",
				moduleSpecifier: moduleSpecifier, isRelative: isRelative,
			})
		}

		var named []map[string]interface{}
		switch v := n.Metadata["namedImports"].(type) {
		case []map[string]interface{}:
			named = v
		case []interface{}:
			// metadata read back from the store decodes JSON arrays this way
			for _, item := range v {
				if entry, ok := item.(map[string]interface{}); ok {
					named = append(named, entry)
				}
			}
		}
		for _, entry := range named {
			name, _ := entry["name"].(string)
			alias, _ := entry["alias"].(string)
			aliasOrName := name
			if alias != "" {
				aliasOrName = alias
			}
			out[n.FilePath] = append(out[n.FilePath], importRef{
				aliasOrName: aliasOrName, originalName: name,
				moduleSpecifier: moduleSpecifier, isRelative: isRelative,
			})
		}

		if n.Metadata["type"] == "module" {
			alias, _ := n.Metadata["alias"].(string)
			aliasOrName := n.Name
			if alias != "" {
				aliasOrName = alias
			}
			out[n.FilePath] = append(out[n.FilePath], importRef{
				aliasOrName: aliasOrName, originalName: n.Name,
				moduleSpecifier: n.Name, isRelative: isRelative,
			})
		}
	}
	return out
}

// collectCandidates builds the uniqued candidate set from the three sources
// spec §4.4 names: direct index hit, dotted-segment fallbacks, and
// import-qualified lookups.
func collectCandidates(cleaned string, source *graph.Node, index map[string][]*candidate, imports []importRef) []*candidate {
	seen := make(map[string]bool)
	var out []*candidate
	addAll := func(cs []*candidate) {
		for _, c := range cs {
			if !seen[c.node.ID] {
				seen[c.node.ID] = true
				out = append(out, c)
			}
		}
	}

	addAll(index[cleaned])

	if strings.Contains(cleaned, ".") {
		segments := strings.Split(cleaned, ".")
		addAll(index[segments[len(segments)-1]])
		if len(segments) >= 2 {
			ownerMember := segments[len(segments)-2] + "." + segments[len(segments)-1]
			addAll(index[ownerMember])
		}
	}

	prefix := cleaned
	if idx := strings.IndexByte(cleaned, '.'); idx >= 0 {
		prefix = cleaned[:idx]
	}
	for _, imp := range imports {
		if imp.aliasOrName != cleaned && imp.aliasOrName != prefix {
			continue
		}
		hits := index[imp.originalName]
		for _, c := range hits {
			if !seen[c.node.ID] && moduleMatches(imp, source.FilePath, c.node.FilePath) {
				seen[c.node.ID] = true
				out = append(out, c)
			}
		}
	}

	return out
}

var edgeTypeAllowedNodeTypes = map[graph.EdgeType][]graph.NodeType{
	graph.EdgeCalls:      {graph.NodeFunction, graph.NodeMethod, graph.NodeEndpoint},
	graph.EdgeUses:       {graph.NodeVariable, graph.NodeClass, graph.NodeInterface, graph.NodeFunction, graph.NodeMethod},
	graph.EdgeExtends:    {graph.NodeClass, graph.NodeInterface},
	graph.EdgeImplements: {graph.NodeInterface},
	graph.EdgeImports:    {graph.NodeModule, graph.NodeFile, graph.NodeClass, graph.NodeFunction, graph.NodeVariable},
	graph.EdgeAutowires:  {graph.NodeClass, graph.NodeInterface, graph.NodeService, graph.NodeRepository, graph.NodeComponent, graph.NodeController},
	graph.EdgeInjects:    {graph.NodeClass, graph.NodeInterface, graph.NodeService, graph.NodeRepository, graph.NodeComponent, graph.NodeController},
}

func filterByEdgeType(candidates []*candidate, edgeType graph.EdgeType) []*candidate {
	allowed, ok := edgeTypeAllowedNodeTypes[edgeType]
	if !ok {
		return candidates
	}
	var out []*candidate
	for _, c := range candidates {
		for _, t := range allowed {
			if c.node.Type == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

type scoredCandidate struct {
	candidate *candidate
	score     int
}

func scoreCandidates(candidates []*candidate, source *graph.Node, cleaned string, imports []importRef) []scoredCandidate {
	out := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		score := 0
		if c.node.FilePath == source.FilePath {
			score += 100
		} else if path.Dir(c.node.FilePath) == path.Dir(source.FilePath) {
			score += 50
		}
		if c.node.Language == source.Language {
			score += 30
		}
		if c.fullName == cleaned || c.node.Name == cleaned {
			score += 40
		}
		if c.exported {
			score += 20
		}
		for _, imp := range imports {
			if moduleMatches(imp, source.FilePath, c.node.FilePath) {
				score += 60
				break
			}
		}
		if strings.Contains(cleaned, ".") && strings.Contains(c.fullName, ".") {
			cleanedOwner := cleaned[:strings.LastIndexByte(cleaned, '.')]
			fullOwner := c.fullName[:strings.LastIndexByte(c.fullName, '.')]
			if strings.EqualFold(cleanedOwner, fullOwner) {
				score += 35
			}
		}
		out = append(out, scoredCandidate{candidate: c, score: score})
	}
	return out
}

// moduleMatches implements the spec's "module match" rule: non-relative
// specifiers match by substring containment; relative specifiers are
// normalised against the source file's directory and compared with and
// without extension, as a prefix or full match.
func moduleMatches(imp importRef, sourceFile, candidateFile string) bool {
	if imp.moduleSpecifier == "" {
		return false
	}
	if !imp.isRelative {
		return strings.Contains(candidateFile, imp.moduleSpecifier)
	}

	resolved := path.Clean(path.Join(path.Dir(sourceFile), imp.moduleSpecifier))
	candidateNoExt := strings.TrimSuffix(candidateFile, path.Ext(candidateFile))

	if candidateFile == resolved || candidateNoExt == resolved {
		return true
	}
	return strings.HasPrefix(candidateFile, resolved) || strings.HasPrefix(candidateNoExt, resolved)
}
