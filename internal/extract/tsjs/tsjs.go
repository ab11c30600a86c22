// Package tsjs implements the TypeScript/JavaScript extractor: a pure
// (filePath, content) -> (nodes, edges) transform driven by go-tree-sitter's
// JavaScript and TypeScript grammars.
package tsjs

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"codegraph/internal/extract/common"
	"codegraph/internal/graph"
)

// Extractor implements extract.Extractor for the TypeScript/JavaScript
// family. Both share this extractor; only the resulting node `language`
// differs, keyed off the file extension.
type Extractor struct{}

// New creates a TypeScript/JavaScript extractor.
func New() *Extractor {
	return &Extractor{}
}

func languageFor(filePath string) graph.Language {
	lower := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lower, ".js"), strings.HasSuffix(lower, ".jsx"),
		strings.HasSuffix(lower, ".mjs"), strings.HasSuffix(lower, ".cjs"):
		return graph.LangJavaScript
	default:
		return graph.LangTypeScript
	}
}

func sitterLanguageFor(lang graph.Language) *sitter.Language {
	if lang == graph.LangJavaScript {
		return javascript.GetLanguage()
	}
	return typescript.GetLanguage()
}

// Extract parses content and produces the file's nodes and edges.
func (e *Extractor) Extract(filePath string, content []byte) ([]*graph.Node, []*graph.Edge, error) {
	lang := languageFor(filePath)

	parser := sitter.NewParser()
	parser.SetLanguage(sitterLanguageFor(lang))
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil, err
	}

	c := &collector{filePath: filePath, lang: lang, src: content}
	fileNode := common.FileNode(filePath, lang, common.CountLines(content))
	c.nodes = append(c.nodes, fileNode)

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c.visitTopLevel(fileNode, root.NamedChild(i))
	}

	return c.nodes, c.edges, nil
}

type collector struct {
	filePath string
	lang     graph.Language
	src      []byte
	nodes    []*graph.Node
	edges    []*graph.Edge
}

func (c *collector) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(c.src[n.StartByte():n.EndByte()])
}

func (c *collector) line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func (c *collector) endLine(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}

// visitTopLevel dispatches a single top-level statement, unwrapping
// `export` wrappers first.
func (c *collector) visitTopLevel(fileNode *graph.Node, n *sitter.Node) {
	inner, isExported := unwrapExport(n)
	if inner == nil {
		return
	}

	switch inner.Type() {
	case "import_statement":
		c.visitImport(fileNode, inner)
	case "class_declaration", "abstract_class_declaration":
		c.visitClass(fileNode, inner, isExported)
	case "interface_declaration":
		c.visitInterface(fileNode, inner, isExported)
	case "function_declaration", "generator_function_declaration":
		c.visitFunction(fileNode, inner, "", false, isExported)
	case "lexical_declaration", "variable_declaration":
		c.visitVariableDeclaration(fileNode, inner)
	case "export_statement":
		// re-export clause with no declaration (`export {a,b} from './x'` or
		// `export * from './x'`)
		c.visitReExport(fileNode, n)
	}
}

// unwrapExport returns the declaration inside an export_statement (or n
// itself if it isn't one, or if it is an export_statement with no
// declaration) plus whether it was exported.
func unwrapExport(n *sitter.Node) (*sitter.Node, bool) {
	if n.Type() != "export_statement" {
		return n, false
	}
	decl := n.ChildByFieldName("declaration")
	if decl != nil {
		return decl, true
	}
	return n, true
}

func (c *collector) visitReExport(fileNode *graph.Node, n *sitter.Node) {
	source := n.ChildByFieldName("source")
	name := "default"
	if source != nil {
		name = unquote(c.text(source))
	}
	exportNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeExport, name, c.line(n)),
		Type:      graph.NodeExport,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  c.lang,
	}
	c.nodes = append(c.nodes, exportNode)
	c.edges = append(c.edges, common.ContainsEdge(fileNode.ID, exportNode.ID))
}

func (c *collector) visitImport(fileNode *graph.Node, n *sitter.Node) {
	source := n.ChildByFieldName("source")
	moduleSpecifier := ""
	if source != nil {
		moduleSpecifier = unquote(c.text(source))
	}

	var namedImports []map[string]interface{}
	var defaultImport string

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "import_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				grandchild := child.NamedChild(j)
				switch grandchild.Type() {
				case "identifier":
					defaultImport = c.text(grandchild)
				case "named_imports":
					for k := 0; k < int(grandchild.NamedChildCount()); k++ {
						spec := grandchild.NamedChild(k)
						if spec.Type() != "import_specifier" {
							continue
						}
						nameNode := spec.ChildByFieldName("name")
						aliasNode := spec.ChildByFieldName("alias")
						entry := map[string]interface{}{"name": c.text(nameNode)}
						if aliasNode != nil {
							entry["alias"] = c.text(aliasNode)
						}
						namedImports = append(namedImports, entry)
					}
				case "namespace_import":
					namedImports = append(namedImports, map[string]interface{}{"name": "*", "alias": c.text(grandchild)})
				}
			}
		}
	}

	name := moduleSpecifier
	if name == "" {
		name = defaultImport
	}
	importNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeImport, name, c.line(n)),
		Type:      graph.NodeImport,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  c.lang,
		Metadata: map[string]interface{}{
			"moduleSpecifier": moduleSpecifier,
			"namedImports":    namedImports,
		},
	}
	if defaultImport != "" {
		importNode.Metadata["defaultImport"] = defaultImport
	}
	c.nodes = append(c.nodes, importNode)
	c.edges = append(c.edges, common.ContainsEdge(fileNode.ID, importNode.ID))
}

func (c *collector) visitClass(fileNode *graph.Node, n *sitter.Node, isExported bool) {
	nameNode := n.ChildByFieldName("name")
	name := c.text(nameNode)
	if name == "" {
		return
	}

	isAbstract := n.Type() == "abstract_class_declaration" || hasKeywordChild(n, "abstract")
	decorators := collectDecorators(n, c)

	classNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeClass, name, c.line(n)),
		Type:      graph.NodeClass,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  c.lang,
		Metadata: map[string]interface{}{
			"isExported": isExported,
			"isAbstract": isAbstract,
			"decorators": decorators,
		},
	}
	c.nodes = append(c.nodes, classNode)
	c.edges = append(c.edges, common.ContainsEdge(fileNode.ID, classNode.ID))

	heritage := n.ChildByFieldName("heritage")
	if heritage == nil {
		// older grammar versions expose class_heritage as an unnamed child
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "class_heritage" {
				heritage = n.NamedChild(i)
				break
			}
		}
	}
	if heritage != nil {
		for i := 0; i < int(heritage.NamedChildCount()); i++ {
			clause := heritage.NamedChild(i)
			switch clause.Type() {
			case "extends_clause":
				value := clause.ChildByFieldName("value")
				if value != nil {
					base := stripGenerics(c.text(value))
					c.edges = append(c.edges, common.RefEdge(classNode.ID, graph.EdgeExtends, graph.RefClass, base, c.line(clause)))
				}
			case "implements_clause":
				for j := 0; j < int(clause.NamedChildCount()); j++ {
					impl := stripGenerics(c.text(clause.NamedChild(j)))
					if impl != "" {
						c.edges = append(c.edges, common.RefEdge(classNode.ID, graph.EdgeImplements, graph.RefInterface, impl, c.line(clause)))
					}
				}
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			c.visitMethod(classNode, member)
		case "public_field_definition", "field_definition":
			c.visitField(classNode, member)
		}
	}
}

func (c *collector) visitMethod(classNode *graph.Node, n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	shortName := c.text(nameNode)
	qualified := classNode.Name + "." + shortName

	isStatic := hasKeywordChild(n, "static")
	isAsync := hasKeywordChild(n, "async")
	visibility := accessibilityModifier(n, c)
	params := collectParameters(n, c)
	returnType := textOfField(n, "return_type", c)

	methodNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeMethod, qualified, c.line(n)),
		Type:      graph.NodeMethod,
		Name:      qualified,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  c.lang,
		Metadata: map[string]interface{}{
			"isStatic":   isStatic,
			"isAsync":    isAsync,
			"visibility": visibility,
			"parameters": params,
			"returnType": returnType,
			"decorators": collectDecorators(n, c),
		},
	}
	c.nodes = append(c.nodes, methodNode)
	c.edges = append(c.edges, common.ContainsEdge(classNode.ID, methodNode.ID))

	if body := n.ChildByFieldName("body"); body != nil {
		c.emitCalls(methodNode.ID, body)
	}
}

func (c *collector) visitField(classNode *graph.Node, n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	shortName := c.text(nameNode)
	qualified := classNode.Name + "." + shortName

	propNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeVariable, qualified, c.line(n)),
		Type:      graph.NodeVariable,
		Name:      qualified,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  c.lang,
		Metadata: map[string]interface{}{
			"isStatic":   hasKeywordChild(n, "static"),
			"visibility": accessibilityModifier(n, c),
			"type":       textOfField(n, "type", c),
			"decorators": collectDecorators(n, c),
		},
	}
	c.nodes = append(c.nodes, propNode)
	c.edges = append(c.edges, common.ContainsEdge(classNode.ID, propNode.ID))
}

func (c *collector) visitInterface(fileNode *graph.Node, n *sitter.Node, isExported bool) {
	nameNode := n.ChildByFieldName("name")
	name := c.text(nameNode)
	if name == "" {
		return
	}

	var properties, methods []string
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			memberName := c.text(member.ChildByFieldName("name"))
			if memberName == "" {
				continue
			}
			switch member.Type() {
			case "method_signature":
				methods = append(methods, memberName)
			case "property_signature":
				properties = append(properties, memberName)
			}
		}
	}

	interfaceNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeInterface, name, c.line(n)),
		Type:      graph.NodeInterface,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  c.lang,
		Metadata: map[string]interface{}{
			"isExported": isExported,
			"properties": properties,
			"methods":    methods,
		},
	}
	c.nodes = append(c.nodes, interfaceNode)
	c.edges = append(c.edges, common.ContainsEdge(fileNode.ID, interfaceNode.ID))

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "extends_type_clause" && child.Type() != "extends_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			base := stripGenerics(c.text(child.NamedChild(j)))
			if base != "" {
				c.edges = append(c.edges, common.RefEdge(interfaceNode.ID, graph.EdgeExtends, graph.RefInterface, base, c.line(child)))
			}
		}
	}
}

func (c *collector) visitFunction(fileNode *graph.Node, n *sitter.Node, forcedName string, isArrow, isExported bool) *graph.Node {
	name := forcedName
	if name == "" {
		nameNode := n.ChildByFieldName("name")
		name = c.text(nameNode)
	}
	if name == "" {
		return nil
	}

	fnNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeFunction, name, c.line(n)),
		Type:      graph.NodeFunction,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  c.lang,
		Metadata: map[string]interface{}{
			"isExported":      isExported,
			"isAsync":         hasKeywordChild(n, "async"),
			"isArrowFunction": isArrow,
			"parameters":      collectParameters(n, c),
			"returnType":      textOfField(n, "return_type", c),
		},
	}
	c.nodes = append(c.nodes, fnNode)
	c.edges = append(c.edges, common.ContainsEdge(fileNode.ID, fnNode.ID))

	body := n.ChildByFieldName("body")
	if body != nil {
		c.emitCalls(fnNode.ID, body)
	}
	return fnNode
}

func (c *collector) visitVariableDeclaration(fileNode *graph.Node, n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		value := decl.ChildByFieldName("value")
		if nameNode == nil || value == nil {
			continue
		}
		switch value.Type() {
		case "arrow_function":
			c.visitFunction(fileNode, value, c.text(nameNode), true, false)
		case "function_expression":
			c.visitFunction(fileNode, value, c.text(nameNode), false, false)
		}
	}
}

// emitCalls walks body recursively, collecting call_expression targets and
// emitting at most one `calls` edge per unique call name.
func (c *collector) emitCalls(ownerID string, body *sitter.Node) {
	var names []struct {
		name string
		line int
	}
	seen := map[string]int{}

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				callName := c.text(fn)
				if _, ok := seen[callName]; !ok {
					seen[callName] = c.line(n)
					names = append(names, struct {
						name string
						line int
					}{callName, c.line(n)})
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)

	for _, call := range names {
		c.edges = append(c.edges, common.RefEdge(ownerID, graph.EdgeCalls, graph.RefFunction, call.name, call.line))
	}
}

// --- small syntax helpers ---

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// stripGenerics removes a trailing `<...>` type-argument list from an
// extends/implements target, per the resolver-hit-rate guidance: generic
// parameters rarely affect which concrete symbol a name resolves to.
func stripGenerics(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func hasKeywordChild(n *sitter.Node, keyword string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.Type() == keyword {
			return true
		}
	}
	return false
}

func accessibilityModifier(n *sitter.Node, c *collector) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.Type() == "accessibility_modifier" {
			return c.text(child)
		}
	}
	return "public"
}

func textOfField(n *sitter.Node, field string, c *collector) string {
	f := n.ChildByFieldName(field)
	if f == nil {
		return ""
	}
	t := c.text(f)
	return strings.TrimPrefix(strings.TrimSpace(t), ":")
}

func collectDecorators(n *sitter.Node, c *collector) []string {
	var out []string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.Type() != "decorator" {
			continue
		}
		name := child.Type()
		for j := 0; j < int(child.NamedChildCount()); j++ {
			grandchild := child.NamedChild(j)
			switch grandchild.Type() {
			case "identifier":
				name = c.text(grandchild)
			case "call_expression":
				fn := grandchild.ChildByFieldName("function")
				if fn != nil {
					name = c.text(fn)
				}
			}
		}
		out = append(out, name)
	}
	return out
}

func collectParameters(n *sitter.Node, c *collector) []map[string]interface{} {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []map[string]interface{}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		var nameNode, typeNode *sitter.Node
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			pat := p.ChildByFieldName("pattern")
			nameNode = pat
			typeNode = p.ChildByFieldName("type")
		case "identifier":
			nameNode = p
		default:
			nameNode = p.ChildByFieldName("name")
			typeNode = p.ChildByFieldName("type")
		}
		if nameNode == nil {
			continue
		}
		entry := map[string]interface{}{"name": c.text(nameNode)}
		if typeNode != nil {
			entry["type"] = strings.TrimPrefix(strings.TrimSpace(c.text(typeNode)), ":")
		}
		out = append(out, entry)
	}
	return out
}
