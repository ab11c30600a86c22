// Package python implements the Python extractor: decorator-stack aware
// tree-walking over tree-sitter's Python grammar.
package python

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"codegraph/internal/extract/common"
	"codegraph/internal/graph"
)

// builtins lists identifiers never turned into call edges, per spec §4.2.
var builtins = map[string]bool{}

func init() {
	for _, name := range []string{
		"print", "len", "range", "str", "int", "float", "list", "dict", "set",
		"tuple", "type", "isinstance", "hasattr", "getattr", "setattr", "open",
		"super", "enumerate", "zip", "map", "filter", "sorted", "reversed",
		"any", "all", "min", "max", "sum", "abs", "round", "format", "repr",
		"id", "hash", "callable", "dir", "vars", "globals", "locals", "input",
		"eval", "exec", "compile",
	} {
		builtins[name] = true
	}
}

// Extractor implements extract.Extractor for Python source.
type Extractor struct{}

// New creates a Python extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses content and produces the file's nodes and edges.
func (e *Extractor) Extract(filePath string, content []byte) ([]*graph.Node, []*graph.Edge, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil, err
	}

	c := &collector{filePath: filePath, src: content}
	fileNode := common.FileNode(filePath, graph.LangPython, common.CountLines(content))
	c.nodes = append(c.nodes, fileNode)

	root := tree.RootNode()
	c.visitBlock(fileNode.ID, root, nil)

	return c.nodes, c.edges, nil
}

type collector struct {
	filePath string
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

func (c *collector) line(n *sitter.Node) int    { return int(n.StartPoint().Row) + 1 }
func (c *collector) endLine(n *sitter.Node) int { return int(n.EndPoint().Row) + 1 }

// visitBlock walks the direct statements of a module or class/function body,
// carrying a pending decorator stack that attaches to the next def/class.
func (c *collector) visitBlock(ownerID string, block *sitter.Node, classNode *graph.Node) {
	var pendingDecorators []string

	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)
		switch stmt.Type() {
		case "decorator":
			pendingDecorators = append(pendingDecorators, c.decoratorName(stmt))
			continue
		case "decorated_definition":
			decorators := pendingDecorators
			for j := 0; j < int(stmt.NamedChildCount()); j++ {
				child := stmt.NamedChild(j)
				switch child.Type() {
				case "decorator":
					decorators = append(decorators, c.decoratorName(child))
				case "class_definition":
					c.visitClass(ownerID, child, decorators)
				case "function_definition":
					c.visitFunction(ownerID, child, classNode, decorators)
				}
			}
		case "class_definition":
			c.visitClass(ownerID, stmt, pendingDecorators)
		case "function_definition":
			c.visitFunction(ownerID, stmt, classNode, pendingDecorators)
		case "import_statement":
			c.visitImport(ownerID, stmt)
		case "import_from_statement":
			c.visitFromImport(ownerID, stmt)
		case "expression_statement":
			c.visitModuleAssignment(ownerID, stmt)
		}
		pendingDecorators = nil
	}
}

func (c *collector) decoratorName(dec *sitter.Node) string {
	// first named child is the decorated expression: identifier, attribute, or call
	if dec.NamedChildCount() == 0 {
		return c.text(dec)
	}
	expr := dec.NamedChild(0)
	if expr.Type() == "call" {
		fn := expr.ChildByFieldName("function")
		if fn != nil {
			expr = fn
		}
	}
	if expr.Type() == "attribute" {
		attr := expr.ChildByFieldName("attribute")
		if attr != nil {
			return c.text(attr)
		}
	}
	return c.text(expr)
}

func (c *collector) visitImport(fileID string, stmt *sitter.Node) {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		item := stmt.NamedChild(i)
		name, alias := item, ""
		if item.Type() == "aliased_import" {
			name = item.ChildByFieldName("name")
			alias = c.text(item.ChildByFieldName("alias"))
		}
		moduleName := c.text(name)
		if moduleName == "" {
			continue
		}
		meta := map[string]interface{}{"type": "module"}
		if alias != "" {
			meta["alias"] = alias
		}
		importNode := &graph.Node{
			ID:        graph.NodeID(c.filePath, graph.NodeImport, moduleName, c.line(stmt)),
			Type:      graph.NodeImport,
			Name:      moduleName,
			FilePath:  c.filePath,
			LineStart: c.line(stmt),
			LineEnd:   c.endLine(stmt),
			Language:  graph.LangPython,
			Metadata:  meta,
		}
		c.nodes = append(c.nodes, importNode)
		c.edges = append(c.edges, common.ContainsEdge(fileID, importNode.ID))
	}
}

func (c *collector) visitFromImport(fileID string, stmt *sitter.Node) {
	moduleNode := stmt.ChildByFieldName("module_name")
	moduleName := "."
	isRelative := false
	if moduleNode != nil {
		moduleName = c.text(moduleNode)
		isRelative = moduleNode.Type() == "relative_import" || strings.HasPrefix(moduleName, ".")
	}

	type named struct{ name, alias string }
	var namedImports []named
	seen := map[string]bool{}
	add := func(name, alias string) {
		key := name + "\x00" + alias
		if seen[key] {
			return
		}
		seen[key] = true
		namedImports = append(namedImports, named{name, alias})
	}

	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		item := stmt.NamedChild(i)
		switch item.Type() {
		case "dotted_name", "identifier":
			if item == moduleNode {
				continue
			}
			add(c.text(item), "")
		case "aliased_import":
			add(c.text(item.ChildByFieldName("name")), c.text(item.ChildByFieldName("alias")))
		case "wildcard_import":
			add("*", "")
		case "import_list":
			for j := 0; j < int(item.NamedChildCount()); j++ {
				sub := item.NamedChild(j)
				if sub.Type() == "aliased_import" {
					add(c.text(sub.ChildByFieldName("name")), c.text(sub.ChildByFieldName("alias")))
				} else {
					add(c.text(sub), "")
				}
			}
		}
	}

	var namedOut []map[string]interface{}
	for _, n := range namedImports {
		entry := map[string]interface{}{"name": n.name}
		if n.alias != "" {
			entry["alias"] = n.alias
		}
		namedOut = append(namedOut, entry)
	}

	importNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeImport, moduleName, c.line(stmt)),
		Type:      graph.NodeImport,
		Name:      moduleName,
		FilePath:  c.filePath,
		LineStart: c.line(stmt),
		LineEnd:   c.endLine(stmt),
		Language:  graph.LangPython,
		Metadata: map[string]interface{}{
			"type":         "from",
			"namedImports": namedOut,
			"isRelative":   isRelative,
		},
	}
	c.nodes = append(c.nodes, importNode)
	c.edges = append(c.edges, common.ContainsEdge(fileID, importNode.ID))
}

func (c *collector) visitClass(ownerID string, n *sitter.Node, decorators []string) {
	nameNode := n.ChildByFieldName("name")
	name := c.text(nameNode)
	if name == "" {
		return
	}

	var bases []string
	if superclasses := n.ChildByFieldName("superclasses"); superclasses != nil {
		for i := 0; i < int(superclasses.NamedChildCount()); i++ {
			bases = append(bases, c.text(superclasses.NamedChild(i)))
		}
	}

	docstring := c.leadingDocstring(n.ChildByFieldName("body"))
	isAbstract := hasAny(decorators, "abstractmethod") || hasAny(bases, "ABC", "ABCMeta")

	classNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeClass, name, c.line(n)),
		Type:      graph.NodeClass,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  graph.LangPython,
		Metadata: map[string]interface{}{
			"bases":      bases,
			"decorators": decorators,
			"isAbstract": isAbstract,
			"docstring":  docstring,
		},
	}
	c.nodes = append(c.nodes, classNode)
	c.edges = append(c.edges, common.ContainsEdge(ownerID, classNode.ID))

	for _, base := range bases {
		if base == "object" || base == "" {
			continue
		}
		c.edges = append(c.edges, common.RefEdge(classNode.ID, graph.EdgeExtends, graph.RefClass, base, c.line(n)))
	}

	if body := n.ChildByFieldName("body"); body != nil {
		c.visitBlock(classNode.ID, body, classNode)
	}
}

func (c *collector) visitFunction(ownerID string, n *sitter.Node, classNode *graph.Node, decorators []string) {
	nameNode := n.ChildByFieldName("name")
	shortName := c.text(nameNode)
	if shortName == "" {
		return
	}

	nodeType := graph.NodeFunction
	name := shortName
	if classNode != nil {
		nodeType = graph.NodeMethod
		name = classNode.Name + "." + shortName
	}

	isAsync := hasKeyword(n, "async")
	isStatic := hasAny(decorators, "staticmethod")
	isClassMethod := hasAny(decorators, "classmethod")
	isProperty := hasAny(decorators, "property")
	isPrivate := strings.HasPrefix(shortName, "_") && !strings.HasPrefix(shortName, "__")
	isDunder := strings.HasPrefix(shortName, "__") && strings.HasSuffix(shortName, "__")
	isAbstract := hasAny(decorators, "abstractmethod")

	body := n.ChildByFieldName("body")
	docstring := c.leadingDocstring(body)
	returnType := ""
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		returnType = c.text(rt)
	}

	fnNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, nodeType, name, c.line(n)),
		Type:      nodeType,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  graph.LangPython,
		Metadata: map[string]interface{}{
			"isAsync":       isAsync,
			"parameters":    c.collectParameters(n, classNode != nil),
			"returnType":    returnType,
			"decorators":    decorators,
			"isStatic":      isStatic,
			"isClassMethod": isClassMethod,
			"isProperty":    isProperty,
			"isPrivate":     isPrivate,
			"isDunder":      isDunder,
			"isAbstract":    isAbstract,
			"docstring":     docstring,
		},
	}
	c.nodes = append(c.nodes, fnNode)
	c.edges = append(c.edges, common.ContainsEdge(ownerID, fnNode.ID))

	if body != nil {
		c.emitCalls(fnNode.ID, body)
	}
}

func (c *collector) collectParameters(fn *sitter.Node, isMethod bool) []map[string]interface{} {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []map[string]interface{}
	first := true
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		var name string
		entry := map[string]interface{}{}
		switch p.Type() {
		case "identifier":
			name = c.text(p)
		case "typed_parameter":
			name = c.paramCoreName(p)
			if t := firstChildOfType(p, "type"); t != nil {
				entry["type"] = c.text(t)
			}
			if strings.HasPrefix(c.text(p), "**") {
				name = "**" + name
			} else if strings.HasPrefix(c.text(p), "*") {
				name = "*" + name
			}
		case "default_parameter", "typed_default_parameter":
			nameNode := p.ChildByFieldName("name")
			name = c.text(nameNode)
			if t := p.ChildByFieldName("type"); t != nil {
				entry["type"] = c.text(t)
			}
			if v := p.ChildByFieldName("value"); v != nil {
				entry["default"] = c.text(v)
			}
		case "list_splat_pattern":
			name = "*" + c.paramCoreName(p)
		case "dictionary_splat_pattern":
			name = "**" + c.paramCoreName(p)
		default:
			name = c.text(p)
		}

		if isMethod && first && (name == "self" || name == "cls") {
			first = false
			continue
		}
		first = false
		if name == "" {
			continue
		}
		entry["name"] = name
		out = append(out, entry)
	}
	return out
}

func (c *collector) paramCoreName(p *sitter.Node) string {
	t := c.text(p)
	return strings.TrimLeft(t, "*")
}

func firstChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == typ {
			return n.NamedChild(i)
		}
	}
	return nil
}

var constantName = func(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if !(ch >= 'A' && ch <= 'Z') && !(ch >= '0' && ch <= '9') && ch != '_' {
			return false
		}
	}
	return true
}

func (c *collector) visitModuleAssignment(fileID string, stmt *sitter.Node) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := c.text(left)
	if !constantName(name) {
		return
	}

	meta := map[string]interface{}{}
	if t := assign.ChildByFieldName("type"); t != nil {
		meta["type"] = c.text(t)
	}

	varNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeVariable, name, c.line(stmt)),
		Type:      graph.NodeVariable,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(stmt),
		LineEnd:   c.endLine(stmt),
		Language:  graph.LangPython,
		Metadata:  meta,
	}
	c.nodes = append(c.nodes, varNode)
	c.edges = append(c.edges, common.ContainsEdge(fileID, varNode.ID))
}

func (c *collector) leadingDocstring(body *sitter.Node) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return strings.Trim(c.text(str), "\"' \t\r\n")
}

// emitCalls walks body excluding nested def/class scopes, collecting
// call targets and emitting at most one edge per unique name.
func (c *collector) emitCalls(ownerID string, body *sitter.Node) {
	var names []struct {
		name string
		line int
	}
	seen := map[string]bool{}

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition", "class_definition", "lambda":
			return
		case "call":
			fn := n.ChildByFieldName("function")
			if fn != nil {
				callName := c.text(fn)
				if !builtins[callName] && !seen[callName] {
					seen[callName] = true
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
	for i := 0; i < int(body.NamedChildCount()); i++ {
		walk(body.NamedChild(i))
	}

	for _, call := range names {
		c.edges = append(c.edges, common.RefEdge(ownerID, graph.EdgeCalls, graph.RefFunction, call.name, call.line))
	}
}

func hasKeyword(n *sitter.Node, keyword string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.Type() == keyword {
			return true
		}
	}
	return false
}

func hasAny(items []string, candidates ...string) bool {
	for _, item := range items {
		for _, cand := range candidates {
			if item == cand {
				return true
			}
		}
	}
	return false
}
