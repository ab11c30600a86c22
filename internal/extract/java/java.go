// Package java implements the Spring-aware Java extractor.
package java

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"codegraph/internal/extract/common"
	"codegraph/internal/graph"
)

var httpMappingAnnotations = map[string]string{
	"GetMapping":    "GET",
	"PostMapping":   "POST",
	"PutMapping":    "PUT",
	"DeleteMapping": "DELETE",
	"PatchMapping":  "PATCH",
}

// Extractor implements extract.Extractor for Java source.
type Extractor struct{}

// New creates a Java extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses content and produces the file's nodes and edges.
func (e *Extractor) Extract(filePath string, content []byte) ([]*graph.Node, []*graph.Edge, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil, err
	}

	c := &collector{filePath: filePath, src: content}
	fileNode := common.FileNode(filePath, graph.LangJava, common.CountLines(content))
	c.nodes = append(c.nodes, fileNode)

	containerID := fileNode.ID
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "package_declaration":
			containerID = c.visitPackage(fileNode, stmt)
		case "import_declaration":
			c.visitImport(containerID, stmt)
		case "class_declaration":
			c.visitClass(containerID, stmt)
		}
	}

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

func (c *collector) visitPackage(fileNode *graph.Node, n *sitter.Node) string {
	name := ""
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
			name = c.text(child)
		}
	}
	if name == "" {
		return fileNode.ID
	}
	moduleNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeModule, name, c.line(n)),
		Type:      graph.NodeModule,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  graph.LangJava,
	}
	c.nodes = append(c.nodes, moduleNode)
	c.edges = append(c.edges, common.ContainsEdge(fileNode.ID, moduleNode.ID))
	return moduleNode.ID
}

func (c *collector) visitImport(ownerID string, n *sitter.Node) {
	isStatic := hasKeyword(n, "static")
	isWildcard := strings.Contains(c.text(n), "*")
	name := ""
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
			name = c.text(child)
		}
	}
	importNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeImport, name, c.line(n)),
		Type:      graph.NodeImport,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  graph.LangJava,
		Metadata: map[string]interface{}{
			"isStatic":   isStatic,
			"isWildcard": isWildcard,
		},
	}
	c.nodes = append(c.nodes, importNode)
	c.edges = append(c.edges, common.ContainsEdge(ownerID, importNode.ID))
}

type annotation struct {
	name  string
	value string
	attrs map[string]string
}

func (c *collector) collectAnnotations(n *sitter.Node) []annotation {
	var out []annotation
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "modifiers":
			out = append(out, c.collectAnnotations(child)...)
		case "marker_annotation":
			out = append(out, annotation{name: c.text(child.ChildByFieldName("name"))})
		case "annotation":
			a := annotation{name: c.text(child.ChildByFieldName("name")), attrs: map[string]string{}}
			args := child.ChildByFieldName("arguments")
			if args != nil {
				for j := 0; j < int(args.NamedChildCount()); j++ {
					arg := args.NamedChild(j)
					switch arg.Type() {
					case "element_value_pair":
						key := c.text(arg.ChildByFieldName("key"))
						a.attrs[key] = c.annotationValueText(arg.ChildByFieldName("value"))
					default:
						if a.value == "" {
							a.value = c.annotationValueText(arg)
						}
					}
				}
			}
			out = append(out, a)
		}
	}
	return out
}

func (c *collector) annotationValueText(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() == "element_value_array_initializer" && n.NamedChildCount() > 0 {
		return c.annotationValueText(n.NamedChild(0))
	}
	return strings.Trim(c.text(n), "\"")
}

func findAnnotation(annotations []annotation, names ...string) *annotation {
	for i := range annotations {
		for _, name := range names {
			if annotations[i].name == name {
				return &annotations[i]
			}
		}
	}
	return nil
}

func annotationNames(annotations []annotation) []map[string]interface{} {
	var out []map[string]interface{}
	for _, a := range annotations {
		entry := map[string]interface{}{"name": a.name}
		if a.value != "" {
			entry["value"] = a.value
		}
		if len(a.attrs) > 0 {
			entry["attrs"] = a.attrs
		}
		out = append(out, entry)
	}
	return out
}

func (c *collector) visitClass(ownerID string, n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := c.text(nameNode)
	if name == "" {
		return
	}

	annotations := c.collectAnnotations(n)
	nodeType := graph.NodeClass
	switch {
	case findAnnotation(annotations, "RestController", "Controller") != nil:
		nodeType = graph.NodeController
	case findAnnotation(annotations, "Service") != nil:
		nodeType = graph.NodeService
	case findAnnotation(annotations, "Repository") != nil:
		nodeType = graph.NodeRepository
	case findAnnotation(annotations, "Component") != nil:
		nodeType = graph.NodeComponent
	}

	classRequestMapping := ""
	if rm := findAnnotation(annotations, "RequestMapping"); rm != nil {
		classRequestMapping = requestMappingPath(rm)
	}

	modifiers := classModifiers(n)

	classNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, nodeType, name, c.line(n)),
		Type:      nodeType,
		Name:      name,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  graph.LangJava,
		Metadata: map[string]interface{}{
			"annotations":   annotationNames(annotations),
			"modifiers":     modifiers,
			"isAbstract":    contains(modifiers, "abstract"),
			"isFinal":       contains(modifiers, "final"),
			"requestMapping": classRequestMapping,
		},
	}
	c.nodes = append(c.nodes, classNode)
	c.edges = append(c.edges, common.ContainsEdge(ownerID, classNode.ID))

	if superclass := n.ChildByFieldName("superclass"); superclass != nil {
		base := stripTypeArgs(c.text(superclass))
		c.edges = append(c.edges, common.RefEdge(classNode.ID, graph.EdgeExtends, graph.RefClass, base, c.line(n)))
	}
	if interfaces := n.ChildByFieldName("interfaces"); interfaces != nil {
		for i := 0; i < int(interfaces.NamedChildCount()); i++ {
			list := interfaces.NamedChild(i)
			for j := 0; j < int(list.NamedChildCount()); j++ {
				impl := stripTypeArgs(c.text(list.NamedChild(j)))
				if impl != "" {
					c.edges = append(c.edges, common.RefEdge(classNode.ID, graph.EdgeImplements, graph.RefInterface, impl, c.line(n)))
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
		case "method_declaration":
			c.visitMethod(classNode, member, classRequestMapping)
		case "constructor_declaration":
			c.visitConstructor(classNode, member)
		case "field_declaration":
			c.visitField(classNode, member)
		}
	}
}

func classModifiers(n *sitter.Node) []string {
	var out []string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			m := child.Child(j)
			if m != nil && m.Type() != "marker_annotation" && m.Type() != "annotation" {
				out = append(out, m.Type())
			}
		}
	}
	return out
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func stripTypeArgs(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func requestMappingPath(a *annotation) string {
	if v, ok := a.attrs["value"]; ok {
		return v
	}
	if v, ok := a.attrs["path"]; ok {
		return v
	}
	return a.value
}

func joinPaths(base, path string) string {
	if base == "" {
		return path
	}
	if path == "" {
		return base
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func (c *collector) visitMethod(classNode *graph.Node, n *sitter.Node, classRequestMapping string) {
	nameNode := n.ChildByFieldName("name")
	shortName := c.text(nameNode)
	if shortName == "" {
		return
	}
	qualified := classNode.Name + "." + shortName

	annotations := c.collectAnnotations(n)
	mapping := findAnnotation(annotations, "GetMapping", "PostMapping", "PutMapping", "DeleteMapping", "PatchMapping", "RequestMapping")

	nodeType := graph.NodeMethod
	meta := map[string]interface{}{
		"annotations": annotationNames(annotations),
	}

	if mapping != nil {
		nodeType = graph.NodeEndpoint
		httpMethod, ok := httpMappingAnnotations[mapping.name]
		if !ok {
			httpMethod = "GET"
			if m, ok := mapping.attrs["method"]; ok {
				httpMethod = lastSegment(m)
			}
		}
		path := requestMappingPath(mapping)
		meta["httpMethod"] = httpMethod
		meta["path"] = path
		meta["fullPath"] = joinPaths(classRequestMapping, path)
	}

	methodNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, nodeType, qualified, c.line(n)),
		Type:      nodeType,
		Name:      qualified,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  graph.LangJava,
		Metadata:  meta,
	}
	c.nodes = append(c.nodes, methodNode)
	c.edges = append(c.edges, common.ContainsEdge(classNode.ID, methodNode.ID))
	c.emitAutowiredParamEdges(methodNode.ID, n)

	if body := n.ChildByFieldName("body"); body != nil {
		c.emitCalls(methodNode.ID, body)
	}
}

func (c *collector) emitAutowiredParamEdges(ownerID string, n *sitter.Node) {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "formal_parameter" {
			continue
		}
		annotations := c.collectAnnotations(p)
		if findAnnotation(annotations, "Autowired", "Inject") == nil {
			continue
		}
		typeNode := p.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		paramType := stripTypeArgs(c.text(typeNode))
		c.edges = append(c.edges, common.RefEdge(ownerID, graph.EdgeAutowires, graph.RefClass, paramType, c.line(p)))
	}
}

func (c *collector) visitConstructor(classNode *graph.Node, n *sitter.Node) {
	qualified := classNode.Name + ".<init>"
	annotations := c.collectAnnotations(n)

	ctorNode := &graph.Node{
		ID:        graph.NodeID(c.filePath, graph.NodeMethod, qualified, c.line(n)),
		Type:      graph.NodeMethod,
		Name:      qualified,
		FilePath:  c.filePath,
		LineStart: c.line(n),
		LineEnd:   c.endLine(n),
		Language:  graph.LangJava,
		Metadata: map[string]interface{}{
			"isConstructor": true,
			"annotations":   annotationNames(annotations),
		},
	}
	c.nodes = append(c.nodes, ctorNode)
	c.edges = append(c.edges, common.ContainsEdge(classNode.ID, ctorNode.ID))
	c.emitAutowiredParamEdges(ctorNode.ID, n)

	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p.Type() != "formal_parameter" {
				continue
			}
			typeNode := p.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			paramType := stripTypeArgs(c.text(typeNode))
			c.edges = append(c.edges, common.RefEdge(ctorNode.ID, graph.EdgeInjects, graph.RefClass, paramType, c.line(p)))
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		c.emitCalls(ctorNode.ID, body)
	}
}

func (c *collector) visitField(classNode *graph.Node, n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	annotations := c.collectAnnotations(n)
	modifiers := classModifiers(n)
	isStatic := contains(modifiers, "static")
	isFinal := contains(modifiers, "final")

	for i := 0; i < int(n.NamedChildCount()); i++ {
		declarator := n.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		shortName := c.text(nameNode)
		qualified := classNode.Name + "." + shortName

		valueProperty := ""
		if v := declarator.ChildByFieldName("value"); v != nil {
			valueProperty = c.text(v)
		}

		fieldNode := &graph.Node{
			ID:        graph.NodeID(c.filePath, graph.NodeVariable, qualified, c.line(n)),
			Type:      graph.NodeVariable,
			Name:      qualified,
			FilePath:  c.filePath,
			LineStart: c.line(n),
			LineEnd:   c.endLine(n),
			Language:  graph.LangJava,
			Metadata: map[string]interface{}{
				"annotations":   annotationNames(annotations),
				"modifiers":     modifiers,
				"type":          c.text(typeNode),
				"isStatic":      isStatic,
				"isFinal":       isFinal,
				"valueProperty": valueProperty,
			},
		}
		c.nodes = append(c.nodes, fieldNode)
		c.edges = append(c.edges, common.ContainsEdge(classNode.ID, fieldNode.ID))

		if findAnnotation(annotations, "Autowired", "Inject", "Resource") != nil && typeNode != nil {
			fieldType := stripTypeArgs(c.text(typeNode))
			c.edges = append(c.edges, common.RefEdge(fieldNode.ID, graph.EdgeAutowires, graph.RefClass, fieldType, c.line(n)))
		}
	}
}

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
		if n.Type() == "method_invocation" {
			name := c.text(n.ChildByFieldName("name"))
			object := n.ChildByFieldName("object")
			dotted := name
			if object != nil {
				dotted = c.text(object) + "." + name
			}
			if dotted != "" && !seen[dotted] {
				seen[dotted] = true
				names = append(names, struct {
					name string
					line int
				}{dotted, c.line(n)})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)

	for _, call := range names {
		c.edges = append(c.edges, common.RefEdge(ownerID, graph.EdgeCalls, graph.RefMethod, call.name, call.line))
	}
}

func lastSegment(s string) string {
	idx := strings.LastIndexByte(s, '.')
	if idx < 0 {
		return s
	}
	return s[idx+1:]
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
