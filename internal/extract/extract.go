// Package extract defines the shared Extractor contract implemented by one
// sub-package per language family (tsjs, python, java). Each extractor is a
// pure function from (filePath, content) to (nodes, edges); cross-file
// references are emitted unresolved, targeting a `ref:<kind>:<name>`
// placeholder for the Resolver to bind later.
package extract

import (
	"path/filepath"
	"strings"

	"codegraph/internal/extract/java"
	"codegraph/internal/extract/python"
	"codegraph/internal/extract/tsjs"
	"codegraph/internal/graph"
)

// Extractor turns one file's content into the nodes and edges it defines.
type Extractor interface {
	Extract(filePath string, content []byte) ([]*graph.Node, []*graph.Edge, error)
}

var (
	tsjsExtractor   = tsjs.New()
	pythonExtractor = python.New()
	javaExtractor   = java.New()
)

// ForPath returns the extractor that owns filePath's extension, or nil if
// the extension isn't supported by any language family.
func ForPath(filePath string) Extractor {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs":
		return tsjsExtractor
	case ".py":
		return pythonExtractor
	case ".java":
		return javaExtractor
	default:
		return nil
	}
}

// Supports reports whether any registered extractor claims filePath's
// extension.
func Supports(filePath string) bool {
	return ForPath(filePath) != nil
}
