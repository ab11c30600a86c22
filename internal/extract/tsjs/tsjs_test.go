package tsjs

import (
	"testing"

	"codegraph/internal/graph"
)

func findNode(nodes []*graph.Node, typ graph.NodeType, name string) *graph.Node {
	for _, n := range nodes {
		if n.Type == typ && n.Name == name {
			return n
		}
	}
	return nil
}

func TestExtractClassWithMethodsAndHeritage(t *testing.T) {
	src := []byte(`
import { Logger } from './logger';

export class UserService extends BaseService implements Disposable {
	private users: User[];

	async getUser(id: string): Promise<User> {
		this.logger.info(id);
		return this.repo.find(id);
	}
}
`)

	nodes, edges, err := New().Extract("src/user_service.ts", src)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if findNode(nodes, graph.NodeFile, "user_service.ts") == nil {
		t.Fatal("expected a file node")
	}
	if findNode(nodes, graph.NodeImport, "./logger") == nil {
		t.Error("expected an import node for ./logger")
	}

	class := findNode(nodes, graph.NodeClass, "UserService")
	if class == nil {
		t.Fatal("expected UserService class node")
	}
	if class.Metadata["isExported"] != true {
		t.Errorf("expected isExported=true, got %+v", class.Metadata)
	}

	method := findNode(nodes, graph.NodeMethod, "UserService.getUser")
	if method == nil {
		t.Fatal("expected UserService.getUser method node")
	}
	if method.Metadata["isAsync"] != true {
		t.Errorf("expected isAsync=true, got %+v", method.Metadata)
	}

	var sawExtends, sawImplements bool
	for _, e := range edges {
		if e.SourceID == class.ID && e.Type == graph.EdgeExtends && e.TargetID == graph.MakeRef(graph.RefClass, "BaseService") {
			sawExtends = true
		}
		if e.SourceID == class.ID && e.Type == graph.EdgeImplements && e.TargetID == graph.MakeRef(graph.RefInterface, "Disposable") {
			sawImplements = true
		}
	}
	if !sawExtends {
		t.Error("expected extends edge to ref:class:BaseService")
	}
	if !sawImplements {
		t.Error("expected implements edge to ref:interface:Disposable")
	}
}

func TestExtractArrowFunctionVariable(t *testing.T) {
	src := []byte(`
export const add = (a: number, b: number): number => {
	return helper(a) + helper(b);
};
`)

	nodes, edges, err := New().Extract("src/math.ts", src)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	fn := findNode(nodes, graph.NodeFunction, "add")
	if fn == nil {
		t.Fatal("expected add function node")
	}
	if fn.Metadata["isArrowFunction"] != true {
		t.Errorf("expected isArrowFunction=true, got %+v", fn.Metadata)
	}

	callCount := 0
	for _, e := range edges {
		if e.SourceID == fn.ID && e.Type == graph.EdgeCalls {
			callCount++
		}
	}
	if callCount != 1 {
		t.Errorf("expected exactly one deduped calls edge to helper, got %d", callCount)
	}
}

func TestJavaScriptExtensionForcesLanguage(t *testing.T) {
	nodes, _, err := New().Extract("src/util.js", []byte(`function noop() {}`))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	file := findNode(nodes, graph.NodeFile, "util.js")
	if file == nil || file.Language != graph.LangJavaScript {
		t.Errorf("expected javascript language for .js file, got %+v", file)
	}
}
