package python

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

func TestExtractClassWithDecoratedMethod(t *testing.T) {
	src := []byte(`
from typing import Optional
from .models import User

MAX_RETRIES = 3

class UserRepository(BaseRepository):
	"""Stores users."""

	@staticmethod
	def find(id: str) -> Optional[User]:
		return query(id)

	async def save(self, user):
		validate(user)
		self.db.commit()
`)

	nodes, edges, err := New().Extract("app/repo.py", src)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if findNode(nodes, graph.NodeImport, ".models") == nil {
		t.Error("expected a from-import node for .models")
	}

	constant := findNode(nodes, graph.NodeVariable, "MAX_RETRIES")
	if constant == nil {
		t.Fatal("expected MAX_RETRIES constant node")
	}

	class := findNode(nodes, graph.NodeClass, "UserRepository")
	if class == nil {
		t.Fatal("expected UserRepository class node")
	}
	if class.Metadata["docstring"] != "Stores users." {
		t.Errorf("expected docstring to round-trip, got %+v", class.Metadata["docstring"])
	}

	var sawExtends bool
	for _, e := range edges {
		if e.SourceID == class.ID && e.Type == graph.EdgeExtends && e.TargetID == graph.MakeRef(graph.RefClass, "BaseRepository") {
			sawExtends = true
		}
	}
	if !sawExtends {
		t.Error("expected extends edge to ref:class:BaseRepository")
	}

	find := findNode(nodes, graph.NodeMethod, "UserRepository.find")
	if find == nil {
		t.Fatal("expected UserRepository.find method node")
	}
	if find.Metadata["isStatic"] != true {
		t.Errorf("expected isStatic=true for @staticmethod, got %+v", find.Metadata)
	}

	save := findNode(nodes, graph.NodeMethod, "UserRepository.save")
	if save == nil {
		t.Fatal("expected UserRepository.save method node")
	}
	params, _ := save.Metadata["parameters"].([]map[string]interface{})
	if len(params) != 1 || params[0]["name"] != "user" {
		t.Errorf("expected self filtered from parameters, got %+v", save.Metadata["parameters"])
	}
	if save.Metadata["isAsync"] != true {
		t.Errorf("expected isAsync=true, got %+v", save.Metadata)
	}
}

func TestExtractSkipsBuiltinCalls(t *testing.T) {
	src := []byte(`
def process(items):
	total = len(items)
	log(total)
	return total
`)
	nodes, edges, err := New().Extract("app/util.py", src)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	fn := findNode(nodes, graph.NodeFunction, "process")
	if fn == nil {
		t.Fatal("expected process function node")
	}

	var callNames []string
	for _, e := range edges {
		if e.SourceID == fn.ID && e.Type == graph.EdgeCalls {
			callNames = append(callNames, e.Metadata["targetName"].(string))
		}
	}
	if len(callNames) != 1 || callNames[0] != "log" {
		t.Errorf("expected only the log() call to survive (len builtin skipped), got %+v", callNames)
	}
}
