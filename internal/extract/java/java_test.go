package java

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

func TestExtractControllerUpgradesEndpoint(t *testing.T) {
	src := []byte(`
package com.example.api;

import org.springframework.web.bind.annotation.RestController;
import org.springframework.web.bind.annotation.RequestMapping;
import org.springframework.web.bind.annotation.GetMapping;
import org.springframework.beans.factory.annotation.Autowired;

@RestController
@RequestMapping("/users")
public class UserController {

	@Autowired
	private UserService userService;

	@GetMapping("/{id}")
	public User getUser(String id) {
		return userService.findById(id);
	}
}
`)

	nodes, edges, err := New().Extract("src/main/java/com/example/api/UserController.java", src)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if findNode(nodes, graph.NodeModule, "com.example.api") == nil {
		t.Error("expected a package module node")
	}

	controller := findNode(nodes, graph.NodeController, "UserController")
	if controller == nil {
		t.Fatal("expected UserController to be upgraded to controller type")
	}

	field := findNode(nodes, graph.NodeVariable, "UserController.userService")
	if field == nil {
		t.Fatal("expected UserController.userService field node")
	}

	var sawAutowire bool
	for _, e := range edges {
		if e.SourceID == field.ID && e.Type == graph.EdgeAutowires && e.TargetID == graph.MakeRef(graph.RefClass, "UserService") {
			sawAutowire = true
		}
	}
	if !sawAutowire {
		t.Error("expected autowires edge from the userService field")
	}

	endpoint := findNode(nodes, graph.NodeEndpoint, "UserController.getUser")
	if endpoint == nil {
		t.Fatal("expected getUser to be upgraded to endpoint type")
	}
	if endpoint.Metadata["httpMethod"] != "GET" {
		t.Errorf("expected httpMethod=GET, got %+v", endpoint.Metadata)
	}
	if endpoint.Metadata["fullPath"] != "/users/{id}" {
		t.Errorf("expected fullPath=/users/{id}, got %+v", endpoint.Metadata["fullPath"])
	}
}

func TestExtractConstructorInjection(t *testing.T) {
	src := []byte(`
package com.example.service;

public class OrderService {
	private final PaymentGateway gateway;

	public OrderService(PaymentGateway gateway) {
		this.gateway = gateway;
	}
}
`)

	nodes, edges, err := New().Extract("src/main/java/com/example/service/OrderService.java", src)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	ctor := findNode(nodes, graph.NodeMethod, "OrderService.<init>")
	if ctor == nil {
		t.Fatal("expected OrderService.<init> constructor node")
	}
	if ctor.Metadata["isConstructor"] != true {
		t.Errorf("expected isConstructor=true, got %+v", ctor.Metadata)
	}

	var sawInjects bool
	for _, e := range edges {
		if e.SourceID == ctor.ID && e.Type == graph.EdgeInjects && e.TargetID == graph.MakeRef(graph.RefClass, "PaymentGateway") {
			sawInjects = true
		}
	}
	if !sawInjects {
		t.Error("expected injects edge for the constructor's PaymentGateway parameter")
	}
}
