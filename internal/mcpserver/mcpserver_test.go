package mcpserver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"codegraph/internal/graph"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

func setupServer(t *testing.T) (*Server, string) {
	root, err := os.MkdirTemp("", "code-graph-mcp-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})
	st, err := store.Open(root, logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
		os.RemoveAll(root)
	})

	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatalf("failed to create src dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("function greet() {\n  return 'hi'\n}\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	node := &graph.Node{ID: "n1", Type: graph.NodeFunction, Name: "greet", FilePath: "src/a.ts", Language: graph.LangTypeScript, LineStart: 1, LineEnd: 3}
	if err := st.UpsertNodes([]*graph.Node{node}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	return New(root, st, logger), root
}

func call(t *testing.T, s *Server, msg *Message) *Message {
	t.Helper()
	return s.handleMessage(msg)
}

func TestHandleInitializeReturnsServerInfo(t *testing.T) {
	s, _ := setupServer(t)
	resp := call(t, s, &Message{Jsonrpc: "2.0", Id: float64(1), Method: "initialize", Params: map[string]interface{}{}})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", resp.Result)
	}
	if result["protocolVersion"] != protocolVersion {
		t.Errorf("expected protocolVersion %q, got %v", protocolVersion, result["protocolVersion"])
	}
}

func TestHandleListToolsReturnsFixedTable(t *testing.T) {
	s, _ := setupServer(t)
	resp := call(t, s, &Message{Jsonrpc: "2.0", Id: float64(1), Method: "tools/list"})
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", resp.Result)
	}
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatalf("expected []Tool, got %T", result["tools"])
	}
	if len(tools) != 10 {
		t.Errorf("expected 10 tools, got %d", len(tools))
	}
}

func TestHandleCallToolGetGraphStats(t *testing.T) {
	s, _ := setupServer(t)
	resp := call(t, s, &Message{
		Jsonrpc: "2.0", Id: float64(1), Method: "tools/call",
		Params: map[string]interface{}{"name": "get_graph_stats", "arguments": map[string]interface{}{}},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected protocol error: %v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	if result["isError"] != false {
		t.Fatalf("expected isError false, got %+v", result)
	}
}

func TestHandleCallToolUnknownToolIsMethodNotFound(t *testing.T) {
	s, _ := setupServer(t)
	resp := call(t, s, &Message{
		Jsonrpc: "2.0", Id: float64(1), Method: "tools/call",
		Params: map[string]interface{}{"name": "nonexistent", "arguments": map[string]interface{}{}},
	})
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Fatalf("expected MethodNotFound error, got %+v", resp.Error)
	}
}

func TestHandleCallToolGetSourceCodeBySymbolName(t *testing.T) {
	s, _ := setupServer(t)
	resp := call(t, s, &Message{
		Jsonrpc: "2.0", Id: float64(1), Method: "tools/call",
		Params: map[string]interface{}{
			"name":      "get_source_code",
			"arguments": map[string]interface{}{"project_path": ".", "symbol_name": "greet"},
		},
	})
	result := resp.Result.(map[string]interface{})
	if result["isError"] != false {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestServerStartProcessesLineDelimitedMessages(t *testing.T) {
	s, _ := setupServer(t)
	input := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n"
	s.SetStdin(bytes.NewBufferString(input))
	var out bytes.Buffer
	s.SetStdout(&out)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	scanner := bufio.NewScanner(&out)
	if !scanner.Scan() {
		t.Fatalf("expected a response line")
	}
	var resp Message
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}
