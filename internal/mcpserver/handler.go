package mcpserver

import (
	"encoding/json"
	"fmt"
	"time"
)

const protocolVersion = "2024-11-05"

func (s *Server) handleMessage(msg *Message) *Message {
	if msg.IsRequest() {
		return s.handleRequest(msg)
	}
	if msg.IsNotification() {
		s.handleNotification(msg)
		return nil
	}
	return NewErrorMessage(msg.Id, InvalidRequest, "invalid message: not a request or notification")
}

func (s *Server) handleRequest(msg *Message) *Message {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "tools/list":
		return s.handleListTools(msg)
	case "tools/call":
		return s.handleCallTool(msg)
	default:
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (s *Server) handleNotification(msg *Message) {
	s.logger.Debug("notification received", map[string]interface{}{"method": msg.Method})
}

func (s *Server) handleInitialize(msg *Message) *Message {
	result := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]interface{}{
			"name":    "code-graph",
			"version": "1.0.0",
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}
	return NewResultMessage(msg.Id, result)
}

func (s *Server) handleListTools(msg *Message) *Message {
	return NewResultMessage(msg.Id, map[string]interface{}{"tools": toolDefinitions})
}

func (s *Server) handleCallTool(msg *Message) *Message {
	params, ok := msg.Params.(map[string]interface{})
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "invalid params: expected object")
	}

	name, ok := params["name"].(string)
	if !ok || name == "" {
		return NewErrorMessage(msg.Id, InvalidParams, "missing tool name")
	}
	args, ok := params["arguments"].(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	handler, exists := s.tools[name]
	if !exists {
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("unknown tool: %s", name))
	}

	requestID := newRequestID()
	s.reqlog.logRequest(requestID, name, args)
	s.logger.Info("calling tool", map[string]interface{}{"tool": name, "requestId": requestID})

	start := time.Now()
	result, err := handler(args)
	duration := time.Since(start)
	s.reqlog.logResponse(requestID, name, result, err, duration)

	if err != nil {
		return NewResultMessage(msg.Id, textContent(fmt.Sprintf(`{"error":%q}`, err.Error()), true))
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		return NewResultMessage(msg.Id, textContent(fmt.Sprintf(`{"error":%q}`, marshalErr.Error()), true))
	}
	return NewResultMessage(msg.Id, textContent(string(payload), false))
}

// textContent wraps a JSON-text payload in the tool-call content shape: a
// single text block plus the isError flag, per the tool-server protocol.
func textContent(text string, isError bool) map[string]interface{} {
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
		"isError": isError,
	}
}
