// Package mcpserver implements the tool-server protocol from spec §6: a
// line-delimited JSON-RPC 2.0 server over stdio exposing a fixed set of
// read-only graph query tools.
package mcpserver

import (
	"bufio"
	"io"
	"os"

	cgcontext "codegraph/internal/context"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

// ToolHandler executes one tool call and returns its JSON-able result.
type ToolHandler func(args map[string]interface{}) (interface{}, error)

// Server is the MCP tool server for a single project.
type Server struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner

	logger    *logging.Logger
	store     *store.Store
	assembler *cgcontext.Assembler
	repoRoot  string

	tools  map[string]ToolHandler
	reqlog *requestLogger
}

// New creates a Server rooted at repoRoot, backed by st.
func New(repoRoot string, st *store.Store, logger *logging.Logger) *Server {
	s := &Server{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		logger:   logger,
		store:    st,
		repoRoot: repoRoot,
		tools:    make(map[string]ToolHandler),
		reqlog:   newRequestLogger(logger),
	}
	s.assembler = cgcontext.New(st, repoRoot, logger)
	s.registerTools()
	return s
}

// SetStdin overrides the input stream, for tests.
func (s *Server) SetStdin(r io.Reader) {
	s.stdin = r
	s.scanner = nil
}

// SetStdout overrides the output stream, for tests.
func (s *Server) SetStdout(w io.Writer) {
	s.stdout = w
}

// Start runs the server's message loop until EOF or a fatal read error.
func (s *Server) Start() error {
	s.logger.Info("MCP server starting", map[string]interface{}{"repoRoot": s.repoRoot})

	for {
		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("MCP server shutting down (EOF)", nil)
				return nil
			}
			s.logger.Error("error reading message", map[string]interface{}{"error": err.Error()})
			if msg != nil && msg.Id != nil {
				_ = s.writeError(msg.Id, ParseError, err.Error())
			}
			continue
		}

		response := s.handleMessage(msg)
		if response == nil {
			continue
		}
		if err := s.writeMessage(response); err != nil {
			s.logger.Error("error writing response", map[string]interface{}{"error": err.Error()})
		}
	}
}
