package mcpserver

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"codegraph/internal/logging"
)

// logRecord is one line of the request/response JSONL log, per spec §6.
type logRecord struct {
	Timestamp     string      `json:"timestamp"`
	Type          string      `json:"type"` // "request" | "response"
	RequestID     string      `json:"requestId"`
	Tool          string      `json:"tool"`
	Arguments     interface{} `json:"arguments,omitempty"`
	Result        string      `json:"result,omitempty"`
	TokenEstimate int         `json:"tokenEstimate,omitempty"`
	DurationMs    int64       `json:"durationMs,omitempty"`
	Error         string      `json:"error,omitempty"`
}

const resultTruncateChars = 2000

// requestLogger writes request/response JSONL records, gated by
// CODE_GRAPH_LOG. A log-write failure is reported to stderr and otherwise
// swallowed: the server must keep running even if logging can't.
type requestLogger struct {
	enabled bool
	console bool
	logger  *logging.Logger

	mu sync.Mutex
}

func newRequestLogger(logger *logging.Logger) *requestLogger {
	return &requestLogger{
		enabled: os.Getenv("CODE_GRAPH_LOG") == "true",
		console: os.Getenv("CODE_GRAPH_LOG_CONSOLE") == "true",
		logger:  logger,
	}
}

// newRequestID mints a request id correlating a tool call's request and
// response log lines.
func newRequestID() string {
	return uuid.New().String()
}

func (r *requestLogger) logPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".code-graph", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("mcp-%s.jsonl", time.Now().Format("2006-01-02"))), nil
}

func (r *requestLogger) write(rec logRecord) {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpserver: failed to marshal log record: %v\n", err)
		return
	}

	if r.console {
		fmt.Fprintln(os.Stderr, string(data))
	}

	path, err := r.logPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpserver: failed to resolve log path: %v\n", err)
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpserver: failed to open log file: %v\n", err)
		return
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n", data); err != nil {
		fmt.Fprintf(os.Stderr, "mcpserver: failed to write log record: %v\n", err)
	}
}

func (r *requestLogger) logRequest(requestID, tool string, args map[string]interface{}) {
	r.write(logRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Type:      "request",
		RequestID: requestID,
		Tool:      tool,
		Arguments: args,
	})
}

func (r *requestLogger) logResponse(requestID, tool string, result interface{}, callErr error, duration time.Duration) {
	rec := logRecord{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Type:       "response",
		RequestID:  requestID,
		Tool:       tool,
		DurationMs: duration.Milliseconds(),
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	} else if result != nil {
		blob, err := json.Marshal(result)
		if err == nil {
			s := string(blob)
			rec.TokenEstimate = int(math.Ceil(float64(len(s)) / 4.0))
			if len(s) > resultTruncateChars {
				s = s[:resultTruncateChars]
			}
			rec.Result = s
		}
	}
	r.write(rec)
}
