package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"codegraph/internal/apperrors"
)

var (
	logsDate string
	logsTail int
	logsJSON bool
)

var logsCmd = &cobra.Command{
	Use:   "logs <list|summary|tail|clear|path>",
	Short: "Inspect the MCP tool server's request/response JSONL audit log",
	Long: `logs is a thin reader over $HOME/.code-graph/logs/mcp-*.jsonl (spec §6):
list enumerates log files, summary aggregates counts per tool, tail prints
the last N records, clear deletes log files, path prints the log directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsDate, "date", "", "Restrict to a single day's log file (YYYY-MM-DD)")
	logsCmd.Flags().IntVar(&logsTail, "tail", 20, "Number of records 'tail' prints")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(logsCmd)
}

func logsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".code-graph", "logs"), nil
}

func logFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "mcp-") || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		if logsDate != "" && e.Name() != fmt.Sprintf("mcp-%s.jsonl", logsDate) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir, err := logsDir()
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to resolve log directory", err)
	}

	switch args[0] {
	case "path":
		fmt.Println(dir)
		return nil
	case "list":
		return logsList(dir)
	case "summary":
		return logsSummary(dir)
	case "tail":
		return logsTailCmd(dir)
	case "clear":
		return logsClear(dir)
	default:
		return apperrors.New(apperrors.BadArguments, fmt.Sprintf("unknown logs subcommand %q", args[0]))
	}
}

func logsList(dir string) error {
	files, err := logFiles(dir)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to list log files", err)
	}
	if logsJSON {
		data, _ := json.MarshalIndent(files, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	if len(files) == 0 {
		fmt.Println("No log files found.")
		return nil
	}
	for _, f := range files {
		fmt.Println(filepath.Base(f))
	}
	return nil
}

// logRecordView mirrors internal/mcpserver's logRecord shape, duplicated
// here rather than imported: the CLI reads the JSONL file as a consumer,
// it doesn't share the writer's internal type.
type logRecordView struct {
	Timestamp     string `json:"timestamp"`
	Type          string `json:"type"`
	RequestID     string `json:"requestId"`
	Tool          string `json:"tool"`
	DurationMs    int64  `json:"durationMs"`
	TokenEstimate int    `json:"tokenEstimate"`
	Error         string `json:"error,omitempty"`
}

func readLogRecords(dir string) ([]logRecordView, error) {
	files, err := logFiles(dir)
	if err != nil {
		return nil, err
	}
	var records []logRecordView
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			var rec logRecordView
			if err := json.Unmarshal(sc.Bytes(), &rec); err == nil {
				records = append(records, rec)
			}
		}
		f.Close()
	}
	return records, nil
}

func logsSummary(dir string) error {
	records, err := readLogRecords(dir)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to read logs", err)
	}

	byTool := map[string]int{}
	total := 0
	errors := 0
	for _, r := range records {
		if r.Type != "response" {
			continue
		}
		byTool[r.Tool]++
		total++
		if r.Error != "" {
			errors++
		}
	}

	summary := map[string]interface{}{"byTool": byTool, "totalResponses": total, "errors": errors}
	if logsJSON {
		data, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("Responses by tool:\n")
	for tool, count := range byTool {
		fmt.Printf("  %s: %d\n", tool, count)
	}
	fmt.Printf("Errors: %d\n", errors)
	return nil
}

func logsTailCmd(dir string) error {
	records, err := readLogRecords(dir)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to read logs", err)
	}
	if len(records) > logsTail {
		records = records[len(records)-logsTail:]
	}
	if logsJSON {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s [%s] %s tool=%s", r.Timestamp, r.Type, r.RequestID, r.Tool)
		if r.Type == "response" {
			line += fmt.Sprintf(" durationMs=%d tokens=%d", r.DurationMs, r.TokenEstimate)
		}
		if r.Error != "" {
			line += fmt.Sprintf(" error=%q", r.Error)
		}
		fmt.Println(line)
	}
	return nil
}

func logsClear(dir string) error {
	files, err := logFiles(dir)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to list log files", err)
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return apperrors.Wrap(apperrors.IOFailure, fmt.Sprintf("failed to remove %s", f), err)
		}
	}
	fmt.Printf("Removed %d log file(s).\n", len(files))
	return nil
}
