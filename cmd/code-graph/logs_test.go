package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogFilesFiltersByNameAndSortsChronologically(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"mcp-2026-01-02.jsonl", "mcp-2026-01-01.jsonl", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(""), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	logsDate = ""

	files, err := logFiles(dir)
	if err != nil {
		t.Fatalf("logFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 log files, got %v", files)
	}
	if filepath.Base(files[0]) != "mcp-2026-01-01.jsonl" || filepath.Base(files[1]) != "mcp-2026-01-02.jsonl" {
		t.Errorf("expected sorted order, got %v", files)
	}
}

func TestLogFilesRestrictsToDateFlag(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"mcp-2026-01-02.jsonl", "mcp-2026-01-01.jsonl"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(""), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	logsDate = "2026-01-01"
	defer func() { logsDate = "" }()

	files, err := logFiles(dir)
	if err != nil {
		t.Fatalf("logFiles failed: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "mcp-2026-01-01.jsonl" {
		t.Errorf("expected only the 2026-01-01 file, got %v", files)
	}
}

func TestLogFilesMissingDirReturnsEmpty(t *testing.T) {
	logsDate = ""
	files, err := logFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("logFiles failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestReadLogRecordsParsesJSONLAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	logsDate = ""
	content := `{"timestamp":"2026-01-01T00:00:00Z","type":"request","requestId":"r1","tool":"search_symbols"}
{"timestamp":"2026-01-01T00:00:01Z","type":"response","requestId":"r1","tool":"search_symbols","durationMs":5,"tokenEstimate":12}
`
	if err := os.WriteFile(filepath.Join(dir, "mcp-2026-01-01.jsonl"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write log file: %v", err)
	}

	records, err := readLogRecords(dir)
	if err != nil {
		t.Fatalf("readLogRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].DurationMs != 5 || records[1].TokenEstimate != 12 {
		t.Errorf("unexpected response record: %+v", records[1])
	}
}
