package main

import "testing"

func TestCollectUpdatePathsRequiresFileOrFiles(t *testing.T) {
	updateFile = ""
	updateFiles = ""
	defer func() { updateFile = ""; updateFiles = "" }()

	if _, err := collectUpdatePaths(); err == nil {
		t.Fatal("expected an error when neither --file nor --files is set")
	}
}

func TestCollectUpdatePathsSingleFile(t *testing.T) {
	updateFile = "src/a.ts"
	updateFiles = ""
	defer func() { updateFile = ""; updateFiles = "" }()

	paths, err := collectUpdatePaths()
	if err != nil {
		t.Fatalf("collectUpdatePaths failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != "src/a.ts" {
		t.Errorf("expected [src/a.ts], got %v", paths)
	}
}

func TestCollectUpdatePathsMergesFileAndFilesSkippingBlankLines(t *testing.T) {
	updateFile = "src/a.ts"
	updateFiles = "src/b.ts\n\nsrc/c.ts\n"
	defer func() { updateFile = ""; updateFiles = "" }()

	paths, err := collectUpdatePaths()
	if err != nil {
		t.Fatalf("collectUpdatePaths failed: %v", err)
	}
	want := []string{"src/a.ts", "src/b.ts", "src/c.ts"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("path %d: expected %q, got %q", i, p, paths[i])
		}
	}
}
