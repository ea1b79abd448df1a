package projectanalyzer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestAnalyzeStructureSkipsExcludedAndHiddenEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "node_modules", "x.js"), "")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "")
	writeFile(t, filepath.Join(root, "internal", "foo.go"), "package internal")

	structure, count := AnalyzeStructure(root)

	if _, ok := structure["node_modules"]; ok {
		t.Fatalf("expected node_modules to be excluded")
	}
	if _, ok := structure[".git"]; ok {
		t.Fatalf("expected .git to be excluded")
	}
	if _, ok := structure["main.go"]; !ok {
		t.Fatalf("expected main.go in structure")
	}
	if count == 0 {
		t.Fatalf("expected non-zero node count")
	}
}

func TestAnalyzeStructureRespectsDepthLimit(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c", "d", "e")
	writeFile(t, filepath.Join(deep, "leaf.go"), "")

	structure, _ := AnalyzeStructure(root)

	// maxDepth is 4: root(0)/a(1)/b(2)/c(3)/d(4) stops before descending
	// into d, so "d" is present but empty rather than containing "e".
	node := structure
	for _, name := range []string{"a", "b", "c"} {
		child, ok := node[name].(Node)
		if !ok {
			t.Fatalf("expected %q present in structure", name)
		}
		node = child
	}
	dNode, ok := node["d"].(Node)
	if !ok {
		t.Fatalf("expected \"d\" present in structure")
	}
	if len(dNode) != 0 {
		t.Fatalf("expected depth limit to stop expansion at \"d\", got %v", dNode)
	}
}

func TestFormatTreeRendersDirectoriesBeforeFiles(t *testing.T) {
	structure := Node{
		"zfile.go": Node{},
		"adir":     Node{"nested.go": Node{}},
	}
	out := FormatTree(structure, "")
	dirIdx := strings.Index(out, "adir/")
	fileIdx := strings.Index(out, "zfile.go")
	if dirIdx == -1 || fileIdx == -1 {
		t.Fatalf("expected both entries rendered: %s", out)
	}
	if dirIdx > fileIdx {
		t.Fatalf("expected directory listed before file: %s", out)
	}
}

func TestFormatTreeEmptyStructure(t *testing.T) {
	if got := FormatTree(Node{}, ""); got != "No project structure analyzed" {
		t.Fatalf("got %q", got)
	}
}


