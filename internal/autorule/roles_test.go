package autorule

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFallsBackToMockRoleWhenLibraryMissing(t *testing.T) {
	loader := NewRoleLoader(filepath.Join(t.TempDir(), "does-not-exist"))
	role := loader.Load("senior_developer")
	if role.Name != "Senior Developer" {
		t.Fatalf("got %q", role.Name)
	}
	if len(role.Rules) == 0 {
		t.Fatalf("expected fallback rules to be non-empty")
	}
}

func TestLoadReadsJobDescAndGuidanceDirectories(t *testing.T) {
	libDir := t.TempDir()
	roleDir := filepath.Join(libDir, "coding_agent")
	mustMkdirAll(t, filepath.Join(roleDir, "rules"))
	mustMkdirAll(t, filepath.Join(roleDir, "contexts"))

	mustWriteFile(t, filepath.Join(roleDir, "job_desc.yaml"), "name: Senior Full-Stack Developer\npersona: Seasoned engineer\nprimary_focus: Ship working code\n")
	mustWriteFile(t, filepath.Join(roleDir, "rules", "001_core.yaml"), "rules:\n  - Write tests first\n  - Keep functions small\n")
	mustWriteFile(t, filepath.Join(roleDir, "contexts", "001_ctx.yaml"), "instructions:\n  - Check the existing style before editing\n")

	loader := NewRoleLoader(libDir)
	role := loader.Load("senior_developer")

	if role.Name != "Senior Full-Stack Developer" {
		t.Fatalf("got name %q", role.Name)
	}
	if role.Persona != "Seasoned engineer" {
		t.Fatalf("got persona %q", role.Persona)
	}
	if len(role.Rules) != 2 || role.Rules[0] != "Write tests first" {
		t.Fatalf("got rules %v", role.Rules)
	}
	if len(role.ContextInstructions) != 1 {
		t.Fatalf("got context instructions %v", role.ContextInstructions)
	}
}

func TestLoadStripsAtPrefixFromAssignee(t *testing.T) {
	loader := NewRoleLoader(filepath.Join(t.TempDir(), "missing"))
	role := loader.Load("@qa_engineer")
	if role.Name != "QA Engineer" {
		t.Fatalf("got %q", role.Name)
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}


