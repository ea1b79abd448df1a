package autorule

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
)

func fixedGenerator(root, outputPath string) *Generator {
	g := New(root, outputPath)
	g.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return g
}

func sampleTask() *domain.Task {
	return &domain.Task{
		ID:          "task-1",
		Title:       "Fix login bug",
		Description: "Users can't log in with SSO",
		Status:      domain.StatusInProgress,
		Priority:    domain.PriorityHigh,
		Labels:      []string{"bug"},
		Assignees:   []string{"@senior_developer"},
	}
}

func TestNewResolvesDefaultOutputPath(t *testing.T) {
	g := New("/srv/project", "")
	want := filepath.Join("/srv/project", ".cursor", "rules", "auto_rule.mdc")
	if g.OutputPath() != want {
		t.Fatalf("got %q, want %q", g.OutputPath(), want)
	}
}

func TestNewHonorsExplicitOutputPath(t *testing.T) {
	g := New("/srv/project", "custom/rules.mdc")
	want := filepath.Join("/srv/project", "custom/rules.mdc")
	if g.OutputPath() != want {
		t.Fatalf("got %q, want %q", g.OutputPath(), want)
	}
}

func TestNewHonorsEnvVar(t *testing.T) {
	t.Setenv(autoRulePathEnv, "/abs/env/path.mdc")
	g := New("/srv/project", "")
	if g.OutputPath() != "/abs/env/path.mdc" {
		t.Fatalf("got %q", g.OutputPath())
	}
}

func TestGenerateSimpleWritesCompactArtifact(t *testing.T) {
	root := t.TempDir()
	g := fixedGenerator(root, "")
	result := g.Generate(sampleTask(), false, nil, nil)

	if result.Fallback {
		t.Fatalf("expected no fallback")
	}
	if result.FullGeneration {
		t.Fatalf("expected simple generation")
	}
	if !strings.Contains(result.Content, "Fix login bug") {
		t.Fatalf("content missing task title: %s", result.Content)
	}
	if !strings.Contains(result.Content, "ROLE: SENIOR_DEVELOPER") {
		t.Fatalf("content missing role header: %s", result.Content)
	}

	written, err := os.ReadFile(result.WrittenPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(written) != result.Content {
		t.Fatalf("written content mismatch")
	}
}

func TestGenerateFullUsesRoleAndSnapshot(t *testing.T) {
	root := t.TempDir()
	g := fixedGenerator(root, "")
	role := domain.AgentRole{
		Name:         "Senior Developer",
		Persona:      "Pragmatic engineer",
		PrimaryFocus: "Ship working software",
		Rules:        []string{"Write tests", "Keep it simple"},
		OutputFormat: "Working code with tests",
	}
	snapshot := &domain.ProjectSnapshot{
		RootPath:   root,
		Languages:  []string{"go"},
		Frameworks: []string{"cobra"},
		Guidance: map[domain.TaskPhase][]string{
			domain.PhaseCoding: {"Match the existing package layout"},
		},
	}

	result := g.Generate(sampleTask(), true, &role, snapshot)
	if !result.FullGeneration {
		t.Fatalf("expected full generation")
	}
	if !strings.Contains(result.Content, "Pragmatic engineer") {
		t.Fatalf("missing persona: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Match the existing package layout") {
		t.Fatalf("missing phase guidance: %s", result.Content)
	}
	if !strings.Contains(result.Content, "CODING") {
		t.Fatalf("missing phase: %s", result.Content)
	}
}

func TestGenerateFallsBackToTempDirWhenOutputDirCannotBeCreated(t *testing.T) {
	root := t.TempDir()
	// Pre-create ".cursor" as a plain file: MkdirAll(".cursor/rules") then
	// fails with "not a directory" regardless of process privileges,
	// standing in for an unwritable destination.
	if err := os.WriteFile(filepath.Join(root, ".cursor"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	g := fixedGenerator(root, "")
	result := g.Generate(sampleTask(), false, nil, nil)

	if !result.Fallback {
		t.Fatalf("expected fallback when output directory cannot be created")
	}
	if result.WrittenPath == g.OutputPath() {
		t.Fatalf("expected fallback path to differ from configured output path")
	}
	if _, err := os.Stat(result.WrittenPath); err != nil {
		t.Fatalf("expected fallback file to exist: %v", err)
	}
}


