package autorule

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
)

const autoRulePathEnv = "AUTO_RULE_PATH"

// Generator produces the auto_rule.mdc artifact for a task, either as a
// compact simple summary or, when forced, a full role-and-project-aware
// rendering composed from an agent-library role pack.
type Generator struct {
	projectRoot string
	outputPath  string
	now         func() time.Time
}

// New resolves the output path per spec.md §4.5: explicit outputPath wins,
// else AUTO_RULE_PATH, else <projectRoot>/.cursor/rules/auto_rule.mdc.
func New(projectRoot, outputPath string) *Generator {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(projectRoot, p)
	}

	var path string
	switch {
	case outputPath != "":
		path = resolve(outputPath)
	case os.Getenv(autoRulePathEnv) != "":
		path = resolve(os.Getenv(autoRulePathEnv))
	default:
		path = filepath.Join(projectRoot, ".cursor", "rules", "auto_rule.mdc")
	}

	return &Generator{projectRoot: projectRoot, outputPath: path, now: time.Now}
}

// OutputPath returns the artifact destination this generator was configured
// with, before any write-time fallback.
func (g *Generator) OutputPath() string { return g.outputPath }

// Generate writes the rules artifact for task and returns the result,
// including the path actually written (which may differ from OutputPath on
// a read-only-destination fallback). When forceFullGeneration is false the
// simple path is used; otherwise role and snapshot drive a full rendering.
func (g *Generator) Generate(task *domain.Task, forceFullGeneration bool, role *domain.AgentRole, snapshot *domain.ProjectSnapshot) domain.AutoRuleResult {
	var content string
	if !forceFullGeneration || role == nil {
		content = g.renderSimple(task)
	} else {
		content = g.renderFull(task, *role, snapshot)
	}

	path, fallback, warning := g.write(content, task)
	return domain.AutoRuleResult{
		Content:        content,
		WrittenPath:    path,
		Fallback:       fallback,
		Warning:        warning,
		FullGeneration: forceFullGeneration && role != nil,
	}
}

// write attempts to write content to the configured output path, ensuring
// its parent directory exists first. A permission error on either the
// directory or the file downgrades to a temp-directory fallback path rather
// than failing the caller's task operation.
func (g *Generator) write(content string, task *domain.Task) (path string, fallback bool, warning string) {
	dir := filepath.Dir(g.outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return g.writeFallback(content, task, fmt.Sprintf("output directory %s not writable: %v", dir, err))
	}

	if err := os.WriteFile(g.outputPath, []byte(content), 0o644); err != nil {
		return g.writeFallback(content, task, fmt.Sprintf("output path %s not writable: %v", g.outputPath, err))
	}
	return g.outputPath, false, ""
}

func (g *Generator) writeFallback(content string, task *domain.Task, reason string) (string, bool, string) {
	id := "unknown"
	if task != nil {
		id = string(task.ID)
	}
	fallbackPath := filepath.Join(os.TempDir(), fmt.Sprintf("auto_rule_%s_%d.mdc", id, os.Getpid()))
	if err := os.WriteFile(fallbackPath, []byte(content), 0o644); err != nil {
		return "", true, fmt.Sprintf("%s; fallback write also failed: %v", reason, err)
	}
	return fallbackPath, true, reason
}


