package domain

import "time"

// AgentRole is a loaded agent-library role pack: persona, rules, and
// contextual guidance read from a role's job_desc/rules/contexts/tools/
// output_format files.
type AgentRole struct {
	Name                 string   `json:"name"`
	Persona              string   `json:"persona"`
	PersonaIcon          string   `json:"persona_icon,omitempty"`
	PrimaryFocus         string   `json:"primary_focus"`
	Rules                []string `json:"rules,omitempty"`
	ContextInstructions  []string `json:"context_instructions,omitempty"`
	ToolsGuidance        []string `json:"tools_guidance,omitempty"`
	OutputFormat         string   `json:"output_format"`
}

// TaskPhase is the work phase an auto-generated rule's guidance is scoped
// to, derived from a task's status.
type TaskPhase string

const (
	PhasePlanning  TaskPhase = "planning"
	PhaseCoding    TaskPhase = "coding"
	PhaseTesting   TaskPhase = "testing"
	PhaseReview    TaskPhase = "review"
	PhaseCompleted TaskPhase = "completed"
)

// PhaseForStatus maps a task's lifecycle status to the phase AutoRuleGenerator
// and ProjectAnalyzer tailor their guidance to.
func PhaseForStatus(s Status) TaskPhase {
	switch s {
	case StatusTodo:
		return PhasePlanning
	case StatusInProgress:
		return PhaseCoding
	case StatusTesting:
		return PhaseTesting
	case StatusReview:
		return PhaseReview
	case StatusDone, StatusCancelled:
		return PhaseCompleted
	case StatusBlocked:
		return PhasePlanning
	default:
		return PhaseCoding
	}
}

// ProjectSnapshot is what ProjectAnalyzer reports about a project's
// repository: detected languages/frameworks, manifest files, and
// phase-specific guidance.
type ProjectSnapshot struct {
	RootPath     string            `json:"root_path"`
	Languages    []string          `json:"languages,omitempty"`
	Frameworks   []string          `json:"frameworks,omitempty"`
	ManifestFiles []string         `json:"manifest_files,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	FileCount    int               `json:"file_count"`
	Guidance     map[TaskPhase][]string `json:"guidance,omitempty"`
	AnalyzedAt   time.Time         `json:"analyzed_at"`
}

// AutoRuleResult is the outcome of generating an auto_rule.mdc artifact:
// its content, the path actually written (which may differ from the
// requested destination on a fallback), and whether a fallback occurred.
type AutoRuleResult struct {
	Content      string `json:"content"`
	WrittenPath  string `json:"written_path"`
	Fallback     bool   `json:"fallback"`
	Warning      string `json:"warning,omitempty"`
	FullGeneration bool `json:"full_generation"`
}


