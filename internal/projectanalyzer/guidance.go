package projectanalyzer

import "github.com/dhafnck/taskforge/internal/domain"

var basePhaseGuidance = map[domain.TaskPhase][]string{
	domain.PhasePlanning: {
		"Break the task into concrete, testable steps before writing code",
		"Identify which existing packages the change touches",
	},
	domain.PhaseCoding: {
		"Follow the project's existing naming and package conventions",
		"Keep changes scoped to what the task requires",
	},
	domain.PhaseTesting: {
		"Cover the new behavior with tests in the project's existing test style",
		"Check edge cases named in the task description",
	},
	domain.PhaseReview: {
		"Verify the change matches the task's acceptance criteria",
		"Check for unhandled errors and missing tests",
	},
	domain.PhaseCompleted: {
		"Confirm the task's documented outcome was achieved",
	},
}

var patternGuidance = map[string]map[domain.TaskPhase][]string{
	"Go module project": {
		domain.PhaseCoding: {"Run gofmt-equivalent formatting conventions already used in the package"},
	},
	"CLI-based application": {
		domain.PhasePlanning: {"Check whether the change needs a new cobra subcommand or flag"},
	},
	"Modular architecture with internal/ package boundary": {
		domain.PhaseCoding: {"Keep new code under internal/ unless it is meant to be imported externally"},
	},
	"Python project with pip dependencies": {
		domain.PhaseCoding: {"Add new dependencies to requirements.txt alongside the code that needs them"},
	},
	"Node.js/JavaScript project": {
		domain.PhaseTesting: {"Run the project's existing JS test runner against the changed files"},
	},
}

// GenerateGuidance returns base guidance for phase plus any guidance keyed
// to the detected architectural patterns, matching the original's
// base-plus-pattern-specific composition.
func GenerateGuidance(phase domain.TaskPhase, patterns []string) []string {
	var out []string
	out = append(out, basePhaseGuidance[phase]...)
	for _, p := range patterns {
		if extra, ok := patternGuidance[p]; ok {
			out = append(out, extra[phase]...)
		}
	}
	return out
}

// GenerateAllPhaseGuidance builds the phase-to-guidance map carried on a
// domain.ProjectSnapshot, covering every phase rather than just the task's
// current one.
func GenerateAllPhaseGuidance(patterns []string) map[domain.TaskPhase][]string {
	phases := []domain.TaskPhase{
		domain.PhasePlanning,
		domain.PhaseCoding,
		domain.PhaseTesting,
		domain.PhaseReview,
		domain.PhaseCompleted,
	}
	out := make(map[domain.TaskPhase][]string, len(phases))
	for _, phase := range phases {
		out[phase] = GenerateGuidance(phase, patterns)
	}
	return out
}


