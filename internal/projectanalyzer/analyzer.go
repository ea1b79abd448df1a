package projectanalyzer

import (
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
)

// Analyzer produces a domain.ProjectSnapshot for a project root, combining
// structure scanning, pattern detection, and dependency extraction in one
// facade call, matching the original's ProjectAnalyzer entry point.
type Analyzer struct {
	now func() time.Time
}

func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

func (a *Analyzer) Analyze(root string) *domain.ProjectSnapshot {
	structure, fileCount := AnalyzeStructure(root)
	languages, frameworks, patterns := DetectPatterns(root)
	manifests := DetectManifests(root)
	deps := ExtractDependencies(root)
	_ = structure

	return &domain.ProjectSnapshot{
		RootPath:      root,
		Languages:     languages,
		Frameworks:    frameworks,
		ManifestFiles: manifests,
		Dependencies:  deps,
		FileCount:     fileCount,
		Guidance:      GenerateAllPhaseGuidance(patterns),
		AnalyzedAt:    a.now(),
	}
}

// Tree renders the project's directory structure using FormatTree, for
// callers that want the raw tree text alongside the snapshot.
func (a *Analyzer) Tree(root string) string {
	structure, _ := AnalyzeStructure(root)
	return FormatTree(structure, "")
}


