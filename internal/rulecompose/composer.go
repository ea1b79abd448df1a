// Package rulecompose merges rule hierarchies and explicit rule sets into a
// single composed document, per spec.md's sequential / priority_merge /
// intelligent strategies.
package rulecompose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/ruleinherit"
)

// Composer merges RuleContent values into a domain.CompositionResult.
type Composer struct{}

// New returns a Composer.
func New() *Composer { return &Composer{} }

var priorityOrder = []domain.RuleType{
	domain.RuleTypeCore, domain.RuleTypeWorkflow, domain.RuleTypeProject,
	domain.RuleTypeAgent, domain.RuleTypeContext, domain.RuleTypeCustom,
}

func priorityScore(t domain.RuleType) int {
	for i, pt := range priorityOrder {
		if pt == t {
			return i
		}
	}
	return len(priorityOrder)
}

// sortByPriority orders rules by type priority, then descending size, then
// path, matching spec.md §4.8's deterministic tie-break.
func sortByPriority(rules []*domain.RuleContent) []*domain.RuleContent {
	sorted := make([]*domain.RuleContent, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		pa, pb := priorityScore(a.Metadata.Type), priorityScore(b.Metadata.Type)
		if pa != pb {
			return pa < pb
		}
		if a.Metadata.Size != b.Metadata.Size {
			return a.Metadata.Size > b.Metadata.Size
		}
		return a.Metadata.Path < b.Metadata.Path
	})
	return sorted
}

// ComposeInheritance walks targetPath's inheritance chain from root parent
// down to target, inheriting sections missing in each child and recording
// overrides as resolved conflicts. Only sections are composed; rule
// variables are not merged.
func (c *Composer) ComposeInheritance(targetPath string, rules map[string]*domain.RuleContent, analysis *ruleinherit.AnalysisResult) (*domain.CompositionResult, error) {
	target, ok := rules[targetPath]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "rule not found: %s", targetPath)
	}

	chain := buildChain(targetPath, analysis)
	if len(chain) == 0 {
		return &domain.CompositionResult{
			Content:  target.Raw,
			Sources:  []string{targetPath},
			Strategy: StrategyInheritance,
		}, nil
	}

	composedSections := map[string]string{}
	var conflicts []domain.RuleConflict
	var sources []string

	for i := len(chain) - 1; i >= 0; i-- {
		edge := chain[i]
		parent, ok := rules[edge.ParentPath]
		if !ok {
			continue
		}
		sources = append(sources, edge.ParentPath)

		if edge.Type == domain.InheritanceFull || edge.Type == domain.InheritanceContent {
			for name, content := range parent.Sections {
				if _, exists := composedSections[name]; !exists {
					composedSections[name] = content
				}
			}
		}

		child, ok := rules[edge.ChildPath]
		if !ok {
			continue
		}
		for name, content := range child.Sections {
			if existing, exists := composedSections[name]; exists && existing != content {
				conflicts = append(conflicts, domain.RuleConflict{
					Section:    name,
					Paths:      []string{edge.ParentPath, edge.ChildPath},
					Resolution: domain.ConflictOverride,
				})
			}
			composedSections[name] = content
		}
	}

	sources = append(sources, targetPath)
	for name, content := range target.Sections {
		composedSections[name] = content
	}

	content := renderSections(composedSections, target.Metadata.Format)
	return &domain.CompositionResult{
		Content:   content,
		Sources:   dedupeStrings(sources),
		Strategy:  StrategyInheritance,
		Conflicts: conflicts,
	}, nil
}

// StrategyInheritance marks a composition produced by ComposeInheritance
// rather than one of the three N-way strategies in domain.CompositionStrategy.
const StrategyInheritance domain.CompositionStrategy = "inheritance"

func buildChain(path string, analysis *ruleinherit.AnalysisResult) []*domain.RuleInheritance {
	var chain []*domain.RuleInheritance
	visited := map[string]bool{}
	current := path
	for current != "" && !visited[current] {
		visited[current] = true
		edge, ok := analysis.Inheritance[current]
		if !ok {
			break
		}
		chain = append(chain, edge)
		current = edge.ParentPath
	}
	return chain
}

// ComposeMany composes N explicit rules per the given strategy
// (sequential/priority_merge/intelligent), returning a single
// CompositionResult.
func (c *Composer) ComposeMany(rules []*domain.RuleContent, strategy domain.CompositionStrategy) (*domain.CompositionResult, error) {
	if len(rules) == 0 {
		return nil, domain.NewError(domain.ErrValidation, "no rules provided for composition")
	}
	sorted := sortByPriority(rules)

	var content string
	var conflicts []domain.RuleConflict

	switch strategy {
	case domain.StrategySequential:
		content = sequentialComposition(sorted)
	case domain.StrategyPriorityMerge:
		content, conflicts = priorityMergeComposition(sorted)
	default:
		content, conflicts = intelligentComposition(sorted)
		strategy = domain.StrategyIntelligent
	}

	sources := make([]string, len(sorted))
	for i, r := range sorted {
		sources[i] = r.Metadata.Path
	}

	return &domain.CompositionResult{
		Content:   content,
		Sources:   sources,
		Strategy:  strategy,
		Conflicts: conflicts,
	}, nil
}

func sequentialComposition(rules []*domain.RuleContent) string {
	var parts []string
	for i, r := range rules {
		parts = append(parts, fmt.Sprintf("<!-- === Rule %d: %s === -->", i+1, r.Metadata.Path))
		parts = append(parts, r.Raw)
		parts = append(parts, "")
	}
	return strings.TrimRight(strings.Join(parts, "\n"), "\n")
}

// priorityMergeComposition keeps the first (highest-priority) rule's
// sections, adding only sections absent from rules seen so
// far; later duplicates are discarded and recorded as conflicts.
func priorityMergeComposition(rules []*domain.RuleContent) (string, []domain.RuleConflict) {
	base := rules[0]
	composed := map[string]string{}
	for name, content := range base.Sections {
		composed[name] = content
	}
	var conflicts []domain.RuleConflict

	for _, r := range rules[1:] {
		for name, content := range r.Sections {
			if _, exists := composed[name]; !exists {
				composed[name] = content
			} else {
				conflicts = append(conflicts, domain.RuleConflict{
					Section:    name,
					Paths:      []string{base.Metadata.Path, r.Metadata.Path},
					Resolution: domain.ConflictManual,
				})
			}
		}
	}
	return renderSections(composed, base.Metadata.Format), conflicts
}

// intelligentComposition merges sections across all rules: first writer
// wins the slot, later writers with differing content are appended with
// source attribution, matching the default APPEND merge strategy for
// sections in the original composer's policy table.
func intelligentComposition(rules []*domain.RuleContent) (string, []domain.RuleConflict) {
	composed := map[string]string{}
	var conflicts []domain.RuleConflict

	for _, r := range rules {
		for name, content := range r.Sections {
			existing, exists := composed[name]
			if !exists {
				composed[name] = content
				continue
			}
			if existing == content {
				continue
			}
			composed[name] = existing + "\n\n<!-- From " + r.Metadata.Path + " -->\n" + content
			conflicts = append(conflicts, domain.RuleConflict{
				Section:    name,
				Paths:      []string{r.Metadata.Path},
				Resolution: domain.ConflictAppend,
			})
		}
	}
	format := domain.FormatMDC
	if len(rules) > 0 {
		format = rules[0].Metadata.Format
	}
	return renderSections(composed, format), conflicts
}

func renderSections(sections map[string]string, format domain.RuleFormat) string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	switch format {
	case domain.FormatJSON:
		var b strings.Builder
		b.WriteString("{\n")
		for i, name := range names {
			fmt.Fprintf(&b, "  %q: %q", name, sections[name])
			if i < len(names)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString("}")
		return b.String()
	default:
		var parts []string
		for _, name := range names {
			if name != "content" {
				parts = append(parts, "# "+titleCase(name))
			}
			parts = append(parts, sections[name])
			parts = append(parts, "")
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}
}

func titleCase(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func dedupeStrings(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, i := range items {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}


