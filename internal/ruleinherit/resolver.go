// Package ruleinherit loads a directory of rule files into a hierarchy and
// resolves parent/child inheritance edges between them.
package ruleinherit

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/ruleparser"
)

var ruleExtensions = map[string]bool{".mdc": true, ".md": true, ".json": true, ".yaml": true, ".yml": true, ".txt": true}

func isRuleFile(path string) bool {
	return ruleExtensions[strings.ToLower(filepath.Ext(path))]
}

// Resolver loads a rule hierarchy and analyzes inheritance relationships.
type Resolver struct {
	parser *ruleparser.Parser
}

// New returns a Resolver.
func New(parser *ruleparser.Parser) *Resolver {
	if parser == nil {
		parser = ruleparser.New()
	}
	return &Resolver{parser: parser}
}

// LoadWarning pairs a skipped rule file with why it was skipped, so callers
// can log it without aborting the whole hierarchy load.
type LoadWarning struct {
	Path    string
	Message string
}

// LoadHierarchy recursively loads every rule file under root, keyed by path
// relative to root. Unreadable files are skipped and reported as warnings
// rather than aborting the whole load.
func (r *Resolver) LoadHierarchy(root string) (map[string]*domain.RuleContent, []LoadWarning, error) {
	rules := map[string]*domain.RuleContent{}
	var warnings []LoadWarning

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			warnings = append(warnings, LoadWarning{Path: path, Message: walkErr.Error()})
			return nil
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isRuleFile(path) {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		rc, parseWarning, parseErr := r.parser.ParseFile(path)
		if parseErr != nil {
			warnings = append(warnings, LoadWarning{Path: rel, Message: parseErr.Error()})
			return nil
		}
		if parseWarning != "" {
			warnings = append(warnings, LoadWarning{Path: rel, Message: parseWarning})
		}
		rc.Metadata.Path = rel
		rules[rel] = rc
		return nil
	})
	if err != nil {
		return nil, warnings, domain.WrapError(domain.ErrIOFailure, err, "walk rule hierarchy %s", root)
	}
	return rules, warnings, nil
}

var parentCandidates = []string{"index.mdc", "base.mdc", "parent.mdc", "_base.mdc"}

// findParent walks the child's directory path upward, probing each level
// for the standard parent file names, then the root-level variants.
func findParent(childPath string, rules map[string]*domain.RuleContent) (string, bool) {
	parts := strings.Split(childPath, "/")
	for i := len(parts) - 1; i > 0; i-- {
		dir := strings.Join(parts[:i], "/")
		for _, name := range parentCandidates {
			candidate := dir + "/" + name
			if candidate == childPath {
				continue
			}
			if _, ok := rules[candidate]; ok {
				return candidate, true
			}
		}
	}
	for _, name := range parentCandidates {
		if name == childPath {
			continue
		}
		if _, ok := rules[name]; ok {
			return name, true
		}
	}
	return "", false
}

func sectionSet(rc *domain.RuleContent) map[string]bool {
	set := make(map[string]bool, len(rc.Sections))
	for name := range rc.Sections {
		set[name] = true
	}
	return set
}

func intersect(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if b[k] {
			out = append(out, k)
		}
	}
	return out
}

func difference(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	return out
}

// classifyInheritance implements spec.md's classification: an explicit
// `inherit:` variable wins outright; otherwise overlap between parent and
// child sections decides full/content/selective/metadata.
func classifyInheritance(parent, child *domain.RuleContent) domain.InheritanceType {
	if child.Inherit != "" {
		switch strings.ToLower(child.Inherit) {
		case "full":
			return domain.InheritanceFull
		case "content":
			return domain.InheritanceContent
		case "metadata":
			return domain.InheritanceMetadata
		case "variables":
			return domain.InheritanceVariables
		case "selective":
			return domain.InheritanceSelective
		}
	}

	parentSections := sectionSet(parent)
	childSections := sectionSet(child)
	common := intersect(parentSections, childSections)

	switch {
	case len(parentSections) > 0 && len(common) == len(parentSections):
		return domain.InheritanceFull
	case len(parentSections) > 0 && len(common)*10 >= len(parentSections)*7:
		return domain.InheritanceContent
	case len(common) > 0:
		return domain.InheritanceSelective
	default:
		return domain.InheritanceMetadata
	}
}

func detectConflicts(parent, child *domain.RuleContent) []string {
	var conflicts []string
	if parent.Metadata.Type != child.Metadata.Type {
		conflicts = append(conflicts, "type mismatch: parent="+string(parent.Metadata.Type)+" child="+string(child.Metadata.Type))
	}
	return conflicts
}

// AnalysisResult is the outcome of Analyze: resolved inheritance edges
// keyed by child path, plus the reference graph parsed rules carried.
type AnalysisResult struct {
	Inheritance     map[string]*domain.RuleInheritance
	DependencyGraph map[string][]string
}

// Analyze resolves parent-of relationships for every rule, classifies each
// edge's inheritance type, and computes inheritance depth via a cycle-safe
// upward walk. A cycle in the parent chain is reported as a conflict on the
// offending edge rather than looping forever.
func (r *Resolver) Analyze(rules map[string]*domain.RuleContent) *AnalysisResult {
	result := &AnalysisResult{
		Inheritance:     map[string]*domain.RuleInheritance{},
		DependencyGraph: map[string][]string{},
	}

	for path, rc := range rules {
		result.DependencyGraph[path] = rc.References
	}

	for childPath, child := range rules {
		parentPath, ok := findParent(childPath, rules)
		if !ok {
			continue
		}
		parent := rules[parentPath]

		inheritType := classifyInheritance(parent, child)
		parentSections := sectionSet(parent)
		childSections := sectionSet(child)

		depth, cyclic := inheritanceDepth(childPath, rules)
		conflicts := detectConflicts(parent, child)
		if cyclic {
			conflicts = append(conflicts, "circular inheritance detected")
		}

		result.Inheritance[childPath] = &domain.RuleInheritance{
			ChildPath:          childPath,
			ParentPath:         parentPath,
			Type:               inheritType,
			InheritedSections:  difference(parentSections, childSections),
			OverriddenSections: intersect(parentSections, childSections),
			MergedVariables:    mergeVariables(parent, child),
			Depth:              depth,
			Conflicts:          conflicts,
		}
	}
	return result
}

func mergeVariables(parent, child *domain.RuleContent) map[string]string {
	merged := map[string]string{}
	for _, v := range parent.Metadata.Variables {
		merged[v] = "inherited"
	}
	for _, v := range child.Metadata.Variables {
		merged[v] = "own"
	}
	return merged
}

// inheritanceDepth walks the parent chain from path, counting hops until no
// parent is found. A `visiting` set guards against cycles: revisiting a path
// stops the walk and reports cyclic=true instead of looping forever, per
// spec.md §4.7.
func inheritanceDepth(path string, rules map[string]*domain.RuleContent) (depth int, cyclic bool) {
	visiting := map[string]bool{}
	current := path
	for current != "" {
		if visiting[current] {
			return depth, true
		}
		visiting[current] = true
		parent, ok := findParent(current, rules)
		if !ok {
			break
		}
		depth++
		current = parent
	}
	return depth, false
}


