package rulecompose

import (
	"strings"
	"testing"

	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/ruleinherit"
)

func TestPriorityScoreRanksContextBetweenAgentAndCustom(t *testing.T) {
	if priorityScore(domain.RuleTypeAgent) >= priorityScore(domain.RuleTypeContext) {
		t.Fatalf("expected agent to sort before context")
	}
	if priorityScore(domain.RuleTypeContext) >= priorityScore(domain.RuleTypeCustom) {
		t.Fatalf("expected context to sort before custom")
	}
}

func TestSortByPriorityOrdersByTypeThenSizeThenPath(t *testing.T) {
	rules := []*domain.RuleContent{
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCustom, Path: "z.mdc", Size: 10}},
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCore, Path: "b.mdc", Size: 5}},
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCore, Path: "a.mdc", Size: 20}},
	}
	sorted := sortByPriority(rules)
	if sorted[0].Metadata.Path != "a.mdc" {
		t.Fatalf("expected a.mdc first (core, larger size), got %s", sorted[0].Metadata.Path)
	}
	if sorted[1].Metadata.Path != "b.mdc" {
		t.Fatalf("expected b.mdc second (core, smaller size), got %s", sorted[1].Metadata.Path)
	}
	if sorted[2].Metadata.Path != "z.mdc" {
		t.Fatalf("expected z.mdc last (custom), got %s", sorted[2].Metadata.Path)
	}
}

func TestComposeManyRejectsEmptySet(t *testing.T) {
	c := New()
	_, err := c.ComposeMany(nil, domain.StrategyIntelligent)
	if err == nil {
		t.Fatalf("expected error for empty rule set")
	}
}

func TestComposeManySequentialConcatenatesInOrder(t *testing.T) {
	rules := []*domain.RuleContent{
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCore, Path: "a.mdc"}, Raw: "alpha"},
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCustom, Path: "b.mdc"}, Raw: "beta"},
	}
	c := New()
	result, err := c.ComposeMany(rules, domain.StrategySequential)
	if err != nil {
		t.Fatalf("ComposeMany: %v", err)
	}
	if !strings.Contains(result.Content, "alpha") || !strings.Contains(result.Content, "beta") {
		t.Fatalf("got content: %s", result.Content)
	}
	if strings.Index(result.Content, "alpha") > strings.Index(result.Content, "beta") {
		t.Fatalf("expected alpha before beta in sequential output")
	}
}

func TestComposeManyPriorityMergeKeepsFirstWriterSection(t *testing.T) {
	rules := []*domain.RuleContent{
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCore, Path: "a.mdc"}, Sections: map[string]string{"objective": "from a"}},
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCustom, Path: "b.mdc"}, Sections: map[string]string{"objective": "from b"}},
	}
	c := New()
	result, err := c.ComposeMany(rules, domain.StrategyPriorityMerge)
	if err != nil {
		t.Fatalf("ComposeMany: %v", err)
	}
	if !strings.Contains(result.Content, "from a") {
		t.Fatalf("expected highest priority rule's section to win, got: %s", result.Content)
	}
	if strings.Contains(result.Content, "from b") {
		t.Fatalf("lower priority section should have been discarded, got: %s", result.Content)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected one recorded conflict, got %v", result.Conflicts)
	}
}

func TestComposeManyIntelligentAppendsDifferingSections(t *testing.T) {
	rules := []*domain.RuleContent{
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCore, Path: "a.mdc"}, Sections: map[string]string{"notes": "from a"}},
		{Metadata: domain.RuleMetadata{Type: domain.RuleTypeCustom, Path: "b.mdc"}, Sections: map[string]string{"notes": "from b"}},
	}
	c := New()
	result, err := c.ComposeMany(rules, domain.StrategyIntelligent)
	if err != nil {
		t.Fatalf("ComposeMany: %v", err)
	}
	if !strings.Contains(result.Content, "from a") || !strings.Contains(result.Content, "from b") {
		t.Fatalf("expected both contributions appended, got: %s", result.Content)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected one recorded conflict, got %v", result.Conflicts)
	}
}

func TestComposeInheritanceInheritsMissingSectionsFromParent(t *testing.T) {
	rules := map[string]*domain.RuleContent{
		"base.mdc": {
			Metadata: domain.RuleMetadata{Path: "base.mdc", Type: domain.RuleTypeCore, Format: domain.FormatMDC},
			Sections: map[string]string{"objective": "base objective", "requirements": "base requirements", "technical": "base technical", "notes": "base notes"},
		},
		"feature/child.mdc": {
			Metadata: domain.RuleMetadata{Path: "feature/child.mdc", Type: domain.RuleTypeCore, Format: domain.FormatMDC},
			// Overlaps 3 of 4 parent sections (75% > 70% threshold) -> CONTENT
			// inheritance, so the missing "notes" section is pulled from base.
			Sections: map[string]string{"objective": "child objective", "requirements": "child requirements", "technical": "child technical"},
		},
	}
	resolver := ruleinherit.New(nil)
	analysis := resolver.Analyze(rules)

	c := New()
	result, err := c.ComposeInheritance("feature/child.mdc", rules, analysis)
	if err != nil {
		t.Fatalf("ComposeInheritance: %v", err)
	}
	if !strings.Contains(result.Content, "child objective") {
		t.Fatalf("expected child override present, got: %s", result.Content)
	}
	if !strings.Contains(result.Content, "base notes") {
		t.Fatalf("expected inherited section present, got: %s", result.Content)
	}
	if strings.Contains(result.Content, "base requirements") {
		t.Fatalf("expected overridden section replaced by child, got: %s", result.Content)
	}
}

func TestComposeInheritanceNoParentReturnsRawContent(t *testing.T) {
	rules := map[string]*domain.RuleContent{
		"only.mdc": {Metadata: domain.RuleMetadata{Path: "only.mdc"}, Raw: "standalone content"},
	}
	resolver := ruleinherit.New(nil)
	analysis := resolver.Analyze(rules)

	c := New()
	result, err := c.ComposeInheritance("only.mdc", rules, analysis)
	if err != nil {
		t.Fatalf("ComposeInheritance: %v", err)
	}
	if result.Content != "standalone content" {
		t.Fatalf("got %q", result.Content)
	}
}

func TestComposeInheritanceUnknownTargetIsNotFound(t *testing.T) {
	c := New()
	_, err := c.ComposeInheritance("missing.mdc", map[string]*domain.RuleContent{}, &ruleinherit.AnalysisResult{Inheritance: map[string]*domain.RuleInheritance{}})
	if err == nil {
		t.Fatalf("expected not-found error")
	}
	if kind, ok := domain.KindOf(err); !ok || kind != domain.ErrNotFound {
		t.Fatalf("got kind %v ok=%v", kind, ok)
	}
}


