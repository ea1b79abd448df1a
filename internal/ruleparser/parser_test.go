package ruleparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dhafnck/taskforge/internal/domain"
)

func writeTempRule(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp rule: %v", err)
	}
	return path
}

func TestDetectFormatByExtension(t *testing.T) {
	tests := []struct {
		name string
		want domain.RuleFormat
	}{
		{"foo.mdc", domain.FormatMDC},
		{"foo.md", domain.FormatMD},
		{"foo.json", domain.FormatJSON},
		{"foo.yaml", domain.FormatYAML},
		{"foo.yml", domain.FormatYAML},
		{"foo.txt", domain.FormatTXT},
		{"foo", domain.FormatTXT},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectFormat(tc.name); got != tc.want {
				t.Fatalf("detectFormat(%q) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestParseMarkdownSplitsSections(t *testing.T) {
	content := "# Objective\nBuild the thing.\n\n## Requirements\nMust work.\n"
	path := writeTempRule(t, "workflow_rule.md", content)

	p := New()
	rc, warning, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %s", warning)
	}
	if rc.Metadata.Format != domain.FormatMD {
		t.Fatalf("expected MD format, got %v", rc.Metadata.Format)
	}
	if rc.Sections["objective"] != "Build the thing." {
		t.Fatalf("got sections: %#v", rc.Sections)
	}
	if rc.Sections["requirements"] != "Must work." {
		t.Fatalf("got sections: %#v", rc.Sections)
	}
}

func TestParseMarkdownExtractsReferences(t *testing.T) {
	content := "See [the parent](mdc:core/base.mdc) and ask @coding_agent for help."
	path := writeTempRule(t, "rule.mdc", content)

	p := New()
	rc, _, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	foundRef, foundAgent := false, false
	for _, r := range rc.References {
		if r == "mdc:core/base.mdc" {
			foundRef = true
		}
		if r == "coding_agent" {
			foundAgent = true
		}
	}
	if !foundRef || !foundAgent {
		t.Fatalf("got references: %#v", rc.References)
	}
}

func TestParseExtractsVariables(t *testing.T) {
	content := "Hello {{user_name}}, path is ${HOME}, env is @PROJECT_ROOT."
	path := writeTempRule(t, "rule.mdc", content)

	p := New()
	rc, _, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := map[string]bool{"user_name": true, "HOME": true, "PROJECT_ROOT": true}
	got := map[string]bool{}
	for _, v := range rc.Metadata.Variables {
		got[v] = true
	}
	for k := range want {
		if !got[k] {
			t.Fatalf("missing variable %s in %#v", k, rc.Metadata.Variables)
		}
	}
}

func TestParseExtractsDependencies(t *testing.T) {
	content := "[base](mdc:core/base.mdc)\n@import \"shared/common.mdc\"\ndepends_on: [a.mdc, b.mdc]\n"
	path := writeTempRule(t, "rule.mdc", content)

	p := New()
	rc, _, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := map[string]bool{"core/base.mdc": true, "shared/common.mdc": true, "a.mdc": true, "b.mdc": true}
	got := map[string]bool{}
	for _, d := range rc.Metadata.Dependencies {
		got[d] = true
	}
	for k := range want {
		if !got[k] {
			t.Fatalf("missing dependency %s in %#v", k, rc.Metadata.Dependencies)
		}
	}
}

func TestParseInheritFrontmatter(t *testing.T) {
	content := "inherit: core/base.mdc\n# Body\ncontent\n"
	path := writeTempRule(t, "rule.mdc", content)

	p := New()
	rc, _, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if rc.Inherit != "core/base.mdc" {
		t.Fatalf("got inherit: %q", rc.Inherit)
	}
}

func TestParseJSONWalksReferences(t *testing.T) {
	content := `{"parent": "mdc:core/base.mdc", "nested": {"link": "http://example.com"}}`
	path := writeTempRule(t, "rule.json", content)

	p := New()
	rc, warning, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %s", warning)
	}
	if len(rc.References) != 2 {
		t.Fatalf("got references: %#v", rc.References)
	}
}

func TestParseJSONMalformedReturnsWarning(t *testing.T) {
	path := writeTempRule(t, "rule.json", "{not valid json")

	p := New()
	_, warning, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile should not hard-fail on malformed json: %v", err)
	}
	if warning == "" {
		t.Fatalf("expected a warning for malformed json")
	}
}

func TestParseYAMLWalksReferences(t *testing.T) {
	content := "parent: mdc:core/base.mdc\nnested:\n  link: http://example.com\n"
	path := writeTempRule(t, "rule.yaml", content)

	p := New()
	rc, _, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(rc.References) != 2 {
		t.Fatalf("got references: %#v", rc.References)
	}
}

func TestClassifyTypeByPath(t *testing.T) {
	tests := []struct {
		path string
		want domain.RuleType
	}{
		{"rules/core/essentials.mdc", domain.RuleTypeCore},
		{"rules/dev_workflow.mdc", domain.RuleTypeWorkflow},
		{"rules/agents/coding_agent.mdc", domain.RuleTypeAgent},
		{"rules/project/overview.mdc", domain.RuleTypeProject},
		{"rules/context/task_context.mdc", domain.RuleTypeContext},
		{"rules/misc/notes.mdc", domain.RuleTypeCustom},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			if got := classifyType(tc.path, ""); got != tc.want {
				t.Fatalf("classifyType(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestClassifyTypeByContentKeywordFallback(t *testing.T) {
	got := classifyType("rules/misc/notes.mdc", "This describes our core workflow process.")
	if got != domain.RuleTypeCore {
		t.Fatalf("got %v, want core (core keyword checked before workflow)", got)
	}
}

func TestParseTextExtractsURLsAsReferences(t *testing.T) {
	content := "See https://example.com/docs for details."
	path := writeTempRule(t, "notes.txt", content)

	p := New()
	rc, _, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(rc.References) != 1 || rc.References[0] != "https://example.com/docs" {
		t.Fatalf("got references: %#v", rc.References)
	}
}

func TestParseFileSetsChecksumAndSize(t *testing.T) {
	content := "# Title\nbody\n"
	path := writeTempRule(t, "rule.md", content)

	p := New()
	rc, _, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if rc.Metadata.Size != len(content) {
		t.Fatalf("got size %d, want %d", rc.Metadata.Size, len(content))
	}
	if rc.Metadata.Checksum == "" {
		t.Fatalf("expected non-empty checksum")
	}
}


