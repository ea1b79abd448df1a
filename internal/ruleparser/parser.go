// Package ruleparser detects rule-file format (MDC/MD/JSON/YAML/TXT) and
// extracts sections, references, variables, and dependencies from rule
// content.
package ruleparser

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dhafnck/taskforge/internal/domain"
)

// Parser parses rule files into domain.RuleContent records.
type Parser struct{}

// New returns a Parser.
func New() *Parser { return &Parser{} }

// detectFormat maps a file extension to a RuleFormat, defaulting to TXT.
func detectFormat(path string) domain.RuleFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mdc":
		return domain.FormatMDC
	case ".md":
		return domain.FormatMD
	case ".json":
		return domain.FormatJSON
	case ".yaml", ".yml":
		return domain.FormatYAML
	default:
		return domain.FormatTXT
	}
}

var depPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[[^\]]+\]\(mdc:([^)]+)\)`),
	regexp.MustCompile(`@import\s+"([^"]+)"`),
	regexp.MustCompile(`include:\s*([^\n]+)`),
}

var dependsOnPattern = regexp.MustCompile(`depends_on:\s*\[([^\]]+)\]`)

func extractDependencies(content string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, p := range depPatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			add(m[1])
		}
	}
	for _, m := range dependsOnPattern.FindAllStringSubmatch(content, -1) {
		for _, item := range strings.Split(m[1], ",") {
			add(strings.Trim(item, ` "'`))
		}
	}
	return out
}

// ParseFile reads path and parses it into a RuleContent, per the format
// detected from its extension. Malformed JSON/YAML yields an empty
// structure plus a warning rather than aborting — callers should log the
// returned warning and keep processing other rules.
func (p *Parser) ParseFile(path string) (*domain.RuleContent, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrIOFailure, err, "read rule file %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrIOFailure, err, "stat rule file %s", path)
	}
	content := string(data)
	format := detectFormat(path)

	var sections map[string]string
	var references []string
	var warning string

	switch format {
	case domain.FormatJSON:
		sections, references, warning = parseStructured(content, json.Unmarshal)
	case domain.FormatYAML:
		sections, references, warning = parseStructured(content, yaml.Unmarshal)
	case domain.FormatTXT:
		sections, references = parseText(content)
	default: // MDC, MD
		sections, references = parseMarkdown(content)
	}

	inherit := extractInherit(content)
	ruleType := classifyType(path, content)
	sum := sha256.Sum256(data)

	rc := &domain.RuleContent{
		Metadata: domain.RuleMetadata{
			Path: path, Format: format, Type: ruleType, Size: len(data),
			Checksum: hex.EncodeToString(sum[:]), ModifiedAt: info.ModTime(),
			Dependencies: extractDependencies(content), Variables: variableNames(extractVariables(content)),
		},
		Raw:        content,
		Sections:   sections,
		References: references,
		Inherit:    inherit,
	}
	return rc, warning, nil
}

func variableNames(vars map[string]string) []string {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	return names
}

var inheritPattern = regexp.MustCompile(`(?m)^inherit:\s*(\S+)\s*$`)

func extractInherit(content string) string {
	m := inheritPattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], `"'`)
}

var (
	headerPattern    = regexp.MustCompile(`^#+\s*(.*)$`)
	mdLinkPattern    = regexp.MustCompile(`\[[^\]]+\]\(([^)]+)\)`)
	agentRefPattern  = regexp.MustCompile(`@([a-zA-Z_-]+)`)
	handlebarsVarPat = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	shellVarPattern  = regexp.MustCompile(`\$\{([^}]+)\}`)
	envVarPattern    = regexp.MustCompile(`@([A-Z_]+)\b`)
	urlPattern       = regexp.MustCompile(`https?://[^\s]+`)
)

func parseMarkdown(content string) (map[string]string, []string) {
	sections := map[string]string{}
	lines := strings.Split(content, "\n")
	currentName := "content"
	var buf []string

	flush := func() {
		if len(buf) > 0 {
			sections[currentName] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
	}
	for _, line := range lines {
		if headerPattern.MatchString(line) {
			flush()
			name := strings.ToLower(strings.Trim(strings.TrimLeft(line, "# "), " "))
			name = strings.ReplaceAll(name, " ", "_")
			if name == "" {
				name = "content"
			}
			currentName = name
			buf = nil
		} else {
			buf = append(buf, line)
		}
	}
	flush()

	var refs []string
	for _, m := range mdLinkPattern.FindAllStringSubmatch(content, -1) {
		refs = append(refs, m[1])
	}
	for _, m := range agentRefPattern.FindAllStringSubmatch(content, -1) {
		refs = append(refs, m[1])
	}
	return sections, refs
}

func extractVariables(content string) map[string]string {
	vars := map[string]string{}
	for _, p := range []*regexp.Regexp{handlebarsVarPat, shellVarPattern, envVarPattern} {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			vars[m[1]] = "${" + m[1] + "}"
		}
	}
	return vars
}

func parseText(content string) (map[string]string, []string) {
	sections := map[string]string{"content": content}
	refs := urlPattern.FindAllString(content, -1)
	return sections, refs
}

type unmarshalFunc func([]byte, any) error

func parseStructured(content string, unmarshal unmarshalFunc) (map[string]string, []string, string) {
	var data any
	if err := unmarshal([]byte(content), &data); err != nil {
		return map[string]string{}, nil, "malformed content: " + err.Error()
	}
	var refs []string
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			for _, val := range t {
				if s, ok := val.(string); ok && (strings.Contains(s, "mdc:") || strings.Contains(s, "http")) {
					refs = append(refs, s)
				}
				walk(val)
			}
		case []any:
			for _, item := range t {
				walk(item)
			}
		}
	}
	walk(data)
	return map[string]string{}, refs, ""
}

// classifyType classifies rule type from pathname first, then content
// keyword fallback, per spec.md §4.6.
func classifyType(path, content string) domain.RuleType {
	lowerPath := strings.ToLower(path)
	switch {
	case strings.Contains(lowerPath, "core") || strings.Contains(lowerPath, "essential"):
		return domain.RuleTypeCore
	case strings.Contains(lowerPath, "workflow"):
		return domain.RuleTypeWorkflow
	case strings.Contains(lowerPath, "agent"):
		return domain.RuleTypeAgent
	case strings.Contains(lowerPath, "project"):
		return domain.RuleTypeProject
	case strings.Contains(lowerPath, "context"):
		return domain.RuleTypeContext
	}

	lowerContent := strings.ToLower(content)
	switch {
	case containsAny(lowerContent, "core", "essential", "critical"):
		return domain.RuleTypeCore
	case containsAny(lowerContent, "workflow", "development", "process"):
		return domain.RuleTypeWorkflow
	case containsAny(lowerContent, "agent", "@agent", "role"):
		return domain.RuleTypeAgent
	case containsAny(lowerContent, "context", "working context", "task context"):
		return domain.RuleTypeContext
	}
	return domain.RuleTypeCustom
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}


