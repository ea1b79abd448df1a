// Package autorule generates the auto_rule.mdc artifact that downstream AI
// assistants read as their prompt: a simple per-task summary by default, or
// a full role-pack-and-project-aware rendering when forced.
package autorule

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dhafnck/taskforge/internal/domain"
)

// legacyDirectories maps the historical short role names used across tasks
// (senior_developer, qa_engineer, ...) to the agent-library directory that
// actually carries their YAML pack.
var legacyDirectories = map[string]string{
	"qa_engineer":        "functional_tester_agent",
	"senior_developer":   "coding_agent",
	"task_planner":       "task_planning_agent",
	"code_reviewer":      "code_reviewer_agent",
	"cache_engineer":     "efficiency_optimization_agent",
	"context_engineer":   "core_concept_agent",
	"devops_engineer":    "devops_agent",
	"security_engineer":  "security_auditor_agent",
	"technical_writer":   "documentation_agent",
	"platform_engineer":  "devops_agent",
	"metrics_engineer":   "analytics_setup_agent",
	"cli_engineer":       "coding_agent",
}

var mockRoles = map[string]domain.AgentRole{
	"senior_developer": {
		Name:         "Senior Developer",
		Persona:      "Expert Senior Developer focused on clean, maintainable, and efficient code",
		PrimaryFocus: "Implementation of features, code quality, and technical excellence",
		Rules: []string{
			"Write clean, readable, and well-documented code",
			"Follow established coding standards and conventions",
			"Implement proper error handling and input validation",
		},
		OutputFormat: "Complete implementation with documentation and usage examples",
	},
	"task_planner": {
		Name:         "Task Planner",
		Persona:      "Strategic Task Planner focused on project organization and planning",
		PrimaryFocus: "Task breakdown, planning, and project organization",
		Rules: []string{
			"Break down complex tasks into manageable subtasks",
			"Prioritize tasks based on dependencies and importance",
			"Plan for testing and validation at each step",
		},
		OutputFormat: "Structured task breakdown with dependencies",
	},
	"qa_engineer": {
		Name:         "QA Engineer",
		Persona:      "Quality Assurance Engineer focused on testing and validation",
		PrimaryFocus: "Testing, quality assurance, and validation",
		Rules: []string{
			"Create comprehensive test cases for all functionality",
			"Validate both positive and negative test scenarios",
			"Document test results and findings clearly",
		},
		OutputFormat: "Test plan and results with coverage notes",
	},
	"code_reviewer": {
		Name:         "Code Reviewer",
		Persona:      "Code Reviewer focused on code quality and best practices",
		PrimaryFocus: "Code review, quality assurance, and best practices",
		Rules: []string{
			"Review code for adherence to coding standards",
			"Check for potential security vulnerabilities",
			"Suggest improvements for maintainability",
		},
		OutputFormat: "Review comments grouped by severity",
	},
}

// RoleLoader loads AgentRole packs from an agent-library directory.
type RoleLoader struct {
	libDir string
}

// NewRoleLoader returns a loader rooted at libDir (e.g. <project>/agent-library).
func NewRoleLoader(libDir string) *RoleLoader {
	return &RoleLoader{libDir: libDir}
}

// resolveDirectory maps a legacy assignee name to its agent-library directory,
// falling back to the name itself when no mapping exists.
func resolveDirectory(name string) string {
	name = strings.TrimPrefix(name, "@")
	if dir, ok := legacyDirectories[name]; ok {
		return dir
	}
	return name
}

// Load loads a single role by assignee name. If the library directory does
// not exist, or the role has no job_desc file, it falls back to a built-in
// mock role (senior_developer by default) so generation never hard-fails.
func (l *RoleLoader) Load(assignee string) domain.AgentRole {
	name := strings.TrimPrefix(assignee, "@")
	if name == "" {
		name = "senior_developer"
	}

	if _, err := os.Stat(l.libDir); err != nil {
		return fallbackRole(name)
	}

	dir := filepath.Join(l.libDir, resolveDirectory(name))
	if _, err := os.Stat(dir); err != nil {
		dir = filepath.Join(l.libDir, name)
		if _, err := os.Stat(dir); err != nil {
			return fallbackRole(name)
		}
	}

	role, ok := l.loadFromDirectory(dir, name)
	if !ok {
		return fallbackRole(name)
	}
	return role
}

func fallbackRole(name string) domain.AgentRole {
	if role, ok := mockRoles[name]; ok {
		return role
	}
	return mockRoles["senior_developer"]
}

func (l *RoleLoader) loadFromDirectory(dir, fallbackName string) (domain.AgentRole, bool) {
	jobDesc, ok := readJobDesc(dir)
	if !ok {
		return domain.AgentRole{}, false
	}

	role := domain.AgentRole{
		Name:         stringField(jobDesc, "name", titleCase(fallbackName)),
		Persona:      stringField(jobDesc, "persona", "Expert "+titleCase(fallbackName)),
		PersonaIcon:  stringField(jobDesc, "persona_icon", ""),
		PrimaryFocus: stringField(jobDesc, "primary_focus", stringField(jobDesc, "description", titleCase(fallbackName)+" specialist")),
	}
	role.Rules = loadGuidanceDir(filepath.Join(dir, "rules"))
	role.ContextInstructions = loadGuidanceDir(filepath.Join(dir, "contexts"))
	role.ToolsGuidance = loadGuidanceDir(filepath.Join(dir, "tools"))
	role.OutputFormat = loadOutputFormat(filepath.Join(dir, "output_format"))
	return role, true
}

// readJobDesc reads job_desc.yaml, falling back to job_desc.toml when the
// YAML file is absent.
func readJobDesc(dir string) (map[string]any, bool) {
	yamlPath := filepath.Join(dir, "job_desc.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		var parsed map[string]any
		if err := yaml.Unmarshal(data, &parsed); err == nil {
			return parsed, true
		}
	}

	tomlPath := filepath.Join(dir, "job_desc.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		var parsed map[string]any
		if _, err := toml.DecodeFile(tomlPath, &parsed); err == nil {
			return parsed, true
		}
	}
	return nil, false
}

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// loadGuidanceDir reads every *.yaml file under dir and flattens any
// "rules"/"items"/"instructions"/"guidance" list (or bare list/string) into
// a single ordered slice of guidance strings.
func loadGuidanceDir(dir string) []string {
	var out []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		out = append(out, extractGuidance(data)...)
	}
	return out
}

// extractGuidance pulls a flat list of guidance strings out of one YAML
// document, regardless of whether it wraps them in "rules", "items",
// "instructions", "guidance", a bare list, or a bare string.
func extractGuidance(data []byte) []string {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		return stringsFromAny(v)
	case map[string]any:
		for _, key := range []string{"rules", "items", "instructions", "guidance"} {
			if val, ok := v[key]; ok {
				switch vv := val.(type) {
				case []any:
					return stringsFromAny(vv)
				case string:
					return []string{vv}
				}
			}
		}
		// Fallback: take every plain string or list value, skipping metadata keys.
		var out []string
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "name" || k == "description" || k == "category" {
				continue
			}
			switch vv := v[k].(type) {
			case string:
				out = append(out, vv)
			case []any:
				out = append(out, stringsFromAny(vv)...)
			}
		}
		return out
	}
	return nil
}

func stringsFromAny(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func loadOutputFormat(dir string) string {
	const fallback = "Structured output with clear documentation"
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fallback
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return fallback
	}
	sort.Strings(names)

	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		return fallback
	}
	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fallback
	}
	for _, key := range []string{"format", "description", "output_format"} {
		if s := stringField(parsed, key, ""); s != "" {
			return s
		}
	}
	return fallback
}

func titleCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}


