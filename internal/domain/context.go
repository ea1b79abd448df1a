package domain

import (
	"strconv"
	"strings"
	"time"
)

// ContextRecord is the structured working context attached to a task,
// keyed independently by ContextID. Its sections mirror the original
// task_management context entity: metadata/objective/requirements/
// technical/dependencies/progress/subtasks/notes/custom.
type ContextRecord struct {
	ID           ContextID              `json:"id"`
	TaskID       TaskID                 `json:"task_id"`
	Metadata     map[string]any         `json:"metadata,omitempty"`
	Objective    map[string]any         `json:"objective,omitempty"`
	Requirements map[string]any         `json:"requirements,omitempty"`
	Technical    map[string]any         `json:"technical,omitempty"`
	Dependencies map[string]any         `json:"dependencies,omitempty"`
	Progress     []ProgressEntry        `json:"progress,omitempty"`
	Subtasks     map[string]any         `json:"subtasks,omitempty"`
	Notes        []NoteEntry            `json:"notes,omitempty"`
	Custom       map[string]any         `json:"custom,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ProgressEntry is one append-only progress log line.
type ProgressEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// NoteEntry is one append-only insight/note log line, optionally tagged by
// category (e.g. "insight", "challenge", "solution", "decision").
type NoteEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category,omitempty"`
	Text      string    `json:"text"`
}

// sectionNames lists the nine fixed top-level sections, used to validate
// dot-paths and to drive generic get/set below.
var sectionNames = map[string]bool{
	"metadata": true, "objective": true, "requirements": true,
	"technical": true, "dependencies": true, "progress": true,
	"subtasks": true, "notes": true, "custom": true,
}

func (c *ContextRecord) section(name string) map[string]any {
	switch name {
	case "metadata":
		return c.Metadata
	case "objective":
		return c.Objective
	case "requirements":
		return c.Requirements
	case "technical":
		return c.Technical
	case "dependencies":
		return c.Dependencies
	case "subtasks":
		return c.Subtasks
	case "custom":
		return c.Custom
	}
	return nil
}

func (c *ContextRecord) setSection(name string, m map[string]any) {
	switch name {
	case "metadata":
		c.Metadata = m
	case "objective":
		c.Objective = m
	case "requirements":
		c.Requirements = m
	case "technical":
		c.Technical = m
	case "dependencies":
		c.Dependencies = m
	case "subtasks":
		c.Subtasks = m
	case "custom":
		c.Custom = m
	}
}

// GetProperty resolves a dot-path like "technical.framework" or
// "objective.summary" against the record's sections, returning
// (value, found).
func (c *ContextRecord) GetProperty(path string) (any, bool) {
	parts := strings.Split(path, ".")
	if len(parts) == 0 || !sectionNames[parts[0]] {
		return nil, false
	}
	if parts[0] == "progress" {
		if len(parts) == 1 {
			return c.Progress, true
		}
		return nil, false
	}
	if parts[0] == "notes" {
		if len(parts) == 1 {
			return c.Notes, true
		}
		return nil, false
	}
	cur := any(c.section(parts[0]))
	for _, p := range parts[1:] {
		if list, ok := cur.([]any); ok {
			idx, isIdx := indexPath(p)
			if !isIdx || idx < 0 || idx >= len(list) {
				return nil, false
			}
			cur = list[idx]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// UpdateProperty sets a dot-path value, creating intermediate maps as
// needed. The top-level section must be one of the nine fixed names.
func (c *ContextRecord) UpdateProperty(path string, value any) error {
	parts := strings.Split(path, ".")
	if len(parts) == 0 || !sectionNames[parts[0]] {
		return NewError(ErrValidation, "unknown context section in path %q", path)
	}
	if parts[0] == "progress" || parts[0] == "notes" {
		return NewError(ErrValidation, "section %q is append-only, use AddProgress/AddNote", parts[0])
	}
	root := c.section(parts[0])
	if root == nil {
		root = map[string]any{}
	}
	if len(parts) == 1 {
		m, ok := value.(map[string]any)
		if !ok {
			return NewError(ErrValidation, "top-level section %q requires an object value", parts[0])
		}
		c.setSection(parts[0], m)
		return nil
	}
	var cur any = root
	for i := 1; i < len(parts)-1; i++ {
		part := parts[i]
		if list, ok := cur.([]any); ok {
			idx, isIdx := indexPath(part)
			if !isIdx || idx < 0 || idx >= len(list) {
				return NewError(ErrPathNotFound, "list index %q out of range in path %q", part, path)
			}
			cur = list[idx]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return NewError(ErrPathNotFound, "path %q does not resolve to an object at %q", path, part)
		}
		switch next := m[part].(type) {
		case map[string]any:
			cur = next
		case []any:
			cur = next
		default:
			created := map[string]any{}
			m[part] = created
			cur = created
		}
	}

	last := parts[len(parts)-1]
	switch container := cur.(type) {
	case []any:
		idx, isIdx := indexPath(last)
		if !isIdx || idx < 0 || idx >= len(container) {
			return NewError(ErrPathNotFound, "list index %q out of range in path %q", last, path)
		}
		container[idx] = value
	case map[string]any:
		container[last] = value
	default:
		return NewError(ErrPathNotFound, "path %q does not resolve to an object", path)
	}
	c.setSection(parts[0], root)
	return nil
}

// MergeSection deep-merges patch into the named section: maps merge key by
// key recursively, non-map values in patch overwrite the existing value.
func (c *ContextRecord) MergeSection(name string, patch map[string]any) error {
	if !sectionNames[name] || name == "progress" || name == "notes" {
		return NewError(ErrValidation, "section %q cannot be deep-merged", name)
	}
	existing := c.section(name)
	if existing == nil {
		existing = map[string]any{}
	}
	c.setSection(name, deepMerge(existing, patch))
	return nil
}

func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(dm, sm)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// AddProgress appends a progress entry.
func (c *ContextRecord) AddProgress(text string, at time.Time) {
	c.Progress = append(c.Progress, ProgressEntry{Timestamp: at, Text: text})
}

// AddNote appends a note/insight entry.
func (c *ContextRecord) AddNote(category, text string, at time.Time) {
	c.Notes = append(c.Notes, NoteEntry{Timestamp: at, Category: category, Text: text})
}

// CanCreateFor reports the gating rule for context creation: a context can
// only be created for a task that is still "todo", with no subtask marked
// completed yet, and no existing context file for it.
func CanCreateFor(t *Task, alreadyExists bool) error {
	if alreadyExists {
		return NewError(ErrDuplicateID, "context already exists for task %s", t.ID)
	}
	if t.Status != StatusTodo {
		return NewError(ErrValidation, "context can only be created while task %s is todo, is %s", t.ID, t.Status)
	}
	for _, s := range t.Subtasks {
		if s.Completed {
			return NewError(ErrValidation, "context can only be created before any subtask of task %s completes", t.ID)
		}
	}
	return nil
}

// indexPath reports whether a path segment is a numeric array index, used
// by callers that want to distinguish list access from map access.
func indexPath(p string) (int, bool) {
	n, err := strconv.Atoi(p)
	if err != nil {
		return 0, false
	}
	return n, true
}


