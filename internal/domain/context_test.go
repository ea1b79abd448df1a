package domain

import (
	"testing"
	"time"
)

func TestUpdateAndGetProperty(t *testing.T) {
	c := &ContextRecord{}
	if err := c.UpdateProperty("technical.framework", "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := c.GetProperty("technical.framework")
	if !ok || v != "go" {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestUpdatePropertyRejectsAppendOnlySections(t *testing.T) {
	c := &ContextRecord{}
	if err := c.UpdateProperty("progress.foo", "x"); err == nil {
		t.Fatalf("expected error updating append-only section directly")
	}
}

func TestGetPropertyTraversesListIndex(t *testing.T) {
	c := &ContextRecord{Subtasks: map[string]any{
		"items": []any{
			map[string]any{"title": "write tests"},
			map[string]any{"title": "update docs"},
		},
	}}
	v, ok := c.GetProperty("subtasks.items.1.title")
	if !ok || v != "update docs" {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestGetPropertyListIndexOutOfRange(t *testing.T) {
	c := &ContextRecord{Subtasks: map[string]any{
		"items": []any{map[string]any{"title": "write tests"}},
	}}
	if _, ok := c.GetProperty("subtasks.items.5.title"); ok {
		t.Fatalf("expected out-of-range list index to report not found")
	}
}

func TestUpdatePropertyTraversesListIndexWithoutClobbering(t *testing.T) {
	c := &ContextRecord{Subtasks: map[string]any{
		"items": []any{
			map[string]any{"title": "write tests"},
			map[string]any{"title": "update docs"},
		},
	}}
	if err := c.UpdateProperty("subtasks.items.0.title", "write regression tests"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := c.Subtasks["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected list length to stay 2, got %d", len(items))
	}
	first := items[0].(map[string]any)
	if first["title"] != "write regression tests" {
		t.Fatalf("got %+v", first)
	}
	second := items[1].(map[string]any)
	if second["title"] != "update docs" {
		t.Fatalf("expected sibling item untouched, got %+v", second)
	}
}

func TestUpdatePropertyListIndexOutOfRangeFails(t *testing.T) {
	c := &ContextRecord{Subtasks: map[string]any{
		"items": []any{map[string]any{"title": "write tests"}},
	}}
	err := c.UpdateProperty("subtasks.items.9.title", "nope")
	if err == nil {
		t.Fatalf("expected error for out-of-range list index")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrPathNotFound {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func TestMergeSectionDeepMerge(t *testing.T) {
	c := &ContextRecord{Technical: map[string]any{
		"framework": "go",
		"nested":    map[string]any{"a": 1, "b": 2},
	}}
	err := c.MergeSection("technical", map[string]any{
		"nested": map[string]any{"b": 3, "c": 4},
		"extra":  "new",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nested := c.Technical["nested"].(map[string]any)
	if nested["a"] != 1 || nested["b"] != 3 || nested["c"] != 4 {
		t.Fatalf("deep merge mismatch: %+v", nested)
	}
	if c.Technical["extra"] != "new" || c.Technical["framework"] != "go" {
		t.Fatalf("merge should preserve existing keys and add new ones: %+v", c.Technical)
	}
}

func TestAddProgressAndNote(t *testing.T) {
	c := &ContextRecord{}
	now := time.Now()
	c.AddProgress("started work", now)
	c.AddNote("insight", "found root cause", now)
	if len(c.Progress) != 1 || c.Progress[0].Text != "started work" {
		t.Fatalf("got %+v", c.Progress)
	}
	if len(c.Notes) != 1 || c.Notes[0].Category != "insight" {
		t.Fatalf("got %+v", c.Notes)
	}
}

func TestCanCreateForGating(t *testing.T) {
	task := &Task{ID: "1", Status: StatusTodo}
	if err := CanCreateFor(task, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CanCreateFor(task, true); err == nil {
		t.Fatalf("expected error when context already exists")
	}

	inProgress := &Task{ID: "2", Status: StatusInProgress}
	if err := CanCreateFor(inProgress, false); err == nil {
		t.Fatalf("expected error creating context for non-todo task")
	}

	withDoneSubtask := &Task{ID: "3", Status: StatusTodo, Subtasks: []Subtask{{Completed: true}}}
	if err := CanCreateFor(withDoneSubtask, false); err == nil {
		t.Fatalf("expected error creating context once a subtask has completed")
	}
}


