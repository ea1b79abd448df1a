package contextstore

import (
	"testing"

	"github.com/dhafnck/taskforge/internal/domain"
)

func testScope() Scope {
	return Scope{UserID: "default_id", ProjectID: "web_app", TreeID: "main"}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir())
}

func TestCreateGatedOnTodoStatus(t *testing.T) {
	st := newTestStore(t)
	scope := testScope()
	task := &domain.Task{ID: "1", Title: "T1", Status: domain.StatusInProgress}
	if _, err := st.Create(scope, task); err == nil {
		t.Fatalf("expected error creating context for non-todo task")
	}
	task.Status = domain.StatusTodo
	rec, err := st.Create(scope, task)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.TaskID != "1" {
		t.Fatalf("got %+v", rec)
	}
}

func TestCreateRejectsDuplicate(t *testing.T) {
	st := newTestStore(t)
	scope := testScope()
	task := &domain.Task{ID: "1", Title: "T1", Status: domain.StatusTodo}
	if _, err := st.Create(scope, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.Create(scope, task); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}
}

func TestUpdateAndGetProperty(t *testing.T) {
	st := newTestStore(t)
	scope := testScope()
	task := &domain.Task{ID: "1", Title: "T1", Status: domain.StatusTodo}
	if _, err := st.Create(scope, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.UpdateProperty(scope, "1", "technical.framework", "go"); err != nil {
		t.Fatalf("UpdateProperty: %v", err)
	}
	v, err := st.GetProperty(scope, "1", "technical.framework")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if v != "go" {
		t.Fatalf("got %v", v)
	}
}

func TestMergeIsRightBiasedOnLeaves(t *testing.T) {
	st := newTestStore(t)
	scope := testScope()
	task := &domain.Task{ID: "1", Title: "T1", Status: domain.StatusTodo}
	if _, err := st.Create(scope, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Merge(scope, "1", "technical", map[string]any{"framework": "go"}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := st.Merge(scope, "1", "technical", map[string]any{"framework": "rust", "extra": "x"}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	rec, err := st.Get(scope, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Technical["framework"] != "rust" || rec.Technical["extra"] != "x" {
		t.Fatalf("got %+v", rec.Technical)
	}
}

func TestAddInsightDefaultsCategory(t *testing.T) {
	st := newTestStore(t)
	scope := testScope()
	task := &domain.Task{ID: "1", Title: "T1", Status: domain.StatusTodo}
	if _, err := st.Create(scope, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.AddInsight(scope, "1", "unknown-category", "some finding"); err != nil {
		t.Fatalf("AddInsight: %v", err)
	}
	rec, err := st.Get(scope, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.Notes) != 1 || rec.Notes[0].Category != "insight" {
		t.Fatalf("got %+v", rec.Notes)
	}
}

func TestAddProgressUpdatesSessionSummary(t *testing.T) {
	st := newTestStore(t)
	scope := testScope()
	task := &domain.Task{ID: "1", Title: "T1", Status: domain.StatusTodo}
	if _, err := st.Create(scope, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.AddProgress(scope, "1", "implemented handler"); err != nil {
		t.Fatalf("AddProgress: %v", err)
	}
	rec, err := st.Get(scope, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.Progress) != 1 {
		t.Fatalf("got %+v", rec.Progress)
	}
	if rec.Custom["current_session_summary"] != "Latest action: implemented handler" {
		t.Fatalf("got %v", rec.Custom["current_session_summary"])
	}
}

func TestDeleteRemovesFileAndIndex(t *testing.T) {
	st := newTestStore(t)
	scope := testScope()
	task := &domain.Task{ID: "1", Title: "T1", Status: domain.StatusTodo}
	if _, err := st.Create(scope, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Delete(scope, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exists, err := st.Exists(scope, "1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatalf("expected context to be gone after delete")
	}
	list, err := st.List(scope)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty index after delete, got %v", list)
	}
}


