package toolfacade

import (
	"context"
	"testing"

	"github.com/dhafnck/taskforge/internal/domain"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	return New(t.TempDir())
}

func TestManageProjectCreateAndGet(t *testing.T) {
	f := newTestFacade(t)
	res := f.ManageProject(context.Background(), "create", map[string]any{
		"project_id": "web_app",
		"name":       "Web App",
	})
	if !res.Success {
		t.Fatalf("create: %s", res.Error)
	}

	res = f.ManageProject(context.Background(), "get", map[string]any{"project_id": "web_app"})
	if !res.Success {
		t.Fatalf("get: %s", res.Error)
	}
	p, ok := res.Payload["project"].(*domain.Project)
	if !ok || p.Name != "Web App" {
		t.Fatalf("unexpected project payload: %+v", res.Payload["project"])
	}
}

func TestManageProjectCreateRequiresProjectID(t *testing.T) {
	f := newTestFacade(t)
	res := f.ManageProject(context.Background(), "create", map[string]any{})
	if res.Success {
		t.Fatalf("expected failure without project_id")
	}
}

func TestManageProjectUnknownAction(t *testing.T) {
	f := newTestFacade(t)
	res := f.ManageProject(context.Background(), "nonsense", map[string]any{})
	if res.Success {
		t.Fatalf("expected failure for unknown action")
	}
}

func TestManageProjectCreateTreeAndDashboard(t *testing.T) {
	f := newTestFacade(t)
	f.ManageProject(context.Background(), "create", map[string]any{"project_id": "web_app"})

	res := f.ManageProject(context.Background(), "create_tree", map[string]any{
		"project_id":   "web_app",
		"task_tree_id": "feature_x",
		"name":         "Feature X",
	})
	if !res.Success {
		t.Fatalf("create_tree: %s", res.Error)
	}

	res = f.ManageProject(context.Background(), "dashboard", map[string]any{"project_id": "web_app"})
	if !res.Success {
		t.Fatalf("dashboard: %s", res.Error)
	}
	if count, _ := res.Payload["tree_count"].(int); count != 2 {
		t.Fatalf("expected tree_count 2 (main + feature_x), got %v", res.Payload["tree_count"])
	}
}

func TestManageProjectDeleteTreeBlockedByTasks(t *testing.T) {
	f := newTestFacade(t)
	f.ManageProject(context.Background(), "create", map[string]any{"project_id": "web_app"})
	f.ManageProject(context.Background(), "create_tree", map[string]any{
		"project_id":   "web_app",
		"task_tree_id": "feature_x",
	})

	taskRes := f.ManageTask("create", map[string]any{
		"project_id":   "web_app",
		"task_tree_id": "feature_x",
		"title":        "Do the thing",
	})
	if !taskRes.Success {
		t.Fatalf("task create: %s", taskRes.Error)
	}

	res := f.ManageProject(context.Background(), "delete_tree", map[string]any{
		"project_id":   "web_app",
		"task_tree_id": "feature_x",
	})
	if res.Success {
		t.Fatalf("expected delete_tree to fail while tasks remain")
	}

	res = f.ManageProject(context.Background(), "delete_tree", map[string]any{
		"project_id":   "web_app",
		"task_tree_id": "feature_x",
		"force":        true,
	})
	if !res.Success {
		t.Fatalf("forced delete_tree: %s", res.Error)
	}
}


