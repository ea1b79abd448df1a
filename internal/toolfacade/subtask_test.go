package toolfacade

import (
	"testing"

	"github.com/dhafnck/taskforge/internal/domain"
)

func subtaskScopeArgs(taskID domain.TaskID) map[string]any {
	return map[string]any{
		"project_id":   "web_app",
		"task_tree_id": "main",
		"task_id":      string(taskID),
	}
}

func TestManageSubtaskAddListCompleteRemove(t *testing.T) {
	f := newTestFacade(t)
	taskID := mustCreateTask(t, f, "Ship release")

	addArgs := subtaskScopeArgs(taskID)
	addArgs["title"] = "Write changelog"
	res := f.ManageSubtask("add", addArgs)
	if !res.Success {
		t.Fatalf("add: %s", res.Error)
	}
	sub, ok := res.Payload["subtask"].(domain.Subtask)
	if !ok {
		t.Fatalf("unexpected subtask payload: %+v", res.Payload["subtask"])
	}
	if sub.ID != "1" {
		t.Fatalf("expected first subtask id 1, got %q", sub.ID)
	}

	listArgs := subtaskScopeArgs(taskID)
	res = f.ManageSubtask("list", listArgs)
	if !res.Success {
		t.Fatalf("list: %s", res.Error)
	}
	if total, _ := res.Payload["total"].(int); total != 1 {
		t.Fatalf("expected 1 subtask, got %v", res.Payload["total"])
	}

	completeArgs := subtaskScopeArgs(taskID)
	completeArgs["subtask_id"] = sub.ID
	res = f.ManageSubtask("complete", completeArgs)
	if !res.Success {
		t.Fatalf("complete: %s", res.Error)
	}

	listArgs = subtaskScopeArgs(taskID)
	res = f.ManageSubtask("list", listArgs)
	if completed, _ := res.Payload["completed"].(int); completed != 1 {
		t.Fatalf("expected 1 completed subtask, got %v", res.Payload["completed"])
	}

	removeArgs := subtaskScopeArgs(taskID)
	removeArgs["subtask_id"] = sub.ID
	res = f.ManageSubtask("remove", removeArgs)
	if !res.Success {
		t.Fatalf("remove: %s", res.Error)
	}

	listArgs = subtaskScopeArgs(taskID)
	res = f.ManageSubtask("list", listArgs)
	if total, _ := res.Payload["total"].(int); total != 0 {
		t.Fatalf("expected 0 subtasks after remove, got %v", res.Payload["total"])
	}
}

func TestManageSubtaskUpdate(t *testing.T) {
	f := newTestFacade(t)
	taskID := mustCreateTask(t, f, "Ship release")

	addArgs := subtaskScopeArgs(taskID)
	addArgs["title"] = "Write changelog"
	addRes := f.ManageSubtask("add", addArgs)
	sub := addRes.Payload["subtask"].(domain.Subtask)

	updateArgs := subtaskScopeArgs(taskID)
	updateArgs["subtask_id"] = sub.ID
	updateArgs["status"] = "in_progress"
	res := f.ManageSubtask("update", updateArgs)
	if !res.Success {
		t.Fatalf("update: %s", res.Error)
	}
}

func TestManageSubtaskAddRequiresTaskID(t *testing.T) {
	f := newTestFacade(t)
	res := f.ManageSubtask("add", map[string]any{"title": "orphan"})
	if res.Success {
		t.Fatalf("expected failure without task_id")
	}
}

func TestManageSubtaskUnknownAction(t *testing.T) {
	f := newTestFacade(t)
	res := f.ManageSubtask("bogus", map[string]any{})
	if res.Success {
		t.Fatalf("expected failure for unknown action")
	}
}


