package toolfacade

import (
	"fmt"

	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/taskstore"
)

// ManageSubtask dispatches the manage_subtask actions (spec.md §6):
// add|complete|list|update|remove.
func (f *Facade) ManageSubtask(action string, args map[string]any) Result {
	switch action {
	case "add":
		return f.subtaskAdd(args)
	case "complete":
		return f.subtaskComplete(args)
	case "list":
		return f.subtaskList(args)
	case "update":
		return f.subtaskUpdate(args)
	case "remove":
		return f.subtaskRemove(args)
	default:
		return fail(domain.NewError(domain.ErrValidation, "unknown manage_subtask action %q", action))
	}
}

func (f *Facade) subtaskAdd(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	title, err := requireString(args, "title")
	if err != nil {
		return fail(err)
	}
	scope := taskScope(args)
	_, _, total, _, err := f.Tasks.ListSubtasks(scope, domain.TaskID(taskID))
	if err != nil {
		return fail(err)
	}
	sub := domain.Subtask{
		ID:          fmt.Sprintf("%d", total+1),
		Title:       title,
		Description: optionalString(args, "description", ""),
		Assignee:    optionalString(args, "assignee", ""),
		Status:      domain.Status(optionalString(args, "status", string(domain.StatusTodo))),
	}
	if err := f.Tasks.AddSubtask(scope, domain.TaskID(taskID), sub); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"subtask": sub})
}

func (f *Facade) subtaskComplete(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	subID, err := requireString(args, "subtask_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Tasks.CompleteSubtask(taskScope(args), domain.TaskID(taskID), subID); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) subtaskList(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	subs, completed, total, pct, err := f.Tasks.ListSubtasks(taskScope(args), domain.TaskID(taskID))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{
		"subtasks":  subs,
		"completed": completed,
		"total":     total,
		"progress":  pct,
	})
}

func (f *Facade) subtaskUpdate(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	subID, err := requireString(args, "subtask_id")
	if err != nil {
		return fail(err)
	}
	var upd taskstore.SubtaskUpdate
	if v, ok := args["title"].(string); ok {
		upd.Title = &v
	}
	if v, ok := args["description"].(string); ok {
		upd.Description = &v
	}
	if v, ok := args["assignee"].(string); ok {
		upd.Assignee = &v
	}
	if v, ok := args["status"].(string); ok {
		s := domain.Status(v)
		upd.Status = &s
	}
	if v, ok := args["progress_notes"].(string); ok {
		upd.ProgressNotes = &v
	}
	if err := f.Tasks.UpdateSubtask(taskScope(args), domain.TaskID(taskID), subID, upd); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) subtaskRemove(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	subID, err := requireString(args, "subtask_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Tasks.RemoveSubtask(taskScope(args), domain.TaskID(taskID), subID); err != nil {
		return fail(err)
	}
	return ok(nil)
}


