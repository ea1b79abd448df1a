package toolfacade

import (
	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/taskstore"
)

// ManageTask dispatches the manage_task actions (spec.md §6):
// create|get|update|delete|complete|list|search|next|
// add_dependency|remove_dependency.
func (f *Facade) ManageTask(action string, args map[string]any) Result {
	switch action {
	case "create":
		return f.taskCreate(args)
	case "get":
		return f.taskGet(args)
	case "update":
		return f.taskUpdate(args)
	case "delete":
		return f.taskDelete(args)
	case "complete":
		return f.taskComplete(args)
	case "list":
		return f.taskList(args)
	case "search":
		return f.taskSearch(args)
	case "next":
		return f.taskNext(args)
	case "add_dependency":
		return f.taskAddDependency(args)
	case "remove_dependency":
		return f.taskRemoveDependency(args)
	default:
		return fail(domain.NewError(domain.ErrValidation, "unknown manage_task action %q", action))
	}
}

func taskScope(args map[string]any) taskstore.Scope {
	projectID, treeID, userID := scopeFrom(args)
	return taskstore.Scope{UserID: userID, ProjectID: projectID, TreeID: treeID}
}

func (f *Facade) nextTaskID(scope taskstore.Scope) (domain.TaskID, error) {
	existing, err := f.Tasks.FindAll(scope, taskstore.Filters{})
	if err != nil {
		return "", err
	}
	now := f.now()
	today := now.Format("20060102")
	counter := 1
	for _, t := range existing {
		if len(t.ID) == 11 && string(t.ID[:8]) == today {
			counter++
		}
	}
	return domain.NewTaskIDFromCounterAt(counter, now), nil
}

func (f *Facade) taskCreate(args map[string]any) Result {
	title, err := requireString(args, "title")
	if err != nil {
		return fail(err)
	}
	scope := taskScope(args)
	id, err := f.nextTaskID(scope)
	if err != nil {
		return fail(err)
	}
	now := f.now()
	task := &domain.Task{
		ID:              id,
		Title:           title,
		Description:     optionalString(args, "description", ""),
		Status:          domain.Status(optionalString(args, "status", string(domain.StatusTodo))),
		Priority:        domain.Priority(optionalString(args, "priority", string(domain.PriorityMedium))),
		Details:         optionalString(args, "details", ""),
		EstimatedEffort: domain.EstimatedEffort(optionalString(args, "estimated_effort", "")),
		Assignees:       stringList(args, "assignees"),
		Labels:          stringList(args, "labels"),
		DueDate:         optionalString(args, "due_date", ""),
		ProjectID:       domain.ProjectID(optionalString(args, "project_id", "")),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, dep := range stringList(args, "dependencies") {
		task.Dependencies = append(task.Dependencies, domain.TaskID(dep))
	}
	if err := task.Validate(); err != nil {
		return fail(err)
	}
	if err := f.Tasks.Save(scope, task); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"task": task})
}

func (f *Facade) taskGet(args map[string]any) Result {
	id, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	task, err := f.Tasks.FindByID(taskScope(args), domain.TaskID(id))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"task": task})
}

func (f *Facade) taskUpdate(args map[string]any) Result {
	id, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	scope := taskScope(args)
	task, err := f.Tasks.FindByID(scope, domain.TaskID(id))
	if err != nil {
		return fail(err)
	}
	if v, ok := args["title"].(string); ok {
		task.Title = v
	}
	if v, ok := args["description"].(string); ok {
		task.Description = v
	}
	if v, ok := args["status"].(string); ok {
		task.Status = domain.Status(v)
	}
	if v, ok := args["priority"].(string); ok {
		task.Priority = domain.Priority(v)
	}
	if v, ok := args["details"].(string); ok {
		task.Details = v
	}
	if v, ok := args["due_date"].(string); ok {
		task.DueDate = v
	}
	if _, ok := args["assignees"]; ok {
		task.Assignees = stringList(args, "assignees")
	}
	if _, ok := args["labels"]; ok {
		task.Labels = stringList(args, "labels")
	}
	task.UpdatedAt = f.now()
	if err := task.Validate(); err != nil {
		return fail(err)
	}
	if err := f.Tasks.Save(scope, task); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"task": task})
}

func (f *Facade) taskDelete(args map[string]any) Result {
	id, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Tasks.Delete(taskScope(args), domain.TaskID(id)); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) taskComplete(args map[string]any) Result {
	id, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Tasks.Complete(taskScope(args), domain.TaskID(id)); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) taskList(args map[string]any) Result {
	filters := taskstore.Filters{
		Status:    domain.Status(optionalString(args, "status", "")),
		Priority:  domain.Priority(optionalString(args, "priority", "")),
		Assignees: stringList(args, "assignees"),
		Labels:    stringList(args, "labels"),
		Limit:     optionalInt(args, "limit", 0),
	}
	tasks, err := f.Tasks.FindAll(taskScope(args), filters)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (f *Facade) taskSearch(args map[string]any) Result {
	query, err := requireString(args, "query")
	if err != nil {
		return fail(err)
	}
	limit := optionalInt(args, "limit", 25)
	tasks, err := f.Tasks.Search(taskScope(args), query, limit)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (f *Facade) taskNext(args map[string]any) Result {
	task, err := f.Tasks.NextActionable(taskScope(args))
	if err != nil {
		return fail(err)
	}
	if task == nil {
		return ok(map[string]any{"task": nil})
	}
	return ok(map[string]any{"task": task})
}

func (f *Facade) taskAddDependency(args map[string]any) Result {
	id, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	dep, err := requireString(args, "dependency_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Tasks.AddDependency(taskScope(args), domain.TaskID(id), domain.TaskID(dep)); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) taskRemoveDependency(args map[string]any) Result {
	id, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	dep, err := requireString(args, "dependency_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Tasks.RemoveDependency(taskScope(args), domain.TaskID(id), domain.TaskID(dep)); err != nil {
		return fail(err)
	}
	return ok(nil)
}


