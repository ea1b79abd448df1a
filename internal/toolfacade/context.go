package toolfacade

import (
	"github.com/dhafnck/taskforge/internal/contextstore"
	"github.com/dhafnck/taskforge/internal/domain"
)

// ManageContext dispatches the manage_context actions (spec.md §6):
// create|get|update|delete|list|get_property|update_property|merge|
// add_insight|add_progress|update_next_steps.
func (f *Facade) ManageContext(action string, args map[string]any) Result {
	switch action {
	case "create":
		return f.contextCreate(args)
	case "get":
		return f.contextGet(args)
	case "update":
		return f.contextUpdate(args)
	case "delete":
		return f.contextDelete(args)
	case "list":
		return f.contextList(args)
	case "get_property":
		return f.contextGetProperty(args)
	case "update_property":
		return f.contextUpdateProperty(args)
	case "merge":
		return f.contextMerge(args)
	case "add_insight":
		return f.contextAddInsight(args)
	case "add_progress":
		return f.contextAddProgress(args)
	case "update_next_steps":
		return f.contextUpdateNextSteps(args)
	default:
		return fail(domain.NewError(domain.ErrValidation, "unknown manage_context action %q", action))
	}
}

func contextScope(args map[string]any) contextstore.Scope {
	projectID, treeID, userID := scopeFrom(args)
	return contextstore.Scope{UserID: userID, ProjectID: projectID, TreeID: treeID}
}

func (f *Facade) contextCreate(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	cscope := contextScope(args)
	tscope := taskScope(args)
	task, err := f.Tasks.FindByID(tscope, domain.TaskID(taskID))
	if err != nil {
		return fail(err)
	}
	rec, err := f.Contexts.Create(cscope, task)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"context": rec})
}

func (f *Facade) contextGet(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	rec, err := f.Contexts.Get(contextScope(args), domain.TaskID(taskID))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"context": rec})
}

func (f *Facade) contextUpdate(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	scope := contextScope(args)
	rec, err := f.Contexts.Get(scope, domain.TaskID(taskID))
	if err != nil {
		return fail(err)
	}
	for _, section := range []struct {
		key    string
		target *map[string]any
	}{
		{"metadata", &rec.Metadata},
		{"objective", &rec.Objective},
		{"requirements", &rec.Requirements},
		{"technical", &rec.Technical},
		{"dependencies", &rec.Dependencies},
		{"subtasks", &rec.Subtasks},
		{"custom", &rec.Custom},
	} {
		if patch := objectMap(args, section.key); patch != nil {
			*section.target = patch
		}
	}
	rec.UpdatedAt = f.now()
	if err := f.Contexts.Update(scope, rec); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"context": rec})
}

func (f *Facade) contextDelete(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Contexts.Delete(contextScope(args), domain.TaskID(taskID)); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) contextList(args map[string]any) Result {
	recs, err := f.Contexts.List(contextScope(args))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"contexts": recs, "count": len(recs)})
}

func (f *Facade) contextGetProperty(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	path, err := requireString(args, "path")
	if err != nil {
		return fail(err)
	}
	value, err := f.Contexts.GetProperty(contextScope(args), domain.TaskID(taskID), path)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"value": value})
}

func (f *Facade) contextUpdateProperty(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	path, err := requireString(args, "path")
	if err != nil {
		return fail(err)
	}
	value := args["value"]
	if err := f.Contexts.UpdateProperty(contextScope(args), domain.TaskID(taskID), path, value); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) contextMerge(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	section, err := requireString(args, "section")
	if err != nil {
		return fail(err)
	}
	patch := objectMap(args, "patch")
	if err := f.Contexts.Merge(contextScope(args), domain.TaskID(taskID), section, patch); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) contextAddInsight(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	text, err := requireString(args, "text")
	if err != nil {
		return fail(err)
	}
	category := optionalString(args, "category", "insight")
	if err := f.Contexts.AddInsight(contextScope(args), domain.TaskID(taskID), category, text); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) contextAddProgress(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	actionText, err := requireString(args, "action_text")
	if err != nil {
		return fail(err)
	}
	if err := f.Contexts.AddProgress(contextScope(args), domain.TaskID(taskID), actionText); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) contextUpdateNextSteps(args map[string]any) Result {
	taskID, err := requireString(args, "task_id")
	if err != nil {
		return fail(err)
	}
	steps := stringList(args, "steps")
	if err := f.Contexts.UpdateNextSteps(contextScope(args), domain.TaskID(taskID), steps); err != nil {
		return fail(err)
	}
	return ok(nil)
}


