package toolfacade

import (
	"context"
	"path/filepath"
	"time"

	"github.com/dhafnck/taskforge/internal/agentorch"
	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/projectregistry"
	"github.com/dhafnck/taskforge/internal/taskstore"
)

const gitSubprocessTimeout = 20 * time.Second

// ManageProject dispatches the manage_project actions (spec.md §6):
// create|get|list|update|create_tree|delete_tree|delete_project|clear_tree|
// get_tree_status|orchestrate|dashboard|project_health_check|
// sync_with_git|cleanup_obsolete|validate_integrity|rebalance_agents.
func (f *Facade) ManageProject(ctx context.Context, action string, args map[string]any) Result {
	switch action {
	case "create":
		return f.projectCreate(args)
	case "get":
		return f.projectGet(args)
	case "list":
		return f.projectList()
	case "update":
		return f.projectUpdate(args)
	case "create_tree":
		return f.projectCreateTree(args)
	case "delete_tree":
		return f.projectDeleteTree(args)
	case "delete_project":
		return f.projectDeleteProject(args)
	case "clear_tree":
		return f.projectClearTree(args)
	case "get_tree_status":
		return f.projectGetTreeStatus(args)
	case "project_health_check":
		return f.projectHealthCheck(ctx, args)
	case "sync_with_git":
		return f.projectSyncWithGit(ctx, args)
	case "cleanup_obsolete":
		return f.projectCleanupObsolete(ctx, args)
	case "validate_integrity":
		return f.projectValidateIntegrity(args)
	case "rebalance_agents":
		return f.projectRebalanceAgents(args)
	case "orchestrate":
		return f.projectOrchestrate(ctx, args)
	case "dashboard":
		return f.projectDashboard(args)
	default:
		return fail(domain.NewError(domain.ErrValidation, "unknown manage_project action %q", action))
	}
}

func (f *Facade) projectCreate(args map[string]any) Result {
	id, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	name := optionalString(args, "name", id)
	p, err := f.Projects.CreateProject(domain.ProjectID(id), name, optionalString(args, "description", ""))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"project": p})
}

func (f *Facade) projectGet(args map[string]any) Result {
	id, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(id))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"project": p})
}

func (f *Facade) projectList() Result {
	ps, err := f.Projects.ListProjects()
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"projects": ps})
}

func (f *Facade) projectUpdate(args map[string]any) Result {
	id, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	var name, desc *string
	if v, ok := args["name"].(string); ok {
		name = &v
	}
	if v, ok := args["description"].(string); ok {
		desc = &v
	}
	p, err := f.Projects.UpdateProject(domain.ProjectID(id), name, desc)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"project": p})
}

func (f *Facade) projectCreateTree(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	treeID, err := requireString(args, "task_tree_id")
	if err != nil {
		return fail(err)
	}
	t, err := f.Projects.CreateTree(domain.ProjectID(projectID), domain.TreeID(treeID),
		optionalString(args, "name", treeID), optionalString(args, "description", ""))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"tree": t})
}

// taskCounter counts tasks for a project/tree under the default user scope,
// the scope manage_task falls back to when no user_id is given.
func (f *Facade) taskCounter() projectregistry.TaskCounter {
	return func(projectID domain.ProjectID, treeID domain.TreeID) (int, error) {
		tasks, err := f.Tasks.FindAll(taskstore.Scope{UserID: domain.DefaultUserID, ProjectID: projectID, TreeID: treeID}, taskstore.Filters{})
		if err != nil {
			return 0, err
		}
		return len(tasks), nil
	}
}

func (f *Facade) projectDeleteTree(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	treeID, err := requireString(args, "task_tree_id")
	if err != nil {
		return fail(err)
	}
	force := optionalBool(args, "force", false)
	if err := f.Projects.DeleteTree(domain.ProjectID(projectID), domain.TreeID(treeID), force, f.taskCounter()); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) projectDeleteProject(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	force := optionalBool(args, "force", false)
	if err := f.Projects.DeleteProject(domain.ProjectID(projectID), force, f.taskCounter()); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) projectClearTree(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	treeID, err := requireString(args, "task_tree_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Projects.ClearTree(domain.ProjectID(projectID), domain.TreeID(treeID)); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) projectGetTreeStatus(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	treeID, err := requireString(args, "task_tree_id")
	if err != nil {
		return fail(err)
	}
	tasks, err := f.Tasks.FindAll(taskstore.Scope{UserID: domain.DefaultUserID, ProjectID: domain.ProjectID(projectID), TreeID: domain.TreeID(treeID)}, taskstore.Filters{})
	if err != nil {
		return fail(err)
	}
	counts := map[domain.Status]int{}
	for _, t := range tasks {
		counts[t.Status]++
	}
	status, err := f.Projects.GetTreeStatus(domain.ProjectID(projectID), domain.TreeID(treeID), counts, len(tasks))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"tree_status": status})
}

// repoDir resolves the git working directory for a project: the parent of
// the facade's .cursor root, unless the caller names one explicitly.
func (f *Facade) repoDir(args map[string]any) string {
	return optionalString(args, "repo_dir", filepath.Dir(f.Root))
}

func (f *Facade) gitBranches(ctx context.Context, args map[string]any) ([]string, error) {
	return agentorch.ListBranches(ctx, f.repoDir(args), gitSubprocessTimeout)
}

func (f *Facade) projectTaskMetrics(projectID domain.ProjectID, p *domain.Project) agentorch.TaskMetrics {
	var metrics agentorch.TaskMetrics
	now := f.now()
	for treeID := range p.Trees {
		tasks, err := f.Tasks.FindAll(taskstore.Scope{UserID: domain.DefaultUserID, ProjectID: projectID, TreeID: treeID}, taskstore.Filters{})
		if err != nil {
			continue
		}
		metrics.ActualCount += len(tasks)
		metrics.DashboardCount += len(p.Trees[treeID].TaskIDs)
		for _, t := range tasks {
			metrics.Total++
			if t.Status == domain.StatusDone {
				metrics.Completed++
			}
			if t.Status == domain.StatusBlocked {
				metrics.Blocked++
			}
			if t.DueDate != "" && !t.Status.IsTerminal() && t.DueDate < now.Format("2006-01-02") {
				metrics.Overdue++
			}
		}
	}
	return metrics
}

func (f *Facade) projectHealthCheck(ctx context.Context, args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	branches, err := f.gitBranches(ctx, args)
	if err != nil {
		return fail(domain.WrapError(domain.ErrIOFailure, err, "listing git branches"))
	}
	report := agentorch.HealthCheck(p, branches, f.projectTaskMetrics(p.ID, p), f.now())
	return ok(map[string]any{"health": report})
}

func (f *Facade) projectSyncWithGit(ctx context.Context, args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	branches, err := f.gitBranches(ctx, args)
	if err != nil {
		return fail(domain.WrapError(domain.ErrIOFailure, err, "listing git branches"))
	}
	report := agentorch.SyncWithGit(p, branches, f.now())
	if err := f.saveProject(p); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"sync": report})
}

func (f *Facade) projectCleanupObsolete(ctx context.Context, args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	branches, err := f.gitBranches(ctx, args)
	if err != nil {
		return fail(domain.WrapError(domain.ErrIOFailure, err, "listing git branches"))
	}
	report := agentorch.CleanupObsolete(p, branches, f.now())
	if err := f.saveProject(p); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"cleanup": report})
}

func (f *Facade) projectValidateIntegrity(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	counts := agentorch.TreeTaskCounts{}
	for treeID, tree := range p.Trees {
		tasks, err := f.Tasks.FindAll(taskstore.Scope{UserID: domain.DefaultUserID, ProjectID: p.ID, TreeID: treeID}, taskstore.Filters{})
		if err != nil {
			continue
		}
		counts[treeID] = [2]int{len(tree.TaskIDs), len(tasks)}
	}
	report := agentorch.ValidateIntegrity(p, counts, f.now())
	if err := f.saveProject(p); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"integrity": report})
}

func (f *Facade) projectRebalanceAgents(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	workload := map[domain.TreeID]agentorch.TreeWorkload{}
	for treeID := range p.Trees {
		tasks, err := f.Tasks.FindAll(taskstore.Scope{UserID: domain.DefaultUserID, ProjectID: p.ID, TreeID: treeID}, taskstore.Filters{})
		if err != nil {
			continue
		}
		w := agentorch.TreeWorkload{}
		for _, t := range tasks {
			if t.Status.IsTerminal() {
				continue
			}
			if t.Status == domain.StatusTodo {
				w.TodoCount++
				if t.Priority == domain.PriorityHigh || t.Priority == domain.PriorityUrgent || t.Priority == domain.PriorityCritical {
					w.HighPriorityTodo++
				}
			}
		}
		workload[treeID] = w
	}
	expertise := func(agent *domain.Agent, treeID domain.TreeID) float64 { return 0.5 }
	load := func(agent *domain.Agent) float64 { return float64(len(agent.AssignedTrees)) }
	report := agentorch.RebalanceAgents(p, workload, expertise, load, f.now())
	if err := f.saveProject(p); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"rebalance": report})
}

// projectOrchestrate runs a read-through maintenance pass: sync_with_git
// then validate_integrity then health_check, in that order, returning all
// three reports together.
func (f *Facade) projectOrchestrate(ctx context.Context, args map[string]any) Result {
	sync := f.projectSyncWithGit(ctx, args)
	if !sync.Success {
		return sync
	}
	integrity := f.projectValidateIntegrity(args)
	if !integrity.Success {
		return integrity
	}
	health := f.projectHealthCheck(ctx, args)
	if !health.Success {
		return health
	}
	return ok(map[string]any{
		"sync":      sync.Payload["sync"],
		"integrity": integrity.Payload["integrity"],
		"health":    health.Payload["health"],
	})
}

func (f *Facade) projectDashboard(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	metrics := f.projectTaskMetrics(p.ID, p)
	return ok(map[string]any{
		"project":     p,
		"tree_count":  len(p.Trees),
		"agent_count": len(p.Agents),
		"task_metrics": metrics,
	})
}

func (f *Facade) saveProject(p *domain.Project) error {
	return f.Projects.Replace(p)
}


