// Package agentorch converts declarative project state into agent-to-tree
// assignments and maintenance reports. Every operation is a pure function
// over a *domain.Project snapshot plus whatever external facts (git
// branches, task counts) the caller supplies — nothing here owns a live
// process or background goroutine.
package agentorch

import (
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
)

// HealthReport is the result of health_check.
type HealthReport struct {
	Score              int              `json:"score"`
	ObsoleteTrees      []domain.TreeID  `json:"obsolete_trees,omitempty"`
	MissingTrees       []string         `json:"missing_trees,omitempty"`
	TaskCountMismatch  bool             `json:"task_count_mismatch"`
	MisalignedAgents   []domain.AgentID `json:"misaligned_agents,omitempty"`
	TotalTasks         int              `json:"total_tasks"`
	CompletedTasks     int              `json:"completed_tasks"`
	BlockedTasks       int              `json:"blocked_tasks"`
	OverdueTasks       int              `json:"overdue_tasks"`
}

// TaskMetrics is the subset of aggregate task facts health_check needs,
// supplied by the caller (TaskStore owns the tasks themselves).
type TaskMetrics struct {
	Total          int
	Completed      int
	Blocked        int
	Overdue        int
	DashboardCount int // what the registry dashboard currently reports
	ActualCount    int // what TaskStore actually holds
}

// HealthCheck computes an overall 0-100 health score for a project, per
// spec.md §4.4: obsolete trees -15, data inconsistency -25, agent
// misalignment -10.
func HealthCheck(p *domain.Project, gitBranches []string, metrics TaskMetrics, now time.Time) *HealthReport {
	branchSet := toSet(gitBranches)
	report := &HealthReport{Score: 100, TotalTasks: metrics.Total, CompletedTasks: metrics.Completed,
		BlockedTasks: metrics.Blocked, OverdueTasks: metrics.Overdue}

	for treeID := range p.Trees {
		if treeID == domain.MainTreeID {
			continue
		}
		if !branchSet[string(treeID)] {
			report.ObsoleteTrees = append(report.ObsoleteTrees, treeID)
		}
	}
	for branch := range branchSet {
		if branch == "main" {
			continue
		}
		if _, ok := p.Trees[domain.TreeID(branch)]; !ok {
			report.MissingTrees = append(report.MissingTrees, branch)
		}
	}
	if len(report.ObsoleteTrees) > 0 {
		report.Score -= 15
	}

	if metrics.DashboardCount != metrics.ActualCount {
		report.TaskCountMismatch = true
		report.Score -= 25
	}

	for agentID, agent := range p.Agents {
		for _, treeID := range agent.AssignedTrees {
			if _, ok := p.Trees[treeID]; !ok {
				report.MisalignedAgents = append(report.MisalignedAgents, agentID)
				break
			}
		}
	}
	if len(report.MisalignedAgents) > 0 {
		report.Score -= 10
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

// GitSyncReport is the result of sync_with_git.
type GitSyncReport struct {
	Removed []domain.TreeID `json:"removed,omitempty"`
	Created []domain.TreeID `json:"created,omitempty"`
}

// SyncWithGit enumerates local git branches (always including "main"),
// removes task trees not present in that set (except "main"), and creates
// trees for branches lacking them.
func SyncWithGit(p *domain.Project, gitBranches []string, now time.Time) *GitSyncReport {
	branchSet := toSet(gitBranches)
	branchSet["main"] = true
	report := &GitSyncReport{}

	for treeID := range p.Trees {
		if treeID == domain.MainTreeID {
			continue
		}
		if !branchSet[string(treeID)] {
			_ = p.DeleteTree(treeID, true)
			report.Removed = append(report.Removed, treeID)
		}
	}
	for branch := range branchSet {
		treeID := domain.TreeID(branch)
		if _, ok := p.Trees[treeID]; !ok {
			p.Trees[treeID] = &domain.Tree{ID: treeID, Name: branch, CreatedAt: now, UpdatedAt: now}
			report.Created = append(report.Created, treeID)
		}
	}
	p.UpdatedAt = now
	return report
}

// CleanupReport is the result of cleanup_obsolete.
type CleanupReport struct {
	RemovedTrees        []domain.TreeID  `json:"removed_trees,omitempty"`
	PrunedAssignments   []domain.AgentID `json:"pruned_assignments,omitempty"`
	RestoredMainTree    bool             `json:"restored_main_tree"`
	CleanupPerformed    []string         `json:"cleanup_performed,omitempty"`
}

// CleanupObsolete removes trees absent from gitBranches, prunes assignments
// pointing at obsolete trees or unregistered agents, restores "main" if
// missing, and reports every auto-correction made.
func CleanupObsolete(p *domain.Project, gitBranches []string, now time.Time) *CleanupReport {
	branchSet := toSet(gitBranches)
	branchSet["main"] = true
	report := &CleanupReport{}

	for treeID := range p.Trees {
		if treeID == domain.MainTreeID {
			continue
		}
		if !branchSet[string(treeID)] {
			_ = p.DeleteTree(treeID, true)
			report.RemovedTrees = append(report.RemovedTrees, treeID)
			report.CleanupPerformed = append(report.CleanupPerformed, "removed obsolete tree "+string(treeID))
		}
	}

	for agentID, agent := range p.Agents {
		kept := agent.AssignedTrees[:0]
		pruned := false
		for _, treeID := range agent.AssignedTrees {
			if _, ok := p.Trees[treeID]; ok {
				kept = append(kept, treeID)
			} else {
				pruned = true
			}
		}
		agent.AssignedTrees = kept
		if pruned {
			report.PrunedAssignments = append(report.PrunedAssignments, agentID)
			report.CleanupPerformed = append(report.CleanupPerformed, "pruned stale tree assignment for agent "+string(agentID))
		}
	}
	for _, tree := range p.Trees {
		if tree.AssignedAgent != "" {
			if _, ok := p.Agents[tree.AssignedAgent]; !ok {
				tree.AssignedAgent = ""
				report.CleanupPerformed = append(report.CleanupPerformed, "cleared assignment of unregistered agent on tree "+string(tree.ID))
			}
		}
	}

	if _, ok := p.Trees[domain.MainTreeID]; !ok {
		p.Trees[domain.MainTreeID] = &domain.Tree{ID: domain.MainTreeID, Name: "main", CreatedAt: now, UpdatedAt: now}
		report.RestoredMainTree = true
		report.CleanupPerformed = append(report.CleanupPerformed, "restored missing main tree")
	}

	p.UpdatedAt = now
	return report
}

// IntegrityReport is the result of validate_integrity.
type IntegrityReport struct {
	DashboardMismatch []domain.TreeID  `json:"dashboard_mismatch,omitempty"`
	RemovedAssignments []domain.AgentID `json:"removed_assignments,omitempty"`
	DefaultsFilled     []string         `json:"defaults_filled,omitempty"`
	Valid              bool             `json:"valid"`
}

// TreeTaskCounts maps a tree to (dashboard-reported count, actual file
// count), supplied by the caller.
type TreeTaskCounts map[domain.TreeID][2]int

// ValidateIntegrity checks dashboard/actual task-count parity per tree,
// removes assignments pointing at non-existent trees or unregistered
// agents, and fills required defaults on Tree/Agent records.
func ValidateIntegrity(p *domain.Project, counts TreeTaskCounts, now time.Time) *IntegrityReport {
	report := &IntegrityReport{Valid: true}

	for treeID, pair := range counts {
		if pair[0] != pair[1] {
			report.DashboardMismatch = append(report.DashboardMismatch, treeID)
			report.Valid = false
		}
	}

	for agentID, agent := range p.Agents {
		kept := agent.AssignedTrees[:0]
		removed := false
		for _, treeID := range agent.AssignedTrees {
			if _, ok := p.Trees[treeID]; ok {
				kept = append(kept, treeID)
			} else {
				removed = true
			}
		}
		agent.AssignedTrees = kept
		if removed {
			report.RemovedAssignments = append(report.RemovedAssignments, agentID)
		}
	}

	for id, tree := range p.Trees {
		if tree.ID == "" {
			tree.ID = id
			report.DefaultsFilled = append(report.DefaultsFilled, "tree "+string(id)+" id")
		}
		if tree.CreatedAt.IsZero() {
			tree.CreatedAt = now
			report.DefaultsFilled = append(report.DefaultsFilled, "tree "+string(id)+" created_at")
		}
	}
	for id, agent := range p.Agents {
		if agent.ID == "" {
			agent.ID = id
			report.DefaultsFilled = append(report.DefaultsFilled, "agent "+string(id)+" id")
		}
		if agent.RegisteredAt.IsZero() {
			agent.RegisteredAt = now
			report.DefaultsFilled = append(report.DefaultsFilled, "agent "+string(id)+" registered_at")
		}
	}

	p.UpdatedAt = now
	return report
}

// RebalanceReport is the result of rebalance_agents.
type RebalanceReport struct {
	Assignments map[domain.TreeID]domain.AgentID `json:"assignments"`
}

// TreeWorkload is the per-tree facts rebalance_agents scores over, supplied
// by the caller from live task data.
type TreeWorkload struct {
	HighPriorityTodo int
	TodoCount        int
}

// ExpertiseScore returns how well an agent fits a tree's work, 0-1. Callers
// compute this from capability overlap; a stub of 0.5 is used when the
// caller has no finer signal.
type ExpertiseScore func(agent *domain.Agent, treeID domain.TreeID) float64

// CurrentLoad returns an agent's current assignment count, used to compute
// the load penalty in scoring.
type CurrentLoad func(agent *domain.Agent) float64

// RebalanceAgents scores each tree by 3*(high-priority todo count) +
// (todo count); for trees with positive score, assigns the agent
// maximizing expertise_score - 0.5*current_load, falling back to the
// least-loaded agent so every active tree with work has an assignee.
func RebalanceAgents(p *domain.Project, workload map[domain.TreeID]TreeWorkload, expertise ExpertiseScore, load CurrentLoad, now time.Time) *RebalanceReport {
	report := &RebalanceReport{Assignments: map[domain.TreeID]domain.AgentID{}}
	if len(p.Agents) == 0 {
		return report
	}

	type scored struct {
		treeID domain.TreeID
		score  float64
	}
	var trees []scored
	for treeID := range p.Trees {
		w := workload[treeID]
		score := float64(3*w.HighPriorityTodo + w.TodoCount)
		if score > 0 {
			trees = append(trees, scored{treeID, score})
		}
	}

	for _, t := range trees {
		var best domain.AgentID
		bestScore := -1.0
		hasBest := false
		for agentID, agent := range p.Agents {
			s := expertise(agent, t.treeID) - 0.5*load(agent)
			if !hasBest || s > bestScore {
				best, bestScore, hasBest = agentID, s, true
			}
		}
		if hasBest {
			if err := p.AssignAgentToTree(best, t.treeID); err == nil {
				report.Assignments[t.treeID] = best
			}
		}
	}

	// Ensure every active (scored) tree has at least one assignee by
	// falling back to the least-loaded agent.
	for _, t := range trees {
		if _, assigned := report.Assignments[t.treeID]; assigned {
			continue
		}
		var leastLoaded domain.AgentID
		lowest := -1.0
		has := false
		for agentID, agent := range p.Agents {
			l := load(agent)
			if !has || l < lowest {
				leastLoaded, lowest, has = agentID, l, true
			}
		}
		if has {
			if err := p.AssignAgentToTree(leastLoaded, t.treeID); err == nil {
				report.Assignments[t.treeID] = leastLoaded
			}
		}
	}

	p.UpdatedAt = now
	return report
}


