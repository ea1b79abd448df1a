package toolfacade

import (
	"github.com/dhafnck/taskforge/internal/domain"
)

// ManageAgent dispatches the manage_agent actions (spec.md §6):
// register|assign|get|list|update|unregister|rebalance.
func (f *Facade) ManageAgent(action string, args map[string]any) Result {
	switch action {
	case "register":
		return f.agentRegister(args)
	case "assign":
		return f.agentAssign(args)
	case "get":
		return f.agentGet(args)
	case "list":
		return f.agentList(args)
	case "update":
		return f.agentUpdate(args)
	case "unregister":
		return f.agentUnregister(args)
	case "rebalance":
		return f.projectRebalanceAgents(args)
	default:
		return fail(domain.NewError(domain.ErrValidation, "unknown manage_agent action %q", action))
	}
}

func (f *Facade) agentRegister(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	agentID, err := requireString(args, "agent_id")
	if err != nil {
		return fail(err)
	}
	agent := &domain.Agent{
		ID:            domain.AgentID(agentID),
		Name:          optionalString(args, "name", agentID),
		CallAgent:     optionalString(args, "call_agent", ""),
		Capabilities:  stringList(args, "capabilities"),
		WorkloadLimit: optionalInt(args, "workload_limit", 0),
	}
	if err := f.Projects.RegisterAgent(domain.ProjectID(projectID), agent); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"agent": agent})
}

func (f *Facade) agentAssign(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	agentID, err := requireString(args, "agent_id")
	if err != nil {
		return fail(err)
	}
	treeID, err := requireString(args, "task_tree_id")
	if err != nil {
		return fail(err)
	}
	if err := f.Projects.AssignAgentToTree(domain.ProjectID(projectID), domain.AgentID(agentID), domain.TreeID(treeID)); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (f *Facade) agentGet(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	agentID, err := requireString(args, "agent_id")
	if err != nil {
		return fail(err)
	}
	agents, err := f.Projects.ListAgents(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	for _, a := range agents {
		if a.ID == domain.AgentID(agentID) {
			return ok(map[string]any{"agent": a})
		}
	}
	return fail(domain.NewError(domain.ErrNotFound, "agent %s not found in project %s", agentID, projectID))
}

func (f *Facade) agentList(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	agents, err := f.Projects.ListAgents(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"agents": agents, "count": len(agents)})
}

func (f *Facade) agentUpdate(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	agentID, err := requireString(args, "agent_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	agent, ok2 := p.Agents[domain.AgentID(agentID)]
	if !ok2 {
		return fail(domain.NewError(domain.ErrNotFound, "agent %s not found in project %s", agentID, projectID))
	}
	if v, ok := args["name"].(string); ok {
		agent.Name = v
	}
	if v, ok := args["call_agent"].(string); ok {
		agent.CallAgent = v
	}
	if _, has := args["capabilities"]; has {
		agent.Capabilities = stringList(args, "capabilities")
	}
	if v, ok := args["workload_limit"].(float64); ok {
		agent.WorkloadLimit = int(v)
	}
	agent.LastSeenAt = f.now()
	if err := f.saveProject(p); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"agent": agent})
}

func (f *Facade) agentUnregister(args map[string]any) Result {
	projectID, err := requireString(args, "project_id")
	if err != nil {
		return fail(err)
	}
	agentID, err := requireString(args, "agent_id")
	if err != nil {
		return fail(err)
	}
	p, err := f.Projects.GetProject(domain.ProjectID(projectID))
	if err != nil {
		return fail(err)
	}
	if _, ok := p.Agents[domain.AgentID(agentID)]; !ok {
		return fail(domain.NewError(domain.ErrNotFound, "agent %s not found in project %s", agentID, projectID))
	}
	for _, tree := range p.Trees {
		if tree.AssignedAgent == domain.AgentID(agentID) {
			tree.AssignedAgent = ""
		}
	}
	delete(p.Agents, domain.AgentID(agentID))
	p.UpdatedAt = f.now()
	if err := f.saveProject(p); err != nil {
		return fail(err)
	}
	return ok(nil)
}


