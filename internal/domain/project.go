package domain

import "time"

// Agent is a declarative role record: what an agent is capable of and which
// tree it is currently assigned to. AgentOrchestrator operates over these as
// pure snapshots, never owning a live process.
type Agent struct {
	ID            AgentID   `json:"id"`
	Name          string    `json:"name"`
	CallAgent     string    `json:"call_agent,omitempty"`
	Capabilities  []string  `json:"capabilities,omitempty"`
	AssignedTrees []TreeID  `json:"assigned_trees,omitempty"`
	WorkloadLimit int       `json:"workload_limit,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
	LastSeenAt    time.Time `json:"last_seen_at,omitempty"`
}

// ResolveCallHandle returns CallAgent if set, else the id's default handle.
func (a *Agent) ResolveCallHandle() string {
	if a.CallAgent != "" {
		return a.CallAgent
	}
	return a.ID.CallAgentHandle()
}

// Tree is a named subdivision of a project's task graph. Every project has
// at least the "main" tree (MainTreeID), which cannot be deleted without a
// force flag (invariant P2).
type Tree struct {
	ID          TreeID    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	AssignedAgent AgentID `json:"assigned_agent,omitempty"`
	TaskIDs     []TaskID  `json:"task_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsMain reports whether this is the project's reserved main tree.
func (t *Tree) IsMain() bool { return t.ID == MainTreeID }

// Project is the top-level container for trees and agents. Invariant P1:
// a project always has at least a main tree. Invariant P3: an agent can be
// assigned to more than one tree, but only within the same project.
type Project struct {
	ID          ProjectID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Trees       map[TreeID]*Tree `json:"trees"`
	Agents      map[AgentID]*Agent `json:"agents"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewProject constructs a Project already carrying its mandatory main tree,
// satisfying P1 from the moment of creation.
func NewProject(id ProjectID, name string, now time.Time) *Project {
	return &Project{
		ID:   id,
		Name: name,
		Trees: map[TreeID]*Tree{
			MainTreeID: {ID: MainTreeID, Name: "main", CreatedAt: now, UpdatedAt: now},
		},
		Agents:    map[AgentID]*Agent{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DeleteTree removes a tree, refusing to remove main unless force is set,
// per P2.
func (p *Project) DeleteTree(id TreeID, force bool) error {
	if id == MainTreeID && !force {
		return NewError(ErrValidation, "tree %q is the project's main tree and cannot be deleted without force", id)
	}
	if _, ok := p.Trees[id]; !ok {
		return NewError(ErrNotFound, "tree %q not found in project %q", id, p.ID)
	}
	delete(p.Trees, id)
	for _, a := range p.Agents {
		a.AssignedTrees = removeTreeID(a.AssignedTrees, id)
	}
	return nil
}

func removeTreeID(s []TreeID, id TreeID) []TreeID {
	out := s[:0]
	for _, t := range s {
		if t != id {
			out = append(out, t)
		}
	}
	return out
}

// AssignAgentToTree assigns an agent to a tree, satisfying P3 by allowing an
// agent to hold assignments across multiple trees in the same project.
func (p *Project) AssignAgentToTree(agentID AgentID, treeID TreeID) error {
	a, ok := p.Agents[agentID]
	if !ok {
		return NewError(ErrNotFound, "agent %q not registered in project %q", agentID, p.ID)
	}
	tr, ok := p.Trees[treeID]
	if !ok {
		return NewError(ErrNotFound, "tree %q not found in project %q", treeID, p.ID)
	}
	for _, t := range a.AssignedTrees {
		if t == treeID {
			return nil
		}
	}
	a.AssignedTrees = append(a.AssignedTrees, treeID)
	tr.AssignedAgent = agentID
	return nil
}

// TreeStatus summarizes a tree's task composition for get_tree_status.
type TreeStatus struct {
	TreeID        TreeID         `json:"tree_id"`
	TotalTasks    int            `json:"total_tasks"`
	StatusCounts  map[Status]int `json:"status_counts"`
	AssignedAgent AgentID        `json:"assigned_agent,omitempty"`
}


