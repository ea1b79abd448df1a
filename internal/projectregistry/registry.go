// Package projectregistry owns Projects, Trees, Agents, and tree↔agent
// assignments, persisted to a single process-wide projects.json.
package projectregistry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/fsutil"
)

// registryFile is the on-disk shape of projects.json.
type registryFile struct {
	Projects map[domain.ProjectID]*domain.Project `json:"projects"`
}

// Registry is a filesystem-backed ProjectRegistry. Every mutation takes the
// single process-wide mutex and rewrites the whole file, per spec.md §4.3
// ("every mutation writes the whole file").
type Registry struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a Registry backed by <root>/brain/projects.json.
func New(root string) *Registry {
	return &Registry{path: filepath.Join(root, "brain", "projects.json"), now: time.Now}
}

func (r *Registry) load() (*registryFile, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return &registryFile{Projects: map[domain.ProjectID]*domain.Project{}}, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrIOFailure, err, "read projects registry")
	}
	var rf registryFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, domain.WrapError(domain.ErrFormatError, err, "parse projects registry")
	}
	if rf.Projects == nil {
		rf.Projects = map[domain.ProjectID]*domain.Project{}
	}
	return &rf, nil
}

func (r *Registry) save(rf *registryFile) error {
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "marshal projects registry")
	}
	if err := fsutil.WriteFileAtomic(r.path, data, 0o644); err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "write projects registry")
	}
	return nil
}

func (r *Registry) withLock(fn func(*registryFile) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rf, err := r.load()
	if err != nil {
		return err
	}
	dirty, err := fn(rf)
	if err != nil {
		return err
	}
	if dirty {
		return r.save(rf)
	}
	return nil
}

// CreateProject creates a project, which carries a main tree from birth (P1).
func (r *Registry) CreateProject(id domain.ProjectID, name, description string) (*domain.Project, error) {
	var proj *domain.Project
	err := r.withLock(func(rf *registryFile) (bool, error) {
		if _, exists := rf.Projects[id]; exists {
			return false, domain.NewError(domain.ErrDuplicateID, "project %s already exists", id)
		}
		now := r.now()
		p := domain.NewProject(id, name, now)
		p.Description = description
		rf.Projects[id] = p
		proj = p
		return true, nil
	})
	return proj, err
}

// GetProject returns a project by id.
func (r *Registry) GetProject(id domain.ProjectID) (*domain.Project, error) {
	var proj *domain.Project
	err := r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[id]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", id)
		}
		proj = p
		return false, nil
	})
	return proj, err
}

// Replace overwrites a project wholesale, for callers (like agentorch's
// health/sync/rebalance reports) that load a project, mutate it in place,
// and need the result persisted.
func (r *Registry) Replace(p *domain.Project) error {
	return r.withLock(func(rf *registryFile) (bool, error) {
		if _, ok := rf.Projects[p.ID]; !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", p.ID)
		}
		rf.Projects[p.ID] = p
		return true, nil
	})
}

// ListProjects returns all projects.
func (r *Registry) ListProjects() ([]*domain.Project, error) {
	var out []*domain.Project
	err := r.withLock(func(rf *registryFile) (bool, error) {
		for _, p := range rf.Projects {
			out = append(out, p)
		}
		return false, nil
	})
	return out, err
}

// UpdateProject applies name/description changes.
func (r *Registry) UpdateProject(id domain.ProjectID, name, description *string) (*domain.Project, error) {
	var proj *domain.Project
	err := r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[id]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", id)
		}
		if name != nil {
			p.Name = *name
		}
		if description != nil {
			p.Description = *description
		}
		p.UpdatedAt = r.now()
		proj = p
		return true, nil
	})
	return proj, err
}

// CreateTree adds a named tree to a project.
func (r *Registry) CreateTree(projectID domain.ProjectID, treeID domain.TreeID, name, description string) (*domain.Tree, error) {
	var tree *domain.Tree
	err := r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[projectID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", projectID)
		}
		if _, exists := p.Trees[treeID]; exists {
			return false, domain.NewError(domain.ErrDuplicateID, "tree %s already exists in project %s", treeID, projectID)
		}
		now := r.now()
		t := &domain.Tree{ID: treeID, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
		p.Trees[treeID] = t
		p.UpdatedAt = now
		tree = t
		return true, nil
	})
	return tree, err
}

// TaskCounter reports whether a tree has tasks, used by DeleteTree's force
// gate. Callers pass a closure bound to their taskstore instance.
type TaskCounter func(projectID domain.ProjectID, treeID domain.TreeID) (int, error)

// DeleteTree removes a tree: refuses "main" and non-empty trees unless
// force is set. Deletion of task/context directories is the caller's
// responsibility (ToolFacade composes this with taskstore/contextstore).
func (r *Registry) DeleteTree(projectID domain.ProjectID, treeID domain.TreeID, force bool, countTasks TaskCounter) error {
	return r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[projectID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", projectID)
		}
		if treeID == domain.MainTreeID && !force {
			return false, domain.NewError(domain.ErrValidation, "tree %q is the project's main tree and cannot be deleted without force", treeID)
		}
		if !force && countTasks != nil {
			n, err := countTasks(projectID, treeID)
			if err != nil {
				return false, err
			}
			if n > 0 {
				return false, domain.NewError(domain.ErrValidation, "tree %q holds %d tasks; pass force to delete anyway", treeID, n)
			}
		}
		if err := p.DeleteTree(treeID, force); err != nil {
			return false, err
		}
		p.UpdatedAt = r.now()
		return true, nil
	})
}

// DeleteProject removes a project entirely (cascades across all trees).
func (r *Registry) DeleteProject(id domain.ProjectID, force bool, countTasks TaskCounter) error {
	return r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[id]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", id)
		}
		if !force && countTasks != nil {
			for treeID := range p.Trees {
				n, err := countTasks(id, treeID)
				if err != nil {
					return false, err
				}
				if n > 0 {
					return false, domain.NewError(domain.ErrValidation, "project %q has tasks in tree %q; pass force to delete anyway", id, treeID)
				}
			}
		}
		delete(rf.Projects, id)
		return true, nil
	})
}

// ClearTree empties a tree's task id list without removing the tree itself.
func (r *Registry) ClearTree(projectID domain.ProjectID, treeID domain.TreeID) error {
	return r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[projectID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", projectID)
		}
		t, ok := p.Trees[treeID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "tree %s not found in project %s", treeID, projectID)
		}
		t.TaskIDs = nil
		t.UpdatedAt = r.now()
		p.UpdatedAt = r.now()
		return true, nil
	})
}

// GetTreeStatus summarizes one tree's task composition.
func (r *Registry) GetTreeStatus(projectID domain.ProjectID, treeID domain.TreeID, statusCounts map[domain.Status]int, total int) (*domain.TreeStatus, error) {
	var status *domain.TreeStatus
	err := r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[projectID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", projectID)
		}
		t, ok := p.Trees[treeID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "tree %s not found in project %s", treeID, projectID)
		}
		status = &domain.TreeStatus{TreeID: treeID, TotalTasks: total, StatusCounts: statusCounts, AssignedAgent: t.AssignedAgent}
		return false, nil
	})
	return status, err
}

// RegisterAgent adds (or re-registers, refreshing last-seen) an agent to a
// project.
func (r *Registry) RegisterAgent(projectID domain.ProjectID, agent *domain.Agent) error {
	return r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[projectID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", projectID)
		}
		now := r.now()
		if existing, ok := p.Agents[agent.ID]; ok {
			existing.Name = agent.Name
			existing.CallAgent = agent.CallAgent
			existing.Capabilities = agent.Capabilities
			existing.WorkloadLimit = agent.WorkloadLimit
			existing.LastSeenAt = now
		} else {
			agent.RegisteredAt = now
			agent.LastSeenAt = now
			p.Agents[agent.ID] = agent
		}
		p.UpdatedAt = now
		return true, nil
	})
}

// AssignAgentToTree assigns a registered agent to an existing tree (P2/P3).
func (r *Registry) AssignAgentToTree(projectID domain.ProjectID, agentID domain.AgentID, treeID domain.TreeID) error {
	return r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[projectID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", projectID)
		}
		if err := p.AssignAgentToTree(agentID, treeID); err != nil {
			return false, err
		}
		p.UpdatedAt = r.now()
		return true, nil
	})
}

// ListAgents returns all agents registered to a project.
func (r *Registry) ListAgents(projectID domain.ProjectID) ([]*domain.Agent, error) {
	var out []*domain.Agent
	err := r.withLock(func(rf *registryFile) (bool, error) {
		p, ok := rf.Projects[projectID]
		if !ok {
			return false, domain.NewError(domain.ErrNotFound, "project %s not found", projectID)
		}
		for _, a := range p.Agents {
			out = append(out, a)
		}
		return false, nil
	})
	return out, err
}


