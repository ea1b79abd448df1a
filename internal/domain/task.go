package domain

import (
	"sort"
	"time"
)

// Status is a Task's lifecycle state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusReview     Status = "review"
	StatusTesting    Status = "testing"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the status ends the task's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

func (s Status) valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked, StatusReview, StatusTesting, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Priority is a Task's priority, ordered critical > urgent > high > medium > low.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// Rank returns the priority's position for ordering (higher = more urgent).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 5
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) valid() bool { return p.Rank() > 0 }

// EstimatedEffort is a coarse t-shirt-size estimate of task size.
type EstimatedEffort string

const (
	EffortQuick  EstimatedEffort = "quick"
	EffortShort  EstimatedEffort = "short"
	EffortSmall  EstimatedEffort = "small"
	EffortMedium EstimatedEffort = "medium"
	EffortLarge  EstimatedEffort = "large"
	EffortXLarge EstimatedEffort = "xlarge"
	EffortEpic   EstimatedEffort = "epic"
	EffortMassive EstimatedEffort = "massive"
)

func (e EstimatedEffort) valid() bool {
	switch e {
	case "", EffortQuick, EffortShort, EffortSmall, EffortMedium, EffortLarge, EffortXLarge, EffortEpic, EffortMassive:
		return true
	}
	return false
}

// ValidLabels is the closed vocabulary Task.Labels is validated against.
var ValidLabels = map[string]bool{
	"bug": true, "feature": true, "enhancement": true, "refactor": true,
	"documentation": true, "testing": true, "security": true, "performance": true,
	"infrastructure": true, "urgent": true, "blocked": true, "research": true,
	"design": true, "api": true, "frontend": true, "backend": true,
	"database": true, "devops": true, "compliance": true, "tech-debt": true,
}

// Subtask is a lightweight child unit of work tracked within a Task.
type Subtask struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Assignee       string    `json:"assignee,omitempty"`
	Completed      bool      `json:"completed"`
	Status         Status    `json:"status,omitempty"`
	ProgressNotes  string    `json:"progress_notes,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// Task is the core unit of work. See spec.md §3.
type Task struct {
	ID             TaskID          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Status         Status          `json:"status"`
	Priority       Priority        `json:"priority"`
	Details        string          `json:"details,omitempty"`
	EstimatedEffort EstimatedEffort `json:"estimated_effort,omitempty"`
	Assignees      []string        `json:"assignees,omitempty"`
	Labels         []string        `json:"labels,omitempty"`
	DueDate        string          `json:"due_date,omitempty"` // ISO date, optional
	Dependencies   []TaskID        `json:"dependencies,omitempty"`
	Subtasks       []Subtask       `json:"subtasks,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ContextID      ContextID       `json:"context_id,omitempty"`
	ProjectID      ProjectID       `json:"project_id"`
}

// Validate checks structural invariants that do not require knowledge of
// sibling tasks (non-empty title, closed enums, no self-dependency).
func (t *Task) Validate() error {
	if t.Title == "" {
		return NewError(ErrValidation, "task title must not be empty")
	}
	if t.Status != "" && !t.Status.valid() {
		return NewError(ErrValidation, "invalid status %q", t.Status)
	}
	if t.Priority != "" && !t.Priority.valid() {
		return NewError(ErrValidation, "invalid priority %q", t.Priority)
	}
	if !t.EstimatedEffort.valid() {
		return NewError(ErrValidation, "invalid estimated_effort %q", t.EstimatedEffort)
	}
	for _, l := range t.Labels {
		if !ValidLabels[l] {
			return NewError(ErrValidation, "invalid label %q", l)
		}
	}
	for _, d := range t.Dependencies {
		if d == t.ID {
			return NewError(ErrDependencyCycle, "task %s cannot depend on itself", t.ID)
		}
	}
	return nil
}

// SubtaskProgress returns (completed, total); percentage is 0 when total=0,
// matching I5.
func (t *Task) SubtaskProgress() (completed, total int, percent float64) {
	total = len(t.Subtasks)
	for _, s := range t.Subtasks {
		if s.Completed {
			completed++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return completed, total, float64(completed) / float64(total) * 100
}

// Complete marks the task done and, per I2, marks all subtasks completed
// atomically — even ones mid-progress (flagged as a carried-forward
// potential bug in spec.md §9, not fixed).
func (t *Task) Complete() {
	for i := range t.Subtasks {
		t.Subtasks[i].Completed = true
		t.Subtasks[i].Status = StatusDone
	}
	t.Status = StatusDone
}

// HasDependency reports whether id is already a dependency.
func (t *Task) HasDependency(id TaskID) bool {
	for _, d := range t.Dependencies {
		if d == id {
			return true
		}
	}
	return false
}

// TaskLookup resolves a TaskID to a *Task within a candidate set, used by
// dependency-cycle detection.
type TaskLookup func(TaskID) (*Task, bool)

// WouldCreateCycle reports whether adding `dep` as a dependency of `id`
// would create a cycle in the dependency DAG, per I3. It performs a DFS
// from dep following dependency edges, looking for a path back to id.
func WouldCreateCycle(id, dep TaskID, lookup TaskLookup) bool {
	if id == dep {
		return true
	}
	visited := make(map[TaskID]bool)
	var dfs func(cur TaskID) bool
	dfs = func(cur TaskID) bool {
		if cur == id {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		t, ok := lookup(cur)
		if !ok {
			return false
		}
		for _, d := range t.Dependencies {
			if dfs(d) {
				return true
			}
		}
		return false
	}
	return dfs(dep)
}

// NextActionable implements spec.md §4.1's algorithm: of all non-terminal
// tasks whose dependencies are all done, pick the one maximizing priority,
// breaking ties by earliest due_date then oldest created_at.
func NextActionable(tasks []*Task, doneStatus func(TaskID) bool) *Task {
	var candidates []*Task
	for _, t := range tasks {
		if t.Status.IsTerminal() {
			continue
		}
		allDepsDone := true
		for _, d := range t.Dependencies {
			if !doneStatus(d) {
				allDepsDone = false
				break
			}
		}
		if allDepsDone {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		ad, bd := a.DueDate, b.DueDate
		if ad != bd {
			if ad == "" {
				return false
			}
			if bd == "" {
				return true
			}
			return ad < bd
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return candidates[0]
}


