// Package taskstore is the per-(user,project,tree) JSON-backed task
// repository: CRUD, filter/search, dependency management, and the
// next-actionable-task algorithm.
package taskstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/fsutil"
)

// Scope identifies one isolated task collection.
type Scope struct {
	UserID    domain.UserID
	ProjectID domain.ProjectID
	TreeID    domain.TreeID
}

func (s Scope) key() string {
	return fmt.Sprintf("%s/%s/%s", s.UserID, s.ProjectID, s.TreeID)
}

// fileMetadata mirrors the tasks.json "metadata" envelope from spec.md §6.
type fileMetadata struct {
	Version     int       `json:"version"`
	ProjectID   string    `json:"project_id"`
	TaskTreeID  string    `json:"task_tree_id"`
	UserID      string    `json:"user_id"`
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"last_updated"`
}

type tasksFile struct {
	Tasks    []*domain.Task `json:"tasks"`
	Metadata fileMetadata   `json:"metadata"`
}

// Store is a filesystem-backed TaskStore rooted at a rules directory, laid
// out as <root>/tasks/<user_id>/<project_id>/<tree_id>/tasks.json.
type Store struct {
	root  string
	locks *fsutil.ScopeLocks
	now   func() time.Time
}

// New returns a Store rooted at root (the project's .cursor/rules directory).
func New(root string) *Store {
	return &Store{root: root, locks: fsutil.NewScopeLocks(), now: time.Now}
}

func (st *Store) path(scope Scope) string {
	return filepath.Join(st.root, "tasks", string(scope.UserID), string(scope.ProjectID), string(scope.TreeID), "tasks.json")
}

func (st *Store) load(scope Scope) (*tasksFile, error) {
	p := st.path(scope)
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		now := st.now()
		return &tasksFile{Metadata: fileMetadata{
			Version: 1, ProjectID: string(scope.ProjectID), TaskTreeID: string(scope.TreeID),
			UserID: string(scope.UserID), Created: now, LastUpdated: now,
		}}, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrIOFailure, err, "read tasks file %s", p)
	}
	var tf tasksFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, domain.WrapError(domain.ErrFormatError, err, "parse tasks file %s", p)
	}
	return &tf, nil
}

func (st *Store) save(scope Scope, tf *tasksFile) error {
	tf.Metadata.LastUpdated = st.now()
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "marshal tasks file")
	}
	if err := fsutil.WriteFileAtomic(st.path(scope), data, 0o644); err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "write tasks file %s", st.path(scope))
	}
	return nil
}

func (st *Store) withLock(scope Scope, fn func(*tasksFile) (bool, error)) error {
	mu := st.locks.For(scope.key())
	mu.Lock()
	defer mu.Unlock()

	tf, err := st.load(scope)
	if err != nil {
		return err
	}
	dirty, err := fn(tf)
	if err != nil {
		return err
	}
	if dirty {
		return st.save(scope, tf)
	}
	return nil
}

func findIndex(tf *tasksFile, id domain.TaskID) int {
	for i, t := range tf.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FindByID looks up a task by id within scope.
func (st *Store) FindByID(scope Scope, id domain.TaskID) (*domain.Task, error) {
	var found *domain.Task
	err := st.withLock(scope, func(tf *tasksFile) (bool, error) {
		if i := findIndex(tf, id); i >= 0 {
			copyTask := *tf.Tasks[i]
			found = &copyTask
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domain.NewError(domain.ErrNotFound, "task %s not found", id)
	}
	return found, nil
}

// Filters narrows FindAll results. Zero-value fields are not applied.
type Filters struct {
	Status    domain.Status
	Priority  domain.Priority
	Assignees []string
	Labels    []string
	Limit     int
}

func intersects(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if set[w] {
			return true
		}
	}
	return false
}

// FindAll returns tasks in scope matching filters, ordered by creation
// time, truncated to Limit.
func (st *Store) FindAll(scope Scope, f Filters) ([]*domain.Task, error) {
	var out []*domain.Task
	err := st.withLock(scope, func(tf *tasksFile) (bool, error) {
		for _, t := range tf.Tasks {
			if f.Status != "" && t.Status != f.Status {
				continue
			}
			if f.Priority != "" && t.Priority != f.Priority {
				continue
			}
			if !intersects(t.Assignees, f.Assignees) {
				continue
			}
			if !intersects(t.Labels, f.Labels) {
				continue
			}
			copyTask := *t
			out = append(out, &copyTask)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	sortByCreatedAt(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

// Save upserts a task, refreshing updated_at and rejecting dependency
// cycles, per I3/I4.
func (st *Store) Save(scope Scope, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		lookup := func(id domain.TaskID) (*domain.Task, bool) {
			if i := findIndex(tf, id); i >= 0 {
				return tf.Tasks[i], true
			}
			return nil, false
		}
		for _, dep := range task.Dependencies {
			if domain.WouldCreateCycle(task.ID, dep, lookup) {
				return false, domain.NewError(domain.ErrDependencyCycle, "adding dependency %s to task %s would create a cycle", dep, task.ID)
			}
		}
		now := st.now()
		task.UpdatedAt = now
		if i := findIndex(tf, task.ID); i >= 0 {
			if task.CreatedAt.IsZero() {
				task.CreatedAt = tf.Tasks[i].CreatedAt
			}
			tf.Tasks[i] = task
		} else {
			if task.CreatedAt.IsZero() {
				task.CreatedAt = now
			}
			tf.Tasks = append(tf.Tasks, task)
		}
		return true, nil
	})
}

// Delete removes a task by id.
func (st *Store) Delete(scope Scope, id domain.TaskID) error {
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, id)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", id)
		}
		tf.Tasks = append(tf.Tasks[:i], tf.Tasks[i+1:]...)
		return true, nil
	})
}

// Complete marks a task (and all its subtasks) done, per I2.
func (st *Store) Complete(scope Scope, id domain.TaskID) error {
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, id)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", id)
		}
		tf.Tasks[i].Complete()
		tf.Tasks[i].UpdatedAt = st.now()
		return true, nil
	})
}

// AddDependency adds dep to task id's dependency list, rejecting self- and
// cyclic references (I3).
func (st *Store) AddDependency(scope Scope, id, dep domain.TaskID) error {
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, id)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", id)
		}
		task := tf.Tasks[i]
		if task.HasDependency(dep) {
			return false, nil
		}
		lookup := func(tid domain.TaskID) (*domain.Task, bool) {
			if j := findIndex(tf, tid); j >= 0 {
				return tf.Tasks[j], true
			}
			return nil, false
		}
		if domain.WouldCreateCycle(id, dep, lookup) {
			return false, domain.NewError(domain.ErrDependencyCycle, "adding dependency %s to task %s would create a cycle", dep, id)
		}
		task.Dependencies = append(task.Dependencies, dep)
		task.UpdatedAt = st.now()
		return true, nil
	})
}

// RemoveDependency removes dep from task id's dependency list.
func (st *Store) RemoveDependency(scope Scope, id, dep domain.TaskID) error {
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, id)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", id)
		}
		task := tf.Tasks[i]
		kept := task.Dependencies[:0]
		for _, d := range task.Dependencies {
			if d != dep {
				kept = append(kept, d)
			}
		}
		task.Dependencies = kept
		task.UpdatedAt = st.now()
		return true, nil
	})
}

// Search matches case-insensitive substrings against title, description,
// details, up to limit results (0 = unlimited).
func (st *Store) Search(scope Scope, query string, limit int) ([]*domain.Task, error) {
	q := strings.ToLower(query)
	var out []*domain.Task
	err := st.withLock(scope, func(tf *tasksFile) (bool, error) {
		for _, t := range tf.Tasks {
			if strings.Contains(strings.ToLower(t.Title), q) ||
				strings.Contains(strings.ToLower(t.Description), q) ||
				strings.Contains(strings.ToLower(t.Details), q) {
				copyTask := *t
				out = append(out, &copyTask)
				if limit > 0 && len(out) >= limit {
					break
				}
			}
		}
		return false, nil
	})
	return out, err
}

// NextActionable runs the next-actionable-task algorithm (spec.md §4.1)
// over the scope's current tasks.
func (st *Store) NextActionable(scope Scope) (*domain.Task, error) {
	var result *domain.Task
	err := st.withLock(scope, func(tf *tasksFile) (bool, error) {
		done := make(map[domain.TaskID]bool)
		for _, t := range tf.Tasks {
			if t.Status == domain.StatusDone {
				done[t.ID] = true
			}
		}
		got := domain.NextActionable(tf.Tasks, func(id domain.TaskID) bool { return done[id] })
		if got != nil {
			copyTask := *got
			result = &copyTask
		}
		return false, nil
	})
	return result, err
}

// sortByCreatedAt is a small helper retained for callers that want a stable
// listing order independent of on-disk order.
func sortByCreatedAt(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}


