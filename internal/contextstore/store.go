// Package contextstore is the per-task structured context repository: one
// JSON file per task plus a per-tree index, dot-path get/update, deep
// merge, and insight/progress logs.
package contextstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/fsutil"
)

// Scope identifies one isolated context collection, mirroring taskstore.Scope.
type Scope struct {
	UserID    domain.UserID
	ProjectID domain.ProjectID
	TreeID    domain.TreeID
}

func (s Scope) key() string {
	return fmt.Sprintf("%s/%s/%s", s.UserID, s.ProjectID, s.TreeID)
}

// indexEntry is the per-tree index record kept alongside the individual
// context files. It holds the task id, file_path and updated_at only; title,
// status and assignees are not stored in the index.
type indexEntry struct {
	TaskID     domain.TaskID `json:"task_id"`
	FilePath   string        `json:"file_path"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type contextIndex struct {
	Entries map[domain.TaskID]indexEntry `json:"entries"`
}

// Store is a filesystem-backed ContextStore rooted at a rules directory,
// laid out as <root>/contexts/<user_id>/<project_id>/<tree_id>/context_<task_id>.json
// plus contexts.json as the per-tree index.
type Store struct {
	root  string
	locks *fsutil.ScopeLocks
	now   func() time.Time
}

// New returns a Store rooted at root (the project's .cursor/rules directory).
func New(root string) *Store {
	return &Store{root: root, locks: fsutil.NewScopeLocks(), now: time.Now}
}

func (st *Store) dir(scope Scope) string {
	return filepath.Join(st.root, "contexts", string(scope.UserID), string(scope.ProjectID), string(scope.TreeID))
}

func (st *Store) contextPath(scope Scope, taskID domain.TaskID) string {
	return filepath.Join(st.dir(scope), fmt.Sprintf("context_%s.json", taskID))
}

func (st *Store) indexPath(scope Scope) string {
	return filepath.Join(st.dir(scope), "contexts.json")
}

func (st *Store) loadIndex(scope Scope) (*contextIndex, error) {
	data, err := os.ReadFile(st.indexPath(scope))
	if os.IsNotExist(err) {
		return &contextIndex{Entries: map[domain.TaskID]indexEntry{}}, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrIOFailure, err, "read context index")
	}
	var idx contextIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, domain.WrapError(domain.ErrFormatError, err, "parse context index")
	}
	if idx.Entries == nil {
		idx.Entries = map[domain.TaskID]indexEntry{}
	}
	return &idx, nil
}

func (st *Store) saveIndex(scope Scope, idx *contextIndex) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "marshal context index")
	}
	return fsutil.WriteFileAtomic(st.indexPath(scope), data, 0o644)
}

func (st *Store) withLock(scope Scope, fn func() error) error {
	mu := st.locks.For(scope.key())
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// Exists reports whether a context file already exists for taskID.
func (st *Store) Exists(scope Scope, taskID domain.TaskID) (bool, error) {
	var exists bool
	err := st.withLock(scope, func() error {
		_, err := os.Stat(st.contextPath(scope, taskID))
		exists = err == nil
		if err != nil && !os.IsNotExist(err) {
			return domain.WrapError(domain.ErrIOFailure, err, "stat context file")
		}
		return nil
	})
	return exists, err
}

// Create makes a new context for task, gated per spec.md §3: only while
// task.Status==todo, no subtask completed, and no existing context file.
func (st *Store) Create(scope Scope, task *domain.Task) (*domain.ContextRecord, error) {
	var rec *domain.ContextRecord
	err := st.withLock(scope, func() error {
		_, statErr := os.Stat(st.contextPath(scope, task.ID))
		already := statErr == nil
		if err := domain.CanCreateFor(task, already); err != nil {
			return err
		}
		now := st.now()
		rec = &domain.ContextRecord{
			ID:        domain.ContextID(task.ID),
			TaskID:    task.ID,
			CreatedAt: now,
			UpdatedAt: now,
			Metadata: map[string]any{
				"task_id": string(task.ID), "project_id": string(task.ProjectID),
				"status": string(task.Status), "priority": string(task.Priority),
			},
		}
		return st.writeRecord(scope, rec)
	})
	return rec, err
}

func (st *Store) writeRecord(scope Scope, rec *domain.ContextRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "marshal context")
	}
	if err := fsutil.WriteFileAtomic(st.contextPath(scope, rec.TaskID), data, 0o644); err != nil {
		return domain.WrapError(domain.ErrIOFailure, err, "write context file")
	}
	idx, err := st.loadIndex(scope)
	if err != nil {
		return err
	}
	idx.Entries[rec.TaskID] = indexEntry{TaskID: rec.TaskID, FilePath: st.contextPath(scope, rec.TaskID), UpdatedAt: rec.UpdatedAt}
	return st.saveIndex(scope, idx)
}

// Get loads the context for taskID.
func (st *Store) Get(scope Scope, taskID domain.TaskID) (*domain.ContextRecord, error) {
	var rec *domain.ContextRecord
	err := st.withLock(scope, func() error {
		r, err := st.readRecord(scope, taskID)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	return rec, err
}

func (st *Store) readRecord(scope Scope, taskID domain.TaskID) (*domain.ContextRecord, error) {
	data, err := os.ReadFile(st.contextPath(scope, taskID))
	if os.IsNotExist(err) {
		return nil, domain.NewError(domain.ErrNotFound, "context for task %s not found", taskID)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrIOFailure, err, "read context file")
	}
	var rec domain.ContextRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, domain.WrapError(domain.ErrFormatError, err, "parse context file")
	}
	return &rec, nil
}

// Update replaces the full context record (refreshing updated_at).
func (st *Store) Update(scope Scope, rec *domain.ContextRecord) error {
	return st.withLock(scope, func() error {
		rec.UpdatedAt = st.now()
		return st.writeRecord(scope, rec)
	})
}

// Delete removes a context file and its index entry.
func (st *Store) Delete(scope Scope, taskID domain.TaskID) error {
	return st.withLock(scope, func() error {
		if err := os.Remove(st.contextPath(scope, taskID)); err != nil && !os.IsNotExist(err) {
			return domain.WrapError(domain.ErrIOFailure, err, "delete context file")
		}
		idx, err := st.loadIndex(scope)
		if err != nil {
			return err
		}
		delete(idx.Entries, taskID)
		return st.saveIndex(scope, idx)
	})
}

// List returns the context records for every task in scope's index.
func (st *Store) List(scope Scope) ([]*domain.ContextRecord, error) {
	var out []*domain.ContextRecord
	err := st.withLock(scope, func() error {
		idx, err := st.loadIndex(scope)
		if err != nil {
			return err
		}
		for taskID := range idx.Entries {
			rec, err := st.readRecord(scope, taskID)
			if err != nil {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// GetProperty resolves a dot-path against the task's context.
func (st *Store) GetProperty(scope Scope, taskID domain.TaskID, path string) (any, error) {
	rec, err := st.Get(scope, taskID)
	if err != nil {
		return nil, err
	}
	v, ok := rec.GetProperty(path)
	if !ok {
		return nil, domain.NewError(domain.ErrPathNotFound, "path %q not found in context for task %s", path, taskID)
	}
	return v, nil
}

// UpdateProperty sets a dot-path value and persists the record.
func (st *Store) UpdateProperty(scope Scope, taskID domain.TaskID, path string, value any) error {
	return st.withLock(scope, func() error {
		rec, err := st.readRecord(scope, taskID)
		if err != nil {
			return err
		}
		if err := rec.UpdateProperty(path, value); err != nil {
			return err
		}
		rec.UpdatedAt = st.now()
		return st.writeRecord(scope, rec)
	})
}

// Merge deep-merges patch into the named section and persists the record.
func (st *Store) Merge(scope Scope, taskID domain.TaskID, section string, patch map[string]any) error {
	return st.withLock(scope, func() error {
		rec, err := st.readRecord(scope, taskID)
		if err != nil {
			return err
		}
		if err := rec.MergeSection(section, patch); err != nil {
			return err
		}
		rec.UpdatedAt = st.now()
		return st.writeRecord(scope, rec)
	})
}

// AddInsight appends a categorized note (insight/challenge/solution/
// decision; unknown categories default to "insight").
func (st *Store) AddInsight(scope Scope, taskID domain.TaskID, category, text string) error {
	switch category {
	case "insight", "challenge", "solution", "decision":
	default:
		category = "insight"
	}
	return st.withLock(scope, func() error {
		rec, err := st.readRecord(scope, taskID)
		if err != nil {
			return err
		}
		rec.AddNote(category, text, st.now())
		rec.UpdatedAt = st.now()
		return st.writeRecord(scope, rec)
	})
}

// AddProgress appends a progress log entry and updates the rolling session
// summary, matching the original's "Latest action: <action>" convention.
func (st *Store) AddProgress(scope Scope, taskID domain.TaskID, action string) error {
	return st.withLock(scope, func() error {
		rec, err := st.readRecord(scope, taskID)
		if err != nil {
			return err
		}
		rec.AddProgress(action, st.now())
		if rec.Custom == nil {
			rec.Custom = map[string]any{}
		}
		existing, _ := rec.Custom["current_session_summary"].(string)
		if existing == "" {
			rec.Custom["current_session_summary"] = "Latest action: " + action
		} else {
			rec.Custom["current_session_summary"] = existing + "\nLatest action: " + action
		}
		rec.UpdatedAt = st.now()
		return st.writeRecord(scope, rec)
	})
}

// UpdateNextSteps sets the custom.next_steps field.
func (st *Store) UpdateNextSteps(scope Scope, taskID domain.TaskID, steps []string) error {
	return st.withLock(scope, func() error {
		rec, err := st.readRecord(scope, taskID)
		if err != nil {
			return err
		}
		if rec.Custom == nil {
			rec.Custom = map[string]any{}
		}
		stepsAny := make([]any, len(steps))
		for i, s := range steps {
			stepsAny[i] = s
		}
		rec.Custom["next_steps"] = stepsAny
		rec.UpdatedAt = st.now()
		return st.writeRecord(scope, rec)
	})
}


