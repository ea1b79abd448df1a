package taskstore

import "github.com/dhafnck/taskforge/internal/domain"

// AddSubtask appends a subtask to the named task.
func (st *Store) AddSubtask(scope Scope, taskID domain.TaskID, sub domain.Subtask) error {
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, taskID)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", taskID)
		}
		if sub.Title == "" {
			return false, domain.NewError(domain.ErrValidation, "subtask title must not be empty")
		}
		now := st.now()
		sub.CreatedAt, sub.UpdatedAt = now, now
		tf.Tasks[i].Subtasks = append(tf.Tasks[i].Subtasks, sub)
		tf.Tasks[i].UpdatedAt = now
		return true, nil
	})
}

func findSubtask(task *domain.Task, subID string) int {
	for i, s := range task.Subtasks {
		if s.ID == subID {
			return i
		}
	}
	return -1
}

// CompleteSubtask marks a single subtask completed (does not touch the
// parent task's own status).
func (st *Store) CompleteSubtask(scope Scope, taskID domain.TaskID, subID string) error {
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, taskID)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", taskID)
		}
		j := findSubtask(tf.Tasks[i], subID)
		if j < 0 {
			return false, domain.NewError(domain.ErrNotFound, "subtask %s not found on task %s", subID, taskID)
		}
		now := st.now()
		tf.Tasks[i].Subtasks[j].Completed = true
		tf.Tasks[i].Subtasks[j].Status = domain.StatusDone
		tf.Tasks[i].Subtasks[j].UpdatedAt = now
		tf.Tasks[i].UpdatedAt = now
		return true, nil
	})
}

// ListSubtasks returns the subtasks of a task, along with its progress
// summary per I5.
func (st *Store) ListSubtasks(scope Scope, taskID domain.TaskID) ([]domain.Subtask, int, int, float64, error) {
	var subs []domain.Subtask
	var completed, total int
	var pct float64
	err := st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, taskID)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", taskID)
		}
		subs = append(subs, tf.Tasks[i].Subtasks...)
		completed, total, pct = tf.Tasks[i].SubtaskProgress()
		return false, nil
	})
	return subs, completed, total, pct, err
}

// SubtaskUpdate carries the optional fields an update_subtask call may set.
type SubtaskUpdate struct {
	Title         *string
	Description   *string
	Assignee      *string
	Status        *domain.Status
	ProgressNotes *string
}

// UpdateSubtask applies a partial update to one subtask.
func (st *Store) UpdateSubtask(scope Scope, taskID domain.TaskID, subID string, upd SubtaskUpdate) error {
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, taskID)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", taskID)
		}
		j := findSubtask(tf.Tasks[i], subID)
		if j < 0 {
			return false, domain.NewError(domain.ErrNotFound, "subtask %s not found on task %s", subID, taskID)
		}
		sub := &tf.Tasks[i].Subtasks[j]
		if upd.Title != nil {
			sub.Title = *upd.Title
		}
		if upd.Description != nil {
			sub.Description = *upd.Description
		}
		if upd.Assignee != nil {
			sub.Assignee = *upd.Assignee
		}
		if upd.Status != nil {
			sub.Status = *upd.Status
			sub.Completed = sub.Status == domain.StatusDone
		}
		if upd.ProgressNotes != nil {
			sub.ProgressNotes = *upd.ProgressNotes
		}
		now := st.now()
		sub.UpdatedAt = now
		tf.Tasks[i].UpdatedAt = now
		return true, nil
	})
}

// RemoveSubtask deletes one subtask from a task.
func (st *Store) RemoveSubtask(scope Scope, taskID domain.TaskID, subID string) error {
	return st.withLock(scope, func(tf *tasksFile) (bool, error) {
		i := findIndex(tf, taskID)
		if i < 0 {
			return false, domain.NewError(domain.ErrNotFound, "task %s not found", taskID)
		}
		j := findSubtask(tf.Tasks[i], subID)
		if j < 0 {
			return false, domain.NewError(domain.ErrNotFound, "subtask %s not found on task %s", subID, taskID)
		}
		tf.Tasks[i].Subtasks = append(tf.Tasks[i].Subtasks[:j], tf.Tasks[i].Subtasks[j+1:]...)
		tf.Tasks[i].UpdatedAt = st.now()
		return true, nil
	})
}


