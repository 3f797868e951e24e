package Store

import (
	"context"
	"errors"
	"fmt"

	"Lulan/Directory"
	"Lulan/Models"
)

// AddTask validates the submission, assigns a session unique id and writes
// the task through to the directory before appending it to the queue.
func (s *Store) AddTask(ctx context.Context, fields Models.NewTask) (Models.Task, error) {
	fields = fields.Normalize()
	if err := Models.Validate(fields); err != nil {
		return Models.Task{}, err
	}

	now := s.now()
	s.mu.Lock()
	sequence := now.UnixMilli()
	if sequence <= s.lastSequence {
		sequence = s.lastSequence + 1
	}
	s.lastSequence = sequence
	s.mu.Unlock()

	task := Models.Task{
		ID:          fmt.Sprintf("%s%d", Models.TaskIDPrefix, sequence),
		Priority:    fields.Priority,
		Source:      fields.Source,
		Destination: fields.Destination,
		Items:       append([]string(nil), fields.Items...),
		Requester:   fields.Requester,
		Timestamp:   now.Format(Models.TimestampLayout),
		Sequence:    sequence,
	}

	path := Directory.TaskPath(task.ID)
	if err := s.dir.Set(ctx, path, task); err != nil {
		return Models.Task{}, Models.RemoteWriteFailure(path, err)
	}

	s.mu.Lock()
	if s.taskIndexLocked(task.ID) < 0 {
		s.tasks = append(s.tasks, task)
	}
	s.mu.Unlock()
	return cloneTask(task), nil
}

// Tasks returns the queue in insertion order.
func (s *Store) Tasks() []Models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Models.Task, len(s.tasks))
	for i, task := range s.tasks {
		out[i] = cloneTask(task)
	}
	return out
}

// ClearTasks removes every queued task from the directory and the cache.
// It stops at the first failed delete.
func (s *Store) ClearTasks(ctx context.Context) error {
	for _, task := range s.Tasks() {
		path := Directory.TaskPath(task.ID)
		if err := s.dir.Delete(ctx, path); err != nil {
			return Models.RemoteWriteFailure(path, err)
		}
		s.mu.Lock()
		if i := s.taskIndexLocked(task.ID); i >= 0 {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		}
		s.mu.Unlock()
	}
	return nil
}

// SeedTasks writes the given tasks to the directory unless they already exist.
func (s *Store) SeedTasks(ctx context.Context, tasks []Models.Task) error {
	for _, task := range tasks {
		path := Directory.TaskPath(task.ID)
		_, err := s.dir.Get(ctx, path)
		if err == nil {
			continue
		}
		if !errors.Is(err, Models.ErrNotFound) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := s.dir.Set(ctx, path, task); err != nil {
			return Models.RemoteWriteFailure(path, err)
		}
	}
	return nil
}

func (s *Store) taskIndexLocked(id string) int {
	for i, task := range s.tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func cloneTask(task Models.Task) Models.Task {
	task.Items = append([]string(nil), task.Items...)
	return task
}
