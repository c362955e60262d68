package home

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-jarvis/pkg/store"
)

// Task is one to-do item. IDs are creation times in Unix milliseconds,
// except for the seed tasks.
type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// DefaultTasks is shown when nothing usable is stored.
func DefaultTasks() []Task {
	return []Task{
		{ID: 1, Text: "Finalize Arc Reactor schematics", Completed: true},
		{ID: 2, Text: "Deploy Mark III upgrades", Completed: false},
	}
}

// Tasks returns the stored task list, or the seed when the key is missing
// or unreadable.
func (h *Home) Tasks(ctx context.Context) ([]Task, error) {
	h.tasksMu.Lock()
	defer h.tasksMu.Unlock()
	return h.loadTasks(ctx)
}

func (h *Home) loadTasks(ctx context.Context) ([]Task, error) {
	raw, err := h.store.Get(ctx, store.KeyTasks)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultTasks(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("home: load tasks: %w", err)
	}
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		h.logger.Error("failed to parse stored tasks", "error", err)
		return DefaultTasks(), nil
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func (h *Home) saveTasks(ctx context.Context, tasks []Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	if err := h.store.Set(ctx, store.KeyTasks, string(data)); err != nil {
		return fmt.Errorf("home: save tasks: %w", err)
	}
	return nil
}

// update loads, mutates and persists the list under the tasks lock.
func (h *Home) update(ctx context.Context, fn func([]Task) ([]Task, error)) ([]Task, error) {
	h.tasksMu.Lock()
	defer h.tasksMu.Unlock()

	tasks, err := h.loadTasks(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err = fn(tasks)
	if err != nil {
		return nil, err
	}
	if err := h.saveTasks(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// AddTask appends a new open task. Surrounding whitespace is trimmed and
// empty text is rejected with ErrEmptyTask.
func (h *Home) AddTask(ctx context.Context, text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyTask
	}
	var added Task
	_, err := h.update(ctx, func(tasks []Task) ([]Task, error) {
		id := h.now().UnixMilli()
		for _, t := range tasks {
			if t.ID >= id {
				id = t.ID + 1
			}
		}
		added = Task{ID: id, Text: text}
		return append(tasks, added), nil
	})
	return added, err
}

// ToggleTask flips the completion flag of the task with id.
func (h *Home) ToggleTask(ctx context.Context, id int64) (Task, error) {
	var toggled Task
	_, err := h.update(ctx, func(tasks []Task) ([]Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				tasks[i].Completed = !tasks[i].Completed
				toggled = tasks[i]
				return tasks, nil
			}
		}
		return nil, ErrTaskNotFound
	})
	return toggled, err
}

// CompleteTask marks the task with id done. Completing a done task is a
// no-op.
func (h *Home) CompleteTask(ctx context.Context, id int64) (Task, error) {
	var done Task
	_, err := h.update(ctx, func(tasks []Task) ([]Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				tasks[i].Completed = true
				done = tasks[i]
				return tasks, nil
			}
		}
		return nil, ErrTaskNotFound
	})
	return done, err
}

// DeleteTask removes the task with id.
func (h *Home) DeleteTask(ctx context.Context, id int64) error {
	_, err := h.update(ctx, func(tasks []Task) ([]Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				return append(tasks[:i], tasks[i+1:]...), nil
			}
		}
		return nil, ErrTaskNotFound
	})
	return err
}

// FindTask returns the first task whose text contains query, ignoring
// case.
func (h *Home) FindTask(ctx context.Context, query string) (Task, error) {
	tasks, err := h.Tasks(ctx)
	if err != nil {
		return Task{}, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Task{}, ErrTaskNotFound
	}
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Text), q) {
			return t, nil
		}
	}
	return Task{}, ErrTaskNotFound
}
