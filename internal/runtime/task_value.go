package runtime

import "github.com/tscore-lang/tscore/internal/task"

// Task is the Value wrapper around a task.Handle.
type Task struct {
	Handle *task.Handle
}

// NewTask wraps h as a Value.
func NewTask(h *task.Handle) *Task {
	return &Task{Handle: h}
}

func (t *Task) Type() string   { return "task" }
func (t *Task) String() string { return "[object Promise]" }
