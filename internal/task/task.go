// Package task implements a minimal promise/task abstraction: a task is
// either pending with a list of continuations, or terminally
// fulfilled/rejected. The package is deliberately value-agnostic (fulfilled
// values and rejection reasons are carried as `any`) so that it has no
// import-cycle dependency on the runtime value model — callers type-assert
// back to runtime.Value at the call site.
//
// Scheduling is single-threaded and cooperative: there is no internal
// locking, because all state machine code and all task bookkeeping runs on
// one logical thread. Re-entrancy from within a continuation is supported
// — a continuation is free to resume a state machine that awaits on this
// very task's successor.
package task

// State is the lifecycle state of a Task.
type State int

const (
	// Pending means the task has not yet settled.
	Pending State = iota
	// Fulfilled means the task completed successfully with a value.
	Fulfilled
	// Rejected means the task completed with a thrown value.
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Continuation is invoked when a Task settles. It runs synchronously, in the
// scheduling context of whoever causes the task to settle (either the
// producer calling SetValue/SetError, or, for a continuation registered
// after the task is already terminal, the registrar itself).
type Continuation func(h *Handle)

// Handle is a single task: a handle to a value that may not exist yet.
type Handle struct {
	state         State
	value         any
	err           any
	continuations []Continuation
}

// NewHandle returns a fresh, pending task handle.
func NewHandle() *Handle {
	return &Handle{state: Pending}
}

// Create returns a task handle paired with its one-shot Completer.
func Create() (*Handle, *Completer) {
	h := NewHandle()
	return h, &Completer{h: h}
}

// State returns the task's current lifecycle state.
func (h *Handle) State() State { return h.state }

// IsCompleted reports whether the task has settled (fulfilled or rejected).
func (h *Handle) IsCompleted() bool { return h.state != Pending }

// Value returns the fulfilled value. Only meaningful when State() ==
// Fulfilled.
func (h *Handle) Value() any { return h.value }

// Err returns the rejection reason. Only meaningful when State() ==
// Rejected.
func (h *Handle) Err() any { return h.err }

// OnCompleted registers a continuation. If the task is already terminal,
// the continuation runs immediately, in the registering context — a
// continuation registered on an already-terminal task never waits for a
// future settlement that will never come.
func (h *Handle) OnCompleted(cont Continuation) {
	if h.IsCompleted() {
		cont(h)
		return
	}
	h.continuations = append(h.continuations, cont)
}

func (h *Handle) settle(state State, value, err any) {
	if h.IsCompleted() {
		return
	}
	h.state = state
	h.value = value
	h.err = err

	conts := h.continuations
	h.continuations = nil
	for _, c := range conts {
		c(h)
	}
}

// Completer is the one-shot producer side of a Task.
type Completer struct {
	h *Handle
}

// SetValue fulfills the task. A second call (on an already-terminal task) is
// a no-op: both terminal states are sticky.
func (c *Completer) SetValue(v any) {
	c.h.settle(Fulfilled, v, nil)
}

// SetError rejects the task.
func (c *Completer) SetError(err any) {
	c.h.settle(Rejected, nil, err)
}

// Handle returns the task handle this completer produces into.
func (c *Completer) Handle() *Handle {
	return c.h
}

// Resolved returns an already-fulfilled task, the synchronous fast path used
// when a direct (non-task) value is awaited or returned.
func Resolved(v any) *Handle {
	h, c := Create()
	c.SetValue(v)
	return h
}

// RejectedHandle returns an already-rejected task.
func RejectedHandle(err any) *Handle {
	h, c := Create()
	c.SetError(err)
	return h
}
