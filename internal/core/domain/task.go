package domain

import "context"

// Action is the executable body of a task.
// A nil Action marks a composite task that only groups its dependencies.
type Action func(ctx context.Context) error

// Task represents a unit of work in the build graph.
type Task struct {
	Name         InternedString
	Description  string
	Dependencies []InternedString
	// Outputs are paths relative to the environment output directory that the task owns.
	Outputs []InternedString
	Action  Action
	// Service marks tasks that start long-lived processes (dev server, watcher).
	Service bool
}

// IsComposite reports whether the task has no action of its own.
func (t Task) IsComposite() bool {
	return t.Action == nil
}
