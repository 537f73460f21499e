// Package domain contains the core domain models of the asset build: tasks, the task graph,
// build environments and the records flowing through pipelines.
package domain

import (
	"iter"
	"path"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"go.trai.ch/zerr"
)

// Graph is the task registry. It stores named tasks and their declared dependencies.
// Dependencies may reference tasks registered later; they are checked when the graph is resolved.
type Graph struct {
	tasks      map[InternedString]Task
	order      []InternedString
	dependents map[InternedString][]InternedString
	outputs    map[string]InternedString
	claims     []outputClaim
}

// outputClaim is a declared output. Outputs may be glob patterns such as "css/*.css".
type outputClaim struct {
	pattern string
	glob    glob.Glob
	owner   InternedString
}

func newOutputClaim(pattern string, owner InternedString) outputClaim {
	c := outputClaim{pattern: pattern, owner: owner}
	if g, err := glob.Compile(pattern, '/'); err == nil {
		c.glob = g
	}
	return c
}

// overlaps reports whether the two outputs can name the same file.
func (c outputClaim) overlaps(other outputClaim) bool {
	if c.pattern == other.pattern {
		return true
	}
	return (c.glob != nil && c.glob.Match(other.pattern)) ||
		(other.glob != nil && other.glob.Match(c.pattern))
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:      make(map[InternedString]Task),
		dependents: make(map[InternedString][]InternedString),
		outputs:    make(map[string]InternedString),
	}
}

// AddTask registers a task.
// It fails if the name is already taken or if one of the declared outputs is owned by another task.
// A failed registration leaves the graph unchanged.
func (g *Graph) AddTask(t *Task) error {
	name := t.Name.String()
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t\n") {
		return zerr.With(zerr.Wrap(ErrInvalidTaskName, "cannot register task"), "task_name", name)
	}
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(zerr.Wrap(ErrDuplicateTask, "cannot register task"), "task_name", name)
	}

	claimed := make([]outputClaim, 0, len(t.Outputs))
	for _, out := range t.Outputs {
		claim := newOutputClaim(cleanOutput(out.String()), t.Name)
		for _, existing := range g.claims {
			if claim.overlaps(existing) {
				return zerr.With(zerr.With(zerr.With(zerr.With(
					zerr.Wrap(ErrOutputConflict, "cannot register task"),
					"task_name", name),
					"output", claim.pattern),
					"owner", existing.owner.String()),
					"owned_output", existing.pattern)
			}
		}
		for _, other := range claimed {
			if claim.overlaps(other) {
				return zerr.With(zerr.With(
					zerr.Wrap(ErrOutputConflict, "output declared twice"),
					"task_name", name),
					"output", claim.pattern)
			}
		}
		claimed = append(claimed, claim)
	}

	for _, claim := range claimed {
		g.outputs[claim.pattern] = t.Name
	}
	g.claims = append(g.claims, claimed...)
	for _, dep := range t.Dependencies {
		g.dependents[dep] = append(g.dependents[dep], t.Name)
	}
	g.tasks[t.Name] = *t
	g.order = append(g.order, t.Name)
	return nil
}

// GetTask returns the task registered under name.
func (g *Graph) GetTask(name InternedString) (Task, error) {
	t, ok := g.tasks[name]
	if !ok {
		return Task{}, zerr.With(zerr.Wrap(ErrUnknownTask, "cannot get task"), "task", name.String())
	}
	return t, nil
}

// HasTask reports whether name is registered.
func (g *Graph) HasTask(name string) bool {
	_, ok := g.tasks[NewInternedString(name)]
	return ok
}

// Dependents returns the tasks that declare name as a dependency.
func (g *Graph) Dependents(name InternedString) []InternedString {
	return g.dependents[name]
}

// OutputOwner returns the task that declared the output path.
func (g *Graph) OutputOwner(output string) (InternedString, bool) {
	owner, ok := g.outputs[cleanOutput(output)]
	return owner, ok
}

// TaskCount returns the number of registered tasks.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Names returns the registered task names sorted alphabetically.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.order))
	for _, n := range g.order {
		names = append(names, n.String())
	}
	slices.Sort(names)
	return names
}

// Walk yields tasks in registration order.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.order {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Resolve computes the transitive dependency closure of the targets with a depth-first traversal.
// The result is in a valid execution order: every task appears after all of its dependencies.
// A task revisited while still on the traversal stack yields ErrCycleDetected.
func (g *Graph) Resolve(targets []string) ([]InternedString, error) {
	order := make([]InternedString, 0, len(g.tasks))
	state := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var stack []InternedString

	var visit func(u InternedString, requiredBy string) error
	visit = func(u InternedString, requiredBy string) error {
		task, exists := g.tasks[u]
		if !exists {
			err := zerr.With(zerr.Wrap(ErrUnknownTask, "cannot resolve task graph"), "task", u.String())
			if requiredBy != "" {
				err = zerr.With(err, "required_by", requiredBy)
			}
			return err
		}

		state[u] = 1
		stack = append(stack, u)

		for _, dep := range task.Dependencies {
			switch state[dep] {
			case 1:
				return g.buildCycleError(stack, dep)
			case 0:
				if err := visit(dep, u.String()); err != nil {
					return err
				}
			}
		}

		state[u] = 2
		stack = stack[:len(stack)-1]
		order = append(order, u)
		return nil
	}

	for _, target := range targets {
		name := NewInternedString(target)
		if state[name] == 0 {
			if err := visit(name, ""); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// Validate resolves every registered task, reporting unknown dependencies and cycles.
func (g *Graph) Validate() error {
	_, err := g.Resolve(g.Names())
	return err
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(stack []InternedString, dep InternedString) error {
	start := slices.Index(stack, dep)
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(stack)-start+1)
	for _, node := range stack[start:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(zerr.Wrap(ErrCycleDetected, "cannot resolve task graph"), "cycle", strings.Join(parts, " -> "))
}

func cleanOutput(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
}
