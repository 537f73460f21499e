// Package scheduler implements the task execution scheduler.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"sync"

	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
)

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to be executed.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task has finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusFailed indicates the task execution failed.
	StatusFailed TaskStatus = "Failed"
)

// Scheduler manages the execution of tasks in the dependency graph.
// Every Run is a full build; nothing is memoized between runs.
type Scheduler struct {
	tracer   ports.Tracer
	notifier ports.ReloadNotifier

	mu         sync.RWMutex
	taskStatus map[domain.InternedString]TaskStatus
}

// NewScheduler creates a new Scheduler. The notifier may be nil.
func NewScheduler(tracer ports.Tracer, notifier ports.ReloadNotifier) *Scheduler {
	return &Scheduler{
		tracer:     tracer,
		notifier:   notifier,
		taskStatus: make(map[domain.InternedString]TaskStatus),
	}
}

// Status returns a snapshot of the status of every task seen so far.
func (s *Scheduler) Status() map[domain.InternedString]TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.taskStatus)
}

func (s *Scheduler) initTaskStatuses(tasks []domain.InternedString) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		s.taskStatus[task] = StatusPending
	}
}

func (s *Scheduler) updateStatus(name domain.InternedString, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// Run executes the targets and their transitive dependencies.
//
// A task starts only after all of its dependencies succeeded. When a task fails,
// its dependents never start while independent tasks keep running. At most
// parallelism actions run at once; zero or less means one per CPU.
// The returned error joins one *domain.TaskError per failed task.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, targetNames []string, parallelism int) error {
	order, err := graph.Resolve(targetNames)
	if err != nil {
		return err
	}
	if len(order) == 0 {
		return nil
	}
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	state := s.newRunState(ctx, graph, order, parallelism)

	planned := make([]string, len(order))
	depMap := make(map[string][]string, len(order))
	for i, name := range order {
		planned[i] = name.String()
		depMap[name.String()] = domain.Strings(state.tasks[name].Dependencies)
	}
	s.tracer.EmitPlan(ctx, planned, depMap, targetNames)

	s.initTaskStatuses(order)

	return state.runExecutionLoop()
}

type result struct {
	task    domain.InternedString
	err     error
	outputs []string
}

type schedulerRunState struct {
	graph       *domain.Graph
	inDegree    map[domain.InternedString]int
	tasks       map[domain.InternedString]domain.Task
	ready       []domain.InternedString
	active      int
	resultsCh   chan result
	errs        error
	ctx         context.Context
	parallelism int
	s           *Scheduler
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	order []domain.InternedString,
	parallelism int,
) *schedulerRunState {
	inDegree := make(map[domain.InternedString]int, len(order))
	tasks := make(map[domain.InternedString]domain.Task, len(order))

	// Resolve returned the full closure, so every dependency is part of the run.
	for _, name := range order {
		task, _ := graph.GetTask(name)
		tasks[name] = task
		inDegree[name] = len(task.Dependencies)
	}

	var ready []domain.InternedString
	for _, name := range order {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	return &schedulerRunState{
		graph:       graph,
		inDegree:    inDegree,
		tasks:       tasks,
		ready:       ready,
		resultsCh:   make(chan result, parallelism),
		ctx:         ctx,
		parallelism: parallelism,
		s:           s,
	}
}

func (state *schedulerRunState) runExecutionLoop() error {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
			// Stop scheduling; running tasks still report through resultsCh.
			for state.active > 0 {
				state.handleResult(<-state.resultsCh)
			}
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.errs
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && (len(state.ready) == 0 || state.ctx.Err() != nil)
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		taskName := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(taskName, StatusRunning)

		t := state.tasks[taskName]
		go state.executeTask(&t)
	}
}

func (state *schedulerRunState) executeTask(t *domain.Task) {
	// The span is ended before the result is sent so that observers see it
	// before the run loop can return.
	res := func() result {
		ctx, span := state.s.tracer.Start(state.ctx, t.Name.String())
		defer span.End()

		if t.IsComposite() {
			return result{task: t.Name}
		}

		ctx = ports.ContextWithOutput(ctx, span)
		if err := runAction(ctx, t.Action); err != nil {
			span.RecordError(err)
			return result{task: t.Name, err: err}
		}

		return result{task: t.Name, outputs: domain.Strings(t.Outputs)}
	}()

	state.resultsCh <- res
}

func runAction(ctx context.Context, action domain.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zerr.With(zerr.Wrap(domain.ErrTaskPanicked, ""), "panic", fmt.Sprint(r))
		}
	}()
	return action(ctx)
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	if res.err != nil {
		state.errs = errors.Join(state.errs, &domain.TaskError{Task: res.task.String(), Err: res.err})
		state.s.updateStatus(res.task, StatusFailed)
		return
	}
	state.handleSuccess(res)
}

func (state *schedulerRunState) handleSuccess(res result) {
	state.s.updateStatus(res.task, StatusCompleted)

	if len(res.outputs) > 0 && state.s.notifier != nil {
		state.s.notifier.NotifyReload(res.outputs)
	}

	for _, dep := range state.graph.Dependents(res.task) {
		// Only consider dependents that are part of the current execution
		if _, ok := state.tasks[dep]; ok {
			state.inDegree[dep]--
			if state.inDegree[dep] == 0 {
				state.ready = append(state.ready, dep)
			}
		}
	}
}
