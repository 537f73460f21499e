package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/gild/internal/adapters/fs"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.WatchService = (*Binder)(nil)

// State is the phase of the binder's trigger cycle.
type State int32

const (
	// StateIdle means no change is pending.
	StateIdle State = iota
	// StateDebouncing means changes arrived and the window is open.
	StateDebouncing
	// StateTriggering means bound tasks are running.
	StateTriggering
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateTriggering:
		return "triggering"
	default:
		return "unknown"
	}
}

type binding struct {
	patterns []*fs.Pattern
	tasks    []string
}

// Binder runs bound tasks when matching files change.
// A burst of changes within the debounce window runs each affected task once.
type Binder struct {
	watcher ports.Watcher
	logger  ports.Logger
	window  time.Duration

	state atomic.Int32

	mu        sync.Mutex
	root      string
	bindings  []binding
	trigger   ports.TriggerFunc
	runCtx    context.Context
	debouncer *Debouncer
	started   bool
	closed    bool

	// runMu serialises triggered batches so two rebuilds never overlap.
	runMu sync.Mutex
	runs  sync.WaitGroup
	loop  chan struct{}
}

// NewBinder creates a binder on top of w. The window applies when WatchOptions
// sets no debounce; a non-positive window selects domain.DefaultDebounce.
func NewBinder(w ports.Watcher, logger ports.Logger, window time.Duration) *Binder {
	if window <= 0 {
		window = domain.DefaultDebounce
	}
	return &Binder{
		watcher: w,
		logger:  logger,
		window:  window,
		loop:    make(chan struct{}),
	}
}

// Name identifies the service.
func (b *Binder) Name() string {
	return "watch"
}

// State returns the current phase.
func (b *Binder) State() State {
	return State(b.state.Load())
}

// Watch compiles the bindings and starts watching in the background.
// Triggered runs use a context detached from ctx's cancellation so that
// shutdown lets them finish.
func (b *Binder) Watch(ctx context.Context, opts ports.WatchOptions) error {
	compiled := make([]binding, 0, len(opts.Bindings))
	for _, wb := range opts.Bindings {
		patterns, err := fs.CompilePatterns(wb.Globs)
		if err != nil {
			return zerr.Wrap(err, "invalid watch binding")
		}
		compiled = append(compiled, binding{patterns: patterns, tasks: wb.Tasks})
	}

	window := opts.Debounce
	if window <= 0 {
		window = b.window
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return domain.ErrWatcherClosed
	}
	if b.started {
		b.mu.Unlock()
		return zerr.New("watch already started")
	}
	b.started = true
	b.root = filepath.Clean(opts.Root)
	b.bindings = compiled
	b.trigger = opts.Trigger
	b.runCtx = context.WithoutCancel(ctx)
	b.debouncer = NewDebouncer(window, b.fire)
	b.mu.Unlock()

	if err := b.watcher.Start(ctx, opts.Root, opts.Skip); err != nil {
		close(b.loop)
		return zerr.Wrap(err, "failed to start watcher")
	}

	go b.run()
	return nil
}

func (b *Binder) run() {
	defer close(b.loop)
	for event := range b.watcher.Events() {
		b.handle(event)
	}
}

func (b *Binder) handle(event ports.WatchEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	rel, ok := b.relative(event.Path)
	if !ok || len(b.tasksFor([]string{rel})) == 0 {
		return
	}
	b.state.CompareAndSwap(int32(StateIdle), int32(StateDebouncing))
	b.debouncer.Add(rel)
}

func (b *Binder) relative(path string) (string, bool) {
	rel, err := filepath.Rel(b.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// tasksFor returns the tasks bound to any of paths, in binding order, each once.
func (b *Binder) tasksFor(paths []string) []string {
	var tasks []string
	seen := make(map[string]bool)
	for _, bd := range b.bindings {
		if !matchesAny(bd.patterns, paths) {
			continue
		}
		for _, task := range bd.tasks {
			if !seen[task] {
				seen[task] = true
				tasks = append(tasks, task)
			}
		}
	}
	return tasks
}

func matchesAny(patterns []*fs.Pattern, paths []string) bool {
	for _, p := range paths {
		if fs.MatchAny(patterns, p) {
			return true
		}
	}
	return false
}

// fire runs when the debounce window elapses.
func (b *Binder) fire(paths []string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	tasks := b.tasksFor(paths)
	trigger, ctx := b.trigger, b.runCtx
	b.runs.Add(1)
	b.mu.Unlock()
	defer b.runs.Done()

	b.runMu.Lock()
	defer b.runMu.Unlock()

	b.state.Store(int32(StateTriggering))
	for _, task := range tasks {
		if err := trigger(ctx, task); err != nil && b.logger != nil {
			b.logger.Error(zerr.With(zerr.Wrap(err, "watch-triggered run failed"), "task", task))
		}
	}

	next := StateIdle
	if b.debouncer.Pending() {
		next = StateDebouncing
	}
	b.state.Store(int32(next))
}

// Shutdown stops accepting changes, waits for triggered runs and closes the watcher.
func (b *Binder) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	started := b.started
	if b.debouncer != nil {
		b.debouncer.Stop()
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.runs.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = zerr.Wrap(ctx.Err(), "triggered runs did not finish")
	}

	if !started {
		return err
	}
	if stopErr := b.watcher.Stop(); stopErr != nil && err == nil {
		err = zerr.Wrap(stopErr, "failed to stop watcher")
	}
	<-b.loop
	b.state.Store(int32(StateIdle))
	return err
}
