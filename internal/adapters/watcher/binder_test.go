package watcher_test

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/adapters/watcher"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/gild/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const (
	root   = "/project"
	window = 100 * time.Millisecond
)

// fakeWatcher delivers events pushed by the test.
type fakeWatcher struct {
	events   chan ports.WatchEvent
	stopOnce sync.Once
	skip     []string
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan ports.WatchEvent)}
}

func (f *fakeWatcher) Start(_ context.Context, _ string, skip []string) error {
	f.skip = skip
	return nil
}

func (f *fakeWatcher) Stop() error {
	f.stopOnce.Do(func() { close(f.events) })
	return nil
}

func (f *fakeWatcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for ev := range f.events {
			if !yield(ev) {
				return
			}
		}
	}
}

func (f *fakeWatcher) touch(rel string) {
	f.events <- ports.WatchEvent{Path: filepath.Join(root, filepath.FromSlash(rel)), Operation: ports.OpWrite}
}

// runLog records triggered tasks.
type runLog struct {
	mu   sync.Mutex
	runs []string
}

func (r *runLog) trigger(_ context.Context, task string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, task)
	return nil
}

func (r *runLog) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.runs...)
}

var bindings = []domain.WatchBinding{
	{Globs: []string{"src/sass/**/*.scss"}, Tasks: []string{"styles"}},
	{Globs: []string{"src/js/**/*.js"}, Tasks: []string{"js"}},
	{Globs: []string{"src/**/*.{scss,js}"}, Tasks: []string{"size", "styles"}},
}

func startBinder(t *testing.T, fw *fakeWatcher, log ports.Logger, trigger ports.TriggerFunc) *watcher.Binder {
	t.Helper()
	b := watcher.NewBinder(fw, log, window)
	require.NoError(t, b.Watch(context.Background(), ports.WatchOptions{
		Root:     root,
		Skip:     []string{"builds"},
		Bindings: bindings,
		Trigger:  trigger,
	}))
	return b
}

func TestBinder_BurstTriggersOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fw := newFakeWatcher()
		rl := &runLog{}
		b := startBinder(t, fw, nil, rl.trigger)
		assert.Equal(t, []string{"builds"}, fw.skip)

		for range 10 {
			fw.touch("src/sass/main.scss")
		}
		synctest.Wait()
		assert.Equal(t, watcher.StateDebouncing, b.State())
		assert.Empty(t, rl.get())

		time.Sleep(window + time.Millisecond)
		synctest.Wait()

		assert.Equal(t, []string{"styles", "size"}, rl.get())
		assert.Equal(t, watcher.StateIdle, b.State())
		require.NoError(t, b.Shutdown(context.Background()))
	})
}

func TestBinder_UnionOfAffectedTasks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fw := newFakeWatcher()
		rl := &runLog{}
		b := startBinder(t, fw, nil, rl.trigger)

		fw.touch("src/js/app.js")
		fw.touch("src/sass/_vars.scss")
		time.Sleep(2 * window)
		synctest.Wait()

		assert.Equal(t, []string{"styles", "js", "size"}, rl.get())
		require.NoError(t, b.Shutdown(context.Background()))
	})
}

func TestBinder_IgnoresUnboundPaths(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fw := newFakeWatcher()
		rl := &runLog{}
		b := startBinder(t, fw, nil, rl.trigger)

		fw.touch("README.md")
		fw.events <- ports.WatchEvent{Path: "/elsewhere/src/js/app.js", Operation: ports.OpWrite}
		synctest.Wait()
		assert.Equal(t, watcher.StateIdle, b.State())

		time.Sleep(2 * window)
		synctest.Wait()
		assert.Empty(t, rl.get())
		require.NoError(t, b.Shutdown(context.Background()))
	})
}

func TestBinder_TriggerFailureIsLogged(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		log := mocks.NewMockLogger(ctrl)
		boom := errors.New("boom")

		rl := &runLog{}
		trigger := func(ctx context.Context, task string) error {
			_ = rl.trigger(ctx, task)
			if task == "js" {
				return boom
			}
			return nil
		}

		log.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.ErrorIs(t, err, boom)
		}).Times(2)

		fw := newFakeWatcher()
		b := startBinder(t, fw, log, trigger)

		fw.touch("src/js/app.js")
		time.Sleep(2 * window)
		synctest.Wait()

		// The loop keeps running after a failure.
		fw.touch("src/js/app.js")
		time.Sleep(2 * window)
		synctest.Wait()

		assert.Equal(t, []string{"js", "size", "styles", "js", "size", "styles"}, rl.get())
		require.NoError(t, b.Shutdown(context.Background()))
	})
}

func TestBinder_ShutdownWaitsForTriggeredRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fw := newFakeWatcher()
		release := make(chan struct{})
		started := make(chan struct{})
		var runCtx context.Context
		trigger := func(ctx context.Context, _ string) error {
			runCtx = ctx
			close(started)
			<-release
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		b := watcher.NewBinder(fw, nil, window)
		require.NoError(t, b.Watch(ctx, ports.WatchOptions{
			Root:     root,
			Bindings: []domain.WatchBinding{{Globs: []string{"src/index.html"}, Tasks: []string{"index"}}},
			Trigger:  trigger,
		}))

		fw.touch("src/index.html")
		time.Sleep(2 * window)
		<-started
		assert.Equal(t, watcher.StateTriggering, b.State())

		cancel()
		require.NoError(t, runCtx.Err(), "triggered runs are detached from cancellation")

		done := make(chan error, 1)
		go func() { done <- b.Shutdown(context.Background()) }()
		synctest.Wait()
		select {
		case <-done:
			t.Fatal("Shutdown returned while a triggered run was in flight")
		default:
		}

		close(release)
		require.NoError(t, <-done)
		assert.Equal(t, watcher.StateIdle, b.State())
	})
}

func TestBinder_ShutdownTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fw := newFakeWatcher()
		release := make(chan struct{})
		b := startBinder(t, fw, nil, func(context.Context, string) error {
			<-release
			return nil
		})

		fw.touch("src/js/app.js")
		time.Sleep(2 * window)
		synctest.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := b.Shutdown(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, watcher.StateTriggering, b.State())

		// Let the stuck run finish so every goroutine in the bubble exits.
		close(release)
		synctest.Wait()
		assert.Equal(t, watcher.StateIdle, b.State())
	})
}

func TestBinder_NoTriggerAfterShutdown(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fw := newFakeWatcher()
		rl := &runLog{}
		b := startBinder(t, fw, nil, rl.trigger)

		fw.touch("src/js/app.js")
		synctest.Wait()
		require.NoError(t, b.Shutdown(context.Background()))

		time.Sleep(2 * window)
		synctest.Wait()
		assert.Empty(t, rl.get(), "pending changes are dropped on shutdown")

		err := b.Watch(context.Background(), ports.WatchOptions{Root: root})
		require.ErrorIs(t, err, domain.ErrWatcherClosed)
		require.NoError(t, b.Shutdown(context.Background()))
	})
}

func TestBinder_InvalidGlob(t *testing.T) {
	b := watcher.NewBinder(newFakeWatcher(), nil, window)
	err := b.Watch(context.Background(), ports.WatchOptions{
		Root:     root,
		Bindings: []domain.WatchBinding{{Globs: []string{"src/[a"}, Tasks: []string{"x"}}},
	})
	require.Error(t, err)
}

func TestBinder_Name(t *testing.T) {
	assert.Equal(t, "watch", watcher.NewBinder(newFakeWatcher(), nil, 0).Name())
	assert.Equal(t, "triggering", watcher.StateTriggering.String())
}
