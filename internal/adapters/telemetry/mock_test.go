package telemetry_test

import (
	"context"
	"sync"
	"time"
)

// recordingRenderer is a test double for ports.Renderer that keeps the call order.
type recordingRenderer struct {
	mu     sync.Mutex
	calls  []string
	logs   []byte
	errs   []error
	plans  [][]string
	starts []string
}

func (r *recordingRenderer) Start(_ context.Context) error { return nil }
func (r *recordingRenderer) Stop() error                   { return nil }
func (r *recordingRenderer) Wait() error                   { return nil }

func (r *recordingRenderer) OnPlanEmit(tasks []string, _ map[string][]string, _ []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "plan")
	r.plans = append(r.plans, tasks)
}

func (r *recordingRenderer) OnTaskStart(_, _, name string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "start")
	r.starts = append(r.starts, name)
}

func (r *recordingRenderer) OnTaskLog(_ string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "log")
	r.logs = append(r.logs, data...)
}

func (r *recordingRenderer) OnTaskComplete(_ string, _ time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "complete")
	r.errs = append(r.errs, err)
}

func (r *recordingRenderer) snapshot() (calls []string, logs string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...), string(r.logs)
}
