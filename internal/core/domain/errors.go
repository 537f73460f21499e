package domain

import (
	"errors"
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateTask is returned when attempting to register a task name twice.
	ErrDuplicateTask = zerr.New("task already registered")

	// ErrUnknownTask is returned when a task or dependency is not registered.
	ErrUnknownTask = zerr.New("unknown task")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrOutputConflict is returned when two tasks declare the same output path.
	ErrOutputConflict = zerr.New("output path already owned by another task")

	// ErrInvalidTaskName is returned when a task name is empty or contains whitespace.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrInvalidConfig is returned when the configuration file contains invalid values.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrUnknownEnvironment is returned when the selected build environment is not defined.
	ErrUnknownEnvironment = zerr.New("unknown build environment")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrTaskExecutionFailed is returned when a task action fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrTaskPanicked is returned when a task action panics.
	ErrTaskPanicked = zerr.New("task panicked")

	// ErrBuildFailed is returned when one or more tasks of a run failed.
	ErrBuildFailed = zerr.New("build failed")

	// ErrTransformFailed is returned when a pipeline step rejects its input.
	ErrTransformFailed = zerr.New("transformation failed")

	// ErrIO is returned when reading a source or writing an output fails.
	ErrIO = zerr.New("i/o failure")

	// ErrOutputPathOutsideRoot is returned when a path escapes the directory it must stay in.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside the output directory")

	// ErrPortInUse is returned when the development server address is already bound.
	ErrPortInUse = zerr.New("port already in use")

	// ErrServerNotStarted is returned when the development server is used before Serve.
	ErrServerNotStarted = zerr.New("development server not started")

	// ErrWatcherClosed is returned when a binding is added after shutdown began.
	ErrWatcherClosed = zerr.New("watcher is closed")
)

// IsConfigurationError reports whether err stems from an invalid task graph or configuration.
// These errors are detected before any task runs.
func IsConfigurationError(err error) bool {
	for _, target := range []error{
		ErrDuplicateTask,
		ErrUnknownTask,
		ErrCycleDetected,
		ErrOutputConflict,
		ErrInvalidTaskName,
		ErrInvalidConfig,
		ErrUnknownEnvironment,
		ErrConfigParseFailed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// TaskError reports the failure of a single task.
// It matches both ErrTaskExecutionFailed and the underlying cause.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
}

// Message returns the error text without the cause.
func (e *TaskError) Message() string {
	return fmt.Sprintf("task %s failed", e.Task)
}

// Cause returns the underlying error.
func (e *TaskError) Cause() error { return e.Err }

// Unwrap returns the sentinel and the cause.
func (e *TaskError) Unwrap() []error {
	return []error{ErrTaskExecutionFailed, e.Err}
}

// TransformError reports malformed input rejected by a pipeline step.
type TransformError struct {
	Step string
	Path string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Path, e.Err)
}

// Message returns the error text without the cause.
func (e *TransformError) Message() string {
	return fmt.Sprintf("%s failed on %s", e.Step, e.Path)
}

// Cause returns the underlying error.
func (e *TransformError) Cause() error { return e.Err }

// Unwrap returns the sentinel and the cause.
func (e *TransformError) Unwrap() []error {
	return []error{ErrTransformFailed, e.Err}
}

// IOError reports a failed file system operation.
type IOError struct {
	// Op is the operation attempted, such as "read", "write" or "remove".
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Message returns the error text without the cause.
func (e *IOError) Message() string {
	return fmt.Sprintf("cannot %s %s", e.Op, e.Path)
}

// Cause returns the underlying error.
func (e *IOError) Cause() error { return e.Err }

// Unwrap returns the sentinel and the cause.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// NewTransformError builds a TransformError.
func NewTransformError(step, path string, err error) error {
	return &TransformError{Step: step, Path: path, Err: err}
}

// NewIOError builds an IOError.
func NewIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
