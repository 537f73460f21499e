package domain

// WatchBinding relates source glob patterns to the tasks that rebuild them.
// Bindings are created when the watch task starts and live until shutdown.
type WatchBinding struct {
	Globs []string
	Tasks []string
}
