package domain

import "time"

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "gild.yaml"

	// EnvVar selects the active build environment.
	EnvVar = "GILD_ENV"

	// DefaultTask runs when no task is named on the command line.
	DefaultTask = "default"

	// DefaultBuildDir holds one output tree per environment.
	DefaultBuildDir = "builds"

	// DefaultPort is the development server port.
	DefaultPort = 9000

	// DefaultDebounce is the watcher coalescing window.
	DefaultDebounce = 100 * time.Millisecond

	// LiveReloadPath is the server-sent events endpoint browsers subscribe to.
	LiveReloadPath = "/livereload"

	// MetricsPath exposes Prometheus metrics on the development server.
	MetricsPath = "/metrics"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)
