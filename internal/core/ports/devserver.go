package ports

import "context"

//go:generate mockgen -source=devserver.go -destination=mocks/mock_devserver.go -package=mocks

// ReloadNotifier pushes reload signals to connected browsers.
type ReloadNotifier interface {
	// NotifyReload never blocks and has no effect when no client is connected.
	NotifyReload(paths []string)
}

// Service is a long-lived process started by a task.
type Service interface {
	// Name identifies the service in logs.
	Name() string
	// Shutdown stops the service, letting in-flight work finish.
	Shutdown(ctx context.Context) error
}

// DevServer serves the build output and pushes livereload events.
type DevServer interface {
	ReloadNotifier
	Service
	// Serve binds the address and starts serving dir in the background.
	Serve(ctx context.Context, dir, host string, port int) error
	// URL returns the address browsers should open. Empty before Serve.
	URL() string
}

// BrowserOpener opens a URL in the user's browser.
type BrowserOpener interface {
	Open(url string) error
}
