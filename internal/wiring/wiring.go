// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/gild/internal/adapters/browser"
	_ "go.trai.ch/gild/internal/adapters/config"
	_ "go.trai.ch/gild/internal/adapters/devserver"
	_ "go.trai.ch/gild/internal/adapters/fs"
	_ "go.trai.ch/gild/internal/adapters/logger"
	_ "go.trai.ch/gild/internal/adapters/metrics"
	_ "go.trai.ch/gild/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/gild/internal/app"
)
