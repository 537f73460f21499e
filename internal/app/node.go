package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gild/internal/adapters/browser"   //nolint:depguard // Wired in app layer
	"go.trai.ch/gild/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/gild/internal/adapters/devserver" //nolint:depguard // Wired in app layer
	"go.trai.ch/gild/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/gild/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/gild/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/gild/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/gild/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles the application with the logger used to report its errors.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			fs.SelectorNodeID,
			fs.WriterNodeID,
			fs.CleanerNodeID,
			devserver.NodeID,
			browser.NodeID,
			watcher.BinderNodeID,
			metrics.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	var (
		a   Adapters
		err error
	)
	if a.ConfigLoader, err = graft.Dep[ports.ConfigLoader](ctx); err != nil {
		return nil, err
	}
	if a.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}
	if a.Reader, err = graft.Dep[ports.SourceReader](ctx); err != nil {
		return nil, err
	}
	if a.Writer, err = graft.Dep[ports.Writer](ctx); err != nil {
		return nil, err
	}
	if a.Cleaner, err = graft.Dep[ports.Cleaner](ctx); err != nil {
		return nil, err
	}
	if a.Server, err = graft.Dep[ports.DevServer](ctx); err != nil {
		return nil, err
	}
	if a.Browser, err = graft.Dep[ports.BrowserOpener](ctx); err != nil {
		return nil, err
	}
	if a.Watcher, err = graft.Dep[ports.WatchService](ctx); err != nil {
		return nil, err
	}
	if a.Metrics, err = graft.Dep[*metrics.Metrics](ctx); err != nil {
		return nil, err
	}
	return New(a), nil
}
