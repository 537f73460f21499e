// Package recipe declares the asset build: one task per asset kind plus the
// composite, cleanup and service tasks that drive a development session.
package recipe

import (
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
)

// Task names.
const (
	TaskStylesVendor = "styles:vendor"
	TaskStyles       = "styles"
	TaskJSVendor     = "js:vendor"
	TaskJS           = "js"
	TaskImages       = "images"
	TaskSVG          = "svg"
	TaskSprite       = "sprite"
	TaskFonts        = "fonts"
	TaskIndex        = "index"
	TaskClean        = "clean"
	TaskCleanAll     = "clean:all"
	TaskBuild        = "build"
	TaskWebServer    = "webServer"
	TaskOpenBrowser  = "openBrowser"
	TaskWatch        = "watch"
	TaskDefault      = domain.DefaultTask
)

// Deps are the adapters the recipe's tasks act through.
type Deps struct {
	Reader  ports.SourceReader
	Writer  ports.Writer
	Cleaner ports.Cleaner
	Server  ports.DevServer
	Browser ports.BrowserOpener
	Watcher ports.WatchService
	// Trigger runs a single task for the watcher. It is called after Graph returned.
	Trigger ports.TriggerFunc
}

// Recipe builds the task graph for one configuration and build environment.
type Recipe struct {
	cfg  domain.Config
	env  domain.BuildEnvironment
	deps Deps

	mu       sync.Mutex
	services []ports.Service
}

// New returns a Recipe. The environment is fixed for the lifetime of the recipe.
func New(cfg domain.Config, env domain.BuildEnvironment, deps Deps) *Recipe {
	return &Recipe{cfg: cfg, env: env, deps: deps}
}

// Environment returns the build environment the recipe was created for.
func (r *Recipe) Environment() domain.BuildEnvironment {
	return r.env
}

// OutputDir returns the absolute output directory of the environment.
func (r *Recipe) OutputDir() string {
	return filepath.Join(r.cfg.Root, filepath.FromSlash(r.env.OutputDir))
}

// Services returns the services started by tasks so far, in start order.
func (r *Recipe) Services() []ports.Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.services)
}

func (r *Recipe) started(s ports.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = append(r.services, s)
}

// Graph registers every task of the recipe.
// It fails when the configuration makes two tasks own the same output.
func (r *Recipe) Graph() (*domain.Graph, error) {
	defs, err := r.tasks()
	if err != nil {
		return nil, err
	}

	g := domain.NewGraph()
	for _, d := range defs {
		if err := g.AddTask(d.task()); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// out returns the absolute path of dir inside the output directory.
func (r *Recipe) out(dir string) string {
	return filepath.Join(r.OutputDir(), filepath.FromSlash(dir))
}

type taskDef struct {
	name        string
	description string
	deps        []string
	outputs     []string
	action      domain.Action
	service     bool
}

func (d taskDef) task() *domain.Task {
	return &domain.Task{
		Name:         domain.NewInternedString(d.name),
		Description:  d.description,
		Dependencies: domain.NewInternedStrings(d.deps),
		Outputs:      domain.NewInternedStrings(d.outputs),
		Action:       d.action,
		Service:      d.service,
	}
}
