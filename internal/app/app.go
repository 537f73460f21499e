// Package app implements the application layer for gild.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/gild/internal/adapters/detector"
	"go.trai.ch/gild/internal/adapters/linear"
	"go.trai.ch/gild/internal/adapters/metrics"
	"go.trai.ch/gild/internal/adapters/telemetry"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/gild/internal/engine/scheduler"
	"go.trai.ch/gild/internal/recipe"
	"go.trai.ch/gild/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds how long services get to stop after an interrupt.
const DefaultShutdownTimeout = 10 * time.Second

// Adapters are the ports the application drives.
type Adapters struct {
	ConfigLoader ports.ConfigLoader
	Logger       ports.Logger
	Reader       ports.SourceReader
	Writer       ports.Writer
	Cleaner      ports.Cleaner
	Server       ports.DevServer
	Browser      ports.BrowserOpener
	Watcher      ports.WatchService
	Metrics      *metrics.Metrics
}

// App represents the main application logic.
type App struct {
	adapters        Adapters
	stdout          io.Writer
	stderr          io.Writer
	interactive     bool
	shutdownTimeout time.Duration
}

// New creates a new App instance.
func New(adapters Adapters) *App {
	return &App{
		adapters:        adapters,
		stdout:          os.Stdout,
		stderr:          os.Stderr,
		interactive:     detector.DetectEnvironment().Interactive(),
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// WithOutput redirects task output and status lines. Used for testing.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithShutdownTimeout changes how long services get to stop.
func (a *App) WithShutdownTimeout(d time.Duration) *App {
	a.shutdownTimeout = d
	return a
}

// Options select the configuration and environment of a run.
type Options struct {
	// Dir is the project directory. Empty means the working directory.
	Dir string
	// ConfigPath is the configuration file, relative to Dir.
	ConfigPath string
	// Env names the build environment. Empty selects the development environment.
	Env string
	// Jobs caps concurrent tasks. Zero defers to the configuration.
	Jobs int
}

// project is a loaded configuration with its selected environment.
type project struct {
	cfg  domain.Config
	env  domain.BuildEnvironment
	jobs int
}

func (a *App) load(opts Options) (project, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return project{}, zerr.Wrap(err, "failed to get working directory")
		}
		dir = wd
	}

	cfg, err := a.adapters.ConfigLoader.Load(dir, opts.ConfigPath)
	if err != nil {
		return project{}, zerr.Wrap(err, "failed to load configuration")
	}

	env, err := domain.SelectEnvironment(cfg.Environments, opts.Env)
	if err != nil {
		return project{}, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = cfg.Jobs
	}
	return project{cfg: cfg, env: env, jobs: jobs}, nil
}

// Run executes the targets one after another, each as its own scheduler run,
// and stops at the first target that fails. Without targets the default task runs.
//
// When tasks started services, Run keeps serving until ctx is cancelled and then
// shuts the services down. Failures of the build are logged as they happen in
// that case and returned together with any shutdown error.
func (a *App) Run(ctx context.Context, targets []string, opts Options) error {
	p, err := a.load(opts)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		targets = []string{domain.DefaultTask}
	}

	renderer := linear.NewRenderer(a.stdout, a.stderr, output.ProfileFor(a.interactive))

	bridge := telemetry.NewBridge(renderer)
	tp := newTracerProvider(bridge, a.adapters.Metrics)
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	tracer := telemetry.NewOTelTracer(tp, "gild").WithRenderer(renderer)
	sched := scheduler.NewScheduler(tracer, a.adapters.Server)

	var graph *domain.Graph
	rec := recipe.New(p.cfg, p.env, recipe.Deps{
		Reader:  a.adapters.Reader,
		Writer:  a.adapters.Writer,
		Cleaner: a.adapters.Cleaner,
		Server:  a.adapters.Server,
		Browser: a.adapters.Browser,
		Watcher: a.adapters.Watcher,
		Trigger: func(ctx context.Context, task string) error {
			return sched.Run(ctx, graph, []string{task}, p.jobs)
		},
	})
	graph, err = rec.Graph()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		runErr := a.runTargets(ctx, sched, graph, targets, p.jobs)

		services := rec.Services()
		if len(services) == 0 {
			return runErr
		}
		if runErr != nil {
			a.adapters.Logger.Error(runErr)
		}

		a.adapters.Logger.Info(fmt.Sprintf("%s running, press Ctrl+C to stop", serviceNames(services)))
		<-ctx.Done()
		return errors.Join(runErr, a.shutdown(ctx, services))
	})

	return g.Wait()
}

func (a *App) runTargets(
	ctx context.Context, sched *scheduler.Scheduler, graph *domain.Graph, targets []string, jobs int,
) error {
	for _, target := range targets {
		if err := sched.Run(ctx, graph, []string{target}, jobs); err != nil {
			if domain.IsConfigurationError(err) {
				return err
			}
			return errors.Join(domain.ErrBuildFailed, err)
		}
	}
	return nil
}

// shutdown stops services in reverse start order. Every service gets the chance to stop.
func (a *App) shutdown(ctx context.Context, services []ports.Service) error {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
	defer cancel()

	var errs error
	for i := len(services) - 1; i >= 0; i-- {
		s := services[i]
		if err := s.Shutdown(shutdownCtx); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to stop service"), "service", s.Name()))
		}
	}
	if errs == nil {
		a.adapters.Logger.Info("stopped")
	}
	return errs
}

func serviceNames(services []ports.Service) string {
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name()
	}
	return strings.Join(names, " and ")
}

// newTracerProvider reports spans to the renderer bridge and, when present, the metrics.
func newTracerProvider(bridge *telemetry.Bridge, m *metrics.Metrics) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSpanProcessor(bridge)}
	if m != nil {
		opts = append(opts, sdktrace.WithSpanProcessor(m))
	}
	return sdktrace.NewTracerProvider(opts...)
}
