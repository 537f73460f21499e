package recipe

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.trai.ch/gild/internal/adapters/transform"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/gild/internal/engine/pipeline"
)

// spriteSheet stays outside the directory owned by the images task.
const spriteSheet = "img/sprites/sprite.svg"

// assetTasks make up the build task.
var assetTasks = []string{
	TaskStylesVendor, TaskStyles, TaskJSVendor, TaskJS,
	TaskImages, TaskSVG, TaskSprite, TaskFonts, TaskIndex,
}

func (r *Recipe) tasks() ([]taskDef, error) {
	cssFilter, err := transform.NewFilter("**/*.css")
	if err != nil {
		return nil, err
	}
	jsFilter, err := transform.NewFilter("**/*.js")
	if err != nil {
		return nil, err
	}

	src := r.cfg.Sources
	minify := r.env.Minify

	defs := []taskDef{
		{
			name:        TaskStylesVendor,
			description: "Bundle vendor stylesheets into css/vendor.css",
			outputs:     []string{"css/vendor.css"},
			action: r.pipeline(TaskStylesVendor).
				From(r.cfg.Vendor.CSS...).
				Then(cssFilter, transform.NewConcat("vendor.css")).
				Then(pipeline.When(minify, transform.NewMinifier())...).
				To(r.out("css")),
		},
		{
			name:        TaskStyles,
			description: "Compile and prefix the project stylesheets",
			outputs:     outputsFor(src.Sass, "css", ".css"),
			action: r.pipeline(TaskStyles).
				From(src.Sass...).
				Then(transform.NewSass(r.cfg.Root, r.env), transform.NewPrefixer()).
				Then(pipeline.When(minify, transform.NewMinifier())...).
				Then(transform.NewSizeReporter("CSS")).
				To(r.out("css")),
		},
		{
			name:        TaskJSVendor,
			description: "Bundle vendor scripts into js/vendor.js",
			outputs:     []string{"js/vendor.js"},
			action: r.pipeline(TaskJSVendor).
				From(r.cfg.Vendor.JS...).
				Then(jsFilter, transform.NewConcat("vendor.js")).
				Then(pipeline.When(minify, transform.NewMinifier())...).
				To(r.out("js")),
		},
		{
			name:        TaskJS,
			description: "Lint and bundle the project scripts into js/script.js",
			outputs:     []string{"js/script.js"},
			action: r.pipeline(TaskJS).
				From(src.JS...).
				Then(transform.NewLint(), transform.NewConcat("script.js")).
				Then(pipeline.When(minify, transform.NewMinifier())...).
				Then(transform.NewSizeReporter("JS")).
				To(r.out("js")),
		},
		{
			name:        TaskImages,
			description: "Optimize images",
			outputs:     []string{"img/*"},
			action: r.pipeline(TaskImages).
				From(src.Images...).
				Then(transform.NewImageOptimizer(), transform.NewSizeReporter("Images")).
				To(r.out("img")),
		},
		{
			name:        TaskSVG,
			description: "Minify SVG icons",
			outputs:     []string{"img/icons/*.svg"},
			action: r.pipeline(TaskSVG).
				From(src.SVG...).
				Then(transform.NewMinifier(), transform.NewSizeReporter("SVG")).
				To(r.out("img/icons")),
		},
		{
			name:        TaskSprite,
			description: "Merge sprite icons into img/sprites/sprite.svg and css/sprite.css",
			outputs:     []string{spriteSheet, "css/sprite.css"},
			action: r.pipeline(TaskSprite).
				From(src.Sprites...).
				Then(transform.NewSpriteBuilder(transform.SpriteOptions{
					Selector:   r.cfg.Sprite.Selector,
					MaxWidth:   float64(r.cfg.Sprite.MaxWidth),
					MaxHeight:  float64(r.cfg.Sprite.MaxHeight),
					SpritePath: spriteSheet,
					CSSPath:    "css/sprite.css",
				})).
				Then(pipeline.When(minify, transform.NewMinifier())...).
				To(r.out(".")),
		},
		{
			name:        TaskFonts,
			description: "Inline web fonts into css/fonts.css",
			outputs:     []string{"css/fonts.css"},
			action: r.pipeline(TaskFonts).
				From(src.Fonts...).
				Then(transform.NewFontInliner(), transform.NewConcat("fonts.css")).
				Then(pipeline.When(minify, transform.NewMinifier())...).
				To(r.out("css")),
		},
		{
			name:        TaskIndex,
			description: "Copy the HTML entry point",
			outputs:     outputsFor(src.Index, ".", ".html"),
			action: r.pipeline(TaskIndex).
				From(src.Index...).
				Then(pipeline.When(minify, transform.NewMinifier())...).
				To(r.out(".")),
		},
		{
			name:        TaskClean,
			description: "Delete the output of the current environment",
			action:      r.clean(r.env.OutputDir),
		},
		{
			name:        TaskCleanAll,
			description: "Delete the output of every environment",
			action:      r.clean(r.cfg.BuildDir),
		},
		{
			name:        TaskBuild,
			description: "Build every asset",
			deps:        assetTasks,
		},
		{
			name:        TaskWebServer,
			description: "Serve the output with livereload",
			action:      r.serve,
			service:     true,
		},
		{
			name:        TaskOpenBrowser,
			description: "Open the development server in a browser",
			deps:        []string{TaskWebServer},
			action:      r.openBrowser,
		},
		{
			name:        TaskWatch,
			description: "Rebuild assets when their sources change",
			action:      r.watch,
			service:     true,
		},
		{
			name:        TaskDefault,
			description: "Build, serve, open a browser and watch",
			deps:        []string{TaskBuild, TaskWebServer, TaskOpenBrowser, TaskWatch},
		},
	}
	return defs, nil
}

func (r *Recipe) pipeline(name string) *pipeline.Pipeline {
	return pipeline.New(name, r.deps.Reader, r.deps.Writer).Within(r.cfg.Root)
}

func (r *Recipe) clean(dir string) domain.Action {
	return func(ctx context.Context) error {
		if err := r.deps.Cleaner.Clean(ctx, r.cfg.Root, dir); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(ports.OutputFromContext(ctx), "deleted %s\n", dir)
		return nil
	}
}

func (r *Recipe) serve(ctx context.Context) error {
	srv := r.cfg.Server
	if err := r.deps.Server.Serve(ctx, r.OutputDir(), srv.Host, srv.Port); err != nil {
		return err
	}
	r.started(r.deps.Server)
	_, _ = fmt.Fprintf(ports.OutputFromContext(ctx), "serving %s at %s\n", r.env.OutputDir, r.deps.Server.URL())
	return nil
}

func (r *Recipe) openBrowser(ctx context.Context) error {
	url := r.deps.Server.URL()
	if !r.cfg.Server.Open {
		_, _ = fmt.Fprintf(ports.OutputFromContext(ctx), "browser disabled, visit %s\n", url)
		return nil
	}
	return r.deps.Browser.Open(url)
}

func (r *Recipe) watch(ctx context.Context) error {
	bindings := r.bindings()
	err := r.deps.Watcher.Watch(ctx, ports.WatchOptions{
		Root:     r.cfg.Root,
		Skip:     []string{r.cfg.BuildDir},
		Debounce: r.cfg.Debounce,
		Bindings: bindings,
		Trigger:  r.deps.Trigger,
	})
	if err != nil {
		return err
	}
	r.started(r.deps.Watcher)

	out := ports.OutputFromContext(ctx)
	for _, b := range bindings {
		_, _ = fmt.Fprintf(out, "watching %s for %s\n", strings.Join(b.Globs, ", "), strings.Join(b.Tasks, ", "))
	}
	return nil
}

// outputsFor derives the output owned for each source pattern whose file stem is literal,
// such as "src/sass/main.{scss,sass}" producing "css/main.css". Patterns with a wildcard
// stem own every file with ext in dir.
func outputsFor(patterns []string, dir, ext string) []string {
	var outs []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			outs = append(outs, p)
		}
	}
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			continue
		}
		stem, _, _ := strings.Cut(path.Base(p), ".")
		if stem == "" || strings.ContainsAny(stem, "*?[{") {
			add(path.Join(dir, "*"+ext))
			continue
		}
		add(path.Join(dir, stem+ext))
	}
	return outs
}
