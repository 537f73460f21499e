package domain

import "time"

// Config describes the asset sources and services of a project.
type Config struct {
	// Root is the absolute project directory that every relative path is resolved against.
	Root     string
	BuildDir string

	Sources      Sources
	Vendor       Vendor
	Server       Server
	Sprite       Sprite
	Environments map[string]BuildEnvironment

	// Debounce is how long the watcher waits for a burst of changes to settle.
	Debounce time.Duration
	// Jobs caps the number of concurrently running tasks. Zero means one per CPU.
	Jobs int
}

// Sources holds the glob patterns for each asset kind.
type Sources struct {
	JS      []string
	Sass    []string
	Images  []string
	Sprites []string
	SVG     []string
	Fonts   []string
	Index   []string
}

// Vendor lists third-party files concatenated into vendor bundles.
type Vendor struct {
	CSS []string
	JS  []string
}

// Server configures the development server.
type Server struct {
	Host string
	Port int
	// Open controls whether the browser is launched by openBrowser.
	Open bool
}

// Sprite configures the SVG sprite builder.
type Sprite struct {
	// Selector is a class name template; %s is replaced with the icon name.
	Selector  string
	MaxWidth  int
	MaxHeight int
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		BuildDir: DefaultBuildDir,
		Sources: Sources{
			JS:      []string{"src/js/**/*.js"},
			Sass:    []string{"src/sass/main.{scss,sass}"},
			Images:  []string{"src/img/**/*.*", "!src/img/icons/**"},
			Sprites: []string{"src/img/icons/sprites/*.svg"},
			SVG:     []string{"src/img/icons/*.svg"},
			Fonts:   []string{"src/fonts/**/*.{woff,woff2}"},
			Index:   []string{"src/*.html"},
		},
		Server: Server{
			Host: "localhost",
			Port: DefaultPort,
			Open: true,
		},
		Sprite: Sprite{
			Selector:  "icon-%s",
			MaxWidth:  16,
			MaxHeight: 16,
		},
		Environments: DefaultEnvironments(),
		Debounce:     DefaultDebounce,
	}
}
