package config

// Gildfile represents the structure of the gild.yaml configuration file.
// Every field is optional; absent fields keep their default.
type Gildfile struct {
	Root         string                    `yaml:"root"`
	BuildDir     string                    `yaml:"buildDir"`
	Debounce     string                    `yaml:"debounce"`
	Jobs         *int                      `yaml:"jobs"`
	Sources      SourcesDTO                `yaml:"sources"`
	Vendor       VendorDTO                 `yaml:"vendor"`
	Server       ServerDTO                 `yaml:"server"`
	Sprite       SpriteDTO                 `yaml:"sprite"`
	Environments map[string]EnvironmentDTO `yaml:"environments"`
}

// SourcesDTO holds the glob patterns per asset kind.
type SourcesDTO struct {
	JS      []string `yaml:"js"`
	Sass    []string `yaml:"sass"`
	Images  []string `yaml:"images"`
	Sprites []string `yaml:"sprites"`
	SVG     []string `yaml:"svg"`
	Fonts   []string `yaml:"fonts"`
	Index   []string `yaml:"index"`
}

// VendorDTO lists the third-party files bundled by the vendor tasks.
type VendorDTO struct {
	CSS []string `yaml:"css"`
	JS  []string `yaml:"js"`
}

// ServerDTO configures the development server.
type ServerDTO struct {
	Host string `yaml:"host"`
	Port *int   `yaml:"port"`
	Open *bool  `yaml:"open"`
}

// SpriteDTO configures the SVG sprite.
type SpriteDTO struct {
	Selector  string `yaml:"selector"`
	MaxWidth  *int   `yaml:"maxWidth"`
	MaxHeight *int   `yaml:"maxHeight"`
}

// EnvironmentDTO defines or overrides a build environment.
type EnvironmentDTO struct {
	OutputDir  string `yaml:"outputDir"`
	Minify     *bool  `yaml:"minify"`
	Comments   *bool  `yaml:"comments"`
	SourceMaps *bool  `yaml:"sourceMaps"`
	SassStyle  string `yaml:"sassStyle"`
}
