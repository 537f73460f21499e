// Package config provides the configuration loader for gild.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const maxPort = 65535

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration file at path. A relative path is resolved against cwd.
// When the file does not exist the defaults are returned, rooted at cwd.
func (l *Loader) Load(cwd, configPath string) (domain.Config, error) {
	if configPath == "" {
		configPath = domain.ConfigFileName
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(cwd, configPath)
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // path is provided by user
	if errors.Is(err, fs.ErrNotExist) {
		if l.Logger != nil {
			l.Logger.Warn("no " + filepath.Base(configPath) + " found, using the default configuration")
		}
		cfg := domain.DefaultConfig()
		cfg.Root = filepath.Clean(cwd)
		return cfg, nil
	}
	if err != nil {
		return domain.Config{}, errors.Join(domain.ErrConfigReadFailed, domain.NewIOError("read", configPath, err))
	}

	var file Gildfile
	if err := decode(data, &file); err != nil {
		return domain.Config{}, zerr.With(
			zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "cannot load configuration"), "path", configPath),
			"reason", err.Error(),
		)
	}

	cfg, err := build(&file, filepath.Dir(configPath))
	if err != nil {
		return domain.Config{}, zerr.With(err, "path", configPath)
	}
	return cfg, nil
}

// decode rejects unknown keys. An empty document decodes to the zero Gildfile.
func decode(data []byte, out *Gildfile) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func build(file *Gildfile, configDir string) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	cfg.Root = resolveRoot(configDir, file.Root)

	if file.BuildDir != "" {
		dir, err := relativeDir("buildDir", file.BuildDir)
		if err != nil {
			return domain.Config{}, err
		}
		cfg.BuildDir = dir
		cfg.Environments = rebase(cfg.Environments, dir)
	}

	if file.Debounce != "" {
		d, err := time.ParseDuration(file.Debounce)
		if err != nil || d < 0 {
			return domain.Config{}, invalid("debounce", file.Debounce)
		}
		cfg.Debounce = d
	}

	if file.Jobs != nil {
		if *file.Jobs < 0 {
			return domain.Config{}, invalid("jobs", *file.Jobs)
		}
		cfg.Jobs = *file.Jobs
	}

	applySources(&cfg.Sources, file.Sources)
	cfg.Vendor.CSS = override(cfg.Vendor.CSS, file.Vendor.CSS)
	cfg.Vendor.JS = override(cfg.Vendor.JS, file.Vendor.JS)

	if err := applyServer(&cfg.Server, file.Server); err != nil {
		return domain.Config{}, err
	}
	if err := applySprite(&cfg.Sprite, file.Sprite); err != nil {
		return domain.Config{}, err
	}

	for name, dto := range file.Environments {
		env, err := buildEnvironment(cfg.Environments, cfg.BuildDir, name, dto)
		if err != nil {
			return domain.Config{}, err
		}
		cfg.Environments[name] = env
	}

	return cfg, nil
}

func resolveRoot(configDir, root string) string {
	if root == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(configDir, root)
}

func applySources(dst *domain.Sources, src SourcesDTO) {
	dst.JS = override(dst.JS, src.JS)
	dst.Sass = override(dst.Sass, src.Sass)
	dst.Images = override(dst.Images, src.Images)
	dst.Sprites = override(dst.Sprites, src.Sprites)
	dst.SVG = override(dst.SVG, src.SVG)
	dst.Fonts = override(dst.Fonts, src.Fonts)
	dst.Index = override(dst.Index, src.Index)
}

func applyServer(dst *domain.Server, src ServerDTO) error {
	if src.Host != "" {
		dst.Host = strings.TrimSpace(src.Host)
	}
	if src.Port != nil {
		if *src.Port < 1 || *src.Port > maxPort {
			return invalid("server.port", *src.Port)
		}
		dst.Port = *src.Port
	}
	if src.Open != nil {
		dst.Open = *src.Open
	}
	return nil
}

func applySprite(dst *domain.Sprite, src SpriteDTO) error {
	if src.Selector != "" {
		if strings.Count(src.Selector, "%s") != 1 {
			return invalid("sprite.selector", src.Selector)
		}
		dst.Selector = src.Selector
	}
	if src.MaxWidth != nil {
		if *src.MaxWidth <= 0 {
			return invalid("sprite.maxWidth", *src.MaxWidth)
		}
		dst.MaxWidth = *src.MaxWidth
	}
	if src.MaxHeight != nil {
		if *src.MaxHeight <= 0 {
			return invalid("sprite.maxHeight", *src.MaxHeight)
		}
		dst.MaxHeight = *src.MaxHeight
	}
	return nil
}

// buildEnvironment overlays dto on the built-in profile of the same name.
// A new name starts from the development profile with its own output directory.
func buildEnvironment(
	envs map[string]domain.BuildEnvironment, buildDir, name string, dto EnvironmentDTO,
) (domain.BuildEnvironment, error) {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t\n/") {
		return domain.BuildEnvironment{}, invalid("environments", name)
	}

	env, ok := envs[name]
	if !ok {
		env = envs[domain.EnvDevelopment]
		env.OutputDir = path.Join(buildDir, name)
	}
	env.Name = name

	if dto.OutputDir != "" {
		dir, err := relativeDir("environments."+name+".outputDir", dto.OutputDir)
		if err != nil {
			return domain.BuildEnvironment{}, err
		}
		env.OutputDir = dir
	}
	if dto.Minify != nil {
		env.Minify = *dto.Minify
	}
	if dto.Comments != nil {
		env.Comments = *dto.Comments
	}
	if dto.SourceMaps != nil {
		env.SourceMaps = *dto.SourceMaps
	}
	if dto.SassStyle != "" {
		style := domain.SassStyle(dto.SassStyle)
		if style != domain.SassExpanded && style != domain.SassCompressed {
			return domain.BuildEnvironment{}, invalid("environments."+name+".sassStyle", dto.SassStyle)
		}
		env.SassStyle = style
	}
	return env, nil
}

// rebase moves the output directories of the built-in profiles below buildDir.
func rebase(envs map[string]domain.BuildEnvironment, buildDir string) map[string]domain.BuildEnvironment {
	for name, env := range envs {
		env.OutputDir = path.Join(buildDir, path.Base(env.OutputDir))
		envs[name] = env
	}
	return envs
}

// relativeDir cleans dir and rejects paths that leave the project root.
func relativeDir(field, dir string) (string, error) {
	clean := path.Clean(filepath.ToSlash(strings.TrimSpace(dir)))
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", invalid(field, dir)
	}
	return clean, nil
}

func override(defaults, values []string) []string {
	if values == nil {
		return defaults
	}
	return values
}

func invalid(field string, value any) error {
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "cannot load configuration"), "field", field), "value", value)
}
