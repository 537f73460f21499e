package domain

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

const (
	// EnvDevelopment is the environment selected when none is given.
	EnvDevelopment = "dev"
	// EnvProduction enables minification and compressed styles.
	EnvProduction = "production"
)

// SassStyle controls the formatting of compiled stylesheets.
type SassStyle string

const (
	// SassExpanded emits one declaration per line.
	SassExpanded SassStyle = "expanded"
	// SassCompressed emits the smallest possible stylesheet.
	SassCompressed SassStyle = "compressed"
)

// BuildEnvironment is an immutable configuration profile selected once at startup.
// It is passed by value into the recipe; nothing reads it from global state.
type BuildEnvironment struct {
	Name string
	// OutputDir is relative to the project root.
	OutputDir string
	Minify    bool
	// Comments annotates compiled CSS with source line comments.
	Comments bool
	// SourceMaps appends a sourceURL comment to compiled CSS.
	SourceMaps bool
	SassStyle  SassStyle
}

// DefaultEnvironments returns the built-in development and production profiles.
func DefaultEnvironments() map[string]BuildEnvironment {
	return map[string]BuildEnvironment{
		EnvDevelopment: {
			Name:       EnvDevelopment,
			OutputDir:  DefaultBuildDir + "/development",
			Minify:     false,
			Comments:   true,
			SourceMaps: true,
			SassStyle:  SassExpanded,
		},
		EnvProduction: {
			Name:       EnvProduction,
			OutputDir:  DefaultBuildDir + "/production",
			Minify:     true,
			Comments:   false,
			SourceMaps: false,
			SassStyle:  SassCompressed,
		},
	}
}

// SelectEnvironment picks the named profile, falling back to EnvDevelopment for an empty name.
func SelectEnvironment(envs map[string]BuildEnvironment, name string) (BuildEnvironment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = EnvDevelopment
	}
	env, ok := envs[name]
	if !ok {
		return BuildEnvironment{}, zerr.With(
			zerr.With(zerr.Wrap(ErrUnknownEnvironment, "cannot select build environment"), "environment", name),
			"available", strings.Join(slices.Sorted(maps.Keys(envs)), ", "),
		)
	}
	env.Name = name
	return env, nil
}
