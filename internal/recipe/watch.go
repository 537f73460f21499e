package recipe

import (
	"path"
	"strings"

	"go.trai.ch/gild/internal/core/domain"
)

// bindings relates each asset kind's sources to the task rebuilding it.
// Stylesheets are watched below their directory so that changed partials recompile too.
func (r *Recipe) bindings() []domain.WatchBinding {
	src := r.cfg.Sources
	candidates := []domain.WatchBinding{
		{Globs: r.cfg.Vendor.CSS, Tasks: []string{TaskStylesVendor}},
		{Globs: sassWatchGlobs(src.Sass), Tasks: []string{TaskStyles}},
		{Globs: r.cfg.Vendor.JS, Tasks: []string{TaskJSVendor}},
		{Globs: src.JS, Tasks: []string{TaskJS}},
		{Globs: src.Images, Tasks: []string{TaskImages}},
		{Globs: src.SVG, Tasks: []string{TaskSVG}},
		{Globs: src.Sprites, Tasks: []string{TaskSprite}},
		{Globs: src.Fonts, Tasks: []string{TaskFonts}},
		{Globs: src.Index, Tasks: []string{TaskIndex}},
	}

	bindings := make([]domain.WatchBinding, 0, len(candidates))
	for _, b := range candidates {
		if hasPositive(b.Globs) {
			bindings = append(bindings, b)
		}
	}
	return bindings
}

func sassWatchGlobs(patterns []string) []string {
	var globs []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			continue
		}
		dir := path.Dir(strings.TrimPrefix(p, "./"))
		if i := strings.IndexAny(dir, "*?[{"); i >= 0 {
			dir = path.Dir(dir[:i] + "x")
		}
		g := path.Join(dir, "**/*.{scss,sass}")
		if !seen[g] {
			seen[g] = true
			globs = append(globs, g)
		}
	}
	return globs
}

func hasPositive(globs []string) bool {
	for _, g := range globs {
		if !strings.HasPrefix(g, "!") {
			return true
		}
	}
	return false
}
