package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/gild/internal/adapters/transform/scss"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
)

var errIndentedSyntax = errors.New("indented .sass syntax is not supported, use .scss")

// Sass compiles SCSS records into CSS. Partials (files starting with "_") produce no output.
type Sass struct {
	root      string
	style     scss.Style
	comments  bool
	sourceURL bool
}

// NewSass creates a Sass step resolving imports relative to root and formatting
// its output according to env.
func NewSass(root string, env domain.BuildEnvironment) *Sass {
	style := scss.Expanded
	if env.SassStyle == domain.SassCompressed {
		style = scss.Compressed
	}
	return &Sass{
		root:      root,
		style:     style,
		comments:  env.Comments && style == scss.Expanded,
		sourceURL: env.SourceMaps,
	}
}

// Name implements ports.Step.
func (s *Sass) Name() string { return "sass" }

// Transform implements ports.Step.
func (s *Sass) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(path.Base(r.Path), "_") {
			continue
		}

		switch r.Ext() {
		case ".scss":
		case ".sass":
			return nil, domain.NewTransformError(s.Name(), r.Source(), errIndentedSyntax)
		default:
			out = append(out, r)
			continue
		}

		css, err := scss.Compile(r.Source(), r.Contents, scss.Options{
			Style:        s.style,
			LineComments: s.comments,
			Load:         s.load,
			Log:          ports.OutputFromContext(ctx),
		})
		if err != nil {
			return nil, domain.NewTransformError(s.Name(), r.Source(), err)
		}
		if s.sourceURL {
			css = fmt.Appendf(css, "/*# sourceURL=%s */\n", r.Source())
		}
		out = append(out, r.WithPath(replaceExt(r.Path, ".css")).WithContents(css))
	}
	return out, nil
}

func (s *Sass) load(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(name)))
}
