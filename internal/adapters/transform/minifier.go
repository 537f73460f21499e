package transform

import (
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/gild/internal/core/domain"
)

const (
	mediaCSS  = "text/css"
	mediaJS   = "application/javascript"
	mediaHTML = "text/html"
	mediaSVG  = "image/svg+xml"
)

var mediaTypes = map[string]string{
	".css":  mediaCSS,
	".js":   mediaJS,
	".mjs":  mediaJS,
	".html": mediaHTML,
	".htm":  mediaHTML,
	".svg":  mediaSVG,
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaJS, js.Minify)
	m.Add(mediaHTML, &html.Minifier{KeepDocumentTags: true, KeepEndTags: true, KeepQuotes: true})
	m.AddFunc(mediaSVG, svg.Minify)
	return m
}

// Minifier minifies CSS, JavaScript, HTML and SVG records. Other records pass through.
type Minifier struct {
	m *minify.M
}

// NewMinifier creates a Minifier.
func NewMinifier() *Minifier {
	return &Minifier{m: newMinifier()}
}

// Name implements ports.Step.
func (m *Minifier) Name() string { return "minify" }

// Transform implements ports.Step.
func (m *Minifier) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mediatype, ok := mediaTypes[r.Ext()]
		if !ok {
			out = append(out, r)
			continue
		}
		b, err := m.m.Bytes(mediatype, r.Contents)
		if err != nil {
			return nil, domain.NewTransformError(m.Name(), r.Source(), err)
		}
		out = append(out, r.WithContents(b))
	}
	return out, nil
}
