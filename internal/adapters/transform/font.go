package transform

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.trai.ch/gild/internal/core/domain"
)

var fontFormats = map[string]struct {
	magic  []byte
	format string
	mime   string
}{
	".woff":  {magic: []byte("wOFF"), format: "woff", mime: "font/woff"},
	".woff2": {magic: []byte("wOF2"), format: "woff2", mime: "font/woff2"},
}

// FontInliner turns each web font into a stylesheet declaring the font as a base64 data URI.
type FontInliner struct{}

// NewFontInliner creates a FontInliner.
func NewFontInliner() *FontInliner { return &FontInliner{} }

// Name implements ports.Step.
func (f *FontInliner) Name() string { return "font64" }

// Transform implements ports.Step.
func (f *FontInliner) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ff, ok := fontFormats[strings.ToLower(r.Ext())]
		if !ok {
			return nil, domain.NewTransformError(f.Name(), r.Source(), fmt.Errorf("unsupported font type %q", r.Ext()))
		}
		if !bytes.HasPrefix(r.Contents, ff.magic) {
			return nil, domain.NewTransformError(f.Name(), r.Source(), errors.New("not a "+ff.format+" font"))
		}

		var b strings.Builder
		b.WriteString("@font-face {\n")
		fmt.Fprintf(&b, "  font-family: %q;\n", stem(r.Path))
		fmt.Fprintf(&b, "  src: url(data:%s;base64,%s) format(%q);\n",
			ff.mime, base64.StdEncoding.EncodeToString(r.Contents), ff.format)
		b.WriteString("}\n")

		out = append(out, r.WithPath(replaceExt(r.Path, ".css")).WithContents([]byte(b.String())))
	}
	return out, nil
}
