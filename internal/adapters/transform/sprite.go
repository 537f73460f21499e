package transform

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/gild/internal/core/domain"
)

// SpriteOptions configures a SpriteBuilder.
type SpriteOptions struct {
	// Selector is the class name template; %s is replaced with the icon name.
	Selector  string
	MaxWidth  float64
	MaxHeight float64
	// SpritePath and CSSPath are the generated record paths.
	SpritePath string
	CSSPath    string
}

// SpriteBuilder stacks SVG icons vertically into one sprite sheet and generates
// a stylesheet with one class per icon.
type SpriteBuilder struct {
	opts SpriteOptions
}

// NewSpriteBuilder creates a SpriteBuilder.
func NewSpriteBuilder(opts SpriteOptions) *SpriteBuilder {
	if opts.Selector == "" {
		opts.Selector = "icon-%s"
	}
	if opts.SpritePath == "" {
		opts.SpritePath = "img/sprite.svg"
	}
	if opts.CSSPath == "" {
		opts.CSSPath = "css/sprite.css"
	}
	return &SpriteBuilder{opts: opts}
}

// Name implements ports.Step.
func (s *SpriteBuilder) Name() string { return "sprite" }

type icon struct {
	name    string
	viewBox string
	width   float64
	height  float64
	inner   []byte
}

// Transform implements ports.Step.
func (s *SpriteBuilder) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	icons := make([]icon, 0, len(records))
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ic, err := parseIcon(r.Contents)
		if err != nil {
			return nil, domain.NewTransformError(s.Name(), r.Source(), err)
		}
		ic.name = iconName(r.Path)
		ic.width, ic.height = fit(ic.width, ic.height, s.opts.MaxWidth, s.opts.MaxHeight)
		icons = append(icons, ic)
	}

	var (
		sheet, style  bytes.Buffer
		offset, width float64
	)
	for _, ic := range icons {
		width = math.Max(width, ic.width)
	}
	for i, ic := range icons {
		fmt.Fprintf(&sheet, `<svg x="0" y="%s" width="%s" height="%s" viewBox="%s">`,
			formatFloat(offset), formatFloat(ic.width), formatFloat(ic.height), ic.viewBox)
		sheet.Write(ic.inner)
		sheet.WriteString("</svg>")

		if i > 0 {
			style.WriteString("\n")
		}
		fmt.Fprintf(&style, ".%s {\n  width: %spx;\n  height: %spx;\n  background: url(%q) 0 %s no-repeat;\n}\n",
			strings.ReplaceAll(s.opts.Selector, "%s", ic.name),
			formatFloat(ic.width), formatFloat(ic.height),
			s.spriteURL(), formatOffset(offset))
		offset += ic.height
	}
	total := offset

	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(total), formatFloat(width), formatFloat(total))
	doc.Write(sheet.Bytes())
	doc.WriteString("</svg>\n")

	return []domain.Record{
		domain.NewRecord("", s.opts.SpritePath, doc.Bytes()),
		domain.NewRecord("", s.opts.CSSPath, style.Bytes()),
	}, nil
}

func (s *SpriteBuilder) spriteURL() string {
	rel, err := filepath.Rel(path.Dir(s.opts.CSSPath), s.opts.SpritePath)
	if err != nil {
		return "/" + s.opts.SpritePath
	}
	return filepath.ToSlash(rel)
}

var errNotSVG = errors.New("root element is not <svg>")

func parseIcon(src []byte) (icon, error) {
	d := xml.NewDecoder(bytes.NewReader(src))
	for {
		tok, err := d.Token()
		if err != nil {
			return icon{}, fmt.Errorf("invalid svg: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return icon{}, errNotSVG
		}

		var ic icon
		var w, h string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "viewBox":
				ic.viewBox = strings.Join(strings.Fields(a.Value), " ")
			case "width":
				w = a.Value
			case "height":
				h = a.Value
			}
		}
		if err := ic.size(w, h); err != nil {
			return icon{}, err
		}

		begin := int(d.InputOffset())
		if err := d.Skip(); err != nil {
			return icon{}, fmt.Errorf("invalid svg: %w", err)
		}
		end := bytes.LastIndex(src[:int(d.InputOffset())], []byte("</"))
		if end < begin {
			end = begin
		}
		ic.inner = bytes.TrimSpace(src[begin:end])
		return ic, nil
	}
}

func (ic *icon) size(w, h string) error {
	if ic.viewBox != "" {
		f := strings.Fields(ic.viewBox)
		if len(f) != 4 {
			return fmt.Errorf("invalid viewBox %q", ic.viewBox)
		}
		vw, err1 := strconv.ParseFloat(f[2], 64)
		vh, err2 := strconv.ParseFloat(f[3], 64)
		if err := errors.Join(err1, err2); err != nil {
			return fmt.Errorf("invalid viewBox %q: %w", ic.viewBox, err)
		}
		ic.width, ic.height = vw, vh
	}
	if w != "" && h != "" {
		pw, err1 := strconv.ParseFloat(strings.TrimSuffix(w, "px"), 64)
		ph, err2 := strconv.ParseFloat(strings.TrimSuffix(h, "px"), 64)
		if err := errors.Join(err1, err2); err != nil {
			return fmt.Errorf("invalid dimensions %qx%q: %w", w, h, err)
		}
		ic.width, ic.height = pw, ph
	}
	if ic.width <= 0 || ic.height <= 0 {
		return errors.New("svg has no usable width, height or viewBox")
	}
	if ic.viewBox == "" {
		ic.viewBox = "0 0 " + formatFloat(ic.width) + " " + formatFloat(ic.height)
	}
	return nil
}

// fit scales w x h down proportionally to fit within maxW x maxH. Zero limits are ignored.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = math.Min(scale, maxW/w)
	}
	if maxH > 0 && h > maxH {
		scale = math.Min(scale, maxH/h)
	}
	return round2(w * scale), round2(h * scale)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}

func formatOffset(y float64) string {
	if y == 0 {
		return "0"
	}
	return "-" + formatFloat(y) + "px"
}

func iconName(p string) string {
	name := strings.ToLower(stem(p))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}
