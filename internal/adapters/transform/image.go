package transform

import (
	"bytes"
	"context"
	"image/gif"
	"image/jpeg"
	"image/png"
	"runtime"
	"strings"

	"github.com/tdewolff/minify/v2"
	"go.trai.ch/gild/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

const jpegQuality = 85

// ImageOptimizer re-encodes raster images and minifies SVGs, keeping the smaller result.
// Records it cannot decode fail the step. Unknown formats pass through.
type ImageOptimizer struct {
	m *minify.M
}

// NewImageOptimizer creates an ImageOptimizer.
func NewImageOptimizer() *ImageOptimizer {
	return &ImageOptimizer{m: newMinifier()}
}

// Name implements ports.Step.
func (o *ImageOptimizer) Name() string { return "imagemin" }

// Transform implements ports.Step.
func (o *ImageOptimizer) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	out := make([]domain.Record, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, r := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := o.optimize(r)
			if err != nil {
				return domain.NewTransformError(o.Name(), r.Source(), err)
			}
			if len(b) < len(r.Contents) {
				out[i] = r.WithContents(b)
			} else {
				out[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *ImageOptimizer) optimize(r domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(r.Ext()) {
	case ".png":
		img, err := png.Decode(bytes.NewReader(r.Contents))
		if err != nil {
			return nil, err
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	case ".jpg", ".jpeg":
		img, err := jpeg.Decode(bytes.NewReader(r.Contents))
		if err != nil {
			return nil, err
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	case ".gif":
		img, err := gif.DecodeAll(bytes.NewReader(r.Contents))
		if err != nil {
			return nil, err
		}
		if err := gif.EncodeAll(&buf, img); err != nil {
			return nil, err
		}
	case ".svg":
		return o.m.Bytes(mediaSVG, r.Contents)
	default:
		return r.Contents, nil
	}
	return buf.Bytes(), nil
}
