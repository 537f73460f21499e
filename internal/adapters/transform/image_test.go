package transform_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/adapters/transform"
	"go.trai.ch/gild/internal/core/domain"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	return img
}

func TestImageOptimizer(t *testing.T) {
	t.Parallel()

	var pngBuf, jpegBuf bytes.Buffer
	require.NoError(t, (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&pngBuf, testImage()))
	require.NoError(t, jpeg.Encode(&jpegBuf, testImage(), &jpeg.Options{Quality: 100}))

	svg := []byte("<svg xmlns=\"http://www.w3.org/2000/svg\">\n  <!-- generated -->\n  <rect width=\"10\" height=\"10\"/>\n</svg>\n")
	records := []domain.Record{
		domain.NewRecord("src/img", "a.png", pngBuf.Bytes()),
		domain.NewRecord("src/img", "b.jpg", jpegBuf.Bytes()),
		domain.NewRecord("src/img", "c.svg", svg),
		domain.NewRecord("src/img", "d.webp", []byte("RIFF")),
	}

	out, err := transform.NewImageOptimizer().Transform(t.Context(), records)
	require.NoError(t, err)
	require.Len(t, out, len(records))

	for i := range 3 {
		assert.Equal(t, records[i].Path, out[i].Path)
		assert.Less(t, len(out[i].Contents), len(records[i].Contents), out[i].Path)
	}
	assert.Equal(t, records[3], out[3])

	decoded, err := png.Decode(bytes.NewReader(out[0].Contents))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), decoded.Bounds())
}

func TestImageOptimizer_KeepsSmallerOriginal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, testImage()))

	in := domain.NewRecord("src/img", "a.png", buf.Bytes())
	out, err := transform.NewImageOptimizer().Transform(t.Context(), []domain.Record{in})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.LessOrEqual(t, len(out[0].Contents), len(in.Contents))
}

func TestImageOptimizer_Undecodable(t *testing.T) {
	t.Parallel()

	_, err := transform.NewImageOptimizer().Transform(t.Context(), []domain.Record{
		domain.NewRecord("src/img", "broken.png", []byte("not a png")),
	})
	require.ErrorIs(t, err, domain.ErrTransformFailed)

	var te *domain.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "src/img/broken.png", te.Path)
}
