package transform_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/adapters/transform"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
)

func TestLint(t *testing.T) {
	t.Parallel()

	valid := []domain.Record{
		domain.NewRecord("src/js", "a.js", []byte("const a = () => 1;\n")),
		domain.NewRecord("src/js", "data.json", []byte("{")),
	}
	out, err := transform.NewLint().Transform(t.Context(), valid)
	require.NoError(t, err)
	assert.Equal(t, valid, out)

	_, err = transform.NewLint().Transform(t.Context(), []domain.Record{
		domain.NewRecord("src/js", "ok.js", []byte("let x = 1;\n")),
		domain.NewRecord("src/js", "bad.js", []byte("let x = 1;\nfunction (\n")),
	})
	require.ErrorIs(t, err, domain.ErrTransformFailed)

	var te *domain.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "lint", te.Step)
	assert.Equal(t, "src/js/bad.js", te.Path)
	assert.Contains(t, te.Err.Error(), "line 2")
}

func TestConcat(t *testing.T) {
	t.Parallel()

	out, err := transform.NewConcat("js/script.js").Transform(t.Context(), []domain.Record{
		domain.NewRecord("src/js", "a.js", []byte("var a = 1;")),
		domain.NewRecord("src/js", "b.js", []byte("var b = 2;\n")),
		domain.NewRecord("src/js", "c.js", []byte("var c = 3;\n")),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, "js/script.js", out[0].Path)
	assert.Empty(t, out[0].Base)
	assert.Equal(t, "var a = 1;\nvar b = 2;\nvar c = 3;\n", string(out[0].Contents))
}

func TestConcat_Empty(t *testing.T) {
	t.Parallel()

	out, err := transform.NewConcat("vendor.js").Transform(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	f, err := transform.NewFilter("**/*.css", "!**/*.min.css")
	require.NoError(t, err)

	out, err := f.Transform(t.Context(), []domain.Record{
		domain.NewRecord("bower_components", "normalize/normalize.css", nil),
		domain.NewRecord("bower_components", "jquery/jquery.js", nil),
		domain.NewRecord("bower_components", "lib/lib.min.css", nil),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "normalize/normalize.css", out[0].Path)

	_, err = transform.NewFilter("[")
	require.Error(t, err)
}

func TestSizeReporter(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	ctx := ports.ContextWithOutput(t.Context(), &buf)

	records := []domain.Record{
		domain.NewRecord("", "a.svg", make([]byte, 1000)),
		domain.NewRecord("", "b.svg", make([]byte, 500)),
	}
	out, err := transform.NewSizeReporter("SVG").Transform(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, records, out)
	assert.Equal(t, "SVG 2 files, 1.5 kB\n", buf.String())

	buf.Reset()
	_, err = transform.NewSizeReporter("SVG").Transform(ctx, records[:1])
	require.NoError(t, err)
	assert.Equal(t, "SVG 1 file, 1.0 kB\n", buf.String())

	buf.Reset()
	_, err = transform.NewSizeReporter("SVG").Transform(ctx, records[1:])
	require.NoError(t, err)
	assert.Equal(t, "SVG 1 file, 500 B\n", buf.String())
}
