package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/gild/internal/core/ports/mocks"
	"go.trai.ch/gild/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

func TestPipeline_RunsStepsInOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockSourceReader(ctrl)
	dst := mocks.NewMockWriter(ctrl)
	first := mocks.NewMockStep(ctrl)
	second := mocks.NewMockStep(ctrl)

	input := []domain.Record{domain.NewRecord("src/js", "a.js", []byte("a"))}
	middle := []domain.Record{domain.NewRecord("src/js", "a.js", []byte("b"))}
	final := []domain.Record{domain.NewRecord("", "script.js", []byte("c"))}

	gomock.InOrder(
		src.EXPECT().Read(gomock.Any(), "/project", []string{"src/js/**/*.js", "!src/js/skip.js"}).Return(input, nil),
		first.EXPECT().Transform(gomock.Any(), input).Return(middle, nil),
		second.EXPECT().Transform(gomock.Any(), middle).Return(final, nil),
		dst.EXPECT().Write(gomock.Any(), "/project/builds/development/js", final).Return([]string{"script.js"}, nil),
	)

	action := pipeline.New("js", src, dst).
		Within("/project").
		From("src/js/**/*.js", "!src/js/skip.js").
		Then(first, nil, second).
		To("/project/builds/development/js")

	var out bytes.Buffer
	require.NoError(t, action(ports.ContextWithOutput(t.Context(), &out)))
	assert.Equal(t, "wrote script.js\n", out.String())
}

func TestPipeline_When(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	step := mocks.NewMockStep(ctrl)

	assert.Empty(t, pipeline.When(false, step))
	assert.Equal(t, []ports.Step{step}, pipeline.When(true, step))
}

func TestPipeline_ToFreezesBuilder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockSourceReader(ctrl)
	dst := mocks.NewMockWriter(ctrl)
	late := mocks.NewMockStep(ctrl)

	src.EXPECT().Read(gomock.Any(), "", []string{"a"}).Return(nil, nil)
	dst.EXPECT().Write(gomock.Any(), "out", gomock.Nil()).Return(nil, nil)

	p := pipeline.New("x", src, dst).From("a")
	action := p.To("out")
	p.From("b").Then(late)

	require.NoError(t, action(t.Context()))
}

func TestPipeline_Errors(t *testing.T) {
	t.Parallel()

	readErr := domain.NewIOError("read", "src/index.html", errors.New("missing"))
	transformErr := domain.NewTransformError("lint", "src/js/a.js", errors.New("syntax"))
	plainErr := errors.New("boom")

	tests := []struct {
		name  string
		setup func(src *mocks.MockSourceReader, step *mocks.MockStep, dst *mocks.MockWriter)
		check func(t *testing.T, err error)
	}{
		{
			name: "read failure stops the pipeline",
			setup: func(src *mocks.MockSourceReader, _ *mocks.MockStep, _ *mocks.MockWriter) {
				src.EXPECT().Read(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, readErr)
			},
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, domain.ErrIO)
			},
		},
		{
			name: "transform errors are returned as is",
			setup: func(src *mocks.MockSourceReader, step *mocks.MockStep, _ *mocks.MockWriter) {
				src.EXPECT().Read(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				step.EXPECT().Transform(gomock.Any(), gomock.Any()).Return(nil, transformErr)
			},
			check: func(t *testing.T, err error) {
				t.Helper()
				require.Equal(t, transformErr, err)
			},
		},
		{
			name: "other step errors carry the step name",
			setup: func(src *mocks.MockSourceReader, step *mocks.MockStep, _ *mocks.MockWriter) {
				src.EXPECT().Read(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				step.EXPECT().Transform(gomock.Any(), gomock.Any()).Return(nil, plainErr)
				step.EXPECT().Name().Return("custom")
			},
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, plainErr)
				assert.Contains(t, err.Error(), "pipeline step failed")
			},
		},
		{
			name: "write failure",
			setup: func(src *mocks.MockSourceReader, step *mocks.MockStep, dst *mocks.MockWriter) {
				src.EXPECT().Read(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				step.EXPECT().Transform(gomock.Any(), gomock.Any()).Return(nil, nil)
				dst.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.NewIOError("write", "x", plainErr))
			},
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, domain.ErrIO)
				require.ErrorIs(t, err, plainErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			src := mocks.NewMockSourceReader(ctrl)
			step := mocks.NewMockStep(ctrl)
			dst := mocks.NewMockWriter(ctrl)
			tt.setup(src, step, dst)

			err := pipeline.New("p", src, dst).From("x").Then(step).To("out")(t.Context())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestPipeline_CanceledContext(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockSourceReader(ctrl)
	step := mocks.NewMockStep(ctrl)
	dst := mocks.NewMockWriter(ctrl)

	ctx, cancel := context.WithCancel(t.Context())
	src.EXPECT().Read(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string, []string) ([]domain.Record, error) {
			cancel()
			return nil, nil
		})

	err := pipeline.New("p", src, dst).Then(step).To("out")(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
