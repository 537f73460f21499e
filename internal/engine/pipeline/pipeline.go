// Package pipeline composes source selection, transformation steps and output writing
// into task actions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
)

// Pipeline describes a fixed chain: read sources, apply steps in order, write results.
// A Pipeline is a builder; To freezes it into an action.
type Pipeline struct {
	name  string
	src   ports.SourceReader
	dst   ports.Writer
	root  string
	globs []string
	steps []ports.Step
}

// New creates an empty pipeline.
func New(name string, src ports.SourceReader, dst ports.Writer) *Pipeline {
	return &Pipeline{name: name, src: src, dst: dst}
}

// Within sets the directory source globs are resolved against.
func (p *Pipeline) Within(root string) *Pipeline {
	p.root = root
	return p
}

// From appends source glob patterns. Patterns starting with "!" exclude files.
func (p *Pipeline) From(globs ...string) *Pipeline {
	p.globs = append(p.globs, globs...)
	return p
}

// Then appends steps. Nil steps are ignored.
func (p *Pipeline) Then(steps ...ports.Step) *Pipeline {
	for _, s := range steps {
		if s != nil {
			p.steps = append(p.steps, s)
		}
	}
	return p
}

// When returns steps if cond holds and nothing otherwise.
func When(cond bool, steps ...ports.Step) []ports.Step {
	if !cond {
		return nil
	}
	return steps
}

// To returns the action that runs the pipeline and writes its output below dir.
// Later changes to the builder do not affect the returned action.
func (p *Pipeline) To(dir string) domain.Action {
	run := &Pipeline{
		name:  p.name,
		src:   p.src,
		dst:   p.dst,
		root:  p.root,
		globs: slices.Clone(p.globs),
		steps: slices.Clone(p.steps),
	}
	return func(ctx context.Context) error {
		return run.run(ctx, dir)
	}
}

func (p *Pipeline) run(ctx context.Context, dir string) error {
	records, err := p.src.Read(ctx, p.root, p.globs)
	if err != nil {
		return err
	}

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err = step.Transform(ctx, records)
		if err != nil {
			return stepError(step, err)
		}
	}

	written, err := p.dst.Write(ctx, dir, records)
	if err != nil {
		return err
	}

	out := ports.OutputFromContext(ctx)
	for _, path := range written {
		_, _ = fmt.Fprintf(out, "wrote %s\n", path)
	}
	return nil
}

func stepError(step ports.Step, err error) error {
	var te *domain.TransformError
	if errors.As(err, &te) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return zerr.With(zerr.Wrap(err, "pipeline step failed"), "step", step.Name())
}
