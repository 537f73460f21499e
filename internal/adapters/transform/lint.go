package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
	"go.trai.ch/gild/internal/core/domain"
)

// Lint checks JavaScript records for syntax errors. Records pass through unchanged.
type Lint struct{}

// NewLint creates a Lint step.
func NewLint() *Lint { return &Lint{} }

// Name implements ports.Step.
func (l *Lint) Name() string { return "lint" }

// Transform implements ports.Step.
func (l *Lint) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.Ext() != ".js" {
			continue
		}
		if _, err := js.Parse(parse.NewInputBytes(r.Contents), js.Options{}); err != nil {
			return nil, domain.NewTransformError(l.Name(), r.Source(), describeSyntaxError(err))
		}
	}
	return records, nil
}

func describeSyntaxError(err error) error {
	var perr *parse.Error
	if errors.As(err, &perr) {
		line, col, _ := perr.Position()
		return fmt.Errorf("line %d, column %d: %s", line, col, perr.Message)
	}
	return err
}
