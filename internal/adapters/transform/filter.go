package transform

import (
	"context"

	"go.trai.ch/gild/internal/adapters/fs"
	"go.trai.ch/gild/internal/core/domain"
)

// Filter keeps the records whose path matches the patterns.
type Filter struct {
	patterns []*fs.Pattern
}

// NewFilter compiles the patterns. Negated patterns exclude records.
func NewFilter(patterns ...string) (*Filter, error) {
	compiled, err := fs.CompilePatterns(patterns)
	if err != nil {
		return nil, err
	}
	return &Filter{patterns: compiled}, nil
}

// Name implements ports.Step.
func (f *Filter) Name() string { return "filter" }

// Transform implements ports.Step.
func (f *Filter) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if fs.MatchAny(f.patterns, r.Path) {
			out = append(out, r)
		}
	}
	return out, nil
}
