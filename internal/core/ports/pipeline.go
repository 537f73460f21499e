package ports

import (
	"context"

	"go.trai.ch/gild/internal/core/domain"
)

//go:generate mockgen -source=pipeline.go -destination=mocks/mock_pipeline.go -package=mocks

// Step is a single transformation in a pipeline.
// It consumes a set of records and produces zero or more records.
// A step must not mutate its input and must report malformed input as an error
// instead of dropping the record.
type Step interface {
	// Name identifies the step in errors and output.
	Name() string
	// Transform applies the step to the records.
	Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error)
}

// SourceReader selects source records by glob patterns.
type SourceReader interface {
	// Read returns the files under root matching the patterns, in a stable order.
	// Patterns starting with "!" exclude matches. A literal pattern that matches
	// nothing is an error.
	Read(ctx context.Context, root string, patterns []string) ([]domain.Record, error)
}

// Writer persists records below an output directory.
type Writer interface {
	// Write stores each record at dir/record.Path and returns the written paths relative to dir.
	Write(ctx context.Context, dir string, records []domain.Record) ([]string, error)
}

// Cleaner removes generated output.
type Cleaner interface {
	// Clean deletes dir, which must be inside root. A missing dir is not an error.
	Clean(ctx context.Context, root, dir string) error
}
