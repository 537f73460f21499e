package transform

import (
	"bytes"
	"context"

	"go.trai.ch/gild/internal/core/domain"
)

// Concat joins all records into a single generated record, in input order.
type Concat struct {
	name string
	sep  []byte
}

// NewConcat creates a Concat step producing a record at name.
// A newline is inserted between files that do not end with one.
func NewConcat(name string) *Concat {
	return &Concat{name: name, sep: []byte("\n")}
}

// Name implements ports.Step.
func (c *Concat) Name() string { return "concat" }

// Transform implements ports.Step.
func (c *Concat) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	for i, r := range records {
		if i > 0 && !bytes.HasSuffix(buf.Bytes(), c.sep) {
			buf.Write(c.sep)
		}
		buf.Write(r.Contents)
	}
	return []domain.Record{domain.NewRecord("", c.name, buf.Bytes())}, nil
}
