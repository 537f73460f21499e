package transform

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
)

// SizeReporter writes the number and total size of the records to the task output.
// Records pass through unchanged.
type SizeReporter struct {
	title string
}

// NewSizeReporter creates a SizeReporter labelling its report with title.
func NewSizeReporter(title string) *SizeReporter {
	return &SizeReporter{title: title}
}

// Name implements ports.Step.
func (s *SizeReporter) Name() string { return "size" }

// Transform implements ports.Step.
func (s *SizeReporter) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	var total int
	for _, r := range records {
		total += len(r.Contents)
	}
	noun := "files"
	if len(records) == 1 {
		noun = "file"
	}
	_, _ = fmt.Fprintf(ports.OutputFromContext(ctx), "%s %d %s, %s\n", s.title, len(records), noun, humanize.Bytes(uint64(total)))
	return records, nil
}
