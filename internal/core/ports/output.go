// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

type outputKey struct{}

// ContextWithOutput returns a context carrying the writer task output goes to.
func ContextWithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

// OutputFromContext returns the task output writer, or io.Discard when none is set.
func OutputFromContext(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}
	return io.Discard
}
