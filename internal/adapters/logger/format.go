package logger

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/gild/internal/ui/style"
	"go.trai.ch/zerr"
)

// maxErrorDepth bounds the walk over cyclic or pathological chains.
const maxErrorDepth = 64

// messager is an error that reports its own message without the chain.
type messager interface {
	Message() string
}

// causer is an error that names its single underlying cause.
// It takes precedence over Unwrap, which may also return sentinels.
type causer interface {
	Cause() error
}

// ErrorEntry is one level of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var carried map[string]any

	for depth := 0; err != nil && depth < maxErrorDepth; depth++ {
		m, ok := err.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: err.Error(), Metadata: carried})
			break
		}

		meta := mergeMetadata(carried, metadataOf(err))
		carried = nil
		if m.Message() == "" {
			// Wrappers created only to attach metadata pass it on.
			carried = meta
		} else {
			entries = append(entries, ErrorEntry{Message: m.Message(), Metadata: meta})
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			err = errors.Unwrap(err)
		}
	}
	if carried != nil && len(entries) > 0 {
		last := &entries[len(entries)-1]
		last.Metadata = mergeMetadata(last.Metadata, carried)
	}
	return entries
}

func metadataOf(err error) map[string]any {
	z, ok := err.(*zerr.Error)
	if !ok {
		return nil
	}
	meta := z.Metadata()
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func mergeMetadata(a, b map[string]any) map[string]any {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// formatErrorEntries renders the main error followed by its causes:
//
//	Error: outer
//	       key: value
//
//	  Caused by:
//	    → inner
func formatErrorEntries(entries []ErrorEntry) string {
	if len(entries) == 0 {
		return ""
	}

	var lines []string
	for i, entry := range entries {
		first, indent := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			first, indent = "    "+style.Arrow+" ", "      "
		}

		msgLines := strings.Split(entry.Message, "\n")
		lines = append(lines, first+msgLines[0])
		for _, l := range msgLines[1:] {
			lines = append(lines, indent+l)
		}

		keys := make([]string, 0, len(entry.Metadata))
		for k := range entry.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, entry.Metadata[k]))
		}
	}
	return strings.Join(lines, "\n")
}
