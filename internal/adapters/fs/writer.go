package fs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Writer = (*Writer)(nil)

// Writer implements ports.Writer.
// Files are written to a temporary sibling and renamed into place, so readers never observe
// partial content. Files whose content is unchanged are left untouched.
type Writer struct{}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write stores the records below dir.
func (w *Writer) Write(ctx context.Context, dir string, records []domain.Record) ([]string, error) {
	written := make([]string, 0, len(records))
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		target, err := resolveInside(dir, r.Path)
		if err != nil {
			return written, err
		}
		if err := writeAtomic(target, r.Contents); err != nil {
			return written, err
		}
		written = append(written, r.Path)
	}
	return written, nil
}

func resolveInside(dir, rel string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(rel))
	back, err := filepath.Rel(dir, target)
	if err != nil || back == "." || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrOutputPathOutsideRoot, "refusing to write"), "file", rel), "dir", dir)
	}
	return target, nil
}

func writeAtomic(target string, contents []byte) error {
	if unchanged(target, contents) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return domain.NewIOError("write", target, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".gild-*")
	if err != nil {
		return domain.NewIOError("write", target, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(contents); err != nil {
		_ = tmp.Close()
		return domain.NewIOError("write", target, err)
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		_ = tmp.Close()
		return domain.NewIOError("write", target, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewIOError("write", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return domain.NewIOError("write", target, err)
	}
	return nil
}

// unchanged compares sizes first and then xxhash digests.
func unchanged(target string, contents []byte) bool {
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() || info.Size() != int64(len(contents)) {
		return false
	}
	//nolint:gosec // target is validated to be inside the output directory
	existing, err := os.ReadFile(target)
	if err != nil {
		return false
	}
	return xxhash.Sum64(existing) == xxhash.Sum64(contents) && bytes.Equal(existing, contents)
}
