package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Cleaner = (*Cleaner)(nil)

// Cleaner implements ports.Cleaner.
type Cleaner struct{}

// NewCleaner creates a new Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean removes dir. Removing a directory that does not exist succeeds, so cleaning is idempotent.
func (c *Cleaner) Clean(ctx context.Context, root, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to get absolute path of project root"), "root", root)
	}

	target := dir
	if !filepath.IsAbs(target) {
		target = filepath.Join(rootAbs, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(rootAbs, target)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve relative path"), "dir", dir)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return zerr.With(zerr.Wrap(domain.ErrOutputPathOutsideRoot, "refusing to clean"), "dir", dir)
	}

	if _, err := os.Lstat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return domain.NewIOError("remove", rel, err)
	}

	if err := os.RemoveAll(target); err != nil {
		return domain.NewIOError("remove", rel, err)
	}
	return nil
}
