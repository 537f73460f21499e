package fs

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"

	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.SourceReader = (*Selector)(nil)

// Selector implements ports.SourceReader with glob patterns.
type Selector struct {
	walker *Walker
}

// NewSelector creates a new Selector.
func NewSelector(walker *Walker) *Selector {
	return &Selector{walker: walker}
}

type selection struct {
	base string
	rel  string
	src  string
}

// Read selects files below root. Each positive pattern contributes its matches in lexical order,
// patterns keep the order they were given in, and a file matched twice is read once.
func (s *Selector) Read(ctx context.Context, root string, patterns []string) ([]domain.Record, error) {
	compiled, err := CompilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	var excludes []*Pattern
	for _, p := range compiled {
		if p.Negated() {
			excludes = append(excludes, p)
		}
	}

	seen := make(map[string]bool)
	var selected []selection

	for _, p := range compiled {
		if p.Negated() {
			continue
		}
		matches, err := s.match(root, p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m.src] || excluded(excludes, m.src) {
				continue
			}
			seen[m.src] = true
			selected = append(selected, m)
		}
	}

	return s.readAll(ctx, root, selected)
}

func (s *Selector) match(root string, p *Pattern) ([]selection, error) {
	if p.Literal() {
		return s.matchLiteral(root, p)
	}

	var out []selection
	start := filepath.Join(root, filepath.FromSlash(p.Base()))
	for file := range s.walker.WalkFiles(start, nil) {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if !p.Match(rel) {
			continue
		}
		out = append(out, newSelection(p.Base(), rel))
	}
	slices.SortFunc(out, func(a, b selection) int {
		switch {
		case a.src < b.src:
			return -1
		case a.src > b.src:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

func (s *Selector) matchLiteral(root string, p *Pattern) ([]selection, error) {
	rel := normalize(p.String())
	full := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		return nil, domain.NewIOError("read", rel, err)
	}
	if !info.IsDir() {
		return []selection{newSelection(p.Base(), rel)}, nil
	}

	var out []selection
	for file := range s.walker.WalkFiles(full, nil) {
		fileRel, err := filepath.Rel(root, file)
		if err != nil {
			continue
		}
		out = append(out, newSelection(rel, filepath.ToSlash(fileRel)))
	}
	return out, nil
}

func (s *Selector) readAll(ctx context.Context, root string, selected []selection) ([]domain.Record, error) {
	records := make([]domain.Record, len(selected))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, sel := range selected {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			//nolint:gosec // paths come from walking the project root
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(sel.src)))
			if err != nil {
				return domain.NewIOError("read", sel.src, err)
			}
			records[i] = domain.NewRecord(sel.base, sel.rel, data)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var ioErr *domain.IOError
		if errors.As(err, &ioErr) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, zerr.Wrap(err, "failed to read sources")
	}
	return records, nil
}

func newSelection(base, src string) selection {
	rel := src
	if base != "" {
		if r, err := filepath.Rel(filepath.FromSlash(base), filepath.FromSlash(src)); err == nil {
			rel = filepath.ToSlash(r)
		}
	}
	return selection{base: base, rel: path.Clean(rel), src: src}
}

func excluded(excludes []*Pattern, rel string) bool {
	for _, p := range excludes {
		if p.Match(rel) {
			return true
		}
	}
	return false
}
