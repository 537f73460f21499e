package fs

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
	"go.trai.ch/zerr"
)

const metaChars = "*?[{"

// Pattern is a compiled source glob.
// Matching is done against slash-separated paths relative to the project root.
type Pattern struct {
	raw     string
	base    string
	literal bool
	negated bool
	globs   []glob.Glob
}

// CompilePattern compiles a glob such as "src/js/**/*.js" or "!src/img/icons/**".
// A "**" segment also matches zero directories.
func CompilePattern(raw string) (*Pattern, error) {
	p := &Pattern{raw: raw}

	expr := strings.TrimSpace(raw)
	if strings.HasPrefix(expr, "!") {
		p.negated = true
		expr = expr[1:]
	}
	expr = normalize(expr)
	if expr == "" || expr == "." {
		return nil, zerr.With(zerr.New("empty glob pattern"), "pattern", raw)
	}

	p.literal = !strings.ContainsAny(expr, metaChars)
	p.base = staticBase(expr, p.literal)

	for _, variant := range expandDoubleStar(expr) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid glob pattern"), "pattern", raw)
		}
		p.globs = append(p.globs, g)
	}
	return p, nil
}

// Match reports whether the root-relative slash path matches the pattern, ignoring negation.
func (p *Pattern) Match(rel string) bool {
	rel = normalize(rel)
	for _, g := range p.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Base is the directory before the first wildcard segment. Selected records are relative to it.
func (p *Pattern) Base() string {
	return p.base
}

// Literal reports whether the pattern names a single path.
func (p *Pattern) Literal() bool {
	return p.literal
}

// Negated reports whether the pattern excludes matches.
func (p *Pattern) Negated() bool {
	return p.negated
}

// String returns the pattern as written.
func (p *Pattern) String() string {
	return p.raw
}

// MatchAny reports whether rel matches at least one non-negated pattern and no negated one.
func MatchAny(patterns []*Pattern, rel string) bool {
	matched := false
	for _, p := range patterns {
		if !p.Match(rel) {
			continue
		}
		if p.negated {
			return false
		}
		matched = true
	}
	return matched
}

// CompilePatterns compiles every pattern, stopping at the first invalid one.
func CompilePatterns(raw []string) ([]*Pattern, error) {
	out := make([]*Pattern, 0, len(raw))
	for _, r := range raw {
		p, err := CompilePattern(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

func staticBase(expr string, literal bool) string {
	if literal {
		dir := path.Dir(expr)
		if dir == "." {
			return ""
		}
		return dir
	}
	segments := strings.Split(expr, "/")
	var static []string
	for _, seg := range segments[:len(segments)-1] {
		if strings.ContainsAny(seg, metaChars) {
			break
		}
		static = append(static, seg)
	}
	return strings.Join(static, "/")
}

// expandDoubleStar returns the pattern plus variants in which each "**/" matches nothing.
func expandDoubleStar(expr string) []string {
	variants := []string{expr}
	for i := 0; i < len(variants); i++ {
		v := variants[i]
		if strings.HasPrefix(v, "**/") {
			variants = appendUnique(variants, v[3:])
		}
		for off := 0; ; {
			idx := strings.Index(v[off:], "/**/")
			if idx < 0 {
				break
			}
			at := off + idx
			variants = appendUnique(variants, v[:at]+v[at+3:])
			off = at + 1
		}
	}
	return variants
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
