package scss

import (
	"fmt"
	"strings"
)

func (c *compiler) render() []byte {
	if c.opts.Style == Compressed {
		return c.renderCompressed()
	}
	return c.renderExpanded()
}

func (c *compiler) renderExpanded() []byte {
	var b strings.Builder
	for _, e := range c.entries {
		if e.raw == "" && len(e.decls) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if e.raw != "" {
			b.WriteString(e.raw)
			b.WriteString("\n")
			continue
		}

		depth := 0
		for _, w := range e.wrappers {
			writeIndent(&b, depth)
			b.WriteString(w)
			b.WriteString(" {\n")
			depth++
		}
		if c.opts.LineComments {
			writeIndent(&b, depth)
			fmt.Fprintf(&b, "/* line %d, %s */\n", e.line, e.file)
		}
		if !e.bare {
			writeIndent(&b, depth)
			b.WriteString(strings.Join(e.selectors, ",\n"+strings.Repeat("  ", depth)))
			b.WriteString(" {\n")
			depth++
		}
		for _, d := range e.decls {
			writeIndent(&b, depth)
			b.WriteString(d.prop)
			b.WriteString(": ")
			b.WriteString(d.value)
			b.WriteString(";\n")
		}
		for depth > 0 {
			depth--
			writeIndent(&b, depth)
			b.WriteString("}\n")
		}
	}
	return []byte(b.String())
}

func (c *compiler) renderCompressed() []byte {
	var b strings.Builder
	for _, e := range c.entries {
		if e.raw != "" {
			// Only loud comments survive compression.
			if strings.HasPrefix(e.raw, "/*") && !strings.HasPrefix(e.raw, "/*!") {
				continue
			}
			b.WriteString(compactValue(e.raw))
			continue
		}
		if len(e.decls) == 0 {
			continue
		}

		for _, w := range e.wrappers {
			b.WriteString(compactValue(w))
			b.WriteString("{")
		}
		if !e.bare {
			sels := make([]string, len(e.selectors))
			for i, s := range e.selectors {
				sels[i] = compactSelector(s)
			}
			b.WriteString(strings.Join(sels, ","))
			b.WriteString("{")
		}
		for i, d := range e.decls {
			if i > 0 {
				b.WriteString(";")
			}
			b.WriteString(d.prop)
			b.WriteString(":")
			b.WriteString(compactValue(d.value))
		}
		if !e.bare {
			b.WriteString("}")
		}
		b.WriteString(strings.Repeat("}", len(e.wrappers)))
	}
	return []byte(b.String())
}

func writeIndent(b *strings.Builder, depth int) {
	for range depth {
		b.WriteString("  ")
	}
}

func compactValue(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	v = strings.ReplaceAll(v, ", ", ",")
	return strings.ReplaceAll(v, ": ", ":")
}

func compactSelector(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for _, comb := range []string{">", "+", "~"} {
		s = strings.ReplaceAll(s, " "+comb+" ", comb)
	}
	return s
}
