package scss

import (
	"fmt"
	"strings"
)

type parser struct {
	file string
	src  string
	pos  int
	line int
}

func parse(file string, src []byte) ([]node, error) {
	p := &parser{file: file, src: string(src), line: 1}
	return p.parseBlock(false)
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &Error{File: p.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) rest() string {
	return p.src[p.pos:]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case '\n':
			p.line++
			p.pos++
		case ' ', '\t', '\r', '\f':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) skipLine() {
	for !p.eof() && p.src[p.pos] != '\n' {
		p.pos++
	}
}

func (p *parser) readComment() (string, error) {
	start, line := p.pos, p.line
	end := strings.Index(p.src[p.pos+2:], "*/")
	if end < 0 {
		return "", p.errorf(line, "unterminated comment")
	}
	text := p.src[start : p.pos+2+end+2]
	p.line += strings.Count(text, "\n")
	p.pos += len(text)
	return text, nil
}

func (p *parser) parseBlock(nested bool) ([]node, error) {
	var nodes []node
	for {
		p.skipSpace()
		if p.eof() {
			if nested {
				return nil, p.errorf(p.line, `expected "}"`)
			}
			return nodes, nil
		}

		switch {
		case p.src[p.pos] == '}':
			if !nested {
				return nil, p.errorf(p.line, `unexpected "}"`)
			}
			p.pos++
			return nodes, nil
		case strings.HasPrefix(p.rest(), "/*"):
			line := p.line
			text, err := p.readComment()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &commentNode{text: text, ln: line})
			continue
		case strings.HasPrefix(p.rest(), "//"):
			p.skipLine()
			continue
		}

		line := p.line
		text, term, err := p.readChunk()
		if err != nil {
			return nil, err
		}

		if term == '{' {
			p.pos++
			n, err := p.parseBlockStatement(strings.TrimSpace(text), line)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			continue
		}

		if term == ';' {
			p.pos++
		}
		n, err := p.parseStatement(strings.TrimSpace(text), line)
		if err != nil {
			return nil, err
		}
		if n != nil {
			nodes = append(nodes, n)
		}
	}
}

func (p *parser) parseBlockStatement(header string, line int) (node, error) {
	if header == "" {
		return nil, p.errorf(line, "expected selector")
	}
	body, err := p.parseBlock(true)
	if err != nil {
		return nil, err
	}
	if header[0] == '@' {
		name, params := splitAtRule(header)
		return &atNode{name: name, params: params, body: body, hasBody: true, ln: line}, nil
	}
	if strings.HasSuffix(header, ":") {
		return nil, p.errorf(line, "nested properties are not supported")
	}
	return &ruleNode{selector: header, body: body, ln: line}, nil
}

func (p *parser) parseStatement(text string, line int) (node, error) {
	if text == "" {
		return nil, nil
	}

	switch text[0] {
	case '$':
		idx := strings.IndexByte(text, ':')
		if idx < 0 {
			return nil, p.errorf(line, `expected ":" after variable name`)
		}
		v := &variableNode{name: strings.TrimSpace(text[1:idx]), ln: line}
		value := strings.TrimSpace(text[idx+1:])
		for {
			switch {
			case strings.HasSuffix(value, "!default"):
				v.isDefault = true
				value = strings.TrimSpace(strings.TrimSuffix(value, "!default"))
				continue
			case strings.HasSuffix(value, "!global"):
				v.global = true
				value = strings.TrimSpace(strings.TrimSuffix(value, "!global"))
				continue
			}
			break
		}
		if v.name == "" || value == "" {
			return nil, p.errorf(line, "invalid variable declaration %q", text)
		}
		v.value = value
		return v, nil
	case '@':
		name, params := splitAtRule(text)
		return &atNode{name: name, params: params, ln: line}, nil
	}

	idx := strings.IndexByte(text, ':')
	if idx <= 0 {
		return nil, p.errorf(line, `expected ":" in declaration %q`, text)
	}
	prop := strings.TrimSpace(text[:idx])
	value := strings.TrimSpace(text[idx+1:])
	if value == "" {
		return nil, p.errorf(line, "expected value for property %q", prop)
	}
	return &declNode{prop: prop, value: value, ln: line}, nil
}

// readChunk reads up to the next top-level "{", ";" or "}" without consuming it.
// Strings, parentheses and interpolations are skipped over; comments are dropped.
func (p *parser) readChunk() (string, byte, error) {
	var b strings.Builder
	depth := 0
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '"' || c == '\'':
			s, err := p.readString(c)
			if err != nil {
				return "", 0, err
			}
			b.WriteString(s)
			continue
		case c == '#' && strings.HasPrefix(p.rest(), "#{"):
			s, err := p.readInterpolation()
			if err != nil {
				return "", 0, err
			}
			b.WriteString(s)
			continue
		case c == '/' && strings.HasPrefix(p.rest(), "/*"):
			if _, err := p.readComment(); err != nil {
				return "", 0, err
			}
			continue
		case c == '/' && depth == 0 && strings.HasPrefix(p.rest(), "//"):
			p.skipLine()
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == '\n':
			p.line++
		case depth == 0 && (c == '{' || c == ';' || c == '}'):
			return b.String(), c, nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return b.String(), 0, nil
}

func (p *parser) readString(quote byte) (string, error) {
	start, line := p.pos, p.line
	p.pos++
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '\\':
			p.pos += 2
			continue
		case '\n':
			return "", p.errorf(line, "unterminated string")
		case quote:
			p.pos++
			return p.src[start:p.pos], nil
		}
		p.pos++
	}
	return "", p.errorf(line, "unterminated string")
}

func (p *parser) readInterpolation() (string, error) {
	start, line := p.pos, p.line
	p.pos += 2
	depth := 1
	for !p.eof() {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos++
				return p.src[start:p.pos], nil
			}
		case '\n':
			p.line++
		}
		p.pos++
	}
	return "", p.errorf(line, "unterminated interpolation")
}

func splitAtRule(text string) (string, string) {
	text = strings.TrimPrefix(text, "@")
	end := strings.IndexAny(text, " \t\n(")
	if end < 0 {
		return text, ""
	}
	return text[:end], strings.TrimSpace(text[end:])
}
