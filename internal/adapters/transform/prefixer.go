package transform

import (
	"bytes"
	"context"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.trai.ch/gild/internal/core/domain"
)

// prefixedProperties lists the vendor prefixes emitted before a standard property.
var prefixedProperties = map[string][]string{
	"animation":           {"-webkit-"},
	"appearance":          {"-webkit-", "-moz-"},
	"backface-visibility": {"-webkit-"},
	"box-sizing":          {"-webkit-", "-moz-"},
	"flex":                {"-webkit-", "-ms-"},
	"flex-direction":      {"-webkit-", "-ms-"},
	"flex-wrap":           {"-webkit-", "-ms-"},
	"transform":           {"-webkit-", "-ms-"},
	"transform-origin":    {"-webkit-", "-ms-"},
	"transition":          {"-webkit-"},
	"user-select":         {"-webkit-", "-moz-", "-ms-"},
}

// prefixedValues lists legacy values emitted before a standard property value.
var prefixedValues = map[string]map[string][]string{
	"display": {
		"flex":        {"-webkit-box", "-ms-flexbox"},
		"inline-flex": {"-webkit-inline-box", "-ms-inline-flexbox"},
	},
}

type token struct {
	tt   css.TokenType
	data []byte
}

// Prefixer adds vendor-prefixed declarations for a fixed set of properties.
// Formatting of the input is preserved.
type Prefixer struct{}

// NewPrefixer creates a Prefixer.
func NewPrefixer() *Prefixer { return &Prefixer{} }

// Name implements ports.Step.
func (p *Prefixer) Name() string { return "prefixer" }

// Transform implements ports.Step.
func (p *Prefixer) Transform(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.Ext() != ".css" {
			out = append(out, r)
			continue
		}
		out = append(out, r.WithContents(prefix(r.Contents)))
	}
	return out, nil
}

func prefix(src []byte) []byte {
	l := css.NewLexer(parse.NewInputBytes(bytes.Clone(src)))

	var (
		out   bytes.Buffer
		stmt  []token
		sep   []byte
		depth int
	)
	out.Grow(len(src))

	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		t := token{tt: tt, data: bytes.Clone(data)}

		if len(stmt) == 0 && (tt == css.WhitespaceToken || tt == css.CommentToken) {
			out.Write(t.data)
			if tt == css.WhitespaceToken {
				sep = t.data
			}
			continue
		}

		switch tt {
		case css.LeftParenthesisToken, css.LeftBracketToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		}

		if depth == 0 {
			switch tt {
			case css.LeftBraceToken:
				writeTokens(&out, append(stmt, t))
				stmt, sep = nil, nil
				continue
			case css.SemicolonToken:
				writeDeclaration(&out, stmt, sep)
				out.Write(t.data)
				stmt, sep = nil, nil
				continue
			case css.RightBraceToken:
				writeDeclaration(&out, stmt, sep)
				out.Write(t.data)
				stmt, sep = nil, nil
				continue
			}
		}
		stmt = append(stmt, t)
	}
	writeTokens(&out, stmt)
	return out.Bytes()
}

func writeTokens(out *bytes.Buffer, tokens []token) {
	for _, t := range tokens {
		out.Write(t.data)
	}
}

// writeDeclaration writes stmt preceded by its prefixed variants, each followed by sep.
func writeDeclaration(out *bytes.Buffer, stmt []token, sep []byte) {
	colon := declarationColon(stmt)
	if colon < 0 {
		writeTokens(out, stmt)
		return
	}

	body := stmt[1:]
	for len(body) > 0 && body[len(body)-1].tt == css.WhitespaceToken {
		body = body[:len(body)-1]
	}
	prop := strings.ToLower(string(stmt[0].data))
	valueStart := colon + 1
	if valueStart < len(stmt) && stmt[valueStart].tt == css.WhitespaceToken {
		valueStart++
	}
	var head, value bytes.Buffer
	writeTokens(&head, stmt[1:valueStart])
	writeTokens(&value, stmt[valueStart:len(body)+1])

	emit := func(prop, tail string) {
		out.WriteString(prop)
		out.WriteString(tail)
		out.WriteString(";")
		out.Write(sep)
	}
	for _, pfx := range prefixedProperties[prop] {
		emit(pfx+prop, head.String()+value.String())
	}
	for _, v := range prefixedValues[prop][strings.ToLower(value.String())] {
		emit(prop, head.String()+v)
	}
	writeTokens(out, stmt)
}

// declarationColon returns the index of the colon following the property name,
// or -1 when stmt is not a declaration.
func declarationColon(stmt []token) int {
	if len(stmt) < 2 || stmt[0].tt != css.IdentToken {
		return -1
	}
	for i := 1; i < len(stmt); i++ {
		switch stmt[i].tt {
		case css.WhitespaceToken:
			continue
		case css.ColonToken:
			return i
		}
		return -1
	}
	return -1
}
