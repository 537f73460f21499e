// Package scss compiles a practical subset of SCSS to CSS.
//
// Supported: variables (with !default and !global), nested rules with the parent selector &,
// #{} interpolation, @import of partials, @mixin/@include with default and named arguments,
// @media and @supports bubbling, plain at-rules such as @font-face and @keyframes,
// simple + - * arithmetic, // and /* */ comments, and @warn/@debug/@error.
// Control flow (@if, @each, @for), functions and @extend are rejected.
package scss

import "fmt"

// Style selects the output formatting.
type Style string

const (
	// Expanded writes one declaration per line.
	Expanded Style = "expanded"
	// Compressed writes the smallest output.
	Compressed Style = "compressed"
)

// Error describes malformed input.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

type node interface {
	line() int
}

type commentNode struct {
	text string
	ln   int
}

type variableNode struct {
	name      string
	value     string
	isDefault bool
	global    bool
	ln        int
}

type declNode struct {
	prop  string
	value string
	ln    int
}

type ruleNode struct {
	selector string
	body     []node
	ln       int
}

type atNode struct {
	name    string
	params  string
	body    []node
	hasBody bool
	ln      int
}

func (n *commentNode) line() int  { return n.ln }
func (n *variableNode) line() int { return n.ln }
func (n *declNode) line() int     { return n.ln }
func (n *ruleNode) line() int     { return n.ln }
func (n *atNode) line() int       { return n.ln }
