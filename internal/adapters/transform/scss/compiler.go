package scss

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
)

// Options configures a compilation.
type Options struct {
	Style Style
	// LineComments prefixes each rule with its source location.
	LineComments bool
	// Load reads an imported file by its slash-separated path.
	Load func(name string) ([]byte, error)
	// Log receives @warn and @debug output.
	Log io.Writer
}

// Compile compiles the SCSS source of file into CSS.
func Compile(file string, src []byte, opts Options) ([]byte, error) {
	if opts.Style == "" {
		opts.Style = Expanded
	}
	if opts.Log == nil {
		opts.Log = io.Discard
	}

	nodes, err := parse(file, src)
	if err != nil {
		return nil, err
	}

	c := &compiler{
		opts:      opts,
		file:      file,
		mixins:    make(map[string]*mixin),
		importing: map[string]bool{file: true},
	}
	global := newScope(nil)
	if err := c.compile(nodes, &frame{scope: global}); err != nil {
		return nil, err
	}
	return c.render(), nil
}

type decl struct {
	prop  string
	value string
}

type entry struct {
	wrappers  []string
	selectors []string
	decls     []decl
	raw       string
	file      string
	line      int
	bare      bool
}

type mixin struct {
	params []param
	body   []node
	scope  *scope
}

type param struct {
	name string
	def  string
}

type frame struct {
	scope     *scope
	selectors []string
	wrappers  []string
	rule      *entry
}

func (f *frame) topLevel() bool {
	return len(f.selectors) == 0 && len(f.wrappers) == 0
}

type compiler struct {
	opts      Options
	file      string
	entries   []*entry
	mixins    map[string]*mixin
	importing map[string]bool
}

func (c *compiler) errorf(line int, format string, args ...any) error {
	return &Error{File: c.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (c *compiler) compile(nodes []node, f *frame) error {
	for _, n := range nodes {
		var err error
		switch n := n.(type) {
		case *commentNode:
			if f.topLevel() {
				c.entries = append(c.entries, &entry{raw: n.text, file: c.file, line: n.ln})
			}
		case *variableNode:
			err = c.compileVariable(n, f)
		case *declNode:
			err = c.compileDecl(n, f)
		case *ruleNode:
			err = c.compileRule(n, f)
		case *atNode:
			err = c.compileAt(n, f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileVariable(n *variableNode, f *frame) error {
	target := f.scope
	if n.global {
		target = f.scope.root()
	}
	if n.isDefault {
		if _, ok := target.get(n.name); ok {
			return nil
		}
	}
	value, err := c.resolve(n.value, f.scope, n.ln)
	if err != nil {
		return err
	}
	target.set(n.name, value)
	return nil
}

func (c *compiler) compileDecl(n *declNode, f *frame) error {
	if f.rule == nil {
		return c.errorf(n.ln, "declarations may only be used within style rules")
	}
	prop, err := c.interpolate(n.prop, f.scope, n.ln)
	if err != nil {
		return err
	}
	value, err := c.resolve(n.value, f.scope, n.ln)
	if err != nil {
		return err
	}
	f.rule.decls = append(f.rule.decls, decl{prop: prop, value: value})
	return nil
}

func (c *compiler) compileRule(n *ruleNode, f *frame) error {
	header, err := c.interpolate(n.selector, f.scope, n.ln)
	if err != nil {
		return err
	}
	selectors, err := nestSelectors(f.selectors, header)
	if err != nil {
		return c.errorf(n.ln, "%v", err)
	}
	e := &entry{wrappers: f.wrappers, selectors: selectors, file: c.file, line: n.ln}
	c.entries = append(c.entries, e)
	return c.compile(n.body, &frame{
		scope:     newScope(f.scope),
		selectors: selectors,
		wrappers:  f.wrappers,
		rule:      e,
	})
}

func (c *compiler) compileAt(n *atNode, f *frame) error {
	switch n.name {
	case "import":
		return c.compileImport(n, f)
	case "mixin":
		return c.defineMixin(n, f)
	case "include":
		return c.include(n, f)
	case "warn", "debug":
		msg, err := c.resolve(n.params, f.scope, n.ln)
		if err != nil {
			return err
		}
		label := "WARNING"
		if n.name == "debug" {
			label = "DEBUG"
		}
		_, _ = fmt.Fprintf(c.opts.Log, "%s: %s (%s:%d)\n", label, unquote(msg), c.file, n.ln)
		return nil
	case "error":
		msg, err := c.resolve(n.params, f.scope, n.ln)
		if err != nil {
			return err
		}
		return c.errorf(n.ln, "%s", unquote(msg))
	case "if", "else", "each", "for", "while", "function", "return",
		"extend", "use", "forward", "content", "at-root":
		return c.errorf(n.ln, "@%s is not supported", n.name)
	}

	params, err := c.interpolate(n.params, f.scope, n.ln)
	if err != nil {
		return err
	}
	params, err = c.substitute(params, f.scope, n.ln)
	if err != nil {
		return err
	}
	header := "@" + n.name
	if params != "" {
		header += " " + params
	}

	if !n.hasBody {
		if !f.topLevel() {
			return c.errorf(n.ln, "@%s is only allowed at the top level", n.name)
		}
		c.entries = append(c.entries, &entry{raw: header + ";", file: c.file, line: n.ln})
		return nil
	}

	wrappers := append(slices.Clone(f.wrappers), header)
	child := &frame{scope: newScope(f.scope), wrappers: wrappers}

	switch n.name {
	case "media", "supports":
		// Conditional groups keep the enclosing selector and bubble to the top.
		child.selectors = f.selectors
		if len(f.selectors) > 0 {
			child.rule = &entry{wrappers: wrappers, selectors: f.selectors, file: c.file, line: n.ln}
			c.entries = append(c.entries, child.rule)
		}
	default:
		child.rule = &entry{wrappers: wrappers, file: c.file, line: n.ln, bare: true}
		c.entries = append(c.entries, child.rule)
	}
	return c.compile(n.body, child)
}

func (c *compiler) compileImport(n *atNode, f *frame) error {
	for _, target := range splitTopLevel(n.params, ',') {
		target = strings.TrimSpace(target)
		name := unquote(target)
		if isPlainCSSImport(target, name) {
			if !f.topLevel() {
				return c.errorf(n.ln, "plain CSS imports are only allowed at the top level")
			}
			c.entries = append(c.entries, &entry{raw: "@import " + target + ";", file: c.file, line: n.ln})
			continue
		}
		if err := c.importFile(name, n.ln, f); err != nil {
			return err
		}
	}
	return nil
}

func isPlainCSSImport(raw, name string) bool {
	return strings.HasSuffix(name, ".css") ||
		strings.HasPrefix(name, "http://") ||
		strings.HasPrefix(name, "https://") ||
		strings.HasPrefix(name, "//") ||
		strings.HasPrefix(raw, "url(")
}

func (c *compiler) importFile(name string, line int, f *frame) error {
	if c.opts.Load == nil {
		return c.errorf(line, "cannot import %q: no loader configured", name)
	}

	resolved, src, err := c.loadImport(name)
	if err != nil {
		return c.errorf(line, "cannot import %q: %v", name, err)
	}
	if c.importing[resolved] {
		return c.errorf(line, "import cycle through %q", resolved)
	}

	nodes, err := parse(resolved, src)
	if err != nil {
		return err
	}

	prev := c.file
	c.file = resolved
	c.importing[resolved] = true
	defer func() {
		c.file = prev
		delete(c.importing, resolved)
	}()
	return c.compile(nodes, f)
}

func (c *compiler) loadImport(name string) (string, []byte, error) {
	target := path.Join(path.Dir(c.file), name)
	dir, base := path.Split(target)

	var candidates []string
	if ext := path.Ext(base); ext == ".scss" {
		candidates = append(candidates, dir+"_"+base, target)
	} else {
		candidates = append(candidates,
			dir+"_"+base+".scss",
			target+".scss",
			target+"/_index.scss",
			target+"/index.scss",
		)
	}

	var firstErr error
	for _, candidate := range candidates {
		src, err := c.opts.Load(candidate)
		if err == nil {
			return candidate, src, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", nil, firstErr
}

func (c *compiler) defineMixin(n *atNode, f *frame) error {
	if !n.hasBody {
		return c.errorf(n.ln, "@mixin requires a body")
	}
	name, args := splitCall(n.params)
	if name == "" {
		return c.errorf(n.ln, "@mixin requires a name")
	}

	m := &mixin{body: n.body, scope: f.scope}
	for _, raw := range splitTopLevel(args, ',') {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, "$") {
			return c.errorf(n.ln, "invalid mixin parameter %q", raw)
		}
		p := param{name: strings.TrimSpace(raw[1:])}
		if idx := strings.IndexByte(raw, ':'); idx >= 0 {
			p.name = strings.TrimSpace(raw[1:idx])
			p.def = strings.TrimSpace(raw[idx+1:])
		}
		m.params = append(m.params, p)
	}
	c.mixins[name] = m
	return nil
}

func (c *compiler) include(n *atNode, f *frame) error {
	if n.hasBody {
		return c.errorf(n.ln, "@include with a content block is not supported")
	}
	name, args := splitCall(n.params)
	m, ok := c.mixins[name]
	if !ok {
		return c.errorf(n.ln, "undefined mixin %q", name)
	}

	bound := newScope(m.scope)
	named := make(map[string]string)
	var positional []string
	for _, raw := range splitTopLevel(args, ',') {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "$") {
			if idx := strings.IndexByte(raw, ':'); idx >= 0 {
				named[strings.TrimSpace(raw[1:idx])] = strings.TrimSpace(raw[idx+1:])
				continue
			}
		}
		positional = append(positional, raw)
	}
	if len(positional) > len(m.params) {
		return c.errorf(n.ln, "mixin %q takes %d arguments but %d were passed", name, len(m.params), len(positional))
	}

	for i, p := range m.params {
		var (
			value string
			scope = f.scope
		)
		switch {
		case i < len(positional):
			value = positional[i]
		case named[p.name] != "":
			value = named[p.name]
		case p.def != "":
			value, scope = p.def, bound
		default:
			return c.errorf(n.ln, "missing argument $%s for mixin %q", p.name, name)
		}
		resolved, err := c.resolve(value, scope, n.ln)
		if err != nil {
			return err
		}
		bound.set(p.name, resolved)
	}

	return c.compile(m.body, &frame{
		scope:     bound,
		selectors: f.selectors,
		wrappers:  f.wrappers,
		rule:      f.rule,
	})
}

func splitCall(s string) (string, string) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, ""
	}
	end := strings.LastIndexByte(s, ')')
	if end < open {
		return strings.TrimSpace(s[:open]), ""
	}
	return strings.TrimSpace(s[:open]), s[open+1 : end]
}

type scope struct {
	vars   map[string]string
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]string), parent: parent}
}

func (s *scope) get(name string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return "", false
}

func (s *scope) set(name, value string) {
	s.vars[name] = value
}

func (s *scope) root() *scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}
