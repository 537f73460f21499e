package scss

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`^(-?(?:\d+\.?\d*|\.\d+))([a-zA-Z%]*)$`)

func (c *compiler) resolve(value string, s *scope, line int) (string, error) {
	v, err := c.interpolate(value, s, line)
	if err != nil {
		return "", err
	}
	v, err = c.substitute(v, s, line)
	if err != nil {
		return "", err
	}
	return evalArithmetic(v), nil
}

// interpolate replaces every #{expr} with the unquoted value of expr.
func (c *compiler) interpolate(value string, s *scope, line int) (string, error) {
	if !strings.Contains(value, "#{") {
		return value, nil
	}
	var b strings.Builder
	rest := value
	for {
		start := strings.Index(rest, "#{")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return "", c.errorf(line, "unterminated interpolation in %q", value)
		}
		b.WriteString(rest[:start])
		inner, err := c.substitute(rest[start+2:start+end], s, line)
		if err != nil {
			return "", err
		}
		b.WriteString(unquote(evalArithmetic(strings.TrimSpace(inner))))
		rest = rest[start+end+1:]
	}
}

// substitute replaces $variables outside quoted strings.
func (c *compiler) substitute(value string, s *scope, line int) (string, error) {
	if !strings.Contains(value, "$") {
		return value, nil
	}
	var b strings.Builder
	for i := 0; i < len(value); {
		ch := value[i]
		if ch == '"' || ch == '\'' {
			end := strings.IndexByte(value[i+1:], ch)
			if end < 0 {
				b.WriteString(value[i:])
				break
			}
			b.WriteString(value[i : i+end+2])
			i += end + 2
			continue
		}
		if ch != '$' {
			b.WriteByte(ch)
			i++
			continue
		}
		j := i + 1
		for j < len(value) && isIdent(value[j]) {
			j++
		}
		name := value[i+1 : j]
		if name == "" {
			b.WriteByte(ch)
			i++
			continue
		}
		v, ok := s.get(name)
		if !ok {
			return "", c.errorf(line, "undefined variable $%s", name)
		}
		b.WriteString(v)
		i = j
	}
	return b.String(), nil
}

func isIdent(ch byte) bool {
	return ch == '-' || ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}

type number struct {
	val  float64
	unit string
}

func parseNumber(s string) (number, bool) {
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return number{}, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return number{}, false
	}
	return number{val: v, unit: m[2]}, true
}

func (n number) String() string {
	v := math.Round(n.val*1e5) / 1e5
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + n.unit
}

// evalArithmetic folds values made only of numbers joined by space-separated
// +, - or * operators. Anything else is returned unchanged.
func evalArithmetic(value string) string {
	fields := strings.Fields(value)
	if len(fields) < 3 || len(fields)%2 == 0 {
		return value
	}

	nums := make([]number, 0, len(fields)/2+1)
	ops := make([]string, 0, len(fields)/2)
	for i, f := range fields {
		if i%2 == 1 {
			if f != "+" && f != "-" && f != "*" {
				return value
			}
			ops = append(ops, f)
			continue
		}
		n, ok := parseNumber(f)
		if !ok {
			return value
		}
		nums = append(nums, n)
	}

	// Multiplication binds tighter.
	folded := []number{nums[0]}
	var rest []string
	for i, op := range ops {
		if op != "*" {
			folded = append(folded, nums[i+1])
			rest = append(rest, op)
			continue
		}
		last := &folded[len(folded)-1]
		r, err := multiply(*last, nums[i+1])
		if err != nil {
			return value
		}
		*last = r
	}

	acc := folded[0]
	for i, op := range rest {
		r, err := add(acc, folded[i+1], op == "-")
		if err != nil {
			return value
		}
		acc = r
	}
	return acc.String()
}

var errIncompatibleUnits = errors.New("incompatible units")

func multiply(a, b number) (number, error) {
	if a.unit != "" && b.unit != "" {
		return number{}, errIncompatibleUnits
	}
	unit := a.unit
	if unit == "" {
		unit = b.unit
	}
	return number{val: a.val * b.val, unit: unit}, nil
}

func add(a, b number, subtract bool) (number, error) {
	if a.unit != "" && b.unit != "" && a.unit != b.unit {
		return number{}, errIncompatibleUnits
	}
	unit := a.unit
	if unit == "" {
		unit = b.unit
	}
	if subtract {
		return number{val: a.val - b.val, unit: unit}, nil
	}
	return number{val: a.val + b.val, unit: unit}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// splitTopLevel splits s on sep outside parentheses and quoted strings.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(' || ch == '[':
			depth++
		case ch == ')' || ch == ']':
			depth--
		case ch == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if strings.TrimSpace(s) != "" {
		parts = append(parts, s[start:])
	}
	return parts
}

// nestSelectors combines a parent selector list with a nested one.
func nestSelectors(parents []string, header string) ([]string, error) {
	var children []string
	for _, sel := range splitTopLevel(header, ',') {
		sel = strings.Join(strings.Fields(sel), " ")
		if sel == "" {
			return nil, errors.New("empty selector")
		}
		children = append(children, sel)
	}

	if len(parents) == 0 {
		for _, sel := range children {
			if strings.Contains(sel, "&") {
				return nil, errors.New(`top-level selectors may not contain the parent selector "&"`)
			}
		}
		return children, nil
	}

	out := make([]string, 0, len(parents)*len(children))
	for _, parent := range parents {
		for _, child := range children {
			if strings.Contains(child, "&") {
				out = append(out, strings.ReplaceAll(child, "&", parent))
				continue
			}
			out = append(out, parent+" "+child)
		}
	}
	return out, nil
}
