package decl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"faktgen/internal/errors"
)

// ParseType parses a Kotlin type expression such as `Map<String, List<T>>?`,
// `suspend (T) -> R` or `List<*>`.
func ParseType(src string) (TypeRef, error) {
	p := &typeParser{src: src}
	p.next()
	t, err := p.parseType()
	if err != nil {
		return TypeRef{}, err
	}
	if p.tok.kind != tokEOF {
		return TypeRef{}, p.errorf("unexpected %q", p.tok.text)
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error. Intended for tests and
// static tables.
func MustParseType(src string) TypeRef {
	t, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders the reference back to Kotlin syntax.
func (t TypeRef) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t TypeRef) write(sb *strings.Builder) {
	switch {
	case t.Star:
		sb.WriteString("*")
		return
	case t.Function != nil:
		if t.Nullable {
			sb.WriteString("(")
		}
		if t.Function.Suspend {
			sb.WriteString("suspend ")
		}
		sb.WriteString("(")
		for i, p := range t.Function.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.write(sb)
		}
		sb.WriteString(") -> ")
		t.Function.Result.write(sb)
		if t.Nullable {
			sb.WriteString(")?")
		}
		return
	case t.Param != "":
		sb.WriteString(t.Param)
	default:
		sb.WriteString(t.Name)
	}
	if len(t.Args) > 0 {
		sb.WriteString("<")
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.write(sb)
		}
		sb.WriteString(">")
	}
	if t.Nullable {
		sb.WriteString("?")
	}
}

// Keys of the structured type reference forms. Unknown keys are rejected
// in every mode: a misspelt scope or index would silently change which
// parameter a reference points at.
var (
	typeRefKeys     = []string{"name", "args", "nullable", "star", "param", "scope", "index", "function"}
	functionRefKeys = []string{"params", "result", "suspend"}
)

// UnmarshalYAML accepts either a type expression string or the structured
// mapping form.
func (t *TypeRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseType(node.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d", node.Line)
		}
		*t = parsed
		return nil
	}
	if err := checkKeys(node, typeRefKeys); err != nil {
		return err
	}
	if fn := mappingValue(node, "function"); fn != nil {
		if err := checkKeys(fn, functionRefKeys); err != nil {
			return err
		}
	}
	type plain TypeRef
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = TypeRef(p)
	return nil
}

// UnmarshalJSON accepts either a type expression string or the structured
// object form.
func (t *TypeRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseType(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	type plain TypeRef
	var p plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*t = TypeRef(p)
	return nil
}

// checkKeys rejects mapping keys outside allowed.
func checkKeys(node *yaml.Node, allowed []string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return errors.Newf("line %d: unknown type reference field %q", key.Line, key.Value)
		}
	}
	return nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// UnmarshalText parses a type expression. TOML declaration files only use
// the string form.
func (t *TypeRef) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokPunct
	tokArrow
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type typeParser struct {
	src string
	off int
	tok token
}

func (p *typeParser) errorf(format string, args ...interface{}) error {
	return errors.Newf("type %q at offset %d: %s", p.src, p.tok.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) next() {
	for p.off < len(p.src) && unicode.IsSpace(rune(p.src[p.off])) {
		p.off++
	}
	start := p.off
	if p.off >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.src[p.off]
	switch {
	case c == '-' && p.off+1 < len(p.src) && p.src[p.off+1] == '>':
		p.off += 2
		p.tok = token{kind: tokArrow, text: "->", pos: start}
	case isIdentStart(c):
		for p.off < len(p.src) && (isIdentPart(p.src[p.off]) || p.src[p.off] == '.') {
			p.off++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.off], pos: start}
	default:
		p.off++
		p.tok = token{kind: tokPunct, text: string(c), pos: start}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *typeParser) punct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

func (p *typeParser) expect(s string) error {
	if !p.punct(s) {
		if p.tok.kind == tokEOF {
			return p.errorf("expected %q, got end of input", s)
		}
		return p.errorf("expected %q, got %q", s, p.tok.text)
	}
	p.next()
	return nil
}

// type := ["suspend"] "(" params ")" "->" type
//       | "(" type ")" ["?"]
//       | name ["<" arg {"," arg} ">"] ["?"]
func (p *typeParser) parseType() (TypeRef, error) {
	if p.tok.kind == tokIdent && p.tok.text == "suspend" {
		p.next()
		if !p.punct("(") {
			return TypeRef{}, p.errorf("expected function type after suspend")
		}
		params, err := p.parseParenList()
		if err != nil {
			return TypeRef{}, err
		}
		return p.parseFunctionTail(params, true)
	}

	if p.punct("(") {
		items, err := p.parseParenList()
		if err != nil {
			return TypeRef{}, err
		}
		if p.tok.kind == tokArrow {
			return p.parseFunctionTail(items, false)
		}
		if len(items) != 1 {
			return TypeRef{}, p.errorf("expected \"->\" after parameter list")
		}
		t := items[0]
		if p.punct("?") {
			p.next()
			t.Nullable = true
		}
		return t, nil
	}

	if p.tok.kind != tokIdent {
		if p.tok.kind == tokEOF {
			return TypeRef{}, p.errorf("expected type, got end of input")
		}
		return TypeRef{}, p.errorf("expected type, got %q", p.tok.text)
	}
	switch p.tok.text {
	case "in", "out":
		return TypeRef{}, p.errorf("use-site variance is not supported")
	}
	t := TypeRef{Name: p.tok.text}
	p.next()
	if p.punct("<") {
		p.next()
		for {
			arg, err := p.parseArg()
			if err != nil {
				return TypeRef{}, err
			}
			t.Args = append(t.Args, arg)
			if p.punct(",") {
				p.next()
				continue
			}
			break
		}
		if err := p.expect(">"); err != nil {
			return TypeRef{}, err
		}
	}
	if p.punct("?") {
		p.next()
		t.Nullable = true
	}
	return t, nil
}

func (p *typeParser) parseArg() (TypeRef, error) {
	if p.punct("*") {
		p.next()
		return TypeRef{Star: true}, nil
	}
	return p.parseType()
}

func (p *typeParser) parseParenList() ([]TypeRef, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var items []TypeRef
	if p.punct(")") {
		p.next()
		return items, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		items = append(items, t)
		if p.punct(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *typeParser) parseFunctionTail(params []TypeRef, suspend bool) (TypeRef, error) {
	if p.tok.kind != tokArrow {
		return TypeRef{}, p.errorf("expected \"->\"")
	}
	p.next()
	result, err := p.parseType()
	if err != nil {
		return TypeRef{}, err
	}
	return TypeRef{Function: &FunctionRef{Params: params, Result: result, Suspend: suspend}}, nil
}
