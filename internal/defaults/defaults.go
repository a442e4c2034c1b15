// Package defaults synthesizes the zero-configuration behavior of a fake
// member from the shape of its result type.
package defaults

import (
	"fmt"
	"strings"

	"faktgen/internal/errors"
	"faktgen/internal/model"
)

// Expr is a default expression. The only implementations are the types in
// this file.
type Expr interface {
	isExpr()
}

// Literal is a constant such as `null`, `0L` or `""`.
type Literal struct {
	Text string
}

// ConstructorCall invokes a factory function without type arguments, such
// as `emptyList()`. Type arguments are always left to inference.
type ConstructorCall struct {
	Func string
}

// Identity returns the value parameter at Index unchanged.
type Identity struct {
	Index int
}

// ErrorThrow fails when the behavior runs unconfigured.
type ErrorThrow struct {
	Reason Reason
}

func (Literal) isExpr()         {}
func (ConstructorCall) isExpr() {}
func (Identity) isExpr()        {}
func (ErrorThrow) isExpr()      {}

// Reason tells why no safe default exists.
type Reason int

const (
	// UnconfiguredGeneric is a type parameter result with no sibling value
	// to return.
	UnconfiguredGeneric Reason = iota
	// Unconfigured is a domain or function result with no safe literal.
	Unconfigured
	// BottomType is a contravariant star projection, which has no
	// inhabitants.
	BottomType
	// NonReifiedArray is an array of a type parameter, which cannot be
	// created without a reified parameter.
	NonReifiedArray
)

func (r Reason) String() string {
	switch r {
	case UnconfiguredGeneric:
		return "unconfigured generic"
	case Unconfigured:
		return "no safe default"
	case BottomType:
		return "bottom type"
	case NonReifiedArray:
		return "array of a type parameter"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Null is the `null` literal.
var Null = Literal{Text: "null"}

// Site describes where the synthesized value is used.
type Site struct {
	// Siblings are the value parameter types of the callable that owns the
	// result. Properties have none.
	Siblings []model.Type

	// Position is the variance of the position the type occupies. It only
	// matters for star projections.
	Position model.Variance

	// Bound is the declared upper bound of a star projection. Nil means the
	// top type.
	Bound model.Type
}

var zeros = map[model.PrimitiveKind]string{
	model.KindInt:     "0",
	model.KindLong:    "0L",
	model.KindShort:   "0.toShort()",
	model.KindByte:    "0.toByte()",
	model.KindFloat:   "0.0f",
	model.KindDouble:  "0.0",
	model.KindBoolean: "false",
	model.KindChar:    `'\u0000'`,
	model.KindText:    `""`,
	model.KindUnit:    "Unit",
}

var constructors = map[model.Container]string{
	model.ContainerList:              "emptyList",
	model.ContainerMutableList:       "mutableListOf",
	model.ContainerSet:               "emptySet",
	model.ContainerMutableSet:        "mutableSetOf",
	model.ContainerCollection:        "emptyList",
	model.ContainerMutableCollection: "mutableListOf",
	model.ContainerIterable:          "emptyList",
	model.ContainerSequence:          "emptySequence",
	model.ContainerArray:             "emptyArray",
}

var primitiveArrayConstructors = map[model.PrimitiveKind]string{
	model.KindInt:     "intArrayOf",
	model.KindLong:    "longArrayOf",
	model.KindShort:   "shortArrayOf",
	model.KindByte:    "byteArrayOf",
	model.KindFloat:   "floatArrayOf",
	model.KindDouble:  "doubleArrayOf",
	model.KindBoolean: "booleanArrayOf",
	model.KindChar:    "charArrayOf",
}

// Synthesize returns the default for a value of type t at site. The rules
// are tried in a fixed order and the first match wins; nullability is
// checked before any other shape.
func Synthesize(t model.Type, site Site) Expr {
	switch t := t.(type) {
	case model.Nullable:
		return Null
	case model.ParamRef:
		if i, ok := soleSibling(t.ID, site.Siblings); ok {
			return Identity{Index: i}
		}
		return ErrorThrow{Reason: UnconfiguredGeneric}
	case model.Collection:
		if t.Container == model.ContainerArray && len(model.References(t.Elem)) > 0 {
			return ErrorThrow{Reason: NonReifiedArray}
		}
		return ConstructorCall{Func: constructors[t.Container]}
	case model.Map:
		if t.Mutable {
			return ConstructorCall{Func: "mutableMapOf"}
		}
		return ConstructorCall{Func: "emptyMap"}
	case model.Primitive:
		if z, ok := zeros[t.Kind]; ok {
			return Literal{Text: z}
		}
		return ErrorThrow{Reason: Unconfigured}
	case model.Vararg:
		if p, ok := t.Elem.(model.Primitive); ok {
			if ctor, ok := primitiveArrayConstructors[p.Kind]; ok {
				return ConstructorCall{Func: ctor}
			}
		}
		return Synthesize(model.Collection{Container: model.ContainerArray, Elem: t.Elem}, site)
	case model.Star:
		if site.Position == model.Contravariant {
			return ErrorThrow{Reason: BottomType}
		}
		bound := site.Bound
		if bound == nil {
			bound = model.Top()
		}
		return Synthesize(bound, Site{})
	case model.Domain, model.Function:
		return ErrorThrow{Reason: Unconfigured}
	}
	panic(errors.AssertionFailedf("defaults: unhandled type %T", t))
}

// soleSibling returns the index of the only sibling whose type is exactly
// a reference to id.
func soleSibling(id model.ParamID, siblings []model.Type) (int, bool) {
	found := -1
	for i, s := range siblings {
		r, ok := s.(model.ParamRef)
		if !ok || r.ID != id || len(r.Args) > 0 {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = i
	}
	return found, found >= 0
}

// Unresolved returns an UnresolvableDefault error when e defers failure to
// run time, and nil otherwise.
func Unresolved(e Expr, member string) error {
	et, ok := e.(ErrorThrow)
	if !ok {
		return nil
	}
	return errors.Unresolvable("%s: %s", member, et.Reason)
}

// Render returns the Kotlin source of e. member names the behavior in
// failure messages and params names the lambda parameters, which Identity
// refers to.
func Render(e Expr, member string, params []string) string {
	switch e := e.(type) {
	case Literal:
		return e.Text
	case ConstructorCall:
		return e.Func + "()"
	case Identity:
		return params[e.Index]
	case ErrorThrow:
		return fmt.Sprintf("error(%q)", message(e.Reason, member))
	}
	panic(errors.AssertionFailedf("defaults: unhandled expression %T", e))
}

func message(r Reason, member string) string {
	switch r {
	case UnconfiguredGeneric:
		return fmt.Sprintf("%s has a generic result and must be configured", member)
	case BottomType:
		return fmt.Sprintf("%s returns a contravariant projection and must be configured", member)
	case NonReifiedArray:
		return fmt.Sprintf("%s returns an array of a type parameter and must be configured", member)
	}
	return fmt.Sprintf("%s is not configured", member)
}

// Lambda renders e as a lambda taking params. Parameters the body does not
// use are written as `_`; a Unit body is left empty.
func Lambda(e Expr, member string, params []string) string {
	used := -1
	if id, ok := e.(Identity); ok {
		used = id.Index
	}

	var body string
	if lit, ok := e.(Literal); !ok || lit.Text != zeros[model.KindUnit] {
		body = Render(e, member, params)
	}

	if len(params) == 0 {
		if body == "" {
			return "{}"
		}
		return "{ " + body + " }"
	}

	names := make([]string, len(params))
	for i, p := range params {
		if i == used {
			names[i] = p
		} else {
			names[i] = "_"
		}
	}
	head := strings.Join(names, ", ") + " ->"
	if body == "" {
		return "{ " + head + " }"
	}
	return "{ " + head + " " + body + " }"
}
