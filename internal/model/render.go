package model

import (
	"strings"

	"faktgen/internal/errors"
)

// Printer renders types as Kotlin source.
type Printer struct {
	Arena *Arena

	// UnsafeVariance lists class parameters rendered as `@UnsafeVariance T`.
	UnsafeVariance map[ParamID]bool

	// EraseStars renders `*` as `Any?` under read-only containers. Only used
	// for internal behavior slots, never for override signatures.
	EraseStars bool
}

var primitiveArrays = map[PrimitiveKind]string{
	KindInt:     "IntArray",
	KindLong:    "LongArray",
	KindShort:   "ShortArray",
	KindByte:    "ByteArray",
	KindFloat:   "FloatArray",
	KindDouble:  "DoubleArray",
	KindBoolean: "BooleanArray",
	KindChar:    "CharArray",
}

// Type renders t.
func (p Printer) Type(t Type) string {
	var sb strings.Builder
	p.write(&sb, t)
	return sb.String()
}

// Types renders ts separated by ", ".
func (p Printer) Types(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = p.Type(t)
	}
	return strings.Join(parts, ", ")
}

func (p Printer) write(sb *strings.Builder, t Type) {
	switch t := t.(type) {
	case Primitive:
		sb.WriteString(t.Name)
	case Nullable:
		if _, ok := t.Inner.(Function); ok {
			sb.WriteString("(")
			p.write(sb, t.Inner)
			sb.WriteString(")?")
			return
		}
		p.write(sb, t.Inner)
		sb.WriteString("?")
	case ParamRef:
		if p.UnsafeVariance[t.ID] {
			sb.WriteString("@UnsafeVariance ")
		}
		sb.WriteString(p.paramName(t.ID))
		p.writeArgs(sb, t.Args)
	case Collection:
		sb.WriteString(string(t.Container))
		sb.WriteString("<")
		p.writeArg(sb, t.Elem, t.Container.ReadOnly())
		sb.WriteString(">")
	case Map:
		if t.Mutable {
			sb.WriteString("MutableMap<")
		} else {
			sb.WriteString("Map<")
		}
		p.write(sb, t.Key)
		sb.WriteString(", ")
		p.writeArg(sb, t.Value, !t.Mutable)
		sb.WriteString(">")
	case Function:
		if t.Async {
			sb.WriteString("suspend ")
		}
		sb.WriteString("(")
		for i, param := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.write(sb, param)
		}
		sb.WriteString(") -> ")
		p.write(sb, t.Result)
	case Star:
		sb.WriteString("*")
	case Domain:
		sb.WriteString(t.Name)
		p.writeArgs(sb, t.Args)
	case Vararg:
		sb.WriteString(p.ArrayOf(t.Elem))
	case nil:
		sb.WriteString("Any?")
	default:
		panic(errors.AssertionFailedf("model: cannot render type %T", t))
	}
}

func (p Printer) writeArg(sb *strings.Builder, t Type, readOnly bool) {
	if _, ok := t.(Star); ok && p.EraseStars && readOnly {
		sb.WriteString("Any?")
		return
	}
	p.write(sb, t)
}

func (p Printer) writeArgs(sb *strings.Builder, args []Type) {
	if len(args) == 0 {
		return
	}
	sb.WriteString("<")
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		p.write(sb, a)
	}
	sb.WriteString(">")
}

func (p Printer) paramName(id ParamID) string {
	if p.Arena == nil || !p.Arena.Has(id) {
		return "Any?"
	}
	return p.Arena.Name(id)
}

// ArrayOf renders the homogeneous array type backing a vararg of elem.
func (p Printer) ArrayOf(elem Type) string {
	if prim, ok := elem.(Primitive); ok {
		if arr, ok := primitiveArrays[prim.Kind]; ok {
			return arr
		}
	}
	return "Array<out " + p.Type(elem) + ">"
}
