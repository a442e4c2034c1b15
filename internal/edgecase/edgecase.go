// Package edgecase adjusts generation for shapes the plain substitution
// rules do not cover: recursive bounds, varargs, star projections and
// multiple bounds.
package edgecase

import (
	"fmt"

	"faktgen/internal/classifier"
	"faktgen/internal/config"
	"faktgen/internal/diag"
	"faktgen/internal/errors"
	"faktgen/internal/model"
)

// Prepare decides whether m can be generated under policy and returns the
// diagnostics for every fallback taken. The error is an UnsupportedPattern
// error when the interface must be skipped.
func Prepare(m *model.Interface, c classifier.Classification, policy string) ([]diag.Diagnostic, error) {
	if c.Reason == classifier.ReasonHigherKinded {
		return nil, errors.Unsupported(c.Reason)
	}
	if len(c.Degraded) > 0 && policy == config.RecursiveSkip {
		return nil, errors.WithHintf(errors.Unsupported(classifier.ReasonRecursiveBound),
			"set options.recursive_bounds to %q to generate with Any? in place of the bound", config.RecursiveFallback)
	}

	var out []diag.Diagnostic
	degraded := make(map[model.ParamID]bool, len(c.Degraded))
	for _, id := range c.Degraded {
		degraded[id] = true
	}
	for _, id := range c.Recursive {
		tp := m.Arena.Param(id)
		d := diag.Diagnostic{
			Interface: m.Name,
			Member:    owner(m, tp),
			Location:  m.Location,
		}
		if degraded[id] {
			d.Severity = diag.Warning
			d.Reason = fmt.Sprintf("type parameter %s has only recursive bounds; erased positions use Any?", tp.Name)
		} else {
			bound, _ := classifier.NonRecursiveBound(m.Arena, id)
			d.Severity = diag.Info
			d.Reason = fmt.Sprintf("type parameter %s has a recursive bound; erased positions use %s",
				tp.Name, model.Printer{Arena: m.Arena}.Type(bound))
		}
		out = append(out, d)
	}
	return out, nil
}

func owner(m *model.Interface, tp model.TypeParameter) string {
	if !tp.MethodLevel {
		return ""
	}
	return m.Arena.Scope(tp.Scope).Name
}

// ErasedBound returns the type that stands in for id where the parameter
// is not in scope: its first non-recursive bound, with method-level
// parameters inside it erased in turn, or Any? when none exists.
func ErasedBound(a *model.Arena, id model.ParamID) model.Type {
	return erasedBound(a, id, map[model.ParamID]bool{})
}

func erasedBound(a *model.Arena, id model.ParamID, visiting map[model.ParamID]bool) model.Type {
	if visiting[id] {
		return model.Top()
	}
	visiting[id] = true
	defer delete(visiting, id)

	bound, ok := classifier.NonRecursiveBound(a, id)
	if !ok {
		return model.Top()
	}
	return model.Rewrite(bound, func(r model.ParamRef) (model.Type, bool) {
		if !a.Param(r.ID).MethodLevel {
			return nil, false
		}
		return erasedBound(a, r.ID, visiting), true
	})
}

// Erase replaces every method-level parameter in t by its erased bound.
// Class-level parameters are left alone since they are in scope for the
// whole fake.
func Erase(a *model.Arena, t model.Type) model.Type {
	return model.Rewrite(t, func(r model.ParamRef) (model.Type, bool) {
		if !a.Param(r.ID).MethodLevel {
			return nil, false
		}
		erased := ErasedBound(a, r.ID)
		return erased, true
	})
}

// MentionsMethodParams reports whether t references a method-level
// parameter.
func MentionsMethodParams(a *model.Arena, t model.Type) bool {
	for _, id := range model.References(t) {
		if a.Param(id).MethodLevel {
			return true
		}
	}
	return false
}

// Signature is the function type of a behavior slot.
type Signature struct {
	// Exact is the type callers configure, with method-level parameters
	// intact and varargs as arrays.
	Exact model.Function
	// Slot is Exact with method-level parameters erased. It equals Exact
	// when the method has no type parameters in its signature.
	Slot model.Function
	// Erased reports whether Slot differs from Exact.
	Erased bool
}

// MethodSignature builds the behavior signature of a planned method.
// Vararg parameters become their array type: the slot of a variadic method
// is never itself variadic.
func MethodSignature(a *model.Arena, params []model.Param, result model.Type, async bool) Signature {
	exact := model.Function{Result: result, Async: async}
	for _, p := range params {
		exact.Params = append(exact.Params, p.Type)
	}

	sig := Signature{Exact: exact}
	if !MentionsMethodParams(a, exact) {
		sig.Slot = exact
		return sig
	}
	sig.Slot = Erase(a, exact).(model.Function)
	sig.Erased = true
	return sig
}

// Constraints is the rendered form of a type parameter list.
type Constraints struct {
	// Params holds one entry per parameter: `out T`, `T : Any` or `T`.
	// A parameter with several bounds is listed bare and its bounds move to
	// Where.
	Params []string
	// Where holds `T : A` clauses for parameters with several bounds.
	Where []string
}

// Options for RenderConstraints.
type Options struct {
	Variance bool // emit in/out modifiers
	Reified  bool // prefix each parameter with reified
}

// RenderConstraints renders ids with every bound retained. Top bounds are
// implicit and omitted.
func RenderConstraints(p model.Printer, ids []model.ParamID, opts Options) Constraints {
	var c Constraints
	for _, id := range ids {
		tp := p.Arena.Param(id)
		decl := tp.Name
		if opts.Variance && tp.Variance != model.Invariant {
			decl = tp.Variance.Keyword() + " " + decl
		}
		if opts.Reified {
			decl = "reified " + decl
		}

		var bounds []model.Type
		for _, b := range tp.Bounds {
			if !model.IsTop(b) {
				bounds = append(bounds, b)
			}
		}
		switch len(bounds) {
		case 0:
		case 1:
			decl += " : " + p.Type(bounds[0])
		default:
			for _, b := range bounds {
				c.Where = append(c.Where, tp.Name+" : "+p.Type(b))
			}
		}
		c.Params = append(c.Params, decl)
	}
	return c
}
