// Package classifier assigns a generation pattern to an interface model.
package classifier

import (
	"fmt"

	"faktgen/internal/model"
)

// Pattern is the generic shape of an interface.
type Pattern int

const (
	NoGenerics Pattern = iota
	ClassLevelGenerics
	MethodLevelGenerics
	MixedGenerics
	Unsupported
)

func (p Pattern) String() string {
	switch p {
	case NoGenerics:
		return "no-generics"
	case ClassLevelGenerics:
		return "class-level"
	case MethodLevelGenerics:
		return "method-level"
	case MixedGenerics:
		return "mixed"
	case Unsupported:
		return "unsupported"
	}
	return fmt.Sprintf("pattern(%d)", int(p))
}

// Reified reports whether the factory must declare reified class parameters.
func (p Pattern) Reified() bool {
	return p == ClassLevelGenerics || p == MixedGenerics
}

// Unsupported reasons.
const (
	ReasonRecursiveBound = "recursive-bound"
	ReasonHigherKinded   = "higher-kinded-parameter"
)

// Classification is the classifier result for one interface.
type Classification struct {
	// Pattern is Unsupported when Reason is set.
	Pattern Pattern
	Reason  string

	// Base is the pattern ignoring unsupported shapes. The edge case
	// handler uses it when it rescues a recursive bound.
	Base Pattern

	// Recursive lists every parameter with a self-referencing bound, in
	// arena order. Parameters listed here may still have a usable
	// non-recursive bound.
	Recursive []model.ParamID

	// Degraded lists the recursive parameters without any non-recursive
	// bound.
	Degraded []model.ParamID
}

// Supported reports whether generation can proceed without fallback.
func (c Classification) Supported() bool {
	return c.Pattern != Unsupported
}

// Classify computes the classification of m. It is pure and deterministic.
func Classify(m *model.Interface) Classification {
	c := Classification{Base: base(m)}
	c.Pattern = c.Base

	for _, id := range m.AllParams() {
		if !Recursive(m.Arena, id) {
			continue
		}
		c.Recursive = append(c.Recursive, id)
		if _, ok := NonRecursiveBound(m.Arena, id); !ok {
			c.Degraded = append(c.Degraded, id)
		}
	}
	if len(c.Degraded) > 0 {
		c.Pattern, c.Reason = Unsupported, ReasonRecursiveBound
	}

	// Higher-kinded use has no fallback, so it overrides a rescuable
	// recursive bound.
	if higherKinded(m) {
		c.Pattern, c.Reason = Unsupported, ReasonHigherKinded
	}
	return c
}

func base(m *model.Interface) Pattern {
	class, method := m.HasClassParams(), m.HasMethodParams()
	switch {
	case class && method:
		return MixedGenerics
	case class:
		return ClassLevelGenerics
	case method:
		return MethodLevelGenerics
	}
	return NoGenerics
}

// Recursive reports whether a bound of id reaches id, directly or through
// the bounds of other parameters.
func Recursive(a *model.Arena, id model.ParamID) bool {
	for _, b := range a.Param(id).Bounds {
		if reaches(a, b, id, make(map[model.ParamID]bool)) {
			return true
		}
	}
	return false
}

// NonRecursiveBound returns the first bound of id that does not reach id.
func NonRecursiveBound(a *model.Arena, id model.ParamID) (model.Type, bool) {
	for _, b := range a.Param(id).Bounds {
		if !reaches(a, b, id, make(map[model.ParamID]bool)) {
			return b, true
		}
	}
	return nil, false
}

// reaches walks t and the bounds of every parameter it references, looking
// for target. visited guards against cycles that do not pass through
// target.
func reaches(a *model.Arena, t model.Type, target model.ParamID, visited map[model.ParamID]bool) bool {
	for _, id := range model.References(t) {
		if id == target {
			return true
		}
		if visited[id] || !a.Has(id) {
			continue
		}
		visited[id] = true
		for _, b := range a.Param(id).Bounds {
			if reaches(a, b, target, visited) {
				return true
			}
		}
	}
	return false
}

func higherKinded(m *model.Interface) bool {
	found := false
	check := func(t model.Type) {
		model.Walk(t, func(n model.Type) bool {
			if r, ok := n.(model.ParamRef); ok && len(r.Args) > 0 {
				found = true
			}
			return !found
		})
	}
	for _, id := range m.AllParams() {
		for _, b := range m.Arena.Param(id).Bounds {
			check(b)
		}
	}
	for _, p := range m.Properties {
		check(p.Type)
	}
	for _, meth := range m.Methods {
		for _, p := range meth.Params {
			check(p.Type)
		}
		check(meth.Return)
	}
	return found
}
