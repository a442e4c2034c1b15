package model

// Children returns the direct sub-types of t in rendering order.
func Children(t Type) []Type {
	switch t := t.(type) {
	case Nullable:
		return []Type{t.Inner}
	case ParamRef:
		return t.Args
	case Collection:
		return []Type{t.Elem}
	case Map:
		return []Type{t.Key, t.Value}
	case Function:
		return append(append([]Type{}, t.Params...), t.Result)
	case Domain:
		return t.Args
	case Vararg:
		return []Type{t.Elem}
	}
	return nil
}

// Walk visits t and its sub-types depth first. Returning false from fn skips
// the children of the visited node.
func Walk(t Type, fn func(Type) bool) {
	if t == nil || !fn(t) {
		return
	}
	for _, c := range Children(t) {
		Walk(c, fn)
	}
}

// References returns the parameter ids referenced by t, in first-use order
// and without duplicates.
func References(t Type) []ParamID {
	var ids []ParamID
	seen := make(map[ParamID]bool)
	Walk(t, func(n Type) bool {
		if r, ok := n.(ParamRef); ok && !seen[r.ID] {
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
		return true
	})
	return ids
}

// Contains reports whether t references id.
func Contains(t Type, id ParamID) bool {
	found := false
	Walk(t, func(n Type) bool {
		if r, ok := n.(ParamRef); ok && r.ID == id {
			found = true
		}
		return !found
	})
	return found
}

// Rewrite rebuilds t bottom-up, replacing every ParamRef by the result of fn.
// Returning ok=false keeps the reference as is.
func Rewrite(t Type, fn func(ParamRef) (Type, bool)) Type {
	switch t := t.(type) {
	case Nullable:
		return Nullable{Inner: Rewrite(t.Inner, fn)}
	case ParamRef:
		r := ParamRef{ID: t.ID, Args: rewriteAll(t.Args, fn)}
		if out, ok := fn(r); ok {
			return out
		}
		return r
	case Collection:
		return Collection{Container: t.Container, Elem: Rewrite(t.Elem, fn)}
	case Map:
		return Map{Mutable: t.Mutable, Key: Rewrite(t.Key, fn), Value: Rewrite(t.Value, fn)}
	case Function:
		return Function{Params: rewriteAll(t.Params, fn), Result: Rewrite(t.Result, fn), Async: t.Async}
	case Domain:
		return Domain{Name: t.Name, Args: rewriteAll(t.Args, fn)}
	case Vararg:
		return Vararg{Elem: Rewrite(t.Elem, fn)}
	}
	return t
}

func rewriteAll(ts []Type, fn func(ParamRef) (Type, bool)) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Rewrite(t, fn)
	}
	return out
}

// Remap rewrites parameter references through ids.
func Remap(t Type, ids map[ParamID]ParamID) Type {
	if len(ids) == 0 {
		return t
	}
	return Rewrite(t, func(r ParamRef) (Type, bool) {
		if to, ok := ids[r.ID]; ok {
			return ParamRef{ID: to, Args: r.Args}, true
		}
		return nil, false
	})
}

// Equal reports structural equality of two types.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case Primitive:
		b, ok := b.(Primitive)
		return ok && a == b
	case Nullable:
		b, ok := b.(Nullable)
		return ok && Equal(a.Inner, b.Inner)
	case ParamRef:
		b, ok := b.(ParamRef)
		return ok && a.ID == b.ID && equalAll(a.Args, b.Args)
	case Collection:
		b, ok := b.(Collection)
		return ok && a.Container == b.Container && Equal(a.Elem, b.Elem)
	case Map:
		b, ok := b.(Map)
		return ok && a.Mutable == b.Mutable && Equal(a.Key, b.Key) && Equal(a.Value, b.Value)
	case Function:
		b, ok := b.(Function)
		return ok && a.Async == b.Async && equalAll(a.Params, b.Params) && Equal(a.Result, b.Result)
	case Star:
		_, ok := b.(Star)
		return ok
	case Domain:
		b, ok := b.(Domain)
		return ok && a.Name == b.Name && equalAll(a.Args, b.Args)
	case Vararg:
		b, ok := b.(Vararg)
		return ok && Equal(a.Elem, b.Elem)
	}
	return a == nil && b == nil
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
