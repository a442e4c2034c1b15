package model

// ParamID indexes a type parameter in an Arena.
type ParamID int

// ScopeID indexes a declaring scope in an Arena.
type ScopeID int

// NoScope is the zero value for an unset scope.
const NoScope ScopeID = -1

// Variance is declaration-site variance of a type parameter.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// Keyword returns the Kotlin modifier for v ("", "out" or "in").
func (v Variance) Keyword() string {
	switch v {
	case Covariant:
		return "out"
	case Contravariant:
		return "in"
	}
	return ""
}

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	}
	return "invariant"
}

// Flip returns the variance of a position nested under a contravariant one.
func (v Variance) Flip() Variance {
	switch v {
	case Covariant:
		return Contravariant
	case Contravariant:
		return Covariant
	}
	return Invariant
}

// ScopeKind tells what declares the parameters of a scope.
type ScopeKind int

const (
	ScopeClass ScopeKind = iota
	ScopeMethod
	ScopeGenerated
)

// Scope is an owner of type parameters.
type Scope struct {
	ID   ScopeID
	Kind ScopeKind
	Name string
}

// TypeParameter is a declared generic parameter. Its owner is Scope, looked
// up in the arena; there is no back pointer.
type TypeParameter struct {
	ID          ParamID
	Name        string
	Index       int
	Bounds      []Type
	Variance    Variance
	MethodLevel bool
	Scope       ScopeID
}

// Arena stores type parameters and their scopes. Ids are dense and stable
// across Clone, so a clone can extend a model's parameter space without
// colliding with it.
type Arena struct {
	params []TypeParameter
	scopes []Scope
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// NewScope allocates a scope.
func (a *Arena) NewScope(kind ScopeKind, name string) ScopeID {
	id := ScopeID(len(a.scopes))
	a.scopes = append(a.scopes, Scope{ID: id, Kind: kind, Name: name})
	return id
}

// Declare allocates a parameter in scope with the top type as its bound.
func (a *Arena) Declare(scope ScopeID, name string, index int, variance Variance) ParamID {
	id := ParamID(len(a.params))
	a.params = append(a.params, TypeParameter{
		ID:          id,
		Name:        name,
		Index:       index,
		Bounds:      []Type{Top()},
		Variance:    variance,
		MethodLevel: a.scopes[scope].Kind != ScopeClass,
		Scope:       scope,
	})
	return id
}

// SetBounds replaces the bounds of id. An empty list resets to the top type.
func (a *Arena) SetBounds(id ParamID, bounds []Type) {
	if len(bounds) == 0 {
		bounds = []Type{Top()}
	}
	a.params[id].Bounds = bounds
}

// Rename changes the name of id.
func (a *Arena) Rename(id ParamID, name string) {
	a.params[id].Name = name
}

// Param returns a copy of the parameter with the given id.
func (a *Arena) Param(id ParamID) TypeParameter {
	p := a.params[id]
	p.Bounds = append([]Type{}, p.Bounds...)
	return p
}

// Name returns the declared name of id.
func (a *Arena) Name(id ParamID) string {
	return a.params[id].Name
}

// Has reports whether id exists in the arena.
func (a *Arena) Has(id ParamID) bool {
	return id >= 0 && int(id) < len(a.params)
}

// Scope returns the scope with the given id.
func (a *Arena) Scope(id ScopeID) Scope {
	return a.scopes[id]
}

// Len returns the number of parameters.
func (a *Arena) Len() int {
	return len(a.params)
}

// Clone returns an independent copy of the arena.
func (a *Arena) Clone() *Arena {
	c := &Arena{
		params: make([]TypeParameter, len(a.params)),
		scopes: append([]Scope{}, a.scopes...),
	}
	for i, p := range a.params {
		p.Bounds = append([]Type{}, p.Bounds...)
		c.params[i] = p
	}
	return c
}
