// Package model defines the resolved type model consumed by every stage of
// fake generation.
//
// Types form a closed sum: the only implementations of Type are the structs
// declared in this file. Consumers switch over them exhaustively and treat an
// unknown variant as an assertion failure.
package model

import "fmt"

// PrimitiveKind identifies the canonical zero value family of a primitive.
type PrimitiveKind string

const (
	KindInt     PrimitiveKind = "int"
	KindLong    PrimitiveKind = "long"
	KindShort   PrimitiveKind = "short"
	KindByte    PrimitiveKind = "byte"
	KindFloat   PrimitiveKind = "float"
	KindDouble  PrimitiveKind = "double"
	KindBoolean PrimitiveKind = "boolean"
	KindChar    PrimitiveKind = "char"
	KindText    PrimitiveKind = "text"
	KindUnit    PrimitiveKind = "unit"
)

// Valid reports whether k is one of the known primitive kinds.
func (k PrimitiveKind) Valid() bool {
	switch k {
	case KindInt, KindLong, KindShort, KindByte, KindFloat, KindDouble,
		KindBoolean, KindChar, KindText, KindUnit:
		return true
	}
	return false
}

// Container is the Kotlin collection type a Collection renders as.
type Container string

const (
	ContainerList              Container = "List"
	ContainerMutableList       Container = "MutableList"
	ContainerSet               Container = "Set"
	ContainerMutableSet        Container = "MutableSet"
	ContainerCollection        Container = "Collection"
	ContainerMutableCollection Container = "MutableCollection"
	ContainerIterable          Container = "Iterable"
	ContainerSequence          Container = "Sequence"
	ContainerArray             Container = "Array"
)

// Containers lists every known collection container by Kotlin name.
var Containers = map[string]Container{
	"List":              ContainerList,
	"MutableList":       ContainerMutableList,
	"Set":               ContainerSet,
	"MutableSet":        ContainerMutableSet,
	"Collection":        ContainerCollection,
	"MutableCollection": ContainerMutableCollection,
	"Iterable":          ContainerIterable,
	"Sequence":          ContainerSequence,
	"Array":             ContainerArray,
}

// ReadOnly reports whether the container's element is declared covariant
// (`out E`), which makes `C<*>` interchangeable with `C<Any?>`.
func (c Container) ReadOnly() bool {
	switch c {
	case ContainerList, ContainerSet, ContainerCollection, ContainerIterable, ContainerSequence:
		return true
	}
	return false
}

// Type is a resolved type shape.
type Type interface {
	isType()
}

// Primitive is a built-in scalar such as Int or String.
type Primitive struct {
	Kind PrimitiveKind
	Name string // Kotlin spelling, e.g. "Int"
}

// Nullable marks its inner type as admitting null.
type Nullable struct {
	Inner Type
}

// ParamRef references a type parameter by arena id. Args is only non-empty
// for higher-kinded uses, which the classifier rejects.
type ParamRef struct {
	ID   ParamID
	Args []Type
}

// Collection is a single-element container.
type Collection struct {
	Container Container
	Elem      Type
}

// Map is a key/value container.
type Map struct {
	Mutable bool
	Key     Type
	Value   Type
}

// Function is a function type, optionally suspending.
type Function struct {
	Params []Type
	Result Type
	Async  bool
}

// Star is a star projection (`*`).
type Star struct{}

// Domain is any other named type. Its arguments are kept for rendering.
type Domain struct {
	Name string
	Args []Type
}

// Vararg is the type of a variadic parameter. It renders as the array
// equivalent of Elem wherever a plain type is required.
type Vararg struct {
	Elem Type
}

func (Primitive) isType()  {}
func (Nullable) isType()   {}
func (ParamRef) isType()   {}
func (Collection) isType() {}
func (Map) isType()        {}
func (Function) isType()   {}
func (Star) isType()       {}
func (Domain) isType()     {}
func (Vararg) isType()     {}

// Top returns the universal top type, Any?.
func Top() Type {
	return Nullable{Inner: Domain{Name: "Any"}}
}

// Bottom returns the bottom type, Nothing.
func Bottom() Type {
	return Domain{Name: "Nothing"}
}

// Unit returns the Unit primitive.
func Unit() Type {
	return Primitive{Kind: KindUnit, Name: "Unit"}
}

// IsTop reports whether t is Any?.
func IsTop(t Type) bool {
	n, ok := t.(Nullable)
	if !ok {
		return false
	}
	d, ok := n.Inner.(Domain)
	return ok && d.Name == "Any" && len(d.Args) == 0
}

// IsUnit reports whether t is Unit.
func IsUnit(t Type) bool {
	p, ok := t.(Primitive)
	return ok && p.Kind == KindUnit
}

// Location is a source position reported by the declaration collector.
type Location struct {
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// String formats the location as file:line:column, omitting unknown parts.
func (l Location) String() string {
	switch {
	case l.File == "":
		return ""
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Interface is the normalized model of one source interface. It is built
// once by the analyzer and never mutated afterwards.
type Interface struct {
	Name        string
	Package     string
	Location    Location
	Arena       *Arena
	ClassScope  ScopeID
	ClassParams []ParamID
	Methods     []Method
	Properties  []Property
}

// Method is one abstract function of an interface.
type Method struct {
	Name       string
	Scope      ScopeID
	TypeParams []ParamID
	Params     []Param
	Return     Type
	Async      bool
	Location   Location
}

// Param is a value parameter of a method.
type Param struct {
	Name   string
	Type   Type
	Vararg bool
}

// Property is an abstract property of an interface.
type Property struct {
	Name     string
	Type     Type
	Mutable  bool
	Location Location
}

// HasClassParams reports whether the interface declares type parameters.
func (i *Interface) HasClassParams() bool {
	return len(i.ClassParams) > 0
}

// HasMethodParams reports whether any method declares type parameters.
func (i *Interface) HasMethodParams() bool {
	for _, m := range i.Methods {
		if len(m.TypeParams) > 0 {
			return true
		}
	}
	return false
}

// AllParams returns class-level followed by method-level parameter ids, in
// declaration order.
func (i *Interface) AllParams() []ParamID {
	ids := append([]ParamID{}, i.ClassParams...)
	for _, m := range i.Methods {
		ids = append(ids, m.TypeParams...)
	}
	return ids
}
