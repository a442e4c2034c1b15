// Package decl defines the raw interface declarations produced by the
// declaration collector. Nothing here is resolved: type parameter references
// are plain names until the analyzer binds them to scopes.
package decl

// File is one declaration file emitted by the collector.
type File struct {
	Package    string      `yaml:"package" json:"package" toml:"package"`
	Path       string      `yaml:"-" json:"-" toml:"-"` // Source path, set by the parser
	Interfaces []Interface `yaml:"interfaces" json:"interfaces" toml:"interfaces"`
}

// Location is a source position for diagnostics.
type Location struct {
	File   string `yaml:"file" json:"file" toml:"file"`
	Line   int    `yaml:"line" json:"line" toml:"line"`
	Column int    `yaml:"column" json:"column" toml:"column"`
}

// Interface is a raw interface declaration.
type Interface struct {
	Name           string          `yaml:"name" json:"name" toml:"name"`
	Doc            string          `yaml:"doc,omitempty" json:"doc,omitempty" toml:"doc,omitempty"`
	Location       Location        `yaml:"location" json:"location" toml:"location"`
	TypeParameters []TypeParameter `yaml:"typeParameters" json:"typeParameters" toml:"typeParameters"`
	Properties     []Property      `yaml:"properties" json:"properties" toml:"properties"`
	Methods        []Method        `yaml:"methods" json:"methods" toml:"methods"`
}

// TypeParameter is a raw generic parameter.
type TypeParameter struct {
	Name     string    `yaml:"name" json:"name" toml:"name"`
	Bounds   []TypeRef `yaml:"bounds" json:"bounds" toml:"bounds"`
	Variance string    `yaml:"variance" json:"variance" toml:"variance"` // "", "in" or "out"
}

// Method is a raw abstract function.
type Method struct {
	Name           string          `yaml:"name" json:"name" toml:"name"`
	Location       Location        `yaml:"location" json:"location" toml:"location"`
	TypeParameters []TypeParameter `yaml:"typeParameters" json:"typeParameters" toml:"typeParameters"`
	Parameters     []Parameter     `yaml:"parameters" json:"parameters" toml:"parameters"`
	Returns        *TypeRef        `yaml:"returns" json:"returns" toml:"returns"` // nil means Unit
	Suspend        bool            `yaml:"suspend" json:"suspend" toml:"suspend"`
}

// Parameter is a raw value parameter.
type Parameter struct {
	Name   string  `yaml:"name" json:"name" toml:"name"`
	Type   TypeRef `yaml:"type" json:"type" toml:"type"`
	Vararg bool    `yaml:"vararg" json:"vararg" toml:"vararg"`
}

// Property is a raw abstract property.
type Property struct {
	Name     string   `yaml:"name" json:"name" toml:"name"`
	Location Location `yaml:"location" json:"location" toml:"location"`
	Type     TypeRef  `yaml:"type" json:"type" toml:"type"`
	Mutable  bool     `yaml:"mutable" json:"mutable" toml:"mutable"`
}

// Scope qualifiers for explicit parameter references.
const (
	ScopeClass  = "class"
	ScopeMethod = "method"
)

// TypeRef is an unresolved type expression.
//
// Exactly one of Name, Param, Function or Star describes the shape. A Param
// reference may pin its scope and position to reach a class parameter that
// a method parameter of the same name shadows.
type TypeRef struct {
	Name     string       `yaml:"name,omitempty" json:"name,omitempty"`
	Args     []TypeRef    `yaml:"args,omitempty" json:"args,omitempty"`
	Nullable bool         `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Star     bool         `yaml:"star,omitempty" json:"star,omitempty"`
	Param    string       `yaml:"param,omitempty" json:"param,omitempty"`
	Scope    string       `yaml:"scope,omitempty" json:"scope,omitempty"`
	Index    *int         `yaml:"index,omitempty" json:"index,omitempty"`
	Function *FunctionRef `yaml:"function,omitempty" json:"function,omitempty"`
}

// FunctionRef is an unresolved function type.
type FunctionRef struct {
	Params  []TypeRef `yaml:"params,omitempty" json:"params,omitempty"`
	Result  TypeRef   `yaml:"result" json:"result"`
	Suspend bool      `yaml:"suspend,omitempty" json:"suspend,omitempty"`
}
