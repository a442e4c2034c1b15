// Package analyzer resolves raw interface declarations into the type model.
//
// Resolution binds every type parameter reference to an arena id. A method's
// own type parameters shadow class parameters of the same name; an explicit
// reference ({param, scope, index}) reaches past the shadowing.
package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"faktgen/internal/decl"
	"faktgen/internal/errors"
	"faktgen/internal/model"
)

// TypeResolver maps a Kotlin type name to its primitive kind.
// *config.Config implements it.
type TypeResolver interface {
	PrimitiveKind(name string) (model.PrimitiveKind, bool)
}

// Analyzer turns decl.Interface values into model.Interface values.
type Analyzer struct {
	types TypeResolver
}

// New returns an analyzer that classifies primitive names with types.
func New(types TypeResolver) *Analyzer {
	return &Analyzer{types: types}
}

// placeholderName matches names that can only be type parameters, such as T
// or R2. Such a name that resolves to no parameter in scope is rejected
// rather than treated as a domain type.
var placeholderName = regexp.MustCompile(`^[A-Z][0-9]?$`)

// stdlibPrefixes are stripped from qualified names before lookup.
var stdlibPrefixes = []string{"kotlin.collections.", "kotlin.sequences.", "kotlin."}

// minSimilarity is the Jaro-Winkler score above which a name is offered as
// a suggestion.
const minSimilarity = 0.7

// scope is one level of type parameter names during resolution.
type scope struct {
	kind   string // decl.ScopeClass or decl.ScopeMethod
	ids    []model.ParamID
	names  map[string]model.ParamID
	parent *scope
}

func (s *scope) lookup(name string) (model.ParamID, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if id, ok := cur.names[name]; ok {
			return id, true
		}
	}
	return 0, false
}

func (s *scope) find(kind string) *scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.kind == kind {
			return cur
		}
	}
	return nil
}

func (s *scope) visible() []string {
	var names []string
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.names {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// resolver carries the state of one Analyze call.
type resolver struct {
	types  TypeResolver
	arena  *model.Arena
	iface  string
	member string

	// property is set while a property type is resolved.
	property bool

	// owners maps every method-level parameter name to the methods that
	// declare it, for diagnostics.
	owners map[string][]string
}

// Analyze resolves raw into a model.Interface owned by package pkg.
func (a *Analyzer) Analyze(raw decl.Interface, pkg string) (*model.Interface, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return nil, errors.Malformed("interface declaration without a name")
	}

	r := &resolver{
		types:  a.types,
		arena:  model.NewArena(),
		iface:  raw.Name,
		owners: make(map[string][]string),
	}
	for _, m := range raw.Methods {
		for _, tp := range m.TypeParameters {
			r.owners[tp.Name] = append(r.owners[tp.Name], m.Name)
		}
	}

	out := &model.Interface{
		Name:     raw.Name,
		Package:  pkg,
		Location: toLocation(raw.Location, model.Location{}),
		Arena:    r.arena,
	}

	out.ClassScope = r.arena.NewScope(model.ScopeClass, raw.Name)
	class, err := r.declare(out.ClassScope, decl.ScopeClass, raw.TypeParameters, nil)
	if err != nil {
		return nil, err
	}
	out.ClassParams = class.ids

	if err := r.checkUniqueMembers(raw); err != nil {
		return nil, err
	}

	r.property = true
	for _, rp := range raw.Properties {
		r.member = rp.Name
		if strings.TrimSpace(rp.Name) == "" {
			return nil, r.malformed("property without a name")
		}
		t, err := r.resolve(rp.Type, class)
		if err != nil {
			return nil, err
		}
		out.Properties = append(out.Properties, model.Property{
			Name:     rp.Name,
			Type:     t,
			Mutable:  rp.Mutable,
			Location: toLocation(rp.Location, out.Location),
		})
	}
	r.property = false

	for _, rm := range raw.Methods {
		m, err := r.method(rm, class, out.Location)
		if err != nil {
			return nil, err
		}
		out.Methods = append(out.Methods, m)
	}
	return out, nil
}

func (r *resolver) method(rm decl.Method, class *scope, parent model.Location) (model.Method, error) {
	r.member = rm.Name
	if strings.TrimSpace(rm.Name) == "" {
		r.member = ""
		return model.Method{}, r.malformed("method without a name")
	}

	id := r.arena.NewScope(model.ScopeMethod, rm.Name)
	env, err := r.declare(id, decl.ScopeMethod, rm.TypeParameters, class)
	if err != nil {
		return model.Method{}, err
	}

	m := model.Method{
		Name:       rm.Name,
		Scope:      id,
		TypeParams: env.ids,
		Async:      rm.Suspend,
		Location:   toLocation(rm.Location, parent),
	}

	varargs := 0
	names := make(map[string]bool)
	for _, rp := range rm.Parameters {
		if strings.TrimSpace(rp.Name) == "" {
			return model.Method{}, r.malformed("parameter without a name")
		}
		if names[rp.Name] {
			return model.Method{}, r.malformed("duplicate parameter %q", rp.Name)
		}
		names[rp.Name] = true

		t, err := r.resolve(rp.Type, env)
		if err != nil {
			return model.Method{}, err
		}
		if rp.Vararg {
			varargs++
			if varargs > 1 {
				return model.Method{}, r.malformed("more than one vararg parameter")
			}
			t = model.Vararg{Elem: t}
		}
		m.Params = append(m.Params, model.Param{Name: rp.Name, Type: t, Vararg: rp.Vararg})
	}

	m.Return = model.Unit()
	if rm.Returns != nil {
		if m.Return, err = r.resolve(*rm.Returns, env); err != nil {
			return model.Method{}, err
		}
	}
	return m, nil
}

// declare allocates the parameters of one list in scope id, then resolves
// their bounds. Bounds are resolved after every name is declared, so a
// bound may reference a later parameter of the same list.
func (r *resolver) declare(id model.ScopeID, kind string, params []decl.TypeParameter, parent *scope) (*scope, error) {
	s := &scope{kind: kind, names: make(map[string]model.ParamID), parent: parent}
	for i, tp := range params {
		if strings.TrimSpace(tp.Name) == "" {
			return nil, r.malformed("type parameter %d without a name", i)
		}
		if _, dup := s.names[tp.Name]; dup {
			return nil, r.malformed("duplicate type parameter %q", tp.Name)
		}
		variance, err := r.variance(tp)
		if err != nil {
			return nil, err
		}
		pid := r.arena.Declare(id, tp.Name, i, variance)
		s.ids = append(s.ids, pid)
		s.names[tp.Name] = pid
	}

	for i, tp := range params {
		bounds := make([]model.Type, 0, len(tp.Bounds))
		for _, b := range tp.Bounds {
			t, err := r.resolve(b, s)
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, t)
		}
		r.arena.SetBounds(s.ids[i], bounds)
	}
	return s, nil
}

func (r *resolver) variance(tp decl.TypeParameter) (model.Variance, error) {
	switch strings.ToLower(tp.Variance) {
	case "", "invariant":
		return model.Invariant, nil
	case "out", "covariant":
		return model.Covariant, nil
	case "in", "contravariant":
		return model.Contravariant, nil
	}
	return model.Invariant, r.malformed("type parameter %q: unknown variance %q", tp.Name, tp.Variance)
}

// checkUniqueMembers rejects properties that collide with each other.
// Methods may be overloaded.
func (r *resolver) checkUniqueMembers(raw decl.Interface) error {
	seen := make(map[string]bool)
	for _, p := range raw.Properties {
		if seen[p.Name] {
			r.member = p.Name
			return r.malformed("duplicate property %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// resolve converts ref to a model type in env.
func (r *resolver) resolve(ref decl.TypeRef, env *scope) (model.Type, error) {
	t, err := r.resolveShape(ref, env)
	if err != nil {
		return nil, err
	}
	if ref.Nullable {
		if _, ok := t.(model.Nullable); !ok {
			t = model.Nullable{Inner: t}
		}
	}
	return t, nil
}

func (r *resolver) resolveShape(ref decl.TypeRef, env *scope) (model.Type, error) {
	switch {
	case ref.Star:
		return model.Star{}, nil
	case ref.Function != nil:
		return r.function(*ref.Function, env)
	case ref.Param != "":
		return r.explicitParam(ref, env)
	case ref.Name == "":
		return nil, r.malformed("empty type reference")
	}

	args, err := r.resolveAll(ref.Args, env)
	if err != nil {
		return nil, err
	}

	name := ref.Name
	if !strings.Contains(name, ".") {
		if id, ok := env.lookup(name); ok {
			return model.ParamRef{ID: id, Args: args}, nil
		}
	}
	name = unqualify(name)

	if c, ok := model.Containers[name]; ok {
		if len(args) != 1 {
			return nil, r.malformed("%s takes one type argument, got %d", name, len(args))
		}
		return model.Collection{Container: c, Elem: args[0]}, nil
	}
	if name == "Map" || name == "MutableMap" {
		if len(args) != 2 {
			return nil, r.malformed("%s takes two type arguments, got %d", name, len(args))
		}
		return model.Map{Mutable: name == "MutableMap", Key: args[0], Value: args[1]}, nil
	}
	if len(args) == 0 && r.types != nil {
		if kind, ok := r.types.PrimitiveKind(name); ok {
			return model.Primitive{Kind: kind, Name: name}, nil
		}
	}
	if placeholderName.MatchString(name) || r.foreign(name) {
		return nil, r.unknownParam(name, env)
	}
	return model.Domain{Name: name, Args: args}, nil
}

func (r *resolver) resolveAll(refs []decl.TypeRef, env *scope) ([]model.Type, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]model.Type, len(refs))
	for i, ref := range refs {
		t, err := r.resolve(ref, env)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (r *resolver) function(fn decl.FunctionRef, env *scope) (model.Type, error) {
	params, err := r.resolveAll(fn.Params, env)
	if err != nil {
		return nil, err
	}
	result := model.Unit()
	if fn.Result.Name != "" || fn.Result.Param != "" || fn.Result.Function != nil || fn.Result.Star {
		if result, err = r.resolve(fn.Result, env); err != nil {
			return nil, err
		}
	}
	return model.Function{Params: params, Result: result, Async: fn.Suspend}, nil
}

// explicitParam resolves a structured {param, scope, index} reference.
func (r *resolver) explicitParam(ref decl.TypeRef, env *scope) (model.Type, error) {
	args, err := r.resolveAll(ref.Args, env)
	if err != nil {
		return nil, err
	}

	target := env
	if ref.Scope != "" {
		if ref.Scope != decl.ScopeClass && ref.Scope != decl.ScopeMethod {
			return nil, r.malformed("reference to %q: unknown scope %q", ref.Param, ref.Scope)
		}
		if target = env.find(ref.Scope); target == nil {
			return nil, r.malformed("reference to %q: no %s scope here", ref.Param, ref.Scope)
		}
	}

	if ref.Index != nil {
		idx := *ref.Index
		if idx < 0 || idx >= len(target.ids) {
			return nil, r.malformed("reference to %q: index %d out of range for %s scope with %d parameters",
				ref.Param, idx, target.kind, len(target.ids))
		}
		id := target.ids[idx]
		if got := r.arena.Name(id); got != ref.Param {
			return nil, errors.WithHintf(
				r.malformed("reference to %q: %s parameter %d is %q", ref.Param, target.kind, idx, got),
				"did you mean %q?", got)
		}
		return model.ParamRef{ID: id, Args: args}, nil
	}

	var (
		id model.ParamID
		ok bool
	)
	if ref.Scope != "" {
		id, ok = target.names[ref.Param]
	} else {
		id, ok = target.lookup(ref.Param)
	}
	if !ok {
		return nil, r.unknownParam(ref.Param, target)
	}
	return model.ParamRef{ID: id, Args: args}, nil
}

// foreign reports whether name is a type parameter of some method other
// than the one being resolved. Properties own no type parameters.
func (r *resolver) foreign(name string) bool {
	owners := r.owners[name]
	return len(owners) > 0 && (r.property || !contains(owners, r.member))
}

func (r *resolver) unknownParam(name string, env *scope) error {
	var err error
	if r.foreign(name) {
		err = r.malformed("type parameter %q is declared on method %s, not here", name, r.owners[name][0])
	} else {
		err = r.malformed("unknown type parameter %q", name)
	}
	if s := suggest(name, env.visible()); s != "" {
		err = errors.WithHintf(err, "did you mean %q?", s)
	}
	return err
}

func (r *resolver) malformed(format string, args ...interface{}) error {
	subject := r.iface
	if r.member != "" {
		subject += "." + r.member
	}
	return errors.WithMember(errors.WithMessage(errors.Malformed(format, args...), subject), r.member)
}

// suggest returns the candidate most similar to name, or "" when none is
// close enough.
func suggest(name string, candidates []string) string {
	best, bestScore := "", float32(minSimilarity)
	for _, c := range candidates {
		score, err := edlib.StringsSimilarity(name, c, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func unqualify(name string) string {
	for _, p := range stdlibPrefixes {
		if rest := strings.TrimPrefix(name, p); rest != name && !strings.Contains(rest, ".") {
			return rest
		}
	}
	return name
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toLocation(l decl.Location, parent model.Location) model.Location {
	loc := model.Location{File: l.File, Line: l.Line, Column: l.Column}
	if loc.File == "" {
		loc.File = parent.File
	}
	return loc
}
