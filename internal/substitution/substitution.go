// Package substitution plans how type parameters flow from an interface
// into its generated fake.
//
// Class parameters are preserved as they are: the fake is generic over the
// same parameters. Every method-level parameter is replaced by a fresh
// parameter owned by the generated method, allocated in the plan's own
// arena so it never shares identity with a parameter of the source model.
package substitution

import (
	"fmt"

	"faktgen/internal/errors"
	"faktgen/internal/model"
)

// Plan is the substitution plan of one interface.
type Plan struct {
	// Arena is a clone of the model arena extended with fresh parameters.
	// Ids of the model are valid in it and keep their meaning.
	Arena *model.Arena

	// ClassParams are the preserved class parameters.
	ClassParams []model.ParamID

	// Methods holds one plan per model method, in model order.
	Methods []MethodPlan
}

// MethodPlan is the signature of one generated override.
type MethodPlan struct {
	Name  string
	Scope model.ScopeID

	// TypeParams are the fresh parameters in declaration order.
	TypeParams []model.ParamID

	// Remap maps each original method parameter to its fresh one. Its keys
	// are exactly the method's declared parameters.
	Remap map[model.ParamID]model.ParamID

	Params []model.Param
	Return model.Type
	Async  bool
}

// Fresh reports whether id is a parameter allocated by the plan.
func (mp MethodPlan) Fresh(id model.ParamID) bool {
	for _, p := range mp.TypeParams {
		if p == id {
			return true
		}
	}
	return false
}

// NewPlan builds the plan for m. A ParameterCountMismatch error means the
// model is inconsistent and is fatal for the run.
func NewPlan(m *model.Interface) (*Plan, error) {
	p := &Plan{
		Arena:       m.Arena.Clone(),
		ClassParams: append([]model.ParamID{}, m.ClassParams...),
	}

	classNames := make(map[string]model.ParamID, len(m.ClassParams))
	for _, id := range m.ClassParams {
		classNames[m.Arena.Name(id)] = id
	}

	for _, prop := range m.Properties {
		for _, id := range model.References(prop.Type) {
			if err := checkClassRef(m, id); err != nil {
				return nil, errors.Wrapf(err, "%s.%s", m.Name, prop.Name)
			}
		}
	}

	for _, meth := range m.Methods {
		mp, err := p.method(m, meth, classNames)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", m.Name, meth.Name)
		}
		p.Methods = append(p.Methods, mp)
	}
	return p, nil
}

func checkClassRef(m *model.Interface, id model.ParamID) error {
	if !m.Arena.Has(id) {
		return errors.CountMismatch("reference to unknown parameter id %d", id)
	}
	if m.Arena.Param(id).MethodLevel {
		return errors.CountMismatch("method-level parameter %s used outside its method", m.Arena.Name(id))
	}
	return nil
}

func (p *Plan) method(m *model.Interface, meth model.Method, classNames map[string]model.ParamID) (MethodPlan, error) {
	declared := make(map[model.ParamID]bool, len(meth.TypeParams))
	for _, id := range meth.TypeParams {
		if !m.Arena.Has(id) || !m.Arena.Param(id).MethodLevel {
			return MethodPlan{}, errors.CountMismatch("declared parameter id %d is not a method-level parameter", id)
		}
		declared[id] = true
	}

	// Every method-level parameter used by the signature must be declared
	// on the method itself.
	sig := signatureTypes(m, meth)
	usedClass := make(map[string]bool)
	for _, t := range sig {
		for _, id := range model.References(t) {
			if !m.Arena.Has(id) {
				return MethodPlan{}, errors.CountMismatch("reference to unknown parameter id %d", id)
			}
			tp := m.Arena.Param(id)
			if !tp.MethodLevel {
				usedClass[tp.Name] = true
				continue
			}
			if !declared[id] {
				return MethodPlan{}, errors.CountMismatch(
					"signature uses %d method-level parameters but %d are declared (undeclared %s)",
					countMethodLevel(m, sig), len(meth.TypeParams), tp.Name)
			}
		}
	}

	mp := MethodPlan{
		Name:  meth.Name,
		Scope: p.Arena.NewScope(model.ScopeGenerated, meth.Name),
		Remap: make(map[model.ParamID]model.ParamID, len(meth.TypeParams)),
		Async: meth.Async,
	}

	// Phase one allocates every fresh parameter, so phase two can rewrite
	// bounds that point at any parameter of the list regardless of order.
	taken := make(map[string]bool)
	for name := range classNames {
		if usedClass[name] {
			taken[name] = true
		}
	}
	for _, id := range meth.TypeParams {
		orig := m.Arena.Param(id)
		name := freshName(orig.Name, taken, classNames)
		taken[name] = true

		fresh := p.Arena.Declare(mp.Scope, name, orig.Index, orig.Variance)
		mp.TypeParams = append(mp.TypeParams, fresh)
		mp.Remap[id] = fresh
	}
	for _, id := range meth.TypeParams {
		bounds := m.Arena.Param(id).Bounds
		rewritten := make([]model.Type, len(bounds))
		for i, b := range bounds {
			rewritten[i] = model.Remap(b, mp.Remap)
		}
		p.Arena.SetBounds(mp.Remap[id], rewritten)
	}

	for _, param := range meth.Params {
		mp.Params = append(mp.Params, model.Param{
			Name:   param.Name,
			Type:   model.Remap(param.Type, mp.Remap),
			Vararg: param.Vararg,
		})
	}
	mp.Return = model.Remap(meth.Return, mp.Remap)
	return mp, nil
}

// freshName keeps name unless it is taken, which happens when the method
// also references a class parameter spelled the same way. The override
// then renames its own parameter, T becoming T1.
func freshName(name string, taken map[string]bool, classNames map[string]model.ParamID) string {
	if !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if _, isClass := classNames[candidate]; !taken[candidate] && !isClass {
			return candidate
		}
	}
}

func signatureTypes(m *model.Interface, meth model.Method) []model.Type {
	types := make([]model.Type, 0, len(meth.Params)+1)
	for _, p := range meth.Params {
		types = append(types, p.Type)
	}
	types = append(types, meth.Return)
	for _, id := range meth.TypeParams {
		if m.Arena.Has(id) {
			types = append(types, m.Arena.Param(id).Bounds...)
		}
	}
	return types
}

func countMethodLevel(m *model.Interface, sig []model.Type) int {
	seen := make(map[model.ParamID]bool)
	for _, t := range sig {
		for _, id := range model.References(t) {
			if m.Arena.Has(id) && m.Arena.Param(id).MethodLevel {
				seen[id] = true
			}
		}
	}
	return len(seen)
}
