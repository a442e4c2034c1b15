// Package generator emits the Kotlin sources of a fake: the implementation
// class, its factory function and its configuration DSL.
package generator

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/cespare/xxhash/v2"

	"faktgen/internal/classifier"
	"faktgen/internal/defaults"
	"faktgen/internal/diag"
	"faktgen/internal/edgecase"
	"faktgen/internal/errors"
	"faktgen/internal/model"
	"faktgen/internal/substitution"
)

//go:embed templates/*.kt.tmpl
var templateFS embed.FS

// Kind identifies one of the three generated sources.
type Kind string

const (
	KindImplementation Kind = "implementation"
	KindFactory        Kind = "factory"
	KindConfig         Kind = "config"
)

// Artifact is one generated source file.
type Artifact struct {
	Kind     Kind
	Path     string // slash-separated, relative to the output root
	Content  []byte
	Checksum uint64 // xxhash64 of Content
}

// Sum returns the checksum as 16 hex digits.
func (a Artifact) Sum() string {
	return fmt.Sprintf("%016x", a.Checksum)
}

// Artifacts are the generated sources of one interface.
type Artifacts struct {
	Interface      string
	Implementation Artifact
	Factory        Artifact
	Config         Artifact

	// Notes are Info diagnostics for members whose default fails at run
	// time until configured.
	Notes []diag.Diagnostic
}

// All returns the artifacts in a fixed order.
func (a *Artifacts) All() []Artifact {
	return []Artifact{a.Implementation, a.Factory, a.Config}
}

// Options configures a Generator.
type Options struct {
	// Header is prepended to every file. Plain text is turned into line
	// comments.
	Header string
}

// Generator renders fakes from planned interface models.
type Generator struct {
	header   string
	template *template.Template
}

// New creates a new Generator.
func New(opts Options) (*Generator, error) {
	tmpl, err := template.New("faktgen").
		Funcs(templateFuncs()).
		ParseFS(templateFS, "templates/*.kt.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "loading templates")
	}
	return &Generator{
		header:   formatHeader(opts.Header),
		template: tmpl,
	}, nil
}

// Input is everything the emitter needs for one interface.
type Input struct {
	Model          *model.Interface
	Classification classifier.Classification
	Plan           *substitution.Plan
}

// TemplateData represents data passed to templates.
type TemplateData struct {
	Header  string
	Package string

	Interface string // source interface name
	Impl      string // FakeXImpl
	Config    string // FakeXConfig
	Factory   string // fakeX

	ClassParams   string // declared on the implementation, with variance
	ConfigParams  string // declared on the DSL class, invariant
	FactoryParams string // declared on the factory, reified when Inline
	TypeArgs      string // `<T, V>` or empty
	Where         []string
	Inline        bool

	Slots     []Slot
	Overrides []Override
}

// Slot is one behavior slot with its configure function and DSL setter.
type Slot struct {
	Name    string // xBehavior
	Type    string // slot function type
	Default string // default lambda

	Configure     string // configureX
	ConfigureType string // exact function type, with @UnsafeVariance
	Cast          bool   // the configured behavior is cast to Type

	Setter     string // DSL function name
	SetterType string // exact function type

	// TypeParams and TypeWhere redeclare the method-level parameters on
	// the configure function and the DSL setter.
	TypeParams string
	TypeWhere  []string
}

// Override is one overriding member of the implementation.
type Override struct {
	Property bool
	Mutable  bool
	Suppress bool
	Async    bool

	Name       string
	TypeParams string
	Params     []string
	Return     string
	Where      []string
	Call       string
	SetterCall string
}

// Generate renders the three artifacts of in. The result only depends on
// in, so rendering an unchanged model twice yields identical bytes.
func (g *Generator) Generate(in Input) (*Artifacts, error) {
	if in.Model == nil || in.Plan == nil {
		return nil, errors.AssertionFailedf("generator: missing model or plan")
	}
	if !in.Classification.Supported() && in.Classification.Reason != classifier.ReasonRecursiveBound {
		return nil, errors.Unsupported(in.Classification.Reason)
	}

	b := newBuilder(in)
	data, err := b.build(g.header)
	if err != nil {
		return nil, err
	}

	out := &Artifacts{Interface: in.Model.Name, Notes: b.notes}
	dir := strings.ReplaceAll(in.Model.Package, ".", "/")
	files := []struct {
		kind Kind
		tmpl string
		name string
		dst  *Artifact
	}{
		{KindImplementation, "impl.kt.tmpl", data.Impl, &out.Implementation},
		{KindFactory, "factory.kt.tmpl", "Fake" + in.Model.Name + "Factory", &out.Factory},
		{KindConfig, "config.kt.tmpl", data.Config, &out.Config},
	}
	for _, f := range files {
		var buf bytes.Buffer
		if err := g.template.ExecuteTemplate(&buf, f.tmpl, data); err != nil {
			return nil, errors.Wrapf(err, "executing template for %s", in.Model.Name)
		}
		content := buf.Bytes()
		*f.dst = Artifact{
			Kind:     f.kind,
			Path:     path.Join(dir, f.name+".kt"),
			Content:  content,
			Checksum: xxhash.Sum64(content),
		}
	}
	return out, nil
}

// builder turns a plan into template data.
type builder struct {
	in     Input
	arena  *model.Arena
	plain  model.Printer // override signatures and the DSL
	unsafe model.Printer // configure functions
	slot   model.Printer // slot types
	keys   map[string]int
	notes  []diag.Diagnostic
}

func newBuilder(in Input) *builder {
	arena := in.Plan.Arena
	unsafe := make(map[model.ParamID]bool)
	for _, id := range in.Plan.ClassParams {
		if arena.Param(id).Variance != model.Invariant {
			unsafe[id] = true
		}
	}
	return &builder{
		in:     in,
		arena:  arena,
		plain:  model.Printer{Arena: arena},
		unsafe: model.Printer{Arena: arena, UnsafeVariance: unsafe},
		slot:   model.Printer{Arena: arena, EraseStars: true},
		keys:   make(map[string]int),
	}
}

func (b *builder) build(header string) (*TemplateData, error) {
	m := b.in.Model
	class := b.in.Plan.ClassParams

	withVariance := edgecase.RenderConstraints(b.plain, class, edgecase.Options{Variance: true})
	invariant := edgecase.RenderConstraints(b.plain, class, edgecase.Options{})
	reified := b.in.Classification.Base.Reified()
	factory := edgecase.RenderConstraints(b.plain, class, edgecase.Options{Reified: reified})

	args := make([]string, len(class))
	for i, id := range class {
		args[i] = b.arena.Name(id)
	}

	data := &TemplateData{
		Header:        header,
		Package:       m.Package,
		Interface:     m.Name,
		Impl:          "Fake" + m.Name + "Impl",
		Config:        "Fake" + m.Name + "Config",
		Factory:       "fake" + upperFirst(m.Name),
		ClassParams:   typeParamList(withVariance.Params),
		ConfigParams:  typeParamList(invariant.Params),
		FactoryParams: typeParamList(factory.Params),
		TypeArgs:      typeParamList(args),
		Where:         withVariance.Where,
		Inline:        reified,
	}

	overloads := make(map[string]int)
	for _, meth := range m.Methods {
		overloads[meth.Name]++
	}

	for _, p := range m.Properties {
		b.property(data, p)
	}
	if len(b.in.Plan.Methods) != len(m.Methods) {
		return nil, errors.CountMismatch("plan has %d methods, model has %d", len(b.in.Plan.Methods), len(m.Methods))
	}
	for i, meth := range m.Methods {
		key := meth.Name
		if overloads[meth.Name] > 1 {
			key += b.overloadSuffix(b.in.Plan.Methods[i].Params)
		}
		b.method(data, b.in.Plan.Methods[i], b.unique(key))
	}
	return data, nil
}

// unique returns key, or key with a numeric suffix when a member already
// claimed it.
func (b *builder) unique(key string) string {
	n := b.keys[key]
	b.keys[key] = n + 1
	if n == 0 {
		return key
	}
	return b.unique(fmt.Sprintf("%s%d", key, n+1))
}

// overloadSuffix names an overload after its parameter types, so
// save(Int) and save(String) become saveInt and saveString.
func (b *builder) overloadSuffix(params []model.Param) string {
	var sb strings.Builder
	for _, p := range params {
		if p.Vararg {
			sb.WriteString("Vararg")
			if v, ok := p.Type.(model.Vararg); ok {
				sb.WriteString(pascalCase(b.plain.Type(v.Elem)))
			}
		} else {
			sb.WriteString(pascalCase(b.plain.Type(p.Type)))
		}
		if _, ok := p.Type.(model.Nullable); ok {
			sb.WriteString("Nullable")
		}
	}
	if sb.Len() == 0 {
		return "NoArgs"
	}
	return sb.String()
}

func (b *builder) method(data *TemplateData, mp substitution.MethodPlan, key string) {
	sig := edgecase.MethodSignature(b.arena, mp.Params, mp.Return, mp.Async)
	names := make([]string, len(mp.Params))
	sigParams := make([]string, len(mp.Params))
	for i, p := range mp.Params {
		names[i] = ident(p.Name)
		if v, ok := p.Type.(model.Vararg); ok {
			sigParams[i] = "vararg " + names[i] + ": " + b.plain.Type(v.Elem)
		} else {
			sigParams[i] = names[i] + ": " + b.plain.Type(p.Type)
		}
	}

	expr := defaults.Synthesize(mp.Return, defaults.Site{Siblings: sig.Exact.Params, Position: model.Covariant})
	b.note(mp.Name, expr)

	tps := edgecase.RenderConstraints(b.plain, mp.TypeParams, edgecase.Options{})
	slot := b.newSlot(key, sig, defaults.Lambda(expr, mp.Name, names))
	slot.TypeParams = typeParamList(tps.Params)
	slot.TypeWhere = tps.Where
	data.Slots = append(data.Slots, slot)

	data.Overrides = append(data.Overrides, Override{
		Suppress:   slot.Cast,
		Async:      mp.Async,
		Name:       ident(mp.Name),
		TypeParams: slot.TypeParams,
		Params:     sigParams,
		Return:     b.plain.Type(mp.Return),
		Where:      tps.Where,
		Call:       b.call(slot, sig, names),
	})
}

func (b *builder) property(data *TemplateData, p model.Property) {
	getter := edgecase.Signature{Exact: model.Function{Result: p.Type}}
	getter.Slot = getter.Exact
	expr := defaults.Synthesize(p.Type, defaults.Site{Position: model.Covariant})
	b.note(p.Name, expr)

	get := b.newSlot(b.unique(p.Name), getter, defaults.Lambda(expr, p.Name, nil))
	data.Slots = append(data.Slots, get)

	ov := Override{
		Property: true,
		Mutable:  p.Mutable,
		Suppress: get.Cast,
		Name:     ident(p.Name),
		Return:   b.plain.Type(p.Type),
		Call:     b.call(get, getter, nil),
	}

	if p.Mutable {
		setter := edgecase.Signature{Exact: model.Function{Params: []model.Type{p.Type}, Result: model.Unit()}}
		setter.Slot = setter.Exact
		set := b.newSlot(b.unique("set"+upperFirst(p.Name)), setter,
			defaults.Lambda(defaults.Synthesize(model.Unit(), defaults.Site{}), "set"+upperFirst(p.Name), []string{"value"}))
		data.Slots = append(data.Slots, set)
		ov.Suppress = ov.Suppress || set.Cast
		ov.SetterCall = b.call(set, setter, []string{"value"})
	}
	data.Overrides = append(data.Overrides, ov)
}

func (b *builder) newSlot(key string, sig edgecase.Signature, def string) Slot {
	slotType := b.slot.Type(sig.Slot)
	exact := b.plain.Type(sig.Exact)
	return Slot{
		Name:          key + "Behavior",
		Type:          slotType,
		Default:       def,
		Configure:     "configure" + upperFirst(key),
		ConfigureType: b.unsafe.Type(sig.Exact),
		Cast:          slotType != exact,
		Setter:        key,
		SetterType:    exact,
	}
}

// call renders the delegation from an override to its slot. A slot whose
// type differs from the override signature is cast back to the exact
// function type first.
func (b *builder) call(slot Slot, sig edgecase.Signature, args []string) string {
	callee := slot.Name
	if slot.Cast {
		callee = "(" + slot.Name + " as " + b.plain.Type(sig.Exact) + ")"
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

func (b *builder) note(member string, expr defaults.Expr) {
	err := defaults.Unresolved(expr, member)
	if err == nil {
		return
	}
	b.notes = append(b.notes, diag.Diagnostic{
		Severity:  diag.Info,
		Interface: b.in.Model.Name,
		Member:    member,
		Reason:    err.Error() + "; the fake fails until it is configured",
		Location:  b.in.Model.Location,
	})
}
