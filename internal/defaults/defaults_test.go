package defaults

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"faktgen/internal/errors"
	"faktgen/internal/model"
)

var (
	str     = model.Primitive{Kind: model.KindText, Name: "String"}
	integer = model.Primitive{Kind: model.KindInt, Name: "Int"}
	tRef    = model.ParamRef{ID: 0}
	rRef    = model.ParamRef{ID: 1}
)

func list(elem model.Type) model.Type {
	return model.Collection{Container: model.ContainerList, Elem: elem}
}

func TestSynthesizeDecisionOrder(t *testing.T) {
	tests := []struct {
		name string
		typ  model.Type
		site Site
		want Expr
	}{
		{"nullable primitive", model.Nullable{Inner: integer}, Site{}, Null},
		{"nullable collection", model.Nullable{Inner: list(tRef)}, Site{}, Null},
		{"nullable map", model.Nullable{Inner: model.Map{Key: str, Value: tRef}}, Site{}, Null},
		{"nullable param with sibling", model.Nullable{Inner: tRef}, Site{Siblings: []model.Type{tRef}}, Null},
		{"param with one sibling", tRef, Site{Siblings: []model.Type{str, tRef}}, Identity{Index: 1}},
		{"param with two siblings", tRef, Site{Siblings: []model.Type{tRef, tRef}}, ErrorThrow{Reason: UnconfiguredGeneric}},
		{"param with nullable sibling", tRef, Site{Siblings: []model.Type{model.Nullable{Inner: tRef}}}, ErrorThrow{Reason: UnconfiguredGeneric}},
		{"param with other sibling", tRef, Site{Siblings: []model.Type{rRef}}, ErrorThrow{Reason: UnconfiguredGeneric}},
		{"param without siblings", rRef, Site{}, ErrorThrow{Reason: UnconfiguredGeneric}},
		{"list of param", list(tRef), Site{Siblings: []model.Type{tRef}}, ConstructorCall{Func: "emptyList"}},
		{"mutable set", model.Collection{Container: model.ContainerMutableSet, Elem: str}, Site{}, ConstructorCall{Func: "mutableSetOf"}},
		{"sequence", model.Collection{Container: model.ContainerSequence, Elem: str}, Site{}, ConstructorCall{Func: "emptySequence"}},
		{"array of string", model.Collection{Container: model.ContainerArray, Elem: str}, Site{}, ConstructorCall{Func: "emptyArray"}},
		{"array of param", model.Collection{Container: model.ContainerArray, Elem: tRef}, Site{}, ErrorThrow{Reason: NonReifiedArray}},
		{"map", model.Map{Key: str, Value: integer}, Site{}, ConstructorCall{Func: "emptyMap"}},
		{"mutable map", model.Map{Mutable: true, Key: str, Value: integer}, Site{}, ConstructorCall{Func: "mutableMapOf"}},
		{"int", integer, Site{}, Literal{Text: "0"}},
		{"long", model.Primitive{Kind: model.KindLong, Name: "Long"}, Site{}, Literal{Text: "0L"}},
		{"short", model.Primitive{Kind: model.KindShort, Name: "Short"}, Site{}, Literal{Text: "0.toShort()"}},
		{"float", model.Primitive{Kind: model.KindFloat, Name: "Float"}, Site{}, Literal{Text: "0.0f"}},
		{"double", model.Primitive{Kind: model.KindDouble, Name: "Double"}, Site{}, Literal{Text: "0.0"}},
		{"boolean", model.Primitive{Kind: model.KindBoolean, Name: "Boolean"}, Site{}, Literal{Text: "false"}},
		{"char", model.Primitive{Kind: model.KindChar, Name: "Char"}, Site{}, Literal{Text: `'\u0000'`}},
		{"string", str, Site{}, Literal{Text: `""`}},
		{"unit", model.Unit(), Site{}, Literal{Text: "Unit"}},
		{"vararg string", model.Vararg{Elem: str}, Site{}, ConstructorCall{Func: "emptyArray"}},
		{"vararg int", model.Vararg{Elem: integer}, Site{}, ConstructorCall{Func: "intArrayOf"}},
		{"star covariant", model.Star{}, Site{Position: model.Covariant}, Null},
		{"star invariant with bound", model.Star{}, Site{Bound: str}, Literal{Text: `""`}},
		{"star contravariant", model.Star{}, Site{Position: model.Contravariant}, ErrorThrow{Reason: BottomType}},
		{"domain", model.Domain{Name: "User"}, Site{}, ErrorThrow{Reason: Unconfigured}},
		{"function", model.Function{Result: str}, Site{}, ErrorThrow{Reason: Unconfigured}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Synthesize(tt.typ, tt.site))
		})
	}
}

func TestNullableCollectionsAreNeverEmptyConstructors(t *testing.T) {
	for _, c := range model.Containers {
		e := Synthesize(model.Nullable{Inner: model.Collection{Container: c, Elem: str}}, Site{})
		assert.Equal(t, Null, e, c)
	}
	for _, mutable := range []bool{false, true} {
		e := Synthesize(model.Nullable{Inner: model.Map{Mutable: mutable, Key: str, Value: str}}, Site{})
		assert.Equal(t, Null, e)
	}
}

func TestNestedGenericsOmitTypeArguments(t *testing.T) {
	nested := []model.Type{
		list(list(tRef)),
		model.Map{Key: str, Value: list(model.Map{Key: tRef, Value: rRef})},
		model.Collection{Container: model.ContainerSet, Elem: model.Nullable{Inner: list(str)}},
	}
	for _, typ := range nested {
		out := Render(Synthesize(typ, Site{}), "member", nil)
		assert.NotContains(t, out, "<")
		assert.Regexp(t, `^\w+\(\)$`, out)
	}
}

func TestSynthesizePanicsOnUnknownType(t *testing.T) {
	assert.Panics(t, func() { Synthesize(nil, Site{}) })
}

func TestLambda(t *testing.T) {
	tests := []struct {
		name   string
		expr   Expr
		params []string
		want   string
	}{
		{"identity", Identity{Index: 0}, []string{"item"}, "{ item -> item }"},
		{"identity second", Identity{Index: 1}, []string{"key", "value"}, "{ _, value -> value }"},
		{"no params", ConstructorCall{Func: "emptyList"}, nil, "{ emptyList() }"},
		{"literal with params", Null, []string{"id"}, "{ _ -> null }"},
		{"unit without params", Literal{Text: "Unit"}, nil, "{}"},
		{"unit with params", Literal{Text: "Unit"}, []string{"a", "b"}, "{ _, _ -> }"},
		{"error", ErrorThrow{Reason: UnconfiguredGeneric}, []string{"input"},
			`{ _ -> error("transform has a generic result and must be configured") }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lambda(tt.expr, "transform", tt.params))
		})
	}
}

func TestUnresolved(t *testing.T) {
	assert.NoError(t, Unresolved(Null, "find"))
	assert.NoError(t, Unresolved(Identity{}, "save"))

	err := Unresolved(ErrorThrow{Reason: Unconfigured}, "find")
	assert.True(t, errors.Is(err, errors.ErrUnresolvableDefault))
	assert.True(t, errors.IsRecoverable(err))
	assert.Contains(t, err.Error(), "find: no safe default")
}
