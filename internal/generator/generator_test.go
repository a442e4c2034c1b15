package generator

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faktgen/internal/analyzer"
	"faktgen/internal/classifier"
	"faktgen/internal/config"
	"faktgen/internal/decl"
	"faktgen/internal/diag"
	"faktgen/internal/errors"
	"faktgen/internal/substitution"
)

func ty(s string) decl.TypeRef { return decl.MustParseType(s) }

func ret(s string) *decl.TypeRef {
	t := ty(s)
	return &t
}

func generate(t *testing.T, raw decl.Interface, opts Options) *Artifacts {
	t.Helper()
	m, err := analyzer.New(config.New()).Analyze(raw, "com.example")
	require.NoError(t, err)
	plan, err := substitution.NewPlan(m)
	require.NoError(t, err)
	g, err := New(opts)
	require.NoError(t, err)
	out, err := g.Generate(Input{Model: m, Classification: classifier.Classify(m), Plan: plan})
	require.NoError(t, err)
	return out
}

func impl(a *Artifacts) string    { return string(a.Implementation.Content) }
func factory(a *Artifacts) string { return string(a.Factory.Content) }
func dsl(a *Artifacts) string     { return string(a.Config.Content) }

var repository = decl.Interface{
	Name:           "Repository",
	TypeParameters: []decl.TypeParameter{{Name: "T"}},
	Methods: []decl.Method{{
		Name:       "save",
		Parameters: []decl.Parameter{{Name: "item", Type: ty("T")}},
		Returns:    ret("T"),
	}},
}

func TestGenerateClassLevel(t *testing.T) {
	out := generate(t, repository, Options{})

	assert.Equal(t, `// Generated by faktgen. Do not edit.

package com.example

/**
 * Fake [Repository] whose behaviors are configured through [FakeRepositoryConfig].
 */
class FakeRepositoryImpl<T> : Repository<T> {
    private var saveBehavior: (T) -> T = { item -> item }

    override fun save(item: T): T = saveBehavior(item)

    internal fun configureSave(behavior: (T) -> T) {
        saveBehavior = behavior
    }
}
`, impl(out))

	assert.Equal(t, `// Generated by faktgen. Do not edit.

package com.example

/**
 * Creates a [FakeRepositoryImpl] and applies [configure] to its [FakeRepositoryConfig].
 */
inline fun <reified T> fakeRepository(configure: FakeRepositoryConfig<T>.() -> Unit = {}): FakeRepositoryImpl<T> =
    FakeRepositoryImpl<T>().apply { FakeRepositoryConfig<T>(this).configure() }
`, factory(out))

	assert.Equal(t, `// Generated by faktgen. Do not edit.

package com.example

/**
 * Configuration DSL for [FakeRepositoryImpl].
 */
class FakeRepositoryConfig<T>(private val fake: FakeRepositoryImpl<T>) {
    fun save(behavior: (T) -> T) {
        fake.configureSave(behavior)
    }
}
`, dsl(out))

	assert.Equal(t, "com/example/FakeRepositoryImpl.kt", out.Implementation.Path)
	assert.Equal(t, "com/example/FakeRepositoryFactory.kt", out.Factory.Path)
	assert.Equal(t, "com/example/FakeRepositoryConfig.kt", out.Config.Path)
	for _, a := range out.All() {
		assert.Equal(t, xxhash.Sum64(a.Content), a.Checksum)
		assert.Len(t, a.Sum(), 16)
	}
	assert.Empty(t, out.Notes)
}

func TestGenerateMethodLevel(t *testing.T) {
	out := generate(t, decl.Interface{
		Name: "Service",
		Methods: []decl.Method{{
			Name:           "transform",
			TypeParameters: []decl.TypeParameter{{Name: "R"}},
			Parameters:     []decl.Parameter{{Name: "input", Type: ty("String")}},
			Returns:        ret("R"),
		}},
	}, Options{})

	src := impl(out)
	assert.Contains(t, src, "class FakeServiceImpl : Service {")
	assert.Contains(t, src,
		`private var transformBehavior: (String) -> Any? = { _ -> error("transform has a generic result and must be configured") }`)
	assert.Contains(t, src, `    @Suppress("UNCHECKED_CAST", "USELESS_CAST")
    override fun <R> transform(input: String): R = (transformBehavior as (String) -> R)(input)`)
	assert.Contains(t, src, `    internal fun <R> configureTransform(behavior: (String) -> R) {
        transformBehavior = behavior as (String) -> Any?
    }`)

	assert.Contains(t, dsl(out), "fun <R> transform(behavior: (String) -> R) {")
	assert.Contains(t, factory(out),
		"\nfun fakeService(configure: FakeServiceConfig.() -> Unit = {}): FakeServiceImpl =\n    FakeServiceImpl().apply { FakeServiceConfig(this).configure() }\n")
	assert.NotContains(t, factory(out), "inline")

	require.Len(t, out.Notes, 1)
	assert.Equal(t, diag.Info, out.Notes[0].Severity)
	assert.Equal(t, "transform", out.Notes[0].Member)
}

func TestGenerateNullableWins(t *testing.T) {
	out := generate(t, decl.Interface{
		Name:           "Cache",
		TypeParameters: []decl.TypeParameter{{Name: "T"}},
		Methods: []decl.Method{{
			Name:       "getGroup",
			Parameters: []decl.Parameter{{Name: "name", Type: ty("String")}},
			Returns:    ret("List<T>?"),
		}},
	}, Options{})

	assert.Contains(t, impl(out), "private var getGroupBehavior: (String) -> List<T>? = { _ -> null }")
	assert.Contains(t, impl(out), "internal fun configureGetGroup(behavior: (String) -> List<T>?)")
}

func TestGenerateVararg(t *testing.T) {
	out := generate(t, decl.Interface{
		Name: "Handler",
		Methods: []decl.Method{{
			Name:       "process",
			Parameters: []decl.Parameter{{Name: "items", Type: ty("String"), Vararg: true}},
			Returns:    ret("List<String>"),
		}},
	}, Options{})

	src := impl(out)
	assert.Contains(t, src, "override fun process(vararg items: String): List<String> = processBehavior(items)")
	assert.Contains(t, src, "private var processBehavior: (Array<out String>) -> List<String> = { _ -> emptyList() }")
	assert.Contains(t, dsl(out), "fun process(behavior: (Array<out String>) -> List<String>)")
}

func TestGenerateRecursiveBound(t *testing.T) {
	out := generate(t, decl.Interface{
		Name:           "Node",
		TypeParameters: []decl.TypeParameter{{Name: "T", Bounds: []decl.TypeRef{ty("Node<T>")}}},
		Methods:        []decl.Method{{Name: "children", Returns: ret("List<T>")}},
	}, Options{})

	assert.Contains(t, impl(out), "class FakeNodeImpl<T : Node<T>> : Node<T> {")
	assert.Contains(t, impl(out), "private var childrenBehavior: () -> List<T> = { emptyList() }")
	assert.Contains(t, factory(out), "inline fun <reified T : Node<T>> fakeNode(")
}

func TestGeneratePreservesStarProjections(t *testing.T) {
	out := generate(t, decl.Interface{
		Name: "Inspector",
		Methods: []decl.Method{{
			Name:       "inspect",
			Parameters: []decl.Parameter{{Name: "items", Type: ty("List<*>")}},
			Returns:    ret("Map<String, *>"),
		}},
	}, Options{})

	src := impl(out)
	assert.Contains(t, src, "override fun inspect(items: List<*>): Map<String, *> = (inspectBehavior as (List<*>) -> Map<String, *>)(items)")
	assert.Contains(t, src, "private var inspectBehavior: (List<Any?>) -> Map<String, Any?> = { _ -> emptyMap() }")
	assert.Contains(t, dsl(out), "fun inspect(behavior: (List<*>) -> Map<String, *>)")
}

func TestGenerateMixedGenerics(t *testing.T) {
	out := generate(t, decl.Interface{
		Name:           "Mapper",
		TypeParameters: []decl.TypeParameter{{Name: "T"}},
		Methods: []decl.Method{{
			Name:           "map",
			TypeParameters: []decl.TypeParameter{{Name: "R", Bounds: []decl.TypeRef{ty("Any")}}},
			Parameters: []decl.Parameter{
				{Name: "value", Type: ty("T")},
				{Name: "fn", Type: ty("(T) -> R")},
			},
			Returns: ret("R"),
			Suspend: true,
		}},
	}, Options{})

	src := impl(out)
	assert.Contains(t, src, "private var mapBehavior: suspend (T, (T) -> Any) -> Any = ")
	assert.Contains(t, src, "override suspend fun <R : Any> map(value: T, fn: (T) -> R): R = (mapBehavior as suspend (T, (T) -> R) -> R)(value, fn)")
	assert.Contains(t, src, "internal fun <R : Any> configureMap(behavior: suspend (T, (T) -> R) -> R)")
	assert.Contains(t, dsl(out), "fun <R : Any> map(behavior: suspend (T, (T) -> R) -> R)")
	assert.Contains(t, factory(out), "inline fun <reified T> fakeMapper(")
}

func TestGenerateVarianceAndWhere(t *testing.T) {
	out := generate(t, decl.Interface{
		Name: "Source",
		TypeParameters: []decl.TypeParameter{
			{Name: "T", Variance: "out"},
			{Name: "K", Bounds: []decl.TypeRef{ty("Comparable<K>"), ty("CharSequence")}},
		},
		Methods: []decl.Method{{Name: "next", Parameters: []decl.Parameter{{Name: "key", Type: ty("K")}}, Returns: ret("T")}},
	}, Options{})

	src := impl(out)
	assert.Contains(t, src, "class FakeSourceImpl<out T, K> : Source<T, K> where K : Comparable<K>, K : CharSequence {")
	assert.Contains(t, src, "override fun next(key: K): T = nextBehavior(key)")
	assert.Contains(t, src, "internal fun configureNext(behavior: (K) -> @UnsafeVariance T)")
	assert.Contains(t, dsl(out), "class FakeSourceConfig<T, K>(private val fake: FakeSourceImpl<T, K>) where K : Comparable<K>, K : CharSequence {")
	assert.Contains(t, dsl(out), "fun next(behavior: (K) -> T)")
	assert.Contains(t, factory(out),
		"inline fun <reified T, reified K> fakeSource(configure: FakeSourceConfig<T, K>.() -> Unit = {}): FakeSourceImpl<T, K> where K : Comparable<K>, K : CharSequence =")
}

func TestGenerateOverloadsAndProperties(t *testing.T) {
	out := generate(t, decl.Interface{
		Name: "Settings",
		Properties: []decl.Property{
			{Name: "name", Type: ty("String"), Mutable: true},
			{Name: "tags", Type: ty("Set<String>")},
		},
		Methods: []decl.Method{
			{Name: "save", Parameters: []decl.Parameter{{Name: "value", Type: ty("Int")}}},
			{Name: "save", Parameters: []decl.Parameter{{Name: "value", Type: ty("String")}}},
		},
	}, Options{})

	src := impl(out)
	assert.Contains(t, src, `    private var nameBehavior: () -> String = { "" }
    private var setNameBehavior: (String) -> Unit = { _ -> }
    private var tagsBehavior: () -> Set<String> = { emptySet() }
    private var saveIntBehavior: (Int) -> Unit = { _ -> }
    private var saveStringBehavior: (String) -> Unit = { _ -> }`)
	assert.Contains(t, src, `    override var name: String
        get() = nameBehavior()
        set(value) {
            setNameBehavior(value)
        }`)
	assert.Contains(t, src, `    override val tags: Set<String>
        get() = tagsBehavior()`)
	assert.Contains(t, src, "override fun save(value: Int): Unit = saveIntBehavior(value)")
	assert.Contains(t, src, "override fun save(value: String): Unit = saveStringBehavior(value)")

	config := dsl(out)
	for _, setter := range []string{"fun name(", "fun setName(", "fun tags(", "fun saveInt(", "fun saveString("} {
		assert.Contains(t, config, setter)
	}
}

func TestGenerateHeader(t *testing.T) {
	out := generate(t, repository, Options{Header: "Copyright 2026 Example Corp\n\nLicensed under MIT"})
	for _, a := range out.All() {
		assert.Contains(t, string(a.Content), "// Copyright 2026 Example Corp\n//\n// Licensed under MIT\n// Generated by faktgen. Do not edit.\n")
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	first := generate(t, repository, Options{})
	second := generate(t, repository, Options{})
	for i := range first.All() {
		assert.Equal(t, first.All()[i].Content, second.All()[i].Content)
		assert.Equal(t, first.All()[i].Checksum, second.All()[i].Checksum)
	}
}

func TestGenerateRejectsUnsupported(t *testing.T) {
	m, err := analyzer.New(config.New()).Analyze(decl.Interface{
		Name:           "Functor",
		TypeParameters: []decl.TypeParameter{{Name: "F"}},
		Methods:        []decl.Method{{Name: "pure", Returns: ret("F<Int>")}},
	}, "")
	require.NoError(t, err)
	plan, err := substitution.NewPlan(m)
	require.NoError(t, err)

	g, err := New(Options{})
	require.NoError(t, err)
	_, err = g.Generate(Input{Model: m, Classification: classifier.Classify(m), Plan: plan})
	assert.True(t, errors.Is(err, errors.ErrUnsupportedPattern))
}

func TestSplitWordsAndPascalCase(t *testing.T) {
	assert.Equal(t, []string{"Map", "String", "List", "Int"}, splitWords("Map<String, List<Int>>?"))
	assert.Equal(t, "ListString", pascalCase("List<String>"))
	assert.Equal(t, "`in`", ident("in"))
	assert.Equal(t, "item", ident("item"))
}
