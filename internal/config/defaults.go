package config

import (
	"runtime"

	"github.com/spf13/viper"

	"faktgen/internal/model"
)

// DefaultOutput is the output directory used when none is configured.
const DefaultOutput = "build/generated/faktgen"

var primitiveKinds = []model.PrimitiveKind{
	model.KindInt, model.KindLong, model.KindShort, model.KindByte,
	model.KindFloat, model.KindDouble, model.KindBoolean, model.KindChar,
	model.KindText, model.KindUnit,
}

// DefaultTypeMappings returns the default Kotlin type to primitive kind
// mappings.
func DefaultTypeMappings() map[string]string {
	return map[string]string{
		// Numeric types
		"Int":    string(model.KindInt),
		"Long":   string(model.KindLong),
		"Short":  string(model.KindShort),
		"Byte":   string(model.KindByte),
		"Float":  string(model.KindFloat),
		"Double": string(model.KindDouble),

		// Other scalars
		"Boolean": string(model.KindBoolean),
		"Char":    string(model.KindChar),
		"Unit":    string(model.KindUnit),

		// Text types
		"String":       string(model.KindText),
		"CharSequence": string(model.KindText),
	}
}

// DefaultInputs returns the default declaration file patterns.
func DefaultInputs() []string {
	return []string{"faktgen/**/*.yaml", "faktgen/**/*.json", "faktgen/**/*.toml"}
}

// DefaultOptions returns default generation options.
func DefaultOptions() Options {
	return Options{
		RecursiveBounds: RecursiveFallback,
		Header:          "",
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("inputs", DefaultInputs())
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("workers", runtime.NumCPU())
	// A map[string]any default is flattened into per-key defaults, so a
	// config file adds to the mappings instead of replacing them.
	mappings := make(map[string]any)
	for name, kind := range DefaultTypeMappings() {
		mappings[name] = kind
	}
	v.SetDefault("type_mappings", mappings)
	v.SetDefault("options.include_types", []string{})
	v.SetDefault("options.exclude_types", []string{})
	v.SetDefault("options.recursive_bounds", RecursiveFallback)
	v.SetDefault("options.header", "")
	v.SetDefault("options.strict", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}
