package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faktgen/internal/errors"
	"faktgen/internal/model"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, RecursiveFallback, cfg.Options.RecursiveBounds)
	assert.Positive(t, cfg.Workers)
	require.NoError(t, cfg.Validate())

	kind, ok := cfg.PrimitiveKind("Int")
	require.True(t, ok)
	assert.Equal(t, model.KindInt, kind)

	kind, ok = cfg.PrimitiveKind("String")
	require.True(t, ok)
	assert.Equal(t, model.KindText, kind)

	_, ok = cfg.PrimitiveKind("Instant")
	assert.False(t, ok)
}

func TestLoadFileMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faktgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output: out/fakes
workers: 2
type_mappings:
  UByte: byte
options:
  exclude_types: ["Internal*"]
  recursive_bounds: skip
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "out/fakes", cfg.Output)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, RecursiveSkip, cfg.Options.RecursiveBounds)

	kind, ok := cfg.PrimitiveKind("UByte")
	require.True(t, ok)
	assert.Equal(t, model.KindByte, kind)

	// Defaults survive alongside the file's additions.
	_, ok = cfg.PrimitiveKind("Boolean")
	assert.True(t, ok)

	assert.False(t, cfg.ShouldIncludeType("InternalCache"))
	assert.True(t, cfg.ShouldIncludeType("Repository"))
}

func TestLoadFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faktgen.toml")
	require.NoError(t, os.WriteFile(path, []byte("output = \"gen\"\n[options]\nheader = \"// Copyright\"\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gen", cfg.Output)
	assert.Equal(t, "// Copyright", cfg.Options.Header)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "reading config file")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FAKTGEN_OUTPUT", "env/out")
	t.Setenv("FAKTGEN_OPTIONS_RECURSIVE_BOUNDS", "skip")

	dir := t.TempDir()
	path := filepath.Join(dir, "faktgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: file/out\n"), 0o644))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "env/out", cfg.Output)
	assert.Equal(t, RecursiveSkip, cfg.Options.RecursiveBounds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate   func(*Config)
		wantErr  string
		wantHint string
	}{
		{
			name:     "unknown policy",
			mutate:   func(c *Config) { c.Options.RecursiveBounds = "reject" },
			wantErr:  `unknown policy "reject"`,
			wantHint: `use "fallback" or "skip"`,
		},
		{
			name:     "typo in kind gets a suggestion",
			mutate:   func(c *Config) { c.TypeMappings["ubyte"] = "bytes" },
			wantErr:  `type_mappings.ubyte: unknown primitive kind "bytes"`,
			wantHint: `did you mean "byte"?`,
		},
		{
			name:    "unknown kind without close match",
			mutate:  func(c *Config) { c.TypeMappings["instant"] = "timestamp" },
			wantErr: `unknown primitive kind "timestamp"`,
		},
		{
			name:    "bad pattern",
			mutate:  func(c *Config) { c.Options.IncludeTypes = []string{"[Repo"} },
			wantErr: "invalid type pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.wantHint != "" {
				assert.Contains(t, errors.GetAllHints(err), tt.wantHint)
			} else {
				assert.Empty(t, errors.GetAllHints(err))
			}
		})
	}
}

func TestShouldIncludeType(t *testing.T) {
	cfg := New()
	assert.True(t, cfg.ShouldIncludeType("Anything"))

	cfg.Options.IncludeTypes = []string{"Repository", "Cache*"}
	cfg.Options.ExcludeTypes = []string{"CacheInternal"}

	assert.True(t, cfg.ShouldIncludeType("Repository"))
	assert.True(t, cfg.ShouldIncludeType("CacheStore"))
	assert.False(t, cfg.ShouldIncludeType("CacheInternal"))
	assert.False(t, cfg.ShouldIncludeType("Service"))
}
