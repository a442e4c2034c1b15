package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"faktgen/internal/config"
	"faktgen/internal/diag"
	"faktgen/internal/errors"
	"faktgen/internal/pipeline"
)

const declarations = `
package: com.example
interfaces:
  - name: Repository
    typeParameters:
      - name: T
    methods:
      - name: save
        parameters:
          - {name: item, type: T}
        returns: T
  - name: Functor
    typeParameters:
      - name: F
    methods:
      - name: pure
        returns: F<Int>
`

func setupProject(t *testing.T) (dir, configPath string) {
	t.Helper()
	pterm.DisableColor()
	dir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "decls", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decls", "nested", "repo.yaml"), []byte(declarations), 0o644))

	configPath = filepath.Join(dir, "faktgen.yaml")
	cfg := "inputs: ['" + filepath.ToSlash(filepath.Join(dir, "decls")) + "/**/*.yaml']\n" +
		"output: '" + filepath.ToSlash(filepath.Join(dir, "out")) + "'\n" +
		"workers: 2\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	return dir, configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateThenCheck(t *testing.T) {
	dir, configPath := setupProject(t)

	out, err := execute(t, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 file(s) written")
	assert.Contains(t, out, "higher-kinded-parameter")

	impl := filepath.Join(dir, "out", "com", "example", "FakeRepositoryImpl.kt")
	data, err := os.ReadFile(impl)
	require.NoError(t, err)
	assert.Contains(t, string(data), "class FakeRepositoryImpl<T> : Repository<T>")

	out, err = execute(t, "check", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 generated file(s) up to date")

	require.NoError(t, os.WriteFile(impl, []byte("edited\n"), 0o644))
	out, err = execute(t, "check", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, out, "com/example/FakeRepositoryImpl.kt")
	assert.Contains(t, err.Error(), "1 generated file(s) out of date")

	out, err = execute(t, "generate", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 file(s) written, 2 unchanged")
}

func TestGenerateWritesReport(t *testing.T) {
	dir, configPath := setupProject(t)
	report := filepath.Join(dir, "report.json")

	_, err := execute(t, "generate", "--config", configPath, "--report", report)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var rep struct {
		RunID     string   `json:"runId"`
		Generated []string `json:"generated"`
		Skipped   []string `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Len(t, rep.RunID, 36)
	assert.Equal(t, []string{"Repository"}, rep.Generated)
	assert.Equal(t, []string{"Functor"}, rep.Skipped)
}

func TestGenerateRejectsUnknownReportFormat(t *testing.T) {
	dir, configPath := setupProject(t)
	_, err := execute(t, "generate", "--config", configPath, "--report", filepath.Join(dir, "report.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}

func TestWatchDirs(t *testing.T) {
	dir, _ := setupProject(t)

	dirs, err := watchDirs([]string{filepath.Join(dir, "decls") + "/**/*.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "decls"), filepath.Join(dir, "decls", "nested")}, dirs)

	_, err = watchDirs([]string{filepath.Join(dir, "missing") + "/*.yaml"})
	require.Error(t, err)
}

func TestSummary(t *testing.T) {
	pc := pipeline.NewContext(config.New(), zap.NewNop())
	require.NoError(t, summary(pc))

	pc.Sink.Append(diag.Diagnostic{Severity: diag.Error, Interface: "Broken", Reason: "bad"})
	err := summary(pc)
	require.Error(t, err)
	assert.Equal(t, "generation finished with 1 error(s)", err.Error())
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestInvalidLogLevel(t *testing.T) {
	_, configPath := setupProject(t)
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, append(data, []byte("log:\n  level: loud\n")...), 0o644))

	_, err = execute(t, "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}
