package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "schema.yaml", cfg.Schema)
	assert.Equal(t, "", cfg.Config)
	assert.Equal(t, "manifest.json", cfg.Output)
	assert.Equal(t, "dist", cfg.OutDir)
	assert.Equal(t, 0, cfg.Parallelism)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
schema: stacks/ai/schema.yaml
config: stacks/ai/values.yaml
output: out/manifest.yaml
out_dir: /srv/stack
parallelism: 4
log:
  level: debug
  format: json
`
	tmpFile := filepath.Join(t.TempDir(), "stackgen.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile, nil)
	require.NoError(t, err)

	assert.Equal(t, "stacks/ai/schema.yaml", cfg.Schema)
	assert.Equal(t, "stacks/ai/values.yaml", cfg.Config)
	assert.Equal(t, "out/manifest.yaml", cfg.Output)
	assert.Equal(t, "/srv/stack", cfg.OutDir)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_SearchesWorkingDirectory(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stackgen.yaml"), []byte("schema: found.yaml\n"), 0644))

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "found.yaml", cfg.Schema)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Setenv("STACKGEN_SCHEMA", "/etc/stackgen/schema.yaml")
	t.Setenv("STACKGEN_OUT_DIR", "/tmp/out")
	t.Setenv("STACKGEN_PARALLELISM", "2")
	t.Setenv("STACKGEN_LOG_LEVEL", "warn")
	t.Setenv("STACKGEN_LOG_FORMAT", "json")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "/etc/stackgen/schema.yaml", cfg.Schema)
	assert.Equal(t, "/tmp/out", cfg.OutDir)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Setenv("STACKGEN_SCHEMA", "env.yaml")
	t.Setenv("STACKGEN_LOG_LEVEL", "warn")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("schema", "schema.yaml", "")
	cmd.Flags().String("log-level", "info", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--schema", "flag.yaml"}))

	cfg, err := LoadConfig("", cmd)
	require.NoError(t, err)

	assert.Equal(t, "flag.yaml", cfg.Schema)
	// unchanged flags leave the environment in charge
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile, nil)
	assert.Error(t, err)
}

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"STACKGEN_SCHEMA",
		"STACKGEN_CONFIG",
		"STACKGEN_OUTPUT",
		"STACKGEN_FORMAT",
		"STACKGEN_OUT_DIR",
		"STACKGEN_PARALLELISM",
		"STACKGEN_LOG_LEVEL",
		"STACKGEN_LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("HOME", t.TempDir())
}
