package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-cfg-query/internal/log"
)

// isolate points the global and project config locations at empty temp dirs
// and clears GCFG_* variables.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, env := range []string{"GCFG_MAX_DEPTH", "GCFG_MAX_NESTING", "GCFG_WORKERS", "GCFG_FORMAT", "GCFG_LOG_LEVEL", "GCFG_JSON_LOGS"} {
		t.Setenv(env, "")
	}
	t.Chdir(project)
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, 0, c.MaxDepth)
	assert.Equal(t, 100, c.MaxNesting)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, FormatText, c.Format)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.JSONLogs)
	assert.NoError(t, c.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{"valid", func(*Config) {}, ""},
		{"unbounded depth", func(c *Config) { c.MaxDepth = 0; c.MaxNesting = 0 }, ""},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, "max_depth"},
		{"negative nesting", func(c *Config) { c.MaxNesting = -5 }, "max_nesting"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "invalid format"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	home, project := isolate(t)

	writeFile(t, filepath.Join(home, ".gcfg", "config.yaml"), "max_depth: 500\nformat: json\nlog_level: debug\n")
	writeFile(t, filepath.Join(project, ".gcfg", "config.yaml"), "format: yaml\n")
	t.Setenv("GCFG_LOG_LEVEL", "warn")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, c.MaxDepth, "global value survives when project omits it")
	assert.Equal(t, FormatYAML, c.Format, "project overrides global")
	assert.Equal(t, "warn", c.LogLevel, "environment overrides files")
	assert.Equal(t, log.WarnLevel, c.Level())
	assert.Equal(t, 100, c.MaxNesting, "defaults fill the rest")
}

func TestLoadWithoutFiles(t *testing.T) {
	isolate(t)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, ".gcfg", "config.yaml"), "max_depth: [\n")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GCFG_MAX_DEPTH", "64")
	t.Setenv("GCFG_MAX_NESTING", "0")
	t.Setenv("GCFG_WORKERS", "8")
	t.Setenv("GCFG_FORMAT", "MSGPACK")
	t.Setenv("GCFG_JSON_LOGS", "yes")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 64, c.MaxDepth)
	assert.Equal(t, 0, c.MaxNesting)
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, FormatMsgpack, c.Format)
	assert.True(t, c.JSONLogs)
}

func TestEnvOverrideNotAnInteger(t *testing.T) {
	isolate(t)
	t.Setenv("GCFG_MAX_DEPTH", "deep")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCFG_MAX_DEPTH")
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "max_nesting: 20\njson_logs: true\n")

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, c.MaxNesting)
	assert.True(t, c.JSONLogs)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	c := DefaultConfig()
	c.MaxDepth = 250
	c.Format = FormatJSON
	require.NoError(t, c.Save(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, got)

	_, err = ParseFormat("dot")
	assert.Error(t, err)
}
