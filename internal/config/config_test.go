package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalkon/internal/command"
	"kalkon/internal/interp"
	"kalkon/internal/numeric"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"KALKON_DIALECT", "KALKON_DEPTH", "KALKON_THEME", "KALKON_DEBUG"} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.Calculator.Depth)
	assert.Equal(t, "go", cfg.Interpreter.Dialect)
	assert.Equal(t, "matrix", cfg.UI.Theme)
	assert.False(t, cfg.Logging.DebugMode)
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Calculator.Depth = 0
	cfg.Calculator.Variant = "f32"
	cfg.Calculator.Type = "f32"
	cfg.Interpreter.Dialect = "go"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  theme: light\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.True(t, cfg.UI.ShowHelpHint)
	assert.Equal(t, 5, cfg.Calculator.Depth)
}

func TestLoad_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calculator: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative depth", func(c *Config) { c.Calculator.Depth = -1 }},
		{"depth without room for results", func(c *Config) { c.Calculator.Depth = 1 }},
		{"unknown variant", func(c *Config) { c.Calculator.Variant = "f64" }},
		{"type outside variant", func(c *Config) { c.Calculator.Type = "f32" }},
		{"format as type", func(c *Config) { c.Calculator.Type = "hex" }},
		{"unknown format", func(c *Config) { c.Calculator.Format = "oct" }},
		{"unknown dialect", func(c *Config) { c.Interpreter.Dialect = "python" }},
		{"bad timeout", func(c *Config) { c.Interpreter.Timeout = "soon" }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "neon" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestCalculatorConfig_Conversions(t *testing.T) {
	c := CalculatorConfig{Depth: 0, Variant: "f32", Type: "u16", Format: "bin"}

	assert.False(t, c.Capacity().IsBounded())
	c.Depth = 3
	assert.Equal(t, 3, c.Capacity().Depth())

	v, err := c.CommandVariant()
	require.NoError(t, err)
	assert.Equal(t, command.VariantFloat, v)

	typ, err := c.ValueType()
	require.NoError(t, err)
	assert.Equal(t, numeric.TypeUint16, typ)

	f, err := c.ValueFormat()
	require.NoError(t, err)
	assert.Equal(t, numeric.FormatBinary, f)
}

func TestGetInterpreterTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2*time.Second, cfg.GetInterpreterTimeout())

	cfg.Interpreter.Timeout = "garbage"
	assert.Equal(t, interp.DefaultTimeout, cfg.GetInterpreterTimeout())

	cfg.Interpreter.Timeout = "0s"
	assert.Equal(t, interp.Options{Dialect: "go"}, cfg.InterpreterOptions())
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Categories: map[string]bool{"ui": false}}
	assert.False(t, lc.IsCategoryEnabled("engine"), "nothing is enabled outside debug mode")

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("engine"))
	assert.False(t, lc.IsCategoryEnabled("ui"))

	lc.Format = "json"
	opts := lc.Options(filepath.Join("/etc", "kalkon", "config.yaml"))
	assert.Equal(t, filepath.Join("/etc", "kalkon", "logs"), opts.Dir)
	assert.True(t, opts.JSONFormat)
	assert.True(t, opts.DebugMode)

	lc.Dir = "/var/log/kalkon"
	assert.Equal(t, "/var/log/kalkon", lc.Options("config.yaml").Dir)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}
