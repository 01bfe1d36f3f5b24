package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"kalkon/internal/command"
	"kalkon/internal/history"
	"kalkon/internal/interp"
	"kalkon/internal/logging"
	"kalkon/internal/numeric"
)

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all kalkon configuration.
type Config struct {
	// Calculator behaviour
	Calculator CalculatorConfig `yaml:"calculator"`

	// Expression language
	Interpreter InterpreterConfig `yaml:"interpreter"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CalculatorConfig configures the engine.
type CalculatorConfig struct {
	// History depth including the preview slot; 0 keeps unlimited history
	Depth int `yaml:"depth"`

	// Command variant: "int" adds :int, "f32" adds :f32
	Variant string `yaml:"variant"`

	// Initial value type, as a command name without the colon (int, i8, ..., u64, f32)
	Type string `yaml:"type"`

	// Initial display format: dec, hex, bin
	Format string `yaml:"format"`
}

// InterpreterConfig selects and bounds the expression interpreter.
type InterpreterConfig struct {
	Dialect string `yaml:"dialect"` // go, lua
	Timeout string `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Calculator: CalculatorConfig{
			Depth:   5,
			Variant: "int",
			Type:    "int",
			Format:  "dec",
		},

		Interpreter: InterpreterConfig{
			Dialect: interp.DialectGo,
			Timeout: "2s",
		},

		UI: *DefaultUIConfig(),

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath is the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".kalkon", "config.yaml")
	}
	return filepath.Join(dir, "kalkon", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logging.ConfigDebug("no config at %s, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dialect := os.Getenv("KALKON_DIALECT"); dialect != "" {
		c.Interpreter.Dialect = dialect
	}
	if depth := os.Getenv("KALKON_DEPTH"); depth != "" {
		if n, err := strconv.Atoi(depth); err == nil {
			c.Calculator.Depth = n
		} else {
			logging.ConfigWarn("ignoring KALKON_DEPTH=%q: %v", depth, err)
		}
	}
	if theme := os.Getenv("KALKON_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if debug := os.Getenv("KALKON_DEBUG"); debug != "" {
		if on, err := strconv.ParseBool(debug); err == nil {
			c.Logging.DebugMode = on
		} else {
			logging.ConfigWarn("ignoring KALKON_DEBUG=%q: %v", debug, err)
		}
	}
}

// GetInterpreterTimeout returns the per-evaluation timeout as a duration.
func (c *Config) GetInterpreterTimeout() time.Duration {
	d, err := time.ParseDuration(c.Interpreter.Timeout)
	if err != nil {
		return interp.DefaultTimeout
	}
	return d
}

// InterpreterOptions converts the interpreter section for interp.NewFactory.
func (c *Config) InterpreterOptions() interp.Options {
	return interp.Options{Dialect: c.Interpreter.Dialect, Timeout: c.GetInterpreterTimeout()}
}

// Capacity is the history policy for the configured depth.
func (c *CalculatorConfig) Capacity() history.Capacity {
	if c.Depth == 0 {
		return history.Unbounded()
	}
	return history.Bounded(c.Depth)
}

// CommandVariant parses the variant.
func (c *CalculatorConfig) CommandVariant() (command.Variant, error) {
	return command.ParseVariant(c.Variant)
}

// ValueType resolves the initial type through the variant's command table,
// so only types the user could also select by command are accepted.
func (c *CalculatorConfig) ValueType() (numeric.Type, error) {
	v, err := c.CommandVariant()
	if err != nil {
		return numeric.TypeInt, err
	}
	cmd, ok := command.NewTable(v).Lookup(command.Marker + c.Type)
	if !ok || cmd.Op != command.OpType {
		return numeric.TypeInt, fmt.Errorf("type %q is not available with variant %s", c.Type, v)
	}
	return cmd.Type, nil
}

// ValueFormat resolves the initial display format.
func (c *CalculatorConfig) ValueFormat() (numeric.Format, error) {
	cmd, ok := command.NewTable(command.VariantInt).Lookup(command.Marker + c.Format)
	if !ok || cmd.Op != command.OpFormat {
		return numeric.FormatDecimal, fmt.Errorf("unknown format %q (valid: dec, hex, bin)", c.Format)
	}
	return cmd.Format, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Calculator.Depth < 0 || c.Calculator.Depth == 1 {
		return fmt.Errorf("%w: calculator.depth must be 0 (unbounded) or >= 2, got %d", ErrInvalidConfig, c.Calculator.Depth)
	}
	if _, err := c.Calculator.ValueType(); err != nil {
		return fmt.Errorf("%w: calculator: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Calculator.ValueFormat(); err != nil {
		return fmt.Errorf("%w: calculator: %v", ErrInvalidConfig, err)
	}

	if _, err := interp.NewFactory(c.InterpreterOptions()); err != nil {
		return fmt.Errorf("%w: interpreter: %v", ErrInvalidConfig, err)
	}
	if c.Interpreter.Timeout != "" {
		if d, err := time.ParseDuration(c.Interpreter.Timeout); err != nil || d < 0 {
			return fmt.Errorf("%w: interpreter.timeout %q is not a duration", ErrInvalidConfig, c.Interpreter.Timeout)
		}
	}

	if !isValidTheme(c.UI.Theme) {
		return fmt.Errorf("%w: ui.theme %q (valid: %v)", ErrInvalidConfig, c.UI.Theme, ValidThemes)
	}

	if err := c.Logging.validate(); err != nil {
		return fmt.Errorf("%w: logging: %v", ErrInvalidConfig, err)
	}
	return nil
}
