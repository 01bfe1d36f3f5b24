package config

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap/zapcore"

	"kalkon/internal/logging"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`                // debug, info, warn, error
	Format     string          `yaml:"format"`               // json, text
	DebugMode  bool            `yaml:"debug_mode"`           // Master toggle - false = no logging
	Categories map[string]bool `yaml:"categories,omitempty"` // Per-category toggles
	Dir        string          `yaml:"dir,omitempty"`        // defaults to logs/ next to the config file
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if debug_mode is false.
// Returns true if debug_mode is true and category is enabled (or not specified).
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Options converts the section for logging.Initialize. Relative and empty
// directories are resolved against configPath's directory.
func (c *LoggingConfig) Options(configPath string) logging.Options {
	dir := c.Dir
	if dir == "" {
		dir = "logs"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(configPath), dir)
	}
	return logging.Options{
		Dir:        dir,
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		JSONFormat: c.Format == "json",
		Categories: c.Categories,
	}
}

func (c *LoggingConfig) validate() error {
	if c.Level != "" {
		if _, err := zapcore.ParseLevel(c.Level); err != nil {
			return err
		}
	}
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("format %q (valid: text, json)", c.Format)
	}
	return nil
}
