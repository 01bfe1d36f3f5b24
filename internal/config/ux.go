package config

// UIConfig holds user interface configuration.
type UIConfig struct {
	// Theme names a color scheme: matrix (green on black), dark, light
	Theme string `yaml:"theme"`

	// ShowHelpHint prints the F1 hint under the input line
	ShowHelpHint bool `yaml:"show_help_hint"`
}

// ValidThemes lists the built-in themes.
var ValidThemes = []string{"matrix", "dark", "light"}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Theme:        "matrix",
		ShowHelpHint: true,
	}
}

func isValidTheme(theme string) bool {
	for _, t := range ValidThemes {
		if t == theme {
			return true
		}
	}
	return false
}
