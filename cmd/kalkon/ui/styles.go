// Package ui provides the visual styling for the kalkon terminal calculator.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palettes
var (
	// Matrix: green on black
	MatrixBackground = lipgloss.Color("#000000")
	MatrixForeground = lipgloss.Color("#00ff00")
	MatrixAccent     = lipgloss.Color("#7CFC00")
	MatrixMuted      = lipgloss.Color("#007a00")
	MatrixBorder     = lipgloss.Color("#004d00")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#141d2b")
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkAccent     = lipgloss.Color("#8BC34A") // Lime Green
	DarkMuted      = lipgloss.Color("#6b7a90")
	DarkBorder     = lipgloss.Color("#2a3850")

	// Light Mode Colors
	LightBackground = lipgloss.Color("#f4f5f6")
	LightForeground = lipgloss.Color("#101F38") // Dark Blue
	LightAccent     = lipgloss.Color("#2e7d32")
	LightMuted      = lipgloss.Color("#8a94a3")
	LightBorder     = lipgloss.Color("#dce0e5")

	// Semantic Colors (same in every theme)
	Destructive = lipgloss.Color("#e53935") // Red
	Warning     = lipgloss.Color("#FFC107") // Yellow
)

// Theme holds a color scheme
type Theme struct {
	Name       string
	Background lipgloss.Color
	Foreground lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// MatrixTheme is the default green-on-black look.
func MatrixTheme() Theme {
	return Theme{
		Name:       "matrix",
		Background: MatrixBackground,
		Foreground: MatrixForeground,
		Accent:     MatrixAccent,
		Muted:      MatrixMuted,
		Border:     MatrixBorder,
		IsDark:     true,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Name:       "dark",
		Background: DarkBackground,
		Foreground: DarkForeground,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Name:       "light",
		Background: LightBackground,
		Foreground: LightForeground,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		IsDark:     false,
	}
}

// ThemeByName looks a theme up by its config name. Unknown names fall
// back to the matrix theme and report false.
func ThemeByName(name string) (Theme, bool) {
	switch strings.ToLower(name) {
	case "matrix", "":
		return MatrixTheme(), true
	case "dark":
		return DarkTheme(), true
	case "light":
		return LightTheme(), true
	}
	return MatrixTheme(), false
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	// History
	Expression lipgloss.Style
	Result     lipgloss.Style
	Divider    lipgloss.Style

	// Input line
	Prompt  lipgloss.Style
	Input   lipgloss.Style
	Preview lipgloss.Style

	// Status
	Status lipgloss.Style
	Error  lipgloss.Style
	Badge  lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		App: lipgloss.NewStyle().
			Background(theme.Background).
			Foreground(theme.Foreground),

		Header: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Expression: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Result: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Input: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Preview: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Status: lipgloss.NewStyle().
			Foreground(Warning),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(theme.Background).
			Padding(0, 1).
			Bold(true),
	}
}

// DefaultStyles returns styles with the matrix theme
func DefaultStyles() Styles {
	return NewStyles(MatrixTheme())
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}

// Row lays out an expression on the left and its result flush right
// within width columns. At least one space separates the two.
func (s Styles) Row(expression, result string, width int, resultStyle lipgloss.Style) string {
	left := s.Expression.Render(expression)
	right := resultStyle.Render(result)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
