package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"kalkon/internal/command"
)

// HelpMarkdown documents the command table and key bindings.
func HelpMarkdown(table *command.Table, dialect string) string {
	var b strings.Builder
	b.WriteString("# kalkon\n\n")
	fmt.Fprintf(&b, "Expressions are evaluated as you type (%s syntax). ", dialect)
	b.WriteString("**Enter** commits the expression to the history. ")
	b.WriteString("An assignment such as `x = 2` binds a variable instead.\n\n")

	b.WriteString("## Commands\n\n")
	b.WriteString("| Command | Effect |\n|---|---|\n")
	for _, c := range table.Commands() {
		fmt.Fprintf(&b, "| `%s` | %s |\n", c.Token, c.Description())
	}

	b.WriteString("\n## Keys\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, k := range [][2]string{
		{"Enter", "commit"},
		{"Ctrl+Z", "undo the last commit and edit it"},
		{"Ctrl+L", "clear the history"},
		{"F1", "toggle this help"},
		{"Esc / Ctrl+C", "quit"},
	} {
		fmt.Fprintf(&b, "| %s | %s |\n", k[0], k[1])
	}
	return b.String()
}

// renderHelp renders the help markdown for the terminal. Rendering
// failures fall back to the raw markdown.
func renderHelp(md string, dark bool, width int) string {
	style := "light"
	if dark {
		style = "dark"
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
