package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"kalkon/internal/command"
	"kalkon/internal/engine"
)

var jsonOutput bool

// evalCmd evaluates expressions without the terminal UI
var evalCmd = &cobra.Command{
	Use:   "eval [expression...]",
	Short: "Evaluate expressions and print the results",
	Long: `Commits each argument in order, exactly as if it had been typed into
the calculator and confirmed with Enter. Without arguments, expressions
are read from stdin, one per line.

Commands and assignments affect the following lines:
  kalkon eval "x = 0x20" ":hex" "x + 1"     # x + 1 = 0x21

With --json every line produces one JSON object (JSON Lines).`,
	RunE: runEval,
}

// commandsCmd lists the command table
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the calculator's colon commands",
	RunE:  listCommands,
}

func init() {
	evalCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print one JSON object per line")
}

// lineResult is what committing one line did.
type lineResult struct {
	Expression string
	Result     string // rendered; empty when the value does not fit the type
	Raw        string
	Status     string
	Error      string
	Mode       string // set when a command changed the mode
	Failed     bool
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	lines := args
	if len(lines) == 0 {
		lines, err = readLines(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		logger.Debug("evaluating", zap.String("expression", line))

		r := evalLine(e, line)
		if r.Failed {
			failed++
		}
		if err := writeResult(out, r); err != nil {
			return err
		}
	}

	logger.Debug("eval finished",
		zap.String("session", e.ID()),
		zap.Int("lines", len(lines)),
		zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(lines))
	}
	return nil
}

// evalLine commits one line.
func evalLine(e *engine.Engine, line string) lineResult {
	r := lineResult{Expression: line}
	committed := e.Evaluate(line, true)
	isCommand := strings.HasPrefix(line, command.Marker)

	switch {
	case e.IsError():
		r.Error = e.Status()
		r.Failed = true
	case e.Status() != "":
		r.Status = e.Status()
		r.Failed = isCommand && !committed
	case committed && isCommand:
		r.Mode = fmt.Sprintf("%s %s", e.Type(), e.Format())
	case committed:
		r.Result = e.Result(1)
		if raw := e.RawResult(1); !raw.IsNone() {
			r.Raw = raw.String()
		}
	}
	return r
}

func writeResult(out io.Writer, r lineResult) error {
	if jsonOutput {
		doc, err := r.json()
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, err = fmt.Fprintln(out, doc)
		return err
	}
	if text := r.text(); text != "" {
		_, err := fmt.Fprintln(out, text)
		return err
	}
	return nil
}

// text is the plain rendering of r, or "" when nothing happened worth
// printing (a non-numeric result).
func (r lineResult) text() string {
	switch {
	case r.Error != "":
		return "error: " + strings.ReplaceAll(r.Error, "\n", " ")
	case r.Status != "":
		return r.Status
	case r.Mode != "":
		return r.Mode
	case r.Result == "" && r.Raw != "":
		return fmt.Sprintf("%s = ? (%s does not fit)", r.Expression, r.Raw)
	case r.Raw != "":
		return fmt.Sprintf("%s = %s", r.Expression, r.Result)
	}
	return ""
}

func (r lineResult) json() (string, error) {
	fields := []struct {
		key   string
		value string
	}{
		{"expression", r.Expression},
		{"result", r.Result},
		{"raw", r.Raw},
		{"status", r.Status},
		{"error", r.Error},
		{"mode", r.Mode},
	}

	doc := "{}"
	var err error
	for _, f := range fields {
		if f.value == "" && f.key != "expression" {
			continue
		}
		if doc, err = sjson.Set(doc, f.key, f.value); err != nil {
			return "", err
		}
	}
	if r.Failed {
		if doc, err = sjson.Set(doc, "failed", true); err != nil {
			return "", err
		}
	}
	return doc, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expressions: %w", err)
	}
	return lines, nil
}

func listCommands(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	variant, err := cfg.Calculator.CommandVariant()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range command.NewTable(variant).Commands() {
		fmt.Fprintf(out, "%-8s %s\n", c.Token, c.Description())
	}
	return nil
}
