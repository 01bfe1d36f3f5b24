// Package command implements the calculator's colon commands.
//
// Commands are plain data: a Command names an operation and its operand,
// and Apply is a pure transition from one Mode to the next. Process ties
// the two together for a line of input without needing an engine.
package command

import (
	"fmt"
	"strings"

	"kalkon/internal/numeric"
)

// Marker prefixes every command.
const Marker = ":"

// Op is the kind of effect a command has.
type Op int

const (
	OpFormat Op = iota // set the display radix
	OpType             // set the value type
	OpClear            // clear the history
)

func (o Op) String() string {
	switch o {
	case OpFormat:
		return "format"
	case OpType:
		return "type"
	case OpClear:
		return "clear"
	}
	return "unknown"
}

// Variant picks the extension entry of the command table.
type Variant int

const (
	// VariantInt adds :int, the interpreter's native integer.
	VariantInt Variant = iota
	// VariantFloat adds :f32, the float32 interpretation.
	VariantFloat
)

func (v Variant) String() string {
	if v == VariantFloat {
		return "f32"
	}
	return "int"
}

// ParseVariant accepts "int" or "f32".
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "int", "":
		return VariantInt, nil
	case "f32":
		return VariantFloat, nil
	}
	return VariantInt, fmt.Errorf("unknown command variant %q (valid: int, f32)", s)
}

// Command is one entry of the table.
type Command struct {
	Token  string
	Op     Op
	Type   numeric.Type
	Format numeric.Format
}

// Description is a short human-readable summary used in listings.
func (c Command) Description() string {
	switch c.Op {
	case OpFormat:
		return "display as " + strings.ToLower(c.Format.String())
	case OpType:
		return "interpret as " + strings.ToLower(c.Type.String())
	case OpClear:
		return "clear history"
	}
	return ""
}

// Mode is the display state commands act on.
type Mode struct {
	Type   numeric.Type
	Format numeric.Format
}

// Apply returns the mode after running c, and whether c asks for the
// history to be cleared.
func Apply(m Mode, c Command) (Mode, bool) {
	switch c.Op {
	case OpFormat:
		m.Format = c.Format
	case OpType:
		m.Type = c.Type
	case OpClear:
		return m, true
	}
	return m, false
}

// Table is the fixed, case-sensitive set of commands.
type Table struct {
	variant  Variant
	commands []Command
	byToken  map[string]Command
}

// NewTable builds the command table for a variant.
func NewTable(v Variant) *Table {
	cmds := []Command{
		{Token: ":dec", Op: OpFormat, Format: numeric.FormatDecimal},
		{Token: ":hex", Op: OpFormat, Format: numeric.FormatHexadecimal},
		{Token: ":bin", Op: OpFormat, Format: numeric.FormatBinary},
	}
	if v == VariantFloat {
		cmds = append(cmds, Command{Token: ":f32", Op: OpType, Type: numeric.TypeFloat32})
	} else {
		cmds = append(cmds, Command{Token: ":int", Op: OpType, Type: numeric.TypeInt})
	}
	cmds = append(cmds,
		Command{Token: ":i8", Op: OpType, Type: numeric.TypeInt8},
		Command{Token: ":i16", Op: OpType, Type: numeric.TypeInt16},
		Command{Token: ":i32", Op: OpType, Type: numeric.TypeInt32},
		Command{Token: ":i64", Op: OpType, Type: numeric.TypeInt64},
		Command{Token: ":u8", Op: OpType, Type: numeric.TypeUint8},
		Command{Token: ":u16", Op: OpType, Type: numeric.TypeUint16},
		Command{Token: ":u32", Op: OpType, Type: numeric.TypeUint32},
		Command{Token: ":u64", Op: OpType, Type: numeric.TypeUint64},
		Command{Token: ":clear", Op: OpClear},
	)

	t := &Table{variant: v, commands: cmds, byToken: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		t.byToken[c.Token] = c
	}
	return t
}

// Variant returns the table's variant.
func (t *Table) Variant() Variant { return t.variant }

// Lookup finds a command by its exact token.
func (t *Table) Lookup(token string) (Command, bool) {
	c, ok := t.byToken[token]
	return c, ok
}

// Commands lists the table in display order.
func (t *Table) Commands() []Command {
	out := make([]Command, len(t.commands))
	copy(out, t.commands)
	return out
}

// Outcome is the result of Process.
type Outcome struct {
	// Handled is false when the input is not a command at all.
	Handled bool
	// Applied is true when a known command ran (commit only).
	Applied bool
	Command Command
	Mode    Mode
	// Clear asks the caller to reset its history.
	Clear  bool
	Status string
}

// Process classifies expr. Known commands run on enter and only report a
// hint while previewing; unknown commands report an error status either
// way. Inputs without the marker are not handled.
func (t *Table) Process(expr string, enter bool, m Mode) Outcome {
	if !strings.HasPrefix(expr, Marker) {
		return Outcome{Mode: m}
	}

	c, ok := t.Lookup(expr)
	if !ok {
		return Outcome{Handled: true, Mode: m, Status: fmt.Sprintf("Unknown command '%s'", expr)}
	}
	if !enter {
		return Outcome{Handled: true, Command: c, Mode: m, Status: "CMD: " + expr}
	}

	next, wipe := Apply(m, c)
	return Outcome{Handled: true, Applied: true, Command: c, Mode: next, Clear: wipe}
}
