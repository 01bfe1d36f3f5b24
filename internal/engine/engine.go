// Package engine is the calculator core. An Engine sits between the text
// the user types and an interpreter: it recognises colon commands and
// assignments, keeps the history stack, and renders results under the
// current value type and display format.
//
// Callers feed every edit through Evaluate(text, false) to preview it and
// the confirm action through Evaluate(text, true) to commit it. Nothing
// leaves Evaluate as an error; outcomes are read back through IsError,
// Status and the history accessors.
//
// An Engine must be driven from a single goroutine.
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"kalkon/internal/command"
	"kalkon/internal/history"
	"kalkon/internal/interp"
	"kalkon/internal/logging"
	"kalkon/internal/numeric"
)

// DefaultDepth is the bounded history depth, preview slot included.
const DefaultDepth = 5

// Engine evaluates expressions and keeps their history.
type Engine struct {
	id      string
	table   *command.Table
	stack   *history.Stack
	mode    command.Mode
	factory interp.Factory
	live    interp.Interpreter

	status string
	err    bool
}

// Option configures an Engine.
type Option func(*Engine) error

// WithCapacity sets the history policy. The default is
// history.Bounded(DefaultDepth). A bounded depth must leave room for at
// least one committed slot next to the preview.
func WithCapacity(c history.Capacity) Option {
	return func(e *Engine) error {
		if c.IsBounded() && c.Depth() < 2 {
			return fmt.Errorf("history depth %d leaves no room for results", c.Depth())
		}
		e.stack = history.New(c)
		return nil
	}
}

// WithVariant picks whether the command table carries :int or :f32.
func WithVariant(v command.Variant) Option {
	return func(e *Engine) error {
		e.table = command.NewTable(v)
		return nil
	}
}

// WithFactory sets where interpreters come from. The engine creates its
// live interpreter and every assignment validator through it.
func WithFactory(f interp.Factory) Option {
	return func(e *Engine) error {
		if f == nil {
			return fmt.Errorf("interpreter factory is nil")
		}
		e.factory = f
		return nil
	}
}

// WithType sets the initial value type.
func WithType(t numeric.Type) Option {
	return func(e *Engine) error {
		if t < numeric.TypeInt || t > numeric.TypeFloat32 {
			return fmt.Errorf("unknown value type %d", int(t))
		}
		e.mode.Type = t
		return nil
	}
}

// WithFormat sets the initial display format.
func WithFormat(f numeric.Format) Option {
	return func(e *Engine) error {
		if f < numeric.FormatDecimal || f > numeric.FormatBinary {
			return fmt.Errorf("unknown display format %d", int(f))
		}
		e.mode.Format = f
		return nil
	}
}

// New creates an engine with a fresh live interpreter.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		id:    uuid.New().String(),
		table: command.NewTable(command.VariantInt),
		stack: history.New(history.Bounded(DefaultDepth)),
		mode:  command.Mode{Type: numeric.TypeInt, Format: numeric.FormatDecimal},
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply engine option: %w", err)
		}
	}

	if e.factory == nil {
		f, err := interp.NewFactory(interp.Options{Timeout: interp.DefaultTimeout})
		if err != nil {
			return nil, err
		}
		e.factory = f
	}

	live, err := e.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}
	e.live = live

	e.log().Info("engine started: dialect=%s variant=%s depth=%d type=%s format=%s",
		live.Dialect(), e.table.Variant(), e.stack.Capacity().Depth(), e.mode.Type, e.mode.Format)
	return e, nil
}

func (e *Engine) log() *logging.RequestLogger {
	return logging.WithRequestID(logging.CategoryEngine, e.id)
}

// ID is the engine's session id as it appears in the logs.
func (e *Engine) ID() string { return e.id }

// Evaluate classifies and evaluates expression. With enter false it only
// previews; with enter true it commits. It reports whether the input was
// committed, in which case the caller should clear its input field.
func (e *Engine) Evaluate(expression string, enter bool) bool {
	e.status = ""
	e.err = false

	if expression == "" {
		e.stack.Set("", numeric.None())
		return false
	}

	if out := e.table.Process(expression, enter, e.mode); out.Handled {
		return e.applyCommand(out)
	}

	if e.LooksLikeAssignment(expression) {
		e.status = "Set " + expression
		if !enter {
			return false
		}
		e.stack.Set("", numeric.None())
		if errs := e.live.Exec(expression); len(errs) > 0 {
			e.fail(expression, errs)
			return false
		}
		e.log().Info("assigned %q", expression)
		return true
	}

	res, errs := e.live.Eval(expression)
	if len(errs) > 0 {
		e.fail(expression, errs)
		return false
	}
	if res.Callable {
		e.log().Debug("ignoring callable result of %q", expression)
		return false
	}

	if enter {
		e.stack.Push(expression, res.Value)
		e.log().WithField("result", res.Value.String()).Info("committed %q", expression)
		return true
	}
	e.stack.Set(expression, res.Value)
	return false
}

func (e *Engine) applyCommand(out command.Outcome) bool {
	e.status = out.Status
	if !out.Applied || e.status != "" {
		logging.CommandDebug("not applied: %s", out.Status)
		return false
	}

	if out.Mode != e.mode {
		logging.Command("%s: type=%s format=%s", out.Command.Token, out.Mode.Type, out.Mode.Format)
	}
	e.mode = out.Mode
	if out.Clear {
		e.stack.Clear()
		return true
	}
	e.stack.Set("", numeric.None())
	return true
}

func (e *Engine) fail(expression string, errs []interp.Error) {
	e.status = interp.First(errs)
	e.err = true
	e.log().Debug("%q: %s", expression, errs[0])
}

// Pop undoes the last commit and returns its expression for editing.
func (e *Engine) Pop() string {
	expression := e.stack.Pop()
	e.log().Debug("popped %q", expression)
	return expression
}

// Clear empties the history.
func (e *Engine) Clear() {
	e.stack.Clear()
}

// IsError reports whether the last Evaluate failed.
func (e *Engine) IsError() bool { return e.err }

// IsStackUpdated reports whether the history changed since the previous
// call, and resets the flag.
func (e *Engine) IsStackUpdated() bool { return e.stack.Updated() }

// Status is the message left by the last Evaluate, or "".
func (e *Engine) Status() string { return e.status }

// Result renders the result of history slot i under the current type and
// format. Empty and out-of-range slots render as "", as do values that
// cannot be represented in 64 bits.
func (e *Engine) Result(i int) string {
	return numeric.Render(e.stack.Result(i), e.mode.Type, e.mode.Format)
}

// RawResult returns the unconverted result of slot i.
func (e *Engine) RawResult(i int) numeric.Value { return e.stack.Result(i) }

// Expression returns the expression of slot i, or "".
func (e *Engine) Expression(i int) string { return e.stack.Expression(i) }

// Type is the current value type.
func (e *Engine) Type() numeric.Type { return e.mode.Type }

// Format is the current display format.
func (e *Engine) Format() numeric.Format { return e.mode.Format }

// Commands is the engine's command table.
func (e *Engine) Commands() *command.Table { return e.table }

// Interpreter is the live interpreter holding the user's bindings.
func (e *Engine) Interpreter() interp.Interpreter { return e.live }

// Depth is the fixed history depth, or 0 when unbounded.
func (e *Engine) Depth() int { return e.stack.Capacity().Depth() }

// Len is the number of history slots, preview slot included.
func (e *Engine) Len() int { return e.stack.Len() }

// Close releases the live interpreter.
func (e *Engine) Close() error {
	return e.live.Close()
}
