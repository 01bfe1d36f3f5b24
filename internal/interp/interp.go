// Package interp is the boundary to the expression language the calculator
// evaluates. The engine treats an Interpreter as a black box: it evaluates
// expressions, executes assignment statements and reports structured
// errors. Nothing in this package ever panics into the caller; backend
// panics are recovered into an Error.
//
// Two dialects are available:
//
//   - "go":  yaegi with the math package imported. The default. Integers
//     are exact int64/uint64 with the bitwise operators & | ^ << >>, and
//     sqrt, pi and friends are global.
//   - "lua": gopher-lua with only the base, math, string and table
//     libraries. Numbers are float64 and ^ is exponentiation. Math
//     functions are also global, so sqrt(2) works.
package interp

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"kalkon/internal/logging"
	"kalkon/internal/numeric"
)

// Error kinds reported by the backends.
const (
	KindSyntax  = "SyntaxError"
	KindRuntime = "RuntimeError"
	KindType    = "TypeError"
	KindTimeout = "TimeoutError"
)

// Error is one structured interpreter error.
type Error struct {
	Kind    string
	Message string
}

func (e Error) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}

// Result is a successful evaluation. Callable is set when the expression
// evaluated to a function rather than a value; Value is then absent.
type Result struct {
	Value    numeric.Value
	Callable bool
}

// Interpreter evaluates text in one binding environment. Bindings persist
// across calls on the same instance. Implementations are not safe for
// concurrent use.
type Interpreter interface {
	// Eval evaluates a single expression. It never binds variables.
	Eval(expr string) (Result, []Error)
	// Exec runs a statement such as an assignment.
	Exec(stmt string) []Error
	// Bindings returns the numeric variables defined by the user.
	Bindings() map[string]numeric.Value
	// Bind defines name as v.
	Bind(name string, v numeric.Value) error
	// Dialect names the language.
	Dialect() string
	Close() error
}

// Factory creates fresh, independent interpreters.
type Factory func() (Interpreter, error)

const (
	DialectLua = "lua"
	DialectGo  = "go"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 2 * time.Second

// Evaluations slower than this are logged as warnings.
const slowEval = 250 * time.Millisecond

// ErrUnknownDialect is returned by NewFactory for unsupported dialects.
var ErrUnknownDialect = errors.New("unknown interpreter dialect")

// Options configures the interpreters a Factory creates.
type Options struct {
	Dialect string
	// Timeout bounds each Eval and Exec; zero disables the bound.
	Timeout time.Duration
}

var backends = map[string]func(Options) (Interpreter, error){
	DialectLua: newLua,
	DialectGo:  newGo,
}

// Dialects lists the supported dialects.
func Dialects() []string {
	out := make([]string, 0, len(backends))
	for d := range backends {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// NewFactory returns a Factory for the configured dialect. An empty
// dialect selects Go.
func NewFactory(opts Options) (Factory, error) {
	if opts.Dialect == "" {
		opts.Dialect = DialectGo
	}
	newFn, ok := backends[opts.Dialect]
	if !ok {
		return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownDialect, opts.Dialect, strings.Join(Dialects(), ", "))
	}
	logging.Interp("using %s dialect, timeout %v", opts.Dialect, opts.Timeout)
	return func() (Interpreter, error) {
		logging.InterpDebug("new %s interpreter", opts.Dialect)
		return newFn(opts)
	}, nil
}

// First returns the first error's message, or "".
func First(errs []Error) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Message
}

func recovered(r interface{}) []Error {
	return []Error{{Kind: KindRuntime, Message: fmt.Sprintf("interpreter panic: %v", r)}}
}
