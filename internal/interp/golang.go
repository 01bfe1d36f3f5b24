package interp

import (
	"context"
	"errors"
	"fmt"
	goparser "go/parser"
	"go/scanner"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"kalkon/internal/logging"
	"kalkon/internal/numeric"
)

// goInterpreter evaluates Go expressions with yaegi. Only the math package
// is exported into the interpreter. Integer arithmetic is exact in int64
// and uint64, and the usual math functions are also global: sqrt(2).
type goInterpreter struct {
	i       *interp.Interpreter
	timeout time.Duration
	names   []string // variables defined through Exec or Bind, in order
}

var goAssignTarget = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*:?=`)

// "x = 1" declares x when it does not exist yet, so it is run as "x := 1".
var goPlainAssign = regexp.MustCompile(`^(\s*([A-Za-z_][A-Za-z0-9_]*)\s*)=([^=]|$)`)

// goGlobals are lifted out of the math package.
var goGlobals = []struct{ name, expr string }{
	{"sqrt", "math.Sqrt"},
	{"cbrt", "math.Cbrt"},
	{"pow", "math.Pow"},
	{"abs", "math.Abs"},
	{"floor", "math.Floor"},
	{"ceil", "math.Ceil"},
	{"round", "math.Round"},
	{"exp", "math.Exp"},
	{"log", "math.Log"},
	{"log2", "math.Log2"},
	{"log10", "math.Log10"},
	{"sin", "math.Sin"},
	{"cos", "math.Cos"},
	{"tan", "math.Tan"},
	{"atan", "math.Atan"},
	{"hypot", "math.Hypot"},
	{"pi", "math.Pi"},
	{"e", "math.E"},
}

// yaegi and go/parser prefix messages with "line:col: ".
var goPosition = regexp.MustCompile(`^(\S+:)?\d+:\d+:\s*`)

func newGo(opts Options) (Interpreter, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(interp.Exports{"math/math": stdlib.Symbols["math/math"]}); err != nil {
		return nil, fmt.Errorf("failed to load math symbols: %w", err)
	}
	if _, err := i.Eval(`import "math"`); err != nil {
		return nil, fmt.Errorf("failed to import math: %w", err)
	}
	for _, g := range goGlobals {
		if _, err := i.Eval(fmt.Sprintf("var %s = %s", g.name, g.expr)); err != nil {
			return nil, fmt.Errorf("failed to define %s: %w", g.name, err)
		}
	}
	return &goInterpreter{i: i, timeout: opts.Timeout}, nil
}

func (gi *goInterpreter) Dialect() string { return DialectGo }

// Eval accepts expressions only; statements are reported as syntax
// errors so previews never bind anything.
func (gi *goInterpreter) Eval(expr string) (Result, []Error) {
	if _, err := goparser.ParseExpr(expr); err != nil {
		return Result{}, []Error{goError(KindSyntax, err)}
	}
	v, errs := gi.run(expr)
	if len(errs) > 0 {
		return Result{}, errs
	}
	return fromReflect(v)
}

// Exec runs an assignment or other statement. Bare expressions are
// rejected so that "a != b" is never mistaken for an assignment.
func (gi *goInterpreter) Exec(stmt string) []Error {
	if _, err := goparser.ParseExpr(stmt); err == nil {
		return []Error{{Kind: KindSyntax, Message: "expression is not a statement"}}
	}
	if m := goPlainAssign.FindStringSubmatch(stmt); m != nil && !gi.declared(m[2]) {
		stmt = m[1] + ":" + stmt[len(m[1]):]
	}
	if _, errs := gi.run(stmt); len(errs) > 0 {
		return errs
	}
	if m := goAssignTarget.FindStringSubmatch(stmt); m != nil {
		gi.remember(m[1])
	}
	return nil
}

func (gi *goInterpreter) run(src string) (v reflect.Value, errs []Error) {
	timer := logging.StartTimer(logging.CategoryInterp, "go eval")
	defer timer.StopWithThreshold(slowEval)
	logging.InterpDebug("go: %s", src)

	defer func() {
		if r := recover(); r != nil {
			logging.InterpWarn("yaegi panic recovered: %v", r)
			v, errs = reflect.Value{}, recovered(r)
		}
	}()

	ctx := context.Background()
	if gi.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gi.timeout)
		defer cancel()
	}

	v, err := gi.i.EvalWithContext(ctx, src)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return reflect.Value{}, []Error{{Kind: KindTimeout, Message: fmt.Sprintf("evaluation exceeded %v", gi.timeout)}}
		}
		return reflect.Value{}, []Error{goError(KindRuntime, err)}
	}
	return v, nil
}

func (gi *goInterpreter) declared(name string) bool {
	for _, n := range gi.names {
		if n == name {
			return true
		}
	}
	for _, g := range goGlobals {
		if g.name == name {
			return true
		}
	}
	return false
}

func (gi *goInterpreter) remember(name string) {
	for _, n := range gi.names {
		if n == name {
			return
		}
	}
	gi.names = append(gi.names, name)
}

func (gi *goInterpreter) Bindings() map[string]numeric.Value {
	out := make(map[string]numeric.Value, len(gi.names))
	for _, name := range gi.names {
		res, errs := gi.Eval(name)
		if len(errs) > 0 || res.Value.IsNone() {
			continue
		}
		out[name] = res.Value
	}
	return out
}

func (gi *goInterpreter) Bind(name string, v numeric.Value) error {
	if v.IsNone() {
		return fmt.Errorf("cannot bind %s to an absent value", name)
	}
	if errs := gi.Exec(fmt.Sprintf("%s := %s", name, goLiteral(v))); len(errs) > 0 {
		return fmt.Errorf("bind %s: %s", name, First(errs))
	}
	return nil
}

func (gi *goInterpreter) Close() error { return nil }

func fromReflect(v reflect.Value) (Result, []Error) {
	if !v.IsValid() {
		return Result{}, []Error{{Kind: KindRuntime, Message: "expression has no value"}}
	}
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Result{Value: numeric.Int64(v.Int())}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Result{Value: numeric.Uint64(v.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		return Result{Value: numeric.Float(v.Float())}, nil
	case reflect.Bool:
		return Result{Value: boolValue(v.Bool())}, nil
	case reflect.Func:
		return Result{Callable: true}, nil
	}
	return Result{}, []Error{{Kind: KindType, Message: fmt.Sprintf("result is not a number (%s)", v.Kind())}}
}

func goLiteral(v numeric.Value) string {
	if v.IsInt() {
		if b := v.BigInt(); !b.IsInt64() && b.IsUint64() {
			return "uint64(" + b.String() + ")"
		}
		return v.String()
	}
	f := v.Float64()
	switch {
	case math.IsNaN(f):
		return "math.NaN()"
	case math.IsInf(f, 1):
		return "math.Inf(1)"
	case math.IsInf(f, -1):
		return "math.Inf(-1)"
	}
	return "float64(" + strconv.FormatFloat(f, 'g', -1, 64) + ")"
}

func goError(kind string, err error) Error {
	msg := err.Error()
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		msg = list[0].Msg
	}
	msg = goPosition.ReplaceAllString(strings.TrimSpace(msg), "")
	return Error{Kind: kind, Message: msg}
}
