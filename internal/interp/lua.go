package interp

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"kalkon/internal/logging"
	"kalkon/internal/numeric"
)

// luaInterpreter runs expressions in a sandboxed gopher-lua state.
// LState is not goroutine-safe; callers serialize access.
type luaInterpreter struct {
	L        *lua.LState
	timeout  time.Duration
	baseline map[string]bool // globals present before any user code ran
	closed   bool
}

// Globals that reach outside the sandbox or the terminal.
var luaBlockedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "print"}

func newLua(opts Options) (Interpreter, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Only the pure libraries; io, os, debug and package stay closed.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open lua library %q: %w", lib.name, err)
		}
	}

	for _, name := range luaBlockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	// Lift math.* into the global scope: sqrt(2), pi, floor(x).
	if math, ok := L.GetGlobal(lua.MathLibName).(*lua.LTable); ok {
		math.ForEach(func(k, v lua.LValue) {
			if name, ok := k.(lua.LString); ok && L.GetGlobal(string(name)) == lua.LNil {
				L.SetGlobal(string(name), v)
			}
		})
	}

	li := &luaInterpreter{L: L, timeout: opts.Timeout, baseline: make(map[string]bool)}
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		li.baseline[k.String()] = true
	})
	return li, nil
}

func (li *luaInterpreter) Dialect() string { return DialectLua }

// Eval compiles expr as "return <expr>", so statements are rejected
// instead of executed.
func (li *luaInterpreter) Eval(expr string) (res Result, errs []Error) {
	if li.closed {
		return Result{}, []Error{{Kind: KindRuntime, Message: "interpreter closed"}}
	}
	fn, err := li.L.LoadString("return " + expr)
	if err != nil {
		return Result{}, []Error{luaError(KindSyntax, err)}
	}

	v, errs := li.call(fn, 1)
	if len(errs) > 0 {
		return Result{}, errs
	}
	return fromLua(v)
}

// Exec runs stmt as a chunk.
func (li *luaInterpreter) Exec(stmt string) []Error {
	if li.closed {
		return []Error{{Kind: KindRuntime, Message: "interpreter closed"}}
	}
	fn, err := li.L.LoadString(stmt)
	if err != nil {
		return []Error{luaError(KindSyntax, err)}
	}
	_, errs := li.call(fn, 0)
	return errs
}

func (li *luaInterpreter) call(fn *lua.LFunction, nret int) (v lua.LValue, errs []Error) {
	timer := logging.StartTimer(logging.CategoryInterp, "lua call")
	defer timer.StopWithThreshold(slowEval)

	defer func() {
		if r := recover(); r != nil {
			logging.InterpWarn("lua panic recovered: %v", r)
			v, errs = lua.LNil, recovered(r)
		}
	}()

	var ctx context.Context
	if li.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), li.timeout)
		defer cancel()
		li.L.SetContext(ctx)
		defer li.L.RemoveContext()
	}

	top := li.L.GetTop()
	defer li.L.SetTop(top)

	li.L.Push(fn)
	if err := li.L.PCall(0, nret, nil); err != nil {
		if ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return lua.LNil, []Error{{Kind: KindTimeout, Message: fmt.Sprintf("evaluation exceeded %v", li.timeout)}}
		}
		return lua.LNil, []Error{luaError(KindRuntime, err)}
	}
	if nret == 0 {
		return lua.LNil, nil
	}
	return li.L.Get(-1), nil
}

func (li *luaInterpreter) Bindings() map[string]numeric.Value {
	out := make(map[string]numeric.Value)
	li.L.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok || li.baseline[string(name)] {
			return
		}
		switch lv := v.(type) {
		case lua.LNumber:
			out[string(name)] = numeric.FromFloat(float64(lv))
		case lua.LBool:
			out[string(name)] = boolValue(bool(lv))
		}
	})
	return out
}

func (li *luaInterpreter) Bind(name string, v numeric.Value) error {
	if v.IsNone() {
		return fmt.Errorf("cannot bind %s to an absent value", name)
	}
	li.L.SetGlobal(name, lua.LNumber(v.Float64()))
	return nil
}

func (li *luaInterpreter) Close() error {
	if !li.closed {
		li.closed = true
		li.L.Close()
	}
	return nil
}

func fromLua(v lua.LValue) (Result, []Error) {
	switch lv := v.(type) {
	case lua.LNumber:
		return Result{Value: numeric.FromFloat(float64(lv))}, nil
	case lua.LBool:
		return Result{Value: boolValue(bool(lv))}, nil
	case *lua.LFunction:
		return Result{Callable: true}, nil
	}
	if v == lua.LNil {
		return Result{}, []Error{{Kind: KindRuntime, Message: "expression has no value"}}
	}
	return Result{}, []Error{{Kind: KindType, Message: fmt.Sprintf("result is not a number (%s)", v.Type())}}
}

var luaLocation = regexp.MustCompile(`^<string>(:\d+:| line:\d+\(column:\d+\))\s*`)

// luaError strips chunk locations and stack traces from gopher-lua errors.
func luaError(kind string, err error) Error {
	msg := err.Error()
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		msg = apiErr.Object.String()
	}
	msg = luaLocation.ReplaceAllString(strings.TrimSpace(msg), "")
	return Error{Kind: kind, Message: strings.Join(strings.Fields(msg), " ")}
}

func boolValue(b bool) numeric.Value {
	if b {
		return numeric.Int64(1)
	}
	return numeric.Int64(0)
}
