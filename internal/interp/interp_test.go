package interp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalkon/internal/numeric"
)

func newInterpreter(t *testing.T, dialect string) Interpreter {
	t.Helper()
	factory, err := NewFactory(Options{Dialect: dialect, Timeout: time.Second})
	require.NoError(t, err)
	in, err := factory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })
	return in
}

func TestNewFactory_UnknownDialect(t *testing.T) {
	_, err := NewFactory(Options{Dialect: "python"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDialect))
	assert.Equal(t, []string{"go", "lua"}, Dialects())
}

func TestNewFactory_DefaultsToGo(t *testing.T) {
	factory, err := NewFactory(Options{})
	require.NoError(t, err)
	in, err := factory()
	require.NoError(t, err)
	defer in.Close()
	assert.Equal(t, DialectGo, in.Dialect())
}

func TestLua_Eval(t *testing.T) {
	in := newInterpreter(t, DialectLua)

	tests := []struct {
		expr string
		want string
	}{
		{"2+2", "4"},
		{"7/2", "3.5"},
		{"2^70", "1180591620717411303424"},
		{"0xff", "255"},
		{"sqrt(16)", "4"},
		{"math.floor(2.7)", "2"},
		{"1 < 2", "1"},
		{"1 > 2", "0"},
	}
	for _, tt := range tests {
		res, errs := in.Eval(tt.expr)
		require.Empty(t, errs, tt.expr)
		assert.Equal(t, tt.want, res.Value.String(), tt.expr)
		assert.False(t, res.Callable)
	}
}

func TestLua_Errors(t *testing.T) {
	in := newInterpreter(t, DialectLua)

	_, errs := in.Eval("2+")
	require.Len(t, errs, 1)
	assert.Equal(t, KindSyntax, errs[0].Kind)
	assert.NotEmpty(t, errs[0].Message)
	assert.NotContains(t, errs[0].Message, "<string>")

	_, errs = in.Eval("y + 1")
	require.Len(t, errs, 1)
	assert.Equal(t, KindRuntime, errs[0].Kind)
	assert.Contains(t, errs[0].Message, "arithmetic")

	_, errs = in.Eval("undefined_name")
	require.Len(t, errs, 1)
	assert.Equal(t, "expression has no value", errs[0].Message)

	_, errs = in.Eval(`"text"`)
	require.Len(t, errs, 1)
	assert.Equal(t, KindType, errs[0].Kind)

	_, errs = in.Eval("x = 1")
	require.Len(t, errs, 1, "eval never runs statements")
	assert.Empty(t, in.Bindings())
}

func TestLua_CallableResult(t *testing.T) {
	in := newInterpreter(t, DialectLua)
	res, errs := in.Eval("sqrt")
	require.Empty(t, errs)
	assert.True(t, res.Callable)
	assert.True(t, res.Value.IsNone())
}

func TestLua_ExecAndBindings(t *testing.T) {
	in := newInterpreter(t, DialectLua)

	require.Empty(t, in.Exec("x = 6"))
	require.Empty(t, in.Exec("flag = true"))
	res, errs := in.Eval("x * 7")
	require.Empty(t, errs)
	assert.Equal(t, "42", res.Value.String())

	b := in.Bindings()
	assert.Len(t, b, 2)
	assert.Equal(t, "6", b["x"].String())
	assert.Equal(t, "1", b["flag"].String())

	assert.NotEmpty(t, in.Exec("x == 1"), "a comparison is not a statement")
	assert.NotEmpty(t, in.Exec("z = nothing + 1"))
}

func TestLua_BindIsolatedInstances(t *testing.T) {
	a := newInterpreter(t, DialectLua)
	b := newInterpreter(t, DialectLua)

	require.NoError(t, a.Bind("n", numeric.Int64(3)))
	res, errs := a.Eval("n + 1")
	require.Empty(t, errs)
	assert.Equal(t, "4", res.Value.String())

	_, errs = b.Eval("n + 1")
	assert.NotEmpty(t, errs, "bindings never leak between instances")
	assert.Error(t, a.Bind("m", numeric.None()))
}

func TestLua_Sandbox(t *testing.T) {
	in := newInterpreter(t, DialectLua)
	for _, expr := range []string{"os.exit(1)", "io.write('x')", "print('x')", "dofile('/etc/passwd')"} {
		_, errs := in.Eval(expr)
		assert.NotEmpty(t, errs, expr)
	}
}

func TestLua_Timeout(t *testing.T) {
	factory, err := NewFactory(Options{Dialect: DialectLua, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	in, err := factory()
	require.NoError(t, err)
	defer in.Close()

	errs := in.Exec("while true do end")
	require.Len(t, errs, 1)
	assert.Equal(t, KindTimeout, errs[0].Kind)

	res, errs := in.Eval("1+1")
	require.Empty(t, errs, "state stays usable after a timeout")
	assert.Equal(t, "2", res.Value.String())
}

func TestLua_Closed(t *testing.T) {
	in := newInterpreter(t, DialectLua)
	require.NoError(t, in.Close())
	require.NoError(t, in.Close())
	_, errs := in.Eval("1")
	assert.NotEmpty(t, errs)
}

func TestGo_Eval(t *testing.T) {
	in := newInterpreter(t, DialectGo)

	res, errs := in.Eval("2+2")
	require.Empty(t, errs)
	assert.Equal(t, "4", res.Value.String())
	assert.True(t, res.Value.IsInt())

	res, errs = in.Eval("math.Sqrt(2.25)")
	require.Empty(t, errs)
	assert.Equal(t, "1.5", res.Value.String())

	res, errs = in.Eval("math.Sqrt")
	require.Empty(t, errs)
	assert.True(t, res.Callable)

	_, errs = in.Eval("2+")
	require.Len(t, errs, 1)
	assert.Equal(t, KindSyntax, errs[0].Kind)
}

func TestGo_ExecAndBindings(t *testing.T) {
	in := newInterpreter(t, DialectGo)

	require.Empty(t, in.Exec("x := 5"))
	res, errs := in.Eval("x * 2")
	require.Empty(t, errs)
	assert.Equal(t, "10", res.Value.String())

	assert.NotEmpty(t, in.Exec("x != 3"), "bare expressions are not statements")
	assert.Equal(t, "5", in.Bindings()["x"].String())

	other := newInterpreter(t, DialectGo)
	require.NoError(t, other.Bind("x", numeric.Int64(5)))
	require.NoError(t, other.Bind("half", numeric.Float(0.5)))
	res, errs = other.Eval("float64(x) * half")
	require.Empty(t, errs)
	assert.Equal(t, "2.5", res.Value.String())
}

func TestGo_ExactIntegers(t *testing.T) {
	in := newInterpreter(t, DialectGo)

	tests := []struct {
		expr string
		want string
	}{
		{"9223372036854775807", "9223372036854775807"},
		{"9007199254740993", "9007199254740993"},
		{"uint64(1) << 63", "9223372036854775808"},
		{"0xff & 0x0f", "15"},
		{"1 << 4", "16"},
		{"6 ^ 3", "5"},
		{"7 / 2", "3"},
		{"-7 % 3", "-1"},
	}
	for _, tt := range tests {
		res, errs := in.Eval(tt.expr)
		require.Empty(t, errs, tt.expr)
		assert.Equal(t, tt.want, res.Value.String(), tt.expr)
		assert.True(t, res.Value.IsInt(), tt.expr)
	}
}

func TestGo_MathGlobals(t *testing.T) {
	in := newInterpreter(t, DialectGo)

	res, errs := in.Eval("sqrt(16) + floor(pi)")
	require.Empty(t, errs)
	assert.Equal(t, 7.0, res.Value.Float64())

	res, errs = in.Eval("sqrt")
	require.Empty(t, errs)
	assert.True(t, res.Callable)

	assert.Empty(t, in.Bindings(), "math globals are not user bindings")
}

func TestGo_PlainAssignment(t *testing.T) {
	in := newInterpreter(t, DialectGo)

	require.Empty(t, in.Exec("y = 7"), "first assignment declares")
	require.Empty(t, in.Exec("y = y + 1"))
	res, errs := in.Eval("y")
	require.Empty(t, errs)
	assert.Equal(t, "8", res.Value.String())

	assert.NotEmpty(t, in.Exec("z = "))
	assert.Equal(t, []string{"y"}, keys(in.Bindings()))
}

func TestGo_BindUint64(t *testing.T) {
	in := newInterpreter(t, DialectGo)
	big := numeric.Uint64(1 << 63)

	require.NoError(t, in.Bind("big", big))
	res, errs := in.Eval("big >> 62")
	require.Empty(t, errs)
	assert.Equal(t, "2", res.Value.String())
	assert.True(t, in.Bindings()["big"].Equal(big))
}

func keys(m map[string]numeric.Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "SyntaxError: bad", Error{Kind: KindSyntax, Message: "bad"}.Error())
	assert.Equal(t, "bad", Error{Message: "bad"}.Error())
	assert.Equal(t, "", First(nil))
	assert.Equal(t, "a", First([]Error{{Message: "a"}, {Message: "b"}}))
}
