package math_test

import (
	"math"
	"testing"

	littrmath "github.com/chonkie-inc/littr/lib/math"
	"github.com/chonkie-inc/littr/internal/value"
	"github.com/chonkie-inc/littr/internal/vm"
)

func newVM() *vm.VM {
	v := vm.New()
	littrmath.Register(v)
	return v
}

func callTool(t *testing.T, v *vm.VM, name string, args ...value.Value) value.Value {
	t.Helper()
	te, ok := v.Tools[name]
	if !ok {
		t.Fatalf("no such tool: %s", name)
	}
	out, err := te.Fn(args, nil)
	if err != nil {
		t.Fatalf("%s(%v): %v", name, args, err)
	}
	return out
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestUnaryFunctions(t *testing.T) {
	v := newVM()
	cases := []struct {
		tool string
		in   float64
		want float64
	}{
		{"math.sqrt", 25, 5},
		{"math.fabs", -3, 3},
		{"math.exp", 0, 1},
		{"math.sin", 0, 0},
		{"math.cos", 0, 1},
		{"math.degrees", math.Pi, 180},
		{"math.radians", 180, math.Pi},
	}
	for _, c := range cases {
		got := callTool(t, v, c.tool, value.Float(c.in))
		f, ok := got.(value.Float)
		if !ok || !approxEqual(float64(f), c.want) {
			t.Errorf("%s(%v) = %v, want %v", c.tool, c.in, got, c.want)
		}
	}
}

func TestUnaryAcceptsInt(t *testing.T) {
	v := newVM()
	got := callTool(t, v, "math.sqrt", value.Int(16))
	if f, ok := got.(value.Float); !ok || !approxEqual(float64(f), 4) {
		t.Errorf("sqrt(16) = %v, want 4.0", got)
	}
}

func TestBinaryFunctions(t *testing.T) {
	v := newVM()
	got := callTool(t, v, "math.pow", value.Float(2), value.Float(10))
	if f, ok := got.(value.Float); !ok || !approxEqual(float64(f), 1024) {
		t.Errorf("pow(2, 10) = %v, want 1024", got)
	}
	got = callTool(t, v, "math.hypot", value.Float(3), value.Float(4))
	if f, ok := got.(value.Float); !ok || !approxEqual(float64(f), 5) {
		t.Errorf("hypot(3, 4) = %v, want 5", got)
	}
}

func TestCeilFloorPreserveIntKind(t *testing.T) {
	v := newVM()
	got := callTool(t, v, "math.ceil", value.Int(4))
	if i, ok := got.(value.Int); !ok || i != 4 {
		t.Errorf("ceil(4) = %v, want int 4", got)
	}
	got = callTool(t, v, "math.floor", value.Float(4.7))
	if i, ok := got.(value.Int); !ok || i != 4 {
		t.Errorf("floor(4.7) = %v, want int 4", got)
	}
}

func TestLogDefaultBase(t *testing.T) {
	v := newVM()
	got := callTool(t, v, "math.log", value.Float(math.E))
	if f, ok := got.(value.Float); !ok || !approxEqual(float64(f), 1) {
		t.Errorf("log(e) = %v, want 1", got)
	}
}

func TestLogBaseOneIsError(t *testing.T) {
	v := newVM()
	te := v.Tools["math.log"]
	if _, err := te.Fn([]value.Value{value.Float(8), value.Float(1)}, nil); err == nil {
		t.Errorf("log(8, base=1) should error")
	}
}

func TestConstants(t *testing.T) {
	v := newVM()
	mod := v.Modules["math"]
	e, ok := mod.Attr("e")
	if !ok || !approxEqual(float64(e.(value.Float)), math.E) {
		t.Errorf("math.e = %v, want %v", e, math.E)
	}
	pi, ok := mod.Attr("pi")
	if !ok || !approxEqual(float64(pi.(value.Float)), math.Pi) {
		t.Errorf("math.pi = %v, want %v", pi, math.Pi)
	}
}

func TestIsNanIsInf(t *testing.T) {
	v := newVM()
	mod := v.Modules["math"]
	inf, _ := mod.Attr("inf")
	nan, _ := mod.Attr("nan")
	if got := callTool(t, v, "math.isinf", inf); got != value.Bool(true) {
		t.Errorf("isinf(inf) = %v, want true", got)
	}
	if got := callTool(t, v, "math.isnan", nan); got != value.Bool(true) {
		t.Errorf("isnan(nan) = %v, want true", got)
	}
	if got := callTool(t, v, "math.isnan", value.Float(1)); got != value.Bool(false) {
		t.Errorf("isnan(1.0) = %v, want false", got)
	}
}

func TestRejectsNonNumeric(t *testing.T) {
	v := newVM()
	te := v.Tools["math.sqrt"]
	if _, err := te.Fn([]value.Value{value.Str("x")}, nil); err == nil {
		t.Errorf("sqrt(\"x\") should error")
	}
}
