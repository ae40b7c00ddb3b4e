package builtins_test

import (
	"testing"

	"github.com/chonkie-inc/littr/internal/builtins"
	"github.com/chonkie-inc/littr/internal/value"
)

func call(t *testing.T, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := builtins.Table[name]
	if !ok {
		t.Fatalf("no builtin named %s", name)
	}
	got, err := fn(args, nil)
	if err != nil {
		t.Fatalf("%s(%v): %v", name, args, err)
	}
	return got
}

func TestLenAcrossTypes(t *testing.T) {
	if got := call(t, "len", value.Str("hello")); got.String() != "5" {
		t.Errorf("len('hello') = %s, want 5", got.String())
	}
	if got := call(t, "len", value.NewList([]value.Value{value.Int(1), value.Int(2)})); got.String() != "2" {
		t.Errorf("len([1,2]) = %s, want 2", got.String())
	}
}

func TestRangeMaterializesEagerly(t *testing.T) {
	got := call(t, "range", value.Int(0), value.Int(6), value.Int(2))
	if got.String() != "[0, 2, 4]" {
		t.Errorf("range(0,6,2) = %s, want [0, 2, 4]", got.String())
	}
}

func TestSumWithStart(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	got := call(t, "sum", l, value.Int(10))
	if got.String() != "16" {
		t.Errorf("sum([1,2,3], 10) = %s, want 16", got.String())
	}
}

func TestMinMax(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(3), value.Int(1), value.Int(2)})
	if got := call(t, "min", l); got.String() != "1" {
		t.Errorf("min = %s, want 1", got.String())
	}
	if got := call(t, "max", l); got.String() != "3" {
		t.Errorf("max = %s, want 3", got.String())
	}
}

func TestIsinstanceWithTuple(t *testing.T) {
	types := value.Tuple{Elems: []value.Value{value.Str("int"), value.Str("float")}}
	if got := call(t, "isinstance", value.Int(5), types); got.String() != "True" {
		t.Errorf("isinstance(5, (int, float)) = %s, want True", got.String())
	}
}

func TestBinHexOctNegative(t *testing.T) {
	if got := call(t, "bin", value.Int(-5)); got.String() != "'-0b101'" {
		t.Errorf("bin(-5) = %s, want '-0b101'", got.String())
	}
	if got := call(t, "hex", value.Int(255)); got.String() != "'0xff'" {
		t.Errorf("hex(255) = %s, want '0xff'", got.String())
	}
}

func TestDivmod(t *testing.T) {
	got := call(t, "divmod", value.Int(7), value.Int(2))
	if got.String() != "(3, 1)" {
		t.Errorf("divmod(7,2) = %s, want (3, 1)", got.String())
	}
}

func TestPowThreeArg(t *testing.T) {
	got := call(t, "pow", value.Int(4), value.Int(13), value.Int(497))
	if got.String() != "445" {
		t.Errorf("pow(4,13,497) = %s, want 445", got.String())
	}
}

func TestHashRejectsUnhashable(t *testing.T) {
	fn := builtins.Table["hash"]
	if _, err := fn([]value.Value{value.NewList(nil)}, nil); err == nil {
		t.Fatal("expected error hashing a list")
	}
}
