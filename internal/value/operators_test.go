package value_test

import (
	"testing"

	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/value"
)

func TestBinOpArithmetic(t *testing.T) {
	tests := []struct {
		op       compile.BinOp
		l, r     value.Value
		wantRepr string
	}{
		{compile.Add, value.Int(1), value.Int(2), "3"},
		{compile.Add, value.Str("a"), value.Str("b"), "'ab'"},
		{compile.Mul, value.Str("ab"), value.Int(2), "'abab'"},
		{compile.Sub, value.Int(5), value.Float(1.5), "3.5"},
		{compile.FloorDiv, value.Int(7), value.Int(2), "3"},
		{compile.Mod, value.Int(-7), value.Int(3), "2"},
		{compile.Pow, value.Int(2), value.Int(10), "1024"},
		{compile.Pow, value.Int(2), value.Int(-1), "0.5"},
	}
	for _, tt := range tests {
		got, err := value.BinOp(tt.op, tt.l, tt.r)
		if err != nil {
			t.Errorf("BinOp(%v, %v) error: %v", tt.l, tt.r, err)
			continue
		}
		if got.String() != tt.wantRepr {
			t.Errorf("BinOp(%v, %v) = %s, want %s", tt.l, tt.r, got.String(), tt.wantRepr)
		}
	}
}

func TestBinOpDivisionByZero(t *testing.T) {
	if _, err := value.BinOp(compile.Div, value.Int(1), value.Int(0)); err == nil {
		t.Fatal("expected division by zero error")
	}
	if _, err := value.BinOp(compile.Mod, value.Int(1), value.Int(0)); err == nil {
		t.Fatal("expected modulo by zero error")
	}
}

func TestBinOpListConcatAndRepeat(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(1)})
	got, err := value.BinOp(compile.Add, l, value.NewList([]value.Value{value.Int(2)}))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "[1, 2]" {
		t.Errorf("got %s, want [1, 2]", got.String())
	}
	got, err = value.BinOp(compile.Mul, value.NewList([]value.Value{value.Int(1)}), value.Int(3))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "[1, 1, 1]" {
		t.Errorf("got %s, want [1, 1, 1]", got.String())
	}
}

func TestSetOperators(t *testing.T) {
	a := value.NewSet()
	a.Add(value.Int(1))
	a.Add(value.Int(2))
	b := value.NewSet()
	b.Add(value.Int(2))
	b.Add(value.Int(3))

	union, err := value.BinOp(compile.BitOr, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if u := union.(*value.Set); len(u.Elems) != 3 {
		t.Errorf("union has %d elems, want 3", len(u.Elems))
	}

	diff, err := value.BinOp(compile.Sub, a, b)
	if err != nil {
		t.Fatal(err)
	}
	d := diff.(*value.Set)
	if len(d.Elems) != 1 || !d.Contains(value.Int(1)) {
		t.Errorf("difference = %v, want {1}", d)
	}
}

func TestUnaryOp(t *testing.T) {
	got, err := value.UnaryOp(compile.Neg, value.Int(5))
	if err != nil || got.String() != "-5" {
		t.Errorf("neg(5) = %v, %v", got, err)
	}
	got, err = value.UnaryOp(compile.Not, value.Bool(false))
	if err != nil || got.String() != "True" {
		t.Errorf("not(False) = %v, %v", got, err)
	}
	got, err = value.UnaryOp(compile.Invert, value.Int(0))
	if err != nil || got.String() != "-1" {
		t.Errorf("~0 = %v, %v", got, err)
	}
}

func TestCompareOpOrderingMembershipAndEquality(t *testing.T) {
	got, err := value.CompareOp(compile.Lt, value.Int(1), value.Int(2))
	if err != nil || !bool(got.(value.Bool)) {
		t.Errorf("1 < 2 = %v, %v", got, err)
	}
	got, err = value.CompareOp(compile.In, value.Int(2), value.NewList([]value.Value{value.Int(1), value.Int(2)}))
	if err != nil || !bool(got.(value.Bool)) {
		t.Errorf("2 in [1,2] = %v, %v", got, err)
	}
	got, err = value.CompareOp(compile.Eq, value.Int(1), value.Float(1.0))
	if err != nil || !bool(got.(value.Bool)) {
		t.Errorf("1 == 1.0 = %v, %v", got, err)
	}
}
