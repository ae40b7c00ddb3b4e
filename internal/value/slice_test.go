package value_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chonkie-inc/littr/internal/value"
)

func TestSubscriptListNegativeIndex(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(10), value.Int(20), value.Int(30)})
	got, err := value.Subscript(l, value.Int(-1))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "30" {
		t.Errorf("l[-1] = %s, want 30", got.String())
	}
}

func TestSubscriptOutOfRange(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(1)})
	if _, err := value.Subscript(l, value.Int(5)); err == nil {
		t.Fatal("expected IndexError")
	}
}

func TestSubscriptStrIsCodePointBased(t *testing.T) {
	s := value.Str("héllo")
	got, err := value.Subscript(s, value.Int(1))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "'é'" {
		t.Errorf("s[1] = %s, want 'é'", got.String())
	}
}

func TestStoreSubscriptList(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(1), value.Int(2)})
	if err := value.StoreSubscript(l, value.Int(0), value.Int(99)); err != nil {
		t.Fatal(err)
	}
	if l.Elems[0].String() != "99" {
		t.Errorf("l[0] = %s, want 99", l.Elems[0].String())
	}
}

func TestStoreSubscriptTupleRejected(t *testing.T) {
	tup := value.Tuple{Elems: []value.Value{value.Int(1)}}
	if err := value.StoreSubscript(tup, value.Int(0), value.Int(2)); err == nil {
		t.Fatal("expected error assigning into a tuple")
	}
}

func TestSliceListBasic(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(0), value.Int(1), value.Int(2), value.Int(3), value.Int(4)})
	got, err := value.Slice(l, value.Int(1), value.Int(4), value.None)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "[1, 2, 3]" {
		t.Errorf("l[1:4] = %s, want [1, 2, 3]", got.String())
	}
}

func TestSliceNegativeStep(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(0), value.Int(1), value.Int(2)})
	got, err := value.Slice(l, value.None, value.None, value.Int(-1))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "[2, 1, 0]" {
		t.Errorf("l[::-1] = %s, want [2, 1, 0]", got.String())
	}
}

func TestSliceStr(t *testing.T) {
	got, err := value.Slice(value.Str("hello"), value.Int(1), value.Int(-1), value.None)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "'ell'" {
		t.Errorf("'hello'[1:-1] = %s, want 'ell'", got.String())
	}
}

func TestSliceZeroStepRejected(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(0)})
	if _, err := value.Slice(l, value.None, value.None, value.Int(0)); err == nil {
		t.Fatal("expected zero-step error")
	}
}

func TestSliceRoundTrip(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(0), value.Int(1), value.Int(2), value.Int(3), value.Int(4)})
	for k := 0; k <= len(l.Elems); k++ {
		head, err := value.Slice(l, value.None, value.Int(k), value.None)
		if err != nil {
			t.Fatal(err)
		}
		tail, err := value.Slice(l, value.Int(k), value.None, value.None)
		if err != nil {
			t.Fatal(err)
		}
		got := append(append([]value.Value{}, head.(*value.List).Elems...), tail.(*value.List).Elems...)
		if diff := cmp.Diff(l.Elems, got); diff != "" {
			t.Errorf("L[:%d] + L[%d:] got diff (-want +got):\n%s", k, k, diff)
		}
	}

	reversedTwice, err := value.Slice(l, value.None, value.None, value.Int(-1))
	if err != nil {
		t.Fatal(err)
	}
	reversedTwice, err = value.Slice(reversedTwice, value.None, value.None, value.Int(-1))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(l.Elems, reversedTwice.(*value.List).Elems); diff != "" {
		t.Errorf("L[::-1][::-1] got diff (-want +got):\n%s", diff)
	}
}
