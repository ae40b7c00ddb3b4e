package value_test

import (
	"testing"

	"github.com/chonkie-inc/littr/internal/value"
)

func TestStrMethods(t *testing.T) {
	tests := []struct {
		recv value.Str
		name string
		args []value.Value
		want string
	}{
		{"Hello World", "upper", nil, "'HELLO WORLD'"},
		{"Hello World", "lower", nil, "'hello world'"},
		{"  hi  ", "strip", nil, "'hi'"},
		{"a,b,,c", "split", []value.Value{value.Str(",")}, "['a', 'b', '', 'c']"},
		{"abc", "replace", []value.Value{value.Str("b"), value.Str("x")}, "'axc'"},
		{"abc", "startswith", []value.Value{value.Str("ab")}, "True"},
		{"42", "isdigit", nil, "True"},
		{"x", "center", []value.Value{value.Int(5)}, "'  x  '"},
	}
	for _, tt := range tests {
		got, err := value.CallMethod(tt.recv, tt.name, tt.args, nil)
		if err != nil {
			t.Errorf("%q.%s(%v): %v", tt.recv, tt.name, tt.args, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("%q.%s(%v) = %s, want %s", tt.recv, tt.name, tt.args, got.String(), tt.want)
		}
	}
}

func TestListNonMutatingMethods(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(1), value.Int(2), value.Int(1)})
	got, err := value.CallMethod(l, "count", []value.Value{value.Int(1)}, nil)
	if err != nil || got.String() != "2" {
		t.Errorf("count(1) = %v, %v", got, err)
	}
}

func TestListMutatingAppendAndPop(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(1)})
	if _, err := value.CallMutMethod(l, "append", []value.Value{value.Int(2)}, nil, nil); err != nil {
		t.Fatal(err)
	}
	if l.String() != "[1, 2]" {
		t.Errorf("after append: %s", l.String())
	}
	popped, err := value.CallMutMethod(l, "pop", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if popped.String() != "2" {
		t.Errorf("popped = %s, want 2", popped.String())
	}
}

func TestListSortWithKey(t *testing.T) {
	l := value.NewList([]value.Value{value.Str("ccc"), value.Str("a"), value.Str("bb")})
	invoke := func(callable value.Value, args []value.Value) (value.Value, error) {
		s := args[0].(value.Str)
		return value.Int(len(string(s))), nil
	}
	kwargs := map[string]value.Value{"key": value.NativeFunction{Name: "len"}}
	if _, err := value.CallMutMethod(l, "sort", nil, kwargs, invoke); err != nil {
		t.Fatal(err)
	}
	if l.String() != "['a', 'bb', 'ccc']" {
		t.Errorf("sorted by len = %s", l.String())
	}
}

func TestDictMutatingMethods(t *testing.T) {
	d := value.NewDict()
	d.Set(value.Str("a"), value.Int(1))
	if _, err := value.CallMutMethod(d, "setdefault", []value.Value{value.Str("b"), value.Int(2)}, nil, nil); err != nil {
		t.Fatal(err)
	}
	v, ok := d.Get(value.Str("b"))
	if !ok || v.String() != "2" {
		t.Errorf("setdefault did not insert b=2: %v", d)
	}
}

func TestSetMutatingMethods(t *testing.T) {
	s := value.NewSet()
	if _, err := value.CallMutMethod(s, "add", []value.Value{value.Int(1)}, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !s.Contains(value.Int(1)) {
		t.Errorf("add(1) did not insert: %v", s)
	}
	if _, err := value.CallMutMethod(s, "remove", []value.Value{value.Int(9)}, nil, nil); err == nil {
		t.Fatal("expected KeyError removing missing element")
	}
}
