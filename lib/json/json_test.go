package json_test

import (
	"testing"

	littrjson "github.com/chonkie-inc/littr/lib/json"
	"github.com/chonkie-inc/littr/internal/value"
	"github.com/chonkie-inc/littr/internal/vm"
)

func newVM() *vm.VM {
	v := vm.New()
	littrjson.Register(v)
	return v
}

func dumps(t *testing.T, v *vm.VM, val value.Value, kwargs map[string]value.Value) string {
	t.Helper()
	out, err := v.Tools["json.dumps"].Fn([]value.Value{val}, kwargs)
	if err != nil {
		t.Fatalf("dumps(%v): %v", val, err)
	}
	return string(out.(value.Str))
}

func loads(t *testing.T, v *vm.VM, text string) value.Value {
	t.Helper()
	out, err := v.Tools["json.loads"].Fn([]value.Value{value.Str(text)}, nil)
	if err != nil {
		t.Fatalf("loads(%q): %v", text, err)
	}
	return out
}

func TestDumpsScalars(t *testing.T) {
	v := newVM()
	cases := []struct {
		val  value.Value
		want string
	}{
		{value.None, "null"},
		{value.Bool(true), "true"},
		{value.Bool(false), "false"},
		{value.Int(42), "42"},
		{value.Float(1), "1.0"},
		{value.Float(2.5), "2.5"},
		{value.Str("hi"), `"hi"`},
	}
	for _, c := range cases {
		if got := dumps(t, v, c.val, nil); got != c.want {
			t.Errorf("dumps(%v) = %q, want %q", c.val, got, c.want)
		}
	}
}

func TestDumpsListAndDict(t *testing.T) {
	v := newVM()
	list := value.NewList([]value.Value{value.Int(1), value.Int(2), value.Str("x")})
	if got, want := dumps(t, v, list, nil), `[1,2,"x"]`; got != want {
		t.Errorf("dumps(list) = %q, want %q", got, want)
	}

	d := value.NewDict()
	d.Set(value.Str("a"), value.Int(1))
	d.Set(value.Str("b"), value.Bool(true))
	if got, want := dumps(t, v, d, nil), `{"a":1,"b":true}`; got != want {
		t.Errorf("dumps(dict) = %q, want %q", got, want)
	}
}

func TestDumpsIndent(t *testing.T) {
	v := newVM()
	d := value.NewDict()
	d.Set(value.Str("a"), value.Int(1))
	got := dumps(t, v, d, map[string]value.Value{"indent": value.Int(2)})
	want := "{\n  \"a\": 1\n}"
	if got != want {
		t.Errorf("dumps(indent=2) = %q, want %q", got, want)
	}
}

func TestLoadsRoundTrip(t *testing.T) {
	v := newVM()
	got := loads(t, v, `{"a": 1, "b": [1, 2.5, "x", null, true]}`)
	d, ok := got.(*value.Dict)
	if !ok {
		t.Fatalf("loads() = %T, want *value.Dict", got)
	}
	a, _ := d.Get(value.Str("a"))
	if a != value.Int(1) {
		t.Errorf("a = %v, want int 1", a)
	}
	b, _ := d.Get(value.Str("b"))
	list, ok := b.(*value.List)
	if !ok || len(list.Elems) != 5 {
		t.Fatalf("b = %v, want 5-element list", b)
	}
	if list.Elems[1] != value.Float(2.5) {
		t.Errorf("b[1] = %v, want float 2.5", list.Elems[1])
	}
	if list.Elems[3] != value.None {
		t.Errorf("b[3] = %v, want None", list.Elems[3])
	}
}

func TestLoadsInvalidJSON(t *testing.T) {
	v := newVM()
	if _, err := v.Tools["json.loads"].Fn([]value.Value{value.Str("{not json")}, nil); err == nil {
		t.Errorf("loads(invalid) should error")
	}
}

func TestDumpsRejectsNonStrKeys(t *testing.T) {
	v := newVM()
	d := value.NewDict()
	d.Set(value.Int(1), value.Str("x"))
	if _, err := v.Tools["json.dumps"].Fn([]value.Value{d}, nil); err == nil {
		t.Errorf("dumps(dict with int key) should error")
	}
}
