// Package value defines the runtime value model of the sandboxed
// language: a tagged variant with None/Bool/Int/Float/Str/List/Tuple/
// Set/Dict/File/Function/NativeFunction/Module cases, plus the
// predicates (truthiness, hashability, equality, ordering, display) that
// every other component builds on. See spec.md §3.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chonkie-inc/littr/internal/compile"
)

// Value is any runtime value the VM can push onto its stack.
type Value interface {
	Type() string
	// String returns the repr-style display (quoted strings, Python
	// literal syntax for containers).
	String() string
}

// None is the sandbox's NoneType singleton value.
type NoneVal struct{}

var None = NoneVal{}

func (NoneVal) Type() string   { return "NoneType" }
func (NoneVal) String() string { return "None" }

// Bool is a subtype of Int (truth 1/0) per spec.md §3.
type Bool bool

func (b Bool) Type() string { return "bool" }
func (b Bool) String() string {
	if b {
		return "True"
	}
	return "False"
}

type Int int64

func (Int) Type() string     { return "int" }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

type Float float64

func (Float) Type() string { return "float" }
func (f Float) String() string {
	v := float64(f)
	if v == float64(int64(v)) && !strings.ContainsAny(strconv.FormatFloat(v, 'g', -1, 64), "eE") {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type Str string

func (Str) Type() string { return "str" }
func (s Str) String() string {
	return quote(string(s))
}

func quote(s string) string {
	quoteCh := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quoteCh = '"'
	}
	var b strings.Builder
	b.WriteByte(quoteCh)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case rune(quoteCh):
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quoteCh)
	return b.String()
}

// List is an ordered, mutable sequence.
type List struct{ Elems []Value }

func NewList(elems []Value) *List { return &List{Elems: elems} }

func (*List) Type() string { return "list" }
func (l *List) String() string {
	return "[" + joinRepr(l.Elems) + "]"
}

// Tuple is an ordered, immutable sequence.
type Tuple struct{ Elems []Value }

func (Tuple) Type() string { return "tuple" }
func (t Tuple) String() string {
	if len(t.Elems) == 1 {
		return "(" + t.Elems[0].String() + ",)"
	}
	return "(" + joinRepr(t.Elems) + ")"
}

// Set is an ordered sequence with no two structurally-equal elements.
type Set struct{ Elems []Value }

func NewSet() *Set { return &Set{} }

func (*Set) Type() string { return "set" }
func (s *Set) String() string {
	if len(s.Elems) == 0 {
		return "set()"
	}
	return "{" + joinRepr(s.Elems) + "}"
}

// Add inserts v if no structurally-equal element is already present.
// Reports whether the value was added.
func (s *Set) Add(v Value) bool {
	for _, e := range s.Elems {
		if Equal(e, v) {
			return false
		}
	}
	s.Elems = append(s.Elems, v)
	return true
}

func (s *Set) Contains(v Value) bool {
	for _, e := range s.Elems {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

func (s *Set) Remove(v Value) bool {
	for i, e := range s.Elems {
		if Equal(e, v) {
			s.Elems = append(s.Elems[:i], s.Elems[i+1:]...)
			return true
		}
	}
	return false
}

// Dict is an ordered sequence of (key, value) pairs; first insertion of a
// key wins its position, later assignment updates the value in place.
type Dict struct {
	Keys []Value
	Vals []Value
}

func NewDict() *Dict { return &Dict{} }

func (*Dict) Type() string { return "dict" }
func (d *Dict) String() string {
	parts := make([]string, len(d.Keys))
	for i := range d.Keys {
		parts[i] = d.Keys[i].String() + ": " + d.Vals[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *Dict) Index(key Value) int {
	for i, k := range d.Keys {
		if Equal(k, key) {
			return i
		}
	}
	return -1
}

func (d *Dict) Get(key Value) (Value, bool) {
	i := d.Index(key)
	if i < 0 {
		return nil, false
	}
	return d.Vals[i], true
}

func (d *Dict) Set(key, val Value) {
	if i := d.Index(key); i >= 0 {
		d.Vals[i] = val
		return
	}
	d.Keys = append(d.Keys, key)
	d.Vals = append(d.Vals, val)
}

func (d *Dict) Delete(key Value) bool {
	i := d.Index(key)
	if i < 0 {
		return false
	}
	d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
	d.Vals = append(d.Vals[:i], d.Vals[i+1:]...)
	return true
}

// File is an opaque handle into the sandbox's open-file table.
type File struct{ Handle int }

func (File) Type() string   { return "file" }
func (f File) String() string { return fmt.Sprintf("<file handle=%d>", f.Handle) }

// Function is a user-defined callable: an owned compiled definition.
type Function struct {
	Def *compile.FunctionDef
}

func (*Function) Type() string     { return "function" }
func (f *Function) String() string { return fmt.Sprintf("<function %s>", f.Def.Name) }

// NativeFunction references a host tool by name; the VM resolves the
// actual callback through the sandbox's tool table.
type NativeFunction struct{ Name string }

func (NativeFunction) Type() string     { return "function" }
func (n NativeFunction) String() string { return fmt.Sprintf("<built-in function %s>", n.Name) }

// Module is a namespace value: a name plus an ordered list of attributes.
type Module struct {
	Name  string
	Attrs []ModuleAttr
}
type ModuleAttr struct {
	Name  string
	Value Value
}

func (*Module) Type() string     { return "module" }
func (m *Module) String() string { return fmt.Sprintf("<module %s>", m.Name) }

func (m *Module) Attr(name string) (Value, bool) {
	for _, a := range m.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

func joinRepr(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// Display renders v the way `print` does: like String() except a bare
// Str has its quotes stripped.
func Display(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return v.String()
}

// SortedCopy is a small helper that returns a stably sorted copy of vs;
// list.sort uses it.
func SortedCopy(vs []Value, less func(a, b Value) bool) []Value {
	out := make([]Value, len(vs))
	copy(out, vs)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
