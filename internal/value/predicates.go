package value

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/chonkie-inc/littr/internal/compile"
)

// Truth implements Python-style truthiness: Int/Bool are truthy iff
// nonzero, Float iff nonzero and finite, containers/strings iff nonempty,
// None is always falsy, everything else (Function, Module, File) is
// truthy.
func Truth(v Value) bool {
	switch x := v.(type) {
	case NoneVal:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0 && !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
	case Str:
		return len(x) > 0
	case *List:
		return len(x.Elems) > 0
	case Tuple:
		return len(x.Elems) > 0
	case *Set:
		return len(x.Elems) > 0
	case *Dict:
		return len(x.Keys) > 0
	default:
		return true
	}
}

// IsHashable reports whether v may be used as a Dict key or Set element.
// Per spec.md §3, every value is hashable except List, Dict, Set,
// Function, Module, File.
func IsHashable(v Value) bool {
	switch v.(type) {
	case *List, *Dict, *Set, *Function, *Module, File:
		return false
	default:
		return true
	}
}

// Hash computes a process-lifetime-stable hash of v. Dict and Set do not
// use it (they find keys with linear Equal scans, not buckets); it is
// exposed to sandbox scripts only via the `hash()` builtin.
func Hash(v Value) (uint32, error) {
	if !IsHashable(v) {
		return 0, fmt.Errorf("unhashable type: %s", v.Type())
	}
	h := fnv.New32a()
	switch x := v.(type) {
	case NoneVal:
		h.Write([]byte{0})
	case Bool:
		if x {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case Int:
		fmt.Fprintf(h, "i%d", int64(x))
	case Float:
		if float64(x) == math.Trunc(float64(x)) {
			fmt.Fprintf(h, "i%d", int64(x))
		} else {
			fmt.Fprintf(h, "f%v", float64(x))
		}
	case Str:
		h.Write([]byte(x))
	case Tuple:
		h.Write([]byte{'t'})
		for _, e := range x.Elems {
			sub, err := Hash(e)
			if err != nil {
				return 0, err
			}
			fmt.Fprintf(h, "%d,", sub)
		}
	case NativeFunction:
		fmt.Fprintf(h, "nf%s", x.Name)
	default:
		return 0, fmt.Errorf("unhashable type: %s", v.Type())
	}
	return h.Sum32(), nil
}

// Equal is structural equality: Int and Float interoperate numerically,
// Bool compares as its Int truth value, containers compare element-wise.
func Equal(a, b Value) bool {
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			return af == bf
		}
	}
	switch x := a.(type) {
	case NoneVal:
		_, ok := b.(NoneVal)
		return ok
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		return ok && equalSlice(x.Elems, y.Elems)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && equalSlice(x.Elems, y.Elems)
	case *Set:
		y, ok := b.(*Set)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for _, e := range x.Elems {
			if !y.Contains(e) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || len(x.Keys) != len(y.Keys) {
			return false
		}
		for i, k := range x.Keys {
			yv, found := y.Get(k)
			if !found || !Equal(x.Vals[i], yv) {
				return false
			}
		}
		return true
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	case NativeFunction:
		y, ok := b.(NativeFunction)
		return ok && x.Name == y.Name
	case *Module:
		y, ok := b.(*Module)
		return ok && x == y
	case File:
		y, ok := b.(File)
		return ok && x == y
	}
	return false
}

func equalSlice(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// asNumber reports (float64 value, ok) for Int/Bool/Float so arithmetic
// and equality can treat them interchangeably, mirroring Python's
// numeric tower for this subset.
func asNumber(v Value) (float64, bool) {
	switch x := v.(type) {
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	case Int:
		return float64(x), true
	case Float:
		return float64(x), true
	}
	return 0, false
}

// Compare returns -1/0/1 for ordered types (numbers, Str, List, Tuple);
// it is used by <, <=, >, >= and by sorted()/list.sort().
func Compare(a, b Value) (int, error) {
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if as, ok := a.(Str); ok {
		if bs, ok := b.(Str); ok {
			switch {
			case as < bs:
				return -1, nil
			case as > bs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if al, ok := sequenceElems(a); ok {
		if bl, ok := sequenceElems(b); ok {
			n := len(al)
			if len(bl) < n {
				n = len(bl)
			}
			for i := 0; i < n; i++ {
				c, err := Compare(al[i], bl[i])
				if err != nil {
					return 0, err
				}
				if c != 0 {
					return c, nil
				}
			}
			switch {
			case len(al) < len(bl):
				return -1, nil
			case len(al) > len(bl):
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, fmt.Errorf("'<' not supported between instances of '%s' and '%s'", a.Type(), b.Type())
}

func sequenceElems(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case *List:
		return x.Elems, true
	case Tuple:
		return x.Elems, true
	}
	return nil, false
}

// FromConst converts a compiler constant literal into a runtime Value.
// Composite constants (used only for constant-folded default argument
// values) are converted recursively.
func FromConst(c compile.Const) Value {
	switch x := c.(type) {
	case compile.ConstNone:
		return None
	case compile.ConstBool:
		return Bool(x)
	case compile.ConstInt:
		return Int(x)
	case compile.ConstFloat:
		return Float(x)
	case compile.ConstStr:
		return Str(x)
	case compile.ConstTuple:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = FromConst(e)
		}
		return Tuple{Elems: elems}
	case compile.ConstList:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = FromConst(e)
		}
		return &List{Elems: elems}
	case compile.ConstDict:
		d := NewDict()
		for i := range x.Keys {
			d.Set(FromConst(x.Keys[i]), FromConst(x.Vals[i]))
		}
		return d
	}
	return None
}

// Clone performs the semantic deep-copy spec.md's Design Notes calls for:
// every assignment copies the value into its slot, so lists/dicts/sets
// can never form cycles and may be cloned freely. A Tuple is copied
// element-wise, since it may hold mutable containers. Scalars and the
// other immutable values (Str, Function, Module, NativeFunction, File)
// are returned as-is since Go already treats them as values or since
// they are never mutated in place.
func Clone(v Value) Value {
	switch x := v.(type) {
	case *List:
		elems := make([]Value, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = Clone(e)
		}
		return &List{Elems: elems}
	case *Set:
		elems := make([]Value, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = Clone(e)
		}
		return &Set{Elems: elems}
	case *Dict:
		d := NewDict()
		for i, k := range x.Keys {
			d.Set(Clone(k), Clone(x.Vals[i]))
		}
		return d
	case Tuple:
		elems := make([]Value, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = Clone(e)
		}
		return Tuple{Elems: elems}
	default:
		return v
	}
}

// TypeName is an alias for v.Type(), kept as a free function for callers
// such as isinstance/type() and error messages.
func TypeName(v Value) string { return v.Type() }
