package value

import (
	"fmt"
	"math"

	"github.com/chonkie-inc/littr/internal/compile"
)

// BinOp applies a binary operator to two values, following the
// promotion/coercion rules of spec.md §4.1.
func BinOp(op compile.BinOp, left, right Value) (Value, error) {
	switch op {
	case compile.Add:
		return add(left, right)
	case compile.Sub:
		return sub(left, right)
	case compile.Mul:
		return mul(left, right)
	case compile.Div:
		return div(left, right)
	case compile.FloorDiv:
		return floorDiv(left, right)
	case compile.Mod:
		return mod(left, right)
	case compile.Pow:
		return pow(left, right)
	case compile.BitOr:
		return setOrBit(left, right, "|", func(a, b int64) int64 { return a | b })
	case compile.BitXor:
		return setOrBit(left, right, "^", func(a, b int64) int64 { return a ^ b })
	case compile.BitAnd:
		return setOrBit(left, right, "&", func(a, b int64) int64 { return a & b })
	case compile.LShift:
		return intBinOp(left, right, "<<", func(a, b int64) (int64, error) { return a << uint(b), nil })
	case compile.RShift:
		return intBinOp(left, right, ">>", func(a, b int64) (int64, error) { return a >> uint(b), nil })
	}
	return nil, fmt.Errorf("unknown binary operator")
}

func typeErr(op string, left, right Value) error {
	return fmt.Errorf("TypeError: unsupported operand type(s) for %s: '%s' and '%s'", op, left.Type(), right.Type())
}

func add(left, right Value) (Value, error) {
	if ls, ok := left.(Str); ok {
		if rs, ok := right.(Str); ok {
			return ls + rs, nil
		}
		return nil, typeErr("+", left, right)
	}
	if ll, ok := left.(*List); ok {
		if rl, ok := right.(*List); ok {
			out := append(append([]Value{}, ll.Elems...), rl.Elems...)
			return &List{Elems: out}, nil
		}
		return nil, typeErr("+", left, right)
	}
	if lt, ok := left.(Tuple); ok {
		if rt, ok := right.(Tuple); ok {
			out := append(append([]Value{}, lt.Elems...), rt.Elems...)
			return Tuple{Elems: out}, nil
		}
		return nil, typeErr("+", left, right)
	}
	return numericBinOp(left, right, "+", func(a, b int64) (int64, bool) { return a + b, true }, func(a, b float64) float64 { return a + b })
}

func sub(left, right Value) (Value, error) {
	if ls, ok := left.(*Set); ok {
		if rs, ok := right.(*Set); ok {
			out := NewSet()
			for _, e := range ls.Elems {
				if !rs.Contains(e) {
					out.Add(e)
				}
			}
			return out, nil
		}
		return nil, typeErr("-", left, right)
	}
	return numericBinOp(left, right, "-", func(a, b int64) (int64, bool) { return a - b, true }, func(a, b float64) float64 { return a - b })
}

func mul(left, right Value) (Value, error) {
	if s, n, ok := strAndInt(left, right); ok {
		if n <= 0 {
			return Str(""), nil
		}
		return Str(repeatStr(string(s), int(n))), nil
	}
	if l, n, ok := listAndInt(left, right); ok {
		if n <= 0 {
			return &List{}, nil
		}
		out := make([]Value, 0, len(l.Elems)*int(n))
		for i := int64(0); i < n; i++ {
			for _, e := range l.Elems {
				out = append(out, Clone(e))
			}
		}
		return &List{Elems: out}, nil
	}
	if t, n, ok := tupleAndInt(left, right); ok {
		if n <= 0 {
			return Tuple{}, nil
		}
		out := make([]Value, 0, len(t.Elems)*int(n))
		for i := int64(0); i < n; i++ {
			out = append(out, t.Elems...)
		}
		return Tuple{Elems: out}, nil
	}
	return numericBinOp(left, right, "*", func(a, b int64) (int64, bool) { return a * b, true }, func(a, b float64) float64 { return a * b })
}

func strAndInt(a, b Value) (Str, int64, bool) {
	if s, ok := a.(Str); ok {
		if n, ok := asInt(b); ok {
			return s, n, true
		}
	}
	if s, ok := b.(Str); ok {
		if n, ok := asInt(a); ok {
			return s, n, true
		}
	}
	return "", 0, false
}

func listAndInt(a, b Value) (*List, int64, bool) {
	if l, ok := a.(*List); ok {
		if n, ok := asInt(b); ok {
			return l, n, true
		}
	}
	if l, ok := b.(*List); ok {
		if n, ok := asInt(a); ok {
			return l, n, true
		}
	}
	return nil, 0, false
}

func tupleAndInt(a, b Value) (Tuple, int64, bool) {
	if t, ok := a.(Tuple); ok {
		if n, ok := asInt(b); ok {
			return t, n, true
		}
	}
	if t, ok := b.(Tuple); ok {
		if n, ok := asInt(a); ok {
			return t, n, true
		}
	}
	return Tuple{}, 0, false
}

func asInt(v Value) (int64, bool) {
	switch x := v.(type) {
	case Int:
		return int64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func repeatStr(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func div(left, right Value) (Value, error) {
	lf, lok := asNumber(left)
	rf, rok := asNumber(right)
	if !lok || !rok {
		return nil, typeErr("/", left, right)
	}
	if rf == 0 {
		return nil, &DivisionByZeroError{}
	}
	return Float(lf / rf), nil
}

func floorDiv(left, right Value) (Value, error) {
	li, lIsInt := left.(Int)
	ri, rIsInt := right.(Int)
	if lIsInt && rIsInt {
		if ri == 0 {
			return nil, &DivisionByZeroError{}
		}
		q := float64(li) / float64(ri)
		return Int(int64(math.Floor(q))), nil
	}
	lf, lok := asNumber(left)
	rf, rok := asNumber(right)
	if !lok || !rok {
		return nil, typeErr("//", left, right)
	}
	if rf == 0 {
		return nil, &DivisionByZeroError{}
	}
	return Float(math.Floor(lf / rf)), nil
}

func mod(left, right Value) (Value, error) {
	li, lIsInt := left.(Int)
	ri, rIsInt := right.(Int)
	if lIsInt && rIsInt {
		if ri == 0 {
			return nil, &DivisionByZeroError{}
		}
		m := int64(li) % int64(ri)
		if m != 0 && (m < 0) != (int64(ri) < 0) {
			m += int64(ri)
		}
		return Int(m), nil
	}
	lf, lok := asNumber(left)
	rf, rok := asNumber(right)
	if !lok || !rok {
		return nil, typeErr("%", left, right)
	}
	if rf == 0 {
		return nil, &DivisionByZeroError{}
	}
	m := math.Mod(lf, rf)
	if m != 0 && (m < 0) != (rf < 0) {
		m += rf
	}
	return Float(m), nil
}

func pow(left, right Value) (Value, error) {
	li, lIsInt := left.(Int)
	ri, rIsInt := right.(Int)
	if lIsInt && rIsInt && ri >= 0 {
		result := int64(1)
		base := int64(li)
		exact := true
		for i := int64(0); i < int64(ri); i++ {
			next := result * base
			if base != 0 && next/base != result {
				exact = false
				break
			}
			result = next
		}
		if exact {
			return Int(result), nil
		}
	}
	lf, lok := asNumber(left)
	rf, rok := asNumber(right)
	if !lok || !rok {
		return nil, typeErr("**", left, right)
	}
	return Float(math.Pow(lf, rf)), nil
}

func setOrBit(left, right Value, sym string, f func(a, b int64) int64) (Value, error) {
	if ls, ok := left.(*Set); ok {
		if rs, ok := right.(*Set); ok {
			return setBitwise(ls, rs, sym), nil
		}
		return nil, typeErr(sym, left, right)
	}
	return intBinOp(left, right, sym, func(a, b int64) (int64, error) { return f(a, b), nil })
}

func setBitwise(a, b *Set, sym string) *Set {
	out := NewSet()
	switch sym {
	case "-":
		for _, e := range a.Elems {
			if !b.Contains(e) {
				out.Add(e)
			}
		}
	case "|":
		for _, e := range a.Elems {
			out.Add(e)
		}
		for _, e := range b.Elems {
			out.Add(e)
		}
	case "&":
		for _, e := range a.Elems {
			if b.Contains(e) {
				out.Add(e)
			}
		}
	case "^":
		for _, e := range a.Elems {
			if !b.Contains(e) {
				out.Add(e)
			}
		}
		for _, e := range b.Elems {
			if !a.Contains(e) {
				out.Add(e)
			}
		}
	}
	return out
}

func intBinOp(left, right Value, sym string, f func(a, b int64) (int64, error)) (Value, error) {
	li, lok := asInt(left)
	ri, rok := asInt(right)
	if !lok || !rok {
		return nil, typeErr(sym, left, right)
	}
	v, err := f(li, ri)
	if err != nil {
		return nil, err
	}
	return Int(v), nil
}

func numericBinOp(left, right Value, sym string, fi func(a, b int64) (int64, bool), ff func(a, b float64) float64) (Value, error) {
	li, lIsInt := left.(Int)
	ri, rIsInt := right.(Int)
	if lIsInt && rIsInt {
		if v, ok := fi(int64(li), int64(ri)); ok {
			return Int(v), nil
		}
	}
	lf, lok := asNumber(left)
	rf, rok := asNumber(right)
	if !lok || !rok {
		return nil, typeErr(sym, left, right)
	}
	return Float(ff(lf, rf)), nil
}

// UnaryOp applies not/neg/pos/invert.
func UnaryOp(op compile.UnaryOp, v Value) (Value, error) {
	switch op {
	case compile.Not:
		return Bool(!Truth(v)), nil
	case compile.Pos:
		switch v.(type) {
		case Int, Float:
			return v, nil
		}
		return nil, fmt.Errorf("TypeError: bad operand type for unary +: '%s'", v.Type())
	case compile.Neg:
		switch x := v.(type) {
		case Int:
			return -x, nil
		case Float:
			return -x, nil
		case Bool:
			if x {
				return Int(-1), nil
			}
			return Int(0), nil
		}
		return nil, fmt.Errorf("TypeError: bad operand type for unary -: '%s'", v.Type())
	case compile.Invert:
		n, ok := asInt(v)
		if !ok {
			return nil, fmt.Errorf("TypeError: bad operand type for unary ~: '%s'", v.Type())
		}
		return Int(^n), nil
	}
	return nil, fmt.Errorf("unknown unary operator")
}

// CompareOp applies ==, !=, <, <=, >, >=, in, not in, is, is not.
func CompareOp(op compile.CmpOp, left, right Value) (Value, error) {
	switch op {
	case compile.Eq:
		return Bool(Equal(left, right)), nil
	case compile.NotEq:
		return Bool(!Equal(left, right)), nil
	case compile.Is:
		_, lNone := left.(NoneVal)
		_, rNone := right.(NoneVal)
		return Bool(lNone && rNone), nil
	case compile.IsNot:
		_, lNone := left.(NoneVal)
		_, rNone := right.(NoneVal)
		return Bool(!(lNone && rNone)), nil
	case compile.In, compile.NotIn:
		in, err := contains(right, left)
		if err != nil {
			return nil, err
		}
		if op == compile.NotIn {
			in = !in
		}
		return Bool(in), nil
	default:
		if setL, ok := left.(*Set); ok {
			if setR, ok := right.(*Set); ok {
				return compareSets(op, setL, setR)
			}
		}
		c, err := Compare(left, right)
		if err != nil {
			return nil, err
		}
		switch op {
		case compile.Lt:
			return Bool(c < 0), nil
		case compile.LtE:
			return Bool(c <= 0), nil
		case compile.Gt:
			return Bool(c > 0), nil
		case compile.GtE:
			return Bool(c >= 0), nil
		}
	}
	return nil, fmt.Errorf("unknown comparison operator")
}

func compareSets(op compile.CmpOp, a, b *Set) (Value, error) {
	subset := func(x, y *Set) bool {
		for _, e := range x.Elems {
			if !y.Contains(e) {
				return false
			}
		}
		return true
	}
	switch op {
	case compile.Lt:
		return Bool(subset(a, b) && len(a.Elems) < len(b.Elems)), nil
	case compile.LtE:
		return Bool(subset(a, b)), nil
	case compile.Gt:
		return Bool(subset(b, a) && len(a.Elems) > len(b.Elems)), nil
	case compile.GtE:
		return Bool(subset(b, a)), nil
	}
	return nil, fmt.Errorf("unsupported set comparison")
}

// contains implements `needle in haystack` for list/tuple/set/str/dict
// (keys).
func contains(haystack, needle Value) (bool, error) {
	switch h := haystack.(type) {
	case *List:
		for _, e := range h.Elems {
			if Equal(e, needle) {
				return true, nil
			}
		}
		return false, nil
	case Tuple:
		for _, e := range h.Elems {
			if Equal(e, needle) {
				return true, nil
			}
		}
		return false, nil
	case *Set:
		return h.Contains(needle), nil
	case *Dict:
		return h.Index(needle) >= 0, nil
	case Str:
		ns, ok := needle.(Str)
		if !ok {
			return false, fmt.Errorf("'in <string>' requires string as left operand, not %s", needle.Type())
		}
		return stringsContains(string(h), string(ns)), nil
	}
	return false, fmt.Errorf("argument of type '%s' is not iterable", haystack.Type())
}

func stringsContains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	hr := []rune(haystack)
	nr := []rune(needle)
	if len(nr) > len(hr) {
		return false
	}
	for i := 0; i+len(nr) <= len(hr); i++ {
		match := true
		for j := range nr {
			if hr[i+j] != nr[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// DivisionByZeroError is the dedicated error variant spec.md §7 requires
// for division/modulo by zero, mapping to ZeroDivisionError.
type DivisionByZeroError struct{}

func (*DivisionByZeroError) Error() string { return "ZeroDivisionError: division by zero" }
