// Package builtins implements the deterministic, pure free functions of
// spec.md §4.4. The callable-taking builtins (sorted, map, filter, open)
// and print are VM-routed instead: they live in internal/vm because they
// need the engine's own state (to re-enter the interpreter, or to own
// the per-sandbox print buffer).
package builtins

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/value"
)

// Func is the signature every deterministic builtin implements.
type Func func(args []value.Value, kwargs map[string]value.Value) (value.Value, error)

// Table maps builtin name to implementation; the VM consults this before
// falling back to tools and user/native functions (spec.md §9 dispatch
// order).
var Table = map[string]Func{
	"len":        builtinLen,
	"str":        builtinStr,
	"int":        builtinInt,
	"float":      builtinFloat,
	"bool":       builtinBool,
	"list":       builtinList,
	"tuple":      builtinTuple,
	"set":        builtinSet,
	"range":      builtinRange,
	"enumerate":  builtinEnumerate,
	"zip":        builtinZip,
	"reversed":   builtinReversed,
	"any":        builtinAny,
	"all":        builtinAll,
	"abs":        builtinAbs,
	"min":        builtinMinMax(false),
	"max":        builtinMinMax(true),
	"sum":        builtinSum,
	"isinstance": builtinIsinstance,
	"type":       builtinType,
	"repr":       builtinRepr,
	"bin":        builtinBin,
	"hex":        builtinHex,
	"oct":        builtinOct,
	"divmod":     builtinDivmod,
	"pow":        builtinPow,
	"hash":       builtinHash,
}

func builtinLen(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len() takes exactly one argument (%d given)", len(args))
	}
	switch x := args[0].(type) {
	case value.Str:
		return value.Int(len([]rune(string(x)))), nil
	case *value.List:
		return value.Int(len(x.Elems)), nil
	case value.Tuple:
		return value.Int(len(x.Elems)), nil
	case *value.Set:
		return value.Int(len(x.Elems)), nil
	case *value.Dict:
		return value.Int(len(x.Keys)), nil
	}
	return nil, fmt.Errorf("object of type '%s' has no len()", args[0].Type())
}

func builtinStr(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Str(""), nil
	}
	return value.Str(value.Display(args[0])), nil
}

func builtinRepr(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("repr() takes exactly one argument")
	}
	return value.Str(args[0].String()), nil
}

func builtinInt(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(0), nil
	}
	switch x := args[0].(type) {
	case value.Int:
		return x, nil
	case value.Bool:
		if x {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.Float:
		return value.Int(int64(x)), nil
	case value.Str:
		base := 10
		if len(args) > 1 {
			if n, ok := asInt(args[1]); ok {
				base = int(n)
			}
		}
		n, err := strconv.ParseInt(strings.TrimSpace(string(x)), base, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for int() with base %d: %s", base, x.String())
		}
		return value.Int(n), nil
	}
	return nil, fmt.Errorf("int() argument must be a string or a number, not '%s'", args[0].Type())
}

func builtinFloat(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Float(0), nil
	}
	switch x := args[0].(type) {
	case value.Float:
		return x, nil
	case value.Int:
		return value.Float(float64(x)), nil
	case value.Bool:
		if x {
			return value.Float(1), nil
		}
		return value.Float(0), nil
	case value.Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, fmt.Errorf("could not convert string to float: %s", x.String())
		}
		return value.Float(f), nil
	}
	return nil, fmt.Errorf("float() argument must be a string or a number, not '%s'", args[0].Type())
}

func builtinBool(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Bool(false), nil
	}
	return value.Bool(value.Truth(args[0])), nil
}

func builtinList(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewList(nil), nil
	}
	elems, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	return value.NewList(elems), nil
}

func builtinTuple(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Tuple{}, nil
	}
	elems, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	return value.Tuple{Elems: elems}, nil
}

func builtinSet(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	s := value.NewSet()
	if len(args) == 0 {
		return s, nil
	}
	elems, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if !value.IsHashable(e) {
			return nil, fmt.Errorf("unhashable type: '%s'", e.Type())
		}
		s.Add(e)
	}
	return s, nil
}

func builtinRange(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		n, ok := asInt(args[0])
		if !ok {
			return nil, fmt.Errorf("range() integer argument expected")
		}
		stop = n
	case 2, 3:
		s, ok := asInt(args[0])
		if !ok {
			return nil, fmt.Errorf("range() integer argument expected")
		}
		e, ok := asInt(args[1])
		if !ok {
			return nil, fmt.Errorf("range() integer argument expected")
		}
		start, stop = s, e
		if len(args) == 3 {
			st, ok := asInt(args[2])
			if !ok || st == 0 {
				return nil, fmt.Errorf("range() arg 3 must not be zero")
			}
			step = st
		}
	default:
		return nil, fmt.Errorf("range expected 1 to 3 arguments, got %d", len(args))
	}
	var elems []value.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			elems = append(elems, value.Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			elems = append(elems, value.Int(i))
		}
	}
	return value.NewList(elems), nil
}

func builtinEnumerate(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("enumerate() missing required argument")
	}
	start := int64(0)
	if len(args) > 1 {
		if n, ok := asInt(args[1]); ok {
			start = n
		}
	}
	elems, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		out[i] = value.Tuple{Elems: []value.Value{value.Int(start + int64(i)), e}}
	}
	return value.NewList(out), nil
}

func builtinZip(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	seqs := make([][]value.Value, len(args))
	minLen := -1
	for i, a := range args {
		elems, err := iterate(a)
		if err != nil {
			return nil, err
		}
		seqs[i] = elems
		if minLen < 0 || len(elems) < minLen {
			minLen = len(elems)
		}
	}
	if minLen < 0 {
		minLen = 0
	}
	out := make([]value.Value, minLen)
	for i := 0; i < minLen; i++ {
		tup := make([]value.Value, len(seqs))
		for j := range seqs {
			tup[j] = seqs[j][i]
		}
		out[i] = value.Tuple{Elems: tup}
	}
	return value.NewList(out), nil
}

func builtinReversed(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("reversed() takes exactly one argument")
	}
	elems, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		out[len(elems)-1-i] = e
	}
	return value.NewList(out), nil
}

func builtinAny(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	elems, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if value.Truth(e) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func builtinAll(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	elems, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if !value.Truth(e) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func builtinAbs(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("abs() takes exactly one argument")
	}
	switch x := args[0].(type) {
	case value.Int:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case value.Float:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case value.Bool:
		if x {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	}
	return nil, fmt.Errorf("bad operand type for abs(): '%s'", args[0].Type())
}

func builtinMinMax(wantMax bool) Func {
	return func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		var elems []value.Value
		if len(args) == 1 {
			var err error
			elems, err = iterate(args[0])
			if err != nil {
				return nil, err
			}
		} else {
			elems = args
		}
		if len(elems) == 0 {
			if d, ok := kwargs["default"]; ok {
				return d, nil
			}
			name := "min"
			if wantMax {
				name = "max"
			}
			return nil, fmt.Errorf("%s() arg is an empty sequence", name)
		}
		best := elems[0]
		for _, e := range elems[1:] {
			c, err := value.Compare(e, best)
			if err != nil {
				return nil, err
			}
			if (wantMax && c > 0) || (!wantMax && c < 0) {
				best = e
			}
		}
		return best, nil
	}
}

func builtinSum(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	elems, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	var acc value.Value = value.Int(0)
	if len(args) > 1 {
		acc = args[1]
	}
	for _, e := range elems {
		acc, err = value.BinOp(compile.Add, acc, e)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func builtinIsinstance(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("isinstance() takes exactly two arguments")
	}
	names, err := typeNames(args[1])
	if err != nil {
		return nil, err
	}
	actual := args[0].Type()
	for _, n := range names {
		if n == actual || (n == "number" && (actual == "int" || actual == "float" || actual == "bool")) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func typeNames(v value.Value) ([]string, error) {
	switch x := v.(type) {
	case value.Str:
		return []string{string(x)}, nil
	case value.Tuple:
		out := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			s, ok := e.(value.Str)
			if !ok {
				return nil, fmt.Errorf("isinstance() arg 2 must be a type name or tuple of type names")
			}
			out[i] = string(s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("isinstance() arg 2 must be a type name or tuple of type names")
}

func builtinType(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("type() takes exactly one argument")
	}
	return value.Str(args[0].Type()), nil
}

func builtinBin(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	n, ok := asInt(args[0])
	if !ok {
		return nil, fmt.Errorf("bin() argument must be an int")
	}
	return value.Str(signedBase(n, 2, "0b")), nil
}

func builtinHex(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	n, ok := asInt(args[0])
	if !ok {
		return nil, fmt.Errorf("hex() argument must be an int")
	}
	return value.Str(signedBase(n, 16, "0x")), nil
}

func builtinOct(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	n, ok := asInt(args[0])
	if !ok {
		return nil, fmt.Errorf("oct() argument must be an int")
	}
	return value.Str(signedBase(n, 8, "0o")), nil
}

func signedBase(n int64, base int, prefix string) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, base)
	if neg {
		return "-" + prefix + s
	}
	return prefix + s
}

func builtinDivmod(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("divmod() takes exactly two arguments")
	}
	q, err := value.BinOp(compile.FloorDiv, args[0], args[1])
	if err != nil {
		return nil, err
	}
	m, err := value.BinOp(compile.Mod, args[0], args[1])
	if err != nil {
		return nil, err
	}
	return value.Tuple{Elems: []value.Value{q, m}}, nil
}

func builtinPow(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 2 {
		return value.BinOp(compile.Pow, args[0], args[1])
	}
	if len(args) == 3 {
		base, ok1 := asInt(args[0])
		exp, ok2 := asInt(args[1])
		mod, ok3 := asInt(args[2])
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("pow() 3rd argument requires all integer arguments")
		}
		if exp < 0 {
			return nil, fmt.Errorf("pow() 2nd argument cannot be negative when 3rd argument specified")
		}
		if mod == 0 {
			return nil, fmt.Errorf("pow() 3rd argument cannot be 0")
		}
		result := int64(1)
		base = base % mod
		for i := int64(0); i < exp; i++ {
			result = (result * base) % mod
		}
		if result < 0 {
			result += mod
		}
		return value.Int(result), nil
	}
	return nil, fmt.Errorf("pow() takes 2 or 3 arguments")
}

func builtinHash(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("hash() takes exactly one argument")
	}
	h, err := value.Hash(args[0])
	if err != nil {
		return nil, err
	}
	return value.Int(int64(h)), nil
}

func asInt(v value.Value) (int64, bool) {
	switch x := v.(type) {
	case value.Int:
		return int64(x), true
	case value.Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Iterate exposes iterate for internal/vm's GetIter opcode, which needs
// the exact same list/tuple/set/dict-keys/str materialisation rule.
func Iterate(v value.Value) ([]value.Value, error) { return iterate(v) }

// iterate materialises any iterable value (list, tuple, set, str, dict
// whose keys are iterated) into a Go slice; every builtin above is
// eager per spec.md §4.4's range() note.
func iterate(v value.Value) ([]value.Value, error) {
	switch x := v.(type) {
	case *value.List:
		return x.Elems, nil
	case value.Tuple:
		return x.Elems, nil
	case *value.Set:
		return x.Elems, nil
	case *value.Dict:
		return x.Keys, nil
	case value.Str:
		runes := []rune(string(x))
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.Str(string(r))
		}
		return out, nil
	}
	return nil, fmt.Errorf("'%s' object is not iterable", v.Type())
}

