package value

import (
	"fmt"
	"strings"
)

// Invoker calls a user/native/tool callable synchronously and is supplied
// by internal/vm; it is only needed by the `sort(key=...)` mutating
// method, which is the sole method in these tables that can re-enter the
// VM.
type Invoker func(callable Value, args []Value) (Value, error)

// CallMethod dispatches a non-mutating method call: the receiver may be
// any expression's value (spec.md §4.3), and the result is always a new
// value, never an in-place edit.
func CallMethod(recv Value, name string, args []Value, kwargs map[string]Value) (Value, error) {
	switch r := recv.(type) {
	case Str:
		return strMethod(r, name, args, kwargs)
	case *List:
		return listMethod(r, name, args)
	case Tuple:
		return tupleMethod(r, name, args)
	case *Dict:
		return dictMethod(r, name, args)
	case *Set:
		return setMethod(r, name, args)
	}
	return nil, fmt.Errorf("AttributeError: '%s' object has no attribute '%s'", recv.Type(), name)
}

// CallMutMethod dispatches a mutating method call. invoke is required
// only for list.sort(key=...); pass nil when no key= callable may occur.
func CallMutMethod(recv Value, name string, args []Value, kwargs map[string]Value, invoke Invoker) (Value, error) {
	switch r := recv.(type) {
	case *List:
		return listMutMethod(r, name, args, kwargs, invoke)
	case *Dict:
		return dictMutMethod(r, name, args)
	case *Set:
		return setMutMethod(r, name, args)
	}
	return nil, fmt.Errorf("AttributeError: '%s' object has no attribute '%s'", recv.Type(), name)
}

func argErr(recv, name string, want, got int) error {
	return fmt.Errorf("%s.%s() takes %d argument(s) but %d were given", recv, name, want, got)
}

func strArg(args []Value, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument")
	}
	s, ok := args[i].(Str)
	if !ok {
		return "", fmt.Errorf("expected str argument")
	}
	return string(s), nil
}

func strMethod(s Str, name string, args []Value, kwargs map[string]Value) (Value, error) {
	str := string(s)
	switch name {
	case "upper":
		return Str(strings.ToUpper(str)), nil
	case "lower":
		return Str(strings.ToLower(str)), nil
	case "strip":
		return Str(stripCutset(str, args, strings.TrimSpace, strings.Trim)), nil
	case "lstrip":
		return Str(stripCutset(str, args, func(s string) string { return strings.TrimLeft(s, " \t\n\r") }, strings.TrimLeft)), nil
	case "rstrip":
		return Str(stripCutset(str, args, func(s string) string { return strings.TrimRight(s, " \t\n\r") }, strings.TrimRight)), nil
	case "split":
		return splitResult(str, args, false), nil
	case "rsplit":
		return splitResult(str, args, true), nil
	case "splitlines":
		lines := strings.Split(strings.ReplaceAll(str, "\r\n", "\n"), "\n")
		out := make([]Value, len(lines))
		for i, l := range lines {
			out[i] = Str(l)
		}
		return &List{Elems: out}, nil
	case "join":
		return joinStrings(str, args)
	case "replace":
		old, err := strArg(args, 0)
		if err != nil {
			return nil, err
		}
		newS, err := strArg(args, 1)
		if err != nil {
			return nil, err
		}
		count := -1
		if len(args) > 2 {
			if n, ok := asInt(args[2]); ok {
				count = int(n)
			}
		}
		return Str(strings.Replace(str, old, newS, count)), nil
	case "find":
		return Int(runeIndex(str, mustStr(args, 0), false, true)), nil
	case "rfind":
		return Int(runeIndex(str, mustStr(args, 0), true, true)), nil
	case "index":
		i := runeIndex(str, mustStr(args, 0), false, true)
		if i < 0 {
			return nil, &ValueErr{Msg: "substring not found"}
		}
		return Int(i), nil
	case "rindex":
		i := runeIndex(str, mustStr(args, 0), true, true)
		if i < 0 {
			return nil, &ValueErr{Msg: "substring not found"}
		}
		return Int(i), nil
	case "startswith":
		return Bool(strings.HasPrefix(str, mustStr(args, 0))), nil
	case "endswith":
		return Bool(strings.HasSuffix(str, mustStr(args, 0))), nil
	case "count":
		return Int(strings.Count(str, mustStr(args, 0))), nil
	case "format":
		return formatStr(str, args, kwargs), nil
	case "encode":
		return nil, fmt.Errorf("str.encode is not supported in this sandbox")
	case "isdigit":
		return Bool(allRunes(str, isDigitRune) && str != ""), nil
	case "isalpha":
		return Bool(allRunes(str, isAlphaRune) && str != ""), nil
	case "isalnum":
		return Bool(allRunes(str, func(r rune) bool { return isAlphaRune(r) || isDigitRune(r) }) && str != ""), nil
	case "isspace":
		return Bool(allRunes(str, isSpaceRune) && str != ""), nil
	case "title":
		return Str(strings.Title(strings.ToLower(str))), nil
	case "capitalize":
		if str == "" {
			return Str(""), nil
		}
		r := []rune(strings.ToLower(str))
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		return Str(string(r)), nil
	case "casefold":
		return Str(strings.ToLower(str)), nil
	case "swapcase":
		var b strings.Builder
		for _, r := range str {
			switch {
			case 'a' <= r && r <= 'z':
				b.WriteRune(r - 32)
			case 'A' <= r && r <= 'Z':
				b.WriteRune(r + 32)
			default:
				b.WriteRune(r)
			}
		}
		return Str(b.String()), nil
	case "center":
		return Str(padStr(str, args, 0)), nil
	case "ljust":
		return Str(padStr(str, args, -1)), nil
	case "rjust":
		return Str(padStr(str, args, 1)), nil
	case "zfill":
		width, _ := asInt(args[0])
		r := []rune(str)
		if len(r) >= int(width) {
			return Str(str), nil
		}
		pad := int(width) - len(r)
		sign := ""
		body := str
		if strings.HasPrefix(str, "-") || strings.HasPrefix(str, "+") {
			sign = str[:1]
			body = str[1:]
		}
		return Str(sign + strings.Repeat("0", pad) + body), nil
	}
	return nil, fmt.Errorf("AttributeError: 'str' object has no attribute '%s'", name)
}

func mustStr(args []Value, i int) string {
	s, _ := strArg(args, i)
	return s
}

func stripCutset(s string, args []Value, def func(string) string, withCutset func(string, string) string) string {
	if len(args) == 0 {
		return def(s)
	}
	if _, isNone := args[0].(NoneVal); isNone {
		return def(s)
	}
	cutset, _ := strArg(args, 0)
	return withCutset(s, cutset)
}

func splitResult(s string, args []Value, fromRight bool) Value {
	var sep string
	hasSep := len(args) > 0
	if hasSep {
		if _, isNone := args[0].(NoneVal); isNone {
			hasSep = false
		} else {
			sep, _ = strArg(args, 0)
		}
	}
	maxSplit := -1
	if len(args) > 1 {
		if n, ok := asInt(args[1]); ok {
			maxSplit = int(n)
		}
	}
	var parts []string
	if !hasSep {
		parts = strings.Fields(s)
	} else if maxSplit < 0 {
		parts = strings.Split(s, sep)
	} else if fromRight {
		parts = splitNFromRight(s, sep, maxSplit)
	} else {
		parts = strings.SplitN(s, sep, maxSplit+1)
	}
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return &List{Elems: out}
}

func splitNFromRight(s, sep string, n int) []string {
	all := strings.Split(s, sep)
	if n >= len(all)-1 {
		return all
	}
	head := strings.Join(all[:len(all)-n], sep)
	return append([]string{head}, all[len(all)-n:]...)
}

func joinStrings(sep string, args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("join() missing iterable argument")
	}
	elems, ok := sequenceElems(args[0])
	if !ok {
		if l, ok := args[0].(*List); ok {
			elems = l.Elems
		} else {
			return nil, fmt.Errorf("can only join an iterable")
		}
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		s, ok := e.(Str)
		if !ok {
			return nil, fmt.Errorf("sequence item %d: expected str instance, %s found", i, e.Type())
		}
		parts[i] = string(s)
	}
	return Str(strings.Join(parts, sep)), nil
}

func runeIndex(haystack, needle string, fromRight, byteFallback bool) int64 {
	hr := []rune(haystack)
	nr := []rune(needle)
	if len(nr) == 0 {
		if fromRight {
			return int64(len(hr))
		}
		return 0
	}
	if fromRight {
		for i := len(hr) - len(nr); i >= 0; i-- {
			if runesEqual(hr[i:i+len(nr)], nr) {
				return int64(i)
			}
		}
		return -1
	}
	for i := 0; i+len(nr) <= len(hr); i++ {
		if runesEqual(hr[i:i+len(nr)], nr) {
			return int64(i)
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func isDigitRune(r rune) bool { return r >= '0' && r <= '9' }
func isAlphaRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
func isSpaceRune(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' }

func padStr(s string, args []Value, align int) string {
	width, _ := asInt(args[0])
	fill := " "
	if len(args) > 1 {
		fill, _ = strArg(args, 1)
	}
	r := []rune(s)
	pad := int(width) - len(r)
	if pad <= 0 {
		return s
	}
	switch {
	case align < 0:
		return s + strings.Repeat(fill, pad)
	case align > 0:
		return strings.Repeat(fill, pad) + s
	default:
		left := pad / 2
		right := pad - left
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, right)
	}
}

// formatStr implements the small {}/{0}/{name} subset of str.format used
// by the sandbox; a placeholder with no matching argument formats as the
// empty string, and an unclosed '{' is copied verbatim.
func formatStr(tmpl string, args []Value, kwargs map[string]Value) Value {
	var b strings.Builder
	auto := 0
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{' {
			b.WriteByte('{')
			i += 2
			continue
		}
		if tmpl[i] == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}' {
			b.WriteByte('}')
			i += 2
			continue
		}
		if tmpl[i] == '{' {
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				break
			}
			field := tmpl[i+1 : i+end]
			b.WriteString(formatField(field, args, kwargs, &auto))
			i += end + 1
			continue
		}
		b.WriteByte(tmpl[i])
		i++
	}
	return Str(b.String())
}

func formatField(field string, args []Value, kwargs map[string]Value, auto *int) string {
	if field == "" {
		idx := *auto
		*auto++
		if idx < len(args) {
			return Display(args[idx])
		}
		return ""
	}
	if n, err := parseUint(field); err == nil {
		if int(n) < len(args) {
			return Display(args[n])
		}
		return ""
	}
	if v, ok := kwargs[field]; ok {
		return Display(v)
	}
	return ""
}

func parseUint(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not numeric")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func listMethod(l *List, name string, args []Value) (Value, error) {
	switch name {
	case "count":
		n := 0
		for _, e := range l.Elems {
			if Equal(e, args[0]) {
				n++
			}
		}
		return Int(n), nil
	case "index":
		for i, e := range l.Elems {
			if Equal(e, args[0]) {
				return Int(i), nil
			}
		}
		return nil, &ValueErr{Msg: "value not in list"}
	case "copy":
		return Clone(l), nil
	}
	return nil, fmt.Errorf("AttributeError: 'list' object has no attribute '%s'", name)
}

func tupleMethod(t Tuple, name string, args []Value) (Value, error) {
	switch name {
	case "count":
		n := 0
		for _, e := range t.Elems {
			if Equal(e, args[0]) {
				n++
			}
		}
		return Int(n), nil
	case "index":
		for i, e := range t.Elems {
			if Equal(e, args[0]) {
				return Int(i), nil
			}
		}
		return nil, &ValueErr{Msg: "value not in tuple"}
	}
	return nil, fmt.Errorf("AttributeError: 'tuple' object has no attribute '%s'", name)
}

func dictMethod(d *Dict, name string, args []Value) (Value, error) {
	switch name {
	case "get":
		if v, ok := d.Get(args[0]); ok {
			return v, nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return None, nil
	case "keys":
		out := make([]Value, len(d.Keys))
		copy(out, d.Keys)
		return &List{Elems: out}, nil
	case "values":
		out := make([]Value, len(d.Vals))
		copy(out, d.Vals)
		return &List{Elems: out}, nil
	case "items":
		out := make([]Value, len(d.Keys))
		for i := range d.Keys {
			out[i] = Tuple{Elems: []Value{d.Keys[i], d.Vals[i]}}
		}
		return &List{Elems: out}, nil
	case "copy":
		return Clone(d), nil
	}
	return nil, fmt.Errorf("AttributeError: 'dict' object has no attribute '%s'", name)
}

func setMethod(s *Set, name string, args []Value) (Value, error) {
	other, hasOther := oneSetArg(args)
	switch name {
	case "union":
		return setBitwise(s, other, "|"), nil
	case "intersection":
		if !hasOther {
			return NewSet(), nil
		}
		return setBitwise(s, other, "&"), nil
	case "difference":
		if !hasOther {
			return Clone(s), nil
		}
		return setBitwise(s, other, "-"), nil
	case "symmetric_difference":
		return setBitwise(s, other, "^"), nil
	case "issubset":
		for _, e := range s.Elems {
			if !other.Contains(e) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	case "issuperset":
		for _, e := range other.Elems {
			if !s.Contains(e) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	case "isdisjoint":
		for _, e := range s.Elems {
			if other.Contains(e) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	case "copy":
		return Clone(s), nil
	}
	return nil, fmt.Errorf("AttributeError: 'set' object has no attribute '%s'", name)
}

func oneSetArg(args []Value) (*Set, bool) {
	if len(args) == 0 {
		return NewSet(), false
	}
	if s, ok := args[0].(*Set); ok {
		return s, true
	}
	out := NewSet()
	if elems, ok := sequenceElems(args[0]); ok {
		for _, e := range elems {
			out.Add(e)
		}
	}
	return out, true
}

func listMutMethod(l *List, name string, args []Value, kwargs map[string]Value, invoke Invoker) (Value, error) {
	switch name {
	case "append":
		l.Elems = append(l.Elems, args[0])
		return None, nil
	case "extend":
		elems, ok := sequenceElems(args[0])
		if !ok {
			if s, ok := args[0].(*Set); ok {
				elems = s.Elems
			} else {
				return nil, fmt.Errorf("argument is not iterable")
			}
		}
		l.Elems = append(l.Elems, elems...)
		return None, nil
	case "insert":
		i, _ := asInt(args[0])
		idx := clampInsertIndex(int(i), len(l.Elems))
		l.Elems = append(l.Elems[:idx], append([]Value{args[1]}, l.Elems[idx:]...)...)
		return None, nil
	case "remove":
		for i, e := range l.Elems {
			if Equal(e, args[0]) {
				l.Elems = append(l.Elems[:i], l.Elems[i+1:]...)
				return None, nil
			}
		}
		return nil, &ValueErr{Msg: "list.remove(x): x not in list"}
	case "pop":
		idx := len(l.Elems) - 1
		if len(args) > 0 {
			n, _ := asInt(args[0])
			idx = int(n)
			if idx < 0 {
				idx += len(l.Elems)
			}
		}
		if idx < 0 || idx >= len(l.Elems) {
			return nil, &IndexError{}
		}
		v := l.Elems[idx]
		l.Elems = append(l.Elems[:idx], l.Elems[idx+1:]...)
		return v, nil
	case "clear":
		l.Elems = nil
		return None, nil
	case "reverse":
		for i, j := 0, len(l.Elems)-1; i < j; i, j = i+1, j-1 {
			l.Elems[i], l.Elems[j] = l.Elems[j], l.Elems[i]
		}
		return None, nil
	case "sort":
		return None, sortList(l, kwargs, invoke)
	}
	return nil, fmt.Errorf("AttributeError: 'list' object has no attribute '%s'", name)
}

func clampInsertIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}
	return i
}

func sortList(l *List, kwargs map[string]Value, invoke Invoker) error {
	reverse := false
	if r, ok := kwargs["reverse"]; ok {
		reverse = Truth(r)
	}
	key, hasKey := kwargs["key"]
	var err error
	less := func(a, b Value) bool {
		av, bv := a, b
		if hasKey && invoke != nil {
			if av, err = invoke(key, []Value{a}); err != nil {
				return false
			}
			if bv, err = invoke(key, []Value{b}); err != nil {
				return false
			}
		}
		c, cerr := Compare(av, bv)
		if cerr != nil {
			err = cerr
			return false
		}
		return c < 0
	}
	out := SortedCopy(l.Elems, less)
	if err != nil {
		return err
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	l.Elems = out
	return nil
}

func dictMutMethod(d *Dict, name string, args []Value) (Value, error) {
	switch name {
	case "update":
		other, ok := args[0].(*Dict)
		if !ok {
			return nil, fmt.Errorf("update() argument must be a dict")
		}
		for i, k := range other.Keys {
			d.Set(k, other.Vals[i])
		}
		return None, nil
	case "setdefault":
		if v, ok := d.Get(args[0]); ok {
			return v, nil
		}
		def := Value(None)
		if len(args) > 1 {
			def = args[1]
		}
		d.Set(args[0], def)
		return def, nil
	case "pop":
		if v, ok := d.Get(args[0]); ok {
			d.Delete(args[0])
			return v, nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return nil, &KeyError{Key: args[0]}
	case "clear":
		d.Keys, d.Vals = nil, nil
		return None, nil
	}
	return nil, fmt.Errorf("AttributeError: 'dict' object has no attribute '%s'", name)
}

func setMutMethod(s *Set, name string, args []Value) (Value, error) {
	switch name {
	case "add":
		s.Add(args[0])
		return None, nil
	case "discard":
		s.Remove(args[0])
		return None, nil
	case "remove":
		if !s.Remove(args[0]) {
			return nil, &KeyError{Key: args[0]}
		}
		return None, nil
	case "update":
		elems, ok := sequenceElems(args[0])
		if !ok {
			if other, ok := args[0].(*Set); ok {
				elems = other.Elems
			}
		}
		for _, e := range elems {
			s.Add(e)
		}
		return None, nil
	case "clear":
		s.Elems = nil
		return None, nil
	}
	return nil, fmt.Errorf("AttributeError: 'set' object has no attribute '%s'", name)
}

// ValueErr maps to Python's ValueError at the sandbox boundary.
type ValueErr struct{ Msg string }

func (e *ValueErr) Error() string { return "ValueError: " + e.Msg }
