package value

import "fmt"

// Subscript implements BinarySubscript: list/tuple/dict/str indexing,
// plus negative-index wraparound for sequences.
func Subscript(recv, index Value) (Value, error) {
	switch r := recv.(type) {
	case *List:
		i, err := normalizeIndex(index, len(r.Elems))
		if err != nil {
			return nil, err
		}
		return r.Elems[i], nil
	case Tuple:
		i, err := normalizeIndex(index, len(r.Elems))
		if err != nil {
			return nil, err
		}
		return r.Elems[i], nil
	case Str:
		runes := []rune(string(r))
		i, err := normalizeIndex(index, len(runes))
		if err != nil {
			return nil, err
		}
		return Str(string(runes[i])), nil
	case *Dict:
		v, found := r.Get(index)
		if !found {
			return nil, &KeyError{Key: index}
		}
		return v, nil
	}
	return nil, fmt.Errorf("'%s' object is not subscriptable", recv.Type())
}

// StoreSubscript implements StoreSubscript: names[index] = value for
// list and dict receivers (tuple and str are immutable).
func StoreSubscript(recv, index, val Value) error {
	switch r := recv.(type) {
	case *List:
		i, err := normalizeIndex(index, len(r.Elems))
		if err != nil {
			return err
		}
		r.Elems[i] = val
		return nil
	case *Dict:
		r.Set(index, val)
		return nil
	case Tuple:
		return fmt.Errorf("'tuple' object does not support item assignment")
	case Str:
		return fmt.Errorf("'str' object does not support item assignment")
	}
	return fmt.Errorf("'%s' object does not support item assignment", recv.Type())
}

func normalizeIndex(index Value, n int) (int, error) {
	iv, ok := asInt(index)
	if !ok {
		return 0, fmt.Errorf("indices must be integers, not %s", index.Type())
	}
	i := int(iv)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, &IndexError{}
	}
	return i, nil
}

// Slice implements the Slice opcode for List, Tuple and Str, following
// Python's start:stop:step semantics with clamped bounds and a
// code-point-based index space for Str.
func Slice(recv, start, stop, step Value) (Value, error) {
	stepN, err := sliceStep(step)
	if err != nil {
		return nil, err
	}
	switch r := recv.(type) {
	case *List:
		lo, hi := sliceBounds(start, stop, stepN, len(r.Elems))
		return &List{Elems: pickSlice(r.Elems, lo, hi, stepN)}, nil
	case Tuple:
		lo, hi := sliceBounds(start, stop, stepN, len(r.Elems))
		return Tuple{Elems: pickSlice(r.Elems, lo, hi, stepN)}, nil
	case Str:
		runes := []rune(string(r))
		lo, hi := sliceBounds(start, stop, stepN, len(runes))
		out := pickRunes(runes, lo, hi, stepN)
		return Str(string(out)), nil
	}
	return nil, fmt.Errorf("'%s' object is not subscriptable", recv.Type())
}

func sliceStep(step Value) (int, error) {
	if _, isNone := step.(NoneVal); isNone {
		return 1, nil
	}
	n, ok := asInt(step)
	if !ok {
		return 0, fmt.Errorf("slice indices must be integers")
	}
	if n == 0 {
		return 0, fmt.Errorf("slice step cannot be zero")
	}
	return int(n), nil
}

// sliceBounds computes Python's clamped [lo, hi) index range for a
// given length and step direction. For negative steps the caller must
// iterate from lo down to hi+1; for positive steps from lo up to hi-1.
func sliceBounds(start, stop Value, step, n int) (int, int) {
	var lo, hi int
	if step > 0 {
		lo, hi = 0, n
	} else {
		lo, hi = n-1, -1
	}
	if _, ok := start.(NoneVal); !ok {
		if iv, ok := asInt(start); ok {
			lo = clampSliceIndex(int(iv), n, step > 0)
		}
	}
	if _, ok := stop.(NoneVal); !ok {
		if iv, ok := asInt(stop); ok {
			hi = clampSliceIndex(int(iv), n, step > 0)
		}
	}
	return lo, hi
}

func clampSliceIndex(i, n int, forward bool) int {
	if i < 0 {
		i += n
	}
	if forward {
		if i < 0 {
			i = 0
		}
		if i > n {
			i = n
		}
	} else {
		if i < -1 {
			i = -1
		}
		if i >= n {
			i = n - 1
		}
	}
	return i
}

func pickSlice(elems []Value, lo, hi, step int) []Value {
	var out []Value
	if step > 0 {
		for i := lo; i < hi; i += step {
			out = append(out, elems[i])
		}
	} else {
		for i := lo; i > hi; i += step {
			out = append(out, elems[i])
		}
	}
	return out
}

func pickRunes(runes []rune, lo, hi, step int) []rune {
	var out []rune
	if step > 0 {
		for i := lo; i < hi; i += step {
			out = append(out, runes[i])
		}
	} else {
		for i := lo; i > hi; i += step {
			out = append(out, runes[i])
		}
	}
	return out
}

// IndexError and KeyError are the two lookup-failure exception variants
// raised by subscript access, mapped to IndexError/KeyError at the
// sandbox boundary per spec.md §7.
type IndexError struct{}

func (*IndexError) Error() string { return "IndexError: index out of range" }

type KeyError struct{ Key Value }

func (e *KeyError) Error() string { return fmt.Sprintf("KeyError: %s", e.Key.String()) }
