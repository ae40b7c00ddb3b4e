package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chonkie-inc/littr/internal/builtins"
	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/diagnostic"
	"github.com/chonkie-inc/littr/internal/tool"
	"github.com/chonkie-inc/littr/internal/value"
)

// callableBuiltins are the builtins that need the VM's own state: most
// may re-enter the interpreter via vm.invoke (spec.md §4.7 dispatch step
// 1); print instead needs the VM's own print buffer, which must stay
// per-sandbox (spec.md §5). They live here, not internal/builtins.
var callableBuiltins map[string]func(vm *VM, args []value.Value, kwargs map[string]value.Value) (value.Value, error)

func init() {
	callableBuiltins = map[string]func(vm *VM, args []value.Value, kwargs map[string]value.Value) (value.Value, error){
		"sorted": (*VM).biSorted,
		"map":    (*VM).biMap,
		"filter": (*VM).biFilter,
		"open":   (*VM).biOpen,
		"print":  (*VM).biPrint,
	}
}

// dispatchCall implements the full CallFunction/CallFunctionKw dispatch
// order of spec.md §4.7.
func (vm *VM) dispatchCall(f *frame, name string, args []value.Value, kwargs map[string]value.Value, instrIdx int) (value.Value, bool, error) {
	if fn, ok := callableBuiltins[name]; ok {
		v, err := fn(vm, args, kwargs)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil
	}
	if len(kwargs) == 0 {
		if bf, ok := builtins.Table[name]; ok {
			v, err := bf(args, kwargs)
			if err != nil {
				return nil, false, err
			}
			vm.push(v)
			return nil, false, nil
		}
	}
	if _, ok := vm.Tools[name]; ok {
		spans, callSpan := vm.callSiteInfo(f, instrIdx)
		v, err := vm.callToolByName(name, args, kwargs, spans, callSpan, f.code.Source)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil
	}
	v, ok := vm.lookupVar(f, name)
	if !ok {
		return nil, false, fmt.Errorf("NameError: name '%s' is not defined", name)
	}
	return vm.dispatchCallValue(f, v, args, kwargs)
}

// callSiteInfo fetches the per-argument span side-table recorded for a
// plain-Name call instruction, used only to underline the offending
// argument in a tool type-mismatch diagnostic (spec.md §4.8).
func (vm *VM) callSiteInfo(f *frame, instrIdx int) (*compile.CallSpans, diagnostic.Span) {
	spans := f.code.CallArgSpans[uint32(instrIdx)]
	var callSpan diagnostic.Span
	if instrIdx >= 0 && instrIdx < len(f.code.Spans) {
		s := f.code.Spans[instrIdx]
		callSpan = diagnostic.Span{Start: s.Start, End: s.End}
	}
	return spans, callSpan
}

// dispatchCallValue handles CallValue/CallValueKw, and the tail of
// dispatchCall once the callee has been resolved to a value: a user
// function pushes a new frame (no Go recursion), a native function
// routes through the tool table, anything else is not callable.
func (vm *VM) dispatchCallValue(f *frame, callee value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, bool, error) {
	switch c := callee.(type) {
	case *value.Function:
		locals, err := vm.bindParams(c.Def, args, kwargs)
		if err != nil {
			return nil, false, err
		}
		if vm.Limits.RecursionDepth > 0 && len(vm.frames) >= vm.Limits.RecursionDepth {
			return nil, false, raiseUncatchable(KindRecursionLimitExceeded, "RecursionLimitExceeded")
		}
		base := len(vm.stack)
		vm.frames = append(vm.frames, newFrame(c.Def.Code, locals, true, base))
		return nil, false, nil
	case value.NativeFunction:
		v, err := vm.callToolByName(c.Name, args, kwargs, nil, diagnostic.Span{}, "")
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("TypeError: '%s' object is not callable", value.TypeName(callee))
	}
}

// bindParams implements spec.md §4.7 "Parameter binding".
func (vm *VM) bindParams(fd *compile.FunctionDef, args []value.Value, kwargs map[string]value.Value) (map[string]value.Value, error) {
	locals := make(map[string]value.Value, len(fd.Params)+2)
	nParams := len(fd.Params)
	nDefaults := len(fd.Defaults)

	i := 0
	for ; i < len(args) && i < nParams; i++ {
		locals[fd.Params[i]] = value.Clone(args[i])
	}
	overflow := append([]value.Value(nil), args[i:]...)
	if len(overflow) > 0 && fd.Vararg == "" {
		return nil, fmt.Errorf("TypeError: %s() takes %d positional arguments but %d were given", fd.Name, nParams, len(args))
	}

	usedKw := make(map[string]bool, len(kwargs))
	for k, v := range kwargs {
		idx := indexOfStr(fd.Params, k)
		if idx == -1 {
			continue
		}
		if idx < i {
			return nil, fmt.Errorf("TypeError: %s() got multiple values for argument '%s'", fd.Name, k)
		}
		locals[fd.Params[idx]] = value.Clone(v)
		usedKw[k] = true
	}

	for idx := 0; idx < nParams; idx++ {
		name := fd.Params[idx]
		if _, ok := locals[name]; ok {
			continue
		}
		defIdx := idx - (nParams - nDefaults)
		if defIdx >= 0 && defIdx < nDefaults {
			locals[name] = value.FromConst(fd.Defaults[defIdx])
			continue
		}
		return nil, fmt.Errorf("TypeError: %s() missing required positional argument: '%s'", fd.Name, name)
	}

	if fd.Vararg != "" {
		locals[fd.Vararg] = value.Tuple{Elems: overflow}
	}
	if fd.Kwarg != "" {
		kw := value.NewDict()
		for k, v := range kwargs {
			if usedKw[k] {
				continue
			}
			kw.Set(value.Str(k), value.Clone(v))
		}
		locals[fd.Kwarg] = kw
	} else {
		for k := range kwargs {
			if !usedKw[k] {
				return nil, fmt.Errorf("TypeError: %s() got an unexpected keyword argument '%s'", fd.Name, k)
			}
		}
	}
	return locals, nil
}

func indexOfStr(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

// callToolByName implements the tool-call ABI of spec.md §4.8: keyword
// routing, then type validation, then invocation with the
// position-ordered, validated argument list.
func (vm *VM) callToolByName(name string, args []value.Value, kwargs map[string]value.Value, spans *compile.CallSpans, callSpan diagnostic.Span, source string) (value.Value, error) {
	te, ok := vm.Tools[name]
	if !ok {
		return nil, fmt.Errorf("NameError: name '%s' is not defined", name)
	}
	if te.Info == nil {
		return te.Fn(args, kwargs)
	}
	info := te.Info
	declared := info.Args
	positional := make([]value.Value, len(declared))
	filled := make([]bool, len(declared))
	for i := range positional {
		positional[i] = value.None
	}
	for i, a := range args {
		if i >= len(declared) {
			return nil, fmt.Errorf("TypeError: %s() takes %d positional arguments but more were given", name, len(declared))
		}
		positional[i] = a
		filled[i] = true
	}

	diag := diagnostic.NewFunctionCallDiagnostic(name).WithCallSpan(callSpan).WithSource(source)
	for i, d := range declared {
		span := argSpanFor(spans, i, d.Name)
		diag.WithArg(span, d.Name, d.Type)
	}

	for k, v := range kwargs {
		idx := indexOfArg(declared, k)
		if idx == -1 {
			argSpan := diagnostic.Span{}
			if spans != nil {
				if s, ok := spans.Kw[k]; ok {
					argSpan = diagnostic.Span{Start: s.Start, End: s.End}
				}
			}
			return nil, diagErr(diag.UnexpectedArgument(k, argSpan))
		}
		if filled[idx] {
			return nil, fmt.Errorf("TypeError: %s() got multiple values for argument '%s'", name, k)
		}
		positional[idx] = v
		filled[idx] = true
	}

	for i, d := range declared {
		if d.Required && !filled[i] {
			return nil, diagErr(diag.MissingArgument(d.Name, d.Type))
		}
		if !filled[i] {
			continue
		}
		if !d.Required && positional[i] == value.None {
			continue
		}
		if !tool.Accepts(d.Type, value.TypeName(positional[i])) {
			return nil, diagErr(diag.TypeMismatch(i, d.Type, value.TypeName(positional[i]), positional[i].String()))
		}
	}

	return te.Fn(positional, nil)
}

func indexOfArg(args []tool.ArgInfo, name string) int {
	for i, a := range args {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// argSpanFor picks the call-site span to underline for declared
// parameter i: its positional span if it was passed positionally, else
// its keyword span if passed by name, else the zero span (defaulted or
// missing parameters have no call-site token to point at).
func argSpanFor(spans *compile.CallSpans, i int, name string) diagnostic.Span {
	if spans == nil {
		return diagnostic.Span{}
	}
	if i < len(spans.Pos) {
		s := spans.Pos[i]
		return diagnostic.Span{Start: s.Start, End: s.End}
	}
	if s, ok := spans.Kw[name]; ok {
		return diagnostic.Span{Start: s.Start, End: s.End}
	}
	return diagnostic.Span{}
}

func diagErr(d *diagnostic.Diagnostic) error {
	return &sandboxError{kind: KindDiagnostic, typeName: "RuntimeError", message: value.Str(d.Error()), err: d}
}

// biSorted implements sorted(iterable, key=None, reverse=False),
// reentering user callables via vm.invoke per spec.md §9.
func (vm *VM) biSorted(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("TypeError: sorted() takes exactly one argument (%d given)", len(args))
	}
	elems, err := builtins.Iterate(args[0])
	if err != nil {
		return nil, err
	}
	elems = append([]value.Value(nil), elems...)

	keyFn, hasKey := kwargs["key"]
	reverse := false
	if r, ok := kwargs["reverse"]; ok {
		reverse = value.Truth(r)
	}

	var keys []value.Value
	if hasKey && keyFn != value.None {
		keys = make([]value.Value, len(elems))
		for i, e := range elems {
			k, err := vm.invoke(keyFn, []value.Value{e})
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
	}

	order := make([]int, len(elems))
	for i := range order {
		order[i] = i
	}
	var cmpErr error
	sort.SliceStable(order, func(i, j int) bool {
		a, b := elems[order[i]], elems[order[j]]
		if keys != nil {
			a, b = keys[order[i]], keys[order[j]]
		}
		c, err := value.Compare(a, b)
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		if reverse {
			return c > 0
		}
		return c < 0
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	out := make([]value.Value, len(order))
	for i, idx := range order {
		out[i] = elems[idx]
	}
	return value.NewList(out), nil
}

func (vm *VM) biMap(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("TypeError: map() takes exactly two arguments (%d given)", len(args))
	}
	elems, err := builtins.Iterate(args[1])
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		v, err := vm.invoke(args[0], []value.Value{e})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return value.NewList(out), nil
}

func (vm *VM) biFilter(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("TypeError: filter() takes exactly two arguments (%d given)", len(args))
	}
	elems, err := builtins.Iterate(args[1])
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, e := range elems {
		keep := false
		if args[0] == value.None {
			keep = value.Truth(e)
		} else {
			v, err := vm.invoke(args[0], []value.Value{e})
			if err != nil {
				return nil, err
			}
			keep = value.Truth(v)
		}
		if keep {
			out = append(out, e)
		}
	}
	return value.NewList(out), nil
}

// biPrint implements print(*args) (spec.md §4.4): it appends one
// space-joined line to this VM's own print buffer and returns None. It
// is VM-routed, not a plain deterministic builtin, because the print
// buffer is per-sandbox state (spec.md §5 "Shared-resource policy" —
// multiple sandboxes run independently and must not share an output
// sink).
func (vm *VM) biPrint(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Display(a)
	}
	vm.PrintLines = append(vm.PrintLines, strings.Join(parts, " "))
	return value.None, nil
}
