package vm

import (
	"fmt"

	"github.com/chonkie-inc/littr/internal/builtins"
	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/value"
)

// step executes exactly one instruction of f, the current top frame.
// It returns (result, true, nil) when f has just executed ReturnValue or
// run off the end of its code (implicit `return None`), in which case
// the caller pops f off vm.frames.
func (vm *VM) step(f *frame) (value.Value, bool, error) {
	if f.ip >= len(f.code.Instructions) {
		// Running off the end without an explicit ReturnValue happens
		// only for the top-level script frame: a trailing bare
		// expression statement leaves its value on the shared stack
		// (the "last expression" rule), otherwise the frame's window
		// is empty and the implicit result is None.
		if len(vm.stack) > f.stackBase {
			return vm.pop(), true, nil
		}
		return value.None, true, nil
	}
	instr := f.code.Instructions[f.ip]
	instrIdx := f.ip
	f.ip++

	vm.instrCount++
	if vm.Limits.InstructionCount > 0 && vm.instrCount > vm.Limits.InstructionCount {
		return nil, false, raiseUncatchable(KindInstructionLimitExceeded, "InstructionLimitExceeded")
	}

	code := f.code
	switch instr.Op {
	case compile.OpNop:
		return nil, false, nil

	case compile.OpLoadConst:
		vm.push(value.FromConst(code.Constants[instr.A]))
		return nil, false, nil

	case compile.OpPop:
		vm.pop()
		return nil, false, nil

	case compile.OpDup:
		vm.push(vm.peek())
		return nil, false, nil

	case compile.OpRotN:
		n := int(instr.A)
		win := vm.stack[len(vm.stack)-n:]
		rotated := append([]value.Value{win[n-1]}, win[:n-1]...)
		copy(win, rotated)
		return nil, false, nil

	case compile.OpLoadName:
		name := code.Names[instr.A]
		v, ok := vm.lookupVar(f, name)
		if !ok {
			return nil, false, fmt.Errorf("NameError: name '%s' is not defined", name)
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpStoreName:
		name := code.Names[instr.A]
		v := value.Clone(vm.pop())
		vm.storeVar(f, name, v)
		return nil, false, nil

	case compile.OpBinaryOp:
		right := vm.pop()
		left := vm.pop()
		v, err := value.BinOp(compile.BinOp(instr.A), left, right)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpUnaryOp:
		v, err := value.UnaryOp(compile.UnaryOp(instr.A), vm.pop())
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpCompareOp:
		right := vm.pop()
		left := vm.pop()
		v, err := value.CompareOp(compile.CmpOp(instr.A), left, right)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpJumpIfFalseOrPop:
		if !value.Truth(vm.peek()) {
			f.ip = int(instr.A)
		} else {
			vm.pop()
		}
		return nil, false, nil

	case compile.OpJumpIfTrueOrPop:
		if value.Truth(vm.peek()) {
			f.ip = int(instr.A)
		} else {
			vm.pop()
		}
		return nil, false, nil

	case compile.OpJump:
		f.ip = int(instr.A)
		return nil, false, nil

	case compile.OpPopJumpIfTrue:
		if value.Truth(vm.pop()) {
			f.ip = int(instr.A)
		}
		return nil, false, nil

	case compile.OpPopJumpIfFalse:
		if !value.Truth(vm.pop()) {
			f.ip = int(instr.A)
		}
		return nil, false, nil

	case compile.OpBuildList:
		vm.push(value.NewList(vm.popN(int(instr.A))))
		return nil, false, nil

	case compile.OpBuildTuple:
		vm.push(value.Tuple{Elems: vm.popN(int(instr.A))})
		return nil, false, nil

	case compile.OpBuildSet:
		s := value.NewSet()
		for _, e := range vm.popN(int(instr.A)) {
			s.Add(e)
		}
		vm.push(s)
		return nil, false, nil

	case compile.OpBuildDict:
		n := int(instr.A)
		kv := vm.popN(2 * n)
		d := value.NewDict()
		for i := 0; i < n; i++ {
			d.Set(kv[2*i], kv[2*i+1])
		}
		vm.push(d)
		return nil, false, nil

	case compile.OpBinarySubscript:
		index := vm.pop()
		obj := vm.pop()
		v, err := value.Subscript(obj, index)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpStoreSubscript:
		val := value.Clone(vm.pop())
		index := vm.pop()
		name := code.Names[instr.A]
		recv, ok := vm.lookupVar(f, name)
		if !ok {
			return nil, false, fmt.Errorf("NameError: name '%s' is not defined", name)
		}
		if err := value.StoreSubscript(recv, index, val); err != nil {
			return nil, false, err
		}
		return nil, false, nil

	case compile.OpSlice:
		step := vm.pop()
		stop := vm.pop()
		start := vm.pop()
		obj := vm.pop()
		v, err := value.Slice(obj, start, stop, step)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpUnpackSequence:
		n := int(instr.A)
		seq := vm.pop()
		elems, err := builtins.Iterate(seq)
		if err != nil {
			return nil, false, err
		}
		if len(elems) != n {
			return nil, false, fmt.Errorf("ValueError: not enough values to unpack (expected %d, got %d)", n, len(elems))
		}
		for i := n - 1; i >= 0; i-- {
			vm.push(elems[i])
		}
		return nil, false, nil

	case compile.OpGetIter:
		v := vm.pop()
		elems, err := builtins.Iterate(v)
		if err != nil {
			return nil, false, err
		}
		f.pushIter(elems)
		return nil, false, nil

	case compile.OpForIter:
		it := f.topIter()
		if it == nil || it.pos >= len(it.elems) {
			f.popIter()
			f.ip = int(instr.A)
			return nil, false, nil
		}
		vm.push(it.elems[it.pos])
		it.pos++
		return nil, false, nil

	case compile.OpPopIter:
		f.popIter()
		return nil, false, nil

	case compile.OpCallFunction:
		name := code.Names[instr.A]
		args := vm.popN(int(instr.B))
		return vm.dispatchCall(f, name, args, nil, instrIdx)

	case compile.OpCallFunctionKw:
		name := code.Names[instr.A]
		args, kwargs := vm.popCallArgs(int(instr.B), int(instr.C))
		return vm.dispatchCall(f, name, args, kwargs, instrIdx)

	case compile.OpCallMethod:
		args := vm.popN(int(instr.B))
		recv := vm.pop()
		name := code.Names[instr.A]
		v, err := vm.callMethod(recv, name, args, nil)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpCallMutMethod:
		args := vm.popN(int(instr.C))
		varName := code.Names[instr.A]
		methodName := code.Names[instr.B]
		recv, ok := vm.lookupVar(f, varName)
		if !ok {
			return nil, false, fmt.Errorf("NameError: name '%s' is not defined", varName)
		}
		v, err := value.CallMutMethod(recv, methodName, args, nil, vm.invoke)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpCallMutMethodKw:
		nPos, nKw := compile.UnpackPair(instr.C)
		args, kwargs := vm.popCallArgs(int(nPos), int(nKw))
		varName := code.Names[instr.A]
		methodName := code.Names[instr.B]
		recv, ok := vm.lookupVar(f, varName)
		if !ok {
			return nil, false, fmt.Errorf("NameError: name '%s' is not defined", varName)
		}
		v, err := value.CallMutMethod(recv, methodName, args, kwargs, vm.invoke)
		if err != nil {
			return nil, false, err
		}
		vm.push(v)
		return nil, false, nil

	case compile.OpCallValue:
		args := vm.popN(int(instr.A))
		callee := vm.pop()
		return vm.dispatchCallValue(f, callee, args, nil)

	case compile.OpCallValueKw:
		args, kwargs := vm.popCallArgs(int(instr.A), int(instr.B))
		callee := vm.pop()
		return vm.dispatchCallValue(f, callee, args, kwargs)

	case compile.OpFormatValue:
		v := vm.pop()
		vm.push(value.Str(value.Display(v)))
		return nil, false, nil

	case compile.OpBuildString:
		parts := vm.popN(int(instr.A))
		s := ""
		for _, p := range parts {
			if str, ok := p.(value.Str); ok {
				s += string(str)
			} else {
				s += p.String()
			}
		}
		vm.push(value.Str(s))
		return nil, false, nil

	case compile.OpMakeFunction:
		vm.push(&value.Function{Def: code.Functions[instr.A]})
		return nil, false, nil

	case compile.OpReturnValue:
		return vm.pop(), true, nil

	case compile.OpImportModule:
		name := code.Names[instr.A]
		mod, ok := vm.Modules[name]
		if !ok {
			return nil, false, fmt.Errorf("ModuleNotFoundError: no module named '%s'", name)
		}
		vm.push(mod)
		return nil, false, nil

	case compile.OpLoadAttr:
		obj := vm.pop()
		name := code.Names[instr.A]
		mod, ok := obj.(*value.Module)
		if !ok {
			return nil, false, fmt.Errorf("AttributeError: '%s' object has no attribute '%s'", value.TypeName(obj), name)
		}
		attr, ok := mod.Attr(name)
		if !ok {
			return nil, false, fmt.Errorf("AttributeError: module '%s' has no attribute '%s'", mod.Name, name)
		}
		vm.push(attr)
		return nil, false, nil

	case compile.OpRaise:
		msg := vm.pop()
		typeConst := vm.pop()
		typeName := string(typeConst.(value.Str))
		return nil, false, raiseError(typeName, msg)

	case compile.OpReraise:
		top := vm.excStackTop()
		if top == nil {
			return nil, false, fmt.Errorf("RuntimeError: no active exception to re-raise")
		}
		return nil, false, raiseError(top.TypeName, top.Message)

	case compile.OpCheckExcMatch:
		declared := string(vm.pop().(value.Str))
		top := vm.excStackTop()
		matched := top != nil && excMatches(declared, top.TypeName)
		vm.push(value.Bool(matched))
		return nil, false, nil

	case compile.OpPopException:
		vm.excStackPop()
		return nil, false, nil

	default:
		return nil, false, fmt.Errorf("RuntimeError: unimplemented opcode %s", instr.Op)
	}
}

// lookupVar implements spec.md §4.7's "locals then globals" rule.
func (vm *VM) lookupVar(f *frame, name string) (value.Value, bool) {
	if f.isFunction {
		if v, ok := f.locals[name]; ok {
			return v, true
		}
	}
	v, ok := vm.Globals[name]
	return v, ok
}

// storeVar writes to locals for a function frame, globals for the
// top-level frame.
func (vm *VM) storeVar(f *frame, name string, v value.Value) {
	if f.isFunction {
		f.locals[name] = v
		return
	}
	vm.Globals[name] = v
}

func excMatches(declared, raised string) bool {
	if declared == "Exception" || declared == "BaseException" {
		return true
	}
	return declared == raised
}

func raiseError(typeName string, msg value.Value) error {
	return &sandboxError{kind: kindForTypeName(typeName), typeName: typeName, message: msg}
}

// popCallArgs pops a CallFunctionKw/CallValueKw/CallMutMethodKw operand
// block: nKw (name, value) pairs followed by nPos positional values,
// innermost (most recently pushed) first.
func (vm *VM) popCallArgs(nPos, nKw int) ([]value.Value, map[string]value.Value) {
	var kwargs map[string]value.Value
	if nKw > 0 {
		kwargs = make(map[string]value.Value, nKw)
		for i := 0; i < nKw; i++ {
			val := vm.pop()
			nameV := vm.pop()
			kwargs[string(nameV.(value.Str))] = val
		}
	}
	args := make([]value.Value, nPos)
	for i := nPos - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	return args, kwargs
}

// callMethod routes File method calls (VM-owned I/O state) and delegates
// everything else to the pure value-level method tables.
func (vm *VM) callMethod(recv value.Value, name string, args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if file, ok := recv.(value.File); ok {
		return vm.fileMethod(file.Handle, name, args)
	}
	return value.CallMethod(recv, name, args, kwargs)
}
