// Package vm executes a compiled CodeObject: the fetch-decode-execute
// loop, call/parameter binding, exception propagation, iteration, and
// the tool-call ABI of spec.md §4.7-§4.8.
package vm

import (
	"fmt"

	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/diagnostic"
	"github.com/chonkie-inc/littr/internal/tool"
	"github.com/chonkie-inc/littr/internal/value"
)

// ToolEntry is a registered tool: its callback plus optional metadata.
// A tool registered via RegisterFn has Info == nil, which disables
// keyword routing and type validation (spec.md §4.9).
type ToolEntry struct {
	Info *tool.Info
	Fn   func(args []value.Value, kwargs map[string]value.Value) (value.Value, error)
}

// OpenFile is one entry of the sandbox's open-file table (spec.md §6).
type OpenFile struct {
	Mount  *Mount
	Mode   string
	Buf    []byte
	Pos    int
	Closed bool
}

// Mount is a virtual file exposed to open() (spec.md §6, §9 "Mount").
type Mount struct {
	VirtualPath string
	HostPath    string
	Writable    bool
	Content     []byte
	Flush       func(hostPath string, content []byte) error
}

// Limits bounds a single Execute call (spec.md §5 "Cancellation").
type Limits struct {
	InstructionCount int // 0 means unlimited
	RecursionDepth   int // 0 means unlimited
}

// VM is the sandbox's execution engine. One VM instance corresponds to
// one sandbox: it owns globals, tools, modules, the print buffer, the
// open-file table, and the limits applied to every Execute call
// (spec.md §5 "Shared-resource policy").
type VM struct {
	Globals map[string]value.Value
	Tools   map[string]*ToolEntry
	Modules map[string]*value.Module
	Limits  Limits

	PrintLines []string

	mounts     map[string]*Mount
	files      map[int]*OpenFile
	nextHandle int

	stack   []value.Value
	frames  []*frame
	excStack []*Exception

	instrCount int
}

// New creates an empty VM: no builtins beyond the language's own
// operators/methods, no tools, no modules, no limits.
func New() *VM {
	return &VM{
		Globals: map[string]value.Value{},
		Tools:   map[string]*ToolEntry{},
		Modules: map[string]*value.Module{},
		mounts:  map[string]*Mount{},
		files:   map[int]*OpenFile{},
	}
}

// Mount registers a virtual file (spec.md §6).
func (vm *VM) Mount(m *Mount) { vm.mounts[m.VirtualPath] = m }

// Execute runs a script's compiled CodeObject to completion. Globals persist
// across calls on the same VM (spec.md §8 "Globals persistence").
func (vm *VM) Execute(code *compile.CodeObject) (value.Value, error) {
	vm.instrCount = 0
	vm.stack = vm.stack[:0]
	vm.PrintLines = nil
	vm.frames = append(vm.frames, newFrame(code, nil, false, 0))
	v, err := vm.run(0, 0)
	if err != nil {
		vm.frames = vm.frames[:0]
		vm.stack = vm.stack[:0]
		return nil, err
	}
	return v, nil
}

// invoke runs a callable to completion in a fresh frame, synchronously,
// for use by builtins that accept callables (sorted's key=, map, filter,
// list.sort(key=)) per spec.md §9 "Callable state in builtins". It
// inherits the VM's frame-count recursion check but the callee's stack
// window starts at the current stack top, so the caller's in-flight
// values are untouched.
func (vm *VM) invoke(callable value.Value, args []value.Value) (value.Value, error) {
	switch c := callable.(type) {
	case *value.Function:
		locals, err := vm.bindParams(c.Def, args, nil)
		if err != nil {
			return nil, err
		}
		if vm.Limits.RecursionDepth > 0 && len(vm.frames) >= vm.Limits.RecursionDepth {
			return nil, raiseUncatchable(KindRecursionLimitExceeded, "RecursionLimitExceeded")
		}
		base := len(vm.stack)
		vm.frames = append(vm.frames, newFrame(c.Def.Code, locals, true, base))
		return vm.run(len(vm.frames)-1, base)
	case value.NativeFunction:
		return vm.callToolByName(c.Name, args, nil, nil, diagnostic.Span{}, "")
	default:
		return nil, fmt.Errorf("TypeError: '%s' object is not callable", value.TypeName(callable))
	}
}

// run executes instructions until the frame stack has been unwound back
// to targetDepth (i.e. the frame at index targetDepth-1, or the whole
// call if targetDepth == 0, has returned or propagated an error).
// stackFloor is the stack height to restore on an error that finds no
// handler within [targetDepth, len(frames)).
func (vm *VM) run(targetDepth int, stackFloor int) (value.Value, error) {
	for len(vm.frames) > targetDepth {
		f := vm.frames[len(vm.frames)-1]
		result, done, err := vm.step(f)
		if err != nil {
			se, _ := err.(*sandboxError)
			if se != nil && se.kind.uncatchable() {
				return nil, err
			}
			if vm.handleErrorAbove(targetDepth, err) {
				continue
			}
			vm.frames = vm.frames[:targetDepth]
			vm.stack = vm.stack[:stackFloor]
			return nil, err
		}
		if done {
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == targetDepth {
				return result, nil
			}
			vm.push(result)
		}
	}
	if len(vm.stack) > stackFloor {
		return vm.pop(), nil
	}
	return value.None, nil
}

// handleErrorAbove searches frames[floor:] top-down for a handler whose
// exception table covers the faulting ip, selecting (per spec.md §7's
// "innermost" rule, resolved here as the narrowest covering range rather
// than literal array order, since compileTry appends nested entries
// before their enclosing entry) the entry with the smallest (End-Start)
// span among all that cover the ip. On a hit it truncates the stack to
// the handler frame's base, pushes the active exception, optionally
// binds it by name, and resumes at the handler.
func (vm *VM) handleErrorAbove(floor int, err error) bool {
	typeName, msg := asException(err)
	for i := len(vm.frames) - 1; i >= floor; i-- {
		f := vm.frames[i]
		// f.ip was advanced past the faulting instruction (or, in a caller
		// frame, past the call), so the faulting ip is f.ip-1.
		entry, ok := findHandler(f.code.ExceptionTable, uint32(f.ip-1))
		if !ok {
			continue
		}
		vm.frames = vm.frames[:i+1]
		vm.truncateStack(f.stackBase)
		if entry.HasVarName {
			vm.storeVar(f, entry.VarName, msg)
		}
		vm.excStackPush(&Exception{TypeName: typeName, Message: msg})
		f.ip = int(entry.Handler)
		return true
	}
	return false
}

func findHandler(table []compile.ExceptionEntry, ip uint32) (compile.ExceptionEntry, bool) {
	best := -1
	for i, e := range table {
		if ip < e.Start || ip >= e.End {
			continue
		}
		if best == -1 || (e.End-e.Start) < (table[best].End-table[best].Start) {
			best = i
		}
	}
	if best == -1 {
		return compile.ExceptionEntry{}, false
	}
	return table[best], true
}

// excStack tracks the currently-active exception(s), one per nested
// handler (spec.md §7 "the exception is active").
func (vm *VM) excStackPush(e *Exception) { vm.excStack = append(vm.excStack, e) }
func (vm *VM) excStackTop() *Exception {
	if len(vm.excStack) == 0 {
		return nil
	}
	return vm.excStack[len(vm.excStack)-1]
}
func (vm *VM) excStackPop() {
	if len(vm.excStack) == 0 {
		return
	}
	vm.excStack = vm.excStack[:len(vm.excStack)-1]
}
