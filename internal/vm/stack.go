package vm

import "github.com/chonkie-inc/littr/internal/value"

// The value stack is owned by the VM, shared across every frame in the
// current call chain (spec.md §3 "Value stack (shared by all frames)").

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek() value.Value { return vm.stack[len(vm.stack)-1] }

// popN returns the top n values in push order (oldest first).
func (vm *VM) popN(n int) []value.Value {
	start := len(vm.stack) - n
	out := append([]value.Value(nil), vm.stack[start:]...)
	vm.stack = vm.stack[:start]
	return out
}

func (vm *VM) truncateStack(base int) { vm.stack = vm.stack[:base] }
