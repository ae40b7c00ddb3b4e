package vm

import (
	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/value"
)

// iterState is one entry of a frame's iterator stack (spec.md §3 "Frame:
// iterator stack"): a for-loop's materialised element list plus a cursor.
type iterState struct {
	elems []value.Value
	pos   int
}

// frame is one activation record. The top-level script frame has
// isFunction == false and stores directly into the VM's globals;
// function-call frames own a private locals map and fall back to
// globals for reads only (spec.md §4.7 "locals then globals").
//
// The value stack itself is NOT owned by frame: spec.md §3 describes a
// single value stack shared by every frame in a call chain, so it lives
// on the VM and frame only remembers stackBase, the index below which
// this frame's stack window begins (used both for normal return-value
// truncation and for exception-handler unwinding).
type frame struct {
	code       *compile.CodeObject
	ip         int
	locals     map[string]value.Value
	isFunction bool
	stackBase  int
	iters      []*iterState
}

func newFrame(code *compile.CodeObject, locals map[string]value.Value, isFunction bool, stackBase int) *frame {
	return &frame{code: code, locals: locals, isFunction: isFunction, stackBase: stackBase}
}

func (f *frame) pushIter(elems []value.Value) {
	f.iters = append(f.iters, &iterState{elems: elems})
}

func (f *frame) topIter() *iterState {
	if len(f.iters) == 0 {
		return nil
	}
	return f.iters[len(f.iters)-1]
}

func (f *frame) popIter() {
	if len(f.iters) == 0 {
		return
	}
	f.iters = f.iters[:len(f.iters)-1]
}
