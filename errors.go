package littr

import (
	"fmt"

	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/value"
	"github.com/chonkie-inc/littr/internal/vm"
)

// Kind classifies a SandboxError (spec.md §7's error taxonomy).
type Kind int

const (
	// KindParse means source failed to parse as valid syntax.
	KindParse Kind = iota
	// KindUnsupported means source parsed but the compiler rejected it
	// (for example 'break' outside a loop). Constructs the parser does not
	// know at all (classes, with, async/await, yield, lambda, decorators,
	// finally, ...) fail earlier and are reported as KindParse.
	KindUnsupported
	// KindRuntime is an uncategorized runtime failure.
	KindRuntime
	// KindType is a Python TypeError raised during execution.
	KindType
	// KindName is a Python NameError raised during execution.
	KindName
	// KindDivisionByZero is a Python ZeroDivisionError.
	KindDivisionByZero
	// KindDiagnostic carries a fully-rendered rich diagnostic (a tool-call
	// argument mismatch), surfaced to the host as a RuntimeError.
	KindDiagnostic
	// KindInstructionLimitExceeded means SetLimits' instruction bound was
	// hit. Uncatchable by script-level try/except.
	KindInstructionLimitExceeded
	// KindRecursionLimitExceeded means SetLimits' recursion bound was
	// hit. Uncatchable by script-level try/except.
	KindRecursionLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "Parse"
	case KindUnsupported:
		return "Unsupported"
	case KindRuntime:
		return "Runtime"
	case KindType:
		return "Type"
	case KindName:
		return "Name"
	case KindDivisionByZero:
		return "DivisionByZero"
	case KindDiagnostic:
		return "Diagnostic"
	case KindInstructionLimitExceeded:
		return "InstructionLimitExceeded"
	case KindRecursionLimitExceeded:
		return "RecursionLimitExceeded"
	default:
		return "Unknown"
	}
}

// SandboxError is returned by Execute/ExecuteWithOutput for every parse,
// compile, and runtime failure. TypeName is the Python exception name
// (e.g. "KeyError", "ZeroDivisionError") for Kind values that originate
// from a raised/propagated exception; it is empty for KindParse and
// KindUnsupported. Message is the associated exception payload, where
// applicable.
type SandboxError struct {
	Kind     Kind
	TypeName string
	Message  value.Value
	err      error
}

func (e *SandboxError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *SandboxError) Unwrap() error { return e.err }

// wrapCompileErr classifies a parse-time-accepted-but-rejected construct
// (internal/compile.Error, which carries a rendered diagnostic) as
// KindUnsupported; anything else falls back to KindRuntime.
func wrapCompileErr(err error) error {
	if ce, ok := err.(*compile.Error); ok {
		return &SandboxError{Kind: KindUnsupported, err: ce, Message: value.Str(ce.Error())}
	}
	return &SandboxError{Kind: KindRuntime, err: err}
}

// wrapVMErr classifies an error returned by vm.VM.Execute using the
// engine's own taxonomy (internal/vm.ErrorKind), translating its Kind
// into the root-level Kind constants.
func wrapVMErr(err error) error {
	k, typeName, message := vm.ErrorKind(err)
	return &SandboxError{Kind: translateVMKind(k), TypeName: typeName, Message: message, err: err}
}

func translateVMKind(k vm.Kind) Kind {
	switch k {
	case vm.KindType:
		return KindType
	case vm.KindName:
		return KindName
	case vm.KindDivisionByZero:
		return KindDivisionByZero
	case vm.KindUnsupported:
		return KindUnsupported
	case vm.KindDiagnostic:
		return KindDiagnostic
	case vm.KindInstructionLimitExceeded:
		return KindInstructionLimitExceeded
	case vm.KindRecursionLimitExceeded:
		return KindRecursionLimitExceeded
	default:
		return KindRuntime
	}
}
