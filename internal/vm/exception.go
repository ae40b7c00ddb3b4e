package vm

import "github.com/chonkie-inc/littr/internal/value"

// Exception is the active-exception record the VM maintains while
// unwinding toward a handler, per spec.md §7's propagation rules.
type Exception struct {
	TypeName string
	Message  value.Value
}

// sandboxError is the error type every raised/runtime failure inside
// the VM is wrapped in before it is routed to exception handling or, if
// uncatchable, straight to the caller. Kind mirrors spec.md §7's
// taxonomy.
type sandboxError struct {
	kind     Kind
	typeName string
	message  value.Value
	err      error
}

func (e *sandboxError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.typeName
}

func (e *sandboxError) Unwrap() error { return e.err }

// Kind is the error taxonomy of spec.md §7.
type Kind int

const (
	KindRuntime Kind = iota
	KindType
	KindName
	KindDivisionByZero
	KindUnsupported
	KindDiagnostic
	KindInstructionLimitExceeded
	KindRecursionLimitExceeded
)

func (k Kind) uncatchable() bool {
	return k == KindInstructionLimitExceeded || k == KindRecursionLimitExceeded
}

// asException converts a Go error raised by an operator/builtin/method
// into an (typeName, message) pair usable as an active Exception,
// following the "Runtime — structured messages beginning with a Python
// exception name" rule of spec.md §7.
func asException(err error) (string, value.Value) {
	if se, ok := err.(*sandboxError); ok {
		if se.typeName != "" {
			return se.typeName, se.message
		}
	}
	msg := err.Error()
	for _, prefix := range []string{
		"ValueError", "KeyError", "IndexError", "ZeroDivisionError",
		"AttributeError", "ModuleNotFoundError", "FileNotFoundError",
		"PermissionError", "UnsupportedOperation", "AssertionError",
		"TypeError", "NameError",
	} {
		if len(msg) >= len(prefix) && msg[:len(prefix)] == prefix {
			rest := msg[len(prefix):]
			if len(rest) > 1 && rest[0] == ':' {
				rest = rest[2:]
			}
			return prefix, value.Str(rest)
		}
	}
	return "RuntimeError", value.Str(msg)
}

// raiseUncatchable wraps a resource-limit breach so the outer loop can
// distinguish it from catchable errors.
func raiseUncatchable(kind Kind, msg string) error {
	return &sandboxError{kind: kind, typeName: msg}
}

// kindForTypeName maps a Python exception type name to its dedicated
// Kind variant, per spec.md §7's taxonomy. Exception names with no
// dedicated Kind (ValueError, KeyError, IndexError, ...) fall back to
// KindRuntime.
func kindForTypeName(typeName string) Kind {
	switch typeName {
	case "TypeError":
		return KindType
	case "NameError":
		return KindName
	case "ZeroDivisionError":
		return KindDivisionByZero
	default:
		return KindRuntime
	}
}

// ErrorKind classifies an error returned by Execute, for hosts that want
// to translate it into their own error type rather than pattern-match
// on Error() text.
func ErrorKind(err error) (kind Kind, typeName string, message value.Value) {
	if se, ok := err.(*sandboxError); ok {
		return se.kind, se.typeName, se.message
	}
	typeName, message = asException(err)
	return kindForTypeName(typeName), typeName, message
}
