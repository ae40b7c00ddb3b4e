// Package littr embeds a restricted Python-like language for running
// untrusted "CodeAct" snippets produced by LLM-agent tool dispatch. A
// host registers typed callbacks ("tools"), hands a Sandbox a source
// snippet, and receives a result value plus any captured print output.
//
// The sandbox exposes no file, network, process, clock, or reflection
// facility beyond what the host explicitly mounts or registers. See
// spec.md §1 for the full purpose and scope, and §4.9 for this file's
// contract.
package littr

import (
	"sort"

	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/parser"
	"github.com/chonkie-inc/littr/internal/value"
	"github.com/chonkie-inc/littr/internal/vm"
	libjson "github.com/chonkie-inc/littr/lib/json"
	libmath "github.com/chonkie-inc/littr/lib/math"
)

// Sandbox is one instance of the execution environment: it owns
// globals, registered tools, registered modules, limits, mounts, and
// the print buffer of the underlying VM (spec.md §3 "Vm state"). A
// Sandbox is not safe for concurrent use from multiple goroutines; see
// spec.md §5 "Shared-resource policy".
type Sandbox struct {
	vm *vm.VM

	// docTools is the set of names registered via RegisterTool, kept
	// separate from stdlib module tools (which the vm.Tools table also
	// holds, under qualified names like "math.sqrt") so describe_tools()
	// only documents what the host explicitly asked to document.
	docTools []string
}

// New constructs an empty sandbox: no tools, no bundled modules, no
// limits. Scripts may still use every language construct and builtin
// of spec.md §4.4, just no registered tool or stdlib module.
func New() *Sandbox {
	return &Sandbox{vm: vm.New()}
}

// WithBuiltins constructs a sandbox with the bundled json, math, and
// typing modules preregistered (spec.md §4.9).
func WithBuiltins() *Sandbox {
	s := New()
	libjson.Register(s.vm)
	libmath.Register(s.vm)
	registerTyping(s.vm)
	return s
}

// RegisterFn registers a bare callback under name, with no metadata: no
// keyword routing, no type validation (spec.md §4.9 "register_fn").
func (s *Sandbox) RegisterFn(name string, fn func(args []value.Value) (value.Value, error)) {
	s.vm.Tools[name] = &vm.ToolEntry{
		Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return fn(args)
		},
	}
}

// RegisterTool registers a callback with typed metadata, enabling
// keyword routing, argument type validation, and describe_tools()
// documentation (spec.md §4.8, §4.9 "register_tool").
func (s *Sandbox) RegisterTool(info ToolInfo, fn func(args []value.Value) (value.Value, error)) {
	ti := info.toInternal()
	s.vm.Tools[info.Name] = &vm.ToolEntry{
		Info: &ti,
		Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return fn(args)
		},
	}
	s.docTools = append(s.docTools, info.Name)
}

// SetVariable sets a global binding, visible to every subsequent
// Execute call on this sandbox (spec.md §4.9 "set_variable").
func (s *Sandbox) SetVariable(name string, v value.Value) {
	s.vm.Globals[name] = v
}

// GetVariable reads a global binding (spec.md §4.9 "get_variable").
func (s *Sandbox) GetVariable(name string) (value.Value, bool) {
	v, ok := s.vm.Globals[name]
	return v, ok
}

// SetLimits bounds instruction count and/or recursion depth for every
// subsequent Execute call; both are uncatchable (spec.md §4.9
// "set_limits", §5 "Cancellation / timeouts"). A zero value leaves the
// corresponding limit unbounded.
func (s *Sandbox) SetLimits(instructionCount, recursionDepth int) {
	s.vm.Limits = vm.Limits{InstructionCount: instructionCount, RecursionDepth: recursionDepth}
}

// Execute compiles and runs source to completion. Globals persist
// across calls on the same Sandbox (spec.md §4.9 "execute").
func (s *Sandbox) Execute(source string) (value.Value, error) {
	v, _, err := s.execute(source)
	return v, err
}

// ExecuteResult is the return value of ExecuteWithOutput: a result
// value plus the print lines produced while executing it, in insertion
// order (spec.md §4.9 "execute_with_output").
type ExecuteResult struct {
	Result  value.Value
	Printed []string
}

// ExecuteWithOutput is Execute plus the drained print buffer produced
// during this call (spec.md §4.9 "execute_with_output").
func (s *Sandbox) ExecuteWithOutput(source string) (ExecuteResult, error) {
	v, lines, err := s.execute(source)
	return ExecuteResult{Result: v, Printed: lines}, err
}

func (s *Sandbox) execute(source string) (value.Value, []string, error) {
	mod, err := parser.Parse(source)
	if err != nil {
		return nil, nil, &SandboxError{Kind: KindParse, err: err}
	}
	code, err := compile.Compile(source, mod)
	if err != nil {
		return nil, nil, wrapCompileErr(err)
	}

	v, err := s.vm.Execute(code)
	lines := append([]string(nil), s.vm.PrintLines...)
	if err != nil {
		return nil, lines, wrapVMErr(err)
	}
	return v, lines, nil
}

// DescribeTools renders Python-style docstrings for every registered
// tool that carries metadata, suitable for pasting into an LLM system
// prompt (spec.md §4.9 "describe_tools", §6 "Tool documentation
// format").
func (s *Sandbox) DescribeTools() string {
	names := append([]string(nil), s.docTools...)
	sort.Strings(names)
	infos := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		if te, ok := s.vm.Tools[name]; ok && te.Info != nil {
			infos = append(infos, fromInternalToolInfo(name, *te.Info))
		}
	}
	return describeTools(infos)
}
