package littr

import (
	"github.com/chonkie-inc/littr/internal/tool"
	"github.com/chonkie-inc/littr/internal/value"
	"github.com/chonkie-inc/littr/internal/vm"
)

// typingAnnotation returns a string naming the annotation, purely for
// documentation: typing.List('int') returns 'List[int]' and carries
// no runtime meaning or enforcement (spec.md §1 Non-goals: "no static
// type checking"). Scripts call these the way a host's tool signature
// describes a parameter's shape, so describe_tools() output and
// inline typing.Foo(...) calls in a snippet read the same way.
func typingAnnotation(name string, args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Str(name)
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Display(a)
	}
	s := name + "["
	for i, p := range parts {
		if i > 0 {
			s += ", "
		}
		s += p
	}
	return value.Str(s + "]")
}

func typingEntry(name, doc string) *vm.ToolEntry {
	info := tool.New(name, doc).
		ArgOpt("first", "any", "First type argument.").
		ArgOpt("second", "any", "Second type argument.").
		Returns("str")
	return &vm.ToolEntry{
		Info: &info,
		Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			for len(args) > 0 && args[len(args)-1] == value.None {
				args = args[:len(args)-1]
			}
			return typingAnnotation(name, args), nil
		},
	}
}

// registerTyping installs the typing module: List, Dict, Optional are
// sentinel functions a script (or a host writing a tool signature) can
// call to document a shape; none of them validate anything (spec.md §1
// Non-goals, SPEC_FULL.md §5.1).
func registerTyping(v *vm.VM) {
	entries := map[string]*vm.ToolEntry{
		"typing.List":     typingEntry("List", "Documents a value as a list of the given element type; performs no validation."),
		"typing.Dict":     typingEntry("Dict", "Documents a value as a dict from the first type to the second; performs no validation."),
		"typing.Optional": typingEntry("Optional", "Documents a value as the given type or None; performs no validation."),
	}
	attrs := make([]value.ModuleAttr, 0, len(entries))
	for qualName, te := range entries {
		v.Tools[qualName] = te
		name := qualName[len("typing."):]
		attrs = append(attrs, value.ModuleAttr{Name: name, Value: value.NativeFunction{Name: qualName}})
	}
	v.Modules["typing"] = &value.Module{Name: "typing", Attrs: attrs}
}
