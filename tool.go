package littr

import (
	"github.com/chonkie-inc/littr/internal/tool"
)

// ArgInfo describes one declared tool argument (spec.md §4.8
// "ToolInfo"). Type is one of "any", "str", "int", "float", "bool",
// "list", "tuple", "dict", "set", "number", or an opaque name that
// accepts any value.
type ArgInfo struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// ToolInfo is the metadata a host supplies to RegisterTool: it enables
// keyword routing, argument type validation, and describe_tools()
// documentation generation (spec.md §4.8).
type ToolInfo struct {
	Name        string
	Description string
	Args        []ArgInfo
	Returns     string
}

// NewToolInfo starts building a tool's metadata, mirroring the builder
// style of internal/tool.Info.
func NewToolInfo(name, description string) ToolInfo {
	return ToolInfo{Name: name, Description: description, Returns: "None"}
}

// Arg appends a required argument and returns the updated ToolInfo.
func (i ToolInfo) Arg(name, typ, description string) ToolInfo {
	i.Args = append(i.Args, ArgInfo{Name: name, Type: typ, Description: description, Required: true})
	return i
}

// ArgOpt appends an optional argument.
func (i ToolInfo) ArgOpt(name, typ, description string) ToolInfo {
	i.Args = append(i.Args, ArgInfo{Name: name, Type: typ, Description: description, Required: false})
	return i
}

// WithReturns sets the declared return type.
func (i ToolInfo) WithReturns(typ string) ToolInfo {
	i.Returns = typ
	return i
}

func (i ToolInfo) toInternal() tool.Info {
	args := make([]tool.ArgInfo, len(i.Args))
	for n, a := range i.Args {
		args[n] = tool.ArgInfo{Name: a.Name, Type: a.Type, Description: a.Description, Required: a.Required}
	}
	return tool.Info{Name: i.Name, Description: i.Description, Args: args, ReturnType: i.Returns}
}

func fromInternalToolInfo(name string, ti tool.Info) ToolInfo {
	args := make([]ArgInfo, len(ti.Args))
	for n, a := range ti.Args {
		args[n] = ArgInfo{Name: a.Name, Type: a.Type, Description: a.Description, Required: a.Required}
	}
	returns := ti.ReturnType
	if returns == "" {
		returns = "None"
	}
	return ToolInfo{Name: name, Description: ti.Description, Args: args, Returns: returns}
}

// describeTools renders the full Python-style docstring block for every
// tool in infos, suitable for pasting into an LLM system prompt
// (spec.md §6 "Tool documentation format").
func describeTools(infos []ToolInfo) string {
	tis := make([]tool.Info, len(infos))
	for i, ti := range infos {
		tis[i] = ti.toInternal()
	}
	return tool.DescribeTools(tis)
}
