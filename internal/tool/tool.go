// Package tool defines tool metadata: the declared name, argument
// shape, and return type a host registers so the VM can perform
// keyword routing, type validation, and documentation generation
// (spec.md §4.8). Grounded on
// original_source/crates/littrs/src/tool.rs.
package tool

import "strings"

// ArgInfo describes one declared tool argument.
type ArgInfo struct {
	Name        string
	Type        string // "any", "str", "int", "float", "bool", "list", "tuple", "dict", "set", "number", or an opaque name
	Description string
	Required    bool
}

// Info is the metadata a host supplies when registering a tool with
// RegisterTool (as opposed to the metadata-free RegisterFn).
type Info struct {
	Name        string
	Description string
	Args        []ArgInfo
	ReturnType  string
}

// New starts building a tool's metadata.
func New(name, description string) Info {
	return Info{Name: name, Description: description, ReturnType: "None"}
}

// Arg appends a required argument and returns the updated Info (builder
// style, mirroring the Rust original's method-chaining API).
func (i Info) Arg(name, typ, description string) Info {
	i.Args = append(i.Args, ArgInfo{Name: name, Type: typ, Description: description, Required: true})
	return i
}

// ArgOpt appends an optional argument.
func (i Info) ArgOpt(name, typ, description string) Info {
	i.Args = append(i.Args, ArgInfo{Name: name, Type: typ, Description: description, Required: false})
	return i
}

// Returns sets the declared return type.
func (i Info) Returns(typ string) Info {
	i.ReturnType = typ
	return i
}

// Signature renders `name(a: int, b: str | None = None) -> dict`.
func (i Info) Signature() string {
	parts := make([]string, len(i.Args))
	for n, a := range i.Args {
		if a.Required {
			parts[n] = a.Name + ": " + a.Type
		} else {
			parts[n] = a.Name + ": " + a.Type + " | None = None"
		}
	}
	return i.Name + "(" + strings.Join(parts, ", ") + ") -> " + i.ReturnType
}

// Doc renders the full Python-style docstring-annotated signature used
// by describe_tools(), per spec.md §6's tool documentation format.
func (i Info) Doc() string {
	var b strings.Builder
	b.WriteString("def " + i.Signature() + ":\n")
	b.WriteString("    \"\"\"" + i.Description + "\n")
	if len(i.Args) > 0 {
		b.WriteString("\n    Args:\n")
		for _, a := range i.Args {
			b.WriteString("        " + a.Name + ": " + a.Description + "\n")
		}
	}
	b.WriteString("    \"\"\"")
	return b.String()
}

// DescribeTools renders docs for every tool, suitable for pasting into
// an LLM system prompt (spec.md §4.9's describe_tools()).
func DescribeTools(tools []Info) string {
	docs := make([]string, len(tools))
	for i, t := range tools {
		docs[i] = t.Doc()
	}
	return strings.Join(docs, "\n\n")
}

// Accepts reports whether a declared type string admits v's runtime
// type name, per the compatibility table in spec.md §4.8.
func Accepts(declared, actual string) bool {
	switch declared {
	case "any":
		return true
	case "number":
		return actual == "int" || actual == "float"
	case "float":
		return actual == "float" || actual == "int"
	case "str", "int", "bool", "list", "tuple", "dict", "set":
		return actual == declared
	default:
		return true // opaque declared type: accept anything
	}
}
