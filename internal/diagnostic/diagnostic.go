// Package diagnostic renders Rust-compiler-style error messages: source
// snippets with carets, secondary labels, notes, and help lines.
//
// This is the user-visible contract of every type-level error the sandbox
// produces, so its output format is load-bearing.
package diagnostic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Span is a half-open byte range into a Diagnostic's source text.
type Span struct {
	Start, End int
}

// Label attaches a message to a span. Primary labels are underlined with
// '^', secondary labels with '-'.
type Label struct {
	Span      Span
	Message   string
	IsPrimary bool
}

func Primary(span Span, message string) Label   { return Label{span, message, true} }
func Secondary(span Span, message string) Label { return Label{span, message, false} }

// Diagnostic is a fully-rendered rich error: a headline, optional source
// context, labeled spans, notes, and help suggestions.
type Diagnostic struct {
	Message string
	Source  string
	Labels  []Label
	Notes   []string
	Help    []string
}

func New(message string) *Diagnostic {
	return &Diagnostic{Message: message}
}

func (d *Diagnostic) WithSource(source string) *Diagnostic {
	d.Source = source
	return d
}

func (d *Diagnostic) WithLabel(span Span, message string) *Diagnostic {
	d.Labels = append(d.Labels, Primary(span, message))
	return d
}

func (d *Diagnostic) WithSecondaryLabel(span Span, message string) *Diagnostic {
	d.Labels = append(d.Labels, Secondary(span, message))
	return d
}

func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = append(d.Help, help)
	return d
}

// Error satisfies the error interface so a Diagnostic can be returned
// directly from compiler/VM code paths.
func (d *Diagnostic) Error() string { return d.String() }

func (d *Diagnostic) offsetToLineCol(offset int) (line, col int) {
	line, col = 1, 1
	for i, ch := range d.Source {
		if i >= offset {
			break
		}
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (d *Diagnostic) getLine(lineNum int) string {
	lines := strings.Split(d.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func (d *Diagnostic) lineNumberWidth() int {
	n := len(strings.Split(d.Source, "\n"))
	w := len(strconv.Itoa(n))
	if w < 1 {
		return 1
	}
	return w
}

// String renders the diagnostic in the Rust-compiler style described by
// spec.md §4.5.
func (d *Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error: %s\n", d.Message)

	if d.Source == "" || len(d.Labels) == 0 {
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "  = note: %s\n", n)
		}
		for _, h := range d.Help {
			fmt.Fprintf(&b, "  = help: %s\n", h)
		}
		return strings.TrimSuffix(b.String(), "\n")
	}

	width := d.lineNumberWidth()
	gutter := strings.Repeat(" ", width)

	labelsByLine := map[int][]Label{}
	var lineNums []int
	for _, l := range d.Labels {
		line, _ := d.offsetToLineCol(l.Span.Start)
		if _, ok := labelsByLine[line]; !ok {
			lineNums = append(lineNums, line)
		}
		labelsByLine[line] = append(labelsByLine[line], l)
	}
	sort.Ints(lineNums)

	fmt.Fprintf(&b, "%s |\n", gutter)
	for _, lineNum := range lineNums {
		content := d.getLine(lineNum)
		fmt.Fprintf(&b, "%*d | %s\n", width, lineNum, content)

		for _, l := range labelsByLine[lineNum] {
			_, startCol := d.offsetToLineCol(l.Span.Start)
			_, endCol := d.offsetToLineCol(l.Span.End)
			underlineStart := startCol - 1
			underlineLen := endCol - startCol
			if underlineLen < 1 {
				underlineLen = 1
			}
			ch := "^"
			if !l.IsPrimary {
				ch = "-"
			}
			fmt.Fprintf(&b, "%s | %s%s", gutter, strings.Repeat(" ", underlineStart), strings.Repeat(ch, underlineLen))
			if l.Message != "" {
				fmt.Fprintf(&b, " %s", l.Message)
			}
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "%s |\n", gutter)

	for _, n := range d.Notes {
		fmt.Fprintf(&b, "  = note: %s\n", n)
	}
	for _, h := range d.Help {
		fmt.Fprintf(&b, "  = help: %s\n", h)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// FunctionCallDiagnostic consolidates the three common call-site errors:
// type mismatch, missing required argument, unexpected keyword argument.
type FunctionCallDiagnostic struct {
	FuncName      string
	Source        string
	CallSpan      Span
	ArgSpans      []Span
	ArgNames      []string
	ExpectedTypes []string
}

func NewFunctionCallDiagnostic(funcName string) *FunctionCallDiagnostic {
	return &FunctionCallDiagnostic{FuncName: funcName}
}

func (f *FunctionCallDiagnostic) WithSource(source string) *FunctionCallDiagnostic {
	f.Source = source
	return f
}

func (f *FunctionCallDiagnostic) WithCallSpan(span Span) *FunctionCallDiagnostic {
	f.CallSpan = span
	return f
}

func (f *FunctionCallDiagnostic) WithArg(span Span, name, expectedType string) *FunctionCallDiagnostic {
	f.ArgSpans = append(f.ArgSpans, span)
	f.ArgNames = append(f.ArgNames, name)
	f.ExpectedTypes = append(f.ExpectedTypes, expectedType)
	return f
}

func (f *FunctionCallDiagnostic) signature() string {
	parts := make([]string, len(f.ArgNames))
	for i, n := range f.ArgNames {
		parts[i] = fmt.Sprintf("%s: %s", n, f.ExpectedTypes[i])
	}
	return strings.Join(parts, ", ")
}

func (f *FunctionCallDiagnostic) TypeMismatch(argIndex int, expected, got, actualValue string) *Diagnostic {
	argName := "?"
	var argSpan Span
	if argIndex >= 0 && argIndex < len(f.ArgNames) {
		argName = f.ArgNames[argIndex]
	}
	if argIndex >= 0 && argIndex < len(f.ArgSpans) {
		argSpan = f.ArgSpans[argIndex]
	}
	return New(fmt.Sprintf("type mismatch in call to `%s`", f.FuncName)).
		WithSource(f.Source).
		WithLabel(argSpan, fmt.Sprintf("expected `%s`, found `%s`", expected, got)).
		WithNote(fmt.Sprintf("parameter `%s` of `%s()` expects type `%s`", argName, f.FuncName, expected)).
		WithHelp(fmt.Sprintf("the value `%s` has type `%s`, but `%s` is required", actualValue, got, expected))
}

func (f *FunctionCallDiagnostic) MissingArgument(argName, expectedType string) *Diagnostic {
	return New(fmt.Sprintf("missing required argument in call to `%s`", f.FuncName)).
		WithSource(f.Source).
		WithLabel(f.CallSpan, fmt.Sprintf("missing `%s`", argName)).
		WithNote(fmt.Sprintf("function signature: %s(%s)", f.FuncName, f.signature())).
		WithHelp(fmt.Sprintf("add the missing argument `%s` of type `%s`", argName, expectedType))
}

func (f *FunctionCallDiagnostic) UnexpectedArgument(argName string, argSpan Span) *Diagnostic {
	return New(fmt.Sprintf("`%s()` got an unexpected keyword argument `%s`", f.FuncName, argName)).
		WithSource(f.Source).
		WithLabel(argSpan, "unexpected argument").
		WithNote(fmt.Sprintf("function signature: %s(%s)", f.FuncName, f.signature())).
		WithHelp(fmt.Sprintf("valid arguments are: %s", strings.Join(f.ArgNames, ", ")))
}
