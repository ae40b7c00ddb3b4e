package littr_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chonkie-inc/littr"
	"github.com/chonkie-inc/littr/internal/value"
)

func TestExecuteArithmetic(t *testing.T) {
	sb := littr.New()
	v, err := sb.Execute("2 + 2")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "4" {
		t.Errorf("result = %s, want 4", v.String())
	}
}

func TestExecuteForLoopAccumulation(t *testing.T) {
	sb := littr.New()
	v, err := sb.Execute("total = 0\nfor i in range(10):\n    total = total + i\ntotal\n")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "45" {
		t.Errorf("result = %s, want 45", v.String())
	}
}

func TestExecuteGlobalsPersistAcrossCalls(t *testing.T) {
	sb := littr.New()
	if _, err := sb.Execute("x = 41"); err != nil {
		t.Fatal(err)
	}
	v, err := sb.Execute("x + 1")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "42" {
		t.Errorf("result = %s, want 42", v.String())
	}
}

func TestRegisterToolKeywordRouting(t *testing.T) {
	sb := littr.New()
	info := littr.NewToolInfo("add", "Adds two integers.").
		Arg("a", "int", "first operand").
		Arg("b", "int", "second operand").
		WithReturns("int")
	sb.RegisterTool(info, func(args []value.Value) (value.Value, error) {
		a := args[0].(value.Int)
		b := args[1].(value.Int)
		return a + b, nil
	})

	v, err := sb.Execute("add(b=7, a=3)")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "10" {
		t.Errorf("result = %s, want 10", v.String())
	}
}

func TestRegisterToolTypeMismatchDiagnostic(t *testing.T) {
	sb := littr.New()
	info := littr.NewToolInfo("add", "Adds two integers.").
		Arg("a", "int", "first operand").
		Arg("b", "int", "second operand").
		WithReturns("int")
	sb.RegisterTool(info, func(args []value.Value) (value.Value, error) {
		a := args[0].(value.Int)
		b := args[1].(value.Int)
		return a + b, nil
	})

	_, err := sb.Execute("add(3, 'x')")
	if err == nil {
		t.Fatal("expected a type-mismatch error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "expected `int`, found `str`") {
		t.Errorf("diagnostic = %q, missing expected/found wording", msg)
	}
	if !strings.Contains(msg, "'x'") {
		t.Errorf("diagnostic = %q, missing the offending argument text", msg)
	}

	var se *littr.SandboxError
	if !errors.As(err, &se) {
		t.Fatalf("error is not a *littr.SandboxError: %T", err)
	}
	if se.Kind != littr.KindDiagnostic {
		t.Errorf("Kind = %v, want KindDiagnostic", se.Kind)
	}
}

func TestExecuteTryExceptKeyError(t *testing.T) {
	sb := littr.New()
	src := "try:\n    x = {}\n    x['k']\nexcept KeyError as e:\n    result = 'missing'\nresult\n"
	v, err := sb.Execute(src)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "'missing'" {
		t.Errorf("result = %s, want 'missing'", v.String())
	}
}

func TestExecuteRecursiveFibonacci(t *testing.T) {
	sb := littr.New()
	src := "def fib(n):\n    if n < 2: return n\n    return fib(n-1)+fib(n-2)\nfib(10)\n"
	v, err := sb.Execute(src)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "55" {
		t.Errorf("result = %s, want 55", v.String())
	}
}

func TestInstructionLimitIsUncatchable(t *testing.T) {
	sb := littr.New()
	sb.SetLimits(10000, 0)
	_, err := sb.Execute("try:\n    while True:\n        pass\nexcept Exception:\n    result = 'caught'\n")
	if err == nil {
		t.Fatal("expected InstructionLimitExceeded, got nil")
	}
	var se *littr.SandboxError
	if !errors.As(err, &se) {
		t.Fatalf("error is not a *littr.SandboxError: %T", err)
	}
	if se.Kind != littr.KindInstructionLimitExceeded {
		t.Errorf("Kind = %v, want KindInstructionLimitExceeded", se.Kind)
	}
}

func TestRecursionLimitIsUncatchable(t *testing.T) {
	sb := littr.New()
	sb.SetLimits(0, 50)
	_, err := sb.Execute("def loop(n):\n    return loop(n + 1)\nloop(0)\n")
	if err == nil {
		t.Fatal("expected RecursionLimitExceeded, got nil")
	}
	var se *littr.SandboxError
	if !errors.As(err, &se) {
		t.Fatalf("error is not a *littr.SandboxError: %T", err)
	}
	if se.Kind != littr.KindRecursionLimitExceeded {
		t.Errorf("Kind = %v, want KindRecursionLimitExceeded", se.Kind)
	}
}

func TestExecuteWithOutputCapturesPrintLines(t *testing.T) {
	sb := littr.New()
	res, err := sb.ExecuteWithOutput("print('a', 1)\nprint('b')\n")
	if err != nil {
		t.Fatal(err)
	}
	if res.Result != value.None {
		t.Errorf("Result = %v, want None", res.Result)
	}
	if diff := cmp.Diff([]string{"a 1", "b"}, res.Printed); diff != "" {
		t.Errorf("Printed got diff (-want +got):\n%s", diff)
	}
}

func TestSandboxesAreIndependent(t *testing.T) {
	a := littr.New()
	b := littr.New()
	if _, err := a.Execute("x = 1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.GetVariable("x"); ok {
		t.Error("sandbox b observed sandbox a's global binding")
	}
	ra, err := a.ExecuteWithOutput("print('from a')")
	if err != nil {
		t.Fatal(err)
	}
	rb, err := b.ExecuteWithOutput("1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rb.Printed) != 0 {
		t.Errorf("sandbox b's print buffer leaked sandbox a's output: %v", rb.Printed)
	}
	if len(ra.Printed) != 1 || ra.Printed[0] != "from a" {
		t.Errorf("sandbox a printed %v, want [from a]", ra.Printed)
	}
}

func TestWithBuiltinsRegistersStdlibModules(t *testing.T) {
	sb := littr.WithBuiltins()
	v, err := sb.Execute("import math\nmath.sqrt(16)")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "4.0" {
		t.Errorf("math.sqrt(16) = %s, want 4.0", v.String())
	}

	v, err = sb.Execute("import json\njson.dumps({'a': 1})")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != `'{"a":1}'` {
		t.Errorf(`json.dumps({'a': 1}) = %s, want '{"a":1}'`, v.String())
	}
}

func TestDescribeToolsOnlyListsRegisteredTools(t *testing.T) {
	sb := littr.WithBuiltins()
	info := littr.NewToolInfo("search", "Search for items.").
		Arg("query", "str", "search query").
		WithReturns("list")
	sb.RegisterTool(info, func(args []value.Value) (value.Value, error) {
		return value.NewList(nil), nil
	})

	doc := sb.DescribeTools()
	if !strings.Contains(doc, "search(query: str)") {
		t.Errorf("DescribeTools() = %q, missing search's signature", doc)
	}
	if strings.Contains(doc, "math.sqrt") || strings.Contains(doc, "json.dumps") {
		t.Errorf("DescribeTools() = %q, leaked internal stdlib module tool names", doc)
	}
}
