package vm_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chonkie-inc/littr/internal/compile"
	"github.com/chonkie-inc/littr/internal/parser"
	"github.com/chonkie-inc/littr/internal/tool"
	"github.com/chonkie-inc/littr/internal/value"
	"github.com/chonkie-inc/littr/internal/vm"
	gc "gopkg.in/check.v1"
)

// Hook gocheck into go test, mirroring the teacher's library_test.go
// Suite/Checker convention.
func Test(t *testing.T) { gc.TestingT(t) }

type VMSuite struct{}

var _ = gc.Suite(&VMSuite{})

func run(c *gc.C, v *vm.VM, source string) (value.Value, error) {
	mod, err := parser.Parse(source)
	c.Assert(err, gc.IsNil)
	code, err := compile.Compile(source, mod)
	c.Assert(err, gc.IsNil)
	return v.Execute(code)
}

func (s *VMSuite) TestArithmeticExpression(c *gc.C) {
	result, err := run(c, vm.New(), "2 + 2")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "4")
}

func (s *VMSuite) TestForLoopAccumulation(c *gc.C) {
	result, err := run(c, vm.New(),
		"total = 0\nfor i in range(10):\n    total = total + i\ntotal\n")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "45")
}

func (s *VMSuite) TestStackBalanceOnExpressionStatement(c *gc.C) {
	v := vm.New()
	result, err := run(c, v, "x = 1\nx + 1\ny = 2\n")
	c.Assert(err, gc.IsNil)
	c.Check(result, gc.Equals, value.None)
}

func (s *VMSuite) TestGlobalsPersistAcrossExecuteCalls(c *gc.C) {
	v := vm.New()
	_, err := run(c, v, "x = 41")
	c.Assert(err, gc.IsNil)
	result, err := run(c, v, "x + 1")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "42")
}

func (s *VMSuite) TestShortCircuitAndReturnsLastOperand(c *gc.C) {
	result, err := run(c, vm.New(), "0 and 5")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "0")

	result, err = run(c, vm.New(), "2 and 5")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "5")
}

func (s *VMSuite) TestShortCircuitOrReturnsLastOperand(c *gc.C) {
	result, err := run(c, vm.New(), "0 or 5")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "5")
}

func (s *VMSuite) TestChainedComparison(c *gc.C) {
	result, err := run(c, vm.New(), "1 < 2 < 3")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "True")

	result, err = run(c, vm.New(), "1 < 2 < 0")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "False")
}

func (s *VMSuite) TestTryExceptKeyError(c *gc.C) {
	result, err := run(c, vm.New(),
		"try:\n    x = {}\n    x['k']\nexcept KeyError as e:\n    result = 'missing'\nresult\n")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "'missing'")
}

func (s *VMSuite) TestExceptExceptionCatchesAnyRaisedType(c *gc.C) {
	result, err := run(c, vm.New(),
		"try:\n    1 / 0\nexcept Exception as e:\n    result = 'caught'\nresult\n")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "'caught'")
}

func (s *VMSuite) TestExceptTypeMismatchPropagates(c *gc.C) {
	_, err := run(c, vm.New(),
		"try:\n    1 / 0\nexcept KeyError as e:\n    result = 'caught'\n")
	c.Assert(err, gc.NotNil)
}

func (s *VMSuite) TestRecursiveFibonacci(c *gc.C) {
	result, err := run(c, vm.New(),
		"def fib(n):\n    if n < 2: return n\n    return fib(n-1)+fib(n-2)\nfib(10)\n")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "55")
}

func (s *VMSuite) TestInstructionLimitUncatchable(c *gc.C) {
	v := vm.New()
	v.Limits.InstructionCount = 10000
	_, err := run(c, v, "try:\n    while True:\n        pass\nexcept Exception:\n    pass\n")
	c.Assert(err, gc.NotNil)
	kind, _, _ := vm.ErrorKind(err)
	c.Check(kind, gc.Equals, vm.KindInstructionLimitExceeded)
}

func (s *VMSuite) TestRecursionLimitUncatchable(c *gc.C) {
	v := vm.New()
	v.Limits.RecursionDepth = 50
	_, err := run(c, v, "def loop(n):\n    return loop(n + 1)\nloop(0)\n")
	c.Assert(err, gc.NotNil)
	kind, _, _ := vm.ErrorKind(err)
	c.Check(kind, gc.Equals, vm.KindRecursionLimitExceeded)
}

func (s *VMSuite) TestToolCallKeywordRouting(c *gc.C) {
	v := vm.New()
	info := tool.New("add", "Adds two integers.").
		Arg("a", "int", "first operand").
		Arg("b", "int", "second operand").
		Returns("int")
	v.Tools["add"] = &vm.ToolEntry{
		Info: &info,
		Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return args[0].(value.Int) + args[1].(value.Int), nil
		},
	}
	result, err := run(c, v, "add(b=7, a=3)")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "10")
}

func (s *VMSuite) TestToolCallTypeMismatchDiagnostic(c *gc.C) {
	v := vm.New()
	info := tool.New("add", "Adds two integers.").
		Arg("a", "int", "first operand").
		Arg("b", "int", "second operand").
		Returns("int")
	v.Tools["add"] = &vm.ToolEntry{
		Info: &info,
		Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return args[0].(value.Int) + args[1].(value.Int), nil
		},
	}
	_, err := run(c, v, "add(3, 'x')")
	c.Assert(err, gc.NotNil)
	c.Check(err.Error(), gc.Matches, "(?s).*expected `int`, found `str`.*")
	c.Check(err.Error(), gc.Matches, "(?s).*'x'.*")
}

func (s *VMSuite) TestSliceRoundTrip(c *gc.C) {
	result, err := run(c, vm.New(), "L = [1, 2, 3, 4, 5]\nL[:3] + L[3:] == L\n")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "True")

	result, err = run(c, vm.New(), "L = [1, 2, 3]\nL[::-1][::-1] == L\n")
	c.Assert(err, gc.IsNil)
	c.Check(result.String(), gc.Equals, "True")
}

func (s *VMSuite) TestExecuteWithOutputPrintBuffer(c *gc.C) {
	v := vm.New()
	_, err := run(c, v, "print('a', 1)\nprint('b')\n")
	c.Assert(err, gc.IsNil)
	if diff := cmp.Diff([]string{"a 1", "b"}, v.PrintLines); diff != "" {
		c.Errorf("PrintLines got diff (-want +got):\n%s", diff)
	}
}

func (s *VMSuite) TestTwoVMsDoNotSharePrintBuffers(c *gc.C) {
	a, b := vm.New(), vm.New()
	_, err := run(c, a, "print('from a')")
	c.Assert(err, gc.IsNil)
	_, err = run(c, b, "1")
	c.Assert(err, gc.IsNil)
	if diff := cmp.Diff([]string{"from a"}, a.PrintLines); diff != "" {
		c.Errorf("sandbox a PrintLines got diff (-want +got):\n%s", diff)
	}
	c.Check(b.PrintLines, gc.HasLen, 0)
}
