// Package math is a thin wrapper module exposing Go's standard math
// package to sandboxed scripts as tool-routed functions:
//
//	ceil(x), floor(x), fabs(x), copysign(x, y), mod(x, y), pow(x, y),
//	remainder(x, y), round(x), exp(x), sqrt(x), acos(x), asin(x),
//	atan(x), atan2(y, x), cos(x), hypot(x, y), sin(x), tan(x),
//	degrees(x), radians(x), acosh(x), asinh(x), atanh(x), cosh(x),
//	sinh(x), tanh(x), log(x, base), gamma(x), isnan(x), isinf(x)
//
// plus the constants e, pi, inf and nan. Every function accepts int or
// float. ceil and floor return int, isnan and isinf return bool, and the
// rest return float.
package math

import (
	"fmt"
	stdmath "math"

	"github.com/chonkie-inc/littr/internal/tool"
	"github.com/chonkie-inc/littr/internal/value"
	"github.com/chonkie-inc/littr/internal/vm"
)

func toFloat(v value.Value) (float64, error) {
	switch x := v.(type) {
	case value.Int:
		return float64(x), nil
	case value.Float:
		return float64(x), nil
	}
	return 0, fmt.Errorf("TypeError: got %s, want float or int", value.TypeName(v))
}

func unary(name string, fn func(float64) float64) *vm.ToolEntry {
	info := tool.New(name, fmt.Sprintf("Returns math.%s(x).", name)).Arg("x", "number", "the input value").Returns("float")
	return &vm.ToolEntry{
		Info: &info,
		Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			x, err := toFloat(args[0])
			if err != nil {
				return nil, err
			}
			return value.Float(fn(x)), nil
		},
	}
}

func binary(name string, fn func(float64, float64) float64) *vm.ToolEntry {
	info := tool.New(name, fmt.Sprintf("Returns math.%s(x, y).", name)).
		Arg("x", "number", "the first operand").
		Arg("y", "number", "the second operand").
		Returns("float")
	return &vm.ToolEntry{
		Info: &info,
		Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			x, err := toFloat(args[0])
			if err != nil {
				return nil, err
			}
			y, err := toFloat(args[1])
			if err != nil {
				return nil, err
			}
			return value.Float(fn(x, y)), nil
		},
	}
}

func degrees(x float64) float64 { return 360 * x / (2 * stdmath.Pi) }
func radians(x float64) float64 { return 2 * stdmath.Pi * x / 360 }

func roundBuiltin(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	x, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	return value.Float(stdmath.Round(x)), nil
}

func ceilBuiltin(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	switch t := args[0].(type) {
	case value.Int:
		return t, nil
	case value.Float:
		return value.Int(stdmath.Ceil(float64(t))), nil
	}
	return nil, fmt.Errorf("TypeError: got %s, want float or int", value.TypeName(args[0]))
}

func floorBuiltin(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	switch t := args[0].(type) {
	case value.Int:
		return t, nil
	case value.Float:
		return value.Int(stdmath.Floor(float64(t))), nil
	}
	return nil, fmt.Errorf("TypeError: got %s, want float or int", value.TypeName(args[0]))
}

func logBuiltin(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	x, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	base := stdmath.E
	if len(args) > 1 && args[1] != value.None {
		base, err = toFloat(args[1])
		if err != nil {
			return nil, err
		}
	}
	if base == 1 {
		return nil, fmt.Errorf("ZeroDivisionError: division by zero")
	}
	return value.Float(stdmath.Log(x) / stdmath.Log(base)), nil
}

// Register installs the math module and its qualified tools ("math.sqrt"
// etc.) into vm. Module attributes reference the tools by qualified
// name, matching how a script-visible call like math.sqrt(4) resolves
// through LoadAttr then CallValue.
func Register(v *vm.VM) {
	entries := map[string]*vm.ToolEntry{
		"math.fabs":      unary("fabs", stdmath.Abs),
		"math.copysign":  binary("copysign", stdmath.Copysign),
		"math.mod":       binary("mod", stdmath.Mod),
		"math.pow":       binary("pow", stdmath.Pow),
		"math.remainder": binary("remainder", stdmath.Remainder),
		"math.exp":       unary("exp", stdmath.Exp),
		"math.sqrt":      unary("sqrt", stdmath.Sqrt),
		"math.acos":      unary("acos", stdmath.Acos),
		"math.asin":      unary("asin", stdmath.Asin),
		"math.atan":      unary("atan", stdmath.Atan),
		"math.atan2":     binary("atan2", stdmath.Atan2),
		"math.cos":       unary("cos", stdmath.Cos),
		"math.hypot":     binary("hypot", stdmath.Hypot),
		"math.sin":       unary("sin", stdmath.Sin),
		"math.tan":       unary("tan", stdmath.Tan),
		"math.degrees":   unary("degrees", degrees),
		"math.radians":   unary("radians", radians),
		"math.acosh":     unary("acosh", stdmath.Acosh),
		"math.asinh":     unary("asinh", stdmath.Asinh),
		"math.atanh":     unary("atanh", stdmath.Atanh),
		"math.cosh":      unary("cosh", stdmath.Cosh),
		"math.sinh":      unary("sinh", stdmath.Sinh),
		"math.tanh":      unary("tanh", stdmath.Tanh),
		"math.gamma":     unary("gamma", stdmath.Gamma),
	}
	roundInfo := tool.New("round", "Returns the nearest integer, rounding half away from zero.").Arg("x", "number", "the input value").Returns("float")
	entries["math.round"] = &vm.ToolEntry{Info: &roundInfo, Fn: roundBuiltin}
	ceilInfo := tool.New("ceil", "Returns the ceiling of x.").Arg("x", "number", "the input value").Returns("int")
	entries["math.ceil"] = &vm.ToolEntry{Info: &ceilInfo, Fn: ceilBuiltin}
	floorInfo := tool.New("floor", "Returns the floor of x.").Arg("x", "number", "the input value").Returns("int")
	entries["math.floor"] = &vm.ToolEntry{Info: &floorInfo, Fn: floorBuiltin}
	logInfo := tool.New("log", "Returns the logarithm of x in the given base, or natural logarithm by default.").
		Arg("x", "number", "the input value").
		ArgOpt("base", "number", "the logarithm base; defaults to e").
		Returns("float")
	entries["math.log"] = &vm.ToolEntry{Info: &logInfo, Fn: logBuiltin}

	isnanInfo := tool.New("isnan", "Reports whether x is NaN.").Arg("x", "number", "the input value").Returns("bool")
	entries["math.isnan"] = &vm.ToolEntry{Info: &isnanInfo, Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		return value.Bool(stdmath.IsNaN(x)), nil
	}}
	isinfInfo := tool.New("isinf", "Reports whether x is an infinity, positive or negative.").Arg("x", "number", "the input value").Returns("bool")
	entries["math.isinf"] = &vm.ToolEntry{Info: &isinfInfo, Fn: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		return value.Bool(stdmath.IsInf(x, 0)), nil
	}}

	attrs := make([]value.ModuleAttr, 0, len(entries)+4)
	for qualName, te := range entries {
		v.Tools[qualName] = te
		name := qualName[len("math."):]
		attrs = append(attrs, value.ModuleAttr{Name: name, Value: value.NativeFunction{Name: qualName}})
	}
	attrs = append(attrs, value.ModuleAttr{Name: "e", Value: value.Float(stdmath.E)})
	attrs = append(attrs, value.ModuleAttr{Name: "pi", Value: value.Float(stdmath.Pi)})
	attrs = append(attrs, value.ModuleAttr{Name: "inf", Value: value.Float(stdmath.Inf(1))})
	attrs = append(attrs, value.ModuleAttr{Name: "nan", Value: value.Float(stdmath.NaN())})
	v.Modules["math"] = &value.Module{Name: "math", Attrs: attrs}
}
