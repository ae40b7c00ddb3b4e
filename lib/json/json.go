// Package json is a thin wrapper module exposing JSON encode/decode to
// sandboxed scripts: json.dumps(value, indent=None) and json.loads(text).
// Parsing is delegated to gjson and string escaping to sjson; the
// recursive structural walk over the sandbox's own Value variants, float
// formatting and indentation are done here.
package json

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/chonkie-inc/littr/internal/tool"
	"github.com/chonkie-inc/littr/internal/value"
	"github.com/chonkie-inc/littr/internal/vm"
)

// Register installs the json module and its qualified tools
// ("json.dumps", "json.loads") into vm.
func Register(v *vm.VM) {
	dumpsInfo := tool.New("dumps", "Serializes a value to a JSON string.").
		Arg("value", "any", "the value to serialize").
		ArgOpt("indent", "int", "number of spaces to indent nested structures; compact if omitted").
		Returns("str")
	loadsInfo := tool.New("loads", "Parses a JSON string into a value.").
		Arg("text", "str", "the JSON text to parse").
		Returns("any")

	v.Tools["json.dumps"] = &vm.ToolEntry{Info: &dumpsInfo, Fn: dumpsBuiltin}
	v.Tools["json.loads"] = &vm.ToolEntry{Info: &loadsInfo, Fn: loadsBuiltin}

	v.Modules["json"] = &value.Module{Name: "json", Attrs: []value.ModuleAttr{
		{Name: "dumps", Value: value.NativeFunction{Name: "json.dumps"}},
		{Name: "loads", Value: value.NativeFunction{Name: "json.loads"}},
	}}
}

func dumpsBuiltin(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("TypeError: dumps() missing required argument: 'value'")
	}
	indent := -1
	if iv, ok := kwargs["indent"]; ok && iv != value.None {
		i, ok := iv.(value.Int)
		if !ok {
			return nil, fmt.Errorf("TypeError: dumps() indent must be int")
		}
		indent = int(i)
	} else if len(args) > 1 && args[1] != value.None {
		i, ok := args[1].(value.Int)
		if !ok {
			return nil, fmt.Errorf("TypeError: dumps() indent must be int")
		}
		indent = int(i)
	}
	compact, err := dumpsValue(args[0])
	if err != nil {
		return nil, err
	}
	if indent < 0 {
		return value.Str(compact), nil
	}
	return value.Str(indentJSON(compact, indent)), nil
}

func loadsBuiltin(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("TypeError: loads() takes exactly one argument")
	}
	text, ok := args[0].(value.Str)
	if !ok {
		return nil, fmt.Errorf("TypeError: loads() argument must be str")
	}
	if !gjson.Valid(string(text)) {
		return nil, fmt.Errorf("ValueError: invalid JSON text")
	}
	return loadsValue(gjson.Parse(string(text))), nil
}

// quoteJSONString delegates string-escaping to sjson: setting a field to
// a Go string produces a correctly escaped JSON string literal, which we
// then read back out with gjson.
func quoteJSONString(s string) string {
	doc, _ := sjson.Set(`{}`, "v", s)
	return gjson.Get(doc, "v").Raw
}

// formatFloat always keeps a decimal point, even for integer-valued
// floats, so dumps(1.0) round-trips as a float rather than silently
// becoming indistinguishable from dumps(1) (sjson's own float encoding
// collapses 1.0 to "1", which would lose that distinction).
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("ValueError: cannot encode non-finite float")
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

func dumpsValue(v value.Value) (string, error) {
	switch x := v.(type) {
	case value.NoneVal:
		return "null", nil
	case value.Bool:
		if x {
			return "true", nil
		}
		return "false", nil
	case value.Int:
		return strconv.FormatInt(int64(x), 10), nil
	case value.Float:
		return formatFloat(float64(x))
	case value.Str:
		return quoteJSONString(string(x)), nil
	case *value.List:
		return dumpsSeq(x.Elems)
	case value.Tuple:
		return dumpsSeq(x.Elems)
	case *value.Dict:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range x.Keys {
			ks, ok := k.(value.Str)
			if !ok {
				return "", fmt.Errorf("TypeError: dumps() only supports str keys, got %s", value.TypeName(k))
			}
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteJSONString(string(ks)))
			b.WriteByte(':')
			vs, err := dumpsValue(x.Vals[i])
			if err != nil {
				return "", err
			}
			b.WriteString(vs)
		}
		b.WriteByte('}')
		return b.String(), nil
	case *value.Set:
		return dumpsSeq(x.Elems)
	default:
		return "", fmt.Errorf("TypeError: dumps() cannot serialize %s", value.TypeName(v))
	}
}

func dumpsSeq(elems []value.Value) (string, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(',')
		}
		es, err := dumpsValue(e)
		if err != nil {
			return "", err
		}
		b.WriteString(es)
	}
	b.WriteByte(']')
	return b.String(), nil
}

func loadsValue(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.None
	case gjson.True:
		return value.Bool(true)
	case gjson.False:
		return value.Bool(false)
	case gjson.Number:
		if strings.ContainsAny(r.Raw, ".eE") {
			return value.Float(r.Num)
		}
		return value.Int(int64(r.Num))
	case gjson.String:
		return value.Str(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var elems []value.Value
			r.ForEach(func(_, v gjson.Result) bool {
				elems = append(elems, loadsValue(v))
				return true
			})
			return value.NewList(elems)
		}
		d := value.NewDict()
		r.ForEach(func(k, v gjson.Result) bool {
			d.Set(value.Str(k.String()), loadsValue(v))
			return true
		})
		return d
	}
	return value.None
}

// indentJSON re-renders compact JSON with newlines and `width` spaces
// per nesting level; a small hand-written formatter since neither
// gjson nor sjson exposes one that targets our own quoting convention.
func indentJSON(compact string, width int) string {
	var b strings.Builder
	depth := 0
	inStr := false
	pad := func() string { return strings.Repeat(" ", depth*width) }
	for i := 0; i < len(compact); i++ {
		c := compact[i]
		switch {
		case inStr:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(compact) {
				i++
				b.WriteByte(compact[i])
				continue
			}
			if c == '"' {
				inStr = false
			}
		case c == '"':
			inStr = true
			b.WriteByte(c)
		case c == '{' || c == '[':
			b.WriteByte(c)
			if i+1 < len(compact) && (compact[i+1] == '}' || compact[i+1] == ']') {
				i++
				b.WriteByte(compact[i])
				continue
			}
			depth++
			b.WriteByte('\n')
			b.WriteString(pad())
		case c == '}' || c == ']':
			depth--
			b.WriteByte('\n')
			b.WriteString(pad())
			b.WriteByte(c)
		case c == ',':
			b.WriteByte(c)
			b.WriteByte('\n')
			b.WriteString(pad())
		case c == ':':
			b.WriteString(": ")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
