package compile

import (
	"fmt"
	"strconv"

	"github.com/chonkie-inc/littr/internal/ast"
	"github.com/chonkie-inc/littr/internal/diagnostic"
)

// Error is returned for constructs the parser accepts but this compiler
// rejects outright (for example 'break' or 'continue' outside a loop).
type Error struct {
	*diagnostic.Diagnostic
}

func newError(source string, span ast.Span, msg string) error {
	return &Error{diagnostic.New(msg).WithSource(source).WithLabel(diagnostic.Span{Start: span.Start, End: span.End}, msg)}
}

// mutatingMethods lists the method names that, when called on a bare
// variable, compile to the in-place CallMutMethod path instead of the
// value-returning CallMethod path (spec.md §4.3/§4.6).
var mutatingMethods = map[string]bool{
	"append": true, "extend": true, "insert": true, "remove": true,
	"pop": true, "clear": true, "reverse": true, "sort": true,
	"update": true, "setdefault": true, "add": true, "discard": true,
}

type loopCtx struct {
	continueTarget uint32
	breakJumps     []int // instruction indices of Jump placeholders to patch to the loop's end
}

// builder accumulates one CodeObject's worth of instructions.
type builder struct {
	code       *CodeObject
	constIndex map[string]uint32
	nameIndex  map[string]uint32
	loops      []*loopCtx
}

func newBuilder(source string) *builder {
	return &builder{
		code:       &CodeObject{Source: source},
		constIndex: map[string]uint32{},
		nameIndex:  map[string]uint32{},
	}
}

func (b *builder) emit(op Op, a, b2 uint32, span ast.Span) int {
	idx := len(b.code.Instructions)
	b.code.Instructions = append(b.code.Instructions, Instr{Op: op, A: a, B: b2})
	b.code.Spans = append(b.code.Spans, span)
	return idx
}

func (b *builder) emit3(op Op, a, b2, c uint32, span ast.Span) int {
	idx := len(b.code.Instructions)
	b.code.Instructions = append(b.code.Instructions, Instr{Op: op, A: a, B: b2, C: c})
	b.code.Spans = append(b.code.Spans, span)
	return idx
}

// emit4 is used only by CallMutMethodKw, which needs four operands
// (variable, method, positional count, keyword count); the last two are
// packed into a single field via packPair.
func (b *builder) emit4(op Op, a, b2, c, d uint32, span ast.Span) int {
	return b.emit3(op, a, b2, packPair(c, d), span)
}

func (b *builder) patch(idx int, target uint32) {
	b.code.Instructions[idx].A = target
}

func (b *builder) here() uint32 { return uint32(len(b.code.Instructions)) }

// recordCallSpans stashes the call-site argument spans of a
// CallFunction/CallFunctionKw instruction for later diagnostic use (see
// CallSpans).
func (b *builder) recordCallSpans(instrIdx int, spans *CallSpans) {
	if b.code.CallArgSpans == nil {
		b.code.CallArgSpans = map[uint32]*CallSpans{}
	}
	b.code.CallArgSpans[uint32(instrIdx)] = spans
}

func constKeyString(c Const) string {
	switch v := c.(type) {
	case ConstNone:
		return "n"
	case ConstBool:
		return "b" + strconv.FormatBool(bool(v))
	case ConstInt:
		return "i" + strconv.FormatInt(int64(v), 10)
	case ConstFloat:
		return "f" + strconv.FormatFloat(float64(v), 'g', -1, 64)
	case ConstStr:
		return "s" + string(v)
	default:
		return "" // composite consts (tuple/list/dict defaults) are never deduped
	}
}

func (b *builder) addConst(c Const) uint32 {
	key := constKeyString(c)
	if key != "" {
		if i, ok := b.constIndex[key]; ok {
			return i
		}
	}
	idx := uint32(len(b.code.Constants))
	b.code.Constants = append(b.code.Constants, c)
	if key != "" {
		b.constIndex[key] = idx
	}
	return idx
}

func (b *builder) addName(name string) uint32 {
	if i, ok := b.nameIndex[name]; ok {
		return i
	}
	idx := uint32(len(b.code.Names))
	b.code.Names = append(b.code.Names, name)
	b.nameIndex[name] = idx
	return idx
}

// Compiler drives a single-pass compile of one top-level module. Nested
// function bodies reuse the same Compiler so the comprehension temp
// counter stays globally unique.
type Compiler struct {
	source  string
	b       *builder
	compTmp int
}

// Compile translates a parsed module into a top-level CodeObject.
func Compile(source string, module *ast.Module) (*CodeObject, error) {
	c := &Compiler{source: source, b: newBuilder(source)}
	if err := c.compileBlockWithTrailingExpr(module.Body); err != nil {
		return nil, err
	}
	return c.b.code, nil
}

// compileBlockWithTrailingExpr implements the "last-expression rule"
// (spec.md §4.6): if the final statement of body is a bare expression
// statement, its value is left on the stack instead of popped.
func (c *Compiler) compileBlockWithTrailingExpr(body []ast.Stmt) error {
	for i, stmt := range body {
		if i == len(body)-1 {
			if es, ok := stmt.(*ast.ExprStmt); ok {
				if err := c.compileExpr(es.X); err != nil {
					return err
				}
				return nil
			}
		}
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStmts(body []ast.Stmt) error {
	for _, stmt := range body {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) err(span ast.Span, format string, args ...interface{}) error {
	return newError(c.source, span, fmt.Sprintf(format, args...))
}

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	b := c.b
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		b.emit(OpPop, 0, 0, s.Span)
		return nil

	case *ast.Pass:
		b.emit(OpNop, 0, 0, s.Span)
		return nil

	case *ast.Assign:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		for i, target := range s.Targets {
			if i != len(s.Targets)-1 {
				b.emit(OpDup, 0, 0, s.Span)
			}
			if err := c.storeTarget(target); err != nil {
				return err
			}
		}
		return nil

	case *ast.AugAssign:
		return c.compileAugAssign(s)

	case *ast.If:
		return c.compileIf(s)

	case *ast.While:
		return c.compileWhile(s)

	case *ast.For:
		return c.compileFor(s)

	case *ast.Break:
		if len(b.loops) == 0 {
			return c.err(s.Span, "'break' outside loop")
		}
		loop := b.loops[len(b.loops)-1]
		b.emit(OpPopIter, 0, 0, s.Span)
		idx := b.emit(OpJump, 0, 0, s.Span)
		loop.breakJumps = append(loop.breakJumps, idx)
		return nil

	case *ast.Continue:
		if len(b.loops) == 0 {
			return c.err(s.Span, "'continue' outside loop")
		}
		loop := b.loops[len(b.loops)-1]
		b.emit(OpJump, loop.continueTarget, 0, s.Span)
		return nil

	case *ast.Return:
		if s.Value != nil {
			if err := c.compileExpr(s.Value); err != nil {
				return err
			}
		} else {
			b.emit(OpLoadConst, b.addConst(ConstNone{}), 0, s.Span)
		}
		b.emit(OpReturnValue, 0, 0, s.Span)
		return nil

	case *ast.FunctionDef:
		return c.compileFunctionDef(s)

	case *ast.Try:
		return c.compileTry(s)

	case *ast.Raise:
		return c.compileRaise(s)

	case *ast.Import:
		modIdx := b.addName(s.Module)
		b.emit(OpImportModule, modIdx, 0, s.Span)
		alias := s.Alias
		if alias == "" {
			alias = s.Module
		}
		b.emit(OpStoreName, b.addName(alias), 0, s.Span)
		return nil

	case *ast.ImportFrom:
		modIdx := b.addName(s.Module)
		b.emit(OpImportModule, modIdx, 0, s.Span)
		b.emit(OpLoadAttr, b.addName(s.Name), 0, s.Span)
		alias := s.Alias
		if alias == "" {
			alias = s.Name
		}
		b.emit(OpStoreName, b.addName(alias), 0, s.Span)
		return nil

	default:
		return c.err(stmt.Pos(), "unsupported statement")
	}
}

func (c *Compiler) storeTarget(target ast.Expr) error {
	b := c.b
	switch t := target.(type) {
	case *ast.Name:
		b.emit(OpStoreName, b.addName(t.Id), 0, t.Span)
		return nil
	case *ast.Subscript:
		name, ok := t.Value.(*ast.Name)
		if !ok {
			return c.err(t.Span, "subscript assignment target must be a variable")
		}
		// Stack must be [..., index, value] with value on top, per
		// StoreSubscript's contract; compile index after the value is
		// already on the stack using a Dup/rotate-free two-step: push
		// index first would put it below value, so we emit index then
		// re-push the already-computed value via a temp slot instead.
		// Simpler and equally correct: store the value into a synthetic
		// local, push index, push the synthetic value back, then store.
		tmp := c.newTemp()
		b.emit(OpStoreName, b.addName(tmp), 0, t.Span) // stash value
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		b.emit(OpLoadName, b.addName(tmp), 0, t.Span)
		b.emit(OpStoreSubscript, b.addName(name.Id), 0, t.Span)
		return nil
	case *ast.TupleLit:
		b.emit(OpUnpackSequence, uint32(len(t.Elts)), 0, t.Span)
		for _, elt := range t.Elts {
			if err := c.storeTarget(elt); err != nil {
				return err
			}
		}
		return nil
	default:
		return c.err(target.Pos(), "invalid assignment target")
	}
}

func (c *Compiler) newTemp() string {
	c.compTmp++
	return fmt.Sprintf("__tmp_%d", c.compTmp)
}

func (c *Compiler) compileAugAssign(s *ast.AugAssign) error {
	b := c.b
	switch t := s.Target.(type) {
	case *ast.Name:
		idx := b.addName(t.Id)
		b.emit(OpLoadName, idx, 0, s.Span)
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		b.emit(OpBinaryOp, uint32(astBinOp(s.Op)), 0, s.Span)
		b.emit(OpStoreName, idx, 0, s.Span)
		return nil
	case *ast.Subscript:
		name, ok := t.Value.(*ast.Name)
		if !ok {
			return c.err(t.Span, "subscript assignment target must be a variable")
		}
		varIdx := b.addName(name.Id)
		// load current value: obj, index, BinarySubscript
		b.emit(OpLoadName, varIdx, 0, t.Span)
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		b.emit(OpBinarySubscript, 0, 0, t.Span)
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		b.emit(OpBinaryOp, uint32(astBinOp(s.Op)), 0, s.Span)
		tmp := c.newTemp()
		b.emit(OpStoreName, b.addName(tmp), 0, s.Span)
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		b.emit(OpLoadName, b.addName(tmp), 0, s.Span)
		b.emit(OpStoreSubscript, varIdx, 0, s.Span)
		return nil
	default:
		return c.err(s.Span, "invalid augmented assignment target")
	}
}

func astBinOp(op ast.BinOp) BinOp { return BinOp(op) }

func (c *Compiler) compileIf(s *ast.If) error {
	b := c.b
	if err := c.compileExpr(s.Test); err != nil {
		return err
	}
	jumpToElse := b.emit(OpPopJumpIfFalse, 0, 0, s.Span)
	if err := c.compileStmts(s.Body); err != nil {
		return err
	}
	jumpToEnd := b.emit(OpJump, 0, 0, s.Span)
	b.patch(jumpToElse, b.here())
	if err := c.compileStmts(s.Orelse); err != nil {
		return err
	}
	b.patch(jumpToEnd, b.here())
	return nil
}

func (c *Compiler) compileWhile(s *ast.While) error {
	b := c.b
	top := b.here()
	if err := c.compileExpr(s.Test); err != nil {
		return err
	}
	jumpEnd := b.emit(OpPopJumpIfFalse, 0, 0, s.Span)
	loop := &loopCtx{continueTarget: top}
	b.loops = append(b.loops, loop)
	if err := c.compileStmts(s.Body); err != nil {
		return err
	}
	b.loops = b.loops[:len(b.loops)-1]
	b.emit(OpJump, top, 0, s.Span)
	end := b.here()
	b.patch(jumpEnd, end)
	for _, j := range loop.breakJumps {
		b.patch(j, end)
	}
	return nil
}

func (c *Compiler) compileFor(s *ast.For) error {
	b := c.b
	if err := c.compileExpr(s.Iter); err != nil {
		return err
	}
	b.emit(OpGetIter, 0, 0, s.Span)
	top := b.here()
	forIter := b.emit(OpForIter, 0, 0, s.Span)
	if err := c.storeTarget(s.Target); err != nil {
		return err
	}
	loop := &loopCtx{continueTarget: top}
	b.loops = append(b.loops, loop)
	if err := c.compileStmts(s.Body); err != nil {
		return err
	}
	b.loops = b.loops[:len(b.loops)-1]
	b.emit(OpJump, top, 0, s.Span)
	end := b.here()
	b.patch(forIter, end)
	for _, j := range loop.breakJumps {
		b.patch(j, end)
	}
	return nil
}

// compileTry follows the layout given in spec.md §4.6 verbatim.
func (c *Compiler) compileTry(s *ast.Try) error {
	b := c.b
	if len(s.Handlers) == 0 {
		return c.err(s.Span, "try without except is unsupported (no finally support)")
	}
	tryStart := b.here()
	if err := c.compileStmts(s.Body); err != nil {
		return err
	}
	jumpToElseOrEnd := b.emit(OpJump, 0, 0, s.Span)
	tryEnd := b.here()

	handlerStarts := make([]uint32, len(s.Handlers))
	var failJumps []int // PopJumpIfFalse indices to patch to the next handler
	var endJumps []int  // Jump-to-end indices at the close of each handler body
	hasBare := false
	for i, h := range s.Handlers {
		for _, fj := range failJumps {
			b.patch(fj, b.here())
		}
		failJumps = nil
		handlerStarts[i] = b.here()
		if h.Type != "" {
			b.emit(OpLoadConst, b.addConst(ConstStr(h.Type)), 0, h.Span)
			b.emit(OpCheckExcMatch, 0, 0, h.Span)
			fj := b.emit(OpPopJumpIfFalse, 0, 0, h.Span)
			failJumps = append(failJumps, fj)
		} else {
			hasBare = true
		}
		if err := c.compileStmts(h.Body); err != nil {
			return err
		}
		b.emit(OpPopException, 0, 0, h.Span)
		ej := b.emit(OpJump, 0, 0, h.Span)
		endJumps = append(endJumps, ej)
	}
	if !hasBare {
		for _, fj := range failJumps {
			b.patch(fj, b.here())
		}
		b.emit(OpReraise, 0, 0, s.Span)
	}

	elseOrEnd := b.here()
	b.patch(jumpToElseOrEnd, elseOrEnd)
	if err := c.compileStmts(s.Orelse); err != nil {
		return err
	}
	end := b.here()
	for _, ej := range endJumps {
		b.patch(ej, end)
	}

	entry := ExceptionEntry{Start: tryStart, End: tryEnd, Handler: handlerStarts[0]}
	if s.Handlers[0].AsName != "" {
		entry.VarName = s.Handlers[0].AsName
		entry.HasVarName = true
		b.addName(s.Handlers[0].AsName)
	}
	b.code.ExceptionTable = append(b.code.ExceptionTable, entry)
	return nil
}

func (c *Compiler) compileRaise(s *ast.Raise) error {
	b := c.b
	if s.Type == "" {
		b.emit(OpReraise, 0, 0, s.Span)
		return nil
	}
	b.emit(OpLoadConst, b.addConst(ConstStr(s.Type)), 0, s.Span)
	if s.Msg != nil {
		if err := c.compileExpr(s.Msg); err != nil {
			return err
		}
	} else {
		b.emit(OpLoadConst, b.addConst(ConstNone{}), 0, s.Span)
	}
	b.emit(OpRaise, 0, 0, s.Span)
	return nil
}

// compileFunctionDef compiles the body into a nested CodeObject and
// appends a FunctionDef to the enclosing code's function table.
func (c *Compiler) compileFunctionDef(s *ast.FunctionDef) error {
	outer := c.b
	inner := newBuilder(c.source)
	c.b = inner

	var params []string
	var defaults []Const
	for _, p := range s.Params {
		params = append(params, p.Name)
		if p.Default != nil {
			lit, err := c.evalConstExpr(p.Default)
			if err != nil {
				return err
			}
			defaults = append(defaults, lit)
		} else if len(defaults) > 0 {
			return c.err(s.Span, "non-default parameter follows default parameter")
		}
	}

	if err := c.compileBlockWithTrailingExprAsStmts(s.Body); err != nil {
		c.b = outer
		return err
	}
	if n := len(inner.code.Instructions); n == 0 || inner.code.Instructions[n-1].Op != OpReturnValue {
		inner.emit(OpLoadConst, inner.addConst(ConstNone{}), 0, s.Span)
		inner.emit(OpReturnValue, 0, 0, s.Span)
	}
	c.b = outer

	fn := &FunctionDef{
		Name:     s.Name,
		Params:   params,
		Defaults: defaults,
		Vararg:   s.Vararg,
		Kwarg:    s.Kwarg,
		Code:     inner.code,
	}
	fnIdx := uint32(len(outer.code.Functions))
	outer.code.Functions = append(outer.code.Functions, fn)
	outer.emit(OpMakeFunction, fnIdx, 0, s.Span)
	outer.emit(OpStoreName, outer.addName(s.Name), 0, s.Span)
	return nil
}

// compileBlockWithTrailingExprAsStmts compiles a function body as plain
// statements (function bodies don't get the top-level last-expression
// treatment; they return explicitly via `return`).
func (c *Compiler) compileBlockWithTrailingExprAsStmts(body []ast.Stmt) error {
	return c.compileStmts(body)
}

// evalConstExpr implements the compiler's constant-expression
// sub-evaluator for default argument values (spec.md §4.6): literals,
// unary numeric/logical negation, empty list/dict, and tuples of
// constants. Anything else is rejected.
func (c *Compiler) evalConstExpr(e ast.Expr) (Const, error) {
	switch x := e.(type) {
	case *ast.NoneLit:
		return ConstNone{}, nil
	case *ast.BoolLit:
		return ConstBool(x.Value), nil
	case *ast.IntLit:
		return ConstInt(x.Value), nil
	case *ast.FloatLit:
		return ConstFloat(x.Value), nil
	case *ast.StrLit:
		return ConstStr(x.Value), nil
	case *ast.ListLit:
		if len(x.Elts) != 0 {
			return nil, c.err(x.Span, "only an empty list literal is allowed as a default value")
		}
		return ConstList{}, nil
	case *ast.DictLit:
		if len(x.Keys) != 0 {
			return nil, c.err(x.Span, "only an empty dict literal is allowed as a default value")
		}
		return ConstDict{}, nil
	case *ast.TupleLit:
		out := make(ConstTuple, len(x.Elts))
		for i, el := range x.Elts {
			v, err := c.evalConstExpr(el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *ast.UnaryExpr:
		inner, err := c.evalConstExpr(x.X)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case ast.Neg:
			switch v := inner.(type) {
			case ConstInt:
				return ConstInt(-v), nil
			case ConstFloat:
				return ConstFloat(-v), nil
			}
		case ast.Not:
			switch v := inner.(type) {
			case ConstBool:
				return ConstBool(!v), nil
			}
		}
		return nil, c.err(x.Span, "unsupported constant expression in default value")
	default:
		return nil, c.err(e.Pos(), "default values must be constant expressions")
	}
}
