package compile

import "github.com/chonkie-inc/littr/internal/ast"

func (c *Compiler) compileExpr(e ast.Expr) error {
	b := c.b
	switch x := e.(type) {
	case *ast.NoneLit:
		b.emit(OpLoadConst, b.addConst(ConstNone{}), 0, x.Span)
		return nil
	case *ast.BoolLit:
		b.emit(OpLoadConst, b.addConst(ConstBool(x.Value)), 0, x.Span)
		return nil
	case *ast.IntLit:
		b.emit(OpLoadConst, b.addConst(ConstInt(x.Value)), 0, x.Span)
		return nil
	case *ast.FloatLit:
		b.emit(OpLoadConst, b.addConst(ConstFloat(x.Value)), 0, x.Span)
		return nil
	case *ast.StrLit:
		b.emit(OpLoadConst, b.addConst(ConstStr(x.Value)), 0, x.Span)
		return nil
	case *ast.FString:
		return c.compileFString(x)
	case *ast.Name:
		b.emit(OpLoadName, b.addName(x.Id), 0, x.Span)
		return nil
	case *ast.ListLit:
		for _, el := range x.Elts {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		b.emit(OpBuildList, uint32(len(x.Elts)), 0, x.Span)
		return nil
	case *ast.TupleLit:
		for _, el := range x.Elts {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		b.emit(OpBuildTuple, uint32(len(x.Elts)), 0, x.Span)
		return nil
	case *ast.SetLit:
		for _, el := range x.Elts {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		b.emit(OpBuildSet, uint32(len(x.Elts)), 0, x.Span)
		return nil
	case *ast.DictLit:
		for i := range x.Keys {
			if err := c.compileExpr(x.Keys[i]); err != nil {
				return err
			}
			if err := c.compileExpr(x.Vals[i]); err != nil {
				return err
			}
		}
		b.emit(OpBuildDict, uint32(len(x.Keys)), 0, x.Span)
		return nil
	case *ast.BinaryExpr:
		if err := c.compileExpr(x.Left); err != nil {
			return err
		}
		if err := c.compileExpr(x.Right); err != nil {
			return err
		}
		b.emit(OpBinaryOp, uint32(astBinOp(x.Op)), 0, x.Span)
		return nil
	case *ast.UnaryExpr:
		if err := c.compileExpr(x.X); err != nil {
			return err
		}
		b.emit(OpUnaryOp, uint32(astUnaryOp(x.Op)), 0, x.Span)
		return nil
	case *ast.Compare:
		return c.compileCompare(x)
	case *ast.BoolExpr:
		return c.compileBoolExpr(x)
	case *ast.Subscript:
		if err := c.compileExpr(x.Value); err != nil {
			return err
		}
		if err := c.compileExpr(x.Index); err != nil {
			return err
		}
		b.emit(OpBinarySubscript, 0, 0, x.Span)
		return nil
	case *ast.Slice:
		if err := c.compileExpr(x.Value); err != nil {
			return err
		}
		if err := c.compileOptional(x.Start, x.Span); err != nil {
			return err
		}
		if err := c.compileOptional(x.Stop, x.Span); err != nil {
			return err
		}
		if err := c.compileOptional(x.Step, x.Span); err != nil {
			return err
		}
		b.emit(OpSlice, 0, 0, x.Span)
		return nil
	case *ast.Attribute:
		if err := c.compileExpr(x.Value); err != nil {
			return err
		}
		b.emit(OpLoadAttr, b.addName(x.Attr), 0, x.Span)
		return nil
	case *ast.Call:
		return c.compileCall(x)
	case *ast.MethodCall:
		return c.compileMethodCall(x)
	case *ast.Comprehension:
		return c.compileComprehension(x)
	default:
		return c.err(e.Pos(), "unsupported expression")
	}
}

func (c *Compiler) compileOptional(e ast.Expr, span ast.Span) error {
	if e == nil {
		c.b.emit(OpLoadConst, c.b.addConst(ConstNone{}), 0, span)
		return nil
	}
	return c.compileExpr(e)
}

func astUnaryOp(op ast.UnaryOp) UnaryOp { return UnaryOp(op) }
func astCmpOp(op ast.CmpOp) CmpOp       { return CmpOp(op) }

func (c *Compiler) compileFString(x *ast.FString) error {
	b := c.b
	for _, part := range x.Parts {
		if part.Expr == nil {
			b.emit(OpLoadConst, b.addConst(ConstStr(part.Literal)), 0, x.Span)
			continue
		}
		if err := c.compileExpr(part.Expr); err != nil {
			return err
		}
		b.emit(OpFormatValue, 0, 0, x.Span)
	}
	b.emit(OpBuildString, uint32(len(x.Parts)), 0, x.Span)
	return nil
}

// compileCompare implements the chained-comparison codegen given verbatim
// in spec.md §4.6.
func (c *Compiler) compileCompare(x *ast.Compare) error {
	b := c.b
	if err := c.compileExpr(x.Left); err != nil {
		return err
	}
	n := len(x.Ops)
	var failJumps []int
	for i := 0; i < n; i++ {
		if err := c.compileExpr(x.Comparators[i]); err != nil {
			return err
		}
		last := i == n-1
		if !last {
			b.emit(OpDup, 0, 0, x.Span)
			b.emit(OpRotN, 3, 0, x.Span)
		}
		b.emit(OpCompareOp, uint32(astCmpOp(x.Ops[i])), 0, x.Span)
		if !last {
			fj := b.emit(OpPopJumpIfFalse, 0, 0, x.Span)
			failJumps = append(failJumps, fj)
		}
	}
	jumpEnd := b.emit(OpJump, 0, 0, x.Span)
	failTarget := b.here()
	for _, fj := range failJumps {
		b.patch(fj, failTarget)
	}
	if len(failJumps) > 0 {
		b.emit(OpPop, 0, 0, x.Span)
		b.emit(OpLoadConst, b.addConst(ConstBool(false)), 0, x.Span)
	}
	end := b.here()
	b.patch(jumpEnd, end)
	return nil
}

func (c *Compiler) compileBoolExpr(x *ast.BoolExpr) error {
	b := c.b
	var endJumps []int
	for i, v := range x.Values {
		if err := c.compileExpr(v); err != nil {
			return err
		}
		if i == len(x.Values)-1 {
			break
		}
		var jmp int
		if x.Op == ast.And {
			jmp = b.emit(OpJumpIfFalseOrPop, 0, 0, x.Span)
		} else {
			jmp = b.emit(OpJumpIfTrueOrPop, 0, 0, x.Span)
		}
		endJumps = append(endJumps, jmp)
	}
	end := b.here()
	for _, j := range endJumps {
		b.patch(j, end)
	}
	return nil
}

func (c *Compiler) compileCall(x *ast.Call) error {
	b := c.b
	name, ok := x.Func.(*ast.Name)
	if !ok {
		// Calling an arbitrary expression (e.g. a value returned from
		// another call, or a tool/function stored in a container):
		// evaluate the callable then use the CallValue family.
		if err := c.compileExpr(x.Func); err != nil {
			return err
		}
		for _, a := range x.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		if len(x.Keywords) == 0 {
			b.emit(OpCallValue, uint32(len(x.Args)), 0, x.Span)
			return nil
		}
		for _, kw := range x.Keywords {
			b.emit(OpLoadConst, b.addConst(ConstStr(kw.Name)), 0, x.Span)
			if err := c.compileExpr(kw.Value); err != nil {
				return err
			}
		}
		b.emit(OpCallValueKw, uint32(len(x.Args)), uint32(len(x.Keywords)), x.Span)
		return nil
	}

	nameIdx := b.addName(name.Id)
	for _, a := range x.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	spans := &CallSpans{Kw: map[string]ast.Span{}}
	for _, a := range x.Args {
		spans.Pos = append(spans.Pos, a.Pos())
	}
	if len(x.Keywords) == 0 {
		idx := b.emit(OpCallFunction, nameIdx, uint32(len(x.Args)), x.Span)
		b.recordCallSpans(idx, spans)
		return nil
	}
	for _, kw := range x.Keywords {
		b.emit(OpLoadConst, b.addConst(ConstStr(kw.Name)), 0, x.Span)
		if err := c.compileExpr(kw.Value); err != nil {
			return err
		}
		spans.Kw[kw.Name] = kw.Value.Pos()
	}
	idx := b.emit3(OpCallFunctionKw, nameIdx, uint32(len(x.Args)), uint32(len(x.Keywords)), x.Span)
	b.recordCallSpans(idx, spans)
	return nil
}

func (c *Compiler) compileMethodCall(x *ast.MethodCall) error {
	b := c.b
	recv, isName := x.Value.(*ast.Name)
	if isName && mutatingMethods[x.Method] {
		varIdx := b.addName(recv.Id)
		methodIdx := b.addName(x.Method)
		for _, a := range x.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		if len(x.Keywords) == 0 {
			b.emit3(OpCallMutMethod, varIdx, methodIdx, uint32(len(x.Args)), x.Span)
			return nil
		}
		for _, kw := range x.Keywords {
			b.emit(OpLoadConst, b.addConst(ConstStr(kw.Name)), 0, x.Span)
			if err := c.compileExpr(kw.Value); err != nil {
				return err
			}
		}
		b.emit4(OpCallMutMethodKw, varIdx, methodIdx, uint32(len(x.Args)), uint32(len(x.Keywords)), x.Span)
		return nil
	}

	if err := c.compileExpr(x.Value); err != nil {
		return err
	}
	for _, a := range x.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	methodIdx := b.addName(x.Method)
	b.emit(OpCallMethod, methodIdx, uint32(len(x.Args)), x.Span)
	return nil
}

// compileComprehension follows spec.md §4.6: allocate a unique temp,
// BuildList(0) -> StoreName(temp), iterate with an append per element,
// then LoadName(temp). List comprehensions and generator expressions
// compile identically (both are eager).
func (c *Compiler) compileComprehension(x *ast.Comprehension) error {
	b := c.b
	temp := c.newTemp()
	tempIdx := b.addName(temp)
	b.emit(OpBuildList, 0, 0, x.Span)
	b.emit(OpStoreName, tempIdx, 0, x.Span)

	if err := c.compileExpr(x.Iter); err != nil {
		return err
	}
	b.emit(OpGetIter, 0, 0, x.Span)
	top := b.here()
	forIter := b.emit(OpForIter, 0, 0, x.Span)
	if err := c.storeTarget(x.Target); err != nil {
		return err
	}

	var skipJumps []int
	for _, ifExpr := range x.Ifs {
		if err := c.compileExpr(ifExpr); err != nil {
			return err
		}
		j := b.emit(OpPopJumpIfFalse, 0, 0, x.Span)
		skipJumps = append(skipJumps, j)
	}

	if err := c.compileExpr(x.Element); err != nil {
		return err
	}
	b.emit3(OpCallMutMethod, tempIdx, b.addName("append"), 1, x.Span)
	b.emit(OpPop, 0, 0, x.Span)

	continueAt := b.here()
	for _, j := range skipJumps {
		b.patch(j, continueAt)
	}
	b.emit(OpJump, top, 0, x.Span)
	b.patch(forIter, b.here())

	b.emit(OpLoadName, tempIdx, 0, x.Span)
	return nil
}
