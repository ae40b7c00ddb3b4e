package parser

import (
	"strings"

	"github.com/chonkie-inc/littr/internal/ast"
)

func (p *parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if !p.atKw("or") {
		return left, nil
	}
	vals := []ast.Expr{left}
	for p.atKw("or") {
		p.next()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		vals = append(vals, r)
	}
	return &ast.BoolExpr{Span: left.Pos(), Op: ast.Or, Values: vals}, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if !p.atKw("and") {
		return left, nil
	}
	vals := []ast.Expr{left}
	for p.atKw("and") {
		p.next()
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		vals = append(vals, r)
	}
	return &ast.BoolExpr{Span: left.Pos(), Op: ast.And, Values: vals}, nil
}

func (p *parser) parseNot() (ast.Expr, error) {
	if p.atKw("not") {
		t := p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Span: t.span, Op: ast.Not, X: x}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	var ops []ast.CmpOp
	var rest []ast.Expr
	for {
		op, ok, err := p.tryCmpOp()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		r, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		rest = append(rest, r)
	}
	if len(ops) == 0 {
		return left, nil
	}
	return &ast.Compare{Span: left.Pos(), Left: left, Ops: ops, Comparators: rest}, nil
}

func (p *parser) tryCmpOp() (ast.CmpOp, bool, error) {
	t := p.cur()
	if t.kind == tokOp {
		switch t.text {
		case "==":
			p.next()
			return ast.Eq, true, nil
		case "!=":
			p.next()
			return ast.NotEq, true, nil
		case "<":
			p.next()
			return ast.Lt, true, nil
		case "<=":
			p.next()
			return ast.LtE, true, nil
		case ">":
			p.next()
			return ast.Gt, true, nil
		case ">=":
			p.next()
			return ast.GtE, true, nil
		}
		return 0, false, nil
	}
	if t.kind == tokKeyword {
		switch t.text {
		case "in":
			p.next()
			return ast.In, true, nil
		case "is":
			p.next()
			if p.atKw("not") {
				p.next()
				return ast.IsNot, true, nil
			}
			return ast.Is, true, nil
		case "not":
			// lookahead for `not in`
			save := p.pos
			p.next()
			if p.atKw("in") {
				p.next()
				return ast.NotIn, true, nil
			}
			p.pos = save
			return 0, false, nil
		}
	}
	return 0, false, nil
}

func (p *parser) parseBitOr() (ast.Expr, error) {
	left, err := p.parseBitXor()
	if err != nil {
		return nil, err
	}
	for p.atOp("|") {
		p.next()
		r, err := p.parseBitXor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: left.Pos(), Op: ast.BitOr, Left: left, Right: r}
	}
	return left, nil
}

func (p *parser) parseBitXor() (ast.Expr, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.atOp("^") {
		p.next()
		r, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: left.Pos(), Op: ast.BitXor, Left: left, Right: r}
	}
	return left, nil
}

func (p *parser) parseBitAnd() (ast.Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for p.atOp("&") {
		p.next()
		r, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: left.Pos(), Op: ast.BitAnd, Left: left, Right: r}
	}
	return left, nil
}

func (p *parser) parseShift() (ast.Expr, error) {
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch {
		case p.atOp("<<"):
			op = ast.LShift
		case p.atOp(">>"):
			op = ast.RShift
		default:
			return left, nil
		}
		p.next()
		r, err := p.parseArith()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: left.Pos(), Op: op, Left: left, Right: r}
	}
}

func (p *parser) parseArith() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch {
		case p.atOp("+"):
			op = ast.Add
		case p.atOp("-"):
			op = ast.Sub
		default:
			return left, nil
		}
		p.next()
		r, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: left.Pos(), Op: op, Left: left, Right: r}
	}
}

func (p *parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch {
		case p.atOp("*"):
			op = ast.Mul
		case p.atOp("/"):
			op = ast.Div
		case p.atOp("//"):
			op = ast.FloorDiv
		case p.atOp("%"):
			op = ast.Mod
		default:
			return left, nil
		}
		p.next()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: left.Pos(), Op: op, Left: left, Right: r}
	}
}

func (p *parser) parseUnary() (ast.Expr, error) {
	t := p.cur()
	if t.kind == tokOp {
		var op ast.UnaryOp
		switch t.text {
		case "-":
			op = ast.Neg
		case "+":
			op = ast.Pos
		case "~":
			op = ast.Invert
		default:
			return p.parsePower()
		}
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Span: t.span, Op: op, X: x}, nil
	}
	return p.parsePower()
}

// parsePower is right-associative: 2 ** 3 ** 2 == 2 ** (3 ** 2).
func (p *parser) parsePower() (ast.Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.atOp("**") {
		p.next()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Span: left.Pos(), Op: ast.Pow, Left: left, Right: r}, nil
	}
	return left, nil
}

// parsePostfix parses an atom followed by any chain of call/subscript/
// attribute-access suffixes.
func (p *parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atOp("."):
			p.next()
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			if p.atOp("(") {
				args, kws, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				if isModuleAliasName(x, p.moduleAliases) {
					x = &ast.Call{Span: x.Pos(), Func: &ast.Attribute{Span: x.Pos(), Value: x, Attr: name}, Args: args, Keywords: kws}
				} else {
					x = &ast.MethodCall{Span: x.Pos(), Value: x, Method: name, Args: args, Keywords: kws}
				}
				continue
			}
			x = &ast.Attribute{Span: x.Pos(), Value: x, Attr: name}
		case p.atOp("("):
			args, kws, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			x = &ast.Call{Span: x.Pos(), Func: x, Args: args, Keywords: kws}
		case p.atOp("["):
			p.next()
			idx, isSlice, err := p.parseSubscriptOrSlice()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			if isSlice {
				sl := idx.(*ast.Slice)
				sl.Value = x
				sl.Span = x.Pos()
				x = sl
			} else {
				x = &ast.Subscript{Span: x.Pos(), Value: x, Index: idx}
			}
		default:
			return x, nil
		}
	}
}

func isModuleAliasName(x ast.Expr, aliases map[string]bool) bool {
	n, ok := x.(*ast.Name)
	return ok && aliases[n.Id]
}

// parseSubscriptOrSlice parses the content between '[' and ']': either a
// plain index expression or a `start:stop:step` slice (any part may be
// omitted). Returns an *ast.Slice with Value left unset when isSlice.
func (p *parser) parseSubscriptOrSlice() (ast.Expr, bool, error) {
	var start, stop, step ast.Expr
	var err error
	if !p.atOp(":") {
		start, err = p.parseExpr()
		if err != nil {
			return nil, false, err
		}
	}
	if !p.atOp(":") {
		return start, false, nil
	}
	p.next()
	if !p.atOp(":") && !p.atOp("]") {
		stop, err = p.parseExpr()
		if err != nil {
			return nil, false, err
		}
	}
	if p.atOp(":") {
		p.next()
		if !p.atOp("]") {
			step, err = p.parseExpr()
			if err != nil {
				return nil, false, err
			}
		}
	}
	return &ast.Slice{Start: start, Stop: stop, Step: step}, true, nil
}

// parseArgs parses a `(` already-seen-free call argument list: positional
// expressions followed by `name=value` keyword arguments, up to `)`.
func (p *parser) parseArgs() ([]ast.Expr, []ast.Keyword, error) {
	if err := p.expectOp("("); err != nil {
		return nil, nil, err
	}
	var args []ast.Expr
	var kws []ast.Keyword
	for !p.atOp(")") {
		if p.cur().kind == tokName && p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == "=" {
			name := p.next().text
			p.next() // '='
			v, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			kws = append(kws, ast.Keyword{Name: name, Value: v})
		} else {
			v, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, v)
		}
		if p.atOp(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expectOp(")"); err != nil {
		return nil, nil, err
	}
	return args, kws, nil
}

func (p *parser) parseAtom() (ast.Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.next()
		return &ast.IntLit{Span: t.span, Value: t.ival}, nil
	case tokFloat:
		p.next()
		return &ast.FloatLit{Span: t.span, Value: t.fval}, nil
	case tokStr:
		p.next()
		s := &ast.StrLit{Span: t.span, Value: t.sval}
		return p.maybeConcatStr(s)
	case tokFStr:
		p.next()
		return &ast.FString{Span: t.span, Parts: t.parts}, nil
	case tokName:
		p.next()
		return &ast.Name{Span: t.span, Id: t.text}, nil
	case tokKeyword:
		switch t.text {
		case "None":
			p.next()
			return &ast.NoneLit{Span: t.span}, nil
		case "True":
			p.next()
			return &ast.BoolLit{Span: t.span, Value: true}, nil
		case "False":
			p.next()
			return &ast.BoolLit{Span: t.span, Value: false}, nil
		}
	case tokOp:
		switch t.text {
		case "(":
			return p.parseParenOrTuple()
		case "[":
			return p.parseListOrComprehension()
		case "{":
			return p.parseDictOrSet()
		}
	}
	return nil, p.errorf("SyntaxError: unexpected token %q", t.text)
}

// maybeConcatStr implements adjacent string-literal concatenation
// ("a" "b" == "ab"), matching how CPython's own tokenizer behaves.
func (p *parser) maybeConcatStr(s *ast.StrLit) (ast.Expr, error) {
	var buf strings.Builder
	buf.WriteString(s.Value)
	for p.cur().kind == tokStr {
		buf.WriteString(p.next().sval)
	}
	if buf.Len() != len(s.Value) {
		s.Value = buf.String()
	}
	return s, nil
}

func (p *parser) parseParenOrTuple() (ast.Expr, error) {
	start := p.next().span // '('
	if p.atOp(")") {
		p.next()
		return &ast.TupleLit{Span: start}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atKw("for") {
		comp, err := p.parseComprehensionTail(start, first, false)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	if !p.atOp(",") {
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elts := []ast.Expr{first}
	for p.atOp(",") {
		p.next()
		if p.atOp(")") {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return &ast.TupleLit{Span: start, Elts: elts}, nil
}

func (p *parser) parseListOrComprehension() (ast.Expr, error) {
	start := p.next().span // '['
	if p.atOp("]") {
		p.next()
		return &ast.ListLit{Span: start}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atKw("for") {
		comp, err := p.parseComprehensionTail(start, first, false)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	elts := []ast.Expr{first}
	for p.atOp(",") {
		p.next()
		if p.atOp("]") {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return &ast.ListLit{Span: start, Elts: elts}, nil
}

func (p *parser) parseDictOrSet() (ast.Expr, error) {
	start := p.next().span // '{'
	if p.atOp("}") {
		p.next()
		return &ast.DictLit{Span: start}, nil
	}
	firstKey, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atOp(":") {
		p.next()
		firstVal, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.atKw("for") {
			return nil, p.errorf("SyntaxError: dict comprehensions are not supported")
		}
		keys := []ast.Expr{firstKey}
		vals := []ast.Expr{firstVal}
		for p.atOp(",") {
			p.next()
			if p.atOp("}") {
				break
			}
			k, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(":"); err != nil {
				return nil, err
			}
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &ast.DictLit{Span: start, Keys: keys, Vals: vals}, nil
	}
	if p.atKw("for") {
		return nil, p.errorf("SyntaxError: set comprehensions are not supported")
	}
	elts := []ast.Expr{firstKey}
	for p.atOp(",") {
		p.next()
		if p.atOp("}") {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return &ast.SetLit{Span: start, Elts: elts}, nil
}

// parseComprehensionTail parses `for target in iter [if cond]` after the
// element expression has already been parsed; only list comprehensions
// and generator expressions are accepted. The closing ']' or ')' is
// checked by the caller after this returns; the bool parameter is unused.
func (p *parser) parseComprehensionTail(openSpan ast.Span, element ast.Expr, _ bool) (ast.Expr, error) {
	if err := p.expectKw("for"); err != nil {
		return nil, err
	}
	target, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseOr() // don't swallow a trailing `if` into the iterable
	if err != nil {
		return nil, err
	}
	var ifs []ast.Expr
	for p.atKw("if") {
		p.next()
		c, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		ifs = append(ifs, c)
	}
	return &ast.Comprehension{Span: openSpan, Element: element, Target: target, Iter: iter, Ifs: ifs}, nil
}
