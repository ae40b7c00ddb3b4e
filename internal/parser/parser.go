package parser

import (
	"fmt"

	"github.com/chonkie-inc/littr/internal/ast"
)

// Parse lexes and parses src into a Module ready for compile.Compile.
func Parse(src string) (*ast.Module, error) {
	toks, err := newLexer(src).lex()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, moduleAliases: map[string]bool{}}
	body, err := p.parseBlock(0)
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, p.errorf("SyntaxError: unexpected token %q", p.cur().text)
	}
	end := 0
	if len(toks) > 0 {
		end = toks[len(toks)-1].span.End
	}
	return &ast.Module{Span: ast.Span{Start: 0, End: end}, Body: body}, nil
}

type parser struct {
	toks []token
	pos  int

	// moduleAliases holds every local name currently bound to an
	// imported module (via `import x [as y]`; names bound by
	// `from x import y` are not added),
	// used to decide whether `<name>.<attr>(...)` compiles to a module
	// call (ast.Call over ast.Attribute) or a container method call
	// (ast.MethodCall): the compiler routes these through entirely
	// different opcodes, and a hand-written parser has no type
	// information to tell them apart except this tracked binding.
	moduleAliases map[string]bool
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) peekIs(k tokKind, text string) bool {
	t := p.cur()
	return t.kind == k && (text == "" || t.text == text)
}
func (p *parser) atOp(s string) bool { return p.peekIs(tokOp, s) }
func (p *parser) atKw(s string) bool { return p.peekIs(tokKeyword, s) }

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func (p *parser) expectOp(s string) error {
	if !p.atOp(s) {
		return p.errorf("SyntaxError: expected %q, got %q", s, p.cur().text)
	}
	p.next()
	return nil
}

func (p *parser) expectKw(s string) error {
	if !p.atKw(s) {
		return p.errorf("SyntaxError: expected %q, got %q", s, p.cur().text)
	}
	p.next()
	return nil
}

func (p *parser) expectName() (string, error) {
	if p.cur().kind != tokName {
		return "", p.errorf("SyntaxError: expected identifier, got %q", p.cur().text)
	}
	return p.next().text, nil
}

func (p *parser) skipNewlines() {
	for p.cur().kind == tokNewline {
		p.next()
	}
}

// parseBlock parses a sequence of statements at the current indentation
// level, stopping at EOF or at a DEDENT, which it leaves unconsumed.
// parseSuite consumes the INDENT...DEDENT pair around a body.
func (p *parser) parseBlock(depth int) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for {
		p.skipNewlines()
		if p.cur().kind == tokEOF || p.cur().kind == tokDedent {
			break
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

// parseSuite parses `':' NEWLINE INDENT stmt+ DEDENT`.
func (p *parser) parseSuite() ([]ast.Stmt, error) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if p.cur().kind != tokIndent {
		return nil, p.errorf("SyntaxError: expected indented block")
	}
	p.next()
	body, err := p.parseBlock(0)
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokDedent {
		return nil, p.errorf("SyntaxError: expected dedent")
	}
	p.next()
	return body, nil
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	t := p.cur()
	if t.kind == tokKeyword {
		switch t.text {
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "def":
			return p.parseFunctionDef()
		case "try":
			return p.parseTry()
		case "return":
			return p.parseReturn()
		case "raise":
			return p.parseRaise()
		case "import":
			return p.parseImport()
		case "from":
			return p.parseImportFrom()
		case "break":
			p.next()
			s := &ast.Break{Span: t.span}
			return s, p.endSimpleStmt()
		case "continue":
			p.next()
			s := &ast.Continue{Span: t.span}
			return s, p.endSimpleStmt()
		case "pass":
			p.next()
			s := &ast.Pass{Span: t.span}
			return s, p.endSimpleStmt()
		}
	}
	return p.parseExprOrAssignStmt()
}

func (p *parser) endSimpleStmt() error {
	if p.cur().kind != tokNewline && p.cur().kind != tokEOF && p.cur().kind != tokDedent {
		return p.errorf("SyntaxError: expected end of statement, got %q", p.cur().text)
	}
	for p.cur().kind == tokNewline {
		p.next()
	}
	return nil
}

func (p *parser) parseIf() (ast.Stmt, error) {
	start := p.next().span // 'if'
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Span: start, Test: test, Body: body}
	if p.atKw("elif") {
		elif, err := p.parseElif()
		if err != nil {
			return nil, err
		}
		node.Orelse = []ast.Stmt{elif}
		return node, nil
	}
	if p.atKw("else") {
		p.next()
		orelse, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		node.Orelse = orelse
	}
	return node, nil
}

// parseElif parses an `elif` clause as a nested If, matching the way
// compile.go walks If.Orelse for elif chains.
func (p *parser) parseElif() (ast.Stmt, error) {
	start := p.next().span // 'elif'
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Span: start, Test: test, Body: body}
	if p.atKw("elif") {
		elif, err := p.parseElif()
		if err != nil {
			return nil, err
		}
		node.Orelse = []ast.Stmt{elif}
		return node, nil
	}
	if p.atKw("else") {
		p.next()
		orelse, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		node.Orelse = orelse
	}
	return node, nil
}

func (p *parser) parseWhile() (ast.Stmt, error) {
	start := p.next().span
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return &ast.While{Span: start, Test: test, Body: body}, nil
}

func (p *parser) parseFor() (ast.Stmt, error) {
	start := p.next().span
	target, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return &ast.For{Span: start, Target: target, Iter: iter, Body: body}, nil
}

// parseTargetList parses an assignment/for target: a single name or
// subscript, or a comma-separated tuple of them (with or without
// surrounding parens).
func (p *parser) parseTargetList() (ast.Expr, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	elts := []ast.Expr{first}
	for p.atOp(",") {
		p.next()
		if p.atKw("in") || p.atOp(":") || p.cur().kind == tokNewline {
			break
		}
		e, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &ast.TupleLit{Span: first.Pos(), Elts: elts}, nil
}

func (p *parser) parseFunctionDef() (ast.Stmt, error) {
	start := p.next().span
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	var params []ast.Param
	var vararg, kwarg string
	for !p.atOp(")") {
		if p.atOp("*") {
			p.next()
			if p.atOp("*") {
				p.next()
				kwarg, err = p.expectName()
				if err != nil {
					return nil, err
				}
			} else {
				vararg, err = p.expectName()
				if err != nil {
					return nil, err
				}
			}
		} else {
			pname, err := p.expectName()
			if err != nil {
				return nil, err
			}
			var def ast.Expr
			if p.atOp("=") {
				p.next()
				def, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			params = append(params, ast.Param{Name: pname, Default: def})
		}
		if p.atOp(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{Span: start, Name: name, Params: params, Vararg: vararg, Kwarg: kwarg, Body: body}, nil
}

func (p *parser) parseTry() (ast.Stmt, error) {
	start := p.next().span
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	node := &ast.Try{Span: start, Body: body}
	for p.atKw("except") {
		hstart := p.next().span
		typeName := ""
		asName := ""
		if !p.atOp(":") {
			typeName, err = p.expectName()
			if err != nil {
				return nil, err
			}
			if p.atKw("as") {
				p.next()
				asName, err = p.expectName()
				if err != nil {
					return nil, err
				}
			}
		}
		hbody, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		node.Handlers = append(node.Handlers, ast.ExceptHandler{Span: hstart, Type: typeName, AsName: asName, Body: hbody})
	}
	if p.atKw("else") {
		p.next()
		orelse, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		node.Orelse = orelse
	}
	return node, nil
}

func (p *parser) parseReturn() (ast.Stmt, error) {
	start := p.next().span
	if p.cur().kind == tokNewline || p.cur().kind == tokEOF || p.cur().kind == tokDedent {
		return &ast.Return{Span: start}, p.endSimpleStmt()
	}
	v, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	return &ast.Return{Span: start, Value: v}, p.endSimpleStmt()
}

func (p *parser) parseRaise() (ast.Stmt, error) {
	start := p.next().span
	if p.cur().kind == tokNewline || p.cur().kind == tokEOF {
		return &ast.Raise{Span: start}, p.endSimpleStmt()
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	node := &ast.Raise{Span: start, Type: name}
	if p.atOp("(") {
		p.next()
		if !p.atOp(")") {
			msg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			node.Msg = msg
			for p.atOp(",") {
				p.next()
				if _, err := p.parseExpr(); err != nil {
					return nil, err
				}
			}
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	return node, p.endSimpleStmt()
}

func (p *parser) parseImport() (ast.Stmt, error) {
	start := p.next().span
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.atKw("as") {
		p.next()
		alias, err = p.expectName()
		if err != nil {
			return nil, err
		}
	}
	local := alias
	if local == "" {
		local = name
	}
	p.moduleAliases[local] = true
	return &ast.Import{Span: start, Module: name, Alias: alias}, p.endSimpleStmt()
}

func (p *parser) parseImportFrom() (ast.Stmt, error) {
	start := p.next().span
	mod, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("import"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.atKw("as") {
		p.next()
		alias, err = p.expectName()
		if err != nil {
			return nil, err
		}
	}
	return &ast.ImportFrom{Span: start, Module: mod, Name: name, Alias: alias}, p.endSimpleStmt()
}

// parseExprOrAssignStmt handles plain expression statements, `=`
// assignment (including chained and tuple-unpack targets), and
// augmented assignment.
func (p *parser) parseExprOrAssignStmt() (ast.Stmt, error) {
	first, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if augOp, ok := augAssignOp(p.cur()); ok {
		p.next()
		val, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &ast.AugAssign{Span: first.Pos(), Target: first, Op: augOp, Value: val}, p.endSimpleStmt()
	}
	if p.atOp("=") {
		exprs := []ast.Expr{first}
		for p.atOp("=") {
			p.next()
			v, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, v)
		}
		targets := exprs[:len(exprs)-1]
		val := exprs[len(exprs)-1]
		return &ast.Assign{Span: first.Pos(), Targets: targets, Value: val}, p.endSimpleStmt()
	}
	return &ast.ExprStmt{Span: first.Pos(), X: first}, p.endSimpleStmt()
}

func augAssignOp(t token) (ast.BinOp, bool) {
	if t.kind != tokOp {
		return 0, false
	}
	switch t.text {
	case "+=":
		return ast.Add, true
	case "-=":
		return ast.Sub, true
	case "*=":
		return ast.Mul, true
	case "/=":
		return ast.Div, true
	case "//=":
		return ast.FloorDiv, true
	case "%=":
		return ast.Mod, true
	case "**=":
		return ast.Pow, true
	}
	return 0, false
}

// parseExprList parses a single expression, or a bare comma-separated
// list of expressions that forms an implicit tuple (e.g. `return a, b`).
func (p *parser) parseExprList() (ast.Expr, error) {
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	elts := []ast.Expr{first}
	for p.atOp(",") {
		p.next()
		if p.cur().kind == tokNewline || p.cur().kind == tokEOF {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &ast.TupleLit{Span: first.Pos(), Elts: elts}, nil
}
