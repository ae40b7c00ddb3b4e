// Package parser turns source text into the ast.Module the compiler
// consumes. The language itself treats its parser as swappable external
// machinery (any host may plug in a different front end so long as it
// produces the same tree shape); this one is a compact hand-written
// lexer and recursive-descent parser covering the accepted subset:
// literals, operators, subscripting/slicing, attribute access on
// modules, the supported statement forms, function defs, try/except,
// comprehensions, and import forms.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chonkie-inc/littr/internal/ast"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokNewline
	tokIndent
	tokDedent
	tokName
	tokInt
	tokFloat
	tokStr
	tokFStr
	tokOp
	tokKeyword
)

type token struct {
	kind  tokKind
	text  string
	ival  int64
	fval  float64
	sval  string
	parts []ast.FStringPart
	span  ast.Span
}

var keywords = map[string]bool{
	"None": true, "True": true, "False": true,
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "elif": true, "else": true, "while": true, "for": true,
	"break": true, "continue": true, "pass": true, "return": true,
	"def": true, "try": true, "except": true, "raise": true, "as": true,
	"import": true, "from": true,
}

type lexer struct {
	src    string
	pos    int
	indent []int
	tokens []token
}

func newLexer(src string) *lexer { return &lexer{src: src, indent: []int{0}} }

// lex tokenizes the whole source up front; the parser consumes the
// resulting slice.
func (l *lexer) lex() ([]token, error) {
	atLineStart := true
	parenDepth := 0
	for l.pos < len(l.src) {
		if atLineStart && parenDepth == 0 {
			if err := l.lexIndent(); err != nil {
				return nil, err
			}
			atLineStart = false
			continue
		}
		c := l.src[l.pos]
		switch {
		case c == '\n':
			if parenDepth == 0 {
				l.emit(tokNewline, "\n", l.pos, l.pos+1)
				atLineStart = true
			}
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '(' || c == '[' || c == '{':
			parenDepth++
			l.emit(tokOp, string(c), l.pos, l.pos+1)
			l.pos++
		case c == ')' || c == ']' || c == '}':
			if parenDepth > 0 {
				parenDepth--
			}
			l.emit(tokOp, string(c), l.pos, l.pos+1)
			l.pos++
		case isDigit(c):
			if err := l.lexNumber(); err != nil {
				return nil, err
			}
		case c == '"' || c == '\'':
			if err := l.lexString(false); err != nil {
				return nil, err
			}
		case c == 'f' && l.pos+1 < len(l.src) && (l.src[l.pos+1] == '"' || l.src[l.pos+1] == '\''):
			l.pos++
			if err := l.lexString(true); err != nil {
				return nil, err
			}
		case isIdentStart(c):
			l.lexName()
		default:
			if err := l.lexOp(); err != nil {
				return nil, err
			}
		}
	}
	if len(l.tokens) == 0 || l.tokens[len(l.tokens)-1].kind != tokNewline {
		l.emit(tokNewline, "\n", l.pos, l.pos)
	}
	for i := len(l.indent) - 1; i > 0; i-- {
		l.emit(tokDedent, "", l.pos, l.pos)
	}
	l.emit(tokEOF, "", l.pos, l.pos)
	return l.tokens, nil
}

func (l *lexer) emit(k tokKind, text string, start, end int) {
	l.tokens = append(l.tokens, token{kind: k, text: text, span: ast.Span{Start: start, End: end}})
}

func (l *lexer) lexIndent() error {
	start := l.pos
	col := 0
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' {
			col++
			l.pos++
		} else if c == '\t' {
			col += 8
			l.pos++
		} else {
			break
		}
	}
	if l.pos >= len(l.src) {
		return nil
	}
	if l.src[l.pos] == '\n' || l.src[l.pos] == '#' {
		// blank/comment-only line: no indent change, consumed by main loop
		return nil
	}
	cur := l.indent[len(l.indent)-1]
	switch {
	case col > cur:
		l.indent = append(l.indent, col)
		l.emit(tokIndent, "", start, l.pos)
	case col < cur:
		for len(l.indent) > 1 && l.indent[len(l.indent)-1] > col {
			l.indent = l.indent[:len(l.indent)-1]
			l.emit(tokDedent, "", start, l.pos)
		}
		if l.indent[len(l.indent)-1] != col {
			return fmt.Errorf("IndentationError: unindent does not match any outer indentation level")
		}
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (l *lexer) lexNumber() error {
	start := l.pos
	isFloat := false
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		isFloat = true
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	text := l.src[start:l.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("SyntaxError: invalid float literal %q", text)
		}
		l.tokens = append(l.tokens, token{kind: tokFloat, fval: f, span: ast.Span{Start: start, End: l.pos}})
		return nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("SyntaxError: invalid int literal %q", text)
	}
	l.tokens = append(l.tokens, token{kind: tokInt, ival: n, span: ast.Span{Start: start, End: l.pos}})
	return nil
}

func (l *lexer) lexName() {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	k := tokName
	if keywords[text] {
		k = tokKeyword
	}
	l.tokens = append(l.tokens, token{kind: k, text: text, span: ast.Span{Start: start, End: l.pos}})
}

// lexString handles both plain and f-strings, single- or double-quoted,
// with the common backslash escapes.
func (l *lexer) lexString(isF bool) error {
	start := l.pos
	quote := l.src[l.pos]
	l.pos++
	var lit strings.Builder
	var parts []ast.FStringPart
	flushLit := func() {
		if isF {
			parts = append(parts, ast.FStringPart{Literal: lit.String()})
			lit.Reset()
		}
	}
	for {
		if l.pos >= len(l.src) {
			return fmt.Errorf("SyntaxError: unterminated string literal")
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			esc := l.src[l.pos]
			switch esc {
			case 'n':
				lit.WriteByte('\n')
			case 't':
				lit.WriteByte('\t')
			case 'r':
				lit.WriteByte('\r')
			case '\\', '\'', '"':
				lit.WriteByte(esc)
			default:
				lit.WriteByte('\\')
				lit.WriteByte(esc)
			}
			l.pos++
			continue
		}
		if isF && c == '{' {
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '{' {
				lit.WriteByte('{')
				l.pos += 2
				continue
			}
			flushLit()
			l.pos++
			exprStart := l.pos
			depth := 1
			for l.pos < len(l.src) && depth > 0 {
				switch l.src[l.pos] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						break
					}
				}
				if depth > 0 {
					l.pos++
				}
			}
			exprSrc := l.src[exprStart:l.pos]
			l.pos++ // consume closing '}'
			sub, err := Parse(exprSrc)
			if err != nil {
				return err
			}
			if len(sub.Body) != 1 {
				return fmt.Errorf("SyntaxError: invalid f-string expression %q", exprSrc)
			}
			es, ok := sub.Body[0].(*ast.ExprStmt)
			if !ok {
				return fmt.Errorf("SyntaxError: invalid f-string expression %q", exprSrc)
			}
			parts = append(parts, ast.FStringPart{Expr: es.X})
			continue
		}
		lit.WriteByte(c)
		l.pos++
	}
	if isF {
		flushLit()
		l.tokens = append(l.tokens, token{kind: tokFStr, parts: parts, span: ast.Span{Start: start, End: l.pos}})
		return nil
	}
	l.tokens = append(l.tokens, token{kind: tokStr, sval: lit.String(), span: ast.Span{Start: start, End: l.pos}})
	return nil
}

var threeCharOps = []string{"**=", "//="}
var twoCharOps = []string{
	"**", "//", "==", "!=", "<=", ">=", "->", "+=", "-=", "*=", "/=", "%=",
}

func (l *lexer) lexOp() error {
	start := l.pos
	for _, op := range threeCharOps {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			l.emit(tokOp, op, start, l.pos)
			return nil
		}
	}
	for _, op := range twoCharOps {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			l.emit(tokOp, op, start, l.pos)
			return nil
		}
	}
	c := l.src[l.pos]
	switch c {
	case '+', '-', '*', '/', '%', '<', '>', '=', ',', ':', '.', '|', '&', '^', '~':
		l.pos++
		l.emit(tokOp, string(c), start, l.pos)
		return nil
	case ';':
		l.pos++
		l.emit(tokNewline, ";", start, l.pos)
		return nil
	default:
		return fmt.Errorf("SyntaxError: unexpected character %q", string(c))
	}
}
