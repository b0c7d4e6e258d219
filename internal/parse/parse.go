// Package parse reads affine maps from the textual form the printers emit:
//
//	(d0, d1)[s0] -> (d0 floordiv s0, d0 mod s0, d1)
//
// Dimension and symbol lists are positional, so the header names are fixed
// to d0..dN-1 and s0..sM-1 and the body may only reference declared names.
// Subtraction and unary minus are accepted as sugar and desugared before
// interning: a - b becomes a + (-1) * b, so "d0 - d1" and "d0 + -1 * d1"
// parse to the same canonical map.
//
// Malformed text is an input fault, not a construction bug; it is reported
// as an *Error, never a panic.
package parse

import (
	"fmt"
	"strconv"

	"loom/internal/affine"
)

// Error describes a syntax error with its byte offset in the source line.
type Error struct {
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// Map parses one affine map from src and interns it in ctx.
func Map(ctx *affine.Context, src string) (affine.Map, error) {
	if ctx == nil {
		panic("parse: Map with nil context")
	}
	p := &parser{ctx: ctx, scan: scanner{src: src}}
	m, err := p.parseMap()
	if err != nil {
		return affine.Map{}, err
	}
	return m, nil
}

type parser struct {
	ctx  *affine.Context
	scan scanner
	tok  token

	numDims    int
	numSymbols int
}

func (p *parser) advance() *Error {
	t, err := p.scan.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expect(k tokKind, what string) (token, *Error) {
	if p.tok.kind != k {
		return token{}, p.unexpected(what)
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return t, nil
}

func (p *parser) unexpected(what string) *Error {
	return &Error{
		Offset: p.tok.off,
		Msg:    fmt.Sprintf("expected %s, got %s", what, p.tok.describe()),
	}
}

func (p *parser) parseMap() (affine.Map, *Error) {
	if err := p.advance(); err != nil {
		return affine.Map{}, err
	}

	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return affine.Map{}, err
	}
	n, err := p.parseDeclList('d', tokRParen)
	if err != nil {
		return affine.Map{}, err
	}
	p.numDims = n

	if p.tok.kind == tokLBracket {
		if err := p.advance(); err != nil {
			return affine.Map{}, err
		}
		n, err := p.parseDeclList('s', tokRBracket)
		if err != nil {
			return affine.Map{}, err
		}
		p.numSymbols = n
	}

	if _, err := p.expect(tokArrow, "'->'"); err != nil {
		return affine.Map{}, err
	}
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return affine.Map{}, err
	}

	var results []affine.Expr
	if p.tok.kind != tokRParen {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return affine.Map{}, err
			}
			results = append(results, e)
			if p.tok.kind != tokComma {
				break
			}
			if err := p.advance(); err != nil {
				return affine.Map{}, err
			}
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return affine.Map{}, err
	}
	if p.tok.kind != tokEOF {
		return affine.Map{}, p.unexpected("end of input")
	}

	return p.ctx.MakeMap(p.numDims, p.numSymbols, results), nil
}

// parseDeclList reads a positional identifier list up to closer. The i-th
// name must be exactly <prefix><i>; the list may be empty.
func (p *parser) parseDeclList(prefix byte, closer tokKind) (int, *Error) {
	kind := "dimension"
	if prefix == 's' {
		kind = "symbol"
	}

	n := 0
	for p.tok.kind != closer {
		t, err := p.expect(tokIdent, kind+" name")
		if err != nil {
			return 0, err
		}
		want := fmt.Sprintf("%c%d", prefix, n)
		if t.text != want {
			return 0, &Error{
				Offset: t.off,
				Msg:    fmt.Sprintf("expected %s in the %s list, got %q", want, kind, t.text),
			}
		}
		n++
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	if _, err := p.expect(closer, "'"+string(closerByte(closer))+"'"); err != nil {
		return 0, err
	}
	return n, nil
}

func closerByte(k tokKind) byte {
	if k == tokRBracket {
		return ']'
	}
	return ')'
}

// parseExpr handles the additive tier: term (("+" | "-") term)*.
func (p *parser) parseExpr() (affine.Expr, *Error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return affine.Expr{}, err
	}
	for {
		switch p.tok.kind {
		case tokPlus:
			if err := p.advance(); err != nil {
				return affine.Expr{}, err
			}
			rhs, err := p.parseTerm()
			if err != nil {
				return affine.Expr{}, err
			}
			lhs = p.ctx.Add(lhs, rhs)
		case tokMinus:
			if err := p.advance(); err != nil {
				return affine.Expr{}, err
			}
			rhs, err := p.parseTerm()
			if err != nil {
				return affine.Expr{}, err
			}
			lhs = p.ctx.Add(lhs, p.ctx.Mul(p.ctx.Constant(-1), rhs))
		default:
			return lhs, nil
		}
	}
}

// parseTerm handles the multiplicative tier:
// factor (("*" | "mod" | "floordiv" | "ceildiv") factor)*.
func (p *parser) parseTerm() (affine.Expr, *Error) {
	lhs, err := p.parseFactor()
	if err != nil {
		return affine.Expr{}, err
	}
	for {
		var op string
		switch {
		case p.tok.kind == tokStar:
			op = "*"
		case p.tok.kind == tokIdent && isTermOp(p.tok.text):
			op = p.tok.text
		default:
			return lhs, nil
		}
		if err := p.advance(); err != nil {
			return affine.Expr{}, err
		}
		rhs, err := p.parseFactor()
		if err != nil {
			return affine.Expr{}, err
		}
		switch op {
		case "*":
			lhs = p.ctx.Mul(lhs, rhs)
		case "mod":
			lhs = p.ctx.Mod(lhs, rhs)
		case "floordiv":
			lhs = p.ctx.FloorDiv(lhs, rhs)
		case "ceildiv":
			lhs = p.ctx.CeilDiv(lhs, rhs)
		}
	}
}

func isTermOp(text string) bool {
	return text == "mod" || text == "floordiv" || text == "ceildiv"
}

func (p *parser) parseFactor() (affine.Expr, *Error) {
	switch p.tok.kind {
	case tokNumber:
		return p.parseConstant(p.tok, false)
	case tokMinus:
		if err := p.advance(); err != nil {
			return affine.Expr{}, err
		}
		// A negated literal folds into the constant so the full int64
		// range, including the minimum, stays representable.
		if p.tok.kind == tokNumber {
			return p.parseConstant(p.tok, true)
		}
		f, err := p.parseFactor()
		if err != nil {
			return affine.Expr{}, err
		}
		return p.ctx.Mul(p.ctx.Constant(-1), f), nil
	case tokIdent:
		return p.parseRef()
	case tokLParen:
		if err := p.advance(); err != nil {
			return affine.Expr{}, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return affine.Expr{}, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return affine.Expr{}, err
		}
		return e, nil
	default:
		return affine.Expr{}, p.unexpected("operand")
	}
}

func (p *parser) parseConstant(t token, negated bool) (affine.Expr, *Error) {
	text := t.text
	if negated {
		text = "-" + text
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return affine.Expr{}, &Error{
			Offset: t.off,
			Msg:    fmt.Sprintf("integer constant %s overflows int64", text),
		}
	}
	if aerr := p.advance(); aerr != nil {
		return affine.Expr{}, aerr
	}
	return p.ctx.Constant(v), nil
}

// parseRef resolves a d<pos> or s<pos> reference against the declared lists.
func (p *parser) parseRef() (affine.Expr, *Error) {
	t := p.tok
	if isTermOp(t.text) {
		return affine.Expr{}, p.unexpected("operand")
	}
	if len(t.text) < 2 || (t.text[0] != 'd' && t.text[0] != 's') {
		return affine.Expr{}, &Error{
			Offset: t.off,
			Msg:    fmt.Sprintf("unknown identifier %q", t.text),
		}
	}
	pos, err := strconv.Atoi(t.text[1:])
	if err != nil || fmt.Sprintf("%c%d", t.text[0], pos) != t.text {
		return affine.Expr{}, &Error{
			Offset: t.off,
			Msg:    fmt.Sprintf("unknown identifier %q", t.text),
		}
	}
	if aerr := p.advance(); aerr != nil {
		return affine.Expr{}, aerr
	}

	if t.text[0] == 'd' {
		if pos >= p.numDims {
			return affine.Expr{}, &Error{
				Offset: t.off,
				Msg:    fmt.Sprintf("undeclared dimension %s (map declares %d)", t.text, p.numDims),
			}
		}
		return p.ctx.Dim(pos), nil
	}
	if pos >= p.numSymbols {
		return affine.Expr{}, &Error{
			Offset: t.off,
			Msg:    fmt.Sprintf("undeclared symbol %s (map declares %d)", t.text, p.numSymbols),
		}
	}
	return p.ctx.Symbol(pos), nil
}
