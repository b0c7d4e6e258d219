package parse

import "fmt"

// tokKind enumerates the lexical tokens of the affine-map syntax.
type tokKind uint8

const (
	tokEOF tokKind = iota
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokArrow
	tokPlus
	tokMinus
	tokStar
	tokIdent
	tokNumber
)

type token struct {
	kind tokKind
	text string
	off  int
}

// describe renders the token for error messages.
func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// scanner is a byte cursor over one line of map text.
type scanner struct {
	src string
	pos int
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) next() (token, *Error) {
	s.skipSpace()
	off := s.pos
	if s.pos >= len(s.src) {
		return token{kind: tokEOF, off: off}, nil
	}

	c := s.src[s.pos]
	switch {
	case c == '(':
		s.pos++
		return token{kind: tokLParen, text: "(", off: off}, nil
	case c == ')':
		s.pos++
		return token{kind: tokRParen, text: ")", off: off}, nil
	case c == '[':
		s.pos++
		return token{kind: tokLBracket, text: "[", off: off}, nil
	case c == ']':
		s.pos++
		return token{kind: tokRBracket, text: "]", off: off}, nil
	case c == ',':
		s.pos++
		return token{kind: tokComma, text: ",", off: off}, nil
	case c == '+':
		s.pos++
		return token{kind: tokPlus, text: "+", off: off}, nil
	case c == '*':
		s.pos++
		return token{kind: tokStar, text: "*", off: off}, nil
	case c == '-':
		s.pos++
		if s.pos < len(s.src) && s.src[s.pos] == '>' {
			s.pos++
			return token{kind: tokArrow, text: "->", off: off}, nil
		}
		return token{kind: tokMinus, text: "-", off: off}, nil
	case isDigit(c):
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
		return token{kind: tokNumber, text: s.src[off:s.pos], off: off}, nil
	case isIdentStart(c):
		for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
			s.pos++
		}
		return token{kind: tokIdent, text: s.src[off:s.pos], off: off}, nil
	}
	return token{}, &Error{Offset: off, Msg: fmt.Sprintf("unexpected character %q", c)}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c >= 'a' && c <= 'z' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
