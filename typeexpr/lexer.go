// Package typeexpr parses a small TypeScript-flavored type notation
// into a types.Graph. It exists for the REPL and for tests that are
// easier to read as source text than as constructor calls.
package typeexpr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tString  // quoted string literal
	tNumber  // numeric literal
	tBigInt  // numeric literal with n suffix
	tText    // fixed text inside a template literal
	tPipe    // |
	tAmp     // &
	tLParen  // (
	tRParen  // )
	tLBrack  // [
	tRBrack  // ]
	tLBrace  // {
	tRBrace  // }
	tLess    // <
	tGreater // >
	tComma   // ,
	tColon   // :
	tSemi    // ;
	tQuestion
	tEllipsis // ...
	tArrow    // =>
	tEquals   // =
	tMinus    // -
	tBacktick // ` opening or closing a template
	tHole     // ${ inside a template
)

func (k tokenKind) String() string {
	switch k {
	case tEOF:
		return "end of input"
	case tIdent:
		return "identifier"
	case tString:
		return "string literal"
	case tNumber:
		return "number literal"
	case tBigInt:
		return "bigint literal"
	case tText:
		return "template text"
	case tPipe:
		return `"|"`
	case tAmp:
		return `"&"`
	case tLParen:
		return `"("`
	case tRParen:
		return `")"`
	case tLBrack:
		return `"["`
	case tRBrack:
		return `"]"`
	case tLBrace:
		return `"{"`
	case tRBrace:
		return `"}"`
	case tLess:
		return `"<"`
	case tGreater:
		return `">"`
	case tComma:
		return `","`
	case tColon:
		return `":"`
	case tSemi:
		return `";"`
	case tQuestion:
		return `"?"`
	case tEllipsis:
		return `"..."`
	case tArrow:
		return `"=>"`
	case tEquals:
		return `"="`
	case tMinus:
		return `"-"`
	case tBacktick:
		return "backtick"
	case tHole:
		return `"${"`
	}
	return "unknown token"
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// A LexError reports a malformed token and where it starts.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Pos, e.Msg)
}

// lexer scans src into tokens. Template literals switch it into text
// mode: fixed text is one token, and ${ re-enters normal scanning
// until the brace that closes the hole.
type lexer struct {
	src string
	cur int

	// template holds the brace nesting depth of each open hole; the
	// top entry tracks the hole being scanned, -1 marks template text
	// mode itself.
	template []int
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	var toks []token
	for {
		tok, err := l.scan()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tEOF {
			return toks, nil
		}
	}
}

func (l *lexer) inText() bool {
	return len(l.template) > 0 && l.template[len(l.template)-1] == -1
}

func (l *lexer) errf(pos int, f string, vs ...interface{}) error {
	return &LexError{Pos: pos, Msg: fmt.Sprintf(f, vs...)}
}

func (l *lexer) scan() (token, error) {
	if l.inText() {
		return l.scanText()
	}
	l.skipSpace()
	start := l.cur
	if l.cur >= len(l.src) {
		return token{kind: tEOF, pos: start}, nil
	}
	c := l.src[l.cur]
	l.cur++
	switch c {
	case '|':
		return token{kind: tPipe, pos: start}, nil
	case '&':
		return token{kind: tAmp, pos: start}, nil
	case '(':
		return token{kind: tLParen, pos: start}, nil
	case ')':
		return token{kind: tRParen, pos: start}, nil
	case '[':
		return token{kind: tLBrack, pos: start}, nil
	case ']':
		return token{kind: tRBrack, pos: start}, nil
	case '{':
		if n := len(l.template); n > 0 {
			l.template[n-1]++
		}
		return token{kind: tLBrace, pos: start}, nil
	case '}':
		if n := len(l.template); n > 0 {
			if l.template[n-1] == 0 {
				// Closes the current hole; back to template text.
				l.template[n-1] = -1
				return l.scanText()
			}
			l.template[n-1]--
		}
		return token{kind: tRBrace, pos: start}, nil
	case '<':
		return token{kind: tLess, pos: start}, nil
	case '>':
		return token{kind: tGreater, pos: start}, nil
	case ',':
		return token{kind: tComma, pos: start}, nil
	case ':':
		return token{kind: tColon, pos: start}, nil
	case ';':
		return token{kind: tSemi, pos: start}, nil
	case '?':
		return token{kind: tQuestion, pos: start}, nil
	case '-':
		return token{kind: tMinus, pos: start}, nil
	case '=':
		if l.cur < len(l.src) && l.src[l.cur] == '>' {
			l.cur++
			return token{kind: tArrow, pos: start}, nil
		}
		return token{kind: tEquals, pos: start}, nil
	case '.':
		if strings.HasPrefix(l.src[l.cur:], "..") {
			l.cur += 2
			return token{kind: tEllipsis, pos: start}, nil
		}
		return token{}, l.errf(start, "unexpected %q", ".")
	case '"', '\'':
		return l.scanString(start, c)
	case '`':
		l.template = append(l.template, -1)
		return token{kind: tBacktick, pos: start}, nil
	}
	if isDigit(c) {
		l.cur--
		return l.scanNumber(start)
	}
	if isAlpha(c) {
		for l.cur < len(l.src) && isAlphaNum(l.src[l.cur]) {
			l.cur++
		}
		return token{kind: tIdent, text: l.src[start:l.cur], pos: start}, nil
	}
	return token{}, l.errf(start, "unexpected %q", string(c))
}

// scanText scans inside a template literal up to the next hole or the
// closing backtick.
func (l *lexer) scanText() (token, error) {
	start := l.cur
	var text strings.Builder
	for l.cur < len(l.src) {
		c := l.src[l.cur]
		switch {
		case c == '`':
			if text.Len() > 0 {
				return token{kind: tText, text: text.String(), pos: start}, nil
			}
			l.cur++
			l.template = l.template[:len(l.template)-1]
			return token{kind: tBacktick, pos: start}, nil
		case strings.HasPrefix(l.src[l.cur:], "${"):
			if text.Len() > 0 {
				return token{kind: tText, text: text.String(), pos: start}, nil
			}
			l.cur += 2
			l.template[len(l.template)-1] = 0
			return token{kind: tHole, pos: start}, nil
		case c == '\\' && l.cur+1 < len(l.src):
			l.cur++
			text.WriteByte(l.src[l.cur])
			l.cur++
		default:
			text.WriteByte(c)
			l.cur++
		}
	}
	return token{}, l.errf(start, "unterminated template literal")
}

func (l *lexer) scanString(start int, quote byte) (token, error) {
	var text strings.Builder
	for l.cur < len(l.src) {
		c := l.src[l.cur]
		l.cur++
		switch c {
		case quote:
			return token{kind: tString, text: text.String(), pos: start}, nil
		case '\\':
			if l.cur >= len(l.src) {
				return token{}, l.errf(start, "unterminated string literal")
			}
			switch e := l.src[l.cur]; e {
			case 'n':
				text.WriteByte('\n')
			case 't':
				text.WriteByte('\t')
			default:
				text.WriteByte(e)
			}
			l.cur++
		case '\n':
			return token{}, l.errf(start, "newline in string literal")
		default:
			text.WriteByte(c)
		}
	}
	return token{}, l.errf(start, "unterminated string literal")
}

func (l *lexer) scanNumber(start int) (token, error) {
	for l.cur < len(l.src) && isDigit(l.src[l.cur]) {
		l.cur++
	}
	if l.cur < len(l.src) && l.src[l.cur] == 'n' {
		text := l.src[start:l.cur]
		l.cur++
		return token{kind: tBigInt, text: text, pos: start}, nil
	}
	if l.cur < len(l.src) && l.src[l.cur] == '.' && l.cur+1 < len(l.src) && isDigit(l.src[l.cur+1]) {
		l.cur++
		for l.cur < len(l.src) && isDigit(l.src[l.cur]) {
			l.cur++
		}
	}
	text := l.src[start:l.cur]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, l.errf(start, "bad number %q", text)
	}
	return token{kind: tNumber, text: text, num: n, pos: start}, nil
}

func (l *lexer) skipSpace() {
	for l.cur < len(l.src) {
		switch l.src[l.cur] {
		case ' ', '\t', '\n', '\r':
			l.cur++
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$'
}

func isAlphaNum(c byte) bool { return isAlpha(c) || isDigit(c) }
