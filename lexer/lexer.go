package lexer

import (
	"unicode/utf8"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/stackc/errors"
	"github.com/pontaoski/stackc/types"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/stackc", "lexer")

// Lexer is a single forward scan over the source bytes. It never looks
// further ahead than the token it is currently matching.
type Lexer struct {
	src       string
	pos       int
	line      int
	lineStart int
}

func NewLexer(source string) *Lexer {
	return &Lexer{
		src:  source,
		line: 1,
	}
}

// Tokenize returns every token of source followed by a single EOF token, or
// the first lexical error.
func Tokenize(source string) ([]types.Token, error) {
	return NewLexer(source).Tokenize()
}

func (l *Lexer) Tokenize() ([]types.Token, error) {
	var toks []types.Token
	for {
		tok, err := l.Lex()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == types.EOF {
			plog.Debugf("lexed %d tokens over %d lines", len(toks), l.line)
			return toks, nil
		}
	}
}

func (l *Lexer) loc(start, length int) types.Location {
	return types.Location{
		Line:   l.line,
		Column: start - l.lineStart + 1,
		Length: length,
	}
}

func (l *Lexer) advance(n int) {
	end := l.pos + n
	for ; l.pos < end; l.pos++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.lineStart = l.pos + 1
		}
	}
}

func (l *Lexer) peekByte(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) emit(kind types.TokenKind, n int) types.Token {
	tok := types.Token{
		Kind:     kind,
		Text:     l.src[l.pos : l.pos+n],
		Location: l.loc(l.pos, n),
	}
	l.advance(n)
	return tok
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func (l *Lexer) skipTrivia() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c):
			l.advance(1)
		case c == '/' && l.peekByte(1) == '/':
			n := 2
			for l.pos+n < len(l.src) && l.src[l.pos+n] != '\n' {
				n++
			}
			l.advance(n)
		case c == '/' && l.peekByte(1) == '*':
			n := 2
			for {
				if l.pos+n+1 >= len(l.src) {
					return errors.LexicalError{
						Slice:    "/*",
						Message:  "unterminated block comment",
						Location: l.loc(l.pos, 2),
					}
				}
				if l.src[l.pos+n] == '*' && l.src[l.pos+n+1] == '/' {
					break
				}
				n++
			}
			l.advance(n + 2)
		default:
			return nil
		}
	}
	return nil
}

// Lex returns the next token. Once the input is exhausted it keeps
// returning EOF positioned just past the last byte.
func (l *Lexer) Lex() (types.Token, error) {
	if err := l.skipTrivia(); err != nil {
		return types.Token{}, err
	}

	if l.pos >= len(l.src) {
		return types.Token{Kind: types.EOF, Location: l.loc(l.pos, 0)}, nil
	}

	c := l.src[l.pos]
	switch {
	case isDigit(c):
		return l.lexNumber(), nil
	case c == '"':
		return l.lexString()
	case isIdentStart(c):
		return l.lexIdent(), nil
	}

	if tok, ok := l.lexOperator(); ok {
		return tok, nil
	}

	_, size := utf8.DecodeRuneInString(l.src[l.pos:])
	return types.Token{}, errors.LexicalError{
		Slice:    l.src[l.pos : l.pos+size],
		Message:  "unrecognized input",
		Location: l.loc(l.pos, size),
	}
}

func (l *Lexer) lexNumber() types.Token {
	n := 0
	for isDigit(l.peekByte(n)) {
		n++
	}
	if l.peekByte(n) == '.' && isDigit(l.peekByte(n+1)) {
		n++
		for isDigit(l.peekByte(n)) {
			n++
		}
		return l.emit(types.FLOAT, n)
	}
	return l.emit(types.INT, n)
}

// lexString matches from the opening quote to the next unescaped quote. A
// backslash only protects the byte after it; nothing is unescaped.
func (l *Lexer) lexString() (types.Token, error) {
	n := 1
	for {
		if l.pos+n >= len(l.src) {
			return types.Token{}, errors.LexicalError{
				Slice:    l.src[l.pos:],
				Message:  "unterminated string literal",
				Location: l.loc(l.pos, 1),
			}
		}
		switch l.src[l.pos+n] {
		case '\\':
			n += 2
			continue
		case '"':
			return l.emit(types.STRING, n+1), nil
		}
		n++
	}
}

func (l *Lexer) lexIdent() types.Token {
	n := 1
	for isIdentChar(l.peekByte(n)) {
		n++
	}

	lit := l.src[l.pos : l.pos+n]
	if lit == "true" || lit == "false" {
		return l.emit(types.BOOL, n)
	}
	if kind, ok := types.Keywords[lit]; ok {
		return l.emit(kind, n)
	}
	return l.emit(types.IDENT, n)
}

var doubles = map[string]types.TokenKind{
	"==": types.EQ,
	"!=": types.NEQ,
	"<=": types.LTE,
	">=": types.GTE,
	"&&": types.AND,
	"||": types.OR,
	"->": types.ARROW,
}

var singles = map[byte]types.TokenKind{
	'+': types.PLUS,
	'-': types.MINUS,
	'*': types.STAR,
	'/': types.SLASH,
	'%': types.PERCENT,
	'<': types.LT,
	'>': types.GT,
	'!': types.NOT,
	'~': types.TILDE,
	'=': types.ASSIGN,
	'(': types.LPAREN,
	')': types.RPAREN,
	'{': types.LBRACE,
	'}': types.RBRACE,
	'[': types.LBRACKET,
	']': types.RBRACKET,
	';': types.SEMICOLON,
	',': types.COMMA,
	'.': types.PERIOD,
	':': types.COLON,
}

func (l *Lexer) lexOperator() (types.Token, bool) {
	if l.pos+2 <= len(l.src) {
		if kind, ok := doubles[l.src[l.pos:l.pos+2]]; ok {
			return l.emit(kind, 2), true
		}
	}
	if kind, ok := singles[l.src[l.pos]]; ok {
		return l.emit(kind, 1), true
	}
	return types.Token{}, false
}
