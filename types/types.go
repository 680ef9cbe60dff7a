package types

import (
	"fmt"
)

// Location is the 1-based line and column of the first byte of a token or
// node, plus the length in bytes of the token it came from.
type Location struct {
	Line   int
	Column int
	Length int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

type TokenKind int

const (
	EOF TokenKind = iota

	INT
	FLOAT
	STRING
	BOOL
	IDENT

	IF
	ELSE
	WHILE
	FOR
	RETURN
	VAR
	FUNC
	INT_TYPE
	FLOAT_TYPE
	BOOL_TYPE
	STRING_TYPE
	VOID_TYPE

	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ
	NEQ
	LT
	LTE
	GT
	GTE
	AND
	OR
	NOT
	TILDE
	ASSIGN
	ARROW

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	SEMICOLON
	COMMA
	PERIOD
	COLON
)

var kindNames = map[TokenKind]string{
	EOF:         "EOF",
	INT:         "INT",
	FLOAT:       "FLOAT",
	STRING:      "STRING",
	BOOL:        "BOOL",
	IDENT:       "IDENT",
	IF:          "IF",
	ELSE:        "ELSE",
	WHILE:       "WHILE",
	FOR:         "FOR",
	RETURN:      "RETURN",
	VAR:         "VAR",
	FUNC:        "FUNC",
	INT_TYPE:    "INT_TYPE",
	FLOAT_TYPE:  "FLOAT_TYPE",
	BOOL_TYPE:   "BOOL_TYPE",
	STRING_TYPE: "STRING_TYPE",
	VOID_TYPE:   "VOID_TYPE",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	STAR:        "STAR",
	SLASH:       "SLASH",
	PERCENT:     "PERCENT",
	EQ:          "EQ",
	NEQ:         "NEQ",
	LT:          "LT",
	LTE:         "LTE",
	GT:          "GT",
	GTE:         "GTE",
	AND:         "AND",
	OR:          "OR",
	NOT:         "NOT",
	TILDE:       "TILDE",
	ASSIGN:      "ASSIGN",
	ARROW:       "ARROW",
	LPAREN:      "LPAREN",
	RPAREN:      "RPAREN",
	LBRACE:      "LBRACE",
	RBRACE:      "RBRACE",
	LBRACKET:    "LBRACKET",
	RBRACKET:    "RBRACKET",
	SEMICOLON:   "SEMICOLON",
	COMMA:       "COMMA",
	PERIOD:      "PERIOD",
	COLON:       "COLON",
}

func (t TokenKind) String() string {
	if name, ok := kindNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(t))
}

// Keywords maps the reserved identifier spellings to their kinds.
var Keywords = map[string]TokenKind{
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"for":    FOR,
	"return": RETURN,
	"var":    VAR,
	"func":   FUNC,
	"int":    INT_TYPE,
	"float":  FLOAT_TYPE,
	"bool":   BOOL_TYPE,
	"string": STRING_TYPE,
	"void":   VOID_TYPE,
}

type Token struct {
	Kind     TokenKind
	Text     string
	Location Location
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}
