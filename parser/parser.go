package parser

import (
	"strconv"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/stackc/ast"
	"github.com/pontaoski/stackc/errors"
	"github.com/pontaoski/stackc/types"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/stackc", "parser")

// Parser is a recursive-descent parser with one token of lookahead. Helpers
// panic with an errors.SyntaxError; Parse turns that back into an error.
type Parser struct {
	toks []types.Token
	pos  int
}

func NewParser(toks []types.Token) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].Kind != types.EOF {
		var loc types.Location
		if len(toks) > 0 {
			loc = toks[len(toks)-1].Location
		}
		toks = append(toks[:len(toks):len(toks)], types.Token{Kind: types.EOF, Location: loc})
	}
	return &Parser{toks: toks}
}

func Parse(toks []types.Token) (*ast.Program, error) {
	return NewParser(toks).Parse()
}

func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			serr, ok := r.(errors.SyntaxError)
			if !ok {
				panic(r)
			}
			prog = nil
			err = tracerr.Wrap(serr)
		}
	}()

	prog = &ast.Program{}
	for !p.PeekIs(types.EOF) {
		prog.Statements = append(prog.Statements, p.parseStatement())
	}

	plog.Debugf("parsed %d top-level statements", len(prog.Statements))
	return prog, nil
}

func (p *Parser) Peek() types.Token {
	return p.toks[p.pos]
}

func (p *Parser) PeekIs(k ...types.TokenKind) bool {
	tok := p.Peek()
	for _, kind := range k {
		if tok.Kind == kind {
			return true
		}
	}
	return false
}

// Lex consumes the current token. EOF is never consumed.
func (p *Parser) Lex() types.Token {
	tok := p.toks[p.pos]
	if tok.Kind != types.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) LexExpecting(k ...types.TokenKind) types.Token {
	return p.expect("unexpected token", k...)
}

func (p *Parser) expect(msg string, k ...types.TokenKind) types.Token {
	if p.PeekIs(k...) {
		return p.Lex()
	}

	tok := p.Peek()
	panic(errors.SyntaxError{
		Message:  msg,
		Expected: k,
		Got:      tok,
		Location: tok.Location,
	})
}

func (p *Parser) accept(k types.TokenKind) (types.Token, bool) {
	if p.PeekIs(k) {
		return p.Lex(), true
	}
	return types.Token{}, false
}

func fail(tok types.Token, msg string) {
	panic(errors.SyntaxError{
		Message:  msg,
		Got:      tok,
		Location: tok.Location,
	})
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.Peek().Kind {
	case types.VAR:
		return p.parseDeclaration()
	case types.FUNC:
		return p.parseFunc()
	case types.IF:
		return p.parseIf()
	case types.WHILE:
		return p.parseWhile()
	case types.RETURN:
		return p.parseReturn()
	case types.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExpressionStatement()
	}
}

var typeKinds = map[types.TokenKind]ast.Primitive{
	types.INT_TYPE:    ast.IntType,
	types.FLOAT_TYPE:  ast.FloatType,
	types.BOOL_TYPE:   ast.BoolType,
	types.STRING_TYPE: ast.StringType,
	types.VOID_TYPE:   ast.VoidType,
}

func (p *Parser) parseType() ast.Type {
	tok := p.expect("expected a type", types.INT_TYPE, types.FLOAT_TYPE, types.BOOL_TYPE, types.STRING_TYPE, types.VOID_TYPE)
	return typeKinds[tok.Kind]
}

func (p *Parser) parseDeclaration() ast.Statement {
	varTok := p.LexExpecting(types.VAR)
	name := p.expect("expected a variable name", types.IDENT)

	decl := ast.Declaration{
		Name:    name.Text,
		Kind:    ast.IntType,
		Pos:     varTok.Location,
		NamePos: name.Location,
	}
	if _, ok := p.accept(types.COLON); ok {
		decl.Kind = p.parseType()
	}
	if _, ok := p.accept(types.ASSIGN); ok {
		decl.Value = p.parseExpression()
	}
	p.expect("expected ';' after declaration", types.SEMICOLON)

	return decl
}

func (p *Parser) parseFunc() ast.Statement {
	funcTok := p.LexExpecting(types.FUNC)
	name := p.expect("expected a function name", types.IDENT)

	fn := ast.Func{
		Name:    name.Text,
		Returns: ast.VoidType,
		Pos:     funcTok.Location,
		NamePos: name.Location,
	}

	p.LexExpecting(types.LPAREN)
	if !p.PeekIs(types.RPAREN) {
		for {
			pname := p.expect("expected a parameter name", types.IDENT)
			p.expect("expected ':' and a parameter type", types.COLON)
			fn.Parameters = append(fn.Parameters, ast.Parameter{
				Name: pname.Text,
				Kind: p.parseType(),
				Pos:  pname.Location,
			})

			if _, ok := p.accept(types.COMMA); !ok {
				break
			}
		}
	}
	p.expect("expected ')' after parameters", types.RPAREN)

	if _, ok := p.accept(types.ARROW); ok {
		fn.Returns = p.parseType()
	}

	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseBlock() ast.Block {
	lbrace := p.expect("expected '{'", types.LBRACE)

	block := ast.Block{Pos: lbrace.Location}
	for !p.PeekIs(types.RBRACE, types.EOF) {
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.expect("expected '}' to close block", types.RBRACE)

	return block
}

func (p *Parser) parseIf() ast.Statement {
	ifTok := p.LexExpecting(types.IF)

	p.expect("expected '(' after if", types.LPAREN)
	cond := p.parseExpression()
	p.expect("expected ')' after condition", types.RPAREN)

	stmt := ast.If{
		Condition: cond,
		Then:      p.parseStatement(),
		Pos:       ifTok.Location,
	}
	if _, ok := p.accept(types.ELSE); ok {
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	whileTok := p.LexExpecting(types.WHILE)

	p.expect("expected '(' after while", types.LPAREN)
	cond := p.parseExpression()
	p.expect("expected ')' after condition", types.RPAREN)

	return ast.While{
		Condition: cond,
		Body:      p.parseStatement(),
		Pos:       whileTok.Location,
	}
}

func (p *Parser) parseReturn() ast.Statement {
	retTok := p.LexExpecting(types.RETURN)

	stmt := ast.Return{Pos: retTok.Location}
	if !p.PeekIs(types.SEMICOLON) {
		stmt.Value = p.parseExpression()
	}
	p.expect("expected ';' after return", types.SEMICOLON)

	return stmt
}

// parseExpressionStatement lowers a bare assignment to the dedicated
// statement form.
func (p *Parser) parseExpressionStatement() ast.Statement {
	start := p.Peek()
	expr := p.parseExpression()
	p.expect("expected ';' after expression", types.SEMICOLON)

	if assign, ok := expr.(ast.Assignment); ok {
		return ast.AssignmentStatement{
			Target: assign.Target,
			Value:  assign.Value,
			Pos:    assign.Pos,
		}
	}

	return ast.ExpressionStatement{
		Expression: expr,
		Pos:        start.Location,
	}
}

func (p *Parser) parseExpression() ast.Expression {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expression {
	expr := p.parseOr()

	if p.PeekIs(types.ASSIGN) {
		ident, ok := expr.(ast.Ident)
		if !ok {
			fail(p.Peek(), "invalid assignment target")
		}
		p.Lex()

		return ast.Assignment{
			Target: ident.Name,
			Value:  p.parseAssignment(),
			Pos:    ident.Pos,
		}
	}

	return expr
}

var (
	orOps = map[types.TokenKind]ast.BinaryOperator{
		types.OR: ast.Or,
	}
	andOps = map[types.TokenKind]ast.BinaryOperator{
		types.AND: ast.And,
	}
	equalityOps = map[types.TokenKind]ast.BinaryOperator{
		types.EQ:  ast.Equal,
		types.NEQ: ast.NotEqual,
	}
	relationalOps = map[types.TokenKind]ast.BinaryOperator{
		types.LT:  ast.LessThan,
		types.LTE: ast.LessThanEqual,
		types.GT:  ast.GreaterThan,
		types.GTE: ast.GreaterThanEqual,
	}
	additiveOps = map[types.TokenKind]ast.BinaryOperator{
		types.PLUS:  ast.Add,
		types.MINUS: ast.Subtract,
	}
	multiplicativeOps = map[types.TokenKind]ast.BinaryOperator{
		types.STAR:    ast.Multiply,
		types.SLASH:   ast.Divide,
		types.PERCENT: ast.Modulo,
	}
	unaryOps = map[types.TokenKind]ast.UnaryOperator{
		types.MINUS: ast.Negate,
		types.NOT:   ast.Not,
		types.TILDE: ast.Complement,
	}
)

// parseBinary parses one left-associative precedence level.
func (p *Parser) parseBinary(next func() ast.Expression, ops map[types.TokenKind]ast.BinaryOperator) ast.Expression {
	left := next()
	for {
		op, ok := ops[p.Peek().Kind]
		if !ok {
			return left
		}
		tok := p.Lex()
		left = ast.Binary{
			Left:     left,
			Operator: op,
			Right:    next(),
			Pos:      tok.Location,
		}
	}
}

func (p *Parser) parseOr() ast.Expression {
	return p.parseBinary(p.parseAnd, orOps)
}

func (p *Parser) parseAnd() ast.Expression {
	return p.parseBinary(p.parseEquality, andOps)
}

func (p *Parser) parseEquality() ast.Expression {
	return p.parseBinary(p.parseRelational, equalityOps)
}

func (p *Parser) parseRelational() ast.Expression {
	return p.parseBinary(p.parseAdditive, relationalOps)
}

func (p *Parser) parseAdditive() ast.Expression {
	return p.parseBinary(p.parseMultiplicative, additiveOps)
}

func (p *Parser) parseMultiplicative() ast.Expression {
	return p.parseBinary(p.parseUnary, multiplicativeOps)
}

func (p *Parser) parseUnary() ast.Expression {
	if op, ok := unaryOps[p.Peek().Kind]; ok {
		tok := p.Lex()
		return ast.Unary{
			Operator: op,
			Operand:  p.parseUnary(),
			Pos:      tok.Location,
		}
	}
	return p.parseCall()
}

func (p *Parser) parseCall() ast.Expression {
	expr := p.parsePrimary()

	for p.PeekIs(types.LPAREN) {
		ident, ok := expr.(ast.Ident)
		if !ok {
			fail(p.Peek(), "only named functions can be called")
		}
		p.Lex()

		var args []ast.Expression
		if !p.PeekIs(types.RPAREN) {
			for {
				args = append(args, p.parseExpression())
				if _, ok := p.accept(types.COMMA); !ok {
					break
				}
			}
		}
		p.expect("expected ')' after arguments", types.RPAREN)

		expr = ast.Call{
			Function:  ident.Name,
			Arguments: args,
			Pos:       ident.Pos,
		}
	}

	return expr
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.Peek()

	switch tok.Kind {
	case types.INT:
		p.Lex()
		parsed, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			fail(tok, "integer literal out of range")
		}
		return ast.Lit{Literal: ast.Integer(parsed), Pos: tok.Location}
	case types.FLOAT:
		p.Lex()
		parsed, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			fail(tok, "malformed float literal")
		}
		return ast.Lit{Literal: ast.Float(parsed), Pos: tok.Location}
	case types.BOOL:
		p.Lex()
		return ast.Lit{Literal: ast.Boolean(tok.Text == "true"), Pos: tok.Location}
	case types.STRING:
		p.Lex()
		return ast.Lit{Literal: ast.StringLiteral(tok.Text[1 : len(tok.Text)-1]), Pos: tok.Location}
	case types.IDENT:
		p.Lex()
		return ast.Ident{Name: tok.Text, Pos: tok.Location}
	case types.LPAREN:
		p.Lex()
		expr := p.parseExpression()
		p.expect("expected ')'", types.RPAREN)
		return expr
	}

	fail(tok, "expected an expression")
	return nil
}
