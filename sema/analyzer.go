package sema

import (
	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/stackc/ast"
	"github.com/pontaoski/stackc/errors"
	"github.com/pontaoski/stackc/types"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/stackc", "sema")

// Analyzer checks a program's names and types. Checks panic with an
// errors.SemanticError or errors.TypeError and Analyze recovers the first
// one.
type Analyzer struct {
	names []map[string]*Symbol
	depth int

	// returns is the return type of the function being checked, nil outside
	// of any function.
	returns ast.Type

	functions map[string]*ast.FunctionType
}

func New() *Analyzer {
	return &Analyzer{}
}

func Analyze(prog *ast.Program) error {
	return New().Analyze(prog)
}

func (a *Analyzer) Analyze(prog *ast.Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case errors.SemanticError:
				err = tracerr.Wrap(e)
			case errors.TypeError:
				err = tracerr.Wrap(e)
			default:
				panic(r)
			}
		}
	}()

	a.names = []map[string]*Symbol{{}}
	a.depth = 0
	a.returns = nil
	a.functions = make(map[string]*ast.FunctionType)
	addBuiltins(a.top())

	for _, stmt := range prog.Statements {
		a.statement(stmt)
	}

	plog.Debugf("analyzed %d top-level statements, %d functions", len(prog.Statements), len(a.functions))
	return nil
}

// Functions returns the signatures of every user-defined function seen by
// the last call to Analyze.
func (a *Analyzer) Functions() map[string]*ast.FunctionType {
	return a.functions
}

func (a *Analyzer) statement(s ast.Statement) {
	switch stmt := s.(type) {
	case ast.ExpressionStatement:
		a.typeOf(stmt.Expression)
	case ast.Declaration:
		a.declaration(stmt)
	case ast.AssignmentStatement:
		a.assign(stmt.Target, stmt.Value, stmt.Pos)
	case ast.If:
		a.condition(stmt.Condition)
		a.nested(stmt.Then)
		if stmt.Else != nil {
			a.nested(stmt.Else)
		}
	case ast.While:
		a.condition(stmt.Condition)
		a.nested(stmt.Body)
	case ast.Func:
		a.function(stmt)
	case ast.Return:
		a.ret(stmt)
	case ast.Block:
		defer a.pushScope()()
		for _, inner := range stmt.Statements {
			a.statement(inner)
		}
	default:
		panic("unhandled statement")
	}
}

// nested checks the body of an if or while in its own scope, so that a
// declaration used directly as a body does not leak.
func (a *Analyzer) nested(s ast.Statement) {
	defer a.pushScope()()
	a.statement(s)
}

func (a *Analyzer) condition(e ast.Expression) {
	if t := a.typeOf(e); t != ast.BoolType {
		panic(errors.Type(ast.PosOf(e), "condition must be bool, not %s", ast.TypeString(t)))
	}
}

func (a *Analyzer) declaration(decl ast.Declaration) {
	if decl.Kind == ast.VoidType {
		panic(errors.Semantic(decl.NamePos, "variable %s cannot have type void", decl.Name))
	}
	a.ensureUndefined(decl.Name, decl.NamePos)

	if decl.Value != nil {
		if t := a.typeOf(decl.Value); !Compatible(decl.Kind, t) {
			panic(errors.Type(decl.Pos, "cannot initialise %s of type %s with a value of type %s", decl.Name, ast.TypeString(decl.Kind), ast.TypeString(t)))
		}
	}

	a.define(&Symbol{
		Name: decl.Name,
		Kind: decl.Kind,
		Pos:  decl.NamePos,
	})
}

func (a *Analyzer) assign(target string, value ast.Expression, pos types.Location) ast.Type {
	sym := a.resolve(target, pos)
	if sym.Function {
		panic(errors.Semantic(pos, "cannot assign to function %s", target))
	}

	if t := a.typeOf(value); !Compatible(sym.Kind, t) {
		panic(errors.Type(pos, "cannot assign a value of type %s to %s of type %s", ast.TypeString(t), target, ast.TypeString(sym.Kind)))
	}
	return sym.Kind
}

func (a *Analyzer) function(fn ast.Func) {
	if _, ok := a.functions[fn.Name]; ok {
		panic(errors.Semantic(fn.NamePos, "function %s is already defined", fn.Name))
	}
	if _, ok := Builtins[fn.Name]; ok {
		panic(errors.Semantic(fn.NamePos, "%s is a builtin and cannot be redefined", fn.Name))
	}

	sig := fn.Signature()
	a.define(&Symbol{
		Name:     fn.Name,
		Kind:     sig,
		Function: true,
		Pos:      fn.NamePos,
	})
	a.functions[fn.Name] = sig

	defer a.pushScope()()

	oldReturns := a.returns
	a.returns = orVoid(fn.Returns)
	a.depth++
	defer func() {
		a.returns = oldReturns
		a.depth--
	}()

	for _, param := range fn.Parameters {
		if param.Kind == ast.VoidType {
			panic(errors.Semantic(param.Pos, "parameter %s cannot have type void", param.Name))
		}
		a.define(&Symbol{
			Name: param.Name,
			Kind: param.Kind,
			Pos:  param.Pos,
		})
	}

	a.statement(fn.Body)
}

func (a *Analyzer) ret(stmt ast.Return) {
	if a.returns == nil {
		panic(errors.Semantic(stmt.Pos, "return outside of a function"))
	}

	if stmt.Value == nil {
		if a.returns != ast.VoidType {
			panic(errors.Type(stmt.Pos, "missing return value, function returns %s", ast.TypeString(a.returns)))
		}
		return
	}

	t := a.typeOf(stmt.Value)
	if a.returns == ast.VoidType {
		panic(errors.Type(ast.PosOf(stmt.Value), "void function cannot return a value"))
	}
	if !Compatible(a.returns, t) {
		panic(errors.Type(ast.PosOf(stmt.Value), "cannot return a value of type %s from a function returning %s", ast.TypeString(t), ast.TypeString(a.returns)))
	}
}

func (a *Analyzer) typeOf(e ast.Expression) ast.Type {
	switch expr := e.(type) {
	case ast.Lit:
		switch expr.Literal.(type) {
		case ast.Integer:
			return ast.IntType
		case ast.Float:
			return ast.FloatType
		case ast.Boolean:
			return ast.BoolType
		case ast.StringLiteral:
			return ast.StringType
		}
	case ast.Ident:
		return a.resolve(expr.Name, expr.Pos).Kind
	case ast.Binary:
		return a.binary(expr)
	case ast.Unary:
		return a.unary(expr)
	case ast.Call:
		return a.call(expr)
	case ast.Assignment:
		return a.assign(expr.Target, expr.Value, expr.Pos)
	}

	panic("unhandled expression")
}

func (a *Analyzer) binary(expr ast.Binary) ast.Type {
	left := a.typeOf(expr.Left)
	right := a.typeOf(expr.Right)

	mismatch := func(want string) {
		panic(errors.Type(expr.Pos, "operator %s requires %s operands, got %s and %s", expr.Operator, want, ast.TypeString(left), ast.TypeString(right)))
	}

	switch expr.Operator {
	case ast.Add, ast.Subtract, ast.Multiply, ast.Divide:
		if !isNumeric(left) || !isNumeric(right) {
			mismatch("numeric")
		}
		if left == ast.IntType && right == ast.IntType {
			return ast.IntType
		}
		return ast.FloatType
	case ast.Modulo:
		if left != ast.IntType || right != ast.IntType {
			mismatch("int")
		}
		return ast.IntType
	case ast.LessThan, ast.LessThanEqual, ast.GreaterThan, ast.GreaterThanEqual:
		if !isNumeric(left) || !isNumeric(right) {
			mismatch("numeric")
		}
		return ast.BoolType
	case ast.Equal, ast.NotEqual:
		if !Compatible(left, right) && !Compatible(right, left) {
			mismatch("compatible")
		}
		return ast.BoolType
	case ast.And, ast.Or:
		if left != ast.BoolType || right != ast.BoolType {
			mismatch("bool")
		}
		return ast.BoolType
	}

	panic("unhandled operator")
}

func (a *Analyzer) unary(expr ast.Unary) ast.Type {
	t := a.typeOf(expr.Operand)

	switch expr.Operator {
	case ast.Negate:
		if !isNumeric(t) {
			panic(errors.Type(expr.Pos, "operator - requires a numeric operand, got %s", ast.TypeString(t)))
		}
		return t
	case ast.Not:
		if t != ast.BoolType {
			panic(errors.Type(expr.Pos, "operator ! requires a bool operand, got %s", ast.TypeString(t)))
		}
		return ast.BoolType
	case ast.Complement:
		if t != ast.IntType {
			panic(errors.Type(expr.Pos, "operator ~ requires an int operand, got %s", ast.TypeString(t)))
		}
		return ast.IntType
	}

	panic("unhandled operator")
}

func (a *Analyzer) call(expr ast.Call) ast.Type {
	sym, ok := a.lookup(expr.Function)
	if !ok {
		panic(errors.Semantic(expr.Pos, "undefined function %s", expr.Function))
	}
	sig := sym.Signature()
	if sig == nil {
		panic(errors.Semantic(expr.Pos, "%s is not a function", expr.Function))
	}

	if len(expr.Arguments) != len(sig.Parameters) {
		panic(errors.Semantic(expr.Pos, "function %s takes %d arguments, got %d", expr.Function, len(sig.Parameters), len(expr.Arguments)))
	}
	for idx, arg := range expr.Arguments {
		if t := a.typeOf(arg); !Compatible(sig.Parameters[idx], t) {
			panic(errors.Type(ast.PosOf(arg), "argument %d of function %s is of type %s, not type %s", idx+1, expr.Function, ast.TypeString(t), ast.TypeString(sig.Parameters[idx])))
		}
	}

	return orVoid(sig.Returns)
}
