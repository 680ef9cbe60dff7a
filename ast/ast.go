package ast

import "github.com/pontaoski/stackc/types"

//go:generate sh -c "cd ../tool && go run . ../ast/nodes.adt ../ast/nodes_gen.go ast"

type Program struct {
	Statements []Statement
}

type ExpressionStatement struct {
	Expression Expression
	Pos        types.Location
}

// Declaration introduces a variable. Value is nil when there is no
// initializer.
type Declaration struct {
	Name    string
	Kind    Type
	Value   Expression
	Pos     types.Location
	NamePos types.Location
}

type AssignmentStatement struct {
	Target string
	Value  Expression
	Pos    types.Location
}

type If struct {
	Condition Expression
	Then      Statement
	Else      Statement
	Pos       types.Location
}

type While struct {
	Condition Expression
	Body      Statement
	Pos       types.Location
}

type Parameter struct {
	Name string
	Kind Type
	Pos  types.Location
}

type Func struct {
	Name       string
	Parameters []Parameter
	Returns    Type
	Body       Block
	Pos        types.Location
	NamePos    types.Location
}

// Signature returns the function type of f.
func (f Func) Signature() *FunctionType {
	sig := &FunctionType{Returns: f.Returns}
	for _, param := range f.Parameters {
		sig.Parameters = append(sig.Parameters, param.Kind)
	}
	return sig
}

type Return struct {
	Value Expression
	Pos   types.Location
}

type Block struct {
	Statements []Statement
	Pos        types.Location
}

type Lit struct {
	Literal
	Pos types.Location
}

type Ident struct {
	Name string
	Pos  types.Location
}

type Binary struct {
	Left     Expression
	Operator BinaryOperator
	Right    Expression
	Pos      types.Location
}

type Unary struct {
	Operator UnaryOperator
	Operand  Expression
	Pos      types.Location
}

// Call always names its callee; the parser rejects anything else in callee
// position.
type Call struct {
	Function  string
	Arguments []Expression
	Pos       types.Location
}

type Assignment struct {
	Target string
	Value  Expression
	Pos    types.Location
}

type BinaryOperator int

const (
	Add BinaryOperator = iota
	Subtract
	Multiply
	Divide
	Modulo
	Equal
	NotEqual
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual
	And
	Or
)

type UnaryOperator int

const (
	Negate UnaryOperator = iota
	Not
	Complement
)

const (
	IntType Primitive = iota
	FloatType
	BoolType
	StringType
	VoidType
)

type FunctionType struct {
	Parameters []Type
	Returns    Type
}

// PosOf returns the location of an expression.
func PosOf(e Expression) types.Location {
	switch expr := e.(type) {
	case Lit:
		return expr.Pos
	case Ident:
		return expr.Pos
	case Binary:
		return expr.Pos
	case Unary:
		return expr.Pos
	case Call:
		return expr.Pos
	case Assignment:
		return expr.Pos
	}
	return types.Location{}
}
