package ast

import (
	"fmt"
	"strings"
)

func (p Primitive) String() string {
	switch p {
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case BoolType:
		return "bool"
	case StringType:
		return "string"
	case VoidType:
		return "void"
	}
	return fmt.Sprintf("Primitive(%d)", int(p))
}

func (f *FunctionType) String() string {
	var params []string
	for _, param := range f.Parameters {
		params = append(params, TypeString(param))
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), TypeString(f.Returns))
}

// TypeString renders t, treating a nil type as void.
func TypeString(t Type) string {
	if t == nil {
		return VoidType.String()
	}
	return fmt.Sprint(t)
}

var binaryNames = map[BinaryOperator]string{
	Add:              "+",
	Subtract:         "-",
	Multiply:         "*",
	Divide:           "/",
	Modulo:           "%",
	Equal:            "==",
	NotEqual:         "!=",
	LessThan:         "<",
	LessThanEqual:    "<=",
	GreaterThan:      ">",
	GreaterThanEqual: ">=",
	And:              "&&",
	Or:               "||",
}

func (b BinaryOperator) String() string {
	return binaryNames[b]
}

func (u UnaryOperator) String() string {
	switch u {
	case Negate:
		return "-"
	case Not:
		return "!"
	case Complement:
		return "~"
	}
	return "?"
}
