package ast

// Node is any statement or expression.
type Node interface{}

// Inspect walks the tree under n depth-first in source order, calling f for
// every statement and expression. Children of a node are skipped when f
// returns false.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}

	switch node := n.(type) {
	case *Program:
		for _, stmt := range node.Statements {
			Inspect(stmt, f)
		}
	case ExpressionStatement:
		Inspect(node.Expression, f)
	case Declaration:
		if node.Value != nil {
			Inspect(node.Value, f)
		}
	case AssignmentStatement:
		Inspect(node.Value, f)
	case If:
		Inspect(node.Condition, f)
		Inspect(node.Then, f)
		if node.Else != nil {
			Inspect(node.Else, f)
		}
	case While:
		Inspect(node.Condition, f)
		Inspect(node.Body, f)
	case Func:
		Inspect(node.Body, f)
	case Return:
		if node.Value != nil {
			Inspect(node.Value, f)
		}
	case Block:
		for _, stmt := range node.Statements {
			Inspect(stmt, f)
		}
	case Binary:
		Inspect(node.Left, f)
		Inspect(node.Right, f)
	case Unary:
		Inspect(node.Operand, f)
	case Call:
		for _, arg := range node.Arguments {
			Inspect(arg, f)
		}
	case Assignment:
		Inspect(node.Value, f)
	}
}

// CountNodes returns the number of statements and expressions in p.
func CountNodes(p *Program) int {
	count := 0
	Inspect(p, func(n Node) bool {
		if _, ok := n.(*Program); !ok {
			count++
		}
		return true
	})
	return count
}
