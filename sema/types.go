package sema

import "github.com/pontaoski/stackc/ast"

func orVoid(t ast.Type) ast.Type {
	if t == nil {
		return ast.VoidType
	}
	return t
}

// Compatible reports whether a value of type got may be used where want is
// expected. Int widens to Float; function types compare structurally.
func Compatible(want, got ast.Type) bool {
	want, got = orVoid(want), orVoid(got)

	switch w := want.(type) {
	case ast.Primitive:
		g, ok := got.(ast.Primitive)
		if !ok {
			return false
		}
		return w == g || (w == ast.FloatType && g == ast.IntType)
	case *ast.FunctionType:
		g, ok := got.(*ast.FunctionType)
		if !ok || len(w.Parameters) != len(g.Parameters) {
			return false
		}
		for i := range w.Parameters {
			if !Compatible(w.Parameters[i], g.Parameters[i]) {
				return false
			}
		}
		return Compatible(w.Returns, g.Returns)
	}

	return false
}

func isNumeric(t ast.Type) bool {
	return t == ast.IntType || t == ast.FloatType
}
