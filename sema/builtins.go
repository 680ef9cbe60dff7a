package sema

import "github.com/pontaoski/stackc/ast"

// Builtins lists the runtime routines every program can call. They live in
// the outermost scope next to the program's own top-level names.
var Builtins = map[string]*ast.FunctionType{
	"print": {
		Parameters: []ast.Type{ast.StringType},
		Returns:    ast.VoidType,
	},
	"println": {
		Parameters: []ast.Type{ast.StringType},
		Returns:    ast.VoidType,
	},
	"println_int": {
		Parameters: []ast.Type{ast.IntType},
		Returns:    ast.VoidType,
	},
	"println_float": {
		Parameters: []ast.Type{ast.FloatType},
		Returns:    ast.VoidType,
	},
	"println_bool": {
		Parameters: []ast.Type{ast.BoolType},
		Returns:    ast.VoidType,
	},
}

func addBuiltins(scope map[string]*Symbol) {
	for name, sig := range Builtins {
		scope[name] = &Symbol{
			Name:     name,
			Kind:     sig,
			Function: true,
		}
	}
}
