package sema

import (
	"github.com/pontaoski/stackc/ast"
	"github.com/pontaoski/stackc/errors"
	"github.com/pontaoski/stackc/types"
)

type Symbol struct {
	Name     string
	Kind     ast.Type
	Function bool
	Pos      types.Location

	// depth is the function nesting depth the symbol was declared at; 0 is
	// the program level.
	depth int
	// global is set for names declared in the outermost scope. Names in a
	// block at program level live in the entry frame, not in storage every
	// function can reach.
	global bool
}

// Signature returns the function type of a function symbol, or nil.
func (s *Symbol) Signature() *ast.FunctionType {
	if !s.Function {
		return nil
	}
	return s.Kind.(*ast.FunctionType)
}

// pushScope opens a child scope and returns the func that closes it.
func (a *Analyzer) pushScope() func() {
	a.names = append(a.names, make(map[string]*Symbol))
	return a.popScope
}

func (a *Analyzer) popScope() {
	a.names = a.names[:len(a.names)-1]
}

func (a *Analyzer) top() map[string]*Symbol {
	return a.names[len(a.names)-1]
}

func (a *Analyzer) lookup(name string) (*Symbol, bool) {
	for i := len(a.names) - 1; i >= 0; i-- {
		if sym, ok := a.names[i][name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// resolve looks up a name used at pos, rejecting locals that belong to an
// enclosing function or to a block of the entry code.
func (a *Analyzer) resolve(name string, pos types.Location) *Symbol {
	sym, ok := a.lookup(name)
	if !ok {
		panic(errors.Semantic(pos, "undefined identifier %s", name))
	}
	if !sym.Function && !sym.global && sym.depth != a.depth {
		if sym.depth == 0 {
			panic(errors.Semantic(pos, "%s is local to a top-level block and cannot be captured", name))
		}
		panic(errors.Semantic(pos, "%s is a local of an enclosing function and cannot be captured", name))
	}
	return sym
}

// ensureUndefined only checks the innermost scope, so shadowing an outer
// name is fine.
func (a *Analyzer) ensureUndefined(name string, pos types.Location) {
	prev, ok := a.top()[name]
	if !ok {
		return
	}
	if _, builtin := Builtins[name]; builtin && prev.Pos == (types.Location{}) {
		panic(errors.Semantic(pos, "%s is a builtin and cannot be redefined", name))
	}
	panic(errors.Semantic(pos, "%s is already defined in this scope (previous definition at %s)", name, prev.Pos))
}

func (a *Analyzer) define(sym *Symbol) {
	a.ensureUndefined(sym.Name, sym.Pos)

	sym.depth = a.depth
	sym.global = len(a.names) == 1
	a.top()[sym.Name] = sym
}
