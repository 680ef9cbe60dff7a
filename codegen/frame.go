package codegen

import (
	"fmt"

	"github.com/pontaoski/stackc/ast"
)

// slot is where a name lives at run time: a memory operand for variables,
// or a label for functions.
type slot struct {
	operand  string
	function bool
}

func localSlot(index int) slot {
	return slot{operand: fmt.Sprintf("qword [rbp-%d]", 8*index)}
}

func globalSlot(name string) slot {
	return slot{operand: fmt.Sprintf("qword [rel glob.%s]", name)}
}

// symbol is the assembler name of a user function. The $ prefix keeps names
// like rax or ret from being read as registers or instructions.
func symbol(name string) string {
	return "$" + name
}

func functionSlot(name string) slot {
	return slot{operand: symbol(name), function: true}
}

// frame is the generation state of one function body.
type frame struct {
	buf      *buffer
	slots    int
	function bool
}

func (f *frame) allocate() slot {
	f.slots++
	return localSlot(f.slots)
}

// countLocals counts the declarations under stmts, including nested blocks
// but not nested functions, which get frames of their own.
func countLocals(stmts ...ast.Statement) int {
	count := 0
	for _, stmt := range stmts {
		ast.Inspect(stmt, func(n ast.Node) bool {
			switch n.(type) {
			case ast.Func:
				return false
			case ast.Declaration:
				count++
			}
			return true
		})
	}
	return count
}

// frameSize returns the bytes reserved for count quadword slots, keeping rsp
// 16-byte aligned.
func frameSize(count int) int {
	return (8*count + 15) &^ 15
}

func (g *Generator) pushScope() func() {
	g.scopes = append(g.scopes, make(map[string]slot))
	return g.popScope
}

func (g *Generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

func (g *Generator) top() map[string]slot {
	return g.scopes[len(g.scopes)-1]
}

func (g *Generator) lookup(name string) (slot, bool) {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if s, ok := g.scopes[i][name]; ok {
			return s, true
		}
	}
	if g.funcs[name] {
		return functionSlot(name), true
	}
	return slot{}, false
}
