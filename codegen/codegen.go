package codegen

import (
	"fmt"
	"math"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/stackc/ast"
	"github.com/pontaoski/stackc/errors"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/stackc", "codegen")

// Generator turns an analyzed program into NASM assembly for x86-64 Linux.
// Every expression leaves exactly one quadword on the machine stack.
type Generator struct {
	labels int

	stringConstants map[string]string
	literals        []string

	globals   []string
	funcs     map[string]bool
	used      map[string]bool
	generated []string

	scopes []map[string]slot
	fn     *frame
	bodies []*buffer
}

func New() *Generator {
	return &Generator{}
}

func Generate(prog *ast.Program) (string, error) {
	return New().Generate(prog)
}

func (g *Generator) reset() {
	g.labels = 0
	g.stringConstants = make(map[string]string)
	g.literals = nil
	g.globals = nil
	g.funcs = make(map[string]bool)
	g.used = make(map[string]bool)
	g.generated = nil
	g.scopes = []map[string]slot{{}}
	g.fn = nil
	g.bodies = nil
}

func (g *Generator) Generate(prog *ast.Program) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			cerr, ok := r.(errors.CodeGenError)
			if !ok {
				panic(r)
			}
			out = ""
			err = tracerr.Wrap(cerr)
		}
	}()

	g.reset()
	ast.Inspect(prog, func(n ast.Node) bool {
		if fn, ok := n.(ast.Func); ok {
			g.funcs[fn.Name] = true
		}
		return true
	})

	entry := g.entry(prog)

	var b buffer
	b.line("section .data")
	for i, lit := range g.literals {
		b.line(fmt.Sprintf("str.%d: db %s", i, dbString(lit)))
	}
	if len(g.globals) > 0 {
		b.line("section .bss")
		for _, name := range g.globals {
			b.line(fmt.Sprintf("glob.%s: resq 1", name))
		}
	}
	b.line("section .text")
	b.emit("global _start")
	for _, body := range g.bodies {
		b.WriteString(body.String())
	}
	g.emitRuntime(&b)
	if entry != nil {
		b.WriteString(entry.String())
	}

	plog.Debugf("generated %d functions, %d string literals, %d globals", len(g.generated), len(g.literals), len(g.globals))
	return b.String(), nil
}

// Functions returns the names of the functions emitted by the last call to
// Generate, in definition order.
func (g *Generator) Functions() []string {
	return g.generated
}

func (g *Generator) label() int {
	g.labels++
	return g.labels
}

// entry generates the top level. Declarations there become globals and
// everything else runs in the process entry block before main is called. A
// program that defines its own _start gets no entry block.
func (g *Generator) entry(prog *ast.Program) *buffer {
	custom := g.funcs["_start"]

	var nested []ast.Statement
	for _, stmt := range prog.Statements {
		switch stmt := stmt.(type) {
		case ast.Func:
			continue
		case ast.Declaration:
			if stmt.Value == nil {
				continue
			}
		default:
			nested = append(nested, stmt)
		}
		if custom {
			panic(errors.CodeGen("top-level statements cannot run when the program defines _start"))
		}
	}

	g.fn = &frame{buf: &buffer{}}
	if !custom {
		g.fn.buf.label("_start")
		g.fn.buf.emit("mov rbp, rsp")
		if size := frameSize(countLocals(nested...)); size > 0 {
			g.fn.buf.emit("sub rsp, %d", size)
		}
	}

	for _, stmt := range prog.Statements {
		g.statement(stmt)
	}

	if custom {
		return nil
	}

	if g.funcs["main"] {
		g.fn.buf.emit("call %s", symbol("main"))
		g.fn.buf.emit("mov rdi, rax")
	} else {
		g.fn.buf.emit("xor rdi, rdi")
	}
	g.fn.buf.emit("mov rax, 60")
	g.fn.buf.emit("syscall")

	return g.fn.buf
}

func (g *Generator) function(fn ast.Func) {
	g.top()[fn.Name] = functionSlot(fn.Name)
	g.generated = append(g.generated, fn.Name)

	oldScopes, oldFrame := g.scopes, g.fn
	defer func() {
		g.scopes, g.fn = oldScopes, oldFrame
	}()

	g.fn = &frame{buf: &buffer{}, function: true}
	g.bodies = append(g.bodies, g.fn.buf)
	g.scopes = []map[string]slot{g.scopes[0], {}}
	b := g.fn.buf

	b.label(symbol(fn.Name))
	b.emit("push rbp")
	b.emit("mov rbp, rsp")
	if size := frameSize(len(fn.Parameters) + countLocals(fn.Body.Statements...)); size > 0 {
		b.emit("sub rsp, %d", size)
	}

	for i, param := range fn.Parameters {
		s := g.fn.allocate()
		g.top()[param.Name] = s
		b.emit("mov rax, [rbp+%d]", 16+8*i)
		b.emit("mov %s, rax", s.operand)
	}

	g.statement(fn.Body)

	b.emit("xor rax, rax")
	g.epilogue()
}

func (g *Generator) epilogue() {
	g.fn.buf.emit("mov rsp, rbp")
	g.fn.buf.emit("pop rbp")
	g.fn.buf.emit("ret")
}

func (g *Generator) scoped(s ast.Statement) {
	defer g.pushScope()()
	g.statement(s)
}

func (g *Generator) statement(s ast.Statement) {
	b := g.fn.buf

	switch stmt := s.(type) {
	case ast.ExpressionStatement:
		g.expression(stmt.Expression)
		b.emit("pop rax")
	case ast.Declaration:
		var s slot
		if len(g.scopes) == 1 {
			s = globalSlot(stmt.Name)
			g.globals = append(g.globals, stmt.Name)
		} else {
			s = g.fn.allocate()
		}

		if stmt.Value != nil {
			g.expression(stmt.Value)
			b.emit("pop %s", s.operand)
		} else if len(g.scopes) > 1 {
			b.emit("mov %s, 0", s.operand)
		}
		g.top()[stmt.Name] = s
	case ast.AssignmentStatement:
		target := g.variable(stmt.Target)
		g.expression(stmt.Value)
		b.emit("pop %s", target.operand)
	case ast.If:
		n := g.label()
		g.expression(stmt.Condition)
		b.emit("pop rax")
		b.emit("cmp rax, 0")
		b.emit("je .else_%d", n)
		g.scoped(stmt.Then)
		b.emit("jmp .endif_%d", n)
		b.label(fmt.Sprintf(".else_%d", n))
		if stmt.Else != nil {
			g.scoped(stmt.Else)
		}
		b.label(fmt.Sprintf(".endif_%d", n))
	case ast.While:
		n := g.label()
		b.label(fmt.Sprintf(".while_%d", n))
		g.expression(stmt.Condition)
		b.emit("pop rax")
		b.emit("cmp rax, 0")
		b.emit("je .endwhile_%d", n)
		g.scoped(stmt.Body)
		b.emit("jmp .while_%d", n)
		b.label(fmt.Sprintf(".endwhile_%d", n))
	case ast.Func:
		g.function(stmt)
	case ast.Return:
		if !g.fn.function {
			panic(errors.CodeGen("return outside of a function"))
		}
		if stmt.Value != nil {
			g.expression(stmt.Value)
			b.emit("pop rax")
		} else {
			b.emit("xor rax, rax")
		}
		g.epilogue()
	case ast.Block:
		defer g.pushScope()()
		for _, inner := range stmt.Statements {
			g.statement(inner)
		}
	default:
		panic(errors.CodeGen("unhandled statement %T", s))
	}
}

func (g *Generator) variable(name string) slot {
	s, ok := g.lookup(name)
	if !ok {
		panic(errors.CodeGen("undefined variable %s", name))
	}
	if s.function {
		panic(errors.CodeGen("cannot assign to function %s", name))
	}
	return s
}

func (g *Generator) pushInt(v int64) {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		g.fn.buf.emit("push %d", v)
		return
	}
	g.fn.buf.emit("mov rax, %d", v)
	g.fn.buf.emit("push rax")
}

func (g *Generator) stringLabel(lit string) string {
	label, ok := g.stringConstants[lit]
	if !ok {
		label = fmt.Sprintf("str.%d", len(g.literals))
		g.stringConstants[lit] = label
		g.literals = append(g.literals, lit)
	}
	return label
}

var arithmetic = map[ast.BinaryOperator]string{
	ast.Add:      "add rax, rbx",
	ast.Subtract: "sub rax, rbx",
	ast.Multiply: "imul rax, rbx",
	ast.And:      "and rax, rbx",
	ast.Or:       "or rax, rbx",
}

var comparisons = map[ast.BinaryOperator]string{
	ast.Equal:            "sete",
	ast.NotEqual:         "setne",
	ast.LessThan:         "setl",
	ast.LessThanEqual:    "setle",
	ast.GreaterThan:      "setg",
	ast.GreaterThanEqual: "setge",
}

func (g *Generator) expression(e ast.Expression) {
	b := g.fn.buf

	switch expr := e.(type) {
	case ast.Lit:
		switch lit := expr.Literal.(type) {
		case ast.Integer:
			g.pushInt(int64(lit))
		case ast.Float:
			g.pushInt(int64(lit))
		case ast.Boolean:
			if lit {
				b.emit("push 1")
			} else {
				b.emit("push 0")
			}
		case ast.StringLiteral:
			b.emit("lea rax, [rel %s]", g.stringLabel(string(lit)))
			b.emit("push rax")
		}
	case ast.Ident:
		s, ok := g.lookup(expr.Name)
		if !ok {
			panic(errors.CodeGen("undefined variable %s", expr.Name))
		}
		if s.function {
			b.emit("lea rax, [rel %s]", s.operand)
			b.emit("push rax")
			return
		}
		b.emit("push %s", s.operand)
	case ast.Binary:
		g.expression(expr.Right)
		g.expression(expr.Left)
		b.emit("pop rax")
		b.emit("pop rbx")

		if op, ok := arithmetic[expr.Operator]; ok {
			b.emit("%s", op)
		} else if set, ok := comparisons[expr.Operator]; ok {
			b.emit("cmp rax, rbx")
			b.emit("%s al", set)
			b.emit("movzx rax, al")
		} else {
			switch expr.Operator {
			case ast.Divide:
				b.emit("cqo")
				b.emit("idiv rbx")
			case ast.Modulo:
				b.emit("cqo")
				b.emit("idiv rbx")
				b.emit("mov rax, rdx")
			default:
				panic(errors.CodeGen("unhandled operator %s", expr.Operator))
			}
		}
		b.emit("push rax")
	case ast.Unary:
		g.expression(expr.Operand)
		b.emit("pop rax")
		switch expr.Operator {
		case ast.Negate:
			b.emit("neg rax")
		case ast.Not:
			b.emit("xor rax, 1")
		case ast.Complement:
			b.emit("not rax")
		}
		b.emit("push rax")
	case ast.Call:
		for i := len(expr.Arguments) - 1; i >= 0; i-- {
			g.expression(expr.Arguments[i])
		}
		if g.funcs[expr.Function] {
			b.emit("call %s", symbol(expr.Function))
		} else {
			if _, ok := runtime[expr.Function]; ok {
				g.use(expr.Function)
			}
			b.emit("call %s", expr.Function)
		}
		if n := len(expr.Arguments); n > 0 {
			b.emit("add rsp, %d", 8*n)
		}
		b.emit("push rax")
	case ast.Assignment:
		target := g.variable(expr.Target)
		g.expression(expr.Value)
		b.emit("pop rax")
		b.emit("mov %s, rax", target.operand)
		b.emit("push rax")
	default:
		panic(errors.CodeGen("unhandled expression %T", e))
	}
}
