package compiler

import "github.com/pontaoski/stackc/ast"

// Pass rewrites an analyzed program.
type Pass struct {
	Name string
	Run  func(*ast.Program) *ast.Program
}

func identity(name string) Pass {
	return Pass{
		Name: name,
		Run:  func(p *ast.Program) *ast.Program { return p },
	}
}

// levels lists the passes enabled at each optimization level. They are hooks
// only and leave the program untouched.
var levels = [MaxOptimizationLevel + 1][]Pass{
	{},
	{identity("simplify")},
	{identity("simplify"), identity("inline")},
	{identity("simplify"), identity("inline"), identity("peephole")},
}

type Optimizer struct {
	passes []Pass
}

func NewOptimizer(level int) *Optimizer {
	if level < 0 {
		level = 0
	}
	if level > MaxOptimizationLevel {
		level = MaxOptimizationLevel
	}
	return &Optimizer{passes: levels[level]}
}

func (o *Optimizer) Passes() []string {
	var ret []string
	for _, pass := range o.passes {
		ret = append(ret, pass.Name)
	}
	return ret
}

func (o *Optimizer) Run(prog *ast.Program) *ast.Program {
	for _, pass := range o.passes {
		plog.Debugf("running pass %s", pass.Name)
		prog = pass.Run(prog)
	}
	return prog
}
