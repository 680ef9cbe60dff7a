package compiler

import (
	"strings"
	"time"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/stackc/ast"
	"github.com/pontaoski/stackc/codegen"
	"github.com/pontaoski/stackc/lexer"
	"github.com/pontaoski/stackc/parser"
	"github.com/pontaoski/stackc/sema"
	"github.com/pontaoski/stackc/types"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/stackc", "compiler")

const MaxOptimizationLevel = 3

type Options struct {
	OptimizationLevel int
}

type Stats struct {
	Tokens    int
	Nodes     int
	Lines     int
	Functions int
	Elapsed   time.Duration
}

// Compiler runs the pipeline over one source unit at a time. Every call
// builds fresh stage instances, so nothing carries over between compiles.
type Compiler struct {
	opts Options

	stats   Stats
	tokens  []types.Token
	program *ast.Program
}

func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

func Compile(source string) (string, error) {
	return New(Options{}).Compile(source)
}

func Validate(source string) error {
	return New(Options{}).Validate(source)
}

// Stats describes the last compile.
func (c *Compiler) Stats() Stats {
	return c.stats
}

// Tokens returns the token stream of the last compile.
func (c *Compiler) Tokens() []types.Token {
	return c.tokens
}

// Program returns the syntax tree of the last compile, or nil when parsing
// failed.
func (c *Compiler) Program() *ast.Program {
	return c.program
}

func countLines(source string) int {
	if source == "" {
		return 0
	}
	lines := strings.Count(source, "\n")
	if !strings.HasSuffix(source, "\n") {
		lines++
	}
	return lines
}

// analyze runs every stage up to and including semantic analysis.
func (c *Compiler) analyze(source string, analyzer *sema.Analyzer) (*ast.Program, error) {
	c.stats = Stats{Lines: countLines(source)}
	c.tokens = nil
	c.program = nil

	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	c.tokens = toks
	c.stats.Tokens = len(toks)

	prog, err := parser.Parse(toks)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	c.program = prog
	c.stats.Nodes = ast.CountNodes(prog)

	if err := analyzer.Analyze(prog); err != nil {
		return nil, tracerr.Wrap(err)
	}

	return prog, nil
}

func (c *Compiler) Compile(source string) (string, error) {
	start := time.Now()

	if c.opts.OptimizationLevel < 0 || c.opts.OptimizationLevel > MaxOptimizationLevel {
		return "", tracerr.Errorf("optimization level %d is out of range 0-%d", c.opts.OptimizationLevel, MaxOptimizationLevel)
	}

	prog, err := c.analyze(source, sema.New())
	if err != nil {
		return "", err
	}

	prog = NewOptimizer(c.opts.OptimizationLevel).Run(prog)

	gen := codegen.New()
	asm, err := gen.Generate(prog)
	if err != nil {
		return "", tracerr.Wrap(err)
	}

	c.stats.Functions = len(gen.Functions())
	c.stats.Elapsed = time.Since(start)
	plog.Debugf("compiled %d lines in %s", c.stats.Lines, c.stats.Elapsed)

	return asm, nil
}

// Validate checks source without generating code.
func (c *Compiler) Validate(source string) error {
	start := time.Now()

	if _, err := c.analyze(source, sema.New()); err != nil {
		return err
	}

	c.stats.Elapsed = time.Since(start)
	return nil
}

type TypeInfo struct {
	Functions map[string]string `yaml:"functions"`
}

// TypeInfo returns the signature of every user-defined function.
func (c *Compiler) TypeInfo(source string) (TypeInfo, error) {
	analyzer := sema.New()
	if _, err := c.analyze(source, analyzer); err != nil {
		return TypeInfo{}, err
	}

	t := TypeInfo{Functions: make(map[string]string)}
	for name, sig := range analyzer.Functions() {
		t.Functions[name] = sig.String()
	}
	return t, nil
}
