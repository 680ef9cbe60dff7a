package compiler

import (
	"sort"
	"strings"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/pontaoski/stackc/codegen"
	"github.com/pontaoski/stackc/errors"
	"github.com/pontaoski/stackc/sema"
	"github.com/ztrue/tracerr"
)

func assertContains(t *testing.T, asm, want string) {
	t.Helper()
	if !strings.Contains(asm, want) {
		t.Errorf("expected output to contain %q\n%s", want, asm)
	}
}

func compile(t *testing.T, src string) string {
	t.Helper()
	asm, err := Compile(src)
	if err != nil {
		t.Fatalf("%q: compile failed: %s", src, err)
	}
	return asm
}

func TestReturnConstant(t *testing.T) {
	asm := compile(t, `func main() -> int { return 42; }`)

	assertContains(t, asm, "\n$main:\n")
	assertContains(t, asm, "\tpush 42\n\tpop rax\n\tmov rsp, rbp\n\tpop rbp\n\tret\n")
	assertContains(t, asm, "section .data\nsection .text\n")
}

func TestRecursiveFactorial(t *testing.T) {
	asm := compile(t, `func f(n: int) -> int { if (n <= 1) { return 1; } else { return n * f(n - 1); } } func main() -> int { return f(5); }`)

	f := strings.Index(asm, "\n$f:\n")
	main := strings.Index(asm, "\n$main:\n")
	if f < 0 || main < 0 {
		t.Fatalf("missing function labels\n%s", asm)
	}
	if !strings.Contains(asm[f:main], "call $f\n") {
		t.Errorf("f does not call itself\n%s", asm)
	}
	if !strings.Contains(asm[main:], "call $f\n") {
		t.Errorf("main does not call f\n%s", asm)
	}
}

func TestMissingInitializer(t *testing.T) {
	_, err := Compile(`var x: int = ;`)
	serr, ok := tracerr.Unwrap(err).(errors.SyntaxError)
	if !ok {
		t.Fatalf("expected a syntax error, got %v", err)
	}
	if serr.Got.Text != ";" || serr.Location.Column != 14 {
		t.Errorf("error at %s on %s", serr.Location, serr.Got)
	}
}

func TestAssignStringToInt(t *testing.T) {
	_, err := Compile(`func main() -> int { var x: int = 10; var y: string = "hi"; x = y; return x; }`)
	terr, ok := tracerr.Unwrap(err).(errors.TypeError)
	if !ok {
		t.Fatalf("expected a type error, got %v", err)
	}
	if terr.Location.Line != 1 || terr.Location.Column != 61 {
		t.Errorf("error at %s", terr.Location)
	}
}

func TestDuplicateStrings(t *testing.T) {
	asm := compile(t, `func main() { println("same"); println("same"); }`)

	if n := strings.Count(asm, `: db "same", 0`); n != 1 {
		t.Errorf("expected one data label for the literal, got %d\n%s", n, asm)
	}
	if n := strings.Count(asm, "[rel str.0]"); n != 2 {
		t.Errorf("expected two references to the literal, got %d\n%s", n, asm)
	}
}

func TestWhileLoop(t *testing.T) {
	asm := compile(t, `func main() -> int { var i: int = 0; while (i < 5) { i = i + 1; } while (i > 0) { i = i - 1; } return i; }`)

	assertContains(t, asm, ".while_1:\n")
	assertContains(t, asm, "\tje .endwhile_1\n")
	assertContains(t, asm, "\tjmp .while_1\n")
	assertContains(t, asm, ".while_2:\n")

	seen := map[string]bool{}
	for _, line := range strings.Split(asm, "\n") {
		if strings.HasSuffix(line, ":") {
			if seen[line] {
				t.Errorf("duplicate label %s", line)
			}
			seen[line] = true
		}
	}
}

func TestEveryFunctionHasALabel(t *testing.T) {
	src := `
func a() {}
func b(x: int) -> int { func c() -> bool { return true; } return x; }
func main() -> int { a(); return b(1); }
`
	c := New(Options{})
	asm, err := c.Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b", "c", "main"} {
		assertContains(t, asm, "\n$"+name+":\n")
	}
	if strings.Count(asm, "section .data") != 1 || strings.Count(asm, "section .text") != 1 {
		t.Errorf("unbalanced sections\n%s", asm)
	}
	if c.Stats().Functions != 4 {
		t.Errorf("stats: %s", repr.String(c.Stats()))
	}
}

func TestIdempotent(t *testing.T) {
	src := `func main() -> int { var s = 0; var i = 0; while (i < 3) { if (i == 1) { println("one"); } s = s + i; i = i + 1; } println("one"); return s; }`

	first := compile(t, src)
	for level := 0; level <= MaxOptimizationLevel; level++ {
		again, err := New(Options{OptimizationLevel: level}).Compile(src)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Errorf("level %d: output differs", level)
		}
	}
}

func TestOptimizationLevelRange(t *testing.T) {
	for _, level := range []int{-1, MaxOptimizationLevel + 1} {
		if _, err := New(Options{OptimizationLevel: level}).Compile(`func main() {}`); err == nil {
			t.Errorf("level %d should be rejected", level)
		}
	}

	if got := NewOptimizer(3).Passes(); len(got) != 3 {
		t.Errorf("level 3 passes: %v", got)
	}
	if got := NewOptimizer(0).Passes(); len(got) != 0 {
		t.Errorf("level 0 passes: %v", got)
	}
}

func TestStats(t *testing.T) {
	c := New(Options{})
	_, err := c.Compile("func main() -> int {\n\treturn 1 + 2;\n}\n")
	if err != nil {
		t.Fatal(err)
	}

	stats := c.Stats()
	// func main ( ) -> int { return 1 + 2 ; } EOF
	if stats.Tokens != 14 {
		t.Errorf("tokens: %d", stats.Tokens)
	}
	// func, body block, return, binary, two literals
	if stats.Nodes != 6 {
		t.Errorf("nodes: %d", stats.Nodes)
	}
	if stats.Lines != 3 || stats.Functions != 1 {
		t.Errorf("stats: %s", repr.String(stats))
	}
	if len(c.Tokens()) != stats.Tokens || c.Program() == nil {
		t.Errorf("last compile not retained")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(`func main() -> int { return 0; }`); err != nil {
		t.Errorf("unexpected error: %s", err)
	}

	tests := []struct {
		src   string
		check func(error) bool
	}{
		{"var x = @;", func(err error) bool { _, ok := err.(errors.LexicalError); return ok }},
		{"var x = ;", func(err error) bool { _, ok := err.(errors.SyntaxError); return ok }},
		{"x = 1;", func(err error) bool { _, ok := err.(errors.SemanticError); return ok }},
		{"var x: bool = 1;", func(err error) bool { _, ok := err.(errors.TypeError); return ok }},
	}
	for _, tt := range tests {
		err := Validate(tt.src)
		if err == nil || !tt.check(tracerr.Unwrap(err)) {
			t.Errorf("%q: unexpected result %v", tt.src, err)
			continue
		}
		if _, ok := err.(tracerr.Error); !ok {
			t.Errorf("%q: error is not wrapped with a stack trace", tt.src)
		}
		if _, ok := errors.LocationOf(err); !ok {
			t.Errorf("%q: error has no location", tt.src)
		}
	}
}

func TestTopLevelBlocks(t *testing.T) {
	for _, src := range []string{
		`{ var y = 1; func f() -> int { return y; } } func main() -> int { return 0; }`,
		`if (true) { var y = 2; func g() -> int { return y; } println_int(g()); }`,
	} {
		err := Validate(src)
		if _, ok := tracerr.Unwrap(err).(errors.SemanticError); !ok {
			t.Errorf("%q: expected a semantic error, got %v", src, err)
		}
	}

	asm := compile(t, `var g = 1; { var y = 2; func f() -> int { return g; } println_int(f() + y); }`)
	assertContains(t, asm, "\n$f:\n")
	assertContains(t, asm, "\tpush qword [rel glob.g]\n")
	assertContains(t, asm, "\tpush 2\n\tpop qword [rbp-8]\n")
}

func TestTypeInfo(t *testing.T) {
	info, err := New(Options{}).TypeInfo(`func add(a: int, b: int) -> int { return a + b; } func main() { println_int(add(1, 2)); }`)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"add":  "(int, int) -> int",
		"main": "() -> void",
	}
	if len(info.Functions) != len(want) {
		t.Fatalf("got %s", repr.String(info))
	}
	for name, sig := range want {
		if info.Functions[name] != sig {
			t.Errorf("%s: got %q, want %q", name, info.Functions[name], sig)
		}
	}
}

func TestBuiltinsHaveRoutines(t *testing.T) {
	var names []string
	for name := range sema.Builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	routines := codegen.RuntimeRoutines()
	sort.Strings(routines)

	if strings.Join(names, ",") != strings.Join(routines, ",") {
		t.Errorf("analyzer knows %v, generator knows %v", names, routines)
	}
}

func TestBuiltinCalls(t *testing.T) {
	asm := compile(t, `func main() { print("a"); println("b"); println_int(-12); println_float(1.5); println_bool(true); }`)

	for _, name := range codegen.RuntimeRoutines() {
		assertContains(t, asm, "\n"+name+":\n")
		assertContains(t, asm, "\tcall "+name+"\n")
	}
}
