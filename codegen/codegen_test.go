package codegen

import (
	"strings"
	"testing"

	"github.com/pontaoski/stackc/errors"
	"github.com/pontaoski/stackc/lexer"
	"github.com/pontaoski/stackc/parser"
	"github.com/ztrue/tracerr"
)

func generate(t *testing.T, src string) string {
	t.Helper()

	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("lexing failed: %s", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	asm, err := Generate(prog)
	if err != nil {
		t.Fatalf("generation failed: %s", err)
	}
	return asm
}

func assertContains(t *testing.T, asm, want string) {
	t.Helper()
	if !strings.Contains(asm, want) {
		t.Errorf("expected output to contain %q\n%s", want, asm)
	}
}

func assertNotContains(t *testing.T, asm, unwanted string) {
	t.Helper()
	if strings.Contains(asm, unwanted) {
		t.Errorf("expected output not to contain %q\n%s", unwanted, asm)
	}
}

// section returns the text from label up to the next non-local label.
func section(asm, label string) string {
	start := strings.Index(asm, "\n"+label+":\n")
	if start < 0 {
		return ""
	}
	rest := asm[start+len(label)+3:]
	for _, line := range strings.SplitAfter(rest, "\n") {
		if strings.HasSuffix(line, ":\n") && !strings.HasPrefix(line, ".") {
			return rest[:strings.Index(rest, line)]
		}
	}
	return rest
}

func labels(asm string) []string {
	var ret []string
	for _, line := range strings.Split(asm, "\n") {
		if strings.HasSuffix(line, ":") {
			ret = append(ret, strings.TrimSuffix(line, ":"))
		}
	}
	return ret
}

func TestMinimalProgram(t *testing.T) {
	asm := generate(t, `func main() -> int { return 42; }`)

	assertContains(t, asm, "section .data\nsection .text\n")
	assertContains(t, asm, "\tglobal _start\n")
	assertContains(t, asm, "\n$main:\n\tpush rbp\n\tmov rbp, rsp\n")
	assertContains(t, asm, "\tpush 42\n\tpop rax\n\tmov rsp, rbp\n\tpop rbp\n\tret\n")
	assertContains(t, asm, "\n_start:\n\tmov rbp, rsp\n\tcall $main\n\tmov rdi, rax\n\tmov rax, 60\n\tsyscall\n")
	assertNotContains(t, asm, "section .bss")
	assertNotContains(t, asm, "sub rsp")
}

func TestRecursion(t *testing.T) {
	asm := generate(t, `
func f(n: int) -> int { if (n <= 1) { return 1; } else { return n * f(n - 1); } }
func main() -> int { return f(5); }
`)

	f := section(asm, "$f")
	if f == "" {
		t.Fatalf("no label for f\n%s", asm)
	}
	assertContains(t, f, "call $f\n")
	assertContains(t, section(asm, "$main"), "call $f\n")

	if strings.Index(asm, "\n$f:\n") > strings.Index(asm, "\n$main:\n") {
		t.Errorf("functions should be emitted in definition order")
	}
}

func TestReservedFunctionNames(t *testing.T) {
	asm := generate(t, `func rax() -> int { return 7; } func push() {} func ret() {} func main() -> int { push(); var same: bool = ret == ret; return rax(); }`)

	assertContains(t, asm, "\n$rax:\n\tpush rbp\n")
	assertContains(t, asm, "\n$push:\n")
	assertContains(t, section(asm, "$main"), "\tcall $push\n")
	assertContains(t, section(asm, "$main"), "\tcall $rax\n")
	assertContains(t, section(asm, "$main"), "\tlea rax, [rel $ret]\n")
	assertNotContains(t, asm, "\nrax:\n")
	assertNotContains(t, asm, "\tcall rax\n")
}

func TestParameters(t *testing.T) {
	asm := generate(t, `func diff(a: int, b: int) -> int { return a - b; } func main() -> int { return diff(7, 2); }`)

	body := section(asm, "$diff")
	assertContains(t, body, "\tsub rsp, 16\n")
	assertContains(t, body, "\tmov rax, [rbp+16]\n\tmov qword [rbp-8], rax\n")
	assertContains(t, body, "\tmov rax, [rbp+24]\n\tmov qword [rbp-16], rax\n")

	// right operand first, so left is popped into rax
	assertContains(t, body, "\tpush qword [rbp-16]\n\tpush qword [rbp-8]\n\tpop rax\n\tpop rbx\n\tsub rax, rbx\n\tpush rax\n")

	// last argument is pushed first
	assertContains(t, section(asm, "$main"), "\tpush 2\n\tpush 7\n\tcall $diff\n\tadd rsp, 16\n\tpush rax\n")
}

func TestArgumentEvaluationOrder(t *testing.T) {
	asm := generate(t, `
func three(a: int, b: int, c: int) -> int { return a; }
func main() -> int { return three(one(), two(), 3); }
func one() -> int { return 1; }
func two() -> int { return 2; }
`)

	body := section(asm, "$main")
	third := strings.Index(body, "push 3")
	second := strings.Index(body, "call $two")
	first := strings.Index(body, "call $one")
	if third < 0 || second < 0 || first < 0 || !(third < second && second < first) {
		t.Errorf("arguments should be evaluated right to left\n%s", body)
	}
	assertContains(t, body, "\tcall $three\n\tadd rsp, 24\n")
}

func TestFrameSize(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`func f() { var a; }`, "sub rsp, 16"},
		{`func f(a: int, b: int) { var x = 1; { var y = 2; } if (true) { var z = 3; } }`, "sub rsp, 48"},
		{`func f() { var a; var b; }`, "sub rsp, 16"},
		{`func f() { var a; var b; var c; while (true) { var d; var e; } }`, "sub rsp, 48"},
		{`func f() { func g() { var a; var b; var c; } var x; }`, "sub rsp, 16"},
	}

	for _, tt := range tests {
		body := section(generate(t, tt.src), "f")
		if !strings.Contains(body, "\t"+tt.want+"\n") {
			t.Errorf("%q: expected %q in\n%s", tt.src, tt.want, body)
		}
	}
}

func TestManyLocals(t *testing.T) {
	var src strings.Builder
	src.WriteString("func main() -> int {\n")
	for i := 0; i < 100; i++ {
		src.WriteString("var x = 1; { var y = x; }\n")
	}
	src.WriteString("return 0; }")

	asm := generate(t, src.String())
	assertContains(t, asm, "\tsub rsp, 1600\n")
	assertContains(t, asm, "qword [rbp-1600]")
	assertNotContains(t, asm, "qword [rbp-1608]")
}

func TestLabelsUnique(t *testing.T) {
	asm := generate(t, `
func main() -> int {
	var i = 0;
	while (i < 5) { i = i + 1; }
	while (i > 0) { if (i == 2) { i = 0; } else { i = i - 1; } }
	if (i == 0) { return 1; }
	return i;
}
func other() { var j = 0; while (j < 3) { j = j + 1; } }
`)

	seen := map[string]bool{}
	for _, l := range labels(asm) {
		if seen[l] {
			t.Errorf("label %s defined twice", l)
		}
		seen[l] = true
	}

	for _, l := range []string{".while_1", ".endwhile_1", ".while_2", ".endwhile_2", ".else_3", ".endif_3", ".else_4", ".endif_4", ".while_5"} {
		if !seen[l] {
			t.Errorf("missing label %s\n%s", l, asm)
		}
	}

	assertContains(t, asm, "\tpop rax\n\tcmp rax, 0\n\tje .endwhile_1\n")
	assertContains(t, asm, "\tjmp .while_1\n.endwhile_1:\n")
}

func TestStringDeduplication(t *testing.T) {
	asm := generate(t, `func main() { println("hi"); print("hi"); println("other"); }`)

	if n := strings.Count(asm, `db "hi", 0`); n != 1 {
		t.Errorf("expected one data entry for \"hi\", got %d\n%s", n, asm)
	}
	assertContains(t, asm, "str.0: db \"hi\", 0\nstr.1: db \"other\", 0\n")
	if n := strings.Count(asm, "lea rax, [rel str.0]"); n != 2 {
		t.Errorf("expected str.0 to be referenced twice, got %d", n)
	}
}

func TestRuntimeRoutines(t *testing.T) {
	asm := generate(t, `func main() -> int { return 0; }`)
	for _, name := range RuntimeRoutines() {
		assertNotContains(t, asm, "\n"+name+":\n")
	}

	asm = generate(t, `func main() { println_float(2.5); println("x"); }`)
	for _, name := range []string{"println_float", "println_int", "println", "print"} {
		assertContains(t, asm, "\n"+name+":\n")
	}
	assertNotContains(t, asm, "\nprintln_bool:\n")
	assertContains(t, section(asm, "$main"), "\tpush 2\n\tcall println_float\n")
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"5000000000", "\tmov rax, 5000000000\n\tpush rax\n"},
		{"-7", "\tpush 7\n\tpop rax\n\tneg rax\n\tpush rax\n"},
		{"~7", "\tpop rax\n\tnot rax\n"},
		{"7 / 2", "\tcqo\n\tidiv rbx\n\tpush rax\n"},
		{"7 % 2", "\tcqo\n\tidiv rbx\n\tmov rax, rdx\n"},
		{"1 < 2", "\tcmp rax, rbx\n\tsetl al\n\tmovzx rax, al\n"},
		{"1 != 2", "\tsetne al\n"},
		{"1 >= 2", "\tsetge al\n"},
		{"1 == 2 && true", "\tand rax, rbx\n"},
		{"false || true", "\tor rax, rbx\n"},
		{"!true", "\tpush 1\n\tpop rax\n\txor rax, 1\n"},
		{"3 * 4", "\timul rax, rbx\n"},
		{"main", "\tlea rax, [rel $main]\n\tpush rax\n"},
	}

	for _, tt := range tests {
		asm := generate(t, "func main() -> int { var x = "+tt.expr+"; return 0; }")
		if !strings.Contains(section(asm, "$main"), tt.want) {
			t.Errorf("%s: expected %q in\n%s", tt.expr, tt.want, asm)
		}
	}
}

func TestAssignments(t *testing.T) {
	asm := generate(t, `func main() -> int { var a; var b; a = b = 3; return a; }`)

	body := section(asm, "$main")
	assertContains(t, body, "\tmov qword [rbp-8], 0\n\tmov qword [rbp-16], 0\n")
	assertContains(t, body, "\tpush 3\n\tpop rax\n\tmov qword [rbp-16], rax\n\tpush rax\n\tpop qword [rbp-8]\n")
}

func TestShadowing(t *testing.T) {
	asm := generate(t, `func main() -> int { var x = 1; { var x = 2; x = 3; } return x; }`)

	body := section(asm, "$main")
	assertContains(t, body, "\tpush 3\n\tpop qword [rbp-16]\n")
	assertContains(t, body, "\tpush qword [rbp-8]\n\tpop rax\n\tmov rsp, rbp\n")
}

func TestGlobals(t *testing.T) {
	asm := generate(t, `
var counter = 5;
var empty: bool;
func bump() { counter = counter + 1; }
bump();
func main() -> int { bump(); return counter; }
`)

	assertContains(t, asm, "section .bss\nglob.counter: resq 1\nglob.empty: resq 1\nsection .text\n")
	assertContains(t, section(asm, "$bump"), "\tpop qword [rel glob.counter]\n")

	entry := section(asm, "_start")
	assertContains(t, entry, "\tpush 5\n\tpop qword [rel glob.counter]\n\tcall $bump\n\tpush rax\n\tpop rax\n\tcall $main\n")
}

func TestEntryWithoutMain(t *testing.T) {
	asm := generate(t, `{ var x = 3; println_int(x); }`)

	entry := section(asm, "_start")
	assertContains(t, entry, "\tmov rbp, rsp\n\tsub rsp, 16\n\tpush 3\n\tpop qword [rbp-8]\n")
	assertContains(t, entry, "\txor rdi, rdi\n\tmov rax, 60\n\tsyscall\n")
	assertNotContains(t, entry, "call $main")
}

func TestCustomEntry(t *testing.T) {
	asm := generate(t, `var g; func _start() { g = 1; }`)
	if n := strings.Count(asm, "\n$_start:\n"); n != 1 {
		t.Errorf("expected exactly one _start label, got %d\n%s", n, asm)
	}
	assertNotContains(t, asm, "\n_start:\n")
	assertNotContains(t, asm, "call $main")

	toks, _ := lexer.Tokenize(`func _start() {} println("x");`)
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Generate(prog); err == nil {
		t.Errorf("expected a code generation error")
	} else if _, ok := tracerr.Unwrap(err).(errors.CodeGenError); !ok {
		t.Errorf("expected CodeGenError, got %T", tracerr.Unwrap(err))
	}
}

func TestUndefinedVariable(t *testing.T) {
	for _, src := range []string{
		`func main() -> int { return y; }`,
		`func main() { y = 1; }`,
		`func main() { var x = 1; func inner() -> int { return x; } }`,
	} {
		toks, _ := lexer.Tokenize(src)
		prog, err := parser.Parse(toks)
		if err != nil {
			t.Fatal(err)
		}
		_, err = Generate(prog)
		if _, ok := tracerr.Unwrap(err).(errors.CodeGenError); !ok {
			t.Errorf("%q: expected CodeGenError, got %v", src, err)
		}
	}
}

func TestIdempotent(t *testing.T) {
	src := `
func f(n: int) -> int { while (n > 0) { n = n - 1; } if (n == 0) { return 1; } return 0; }
func main() -> int { println("a"); println("a"); println_bool(f(3) == 1); return f(2); }
`
	toks, _ := lexer.Tokenize(src)
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}

	g := New()
	first, err := g.Generate(prog)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Generate(prog)
	if err != nil {
		t.Fatal(err)
	}
	third, err := Generate(prog)
	if err != nil {
		t.Fatal(err)
	}

	if first != second || first != third {
		t.Errorf("output differs between runs")
	}
	if fns := g.Functions(); len(fns) != 2 || fns[0] != "f" || fns[1] != "main" {
		t.Errorf("generated functions: %v", fns)
	}
}

func TestDBString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hi", `"hi", 0`},
		{"", "0"},
		{`say \"hi\"`, `"say \", 34, "hi\", 34, 0`},
		{"tab\there", `"tab", 9, "here", 0`},
	}

	for _, tt := range tests {
		if got := dbString(tt.in); got != tt.want {
			t.Errorf("dbString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
