package codegen

type routine struct {
	requires []string
	body     string
}

// runtimeOrder is the order routines appear in the text section.
var runtimeOrder = []string{"print", "println", "println_int", "println_float", "println_bool"}

// Runtime routines take their argument on the stack like any other function
// and write to stdout with the write syscall.
var runtime = map[string]routine{
	"print": {body: `print:
	push rbp
	mov rbp, rsp
	mov rsi, [rbp+16]
	xor rdx, rdx
.len:
	cmp byte [rsi+rdx], 0
	je .write
	inc rdx
	jmp .len
.write:
	mov rax, 1
	mov rdi, 1
	syscall
	xor rax, rax
	pop rbp
	ret
`},
	"println": {requires: []string{"print"}, body: `println:
	push rbp
	mov rbp, rsp
	push qword [rbp+16]
	call print
	add rsp, 8
	push 10
	mov rax, 1
	mov rdi, 1
	mov rsi, rsp
	mov rdx, 1
	syscall
	xor rax, rax
	mov rsp, rbp
	pop rbp
	ret
`},
	"println_int": {body: `println_int:
	push rbp
	mov rbp, rsp
	sub rsp, 32
	mov rax, [rbp+16]
	lea rsi, [rbp-1]
	mov byte [rsi], 10
	mov rcx, 10
	xor r8, r8
	test rax, rax
	jns .digits
	neg rax
	mov r8, 1
.digits:
	xor rdx, rdx
	div rcx
	add dl, '0'
	dec rsi
	mov [rsi], dl
	test rax, rax
	jnz .digits
	test r8, r8
	jz .write
	dec rsi
	mov byte [rsi], '-'
.write:
	mov rax, 1
	mov rdi, 1
	mov rdx, rbp
	sub rdx, rsi
	syscall
	xor rax, rax
	mov rsp, rbp
	pop rbp
	ret
`},
	// floats are carried truncated, so they print as integers
	"println_float": {requires: []string{"println_int"}, body: `println_float:
	push qword [rsp+8]
	call println_int
	add rsp, 8
	ret
`},
	"println_bool": {body: `println_bool:
	push rbp
	mov rbp, rsp
	sub rsp, 16
	cmp qword [rbp+16], 0
	je .false
	mov dword [rbp-16], 0x65757274
	mov byte [rbp-12], 10
	mov rdx, 5
	jmp .write
.false:
	mov dword [rbp-16], 0x736c6166
	mov word [rbp-12], 0x0a65
	mov rdx, 6
.write:
	mov rax, 1
	mov rdi, 1
	lea rsi, [rbp-16]
	syscall
	xor rax, rax
	mov rsp, rbp
	pop rbp
	ret
`},
}

// RuntimeRoutines returns the names of the routines the generator can emit.
func RuntimeRoutines() []string {
	return append([]string(nil), runtimeOrder...)
}

// use marks a routine and everything it calls as needed.
func (g *Generator) use(name string) {
	if g.used[name] {
		return
	}
	g.used[name] = true
	for _, dep := range runtime[name].requires {
		g.use(dep)
	}
}

func (g *Generator) emitRuntime(b *buffer) {
	for _, name := range runtimeOrder {
		if g.used[name] {
			b.WriteString(runtime[name].body)
		}
	}
}
