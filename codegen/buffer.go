package codegen

import (
	"fmt"
	"strings"
)

// buffer accumulates assembly lines. Instructions are indented, labels are
// not.
type buffer struct {
	strings.Builder
}

func (b *buffer) emit(format string, args ...interface{}) {
	b.WriteString("\t")
	fmt.Fprintf(b, format, args...)
	b.WriteString("\n")
}

func (b *buffer) label(name string) {
	b.WriteString(name)
	b.WriteString(":\n")
}

func (b *buffer) line(s string) {
	b.WriteString(s)
	b.WriteString("\n")
}

// dbString renders a NUL-terminated string for a db directive. Bytes that
// cannot appear inside a NASM double-quoted string are written numerically.
func dbString(s string) string {
	var parts []string
	var run strings.Builder

	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, `"`+run.String()+`"`)
			run.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c < 0x20 || c == 0x7f {
			flush()
			parts = append(parts, fmt.Sprint(c))
			continue
		}
		run.WriteByte(c)
	}
	flush()

	return strings.Join(append(parts, "0"), ", ")
}
