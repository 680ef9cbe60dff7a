package errors

import (
	"fmt"
	"strings"

	"github.com/pontaoski/stackc/types"
	"github.com/ztrue/tracerr"
)

type LexicalError struct {
	Slice    string
	Message  string
	Location types.Location
}

func (e LexicalError) Error() string {
	return fmt.Sprintf("%s: lexical error: %s %q", e.Location, e.Message, e.Slice)
}

type SyntaxError struct {
	Message  string
	Expected []types.TokenKind
	Got      types.Token
	Location types.Location
}

func (e SyntaxError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("%s: syntax error: %s", e.Location, e.Message)
	}

	var kinds []string
	for _, k := range e.Expected {
		kinds = append(kinds, k.String())
	}
	return fmt.Sprintf("%s: syntax error: %s: got %s, expected one of %s", e.Location, e.Message, e.Got, strings.Join(kinds, ", "))
}

type SemanticError struct {
	Message  string
	Location types.Location
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("%s: semantic error: %s", e.Location, e.Message)
}

type TypeError struct {
	Message  string
	Location types.Location
}

func (e TypeError) Error() string {
	return fmt.Sprintf("%s: type error: %s", e.Location, e.Message)
}

// CodeGenError means the generator hit something analysis should have
// rejected.
type CodeGenError struct {
	Message string
}

func (e CodeGenError) Error() string {
	return fmt.Sprintf("code generation error: %s", e.Message)
}

func Semantic(loc types.Location, msg string, fmts ...interface{}) SemanticError {
	return SemanticError{Message: fmt.Sprintf(msg, fmts...), Location: loc}
}

func Type(loc types.Location, msg string, fmts ...interface{}) TypeError {
	return TypeError{Message: fmt.Sprintf(msg, fmts...), Location: loc}
}

func CodeGen(msg string, fmts ...interface{}) CodeGenError {
	return CodeGenError{Message: fmt.Sprintf(msg, fmts...)}
}

// LocationOf returns the source location carried by err, looking through a
// tracerr wrapper.
func LocationOf(err error) (types.Location, bool) {
	switch e := tracerr.Unwrap(err).(type) {
	case LexicalError:
		return e.Location, true
	case SyntaxError:
		return e.Location, true
	case SemanticError:
		return e.Location, true
	case TypeError:
		return e.Location, true
	}
	return types.Location{}, false
}
