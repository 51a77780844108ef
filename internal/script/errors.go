package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// Kind classifies a learner error.
type Kind uint8

const (
	KindOther Kind = iota
	KindReference
	KindSyntax
	KindPropertyAccess
)

func (k Kind) String() string {
	switch k {
	case KindReference:
		return "reference"
	case KindSyntax:
		return "syntax"
	case KindPropertyAccess:
		return "property access"
	default:
		return "other"
	}
}

// Error is an authoring error in a learner program. Line and Column are
// 1-based; zero means the position is unknown.
type Error struct {
	Kind    Kind
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s error on line %d: %s", e.Kind, e.Line, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Friendly renders the error in plain language for the learner.
func (e *Error) Friendly() string {
	var where string
	if e.Line > 0 {
		where = fmt.Sprintf(" (line %d)", e.Line)
	}
	switch e.Kind {
	case KindReference:
		return fmt.Sprintf("%s%s. Check the spelling, or declare it with let first.", capitalize(e.Message), where)
	case KindSyntax:
		return fmt.Sprintf("Your program has a typo%s: %s.", where, e.Message)
	case KindPropertyAccess:
		return fmt.Sprintf("%s%s. Only actions such as moveForward() and turnLeft() can be used.", capitalize(e.Message), where)
	default:
		return fmt.Sprintf("Something went wrong%s: %s.", where, e.Message)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var serr *Error
	if errors.As(err, &serr) {
		return serr, true
	}
	return nil, false
}

// fromParseError converts a parser failure into a syntax error.
func fromParseError(err error) *Error {
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return &Error{
			Kind:    KindSyntax,
			Line:    first.Position.Line,
			Column:  first.Position.Column,
			Message: strings.TrimSpace(first.Message),
		}
	}
	var single *parser.Error
	if errors.As(err, &single) {
		return &Error{
			Kind:    KindSyntax,
			Line:    single.Position.Line,
			Column:  single.Position.Column,
			Message: strings.TrimSpace(single.Message),
		}
	}
	return &Error{Kind: KindSyntax, Message: err.Error()}
}

// errorAt builds an error positioned at a node of the program.
func (in *interp) errorAt(node ast.Node, kind Kind, format string, args ...any) *Error {
	e := &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if node != nil && in.prog != nil && in.prog.File != nil {
		pos := in.prog.File.Position(int(node.Idx0()) - in.prog.File.Base())
		e.Line, e.Column = pos.Line, pos.Column
	}
	return e
}
