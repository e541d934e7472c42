// Package diag holds the categorized errors raised while parsing and
// running a program.
package diag

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindParse     Kind = "parse"
	KindExecution Kind = "execution"
	KindType      Kind = "type"
	KindSemantic  Kind = "semantic"
)

func (k Kind) Label() string {
	switch k {
	case KindParse:
		return "Erreur de syntaxe"
	case KindExecution:
		return "Erreur d'exécution"
	case KindType:
		return "Erreur de type"
	case KindSemantic:
		return "Erreur sémantique"
	default:
		return "Erreur"
	}
}

// Error is the single error type produced by the engine. Line is the
// 1-based source line the failure is attributed to.
type Error struct {
	Kind    Kind
	Message string
	Line    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("Erreur ligne %d: %s", e.Line, e.Message)
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: KindType})
// tests for the category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Line == 0 || t.Line == e.Line)
}

func newf(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line}
}

func Parse(line int, format string, args ...any) *Error {
	return newf(KindParse, line, format, args...)
}

func Semantic(line int, format string, args ...any) *Error {
	return newf(KindSemantic, line, format, args...)
}

func Type(line int, format string, args ...any) *Error {
	return newf(KindType, line, format, args...)
}

func Execution(line int, format string, args ...any) *Error {
	return newf(KindExecution, line, format, args...)
}

// As extracts the *Error carried by err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the category of err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// Wrap turns an arbitrary failure into an execution error at line,
// leaving engine errors untouched.
func Wrap(err error, line int) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Execution(line, "Erreur inattendue: %v", err)
}
