package commandlang

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a CommandLang failure.
type ErrorKind int

const (
	// KindSyntax covers unbalanced brackets and malformed conditional headers.
	KindSyntax ErrorKind = iota + 1
	// KindEvaluation covers operator arity mismatches, invalid attributes and
	// expressions that do not reduce to a single value.
	KindEvaluation
	// KindDispatch covers command lookup or execution failures. Renderers
	// never return these; dispatchers log them.
	KindDispatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindEvaluation:
		return "evaluation"
	case KindDispatch:
		return "dispatch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the typed failure returned by parsing, evaluation and rendering.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error // underlying cause, usually one of the Err* sentinels below
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality against the kind sentinels, so callers can write
// errors.Is(err, commandlang.ErrSyntax).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels.
var (
	ErrSyntax     = &Error{Kind: KindSyntax}
	ErrEvaluation = &Error{Kind: KindEvaluation}
	ErrDispatch   = &Error{Kind: KindDispatch}
)

// Causes wrapped by Error.
var (
	ErrUnbalanced          = errors.New("unbalanced brackets")
	ErrInvalidKind         = errors.New("invalid conditional kind")
	ErrMissingExpression   = errors.New("conditional missing expression")
	ErrUnexpectedExpr      = errors.New("else carries unexpected expression")
	ErrMissingBody         = errors.New("conditional missing body")
	ErrTooDeep             = errors.New("conditionals nested too deeply")
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrArity               = errors.New("operator arity mismatch")
	ErrInvalidExpression   = errors.New("invalid expression")
	ErrInvalidAttribute    = errors.New("invalid attribute")
	ErrDivideByZero        = errors.New("division by zero")
	ErrUnsupportedOperand  = errors.New("unsupported operand")
	ErrCommandNotPermitted = errors.New("insufficient permissions")
)

func syntaxError(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindSyntax, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func evalError(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindEvaluation, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// DispatchError builds a KindDispatch error. Dispatchers use it to tag the
// failures they log.
func DispatchError(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindDispatch, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of a CommandLang error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var clErr *Error
	if errors.As(err, &clErr) {
		return clErr.Kind
	}
	return 0
}
