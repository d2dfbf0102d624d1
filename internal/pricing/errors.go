package pricing

import "fmt"

// ErrorKind classifies a pricing computation failure. Kinds map one-to-one to
// the API error codes surfaced to callers.
type ErrorKind string

const (
	KindSyntaxError          ErrorKind = "SYNTAX_ERROR"
	KindUnknownVariable      ErrorKind = "UNKNOWN_VARIABLE"
	KindInvalidInput         ErrorKind = "INVALID_INPUT"
	KindMissingRequiredField ErrorKind = "MISSING_REQUIRED_FIELD"
	KindQuantityOutOfRange   ErrorKind = "QUANTITY_OUT_OF_RANGE"
	KindDivisionByZero       ErrorKind = "DIVISION_BY_ZERO"
)

// Error is a typed computation error carrying the offending field key or
// identifier so the calling UI can render field-level messages.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Recoverable reports whether the error is a user-input problem the shopper
// can fix, as opposed to a template authoring or formula failure.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindInvalidInput, KindMissingRequiredField, KindQuantityOutOfRange:
		return true
	}
	return false
}

func newError(kind ErrorKind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func syntaxErr(format string, args ...any) *Error {
	return newError(KindSyntaxError, "", format, args...)
}

func unknownVariableErr(name string) *Error {
	return newError(KindUnknownVariable, name, "formula references undefined variable %q", name)
}

func invalidInputErr(field, format string, args ...any) *Error {
	return newError(KindInvalidInput, field, format, args...)
}

func missingRequiredErr(field string) *Error {
	return newError(KindMissingRequiredField, field, "required field %q has no value", field)
}
