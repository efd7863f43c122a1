package lsp

import (
	"errors"
	"fmt"
)

// ErrorKind classifies deployment failures by the step that produced them.
type ErrorKind int

const (
	// KindValidation is a malformed or inconsistent request; nothing was sent to a node.
	KindValidation ErrorKind = iota
	// KindResolution is a contract address missing from the registry for the network.
	KindResolution
	// KindNetwork covers dialing, account discovery and read calls against the node.
	KindNetwork
	// KindSimulation is a failed eth_call of createLongShortPair.
	KindSimulation
	// KindTransaction is a failed submission, receipt wait or reverted transaction.
	KindTransaction
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindResolution:
		return "resolution"
	case KindNetwork:
		return "network"
	case KindSimulation:
		return "simulation"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// FieldError names a request field that failed a rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Error is the structured error returned by Deploy.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
	Fields  []FieldError
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithField appends a failing field.
func (e *Error) WithField(field, rule string) *Error {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule})
	return e
}

func validationError(format string, args ...any) *Error {
	return NewError(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf extracts the kind of a Deploy error. ok is false for foreign errors.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
