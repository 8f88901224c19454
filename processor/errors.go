package processor

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// Terminal kinds: the transaction is rejected and never partially applied.
	KindDecode          Kind = "Decode"
	KindUnknownAction   Kind = "UnknownAction"
	KindDuplicateEntity Kind = "DuplicateEntity"
	KindNotFound        Kind = "NotFound"
	KindUnauthorized    Kind = "Unauthorized"
	KindUnsupported     Kind = "Unsupported"

	// KindTransient reports a state store failure. The host may retry the
	// transaction; the processor never does.
	KindTransient Kind = "Transient"
	// KindInternal reports corrupt stored records or encoding failures.
	KindInternal Kind = "Internal"
)

// Error is the processor's structured error type.
//
// RuleID is a stable identifier (e.g. MOJI-DUP-001) naming the violated
// precondition. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// IsTerminal reports whether err rejects the transaction for good. Transient
// store failures and unstructured errors are not terminal.
func IsTerminal(err error) bool {
	switch KindOf(err) {
	case KindDecode, KindUnknownAction, KindDuplicateEntity, KindNotFound, KindUnauthorized, KindUnsupported, KindInternal:
		return true
	default:
		return false
	}
}
