package model

import "fmt"

// ErrorCode is a stable, machine-readable rejection category surfaced to
// whoever submitted a transaction.
type ErrorCode string

const (
	ErrInvalidTransaction ErrorCode = "INVALID_TRANSACTION"
	ErrInvalidBatch       ErrorCode = "INVALID_BATCH"
	ErrInvalidSignature   ErrorCode = "INVALID_SIGNATURE"
	ErrUnknownFamily      ErrorCode = "UNKNOWN_FAMILY"
	ErrInternal           ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human message.
//
// RuleID carries the processor's rule identifier when the rejection came from
// a transition precondition.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	RuleID  string    `json:"ruleID,omitempty"`
	Message string    `json:"message"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}
