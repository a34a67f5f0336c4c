package business

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure a public operation can return.
// Callers branch on the kind, not on message text.
type ErrorKind string

const (
	ErrInvalidConfig      ErrorKind = "invalid_config"
	ErrInvalidAddress     ErrorKind = "invalid_address"
	ErrInvalidAmount      ErrorKind = "invalid_amount"
	ErrUserRejected       ErrorKind = "user_rejected"
	ErrUnsignedDelegation ErrorKind = "unsigned_delegation"
	ErrEventNotFound      ErrorKind = "event_not_found"
	ErrTransactionTimeout ErrorKind = "transaction_timeout"
	ErrUnauthorizedCaller ErrorKind = "unauthorized_caller"
	ErrUnknown            ErrorKind = "unknown_error"
)

// DomainError is the error value returned by every public operation in this
// module. UserRejected is a benign outcome, not a system fault; callers use
// IsUserRejected to avoid surfacing it as an error.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NewError creates a DomainError with the given kind and message
func NewError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// WrapError creates a DomainError wrapping an underlying cause
func WrapError(kind ErrorKind, message string, cause error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the error kind from err, returning ErrUnknown for anything
// that is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrUnknown
}

// rejectionPhrases are the message fragments wallets emit when the user
// declines an approval prompt. EIP-1193 code 4001 arrives as text through
// most provider stacks, so message sniffing is the reliable check.
var rejectionPhrases = []string{
	"user rejected",
	"user denied",
	"user cancelled",
	"user canceled",
	"rejected by user",
	"denied by user",
	"4001",
}

// IsUserRejected reports whether err represents the user declining a
// signature or transaction prompt rather than a hard failure.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if KindOf(err) == ErrUserRejected {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range rejectionPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
