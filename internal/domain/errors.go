package domain

import (
	"errors"
	"fmt"
)

// ErrCode is an opaque tag carried across the service/worker boundary.
// User-facing text is mapped centrally at the transport layer.
type ErrCode string

const (
	CodePartyNotFound  ErrCode = "PARTY_NOT_FOUND"
	CodePartyCreate    ErrCode = "PARTY_COULD_NOT_BE_CREATED"
	CodePartyDelete    ErrCode = "PARTY_COULD_NOT_BE_DELETED"
	CodePartyCheckIn   ErrCode = "PARTY_COULD_NOT_CHECK_IN"
	CodePartySetSeated ErrCode = "PARTY_COULD_NOT_SET_SEATED"

	// read-side failures, never shown to clients
	CodePartyRead ErrCode = "PARTY_COULD_NOT_BE_READ"
	CodeSeatsRead ErrCode = "SEATS_COULD_NOT_BE_READ"
	CodeQueueRead ErrCode = "QUEUE_COULD_NOT_BE_READ"

	CodeValidation ErrCode = "VALIDATION_FAILED"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
	Err     error
}

func (e *AppError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case len(e.Meta) > 0:
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *AppError) Unwrap() error { return e.Err }

func ErrPartyNotFound(msg string) error {
	return &AppError{Code: CodePartyNotFound, Message: msg}
}
func ErrCheckInFailed(msg string) error {
	return &AppError{Code: CodePartyCheckIn, Message: msg}
}
func ErrValidation(msg string) error {
	return &AppError{Code: CodeValidation, Message: msg}
}
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}

// Wrap tags an underlying failure with a kind. The cause stays reachable
// through errors.Unwrap for logging; Message is what clients may see.
func Wrap(code ErrCode, msg string, err error) error {
	return &AppError{Code: code, Message: msg, Err: err}
}

// CodeOf extracts the tag from an error chain; "" when the error is not
// an AppError.
func CodeOf(err error) ErrCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsNotFound reports whether err carries the one kind that also clears
// client session state.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodePartyNotFound
}
