package db

import "fmt"

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("db error (%s): %s", e.Code, e.Msg)
}

// Is reports whether target is a *Error with the same return code, so that
// errors.Is(err, ErrInvalidIdentifier) matches every identifier error
// regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Operation executed successfully.
	RetCInvalidIdentifier                   // 1: A key could not be normalized.
	RetCInvalidConfiguration                // 2: A capacity or limit was out of range.
	RetCIdentifierOverflow                  // 3: The id counter outgrew the maximum id length.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInvalidIdentifier:
		return "InvalidIdentifier"
	case RetCInvalidConfiguration:
		return "InvalidConfiguration"
	case RetCIdentifierOverflow:
		return "IdentifierOverflow"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidIdentifier    = NewError(RetCInvalidIdentifier, "invalid identifier")
	ErrInvalidConfiguration = NewError(RetCInvalidConfiguration, "invalid configuration")
	ErrIdentifierOverflow   = NewError(RetCIdentifierOverflow, "cannot allocate id: we reached the maximum id length")
)
