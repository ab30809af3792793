package minutes

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// These codes classify failures across the acquisition pipeline so that
// callers can branch on the kind of failure without string matching.
const (
	ECONNECTION  = "connection"   // navigation/network failure after retries exhausted
	ECACHE       = "cache"        // cache read/write failure
	EINTERNAL    = "internal"     // unexpected programming error
	EINVALID     = "invalid"      // validation failure
	ENOTFOUND    = "not_found"    // entity or cache entry does not exist
	EPARSE       = "parse"        // unexpected structure after all fallback strategies
	EPDFDOWNLOAD = "pdf_download" // PDF retrieval failure
	EPDFEXTRACT  = "pdf_extract"  // PDF text extraction failure
	ETIMEOUT     = "timeout"      // bounded wait exceeded
	EUPLOAD      = "upload"       // external storage failure
)

// Error represents an application error with a machine-readable code and
// a human-readable message.
type Error struct {
	// Code is one of the E* constants above.
	Code string

	// Message is a human-readable description of the failure.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("minutes error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper to construct an *Error with a formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors return EINTERNAL; nil returns the empty string.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors return a generic message; nil returns the empty string.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}
