package params

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes the outcome of materializing one submission.
// Exactly one code applies per dispatch call.
type ErrorCode string

const (
	// NoError indicates the submission was materialized completely.
	NoError ErrorCode = "NO_ERROR"

	// GeneralRequestError indicates an unexpected I/O failure while reading the body.
	GeneralRequestError ErrorCode = "GENERAL_REQUEST_ERROR"

	// MalformedRequest indicates broken multipart framing.
	MalformedRequest ErrorCode = "MALFORMED_REQUEST"

	// EmptyFileField indicates a file part was declared but carried no bytes.
	// It is tracked for diagnostics and never routes a dispatch to failure.
	EmptyFileField ErrorCode = "EMPTY_FILE_FIELD"

	// UploadLimitExceeded indicates the cumulative upload size went over the ceiling.
	UploadLimitExceeded ErrorCode = "UPLOAD_LIMIT_EXCEEDED"
)

// Fatal reports whether the code terminates the current dispatch.
func (c ErrorCode) Fatal() bool {
	switch c {
	case GeneralRequestError, MalformedRequest, UploadLimitExceeded:
		return true
	}
	return false
}

// RequestError is returned by the materializer when a submission could not be
// read completely. The Code is what callers branch on; Err keeps the cause.
type RequestError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func newRequestError(code ErrorCode, msg string, err error) *RequestError {
	return &RequestError{Code: code, Message: msg, Err: err}
}

// CodeOf extracts the ErrorCode carried by err.
// Returns NoError for nil and GeneralRequestError for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return NoError
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.Code
	}
	return GeneralRequestError
}

// IsLimitError returns true if err reports an exceeded upload ceiling.
func IsLimitError(err error) bool {
	return CodeOf(err) == UploadLimitExceeded
}
