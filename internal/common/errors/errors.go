package errors

import (
	"fmt"
	"time"
)

type ErrorCode string

const (
	ErrCodeSQLGenerationFailed ErrorCode = "SQL_GENERATION_FAILED"
	ErrCodeSQLRejected         ErrorCode = "SQL_REJECTED"
	ErrCodeSQLExecutionFailed  ErrorCode = "SQL_EXECUTION_FAILED"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error every caller surface renders. Message is the
// user-visible text; Details carries the underlying cause for logs.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError with the same code, so a bare
// &StandardError{Code: ...} works as a sentinel for errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// NewSQLGenerationFailedError reports a failed model call. No SQL exists.
func NewSQLGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSQLGenerationFailed,
		Message:   fmt.Sprintf("Failed to generate SQL: %s", err.Error()),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSQLRejectedError reports a statement refused by the validator. reason
// names the offending keyword or the missing SELECT prefix.
func NewSQLRejectedError(reason string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSQLRejected,
		Message:   fmt.Sprintf("Security Error: %s", reason),
		Details:   reason,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewSQLExecutionFailedError surfaces the database error text verbatim.
func NewSQLExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSQLExecutionFailed,
		Message:   err.Error(),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSQLGenerationFailed: "SQL_GENERATION_FAILED",
	ErrCodeSQLRejected:         "SQL_REJECTED",
	ErrCodeSQLExecutionFailed:  "SQL_EXECUTION_FAILED",
	ErrCodeInvalidInput:        "INVALID_INPUT",
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		code = string(stdErr.Code)
	}
	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: stdErr.Metadata,
	}
}
