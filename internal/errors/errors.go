// Package errors provides the structured application error taxonomy shared
// by the submission services, the worker pipeline, and the adapters.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeForbidden indicates the resource exists but belongs to another user.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeAuthRequired indicates the calling principal could not be resolved.
	ErrCodeAuthRequired ErrorCode = "auth_required"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeBrokerUnavailable indicates the message broker rejected or never confirmed a submission.
	ErrCodeBrokerUnavailable ErrorCode = "broker_unavailable"
	// ErrCodeDataPreparation indicates market data preparation failed.
	ErrCodeDataPreparation ErrorCode = "data_preparation"
	// ErrCodeExecution indicates containerized engine execution failed.
	ErrCodeExecution ErrorCode = "execution"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// ExecutionCause refines an execution error with the failure mode of the
// container run.
type ExecutionCause string

const (
	// CauseTimeout means the run exceeded its wall-clock bound.
	CauseTimeout ExecutionCause = "timeout"
	// CauseNonZeroExit means the engine process exited non-zero.
	CauseNonZeroExit ExecutionCause = "non_zero_exit"
	// CauseMissingArtifact means the run exited cleanly but produced no result file.
	CauseMissingArtifact ExecutionCause = "missing_artifact"
	// CauseRuntimeUnavailable means the container runtime itself could not be reached.
	CauseRuntimeUnavailable ExecutionCause = "runtime_unavailable"
)

// AppError represents a structured application error with a code, message,
// and optional cause. It supports error wrapping and unwrapping for use with
// errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// ExecCause refines execution errors with the container failure mode (optional)
	ExecCause ExecutionCause
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: message}
}

// Forbiddenf creates a new Forbidden error with formatted message.
func Forbiddenf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// AuthRequired creates a new AuthRequired error.
func AuthRequired(message string) *AppError {
	return &AppError{Code: ErrCodeAuthRequired, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// BrokerUnavailable wraps a broker failure. The submission-side caller is
// expected to treat this as retryable.
func BrokerUnavailable(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeBrokerUnavailable, Message: message, Cause: cause}
}

// DataPreparation wraps a market data preparation failure.
func DataPreparation(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeDataPreparation, Message: message, Cause: cause}
}

// Execution creates an execution error with the given failure mode.
func Execution(cause ExecutionCause, message string, err error) *AppError {
	return &AppError{Code: ErrCodeExecution, Message: message, Cause: err, ExecCause: cause}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool { return isCode(err, ErrCodeForbidden) }

// IsAuthRequired checks if an error is an AuthRequired error.
func IsAuthRequired(err error) bool { return isCode(err, ErrCodeAuthRequired) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsBrokerUnavailable checks if an error is a BrokerUnavailable error.
func IsBrokerUnavailable(err error) bool { return isCode(err, ErrCodeBrokerUnavailable) }

// IsDataPreparation checks if an error is a DataPreparation error.
func IsDataPreparation(err error) bool { return isCode(err, ErrCodeDataPreparation) }

// IsExecution checks if an error is an Execution error.
func IsExecution(err error) bool { return isCode(err, ErrCodeExecution) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetExecutionCause returns the ExecutionCause from an error, or empty string
// if the error is not an execution AppError.
func GetExecutionCause(err error) ExecutionCause {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExecCause
	}
	return ""
}
