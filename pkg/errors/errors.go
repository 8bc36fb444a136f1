package errors

import (
	"errors"
	"fmt"
)

// ErrorCode 错误码类型
type ErrorCode string

const (
	CodeInvalidInput   ErrorCode = "INVALID_INPUT"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	// Non-fatal kinds surfaced to the model as tool-result {error} fields.
	CodeUnknownAgent       ErrorCode = "UNKNOWN_AGENT"
	CodeUnknownTask        ErrorCode = "UNKNOWN_TASK"
	CodeUnknownEscalation  ErrorCode = "UNKNOWN_ESCALATION"
	CodeValidation         ErrorCode = "VALIDATION"
	CodeAtCapacity         ErrorCode = "AT_CAPACITY"
	CodeMaxDepthExceeded   ErrorCode = "MAX_DEPTH_EXCEEDED"
	CodeEscalationTimeout  ErrorCode = "ESCALATION_TIMEOUT"
	CodeEscalationCancelled ErrorCode = "ESCALATION_CANCELLED"
	CodeCallLoopDetected   ErrorCode = "CALL_LOOP_DETECTED"
	CodeProviderError      ErrorCode = "PROVIDER_ERROR"

	// Fatal kinds: propagated up the AgentLoop as Failed(reason).
	CodeIo        ErrorCode = "IO"
	CodeParse     ErrorCode = "PARSE"
	CodeTransport ErrorCode = "TRANSPORT"
	CodeCycle     ErrorCode = "CYCLE"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError 创建无效输入错误
func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
	}
}

// NewAlreadyExistsError 创建已存在错误
func NewAlreadyExistsError(message string) *AppError {
	return &AppError{
		Code:    CodeAlreadyExists,
		Message: message,
	}
}

// NewInternalError 创建内部错误
func NewInternalError(message string) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
	}
}

// NewInternalErrorWithCause 创建带原因的内部错误
func NewInternalErrorWithCause(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Err:     cause,
	}
}

// IsNotFound 判断是否为未找到错误
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsInvalidInput 判断是否为无效输入错误
func IsInvalidInput(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeInvalidInput
	}
	return false
}

// NewValidationError creates a missing/ill-typed tool argument error.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewUnknownAgentError creates an "agent not found" error for agent__* tools.
func NewUnknownAgentError(id string) *AppError {
	return &AppError{Code: CodeUnknownAgent, Message: fmt.Sprintf("no agent found with id %q", id)}
}

// NewUnknownTaskError creates a "task not found" error for task-related tools.
func NewUnknownTaskError(id string) *AppError {
	return &AppError{Code: CodeUnknownTask, Message: fmt.Sprintf("no task found with id %q", id)}
}

// NewUnknownEscalationError creates an "escalation not found" error.
func NewUnknownEscalationError(id string) *AppError {
	return &AppError{Code: CodeUnknownEscalation, Message: fmt.Sprintf("no escalation found with id %q", id)}
}

// NewAtCapacityError creates the Supervisor-at-capacity error.
func NewAtCapacityError(maxConcurrent int) *AppError {
	return &AppError{Code: CodeAtCapacity, Message: fmt.Sprintf("supervisor is at capacity (max_concurrent=%d)", maxConcurrent)}
}

// NewMaxDepthExceededError creates the spawn-depth-exceeded error.
func NewMaxDepthExceededError(depth, maxDepth int) *AppError {
	return &AppError{Code: CodeMaxDepthExceeded, Message: fmt.Sprintf("spawn depth %d exceeds max_agent_depth=%d", depth, maxDepth)}
}

// NewEscalationTimeoutError creates the user-interaction escalation timeout error.
func NewEscalationTimeoutError(seconds int) *AppError {
	return &AppError{Code: CodeEscalationTimeout, Message: fmt.Sprintf("escalation timed out after %d seconds waiting for user response", seconds)}
}

// NewEscalationCancelledError creates the escalation-dropped-by-parent error.
func NewEscalationCancelledError() *AppError {
	return &AppError{Code: CodeEscalationCancelled, Message: "escalation was cancelled: the parent agent dropped the request"}
}

// NewCallLoopDetectedError creates the hard-rejected tool-call-loop error.
func NewCallLoopDetectedError(message string) *AppError {
	return &AppError{Code: CodeCallLoopDetected, Message: message}
}

// NewProviderError wraps an error propagated from an LLM provider adapter.
func NewProviderError(message string, cause error) *AppError {
	return &AppError{Code: CodeProviderError, Message: message, Err: cause}
}

// NewIoError creates a fatal filesystem/IO error.
func NewIoError(message string, cause error) *AppError {
	return &AppError{Code: CodeIo, Message: message, Err: cause}
}

// NewParseError creates a fatal malformed-configuration error.
func NewParseError(message string, cause error) *AppError {
	return &AppError{Code: CodeParse, Message: message, Err: cause}
}

// NewTransportError creates a fatal, unrecoverable connection error.
func NewTransportError(message string, cause error) *AppError {
	return &AppError{Code: CodeTransport, Message: message, Err: cause}
}

// NewCycleError creates the fatal TaskQueue.add_dependency cycle error.
func NewCycleError(message string) *AppError {
	return &AppError{Code: CodeCycle, Message: message}
}

// IsCode reports whether err is an *AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
