package errors

import (
	"fmt"
	"time"

	"mcp-tool-service/internal/models"
)

// ErrorCategory represents different types of errors in the system
type ErrorCategory string

const (
	// Envelope could not be decoded
	ErrorCategoryParse ErrorCategory = "parse"
	// MCP protocol related errors (bad envelope, unknown method)
	ErrorCategoryMCP ErrorCategory = "mcp"
	// Well-formed request referencing something that does not exist
	ErrorCategoryValidation ErrorCategory = "validation"
	// The tool itself failed, during coercion or invocation
	ErrorCategoryExecution ErrorCategory = "execution"
	// System/internal errors
	ErrorCategorySystem ErrorCategory = "system"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// StructuredError represents a structured error with additional context
type StructuredError struct {
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Backtrace   []string               `json:"backtrace,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Recoverable bool                   `json:"recoverable"`
	Cause       error                  `json:"-"`

	// rpcCode overrides the category mapping when set
	rpcCode int
}

// Error implements the error interface
func (se *StructuredError) Error() string {
	if se.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", se.Category, se.Code, se.Message, se.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", se.Category, se.Code, se.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (se *StructuredError) Unwrap() error {
	return se.Cause
}

// RPCCode returns the JSON-RPC error code the error is reported with
func (se *StructuredError) RPCCode() int {
	if se.rpcCode != 0 {
		return se.rpcCode
	}

	switch se.Category {
	case ErrorCategoryParse:
		return models.CodeParseError
	case ErrorCategoryMCP:
		return models.CodeInvalidRequest
	case ErrorCategoryValidation:
		return models.CodeInvalidParams
	default:
		// execution, system and anything unknown
		return models.CodeInternalError
	}
}

// ToMCPError converts a StructuredError to an MCP protocol error
func (se *StructuredError) ToMCPError() *models.MCPError {
	data := map[string]interface{}{
		"category": se.Category,
		"code":     se.Code,
	}
	for k, v := range se.Context {
		data[k] = v
	}
	if se.Details != "" {
		data["details"] = se.Details
	}
	if len(se.Backtrace) > 0 {
		data["backtrace"] = se.Backtrace
	}

	return &models.MCPError{
		Code:    se.RPCCode(),
		Message: se.Message,
		Data:    data,
	}
}

// NewStructuredError creates a new structured error
func NewStructuredError(category ErrorCategory, severity ErrorSeverity, code, message string) *StructuredError {
	return &StructuredError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		Recoverable: severity != ErrorSeverityCritical,
		Context:     make(map[string]interface{}),
	}
}

// WithDetails adds details to the error
func (se *StructuredError) WithDetails(details string) *StructuredError {
	se.Details = details
	return se
}

// WithContext adds context information to the error
func (se *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if se.Context == nil {
		se.Context = make(map[string]interface{})
	}
	se.Context[key] = value
	return se
}

// WithCause sets the underlying cause error
func (se *StructuredError) WithCause(err error) *StructuredError {
	se.Cause = err
	return se
}

// WithBacktrace attaches diagnostic trace lines, keeping at most MaxBacktraceLines
func (se *StructuredError) WithBacktrace(lines []string) *StructuredError {
	if len(lines) > MaxBacktraceLines {
		lines = lines[:MaxBacktraceLines]
	}
	se.Backtrace = lines
	return se
}

// IsRecoverable returns whether the error is recoverable
func (se *StructuredError) IsRecoverable() bool {
	return se.Recoverable
}

// MaxBacktraceLines bounds the trace attached to execution errors
const MaxBacktraceLines = 5

// Predefined error constructors for common error scenarios

// NewParseError creates an error for an envelope that could not be decoded
func NewParseError(err error) *StructuredError {
	message := "Parse error"
	if err != nil {
		message = "Parse error: " + err.Error()
	}
	return NewStructuredError(ErrorCategoryParse, ErrorSeverityLow, ErrCodeParseError, message).WithCause(err)
}

// NewMCPError creates an MCP protocol related error
func NewMCPError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryMCP, ErrorSeverityMedium, code, message).WithCause(err)
}

// NewMethodNotFoundError creates the error for an unroutable method
func NewMethodNotFoundError(method string) *StructuredError {
	se := NewMCPError(ErrCodeMethodNotFound, "Method not found", nil).WithContext("method", method)
	se.rpcCode = models.CodeMethodNotFound
	return se
}

// NewValidationError creates a validation related error
func NewValidationError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryValidation, ErrorSeverityLow, code, message).WithCause(err)
}

// NewToolNotFoundError creates the error for a tools/call naming an unknown tool
func NewToolNotFoundError(name string) *StructuredError {
	return NewValidationError(ErrCodeToolNotFound, "Tool not found", nil).WithContext("tool_name", name)
}

// NewExecutionError creates the error for a failed tool invocation.
// The message carries the "Execution error: " prefix clients see.
func NewExecutionError(toolName string, err error) *StructuredError {
	message := "Execution error"
	if err != nil {
		message = "Execution error: " + err.Error()
	}
	return NewStructuredError(ErrorCategoryExecution, ErrorSeverityMedium, ErrCodeExecutionFailed, message).
		WithCause(err).
		WithContext("tool_name", toolName)
}

// NewSystemError creates a system/internal error
func NewSystemError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategorySystem, ErrorSeverityCritical, code, message).WithCause(err)
}

// Common error codes
const (
	// Protocol error codes
	ErrCodeParseError     = "PARSE_ERROR"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeMethodNotFound = "METHOD_NOT_FOUND"

	// Validation error codes
	ErrCodeInvalidParams = "INVALID_PARAMS"
	ErrCodeToolNotFound  = "TOOL_NOT_FOUND"

	// Execution error codes
	ErrCodeExecutionFailed = "EXECUTION_FAILED"
	ErrCodeCoercionFailed  = "COERCION_FAILED"
	ErrCodeToolPanic       = "TOOL_PANIC"

	// System error codes
	ErrCodeInitializationFailed = "INITIALIZATION_FAILED"
	ErrCodeSerializationFailed  = "SERIALIZATION_FAILED"
	ErrCodeUnexpectedPanic      = "UNEXPECTED_PANIC"
)
