// Package errors provides enhanced error context and propagation mechanisms
// for the filter panel. It implements structured error handling with
// diagnostic context preservation and severity-driven logging.
package errors

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strings"
	"time"

	"github.com/filter-panel/panel/internal/logging"
)

// ErrorType categorizes different types of errors for appropriate handling
type ErrorType string

const (
	ErrorTypeConnection    ErrorType = "connection"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeProtocol      ErrorType = "protocol"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeRuntime       ErrorType = "runtime"
	ErrorTypeUserInterface ErrorType = "ui"
)

// ErrorSeverity indicates the impact level of an error
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityHigh     ErrorSeverity = "high"
	SeverityCritical ErrorSeverity = "critical"
)

// ContextualError provides enhanced error information with diagnostic context
type ContextualError struct {
	Type        ErrorType              `json:"type"`
	Severity    ErrorSeverity          `json:"severity"`
	Message     string                 `json:"message"`
	UserMessage string                 `json:"userMessage,omitempty"`
	Code        string                 `json:"code,omitempty"`
	Component   string                 `json:"component"`
	Operation   string                 `json:"operation,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	StackTrace  []string               `json:"stackTrace,omitempty"`
	Cause       error                  `json:"-"`
	Recoverable bool                   `json:"recoverable"`
}

// Error implements the error interface
func (e *ContextualError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Type, e.Message)
}

// Unwrap provides access to the underlying error
func (e *ContextualError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns a user-friendly error message
func (e *ContextualError) GetUserMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// IsRecoverable indicates if the error can potentially be resolved
func (e *ContextualError) IsRecoverable() bool {
	return e.Recoverable
}

// IsRetryable reports whether err represents a transient condition worth
// retrying. Network-level failures and timeouts qualify; validation and
// configuration errors do not.
func IsRetryable(err error) bool {
	var ce *ContextualError
	if errors.As(err, &ce) {
		switch ce.Type {
		case ErrorTypeNetwork, ErrorTypeConnection:
			return ce.Recoverable
		default:
			return false
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// ErrorBuilder provides a fluent interface for creating contextual errors
type ErrorBuilder struct {
	err          *ContextualError
	logger       *logging.Logger
	captureStack bool
}

// NewErrorBuilder creates a new error builder with default settings
func NewErrorBuilder(errorType ErrorType, component string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &ContextualError{
			Type:        errorType,
			Severity:    SeverityMedium,
			Component:   component,
			Context:     make(map[string]interface{}),
			Timestamp:   time.Now(),
			Recoverable: true,
		},
		logger:       logging.GetGlobalLogger().WithComponent(component),
		captureStack: true,
	}
}

// WithSeverity sets the error severity level
func (eb *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	eb.err.Severity = severity
	return eb
}

// WithMessage sets the technical error message
func (eb *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	eb.err.Message = message
	return eb
}

// WithUserMessage sets a user-friendly error message
func (eb *ErrorBuilder) WithUserMessage(userMessage string) *ErrorBuilder {
	eb.err.UserMessage = userMessage
	return eb
}

// WithCode sets an error code for categorization
func (eb *ErrorBuilder) WithCode(code string) *ErrorBuilder {
	eb.err.Code = code
	return eb
}

// WithOperation sets the operation that failed
func (eb *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	eb.err.Operation = operation
	return eb
}

// WithCause sets the underlying error that caused this error
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.err.Cause = cause
	return eb
}

// WithContext adds contextual information to the error
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.err.Context[key] = value
	return eb
}

// WithRecoverable sets whether the error is recoverable
func (eb *ErrorBuilder) WithRecoverable(recoverable bool) *ErrorBuilder {
	eb.err.Recoverable = recoverable
	return eb
}

// WithoutStackTrace disables stack trace capture
func (eb *ErrorBuilder) WithoutStackTrace() *ErrorBuilder {
	eb.captureStack = false
	return eb
}

// Build creates the contextual error and logs it appropriately
func (eb *ErrorBuilder) Build() *ContextualError {
	if eb.captureStack {
		eb.err.StackTrace = captureStackTrace(3) // Skip Build, caller, and runtime frames
	}

	logFields := map[string]interface{}{
		"error_type":  eb.err.Type,
		"severity":    eb.err.Severity,
		"operation":   eb.err.Operation,
		"recoverable": eb.err.Recoverable,
	}
	for k, v := range eb.err.Context {
		logFields["ctx_"+k] = v
	}

	logMessage := eb.err.Message
	if eb.err.Cause != nil {
		logMessage = fmt.Sprintf("%s: %v", eb.err.Message, eb.err.Cause)
	}

	loggerWithFields := eb.logger.WithFields(logFields)

	switch eb.err.Severity {
	case SeverityCritical, SeverityHigh:
		loggerWithFields.Error(logMessage)
	case SeverityMedium:
		loggerWithFields.Warn(logMessage)
	case SeverityLow:
		loggerWithFields.Info(logMessage)
	}

	return eb.err
}

// captureStackTrace captures the current stack trace
func captureStackTrace(skip int) []string {
	var traces []string
	for i := skip; i < skip+10; i++ { // Capture up to 10 frames
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		funcName := "unknown"
		if fn != nil {
			funcName = fn.Name()
		}

		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}

		traces = append(traces, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return traces
}

// Component-specific error builders
func NewConnectionError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeConnection, component).WithSeverity(SeverityHigh)
}

func NewConfigurationError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeConfiguration, component).WithSeverity(SeverityMedium)
}

func NewProtocolError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeProtocol, component).WithSeverity(SeverityHigh)
}

func NewNetworkError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeNetwork, component).WithSeverity(SeverityMedium)
}

func NewValidationError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeValidation, component).WithSeverity(SeverityMedium)
}

func NewRuntimeError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeRuntime, component).WithSeverity(SeverityHigh)
}

func NewUIError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeUserInterface, component).WithSeverity(SeverityLow)
}
