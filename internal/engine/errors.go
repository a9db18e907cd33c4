// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeSchema         ErrorCode = "SCHEMA"
	ErrCodeEmptyBatch     ErrorCode = "EMPTY_BATCH"
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION"
	ErrCodeExtraction     ErrorCode = "EXTRACTION"
	ErrCodeAnalysis       ErrorCode = "ANALYSIS"
	ErrCodePersistence    ErrorCode = "PERSISTENCE"
	ErrCodeTimeout        ErrorCode = "TIMEOUT"
	ErrCodeBrowserCrash   ErrorCode = "BROWSER_CRASH"
	ErrCodeSessionError   ErrorCode = "SESSION_ERROR"
)

// Sentinels for errors.Is; they match any EngineError carrying the same code.
var (
	ErrSchema         = &EngineError{Code: ErrCodeSchema}
	ErrEmptyBatch     = &EngineError{Code: ErrCodeEmptyBatch}
	ErrAuthentication = &EngineError{Code: ErrCodeAuthentication}
	ErrExtraction     = &EngineError{Code: ErrCodeExtraction}
	ErrAnalysis       = &EngineError{Code: ErrCodeAnalysis}
	ErrPersistence    = &EngineError{Code: ErrCodePersistence}
	ErrTimeout        = &EngineError{Code: ErrCodeTimeout}
	ErrBrowserCrash   = &EngineError{Code: ErrCodeBrowserCrash}
	ErrSessionError   = &EngineError{Code: ErrCodeSessionError}

	ErrBrowserNotFound = errors.New("chrome browser not found")
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first EngineError in err's chain, or "" if there is none
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
