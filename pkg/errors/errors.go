package errors

import (
	"fmt"
	"runtime"
	"time"
)

// ErrorCode represents the semantic error taxonomy the matching core can
// raise. It deliberately does not cover auth, risk, persistence, or
// transport errors — those belong to the engine's external collaborators.
type ErrorCode string

const (
	// ErrInvalidOrder covers price <= 0, units <= 0, or any other
	// admission-time rejection that isn't a duplicate ID.
	ErrInvalidOrder ErrorCode = "INVALID_ORDER"
	// ErrDuplicateOrder fires when an order_id has already been seen,
	// whether or not the earlier order is still resting.
	ErrDuplicateOrder ErrorCode = "DUPLICATE_ORDER"
	// ErrEngineHalted fires when PlaceBid/PlaceAsk arrives while running=false.
	ErrEngineHalted ErrorCode = "ENGINE_HALTED"
	// ErrCrossedBook marks a fatal invariant violation: the book was found
	// crossed after a mutation that should have cleared it.
	ErrCrossedBook ErrorCode = "CROSSED_BOOK"
)

// ErrorSeverity represents the severity level of an error.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityCritical ErrorSeverity = "critical"
)

// MatchCoreError is a structured error carrying a stable code, a severity,
// and the call site it was created at.
type MatchCoreError struct {
	Code      ErrorCode
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
	File      string
	Line      int
	Cause     error
}

func (e *MatchCoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message)
}

func (e *MatchCoreError) Unwrap() error {
	return e.Cause
}

// New creates a new MatchCoreError with the call site's file/line recorded.
func New(code ErrorCode, message string) *MatchCoreError {
	_, file, line, _ := runtime.Caller(1)
	return &MatchCoreError{
		Code:      code,
		Message:   message,
		Severity:  severityFor(code),
		Timestamp: time.Now(),
		File:      file,
		Line:      line,
	}
}

// Newf creates a new MatchCoreError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *MatchCoreError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code/message to an existing error.
func Wrap(err error, code ErrorCode, message string) *MatchCoreError {
	if err == nil {
		return nil
	}
	_, file, line, _ := runtime.Caller(1)
	return &MatchCoreError{
		Code:      code,
		Message:   message,
		Severity:  severityFor(code),
		Timestamp: time.Now(),
		File:      file,
		Line:      line,
		Cause:     err,
	}
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var mcErr *MatchCoreError
	if As(err, &mcErr) {
		return mcErr.Code == code
	}
	return false
}

// As finds the first MatchCoreError in err's chain.
func As(err error, target **MatchCoreError) bool {
	if err == nil {
		return false
	}
	if mcErr, ok := err.(*MatchCoreError); ok {
		*target = mcErr
		return true
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return As(unwrapper.Unwrap(), target)
	}
	return false
}

// Code extracts the error code, or "" if err is not a MatchCoreError.
func Code(err error) ErrorCode {
	var mcErr *MatchCoreError
	if As(err, &mcErr) {
		return mcErr.Code
	}
	return ""
}

// IsFatal reports whether err represents an internal invariant violation
// that the engine should not attempt to recover from (§7).
func IsFatal(err error) bool {
	return Code(err) == ErrCrossedBook
}

func severityFor(code ErrorCode) ErrorSeverity {
	switch code {
	case ErrCrossedBook:
		return SeverityCritical
	case ErrInvalidOrder, ErrDuplicateOrder, ErrEngineHalted:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
