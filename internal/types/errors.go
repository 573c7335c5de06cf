package types

import (
	"errors"
	"fmt"
)

// Error taxonomy for the order workflow. Callers match with errors.Is /
// errors.As; nothing in the core panics or retries on these.
var (
	// ErrInvalidParameter marks malformed risk/stop/leverage inputs.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientBalance is returned when a debit would push a ledger
	// balance negative. The ledger is left untouched.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSymbolNotFound is returned for quote or order lookups against an
	// unknown symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
)

func invalidParamf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// InvalidParamf wraps ErrInvalidParameter with detail.
func InvalidParamf(format string, args ...any) error {
	return invalidParamf(format, args...)
}

// ExecutionError is an order rejection or connectivity failure reported by
// the execution backend. It is surfaced per order and never aborts a sibling
// exit submission.
type ExecutionError struct {
	Code    int    // backend error code, 0 when not supplied
	Message string
	Cause   error
}

func (e *ExecutionError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("execution error %d: %s", e.Code, e.Message)
	}
	return "execution error: " + e.Message
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// NewExecutionError builds an ExecutionError with an optional wrapped cause.
func NewExecutionError(code int, message string, cause error) *ExecutionError {
	return &ExecutionError{Code: code, Message: message, Cause: cause}
}
