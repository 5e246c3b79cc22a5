// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Standard sentinel errors
var (
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrMarketClosed     = errors.New("market is closed")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderTerminal    = errors.New("order already in terminal state")
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrInvalidWorkflow  = errors.New("invalid workflow")
	ErrNotConnected     = errors.New("market data service not connected")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
)

// OrderError represents an error related to order operations.
type OrderError struct {
	OrderID string
	Symbol  string
	Action  string
	Reason  string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s %s: %s: %v", e.OrderID, e.Action, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s %s: %s", e.OrderID, e.Action, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(orderID, symbol, action, reason string, err error) *OrderError {
	return &OrderError{
		OrderID: orderID,
		Symbol:  symbol,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors aggregates every violated constraint of one request.
// It matches ErrInvalidOrder (or the configured sentinel) with errors.Is.
type ValidationErrors struct {
	sentinel error
	errs     error
}

// NewValidationErrors creates an empty aggregate tagged with sentinel.
func NewValidationErrors(sentinel error) *ValidationErrors {
	return &ValidationErrors{sentinel: sentinel}
}

// Add records a violation.
func (v *ValidationErrors) Add(field string, value interface{}, message string) {
	v.errs = multierr.Append(v.errs, NewValidationError(field, value, message))
}

// Len returns the number of recorded violations.
func (v *ValidationErrors) Len() int {
	return len(multierr.Errors(v.errs))
}

// Violations returns the individual violations.
func (v *ValidationErrors) Violations() []*ValidationError {
	all := multierr.Errors(v.errs)
	out := make([]*ValidationError, 0, len(all))
	for _, err := range all {
		var ve *ValidationError
		if errors.As(err, &ve) {
			out = append(out, ve)
		}
	}
	return out
}

// Err returns nil when nothing was recorded, otherwise the aggregate itself.
func (v *ValidationErrors) Err() error {
	if v.errs == nil {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	msgs := make([]string, 0, v.Len())
	for _, err := range multierr.Errors(v.errs) {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%v: %s", v.sentinel, strings.Join(msgs, "; "))
}

func (v *ValidationErrors) Unwrap() []error {
	return append([]error{v.sentinel}, multierr.Errors(v.errs)...)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
