package domain

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on unique key conflicts.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden is returned when the caller does not own the entity.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError describes bad input or a violated business precondition.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError is returned when a product cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID int64
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock for product: " + e.Name
}

// PaymentDeclinedError carries the gateway's failure message.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	return "payment failed: " + e.Reason
}

// IsClientError reports whether err was caused by the caller rather than infrastructure.
func IsClientError(err error) bool {
	var (
		validation *ValidationError
		stock      *InsufficientStockError
		declined   *PaymentDeclinedError
	)
	return errors.As(err, &validation) || errors.As(err, &stock) || errors.As(err, &declined)
}

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string        { return e.msg }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds an error with a custom message that matches ErrNotFound.
func NotFound(format string, args ...any) error {
	return &notFoundError{msg: fmt.Sprintf(format, args...)}
}
