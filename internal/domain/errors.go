package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrBookingNotFound          = errors.New("booking not found")
	ErrFlowNotFound             = errors.New("confirmation not found")
	ErrFlowCancelled            = errors.New("confirmation cancelled")
	ErrInvalidBooking           = errors.New("invalid booking")
)

// GatewayError is a failed status query against one provider.
type GatewayError struct {
	Provider PaymentMethod
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type UnsupportedPaymentMethodError struct {
	Method PaymentMethod
}

func (e *UnsupportedPaymentMethodError) Error() string {
	if e.Method == "" {
		return "payment method could not be resolved"
	}
	return fmt.Sprintf("unsupported payment method %q", e.Method)
}

func (e *UnsupportedPaymentMethodError) Unwrap() error { return ErrUnsupportedPaymentMethod }

// VerificationSetupError means the booking could not be loaded when a
// confirmation started.
type VerificationSetupError struct {
	BookingID string
	Err       error
}

func (e *VerificationSetupError) Error() string {
	return fmt.Sprintf("load booking %s: %v", e.BookingID, e.Err)
}

func (e *VerificationSetupError) Unwrap() error { return e.Err }

// ReconciliationError is a failed synthetic ZaloPay callback. It never
// changes the outcome of a confirmation.
type ReconciliationError struct {
	TransactionID string
	Err           error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("zalopay callback for %s: %v", e.TransactionID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
