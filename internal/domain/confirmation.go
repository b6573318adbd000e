package domain

import (
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseVerifying          Phase = "verifying"
	PhasePolling            Phase = "polling"
	PhasePaid               Phase = "paid"
	PhasePendingUnconfirmed Phase = "pending_unconfirmed"
	PhaseFailed             Phase = "failed"
)

func (p Phase) Terminal() bool {
	switch p {
	case PhasePaid, PhasePendingUnconfirmed, PhaseFailed:
		return true
	}
	return false
}

type Screen string

const (
	ScreenProgress Screen = "progress"
	ScreenSuccess  Screen = "success"
	ScreenFailure  Screen = "failure"
)

// Screen is the exit surface the client should show for this phase.
func (p Phase) Screen() Screen {
	switch p {
	case PhasePaid:
		return ScreenSuccess
	case PhasePendingUnconfirmed, PhaseFailed:
		return ScreenFailure
	}
	return ScreenProgress
}

// Confirmation is the state of one payment confirmation flow.
type Confirmation struct {
	ID            uuid.UUID           `json:"id"`
	TransactionID string              `json:"transactionId"`
	BookingID     string              `json:"bookingId"`
	Method        PaymentMethod       `json:"paymentMethod,omitempty"`
	Phase         Phase               `json:"phase"`
	Message       string              `json:"message,omitempty"`
	Attempts      int                 `json:"attempts"`
	LastCheck     *PaymentCheckResult `json:"lastCheck,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}
