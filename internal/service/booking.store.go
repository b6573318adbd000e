package service

import (
	"context"
	"fmt"
	"sync"

	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/infrastructure/payment"
)

// BookingAPI is the part of the booking backend the store depends on.
type BookingAPI interface {
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (*domain.BookingCreated, error)
	CancelBooking(ctx context.Context, id, reason string) (*domain.Booking, error)
	RetryPayment(ctx context.Context, id string) (*domain.PaymentInit, error)
}

// BookingStore keeps the signed-in user's bookings in memory and routes
// payment status checks to the right provider.
type BookingStore struct {
	api     BookingAPI
	gateway payment.Gateway

	mu       sync.RWMutex
	bookings []domain.Booking
}

func NewBookingStore(api BookingAPI, gateway payment.Gateway) *BookingStore {
	return &BookingStore{api: api, gateway: gateway}
}

// Refresh reloads the booking list from the backend.
func (s *BookingStore) Refresh(ctx context.Context) ([]domain.Booking, error) {
	list, err := s.api.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.bookings = append([]domain.Booking(nil), list...)
	s.mu.Unlock()

	return s.Bookings(), nil
}

func (s *BookingStore) Bookings() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Booking(nil), s.bookings...)
}

func (s *BookingStore) Create(ctx context.Context, req domain.CreateBookingRequest) (*domain.BookingCreated, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	created, err := s.api.CreateBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.bookings = append([]domain.Booking{created.Booking}, s.bookings...)
	s.mu.Unlock()

	return created, nil
}

func (s *BookingStore) Cancel(ctx context.Context, id, reason string) (*domain.Booking, error) {
	b, err := s.api.CancelBooking(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	s.replace(*b)
	return b, nil
}

// Details fetches one booking from the backend without touching the list.
func (s *BookingStore) Details(ctx context.Context, id string) (*domain.Booking, error) {
	return s.api.GetBooking(ctx, id)
}

// RetryPayment opens a new payment attempt for a booking that is still unpaid.
func (s *BookingStore) RetryPayment(ctx context.Context, id string) (*domain.PaymentInit, error) {
	b, err := s.api.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingCancelled {
		return nil, fmt.Errorf("%w: booking %s is cancelled", domain.ErrInvalidBooking, id)
	}
	if b.PaymentStatus == domain.PaymentPaid {
		return nil, fmt.Errorf("%w: booking %s is already paid", domain.ErrInvalidBooking, id)
	}
	if !b.PaymentMethod.Online() {
		return nil, &domain.UnsupportedPaymentMethodError{Method: b.PaymentMethod}
	}
	return s.api.RetryPayment(ctx, id)
}

// CheckPaymentSmart checks a transaction with the provider the booking was
// paid through. When method is empty the booking's stored method is used.
func (s *BookingStore) CheckPaymentSmart(ctx context.Context, transactionID, bookingID string, method domain.PaymentMethod) (domain.PaymentCheckResult, error) {
	if method == "" {
		b, err := s.api.GetBooking(ctx, bookingID)
		if err != nil {
			return domain.PaymentCheckResult{}, err
		}
		method = b.PaymentMethod
	}

	switch method {
	case domain.MethodVNPay:
		return s.gateway.CheckVNPayStatus(ctx, transactionID)
	case domain.MethodZaloPay:
		return s.gateway.CheckZaloPayStatus(ctx, transactionID)
	default:
		return domain.PaymentCheckResult{}, &domain.UnsupportedPaymentMethodError{Method: method}
	}
}

func (s *BookingStore) replace(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		if s.bookings[i].ID == b.ID {
			s.bookings[i] = b
			return
		}
	}
}

func validateCreate(req domain.CreateBookingRequest) error {
	if req.RoomID == "" || req.HotelID == "" {
		return fmt.Errorf("%w: room and hotel are required", domain.ErrInvalidBooking)
	}
	if !req.CheckOut.After(req.CheckIn) {
		return fmt.Errorf("%w: check-out must be after check-in", domain.ErrInvalidBooking)
	}
	if !req.PaymentMethod.Valid() {
		return &domain.UnsupportedPaymentMethodError{Method: req.PaymentMethod}
	}
	return nil
}
