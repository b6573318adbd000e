package backend

import (
	"context"
	"net/http"
	"net/url"

	"hotel-payment-confirm/internal/domain"
)

func (c *Client) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return doData[[]domain.Booking](ctx, c, http.MethodGet, "/bookings", nil)
}

func (c *Client) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := doData[domain.Booking](ctx, c, http.MethodGet, "/bookings/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (*domain.BookingCreated, error) {
	created, err := doData[domain.BookingCreated](ctx, c, http.MethodPost, "/bookings", req)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) CancelBooking(ctx context.Context, id, reason string) (*domain.Booking, error) {
	body := map[string]string{"reason": reason}
	b, err := doData[domain.Booking](ctx, c, http.MethodPut, "/bookings/"+url.PathEscape(id)+"/cancel", body)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// RetryPayment opens a new payment attempt for an existing booking.
func (c *Client) RetryPayment(ctx context.Context, id string) (*domain.PaymentInit, error) {
	p, err := doData[domain.PaymentInit](ctx, c, http.MethodPost, "/bookings/"+url.PathEscape(id)+"/retry-payment", nil)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
