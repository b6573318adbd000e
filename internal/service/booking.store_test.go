package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- mock booking API ----

type mockAPI struct {
	bookings   []domain.Booking
	listErr    error
	booking    *domain.Booking
	getErr     error
	getCalls   int
	created    *domain.BookingCreated
	createErr  error
	cancelled  *domain.Booking
	retry      *domain.PaymentInit
	retryCalls int
}

func (m *mockAPI) ListBookings(context.Context) ([]domain.Booking, error) {
	return m.bookings, m.listErr
}
func (m *mockAPI) GetBooking(context.Context, string) (*domain.Booking, error) {
	m.getCalls++
	return m.booking, m.getErr
}
func (m *mockAPI) CreateBooking(context.Context, domain.CreateBookingRequest) (*domain.BookingCreated, error) {
	return m.created, m.createErr
}
func (m *mockAPI) CancelBooking(context.Context, string, string) (*domain.Booking, error) {
	return m.cancelled, nil
}
func (m *mockAPI) RetryPayment(context.Context, string) (*domain.PaymentInit, error) {
	m.retryCalls++
	return m.retry, nil
}

// ---- mock gateway ----

type mockGateway struct {
	vnpayCalls int
	zaloCalls  int
	result     domain.PaymentCheckResult
	err        error
}

func (g *mockGateway) CheckZaloPayStatus(context.Context, string) (domain.PaymentCheckResult, error) {
	g.zaloCalls++
	return g.result, g.err
}
func (g *mockGateway) CheckVNPayStatus(context.Context, string) (domain.PaymentCheckResult, error) {
	g.vnpayCalls++
	return g.result, g.err
}
func (g *mockGateway) SubmitZaloPayCallback(context.Context, domain.ZaloPayCallback) error {
	return nil
}

// ---- tests ----

func TestCheckPaymentSmart_UsesStoredMethod(t *testing.T) {
	api := &mockAPI{booking: &domain.Booking{ID: "b-1", PaymentMethod: domain.MethodZaloPay}}
	gw := &mockGateway{result: domain.PaymentCheckResult{Status: domain.CheckPaid}}
	store := service.NewBookingStore(api, gw)

	res, err := store.CheckPaymentSmart(context.Background(), "tx", "b-1", "")
	require.NoError(t, err)
	assert.True(t, res.Paid())
	assert.Equal(t, 1, api.getCalls)
	assert.Equal(t, 1, gw.zaloCalls)
	assert.Equal(t, 0, gw.vnpayCalls)
}

func TestCheckPaymentSmart_OverrideSkipsLookup(t *testing.T) {
	api := &mockAPI{}
	gw := &mockGateway{result: domain.PaymentCheckResult{Status: domain.CheckPending}}
	store := service.NewBookingStore(api, gw)

	res, err := store.CheckPaymentSmart(context.Background(), "tx", "b-1", domain.MethodVNPay)
	require.NoError(t, err)
	assert.True(t, res.Pending())
	assert.Equal(t, 0, api.getCalls)
	assert.Equal(t, 1, gw.vnpayCalls)
}

func TestCheckPaymentSmart_Unsupported(t *testing.T) {
	api := &mockAPI{booking: &domain.Booking{ID: "b-1", PaymentMethod: domain.MethodCash}}
	gw := &mockGateway{}
	store := service.NewBookingStore(api, gw)

	_, err := store.CheckPaymentSmart(context.Background(), "tx", "b-1", "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedPaymentMethod)
	assert.Equal(t, 0, gw.vnpayCalls+gw.zaloCalls)
}

func TestCheckPaymentSmart_LookupError(t *testing.T) {
	api := &mockAPI{getErr: domain.ErrBookingNotFound}
	store := service.NewBookingStore(api, &mockGateway{})

	_, err := store.CheckPaymentSmart(context.Background(), "tx", "b-1", "")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestCheckPaymentSmart_DoesNotTouchBookings(t *testing.T) {
	api := &mockAPI{
		bookings: []domain.Booking{{ID: "b-1", PaymentStatus: domain.PaymentPending}},
		booking:  &domain.Booking{ID: "b-1", PaymentMethod: domain.MethodVNPay},
	}
	store := service.NewBookingStore(api, &mockGateway{result: domain.PaymentCheckResult{Status: domain.CheckPaid}})
	_, err := store.Refresh(context.Background())
	require.NoError(t, err)

	_, err = store.CheckPaymentSmart(context.Background(), "tx", "b-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, store.Bookings()[0].PaymentStatus)
}

func TestCreate_PrependsBooking(t *testing.T) {
	api := &mockAPI{
		bookings: []domain.Booking{{ID: "old"}},
		created: &domain.BookingCreated{
			Booking: domain.Booking{ID: "new"},
			Payment: &domain.PaymentInit{TransactionID: "tx-1"},
		},
	}
	store := service.NewBookingStore(api, &mockGateway{})
	_, err := store.Refresh(context.Background())
	require.NoError(t, err)

	in := time.Date(2026, 11, 1, 14, 0, 0, 0, time.UTC)
	created, err := store.Create(context.Background(), domain.CreateBookingRequest{
		RoomID: "r", HotelID: "h", CheckIn: in, CheckOut: in.Add(48 * time.Hour), PaymentMethod: domain.MethodZaloPay,
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", created.Payment.TransactionID)

	list := store.Bookings()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
}

func TestCreate_Validation(t *testing.T) {
	store := service.NewBookingStore(&mockAPI{}, &mockGateway{})
	in := time.Date(2026, 11, 1, 14, 0, 0, 0, time.UTC)

	_, err := store.Create(context.Background(), domain.CreateBookingRequest{
		RoomID: "r", HotelID: "h", CheckIn: in, CheckOut: in, PaymentMethod: domain.MethodVNPay,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidBooking)

	_, err = store.Create(context.Background(), domain.CreateBookingRequest{
		RoomID: "r", HotelID: "h", CheckIn: in, CheckOut: in.Add(time.Hour), PaymentMethod: "bitcoin",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedPaymentMethod)
}

func TestCancel_ReplacesInMemory(t *testing.T) {
	api := &mockAPI{
		bookings:  []domain.Booking{{ID: "b-1", Status: domain.BookingPending}},
		cancelled: &domain.Booking{ID: "b-1", Status: domain.BookingCancelled},
	}
	store := service.NewBookingStore(api, &mockGateway{})
	_, err := store.Refresh(context.Background())
	require.NoError(t, err)

	_, err = store.Cancel(context.Background(), "b-1", "change of plans")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, store.Bookings()[0].Status)
}

func TestRetryPayment(t *testing.T) {
	cases := []struct {
		name    string
		booking domain.Booking
		wantErr error
	}{
		{"unpaid online", domain.Booking{PaymentMethod: domain.MethodVNPay, PaymentStatus: domain.PaymentPending}, nil},
		{"already paid", domain.Booking{PaymentMethod: domain.MethodVNPay, PaymentStatus: domain.PaymentPaid}, domain.ErrInvalidBooking},
		{"cancelled", domain.Booking{PaymentMethod: domain.MethodZaloPay, Status: domain.BookingCancelled}, domain.ErrInvalidBooking},
		{"cash", domain.Booking{PaymentMethod: domain.MethodCash}, domain.ErrUnsupportedPaymentMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.booking
			api := &mockAPI{booking: &b, retry: &domain.PaymentInit{TransactionID: "tx-new"}}
			store := service.NewBookingStore(api, &mockGateway{})

			p, err := store.RetryPayment(context.Background(), "b-1")
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr))
				assert.Equal(t, 0, api.retryCalls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tx-new", p.TransactionID)
		})
	}
}

func TestRefresh_Error(t *testing.T) {
	store := service.NewBookingStore(&mockAPI{listErr: errors.New("offline")}, &mockGateway{})

	_, err := store.Refresh(context.Background())
	assert.EqualError(t, err, "offline")
	assert.Empty(t, store.Bookings())
}
