package confirmation

import (
	"context"
	"errors"
	"time"

	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/infrastructure/payment"

	"go.uber.org/zap"
)

const (
	MessagePendingUnconfirmed = "Your payment has not been recorded yet. Please check again in a few minutes."
	MessageNotConfirmed       = "Could not confirm your payment after multiple attempts."
)

var ErrMissingIDs = errors.New("transaction id and booking id are required")

type BookingReader interface {
	Details(ctx context.Context, id string) (*domain.Booking, error)
}

type StatusChecker interface {
	CheckPaymentSmart(ctx context.Context, transactionID, bookingID string, method domain.PaymentMethod) (domain.PaymentCheckResult, error)
}

type CallbackSubmitter interface {
	SubmitZaloPayCallback(ctx context.Context, cb domain.ZaloPayCallback) error
}

// Policy bounds the polling phase: MaxAttempts ticks spaced Interval apart,
// then one final check after another Interval.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

var DefaultPolicy = Policy{Interval: 3 * time.Second, MaxAttempts: 5}

type Policies struct {
	Default  Policy
	ByMethod map[domain.PaymentMethod]Policy
}

func (p Policies) For(m domain.PaymentMethod) Policy {
	if pol, ok := p.ByMethod[m]; ok {
		return pol
	}
	if p.Default.Interval <= 0 || p.Default.MaxAttempts < 1 {
		return DefaultPolicy
	}
	return p.Default
}

type Request struct {
	TransactionID string               `json:"transactionId"`
	BookingID     string               `json:"bookingId"`
	Method        domain.PaymentMethod `json:"paymentMethod,omitempty"`
}

type Controller struct {
	bookings  BookingReader
	checker   StatusChecker
	callbacks CallbackSubmitter
	merchant  payment.Merchant
	policies  Policies
	logger    *zap.Logger
	now       func() time.Time
}

func NewController(
	bookings BookingReader,
	checker StatusChecker,
	callbacks CallbackSubmitter,
	merchant payment.Merchant,
	policies Policies,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		bookings:  bookings,
		checker:   checker,
		callbacks: callbacks,
		merchant:  merchant,
		policies:  policies,
		logger:    logger,
		now:       time.Now,
	}
}

// Start launches a confirmation flow. The flow stops when ctx is cancelled or
// when Flow.Cancel is called.
func (c *Controller) Start(ctx context.Context, req Request, opts ...Option) (*Flow, error) {
	if req.TransactionID == "" || req.BookingID == "" {
		return nil, ErrMissingIDs
	}
	f := newFlow(ctx, req, c.now, opts)
	go c.run(f)
	return f, nil
}

func (c *Controller) run(f *Flow) {
	defer close(f.done)
	ctx := f.ctx
	log := c.logger.With(
		zap.String("confirmation_id", f.ID().String()),
		zap.String("transaction_id", f.req.TransactionID),
		zap.String("booking_id", f.req.BookingID),
	)

	booking, err := c.bookings.Details(ctx, f.req.BookingID)
	if err != nil {
		c.fail(f, log, &domain.VerificationSetupError{BookingID: f.req.BookingID, Err: err})
		return
	}

	method := f.req.Method
	if method == "" {
		method = booking.PaymentMethod
	}
	if !method.Online() {
		c.fail(f, log, &domain.UnsupportedPaymentMethodError{Method: method})
		return
	}
	f.update(func(s *domain.Confirmation) { s.Method = method })
	policy := c.policies.For(method)

	res, err := c.check(f, method, 0)
	if err != nil {
		c.fail(f, log, err)
		return
	}
	if res.Paid() {
		c.succeed(f, log, booking, method, res)
		return
	}

	if !f.update(func(s *domain.Confirmation) { s.Phase = domain.PhasePolling }) {
		return
	}

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if !sleep(ctx, policy.Interval) {
			return
		}
		res, err := c.check(f, method, attempt)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("payment status check failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if res.Paid() {
			c.succeed(f, log, booking, method, res)
			return
		}
	}

	if !sleep(ctx, policy.Interval) {
		return
	}
	res, err = c.check(f, method, policy.MaxAttempts+1)
	switch {
	case ctx.Err() != nil:
	case err != nil:
		c.fail(f, log, err)
	case res.Paid():
		c.succeed(f, log, booking, method, res)
	case method == domain.MethodVNPay && res.Pending():
		c.finish(f, log, domain.PhasePendingUnconfirmed, MessagePendingUnconfirmed)
	default:
		c.finish(f, log, domain.PhaseFailed, MessageNotConfirmed)
	}
}

func (c *Controller) check(f *Flow, method domain.PaymentMethod, attempt int) (domain.PaymentCheckResult, error) {
	res, err := c.checker.CheckPaymentSmart(f.ctx, f.req.TransactionID, f.req.BookingID, method)
	f.reportCheck(CheckEvent{
		ConfirmationID: f.ID(),
		Attempt:        attempt,
		Result:         res,
		Err:            err,
		At:             c.now(),
	})
	f.update(func(s *domain.Confirmation) {
		s.Attempts = attempt
		if err == nil {
			s.LastCheck = &res
		}
	})
	return res, err
}

// succeed finishes the flow as paid. For ZaloPay the backend is also sent the
// callback ZaloPay itself may never deliver; its failure is only logged.
func (c *Controller) succeed(f *Flow, log *zap.Logger, booking *domain.Booking, method domain.PaymentMethod, res domain.PaymentCheckResult) {
	if method == domain.MethodZaloPay {
		cb := payment.BuildZaloPayCallback(c.merchant, f.req.TransactionID, booking, res, c.now())
		if err := c.callbacks.SubmitZaloPayCallback(f.ctx, cb); err != nil {
			log.Warn("zalopay reconciliation failed", zap.Error(err))
		}
	}
	c.finish(f, log, domain.PhasePaid, "")
}

func (c *Controller) fail(f *Flow, log *zap.Logger, err error) {
	if f.ctx.Err() != nil {
		return
	}
	log.Warn("payment confirmation failed", zap.Error(err))
	c.finish(f, log, domain.PhaseFailed, userMessage(err))
}

func (c *Controller) finish(f *Flow, log *zap.Logger, phase domain.Phase, msg string) {
	applied := f.update(func(s *domain.Confirmation) {
		s.Phase = phase
		s.Message = msg
	})
	if applied {
		log.Info("payment confirmation finished", zap.String("phase", string(phase)))
	}
}

func userMessage(err error) string {
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return err.Error()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
