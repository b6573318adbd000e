package sandbox

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"hotel-payment-confirm/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is how a sandbox transaction eventually settles.
type Outcome string

const (
	OutcomeSettle  Outcome = "settle"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

// Script drives the answers for one transaction. With OutcomeSettle the first
// PaidAfter status queries report pending and every later one reports paid.
type Script struct {
	Outcome   Outcome
	PaidAfter int
}

func SettleAfter(n int) Script { return Script{Outcome: OutcomeSettle, PaidAfter: n} }
func StayPending() Script       { return Script{Outcome: OutcomePending} }
func Fail() Script              { return Script{Outcome: OutcomeFailed} }

// RandomScript settles 70% of transactions (after up to 3 queries), leaves 20%
// pending forever and fails the remaining 10%.
func RandomScript(domain.PaymentMethod) Script {
	chance := rand.IntN(100)
	switch {
	case chance < 70:
		return SettleAfter(rand.IntN(4))
	case chance < 90:
		return StayPending()
	default:
		return Fail()
	}
}

const nightlyRate int64 = 1_200_000

type transaction struct {
	id        string
	bookingID string
	method    domain.PaymentMethod
	amount    int64
	script    Script
	queries   int
	zpTransID int64
}

// query reports the current answer for the transaction and counts the query.
func (t *transaction) query() domain.CheckStatus {
	t.queries++
	switch t.script.Outcome {
	case OutcomeFailed:
		return domain.CheckFailed
	case OutcomeSettle:
		if t.queries > t.script.PaidAfter {
			return domain.CheckPaid
		}
	}
	return domain.CheckPending
}

// Backend is an in-memory stand-in for the remote booking backend.
type Backend struct {
	mu        sync.Mutex
	bookings  []*domain.Booking
	byID      map[string]*domain.Booking
	txs       map[string]*transaction
	callbacks []domain.ZaloPayCallback

	token  string
	script func(domain.PaymentMethod) Script
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Backend)

// WithToken requires every request to carry the bearer token.
func WithToken(token string) Option {
	return func(b *Backend) { b.token = token }
}

// WithScript picks the settlement script for each new transaction.
func WithScript(fn func(domain.PaymentMethod) Script) Option {
	return func(b *Backend) { b.script = fn }
}

func NewBackend(logger *zap.Logger, opts ...Option) *Backend {
	b := &Backend{
		byID:   make(map[string]*domain.Booking),
		txs:    make(map[string]*transaction),
		script: RandomScript,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddBooking seeds a booking and returns its stored copy.
func (b *Backend) AddBooking(bk domain.Booking) domain.Booking {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bk.ID == "" {
		bk.ID = newObjectID()
	}
	if bk.CreatedAt.IsZero() {
		bk.CreatedAt = b.now()
	}
	stored := bk
	b.bookings = append([]*domain.Booking{&stored}, b.bookings...)
	b.byID[stored.ID] = &stored
	return stored
}

// OpenTransaction starts a payment attempt for a booking with an explicit script.
func (b *Backend) OpenTransaction(bookingID string, script Script) (domain.PaymentInit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.byID[bookingID]
	if !ok {
		return domain.PaymentInit{}, domain.ErrBookingNotFound
	}
	return b.openLocked(bk, script), nil
}

// SetScript replaces the script of an existing transaction.
func (b *Backend) SetScript(transactionID string, script Script) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx, ok := b.txs[transactionID]
	if ok {
		tx.script = script
	}
	return ok
}

func (b *Backend) Booking(id string) (domain.Booking, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.byID[id]
	if !ok {
		return domain.Booking{}, false
	}
	return *bk, true
}

// Queries returns how many status queries a transaction has answered.
func (b *Backend) Queries(transactionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tx, ok := b.txs[transactionID]; ok {
		return tx.queries
	}
	return 0
}

// Callbacks returns the ZaloPay callbacks received so far.
func (b *Backend) Callbacks() []domain.ZaloPayCallback {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.ZaloPayCallback, len(b.callbacks))
	copy(out, b.callbacks)
	return out
}

func (b *Backend) openLocked(bk *domain.Booking, script Script) domain.PaymentInit {
	now := b.now()
	tx := &transaction{
		bookingID: bk.ID,
		method:    bk.PaymentMethod,
		amount:    bk.FinalPrice,
		script:    script,
		zpTransID: now.UnixNano() % 1_000_000_000_000,
	}
	var paymentURL string
	switch bk.PaymentMethod {
	case domain.MethodZaloPay:
		tx.id = fmt.Sprintf("%s_%d", now.Format("060102"), rand.IntN(1_000_000))
		paymentURL = "https://sb-openapi.zalopay.vn/v2/pay?app_trans_id=" + tx.id
	default:
		tx.id = fmt.Sprintf("%d%04d", now.Unix(), rand.IntN(10_000))
		paymentURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?vnp_TxnRef=" + tx.id
	}
	for b.txs[tx.id] != nil {
		tx.id += "0"
	}
	b.txs[tx.id] = tx
	return domain.PaymentInit{TransactionID: tx.id, PaymentURL: paymentURL}
}

func (b *Backend) markPaidLocked(bookingID string) {
	if bk, ok := b.byID[bookingID]; ok {
		bk.PaymentStatus = domain.PaymentPaid
		bk.Status = domain.BookingConfirmed
	}
}

// newObjectID mimics the 24 hex char ids the real backend hands out.
func newObjectID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:12])
}

func price(checkIn, checkOut time.Time, promotion string) (original, discount, final int64) {
	nights := int64(checkOut.Sub(checkIn).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	original = nights * nightlyRate
	if promotion != "" {
		discount = original / 10
	}
	return original, discount, original - discount
}
