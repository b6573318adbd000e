package confirmation

import (
	"context"
	"sync"
	"time"

	"hotel-payment-confirm/internal/domain"

	"github.com/google/uuid"
)

// CheckEvent describes one status check made by a flow.
type CheckEvent struct {
	ConfirmationID uuid.UUID
	Attempt        int
	Result         domain.PaymentCheckResult
	Err            error
	At             time.Time
}

type Option func(*Flow)

// OnUpdate registers fn to receive every state change of the flow.
// fn must not call Cancel on the same flow.
func OnUpdate(fn func(domain.Confirmation)) Option {
	return func(f *Flow) { f.onUpdate = append(f.onUpdate, fn) }
}

// OnCheck registers fn to receive every status check the flow makes.
func OnCheck(fn func(CheckEvent)) Option {
	return func(f *Flow) { f.onCheck = append(f.onCheck, fn) }
}

// Flow is one running payment confirmation. It owns its polling goroutine;
// Cancel stops it and nothing is applied or reported afterwards.
type Flow struct {
	id     uuid.UUID
	req    Request
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	now    func() time.Time

	onUpdate []func(domain.Confirmation)
	onCheck  []func(CheckEvent)

	// emitMu serializes state changes, observer calls and Cancel.
	emitMu  sync.Mutex
	stopped bool

	mu    sync.RWMutex
	state domain.Confirmation
}

func newFlow(parent context.Context, req Request, now func() time.Time, opts []Option) *Flow {
	ctx, cancel := context.WithCancel(parent)
	ts := now()
	id := uuid.New()
	f := &Flow{
		id:     id,
		req:    req,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		now:    now,
		state: domain.Confirmation{
			ID:            id,
			TransactionID: req.TransactionID,
			BookingID:     req.BookingID,
			Method:        req.Method,
			Phase:         domain.PhaseVerifying,
			CreatedAt:     ts,
			UpdatedAt:     ts,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) ID() uuid.UUID {
	return f.id
}

func (f *Flow) Snapshot() domain.Confirmation {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s := f.state
	if s.LastCheck != nil {
		lc := *s.LastCheck
		s.LastCheck = &lc
	}
	return s
}

func (f *Flow) Done() <-chan struct{} {
	return f.done
}

// Cancel tears the flow down. It is safe to call more than once.
func (f *Flow) Cancel() {
	f.emitMu.Lock()
	f.stopped = true
	f.cancel()
	f.emitMu.Unlock()
}

func (f *Flow) Cancelled() bool {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()
	return f.stopped || f.ctx.Err() != nil
}

// Wait blocks until the flow ends. It returns domain.ErrFlowCancelled when the
// flow was torn down before reaching a terminal phase.
func (f *Flow) Wait(ctx context.Context) (domain.Confirmation, error) {
	select {
	case <-ctx.Done():
		return f.Snapshot(), ctx.Err()
	case <-f.done:
	}
	s := f.Snapshot()
	if !s.Phase.Terminal() {
		return s, domain.ErrFlowCancelled
	}
	return s, nil
}

// update applies mutate and notifies observers unless the flow was torn down.
func (f *Flow) update(mutate func(*domain.Confirmation)) bool {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()
	if f.stopped || f.ctx.Err() != nil {
		return false
	}

	f.mu.Lock()
	mutate(&f.state)
	f.state.UpdatedAt = f.now()
	f.mu.Unlock()

	snap := f.Snapshot()
	for _, fn := range f.onUpdate {
		fn(snap)
	}
	return true
}

func (f *Flow) reportCheck(ev CheckEvent) {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()
	if f.stopped || f.ctx.Err() != nil {
		return
	}
	for _, fn := range f.onCheck {
		fn(ev)
	}
}
