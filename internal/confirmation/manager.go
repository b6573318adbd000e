package confirmation

import (
	"context"
	"errors"
	"sync"
	"time"

	"hotel-payment-confirm/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository persists confirmation state. FindByID returns nil, nil when the
// confirmation does not exist.
type Repository interface {
	Upsert(ctx context.Context, c *domain.Confirmation) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Confirmation, error)
}

type CheckRepository interface {
	Create(ctx context.Context, r *domain.CheckRecord) error
}

var ErrManagerClosed = errors.New("confirmation manager is closed")

const (
	defaultRetention = 10 * time.Minute
	persistTimeout   = 5 * time.Second
)

// Manager runs flows independently of the request that started them and
// keeps them addressable by id.
type Manager struct {
	controller    *Controller
	confirmations Repository
	checks        CheckRepository
	logger        *zap.Logger
	retention     time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	flows map[uuid.UUID]*Flow
}

// NewManager creates a manager. confirmations and checks may be nil to run
// without persistence.
func NewManager(controller *Controller, confirmations Repository, checks CheckRepository, logger *zap.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		controller:    controller,
		confirmations: confirmations,
		checks:        checks,
		logger:        logger,
		retention:     defaultRetention,
		ctx:           ctx,
		cancel:        cancel,
		flows:         make(map[uuid.UUID]*Flow),
	}
}

func (m *Manager) Start(req Request) (*Flow, error) {
	m.evict()

	var opts []Option
	if m.confirmations != nil {
		opts = append(opts, OnUpdate(m.persist))
	}
	if m.checks != nil {
		opts = append(opts, OnCheck(m.recordCheck))
	}

	// Holding mu keeps Close from missing a flow registered while it shuts down.
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return nil, ErrManagerClosed
	}

	f, err := m.controller.Start(m.ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	m.flows[f.ID()] = f

	return f, nil
}

// Get returns the live snapshot of a flow, falling back to the repository
// for flows that were evicted or ran in another process.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (domain.Confirmation, error) {
	m.mu.RLock()
	f, ok := m.flows[id]
	m.mu.RUnlock()
	if ok {
		return m.refresh(ctx, f.Snapshot()), nil
	}

	if m.confirmations == nil {
		return domain.Confirmation{}, domain.ErrFlowNotFound
	}
	c, err := m.confirmations.FindByID(ctx, id)
	if err != nil {
		return domain.Confirmation{}, err
	}
	if c == nil {
		return domain.Confirmation{}, domain.ErrFlowNotFound
	}
	return *c, nil
}

// refresh picks up a pending_unconfirmed flow that the reconciliation worker
// has since marked paid in the repository.
func (m *Manager) refresh(ctx context.Context, snap domain.Confirmation) domain.Confirmation {
	if snap.Phase != domain.PhasePendingUnconfirmed || m.confirmations == nil {
		return snap
	}
	stored, err := m.confirmations.FindByID(ctx, snap.ID)
	if err != nil {
		m.logger.Warn("failed to reload confirmation", zap.String("confirmation_id", snap.ID.String()), zap.Error(err))
		return snap
	}
	if stored != nil && stored.Phase == domain.PhasePaid {
		snap.Phase = stored.Phase
		snap.Message = stored.Message
		snap.UpdatedAt = stored.UpdatedAt
	}
	return snap
}

func (m *Manager) Cancel(id uuid.UUID) (domain.Confirmation, error) {
	m.mu.RLock()
	f, ok := m.flows[id]
	m.mu.RUnlock()
	if !ok {
		return domain.Confirmation{}, domain.ErrFlowNotFound
	}
	f.Cancel()
	<-f.Done()
	return f.Snapshot(), nil
}

// Close cancels every running flow and waits for them to stop.
func (m *Manager) Close() {
	m.cancel()

	m.mu.RLock()
	flows := make([]*Flow, 0, len(m.flows))
	for _, f := range m.flows {
		flows = append(flows, f)
	}
	m.mu.RUnlock()

	for _, f := range flows {
		<-f.Done()
	}
}

func (m *Manager) evict() {
	cutoff := time.Now().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, f := range m.flows {
		select {
		case <-f.Done():
			if f.Snapshot().UpdatedAt.Before(cutoff) {
				delete(m.flows, id)
			}
		default:
		}
	}
}

func (m *Manager) persist(c domain.Confirmation) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.confirmations.Upsert(ctx, &c); err != nil {
		m.logger.Error("failed to persist confirmation",
			zap.String("confirmation_id", c.ID.String()),
			zap.String("phase", string(c.Phase)),
			zap.Error(err),
		)
	}
}

func (m *Manager) recordCheck(ev CheckEvent) {
	rec := &domain.CheckRecord{
		ID:             uuid.NewString(),
		ConfirmationID: ev.ConfirmationID.String(),
		Attempt:        ev.Attempt,
		Status:         ev.Result.Status,
		CheckedAt:      ev.At,
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.checks.Create(ctx, rec); err != nil {
		m.logger.Error("failed to record payment check",
			zap.String("confirmation_id", rec.ConfirmationID),
			zap.Error(err),
		)
	}
}
