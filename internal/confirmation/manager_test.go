package confirmation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"hotel-payment-confirm/internal/confirmation"
	"hotel-payment-confirm/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryRepo struct {
	mu      sync.Mutex
	saved   map[uuid.UUID]domain.Confirmation
	upserts int
	checks  []domain.CheckRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{saved: make(map[uuid.UUID]domain.Confirmation)}
}

func (r *memoryRepo) Upsert(_ context.Context, c *domain.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[c.ID] = *c
	r.upserts++
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Confirmation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.saved[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memoryRepo) Create(_ context.Context, rec *domain.CheckRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, *rec)
	return nil
}

func (r *memoryRepo) get(id uuid.UUID) domain.Confirmation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[id]
}

func TestManager_PersistsFlow(t *testing.T) {
	repo := newMemoryRepo()
	ctrl := newController(booking(domain.MethodVNPay), &scriptedChecker{steps: []step{pending, paid}}, &fakeCallbacks{}, nil)
	m := confirmation.NewManager(ctrl, repo, repo, zap.NewNop())
	defer m.Close()

	f, err := m.Start(req)
	require.NoError(t, err)
	_, err = f.Wait(context.Background())
	require.NoError(t, err)

	saved := repo.get(f.ID())
	assert.Equal(t, domain.PhasePaid, saved.Phase)
	assert.Equal(t, "T1", saved.TransactionID)

	repo.mu.Lock()
	require.Len(t, repo.checks, 2)
	assert.Equal(t, domain.CheckPending, repo.checks[0].Status)
	assert.Equal(t, domain.CheckPaid, repo.checks[1].Status)
	repo.mu.Unlock()

	got, err := m.Get(context.Background(), f.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePaid, got.Phase)
}

func TestManager_GetFallsBackToRepository(t *testing.T) {
	repo := newMemoryRepo()
	id := uuid.New()
	repo.saved[id] = domain.Confirmation{ID: id, Phase: domain.PhasePendingUnconfirmed}
	m := confirmation.NewManager(newController(booking(domain.MethodVNPay), &scriptedChecker{}, &fakeCallbacks{}, nil), repo, repo, zap.NewNop())
	defer m.Close()

	got, err := m.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePendingUnconfirmed, got.Phase)

	_, err = m.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestManager_WithoutRepository(t *testing.T) {
	m := confirmation.NewManager(newController(booking(domain.MethodVNPay), &scriptedChecker{steps: []step{paid}}, &fakeCallbacks{}, nil), nil, nil, zap.NewNop())
	defer m.Close()

	f, err := m.Start(req)
	require.NoError(t, err)
	_, err = f.Wait(context.Background())
	require.NoError(t, err)

	_, err = m.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestManager_Cancel(t *testing.T) {
	repo := newMemoryRepo()
	m := confirmation.NewManager(newController(booking(domain.MethodVNPay), &scriptedChecker{}, &fakeCallbacks{}, nil), repo, repo, zap.NewNop())
	defer m.Close()

	f, err := m.Start(req)
	require.NoError(t, err)
	time.Sleep(testInterval)

	snap, err := m.Cancel(f.ID())
	require.NoError(t, err)
	assert.False(t, snap.Phase.Terminal())

	repo.mu.Lock()
	n := repo.upserts
	repo.mu.Unlock()
	time.Sleep(3 * testInterval)
	repo.mu.Lock()
	assert.Equal(t, n, repo.upserts)
	repo.mu.Unlock()

	_, err = m.Cancel(uuid.New())
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestManager_CloseStopsFlows(t *testing.T) {
	m := confirmation.NewManager(newController(booking(domain.MethodVNPay), &scriptedChecker{}, &fakeCallbacks{}, nil), nil, nil, zap.NewNop())

	f1, err := m.Start(req)
	require.NoError(t, err)
	f2, err := m.Start(confirmation.Request{TransactionID: "T2", BookingID: "B2"})
	require.NoError(t, err)

	m.Close()

	for _, f := range []*confirmation.Flow{f1, f2} {
		select {
		case <-f.Done():
		default:
			t.Fatal("flow still running after Close")
		}
		assert.True(t, f.Cancelled())
	}
}

func TestManager_StartValidates(t *testing.T) {
	m := confirmation.NewManager(newController(booking(domain.MethodVNPay), &scriptedChecker{}, &fakeCallbacks{}, nil), nil, nil, zap.NewNop())
	defer m.Close()

	_, err := m.Start(confirmation.Request{TransactionID: "T1"})
	assert.ErrorIs(t, err, confirmation.ErrMissingIDs)
}

func TestManager_GetSeesReconciledPayment(t *testing.T) {
	repo := newMemoryRepo()
	m := confirmation.NewManager(newController(booking(domain.MethodVNPay), &scriptedChecker{}, &fakeCallbacks{}, nil), repo, repo, zap.NewNop())
	defer m.Close()

	f, err := m.Start(req)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := f.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.PhasePendingUnconfirmed, final.Phase)

	// The reconciliation worker settles the row after the flow has ended.
	repo.mu.Lock()
	stored := repo.saved[f.ID()]
	stored.Phase = domain.PhasePaid
	stored.Message = "settled later"
	repo.saved[f.ID()] = stored
	repo.mu.Unlock()

	got, err := m.Get(context.Background(), f.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePaid, got.Phase)
	assert.Equal(t, "settled later", got.Message)
	assert.Equal(t, final.Attempts, got.Attempts)
}

func TestManager_StartAfterClose(t *testing.T) {
	m := confirmation.NewManager(newController(booking(domain.MethodVNPay), &scriptedChecker{}, &fakeCallbacks{}, nil), nil, nil, zap.NewNop())
	m.Close()

	f, err := m.Start(req)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, confirmation.ErrManagerClosed)
}
