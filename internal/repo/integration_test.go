package repo_test

import (
	"context"
	"testing"
	"time"

	"hotel-payment-confirm/internal/config"
	"hotel-payment-confirm/internal/database"
	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/repo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) database.Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("payments"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() { testcontainers.TerminateContainer(ctr) })
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	svc, err := database.Open(ctx, config.Database{
		Host: host, Port: port.Port(), Username: "postgres", Password: "postgres", Database: "payments", Schema: "public",
	})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	require.NoError(t, database.Migrate(ctx, svc.DB()))
	return svc
}

func TestPostgres_ConfirmationLifecycle(t *testing.T) {
	svc := startPostgres(t)
	ctx := context.Background()
	confirmations := repo.NewConfirmationRepo(svc.DB())
	checks := repo.NewCheckRepo(svc.DB())

	created := time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond)
	c := &domain.Confirmation{
		ID: uuid.New(), BookingID: "B1", TransactionID: "T1", Method: domain.MethodVNPay,
		Phase: domain.PhasePolling, CreatedAt: created, UpdatedAt: created,
	}
	require.NoError(t, confirmations.Upsert(ctx, c))

	c.Phase = domain.PhasePendingUnconfirmed
	c.Attempts = 6
	require.NoError(t, confirmations.Upsert(ctx, c))

	got, err := confirmations.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.PhasePendingUnconfirmed, got.Phase)
	assert.Equal(t, 6, got.Attempts)

	pending, err := confirmations.FindPendingBefore(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, confirmations.Touch(ctx, c.ID))
	pending, err = confirmations.FindPendingBefore(ctx, time.Now().Add(-30*time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, confirmations.UpdatePhase(ctx, c.ID, domain.PhasePaid, ""))
	pending, err = confirmations.FindPendingBefore(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	for i := 0; i < 3; i++ {
		require.NoError(t, checks.Create(ctx, &domain.CheckRecord{
			ID: uuid.NewString(), ConfirmationID: c.ID.String(), Attempt: i, Status: domain.CheckPending, CheckedAt: time.Now(),
		}))
	}
	list, err := checks.ListByConfirmation(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 2, list[2].Attempt)

	missing, err := confirmations.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Equal(t, "up", svc.Health(ctx)["status"])
}
