package worker

import (
	"context"
	"time"

	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/repo"

	"go.uber.org/zap"
)

const (
	batchSize       = 50
	resolvedMessage = "Payment confirmed by the provider after a delay."
)

type StatusChecker interface {
	CheckPaymentSmart(ctx context.Context, transactionID, bookingID string, method domain.PaymentMethod) (domain.PaymentCheckResult, error)
}

// ReconciliationWorker revisits confirmations that ended pending_unconfirmed
// and marks the ones the provider now reports as paid. It never cancels
// bookings and never marks anything failed.
type ReconciliationWorker struct {
	confirmations repo.ConfirmationRepo
	checker       StatusChecker
	interval      time.Duration
	pendingAge    time.Duration
	logger        *zap.Logger
}

func NewReconciliationWorker(
	confirmations repo.ConfirmationRepo,
	checker StatusChecker,
	interval time.Duration,
	pendingAge time.Duration,
	logger *zap.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		confirmations: confirmations,
		checker:       checker,
		interval:      interval,
		pendingAge:    pendingAge,
		logger:        logger,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("reconciliation worker started", zap.Duration("interval", rw.interval))

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			if _, err := rw.Process(ctx); err != nil {
				rw.logger.Error("reconciliation failed", zap.Error(err))
			}
		}
	}
}

// Process runs one reconciliation pass and returns how many confirmations
// were resolved as paid.
func (rw *ReconciliationWorker) Process(ctx context.Context) (int, error) {
	stuck, err := rw.confirmations.FindPendingBefore(ctx, time.Now().Add(-rw.pendingAge), batchSize)
	if err != nil {
		return 0, err
	}
	if len(stuck) == 0 {
		return 0, nil
	}

	rw.logger.Info("rechecking pending payments", zap.Int("count", len(stuck)))

	resolved := 0
	for _, c := range stuck {
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}

		log := rw.logger.With(
			zap.String("confirmation_id", c.ID.String()),
			zap.String("transaction_id", c.TransactionID),
		)

		res, err := rw.checker.CheckPaymentSmart(ctx, c.TransactionID, c.BookingID, c.Method)
		if err != nil {
			log.Warn("recheck failed", zap.Error(err))
		}
		if err != nil || !res.Paid() {
			// Move the row to the back of the queue until pendingAge passes again.
			if err := rw.confirmations.Touch(ctx, c.ID); err != nil {
				log.Error("failed to reschedule confirmation", zap.Error(err))
			}
			continue
		}

		if err := rw.confirmations.UpdatePhase(ctx, c.ID, domain.PhasePaid, resolvedMessage); err != nil {
			log.Error("failed to mark confirmation paid", zap.Error(err))
			continue
		}
		log.Info("pending payment resolved as paid")
		resolved++
	}
	return resolved, nil
}
