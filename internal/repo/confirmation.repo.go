package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hotel-payment-confirm/internal/domain"

	"github.com/google/uuid"
)

type ConfirmationRepo interface {
	// Upsert inserts or overwrites the confirmation by id.
	Upsert(ctx context.Context, c *domain.Confirmation) error
	// FindByID returns nil, nil when the confirmation does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Confirmation, error)
	// FindPendingBefore lists pending_unconfirmed confirmations last updated before the given time.
	FindPendingBefore(ctx context.Context, before time.Time, limit int) ([]domain.Confirmation, error)
	UpdatePhase(ctx context.Context, id uuid.UUID, phase domain.Phase, message string) error
	// Touch bumps updated_at so FindPendingBefore moves past the row.
	Touch(ctx context.Context, id uuid.UUID) error
}

type confirmationRepo struct {
	db *sql.DB
}

func NewConfirmationRepo(db *sql.DB) ConfirmationRepo {
	return &confirmationRepo{db: db}
}

const confirmationColumns = `id, booking_id, transaction_id, payment_method, phase, message, attempts, created_at, updated_at`

func (r *confirmationRepo) Upsert(ctx context.Context, c *domain.Confirmation) error {
	query := `
		INSERT INTO confirmations (` + confirmationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET payment_method = EXCLUDED.payment_method,
		    phase = EXCLUDED.phase,
		    message = EXCLUDED.message,
		    attempts = EXCLUDED.attempts,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(
		ctx, query,
		c.ID, c.BookingID, c.TransactionID, string(c.Method), string(c.Phase), c.Message, c.Attempts, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *confirmationRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Confirmation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+confirmationColumns+` FROM confirmations WHERE id = $1`, id)
	c, err := scanConfirmation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *confirmationRepo) FindPendingBefore(ctx context.Context, before time.Time, limit int) ([]domain.Confirmation, error) {
	query := `
		SELECT ` + confirmationColumns + ` FROM confirmations
		WHERE phase = $1
		AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, string(domain.PhasePendingUnconfirmed), before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Confirmation
	for rows.Next() {
		c, err := scanConfirmation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *confirmationRepo) UpdatePhase(ctx context.Context, id uuid.UUID, phase domain.Phase, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE confirmations SET phase = $2, message = $3, updated_at = now() WHERE id = $1`,
		id, string(phase), message,
	)
	return err
}

func (r *confirmationRepo) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE confirmations SET updated_at = now() WHERE id = $1`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfirmation(s scanner) (*domain.Confirmation, error) {
	var (
		c      domain.Confirmation
		method string
		phase  string
	)
	err := s.Scan(
		&c.ID,
		&c.BookingID,
		&c.TransactionID,
		&method,
		&phase,
		&c.Message,
		&c.Attempts,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Method = domain.PaymentMethod(method)
	c.Phase = domain.Phase(phase)
	return &c, nil
}
