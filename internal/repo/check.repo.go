package repo

import (
	"context"
	"database/sql"

	"hotel-payment-confirm/internal/domain"

	"github.com/google/uuid"
)

type CheckRepo interface {
	Create(ctx context.Context, r *domain.CheckRecord) error
	ListByConfirmation(ctx context.Context, confirmationID uuid.UUID) ([]domain.CheckRecord, error)
}

type checkRepo struct {
	db *sql.DB
}

func NewCheckRepo(db *sql.DB) CheckRepo {
	return &checkRepo{db: db}
}

func (r *checkRepo) Create(ctx context.Context, rec *domain.CheckRecord) error {
	query := `INSERT INTO payment_checks (id, confirmation_id, attempt, status, error, checked_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.ConfirmationID, rec.Attempt, string(rec.Status), rec.Error, rec.CheckedAt,
	)
	return err
}

func (r *checkRepo) ListByConfirmation(ctx context.Context, confirmationID uuid.UUID) ([]domain.CheckRecord, error) {
	query := `
		SELECT id, confirmation_id, attempt, status, error, checked_at
		FROM payment_checks
		WHERE confirmation_id = $1
		ORDER BY attempt, checked_at
	`
	rows, err := r.db.QueryContext(ctx, query, confirmationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CheckRecord
	for rows.Next() {
		var (
			rec    domain.CheckRecord
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.ConfirmationID, &rec.Attempt, &status, &rec.Error, &rec.CheckedAt); err != nil {
			return nil, err
		}
		rec.Status = domain.CheckStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
