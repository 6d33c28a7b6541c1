package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/domain/wallet"

	"github.com/google/uuid"
)

// PaymentRepository implements the top-up payment repository interface
type PaymentRepository struct {
	conn *Connection
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(conn *Connection) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

func (r *PaymentRepository) Create(ctx context.Context, p *wallet.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, intent_id, fiat_amount, credit_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.IntentID,
		p.FiatAmount,
		p.CreditAmount,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *PaymentRepository) GetByIntentID(ctx context.Context, intentID string, userID uuid.UUID) (*wallet.Payment, error) {
	query := `
		SELECT id, user_id, intent_id, fiat_amount, credit_amount, status, created_at, updated_at
		FROM payments
		WHERE intent_id = $1 AND user_id = $2
	`

	var p wallet.Payment
	err := r.conn.GetDB().QueryRowContext(ctx, query, intentID, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.IntentID,
		&p.FiatAmount,
		&p.CreditAmount,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &p, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status wallet.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrPaymentNotFound
	}

	return nil
}
