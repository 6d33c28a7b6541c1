package db

import (
	"context"
	"database/sql"
	"fmt"

	"nft-market-service/internal/domain/profile"
	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// ProfileRepository implements the profile repository interface
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	query := `
		SELECT id, name, avatar_url, wallet_balance, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p profile.Profile
	err := r.conn.GetDB().QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.AvatarURL,
		&p.WalletBalance,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (id, name, avatar_url, wallet_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.AvatarURL,
		p.WalletBalance,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}
