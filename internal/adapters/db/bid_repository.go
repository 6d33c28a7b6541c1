package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nft-market-service/internal/domain/bid"
	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// BidRepository implements the bid repository interface
type BidRepository struct {
	conn *Connection
}

// NewBidRepository creates a new bid repository
func NewBidRepository(conn *Connection) *BidRepository {
	return &BidRepository{conn: conn}
}

/*
Place inserts a new active bid.

When exclusive is true (auction listings) the whole sequence runs inside one
transaction:
 1. Lock the listing row so concurrent placements serialize
 2. Re-check the listing still accepts bids and the amount still beats the
    highest active bid
 3. Flip all prior active bids for the listing to outbid
 4. Insert the new bid as active

Two independent round trips would admit a race between two simultaneous high
bidders; the service-level checks are only a fast reject before this
authoritative sequence.
*/
func (r *BidRepository) Place(ctx context.Context, newBid *bid.Bid, exclusive bool) error {
	if !exclusive {
		return r.create(ctx, newBid)
	}

	return r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		var status string
		var price float64
		err := tx.QueryRowContext(ctx, `
			SELECT status, price FROM nfts WHERE id = $1 FOR UPDATE
		`, newBid.ListingID).Scan(&status, &price)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrListingNotFound
			}
			return fmt.Errorf("failed to lock listing for bid: %w", err)
		}

		if status != "available" && status != "active" {
			return shared.ErrListingNotBiddable
		}

		var highest sql.NullFloat64
		err = tx.QueryRowContext(ctx, `
			SELECT MAX(amount) FROM bids WHERE nft_id = $1 AND status = 'active'
		`, newBid.ListingID).Scan(&highest)
		if err != nil {
			return fmt.Errorf("failed to get highest active bid: %w", err)
		}

		floor := price
		if highest.Valid {
			floor = highest.Float64
		}
		if newBid.Amount <= floor {
			return shared.ErrBidTooLow
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bids SET status = 'outbid', updated_at = $2
			WHERE nft_id = $1 AND status = 'active'
		`, newBid.ListingID, newBid.CreatedAt); err != nil {
			return fmt.Errorf("failed to mark prior bids outbid: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bids (id, nft_id, bidder_id, amount, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, newBid.ID, newBid.ListingID, newBid.BidderID, newBid.Amount, newBid.Status, newBid.CreatedAt, newBid.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		return nil
	})
}

func (r *BidRepository) create(ctx context.Context, b *bid.Bid) error {
	query := `
		INSERT INTO bids (id, nft_id, bidder_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		b.ID,
		b.ListingID,
		b.BidderID,
		b.Amount,
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}

	return nil
}

func (r *BidRepository) GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT id, nft_id, bidder_id, amount, status, created_at, updated_at
		FROM bids
		WHERE id = $1
	`

	var b bid.Bid
	err := r.conn.GetDB().QueryRowContext(ctx, query, id).Scan(
		&b.ID,
		&b.ListingID,
		&b.BidderID,
		&b.Amount,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	return &b, nil
}

// GetActiveByListing retrieves all active bids for a listing, highest first
func (r *BidRepository) GetActiveByListing(ctx context.Context, listingID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT id, nft_id, bidder_id, amount, status, created_at, updated_at
		FROM bids
		WHERE nft_id = $1 AND status = 'active'
		ORDER BY amount DESC, created_at ASC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bids: %w", err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		var b bid.Bid
		err := rows.Scan(
			&b.ID,
			&b.ListingID,
			&b.BidderID,
			&b.Amount,
			&b.Status,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return bids, nil
}

// GetHighestActive retrieves the highest active bid for a listing
func (r *BidRepository) GetHighestActive(ctx context.Context, listingID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT id, nft_id, bidder_id, amount, status, created_at, updated_at
		FROM bids
		WHERE nft_id = $1 AND status = 'active'
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`

	var b bid.Bid
	err := r.conn.GetDB().QueryRowContext(ctx, query, listingID).Scan(
		&b.ID,
		&b.ListingID,
		&b.BidderID,
		&b.Amount,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrNoActiveBids
		}
		return nil, fmt.Errorf("failed to get highest bid: %w", err)
	}

	return &b, nil
}

// UpdateStatus transitions a single bid's status
func (r *BidRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status bid.Status) error {
	query := `
		UPDATE bids
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update bid status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrBidNotFound
	}

	return nil
}
