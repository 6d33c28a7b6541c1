package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
)

const listingColumns = `id, title, description, media_url, price, sale_type, status, auction_end_time, owner_id, creator_id, created_at, updated_at`

// ListingRepository implements the listing repository interface
type ListingRepository struct {
	conn *Connection
}

// NewListingRepository creates a new listing repository
func NewListingRepository(conn *Connection) *ListingRepository {
	return &ListingRepository{conn: conn}
}

func (r *ListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	query := `
		INSERT INTO nfts (id, title, description, media_url, price, sale_type, status, auction_end_time, owner_id, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		l.ID,
		l.Title,
		l.Description,
		l.MediaURL,
		l.Price,
		l.SaleType,
		l.Status,
		l.AuctionEndTime,
		l.OwnerID,
		l.CreatorID,
		l.CreatedAt,
		l.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM nfts WHERE id = $1`, listingColumns)

	l, err := scanListing(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return l, nil
}

// List retrieves listings matching the filter, newest first
func (r *ListingRepository) List(ctx context.Context, filter outbound.ListingFilter) ([]*listing.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM nfts WHERE status != 'deleted'`, listingColumns)
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.SaleType != nil {
		args = append(args, *filter.SaleType)
		query += fmt.Sprintf(" AND sale_type = $%d", len(args))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func (r *ListingRepository) Update(ctx context.Context, l *listing.Listing) error {
	query := `
		UPDATE nfts
		SET title = $2, description = $3, media_url = $4, price = $5, status = $6, owner_id = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query,
		l.ID,
		l.Title,
		l.Description,
		l.MediaURL,
		l.Price,
		l.Status,
		l.OwnerID,
		l.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrListingNotFound
	}

	return nil
}

// UpdateStatus transitions a listing's status. Sold and cancelled are
// terminal; the WHERE clause keeps them from ever being overwritten.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status listing.Status) error {
	query := `
		UPDATE nfts
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status NOT IN ('sold', 'cancelled')
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update listing status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Zero rows means either no such listing or a terminal one; re-check
		// so callers can tell the two apart
		var exists bool
		if err := r.conn.GetDB().QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM nfts WHERE id = $1)
		`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check listing existence: %w", err)
		}
		if !exists {
			return shared.ErrListingNotFound
		}
		return shared.ErrListingTerminal
	}

	return nil
}

// GetExpiredAuctions retrieves open auction listings whose end time has passed
func (r *ListingRepository) GetExpiredAuctions(ctx context.Context, now time.Time) ([]*listing.Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM nfts
		WHERE sale_type = 'auction'
		  AND status IN ('available', 'active')
		  AND auction_end_time < $1
		ORDER BY auction_end_time ASC
	`, listingColumns)

	rows, err := r.conn.GetDB().QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired auctions: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*listing.Listing, error) {
	var l listing.Listing
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.MediaURL,
		&l.Price,
		&l.SaleType,
		&l.Status,
		&l.AuctionEndTime,
		&l.OwnerID,
		&l.CreatorID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectListings(rows *sql.Rows) ([]*listing.Listing, error) {
	var listings []*listing.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}
