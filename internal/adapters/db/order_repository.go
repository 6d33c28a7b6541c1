package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
)

const orderColumns = `id, nft_id, buyer_id, seller_id, price, status, verification_code, verified_at, created_at, updated_at`

// OrderRepository implements the order repository interface
type OrderRepository struct {
	conn *Connection
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(conn *Connection) *OrderRepository {
	return &OrderRepository{conn: conn}
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	o, err := scanOrder(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}

func (r *OrderRepository) GetByVerificationCode(ctx context.Context, code string) (*order.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE verification_code = $1`, orderColumns)

	o, err := scanOrder(r.conn.GetDB().QueryRowContext(ctx, query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by code: %w", err)
	}

	return o, nil
}

// List retrieves orders matching the filter, newest first, along with the
// total matching count for pagination
func (r *OrderRepository) List(ctx context.Context, filter outbound.OrderFilter) ([]*order.Order, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(" AND (buyer_id = $%d OR seller_id = $%d)", len(args), len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders %s`, where)
	if err := r.conn.GetDB().QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

// RecordScan appends a scan-audit row for an order
func (r *OrderRepository) RecordScan(ctx context.Context, orderID uuid.UUID, scannedByIP string, at time.Time) error {
	query := `
		INSERT INTO qr_records (id, order_id, scanned_at, scanned_by_ip, status)
		VALUES ($1, $2, $3, $4, 'scanned')
	`

	if _, err := r.conn.GetDB().ExecContext(ctx, query, uuid.New(), orderID, at, scannedByIP); err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}

	return nil
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	var code sql.NullString
	err := row.Scan(
		&o.ID,
		&o.ListingID,
		&o.BuyerID,
		&o.SellerID,
		&o.Price,
		&o.Status,
		&code,
		&o.VerifiedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if code.Valid {
		o.VerificationCode = code.String
	}
	return &o, nil
}
