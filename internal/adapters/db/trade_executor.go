package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/domain/wallet"

	"github.com/google/uuid"
)

// TradeExecutor implements the atomic trade operations. Each operation is
// one serializable unit of work: the listing row is locked first, profile
// rows are locked in deterministic order, and every precondition is
// re-checked under the locks. Application-level validation that ran before
// reaching here is advisory only.
type TradeExecutor struct {
	conn *Connection
}

// NewTradeExecutor creates a new trade executor
func NewTradeExecutor(conn *Connection) *TradeExecutor {
	return &TradeExecutor{conn: conn}
}

// CompleteTrade atomically debits the buyer, credits the seller, transfers
// ownership, marks the listing sold, resolves its bids and creates a
// completed order.
//
// A listing that already reached sold or cancelled fails with
// ErrListingNotBiddable, which makes concurrent settlement sweeps safe:
// the second sweep's attempt is rejected under the row lock instead of
// settling twice.
func (e *TradeExecutor) CompleteTrade(ctx context.Context, listingID, buyerID uuid.UUID, amount float64) (*order.Order, error) {
	var created *order.Order

	err := e.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		sellerID, err := lockOpenListing(ctx, tx, listingID)
		if err != nil {
			return err
		}

		if sellerID == buyerID {
			return shared.ErrSelfTrade
		}

		if err := transferFunds(ctx, tx, buyerID, sellerID, amount, true); err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE nfts SET owner_id = $2, status = 'sold', updated_at = $3 WHERE id = $1
		`, listingID, buyerID, now); err != nil {
			return fmt.Errorf("failed to transfer listing ownership: %w", err)
		}

		if err := resolveBids(ctx, tx, listingID, buyerID, amount, now); err != nil {
			return err
		}

		created = &order.Order{
			ID:        uuid.New(),
			ListingID: listingID,
			BuyerID:   buyerID,
			SellerID:  sellerID,
			Price:     amount,
			Status:    order.StatusCompleted,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, nft_id, buyer_id, seller_id, price, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, created.ID, created.ListingID, created.BuyerID, created.SellerID, created.Price, created.Status, created.CreatedAt, created.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return created, nil
}

// CreateOrderWithVerification atomically debits the buyer, transfers
// ownership, marks the listing sold and creates an awaiting_verification
// order with a unique verification code. The seller's payment stays held
// until VerifyOrderPayment releases it.
func (e *TradeExecutor) CreateOrderWithVerification(ctx context.Context, listingID, buyerID uuid.UUID, amount float64) (*order.Order, error) {
	var created *order.Order

	err := e.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		sellerID, err := lockOpenListing(ctx, tx, listingID)
		if err != nil {
			return err
		}

		if sellerID == buyerID {
			return shared.ErrSelfTrade
		}

		// Debit only; the seller is credited on verification
		if err := transferFunds(ctx, tx, buyerID, sellerID, amount, false); err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE nfts SET owner_id = $2, status = 'sold', updated_at = $3 WHERE id = $1
		`, listingID, buyerID, now); err != nil {
			return fmt.Errorf("failed to transfer listing ownership: %w", err)
		}

		if err := resolveBids(ctx, tx, listingID, buyerID, amount, now); err != nil {
			return err
		}

		code, err := uniqueVerificationCode(ctx, tx)
		if err != nil {
			return err
		}

		created = &order.Order{
			ID:               uuid.New(),
			ListingID:        listingID,
			BuyerID:          buyerID,
			SellerID:         sellerID,
			Price:            amount,
			Status:           order.StatusAwaitingVerification,
			VerificationCode: code,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, nft_id, buyer_id, seller_id, price, status, verification_code, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, created.ID, created.ListingID, created.BuyerID, created.SellerID, created.Price, created.Status, created.VerificationCode, created.CreatedAt, created.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return created, nil
}

// VerifyOrderPayment releases the held payment to the seller for the order
// bound to the verification code. Calling it again for an already completed
// order succeeds without crediting the seller a second time.
func (e *TradeExecutor) VerifyOrderPayment(ctx context.Context, verificationCode string) (*shared.PaymentResult, error) {
	var result *shared.PaymentResult

	err := e.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		var orderID, listingID, sellerID uuid.UUID
		var price float64
		var status string
		err := tx.QueryRowContext(ctx, `
			SELECT id, nft_id, seller_id, price, status
			FROM orders
			WHERE verification_code = $1
			FOR UPDATE
		`, verificationCode).Scan(&orderID, &listingID, &sellerID, &price, &status)
		if err != nil {
			if err == sql.ErrNoRows {
				result = &shared.PaymentResult{Success: false, Message: "Invalid verification code"}
				return nil
			}
			return fmt.Errorf("failed to get order for verification: %w", err)
		}

		if status == string(order.StatusCompleted) {
			result = &shared.PaymentResult{Success: true, Message: "Order already verified", OrderID: &orderID}
			return nil
		}

		if status != string(order.StatusAwaitingVerification) {
			result = &shared.PaymentResult{Success: false, Message: "Order is not awaiting verification", OrderID: &orderID}
			return nil
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET wallet_balance = wallet_balance + $2, updated_at = $3 WHERE id = $1
		`, sellerID, price, now); err != nil {
			return fmt.Errorf("failed to credit seller: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = 'completed', verified_at = $2, updated_at = $2 WHERE id = $1
		`, orderID, now); err != nil {
			return fmt.Errorf("failed to complete order: %w", err)
		}

		// Make sure the listing reads as sold even if the purchase path was
		// interrupted before updating it
		if _, err := tx.ExecContext(ctx, `
			UPDATE nfts SET status = 'sold', updated_at = $2 WHERE id = $1 AND status != 'sold'
		`, listingID, now); err != nil {
			return fmt.Errorf("failed to mark listing sold: %w", err)
		}

		result = &shared.PaymentResult{Success: true, Message: "Order verified and payment completed", OrderID: &orderID}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// CreditTopUp credits a confirmed top-up to the user's wallet and marks the
// payment completed in the same transaction. The payment row is locked
// first; one that already reads completed is skipped, so a retry after any
// partial failure never credits twice.
func (e *TradeExecutor) CreditTopUp(ctx context.Context, paymentID, userID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return shared.ErrInvalidAmount
	}

	return e.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `
			SELECT status FROM payments WHERE id = $1 AND user_id = $2 FOR UPDATE
		`, paymentID, userID).Scan(&status)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrPaymentNotFound
			}
			return fmt.Errorf("failed to lock payment: %w", err)
		}

		if status == string(wallet.PaymentCompleted) {
			return nil
		}

		now := time.Now()
		result, err := tx.ExecContext(ctx, `
			UPDATE profiles SET wallet_balance = wallet_balance + $2, updated_at = $3 WHERE id = $1
		`, userID, amount, now)
		if err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return shared.ErrProfileNotFound
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1
		`, paymentID, wallet.PaymentCompleted, now); err != nil {
			return fmt.Errorf("failed to mark payment completed: %w", err)
		}

		return nil
	})
}

// lockOpenListing locks the listing row and returns its current owner.
// Listings outside available/active are rejected, which doubles as the
// double-settlement guard.
func lockOpenListing(ctx context.Context, tx *sql.Tx, listingID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	var status string
	err := tx.QueryRowContext(ctx, `
		SELECT owner_id, status FROM nfts WHERE id = $1 FOR UPDATE
	`, listingID).Scan(&ownerID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, shared.ErrListingNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to lock listing: %w", err)
	}

	if status != "available" && status != "active" {
		return uuid.Nil, shared.ErrListingNotBiddable
	}

	return ownerID, nil
}

// transferFunds locks both profile rows in deterministic order, re-checks
// the buyer's balance under the lock, debits the buyer and optionally
// credits the seller in the same transaction.
func transferFunds(ctx context.Context, tx *sql.Tx, buyerID, sellerID uuid.UUID, amount float64, creditSeller bool) error {
	first, second := buyerID, sellerID
	if second.String() < first.String() {
		first, second = second, first
	}

	var balances [2]float64
	for i, id := range []uuid.UUID{first, second} {
		err := tx.QueryRowContext(ctx, `
			SELECT wallet_balance FROM profiles WHERE id = $1 FOR UPDATE
		`, id).Scan(&balances[i])
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrProfileNotFound
			}
			return fmt.Errorf("failed to lock profile: %w", err)
		}
	}

	buyerBalance := balances[0]
	if first != buyerID {
		buyerBalance = balances[1]
	}
	if buyerBalance < amount {
		return shared.ErrInsufficientFunds
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE profiles SET wallet_balance = wallet_balance - $2, updated_at = $3 WHERE id = $1
	`, buyerID, amount, now); err != nil {
		return fmt.Errorf("failed to debit buyer: %w", err)
	}

	if creditSeller {
		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET wallet_balance = wallet_balance + $2, updated_at = $3 WHERE id = $1
		`, sellerID, amount, now); err != nil {
			return fmt.Errorf("failed to credit seller: %w", err)
		}
	}

	return nil
}

// resolveBids marks the winning bid accepted and every other still-active
// bid rejected once a listing sells
func resolveBids(ctx context.Context, tx *sql.Tx, listingID, buyerID uuid.UUID, amount float64, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE bids SET status = 'accepted', updated_at = $4
		WHERE nft_id = $1 AND bidder_id = $2 AND amount = $3 AND status = 'active'
	`, listingID, buyerID, amount, now); err != nil {
		return fmt.Errorf("failed to accept winning bid: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bids SET status = 'rejected', updated_at = $2
		WHERE nft_id = $1 AND status = 'active'
	`, listingID, now); err != nil {
		return fmt.Errorf("failed to reject remaining bids: %w", err)
	}

	return nil
}

// uniqueVerificationCode generates a verification code, regenerating on the
// rare collision with an existing order
func uniqueVerificationCode(ctx context.Context, tx *sql.Tx) (string, error) {
	for {
		code := order.GenerateVerificationCode()

		var exists bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM orders WHERE verification_code = $1)
		`, code).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("failed to check verification code uniqueness: %w", err)
		}

		if !exists {
			return code, nil
		}
	}
}
