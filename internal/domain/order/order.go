package order

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of an order
type Status string

const (
	StatusPending              Status = "pending"
	StatusAwaitingVerification Status = "awaiting_verification"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
	StatusFailed               Status = "failed"
)

// Order records a completed or in-flight trade of a listing
type Order struct {
	ID               uuid.UUID  `json:"id"`
	ListingID        uuid.UUID  `json:"nft_id"`
	BuyerID          uuid.UUID  `json:"buyer_id"`
	SellerID         uuid.UUID  `json:"seller_id"`
	Price            float64    `json:"price"`
	Status           Status     `json:"status"`
	VerificationCode string     `json:"verification_code,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsCompleted returns true once payment has been released to the seller
func (o *Order) IsCompleted() bool {
	return o.Status == StatusCompleted
}

// AwaitsVerification returns true while the order waits for a scan-based
// proof of receipt
func (o *Order) AwaitsVerification() bool {
	return o.Status == StatusAwaitingVerification
}

// Verifiable returns true for orders a scan may attest to: those awaiting
// verification and those already completed. Pending, cancelled and failed
// orders never verify.
func (o *Order) Verifiable() bool {
	return o.AwaitsVerification() || o.IsCompleted()
}

// Involves returns true if the user is the order's buyer or seller
func (o *Order) Involves(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.SellerID == userID
}
