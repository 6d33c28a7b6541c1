package bid

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of a bid
type Status string

const (
	StatusActive    Status = "active"
	StatusOutbid    Status = "outbid"
	StatusWithdrawn Status = "withdrawn"
	StatusExpired   Status = "expired"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// Bid represents an offer on a listing
type Bid struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"nft_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an active bid
func New(listingID, bidderID uuid.UUID, amount float64) *Bid {
	now := time.Now()
	return &Bid{
		ID:        uuid.New(),
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive returns true if the bid has not been superseded, withdrawn or resolved
func (b *Bid) IsActive() bool {
	return b.Status == StatusActive
}

// Outbid marks the bid as superseded by a higher one
func (b *Bid) Outbid() {
	b.Status = StatusOutbid
	b.UpdatedAt = time.Now()
}

// Withdraw marks the bid as withdrawn by its bidder
func (b *Bid) Withdraw() {
	b.Status = StatusWithdrawn
	b.UpdatedAt = time.Now()
}

// Accept marks the bid as the one that won the listing
func (b *Bid) Accept() {
	b.Status = StatusAccepted
	b.UpdatedAt = time.Now()
}

// Reject marks the bid as declined on settlement
func (b *Bid) Reject() {
	b.Status = StatusRejected
	b.UpdatedAt = time.Now()
}
