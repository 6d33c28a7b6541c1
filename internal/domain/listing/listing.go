package listing

import (
	"time"

	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// SaleType represents how a listing is sold
type SaleType string

const (
	SaleTypeFixed   SaleType = "fixed"
	SaleTypeAuction SaleType = "auction"
	SaleTypeOpenBid SaleType = "bid"
)

// Status represents the current status of a listing
type Status string

const (
	StatusAvailable Status = "available"
	StatusActive    Status = "active"
	StatusSold      Status = "sold"
	StatusCancelled Status = "cancelled"
	StatusDeleted   Status = "deleted"
	StatusDraft     Status = "draft"
)

// Listing represents a tradeable item record
type Listing struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	MediaURL       string     `json:"media_url"`
	Price          float64    `json:"price"`
	SaleType       SaleType   `json:"sale_type"`
	Status         Status     `json:"status"`
	AuctionEndTime *time.Time `json:"auction_end_time,omitempty"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	CreatorID      uuid.UUID  `json:"creator_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewFixedPrice creates a fixed-price listing. Fixed-price listings never
// carry an auction end time.
func NewFixedPrice(creatorID uuid.UUID, title, description, mediaURL string, price float64) (*Listing, error) {
	return newListing(creatorID, title, description, mediaURL, price, SaleTypeFixed, nil)
}

// NewAuction creates an auction listing; the end time is mandatory and must
// lie in the future.
func NewAuction(creatorID uuid.UUID, title, description, mediaURL string, startingPrice float64, endTime time.Time) (*Listing, error) {
	if endTime.IsZero() {
		return nil, shared.ErrAuctionEndRequired
	}
	if !endTime.After(time.Now()) {
		return nil, shared.ErrInvalidEndTime
	}
	return newListing(creatorID, title, description, mediaURL, startingPrice, SaleTypeAuction, &endTime)
}

// NewOpenBid creates an open-bid listing where multiple concurrent offers
// may coexist as active.
func NewOpenBid(creatorID uuid.UUID, title, description, mediaURL string, minimumPrice float64) (*Listing, error) {
	return newListing(creatorID, title, description, mediaURL, minimumPrice, SaleTypeOpenBid, nil)
}

func newListing(creatorID uuid.UUID, title, description, mediaURL string, price float64, saleType SaleType, endTime *time.Time) (*Listing, error) {
	if price <= 0 {
		return nil, shared.ErrInvalidPrice
	}
	now := time.Now()
	return &Listing{
		ID:             uuid.New(),
		Title:          title,
		Description:    description,
		MediaURL:       mediaURL,
		Price:          price,
		SaleType:       saleType,
		Status:         StatusAvailable,
		AuctionEndTime: endTime,
		OwnerID:        creatorID,
		CreatorID:      creatorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsOpen returns true if the listing accepts bids or purchases
func (l *Listing) IsOpen() bool {
	return l.Status == StatusAvailable || l.Status == StatusActive
}

// IsTerminal returns true if the listing reached a state that permits no
// further transitions
func (l *Listing) IsTerminal() bool {
	return l.Status == StatusSold || l.Status == StatusCancelled
}

// IsAuction returns true for auction listings
func (l *Listing) IsAuction() bool {
	return l.SaleType == SaleTypeAuction
}

// AuctionEnded reports whether an auction listing's end time has passed.
// Non-auction listings never end.
func (l *Listing) AuctionEnded(now time.Time) bool {
	if l.SaleType != SaleTypeAuction || l.AuctionEndTime == nil {
		return false
	}
	return l.AuctionEndTime.Before(now)
}

// OwnedBy returns true if the user is the creator or current owner
func (l *Listing) OwnedBy(userID uuid.UUID) bool {
	return l.CreatorID == userID || l.OwnerID == userID
}

// MarkSold transitions the listing to sold and hands ownership to the buyer
func (l *Listing) MarkSold(buyerID uuid.UUID) error {
	if l.IsTerminal() {
		return shared.ErrListingTerminal
	}
	l.Status = StatusSold
	l.OwnerID = buyerID
	l.UpdatedAt = time.Now()
	return nil
}

// MarkCancelled transitions the listing to cancelled
func (l *Listing) MarkCancelled() error {
	if l.IsTerminal() {
		return shared.ErrListingTerminal
	}
	l.Status = StatusCancelled
	l.UpdatedAt = time.Now()
	return nil
}
