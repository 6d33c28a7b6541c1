package inbound

import (
	"context"
	"time"

	"nft-market-service/internal/domain/bid"
	"nft-market-service/internal/domain/chat"
	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
)

// ListingService defines the interface for listing lifecycle operations
type ListingService interface {
	// CreateListing creates a new listing with its sale type
	CreateListing(ctx context.Context, req CreateListingRequest) (*listing.Listing, error)

	// GetListing retrieves a listing by ID
	GetListing(ctx context.Context, listingID uuid.UUID) (*listing.Listing, error)

	// ListListings retrieves listings matching the filter
	ListListings(ctx context.Context, filter outbound.ListingFilter) ([]*listing.Listing, error)

	// UpdateListing updates mutable fields while the listing is open
	UpdateListing(ctx context.Context, req UpdateListingRequest) (*listing.Listing, error)

	// CancelListing cancels an open listing
	CancelListing(ctx context.Context, listingID, requesterID uuid.UUID) error

	// Purchase buys a fixed-price listing outright. With delivery set, the
	// order is created awaiting verification and the seller is paid only
	// after the QR proof-of-receipt completes.
	Purchase(ctx context.Context, req PurchaseRequest) (*order.Order, error)
}

// BidService defines the interface for bid ledger operations
type BidService interface {
	// PlaceBid places a new bid on a listing
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// GetActiveBids retrieves active bids for a listing, highest first
	GetActiveBids(ctx context.Context, listingID uuid.UUID) ([]*bid.Bid, error)

	// WithdrawBid withdraws the caller's own active bid
	WithdrawBid(ctx context.Context, bidID, bidderID uuid.UUID) error

	// AcceptBid lets the seller of an open-bid listing accept an offer,
	// completing the trade at the bid amount
	AcceptBid(ctx context.Context, bidID, sellerID uuid.UUID) (*order.Order, error)
}

// SettlementService defines the interface for expired-auction settlement
type SettlementService interface {
	// ProcessExpired sweeps all currently expired open auctions once,
	// settling each independently
	ProcessExpired(ctx context.Context) (*shared.SweepResult, error)

	// SettleListing settles a single expired auction listing
	SettleListing(ctx context.Context, listingID uuid.UUID) shared.SettlementResult
}

// VerificationService defines the interface for QR order verification
type VerificationService interface {
	// GenerateQR produces the QR payload and PNG image for an order the
	// requester participates in
	GenerateQR(ctx context.Context, orderID, requesterID uuid.UUID) (*QRCode, error)

	// VerifyPayload validates a scanned opaque payload against stored order
	// data
	VerifyPayload(ctx context.Context, encodedPayload, requesterIP string) (*VerificationResult, error)

	// VerifyByCode validates an order directly by verification code,
	// bypassing the blob decode
	VerifyByCode(ctx context.Context, code string, orderID uuid.UUID, requesterIP string) (*VerificationResult, error)

	// CompletePayment releases payment to the seller once the buyer
	// confirms receipt. Idempotent on already completed orders.
	CompletePayment(ctx context.Context, verificationCode string) (*shared.PaymentResult, error)
}

// WalletService defines the interface for wallet top-ups
type WalletService interface {
	// GetBalance returns a user's current wallet balance
	GetBalance(ctx context.Context, userID uuid.UUID) (float64, error)

	// CreateTopUp opens a payment intent with the external processor
	CreateTopUp(ctx context.Context, userID uuid.UUID, amount float64) (*TopUpIntent, error)

	// ConfirmTopUp checks the intent with the processor and credits the
	// wallet. Idempotent on already completed payments.
	ConfirmTopUp(ctx context.Context, userID uuid.UUID, intentID string) (*TopUpResult, error)
}

// OrderService defines the interface for order queries
type OrderService interface {
	// GetOrder retrieves an order the requester participates in
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID) (*order.Order, error)

	// ListOrders retrieves the requester's orders, newest first, with total
	ListOrders(ctx context.Context, requesterID uuid.UUID, status *order.Status, page, pageSize int) ([]*order.Order, int, error)
}

// ChatService defines the interface for listing-scoped conversations
type ChatService interface {
	// StartConversation opens (or returns the existing) thread between the
	// caller and a listing's owner
	StartConversation(ctx context.Context, listingID, buyerID uuid.UUID) (*chat.Conversation, error)

	// ListConversations returns the caller's conversations
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*chat.Conversation, error)

	// SendMessage appends a message to a conversation the caller
	// participates in
	SendMessage(ctx context.Context, req SendMessageRequest) (*chat.Message, error)

	// ListMessages returns a conversation's messages oldest first
	ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, page, pageSize int) ([]*chat.Message, error)
}

// request to create a listing
type CreateListingRequest struct {
	CreatorID      uuid.UUID        `json:"creator_id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	MediaURL       string           `json:"media_url"`
	Price          float64          `json:"price"`
	SaleType       listing.SaleType `json:"sale_type"`
	AuctionEndTime *time.Time       `json:"auction_end_time,omitempty"`
}

// request to update a listing
type UpdateListingRequest struct {
	ListingID   uuid.UUID `json:"nft_id"`
	RequesterID uuid.UUID `json:"-"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
}

// request to buy a fixed-price listing
type PurchaseRequest struct {
	ListingID uuid.UUID `json:"nft_id"`
	BuyerID   uuid.UUID `json:"-"`
	Delivery  bool      `json:"delivery"`
}

// request to place a bid
type PlaceBidRequest struct {
	ListingID uuid.UUID `json:"nft_id"`
	BidderID  uuid.UUID `json:"-"`
	Amount    float64   `json:"amount"`
}

// request to send a chat message
type SendMessageRequest struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"-"`
	Body           string    `json:"message"`
}

// QRCode bundles the canonical payload with its rendered PNG
type QRCode struct {
	OrderID uuid.UUID `json:"order_id"`
	Payload string    `json:"payload"`
	PNG     []byte    `json:"-"`
}

// VerificationResult is the outcome of a scan verification
type VerificationResult struct {
	IsValid   bool         `json:"isValid"`
	Order     *order.Order `json:"order,omitempty"`
	ScannedAt time.Time    `json:"scannedAt"`
	Error     string       `json:"error,omitempty"`
}

// TopUpIntent is returned when a top-up payment is opened
type TopUpIntent struct {
	IntentID     string  `json:"payment_intent_id"`
	ClientSecret string  `json:"client_secret"`
	CreditAmount float64 `json:"credit_amount"`
}

// TopUpResult is returned when a top-up payment is confirmed
type TopUpResult struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	CreditAmount float64 `json:"credit_amount,omitempty"`
}
