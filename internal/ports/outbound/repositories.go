package outbound

import (
	"context"
	"time"

	"nft-market-service/internal/domain/bid"
	"nft-market-service/internal/domain/chat"
	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/profile"
	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// ListingFilter narrows listing queries
type ListingFilter struct {
	Status   *listing.Status
	SaleType *listing.SaleType
	OwnerID  *uuid.UUID
	Page     int
	PageSize int
}

// ListingRepository defines the interface for listing data operations
type ListingRepository interface {
	// Create persists a new listing
	Create(ctx context.Context, l *listing.Listing) error

	// GetByID retrieves a listing by ID
	GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error)

	// List retrieves listings matching the filter
	List(ctx context.Context, filter ListingFilter) ([]*listing.Listing, error)

	// Update updates a listing's mutable fields
	Update(ctx context.Context, l *listing.Listing) error

	// UpdateStatus transitions a listing's status. Terminal listings are
	// never overwritten; the update is a no-op for them.
	UpdateStatus(ctx context.Context, id uuid.UUID, status listing.Status) error

	// GetExpiredAuctions retrieves open auction listings whose end time has
	// passed
	GetExpiredAuctions(ctx context.Context, now time.Time) ([]*listing.Listing, error)
}

// BidRepository defines the interface for bid data operations
type BidRepository interface {
	// Place inserts a new active bid. When exclusive is true all prior
	// active bids on the listing flip to outbid and the highest-bid rule is
	// re-checked, all within a single transaction.
	Place(ctx context.Context, b *bid.Bid, exclusive bool) error

	// GetByID retrieves a bid by ID
	GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error)

	// GetActiveByListing retrieves active bids for a listing ordered by
	// amount descending
	GetActiveByListing(ctx context.Context, listingID uuid.UUID) ([]*bid.Bid, error)

	// GetHighestActive retrieves the highest active bid for a listing, or
	// shared.ErrNoActiveBids
	GetHighestActive(ctx context.Context, listingID uuid.UUID) (*bid.Bid, error)

	// UpdateStatus transitions a single bid's status
	UpdateStatus(ctx context.Context, id uuid.UUID, status bid.Status) error
}

// OrderFilter narrows order queries
type OrderFilter struct {
	UserID   *uuid.UUID
	Status   *order.Status
	Page     int
	PageSize int
}

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)

	// GetByVerificationCode retrieves an order by its verification code
	GetByVerificationCode(ctx context.Context, code string) (*order.Order, error)

	// List retrieves orders matching the filter, newest first
	List(ctx context.Context, filter OrderFilter) ([]*order.Order, int, error)

	// RecordScan appends a scan-audit row for an order. Callers treat
	// failures as best-effort.
	RecordScan(ctx context.Context, orderID uuid.UUID, scannedByIP string, at time.Time) error
}

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	// GetByID retrieves a profile by ID
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)

	// Create creates a new profile
	Create(ctx context.Context, p *profile.Profile) error
}

// ChatRepository defines the interface for conversation and message data
type ChatRepository interface {
	// CreateConversation persists a conversation
	CreateConversation(ctx context.Context, c *chat.Conversation) error

	// FindConversation looks up an existing thread for a listing and buyer
	FindConversation(ctx context.Context, listingID, buyerID uuid.UUID) (*chat.Conversation, error)

	// GetConversation retrieves a conversation by ID
	GetConversation(ctx context.Context, id uuid.UUID) (*chat.Conversation, error)

	// ListConversations retrieves all conversations a user participates in
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*chat.Conversation, error)

	// CreateMessage persists a message
	CreateMessage(ctx context.Context, m *chat.Message) error

	// ListMessages retrieves a conversation's messages oldest first
	ListMessages(ctx context.Context, conversationID uuid.UUID, page, pageSize int) ([]*chat.Message, error)
}

// TradeExecutor performs the operations that must be a single atomic unit
// at the data-store layer: fund transfer, ownership transfer and order
// creation. Application-level checks are advisory only; these operations
// re-validate everything inside one transaction.
type TradeExecutor interface {
	// CompleteTrade debits the buyer, credits the seller, transfers
	// ownership, marks the listing sold, resolves its bids and creates a
	// completed order. Fails with shared.ErrListingNotBiddable if the
	// listing already reached a terminal state.
	CompleteTrade(ctx context.Context, listingID, buyerID uuid.UUID, amount float64) (*order.Order, error)

	// CreateOrderWithVerification debits the buyer, transfers ownership,
	// marks the listing sold and creates an awaiting_verification order
	// carrying a unique verification code. The seller is credited only when
	// the order is later verified.
	CreateOrderWithVerification(ctx context.Context, listingID, buyerID uuid.UUID, amount float64) (*order.Order, error)

	// VerifyOrderPayment releases payment to the seller for the order bound
	// to the verification code. Re-invocation on an already completed order
	// is a no-op success.
	VerifyOrderPayment(ctx context.Context, verificationCode string) (*shared.PaymentResult, error)

	// CreditTopUp credits a confirmed top-up to the user's wallet and marks
	// the payment completed in the same transaction. Skips payments that
	// already read completed, so retries never credit twice.
	CreditTopUp(ctx context.Context, paymentID, userID uuid.UUID, amount float64) error
}
