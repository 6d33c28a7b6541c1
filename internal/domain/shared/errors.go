package shared

import "errors"

// Domain-specific errors
var (
	// Listing errors
	ErrListingNotFound    = errors.New("listing not found")
	ErrListingNotBiddable = errors.New("listing is not available for bidding")
	ErrNotFixedPrice      = errors.New("listing is not available for direct purchase")
	ErrListingTerminal    = errors.New("listing is already sold or cancelled")
	ErrAuctionEnded       = errors.New("auction has ended")
	ErrAuctionEndRequired = errors.New("auction end time is required")
	ErrInvalidEndTime     = errors.New("auction end time must be in the future")
	ErrInvalidPrice       = errors.New("price must be greater than 0")

	// Bid errors
	ErrBidAmountInvalid = errors.New("bid amount must be greater than 0")
	ErrBidTooLow        = errors.New("bid must be higher than current highest bid")
	ErrSelfTrade        = errors.New("cannot trade on your own listing")
	ErrNoActiveBids     = errors.New("no active bids found")
	ErrBidNotFound      = errors.New("bid not found")
	ErrBidNotActive     = errors.New("bid is no longer active")
	ErrNotBidOwner      = errors.New("bid belongs to another user")
	ErrNotSeller        = errors.New("only the seller can accept a bid")

	// Wallet errors
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidAmount     = errors.New("amount must be greater than 0")

	// Order and verification errors
	ErrOrderNotFound       = errors.New("order not found")
	ErrPayloadInvalid      = errors.New("invalid payload format")
	ErrPayloadExpired      = errors.New("QR code has expired")
	ErrPayloadMismatch     = errors.New("order details do not match QR code")
	ErrNoVerificationCode  = errors.New("order carries no verification code")
	ErrNotOrderParticipant = errors.New("order belongs to other users")

	// Payment errors
	ErrPaymentUnavailable  = errors.New("payment processing unavailable")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrPaymentNotFound     = errors.New("payment record not found")

	// Chat errors
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrEmptyMessage         = errors.New("message body is required")

	// Validation errors
	ErrInvalidRequest = errors.New("invalid request")

	// Database errors
	ErrDatabaseConnection  = errors.New("database connection failed")
	ErrDatabaseQuery       = errors.New("database query failed")
	ErrDatabaseTransaction = errors.New("database transaction failed")

	// WebSocket message validation errors
	ErrMessageTypeRequired        = errors.New("message type is required")
	ErrListingIDRequired          = errors.New("listing_id is required")
	ErrUnknownMessageType         = errors.New("unknown message type")
	ErrClientEventChannelNotFound = errors.New("event channel not found for client")
)
