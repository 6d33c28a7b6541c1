package chat

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a listing-scoped thread between a buyer and a seller
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"nft_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasParticipant returns true if the user belongs to the conversation
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Message is a single chat message inside a conversation
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}
