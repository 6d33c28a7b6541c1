package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypePing        MessageType = "ping"

	// Server to Client message types
	MessageTypeBidPlaced     MessageType = "bid_placed"
	MessageTypeAuctionEnded  MessageType = "auction_ended"
	MessageTypeListingSold   MessageType = "listing_sold"
	MessageTypeChatMessage   MessageType = "chat_message"
	MessageTypeListingUpdate MessageType = "listing_update"
	MessageTypeError         MessageType = "error"
	MessageTypePong          MessageType = "pong"
)

type ClientMessage struct {
	Type      MessageType            `json:"type"`
	ListingID *uuid.UUID             `json:"listing_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type      MessageType            `json:"type"`
	ListingID *uuid.UUID             `json:"listing_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     *string                `json:"error,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now().Unix(),
	}
}

func NewErrorMessage(err string, listingID *uuid.UUID) *ServerMessage {
	return &ServerMessage{
		Type:      MessageTypeError,
		ListingID: listingID,
		Error:     &err,
		Timestamp: time.Now().Unix(),
	}
}

func (m *ClientMessage) validateListingID() error {
	if m.ListingID == nil || *m.ListingID == uuid.Nil {
		return shared.ErrListingIDRequired
	}
	return nil
}

// ParseClientMessage parses a JSON message from client
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse client message: %w", err)
	}

	if msg.Type == "" {
		return nil, shared.ErrMessageTypeRequired
	}

	return &msg, nil
}

// Validate validates a client message. Mutations go through the REST API;
// the feed only accepts subscription management and pings.
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		if err := m.validateListingID(); err != nil {
			return err
		}
	case MessageTypePing:

	default:
		return shared.ErrUnknownMessageType
	}

	return nil
}
