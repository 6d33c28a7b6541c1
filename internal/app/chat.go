package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"nft-market-service/internal/domain/chat"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/inbound"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChatService implements listing-scoped buyer/seller conversations
type ChatService struct {
	chatRepo    outbound.ChatRepository
	listingRepo outbound.ListingRepository
	broadcaster outbound.Broadcaster
	logger      zerolog.Logger
}

type ChatServiceParams struct {
	ChatRepo    outbound.ChatRepository
	ListingRepo outbound.ListingRepository
	Broadcaster outbound.Broadcaster
	Logger      zerolog.Logger
}

// NewChatService creates a new chat service
func NewChatService(params ChatServiceParams) *ChatService {
	return &ChatService{
		chatRepo:    params.ChatRepo,
		listingRepo: params.ListingRepo,
		broadcaster: params.Broadcaster,
		logger:      params.Logger.With().Str("component", "chat_service").Logger(),
	}
}

// StartConversation opens (or returns the existing) thread between the
// caller and a listing's owner
func (s *ChatService) StartConversation(ctx context.Context, listingID, buyerID uuid.UUID) (*chat.Conversation, error) {
	l, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if l.OwnedBy(buyerID) {
		return nil, shared.ErrSelfTrade
	}

	existing, err := s.chatRepo.FindConversation(ctx, listingID, buyerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrConversationNotFound) {
		return nil, err
	}

	now := time.Now()
	c := &chat.Conversation{
		ID:        uuid.New(),
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  l.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.chatRepo.CreateConversation(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("Failed to create conversation")
		return nil, err
	}

	s.logger.Info().
		Str("conversation_id", c.ID.String()).
		Str("listing_id", listingID.String()).
		Str("buyer_id", buyerID.String()).
		Msg("Conversation started")
	return c, nil
}

// ListConversations returns the caller's conversations
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*chat.Conversation, error) {
	return s.chatRepo.ListConversations(ctx, userID)
}

// SendMessage appends a message to a conversation the caller participates in
func (s *ChatService) SendMessage(ctx context.Context, req inbound.SendMessageRequest) (*chat.Message, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, shared.ErrEmptyMessage
	}

	c, err := s.chatRepo.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	if !c.HasParticipant(req.SenderID) {
		return nil, shared.ErrNotParticipant
	}

	m := &chat.Message{
		ID:             uuid.New(),
		ConversationID: c.ID,
		SenderID:       req.SenderID,
		Body:           req.Body,
		CreatedAt:      time.Now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", c.ID.String()).Msg("Failed to persist message")
		return nil, err
	}

	if s.broadcaster != nil {
		event := outbound.Event{
			Type:      outbound.EventTypeChatMessage,
			ListingID: c.ListingID,
			Data: map[string]interface{}{
				"conversation_id": c.ID,
				"message_id":      m.ID,
				"sender_id":       m.SenderID,
			},
			Timestamp: m.CreatedAt.Unix(),
		}
		if err := s.broadcaster.Publish(ctx, c.ListingID, event); err != nil {
			s.logger.Error().Err(err).Str("conversation_id", c.ID.String()).Msg("Failed to broadcast chat message event")
		}
	}

	return m, nil
}

// ListMessages returns a conversation's messages oldest first
func (s *ChatService) ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, page, pageSize int) ([]*chat.Message, error) {
	c, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !c.HasParticipant(requesterID) {
		return nil, shared.ErrNotParticipant
	}

	return s.chatRepo.ListMessages(ctx, conversationID, page, pageSize)
}
