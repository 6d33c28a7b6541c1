package rest

import (
	"nft-market-service/internal/ports/inbound"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChatHandler exposes listing-scoped conversations
type ChatHandler struct {
	chat   inbound.ChatService
	logger zerolog.Logger
}

type ChatHandlerParams struct {
	Chat   inbound.ChatService
	Logger zerolog.Logger
}

func NewChatHandler(params ChatHandlerParams) *ChatHandler {
	return &ChatHandler{
		chat:   params.Chat,
		logger: params.Logger.With().Str("component", "chat_handler").Logger(),
	}
}

// StartConversation handles POST /api/chat/conversations
func (h *ChatHandler) StartConversation(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		ListingID string `json:"nft_id"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	listingID, err := uuid.Parse(body.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid nft_id"})
	}

	conv, err := h.chat.StartConversation(c.Context(), listingID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

// ListConversations handles GET /api/chat/conversations
func (h *ChatHandler) ListConversations(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	conversations, err := h.chat.ListConversations(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// SendMessage handles POST /api/chat/messages
func (h *ChatHandler) SendMessage(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	conversationID, err := uuid.Parse(body.ConversationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation_id"})
	}

	m, err := h.chat.SendMessage(c.Context(), inbound.SendMessageRequest{
		ConversationID: conversationID,
		SenderID:       userID,
		Body:           body.Message,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

// ListMessages handles GET /api/chat/messages?conversation_id=
func (h *ChatHandler) ListMessages(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	conversationID, err := uuid.Parse(c.Query("conversation_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "conversation_id query parameter is required"})
	}

	messages, err := h.chat.ListMessages(c.Context(), conversationID, userID, queryInt(c, "page", 1), queryInt(c, "limit", 50))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}
