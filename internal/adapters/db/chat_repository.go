package db

import (
	"context"
	"database/sql"
	"fmt"

	"nft-market-service/internal/domain/chat"
	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// ChatRepository implements the chat repository interface
type ChatRepository struct {
	conn *Connection
}

// NewChatRepository creates a new chat repository
func NewChatRepository(conn *Connection) *ChatRepository {
	return &ChatRepository{conn: conn}
}

func (r *ChatRepository) CreateConversation(ctx context.Context, c *chat.Conversation) error {
	query := `
		INSERT INTO conversations (id, nft_id, buyer_id, seller_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		c.ID,
		c.ListingID,
		c.BuyerID,
		c.SellerID,
		c.CreatedAt,
		c.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// FindConversation looks up an existing thread for a listing and buyer
func (r *ChatRepository) FindConversation(ctx context.Context, listingID, buyerID uuid.UUID) (*chat.Conversation, error) {
	query := `
		SELECT id, nft_id, buyer_id, seller_id, created_at, updated_at
		FROM conversations
		WHERE nft_id = $1 AND buyer_id = $2
	`

	c, err := scanConversation(r.conn.GetDB().QueryRowContext(ctx, query, listingID, buyerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	return c, nil
}

func (r *ChatRepository) GetConversation(ctx context.Context, id uuid.UUID) (*chat.Conversation, error) {
	query := `
		SELECT id, nft_id, buyer_id, seller_id, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	c, err := scanConversation(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return c, nil
}

// ListConversations retrieves all conversations a user participates in,
// most recently updated first
func (r *ChatRepository) ListConversations(ctx context.Context, userID uuid.UUID) ([]*chat.Conversation, error) {
	query := `
		SELECT id, nft_id, buyer_id, seller_id, created_at, updated_at
		FROM conversations
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*chat.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return conversations, nil
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *chat.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		m.ID,
		m.ConversationID,
		m.SenderID,
		m.Body,
		m.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	// Touch the conversation so listings sort by recent activity
	if _, err := r.conn.GetDB().ExecContext(ctx, `
		UPDATE conversations SET updated_at = $2 WHERE id = $1
	`, m.ConversationID, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return nil
}

// ListMessages retrieves a conversation's messages oldest first
func (r *ChatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, page, pageSize int) ([]*chat.Message, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	query := `
		SELECT id, conversation_id, sender_id, body, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, conversationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

func scanConversation(row rowScanner) (*chat.Conversation, error) {
	var c chat.Conversation
	err := row.Scan(
		&c.ID,
		&c.ListingID,
		&c.BuyerID,
		&c.SellerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
