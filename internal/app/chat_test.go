package app_test

import (
	"context"
	"testing"

	"nft-market-service/internal/app"
	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/inbound"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	chats       *fakeChatRepo
	listings    *fakeListingRepo
	broadcaster *fakeBroadcaster
	svc         *app.ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		chats:       newFakeChatRepo(),
		listings:    newFakeListingRepo(),
		broadcaster: &fakeBroadcaster{},
	}
	f.svc = app.NewChatService(app.ChatServiceParams{
		ChatRepo:    f.chats,
		ListingRepo: f.listings,
		Broadcaster: f.broadcaster,
		Logger:      zerolog.Nop(),
	})
	return f
}

func (f *chatFixture) addListing(t *testing.T, ownerID uuid.UUID) *listing.Listing {
	t.Helper()
	l, err := listing.NewFixedPrice(ownerID, "Glass Orchid #3", "", "https://cdn.example/orchid.png", 80)
	require.NoError(t, err)
	f.listings.add(l)
	return l
}

func TestStartConversation(t *testing.T) {
	t.Run("opens a thread between buyer and owner", func(t *testing.T) {
		f := newChatFixture()
		seller := uuid.New()
		buyer := uuid.New()
		l := f.addListing(t, seller)

		c, err := f.svc.StartConversation(context.Background(), l.ID, buyer)
		require.NoError(t, err)

		assert.Equal(t, l.ID, c.ListingID)
		assert.Equal(t, buyer, c.BuyerID)
		assert.Equal(t, seller, c.SellerID)
	})

	t.Run("returns the existing thread on repeat", func(t *testing.T) {
		f := newChatFixture()
		buyer := uuid.New()
		l := f.addListing(t, uuid.New())

		first, err := f.svc.StartConversation(context.Background(), l.ID, buyer)
		require.NoError(t, err)

		second, err := f.svc.StartConversation(context.Background(), l.ID, buyer)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, f.chats.conversations, 1)
	})

	t.Run("owner cannot message themselves", func(t *testing.T) {
		f := newChatFixture()
		seller := uuid.New()
		l := f.addListing(t, seller)

		_, err := f.svc.StartConversation(context.Background(), l.ID, seller)
		assert.ErrorIs(t, err, shared.ErrSelfTrade)
	})

	t.Run("unknown listing", func(t *testing.T) {
		f := newChatFixture()

		_, err := f.svc.StartConversation(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrListingNotFound)
	})
}

func TestSendMessage(t *testing.T) {
	setup := func(t *testing.T) (*chatFixture, uuid.UUID, uuid.UUID, uuid.UUID) {
		t.Helper()
		f := newChatFixture()
		seller := uuid.New()
		buyer := uuid.New()
		l := f.addListing(t, seller)

		c, err := f.svc.StartConversation(context.Background(), l.ID, buyer)
		require.NoError(t, err)
		return f, c.ID, buyer, seller
	}

	t.Run("participant sends and the event is broadcast", func(t *testing.T) {
		f, conversationID, buyer, _ := setup(t)

		m, err := f.svc.SendMessage(context.Background(), inbound.SendMessageRequest{
			ConversationID: conversationID,
			SenderID:       buyer,
			Body:           "Is this still available?",
		})
		require.NoError(t, err)

		assert.Equal(t, conversationID, m.ConversationID)
		assert.Equal(t, buyer, m.SenderID)

		events := f.broadcaster.eventsOfType(outbound.EventTypeChatMessage)
		require.Len(t, events, 1)
		assert.Equal(t, m.ID, events[0].Data["message_id"])
	})

	t.Run("rejects a blank body", func(t *testing.T) {
		f, conversationID, buyer, _ := setup(t)

		_, err := f.svc.SendMessage(context.Background(), inbound.SendMessageRequest{
			ConversationID: conversationID,
			SenderID:       buyer,
			Body:           "   ",
		})
		assert.ErrorIs(t, err, shared.ErrEmptyMessage)
	})

	t.Run("rejects an outsider", func(t *testing.T) {
		f, conversationID, _, _ := setup(t)

		_, err := f.svc.SendMessage(context.Background(), inbound.SendMessageRequest{
			ConversationID: conversationID,
			SenderID:       uuid.New(),
			Body:           "hello",
		})
		assert.ErrorIs(t, err, shared.ErrNotParticipant)
	})
}

func TestListMessages(t *testing.T) {
	f := newChatFixture()
	seller := uuid.New()
	buyer := uuid.New()
	l := f.addListing(t, seller)

	c, err := f.svc.StartConversation(context.Background(), l.ID, buyer)
	require.NoError(t, err)

	for _, body := range []string{"hi", "still for sale?", "yes"} {
		sender := buyer
		if body == "yes" {
			sender = seller
		}
		_, err := f.svc.SendMessage(context.Background(), inbound.SendMessageRequest{
			ConversationID: c.ID,
			SenderID:       sender,
			Body:           body,
		})
		require.NoError(t, err)
	}

	messages, err := f.svc.ListMessages(context.Background(), c.ID, seller, 1, 50)
	require.NoError(t, err)
	assert.Len(t, messages, 3)

	_, err = f.svc.ListMessages(context.Background(), c.ID, uuid.New(), 1, 50)
	assert.ErrorIs(t, err, shared.ErrNotParticipant)
}
