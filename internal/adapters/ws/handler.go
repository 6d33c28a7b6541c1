package ws

import (
	"context"
	"net/http"
	"sync"

	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsHandler manages WebSocket connections and routes broadcast events to
// subscribed clients.
type WsHandler struct {
	clients       map[string]*WsClient // clientID -> Client
	clientsMu     sync.RWMutex
	eventChannels map[string]chan outbound.Event // clientID -> local event channel
	channelsMu    sync.RWMutex
	upgrader      websocket.Upgrader
	broadcaster   outbound.Broadcaster
	logger        zerolog.Logger
}

type WsHandlerParams struct {
	Upgrader    websocket.Upgrader
	Broadcaster outbound.Broadcaster
	Logger      zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		clients:       make(map[string]*WsClient),
		eventChannels: make(map[string]chan outbound.Event),
		upgrader:      params.Upgrader,
		broadcaster:   params.Broadcaster,
		logger:        params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket handles WebSocket connection upgrades
func (handler *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userIDStr := r.URL.Query().Get("user_id")
	if userIDStr == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		http.Error(w, "invalid user_id format", http.StatusBadRequest)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		UserID:  userID,
		Conn:    conn,
		Handler: handler,
		Logger:  handler.logger,
	})

	handler.registerClient(client)
	handler.createEventChannel(client.id)

	client.Start()

	go handler.listenForClientEvents(client)

	// Wait for client to disconnect
	go func() {
		<-client.ctx.Done()
		handler.unregisterClient(client)
	}()

	handler.logger.Info().Str("client_id", client.id).Str("user_id", client.userID.String()).Msg("WebSocket client connected")
}

// createEventChannel creates a local event channel for a client
func (handler *WsHandler) createEventChannel(clientID string) chan outbound.Event {
	handler.channelsMu.Lock()
	defer handler.channelsMu.Unlock()

	if eventChan, exists := handler.eventChannels[clientID]; exists {
		return eventChan
	}

	eventChan := make(chan outbound.Event, 100)
	handler.eventChannels[clientID] = eventChan

	handler.logger.Debug().Str("client_id", clientID).Msg("Created local event channel for client")
	return eventChan
}

func (handler *WsHandler) getEventChannel(clientID string) chan outbound.Event {
	handler.channelsMu.RLock()
	defer handler.channelsMu.RUnlock()

	return handler.eventChannels[clientID]
}

func (handler *WsHandler) removeEventChannel(clientID string) {
	handler.channelsMu.Lock()
	defer handler.channelsMu.Unlock()

	if eventChan, exists := handler.eventChannels[clientID]; exists {
		close(eventChan)
		delete(handler.eventChannels, clientID)
		handler.logger.Debug().Str("client_id", clientID).Msg("Removed local event channel for client")
	}
}

func (handler *WsHandler) registerClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
	handler.logger.Debug().Str("client_id", client.id).Int("total_clients", len(handler.clients)).Msg("Client registered")
}

func (handler *WsHandler) unregisterClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()

	delete(handler.clients, client.id)

	// The broadcaster tears down the client's pubsub when its last
	// subscription goes away; nothing to clean up here beyond the client.
	client.Stop()

	handler.removeEventChannel(client.id)

	handler.logger.Info().Str("client_id", client.id).Str("user_id", client.userID.String()).Int("total_clients", len(handler.clients)).Msg("WebSocket client disconnected")
}

// listenForClientEvents forwards broadcast events to the client's socket
func (handler *WsHandler) listenForClientEvents(client *WsClient) {
	eventChan := handler.getEventChannel(client.id)
	if eventChan == nil {
		handler.logger.Error().Str("client_id", client.id).Msg("No event channel found for client - this should not happen")
		return
	}

	handler.logger.Debug().Str("client_id", client.id).Msg("Event listener started for client")

	for {
		select {
		case event := <-eventChan:
			wsMessage := handler.convertEventToMessage(event)

			if err := client.Send(wsMessage); err != nil {
				handler.logger.Error().
					Err(err).Str("client_id", client.id).Msg("Failed to send event to WebSocket client")
			}

		case <-client.ctx.Done():
			handler.logger.Debug().Str("client_id", client.id).Msg("Client disconnected, stopping event listener")
			return
		}
	}
}

func (handler *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	switch msg.Type {
	case MessageTypeSubscribe:
		return handler.handleSubscribe(client, msg)

	case MessageTypeUnsubscribe:
		return handler.handleUnsubscribe(client, msg)

	default:
		handler.logger.Warn().Str("client_id", client.id).Str("message_type", string(msg.Type)).Msg("Unknown message type from client")
		return shared.ErrUnknownMessageType
	}
}

func (handler *WsHandler) convertEventToMessage(event outbound.Event) *ServerMessage {
	listingID := event.ListingID

	switch event.Type {
	case outbound.EventTypeBidPlaced:
		return &ServerMessage{
			Type:      MessageTypeBidPlaced,
			ListingID: &listingID,
			Data:      event.Data,
			Timestamp: event.Timestamp,
		}
	case outbound.EventTypeAuctionEnded:
		return &ServerMessage{
			Type:      MessageTypeAuctionEnded,
			ListingID: &listingID,
			Data:      event.Data,
			Timestamp: event.Timestamp,
		}
	case outbound.EventTypeListingSold:
		return &ServerMessage{
			Type:      MessageTypeListingSold,
			ListingID: &listingID,
			Data:      event.Data,
			Timestamp: event.Timestamp,
		}
	case outbound.EventTypeChatMessage:
		return &ServerMessage{
			Type:      MessageTypeChatMessage,
			ListingID: &listingID,
			Data:      event.Data,
			Timestamp: event.Timestamp,
		}
	default:
		return &ServerMessage{
			Type:      MessageTypeListingUpdate,
			ListingID: &listingID,
			Data:      event.Data,
			Timestamp: event.Timestamp,
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (handler *WsHandler) GetConnectedClients() int {
	handler.clientsMu.RLock()
	defer handler.clientsMu.RUnlock()
	return len(handler.clients)
}

func (handler *WsHandler) handleSubscribe(client *WsClient, msg *ClientMessage) error {
	if msg.ListingID == nil {
		return shared.ErrListingIDRequired
	}

	ctx := context.Background()

	eventChan := handler.getEventChannel(client.id)
	if eventChan == nil {
		handler.logger.Error().Str("client_id", client.id).Msg("No event channel found for client")
		return shared.ErrClientEventChannelNotFound
	}

	if err := handler.broadcaster.Subscribe(ctx, *msg.ListingID, client.id, eventChan); err != nil {
		handler.logger.Error().Err(err).Str("client_id", client.id).Str("listing_id", msg.ListingID.String()).Msg("Failed to subscribe to listing")
		return err
	}

	response := NewServerMessage(MessageTypeListingUpdate)
	response.ListingID = msg.ListingID
	response.Data["status"] = "subscribed"

	handler.logger.Info().Str("client_id", client.id).Str("listing_id", msg.ListingID.String()).Msg("Client subscribed to listing")
	return client.Send(response)
}

// handleUnsubscribe handles unsubscription from listing events
func (handler *WsHandler) handleUnsubscribe(client *WsClient, msg *ClientMessage) error {
	if msg.ListingID == nil {
		return shared.ErrListingIDRequired
	}

	ctx := context.Background()

	if err := handler.broadcaster.Unsubscribe(ctx, *msg.ListingID, client.id); err != nil {
		return err
	}

	response := NewServerMessage(MessageTypeListingUpdate)
	response.ListingID = msg.ListingID
	response.Data["status"] = "unsubscribed"

	handler.logger.Info().Str("client_id", client.id).Str("listing_id", msg.ListingID.String()).Msg("Client unsubscribed from listing")
	return client.Send(response)
}
