package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroadcaster implements the broadcaster interface using Redis
// pub/sub. Events for one listing fan out on the listing's channel; each
// connected client holds one pubsub connection regardless of how many
// listings it watches.
type RedisBroadcaster struct {
	client           *redis.Client
	subscribers      map[string]chan outbound.Event // clientID -> local channel
	pubsubs          map[string]*redis.PubSub       // clientID -> pubsub instance
	clientsToListing map[string]map[string]bool     // clientID -> listingID -> subscribed
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	logger           zerolog.Logger
}

type RedisBroadcasterParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

func NewBroadcaster(params RedisBroadcasterParams) *RedisBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBroadcaster{
		client:           params.RedisClient,
		subscribers:      make(map[string]chan outbound.Event),
		pubsubs:          make(map[string]*redis.PubSub),
		clientsToListing: make(map[string]map[string]bool),
		ctx:              ctx,
		cancel:           cancel,
		logger:           params.Logger.With().Str("component", "redis_broadcaster").Logger(),
	}
}

func channelName(listingID uuid.UUID) string {
	return fmt.Sprintf("listing:%s", listingID.String())
}

// Subscribe subscribes a client to events for a specific listing
func (r *RedisBroadcaster) Subscribe(ctx context.Context, listingID uuid.UUID, clientID string, eventChan chan outbound.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clientsToListing[clientID] != nil && r.clientsToListing[clientID][listingID.String()] {
		r.logger.Info().
			Str("client_id", clientID).
			Str("listing_id", listingID.String()).
			Msg("Client already subscribed to listing")
		return nil
	}

	if r.subscribers[clientID] == nil {
		r.subscribers[clientID] = eventChan
	}

	if r.clientsToListing[clientID] == nil {
		r.clientsToListing[clientID] = make(map[string]bool)
	}
	r.clientsToListing[clientID][listingID.String()] = true

	var pubsub *redis.PubSub
	if existingPubsub, exists := r.pubsubs[clientID]; exists {
		pubsub = existingPubsub
	} else {
		pubsub = r.client.Subscribe(ctx)
		r.pubsubs[clientID] = pubsub

		go r.listenForRedisMessages(pubsub, clientID, eventChan)
	}

	if err := pubsub.Subscribe(ctx, channelName(listingID)); err != nil {
		r.logger.Error().Err(err).Str("client_id", clientID).Str("listing_id", listingID.String()).Msg("Failed to subscribe to Redis channel")
		return err
	}

	r.logger.Info().
		Str("client_id", clientID).
		Str("listing_id", listingID.String()).
		Msg("Client subscribed to listing via Redis")
	return nil
}

// Unsubscribe unsubscribes a client from events for a specific listing
func (r *RedisBroadcaster) Unsubscribe(ctx context.Context, listingID uuid.UUID, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clientListings, exists := r.clientsToListing[clientID]; exists {
		delete(clientListings, listingID.String())

		// Last subscription gone: tear down the client's channel and pubsub
		if len(clientListings) == 0 {
			delete(r.clientsToListing, clientID)

			if eventChan, exists := r.subscribers[clientID]; exists {
				close(eventChan)
				delete(r.subscribers, clientID)
			}

			if pubsub, exists := r.pubsubs[clientID]; exists {
				if err := pubsub.Close(); err != nil {
					r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
				}
				delete(r.pubsubs, clientID)
			}
		} else {
			if pubsub, exists := r.pubsubs[clientID]; exists {
				if err := pubsub.Unsubscribe(ctx, channelName(listingID)); err != nil {
					r.logger.Error().Err(err).Str("client_id", clientID).Str("listing_id", listingID.String()).Msg("Error unsubscribing from Redis channel")
				}
			}
		}
	}

	r.logger.Info().
		Str("client_id", clientID).
		Str("listing_id", listingID.String()).
		Msg("Client unsubscribed from listing")
	return nil
}

// Publish publishes an event to all subscribers of a listing via Redis
func (r *RedisBroadcaster) Publish(ctx context.Context, listingID uuid.UUID, event outbound.Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result := r.client.Publish(ctx, channelName(listingID), eventJSON)
	if err := result.Err(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to publish to Redis")
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	r.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("listing_id", listingID.String()).
		Int64("subscriber_count", result.Val()).
		Msg("Published event to listing")

	return nil
}

func (r *RedisBroadcaster) IsSubscribed(ctx context.Context, listingID uuid.UUID, clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if clientListings, exists := r.clientsToListing[clientID]; exists {
		return clientListings[listingID.String()]
	}
	return false
}

// listenForRedisMessages forwards Redis messages to the client's local channel
func (r *RedisBroadcaster) listenForRedisMessages(pubsub *redis.PubSub, clientID string, localChan chan outbound.Event) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Str("client_id", clientID).Msg("Redis message listener panic for client")
		}
	}()

	ch := pubsub.Channel()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				r.logger.Info().Str("client_id", clientID).Msg("Redis channel closed for client")
				return
			}

			var event outbound.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Error().Err(err).Str("client_id", clientID).Msg("Failed to unmarshal Redis message for client")
				continue
			}

			select {
			case localChan <- event:
			default:
				r.logger.Warn().Str("client_id", clientID).Msg("Local channel full for client, dropping event")
			}

		case <-r.ctx.Done():
			r.logger.Info().Str("client_id", clientID).Msg("Redis broadcaster context cancelled for client")
			return
		}
	}
}

func (r *RedisBroadcaster) Close() error {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	for clientID, eventChan := range r.subscribers {
		close(eventChan)
		delete(r.subscribers, clientID)
	}

	for clientID, pubsub := range r.pubsubs {
		if err := pubsub.Close(); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
		}
		delete(r.pubsubs, clientID)
	}

	return r.client.Close()
}
