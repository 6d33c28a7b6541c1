package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const expirationKey = "listing:expirations"

type SettlementRunner interface {
	SettleListing(ctx context.Context, listingID uuid.UUID) shared.SettlementResult
}

// SettlementScheduler tracks auction end times in a Redis sorted set and
// settles listings as they expire. The database sweep endpoint remains the
// source of truth; the scheduler only makes settlement prompt.
type SettlementScheduler struct {
	redis       *redis.Client
	settlement  SettlementRunner
	broadcaster outbound.Broadcaster
	pool        *pond.WorkerPool
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type SettlementSchedulerParams struct {
	RedisClient *redis.Client
	Settlement  SettlementRunner
	Broadcaster outbound.Broadcaster
	MaxWorkers  int
	Logger      zerolog.Logger
}

func NewSettlementScheduler(params SettlementSchedulerParams) *SettlementScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := params.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	return &SettlementScheduler{
		redis:       params.RedisClient,
		settlement:  params.Settlement,
		broadcaster: params.Broadcaster,
		pool:        pond.New(maxWorkers, maxWorkers*10),
		logger:      params.Logger.With().Str("component", "settlement_scheduler").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ScheduleListing adds an auction listing to the expiration schedule
func (s *SettlementScheduler) ScheduleListing(listingID uuid.UUID, endTime time.Time) error {
	score := float64(endTime.Unix())

	err := s.redis.ZAdd(s.ctx, expirationKey, redis.Z{
		Score:  score,
		Member: listingID.String(),
	}).Err()

	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("Failed to schedule listing")
		return fmt.Errorf("failed to schedule listing: %w", err)
	}

	s.logger.Info().
		Str("listing_id", listingID.String()).
		Time("end_time", endTime).
		Msg("Listing scheduled for settlement")

	return nil
}

// Start begins the scheduler loop
func (s *SettlementScheduler) Start() {
	s.logger.Info().Msg("Starting settlement scheduler")

	s.wg.Add(1)
	go s.schedulerLoop()
}

// Stop gracefully stops the scheduler
func (s *SettlementScheduler) Stop() {
	s.logger.Info().Msg("Stopping settlement scheduler")
	s.cancel()
	s.wg.Wait()
	s.pool.StopAndWait()
}

func (s *SettlementScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkExpiredListings()
		case <-s.ctx.Done():
			s.logger.Info().Msg("Scheduler loop stopped")
			return
		}
	}
}

// checkExpiredListings finds listings past their end time and settles them
func (s *SettlementScheduler) checkExpiredListings() {
	now := time.Now().Unix()

	expired, err := s.redis.ZRangeByScore(s.ctx, expirationKey, &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatInt(now, 10),
		Count: 10, // Process max 10 at a time
	}).Result()

	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get expired listings")
		return
	}

	if len(expired) > 0 {
		s.logger.Debug().Int("count", len(expired)).Msg("Found expired listings")
	}

	for _, listingIDStr := range expired {
		listingID, err := uuid.Parse(listingIDStr)
		if err != nil {
			s.logger.Error().Err(err).Str("listing_id", listingIDStr).Msg("Invalid listing ID in schedule")
			s.redis.ZRem(s.ctx, expirationKey, listingIDStr)
			continue
		}

		s.pool.Submit(func() {
			s.settleListing(listingID)
		})
	}
}

// settleListing settles one expired listing and broadcasts the outcome
func (s *SettlementScheduler) settleListing(listingID uuid.UUID) {
	s.logger.Info().Str("listing_id", listingID.String()).Msg("Processing listing settlement")

	result := s.settlement.SettleListing(s.ctx, listingID)
	defer s.redis.ZRem(s.ctx, expirationKey, listingID.String())

	if result.Status == shared.SettlementError {
		s.logger.Error().Str("listing_id", listingID.String()).Str("detail", result.Detail).Msg("Failed to settle listing")
		return
	}

	eventData := map[string]interface{}{
		"listing_id": listingID.String(),
		"status":     string(result.Status),
	}
	if result.WinnerID != nil {
		eventData["winner_id"] = result.WinnerID.String()
	}
	if result.FinalPrice != nil {
		eventData["final_price"] = *result.FinalPrice
	}

	event := outbound.Event{
		Type:      outbound.EventTypeAuctionEnded,
		ListingID: listingID,
		Data:      eventData,
		Timestamp: time.Now().Unix(),
	}

	if err := s.broadcaster.Publish(s.ctx, listingID, event); err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("Failed to broadcast settlement event")
	}

	logger := s.logger.Info().Str("listing_id", listingID.String())

	if result.WinnerID != nil {
		logger = logger.Str("winner_id", result.WinnerID.String())
	}
	if result.FinalPrice != nil {
		logger = logger.Float64("final_price", *result.FinalPrice)
	}

	logger.Msg("Listing settled")
}
