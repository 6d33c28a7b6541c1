package app

import (
	"context"
	"errors"
	"time"

	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettlementService settles expired auctions. A listing with active bids
// goes to the highest bidder through the trade executor; one without bids is
// cancelled. Each listing settles independently so one failure never stalls
// the sweep.
type SettlementService struct {
	listingRepo outbound.ListingRepository
	bidRepo     outbound.BidRepository
	executor    outbound.TradeExecutor
	broadcaster outbound.Broadcaster
	logger      zerolog.Logger
}

type SettlementServiceParams struct {
	ListingRepo outbound.ListingRepository
	BidRepo     outbound.BidRepository
	Executor    outbound.TradeExecutor
	Broadcaster outbound.Broadcaster
	Logger      zerolog.Logger
}

// NewSettlementService creates a new settlement service
func NewSettlementService(params SettlementServiceParams) *SettlementService {
	return &SettlementService{
		listingRepo: params.ListingRepo,
		bidRepo:     params.BidRepo,
		executor:    params.Executor,
		broadcaster: params.Broadcaster,
		logger:      params.Logger.With().Str("component", "settlement_service").Logger(),
	}
}

// ProcessExpired sweeps all currently expired open auctions once
func (s *SettlementService) ProcessExpired(ctx context.Context) (*shared.SweepResult, error) {
	expired, err := s.listingRepo.GetExpiredAuctions(ctx, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query expired auctions")
		return nil, err
	}

	sweep := &shared.SweepResult{
		Processed: len(expired),
		Results:   make([]shared.SettlementResult, 0, len(expired)),
	}

	for _, l := range expired {
		result := s.SettleListing(ctx, l.ID)
		sweep.Results = append(sweep.Results, result)

		if result.Status != shared.SettlementError {
			s.broadcastSettlement(ctx, result)
		}
	}

	s.logger.Info().Int("processed", sweep.Processed).Msg("Expired auction sweep finished")
	return sweep, nil
}

// SettleListing settles a single expired auction listing. Errors are folded
// into the result so sweep callers can keep going.
func (s *SettlementService) SettleListing(ctx context.Context, listingID uuid.UUID) shared.SettlementResult {
	result := shared.SettlementResult{ListingID: listingID}

	l, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("Failed to load listing for settlement")
		result.Status = shared.SettlementError
		result.Detail = err.Error()
		return result
	}

	// Re-running settlement on an already terminal listing is a no-op
	if l.IsTerminal() {
		if l.Status == listing.StatusSold {
			result.Status = shared.SettlementCompleted
		} else {
			result.Status = shared.SettlementCancelled
		}
		result.Detail = "listing already settled"
		return result
	}

	highest, err := s.bidRepo.GetHighestActive(ctx, listingID)
	if err != nil {
		if errors.Is(err, shared.ErrNoActiveBids) {
			return s.cancelUnsold(ctx, l, result)
		}
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("Failed to query highest bid")
		result.Status = shared.SettlementError
		result.Detail = err.Error()
		return result
	}

	o, err := s.executor.CompleteTrade(ctx, l.ID, highest.BidderID, highest.Amount)
	if err != nil {
		s.logger.Error().Err(err).
			Str("listing_id", l.ID.String()).
			Str("winner_id", highest.BidderID.String()).
			Msg("Failed to complete auction trade")
		result.Status = shared.SettlementError
		result.Detail = err.Error()
		return result
	}

	result.Status = shared.SettlementCompleted
	result.WinnerID = &highest.BidderID
	result.FinalPrice = &o.Price

	s.logger.Info().
		Str("listing_id", l.ID.String()).
		Str("winner_id", highest.BidderID.String()).
		Float64("final_price", o.Price).
		Msg("Auction settled with winner")
	return result
}

func (s *SettlementService) cancelUnsold(ctx context.Context, l *listing.Listing, result shared.SettlementResult) shared.SettlementResult {
	if err := s.listingRepo.UpdateStatus(ctx, l.ID, listing.StatusCancelled); err != nil {
		s.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to cancel unsold auction")
		result.Status = shared.SettlementError
		result.Detail = err.Error()
		return result
	}

	result.Status = shared.SettlementCancelled
	result.Detail = "no active bids"

	s.logger.Info().Str("listing_id", l.ID.String()).Msg("Auction cancelled, no active bids")
	return result
}

func (s *SettlementService) broadcastSettlement(ctx context.Context, result shared.SettlementResult) {
	if s.broadcaster == nil {
		return
	}

	data := map[string]interface{}{
		"listing_id": result.ListingID.String(),
		"status":     string(result.Status),
	}
	if result.WinnerID != nil {
		data["winner_id"] = result.WinnerID.String()
	}
	if result.FinalPrice != nil {
		data["final_price"] = *result.FinalPrice
	}

	event := outbound.Event{
		Type:      outbound.EventTypeAuctionEnded,
		ListingID: result.ListingID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	if err := s.broadcaster.Publish(ctx, result.ListingID, event); err != nil {
		s.logger.Error().Err(err).Str("listing_id", result.ListingID.String()).Msg("Failed to broadcast settlement event")
	}
}
