package app

import (
	"context"
	"time"

	"nft-market-service/internal/domain/bid"
	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/inbound"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidService implements the bid ledger use cases
type BidService struct {
	bidRepo     outbound.BidRepository
	listingRepo outbound.ListingRepository
	profileRepo outbound.ProfileRepository
	executor    outbound.TradeExecutor
	broadcaster outbound.Broadcaster
	logger      zerolog.Logger
}

type BidServiceParams struct {
	BidRepo     outbound.BidRepository
	ListingRepo outbound.ListingRepository
	ProfileRepo outbound.ProfileRepository
	Executor    outbound.TradeExecutor
	Broadcaster outbound.Broadcaster
	Logger      zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	return &BidService{
		bidRepo:     params.BidRepo,
		listingRepo: params.ListingRepo,
		profileRepo: params.ProfileRepo,
		executor:    params.Executor,
		broadcaster: params.Broadcaster,
		logger:      params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid places a new bid on a listing. The precondition checks run in a
// fixed order so callers see stable error responses; the highest-bid rule is
// re-checked by the repository inside the placement transaction.
func (s *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	s.logger.Info().
		Str("listing_id", req.ListingID.String()).
		Str("bidder_id", req.BidderID.String()).
		Float64("amount", req.Amount).
		Msg("Attempting to place bid")

	if req.Amount <= 0 {
		s.logger.Warn().Float64("amount", req.Amount).Msg("Invalid bid amount (must be > 0)")
		return nil, shared.ErrBidAmountInvalid
	}

	l, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", req.ListingID.String()).Msg("Listing not found")
		return nil, err
	}

	bidder, err := s.profileRepo.GetByID(ctx, req.BidderID)
	if err != nil {
		s.logger.Error().Err(err).Str("bidder_id", req.BidderID.String()).Msg("Bidder profile not found")
		return nil, err
	}

	if !bidder.CanAfford(req.Amount) {
		s.logger.Warn().
			Str("bidder_id", req.BidderID.String()).
			Float64("amount", req.Amount).
			Float64("balance", bidder.WalletBalance).
			Msg("Bid exceeds wallet balance")
		return nil, shared.ErrInsufficientFunds
	}

	if l.OwnedBy(req.BidderID) {
		s.logger.Warn().Str("listing_id", l.ID.String()).Str("bidder_id", req.BidderID.String()).Msg("Bidder owns the listing")
		return nil, shared.ErrSelfTrade
	}

	if !l.IsOpen() {
		s.logger.Warn().Str("listing_id", l.ID.String()).Str("status", string(l.Status)).Msg("Listing not accepting bids")
		return nil, shared.ErrListingNotBiddable
	}

	if l.AuctionEnded(time.Now()) {
		s.logger.Warn().Str("listing_id", l.ID.String()).Msg("Auction has ended")
		return nil, shared.ErrAuctionEnded
	}

	newBid := bid.New(req.ListingID, req.BidderID, req.Amount)

	// Auctions keep a single active bid; open-bid listings let offers coexist
	exclusive := l.IsAuction()
	if err := s.bidRepo.Place(ctx, newBid, exclusive); err != nil {
		s.logger.Error().Err(err).Str("bid_id", newBid.ID.String()).Msg("Failed to place bid")
		return nil, err
	}

	if s.broadcaster != nil {
		event := outbound.Event{
			Type:      outbound.EventTypeBidPlaced,
			ListingID: req.ListingID,
			Data: map[string]interface{}{
				"bid_id":    newBid.ID,
				"bidder_id": newBid.BidderID,
				"amount":    newBid.Amount,
				"timestamp": newBid.CreatedAt.Unix(),
			},
			Timestamp: newBid.CreatedAt.Unix(),
		}

		if err := s.broadcaster.Publish(ctx, req.ListingID, event); err != nil {
			// Log error but don't fail the bid placement
			s.logger.Error().Err(err).Str("bid_id", newBid.ID.String()).Msg("Failed to broadcast bid event")
		}
	}

	s.logger.Info().
		Str("bid_id", newBid.ID.String()).
		Str("listing_id", newBid.ListingID.String()).
		Float64("amount", newBid.Amount).
		Msg("Bid placed successfully")

	return newBid, nil
}

// GetActiveBids retrieves active bids for a listing, highest first
func (s *BidService) GetActiveBids(ctx context.Context, listingID uuid.UUID) ([]*bid.Bid, error) {
	return s.bidRepo.GetActiveByListing(ctx, listingID)
}

// WithdrawBid withdraws the caller's own active bid
func (s *BidService) WithdrawBid(ctx context.Context, bidID, bidderID uuid.UUID) error {
	b, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return err
	}

	if b.BidderID != bidderID {
		return shared.ErrNotBidOwner
	}

	if !b.IsActive() {
		return shared.ErrBidNotActive
	}

	if err := s.bidRepo.UpdateStatus(ctx, b.ID, bid.StatusWithdrawn); err != nil {
		s.logger.Error().Err(err).Str("bid_id", b.ID.String()).Msg("Failed to withdraw bid")
		return err
	}

	s.logger.Info().Str("bid_id", b.ID.String()).Str("bidder_id", bidderID.String()).Msg("Bid withdrawn")
	return nil
}

// AcceptBid lets the seller of an open-bid listing accept an offer,
// completing the trade at the bid amount
func (s *BidService) AcceptBid(ctx context.Context, bidID, sellerID uuid.UUID) (*order.Order, error) {
	b, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	if !b.IsActive() {
		return nil, shared.ErrBidNotActive
	}

	l, err := s.listingRepo.GetByID(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}

	if !l.OwnedBy(sellerID) {
		return nil, shared.ErrNotSeller
	}

	if l.SaleType != listing.SaleTypeOpenBid {
		return nil, shared.ErrListingNotBiddable
	}

	o, err := s.executor.CompleteTrade(ctx, l.ID, b.BidderID, b.Amount)
	if err != nil {
		s.logger.Error().Err(err).Str("bid_id", b.ID.String()).Str("listing_id", l.ID.String()).Msg("Failed to accept bid")
		return nil, err
	}

	if s.broadcaster != nil {
		event := outbound.Event{
			Type:      outbound.EventTypeListingSold,
			ListingID: l.ID,
			Data: map[string]interface{}{
				"listing_id": l.ID,
				"bid_id":     b.ID,
				"buyer_id":   b.BidderID,
				"price":      b.Amount,
			},
			Timestamp: o.CreatedAt.Unix(),
		}
		if err := s.broadcaster.Publish(ctx, l.ID, event); err != nil {
			s.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to broadcast listing sold event")
		}
	}

	s.logger.Info().
		Str("order_id", o.ID.String()).
		Str("bid_id", b.ID.String()).
		Str("listing_id", l.ID.String()).
		Msg("Bid accepted")
	return o, nil
}
