package app

import (
	"context"
	"time"

	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/inbound"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ListingScheduler registers auction listings for settlement at their end
// time. The sweep endpoint stays authoritative; scheduling only makes
// settlement prompt.
type ListingScheduler interface {
	ScheduleListing(listingID uuid.UUID, endTime time.Time) error
}

// ListingService implements the listing lifecycle use cases
type ListingService struct {
	listingRepo outbound.ListingRepository
	profileRepo outbound.ProfileRepository
	executor    outbound.TradeExecutor
	broadcaster outbound.Broadcaster
	scheduler   ListingScheduler
	logger      zerolog.Logger
}

type ListingServiceParams struct {
	ListingRepo outbound.ListingRepository
	ProfileRepo outbound.ProfileRepository
	Executor    outbound.TradeExecutor
	Broadcaster outbound.Broadcaster
	Scheduler   ListingScheduler
	Logger      zerolog.Logger
}

// NewListingService creates a new listing service
func NewListingService(params ListingServiceParams) *ListingService {
	return &ListingService{
		listingRepo: params.ListingRepo,
		profileRepo: params.ProfileRepo,
		executor:    params.Executor,
		broadcaster: params.Broadcaster,
		scheduler:   params.Scheduler,
		logger:      params.Logger.With().Str("component", "listing_service").Logger(),
	}
}

// CreateListing creates a new listing with its sale type
func (s *ListingService) CreateListing(ctx context.Context, req inbound.CreateListingRequest) (*listing.Listing, error) {
	s.logger.Info().
		Str("creator_id", req.CreatorID.String()).
		Str("sale_type", string(req.SaleType)).
		Float64("price", req.Price).
		Msg("Creating listing")

	var l *listing.Listing
	var err error

	switch req.SaleType {
	case listing.SaleTypeAuction:
		if req.AuctionEndTime == nil {
			return nil, shared.ErrAuctionEndRequired
		}
		l, err = listing.NewAuction(req.CreatorID, req.Title, req.Description, req.MediaURL, req.Price, *req.AuctionEndTime)
	case listing.SaleTypeOpenBid:
		l, err = listing.NewOpenBid(req.CreatorID, req.Title, req.Description, req.MediaURL, req.Price)
	case listing.SaleTypeFixed:
		l, err = listing.NewFixedPrice(req.CreatorID, req.Title, req.Description, req.MediaURL, req.Price)
	default:
		return nil, shared.ErrInvalidRequest
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("creator_id", req.CreatorID.String()).Msg("Listing validation failed")
		return nil, err
	}

	if err := s.listingRepo.Create(ctx, l); err != nil {
		s.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to persist listing")
		return nil, err
	}

	if l.IsAuction() && s.scheduler != nil {
		if err := s.scheduler.ScheduleListing(l.ID, *l.AuctionEndTime); err != nil {
			// The sweep endpoint picks up anything the scheduler missed
			s.logger.Warn().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to schedule auction settlement")
		}
	}

	if s.broadcaster != nil {
		event := outbound.Event{
			Type:      outbound.EventTypeListingCreated,
			ListingID: l.ID,
			Data: map[string]interface{}{
				"listing_id": l.ID,
				"sale_type":  string(l.SaleType),
				"price":      l.Price,
			},
			Timestamp: l.CreatedAt.Unix(),
		}
		if err := s.broadcaster.Publish(ctx, l.ID, event); err != nil {
			s.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to broadcast listing created event")
		}
	}

	s.logger.Info().Str("listing_id", l.ID.String()).Str("sale_type", string(l.SaleType)).Msg("Listing created")
	return l, nil
}

// GetListing retrieves a listing by ID
func (s *ListingService) GetListing(ctx context.Context, listingID uuid.UUID) (*listing.Listing, error) {
	return s.listingRepo.GetByID(ctx, listingID)
}

// ListListings retrieves listings matching the filter
func (s *ListingService) ListListings(ctx context.Context, filter outbound.ListingFilter) ([]*listing.Listing, error) {
	return s.listingRepo.List(ctx, filter)
}

// UpdateListing updates mutable fields while the listing is open
func (s *ListingService) UpdateListing(ctx context.Context, req inbound.UpdateListingRequest) (*listing.Listing, error) {
	l, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	if !l.OwnedBy(req.RequesterID) {
		s.logger.Warn().
			Str("listing_id", l.ID.String()).
			Str("requester_id", req.RequesterID.String()).
			Msg("Update rejected, requester does not own listing")
		return nil, shared.ErrNotSeller
	}

	if !l.IsOpen() {
		return nil, shared.ErrListingTerminal
	}

	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, shared.ErrInvalidPrice
		}
		l.Price = *req.Price
	}
	l.UpdatedAt = time.Now()

	if err := s.listingRepo.Update(ctx, l); err != nil {
		s.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to update listing")
		return nil, err
	}

	return l, nil
}

// CancelListing cancels an open listing
func (s *ListingService) CancelListing(ctx context.Context, listingID, requesterID uuid.UUID) error {
	l, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return err
	}

	if !l.OwnedBy(requesterID) {
		return shared.ErrNotSeller
	}

	if err := l.MarkCancelled(); err != nil {
		return err
	}

	if err := s.listingRepo.UpdateStatus(ctx, l.ID, listing.StatusCancelled); err != nil {
		s.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to cancel listing")
		return err
	}

	s.logger.Info().Str("listing_id", l.ID.String()).Msg("Listing cancelled")
	return nil
}

// Purchase buys a fixed-price listing outright. All checks below are
// advisory fast-rejects; the trade executor re-validates everything inside
// one transaction.
func (s *ListingService) Purchase(ctx context.Context, req inbound.PurchaseRequest) (*order.Order, error) {
	s.logger.Info().
		Str("listing_id", req.ListingID.String()).
		Str("buyer_id", req.BuyerID.String()).
		Bool("delivery", req.Delivery).
		Msg("Attempting purchase")

	l, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	if l.SaleType != listing.SaleTypeFixed {
		return nil, shared.ErrNotFixedPrice
	}

	if !l.IsOpen() {
		return nil, shared.ErrListingNotBiddable
	}

	if l.OwnedBy(req.BuyerID) {
		return nil, shared.ErrSelfTrade
	}

	buyer, err := s.profileRepo.GetByID(ctx, req.BuyerID)
	if err != nil {
		return nil, err
	}
	if !buyer.CanAfford(l.Price) {
		return nil, shared.ErrInsufficientFunds
	}

	var o *order.Order
	if req.Delivery {
		// Buyer pays now, the seller is credited only after the QR
		// proof-of-receipt completes
		o, err = s.executor.CreateOrderWithVerification(ctx, l.ID, req.BuyerID, l.Price)
	} else {
		o, err = s.executor.CompleteTrade(ctx, l.ID, req.BuyerID, l.Price)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Purchase failed")
		return nil, err
	}

	if s.broadcaster != nil {
		event := outbound.Event{
			Type:      outbound.EventTypeListingSold,
			ListingID: l.ID,
			Data: map[string]interface{}{
				"listing_id": l.ID,
				"buyer_id":   o.BuyerID,
				"price":      o.Price,
			},
			Timestamp: o.CreatedAt.Unix(),
		}
		if err := s.broadcaster.Publish(ctx, l.ID, event); err != nil {
			s.logger.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to broadcast listing sold event")
		}
	}

	s.logger.Info().
		Str("order_id", o.ID.String()).
		Str("listing_id", l.ID.String()).
		Str("buyer_id", req.BuyerID.String()).
		Msg("Purchase completed")
	return o, nil
}
