package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"nft-market-service/internal/app"
	"nft-market-service/internal/domain/bid"
	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlementFixture struct {
	svc         *app.SettlementService
	listingRepo *fakeListingRepo
	bidRepo     *fakeBidRepo
	executor    *fakeExecutor
	broadcaster *fakeBroadcaster
}

func newSettlementFixture() *settlementFixture {
	f := &settlementFixture{
		listingRepo: newFakeListingRepo(),
		bidRepo:     newFakeBidRepo(),
		executor:    newFakeExecutor(),
		broadcaster: &fakeBroadcaster{},
	}
	f.svc = app.NewSettlementService(app.SettlementServiceParams{
		ListingRepo: f.listingRepo,
		BidRepo:     f.bidRepo,
		Executor:    f.executor,
		Broadcaster: f.broadcaster,
		Logger:      zerolog.Nop(),
	})
	return f
}

func (f *settlementFixture) addExpiredAuction(t *testing.T, sellerID uuid.UUID) *listing.Listing {
	t.Helper()
	l, err := listing.NewAuction(sellerID, "artwork", "", "", 100, time.Now().Add(time.Hour))
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	l.AuctionEndTime = &past
	f.listingRepo.add(l)
	return l
}

func TestSettleListing(t *testing.T) {
	seller := uuid.New()
	bidder := uuid.New()

	t.Run("auction with bids settles to the highest bidder", func(t *testing.T) {
		f := newSettlementFixture()
		l := f.addExpiredAuction(t, seller)
		f.bidRepo.add(bid.New(l.ID, uuid.New(), 120))
		f.bidRepo.add(bid.New(l.ID, bidder, 150))

		result := f.svc.SettleListing(context.Background(), l.ID)

		assert.Equal(t, shared.SettlementCompleted, result.Status)
		require.NotNil(t, result.WinnerID)
		assert.Equal(t, bidder, *result.WinnerID)
		require.NotNil(t, result.FinalPrice)
		assert.Equal(t, 150.0, *result.FinalPrice)
		assert.Equal(t, 150.0, f.executor.lastAmount)
	})

	t.Run("auction without bids cancels", func(t *testing.T) {
		f := newSettlementFixture()
		l := f.addExpiredAuction(t, seller)

		result := f.svc.SettleListing(context.Background(), l.ID)

		assert.Equal(t, shared.SettlementCancelled, result.Status)
		assert.Zero(t, f.executor.completeCalls)

		stored, err := f.listingRepo.GetByID(context.Background(), l.ID)
		require.NoError(t, err)
		assert.Equal(t, listing.StatusCancelled, stored.Status)
	})

	t.Run("settling an already settled listing is a no-op", func(t *testing.T) {
		f := newSettlementFixture()
		l := f.addExpiredAuction(t, seller)

		first := f.svc.SettleListing(context.Background(), l.ID)
		assert.Equal(t, shared.SettlementCancelled, first.Status)

		second := f.svc.SettleListing(context.Background(), l.ID)
		assert.Equal(t, shared.SettlementCancelled, second.Status)
		assert.Equal(t, "listing already settled", second.Detail)
		assert.Zero(t, f.executor.completeCalls)
	})

	t.Run("trade failure surfaces as an error result", func(t *testing.T) {
		f := newSettlementFixture()
		l := f.addExpiredAuction(t, seller)
		f.bidRepo.add(bid.New(l.ID, bidder, 150))
		f.executor.completeTradeErr = shared.ErrInsufficientFunds

		result := f.svc.SettleListing(context.Background(), l.ID)

		assert.Equal(t, shared.SettlementError, result.Status)
		assert.NotEmpty(t, result.Detail)
	})

	t.Run("unknown listing is an error result", func(t *testing.T) {
		f := newSettlementFixture()

		result := f.svc.SettleListing(context.Background(), uuid.New())

		assert.Equal(t, shared.SettlementError, result.Status)
	})
}

func TestProcessExpired(t *testing.T) {
	seller := uuid.New()

	t.Run("settles every expired auction independently", func(t *testing.T) {
		f := newSettlementFixture()
		withBids := f.addExpiredAuction(t, seller)
		withoutBids := f.addExpiredAuction(t, seller)
		f.bidRepo.add(bid.New(withBids.ID, uuid.New(), 150))

		sweep, err := f.svc.ProcessExpired(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, sweep.Processed)
		require.Len(t, sweep.Results, 2)

		byListing := map[uuid.UUID]shared.SettlementResult{}
		for _, r := range sweep.Results {
			byListing[r.ListingID] = r
		}
		assert.Equal(t, shared.SettlementCompleted, byListing[withBids.ID].Status)
		assert.Equal(t, shared.SettlementCancelled, byListing[withoutBids.ID].Status)

		events := f.broadcaster.eventsOfType(outbound.EventTypeAuctionEnded)
		assert.Len(t, events, 2)
	})

	t.Run("one failing listing never stalls the sweep", func(t *testing.T) {
		f := newSettlementFixture()
		failing := f.addExpiredAuction(t, seller)
		healthy := f.addExpiredAuction(t, seller)
		f.bidRepo.add(bid.New(failing.ID, uuid.New(), 150))
		f.bidRepo.add(bid.New(healthy.ID, uuid.New(), 200))

		// every CompleteTrade fails; both listings still get a result
		f.executor.completeTradeErr = errors.New("deadlock detected")

		sweep, err := f.svc.ProcessExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, sweep.Processed)
		for _, r := range sweep.Results {
			assert.Equal(t, shared.SettlementError, r.Status)
		}
	})

	t.Run("empty sweep reports zero processed", func(t *testing.T) {
		f := newSettlementFixture()

		sweep, err := f.svc.ProcessExpired(context.Background())
		require.NoError(t, err)
		assert.Zero(t, sweep.Processed)
		assert.Empty(t, sweep.Results)
	})
}
