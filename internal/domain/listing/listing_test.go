package listing_test

import (
	"testing"
	"time"

	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	creator := uuid.New()

	t.Run("fixed price", func(t *testing.T) {
		l, err := listing.NewFixedPrice(creator, "Amber Relic", "desc", "https://cdn.example/relic.png", 50)
		require.NoError(t, err)

		assert.Equal(t, listing.SaleTypeFixed, l.SaleType)
		assert.Equal(t, listing.StatusAvailable, l.Status)
		assert.Equal(t, creator, l.OwnerID)
		assert.Nil(t, l.AuctionEndTime)
		assert.True(t, l.IsOpen())
		assert.False(t, l.IsAuction())
	})

	t.Run("price must be positive", func(t *testing.T) {
		_, err := listing.NewFixedPrice(creator, "Amber Relic", "", "", 0)
		assert.ErrorIs(t, err, shared.ErrInvalidPrice)

		_, err = listing.NewOpenBid(creator, "Amber Relic", "", "", -1)
		assert.ErrorIs(t, err, shared.ErrInvalidPrice)
	})

	t.Run("auction requires a future end time", func(t *testing.T) {
		_, err := listing.NewAuction(creator, "Amber Relic", "", "", 50, time.Time{})
		assert.ErrorIs(t, err, shared.ErrAuctionEndRequired)

		_, err = listing.NewAuction(creator, "Amber Relic", "", "", 50, time.Now().Add(-time.Second))
		assert.ErrorIs(t, err, shared.ErrInvalidEndTime)

		end := time.Now().Add(time.Hour)
		l, err := listing.NewAuction(creator, "Amber Relic", "", "", 50, end)
		require.NoError(t, err)
		require.NotNil(t, l.AuctionEndTime)
		assert.True(t, l.AuctionEndTime.Equal(end))
	})
}

func TestAuctionEnded(t *testing.T) {
	creator := uuid.New()
	now := time.Now()

	l, err := listing.NewAuction(creator, "Amber Relic", "", "", 50, now.Add(time.Hour))
	require.NoError(t, err)

	assert.False(t, l.AuctionEnded(now))
	assert.True(t, l.AuctionEnded(now.Add(2*time.Hour)))

	fixed, err := listing.NewFixedPrice(creator, "Amber Relic", "", "", 50)
	require.NoError(t, err)
	assert.False(t, fixed.AuctionEnded(now.Add(time.Hour)))
}

func TestTransitions(t *testing.T) {
	creator := uuid.New()
	buyer := uuid.New()

	t.Run("sold hands ownership to the buyer", func(t *testing.T) {
		l, err := listing.NewFixedPrice(creator, "Amber Relic", "", "", 50)
		require.NoError(t, err)

		require.NoError(t, l.MarkSold(buyer))
		assert.Equal(t, listing.StatusSold, l.Status)
		assert.Equal(t, buyer, l.OwnerID)
		assert.True(t, l.IsTerminal())
		assert.False(t, l.IsOpen())
	})

	t.Run("terminal listings refuse further transitions", func(t *testing.T) {
		l, err := listing.NewFixedPrice(creator, "Amber Relic", "", "", 50)
		require.NoError(t, err)
		require.NoError(t, l.MarkCancelled())

		assert.ErrorIs(t, l.MarkSold(buyer), shared.ErrListingTerminal)
		assert.ErrorIs(t, l.MarkCancelled(), shared.ErrListingTerminal)
	})

	t.Run("ownership checks cover creator and current owner", func(t *testing.T) {
		l, err := listing.NewFixedPrice(creator, "Amber Relic", "", "", 50)
		require.NoError(t, err)
		require.NoError(t, l.MarkSold(buyer))

		assert.True(t, l.OwnedBy(creator))
		assert.True(t, l.OwnedBy(buyer))
		assert.False(t, l.OwnedBy(uuid.New()))
	})
}
