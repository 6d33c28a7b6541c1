package rest

import (
	"nft-market-service/internal/ports/inbound"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidHandler exposes the bid ledger over HTTP
type BidHandler struct {
	bids   inbound.BidService
	logger zerolog.Logger
}

type BidHandlerParams struct {
	Bids   inbound.BidService
	Logger zerolog.Logger
}

func NewBidHandler(params BidHandlerParams) *BidHandler {
	return &BidHandler{
		bids:   params.Bids,
		logger: params.Logger.With().Str("component", "bid_handler").Logger(),
	}
}

// Place handles POST /api/bids
func (h *BidHandler) Place(c fiber.Ctx) error {
	bidderID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		ListingID string  `json:"nft_id"`
		Amount    float64 `json:"amount"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	listingID, err := uuid.Parse(body.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid nft_id"})
	}

	b, err := h.bids.PlaceBid(c.Context(), inbound.PlaceBidRequest{
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    body.Amount,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(b)
}

// ListActive handles GET /api/bids?nft_id=
func (h *BidHandler) ListActive(c fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Query("nft_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nft_id query parameter is required"})
	}

	bids, err := h.bids.GetActiveBids(c.Context(), listingID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"bids":  bids,
		"count": len(bids),
	})
}

// Withdraw handles POST /api/bids/:id/withdraw
func (h *BidHandler) Withdraw(c fiber.Ctx) error {
	bidderID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bid ID"})
	}

	if err := h.bids.WithdrawBid(c.Context(), bidID, bidderID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// Accept handles POST /api/bids/:id/accept
func (h *BidHandler) Accept(c fiber.Ctx) error {
	sellerID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bid ID"})
	}

	o, err := h.bids.AcceptBid(c.Context(), bidID, sellerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(o)
}
