package rest

import (
	"strconv"
	"time"

	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/ports/inbound"
	"nft-market-service/internal/ports/outbound"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ListingHandler exposes the listing lifecycle over HTTP
type ListingHandler struct {
	listings inbound.ListingService
	logger   zerolog.Logger
}

type ListingHandlerParams struct {
	Listings inbound.ListingService
	Logger   zerolog.Logger
}

func NewListingHandler(params ListingHandlerParams) *ListingHandler {
	return &ListingHandler{
		listings: params.Listings,
		logger:   params.Logger.With().Str("component", "listing_handler").Logger(),
	}
}

// Create handles POST /api/nfts
func (h *ListingHandler) Create(c fiber.Ctx) error {
	creatorID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		Title          string  `json:"title"`
		Description    string  `json:"description"`
		MediaURL       string  `json:"media_url"`
		Price          float64 `json:"price"`
		SaleType       string  `json:"sale_type"`
		AuctionEndTime string  `json:"auction_end_time"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req := inbound.CreateListingRequest{
		CreatorID:   creatorID,
		Title:       body.Title,
		Description: body.Description,
		MediaURL:    body.MediaURL,
		Price:       body.Price,
		SaleType:    listing.SaleType(body.SaleType),
	}

	if body.AuctionEndTime != "" {
		endTime, err := time.Parse(time.RFC3339, body.AuctionEndTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid auction_end_time format"})
		}
		req.AuctionEndTime = &endTime
	}

	l, err := h.listings.CreateListing(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(l)
}

// Get handles GET /api/nfts/:id
func (h *ListingHandler) Get(c fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid listing ID"})
	}

	l, err := h.listings.GetListing(c.Context(), listingID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(l)
}

// List handles GET /api/nfts
func (h *ListingHandler) List(c fiber.Ctx) error {
	filter := outbound.ListingFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 20),
	}

	if status := c.Query("status"); status != "" {
		s := listing.Status(status)
		filter.Status = &s
	}
	if saleType := c.Query("sale_type"); saleType != "" {
		st := listing.SaleType(saleType)
		filter.SaleType = &st
	}
	if owner := c.Query("owner_id"); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid owner_id"})
		}
		filter.OwnerID = &ownerID
	}

	listings, err := h.listings.ListListings(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"nfts":  listings,
		"count": len(listings),
	})
}

// Update handles PUT /api/nfts/:id
func (h *ListingHandler) Update(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid listing ID"})
	}

	var body struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	l, err := h.listings.UpdateListing(c.Context(), inbound.UpdateListingRequest{
		ListingID:   listingID,
		RequesterID: userID,
		Title:       body.Title,
		Description: body.Description,
		Price:       body.Price,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(l)
}

// Cancel handles DELETE /api/nfts/:id
func (h *ListingHandler) Cancel(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid listing ID"})
	}

	if err := h.listings.CancelListing(c.Context(), listingID, userID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// Purchase handles POST /api/nfts/purchase
func (h *ListingHandler) Purchase(c fiber.Ctx) error {
	buyerID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		ListingID string `json:"nft_id"`
		Delivery  bool   `json:"delivery"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	listingID, err := uuid.Parse(body.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid nft_id"})
	}

	o, err := h.listings.Purchase(c.Context(), inbound.PurchaseRequest{
		ListingID: listingID,
		BuyerID:   buyerID,
		Delivery:  body.Delivery,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(o)
}

// queryInt parses an integer query parameter with a fallback
func queryInt(c fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
