package rest

import (
	"nft-market-service/internal/ports/inbound"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// WalletHandler exposes wallet balance and top-ups
type WalletHandler struct {
	wallet inbound.WalletService
	logger zerolog.Logger
}

type WalletHandlerParams struct {
	Wallet inbound.WalletService
	Logger zerolog.Logger
}

func NewWalletHandler(params WalletHandlerParams) *WalletHandler {
	return &WalletHandler{
		wallet: params.Wallet,
		logger: params.Logger.With().Str("component", "wallet_handler").Logger(),
	}
}

// Balance handles GET /api/wallet
func (h *WalletHandler) Balance(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	balance, err := h.wallet.GetBalance(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"balance": balance})
}

// CreateIntent handles POST /api/payments/create-intent
func (h *WalletHandler) CreateIntent(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	intent, err := h.wallet.CreateTopUp(c.Context(), userID, body.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(intent)
}

// Confirm handles POST /api/payments/confirm
func (h *WalletHandler) Confirm(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		IntentID string `json:"payment_intent_id"`
	}
	if err := c.Bind().Body(&body); err != nil || body.IntentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_intent_id is required"})
	}

	result, err := h.wallet.ConfirmTopUp(c.Context(), userID, body.IntentID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}
