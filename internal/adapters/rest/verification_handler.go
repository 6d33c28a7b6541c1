package rest

import (
	"encoding/base64"

	"nft-market-service/internal/ports/inbound"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// VerificationHandler exposes QR generation and order verification
type VerificationHandler struct {
	verification inbound.VerificationService
	logger       zerolog.Logger
}

type VerificationHandlerParams struct {
	Verification inbound.VerificationService
	Logger       zerolog.Logger
}

func NewVerificationHandler(params VerificationHandlerParams) *VerificationHandler {
	return &VerificationHandler{
		verification: params.Verification,
		logger:       params.Logger.With().Str("component", "verification_handler").Logger(),
	}
}

// Generate handles POST /api/qr/generate
func (h *VerificationHandler) Generate(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		OrderID string `json:"order_id"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	orderID, err := uuid.Parse(body.OrderID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order_id"})
	}

	qr, err := h.verification.GenerateQR(c.Context(), orderID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"order_id": qr.OrderID,
		"payload":  qr.Payload,
		"image":    "data:image/png;base64," + base64.StdEncoding.EncodeToString(qr.PNG),
	})
}

// Verify handles POST /api/qr/verify
func (h *VerificationHandler) Verify(c fiber.Ctx) error {
	var body struct {
		Payload string `json:"payload"`
	}
	if err := c.Bind().Body(&body); err != nil || body.Payload == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payload is required"})
	}

	result, err := h.verification.VerifyPayload(c.Context(), body.Payload, c.IP())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// VerifyByCode handles GET /api/verify?code=&order=
func (h *VerificationHandler) VerifyByCode(c fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code query parameter is required"})
	}

	orderID := uuid.Nil
	if raw := c.Query("order"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order parameter"})
		}
		orderID = parsed
	}

	result, err := h.verification.VerifyByCode(c.Context(), code, orderID, c.IP())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// Complete handles POST /api/qr/complete
func (h *VerificationHandler) Complete(c fiber.Ctx) error {
	if _, err := requesterID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		VerificationCode string `json:"verification_code"`
	}
	if err := c.Bind().Body(&body); err != nil || body.VerificationCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "verification_code is required"})
	}

	result, err := h.verification.CompletePayment(c.Context(), body.VerificationCode)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(result)
}
