package rest

import (
	"strings"

	"nft-market-service/internal/ports/inbound"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// SettlementHandler exposes the expired-auction sweep. The endpoint is
// meant for the cron runner and is guarded by its own shared secret rather
// than user auth.
type SettlementHandler struct {
	settlement inbound.SettlementService
	cronSecret string
	logger     zerolog.Logger
}

type SettlementHandlerParams struct {
	Settlement inbound.SettlementService
	CronSecret string
	Logger     zerolog.Logger
}

func NewSettlementHandler(params SettlementHandlerParams) *SettlementHandler {
	return &SettlementHandler{
		settlement: params.Settlement,
		cronSecret: params.CronSecret,
		logger:     params.Logger.With().Str("component", "settlement_handler").Logger(),
	}
}

// ProcessExpired handles POST /api/auctions/process-expired
func (h *SettlementHandler) ProcessExpired(c fiber.Ctx) error {
	if h.cronSecret != "" {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || strings.TrimPrefix(authHeader, "Bearer ") != h.cronSecret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
	}

	sweep, err := h.settlement.ProcessExpired(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Expired auction sweep failed")
		return respondError(c, err)
	}

	return c.JSON(sweep)
}
