package rest

import (
	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/ports/inbound"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler exposes order queries
type OrderHandler struct {
	orders inbound.OrderService
	logger zerolog.Logger
}

type OrderHandlerParams struct {
	Orders inbound.OrderService
	Logger zerolog.Logger
}

func NewOrderHandler(params OrderHandlerParams) *OrderHandler {
	return &OrderHandler{
		orders: params.Orders,
		logger: params.Logger.With().Str("component", "order_handler").Logger(),
	}
}

// List handles GET /api/orders
func (h *OrderHandler) List(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var status *order.Status
	if raw := c.Query("status"); raw != "" {
		s := order.Status(raw)
		status = &s
	}

	orders, total, err := h.orders.ListOrders(c.Context(), userID, status, queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"total":  total,
	})
}

// Get handles GET /api/orders/:id
func (h *OrderHandler) Get(c fiber.Ctx) error {
	userID, err := requesterID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	o, err := h.orders.GetOrder(c.Context(), orderID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(o)
}
