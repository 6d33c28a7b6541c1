package app

import (
	"context"

	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderService implements order queries. Orders are only ever created by the
// trade executor; this service reads them back.
type OrderService struct {
	orderRepo outbound.OrderRepository
	logger    zerolog.Logger
}

type OrderServiceParams struct {
	OrderRepo outbound.OrderRepository
	Logger    zerolog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(params OrderServiceParams) *OrderService {
	return &OrderService{
		orderRepo: params.OrderRepo,
		logger:    params.Logger.With().Str("component", "order_service").Logger(),
	}
}

// GetOrder retrieves an order the requester participates in
func (s *OrderService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.Involves(requesterID) {
		return nil, shared.ErrNotOrderParticipant
	}

	return o, nil
}

// ListOrders retrieves the requester's orders, newest first, with total
func (s *OrderService) ListOrders(ctx context.Context, requesterID uuid.UUID, status *order.Status, page, pageSize int) ([]*order.Order, int, error) {
	filter := outbound.OrderFilter{
		UserID:   &requesterID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	}
	return s.orderRepo.List(ctx, filter)
}
