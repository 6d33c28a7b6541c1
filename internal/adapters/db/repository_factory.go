package db

import (
	"nft-market-service/internal/ports/outbound"
)

// RepositoryFactory creates and manages all database repositories
type RepositoryFactory struct {
	conn *Connection
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// GetListingRepository returns the listing repository
func (f *RepositoryFactory) GetListingRepository() outbound.ListingRepository {
	return NewListingRepository(f.conn)
}

// GetBidRepository returns the bid repository
func (f *RepositoryFactory) GetBidRepository() outbound.BidRepository {
	return NewBidRepository(f.conn)
}

// GetOrderRepository returns the order repository
func (f *RepositoryFactory) GetOrderRepository() outbound.OrderRepository {
	return NewOrderRepository(f.conn)
}

// GetProfileRepository returns the profile repository
func (f *RepositoryFactory) GetProfileRepository() outbound.ProfileRepository {
	return NewProfileRepository(f.conn)
}

// GetChatRepository returns the chat repository
func (f *RepositoryFactory) GetChatRepository() outbound.ChatRepository {
	return NewChatRepository(f.conn)
}

// GetPaymentRepository returns the payment repository
func (f *RepositoryFactory) GetPaymentRepository() outbound.PaymentRepository {
	return NewPaymentRepository(f.conn)
}

// GetTradeExecutor returns the atomic trade executor
func (f *RepositoryFactory) GetTradeExecutor() outbound.TradeExecutor {
	return NewTradeExecutor(f.conn)
}
