package outbound

import (
	"context"

	"nft-market-service/internal/domain/wallet"

	"github.com/google/uuid"
)

// IntentStatus is the payment processor's view of a top-up
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusFailed    IntentStatus = "failed"
)

// PaymentIntent mirrors the processor's intent object
type PaymentIntent struct {
	ID           string       `json:"id"`
	ClientSecret string       `json:"client_secret"`
	Amount       float64      `json:"amount"`
	Currency     string       `json:"currency"`
	Status       IntentStatus `json:"status"`
}

// PaymentProvider is the third-party payment processor used for wallet
// top-ups. Intent creation and card handling are fully delegated to it.
type PaymentProvider interface {
	// CreateIntent registers a charge for the given fiat amount
	CreateIntent(ctx context.Context, amount float64, reference string) (*PaymentIntent, error)

	// GetIntent retrieves an intent's current status
	GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
}

// PaymentRepository defines the interface for top-up payment records
type PaymentRepository interface {
	// Create persists a pending payment record
	Create(ctx context.Context, p *wallet.Payment) error

	// GetByIntentID retrieves a user's payment by processor intent ID
	GetByIntentID(ctx context.Context, intentID string, userID uuid.UUID) (*wallet.Payment, error)

	// UpdateStatus transitions a payment's status
	UpdateStatus(ctx context.Context, id uuid.UUID, status wallet.PaymentStatus) error
}
