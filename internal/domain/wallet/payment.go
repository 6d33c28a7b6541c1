package wallet

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks a top-up payment's lifecycle
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records one wallet top-up attempt against the external payment
// processor. CreditAmount is the wallet currency credited on success;
// FiatAmount is what the processor charged.
type Payment struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	IntentID     string        `json:"intent_id"`
	FiatAmount   float64       `json:"fiat_amount"`
	CreditAmount float64       `json:"credit_amount"`
	Status       PaymentStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
