package shared

import "github.com/google/uuid"

// SettlementStatus classifies the outcome of settling one expired auction.
type SettlementStatus string

const (
	SettlementCompleted SettlementStatus = "completed"
	SettlementCancelled SettlementStatus = "cancelled"
	SettlementError     SettlementStatus = "error"
)

// SettlementResult is the per-listing outcome of an expired-auction sweep.
type SettlementResult struct {
	ListingID  uuid.UUID        `json:"listing_id"`
	Status     SettlementStatus `json:"status"`
	WinnerID   *uuid.UUID       `json:"winner_id,omitempty"`
	FinalPrice *float64         `json:"final_price,omitempty"`
	Detail     string           `json:"detail,omitempty"`
}

// SweepResult aggregates one invocation of the settlement sweep.
type SweepResult struct {
	Processed int                `json:"processed"`
	Results   []SettlementResult `json:"results"`
}

// PaymentResult is the outcome of the atomic verification-payment operation.
type PaymentResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}
