package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a marketplace user and their wallet
type Profile struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatar_url"`
	WalletBalance float64   `json:"wallet_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanAfford returns true if the wallet covers the given amount. This is a
// fast-reject only; the authoritative balance check happens inside the
// trade transaction.
func (p *Profile) CanAfford(amount float64) bool {
	return p.WalletBalance >= amount
}
