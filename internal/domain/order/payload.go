package order

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"math"
	"time"

	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// amountTolerance absorbs floating point drift when cross-checking a
// decoded payload amount against the stored order.
const amountTolerance = 1e-4

// codeAlphabet deliberately omits easily confused characters (0/O, 1/I).
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 12
)

// VerificationPayload is the canonical content encoded into the QR image.
// Verification treats the decoded fields only as a lookup key plus a
// cross-check; the stored order remains authoritative.
type VerificationPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	ListingID uuid.UUID `json:"nft_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Amount    float64   `json:"amount"`
	Timestamp int64     `json:"timestamp"`
	Nonce     string    `json:"nonce"`
}

// NewPayload builds the QR payload for an order
func NewPayload(o *Order) *VerificationPayload {
	return &VerificationPayload{
		OrderID:   o.ID,
		ListingID: o.ListingID,
		BuyerID:   o.BuyerID,
		SellerID:  o.SellerID,
		Amount:    o.Price,
		Timestamp: time.Now().UnixMilli(),
		Nonce:     GenerateCode(8),
	}
}

// Encode serializes the payload to the base64 form embedded in QR images
func (p *VerificationPayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodePayload parses an opaque scanned blob back into a payload
func DecodePayload(encoded string) (*VerificationPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, shared.ErrPayloadInvalid
	}
	var p VerificationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, shared.ErrPayloadInvalid
	}
	if p.OrderID == uuid.Nil || p.ListingID == uuid.Nil || p.Timestamp == 0 {
		return nil, shared.ErrPayloadInvalid
	}
	return &p, nil
}

// ExpiredAt reports whether the payload is older than maxAge at the given
// instant. Only the blob path carries a client timestamp; direct code
// lookups rely on order state instead.
func (p *VerificationPayload) ExpiredAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(time.UnixMilli(p.Timestamp)) > maxAge
}

// Matches cross-checks the decoded fields against the stored order,
// defending against a forged or stale payload pointing at an order it does
// not describe.
func (p *VerificationPayload) Matches(o *Order) bool {
	return p.BuyerID == o.BuyerID &&
		p.SellerID == o.SellerID &&
		math.Abs(p.Amount-o.Price) <= amountTolerance
}

// GenerateCode produces an opaque token of length n from the code alphabet
func GenerateCode(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// GenerateVerificationCode produces a candidate single-use verification
// code; uniqueness is enforced by the store, collisions trigger
// regeneration.
func GenerateVerificationCode() string {
	return GenerateCode(codeLength)
}
