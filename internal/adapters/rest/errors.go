package rest

import (
	"errors"

	"nft-market-service/internal/domain/shared"

	"github.com/gofiber/fiber/v3"
)

// statusForError maps domain sentinels to HTTP status codes. Anything
// unmapped is an internal failure and must not leak its message.
func statusForError(err error) int {
	switch {
	case errors.Is(err, shared.ErrListingNotFound),
		errors.Is(err, shared.ErrBidNotFound),
		errors.Is(err, shared.ErrOrderNotFound),
		errors.Is(err, shared.ErrProfileNotFound),
		errors.Is(err, shared.ErrConversationNotFound),
		errors.Is(err, shared.ErrPaymentNotFound),
		errors.Is(err, shared.ErrNoActiveBids):
		return fiber.StatusNotFound

	case errors.Is(err, shared.ErrNotSeller),
		errors.Is(err, shared.ErrNotBidOwner),
		errors.Is(err, shared.ErrNotOrderParticipant),
		errors.Is(err, shared.ErrNotParticipant):
		return fiber.StatusForbidden

	case errors.Is(err, shared.ErrPaymentUnavailable):
		return fiber.StatusServiceUnavailable

	case errors.Is(err, shared.ErrInvalidRequest),
		errors.Is(err, shared.ErrInvalidPrice),
		errors.Is(err, shared.ErrInvalidAmount),
		errors.Is(err, shared.ErrInvalidEndTime),
		errors.Is(err, shared.ErrAuctionEndRequired),
		errors.Is(err, shared.ErrBidAmountInvalid),
		errors.Is(err, shared.ErrBidTooLow),
		errors.Is(err, shared.ErrBidNotActive),
		errors.Is(err, shared.ErrSelfTrade),
		errors.Is(err, shared.ErrAuctionEnded),
		errors.Is(err, shared.ErrListingNotBiddable),
		errors.Is(err, shared.ErrNotFixedPrice),
		errors.Is(err, shared.ErrListingTerminal),
		errors.Is(err, shared.ErrInsufficientFunds),
		errors.Is(err, shared.ErrPayloadInvalid),
		errors.Is(err, shared.ErrPayloadExpired),
		errors.Is(err, shared.ErrPayloadMismatch),
		errors.Is(err, shared.ErrNoVerificationCode),
		errors.Is(err, shared.ErrPaymentNotCompleted),
		errors.Is(err, shared.ErrEmptyMessage):
		return fiber.StatusBadRequest

	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error body for a domain error
func respondError(c fiber.Ctx, err error) error {
	status := statusForError(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
