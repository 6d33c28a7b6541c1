package app

import (
	"context"
	"errors"
	"time"

	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/ports/inbound"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// VerificationService implements the QR order-verification use cases. A QR
// scan never mutates anything; only CompletePayment releases funds, and it
// delegates to the trade executor's atomic verification.
type VerificationService struct {
	orderRepo outbound.OrderRepository
	executor  outbound.TradeExecutor
	maxAge    time.Duration
	logger    zerolog.Logger
}

type VerificationServiceParams struct {
	OrderRepo outbound.OrderRepository
	Executor  outbound.TradeExecutor
	// MaxPayloadAge bounds how old a scanned payload's timestamp may be
	MaxPayloadAge time.Duration
	Logger        zerolog.Logger
}

// NewVerificationService creates a new verification service
func NewVerificationService(params VerificationServiceParams) *VerificationService {
	maxAge := params.MaxPayloadAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	return &VerificationService{
		orderRepo: params.OrderRepo,
		executor:  params.Executor,
		maxAge:    maxAge,
		logger:    params.Logger.With().Str("component", "verification_service").Logger(),
	}
}

// GenerateQR produces the QR payload and PNG image for an order the
// requester participates in
func (s *VerificationService) GenerateQR(ctx context.Context, orderID, requesterID uuid.UUID) (*inbound.QRCode, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.Involves(requesterID) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("requester_id", requesterID.String()).
			Msg("QR generation rejected, requester not an order participant")
		return nil, shared.ErrNotOrderParticipant
	}

	if o.VerificationCode == "" {
		return nil, shared.ErrNoVerificationCode
	}

	payload, err := order.NewPayload(o).Encode()
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("Failed to encode QR payload")
		return nil, err
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("Failed to render QR image")
		return nil, err
	}

	s.logger.Info().Str("order_id", orderID.String()).Msg("QR code generated")
	return &inbound.QRCode{
		OrderID: o.ID,
		Payload: payload,
		PNG:     png,
	}, nil
}

// VerifyPayload validates a scanned opaque payload against stored order
// data. Invalid scans come back as a non-valid result, not an error.
func (s *VerificationService) VerifyPayload(ctx context.Context, encodedPayload, requesterIP string) (*inbound.VerificationResult, error) {
	now := time.Now()

	payload, err := order.DecodePayload(encodedPayload)
	if err != nil {
		return s.invalidResult(now, "Invalid QR code format"), nil
	}

	if payload.ExpiredAt(now, s.maxAge) {
		return s.invalidResult(now, "QR code has expired"), nil
	}

	o, err := s.orderRepo.GetByID(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, shared.ErrOrderNotFound) {
			return s.invalidResult(now, "Order not found"), nil
		}
		return nil, err
	}

	if o.ListingID != payload.ListingID || !payload.Matches(o) {
		s.logger.Warn().Str("order_id", o.ID.String()).Msg("Scanned payload does not match stored order")
		return s.invalidResult(now, "Order details do not match QR code"), nil
	}

	if !o.Verifiable() {
		return s.invalidResult(now, "Order is not verifiable"), nil
	}

	s.recordScan(ctx, o.ID, requesterIP, now)

	s.logger.Info().Str("order_id", o.ID.String()).Msg("QR payload verified")
	return &inbound.VerificationResult{
		IsValid:   true,
		Order:     o,
		ScannedAt: now,
	}, nil
}

// VerifyByCode validates an order directly by verification code, bypassing
// the blob decode
func (s *VerificationService) VerifyByCode(ctx context.Context, code string, orderID uuid.UUID, requesterIP string) (*inbound.VerificationResult, error) {
	now := time.Now()

	o, err := s.orderRepo.GetByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrOrderNotFound) {
			return s.invalidResult(now, "Invalid verification code"), nil
		}
		return nil, err
	}

	if orderID != uuid.Nil && o.ID != orderID {
		return s.invalidResult(now, "Verification code belongs to another order"), nil
	}

	// No client timestamp on this path; order state gates validity instead
	if !o.Verifiable() {
		return s.invalidResult(now, "Order is not verifiable"), nil
	}

	s.recordScan(ctx, o.ID, requesterIP, now)

	s.logger.Info().Str("order_id", o.ID.String()).Msg("Verification code checked")
	return &inbound.VerificationResult{
		IsValid:   true,
		Order:     o,
		ScannedAt: now,
	}, nil
}

// CompletePayment releases payment to the seller once the buyer confirms
// receipt. Idempotent on already completed orders.
func (s *VerificationService) CompletePayment(ctx context.Context, verificationCode string) (*shared.PaymentResult, error) {
	if verificationCode == "" {
		return nil, shared.ErrInvalidRequest
	}

	result, err := s.executor.VerifyOrderPayment(ctx, verificationCode)
	if err != nil {
		s.logger.Error().Err(err).Msg("Order payment verification failed")
		return nil, err
	}

	if result.Success {
		s.logger.Info().Str("message", result.Message).Msg("Order payment completed")
	} else {
		s.logger.Warn().Str("message", result.Message).Msg("Order payment rejected")
	}
	return result, nil
}

func (s *VerificationService) invalidResult(at time.Time, reason string) *inbound.VerificationResult {
	return &inbound.VerificationResult{
		IsValid:   false,
		ScannedAt: at,
		Error:     reason,
	}
}

// recordScan appends the audit row; verification outcomes never depend on it
func (s *VerificationService) recordScan(ctx context.Context, orderID uuid.UUID, requesterIP string, at time.Time) {
	if err := s.orderRepo.RecordScan(ctx, orderID, requesterIP, at); err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("Failed to record scan audit row")
	}
}
