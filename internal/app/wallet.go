package app

import (
	"context"
	"time"

	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/domain/wallet"
	"nft-market-service/internal/ports/inbound"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletService implements wallet top-ups through the external payment
// processor. A nil provider means no processor is configured and top-ups are
// unavailable; balances still work.
type WalletService struct {
	profileRepo outbound.ProfileRepository
	paymentRepo outbound.PaymentRepository
	provider    outbound.PaymentProvider
	executor    outbound.TradeExecutor
	rate        float64
	logger      zerolog.Logger
}

type WalletServiceParams struct {
	ProfileRepo outbound.ProfileRepository
	PaymentRepo outbound.PaymentRepository
	Provider    outbound.PaymentProvider
	Executor    outbound.TradeExecutor
	// Rate converts one wallet credit unit into fiat currency
	Rate   float64
	Logger zerolog.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(params WalletServiceParams) *WalletService {
	rate := params.Rate
	if rate <= 0 {
		rate = 1
	}

	return &WalletService{
		profileRepo: params.ProfileRepo,
		paymentRepo: params.PaymentRepo,
		provider:    params.Provider,
		executor:    params.Executor,
		rate:        rate,
		logger:      params.Logger.With().Str("component", "wallet_service").Logger(),
	}
}

// GetBalance returns a user's current wallet balance
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (float64, error) {
	p, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return p.WalletBalance, nil
}

// CreateTopUp opens a payment intent with the external processor
func (s *WalletService) CreateTopUp(ctx context.Context, userID uuid.UUID, amount float64) (*inbound.TopUpIntent, error) {
	if amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}

	if s.provider == nil {
		return nil, shared.ErrPaymentUnavailable
	}

	// Ensure the profile exists before opening a charge
	if _, err := s.profileRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	fiatAmount := amount * s.rate
	intent, err := s.provider.CreateIntent(ctx, fiatAmount, userID.String())
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create payment intent")
		return nil, shared.ErrPaymentUnavailable
	}

	now := time.Now()
	payment := &wallet.Payment{
		ID:           uuid.New(),
		UserID:       userID,
		IntentID:     intent.ID,
		FiatAmount:   fiatAmount,
		CreditAmount: amount,
		Status:       wallet.PaymentPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		s.logger.Error().Err(err).Str("intent_id", intent.ID).Msg("Failed to persist payment record")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("intent_id", intent.ID).
		Float64("credit_amount", amount).
		Msg("Top-up intent created")

	return &inbound.TopUpIntent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		CreditAmount: amount,
	}, nil
}

// ConfirmTopUp checks the intent with the processor and credits the wallet.
// Idempotent on already completed payments.
func (s *WalletService) ConfirmTopUp(ctx context.Context, userID uuid.UUID, intentID string) (*inbound.TopUpResult, error) {
	if s.provider == nil {
		return nil, shared.ErrPaymentUnavailable
	}

	payment, err := s.paymentRepo.GetByIntentID(ctx, intentID, userID)
	if err != nil {
		return nil, err
	}

	if payment.Status == wallet.PaymentCompleted {
		return &inbound.TopUpResult{
			Success:      true,
			Message:      "Payment already credited",
			CreditAmount: payment.CreditAmount,
		}, nil
	}

	intent, err := s.provider.GetIntent(ctx, intentID)
	if err != nil {
		s.logger.Error().Err(err).Str("intent_id", intentID).Msg("Failed to query payment intent")
		return nil, shared.ErrPaymentUnavailable
	}

	switch intent.Status {
	case outbound.IntentStatusSucceeded:
		// fall through to credit
	case outbound.IntentStatusFailed:
		if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, wallet.PaymentFailed); err != nil {
			s.logger.Error().Err(err).Str("intent_id", intentID).Msg("Failed to mark payment failed")
		}
		return &inbound.TopUpResult{Success: false, Message: "Payment failed"}, nil
	default:
		return &inbound.TopUpResult{Success: false, Message: "Payment not completed"}, nil
	}

	// Credit and status flip are one transaction; a failed attempt leaves the
	// payment pending with no credit, so retrying is always safe
	if err := s.executor.CreditTopUp(ctx, payment.ID, userID, payment.CreditAmount); err != nil {
		s.logger.Error().Err(err).Str("intent_id", intentID).Msg("Failed to credit wallet")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("intent_id", intentID).
		Float64("credit_amount", payment.CreditAmount).
		Msg("Wallet topped up")

	return &inbound.TopUpResult{
		Success:      true,
		Message:      "Wallet credited",
		CreditAmount: payment.CreditAmount,
	}, nil
}
