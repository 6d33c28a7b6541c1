package app_test

import (
	"context"
	"testing"
	"time"

	"nft-market-service/internal/app"
	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerificationFixture(orderRepo *fakeOrderRepo, executor *fakeExecutor) *app.VerificationService {
	return app.NewVerificationService(app.VerificationServiceParams{
		OrderRepo:     orderRepo,
		Executor:      executor,
		MaxPayloadAge: 24 * time.Hour,
		Logger:        zerolog.Nop(),
	})
}

func verifiableOrder() *order.Order {
	now := time.Now()
	return &order.Order{
		ID:               uuid.New(),
		ListingID:        uuid.New(),
		BuyerID:          uuid.New(),
		SellerID:         uuid.New(),
		Price:            250,
		Status:           order.StatusAwaitingVerification,
		VerificationCode: order.GenerateVerificationCode(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestGenerateQR(t *testing.T) {
	t.Run("renders payload and image for a participant", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		qr, err := svc.GenerateQR(context.Background(), o.ID, o.BuyerID)
		require.NoError(t, err)

		assert.Equal(t, o.ID, qr.OrderID)
		assert.NotEmpty(t, qr.PNG)

		payload, err := order.DecodePayload(qr.Payload)
		require.NoError(t, err)
		assert.Equal(t, o.ID, payload.OrderID)
		assert.Equal(t, o.ListingID, payload.ListingID)
		assert.True(t, payload.Matches(o))
	})

	t.Run("rejects a non-participant", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		_, err := svc.GenerateQR(context.Background(), o.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotOrderParticipant)
	})

	t.Run("rejects an order without a verification code", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		o.VerificationCode = ""
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		_, err := svc.GenerateQR(context.Background(), o.ID, o.BuyerID)
		assert.ErrorIs(t, err, shared.ErrNoVerificationCode)
	})
}

func TestVerifyPayload(t *testing.T) {
	t.Run("valid payload verifies and records the scan", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		encoded, err := order.NewPayload(o).Encode()
		require.NoError(t, err)

		result, err := svc.VerifyPayload(context.Background(), encoded, "203.0.113.9")
		require.NoError(t, err)

		assert.True(t, result.IsValid)
		require.NotNil(t, result.Order)
		assert.Equal(t, o.ID, result.Order.ID)
		assert.Equal(t, []uuid.UUID{o.ID}, repo.scans)
	})

	t.Run("garbage blob is invalid, not an error", func(t *testing.T) {
		svc := newVerificationFixture(newFakeOrderRepo(), newFakeExecutor())

		result, err := svc.VerifyPayload(context.Background(), "not base64 at all!!!", "203.0.113.9")
		require.NoError(t, err)

		assert.False(t, result.IsValid)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("stale payload is rejected", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		payload := order.NewPayload(o)
		payload.Timestamp = time.Now().Add(-25 * time.Hour).UnixMilli()
		encoded, err := payload.Encode()
		require.NoError(t, err)

		result, err := svc.VerifyPayload(context.Background(), encoded, "203.0.113.9")
		require.NoError(t, err)

		assert.False(t, result.IsValid)
		assert.Equal(t, "QR code has expired", result.Error)
		assert.Empty(t, repo.scans)
	})

	t.Run("payload for a missing order is rejected", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		svc := newVerificationFixture(repo, newFakeExecutor())

		encoded, err := order.NewPayload(o).Encode()
		require.NoError(t, err)

		result, err := svc.VerifyPayload(context.Background(), encoded, "203.0.113.9")
		require.NoError(t, err)

		assert.False(t, result.IsValid)
		assert.Equal(t, "Order not found", result.Error)
	})

	t.Run("tampered amount is rejected", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		payload := order.NewPayload(o)
		payload.Amount = o.Price + 1
		encoded, err := payload.Encode()
		require.NoError(t, err)

		result, err := svc.VerifyPayload(context.Background(), encoded, "203.0.113.9")
		require.NoError(t, err)

		assert.False(t, result.IsValid)
	})

	t.Run("amount within tolerance still matches", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		payload := order.NewPayload(o)
		payload.Amount = o.Price + 1e-5
		encoded, err := payload.Encode()
		require.NoError(t, err)

		result, err := svc.VerifyPayload(context.Background(), encoded, "203.0.113.9")
		require.NoError(t, err)

		assert.True(t, result.IsValid)
	})

	t.Run("failed order's payload is rejected", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		o.Status = order.StatusFailed
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		encoded, err := order.NewPayload(o).Encode()
		require.NoError(t, err)

		result, err := svc.VerifyPayload(context.Background(), encoded, "203.0.113.9")
		require.NoError(t, err)
		assert.False(t, result.IsValid)
	})

	t.Run("scan audit failure never blocks verification", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.scanErr = shared.ErrDatabaseQuery
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		encoded, err := order.NewPayload(o).Encode()
		require.NoError(t, err)

		result, err := svc.VerifyPayload(context.Background(), encoded, "203.0.113.9")
		require.NoError(t, err)
		assert.True(t, result.IsValid)
	})
}

func TestVerifyByCode(t *testing.T) {
	t.Run("valid code verifies", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		result, err := svc.VerifyByCode(context.Background(), o.VerificationCode, o.ID, "203.0.113.9")
		require.NoError(t, err)

		assert.True(t, result.IsValid)
		assert.Equal(t, o.ID, result.Order.ID)
	})

	t.Run("unknown code is invalid", func(t *testing.T) {
		svc := newVerificationFixture(newFakeOrderRepo(), newFakeExecutor())

		result, err := svc.VerifyByCode(context.Background(), "NOSUCHCODE12", uuid.Nil, "203.0.113.9")
		require.NoError(t, err)

		assert.False(t, result.IsValid)
		assert.Equal(t, "Invalid verification code", result.Error)
	})

	t.Run("cancelled order's code no longer verifies", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		o.Status = order.StatusCancelled
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		result, err := svc.VerifyByCode(context.Background(), o.VerificationCode, o.ID, "203.0.113.9")
		require.NoError(t, err)

		assert.False(t, result.IsValid)
		assert.Empty(t, repo.scans)
	})

	t.Run("completed order's code still verifies", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		o.Status = order.StatusCompleted
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		result, err := svc.VerifyByCode(context.Background(), o.VerificationCode, o.ID, "203.0.113.9")
		require.NoError(t, err)
		assert.True(t, result.IsValid)
	})

	t.Run("code bound to another order is rejected", func(t *testing.T) {
		repo := newFakeOrderRepo()
		o := verifiableOrder()
		repo.add(o)
		svc := newVerificationFixture(repo, newFakeExecutor())

		result, err := svc.VerifyByCode(context.Background(), o.VerificationCode, uuid.New(), "203.0.113.9")
		require.NoError(t, err)

		assert.False(t, result.IsValid)
	})
}

func TestCompletePayment(t *testing.T) {
	t.Run("delegates to the executor", func(t *testing.T) {
		executor := newFakeExecutor()
		svc := newVerificationFixture(newFakeOrderRepo(), executor)

		result, err := svc.CompletePayment(context.Background(), "SOMECODE1234")
		require.NoError(t, err)
		assert.True(t, result.Success)
	})

	t.Run("passes through executor rejection", func(t *testing.T) {
		executor := newFakeExecutor()
		executor.verifyResult = &shared.PaymentResult{Success: false, Message: "Invalid verification code"}
		svc := newVerificationFixture(newFakeOrderRepo(), executor)

		result, err := svc.CompletePayment(context.Background(), "SOMECODE1234")
		require.NoError(t, err)
		assert.False(t, result.Success)
	})

	t.Run("rejects an empty code", func(t *testing.T) {
		svc := newVerificationFixture(newFakeOrderRepo(), newFakeExecutor())

		_, err := svc.CompletePayment(context.Background(), "")
		assert.ErrorIs(t, err, shared.ErrInvalidRequest)
	})
}
