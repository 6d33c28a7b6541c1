package app_test

import (
	"context"
	"testing"

	"nft-market-service/internal/app"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/domain/wallet"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walletFixture struct {
	profiles *fakeProfileRepo
	payments *fakePaymentRepo
	provider *fakeProvider
	executor *fakeExecutor
	svc      *app.WalletService
}

func newWalletFixture(provider outbound.PaymentProvider) *walletFixture {
	f := &walletFixture{
		profiles: newFakeProfileRepo(),
		payments: newFakePaymentRepo(),
		executor: newFakeExecutor(),
	}
	f.executor.payments = f.payments
	if fp, ok := provider.(*fakeProvider); ok {
		f.provider = fp
	}
	f.svc = app.NewWalletService(app.WalletServiceParams{
		ProfileRepo: f.profiles,
		PaymentRepo: f.payments,
		Provider:    provider,
		Executor:    f.executor,
		Rate:        2,
		Logger:      zerolog.Nop(),
	})
	return f
}

func TestGetBalance(t *testing.T) {
	f := newWalletFixture(newFakeProvider())
	userID := uuid.New()
	f.profiles.addWithBalance(userID, 420)

	balance, err := f.svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 420.0, balance)

	_, err = f.svc.GetBalance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
}

func TestCreateTopUp(t *testing.T) {
	t.Run("creates an intent and a pending payment row", func(t *testing.T) {
		f := newWalletFixture(newFakeProvider())
		userID := uuid.New()
		f.profiles.addWithBalance(userID, 0)

		intent, err := f.svc.CreateTopUp(context.Background(), userID, 100)
		require.NoError(t, err)

		assert.NotEmpty(t, intent.IntentID)
		assert.NotEmpty(t, intent.ClientSecret)
		assert.Equal(t, 100.0, intent.CreditAmount)

		payment, err := f.payments.GetByIntentID(context.Background(), intent.IntentID, userID)
		require.NoError(t, err)
		assert.Equal(t, wallet.PaymentPending, payment.Status)
		assert.Equal(t, 200.0, payment.FiatAmount)

		// conversion rate applies to the processor charge, not the credit
		assert.Equal(t, 200.0, f.provider.intents[intent.IntentID].Amount)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		f := newWalletFixture(newFakeProvider())

		_, err := f.svc.CreateTopUp(context.Background(), uuid.New(), 0)
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("unavailable without a configured processor", func(t *testing.T) {
		f := newWalletFixture(nil)

		_, err := f.svc.CreateTopUp(context.Background(), uuid.New(), 100)
		assert.ErrorIs(t, err, shared.ErrPaymentUnavailable)
	})

	t.Run("rejects an unknown profile", func(t *testing.T) {
		f := newWalletFixture(newFakeProvider())

		_, err := f.svc.CreateTopUp(context.Background(), uuid.New(), 100)
		assert.ErrorIs(t, err, shared.ErrProfileNotFound)
	})

	t.Run("processor failure surfaces as unavailable", func(t *testing.T) {
		provider := newFakeProvider()
		provider.createErr = shared.ErrPaymentUnavailable
		f := newWalletFixture(provider)
		userID := uuid.New()
		f.profiles.addWithBalance(userID, 0)

		_, err := f.svc.CreateTopUp(context.Background(), userID, 100)
		assert.ErrorIs(t, err, shared.ErrPaymentUnavailable)
		assert.Empty(t, f.payments.payments)
	})
}

func TestConfirmTopUp(t *testing.T) {
	setup := func(t *testing.T) (*walletFixture, uuid.UUID, string) {
		t.Helper()
		f := newWalletFixture(newFakeProvider())
		userID := uuid.New()
		f.profiles.addWithBalance(userID, 0)

		intent, err := f.svc.CreateTopUp(context.Background(), userID, 50)
		require.NoError(t, err)
		return f, userID, intent.IntentID
	}

	t.Run("credits the wallet once the intent succeeds", func(t *testing.T) {
		f, userID, intentID := setup(t)
		f.provider.intents[intentID].Status = outbound.IntentStatusSucceeded

		result, err := f.svc.ConfirmTopUp(context.Background(), userID, intentID)
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, 50.0, result.CreditAmount)
		assert.Equal(t, 50.0, f.executor.creditedAmounts[userID])

		payment, err := f.payments.GetByIntentID(context.Background(), intentID, userID)
		require.NoError(t, err)
		assert.Equal(t, wallet.PaymentCompleted, payment.Status)
	})

	t.Run("idempotent on an already credited payment", func(t *testing.T) {
		f, userID, intentID := setup(t)
		f.provider.intents[intentID].Status = outbound.IntentStatusSucceeded

		_, err := f.svc.ConfirmTopUp(context.Background(), userID, intentID)
		require.NoError(t, err)

		result, err := f.svc.ConfirmTopUp(context.Background(), userID, intentID)
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, "Payment already credited", result.Message)
		assert.Equal(t, 50.0, f.executor.creditedAmounts[userID])
	})

	t.Run("retry after a failed credit never double credits", func(t *testing.T) {
		f, userID, intentID := setup(t)
		f.provider.intents[intentID].Status = outbound.IntentStatusSucceeded

		f.executor.creditErr = shared.ErrDatabaseQuery
		_, err := f.svc.ConfirmTopUp(context.Background(), userID, intentID)
		require.Error(t, err)

		// the failed attempt must leave the payment pending with no credit
		payment, err := f.payments.GetByIntentID(context.Background(), intentID, userID)
		require.NoError(t, err)
		assert.Equal(t, wallet.PaymentPending, payment.Status)
		assert.Empty(t, f.executor.creditedAmounts)

		f.executor.creditErr = nil
		result, err := f.svc.ConfirmTopUp(context.Background(), userID, intentID)
		require.NoError(t, err)
		require.True(t, result.Success)

		_, err = f.svc.ConfirmTopUp(context.Background(), userID, intentID)
		require.NoError(t, err)
		assert.Equal(t, 50.0, f.executor.creditedAmounts[userID])
	})

	t.Run("pending intent does not credit", func(t *testing.T) {
		f, userID, intentID := setup(t)

		result, err := f.svc.ConfirmTopUp(context.Background(), userID, intentID)
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, "Payment not completed", result.Message)
		assert.Empty(t, f.executor.creditedAmounts)
	})

	t.Run("failed intent marks the payment failed", func(t *testing.T) {
		f, userID, intentID := setup(t)
		f.provider.intents[intentID].Status = outbound.IntentStatusFailed

		result, err := f.svc.ConfirmTopUp(context.Background(), userID, intentID)
		require.NoError(t, err)

		assert.False(t, result.Success)
		payment, err := f.payments.GetByIntentID(context.Background(), intentID, userID)
		require.NoError(t, err)
		assert.Equal(t, wallet.PaymentFailed, payment.Status)
	})

	t.Run("another user's intent is not visible", func(t *testing.T) {
		f, _, intentID := setup(t)

		_, err := f.svc.ConfirmTopUp(context.Background(), uuid.New(), intentID)
		assert.ErrorIs(t, err, shared.ErrPaymentNotFound)
	})

	t.Run("unavailable without a configured processor", func(t *testing.T) {
		f := newWalletFixture(nil)

		_, err := f.svc.ConfirmTopUp(context.Background(), uuid.New(), "pi_missing")
		assert.ErrorIs(t, err, shared.ErrPaymentUnavailable)
	})
}
