package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/services"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

const merchantHex = "0x1111111111111111111111111111111111111111"

func TestCreateSubscription(t *testing.T) {
	b := &stubBackend{}
	svc := services.NewSubscriptionService(b, openStore(t))

	record, err := svc.CreateSubscription(context.Background(), services.CreateSubscriptionParams{
		Name:     "Netflix",
		Merchant: merchantHex,
		Amount:   "15",
		Interval: business.IntervalMonthly,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, business.StatusActive, record.Status)
	assert.Equal(t, "grant_1", record.DelegationID)

	// The backend saw a recurring grant in smallest units
	require.Len(t, b.created, 1)
	assert.True(t, b.created[0].Recurring)
	assert.Equal(t, business.IntervalMonthly, b.created[0].Interval)
	assert.Equal(t, "15000000000000000000", b.created[0].Amount.String())

	assert.Len(t, svc.ListSubscriptions(), 1)
}

func TestCreateSubscriptionStoresNothingOnFailure(t *testing.T) {
	b := &stubBackend{createErr: business.NewError(business.ErrUserRejected, "signature declined")}
	svc := services.NewSubscriptionService(b, openStore(t))

	_, err := svc.CreateSubscription(context.Background(), services.CreateSubscriptionParams{
		Merchant: merchantHex,
		Amount:   "15",
		Interval: business.IntervalMonthly,
	})
	require.Error(t, err)
	assert.True(t, business.IsUserRejected(err))
	assert.Empty(t, svc.ListSubscriptions(), "a declined delegation must leave no record")
}

func TestCreateSubscriptionValidation(t *testing.T) {
	svc := services.NewSubscriptionService(&stubBackend{}, openStore(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		params   services.CreateSubscriptionParams
		wantKind business.ErrorKind
	}{
		{
			name:     "bad merchant address",
			params:   services.CreateSubscriptionParams{Merchant: "not-an-address", Amount: "1", Interval: business.IntervalMonthly},
			wantKind: business.ErrInvalidAddress,
		},
		{
			name:     "missing interval",
			params:   services.CreateSubscriptionParams{Merchant: merchantHex, Amount: "1"},
			wantKind: business.ErrInvalidConfig,
		},
		{
			name:     "bad amount",
			params:   services.CreateSubscriptionParams{Merchant: merchantHex, Amount: "abc", Interval: business.IntervalMonthly},
			wantKind: business.ErrInvalidAmount,
		},
		{
			name:     "zero amount",
			params:   services.CreateSubscriptionParams{Merchant: merchantHex, Amount: "0", Interval: business.IntervalMonthly},
			wantKind: business.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSubscription(ctx, tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, business.KindOf(err))
		})
	}
}

func TestCancelSubscription(t *testing.T) {
	b := &stubBackend{}
	svc := services.NewSubscriptionService(b, openStore(t))
	ctx := context.Background()

	record, err := svc.CreateSubscription(ctx, services.CreateSubscriptionParams{
		Merchant: merchantHex,
		Amount:   "15",
		Interval: business.IntervalMonthly,
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelSubscription(ctx, record.ID))
	assert.Equal(t, []string{record.DelegationID}, b.revoked)

	subs := svc.ListSubscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, business.StatusRevoked, subs[0].Status)

	// Cancelling again is a no-op, not a second revocation
	require.NoError(t, svc.CancelSubscription(ctx, record.ID))
	assert.Len(t, b.revoked, 1)
}

func TestCancelUnknownSubscription(t *testing.T) {
	svc := services.NewSubscriptionService(&stubBackend{}, openStore(t))
	err := svc.CancelSubscription(context.Background(), "subscription_123")
	require.Error(t, err)
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}

func TestRecordUsage(t *testing.T) {
	svc := services.NewSubscriptionService(&stubBackend{}, openStore(t))
	ctx := context.Background()

	record, err := svc.CreateSubscription(ctx, services.CreateSubscriptionParams{
		Merchant: merchantHex,
		Amount:   "15",
		Interval: business.IntervalMonthly,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RecordUsage(record.ID))

	subs := svc.ListSubscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, 1, subs[0].UsageCount)
	assert.Equal(t, business.StatusPartiallyUsed, subs[0].Status)
	assert.NotNil(t, subs[0].LastUsedAt)
}
