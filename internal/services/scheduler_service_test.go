package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/services"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

const recipientHex = "0x5555555555555555555555555555555555555555"

func newStandingOrder(t *testing.T, svc *services.SchedulerService) *business.ScheduledPayment {
	t.Helper()
	record, err := svc.CreateScheduledPayment(context.Background(), services.CreateScheduledPaymentParams{
		Name:      "rent",
		Recipient: recipientHex,
		Amount:    "1",
		Schedule:  business.PaymentSchedule{Type: business.IntervalWeekly},
	})
	require.NoError(t, err)
	return record
}

func TestCreateScheduledPayment(t *testing.T) {
	b := &stubBackend{}
	svc := services.NewSchedulerService(b, openStore(t))
	record := newStandingOrder(t, svc)

	assert.Equal(t, business.StatusActive, record.Status)
	assert.True(t, record.NextExecution.After(time.Now().Add(-time.Minute)),
		"first execution lands in the future")

	// The automation grant is recurring and locked to the recipient
	require.Len(t, b.created, 1)
	assert.True(t, b.created[0].Recurring)
	assert.Equal(t, business.IntervalWeekly, b.created[0].Interval)
	require.Len(t, b.created[0].AllowedRecipients, 1)
	assert.Equal(t, common.HexToAddress(recipientHex), b.created[0].AllowedRecipients[0])
}

func TestCreateScheduledPaymentValidation(t *testing.T) {
	svc := services.NewSchedulerService(&stubBackend{}, openStore(t))
	ctx := context.Background()

	_, err := svc.CreateScheduledPayment(ctx, services.CreateScheduledPaymentParams{
		Recipient: "nope", Amount: "1",
		Schedule: business.PaymentSchedule{Type: business.IntervalDaily},
	})
	assert.Equal(t, business.ErrInvalidAddress, business.KindOf(err))

	_, err = svc.CreateScheduledPayment(ctx, services.CreateScheduledPaymentParams{
		Recipient: recipientHex, Amount: "1",
	})
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))

	_, err = svc.CreateScheduledPayment(ctx, services.CreateScheduledPaymentParams{
		Recipient: recipientHex, Amount: "-1",
		Schedule: business.PaymentSchedule{Type: business.IntervalDaily},
	})
	assert.Equal(t, business.ErrInvalidAmount, business.KindOf(err))
}

func TestMarkExecuted(t *testing.T) {
	svc := services.NewSchedulerService(&stubBackend{}, openStore(t))
	record := newStandingOrder(t, svc)

	require.NoError(t, svc.MarkExecuted(record.ID))

	payments := svc.ListScheduledPayments()
	require.Len(t, payments, 1)
	assert.Equal(t, 1, payments[0].ExecutionsCount)
	assert.Equal(t, business.StatusPartiallyUsed, payments[0].Status)
	assert.True(t, payments[0].NextExecution.After(time.Now()))
}

func TestDuePayments(t *testing.T) {
	svc := services.NewSchedulerService(&stubBackend{}, openStore(t))
	record := newStandingOrder(t, svc)

	assert.Empty(t, svc.DuePayments(time.Now()), "nothing is due before the first execution")

	due := svc.DuePayments(time.Now().AddDate(0, 0, 8))
	require.Len(t, due, 1)
	assert.Equal(t, record.ID, due[0].ID)

	// Cancelled orders never come due
	require.NoError(t, svc.CancelScheduledPayment(context.Background(), record.ID))
	assert.Empty(t, svc.DuePayments(time.Now().AddDate(0, 0, 8)))
}

func TestCancelScheduledPayment(t *testing.T) {
	b := &stubBackend{}
	svc := services.NewSchedulerService(b, openStore(t))
	record := newStandingOrder(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.CancelScheduledPayment(ctx, record.ID))
	assert.Equal(t, []string{record.DelegationID}, b.revoked)

	payments := svc.ListScheduledPayments()
	require.Len(t, payments, 1)
	assert.Equal(t, business.StatusRevoked, payments[0].Status)

	// A second cancel is a no-op
	require.NoError(t, svc.CancelScheduledPayment(ctx, record.ID))
	assert.Len(t, b.revoked, 1)

	err := svc.CancelScheduledPayment(ctx, "scheduled-payment_999")
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}
