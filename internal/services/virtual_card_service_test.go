package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/services"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

func newCard(t *testing.T, svc *services.VirtualCardService, amount string, maxUses int) *business.VirtualCard {
	t.Helper()
	card, err := svc.CreateCard(services.CreateVirtualCardParams{
		Merchant: "amazon",
		Amount:   amount,
		MaxUses:  maxUses,
	})
	require.NoError(t, err)
	return card
}

func TestCreateVirtualCard(t *testing.T) {
	svc := services.NewVirtualCardService(openStore(t))
	card := newCard(t, svc, "100", 5)

	assert.Equal(t, "100", card.RemainingAmount, "the full amount starts available")
	assert.Equal(t, 24, card.DurationHours, "validity defaults to 24 hours")
	assert.Equal(t, business.StatusActive, card.Status)
	assert.True(t, card.ExpiresAt.After(card.CreatedAt))
}

func TestCreateVirtualCardValidation(t *testing.T) {
	svc := services.NewVirtualCardService(openStore(t))

	_, err := svc.CreateCard(services.CreateVirtualCardParams{Merchant: "m", Amount: "0", MaxUses: 1})
	assert.Equal(t, business.ErrInvalidAmount, business.KindOf(err))

	_, err = svc.CreateCard(services.CreateVirtualCardParams{Merchant: "m", Amount: "10"})
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}

func TestUseVirtualCard(t *testing.T) {
	svc := services.NewVirtualCardService(openStore(t))
	card := newCard(t, svc, "100", 5)

	updated, err := svc.UseCard(card.ID, "30")
	require.NoError(t, err)
	assert.Equal(t, "70", updated.RemainingAmount)
	assert.Equal(t, 1, updated.UsedCount)
	assert.Equal(t, business.StatusPartiallyUsed, updated.Status)

	updated, err = svc.UseCard(card.ID, "25.5")
	require.NoError(t, err)
	assert.Equal(t, "44.5", updated.RemainingAmount)
	assert.Equal(t, 2, updated.UsedCount)
}

func TestUseVirtualCardOverspendLeavesRecordUntouched(t *testing.T) {
	svc := services.NewVirtualCardService(openStore(t))
	card := newCard(t, svc, "50", 5)

	_, err := svc.UseCard(card.ID, "51")
	require.Error(t, err)
	assert.Equal(t, business.ErrInvalidAmount, business.KindOf(err))

	cards := svc.ListCards()
	require.Len(t, cards, 1)
	assert.Equal(t, "50", cards[0].RemainingAmount, "a rejected spend must not change the balance")
	assert.Equal(t, 0, cards[0].UsedCount)
	assert.Equal(t, business.StatusActive, cards[0].Status)
}

func TestVirtualCardExhaustedByBalance(t *testing.T) {
	svc := services.NewVirtualCardService(openStore(t))
	card := newCard(t, svc, "50", 5)

	updated, err := svc.UseCard(card.ID, "50")
	require.NoError(t, err)
	assert.Equal(t, "0", updated.RemainingAmount)
	assert.Equal(t, business.StatusExhausted, updated.Status)

	_, err = svc.UseCard(card.ID, "1")
	require.Error(t, err)
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}

func TestVirtualCardExhaustedByUseCount(t *testing.T) {
	svc := services.NewVirtualCardService(openStore(t))
	card := newCard(t, svc, "100", 2)

	_, err := svc.UseCard(card.ID, "10")
	require.NoError(t, err)
	updated, err := svc.UseCard(card.ID, "10")
	require.NoError(t, err)

	assert.Equal(t, business.StatusExhausted, updated.Status, "use count ceiling exhausts the card")
	assert.Equal(t, "80", updated.RemainingAmount)

	_, err = svc.UseCard(card.ID, "10")
	require.Error(t, err)
}

func TestRevokeVirtualCard(t *testing.T) {
	svc := services.NewVirtualCardService(openStore(t))
	card := newCard(t, svc, "100", 5)

	require.NoError(t, svc.RevokeCard(card.ID))

	cards := svc.ListCards()
	require.Len(t, cards, 1)
	assert.Equal(t, business.StatusRevoked, cards[0].Status)

	_, err := svc.UseCard(card.ID, "1")
	require.Error(t, err)
}

func TestUseUnknownVirtualCard(t *testing.T) {
	svc := services.NewVirtualCardService(openStore(t))
	_, err := svc.UseCard("virtual-card_999", "1")
	require.Error(t, err)
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}
