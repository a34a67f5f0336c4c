package services_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/services"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

var potMembers = []common.Address{
	common.HexToAddress("0x2222222222222222222222222222222222222222"),
	common.HexToAddress("0x3333333333333333333333333333333333333333"),
	common.HexToAddress("0x4444444444444444444444444444444444444444"),
}

func newPot(t *testing.T, svc *services.PotService) *business.SharedPot {
	t.Helper()
	pot, err := svc.CreatePot(services.CreatePotParams{
		Name:      "holiday fund",
		Members:   potMembers,
		Threshold: 2,
	})
	require.NoError(t, err)
	return pot
}

func TestCreatePot(t *testing.T) {
	svc := services.NewPotService(openStore(t))
	pot := newPot(t, svc)

	assert.Equal(t, "0", pot.Balance, "a new pot starts empty")
	assert.Equal(t, 2, pot.Threshold)
	assert.Equal(t, business.StatusActive, pot.Status)
	assert.Len(t, svc.ListPots(), 1)
}

func TestCreatePotValidation(t *testing.T) {
	svc := services.NewPotService(openStore(t))

	tests := []struct {
		name     string
		params   services.CreatePotParams
		wantKind business.ErrorKind
	}{
		{
			name:     "single member",
			params:   services.CreatePotParams{Members: potMembers[:1], Threshold: 1},
			wantKind: business.ErrInvalidConfig,
		},
		{
			name:     "threshold above member count",
			params:   services.CreatePotParams{Members: potMembers, Threshold: 4},
			wantKind: business.ErrInvalidConfig,
		},
		{
			name:     "zero threshold",
			params:   services.CreatePotParams{Members: potMembers, Threshold: 0},
			wantKind: business.ErrInvalidConfig,
		},
		{
			name: "zero member address",
			params: services.CreatePotParams{
				Members:   []common.Address{potMembers[0], {}},
				Threshold: 1,
			},
			wantKind: business.ErrInvalidAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePot(tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, business.KindOf(err))
		})
	}
}

func TestAddFunds(t *testing.T) {
	svc := services.NewPotService(openStore(t))
	pot := newPot(t, svc)

	require.NoError(t, svc.AddFunds(pot.ID, "1.5"))
	require.NoError(t, svc.AddFunds(pot.ID, "0.25"))

	pots := svc.ListPots()
	require.Len(t, pots, 1)
	assert.Equal(t, "1.75", pots[0].Balance)
}

func TestAddFundsValidation(t *testing.T) {
	svc := services.NewPotService(openStore(t))
	pot := newPot(t, svc)

	err := svc.AddFunds(pot.ID, "0")
	assert.Equal(t, business.ErrInvalidAmount, business.KindOf(err))

	err = svc.AddFunds(pot.ID, "abc")
	assert.Equal(t, business.ErrInvalidAmount, business.KindOf(err))

	err = svc.AddFunds("shared-pot_999", "1")
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}

func TestClosedPotRejectsDeposits(t *testing.T) {
	svc := services.NewPotService(openStore(t))
	pot := newPot(t, svc)

	require.NoError(t, svc.ClosePot(pot.ID))

	pots := svc.ListPots()
	require.Len(t, pots, 1)
	assert.Equal(t, business.StatusRevoked, pots[0].Status)

	err := svc.AddFunds(pot.ID, "1")
	require.Error(t, err)
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}
