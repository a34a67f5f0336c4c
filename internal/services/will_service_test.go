package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/delegation"
	"github.com/semihdurgun/monadagent/internal/services"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

var (
	ownerAddr       = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	beneficiaryAddr = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	secondHeirAddr  = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	executorAddr    = common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
)

// stubSigner signs everything with a fixed signature
type stubSigner struct {
	signErr error
}

func (s *stubSigner) Address() common.Address { return ownerAddr }

func (s *stubSigner) Environment() delegation.Environment {
	return delegation.Environment{
		DelegationManager: common.HexToAddress("0x1000000000000000000000000000000000000001"),
	}
}

func (s *stubSigner) SignDelegation(_ context.Context, _ *business.Delegation) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return "0xdeadbeef", nil
}

func newWillService(t *testing.T, signer *stubSigner) *services.WillService {
	t.Helper()
	return services.NewWillService(delegation.NewFactory(signer), openStore(t))
}

func TestCreateWill(t *testing.T) {
	svc := newWillService(t, &stubSigner{})

	record, err := svc.CreateWill(context.Background(), services.CreateWillParams{
		Name:         "estate",
		EstateAmount: "10",
		Beneficiaries: []business.WillBeneficiary{
			{Address: beneficiaryAddr, Percentage: 60},
			{Address: secondHeirAddr, Percentage: 40},
		},
		InactivityPeriodSeconds: 86400 * 180,
		Executors:               []common.Address{executorAddr},
	})
	require.NoError(t, err)

	require.Len(t, record.Delegations, 2, "one dormant delegation per beneficiary")
	for _, d := range record.Delegations {
		assert.True(t, d.Signed())
		assert.Equal(t, ownerAddr, d.From)
	}
	// Shares split the estate by percentage, in smallest units
	assert.Equal(t, "6000000000000000000", record.Delegations[0].Scope.MaxAmount.String())
	assert.Equal(t, "4000000000000000000", record.Delegations[1].Scope.MaxAmount.String())
	assert.Len(t, svc.ListWills(), 1)
}

func TestCreateWillValidation(t *testing.T) {
	svc := newWillService(t, &stubSigner{})
	ctx := context.Background()

	tests := []struct {
		name     string
		params   services.CreateWillParams
		wantKind business.ErrorKind
	}{
		{
			name:     "no beneficiaries",
			params:   services.CreateWillParams{EstateAmount: "10", InactivityPeriodSeconds: 1, Executors: []common.Address{executorAddr}},
			wantKind: business.ErrInvalidConfig,
		},
		{
			name: "percentages do not sum to 100",
			params: services.CreateWillParams{
				EstateAmount: "10",
				Beneficiaries: []business.WillBeneficiary{
					{Address: beneficiaryAddr, Percentage: 50},
					{Address: secondHeirAddr, Percentage: 40},
				},
				InactivityPeriodSeconds: 1,
				Executors:               []common.Address{executorAddr},
			},
			wantKind: business.ErrInvalidConfig,
		},
		{
			name: "zero beneficiary address",
			params: services.CreateWillParams{
				EstateAmount:            "10",
				Beneficiaries:           []business.WillBeneficiary{{Percentage: 100}},
				InactivityPeriodSeconds: 1,
				Executors:               []common.Address{executorAddr},
			},
			wantKind: business.ErrInvalidAddress,
		},
		{
			name: "no executors",
			params: services.CreateWillParams{
				EstateAmount:            "10",
				Beneficiaries:           []business.WillBeneficiary{{Address: beneficiaryAddr, Percentage: 100}},
				InactivityPeriodSeconds: 1,
			},
			wantKind: business.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateWill(ctx, tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, business.KindOf(err))
		})
	}
}

func TestCreateWillAbortsOnSignFailure(t *testing.T) {
	svc := newWillService(t, &stubSigner{signErr: errors.New("user rejected the request")})

	_, err := svc.CreateWill(context.Background(), services.CreateWillParams{
		EstateAmount: "10",
		Beneficiaries: []business.WillBeneficiary{
			{Address: beneficiaryAddr, Percentage: 100},
		},
		InactivityPeriodSeconds: 86400,
		Executors:               []common.Address{executorAddr},
	})
	require.Error(t, err)
	assert.True(t, business.IsUserRejected(err))
	assert.Empty(t, svc.ListWills(), "a partially signed estate is never persisted")
}

func TestWillLifecycle(t *testing.T) {
	svc := newWillService(t, &stubSigner{})

	record, err := svc.CreateWill(context.Background(), services.CreateWillParams{
		EstateAmount: "10",
		Beneficiaries: []business.WillBeneficiary{
			{Address: beneficiaryAddr, Percentage: 100},
		},
		InactivityPeriodSeconds: 86400,
		Executors:               []common.Address{executorAddr},
	})
	require.NoError(t, err)

	before := svc.ListWills()[0].LastActivity
	require.NoError(t, svc.RecordActivity(record.ID))
	after := svc.ListWills()[0].LastActivity
	assert.False(t, after.Before(before))

	require.NoError(t, svc.RevokeWill(record.ID))
	assert.Equal(t, business.StatusRevoked, svc.ListWills()[0].Status)
}
