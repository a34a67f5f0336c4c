package delegation_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/delegation"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

func signedDelegation(t *testing.T) *business.Delegation {
	t.Helper()
	return &business.Delegation{
		From:  granter,
		To:    grantee,
		Scope: nativeScope(1000),
		Caveats: business.CaveatList{
			business.AllowedMethodsCaveat{Methods: []string{"transfer"}},
			business.SpendLimitCaveat{Amount: "1000", Period: 86400},
			business.MaxUsesCaveat{Count: 5},
		},
		Salt:      "0x0102030405060708",
		Signature: "0xdeadbeef",
	}
}

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func TestEncodeRedemption(t *testing.T) {
	encoder, err := delegation.NewEncoder(testEnvironment())
	require.NoError(t, err)

	calldata, err := encoder.EncodeRedemption(signedDelegation(t), business.Execution{
		Target: grantee,
		Value:  big.NewInt(100),
	})
	require.NoError(t, err)

	want := selector("redeemDelegations(bytes[],bytes32[],bytes[])")
	assert.Equal(t, want, calldata[:4])
	assert.Greater(t, len(calldata), 4)
}

func TestEncodeRedemptionUnsigned(t *testing.T) {
	encoder, err := delegation.NewEncoder(testEnvironment())
	require.NoError(t, err)

	unsigned := signedDelegation(t)
	unsigned.Signature = ""

	_, err = encoder.EncodeRedemption(unsigned, business.Execution{Target: grantee, Value: big.NewInt(1)})
	require.Error(t, err)
	assert.Equal(t, business.ErrUnsignedDelegation, business.KindOf(err))
}

func TestEncodeRedemptionsValidation(t *testing.T) {
	encoder, err := delegation.NewEncoder(testEnvironment())
	require.NoError(t, err)
	exec := business.Execution{Target: grantee, Value: big.NewInt(1)}

	t.Run("empty batch", func(t *testing.T) {
		_, err := encoder.EncodeRedemptions(nil, nil, nil)
		assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
	})

	t.Run("mismatched arrays", func(t *testing.T) {
		_, err := encoder.EncodeRedemptions(
			[][]*business.Delegation{{signedDelegation(t)}},
			[][32]byte{delegation.ModeSingleDefault, delegation.ModeSingleDefault},
			[]business.Execution{exec},
		)
		assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
	})

	t.Run("empty chain", func(t *testing.T) {
		_, err := encoder.EncodeRedemptions(
			[][]*business.Delegation{{}},
			[][32]byte{delegation.ModeSingleDefault},
			[]business.Execution{exec},
		)
		assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
	})
}

func TestEncodeRedemptionMissingEnforcer(t *testing.T) {
	env := testEnvironment()
	delete(env.Enforcers, business.CaveatMaxUses)
	encoder, err := delegation.NewEncoder(env)
	require.NoError(t, err)

	_, err = encoder.EncodeRedemption(signedDelegation(t), business.Execution{Target: grantee, Value: big.NewInt(1)})
	require.Error(t, err)
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}

func TestEncodeRedemptionUnknownMethod(t *testing.T) {
	encoder, err := delegation.NewEncoder(testEnvironment())
	require.NoError(t, err)

	d := signedDelegation(t)
	d.Caveats = business.CaveatList{
		business.AllowedMethodsCaveat{Methods: []string{"selfdestruct"}},
	}

	_, err = encoder.EncodeRedemption(d, business.Execution{Target: grantee, Value: big.NewInt(1)})
	require.Error(t, err)
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}

func TestEncodeDisableDelegation(t *testing.T) {
	encoder, err := delegation.NewEncoder(testEnvironment())
	require.NoError(t, err)

	calldata, err := encoder.EncodeDisableDelegation(signedDelegation(t))
	require.NoError(t, err)

	want := selector("disableDelegation((address,address,bytes32,(address,bytes,bytes)[],uint256,bytes))")
	assert.Equal(t, want, calldata[:4])

	unsigned := signedDelegation(t)
	unsigned.Signature = "0x"
	_, err = encoder.EncodeDisableDelegation(unsigned)
	assert.Equal(t, business.ErrUnsignedDelegation, business.KindOf(err))
}

func TestNewTransferExecution(t *testing.T) {
	token := common.HexToAddress("0x4000000000000000000000000000000000000001")
	recipient := common.HexToAddress("0x4000000000000000000000000000000000000002")

	t.Run("native", func(t *testing.T) {
		exec, err := delegation.NewTransferExecution(common.Address{}, recipient, big.NewInt(500))
		require.NoError(t, err)
		assert.Equal(t, recipient, exec.Target)
		assert.Equal(t, big.NewInt(500), exec.Value)
		assert.Empty(t, exec.CallData)
	})

	t.Run("erc20", func(t *testing.T) {
		exec, err := delegation.NewTransferExecution(token, recipient, big.NewInt(500))
		require.NoError(t, err)
		assert.Equal(t, token, exec.Target, "erc20 transfers call the token contract")
		assert.Zero(t, exec.Value.Sign())
		require.GreaterOrEqual(t, len(exec.CallData), 4)
		assert.Equal(t, selector("transfer(address,uint256)"), exec.CallData[:4])
	})
}
