package registry_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/client/wallet"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/registry"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

func init() {
	logger.InitLogger("test")
}

var (
	contractAddr = common.HexToAddress("0x9000000000000000000000000000000000000009")
	userAddr     = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	recipient    = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	testTxHash   = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")

	delegationCreatedID = crypto.Keccak256Hash([]byte("DelegationCreated(bytes32,address,address,uint256,uint256)"))
)

// fakeWallet approves everything and records what it sent
type fakeWallet struct {
	account common.Address
	txHash  common.Hash
	sendErr error
	sent    []wallet.TxRequest
}

func (w *fakeWallet) RequestAccount(_ context.Context) (common.Address, error) {
	return w.account, nil
}

func (w *fakeWallet) SendTransaction(_ context.Context, tx wallet.TxRequest) (common.Hash, error) {
	if w.sendErr != nil {
		return common.Hash{}, w.sendErr
	}
	w.sent = append(w.sent, tx)
	return w.txHash, nil
}

// fakeReader serves canned receipts and call results
type fakeReader struct {
	code       []byte
	codeErr    error
	receipt    *types.Receipt
	receiptErr error
	callResult []byte
	callErr    error
}

func (r *fakeReader) CodeAt(_ context.Context, _ common.Address, _ *big.Int) ([]byte, error) {
	return r.code, r.codeErr
}

func (r *fakeReader) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return r.callResult, r.callErr
}

func (r *fakeReader) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	if r.receiptErr != nil {
		return nil, r.receiptErr
	}
	return r.receipt, nil
}

func newTestClient(t *testing.T, reader *fakeReader, w wallet.Wallet) *registry.Client {
	t.Helper()
	client, err := registry.NewClient(contractAddr, reader, w,
		registry.WithConfirmationTimeout(100*time.Millisecond),
		registry.WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	return client
}

func createdReceipt(delegationID common.Hash) *types.Receipt {
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{{
			Address: contractAddr,
			Topics:  []common.Hash{delegationCreatedID, delegationID},
		}},
	}
}

func TestNewClientRequiresAddress(t *testing.T) {
	_, err := registry.NewClient(common.Address{}, &fakeReader{}, &fakeWallet{})
	require.Error(t, err)
	assert.Equal(t, business.ErrInvalidConfig, business.KindOf(err))
}

func TestCreateDelegation(t *testing.T) {
	delegationID := common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")
	reader := &fakeReader{receipt: createdReceipt(delegationID)}
	w := &fakeWallet{account: userAddr, txHash: testTxHash}
	client := newTestClient(t, reader, w)

	result, err := client.CreateDelegation(context.Background(), registry.CreateParams{
		To:              recipient,
		Amount:          big.NewInt(1000),
		DurationSeconds: 3600,
		MaxUses:         3,
	})
	require.NoError(t, err)
	assert.Equal(t, delegationID, result.DelegationID)
	assert.Equal(t, testTxHash, result.TransactionHash)

	// The escrowed amount travels as transaction value to the contract
	require.Len(t, w.sent, 1)
	assert.Equal(t, contractAddr, w.sent[0].To)
	assert.Equal(t, big.NewInt(1000), w.sent[0].Value)
	assert.NotEmpty(t, w.sent[0].Data)
}

func TestCreateDelegationValidation(t *testing.T) {
	client := newTestClient(t, &fakeReader{}, &fakeWallet{account: userAddr})

	tests := []struct {
		name     string
		params   registry.CreateParams
		wantKind business.ErrorKind
	}{
		{
			name:     "missing recipient",
			params:   registry.CreateParams{Amount: big.NewInt(1), DurationSeconds: 1, MaxUses: 1},
			wantKind: business.ErrInvalidAddress,
		},
		{
			name:     "zero amount",
			params:   registry.CreateParams{To: recipient, Amount: big.NewInt(0), DurationSeconds: 1, MaxUses: 1},
			wantKind: business.ErrInvalidAmount,
		},
		{
			name:     "zero max uses",
			params:   registry.CreateParams{To: recipient, Amount: big.NewInt(1), DurationSeconds: 1},
			wantKind: business.ErrInvalidConfig,
		},
		{
			name:     "zero duration",
			params:   registry.CreateParams{To: recipient, Amount: big.NewInt(1), MaxUses: 1},
			wantKind: business.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateDelegation(context.Background(), tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, business.KindOf(err))
		})
	}
}

func TestCreateDelegationEventNotFound(t *testing.T) {
	// Confirmed receipt but no DelegationCreated log
	reader := &fakeReader{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}}
	client := newTestClient(t, reader, &fakeWallet{account: userAddr, txHash: testTxHash})

	_, err := client.CreateDelegation(context.Background(), registry.CreateParams{
		To:              recipient,
		Amount:          big.NewInt(1000),
		DurationSeconds: 3600,
		MaxUses:         1,
	})
	require.Error(t, err)
	assert.Equal(t, business.ErrEventNotFound, business.KindOf(err))
}

func TestCreateDelegationTimeout(t *testing.T) {
	reader := &fakeReader{receiptErr: ethereum.NotFound}
	client := newTestClient(t, reader, &fakeWallet{account: userAddr, txHash: testTxHash})

	_, err := client.CreateDelegation(context.Background(), registry.CreateParams{
		To:              recipient,
		Amount:          big.NewInt(1000),
		DurationSeconds: 3600,
		MaxUses:         1,
	})
	require.Error(t, err)
	assert.Equal(t, business.ErrTransactionTimeout, business.KindOf(err))
}

func TestCreateDelegationUserRejected(t *testing.T) {
	w := &fakeWallet{
		account: userAddr,
		sendErr: business.NewError(business.ErrUserRejected, "transaction declined"),
	}
	client := newTestClient(t, &fakeReader{}, w)

	_, err := client.CreateDelegation(context.Background(), registry.CreateParams{
		To:              recipient,
		Amount:          big.NewInt(1000),
		DurationSeconds: 3600,
		MaxUses:         1,
	})
	require.Error(t, err)
	assert.True(t, business.IsUserRejected(err))
}

func TestUseDelegationReverted(t *testing.T) {
	reader := &fakeReader{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}}
	client := newTestClient(t, reader, &fakeWallet{account: userAddr, txHash: testTxHash})

	_, err := client.UseDelegation(context.Background(),
		common.HexToHash("0x01"), big.NewInt(10), recipient)
	require.Error(t, err)
	assert.Equal(t, business.ErrUnknown, business.KindOf(err))
}

func TestRevokeDelegation(t *testing.T) {
	reader := &fakeReader{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}}
	w := &fakeWallet{account: userAddr, txHash: testTxHash}
	client := newTestClient(t, reader, w)

	txHash, err := client.RevokeDelegation(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.Equal(t, testTxHash, txHash)
	require.Len(t, w.sent, 1)
	assert.Nil(t, w.sent[0].Value, "revocation carries no value")
}

func TestGetDelegationForUserFailureReturnsNil(t *testing.T) {
	reader := &fakeReader{callErr: errors.New("execution reverted")}
	client := newTestClient(t, reader, &fakeWallet{account: userAddr})

	info := client.GetDelegationForUser(context.Background(), common.HexToHash("0x01"), userAddr)
	assert.Nil(t, info)
}

func TestGetUserDelegationsFailureReturnsEmpty(t *testing.T) {
	reader := &fakeReader{callErr: errors.New("connection refused")}
	client := newTestClient(t, reader, &fakeWallet{account: userAddr})

	ids := client.GetUserDelegations(context.Background(), userAddr)
	assert.Empty(t, ids)
}

func TestIsContractDeployed(t *testing.T) {
	t.Run("deployed", func(t *testing.T) {
		client := newTestClient(t, &fakeReader{code: []byte{0x60, 0x80}}, &fakeWallet{})
		assert.True(t, client.IsContractDeployed(context.Background()))
	})

	t.Run("no bytecode", func(t *testing.T) {
		client := newTestClient(t, &fakeReader{}, &fakeWallet{})
		assert.False(t, client.IsContractDeployed(context.Background()))
	})

	t.Run("probe error", func(t *testing.T) {
		client := newTestClient(t, &fakeReader{codeErr: errors.New("connection refused")}, &fakeWallet{})
		assert.False(t, client.IsContractDeployed(context.Background()))
	})
}
