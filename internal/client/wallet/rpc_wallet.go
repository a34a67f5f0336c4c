package wallet

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// userRejectedCode is the provider error code for a declined prompt (EIP-1193)
const userRejectedCode = 4001

// RPCWallet talks to a wallet-backed JSON-RPC provider using the standard
// eth_requestAccounts / eth_sendTransaction prompt flow.
type RPCWallet struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

// NewRPCWallet wraps an established RPC connection to a wallet provider
func NewRPCWallet(client *rpc.Client) *RPCWallet {
	return &RPCWallet{
		rpc:    client,
		logger: logger.Log,
	}
}

// DialRPCWallet connects to a wallet provider endpoint
func DialRPCWallet(ctx context.Context, url string) (*RPCWallet, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, business.WrapError(business.ErrInvalidConfig, "failed to connect to wallet provider", err)
	}
	return NewRPCWallet(client), nil
}

// RequestAccount prompts the wallet for account access and returns the
// first unlocked account.
func (w *RPCWallet) RequestAccount(ctx context.Context) (common.Address, error) {
	var accounts []common.Address
	if err := w.rpc.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return common.Address{}, mapWalletError(err, "account access declined")
	}
	if len(accounts) == 0 {
		return common.Address{}, business.NewError(business.ErrInvalidConfig, "wallet returned no accounts")
	}
	return accounts[0], nil
}

// SendTransaction asks the wallet to approve and broadcast the transaction
func (w *RPCWallet) SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error) {
	params := map[string]any{
		"from": tx.From,
		"to":   tx.To,
		"data": hexutil.Bytes(tx.Data),
	}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		params["value"] = (*hexutil.Big)(tx.Value)
	}

	var txHash common.Hash
	if err := w.rpc.CallContext(ctx, &txHash, "eth_sendTransaction", params); err != nil {
		return common.Hash{}, mapWalletError(err, "transaction declined")
	}

	w.logger.Debug("transaction submitted",
		zap.String("to", tx.To.Hex()),
		zap.String("tx_hash", txHash.Hex()),
	)
	return txHash, nil
}

// Close releases the underlying RPC connection
func (w *RPCWallet) Close() {
	w.rpc.Close()
}

// mapWalletError classifies provider errors; a declined prompt becomes
// UserRejected, everything else stays Unknown.
func mapWalletError(err error, rejectedMessage string) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return business.WrapError(business.ErrUserRejected, rejectedMessage, err)
	}
	if business.IsUserRejected(err) {
		return business.WrapError(business.ErrUserRejected, rejectedMessage, err)
	}
	return business.WrapError(business.ErrUnknown, "wallet request failed", err)
}
