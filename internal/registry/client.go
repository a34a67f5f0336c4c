// Package registry is the client for the fully on-chain delegation path:
// a deployed registry contract escrows the delegated amount and is the sole
// authority on every restriction. The client submits transactions through
// the user's wallet and reads state back over JSON-RPC.
package registry

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/client/wallet"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

const (
	// receiptTimeout bounds how long a submitted transaction is waited on
	receiptTimeout = 60 * time.Second

	// receiptPollInterval is the delay between receipt lookups
	receiptPollInterval = 2 * time.Second
)

// ChainReader is the read-only node surface the client needs. It is
// satisfied by ethclient.Client.
type ChainReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// CreateParams are the arguments for a new escrowed delegation. Amount is
// in the native token's smallest unit.
type CreateParams struct {
	To              common.Address
	SmartAccount    common.Address
	Amount          *big.Int
	DurationSeconds int64
	MaxUses         int64
	AllowedActions  []string
}

// CreateResult reports a confirmed delegation creation
type CreateResult struct {
	DelegationID    common.Hash
	TransactionHash common.Hash
}

// DelegationInfo is the grantee-facing view of an on-chain delegation.
// Amounts are in smallest units.
type DelegationInfo struct {
	Amount          *big.Int
	RemainingAmount *big.Int
	ExpiresAt       int64
	MaxUses         int64
	UsedCount       int64
	IsActive        bool
	SmartAccount    common.Address
}

// DelegationDetail is the full record including both parties
type DelegationDetail struct {
	From common.Address
	To   common.Address
	DelegationInfo
}

// Client talks to one deployed registry contract
type Client struct {
	address common.Address
	reader  ChainReader
	wallet  wallet.Wallet
	abi     abi.ABI
	logger  *zap.Logger

	pollInterval time.Duration
	timeout      time.Duration
}

// Option adjusts client behavior
type Option func(*Client)

// WithConfirmationTimeout overrides how long a submitted transaction is
// waited on before giving up.
func WithConfirmationTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithPollInterval overrides the delay between receipt lookups
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) { c.pollInterval = interval }
}

// NewClient builds a registry client for the contract at address
func NewClient(address common.Address, reader ChainReader, w wallet.Wallet, options ...Option) (*Client, error) {
	if address == (common.Address{}) {
		return nil, business.NewError(business.ErrInvalidConfig, "registry contract address is required")
	}
	parsed, err := abi.JSON(strings.NewReader(delegationRegistryABI))
	if err != nil {
		return nil, business.WrapError(business.ErrInvalidConfig, "failed to parse registry ABI", err)
	}
	client := &Client{
		address:      address,
		reader:       reader,
		wallet:       w,
		abi:          parsed,
		logger:       logger.Log,
		pollInterval: receiptPollInterval,
		timeout:      receiptTimeout,
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Address returns the registry contract address
func (c *Client) Address() common.Address {
	return c.address
}

// CreateDelegation escrows params.Amount into the contract and registers a
// new delegation. It waits for confirmation and recovers the delegation id
// from the DelegationCreated event log.
func (c *Client) CreateDelegation(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if params.To == (common.Address{}) {
		return nil, business.NewError(business.ErrInvalidAddress, "delegation recipient is required")
	}
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return nil, business.NewError(business.ErrInvalidAmount, "delegation amount must be positive")
	}
	if params.MaxUses <= 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "max uses must be positive")
	}
	if params.DurationSeconds <= 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "duration must be positive")
	}
	smartAccount := params.SmartAccount
	if smartAccount == (common.Address{}) {
		smartAccount = params.To
	}
	actions := params.AllowedActions
	if len(actions) == 0 {
		actions = []string{"transfer"}
	}

	callData, err := c.abi.Pack("createDelegation",
		params.To,
		smartAccount,
		params.Amount,
		big.NewInt(params.DurationSeconds),
		big.NewInt(params.MaxUses),
		actions,
	)
	if err != nil {
		return nil, business.WrapError(business.ErrUnknown, "failed to encode createDelegation", err)
	}

	from, err := c.wallet.RequestAccount(ctx)
	if err != nil {
		return nil, err
	}

	txHash, err := c.wallet.SendTransaction(ctx, wallet.TxRequest{
		From:  from,
		To:    c.address,
		Value: params.Amount,
		Data:  callData,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("delegation creation submitted",
		zap.String("tx_hash", txHash.Hex()),
		zap.String("to", params.To.Hex()),
		zap.String("amount", params.Amount.String()),
	)

	receipt, err := c.waitForReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, business.NewError(business.ErrUnknown, "createDelegation transaction reverted")
	}

	delegationID, found := c.findDelegationCreated(receipt)
	if !found {
		return nil, business.NewError(business.ErrEventNotFound,
			"DelegationCreated event not found in transaction receipt")
	}

	c.logger.Info("delegation created on-chain",
		zap.String("delegation_id", delegationID.Hex()),
		zap.String("tx_hash", txHash.Hex()),
	)
	return &CreateResult{DelegationID: delegationID, TransactionHash: txHash}, nil
}

// UseDelegation spends from an existing delegation. The caller must be the
// grantee; the contract alone enforces remaining amount, recipients, expiry
// and use count, so a doomed call is only discovered when it reverts.
func (c *Client) UseDelegation(ctx context.Context, delegationID common.Hash, amount *big.Int, recipient common.Address) (common.Hash, error) {
	if amount == nil || amount.Sign() <= 0 {
		return common.Hash{}, business.NewError(business.ErrInvalidAmount, "spend amount must be positive")
	}
	if recipient == (common.Address{}) {
		return common.Hash{}, business.NewError(business.ErrInvalidAddress, "spend recipient is required")
	}

	callData, err := c.abi.Pack("useDelegation", delegationID, amount, recipient)
	if err != nil {
		return common.Hash{}, business.WrapError(business.ErrUnknown, "failed to encode useDelegation", err)
	}

	txHash, err := c.submitAndConfirm(ctx, callData, "useDelegation")
	if err != nil {
		return common.Hash{}, err
	}

	c.logger.Info("delegation used",
		zap.String("delegation_id", delegationID.Hex()),
		zap.String("amount", amount.String()),
		zap.String("recipient", recipient.Hex()),
		zap.String("tx_hash", txHash.Hex()),
	)
	return txHash, nil
}

// RevokeDelegation deactivates a delegation. Only the original granter may
// call it; the transition is irreversible.
func (c *Client) RevokeDelegation(ctx context.Context, delegationID common.Hash) (common.Hash, error) {
	callData, err := c.abi.Pack("revokeDelegation", delegationID)
	if err != nil {
		return common.Hash{}, business.WrapError(business.ErrUnknown, "failed to encode revokeDelegation", err)
	}

	txHash, err := c.submitAndConfirm(ctx, callData, "revokeDelegation")
	if err != nil {
		return common.Hash{}, err
	}

	c.logger.Info("delegation revoked",
		zap.String("delegation_id", delegationID.Hex()),
		zap.String("tx_hash", txHash.Hex()),
	)
	return txHash, nil
}

// GetDelegationForUser reads the delegation as visible to userAddress.
// Any failure returns nil; callers treat "not found" and "error" alike.
func (c *Client) GetDelegationForUser(ctx context.Context, delegationID common.Hash, userAddress common.Address) *DelegationInfo {
	out, err := c.call(ctx, "getDelegationForUser", delegationID, userAddress)
	if err != nil || len(out) != 7 {
		c.logger.Debug("delegation query failed",
			zap.String("delegation_id", delegationID.Hex()),
			zap.Error(err),
		)
		return nil
	}

	return &DelegationInfo{
		Amount:          out[0].(*big.Int),
		RemainingAmount: out[1].(*big.Int),
		ExpiresAt:       out[2].(*big.Int).Int64(),
		MaxUses:         out[3].(*big.Int).Int64(),
		UsedCount:       out[4].(*big.Int).Int64(),
		IsActive:        out[5].(bool),
		SmartAccount:    out[6].(common.Address),
	}
}

// GetUserDelegations lists the delegation ids granted to user. Failures
// degrade to an empty list.
func (c *Client) GetUserDelegations(ctx context.Context, user common.Address) []common.Hash {
	out, err := c.call(ctx, "getUserDelegations", user)
	if err != nil || len(out) != 1 {
		c.logger.Debug("user delegations query failed", zap.String("user", user.Hex()), zap.Error(err))
		return nil
	}
	ids, ok := out[0].([][32]byte)
	if !ok {
		return nil
	}
	hashes := make([]common.Hash, len(ids))
	for i, id := range ids {
		hashes[i] = common.Hash(id)
	}
	return hashes
}

// GetDelegation reads the full record for a delegation id, nil on failure
func (c *Client) GetDelegation(ctx context.Context, delegationID common.Hash) *DelegationDetail {
	out, err := c.call(ctx, "getDelegation", delegationID)
	if err != nil || len(out) != 9 {
		c.logger.Debug("delegation detail query failed",
			zap.String("delegation_id", delegationID.Hex()),
			zap.Error(err),
		)
		return nil
	}

	return &DelegationDetail{
		From: out[0].(common.Address),
		To:   out[1].(common.Address),
		DelegationInfo: DelegationInfo{
			SmartAccount:    out[2].(common.Address),
			Amount:          out[3].(*big.Int),
			RemainingAmount: out[4].(*big.Int),
			ExpiresAt:       out[5].(*big.Int).Int64(),
			MaxUses:         out[6].(*big.Int).Int64(),
			UsedCount:       out[7].(*big.Int).Int64(),
			IsActive:        out[8].(bool),
		},
	}
}

// TotalDelegations returns how many delegations the contract has recorded
func (c *Client) TotalDelegations(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, "totalDelegations")
	if err != nil {
		return nil, business.WrapError(business.ErrUnknown, "totalDelegations query failed", err)
	}
	return out[0].(*big.Int), nil
}

// GetContractBalance returns the native balance currently escrowed
func (c *Client) GetContractBalance(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, "getContractBalance")
	if err != nil {
		return nil, business.WrapError(business.ErrUnknown, "getContractBalance query failed", err)
	}
	return out[0].(*big.Int), nil
}

// IsContractDeployed probes the registry address for bytecode. Used as a
// pre-flight guard before offering delegation creation.
func (c *Client) IsContractDeployed(ctx context.Context) bool {
	code, err := c.reader.CodeAt(ctx, c.address, nil)
	if err != nil {
		c.logger.Warn("contract deployment probe failed", zap.Error(err))
		return false
	}
	return len(code) > 0
}

// submitAndConfirm sends calldata through the wallet and waits for a
// successful receipt.
func (c *Client) submitAndConfirm(ctx context.Context, callData []byte, operation string) (common.Hash, error) {
	from, err := c.wallet.RequestAccount(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	txHash, err := c.wallet.SendTransaction(ctx, wallet.TxRequest{
		From: from,
		To:   c.address,
		Data: callData,
	})
	if err != nil {
		return common.Hash{}, err
	}

	receipt, err := c.waitForReceipt(ctx, txHash)
	if err != nil {
		return common.Hash{}, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return common.Hash{}, business.NewError(business.ErrUnknown, operation+" transaction reverted")
	}
	return txHash, nil
}

// waitForReceipt polls for the transaction receipt until timeout
func (c *Client) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.reader.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, business.WrapError(business.ErrTransactionTimeout,
				"confirmation wait cancelled", ctx.Err())
		case <-deadline.C:
			return nil, business.NewError(business.ErrTransactionTimeout,
				"transaction "+txHash.Hex()+" not confirmed within "+c.timeout.String())
		case <-ticker.C:
		}
	}
}

// findDelegationCreated scans receipt logs for the DelegationCreated event
// and extracts the indexed delegation id.
func (c *Client) findDelegationCreated(receipt *types.Receipt) (common.Hash, bool) {
	eventID := c.abi.Events["DelegationCreated"].ID
	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) < 2 {
			continue
		}
		if log.Address == c.address && log.Topics[0] == eventID {
			return log.Topics[1], true
		}
	}
	return common.Hash{}, false
}

// call executes a read-only contract call and unpacks the outputs
func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	callData, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	raw, err := c.reader.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: callData}, nil)
	if err != nil {
		return nil, err
	}
	return c.abi.Unpack(method, raw)
}
