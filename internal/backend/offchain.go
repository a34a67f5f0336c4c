package backend

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/caveats"
	"github.com/semihdurgun/monadagent/internal/client/wallet"
	"github.com/semihdurgun/monadagent/internal/delegation"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// receiptReader is the node surface needed to confirm a redemption
type receiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// grantState tracks local knowledge about one issued delegation. The
// enforcer contracts are authoritative for spend and use accounting; this
// is the issuer's own bookkeeping for status display.
type grantState struct {
	delegation *business.Delegation
	usedCount  int64
	revoked    bool
}

// Offchain implements DelegationBackend with signed delegation objects
// redeemed through the delegation manager contract.
type Offchain struct {
	factory *delegation.Factory
	encoder *delegation.Encoder
	wallet  wallet.Wallet
	reader  receiptReader
	logger  *zap.Logger

	mu     sync.Mutex
	grants map[string]*grantState

	timeout      time.Duration
	pollInterval time.Duration
}

// NewOffchain wires the off-chain path from its collaborators
func NewOffchain(factory *delegation.Factory, w wallet.Wallet, reader receiptReader) (*Offchain, error) {
	encoder, err := delegation.NewEncoder(factory.Environment())
	if err != nil {
		return nil, err
	}
	return &Offchain{
		factory:      factory,
		encoder:      encoder,
		wallet:       w,
		reader:       reader,
		logger:       logger.Log,
		grants:       make(map[string]*grantState),
		timeout:      60 * time.Second,
		pollInterval: 2 * time.Second,
	}, nil
}

// Mechanism identifies this backend as the off-chain-signed path
func (o *Offchain) Mechanism() Mechanism {
	return MechanismOffchain
}

// Create builds, signs and indexes a delegation. The grant id is the
// delegation's digest, so the same tuple re-signed under a new salt yields
// a distinct id.
func (o *Offchain) Create(ctx context.Context, req CreateRequest) (*Grant, error) {
	caveatList, err := caveats.Build(caveats.Request{
		Amount:            req.Amount,
		Token:             req.Token,
		Recurring:         req.Recurring,
		Interval:          req.Interval,
		MaxUses:           req.MaxUses,
		DurationSeconds:   req.DurationSeconds,
		AllowedRecipients: req.AllowedRecipients,
	})
	if err != nil {
		return nil, err
	}

	scope := business.CapabilityScope{
		Kind:      business.ScopeNativeAmount,
		MaxAmount: req.Amount,
	}
	if req.Token != (common.Address{}) {
		scope.Kind = business.ScopeERC20Amount
		scope.Token = req.Token
	}

	unsigned, err := o.factory.CreateDelegation(o.factory.Address(), req.To, scope, caveatList)
	if err != nil {
		return nil, err
	}
	signed, err := o.factory.Sign(ctx, unsigned)
	if err != nil {
		return nil, err
	}

	digest, err := delegation.Hash(signed)
	if err != nil {
		return nil, err
	}
	id := digest.Hex()

	o.mu.Lock()
	o.grants[id] = &grantState{delegation: signed}
	o.mu.Unlock()

	return &Grant{ID: id, Mechanism: MechanismOffchain, Delegation: signed}, nil
}

// Use redeems the delegation for one transfer. The grantee's wallet
// submits the redemption; the enforcer contracts decide whether the spend
// is allowed.
func (o *Offchain) Use(ctx context.Context, id string, amount *big.Int, recipient common.Address) (common.Hash, error) {
	state, err := o.resolve(id)
	if err != nil {
		return common.Hash{}, err
	}

	execution, err := delegation.NewTransferExecution(state.delegation.Scope.Token, recipient, amount)
	if err != nil {
		return common.Hash{}, err
	}
	callData, err := o.encoder.EncodeRedemption(state.delegation, execution)
	if err != nil {
		return common.Hash{}, err
	}

	txHash, err := o.submit(ctx, callData)
	if err != nil {
		return common.Hash{}, err
	}

	o.mu.Lock()
	state.usedCount++
	o.mu.Unlock()

	o.logger.Info("delegation redeemed",
		zap.String("grant_id", id),
		zap.String("amount", amount.String()),
		zap.String("recipient", recipient.Hex()),
		zap.String("tx_hash", txHash.Hex()),
	)
	return txHash, nil
}

// Revoke disables the delegation on the delegation manager. Only the
// granter's wallet can produce a transaction the contract accepts.
func (o *Offchain) Revoke(ctx context.Context, id string) (common.Hash, error) {
	state, err := o.resolve(id)
	if err != nil {
		return common.Hash{}, err
	}

	callData, err := o.encoder.EncodeDisableDelegation(state.delegation)
	if err != nil {
		return common.Hash{}, err
	}
	txHash, err := o.submit(ctx, callData)
	if err != nil {
		return common.Hash{}, err
	}

	o.mu.Lock()
	state.revoked = true
	o.mu.Unlock()

	o.logger.Info("delegation disabled", zap.String("grant_id", id), zap.String("tx_hash", txHash.Hex()))
	return txHash, nil
}

// Query reports the issuer's local view of the grant. Spend accounting
// lives in the enforcer contracts, so RemainingAmount reflects the scope
// ceiling minus nothing; callers needing exact remaining balance use the
// on-chain path.
func (o *Offchain) Query(_ context.Context, id string, _ common.Address) *Status {
	o.mu.Lock()
	state, ok := o.grants[id]
	o.mu.Unlock()
	if !ok {
		return nil
	}

	status := &Status{
		Amount:          state.delegation.Scope.MaxAmount,
		RemainingAmount: state.delegation.Scope.MaxAmount,
		UsedCount:       state.usedCount,
		IsActive:        !state.revoked,
	}
	if expiresAt, ok := expirationOf(state.delegation.Caveats); ok {
		status.ExpiresAt = expiresAt
		if time.Now().Unix() >= expiresAt {
			status.IsActive = false
		}
	}
	if maxUses, ok := maxUsesOf(state.delegation.Caveats); ok {
		status.MaxUses = maxUses
		if status.UsedCount >= maxUses {
			status.IsActive = false
		}
	}
	return status
}

// expirationOf reads the expiry timestamp out of a caveat list, tolerating
// both value caveats (fresh builds) and pointer caveats (JSON round-trips).
func expirationOf(list business.CaveatList) (int64, bool) {
	switch c := list.FindCaveat(business.CaveatExpiration).(type) {
	case business.ExpirationCaveat:
		return c.Timestamp, true
	case *business.ExpirationCaveat:
		return c.Timestamp, true
	}
	return 0, false
}

func maxUsesOf(list business.CaveatList) (int64, bool) {
	switch c := list.FindCaveat(business.CaveatMaxUses).(type) {
	case business.MaxUsesCaveat:
		return int64(c.Count), true
	case *business.MaxUsesCaveat:
		return int64(c.Count), true
	}
	return 0, false
}

// Resolve returns the signed delegation behind a grant id
func (o *Offchain) Resolve(id string) (*business.Delegation, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	state, ok := o.grants[id]
	if !ok {
		return nil, false
	}
	return state.delegation, true
}

// Restore re-indexes a previously issued delegation, used when records are
// loaded back from the lifecycle store after a restart.
func (o *Offchain) Restore(id string, d *business.Delegation) error {
	if !d.Signed() {
		return business.NewError(business.ErrUnsignedDelegation, "cannot restore an unsigned delegation")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.grants[id]; !exists {
		o.grants[id] = &grantState{delegation: d}
	}
	return nil
}

func (o *Offchain) resolve(id string) (*grantState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	state, ok := o.grants[id]
	if !ok {
		return nil, business.NewError(business.ErrInvalidConfig, "unknown delegation "+id)
	}
	if !state.delegation.Signed() {
		return nil, business.NewError(business.ErrUnsignedDelegation, "delegation "+id+" has no signature")
	}
	return state, nil
}

// submit sends calldata to the delegation manager and waits for a
// successful receipt.
func (o *Offchain) submit(ctx context.Context, callData []byte) (common.Hash, error) {
	from, err := o.wallet.RequestAccount(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	txHash, err := o.wallet.SendTransaction(ctx, wallet.TxRequest{
		From: from,
		To:   o.encoder.DelegationManager(),
		Data: callData,
	})
	if err != nil {
		return common.Hash{}, err
	}

	deadline := time.NewTimer(o.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		receipt, rErr := o.reader.TransactionReceipt(ctx, txHash)
		if rErr == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return common.Hash{}, business.NewError(business.ErrUnknown, "redemption transaction reverted")
			}
			return txHash, nil
		}

		select {
		case <-ctx.Done():
			return common.Hash{}, business.WrapError(business.ErrTransactionTimeout,
				"confirmation wait cancelled", ctx.Err())
		case <-deadline.C:
			return common.Hash{}, business.NewError(business.ErrTransactionTimeout,
				"transaction "+txHash.Hex()+" not confirmed within "+o.timeout.String())
		case <-ticker.C:
		}
	}
}
