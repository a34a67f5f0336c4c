package backend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/semihdurgun/monadagent/internal/registry"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// defaultOnchainDuration is applied when a request carries no expiry; the
// registry contract requires one.
const defaultOnchainDuration = int64(30 * 24 * 3600)

// Onchain implements DelegationBackend against the registry contract,
// which escrows the delegated amount and is the sole authority on every
// restriction.
type Onchain struct {
	client *registry.Client
}

// NewOnchain wraps a registry client as a delegation backend
func NewOnchain(client *registry.Client) *Onchain {
	return &Onchain{client: client}
}

// Mechanism identifies this backend as the registry-contract path
func (o *Onchain) Mechanism() Mechanism {
	return MechanismOnchain
}

// Create escrows the amount into the registry. The contract only holds
// native funds, so token-scoped requests are rejected here.
func (o *Onchain) Create(ctx context.Context, req CreateRequest) (*Grant, error) {
	if req.Token != (common.Address{}) {
		return nil, business.NewError(business.ErrInvalidConfig,
			"the on-chain registry only supports native-token delegations")
	}

	duration := req.DurationSeconds
	if duration <= 0 && req.Recurring && req.Interval.Valid() {
		duration = req.Interval.Seconds()
	}
	if duration <= 0 {
		duration = defaultOnchainDuration
	}

	maxUses := int64(1)
	if req.MaxUses != nil {
		maxUses = int64(*req.MaxUses)
	} else if req.Recurring && req.Interval.Valid() {
		// Recurring grants default to one use per period over the window
		maxUses = duration / req.Interval.Seconds()
		if maxUses < 1 {
			maxUses = 1
		}
	}

	result, err := o.client.CreateDelegation(ctx, registry.CreateParams{
		To:              req.To,
		Amount:          req.Amount,
		DurationSeconds: duration,
		MaxUses:         maxUses,
		AllowedActions:  []string{"transfer"},
	})
	if err != nil {
		return nil, err
	}

	return &Grant{
		ID:              result.DelegationID.Hex(),
		Mechanism:       MechanismOnchain,
		TransactionHash: result.TransactionHash,
	}, nil
}

// Use spends from the escrowed delegation; the contract enforces every
// restriction server-side.
func (o *Onchain) Use(ctx context.Context, id string, amount *big.Int, recipient common.Address) (common.Hash, error) {
	delegationID, err := parseDelegationID(id)
	if err != nil {
		return common.Hash{}, err
	}
	return o.client.UseDelegation(ctx, delegationID, amount, recipient)
}

// Revoke deactivates the delegation and returns the escrow to the granter
func (o *Onchain) Revoke(ctx context.Context, id string) (common.Hash, error) {
	delegationID, err := parseDelegationID(id)
	if err != nil {
		return common.Hash{}, err
	}
	return o.client.RevokeDelegation(ctx, delegationID)
}

// Query reads the contract's view of the delegation for user. Any failure
// yields nil.
func (o *Onchain) Query(ctx context.Context, id string, user common.Address) *Status {
	delegationID, err := parseDelegationID(id)
	if err != nil {
		return nil
	}
	info := o.client.GetDelegationForUser(ctx, delegationID, user)
	if info == nil {
		return nil
	}
	return &Status{
		Amount:          info.Amount,
		RemainingAmount: info.RemainingAmount,
		ExpiresAt:       info.ExpiresAt,
		MaxUses:         info.MaxUses,
		UsedCount:       info.UsedCount,
		IsActive:        info.IsActive,
	}
}

func parseDelegationID(id string) (common.Hash, error) {
	raw := common.FromHex(id)
	if len(raw) != common.HashLength {
		return common.Hash{}, business.NewError(business.ErrInvalidConfig, "malformed delegation id "+id)
	}
	return common.BytesToHash(raw), nil
}
