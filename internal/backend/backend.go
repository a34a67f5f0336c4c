// Package backend unifies the two delegation mechanisms behind one
// capability interface: off-chain-signed objects redeemed peer-to-peer
// through the delegation manager, and fully on-chain records held by the
// registry contract. Callers pick an implementation by configuration and
// the rest of the system is indifferent to which one is active.
package backend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// Mechanism selects which delegation path a backend implements
type Mechanism string

const (
	MechanismOffchain Mechanism = "offchain"
	MechanismOnchain  Mechanism = "onchain"
)

// CreateRequest is a mechanism-neutral delegation request. Amount is in
// smallest units; Token is the zero address for the native asset.
type CreateRequest struct {
	To                common.Address
	Amount            *big.Int
	Token             common.Address
	Recurring         bool
	Interval          business.Interval
	MaxUses           *int
	DurationSeconds   int64
	AllowedRecipients []common.Address
}

// Grant is the result of a successful creation. Delegation is set on the
// off-chain path, TransactionHash on the on-chain path.
type Grant struct {
	ID              string
	Mechanism       Mechanism
	Delegation      *business.Delegation
	TransactionHash common.Hash
}

// Status is the mechanism-neutral view of a delegation's current state.
// Amounts are in smallest units.
type Status struct {
	Amount          *big.Int
	RemainingAmount *big.Int
	ExpiresAt       int64
	MaxUses         int64
	UsedCount       int64
	IsActive        bool
}

// DelegationBackend is the capability surface both mechanisms implement.
// Use and Revoke return the transaction hash of the settling transaction.
// Query returns nil with no error when the delegation cannot be resolved;
// callers treat "not found" and "query failed" identically.
type DelegationBackend interface {
	Mechanism() Mechanism
	Create(ctx context.Context, req CreateRequest) (*Grant, error)
	Use(ctx context.Context, id string, amount *big.Int, recipient common.Address) (common.Hash, error)
	Revoke(ctx context.Context, id string) (common.Hash, error)
	Query(ctx context.Context, id string, user common.Address) *Status
}
