// Package delegation constructs, signs and encodes scoped spending
// capabilities against a deployed delegation-manager contract.
package delegation

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// Environment is the contract-address table of the deployed delegation
// framework a smart account operates against: the delegation manager itself
// plus one enforcer contract per caveat type.
type Environment struct {
	DelegationManager common.Address
	Enforcers         map[business.CaveatType]common.Address

	// Scope enforcers compile the capability scope's ceiling on-chain
	NativeTokenTransferAmountEnforcer common.Address
	ERC20TransferAmountEnforcer       common.Address
}

// EnforcerFor resolves the enforcer contract for a caveat type
func (e Environment) EnforcerFor(t business.CaveatType) (common.Address, error) {
	addr, ok := e.Enforcers[t]
	if !ok || addr == (common.Address{}) {
		return common.Address{}, business.NewError(business.ErrInvalidConfig,
			fmt.Sprintf("no enforcer configured for caveat type %s", t))
	}
	return addr, nil
}

// ScopeEnforcer resolves the enforcer contract for a capability scope
func (e Environment) ScopeEnforcer(kind business.ScopeKind) (common.Address, error) {
	switch kind {
	case business.ScopeNativeAmount:
		if e.NativeTokenTransferAmountEnforcer == (common.Address{}) {
			return common.Address{}, business.NewError(business.ErrInvalidConfig,
				"native token transfer enforcer not configured")
		}
		return e.NativeTokenTransferAmountEnforcer, nil
	case business.ScopeERC20Amount:
		if e.ERC20TransferAmountEnforcer == (common.Address{}) {
			return common.Address{}, business.NewError(business.ErrInvalidConfig,
				"erc20 transfer enforcer not configured")
		}
		return e.ERC20TransferAmountEnforcer, nil
	}
	return common.Address{}, business.NewError(business.ErrInvalidConfig,
		fmt.Sprintf("unknown scope kind %q", kind))
}

// Signer is the smart-account signer contract: an externally provided wallet
// collaborator exposing its address, its deployment environment, and a
// delegation signing operation that may be interactively rejected.
type Signer interface {
	Address() common.Address
	Environment() Environment
	SignDelegation(ctx context.Context, d *business.Delegation) (string, error)
}
