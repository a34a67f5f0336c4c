package business

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ScopeKind identifies the asset class a delegation spends from
type ScopeKind string

const (
	ScopeNativeAmount ScopeKind = "native-amount"
	ScopeERC20Amount  ScopeKind = "erc20-amount"
)

// CapabilityScope anchors a delegation to an asset and a spending ceiling.
// MaxAmount is in the asset's smallest unit and is immutable once signed.
type CapabilityScope struct {
	Kind      ScopeKind
	Token     common.Address // zero address for native scopes
	MaxAmount *big.Int
}

type capabilityScopeJSON struct {
	Kind      ScopeKind      `json:"kind"`
	Token     common.Address `json:"token,omitempty"`
	MaxAmount string         `json:"maxAmount"`
}

func (s CapabilityScope) MarshalJSON() ([]byte, error) {
	maxAmount := "0"
	if s.MaxAmount != nil {
		maxAmount = s.MaxAmount.String()
	}
	return json.Marshal(capabilityScopeJSON{Kind: s.Kind, Token: s.Token, MaxAmount: maxAmount})
}

func (s *CapabilityScope) UnmarshalJSON(data []byte) error {
	var raw capabilityScopeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	maxAmount, ok := new(big.Int).SetString(raw.MaxAmount, 10)
	if !ok {
		return fmt.Errorf("invalid scope maxAmount %q", raw.MaxAmount)
	}
	s.Kind = raw.Kind
	s.Token = raw.Token
	s.MaxAmount = maxAmount
	return nil
}

// Validate checks the scope's internal consistency
func (s CapabilityScope) Validate() error {
	switch s.Kind {
	case ScopeNativeAmount:
		if s.Token != (common.Address{}) {
			return NewError(ErrInvalidConfig, "native scope must not reference a token")
		}
	case ScopeERC20Amount:
		if s.Token == (common.Address{}) {
			return NewError(ErrInvalidConfig, "erc20 scope requires a token address")
		}
	default:
		return NewError(ErrInvalidConfig, fmt.Sprintf("unknown scope kind %q", s.Kind))
	}
	if s.MaxAmount == nil || s.MaxAmount.Sign() <= 0 {
		return NewError(ErrInvalidConfig, "scope maximum amount must be positive")
	}
	return nil
}

// Delegation is a scoped spending capability from a granter's smart account
// to a grantee. The signature covers the whole (from, to, scope, caveats,
// salt) tuple; mutating any of those fields invalidates it.
type Delegation struct {
	From      common.Address `json:"from"`
	To        common.Address `json:"to"`
	Scope     CapabilityScope `json:"scope"`
	Caveats   CaveatList      `json:"caveats"`
	Salt      string          `json:"salt"`
	Signature string          `json:"signature,omitempty"`
}

// Signed reports whether the delegation carries a signature
func (d *Delegation) Signed() bool {
	return d.Signature != "" && d.Signature != "0x"
}

// Execution describes one on-chain call a delegate redeems a delegation
// into: target address, attached native value, and call data. Executions are
// produced fresh at redemption time and never persisted.
type Execution struct {
	Target   common.Address
	Value    *big.Int
	CallData []byte
}

// DelegationView is the read model the registry contract exposes for a
// delegation. Amounts are human-readable decimal strings (18-decimal native).
type DelegationView struct {
	DelegationID    string         `json:"delegation_id"`
	From            common.Address `json:"from,omitempty"`
	To              common.Address `json:"to,omitempty"`
	SmartAccount    common.Address `json:"smart_account"`
	Amount          string         `json:"amount"`
	RemainingAmount string         `json:"remaining_amount"`
	ExpiresAt       int64          `json:"expires_at"`
	MaxUses         uint64         `json:"max_uses"`
	UsedCount       uint64         `json:"used_count"`
	IsActive        bool           `json:"is_active"`
}
