package delegation

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// Factory builds and signs delegations for one smart account. It is
// stateless beyond its signer reference and never retains the delegations
// it produces.
type Factory struct {
	signer Signer
	logger *zap.Logger
}

// NewFactory creates a factory bound to a smart-account signer
func NewFactory(signer Signer) *Factory {
	return &Factory{
		signer: signer,
		logger: logger.Log,
	}
}

// CreateDelegation constructs an unsigned delegation scoped to the given
// spending capability. Subscriptions and one-time payments both funnel
// through here; only the caveat set differentiates them.
func (f *Factory) CreateDelegation(from, to common.Address, scope business.CapabilityScope, caveats business.CaveatList) (*business.Delegation, error) {
	if from != f.signer.Address() {
		return nil, business.NewError(business.ErrInvalidConfig,
			"delegation granter must be the signer's own smart account")
	}
	if to == (common.Address{}) {
		return nil, business.NewError(business.ErrInvalidAddress, "delegation grantee is required")
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if len(caveats) == 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "a delegation requires at least one caveat")
	}

	salt, err := newSalt()
	if err != nil {
		return nil, business.WrapError(business.ErrUnknown, "failed to generate delegation salt", err)
	}

	return &business.Delegation{
		From:    from,
		To:      to,
		Scope:   scope,
		Caveats: caveats,
		Salt:    salt,
	}, nil
}

// Sign obtains the owner's signature over the delegation. The signer prompt
// is a suspending call that the user may decline, which surfaces as
// UserRejected with no signed object produced.
func (f *Factory) Sign(ctx context.Context, d *business.Delegation) (*business.Delegation, error) {
	if d.Signed() {
		return nil, business.NewError(business.ErrInvalidConfig, "delegation is already signed")
	}

	signature, err := f.signer.SignDelegation(ctx, d)
	if err != nil {
		if business.IsUserRejected(err) {
			return nil, business.WrapError(business.ErrUserRejected, "delegation signature declined", err)
		}
		return nil, business.WrapError(business.ErrUnknown, "failed to sign delegation", err)
	}

	signed := *d
	signed.Signature = signature

	f.logger.Info("delegation signed",
		zap.String("from", d.From.Hex()),
		zap.String("to", d.To.Hex()),
		zap.String("scope", string(d.Scope.Kind)),
		zap.Int("caveats", len(d.Caveats)),
	)

	return &signed, nil
}

// Environment exposes the signer's deployment environment
func (f *Factory) Environment() Environment {
	return f.signer.Environment()
}

// Address is the smart-account address delegations are granted from
func (f *Factory) Address() common.Address {
	return f.signer.Address()
}

// Hash is the digest a signer commits to: keccak256 over the canonical JSON
// encoding of the unsigned (from, to, scope, caveats, salt) tuple. Any
// mutation of those fields changes the hash and invalidates the signature.
func Hash(d *business.Delegation) (common.Hash, error) {
	unsigned := *d
	unsigned.Signature = ""

	encoded, err := json.Marshal(&unsigned)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode delegation for hashing: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// newSalt returns 32 random bytes as a hex string
func newSalt() (string, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return hexutil.Encode(salt), nil
}
