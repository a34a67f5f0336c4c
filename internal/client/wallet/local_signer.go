package wallet

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/semihdurgun/monadagent/internal/delegation"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// LocalSigner signs delegations with an in-process private key. It exists
// for development and automated flows where no interactive wallet is
// available; production grants go through a wallet prompt instead.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	env     delegation.Environment
}

// NewLocalSigner builds a signer from a hex-encoded private key
func NewLocalSigner(hexKey string, env delegation.Environment) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, business.WrapError(business.ErrInvalidConfig, "invalid signer private key", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		env:     env,
	}, nil
}

// Address returns the signer's account address
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// Environment returns the contract deployment the signer operates against
func (s *LocalSigner) Environment() delegation.Environment {
	return s.env
}

// SignDelegation signs the delegation digest with the local key
func (s *LocalSigner) SignDelegation(_ context.Context, d *business.Delegation) (string, error) {
	digest, err := delegation.Hash(d)
	if err != nil {
		return "", err
	}
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return "", business.WrapError(business.ErrUnknown, "failed to sign delegation digest", err)
	}
	// Normalize the recovery id to the Ethereum convention
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}
