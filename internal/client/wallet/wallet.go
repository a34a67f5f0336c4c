// Package wallet abstracts the end-user wallet that approves signatures and
// transactions. Every write path in the application funnels through a Wallet
// so that a declined prompt aborts the operation before any state changes.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxRequest is a transaction handed to the wallet for approval and
// submission. Value may be nil for non-payable calls.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Wallet is the user-controlled account surface. Both calls suspend on a
// user prompt and return a UserRejected domain error when declined.
type Wallet interface {
	// RequestAccount asks the wallet for its active account address
	RequestAccount(ctx context.Context) (common.Address, error)

	// SendTransaction submits the transaction after user approval and
	// returns its hash. It does not wait for confirmation.
	SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error)
}
