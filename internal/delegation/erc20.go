package delegation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// erc20ABI covers the token functions redemptions and balance checks use
const erc20ABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"}],
		"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
		{"name":"account","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint8"}]}
]`

var erc20 = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic("invalid erc20 ABI: " + err.Error())
	}
	return parsed
}()

// NewTransferExecution describes the on-chain call that moves amount to
// recipient: a plain value transfer for the native token, an erc20
// transfer call otherwise.
func NewTransferExecution(token, recipient common.Address, amount *big.Int) (business.Execution, error) {
	if recipient == (common.Address{}) {
		return business.Execution{}, business.NewError(business.ErrInvalidAddress, "transfer recipient is required")
	}
	if amount == nil || amount.Sign() <= 0 {
		return business.Execution{}, business.NewError(business.ErrInvalidAmount, "transfer amount must be positive")
	}

	if token == (common.Address{}) {
		return business.Execution{
			Target: recipient,
			Value:  amount,
		}, nil
	}

	callData, err := erc20.Pack("transfer", recipient, amount)
	if err != nil {
		return business.Execution{}, fmt.Errorf("failed to encode erc20 transfer: %w", err)
	}
	return business.Execution{
		Target:   token,
		Value:    new(big.Int),
		CallData: callData,
	}, nil
}
