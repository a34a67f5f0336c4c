package delegation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// delegationManagerABI is the consumed surface of the delegation-manager
// contract's batch redemption entry point.
const delegationManagerABI = `[
	{"type":"function","name":"redeemDelegations","stateMutability":"nonpayable","inputs":[
		{"name":"permissionContexts","type":"bytes[]"},
		{"name":"modes","type":"bytes32[]"},
		{"name":"executionCallDatas","type":"bytes[]"}],"outputs":[]},
	{"type":"function","name":"disableDelegation","stateMutability":"nonpayable","inputs":[
		{"name":"delegation","type":"tuple","components":[
			{"name":"delegate","type":"address"},
			{"name":"delegator","type":"address"},
			{"name":"authority","type":"bytes32"},
			{"name":"caveats","type":"tuple[]","components":[
				{"name":"enforcer","type":"address"},
				{"name":"terms","type":"bytes"},
				{"name":"args","type":"bytes"}]},
			{"name":"salt","type":"uint256"},
			{"name":"signature","type":"bytes"}]}],"outputs":[]}
]`

// ModeSingleDefault is the execution mode for a single default call per
// delegation chain. The zero bytes32 encodes call-type single, default mode.
var ModeSingleDefault = [32]byte{}

// rootAuthority marks a delegation granted directly by the account owner
// rather than re-delegated from a parent delegation.
var rootAuthority = common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

// onchainCaveat is the caveat wire struct the delegation manager consumes
type onchainCaveat struct {
	Enforcer common.Address
	Terms    []byte
	Args     []byte
}

// onchainDelegation is the delegation wire struct the delegation manager
// consumes; the scope and every caveat are compiled into enforcer terms.
type onchainDelegation struct {
	Delegate  common.Address
	Delegator common.Address
	Authority [32]byte
	Caveats   []onchainCaveat
	Salt      *big.Int
	Signature []byte
}

// Encoder turns signed delegations plus concrete executions into the
// calldata for the delegation manager's batch redeem entry point. It
// performs no network I/O; the caller submits the calldata from the
// grantee's account.
type Encoder struct {
	env Environment
	abi abi.ABI
}

// NewEncoder creates an encoder for the given deployment environment
func NewEncoder(env Environment) (*Encoder, error) {
	parsed, err := abi.JSON(strings.NewReader(delegationManagerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse delegation manager ABI: %w", err)
	}
	return &Encoder{env: env, abi: parsed}, nil
}

// EncodeRedemption wraps one signed delegation and one execution into a
// single-chain, single-execution redeem batch.
func (e *Encoder) EncodeRedemption(signed *business.Delegation, execution business.Execution) ([]byte, error) {
	return e.EncodeRedemptions(
		[][]*business.Delegation{{signed}},
		[][32]byte{ModeSingleDefault},
		[]business.Execution{execution},
	)
}

// EncodeRedemptions encodes the general batched form: parallel arrays of
// delegation chains, execution modes, and one execution per chain.
func (e *Encoder) EncodeRedemptions(chains [][]*business.Delegation, modes [][32]byte, executions []business.Execution) ([]byte, error) {
	if len(chains) == 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "redemption batch is empty")
	}
	if len(chains) != len(modes) || len(chains) != len(executions) {
		return nil, business.NewError(business.ErrInvalidConfig,
			"delegation chains, modes and executions must be parallel arrays")
	}

	permissionContexts := make([][]byte, len(chains))
	modeValues := make([][32]byte, len(modes))
	executionCallDatas := make([][]byte, len(executions))

	for i, chain := range chains {
		if len(chain) == 0 {
			return nil, business.NewError(business.ErrInvalidConfig, "delegation chain is empty")
		}
		for _, d := range chain {
			if !d.Signed() {
				return nil, business.NewError(business.ErrUnsignedDelegation,
					"cannot redeem a delegation without a signature")
			}
		}

		context, err := e.packDelegationChain(chain)
		if err != nil {
			return nil, err
		}
		permissionContexts[i] = context
		modeValues[i] = modes[i]
		executionCallDatas[i] = encodeSingleExecution(executions[i])
	}

	calldata, err := e.abi.Pack("redeemDelegations", permissionContexts, modeValues, executionCallDatas)
	if err != nil {
		return nil, fmt.Errorf("failed to pack redeemDelegations: %w", err)
	}
	return calldata, nil
}

// EncodeDisableDelegation encodes the owner-side revocation call for an
// off-chain-signed delegation.
func (e *Encoder) EncodeDisableDelegation(d *business.Delegation) ([]byte, error) {
	if !d.Signed() {
		return nil, business.NewError(business.ErrUnsignedDelegation,
			"cannot disable a delegation without a signature")
	}
	compiled, err := e.compile(d)
	if err != nil {
		return nil, err
	}
	calldata, err := e.abi.Pack("disableDelegation", compiled)
	if err != nil {
		return nil, fmt.Errorf("failed to pack disableDelegation: %w", err)
	}
	return calldata, nil
}

// DelegationManager is the contract address redeem calldata must be sent to
func (e *Encoder) DelegationManager() common.Address {
	return e.env.DelegationManager
}

var delegationChainArguments = func() abi.Arguments {
	delegationsType, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "delegate", Type: "address"},
		{Name: "delegator", Type: "address"},
		{Name: "authority", Type: "bytes32"},
		{Name: "caveats", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "enforcer", Type: "address"},
			{Name: "terms", Type: "bytes"},
			{Name: "args", Type: "bytes"},
		}},
		{Name: "salt", Type: "uint256"},
		{Name: "signature", Type: "bytes"},
	})
	if err != nil {
		panic("invalid delegation tuple definition: " + err.Error())
	}
	return abi.Arguments{{Type: delegationsType}}
}()

// packDelegationChain ABI-encodes a chain of compiled delegations into one
// permission context blob.
func (e *Encoder) packDelegationChain(chain []*business.Delegation) ([]byte, error) {
	compiled := make([]onchainDelegation, len(chain))
	for i, d := range chain {
		c, err := e.compile(d)
		if err != nil {
			return nil, err
		}
		compiled[i] = c
	}
	packed, err := delegationChainArguments.Pack(compiled)
	if err != nil {
		return nil, fmt.Errorf("failed to pack delegation chain: %w", err)
	}
	return packed, nil
}

// compile lowers a delegation to its on-chain wire form: the scope becomes
// the leading enforcer caveat, each high-level caveat becomes its enforcer
// plus packed terms.
func (e *Encoder) compile(d *business.Delegation) (onchainDelegation, error) {
	caveats := make([]onchainCaveat, 0, len(d.Caveats)+1)

	scopeEnforcer, err := e.env.ScopeEnforcer(d.Scope.Kind)
	if err != nil {
		return onchainDelegation{}, err
	}
	caveats = append(caveats, onchainCaveat{
		Enforcer: scopeEnforcer,
		Terms:    scopeTerms(d.Scope),
		Args:     []byte{},
	})

	for _, caveat := range d.Caveats {
		enforcer, err := e.env.EnforcerFor(caveat.CaveatType())
		if err != nil {
			return onchainDelegation{}, err
		}
		terms, err := caveatTerms(caveat)
		if err != nil {
			return onchainDelegation{}, err
		}
		caveats = append(caveats, onchainCaveat{Enforcer: enforcer, Terms: terms, Args: []byte{}})
	}

	return onchainDelegation{
		Delegate:  d.To,
		Delegator: d.From,
		Authority: rootAuthority,
		Caveats:   caveats,
		Salt:      new(big.Int).SetBytes(common.FromHex(d.Salt)),
		Signature: common.FromHex(d.Signature),
	}, nil
}

// scopeTerms packs the spending ceiling for the scope enforcer
func scopeTerms(s business.CapabilityScope) []byte {
	amount := common.LeftPadBytes(s.MaxAmount.Bytes(), 32)
	if s.Kind == business.ScopeERC20Amount {
		return append(s.Token.Bytes(), amount...)
	}
	return amount
}

// caveatTerms packs a caveat's fields into its enforcer's terms layout
func caveatTerms(c business.Caveat) ([]byte, error) {
	switch caveat := c.(type) {
	case business.SpendLimitCaveat:
		return spendLimitTerms(caveat)
	case *business.SpendLimitCaveat:
		return spendLimitTerms(*caveat)
	case business.MaxUsesCaveat:
		return uintTerms(big.NewInt(int64(caveat.Count))), nil
	case *business.MaxUsesCaveat:
		return uintTerms(big.NewInt(int64(caveat.Count))), nil
	case business.ExpirationCaveat:
		return uintTerms(big.NewInt(caveat.Timestamp)), nil
	case *business.ExpirationCaveat:
		return uintTerms(big.NewInt(caveat.Timestamp)), nil
	case business.AllowedMethodsCaveat:
		return methodTerms(caveat.Methods)
	case *business.AllowedMethodsCaveat:
		return methodTerms(caveat.Methods)
	case business.AllowedRecipientsCaveat:
		return addressTerms(caveat.Recipients), nil
	case *business.AllowedRecipientsCaveat:
		return addressTerms(caveat.Recipients), nil
	case business.InactivityPeriodCaveat:
		return uintTerms(big.NewInt(caveat.Seconds)), nil
	case *business.InactivityPeriodCaveat:
		return uintTerms(big.NewInt(caveat.Seconds)), nil
	case business.RequiredExecutorsCaveat:
		return addressTerms(caveat.Executors), nil
	case *business.RequiredExecutorsCaveat:
		return addressTerms(caveat.Executors), nil
	}
	return nil, business.NewError(business.ErrInvalidConfig,
		fmt.Sprintf("cannot compile caveat type %s", c.CaveatType()))
}

func spendLimitTerms(c business.SpendLimitCaveat) ([]byte, error) {
	amount, ok := new(big.Int).SetString(c.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return nil, business.NewError(business.ErrInvalidAmount,
			fmt.Sprintf("invalid spend limit amount %q", c.Amount))
	}
	terms := make([]byte, 0, 84)
	if c.Token != (common.Address{}) {
		terms = append(terms, c.Token.Bytes()...)
	}
	terms = append(terms, common.LeftPadBytes(amount.Bytes(), 32)...)
	terms = append(terms, common.LeftPadBytes(big.NewInt(c.Period).Bytes(), 32)...)
	return terms, nil
}

func uintTerms(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func addressTerms(addresses []common.Address) []byte {
	terms := make([]byte, 0, len(addresses)*common.AddressLength)
	for _, a := range addresses {
		terms = append(terms, a.Bytes()...)
	}
	return terms
}

// methodSignatures maps the short method names used in requests to their
// canonical ERC20 signatures.
var methodSignatures = map[string]string{
	"transfer":     "transfer(address,uint256)",
	"transferFrom": "transferFrom(address,address,uint256)",
	"approve":      "approve(address,uint256)",
}

// methodTerms packs the 4-byte selectors of the allowed methods. A method
// may be given as a bare known name or a full signature.
func methodTerms(methods []string) ([]byte, error) {
	terms := make([]byte, 0, len(methods)*4)
	for _, method := range methods {
		signature := method
		if !strings.Contains(method, "(") {
			mapped, ok := methodSignatures[method]
			if !ok {
				return nil, business.NewError(business.ErrInvalidConfig,
					fmt.Sprintf("unknown method %q in allowed methods", method))
			}
			signature = mapped
		}
		terms = append(terms, crypto.Keccak256([]byte(signature))[:4]...)
	}
	return terms, nil
}

// encodeSingleExecution packs an execution for single-default mode:
// target (20 bytes) ++ value (32 bytes) ++ calldata.
func encodeSingleExecution(exec business.Execution) []byte {
	value := exec.Value
	if value == nil {
		value = new(big.Int)
	}
	encoded := make([]byte, 0, 52+len(exec.CallData))
	encoded = append(encoded, exec.Target.Bytes()...)
	encoded = append(encoded, common.LeftPadBytes(value.Bytes(), 32)...)
	encoded = append(encoded, exec.CallData...)
	return encoded
}
