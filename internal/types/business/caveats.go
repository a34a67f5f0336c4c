package business

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// CaveatType tags each restriction kind attached to a delegation
type CaveatType string

const (
	CaveatSpendLimit        CaveatType = "SPEND_LIMIT"
	CaveatMaxUses           CaveatType = "MAX_USES"
	CaveatExpiration        CaveatType = "EXPIRATION"
	CaveatAllowedMethods    CaveatType = "ALLOWED_METHODS"
	CaveatAllowedRecipients CaveatType = "ALLOWED_RECIPIENTS"
	CaveatInactivityPeriod  CaveatType = "INACTIVITY_PERIOD"
	CaveatRequiredExecutors CaveatType = "REQUIRED_EXECUTORS"
)

// Caveat is one atomic restriction narrowing a delegation's validity.
// Caveats are evaluated conjunctively: all must hold at redemption time.
type Caveat interface {
	CaveatType() CaveatType
}

// SpendLimitCaveat caps cumulative spend per period. Amount is a base-10
// integer in the asset's smallest unit; Period is the window length in
// seconds, with Period == 1 meaning a single aggregate limit (no recurrence).
type SpendLimitCaveat struct {
	Amount string         `json:"amount"`
	Token  common.Address `json:"token,omitempty"`
	Period int64          `json:"period"`
}

func (SpendLimitCaveat) CaveatType() CaveatType { return CaveatSpendLimit }

// MaxUsesCaveat is a hard ceiling on redemption count
type MaxUsesCaveat struct {
	Count int `json:"count"`
}

func (MaxUsesCaveat) CaveatType() CaveatType { return CaveatMaxUses }

// ExpirationCaveat invalidates the delegation at/after the unix timestamp
type ExpirationCaveat struct {
	Timestamp int64 `json:"timestamp"`
}

func (ExpirationCaveat) CaveatType() CaveatType { return CaveatExpiration }

// AllowedMethodsCaveat whitelists the callable operations
type AllowedMethodsCaveat struct {
	Methods []string `json:"methods"`
}

func (AllowedMethodsCaveat) CaveatType() CaveatType { return CaveatAllowedMethods }

// AllowedRecipientsCaveat whitelists valid execution targets
type AllowedRecipientsCaveat struct {
	Recipients []common.Address `json:"recipients"`
}

func (AllowedRecipientsCaveat) CaveatType() CaveatType { return CaveatAllowedRecipients }

// InactivityPeriodCaveat requires the granter to have been inactive for the
// given number of seconds before the delegation becomes redeemable
type InactivityPeriodCaveat struct {
	Seconds int64 `json:"seconds"`
}

func (InactivityPeriodCaveat) CaveatType() CaveatType { return CaveatInactivityPeriod }

// RequiredExecutorsCaveat restricts who may trigger execution
type RequiredExecutorsCaveat struct {
	Executors []common.Address `json:"executors"`
}

func (RequiredExecutorsCaveat) CaveatType() CaveatType { return CaveatRequiredExecutors }

// CaveatList is an ordered caveat set with a stable JSON envelope
// of the form {"type": ..., "value": ...} per entry.
type CaveatList []Caveat

type caveatEnvelope struct {
	Type  CaveatType      `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (l CaveatList) MarshalJSON() ([]byte, error) {
	envelopes := make([]caveatEnvelope, 0, len(l))
	for _, c := range l {
		value, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal caveat %s: %w", c.CaveatType(), err)
		}
		envelopes = append(envelopes, caveatEnvelope{Type: c.CaveatType(), Value: value})
	}
	return json.Marshal(envelopes)
}

func (l *CaveatList) UnmarshalJSON(data []byte) error {
	var envelopes []caveatEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	caveats := make(CaveatList, 0, len(envelopes))
	for _, env := range envelopes {
		caveat, err := decodeCaveat(env)
		if err != nil {
			return err
		}
		caveats = append(caveats, caveat)
	}
	*l = caveats
	return nil
}

func decodeCaveat(env caveatEnvelope) (Caveat, error) {
	switch env.Type {
	case CaveatSpendLimit:
		var c SpendLimitCaveat
		return &c, json.Unmarshal(env.Value, &c)
	case CaveatMaxUses:
		var c MaxUsesCaveat
		return &c, json.Unmarshal(env.Value, &c)
	case CaveatExpiration:
		var c ExpirationCaveat
		return &c, json.Unmarshal(env.Value, &c)
	case CaveatAllowedMethods:
		var c AllowedMethodsCaveat
		return &c, json.Unmarshal(env.Value, &c)
	case CaveatAllowedRecipients:
		var c AllowedRecipientsCaveat
		return &c, json.Unmarshal(env.Value, &c)
	case CaveatInactivityPeriod:
		var c InactivityPeriodCaveat
		return &c, json.Unmarshal(env.Value, &c)
	case CaveatRequiredExecutors:
		var c RequiredExecutorsCaveat
		return &c, json.Unmarshal(env.Value, &c)
	default:
		return nil, fmt.Errorf("unknown caveat type %q", env.Type)
	}
}

// FindCaveat returns the first caveat of the given type, or nil
func (l CaveatList) FindCaveat(t CaveatType) Caveat {
	for _, c := range l {
		if c.CaveatType() == t {
			return c
		}
	}
	return nil
}
