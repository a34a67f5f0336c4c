// Package caveats translates normalized delegation requests into the ordered
// restriction set attached to a delegation before signing.
package caveats

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// singleUsePeriod marks a spend limit with no recurrence: one aggregate cap
const singleUsePeriod = 1

// Request is a normalized delegation request. Amount is in the asset's
// smallest unit; Token is the zero address for native grants.
type Request struct {
	Amount            *big.Int
	Token             common.Address
	Recurring         bool
	Interval          business.Interval
	MaxUses           *int // nil when the request does not bound use count
	DurationSeconds   int64
	ExpiresAt         int64 // absolute unix timestamp; wins over DurationSeconds when set
	AllowedRecipients []common.Address
	AllowedMethods    []string
}

// Build assembles the ordered caveat list for the request. Ordering matters
// only for audit readability; evaluation is conjunctive.
func Build(req Request) (business.CaveatList, error) {
	return BuildAt(req, time.Now())
}

// BuildAt is Build with an explicit clock
func BuildAt(req Request, now time.Time) (business.CaveatList, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "delegation amount must be positive")
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "max uses must be positive")
	}
	if req.Recurring && !req.Interval.Valid() {
		return nil, business.NewError(business.ErrInvalidConfig, "recurring delegation requires a period")
	}

	// Methods first, spend limit second; the rest follow in request order.
	methods := req.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"transfer"}
	}
	list := business.CaveatList{
		business.AllowedMethodsCaveat{Methods: methods},
	}

	if req.Recurring {
		list = append(list, business.SpendLimitCaveat{
			Amount: req.Amount.String(),
			Token:  req.Token,
			Period: req.Interval.Seconds(),
		})
		if req.MaxUses != nil {
			list = append(list, business.MaxUsesCaveat{Count: *req.MaxUses})
		}
	} else {
		// A one-time grant is a single aggregate limit with exactly one use.
		if req.MaxUses != nil && *req.MaxUses > 1 {
			return nil, business.NewError(business.ErrInvalidConfig, "one-time delegation cannot allow multiple uses")
		}
		list = append(list,
			business.SpendLimitCaveat{
				Amount: req.Amount.String(),
				Token:  req.Token,
				Period: singleUsePeriod,
			},
			business.MaxUsesCaveat{Count: 1},
		)
	}

	switch {
	case req.ExpiresAt > 0:
		list = append(list, business.ExpirationCaveat{Timestamp: req.ExpiresAt})
	case req.DurationSeconds > 0:
		list = append(list, business.ExpirationCaveat{Timestamp: now.Unix() + req.DurationSeconds})
	case req.DurationSeconds < 0:
		return nil, business.NewError(business.ErrInvalidConfig, "duration must be positive")
	}

	if len(req.AllowedRecipients) > 0 {
		list = append(list, business.AllowedRecipientsCaveat{Recipients: req.AllowedRecipients})
	}

	return list, nil
}

// BuildWillCaveats assembles the restriction set for a digital will: the
// delegation is dormant until the owner has been inactive for
// inactivitySeconds, and only the named executors may trigger it.
func BuildWillCaveats(inactivitySeconds int64, executors []common.Address) (business.CaveatList, error) {
	if inactivitySeconds <= 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "inactivity period must be positive")
	}
	if len(executors) == 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "a will requires at least one executor")
	}
	return business.CaveatList{
		business.InactivityPeriodCaveat{Seconds: inactivitySeconds},
		business.RequiredExecutorsCaveat{Executors: executors},
		business.AllowedMethodsCaveat{Methods: []string{"transfer"}},
	}, nil
}
