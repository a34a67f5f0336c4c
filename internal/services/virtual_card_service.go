package services

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/helpers"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/store"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// VirtualCardService manages locally simulated spending cards. No chain is
// involved, so this is the one place the restriction set (remaining
// amount, use count, expiry) is evaluated client-side.
type VirtualCardService struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewVirtualCardService creates a new virtual card service
func NewVirtualCardService(s *store.Store) *VirtualCardService {
	return &VirtualCardService{
		store:  s,
		logger: logger.Log,
		now:    time.Now,
	}
}

// CreateVirtualCardParams are the inputs for a simulated spending card
type CreateVirtualCardParams struct {
	Merchant        string
	MerchantAddress common.Address
	Amount          string
	DurationHours   int
	MaxUses         int
	DelegationHash  string
}

// CreateCard opens a simulated card with the full amount available
func (v *VirtualCardService) CreateCard(params CreateVirtualCardParams) (*business.VirtualCard, error) {
	amount, err := helpers.ParseUnits(params.Amount, helpers.NativeDecimals)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, business.NewError(business.ErrInvalidAmount, "card amount must be positive")
	}
	if params.MaxUses <= 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "max uses must be positive")
	}
	duration := params.DurationHours
	if duration <= 0 {
		duration = 24
	}

	record := business.VirtualCard{
		Merchant:        params.Merchant,
		MerchantAddress: params.MerchantAddress,
		Amount:          params.Amount,
		RemainingAmount: params.Amount,
		DurationHours:   duration,
		MaxUses:         params.MaxUses,
		Status:          business.StatusActive,
		ExpiresAt:       v.now().Add(time.Duration(duration) * time.Hour),
		DelegationHash:  params.DelegationHash,
	}
	id, err := v.store.AddVirtualCard(record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	v.logger.Info("virtual card created",
		zap.String("id", id),
		zap.String("merchant", params.Merchant),
		zap.String("amount", params.Amount),
		zap.Int("max_uses", params.MaxUses),
	)
	return &record, nil
}

// UseCard spends from the card. The restriction set is enforced here:
// the card must be active and unexpired, the spend must fit the remaining
// balance, and the use count must stay under its ceiling. A rejected spend
// leaves the record untouched.
func (v *VirtualCardService) UseCard(id string, amount string) (*business.VirtualCard, error) {
	spend, err := helpers.ParseUnits(amount, helpers.NativeDecimals)
	if err != nil {
		return nil, err
	}
	if spend.Sign() <= 0 {
		return nil, business.NewError(business.ErrInvalidAmount, "spend amount must be positive")
	}

	card, ok := v.store.GetVirtualCard(id)
	if !ok {
		return nil, business.NewError(business.ErrInvalidConfig, "unknown virtual card "+id)
	}
	if card.Status.Terminal() {
		return nil, business.NewError(business.ErrInvalidConfig, "virtual card "+id+" is no longer usable")
	}
	if v.now().After(card.ExpiresAt) {
		_ = v.store.UpdateVirtualCard(id, func(r *business.VirtualCard) {
			r.Status = business.StatusExpired
		})
		return nil, business.NewError(business.ErrInvalidConfig, "virtual card "+id+" has expired")
	}

	remaining, err := helpers.ParseUnits(card.RemainingAmount, helpers.NativeDecimals)
	if err != nil {
		return nil, business.WrapError(business.ErrUnknown, "corrupt remaining amount on card "+id, err)
	}
	if spend.Cmp(remaining) > 0 {
		return nil, business.NewError(business.ErrInvalidAmount,
			"spend exceeds remaining balance "+card.RemainingAmount)
	}

	newRemaining := helpers.FormatUnits(remaining.Sub(remaining, spend), helpers.NativeDecimals)
	newUsedCount := card.UsedCount + 1

	err = v.store.UpdateVirtualCard(id, func(r *business.VirtualCard) {
		r.RemainingAmount = newRemaining
		r.UsedCount = newUsedCount
		switch {
		case remaining.Sign() == 0 || newUsedCount >= r.MaxUses:
			r.Status = business.StatusExhausted
		default:
			r.Status = business.StatusPartiallyUsed
		}
	})
	if err != nil {
		return nil, err
	}

	updated, _ := v.store.GetVirtualCard(id)
	v.logger.Info("virtual card used",
		zap.String("id", id),
		zap.String("spent", amount),
		zap.String("remaining", updated.RemainingAmount),
	)
	return &updated, nil
}

// RevokeCard deactivates the card immediately
func (v *VirtualCardService) RevokeCard(id string) error {
	return v.store.UpdateVirtualCard(id, func(r *business.VirtualCard) {
		r.Status = business.StatusRevoked
	})
}

// ListCards returns every virtual card record
func (v *VirtualCardService) ListCards() []business.VirtualCard {
	return v.store.ListVirtualCards()
}
