package services

import (
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/common"

	"github.com/semihdurgun/monadagent/internal/helpers"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/store"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// PotService manages shared pots: group funds that release money only
// above a member approval threshold. Balances are tracked locally; the
// pot's smart account holds the actual funds.
type PotService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewPotService creates a new shared pot service
func NewPotService(s *store.Store) *PotService {
	return &PotService{
		store:  s,
		logger: logger.Log,
	}
}

// CreatePotParams are the inputs for a new shared pot
type CreatePotParams struct {
	Name         string
	Members      []common.Address
	Threshold    int
	SmartAccount common.Address
}

// CreatePot opens a pot with a zero balance
func (p *PotService) CreatePot(params CreatePotParams) (*business.SharedPot, error) {
	if len(params.Members) < 2 {
		return nil, business.NewError(business.ErrInvalidConfig, "a shared pot requires at least two members")
	}
	if params.Threshold < 1 || params.Threshold > len(params.Members) {
		return nil, business.NewError(business.ErrInvalidConfig, "approval threshold must be between 1 and the member count")
	}
	for _, member := range params.Members {
		if member == (common.Address{}) {
			return nil, business.NewError(business.ErrInvalidAddress, "member address is required")
		}
	}

	record := business.SharedPot{
		Name:         params.Name,
		Members:      params.Members,
		Threshold:    params.Threshold,
		SmartAccount: params.SmartAccount,
		Balance:      "0",
		Status:       business.StatusActive,
	}
	id, err := p.store.AddSharedPot(record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	p.logger.Info("shared pot created",
		zap.String("id", id),
		zap.Int("members", len(params.Members)),
		zap.Int("threshold", params.Threshold),
	)
	return &record, nil
}

// AddFunds credits the pot's tracked balance after a deposit confirms
func (p *PotService) AddFunds(id string, amount string) error {
	deposit, err := helpers.ParseUnits(amount, helpers.NativeDecimals)
	if err != nil {
		return err
	}
	if deposit.Sign() <= 0 {
		return business.NewError(business.ErrInvalidAmount, "deposit amount must be positive")
	}

	pot, ok := p.store.GetSharedPot(id)
	if !ok {
		return business.NewError(business.ErrInvalidConfig, "unknown shared pot "+id)
	}
	if pot.Status.Terminal() {
		return business.NewError(business.ErrInvalidConfig, "shared pot "+id+" is closed")
	}

	balance, err := helpers.ParseUnits(pot.Balance, helpers.NativeDecimals)
	if err != nil {
		return business.WrapError(business.ErrUnknown, "corrupt balance on pot "+id, err)
	}
	newBalance := helpers.FormatUnits(balance.Add(balance, deposit), helpers.NativeDecimals)

	return p.store.UpdateSharedPot(id, func(r *business.SharedPot) {
		r.Balance = newBalance
	})
}

// ClosePot marks the pot revoked; the record stays for audit history
func (p *PotService) ClosePot(id string) error {
	return p.store.UpdateSharedPot(id, func(r *business.SharedPot) {
		r.Status = business.StatusRevoked
	})
}

// ListPots returns every shared pot record
func (p *PotService) ListPots() []business.SharedPot {
	return p.store.ListSharedPots()
}
