package services

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/caveats"
	"github.com/semihdurgun/monadagent/internal/delegation"
	"github.com/semihdurgun/monadagent/internal/helpers"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/store"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// WillService manages digital wills: dormant delegations that become
// redeemable only after a period of owner inactivity, triggered by a named
// executor. Each beneficiary receives their own delegation sized by their
// percentage of the estate.
type WillService struct {
	factory *delegation.Factory
	store   *store.Store
	logger  *zap.Logger
}

// NewWillService creates a new will service
func NewWillService(factory *delegation.Factory, s *store.Store) *WillService {
	return &WillService{
		factory: factory,
		store:   s,
		logger:  logger.Log,
	}
}

// CreateWillParams are the inputs for a new digital will. EstateAmount is
// a decimal string covering the whole estate; beneficiary percentages must
// sum to exactly 100.
type CreateWillParams struct {
	Name                    string
	EstateAmount            string
	Beneficiaries           []business.WillBeneficiary
	InactivityPeriodSeconds int64
	Executors               []common.Address
}

// CreateWill signs one dormant delegation per beneficiary and stores the
// will. Any signing failure aborts the whole creation: a partially signed
// estate is never persisted.
func (w *WillService) CreateWill(ctx context.Context, params CreateWillParams) (*business.DigitalWill, error) {
	if w.factory == nil {
		return nil, business.NewError(business.ErrInvalidConfig, "will creation requires a configured delegation signer")
	}
	if len(params.Beneficiaries) == 0 {
		return nil, business.NewError(business.ErrInvalidConfig, "a will requires at least one beneficiary")
	}
	total := 0
	for _, b := range params.Beneficiaries {
		if b.Address == (common.Address{}) {
			return nil, business.NewError(business.ErrInvalidAddress, "beneficiary address is required")
		}
		if b.Percentage <= 0 {
			return nil, business.NewError(business.ErrInvalidConfig, "beneficiary percentages must be positive")
		}
		total += b.Percentage
	}
	if total != 100 {
		return nil, business.NewError(business.ErrInvalidConfig, "beneficiary percentages must sum to 100")
	}

	estate, err := helpers.ParseUnits(params.EstateAmount, helpers.NativeDecimals)
	if err != nil {
		return nil, err
	}
	if estate.Sign() <= 0 {
		return nil, business.NewError(business.ErrInvalidAmount, "estate amount must be positive")
	}

	willCaveats, err := caveats.BuildWillCaveats(params.InactivityPeriodSeconds, params.Executors)
	if err != nil {
		return nil, err
	}

	delegations := make([]*business.Delegation, 0, len(params.Beneficiaries))
	for _, beneficiary := range params.Beneficiaries {
		share := new(big.Int).Mul(estate, big.NewInt(int64(beneficiary.Percentage)))
		share.Div(share, big.NewInt(100))

		scope := business.CapabilityScope{
			Kind:      business.ScopeNativeAmount,
			MaxAmount: share,
		}
		unsigned, err := w.factory.CreateDelegation(
			w.factory.Address(), beneficiary.Address, scope, willCaveats)
		if err != nil {
			return nil, err
		}
		signed, err := w.factory.Sign(ctx, unsigned)
		if err != nil {
			return nil, err
		}
		delegations = append(delegations, signed)
	}

	record := business.DigitalWill{
		Name:             params.Name,
		Beneficiaries:    params.Beneficiaries,
		InactivityPeriod: params.InactivityPeriodSeconds,
		Executors:        params.Executors,
		Status:           business.StatusActive,
		Delegations:      delegations,
	}
	id, err := w.store.AddWill(record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	w.logger.Info("digital will created",
		zap.String("id", id),
		zap.Int("beneficiaries", len(params.Beneficiaries)),
		zap.Int64("inactivity_seconds", params.InactivityPeriodSeconds),
	)
	return &record, nil
}

// RecordActivity resets the inactivity clock. Executors can only trigger
// the will after the owner has been silent for the full period.
func (w *WillService) RecordActivity(id string) error {
	return w.store.UpdateWill(id, func(r *business.DigitalWill) {
		r.LastActivity = time.Now()
	})
}

// RevokeWill deactivates the will and its delegations
func (w *WillService) RevokeWill(id string) error {
	return w.store.UpdateWill(id, func(r *business.DigitalWill) {
		r.Status = business.StatusRevoked
	})
}

// ListWills returns every will record
func (w *WillService) ListWills() []business.DigitalWill {
	return w.store.ListWills()
}
