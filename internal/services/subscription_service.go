package services

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/backend"
	"github.com/semihdurgun/monadagent/internal/helpers"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/store"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// SubscriptionService handles recurring merchant grants
type SubscriptionService struct {
	backend backend.DelegationBackend
	store   *store.Store
	logger  *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(b backend.DelegationBackend, s *store.Store) *SubscriptionService {
	return &SubscriptionService{
		backend: b,
		store:   s,
		logger:  logger.Log,
	}
}

// CreateSubscriptionParams are the normalized inputs for a new subscription.
// Amount is a human-readable decimal string.
type CreateSubscriptionParams struct {
	Name     string
	Merchant string
	Amount   string
	Interval business.Interval
}

// CreateSubscription grants the merchant a recurring spend allowance and
// records it. Nothing is stored unless the delegation is created and
// signed successfully.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*business.Subscription, error) {
	if !helpers.IsAddressValid(params.Merchant) {
		return nil, business.NewError(business.ErrInvalidAddress, "invalid merchant address "+params.Merchant)
	}
	if !params.Interval.Valid() {
		return nil, business.NewError(business.ErrInvalidConfig, "subscription requires a daily, weekly, monthly or yearly interval")
	}
	amount, err := helpers.ParseUnits(params.Amount, helpers.NativeDecimals)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, business.NewError(business.ErrInvalidAmount, "subscription amount must be positive")
	}

	grant, err := s.backend.Create(ctx, backend.CreateRequest{
		To:        common.HexToAddress(params.Merchant),
		Amount:    amount,
		Recurring: true,
		Interval:  params.Interval,
	})
	if err != nil {
		return nil, err
	}

	record := business.Subscription{
		Name:         params.Name,
		Merchant:     common.HexToAddress(params.Merchant),
		Amount:       params.Amount,
		Interval:     params.Interval,
		Status:       business.StatusActive,
		Delegation:   grant.Delegation,
		DelegationID: grant.ID,
	}
	id, err := s.store.AddSubscription(record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	s.logger.Info("subscription created",
		zap.String("id", id),
		zap.String("merchant", params.Merchant),
		zap.String("amount", params.Amount),
		zap.String("interval", string(params.Interval)),
	)
	return &record, nil
}

// CancelSubscription revokes the underlying delegation and marks the
// record revoked. The record is preserved for audit history.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, id string) error {
	record, ok := s.store.GetSubscription(id)
	if !ok {
		return business.NewError(business.ErrInvalidConfig, "unknown subscription "+id)
	}
	if record.Status.Terminal() {
		return nil
	}

	if _, err := s.backend.Revoke(ctx, record.DelegationID); err != nil {
		return err
	}

	err := s.store.UpdateSubscription(id, func(r *business.Subscription) {
		r.Status = business.StatusRevoked
	})
	if err != nil {
		return err
	}

	s.logger.Info("subscription cancelled", zap.String("id", id))
	return nil
}

// ListSubscriptions returns every subscription record
func (s *SubscriptionService) ListSubscriptions() []business.Subscription {
	return s.store.ListSubscriptions()
}

// RecordUsage notes a successful merchant charge against the subscription
func (s *SubscriptionService) RecordUsage(id string) error {
	return s.store.UpdateSubscription(id, func(r *business.Subscription) {
		now := time.Now()
		r.UsageCount++
		r.LastUsedAt = &now
		if r.Status == business.StatusActive || r.Status == business.StatusCreated {
			r.Status = business.StatusPartiallyUsed
		}
	})
}
