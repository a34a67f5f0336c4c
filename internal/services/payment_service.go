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

// defaultCardValidity applies when a card request names no validity window
const defaultCardValidity = 60 * time.Minute

// PaymentService handles single-use payment cards: short-lived one-time
// grants a merchant can redeem exactly once.
type PaymentService struct {
	backend backend.DelegationBackend
	store   *store.Store
	logger  *zap.Logger
}

// NewPaymentService creates a new payment card service
func NewPaymentService(b backend.DelegationBackend, s *store.Store) *PaymentService {
	return &PaymentService{
		backend: b,
		store:   s,
		logger:  logger.Log,
	}
}

// CreateCardParams are the inputs for a one-time payment card
type CreateCardParams struct {
	Name            string
	Merchant        string
	Amount          string
	ValidForMinutes int
}

// CreateCard issues a single-use delegation that expires after the
// validity window. The record is stored only after a signed grant exists.
func (p *PaymentService) CreateCard(ctx context.Context, params CreateCardParams) (*business.PaymentCard, error) {
	if !helpers.IsAddressValid(params.Merchant) {
		return nil, business.NewError(business.ErrInvalidAddress, "invalid merchant address "+params.Merchant)
	}
	amount, err := helpers.ParseUnits(params.Amount, helpers.NativeDecimals)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, business.NewError(business.ErrInvalidAmount, "card amount must be positive")
	}

	validity := time.Duration(params.ValidForMinutes) * time.Minute
	if validity <= 0 {
		validity = defaultCardValidity
	}

	grant, err := p.backend.Create(ctx, backend.CreateRequest{
		To:              common.HexToAddress(params.Merchant),
		Amount:          amount,
		Recurring:       false,
		DurationSeconds: int64(validity / time.Second),
	})
	if err != nil {
		return nil, err
	}

	record := business.PaymentCard{
		Name:            params.Name,
		Merchant:        common.HexToAddress(params.Merchant),
		Amount:          params.Amount,
		ValidForMinutes: int(validity / time.Minute),
		Status:          business.StatusActive,
		ExpiresAt:       time.Now().Add(validity),
		Delegation:      grant.Delegation,
		DelegationID:    grant.ID,
	}
	id, err := p.store.AddPaymentCard(record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	p.logger.Info("payment card created",
		zap.String("id", id),
		zap.String("merchant", params.Merchant),
		zap.String("amount", params.Amount),
		zap.Int("valid_for_minutes", record.ValidForMinutes),
	)
	return &record, nil
}

// MarkCardUsed transitions a card to exhausted after its single redemption
// has been observed.
func (p *PaymentService) MarkCardUsed(id string) error {
	return p.store.UpdatePaymentCard(id, func(r *business.PaymentCard) {
		r.IsUsed = true
		r.Status = business.StatusExhausted
	})
}

// ExpireCards sweeps active cards whose validity window has passed
func (p *PaymentService) ExpireCards(now time.Time) int {
	expired := 0
	for _, card := range p.store.ListPaymentCards() {
		if card.Status.Terminal() || now.Before(card.ExpiresAt) {
			continue
		}
		err := p.store.UpdatePaymentCard(card.ID, func(r *business.PaymentCard) {
			r.Status = business.StatusExpired
		})
		if err == nil {
			expired++
		}
	}
	return expired
}

// CancelCard revokes an unused card's delegation
func (p *PaymentService) CancelCard(ctx context.Context, id string) error {
	record, ok := p.store.GetPaymentCard(id)
	if !ok {
		return business.NewError(business.ErrInvalidConfig, "unknown payment card "+id)
	}
	if record.Status.Terminal() {
		return nil
	}

	if _, err := p.backend.Revoke(ctx, record.DelegationID); err != nil {
		return err
	}
	return p.store.UpdatePaymentCard(id, func(r *business.PaymentCard) {
		r.Status = business.StatusRevoked
	})
}

// ListCards returns every payment card record
func (p *PaymentService) ListCards() []business.PaymentCard {
	return p.store.ListPaymentCards()
}
