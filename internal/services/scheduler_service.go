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

// SchedulerService manages standing orders: recurring delegations an
// automation service redeems on schedule. The service computes execution
// times; the delegation's caveats bound what each execution may spend.
type SchedulerService struct {
	backend backend.DelegationBackend
	store   *store.Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewSchedulerService creates a new scheduled payment service
func NewSchedulerService(b backend.DelegationBackend, s *store.Store) *SchedulerService {
	return &SchedulerService{
		backend: b,
		store:   s,
		logger:  logger.Log,
		now:     time.Now,
	}
}

// CreateScheduledPaymentParams are the inputs for a standing order
type CreateScheduledPaymentParams struct {
	Name      string
	Recipient string
	Amount    string
	Schedule  business.PaymentSchedule
}

// CreateScheduledPayment grants the automation service a recurring
// delegation and records the standing order with its first execution time.
func (s *SchedulerService) CreateScheduledPayment(ctx context.Context, params CreateScheduledPaymentParams) (*business.ScheduledPayment, error) {
	if !helpers.IsAddressValid(params.Recipient) {
		return nil, business.NewError(business.ErrInvalidAddress, "invalid recipient address "+params.Recipient)
	}
	if !params.Schedule.Type.Valid() {
		return nil, business.NewError(business.ErrInvalidConfig, "schedule requires a daily, weekly, monthly or yearly cadence")
	}
	amount, err := helpers.ParseUnits(params.Amount, helpers.NativeDecimals)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, business.NewError(business.ErrInvalidAmount, "payment amount must be positive")
	}

	recipient := common.HexToAddress(params.Recipient)
	grant, err := s.backend.Create(ctx, backend.CreateRequest{
		To:                recipient,
		Amount:            amount,
		Recurring:         true,
		Interval:          params.Schedule.Type,
		AllowedRecipients: []common.Address{recipient},
	})
	if err != nil {
		return nil, err
	}

	record := business.ScheduledPayment{
		Name:          params.Name,
		Recipient:     recipient,
		Amount:        params.Amount,
		Schedule:      params.Schedule,
		NextExecution: NextExecution(params.Schedule, s.now()),
		Status:        business.StatusActive,
		Delegation:    grant.Delegation,
		DelegationID:  grant.ID,
	}
	id, err := s.store.AddScheduledPayment(record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	s.logger.Info("scheduled payment created",
		zap.String("id", id),
		zap.String("recipient", params.Recipient),
		zap.String("amount", params.Amount),
		zap.String("cadence", string(params.Schedule.Type)),
		zap.Time("next_execution", record.NextExecution),
	)
	return &record, nil
}

// MarkExecuted advances the standing order after one successful execution
func (s *SchedulerService) MarkExecuted(id string) error {
	return s.store.UpdateScheduledPayment(id, func(r *business.ScheduledPayment) {
		r.ExecutionsCount++
		r.NextExecution = NextExecution(r.Schedule, s.now())
		if r.Status == business.StatusActive || r.Status == business.StatusCreated {
			r.Status = business.StatusPartiallyUsed
		}
	})
}

// DuePayments lists active standing orders whose next execution has passed
func (s *SchedulerService) DuePayments(now time.Time) []business.ScheduledPayment {
	var due []business.ScheduledPayment
	for _, payment := range s.store.ListScheduledPayments() {
		if payment.Status.Terminal() {
			continue
		}
		if !payment.NextExecution.After(now) {
			due = append(due, payment)
		}
	}
	return due
}

// CancelScheduledPayment revokes the delegation and closes the order
func (s *SchedulerService) CancelScheduledPayment(ctx context.Context, id string) error {
	record, ok := s.store.GetScheduledPayment(id)
	if !ok {
		return business.NewError(business.ErrInvalidConfig, "unknown scheduled payment "+id)
	}
	if record.Status.Terminal() {
		return nil
	}

	if _, err := s.backend.Revoke(ctx, record.DelegationID); err != nil {
		return err
	}
	return s.store.UpdateScheduledPayment(id, func(r *business.ScheduledPayment) {
		r.Status = business.StatusRevoked
	})
}

// ListScheduledPayments returns every standing order record
func (s *SchedulerService) ListScheduledPayments() []business.ScheduledPayment {
	return s.store.ListScheduledPayments()
}
