package business

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RecordKind namespaces the lifecycle store's record table
type RecordKind string

const (
	KindSubscription     RecordKind = "subscription"
	KindPaymentCard      RecordKind = "payment-card"
	KindSharedPot        RecordKind = "shared-pot"
	KindWill             RecordKind = "will"
	KindScheduledPayment RecordKind = "scheduled-payment"
	KindVirtualCard      RecordKind = "virtual-card"
)

// RecordStatus is the lifecycle state of a tracked delegation record.
// Transitions are monotonic: once terminal, a record never returns to active.
type RecordStatus string

const (
	StatusCreated       RecordStatus = "created"
	StatusActive        RecordStatus = "active"
	StatusPartiallyUsed RecordStatus = "partially-used"
	StatusExhausted     RecordStatus = "exhausted"
	StatusExpired       RecordStatus = "expired"
	StatusRevoked       RecordStatus = "revoked"
)

// Terminal reports whether the status permits no further transitions
func (s RecordStatus) Terminal() bool {
	switch s {
	case StatusExhausted, StatusExpired, StatusRevoked:
		return true
	}
	return false
}

// Interval is a recurring payment cadence
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Seconds converts the interval to a period length. Monthly and yearly use
// 30-day and 365-day approximations, which drifts against the calendar over
// many cycles; displayed schedules rely on the same approximation.
func (i Interval) Seconds() int64 {
	switch i {
	case IntervalDaily:
		return 86400
	case IntervalWeekly:
		return 604800
	case IntervalMonthly:
		return 2592000
	case IntervalYearly:
		return 31536000
	}
	return 0
}

// Valid reports whether the interval is one of the known cadences
func (i Interval) Valid() bool {
	return i.Seconds() > 0
}

// Subscription is a recurring grant to a merchant
type Subscription struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Merchant     common.Address `json:"merchant"`
	Amount       string         `json:"amount"`
	Interval     Interval       `json:"interval"`
	Status       RecordStatus   `json:"status"`
	UsageCount   int            `json:"usage_count"`
	CreatedAt    time.Time      `json:"created_at"`
	LastUsedAt   *time.Time     `json:"last_used_at,omitempty"`
	Delegation   *Delegation    `json:"delegation,omitempty"`
	DelegationID string         `json:"delegation_id,omitempty"`
}

// PaymentCard is a short-lived single-use grant
type PaymentCard struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Merchant        common.Address `json:"merchant"`
	Amount          string         `json:"amount"`
	ValidForMinutes int            `json:"valid_for_minutes"`
	Status          RecordStatus   `json:"status"`
	IsUsed          bool           `json:"is_used"`
	ExpiresAt       time.Time      `json:"expires_at"`
	CreatedAt       time.Time      `json:"created_at"`
	Delegation      *Delegation    `json:"delegation,omitempty"`
	DelegationID    string         `json:"delegation_id,omitempty"`
}

// SharedPot is a multi-member pot that releases funds above a member
// approval threshold
type SharedPot struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Members      []common.Address `json:"members"`
	Threshold    int              `json:"threshold"`
	SmartAccount common.Address   `json:"smart_account"`
	Balance      string           `json:"balance"`
	Status       RecordStatus     `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
}

// WillBeneficiary is one inheritor and their share of the estate
type WillBeneficiary struct {
	Address    common.Address `json:"address"`
	Percentage int            `json:"percentage"`
}

// DigitalWill releases funds to beneficiaries after a period of owner
// inactivity, triggered by one of the named executors
type DigitalWill struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Beneficiaries    []WillBeneficiary `json:"beneficiaries"`
	InactivityPeriod int64             `json:"inactivity_period_seconds"`
	Executors        []common.Address  `json:"executors"`
	Status           RecordStatus      `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	LastActivity     time.Time         `json:"last_activity"`
	Delegations      []*Delegation     `json:"delegations,omitempty"`
}

// PaymentSchedule describes when a scheduled payment fires
type PaymentSchedule struct {
	Type       Interval `json:"type"`
	DayOfMonth int      `json:"day_of_month,omitempty"`
	DayOfWeek  int      `json:"day_of_week,omitempty"`
}

// ScheduledPayment is a standing order executed by an automation service
type ScheduledPayment struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Recipient       common.Address `json:"recipient"`
	Amount          string         `json:"amount"`
	Schedule        PaymentSchedule `json:"schedule"`
	NextExecution   time.Time       `json:"next_execution"`
	ExecutionsCount int             `json:"executions_count"`
	Status          RecordStatus    `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	Delegation      *Delegation     `json:"delegation,omitempty"`
	DelegationID    string          `json:"delegation_id,omitempty"`
}

// VirtualCard is a bounded spending grant for a named merchant, tracked
// with a locally simulated remaining balance
type VirtualCard struct {
	ID              string         `json:"id"`
	Merchant        string         `json:"merchant"`
	MerchantAddress common.Address `json:"merchant_address"`
	Amount          string         `json:"amount"`
	RemainingAmount string         `json:"remaining_amount"`
	DurationHours   int            `json:"duration_hours"`
	MaxUses         int            `json:"max_uses"`
	UsedCount       int            `json:"used_count"`
	Status          RecordStatus   `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	ExpiresAt       time.Time      `json:"expires_at"`
	DelegationHash  string         `json:"delegation_hash,omitempty"`
}
