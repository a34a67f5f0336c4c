package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/client/assistant"
	"github.com/semihdurgun/monadagent/internal/interpreter"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

const helpText = `I can manage delegated payments for you:
- "start a monthly subscription of 1.5 for 0x..." creates a recurring grant
- "create a payment card of 0.5 for 0x... valid 30 minutes" issues a one-time card
- "create a virtual card of 2 for netflix" opens a simulated spending card
- "set up a shared pot with 0x... and 0x... 2 approvals" opens a group fund
- "create a will" starts a digital will
- "schedule a weekly payment of 1 to 0x..." creates a standing order
- "list subscriptions" / "cancel subscription <id>" manage existing records`

// AgentService is the chat entry point: it interprets a message, routes it
// to the owning service, and phrases the outcome. Anything that is not a
// delegation command is forwarded to the assistant API.
type AgentService struct {
	subscriptions *SubscriptionService
	payments      *PaymentService
	virtualCards  *VirtualCardService
	wills         *WillService
	scheduler     *SchedulerService
	pots          *PotService
	merchants     *MerchantService
	assistant     *assistant.Client
	logger        *zap.Logger
}

// NewAgentService wires the agent from its collaborating services.
// assistantClient may be nil; conversational fallback is then disabled.
func NewAgentService(
	subscriptions *SubscriptionService,
	payments *PaymentService,
	virtualCards *VirtualCardService,
	wills *WillService,
	scheduler *SchedulerService,
	pots *PotService,
	merchants *MerchantService,
	assistantClient *assistant.Client,
) *AgentService {
	return &AgentService{
		subscriptions: subscriptions,
		payments:      payments,
		virtualCards:  virtualCards,
		wills:         wills,
		scheduler:     scheduler,
		pots:          pots,
		merchants:     merchants,
		assistant:     assistantClient,
		logger:        logger.Log,
	}
}

// Reply is the agent's answer to one message
type Reply struct {
	Text     string              `json:"text"`
	Intent   interpreter.Intent  `json:"intent"`
	Action   interpreter.Action  `json:"action"`
	RecordID string              `json:"record_id,omitempty"`
}

// HandleMessage interprets and executes one chat message. Domain failures
// are phrased for the user and returned as a normal reply; only transport
// level problems surface as errors.
func (a *AgentService) HandleMessage(ctx context.Context, message string) (*Reply, error) {
	cmd := interpreter.Interpret(message)
	reply := &Reply{Intent: cmd.Intent, Action: cmd.Action}

	var err error
	switch cmd.Intent {
	case interpreter.IntentHelp:
		reply.Text = helpText
		return reply, nil
	case interpreter.IntentGeneral:
		return a.converse(ctx, message, reply)
	case interpreter.IntentSubscription:
		err = a.handleSubscription(ctx, cmd, reply)
	case interpreter.IntentPaymentCard:
		err = a.handlePaymentCard(ctx, cmd, reply)
	case interpreter.IntentVirtualCard:
		err = a.handleVirtualCard(cmd, reply)
	case interpreter.IntentSharedPot:
		err = a.handleSharedPot(cmd, reply)
	case interpreter.IntentWill:
		err = a.handleWill(ctx, cmd, reply)
	case interpreter.IntentScheduledPayment:
		err = a.handleScheduledPayment(ctx, cmd, reply)
	}

	if err != nil {
		if business.IsUserRejected(err) {
			// A declined prompt is an outcome, not a fault
			reply.Text = "Okay, I cancelled that - nothing was created."
			return reply, nil
		}
		a.logger.Warn("command failed",
			zap.String("intent", string(cmd.Intent)),
			zap.String("action", string(cmd.Action)),
			zap.Error(err),
		)
		reply.Text = userFacing(err)
		return reply, nil
	}
	return reply, nil
}

func (a *AgentService) handleSubscription(ctx context.Context, cmd interpreter.Command, reply *Reply) error {
	switch cmd.Action {
	case interpreter.ActionList:
		reply.Text = describeSubscriptions(a.subscriptions.ListSubscriptions())
		return nil
	case interpreter.ActionCancel:
		id, err := a.resolveRecordID(cmd, a.subscriptionIDs())
		if err != nil {
			return err
		}
		if err := a.subscriptions.CancelSubscription(ctx, id); err != nil {
			return err
		}
		reply.RecordID = id
		reply.Text = fmt.Sprintf("Subscription %s cancelled.", id)
		return nil
	default:
		if cmd.Amount == "" || cmd.Address == "" {
			return business.NewError(business.ErrInvalidConfig,
				"I need an amount and a merchant address, e.g. \"monthly subscription of 1.5 for 0x...\"")
		}
		interval := cmd.Interval
		if interval == "" {
			interval = business.IntervalMonthly
		}
		record, err := a.subscriptions.CreateSubscription(ctx, CreateSubscriptionParams{
			Name:     cmd.Name,
			Merchant: cmd.Address,
			Amount:   cmd.Amount,
			Interval: interval,
		})
		if err != nil {
			return err
		}
		reply.RecordID = record.ID
		reply.Text = fmt.Sprintf("Created a %s subscription of %s to %s (id %s).",
			interval, record.Amount, shortAddress(record.Merchant), record.ID)
		return nil
	}
}

func (a *AgentService) handlePaymentCard(ctx context.Context, cmd interpreter.Command, reply *Reply) error {
	switch cmd.Action {
	case interpreter.ActionList:
		cards := a.payments.ListCards()
		if len(cards) == 0 {
			reply.Text = "You have no payment cards."
			return nil
		}
		lines := make([]string, 0, len(cards))
		for _, c := range cards {
			lines = append(lines, fmt.Sprintf("%s: %s to %s (%s)", c.ID, c.Amount, shortAddress(c.Merchant), c.Status))
		}
		reply.Text = "Your payment cards:\n" + strings.Join(lines, "\n")
		return nil
	case interpreter.ActionCancel:
		id, err := a.resolveRecordID(cmd, a.paymentCardIDs())
		if err != nil {
			return err
		}
		if err := a.payments.CancelCard(ctx, id); err != nil {
			return err
		}
		reply.RecordID = id
		reply.Text = fmt.Sprintf("Payment card %s cancelled.", id)
		return nil
	default:
		if cmd.Amount == "" || cmd.Address == "" {
			return business.NewError(business.ErrInvalidConfig,
				"I need an amount and a merchant address, e.g. \"payment card of 0.5 for 0x... valid 30 minutes\"")
		}
		record, err := a.payments.CreateCard(ctx, CreateCardParams{
			Name:            cmd.Name,
			Merchant:        cmd.Address,
			Amount:          cmd.Amount,
			ValidForMinutes: cmd.DurationMinutes,
		})
		if err != nil {
			return err
		}
		reply.RecordID = record.ID
		reply.Text = fmt.Sprintf("Issued a one-time card of %s for %s, valid %d minutes (id %s).",
			record.Amount, shortAddress(record.Merchant), record.ValidForMinutes, record.ID)
		return nil
	}
}

func (a *AgentService) handleVirtualCard(cmd interpreter.Command, reply *Reply) error {
	if cmd.Action == interpreter.ActionList {
		cards := a.virtualCards.ListCards()
		if len(cards) == 0 {
			reply.Text = "You have no virtual cards."
			return nil
		}
		lines := make([]string, 0, len(cards))
		for _, c := range cards {
			lines = append(lines, fmt.Sprintf("%s: %s remaining of %s at %s (%s)",
				c.ID, c.RemainingAmount, c.Amount, c.Merchant, c.Status))
		}
		reply.Text = "Your virtual cards:\n" + strings.Join(lines, "\n")
		return nil
	}
	if cmd.Action == interpreter.ActionCancel {
		id, err := a.resolveRecordID(cmd, a.virtualCardIDs())
		if err != nil {
			return err
		}
		if err := a.virtualCards.RevokeCard(id); err != nil {
			return err
		}
		reply.RecordID = id
		reply.Text = fmt.Sprintf("Virtual card %s revoked.", id)
		return nil
	}

	if cmd.Amount == "" {
		return business.NewError(business.ErrInvalidConfig,
			"I need an amount, e.g. \"virtual card of 2 for netflix\"")
	}
	merchantName := cmd.Name
	merchantAddress := common.Address{}
	if cmd.Address != "" {
		merchantAddress = common.HexToAddress(cmd.Address)
	} else if merchantName != "" {
		if addr, ok := a.merchants.Resolve(merchantName); ok {
			merchantAddress = addr
		}
	}
	if merchantName == "" {
		merchantName = "general"
	}

	record, err := a.virtualCards.CreateCard(CreateVirtualCardParams{
		Merchant:        merchantName,
		MerchantAddress: merchantAddress,
		Amount:          cmd.Amount,
		DurationHours:   cmd.DurationDays * 24,
		MaxUses:         defaultVirtualCardUses,
	})
	if err != nil {
		return err
	}
	reply.RecordID = record.ID
	reply.Text = fmt.Sprintf("Opened a virtual card of %s for %s, valid %d hours (id %s).",
		record.Amount, record.Merchant, record.DurationHours, record.ID)
	return nil
}

func (a *AgentService) handleSharedPot(cmd interpreter.Command, reply *Reply) error {
	switch cmd.Action {
	case interpreter.ActionList:
		pots := a.pots.ListPots()
		if len(pots) == 0 {
			reply.Text = "You have no shared pots."
			return nil
		}
		lines := make([]string, 0, len(pots))
		for _, p := range pots {
			lines = append(lines, fmt.Sprintf("%s: %q balance %s, %d members, threshold %d (%s)",
				p.ID, p.Name, p.Balance, len(p.Members), p.Threshold, p.Status))
		}
		reply.Text = "Your shared pots:\n" + strings.Join(lines, "\n")
		return nil
	case interpreter.ActionAddFunds:
		id, err := a.resolveRecordID(cmd, a.potIDs())
		if err != nil {
			return err
		}
		if cmd.Amount == "" {
			return business.NewError(business.ErrInvalidConfig, "I need an amount to deposit")
		}
		if err := a.pots.AddFunds(id, cmd.Amount); err != nil {
			return err
		}
		reply.RecordID = id
		reply.Text = fmt.Sprintf("Added %s to pot %s.", cmd.Amount, id)
		return nil
	default:
		if len(cmd.Addresses) < 2 {
			return business.NewError(business.ErrInvalidConfig,
				"I need at least two member addresses to open a shared pot")
		}
		members := make([]common.Address, len(cmd.Addresses))
		for i, addr := range cmd.Addresses {
			members[i] = common.HexToAddress(addr)
		}
		threshold := cmd.Threshold
		if threshold == 0 {
			threshold = len(members)
		}
		record, err := a.pots.CreatePot(CreatePotParams{
			Name:      cmd.Name,
			Members:   members,
			Threshold: threshold,
		})
		if err != nil {
			return err
		}
		reply.RecordID = record.ID
		reply.Text = fmt.Sprintf("Opened shared pot %s with %d members, threshold %d.",
			record.ID, len(members), threshold)
		return nil
	}
}

func (a *AgentService) handleWill(ctx context.Context, cmd interpreter.Command, reply *Reply) error {
	switch cmd.Action {
	case interpreter.ActionList:
		wills := a.wills.ListWills()
		if len(wills) == 0 {
			reply.Text = "You have no digital wills."
			return nil
		}
		lines := make([]string, 0, len(wills))
		for _, w := range wills {
			lines = append(lines, fmt.Sprintf("%s: %q, %d beneficiaries (%s)",
				w.ID, w.Name, len(w.Beneficiaries), w.Status))
		}
		reply.Text = "Your digital wills:\n" + strings.Join(lines, "\n")
		return nil
	case interpreter.ActionCancel:
		id, err := a.resolveRecordID(cmd, a.willIDs())
		if err != nil {
			return err
		}
		if err := a.wills.RevokeWill(id); err != nil {
			return err
		}
		reply.RecordID = id
		reply.Text = fmt.Sprintf("Will %s revoked.", id)
		return nil
	default:
		if cmd.Amount == "" || len(cmd.Addresses) < 2 {
			return business.NewError(business.ErrInvalidConfig,
				"I need the estate amount, a beneficiary address and an executor address, "+
					"e.g. \"create a will of 10 for 0x<beneficiary> executor 0x<executor>\"")
		}
		// Single-beneficiary shorthand: first address inherits everything,
		// the last one is the executor.
		beneficiary := common.HexToAddress(cmd.Addresses[0])
		executor := common.HexToAddress(cmd.Addresses[len(cmd.Addresses)-1])
		inactivity := int64(cmd.DurationDays) * 86400
		if inactivity <= 0 {
			inactivity = defaultWillInactivitySeconds
		}
		record, err := a.wills.CreateWill(ctx, CreateWillParams{
			Name:         cmd.Name,
			EstateAmount: cmd.Amount,
			Beneficiaries: []business.WillBeneficiary{
				{Address: beneficiary, Percentage: 100},
			},
			InactivityPeriodSeconds: inactivity,
			Executors:               []common.Address{executor},
		})
		if err != nil {
			return err
		}
		reply.RecordID = record.ID
		reply.Text = fmt.Sprintf("Created will %s: %s to %s after %d days of inactivity.",
			record.ID, cmd.Amount, shortAddress(beneficiary), inactivity/86400)
		return nil
	}
}

func (a *AgentService) handleScheduledPayment(ctx context.Context, cmd interpreter.Command, reply *Reply) error {
	switch cmd.Action {
	case interpreter.ActionList:
		reply.Text = describeScheduledPayments(a.scheduler.ListScheduledPayments())
		return nil
	case interpreter.ActionCancel:
		id, err := a.resolveRecordID(cmd, a.scheduledPaymentIDs())
		if err != nil {
			return err
		}
		if err := a.scheduler.CancelScheduledPayment(ctx, id); err != nil {
			return err
		}
		reply.RecordID = id
		reply.Text = fmt.Sprintf("Scheduled payment %s cancelled.", id)
		return nil
	default:
		if cmd.Amount == "" || cmd.Address == "" {
			return business.NewError(business.ErrInvalidConfig,
				"I need an amount and a recipient, e.g. \"schedule a weekly payment of 1 to 0x...\"")
		}
		cadence := cmd.Interval
		if cadence == "" {
			cadence = business.IntervalMonthly
		}
		record, err := a.scheduler.CreateScheduledPayment(ctx, CreateScheduledPaymentParams{
			Name:      cmd.Name,
			Recipient: cmd.Address,
			Amount:    cmd.Amount,
			Schedule: business.PaymentSchedule{
				Type:       cadence,
				DayOfMonth: cmd.DayOfMonth,
			},
		})
		if err != nil {
			return err
		}
		reply.RecordID = record.ID
		reply.Text = fmt.Sprintf("Scheduled a %s payment of %s to %s, first run %s (id %s).",
			cadence, record.Amount, shortAddress(record.Recipient),
			record.NextExecution.Format("2006-01-02"), record.ID)
		return nil
	}
}

// converse forwards non-command messages to the assistant API
func (a *AgentService) converse(ctx context.Context, message string, reply *Reply) (*Reply, error) {
	if a.assistant == nil {
		reply.Text = "I didn't recognize a payment command. Say \"help\" to see what I can do."
		return reply, nil
	}
	answer, err := a.assistant.Chat(ctx, []assistant.Message{
		{Role: "user", Content: message},
	})
	if err != nil {
		a.logger.Warn("assistant fallback failed", zap.Error(err))
		reply.Text = "I didn't recognize a payment command, and the assistant is unreachable right now."
		return reply, nil
	}
	reply.Text = answer
	return reply, nil
}

// resolveRecordID picks the record a cancel/deposit command refers to: an
// explicit id in the message, or the single existing record of that kind.
func (a *AgentService) resolveRecordID(cmd interpreter.Command, ids []string) (string, error) {
	for _, id := range ids {
		if strings.Contains(cmd.Name, id) {
			return id, nil
		}
	}
	if len(ids) == 1 {
		return ids[0], nil
	}
	if len(ids) == 0 {
		return "", business.NewError(business.ErrInvalidConfig, "there is no such record to act on")
	}
	return "", business.NewError(business.ErrInvalidConfig,
		"several records match - please include the record id")
}

func (a *AgentService) subscriptionIDs() []string {
	records := a.subscriptions.ListSubscriptions()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func (a *AgentService) paymentCardIDs() []string {
	records := a.payments.ListCards()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func (a *AgentService) virtualCardIDs() []string {
	records := a.virtualCards.ListCards()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func (a *AgentService) potIDs() []string {
	records := a.pots.ListPots()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func (a *AgentService) willIDs() []string {
	records := a.wills.ListWills()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func (a *AgentService) scheduledPaymentIDs() []string {
	records := a.scheduler.ListScheduledPayments()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

const (
	defaultVirtualCardUses       = 10
	defaultWillInactivitySeconds = int64(180 * 86400)
)

func describeSubscriptions(records []business.Subscription) string {
	if len(records) == 0 {
		return "You have no subscriptions."
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%s: %s %s to %s (%s)",
			r.ID, r.Amount, r.Interval, shortAddress(r.Merchant), r.Status))
	}
	return "Your subscriptions:\n" + strings.Join(lines, "\n")
}

func describeScheduledPayments(records []business.ScheduledPayment) string {
	if len(records) == 0 {
		return "You have no scheduled payments."
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%s: %s %s to %s, next %s (%s)",
			r.ID, r.Amount, r.Schedule.Type, shortAddress(r.Recipient),
			r.NextExecution.Format("2006-01-02"), r.Status))
	}
	return "Your scheduled payments:\n" + strings.Join(lines, "\n")
}

// userFacing phrases a domain error for the chat surface
func userFacing(err error) string {
	switch business.KindOf(err) {
	case business.ErrInvalidAddress:
		return "That address doesn't look right - it should be 0x followed by 40 hex characters."
	case business.ErrInvalidAmount:
		return "That amount doesn't look right - use a positive decimal like 1.5."
	case business.ErrInvalidConfig:
		var domainErr *business.DomainError
		if errors.As(err, &domainErr) {
			return domainErr.Message
		}
		return "That request is missing something - say \"help\" for examples."
	case business.ErrTransactionTimeout:
		return "The transaction was submitted but didn't confirm in time. Check your wallet before retrying."
	case business.ErrEventNotFound:
		return "The transaction confirmed but I couldn't verify the delegation was registered."
	default:
		return "Something went wrong on my side - nothing was changed."
	}
}

// shortAddress renders 0x1234...abcd for chat output
func shortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}
