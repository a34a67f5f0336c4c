package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/interpreter"
	"github.com/semihdurgun/monadagent/internal/services"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

func newAgent(t *testing.T, b *stubBackend) *services.AgentService {
	t.Helper()
	s := openStore(t)
	return services.NewAgentService(
		services.NewSubscriptionService(b, s),
		services.NewPaymentService(b, s),
		services.NewVirtualCardService(s),
		services.NewWillService(nil, s),
		services.NewSchedulerService(b, s),
		services.NewPotService(s),
		services.NewMerchantService(nil),
		nil,
	)
}

func TestHandleMessageHelp(t *testing.T) {
	agent := newAgent(t, &stubBackend{})

	reply, err := agent.HandleMessage(context.Background(), "help")
	require.NoError(t, err)
	assert.Equal(t, interpreter.IntentHelp, reply.Intent)
	assert.Contains(t, reply.Text, "subscription")
}

func TestHandleMessageGeneralWithoutAssistant(t *testing.T) {
	agent := newAgent(t, &stubBackend{})

	reply, err := agent.HandleMessage(context.Background(), "what's the weather like today")
	require.NoError(t, err)
	assert.Equal(t, interpreter.IntentGeneral, reply.Intent)
	assert.Equal(t, "I didn't recognize a payment command. Say \"help\" to see what I can do.", reply.Text)
}

func TestHandleMessageCreatesSubscription(t *testing.T) {
	b := &stubBackend{}
	agent := newAgent(t, b)

	reply, err := agent.HandleMessage(context.Background(),
		"create a monthly subscription of 15 for "+merchantHex)
	require.NoError(t, err)
	assert.Equal(t, interpreter.IntentSubscription, reply.Intent)
	assert.Equal(t, interpreter.ActionCreate, reply.Action)
	assert.True(t, strings.HasPrefix(reply.RecordID, "subscription_"), "reply carries the new record id: %s", reply.RecordID)
	require.Len(t, b.created, 1)
	assert.Equal(t, business.IntervalMonthly, b.created[0].Interval)
}

func TestHandleMessageUserRejection(t *testing.T) {
	b := &stubBackend{createErr: business.NewError(business.ErrUserRejected, "signature declined")}
	agent := newAgent(t, b)

	reply, err := agent.HandleMessage(context.Background(),
		"create a monthly subscription of 15 for "+merchantHex)
	require.NoError(t, err, "a declined prompt is an outcome, not a fault")
	assert.Equal(t, "Okay, I cancelled that - nothing was created.", reply.Text)
	assert.Empty(t, reply.RecordID)
}

func TestHandleMessageMissingDetails(t *testing.T) {
	agent := newAgent(t, &stubBackend{})

	reply, err := agent.HandleMessage(context.Background(), "create a subscription")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "amount and a merchant address")
}

func TestHandleMessageCancelWithNoRecords(t *testing.T) {
	agent := newAgent(t, &stubBackend{})

	reply, err := agent.HandleMessage(context.Background(), "cancel subscription")
	require.NoError(t, err)
	assert.Equal(t, "there is no such record to act on", reply.Text)
}

func TestHandleMessageCancelSingleRecord(t *testing.T) {
	b := &stubBackend{}
	agent := newAgent(t, b)
	ctx := context.Background()

	created, err := agent.HandleMessage(ctx,
		"create a monthly subscription of 15 for "+merchantHex)
	require.NoError(t, err)
	require.NotEmpty(t, created.RecordID)

	// With exactly one subscription, "cancel subscription" needs no id
	reply, err := agent.HandleMessage(ctx, "cancel my subscription")
	require.NoError(t, err)
	assert.Equal(t, created.RecordID, reply.RecordID)
	assert.Equal(t, []string{"grant_1"}, b.revoked)
}

func TestHandleMessageListSubscriptions(t *testing.T) {
	agent := newAgent(t, &stubBackend{})
	ctx := context.Background()

	reply, err := agent.HandleMessage(ctx, "list subscriptions")
	require.NoError(t, err)
	assert.Equal(t, "You have no subscriptions.", reply.Text)

	_, err = agent.HandleMessage(ctx, "create a monthly subscription of 15 for "+merchantHex)
	require.NoError(t, err)

	reply, err = agent.HandleMessage(ctx, "list subscriptions")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "subscription_")
	assert.Contains(t, reply.Text, "monthly")
}

func TestHandleMessageVirtualCardDefaults(t *testing.T) {
	agent := newAgent(t, &stubBackend{})

	reply, err := agent.HandleMessage(context.Background(), "create a virtual card of 2 for netflix")
	require.NoError(t, err)
	assert.Equal(t, interpreter.IntentVirtualCard, reply.Intent)
	assert.True(t, strings.HasPrefix(reply.RecordID, "virtual-card_"), "got %s", reply.RecordID)
	assert.Contains(t, reply.Text, "24 hours")
}

func TestHandleMessageSharedPotNeedsMembers(t *testing.T) {
	agent := newAgent(t, &stubBackend{})

	reply, err := agent.HandleMessage(context.Background(), "open a shared pot")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "two member addresses")
}
