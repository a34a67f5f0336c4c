package interpreter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/semihdurgun/monadagent/internal/interpreter"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

func TestInterpretIntents(t *testing.T) {
	tests := []struct {
		message string
		intent  interpreter.Intent
		action  interpreter.Action
	}{
		{"create a subscription for Netflix 15 MON monthly", interpreter.IntentSubscription, interpreter.ActionCreate},
		{"cancel my netflix subscription", interpreter.IntentSubscription, interpreter.ActionCancel},
		{"show my subscriptions", interpreter.IntentSubscription, interpreter.ActionList},
		{"create a payment card for 50 MON valid 30 minutes", interpreter.IntentPaymentCard, interpreter.ActionCreate},
		{"set up a virtual card for amazon with 100 MON", interpreter.IntentVirtualCard, interpreter.ActionCreate},
		{"open a shared pot with the roommates", interpreter.IntentSharedPot, interpreter.ActionCreate},
		{"add funds to the shared pot", interpreter.IntentSharedPot, interpreter.ActionAddFunds},
		{"create a will leaving everything to 0x1111111111111111111111111111111111111111", interpreter.IntentWill, interpreter.ActionCreate},
		{"set up a standing order of 5 MON weekly", interpreter.IntentScheduledPayment, interpreter.ActionCreate},
		{"help", interpreter.IntentHelp, interpreter.ActionNone},
		{"what is the weather like", interpreter.IntentGeneral, interpreter.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			cmd := interpreter.Interpret(tt.message)
			assert.Equal(t, tt.intent, cmd.Intent)
			assert.Equal(t, tt.action, cmd.Action)
		})
	}
}

func TestPaymentCardBeatsSubscription(t *testing.T) {
	// "payment card" must not be misread as a subscription even though both
	// kinds appear in the same sentence.
	cmd := interpreter.Interpret("make a payment card for my subscription payment of 20 MON")
	assert.Equal(t, interpreter.IntentPaymentCard, cmd.Intent)
}

func TestBareMentionDefaultsToCreate(t *testing.T) {
	cmd := interpreter.Interpret("subscription to Spotify 10 MON monthly")
	assert.Equal(t, interpreter.IntentSubscription, cmd.Intent)
	assert.Equal(t, interpreter.ActionCreate, cmd.Action)
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		message string
		amount  string
	}{
		{"subscribe for 15 MON monthly", "15"},
		{"subscribe for 1.5 eth monthly", "1.5"},
		{"create a payment card for 50 MON valid for 30 minutes", "50"},
		{"new virtual card 100 tokens for 24 hours", "100"},
		{"create a subscription", ""},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			cmd := interpreter.Interpret(tt.message)
			assert.Equal(t, tt.amount, cmd.Amount, "duration digits must not leak into the amount")
		})
	}
}

func TestExtractAddresses(t *testing.T) {
	first := "0x1111111111111111111111111111111111111111"
	second := "0x2222222222222222222222222222222222222222"

	cmd := interpreter.Interpret("create a will for " + first + " with executor " + second)
	assert.Equal(t, first, cmd.Address)
	assert.Equal(t, []string{first, second}, cmd.Addresses)
}

func TestExtractName(t *testing.T) {
	t.Run("quoted wins", func(t *testing.T) {
		cmd := interpreter.Interpret(`create a subscription "Netflix Premium" 20 MON monthly`)
		assert.Equal(t, "Netflix Premium", cmd.Name)
	})

	t.Run("for-phrase capped at three words", func(t *testing.T) {
		cmd := interpreter.Interpret("create a subscription for Netflix Premium Family plan and more words")
		assert.Equal(t, "Netflix Premium Family", cmd.Name)
	})
}

func TestExtractInterval(t *testing.T) {
	tests := []struct {
		message  string
		interval business.Interval
	}{
		{"subscribe 10 MON monthly", business.IntervalMonthly},
		{"pay 5 MON every week", business.IntervalWeekly},
		{"transfer 1 MON daily", business.IntervalDaily},
		{"donate 100 MON annually", business.IntervalYearly},
		{"subscribe 10 MON", business.Interval("")},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			cmd := interpreter.Interpret("subscription " + tt.message)
			assert.Equal(t, tt.interval, cmd.Interval)
		})
	}
}

func TestExtractDurations(t *testing.T) {
	t.Run("minutes", func(t *testing.T) {
		cmd := interpreter.Interpret("payment card 50 MON valid for 45 minutes")
		assert.Equal(t, 45, cmd.DurationMinutes)
	})

	t.Run("hours convert to minutes", func(t *testing.T) {
		cmd := interpreter.Interpret("virtual card 100 MON for 2 hours")
		assert.Equal(t, 120, cmd.DurationMinutes)
	})

	t.Run("days", func(t *testing.T) {
		cmd := interpreter.Interpret("virtual card 100 MON for 7 days")
		assert.Equal(t, 7, cmd.DurationDays)
	})
}

func TestExtractThreshold(t *testing.T) {
	cmd := interpreter.Interpret("create a shared pot requiring 2 of 3 approvals")
	assert.Equal(t, 2, cmd.Threshold)
}
