// Package interpreter classifies free-text chat commands into delegation
// intents and extracts the parameters the downstream builders need. It is a
// thin keyword classifier: ambiguous input degrades to a general intent the
// assistant answers conversationally instead of acting on.
package interpreter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// Intent is the record kind (or meta action) a command maps to
type Intent string

const (
	IntentSubscription     Intent = "subscription"
	IntentPaymentCard      Intent = "payment_card"
	IntentSharedPot        Intent = "shared_pot"
	IntentWill             Intent = "digital_will"
	IntentScheduledPayment Intent = "scheduled_payment"
	IntentVirtualCard      Intent = "virtual_card"
	IntentHelp             Intent = "help"
	IntentGeneral          Intent = "general"
)

// Action is what the command wants done with the intent's record kind
type Action string

const (
	ActionCreate   Action = "create"
	ActionCancel   Action = "cancel"
	ActionList     Action = "list"
	ActionAddFunds Action = "add_funds"
	ActionNone     Action = ""
)

// Command is the structured result of interpreting one message. Extracted
// fields are best-effort; the core re-validates addresses and amounts
// before acting on them.
type Command struct {
	Intent Intent
	Action Action

	Amount    string // decimal string exactly as written, e.g. "1.5"
	Address   string // first 0x address in the message, if any
	Addresses []string
	Name      string
	Interval  business.Interval

	DurationMinutes int
	DurationDays    int
	Threshold       int
	DayOfMonth      int
}

var (
	amountPattern    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:mon|eth|tokens?|coins?)?\b`)
	addressPattern   = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)
	quotedPattern    = regexp.MustCompile(`"([^"]+)"`)
	namedPattern     = regexp.MustCompile(`(?i)(?:for|named|called)\s+([a-zA-Z][a-zA-Z0-9 ]*)`)
	minutesPattern   = regexp.MustCompile(`(?i)(\d+)\s*min(?:ute)?s?`)
	hoursPattern     = regexp.MustCompile(`(?i)(\d+)\s*hours?`)
	daysPattern      = regexp.MustCompile(`(?i)(\d+)\s*days?`)
	thresholdPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:of\s*\d+\s*)?approvals?`)
	dayOfMonthPattern = regexp.MustCompile(`(?i)(?:on (?:the )?)(\d{1,2})(?:st|nd|rd|th)?(?: of (?:the|each|every) month| day)`)
)

// intentKeywords maps trigger phrases to intents; first hit wins so the
// more specific phrases come first.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentPaymentCard, []string{"payment card", "one-time card", "single-use card"}},
	{IntentVirtualCard, []string{"virtual card", "spending allowance", "shopping card"}},
	{IntentSharedPot, []string{"shared pot", "group pot", "shared fund", "roommate"}},
	{IntentWill, []string{"will", "inheritance", "testament", "bequeath"}},
	{IntentScheduledPayment, []string{"scheduled payment", "recurring transfer", "standing order", "automatic payment"}},
	{IntentSubscription, []string{"subscription", "subscribe"}},
	{IntentHelp, []string{"help", "commands", "what can you do"}},
}

var actionKeywords = []struct {
	action   Action
	keywords []string
}{
	{ActionCancel, []string{"cancel", "stop", "revoke", "terminate"}},
	{ActionList, []string{"list", "show", "display", "my "}},
	{ActionAddFunds, []string{"add funds", "deposit", "top up"}},
	{ActionCreate, []string{"create", "start", "set up", "new", "make", "open"}},
}

// Interpret classifies one chat message. It never fails: unrecognized
// input yields IntentGeneral with no action.
func Interpret(message string) Command {
	normalized := strings.ToLower(strings.TrimSpace(message))
	cmd := Command{Intent: IntentGeneral, Action: ActionNone}

	for _, entry := range intentKeywords {
		if containsAny(normalized, entry.keywords) {
			cmd.Intent = entry.intent
			break
		}
	}
	if cmd.Intent == IntentGeneral || cmd.Intent == IntentHelp {
		return cmd
	}

	for _, entry := range actionKeywords {
		if containsAny(normalized, entry.keywords) {
			cmd.Action = entry.action
			break
		}
	}
	if cmd.Action == ActionNone {
		// A bare mention of the record kind defaults to creation
		cmd.Action = ActionCreate
	}

	cmd.Amount = extractAmount(normalized)
	cmd.Address, cmd.Addresses = extractAddresses(message)
	cmd.Name = extractName(message)
	cmd.Interval = extractInterval(normalized)
	cmd.DurationMinutes = extractMinutes(normalized)
	cmd.DurationDays = extractDays(normalized)
	cmd.Threshold = extractInt(thresholdPattern, normalized)
	cmd.DayOfMonth = extractInt(dayOfMonthPattern, normalized)

	return cmd
}

func containsAny(message string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(message, k) {
			return true
		}
	}
	return false
}

// extractAmount pulls the first decimal number not consumed by a duration
// or threshold expression.
func extractAmount(message string) string {
	// Strip duration and threshold phrases so their digits are not
	// mistaken for an amount.
	cleaned := minutesPattern.ReplaceAllString(message, "")
	cleaned = hoursPattern.ReplaceAllString(cleaned, "")
	cleaned = daysPattern.ReplaceAllString(cleaned, "")
	cleaned = thresholdPattern.ReplaceAllString(cleaned, "")
	cleaned = addressPattern.ReplaceAllString(cleaned, "")

	match := amountPattern.FindStringSubmatch(cleaned)
	if match == nil {
		return ""
	}
	return match[1]
}

func extractAddresses(message string) (string, []string) {
	matches := addressPattern.FindAllString(message, -1)
	valid := matches[:0]
	for _, m := range matches {
		if common.IsHexAddress(m) {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		return "", nil
	}
	return valid[0], valid
}

// extractName prefers a quoted name, then a "for/named/called X" phrase
func extractName(message string) string {
	if match := quotedPattern.FindStringSubmatch(message); match != nil {
		return strings.TrimSpace(match[1])
	}
	if match := namedPattern.FindStringSubmatch(message); match != nil {
		name := strings.TrimSpace(match[1])
		// Keep at most three words; the tail is usually the rest of
		// the sentence, not the name.
		words := strings.Fields(name)
		if len(words) > 3 {
			words = words[:3]
		}
		return strings.Join(words, " ")
	}
	return ""
}

func extractInterval(message string) business.Interval {
	switch {
	case strings.Contains(message, "daily") || strings.Contains(message, "every day"):
		return business.IntervalDaily
	case strings.Contains(message, "weekly") || strings.Contains(message, "every week"):
		return business.IntervalWeekly
	case strings.Contains(message, "monthly") || strings.Contains(message, "every month"):
		return business.IntervalMonthly
	case strings.Contains(message, "yearly") || strings.Contains(message, "annual"):
		return business.IntervalYearly
	}
	return ""
}

func extractMinutes(message string) int {
	if minutes := extractInt(minutesPattern, message); minutes > 0 {
		return minutes
	}
	if hours := extractInt(hoursPattern, message); hours > 0 {
		return hours * 60
	}
	return 0
}

func extractDays(message string) int {
	return extractInt(daysPattern, message)
}

func extractInt(pattern *regexp.Regexp, message string) int {
	match := pattern.FindStringSubmatch(message)
	if match == nil {
		return 0
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return value
}
