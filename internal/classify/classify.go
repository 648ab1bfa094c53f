// Package classify maps a customer's spoken reply to an order decision.
package classify

import "strings"

// Decision is the outcome of interpreting a confirmation-call reply.
type Decision string

const (
	Confirmed Decision = "confirmed"
	Cancelled Decision = "cancelled"
	Unclear   Decision = "unclear"
)

// RuleSet holds the phrase lists the classifier matches against. Keeping
// them in a struct lets tests and future locales swap the vocabulary
// without touching the matching logic.
type RuleSet struct {
	// Affirmative phrases mark a reply as confirmed.
	Affirmative []string
	// Negative phrases mark a reply as cancelled.
	Negative []string
	// NegationMarker together with ConfirmWord flips an otherwise
	// affirmative reply to cancelled ("না, কনফার্ম না").
	NegationMarker string
	ConfirmWord    string
}

// DefaultBangla returns the vocabulary used for Bangla confirmation calls.
// A bare "না" is deliberately not in the negative list: replies like
// "আমি জানি না" must stay unclear rather than cancel the order.
func DefaultBangla() RuleSet {
	return RuleSet{
		Affirmative:    []string{"হ্যাঁ", "ঠিক আছে", "কনফার্ম", "confirm", "হ্যা"},
		Negative:       []string{"ক্যান্সেল", "cancel", "চাই না", "বাতিল"},
		NegationMarker: "না",
		ConfirmWord:    "কনফার্ম",
	}
}

// Classify decides what a reply means. Matching is case-insensitive
// substring search. Rules in order: empty input is unclear; an
// affirmative phrase accompanied by both the negation marker and the
// confirm word is a negated confirmation and cancels; a plain
// affirmative confirms; an explicit negative cancels; anything else is
// unclear and routes to human review.
func Classify(reply string, rules RuleSet) Decision {
	text := strings.ToLower(strings.TrimSpace(reply))
	if text == "" {
		return Unclear
	}

	affirmative := containsAny(text, rules.Affirmative)

	if affirmative &&
		rules.NegationMarker != "" && rules.ConfirmWord != "" &&
		strings.Contains(text, strings.ToLower(rules.NegationMarker)) &&
		strings.Contains(text, strings.ToLower(rules.ConfirmWord)) {
		return Cancelled
	}
	if affirmative {
		return Confirmed
	}
	if containsAny(text, rules.Negative) {
		return Cancelled
	}
	return Unclear
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
