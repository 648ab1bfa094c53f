package script

import (
	"math/rand"
	"strings"
)

// fillers occasionally prepended to make replies sound like a live agent.
var fillers = []string{
	"আচ্ছা স্যার,",
	"জি স্যার,",
	"ঠিক আছে স্যার,",
	"হুম স্যার,",
}

// fillerSkipPrefixes suppress a filler when the reply already opens in
// the same register.
var fillerSkipPrefixes = []string{"স্যার", "আচ্ছা", "জি", "ঠিক আছে"}

var emotionalReplacements = []struct{ from, to string }{
	{"ঠিক আছে", "ঠিক আছে স্যার"},
	{"বুঝেছি", "জি স্যার, বুঝেছি"},
	{"ধন্যবাদ", "অনেক ধন্যবাদ স্যার"},
}

// Humanizer applies the call-center tone transforms to model replies.
// Randomness is injected so tests are deterministic.
type Humanizer struct {
	randFloat func() float64
	randIntn  func(n int) int
}

// NewHumanizer returns a Humanizer seeded from the default source.
func NewHumanizer() *Humanizer {
	return &Humanizer{randFloat: rand.Float64, randIntn: rand.Intn}
}

// Polish combines the emotional-tone substitutions with light
// humanization. Safe on empty input.
func (h *Humanizer) Polish(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	text = emotionalTouch(text)
	return h.humanize(text)
}

// humanize may prepend a filler and smooths abrupt sentence breaks.
func (h *Humanizer) humanize(text string) string {
	stripped := strings.TrimSpace(text)

	if h.randFloat() < 0.3 && !hasAnyPrefix(stripped, fillerSkipPrefixes) {
		text = fillers[h.randIntn(len(fillers))] + " " + stripped
	} else {
		text = stripped
	}

	text = strings.ReplaceAll(text, "।  ", "। ")
	text = strings.ReplaceAll(text, "। তারপর", "... তারপর")
	text = strings.ReplaceAll(text, "। কিন্তু", "... কিন্তু")
	return text
}

func emotionalTouch(text string) string {
	for _, r := range emotionalReplacements {
		text = strings.ReplaceAll(text, r.from, r.to)
	}
	return text
}

func hasAnyPrefix(text string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
