// Package phone normalizes Bangladeshi mobile numbers into E.164 form.
package phone

import "strings"

// Normalize converts a raw Bangladeshi mobile number into a dialable
// E.164 string. Accepted spellings:
//
//	"01712-345678"   -> "+8801712345678"
//	"+8801712345678" -> "+8801712345678"
//	"8801712345678"  -> "+8801712345678"
//	"1712345678"     -> "+8801712345678"
//
// Returns ok=false for anything else; ambiguous inputs are rejected,
// never guessed.
func Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	digits := digitsOnly(trimmed)

	switch {
	case strings.HasPrefix(digits, "880") && len(digits) == 13:
		return "+" + digits, true
	case strings.HasPrefix(digits, "0") && len(digits) == 11:
		return "+88" + digits, true
	case strings.HasPrefix(digits, "1") && len(digits) == 10:
		return "+880" + digits, true
	case strings.HasPrefix(trimmed, "+") && len(digits) >= 11:
		return "+" + digits, true
	}
	return "", false
}

// digitsOnly strips everything but decimal digits, folding Bangla
// numerals (০-৯) to ASCII so numbers typed in Bangla script normalize too.
func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '০' && r <= '৯':
			b.WriteRune('0' + (r - '০'))
		}
	}
	return b.String()
}
