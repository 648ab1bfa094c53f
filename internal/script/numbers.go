package script

import (
	"regexp"
	"strconv"
	"strings"
)

// banglaUnits covers 0-99; Bangla numbers below one hundred are
// irregular and enumerated rather than composed.
var banglaUnits = [100]string{
	"শূন্য", "এক", "দুই", "তিন", "চার", "পাঁচ", "ছয়", "সাত", "আট", "নয়",
	"দশ", "এগারো", "বারো", "তেরো", "চৌদ্দ", "পনেরো", "ষোল", "সতেরো", "আঠারো", "উনিশ",
	"বিশ", "একুশ", "বাইশ", "তেইশ", "চব্বিশ", "পঁচিশ", "ছাব্বিশ", "সাতাশ", "আটাশ", "ঊনত্রিশ",
	"ত্রিশ", "একত্রিশ", "বত্রিশ", "তেত্রিশ", "চৌত্রিশ", "পঁয়ত্রিশ", "ছত্রিশ", "সাঁইত্রিশ", "আটত্রিশ", "ঊনচল্লিশ",
	"চল্লিশ", "একচল্লিশ", "বিয়াল্লিশ", "তেতাল্লিশ", "চুয়াল্লিশ", "পঁয়তাল্লিশ", "ছেচল্লিশ", "সাতচল্লিশ", "আটচল্লিশ", "ঊনপঞ্চাশ",
	"পঞ্চাশ", "একান্ন", "বাহান্ন", "তিপ্পান্ন", "চুয়ান্ন", "পঞ্চান্ন", "ছাপ্পান্ন", "সাতান্ন", "আটান্ন", "ঊনষাট",
	"ষাট", "একষট্টি", "বাষট্টি", "তেষট্টি", "চৌষট্টি", "পঁয়ষট্টি", "ছেষট্টি", "সাতষট্টি", "আটষট্টি", "ঊনসত্তর",
	"সত্তর", "একাত্তর", "বাহাত্তর", "তিয়াত্তর", "চুয়াত্তর", "পঁচাত্তর", "ছিয়াত্তর", "সাতাত্তর", "আটাত্তর", "ঊনআশি",
	"আশি", "একাশি", "বিরাশি", "তিরাশি", "চুরাশি", "পঁচাশি", "ছিয়াশি", "সাতাশি", "আটাশি", "ঊননব্বই",
	"নব্বই", "একানব্বই", "বিরানব্বই", "তিরানব্বই", "চুরানব্বই", "পঁচানব্বই", "ছিয়ানব্বই", "সাতানব্বই", "আটানব্বই", "নিরানব্বই",
}

// BanglaWords spells out n in Bangla using the South Asian grouping
// (শ, হাজার, লাখ, কোটি).
func BanglaWords(n int64) string {
	if n == 0 {
		return banglaUnits[0]
	}

	var parts []string
	if n < 0 {
		parts = append(parts, "মাইনাস")
		n = -n
	}

	appendScale := func(value int64, unit string) int64 {
		if q := n / value; q > 0 {
			if unit == "কোটি" {
				parts = append(parts, BanglaWords(q), unit)
			} else {
				parts = append(parts, banglaUnits[q], unit)
			}
			n %= value
		}
		return n
	}

	n = appendScale(10_000_000, "কোটি")
	n = appendScale(100_000, "লাখ")
	n = appendScale(1_000, "হাজার")
	n = appendScale(100, "শ")
	if n > 0 {
		parts = append(parts, banglaUnits[n])
	}
	return strings.Join(parts, " ")
}

var digitRun = regexp.MustCompile(`[0-9০-৯]+`)

var banglaDigitFold = strings.NewReplacer(
	"০", "0", "১", "1", "২", "2", "৩", "3", "৪", "4",
	"৫", "5", "৬", "6", "৭", "7", "৮", "8", "৯", "9",
)

// SpellOutDigits replaces every digit run (ASCII or Bangla numerals)
// with Bangla words so the voice says "একশ বিশ" instead of reading
// digits one by one. Runs too long for int64 are left untouched.
func SpellOutDigits(text string) string {
	return digitRun.ReplaceAllStringFunc(text, func(run string) string {
		n, err := strconv.ParseInt(banglaDigitFold.Replace(run), 10, 64)
		if err != nil {
			return run
		}
		return BanglaWords(n)
	})
}
