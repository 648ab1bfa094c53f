// Package script renders spoken Bangla text for confirmation calls.
package script

import (
	"fmt"
	"strings"

	"bot-call/internal/orders"
)

// Phrases the customer is asked to repeat verbatim. The reply
// classifier must recognize both.
const (
	ConfirmPhrase = "হ্যাঁ, অর্ডার কনফার্ম"
	CancelPhrase  = "না, অর্ডার ক্যান্সেল"
)

const intro = "আসসালামু আলাইকুম। আমি একজন অটোমেশন বট কথা বলছি। " +
	"আপনি একটি শার্ট অর্ডার করেছেন। " +
	"আমি এখন আপনার অর্ডারটির কনফার্মেশন নেব। "

const askDetails = "এখন দয়া করে পরিষ্কার করে বলবেন – " +
	"শার্টের মডেল, রঙ এবং সাইজ ঠিক আছে কিনা, " +
	"আর অর্ডারটি কনফার্ম করতে চান নাকি ক্যান্সেল করতে চান। " +
	"যদি অর্ডারটি ঠিক থাকে, বলবেন – ‘" + ConfirmPhrase + "’। " +
	"যদি বাতিল করতে চান, বলবেন – ‘" + CancelPhrase + "’। " +
	"এখন আপনার সিদ্ধান্ত বলুন।"

// Build renders the confirmation script: bot introduction, order recap
// with graceful defaults for every missing field, and the fixed
// confirm/cancel instruction block. Never returns an empty string.
func Build(parsed orders.Parsed) string {
	name := parsed.CustomerName
	if name == "" {
		name = "স্যার"
	}
	color := parsed.Color
	if color == "" {
		color = "শার্ট"
	}
	addr := parsed.Address
	if addr == "" {
		addr = "আপনার দেওয়া ঠিকানায়"
	}

	qtyText := "একটি"
	if !parsed.Quantity.IsZero() {
		if parsed.Quantity.Numeric {
			qtyText = fmt.Sprintf("%d টি", int64(parsed.Quantity.Number))
		} else {
			qtyText = parsed.Quantity.Text
		}
	}

	var sizePart string
	if parsed.Size != "" {
		sizePart = ", সাইজ " + parsed.Size
	}

	var pricePart string
	if !parsed.PriceTotal.IsZero() {
		pricePart = ", মোট মূল্য " + parsed.PriceTotal.String() + " টাকা"
	}

	var b strings.Builder
	b.WriteString(intro)
	fmt.Fprintf(&b, "%s, আপনি %s %s%s অর্ডার করেছেন%s. ", name, qtyText, color, sizePart, pricePart)
	fmt.Fprintf(&b, "ডেলিভারি হবে %s. ", addr)
	b.WriteString(askDetails)
	return b.String()
}
