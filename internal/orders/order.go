// Package orders defines the order entity and its in-memory registry.
package orders

import "time"

// Status is the confirmation lifecycle state of an order.
type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
	StatusNeedsReview Status = "needs_review"
)

// Terminal reports whether the status can no longer change through the
// reply-handling path. needs_review is terminal for now; follow-up is a
// human workflow outside this process.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusNeedsReview
}

// Result captures what the customer said on the last call and how it
// was classified.
type Result struct {
	Speech   string    `json:"speech_text"`
	Digits   string    `json:"digits,omitempty"`
	Decision string    `json:"decision"`
	At       time.Time `json:"timestamp"`
}

// Order is a shirt purchase request and its confirmation lifecycle.
type Order struct {
	ID          int64     `json:"id"`
	RawText     string    `json:"raw_text"`
	Parsed      Parsed    `json:"parsed"`
	Script      string    `json:"script"`
	Status      Status    `json:"status"`
	LastCallSID string    `json:"last_call_sid,omitempty"`
	LastResult  *Result   `json:"last_result,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
