// Package callflow orchestrates the order-confirmation lifecycle: it
// connects the order parser, script builder, telephony provider, and
// reply classifier into one state machine.
package callflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bot-call/internal/cache"
	"bot-call/internal/classify"
	"bot-call/internal/metrics"
	"bot-call/internal/orders"
	"bot-call/internal/phone"
	"bot-call/internal/script"
	"bot-call/internal/telephony"
)

const voiceLanguage = "bn-BD"

// Spoken lines for the telephony leg of the flow.
const (
	lineOrderNotFound = "দুঃখিত, অর্ডারটি খুঁজে পাওয়া যায়নি।"
	lineNoReply       = "দুঃখিত, আপনার কাছ থেকে কোনো উত্তর পাওয়া যায়নি। পরে আবার চেষ্টা করা হবে।"
	lineConfirmed     = "ধন্যবাদ। আপনার অর্ডার কনফার্ম করা হয়েছে। ইনশাআল্লাহ খুব দ্রুতই ডেলিভারি দেওয়া হবে।"
	lineCancelled     = "আপনার অর্ডার বাতিল করা হয়েছে। ধন্যবাদ। ভবিষ্যতে আবার আমাদের সাথে থাকবেন ইনশাআল্লাহ।"
	lineNeedsReview   = "দুঃখিত, আপনার কথা ঠিকভাবে বোঝা যায়নি। আমাদের টিম থেকে একজন মানুষ আপনার সাথে যোগাযোগ করবে। ধন্যবাদ।"
)

var (
	// ErrEmptyOrderText is returned when the submitted message is blank.
	ErrEmptyOrderText = errors.New("order text is empty")
	// ErrInvalidPhone is returned when the parsed phone number cannot
	// be normalized into a dialable form.
	ErrInvalidPhone = errors.New("invalid or missing phone number")
)

// OrderParser extracts a structured record from a raw order message.
type OrderParser interface {
	ParseOrder(ctx context.Context, orderText string) (orders.Parsed, error)
}

// Caller places outbound calls.
type Caller interface {
	CreateCall(ctx context.Context, to, callbackURL string) (telephony.CallSession, error)
}

// Speaker turns text into a playable audio URL.
type Speaker interface {
	Speak(ctx context.Context, text string) (string, error)
}

// Config holds the engine's environment-facing settings.
type Config struct {
	// PublicBaseURL is the externally reachable address the telephony
	// provider uses for webhooks.
	PublicBaseURL string
	// ReplyDedupeTTL bounds how long a call sid is remembered for
	// webhook retry dedupe.
	ReplyDedupeTTL time.Duration
}

// Engine drives orders from creation through the confirmation call.
type Engine struct {
	cfg       Config
	store     *orders.Store
	parser    OrderParser
	responder Responder
	caller    Caller
	speaker   Speaker
	humanizer *script.Humanizer
	rules     classify.RuleSet
	cache     *cache.Redis
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New wires an Engine. cache, speaker, and responder may be nil when
// the deployment does not use Redis or the local rehearsal mode.
func New(
	cfg Config,
	store *orders.Store,
	parser OrderParser,
	responder Responder,
	caller Caller,
	speaker Speaker,
	redisCache *cache.Redis,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		parser:    parser,
		responder: responder,
		caller:    caller,
		speaker:   speaker,
		humanizer: script.NewHumanizer(),
		rules:     classify.DefaultBangla(),
		cache:     redisCache,
		metrics:   m,
		logger:    logger.With("component", "callflow"),
	}
}

// CreateOrder parses the raw message, builds the confirmation script,
// and registers a pending order. phoneManual, when given, overrides the
// extracted phone number before anything else happens.
func (e *Engine) CreateOrder(ctx context.Context, rawText, phoneManual string) (orders.Order, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return orders.Order{}, ErrEmptyOrderText
	}

	parsed, err := e.parser.ParseOrder(ctx, rawText)
	if err != nil {
		e.countError("parser")
		return orders.Order{}, fmt.Errorf("parse order: %w", err)
	}
	if phoneManual = strings.TrimSpace(phoneManual); phoneManual != "" {
		parsed.Phone = phoneManual
	}

	order := e.store.Create(rawText, parsed, script.Build(parsed))
	if e.metrics != nil {
		e.metrics.OrdersCreated.Inc()
	}
	e.logger.Info("order created", "order_id", order.ID)
	return order, nil
}

// OverridePhone replaces the extracted phone number before a call is
// placed.
func (e *Engine) OverridePhone(orderID int64, rawPhone string) (orders.Order, error) {
	return e.store.OverridePhone(orderID, strings.TrimSpace(rawPhone))
}

// StartCall normalizes the order's phone number and asks the telephony
// provider to dial it. The order status is never touched here; only the
// reply handler moves it.
func (e *Engine) StartCall(ctx context.Context, orderID int64) (orders.Order, telephony.CallSession, error) {
	order, err := e.store.Get(orderID)
	if err != nil {
		return orders.Order{}, telephony.CallSession{}, err
	}

	to, ok := phone.Normalize(order.Parsed.Phone)
	if !ok {
		return order, telephony.CallSession{}, fmt.Errorf("%w: %q", ErrInvalidPhone, order.Parsed.Phone)
	}

	callbackURL := fmt.Sprintf("%s/voice/%d/entry", strings.TrimRight(e.cfg.PublicBaseURL, "/"), orderID)
	session, err := e.caller.CreateCall(ctx, to, callbackURL)
	if err != nil {
		e.countError("telephony")
		return order, telephony.CallSession{}, fmt.Errorf("start call: %w", err)
	}

	updated, err := e.store.RecordCall(orderID, session.SID)
	if err != nil {
		return order, session, err
	}
	e.logger.Info("call started", "order_id", orderID, "call_sid", session.SID, "to", to)
	return updated, session, nil
}

// VoiceEntry returns the cXML played when the customer answers: speak
// the confirmation script while gathering a spoken reply, and fall back
// to an apology when nothing is captured. The no-answer path leaves the
// order pending.
func (e *Engine) VoiceEntry(orderID int64) (string, error) {
	order, err := e.store.Get(orderID)
	if err != nil {
		return e.sayAndHangup(lineOrderNotFound)
	}

	actionURL := fmt.Sprintf("%s/voice/%d/reply", strings.TrimRight(e.cfg.PublicBaseURL, "/"), orderID)
	resp := &telephony.Response{
		Gather: telephony.NewGather(actionURL, voiceLanguage, order.Script),
		Hangup: &telephony.Hangup{},
	}
	resp.AddSay(voiceLanguage, lineNoReply)
	return resp.Render()
}

// HandleReply classifies the captured speech, applies the single
// pending-to-terminal transition, and returns the closing cXML. Retried
// webhooks replay the closing line without re-transitioning.
func (e *Engine) HandleReply(ctx context.Context, orderID int64, callSID, speech, digits string) (string, error) {
	order, err := e.store.Get(orderID)
	if err != nil {
		return e.sayAndHangup(lineOrderNotFound)
	}

	if !e.claimReply(ctx, callSID) {
		e.logger.Info("duplicate reply webhook ignored", "order_id", orderID, "call_sid", callSID)
		return e.sayAndHangup(closingLine(order.Status))
	}

	decision := classify.Classify(speech, e.rules)
	status := statusFor(decision)

	updated, err := e.store.ResolveReply(orderID, speech, digits, status)
	if err != nil {
		if errors.Is(err, orders.ErrAlreadyResolved) {
			return e.sayAndHangup(closingLine(updated.Status))
		}
		return e.sayAndHangup(lineOrderNotFound)
	}

	if e.metrics != nil {
		e.metrics.CallOutcomes.WithLabelValues(string(decision)).Inc()
	}
	e.logger.Info("reply handled", "order_id", orderID, "decision", decision, "speech", speech)
	return e.sayAndHangup(closingLine(updated.Status))
}

// claimReply reports whether this webhook invocation owns the reply for
// the given call session. Without Redis the store's pending-only
// transition is the only guard.
func (e *Engine) claimReply(ctx context.Context, callSID string) bool {
	if e.cache == nil || callSID == "" {
		return true
	}
	claimed, err := e.cache.SetNX(ctx, "reply:"+callSID, "1", e.cfg.ReplyDedupeTTL)
	if err != nil {
		e.logger.Warn("reply dedupe unavailable", "error", err)
		return true
	}
	return claimed
}

func (e *Engine) sayAndHangup(line string) (string, error) {
	resp := &telephony.Response{Hangup: &telephony.Hangup{}}
	resp.AddSay(voiceLanguage, line)
	return resp.Render()
}

func (e *Engine) countError(component string) {
	if e.metrics != nil {
		e.metrics.Errors.WithLabelValues(component).Inc()
	}
}

func statusFor(decision classify.Decision) orders.Status {
	switch decision {
	case classify.Confirmed:
		return orders.StatusConfirmed
	case classify.Cancelled:
		return orders.StatusCancelled
	default:
		return orders.StatusNeedsReview
	}
}

func closingLine(status orders.Status) string {
	switch status {
	case orders.StatusConfirmed:
		return lineConfirmed
	case orders.StatusCancelled:
		return lineCancelled
	default:
		return lineNeedsReview
	}
}

// Store exposes read access for the HTTP layer.
func (e *Engine) Store() *orders.Store {
	return e.store
}
