package callflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"bot-call/internal/classify"
	"bot-call/internal/llm"
	"bot-call/internal/orders"
	"bot-call/internal/telephony"
)

type fakeParser struct {
	parsed orders.Parsed
	err    error
}

func (f *fakeParser) ParseOrder(_ context.Context, _ string) (orders.Parsed, error) {
	return f.parsed, f.err
}

type fakeCaller struct {
	lastTo  string
	lastURL string
	session telephony.CallSession
	err     error
}

func (f *fakeCaller) CreateCall(_ context.Context, to, callbackURL string) (telephony.CallSession, error) {
	f.lastTo = to
	f.lastURL = callbackURL
	return f.session, f.err
}

type fakeResponder struct {
	lastSystem  string
	lastHistory []llm.Message
	reply       string
	err         error
}

func (f *fakeResponder) Respond(_ context.Context, systemPrompt string, history []llm.Message) (string, error) {
	f.lastSystem = systemPrompt
	f.lastHistory = history
	return f.reply, f.err
}

type fakeSpeaker struct {
	lastText string
	url      string
	err      error
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) (string, error) {
	f.lastText = text
	return f.url, f.err
}

func newTestEngine(parser *fakeParser, caller *fakeCaller, responder *fakeResponder, speaker *fakeSpeaker) *Engine {
	var p OrderParser
	if parser != nil {
		p = parser
	}
	var c Caller
	if caller != nil {
		c = caller
	}
	var r Responder
	if responder != nil {
		r = responder
	}
	var s Speaker
	if speaker != nil {
		s = speaker
	}
	return New(
		Config{PublicBaseURL: "https://bot.example.test"},
		orders.NewStore(),
		p, r, c, s,
		nil, nil,
		slog.New(slog.DiscardHandler),
	)
}

func TestCreateOrderEmptyText(t *testing.T) {
	e := newTestEngine(&fakeParser{}, nil, nil, nil)
	if _, err := e.CreateOrder(context.Background(), "   ", ""); !errors.Is(err, ErrEmptyOrderText) {
		t.Fatalf("err = %v, want ErrEmptyOrderText", err)
	}
}

func TestCreateOrderManualPhoneOverride(t *testing.T) {
	e := newTestEngine(&fakeParser{parsed: orders.Parsed{Phone: "garbage"}}, nil, nil, nil)

	order, err := e.CreateOrder(context.Background(), "দুইটা শার্ট", "01712345678")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Parsed.Phone != "01712345678" {
		t.Fatalf("phone = %q, want manual override", order.Parsed.Phone)
	}
}

func TestStartCallInvalidPhoneLeavesStatus(t *testing.T) {
	caller := &fakeCaller{}
	e := newTestEngine(&fakeParser{parsed: orders.Parsed{Phone: "not a number"}}, caller, nil, nil)

	order, err := e.CreateOrder(context.Background(), "একটা শার্ট", "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, _, err = e.StartCall(context.Background(), order.ID)
	if !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("err = %v, want ErrInvalidPhone", err)
	}
	if caller.lastTo != "" {
		t.Fatal("no call must be placed for an invalid phone")
	}

	after, _ := e.Store().Get(order.ID)
	if after.Status != orders.StatusPending {
		t.Fatalf("status = %q, want pending", after.Status)
	}
}

func TestStartCallRecordsSessionWithoutStatusChange(t *testing.T) {
	caller := &fakeCaller{session: telephony.CallSession{SID: "CA77", Status: "queued"}}
	e := newTestEngine(&fakeParser{parsed: orders.Parsed{Phone: "01712345678"}}, caller, nil, nil)

	order, _ := e.CreateOrder(context.Background(), "একটা শার্ট", "")

	updated, session, err := e.StartCall(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if caller.lastTo != "+8801712345678" {
		t.Fatalf("dialed %q, want normalized number", caller.lastTo)
	}
	wantURL := "https://bot.example.test/voice/1/entry"
	if caller.lastURL != wantURL {
		t.Fatalf("callback = %q, want %q", caller.lastURL, wantURL)
	}
	if session.SID != "CA77" || updated.LastCallSID != "CA77" {
		t.Fatalf("sid not recorded: session %q, order %q", session.SID, updated.LastCallSID)
	}
	if updated.Status != orders.StatusPending {
		t.Fatalf("status = %q, want pending", updated.Status)
	}
}

func TestVoiceEntryGathersScript(t *testing.T) {
	e := newTestEngine(&fakeParser{parsed: orders.Parsed{CustomerName: "রাসেল"}}, nil, nil, nil)
	order, _ := e.CreateOrder(context.Background(), "একটা শার্ট", "")

	xmlDoc, err := e.VoiceEntry(order.ID)
	if err != nil {
		t.Fatalf("VoiceEntry: %v", err)
	}
	if !strings.Contains(xmlDoc, "রাসেল") {
		t.Fatalf("script not spoken:\n%s", xmlDoc)
	}
	if !strings.Contains(xmlDoc, `action="https://bot.example.test/voice/1/reply"`) {
		t.Fatalf("gather action wrong:\n%s", xmlDoc)
	}
	if !strings.Contains(xmlDoc, "কোনো উত্তর পাওয়া যায়নি") {
		t.Fatalf("no-input fallback missing:\n%s", xmlDoc)
	}
}

func TestVoiceEntryUnknownOrder(t *testing.T) {
	e := newTestEngine(&fakeParser{}, nil, nil, nil)

	xmlDoc, err := e.VoiceEntry(99)
	if err != nil {
		t.Fatalf("VoiceEntry: %v", err)
	}
	if !strings.Contains(xmlDoc, "অর্ডারটি খুঁজে পাওয়া যায়নি") || !strings.Contains(xmlDoc, "<Hangup>") {
		t.Fatalf("apology/hangup missing:\n%s", xmlDoc)
	}
	if strings.Contains(xmlDoc, "<Gather") {
		t.Fatalf("unexpected gather for unknown order:\n%s", xmlDoc)
	}
}

func TestHandleReplyTransitions(t *testing.T) {
	tests := []struct {
		name       string
		speech     string
		wantStatus orders.Status
		wantLine   string
	}{
		{"confirm", "হ্যাঁ কনফার্ম", orders.StatusConfirmed, "আপনার অর্ডার কনফার্ম করা হয়েছে"},
		{"cancel", "না, অর্ডার ক্যান্সেল", orders.StatusCancelled, "আপনার অর্ডার বাতিল করা হয়েছে"},
		{"unclear", "আমি জানি না", orders.StatusNeedsReview, "ঠিকভাবে বোঝা যায়নি"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(&fakeParser{}, nil, nil, nil)
			order, _ := e.CreateOrder(context.Background(), "একটা শার্ট", "")

			xmlDoc, err := e.HandleReply(context.Background(), order.ID, "CA1", tt.speech, "")
			if err != nil {
				t.Fatalf("HandleReply: %v", err)
			}
			if !strings.Contains(xmlDoc, tt.wantLine) {
				t.Fatalf("closing line missing %q:\n%s", tt.wantLine, xmlDoc)
			}

			after, _ := e.Store().Get(order.ID)
			if after.Status != tt.wantStatus {
				t.Fatalf("status = %q, want %q", after.Status, tt.wantStatus)
			}
			if after.LastResult == nil || after.LastResult.Speech != tt.speech {
				t.Fatalf("last result = %+v", after.LastResult)
			}
		})
	}
}

func TestHandleReplyRetryDoesNotRetransition(t *testing.T) {
	e := newTestEngine(&fakeParser{}, nil, nil, nil)
	order, _ := e.CreateOrder(context.Background(), "একটা শার্ট", "")

	if _, err := e.HandleReply(context.Background(), order.ID, "CA1", "হ্যাঁ কনফার্ম", ""); err != nil {
		t.Fatalf("first reply: %v", err)
	}

	// The provider retries the webhook with a contradictory transcript.
	xmlDoc, err := e.HandleReply(context.Background(), order.ID, "CA1", "না, অর্ডার ক্যান্সেল", "")
	if err != nil {
		t.Fatalf("retried reply: %v", err)
	}
	if !strings.Contains(xmlDoc, "আপনার অর্ডার কনফার্ম করা হয়েছে") {
		t.Fatalf("retry must replay the original closing line:\n%s", xmlDoc)
	}

	after, _ := e.Store().Get(order.ID)
	if after.Status != orders.StatusConfirmed {
		t.Fatalf("status = %q, want confirmed", after.Status)
	}
	if after.LastResult.Speech != "হ্যাঁ কনফার্ম" {
		t.Fatalf("last result overwritten: %+v", after.LastResult)
	}
}

// End to end: raw message through parser, script, call, and reply.
func TestOrderConfirmationFlow(t *testing.T) {
	parser := &fakeParser{parsed: orders.Parsed{
		CustomerName: "রাসেল",
		Quantity:     orders.FlexValue{Number: 2, Numeric: true},
		Color:        "নীল",
		Size:         "এল",
		PriceTotal:   orders.FlexValue{Number: 900, Numeric: true},
		Phone:        "০১৭১২৩৪৫৬৭৮",
	}}
	caller := &fakeCaller{session: telephony.CallSession{SID: "CA900"}}
	e := newTestEngine(parser, caller, nil, nil)

	order, err := e.CreateOrder(context.Background(),
		"রাসেল ভাই, ২টা শার্ট, সাইজ এল, রঙ নীল, দাম ৯০০ টাকা, ফোন ০১৭১২৩৪৫৬৭৮", "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	for _, want := range []string{"2 টি", "নীল", "সাইজ এল", "900 টাকা"} {
		if !strings.Contains(order.Script, want) {
			t.Fatalf("script missing %q:\n%s", want, order.Script)
		}
	}

	if _, _, err := e.StartCall(context.Background(), order.ID); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if caller.lastTo != "+8801712345678" {
		t.Fatalf("dialed %q, want +8801712345678", caller.lastTo)
	}

	if _, err := e.HandleReply(context.Background(), order.ID, "CA900", "হ্যাঁ কনফার্ম", ""); err != nil {
		t.Fatalf("HandleReply: %v", err)
	}
	final, _ := e.Store().Get(order.ID)
	if final.Status != orders.StatusConfirmed {
		t.Fatalf("status = %q, want confirmed", final.Status)
	}
}

func TestInterpret(t *testing.T) {
	e := newTestEngine(&fakeParser{}, nil, nil, nil)

	decision, reply := e.Interpret("হ্যাঁ, অর্ডার কনফার্ম")
	if decision != classify.Confirmed || !strings.Contains(reply, "কনফার্ম করা হয়েছে") {
		t.Fatalf("confirm: %q %q", decision, reply)
	}

	decision, reply = e.Interpret("কিছুই বুঝলাম না")
	if decision != classify.Unclear || !strings.Contains(reply, "পরিষ্কারভাবে বোঝা যায়নি") {
		t.Fatalf("unclear: %q %q", decision, reply)
	}
}

func TestLocalReply(t *testing.T) {
	responder := &fakeResponder{reply: "জি স্যার, আপনার সাইজ এল নোট করা হলো।"}
	speaker := &fakeSpeaker{url: "/static/tts/tts_abc.wav"}
	e := newTestEngine(&fakeParser{}, nil, responder, speaker)

	result, err := e.LocalReply(context.Background(), []Turn{
		{Role: "system", Content: "ignore me"},
		{Role: "assistant", Content: "সাইজ বলুন"},
		{Role: "user", Content: "এল সাইজ"},
		{Role: "user", Content: "   "},
	})
	if err != nil {
		t.Fatalf("LocalReply: %v", err)
	}
	if result.AudioURL != "/static/tts/tts_abc.wav" {
		t.Fatalf("audio url = %q", result.AudioURL)
	}
	if result.Reply == "" {
		t.Fatal("reply empty")
	}

	if responder.lastSystem == "" || !strings.Contains(responder.lastSystem, "শার্ট অর্ডার কনফার্ম") {
		t.Fatalf("persona prompt missing: %q", responder.lastSystem)
	}
	if len(responder.lastHistory) != 3 {
		t.Fatalf("history = %+v", responder.lastHistory)
	}
	if responder.lastHistory[0].Role != "user" {
		t.Fatalf("system role must be folded to user, got %q", responder.lastHistory[0].Role)
	}
}

func TestLocalReplySynthesisFailureReturnsText(t *testing.T) {
	responder := &fakeResponder{reply: "জি স্যার।"}
	speaker := &fakeSpeaker{err: errors.New("tts down")}
	e := newTestEngine(&fakeParser{}, nil, responder, speaker)

	result, err := e.LocalReply(context.Background(), []Turn{{Role: "user", Content: "হ্যালো"}})
	if err == nil {
		t.Fatal("expected synthesis error")
	}
	if result.Reply == "" {
		t.Fatal("reply text must survive a synthesis failure")
	}
	if result.AudioURL != "" {
		t.Fatalf("audio url = %q, want empty", result.AudioURL)
	}
}

func TestLocalWelcome(t *testing.T) {
	speaker := &fakeSpeaker{url: "/static/tts/tts_w.wav"}
	e := newTestEngine(&fakeParser{}, nil, nil, speaker)

	result, err := e.LocalWelcome(context.Background())
	if err != nil {
		t.Fatalf("LocalWelcome: %v", err)
	}
	if !strings.Contains(result.Reply, "হ্যাঁ, অর্ডার কনফার্ম") {
		t.Fatalf("welcome missing reference phrase: %q", result.Reply)
	}
	if result.AudioURL != "/static/tts/tts_w.wav" {
		t.Fatalf("audio url = %q", result.AudioURL)
	}
}
