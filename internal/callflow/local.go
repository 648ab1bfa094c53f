package callflow

import (
	"context"
	"fmt"
	"strings"

	"bot-call/internal/classify"
	"bot-call/internal/llm"
)

// localPersonaPrompt keeps the rehearsal bot strictly on the shirt-order
// topic, in Bangla, with short polite replies.
const localPersonaPrompt = "তুমি একজন বাংলাদেশের কল সেন্টার এজেন্ট, কাজ শুধু শার্ট অর্ডার কনফার্ম করা। " +
	"সব সময় শুধু বাংলা ভাষায় কথা বলবে। " +
	"তুমি শুধু এই বিষয়গুলো নিয়ে কথা বলতে পারো: শার্টের সংখ্যা, কালার, সাইজ, দাম, " +
	"কাস্টমারের নাম, মোবাইল নাম্বার, ডেলিভারি অ্যাড্রেস, অর্ডার কনফার্ম/ক্যান্সেল। " +
	"এর বাইরে কোনো টপিক, সাধারণ কথা, পরামর্শ, মজার কথা, জ্ঞানগর্ভ কথা কিছুই বলবে না। " +
	"যদি ইউজার অন্য কিছু জিজ্ঞেস করে বা অন্য বিষয়ে চলে যায়, তুমি সংক্ষিপ্তভাবে এভাবে বলবে: " +
	"“স্যার, আমি শুধু আপনার শার্ট অর্ডার কনফার্ম করার জন্য আছি, " +
	"অনুগ্রহ করে অর্ডারের তথ্য বলুন।” " +
	"একবার উত্তরে সর্বোচ্চ ১–২টি ছোট বাক্য ব্যবহার করবে, " +
	"ভদ্র, পরিষ্কার এবং সহজ ভাষায় কথা বলবে। "

// localWelcome is the bot's opening line when the operator starts a
// rehearsal session.
const localWelcome = "আসসালামু আলাইকুম। আমি একজন বট কথা বলছি। " +
	"আপনি একটি শার্ট অর্ডার করেছেন। " +
	"অনুগ্রহ করে শার্টের মডেল, রঙ আর সাইজ বলুন। " +
	"অর্ডার ঠিক থাকলে বলবেন – ‘হ্যাঁ, অর্ডার কনফার্ম’। " +
	"বাতিল করতে চাইলে বলবেন – ‘না, অর্ডার ক্যান্সেল’।"

// Canned interpretation replies for the browser classifier endpoint.
const (
	interpretConfirmed = "ধন্যবাদ। আপনার অর্ডার কনফার্ম করা হয়েছে। " +
		"খুব শিগগিরই আমরা ডেলিভারি প্রসেস শুরু করব ইনশাআল্লাহ।"
	interpretCancelled = "আপনার অর্ডার বাতিল করা হয়েছে। " +
		"ধন্যবাদ আমাদেরকে জানানোর জন্য। ভবিষ্যতে আবার আমাদের সাথে থাকবেন।"
	interpretUnclear = "দুঃখিত, আপনার উত্তরটি পরিষ্কারভাবে বোঝা যায়নি। " +
		"যদি কনফার্ম করতে চান, বলুন ‘হ্যাঁ, অর্ডার কনফার্ম’। " +
		"বাতিল করতে চাইলে বলুন ‘না, অর্ডার ক্যান্সেল’।"
)

// Responder generates the next conversational reply.
type Responder interface {
	Respond(ctx context.Context, systemPrompt string, history []llm.Message) (string, error)
}

// Turn is one browser-supplied conversation entry.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LocalResult carries the rehearsal bot's reply. AudioURL may be empty
// when synthesis failed; Reply is still best-effort populated.
type LocalResult struct {
	Reply    string `json:"reply"`
	AudioURL string `json:"audio_url,omitempty"`
}

// Interpret classifies browser-recognized speech and returns the
// matching canned Bangla reply. Pure text, no collaborators.
func (e *Engine) Interpret(text string) (classify.Decision, string) {
	decision := classify.Classify(text, e.rules)
	switch decision {
	case classify.Confirmed:
		return decision, interpretConfirmed
	case classify.Cancelled:
		return decision, interpretCancelled
	default:
		return decision, interpretUnclear
	}
}

// LocalWelcome synthesizes the rehearsal bot's opening line. The text
// is always returned, even when synthesis fails.
func (e *Engine) LocalWelcome(ctx context.Context) (LocalResult, error) {
	result := LocalResult{Reply: localWelcome}
	if e.speaker == nil {
		return result, fmt.Errorf("speech synthesis not configured")
	}
	audioURL, err := e.speaker.Speak(ctx, localWelcome)
	if err != nil {
		e.countError("tts")
		return result, fmt.Errorf("synthesize welcome: %w", err)
	}
	result.AudioURL = audioURL
	return result, nil
}

// LocalReply forwards the conversation to the completion service under
// the fixed persona, polishes the reply, and synthesizes it. A failed
// completion returns an error with no reply; a failed synthesis returns
// the reply text alongside the error.
func (e *Engine) LocalReply(ctx context.Context, turns []Turn) (LocalResult, error) {
	if e.responder == nil {
		return LocalResult{}, fmt.Errorf("completion service not configured")
	}

	history := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		role := turn.Role
		if role != "user" && role != "assistant" {
			role = "user"
		}
		history = append(history, llm.Message{Role: role, Content: content})
	}

	reply, err := e.responder.Respond(ctx, localPersonaPrompt, history)
	if err != nil {
		e.countError("llm")
		return LocalResult{}, fmt.Errorf("generate reply: %w", err)
	}
	reply = e.humanizer.Polish(reply)

	result := LocalResult{Reply: reply}
	if e.speaker == nil {
		return result, fmt.Errorf("speech synthesis not configured")
	}
	audioURL, err := e.speaker.Speak(ctx, reply)
	if err != nil {
		e.countError("tts")
		return result, fmt.Errorf("synthesize reply: %w", err)
	}
	result.AudioURL = audioURL
	return result, nil
}
