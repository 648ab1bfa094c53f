// Package llm talks to an OpenAI-compatible chat-completion service.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bot-call/internal/metrics"
	"bot-call/internal/orders"
)

// Message is one turn in a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config defines connection parameters for the completion service.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls the chat-completions endpoint with bearer auth.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New returns a completion-service client.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("component", "llm"),
		metrics: m,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the conversation and returns the model's single text
// completion. jsonMode asks the service for strict JSON output.
func (c *Client) Complete(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	payload := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.2,
	}
	if jsonMode {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("error", start)
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe("error", start)
		return "", fmt.Errorf("read completion response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		c.observe("error", start)
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.observe("error", start)
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("completion service: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("completion service: unexpected status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		c.observe("error", start)
		return "", fmt.Errorf("completion service: empty choices")
	}

	c.observe("success", start)
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) observe(status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.LLMRequests.WithLabelValues(status).Inc()
	c.metrics.LLMLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

const extractionSystemPrompt = "You are an assistant that extracts structured order data " +
	"from free-text Bangla or English messages about shirt orders. " +
	"Always respond with valid JSON ONLY, no explanation."

func extractionUserPrompt(orderText string) string {
	return fmt.Sprintf(`Customer message (Bangla / English mixed):

"""%s"""

Important:
- The customer is from Bangladesh.
- Mobile numbers usually look like: 017xxxxxxxx, 018xxxxxxxx, 019xxxxxxxx, or with country code 880 / +880.
- Always try to extract a phone number if there are 10-14 digits that look like a Bangladeshi mobile.
- Return the phone number as a string in whatever format appears (e.g. "01712345678" or "+8801712345678").

Extract:
- customer_name (if present)
- quantity (number of shirts)
- color
- size (or sizes list)
- price_total (numeric, if mentioned)
- phone
- address
- any other_notes

Return JSON with keys:
customer_name, quantity, color, size, price_total, phone, address, other_notes.
If something not found, use null.`, orderText)
}

// ParseOrder extracts a structured order record from a raw message. A
// malformed completion never fails the call: the raw text is preserved
// in other_notes with every structured field left empty.
func (c *Client) ParseOrder(ctx context.Context, orderText string) (orders.Parsed, error) {
	raw, err := c.Complete(ctx, []Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: extractionUserPrompt(orderText)},
	}, true)
	if err != nil {
		return orders.Parsed{}, err
	}

	var parsed orders.Parsed
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		c.logger.Warn("extraction returned non-JSON, keeping raw text", "error", err)
		return orders.Parsed{OtherNotes: raw}, nil
	}
	return parsed, nil
}

// Respond generates the next free-form reply for a persona-constrained
// conversation.
func (c *Client) Respond(ctx context.Context, systemPrompt string, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	return c.Complete(ctx, messages, false)
}
