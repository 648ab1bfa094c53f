// Package speech synthesizes Bangla audio through a Coqui-compatible
// TTS server and prepares it for telephone-grade playback.
package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bot-call/internal/metrics"
)

// Config defines connection parameters for the TTS server.
type Config struct {
	BaseURL   string
	SpeakerID string
	Timeout   time.Duration
}

// Client fetches synthesized WAV audio over HTTP.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewClient returns a TTS client.
func NewClient(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("component", "tts"),
		metrics: m,
	}
}

// Synthesize returns raw WAV bytes for the given text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	query := url.Values{}
	query.Set("text", text)
	if c.cfg.SpeakerID != "" {
		query.Set("speaker_id", c.cfg.SpeakerID)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/tts?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("error", start)
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observe("error", start)
		return nil, fmt.Errorf("tts server: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe("error", start)
		return nil, fmt.Errorf("read tts response: %w", err)
	}

	c.observe("success", start)
	return data, nil
}

func (c *Client) observe(status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.TTSRequests.WithLabelValues(status).Inc()
	c.metrics.TTSLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
