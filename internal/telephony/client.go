// Package telephony places outbound calls through a SignalWire-compatible
// LaML REST API and renders cXML voice responses.
package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bot-call/internal/metrics"
)

// Config defines connection parameters for the telephony provider.
type Config struct {
	ProjectID string
	APIToken  string
	SpaceURL  string
	CallerID  string
	Timeout   time.Duration
}

// CallSession identifies one provider-managed outbound call.
type CallSession struct {
	SID    string `json:"sid"`
	To     string `json:"to"`
	From   string `json:"from"`
	Status string `json:"status"`
}

// Client issues LaML REST requests with project/token basic auth.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New returns a telephony client.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("component", "telephony"),
		metrics: m,
	}
}

// CreateCall dials the customer. callbackURL is fetched by the provider
// when the call is answered and must return cXML.
func (c *Client) CreateCall(ctx context.Context, to, callbackURL string) (CallSession, error) {
	endpoint := fmt.Sprintf("%s/api/laml/2010-04-01/Accounts/%s/Calls.json",
		strings.TrimRight(c.cfg.SpaceURL, "/"), c.cfg.ProjectID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.CallerID)
	form.Set("Url", callbackURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return CallSession{}, fmt.Errorf("build call request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ProjectID, c.cfg.APIToken)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("create_call", "error", start)
		return CallSession{}, fmt.Errorf("create call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe("create_call", "error", start)
		return CallSession{}, fmt.Errorf("read call response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe("create_call", "error", start)
		c.logger.Error("call creation rejected", "status", resp.StatusCode, "body", string(data))
		return CallSession{}, fmt.Errorf("telephony provider: unexpected status %d", resp.StatusCode)
	}

	var session CallSession
	if err := json.Unmarshal(data, &session); err != nil {
		c.observe("create_call", "error", start)
		return CallSession{}, fmt.Errorf("decode call response: %w", err)
	}
	if session.SID == "" {
		c.observe("create_call", "error", start)
		return CallSession{}, fmt.Errorf("telephony provider: response missing call sid")
	}

	c.observe("create_call", "success", start)
	c.logger.Info("outbound call created", "sid", session.SID, "to", to)
	return session, nil
}

func (c *Client) observe(endpoint, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.TelephonyRequests.WithLabelValues(endpoint, status).Inc()
	c.metrics.TelephonyLatency.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}
