// Package slack delivers backtest failure notifications to a Slack incoming
// webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gentrade/gentrade-api/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Username   string
	Timeout    time.Duration
	Client     *http.Client
}

// Client delivers backtest failure notifications to a Slack webhook.
type Client struct {
	webhookURL string
	username   string
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "gentrade"
	}

	return &Client{
		webhookURL: webhookURL,
		username:   username,
		client:     hc,
	}, nil
}

type message struct {
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}

// SendBacktestFailure posts a formatted message to Slack.
func (c *Client) SendBacktestFailure(ctx context.Context, payload notify.BacktestFailurePayload) error {
	body, err := json.Marshal(message{
		Username: c.username,
		Text:     formatText(payload),
	})
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func formatText(payload notify.BacktestFailurePayload) string {
	var sb strings.Builder
	sb.WriteString(":rotating_light: backtest ")
	sb.WriteString(strconv.FormatInt(payload.BacktestID, 10))
	sb.WriteString(" failed")
	if payload.ErrorClass != "" {
		sb.WriteString(" (")
		sb.WriteString(payload.ErrorClass)
		sb.WriteString(")")
	}
	if payload.Error != "" {
		sb.WriteString("\n> ")
		sb.WriteString(payload.Error)
	}
	sb.WriteString("\nstrategy: ")
	sb.WriteString(strconv.FormatInt(payload.StrategyID, 10))
	if payload.PrincipalID != "" {
		sb.WriteString(", user: ")
		sb.WriteString(payload.PrincipalID)
	}
	return sb.String()
}
