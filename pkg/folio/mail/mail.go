// Package mail delivers transactional email for completed contact and
// meeting flows. The HTTP dispatcher speaks the Resend-compatible JSON API;
// anything implementing Dispatcher can stand in (tests use a fake).
package mail

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
)

// Config holds email delivery configuration.
type Config struct {
	// BaseURL is the email API endpoint (default: Resend).
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token for the email API.
	APIKey string `yaml:"api_key"`

	// From is the sender address, e.g. "Folio <assistant@lawrencechen.dev>".
	From string `yaml:"from"`

	// OwnerEmail receives contact messages and meeting requests.
	OwnerEmail string `yaml:"owner_email"`
}

// Email is a single outbound message.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Dispatcher sends an email and returns the provider's message id.
type Dispatcher interface {
	Send(ctx context.Context, email Email) (string, error)
}

// HTTPDispatcher sends email through a Resend-compatible HTTP API.
type HTTPDispatcher struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPDispatcher creates a dispatcher from config.
func NewHTTPDispatcher(cfg Config, logger *slog.Logger) *HTTPDispatcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPDispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "mail"),
	}
}

// sendRequest is the provider wire format.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendResponse is the provider reply.
type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send posts the email. Failures are returned, never retried; callers decide
// whether a send failure is fatal for their request.
func (d *HTTPDispatcher) Send(ctx context.Context, email Email) (string, error) {
	if d.apiKey == "" {
		return "", fmt.Errorf("email API key not configured, set FOLIO_MAIL_API_KEY")
	}

	body, err := json.Marshal(sendRequest{
		From:    d.from,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling email: %w", err)
	}

	endpoint := d.baseURL + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.Error("email API error",
			"status", resp.StatusCode,
			"to", email.To,
		)
		return "", fmt.Errorf("email API returned %d: %s", resp.StatusCode, truncateBody(string(respBody), 300))
	}

	var sendResp sendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	d.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
		"id", sendResp.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sendResp.ID, nil
}

func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
