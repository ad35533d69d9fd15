// Package alert - slack.go delivers alerts to a Slack-compatible webhook.
//
// DESIGN: One best-effort POST per alert:
//   - 10 second client timeout, single attempt, no retry queue
//   - Non-2xx responses come back as errors for the caller to log
//   - The URL is validated up front; cloud metadata endpoints are
//     rejected so a misconfigured URL cannot probe instance credentials
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// webhookTimeout bounds a single delivery attempt.
const webhookTimeout = 10 * time.Second

const (
	attachmentTitle  = "🚨 Blue/Green Deployment Alert"
	attachmentFooter = "Nginx Log Watcher"
)

// attachment is one element of the Slack "attachments" payload.
type attachment struct {
	Color  string  `json:"color"`
	Title  string  `json:"title"`
	Text   string  `json:"text"`
	Fields []Field `json:"fields"`
	Footer string  `json:"footer"`
	Ts     int64   `json:"ts"`
}

// SlackSink posts alerts to a Slack-compatible webhook.
type SlackSink struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewSlackSink validates the webhook URL and creates the sink.
func NewSlackSink(rawURL string) (*SlackSink, error) {
	if err := validateWebhookURL(rawURL); err != nil {
		return nil, err
	}
	return &SlackSink{
		url:    rawURL,
		client: &http.Client{Timeout: webhookTimeout},
		now:    time.Now,
	}, nil
}

// validateWebhookURL checks the scheme and blocks metadata endpoints.
func validateWebhookURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https, got %q", scheme)
	}

	host := strings.ToLower(u.Hostname())
	for _, blocked := range []string{"169.254.169.254", "metadata.google.internal"} {
		if host == blocked {
			return fmt.Errorf("webhook URL host %q is not allowed", host)
		}
	}
	return nil
}

// Send delivers one alert. It makes exactly one attempt.
func (s *SlackSink) Send(ctx context.Context, a Alert) error {
	fields := a.Fields
	if fields == nil {
		fields = []Field{}
	}
	payload := map[string][]attachment{
		"attachments": {{
			Color:  a.Color,
			Title:  attachmentTitle,
			Text:   a.Text,
			Fields: fields,
			Footer: attachmentFooter,
			Ts:     s.now().Unix(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
