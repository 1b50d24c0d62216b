package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicetask/internal/domain"
)

// Webhook posts plain-text messages to an incoming chat webhook.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Webhook{url: strings.TrimSpace(url), client: client}
}

// Configured reports whether a webhook URL is set.
func (w *Webhook) Configured() bool {
	return w.url != ""
}

func (w *Webhook) Notify(ctx context.Context, text string) error {
	if !w.Configured() {
		return domain.MissingConfiguration("Teams WebhookURL not configured")
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return domain.UpstreamCallFailure("Failed to send to Teams", "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return domain.UpstreamCallFailure("Failed to send to Teams", err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return domain.UpstreamCallFailure("Failed to send to Teams", string(details), fmt.Errorf("webhook returned %s", resp.Status))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
