// Package gateway is the desktop client's view of the filing API.
package gateway

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

// Client calls the filing API over HTTP. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope is the failure shape every endpoint returns.
type envelope struct {
	Error   string `json:"error"`
	Raw     string `json:"raw"`
	Details string `json:"details"`
}

// Submit files one task. Blank text is rejected before any request.
func (c *Client) Submit(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error) {
	if strings.TrimSpace(sub.Text) == "" {
		return domain.SubmissionResult{}, domain.ValidationError("Missing text field")
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("failed to encode submission: %w", err)
	}

	var result domain.SubmissionResult
	if err := c.do(ctx, http.MethodPost, "/send-to-teams", payload, &result); err != nil {
		return domain.SubmissionResult{}, err
	}
	if !result.OK {
		return domain.SubmissionResult{}, domain.InvalidUpstreamPayload("filing API did not confirm the submission", "")
	}
	return result, nil
}

func (c *Client) Groups(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	if err := c.do(ctx, http.MethodGet, "/get-groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Client) Sprints(ctx context.Context) ([]domain.Sprint, error) {
	var sprints []domain.Sprint
	if err := c.do(ctx, http.MethodGet, "/get-sprints", nil, &sprints); err != nil {
		return nil, err
	}
	return sprints, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.UpstreamCallFailure("filing API unreachable", "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return domain.UpstreamCallFailure("failed to read filing API response", "", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.InvalidUpstreamPayload("filing API returned invalid JSON", string(data))
	}
	return nil
}

func decodeFailure(status int, data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Error == "" {
		return domain.UpstreamCallFailure(fmt.Sprintf("filing API returned status %d", status), string(data), nil)
	}

	switch {
	case status == http.StatusBadRequest:
		return &domain.Error{Kind: domain.ErrKindValidation, Message: env.Error, Details: env.Details}
	case env.Raw != "":
		return domain.InvalidUpstreamPayload(env.Error, env.Raw)
	default:
		return domain.UpstreamCallFailure(env.Error, env.Details, nil)
	}
}
