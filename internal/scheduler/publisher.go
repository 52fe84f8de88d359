package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookPublisher delivers posts to a single HTTP endpoint as JSON.
// The endpoint is expected to answer {"url": "..."} with the public
// location of the published post.
type WebhookPublisher struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewWebhookPublisher(url, token string) *WebhookPublisher {
	return &WebhookPublisher{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *WebhookPublisher) Publish(ctx context.Context, post PublishRequest) (string, error) {
	body, err := json.Marshal(post)
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("publish %s: status %d: %s",
			post.Platform, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode publish response: %w", err)
	}
	return out.URL, nil
}
