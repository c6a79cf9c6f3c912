package responder

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

// Client is a minimal provider API client. Every call is a single bounded
// POST; retries are the provider protocol's business, not ours.
type Client struct {
	apiBase string
	token   string
	http    *http.Client
}

func NewClient(apiBase, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Comment posts a comment under the resource at targetURL.
func (c *Client) Comment(ctx context.Context, targetURL, body string) error {
	return c.post(ctx, targetURL+"/comments", map[string]string{"body": body})
}

// React adds a reaction to the resource at targetURL.
func (c *Client) React(ctx context.Context, targetURL, reaction string) error {
	return c.post(ctx, targetURL+"/reactions", map[string]string{"content": reaction})
}

// Label attaches labels to the resource at targetURL.
func (c *Client) Label(ctx context.Context, targetURL string, labels []string) error {
	return c.post(ctx, targetURL+"/labels", map[string][]string{"labels": labels})
}

// Activity emits a structured activity message on the provider's activity
// stream. kind is "message" for normal replies and "error" for the
// best-effort failure channel.
func (c *Client) Activity(ctx context.Context, kind, text string) error {
	return c.post(ctx, c.apiBase+"/activity", map[string]string{"type": kind, "text": text})
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("provider call %s: status %d", url, resp.StatusCode)
	}
	return nil
}
