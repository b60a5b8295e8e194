// Package webhook forwards widget messages to the external automation
// webhook. The webhook is not under our control: its response is treated
// as opaque text and its status code is reported, never acted on.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type payload struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// Forwarder posts {message, userId} to a fixed webhook URL.
type Forwarder struct {
	url    string
	client *http.Client
}

// NewForwarder builds a Forwarder for the given URL. A zero timeout keeps
// the transport default.
func NewForwarder(url string, timeout time.Duration) *Forwarder {
	return &Forwarder{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Forward sends the message and returns the webhook's body as text along
// with its status code. Only transport failures are errors; an upstream
// error status still yields the body it came with.
func (f *Forwarder) Forward(ctx context.Context, message, userID string) (string, int, error) {
	body, err := json.Marshal(payload{Message: message, UserID: userID})
	if err != nil {
		return "", 0, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("call webhook: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read webhook response: %w", err)
	}
	return string(text), resp.StatusCode, nil
}
