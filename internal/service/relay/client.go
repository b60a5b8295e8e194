// Package relay gives the session engine its view of the same-origin
// relay endpoint: one POST per turn, response body returned verbatim for
// reply extraction.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nemawashi-ai/nema/backend/internal/service/webhook"
)

// Client issues a single chat turn against the relay.
type Client interface {
	Send(ctx context.Context, message, userID string) ([]byte, error)
}

type request struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// HTTPClient calls a relay endpoint over HTTP, the way the browser widget
// does. Used when the relay is hosted separately from the session API.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient builds an HTTPClient for the given relay endpoint URL.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{endpoint: endpoint, client: &http.Client{}}
}

// Send posts the turn and returns the relay's body. A non-2xx status is a
// failed turn.
func (c *HTTPClient) Send(ctx context.Context, message, userID string) ([]byte, error) {
	body, err := json.Marshal(request{Message: message, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("encode relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("relay answered status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Local keeps the widget→relay hop in-process when the session API and
// the relay share a binary, producing the same {"raw": ...} envelope the
// HTTP endpoint would.
type Local struct {
	forwarder *webhook.Forwarder
}

// NewLocal wraps a webhook forwarder as a relay client.
func NewLocal(forwarder *webhook.Forwarder) *Local {
	return &Local{forwarder: forwarder}
}

func (c *Local) Send(ctx context.Context, message, userID string) ([]byte, error) {
	raw, _, err := c.forwarder.Forward(ctx, message, userID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{"raw": raw})
}
