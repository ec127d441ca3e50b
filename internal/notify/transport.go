package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Payload is the fixed push message shape.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link"`
}

// Transport attempts one push delivery. Best-effort, at-most-once: no
// retry and no queue behind it.
type Transport interface {
	Send(ctx context.Context, sub Subscription, payload Payload) error
}

// webhookTransport POSTs the payload to the subscription endpoint.
type webhookTransport struct {
	client *http.Client
}

// NewWebhookTransport builds a transport with a per-delivery timeout.
func NewWebhookTransport(timeout time.Duration) Transport {
	return &webhookTransport{client: &http.Client{Timeout: timeout}}
}

func (t *webhookTransport) Send(ctx context.Context, sub Subscription, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
