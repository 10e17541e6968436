package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Webhook covers platforms that accept a single unauthenticated POST to a
// pre-shared URL (Discord, Slack). Success is any 2xx; most webhook responses
// carry no message identifier.
type Webhook struct {
	platform string
	field    string
	client   *http.Client
}

func NewDiscord(client *http.Client) *Webhook {
	return &Webhook{platform: "discord", field: "content", client: client}
}

func NewSlack(client *http.Client) *Webhook {
	return &Webhook{platform: "slack", field: "text", client: client}
}

func (w *Webhook) Publish(ctx context.Context, content string, creds Credentials, mediaURLs []string) Result {
	if creds.WebhookURL == "" {
		return failure(w.platform, "missing webhook URL")
	}

	payload := map[string]string{w.field: content}
	body, err := json.Marshal(payload)
	if err != nil {
		return failure(w.platform, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return failure(w.platform, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return failure(w.platform, err.Error())
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(w.platform, fmt.Sprintf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	return Result{Platform: w.platform, Success: true}
}
