package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"
)

// Webhook POSTs the raw event JSON to an arbitrary HTTP endpoint, for systems
// that want the structured payload rather than a chat rendering.
//
// When a secret is configured the body is signed with HMAC-SHA256 and the
// hex digest is sent in X-Signature-256 ("sha256=" prefixed, GitHub-style).
type Webhook struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhook creates a generic webhook channel. secret may be empty.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, evt Event) error {
	var headers map[string]string
	if w.secret != "" {
		body, err := json.Marshal(evt)
		if err != nil {
			return &ErrSendFailed{Channel: w.Name(), Cause: err}
		}
		mac := hmac.New(sha256.New, []byte(w.secret))
		mac.Write(body)
		headers = map[string]string{
			"X-Signature-256": "sha256=" + hex.EncodeToString(mac.Sum(nil)),
		}
	}
	if err := postJSON(ctx, w.client, w.url, evt, headers); err != nil {
		return &ErrSendFailed{Channel: w.Name(), Cause: err}
	}
	return nil
}
