package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kypria/zeus/deflect"
)

// slackColors maps severities to Slack attachment bar colors.
var slackColors = map[deflect.Severity]string{
	deflect.SeverityCritical: "#FF0000",
	deflect.SeverityHigh:     "#FFA500",
	deflect.SeverityWatch:    "#FFFF00",
	deflect.SeverityInfo:     "#36A64F",
}

// Slack posts events to a Slack incoming webhook.
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates a Slack channel for the given incoming-webhook URL.
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Slack) Name() string { return "slack" }

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer"`
	TS     int64        `json:"ts"`
}

func (s *Slack) Send(ctx context.Context, evt Event) error {
	color, ok := slackColors[evt.Severity]
	if !ok {
		color = slackColors[deflect.SeverityInfo]
	}
	att := slackAttachment{
		Color: color,
		Title: evt.Title(),
		Text:  evt.Message,
		Fields: []slackField{
			{Title: "Protocol", Value: evt.Protocol, Short: true},
			{Title: "Severity", Value: string(evt.Severity), Short: true},
		},
		Footer: "zeus monitor",
		TS:     evt.CreatedAt.Unix(),
	}
	if evt.Excerpt != "" {
		att.Fields = append(att.Fields, slackField{Title: "Excerpt", Value: evt.Excerpt})
	}
	payload := map[string]any{"attachments": []slackAttachment{att}}
	if err := postJSON(ctx, s.client, s.webhookURL, payload, nil); err != nil {
		return &ErrSendFailed{Channel: s.Name(), Cause: err}
	}
	return nil
}

// postJSON marshals payload and POSTs it, draining and closing the response.
// A non-2xx status is an error. headers may be nil.
func postJSON(ctx context.Context, client *http.Client, url string, payload any, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POST: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
