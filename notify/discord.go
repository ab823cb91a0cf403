package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/kypria/zeus/deflect"
)

// discordColors maps severities to Discord embed colors (decimal RGB).
var discordColors = map[deflect.Severity]int{
	deflect.SeverityCritical: 0xFF0000,
	deflect.SeverityHigh:     0xFFA500,
	deflect.SeverityWatch:    0xFFFF00,
	deflect.SeverityInfo:     0x36A64F,
}

// Discord posts events to a Discord webhook as embeds.
type Discord struct {
	webhookURL string
	client     *http.Client
}

// NewDiscord creates a Discord channel for the given webhook URL.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *Discord) Name() string { return "discord" }

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp"`
}

func (d *Discord) Send(ctx context.Context, evt Event) error {
	color, ok := discordColors[evt.Severity]
	if !ok {
		color = discordColors[deflect.SeverityInfo]
	}
	embed := discordEmbed{
		Title:       evt.Title(),
		Description: evt.Message,
		Color:       color,
		Fields: []discordEmbedField{
			{Name: "Protocol", Value: evt.Protocol, Inline: true},
			{Name: "Severity", Value: string(evt.Severity), Inline: true},
		},
		Timestamp: evt.CreatedAt.UTC().Format(time.RFC3339),
	}
	if evt.Excerpt != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: "Excerpt", Value: evt.Excerpt})
	}
	payload := map[string]any{"embeds": []discordEmbed{embed}}
	if err := postJSON(ctx, d.client, d.webhookURL, payload, nil); err != nil {
		return &ErrSendFailed{Channel: d.Name(), Cause: err}
	}
	return nil
}
