package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	poster
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{poster: newPoster(), webhookURL: webhookURL}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	color := 0x2E86DE
	if n.Kind == KindReply {
		color = 0x27AE60
	}

	embed := map[string]any{
		"title":       headline(n),
		"description": fmt.Sprintf("**%s**\n\n%s", n.Category, n.Body),
		"color":       color,
		"timestamp":   time.UnixMilli(n.Timestamp).UTC().Format(time.RFC3339),
	}
	if n.URL != "" {
		embed["url"] = n.URL
	}

	body, err := json.Marshal(map[string]any{"embeds": []map[string]any{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	return d.post(ctx, d.Name(), d.webhookURL, body, nil)
}
