package alert

import (
	"context"
	"encoding/json"
	"fmt"
)

// Slack sends notifications via Slack incoming webhook.
type Slack struct {
	poster
	webhookURL string
}

// NewSlack creates a new Slack notifier.
func NewSlack(webhookURL string) *Slack {
	return &Slack{poster: newPoster(), webhookURL: webhookURL}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": headline(n),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*%s*\n%s", n.Category, n.Body),
			},
		},
	}

	if n.URL != "" {
		blocks = append(blocks, map[string]any{
			"type": "context",
			"elements": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("<%s|View discussion>", n.URL)},
			},
		})
	}

	body, err := json.Marshal(map[string]any{"blocks": blocks})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	return s.post(ctx, s.Name(), s.webhookURL, body, nil)
}

func headline(n *Notification) string {
	if n.Kind == KindReply {
		return "💬 " + n.Title
	}
	return "📝 " + n.Title
}
