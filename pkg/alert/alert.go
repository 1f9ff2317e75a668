package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/elonfeng/founderboard/pkg/discussion"
)

// Kind tells what happened on the board.
type Kind string

const (
	KindDiscussion Kind = "discussion"
	KindReply      Kind = "reply"
)

// Notification is the data sent to alert destinations.
type Notification struct {
	Kind         Kind   `json:"kind"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	URL          string `json:"url,omitempty"`
	Category     string `json:"category"`
	DiscussionID int64  `json:"discussion_id"`
	ReplyID      int64  `json:"reply_id,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// ForDiscussion builds the notification for a newly posted discussion.
func ForDiscussion(d discussion.Discussion, baseURL string) *Notification {
	return &Notification{
		Kind:         KindDiscussion,
		Title:        d.Topic,
		Body:         excerpt(d.Message, 280),
		URL:          link(baseURL, d.ID),
		Category:     d.CategoryLabel,
		DiscussionID: d.ID,
		Timestamp:    d.Timestamp,
	}
}

// ForReply builds the notification for a reply added to d.
func ForReply(d discussion.Discussion, r discussion.Reply, baseURL string) *Notification {
	return &Notification{
		Kind:         KindReply,
		Title:        "Re: " + d.Topic,
		Body:         excerpt(r.Message, 280),
		URL:          link(baseURL, d.ID),
		Category:     d.CategoryLabel,
		DiscussionID: d.ID,
		ReplyID:      r.ID,
		Timestamp:    r.Timestamp,
	}
}

func link(baseURL string, id int64) string {
	if baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/v1/discussions/%d", baseURL, id)
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return m != nil && len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Notify broadcasts n and logs failures instead of returning them. Board
// operations never fail because a webhook is down.
func (m *Manager) Notify(ctx context.Context, n *Notification) {
	if !m.HasNotifiers() {
		return
	}
	if err := m.Broadcast(ctx, n); err != nil {
		slog.Warn("alert delivery failed", "kind", n.Kind, "discussion_id", n.DiscussionID, "error", err)
	}
}

// StatusError is a non-2xx webhook response. Dest is the notifier name;
// Broadcast already prefixes it, so Error leaves it out.
type StatusError struct {
	Dest string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// poster sends JSON payloads with retries. Client errors (4xx) other than
// 429 are not retried.
type poster struct {
	client   *http.Client
	attempts uint
	delay    time.Duration
}

func newPoster() poster {
	return poster{
		client:   &http.Client{Timeout: 10 * time.Second},
		attempts: 3,
		delay:    time.Second,
	}
}

func (p poster) post(ctx context.Context, dest, url string, body []byte, header http.Header) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create %s request: %w", dest, err))
			}
			req.Header.Set("Content-Type", "application/json")
			for k, v := range header {
				req.Header[k] = v
			}

			resp, err := p.client.Do(req)
			if err != nil {
				return fmt.Errorf("send request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			serr := &StatusError{Dest: dest, Code: resp.StatusCode}
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Unrecoverable(serr)
			}
			return serr
		},
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(p.delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("retrying webhook", "dest", dest, "attempt", n, "error", err)
		}),
	)
}
