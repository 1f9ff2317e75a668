// Package render turns stored discussions into display-ready views.
package render

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"strings"
	"time"

	"github.com/elonfeng/founderboard/pkg/discussion"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ReplyView is a reply ready for display.
type ReplyView struct {
	ID       int64  `json:"id"`
	BodyHTML string `json:"body_html"`
	Posted   string `json:"posted"`
}

// DiscussionView is a discussion ready for display. Replies are oldest first.
type DiscussionView struct {
	ID            int64       `json:"id"`
	Topic         string      `json:"topic"`
	Category      string      `json:"category"`
	CategoryLabel string      `json:"category_label"`
	BodyHTML      string      `json:"body_html"`
	Posted        string      `json:"posted"`
	RepliesLabel  string      `json:"replies_label"`
	Deletable     bool        `json:"deletable"`
	Replies       []ReplyView `json:"replies"`
}

// Renderer converts user text to sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	now    func() time.Time
}

// New creates a renderer. A nil clock means time.Now.
func New(now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	// Raw HTML in user text is dropped by goldmark; bluemonday is the backstop.
	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return &Renderer{md: md, policy: bluemonday.UGCPolicy(), now: now}
}

// HTML renders markdown text and sanitizes the result.
func (r *Renderer) HTML(text string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return r.plain(text)
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String()))
}

// Discussion builds the view for d.
func (r *Renderer) Discussion(d discussion.Discussion) DiscussionView {
	now := r.now()
	replies := r.Replies(discussion.SortReplies(d.RepliesList))

	return DiscussionView{
		ID:            d.ID,
		Topic:         d.Topic,
		Category:      d.Category,
		CategoryLabel: d.CategoryLabel,
		BodyHTML:      r.HTML(d.Message),
		Posted:        "Posted " + discussion.RelativeAge(d.Time(), now),
		RepliesLabel:  RepliesLabel(len(d.RepliesList)),
		Deletable:     !d.IsSample,
		Replies:       replies,
	}
}

// Discussions builds views for a whole collection, keeping order.
func (r *Renderer) Discussions(ds []discussion.Discussion) []DiscussionView {
	out := make([]DiscussionView, len(ds))
	for i, d := range ds {
		out[i] = r.Discussion(d)
	}
	return out
}

// Reply builds the view for a single reply.
func (r *Renderer) Reply(rep discussion.Reply) ReplyView {
	return ReplyView{
		ID:       rep.ID,
		BodyHTML: r.HTML(rep.Message),
		Posted:   discussion.RelativeAge(rep.Time(), r.now()),
	}
}

// Replies builds views for replies, keeping order.
func (r *Renderer) Replies(replies []discussion.Reply) []ReplyView {
	out := make([]ReplyView, len(replies))
	for i, rep := range replies {
		out[i] = r.Reply(rep)
	}
	return out
}

// RepliesLabel words a reply count.
func RepliesLabel(n int) string {
	if n == 1 {
		return "1 reply"
	}
	return fmt.Sprintf("%d replies", n)
}

// plain is the fallback when markdown conversion fails: the text is shown
// escaped, without formatting.
func (r *Renderer) plain(text string) string {
	return r.policy.Sanitize(stdhtml.EscapeString(text))
}
