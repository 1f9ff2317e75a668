package render

import (
	"testing"
	"time"

	"github.com/elonfeng/founderboard/pkg/discussion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestHTML(t *testing.T) {
	r := New(func() time.Time { return testNow })

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			input:    "this is **important**",
			contains: []string{"<strong>important</strong>"},
		},
		{
			name:     "strikethrough",
			input:    "~~old idea~~",
			contains: []string{"<del>old idea</del>"},
		},
		{
			name:     "script is dropped",
			input:    "hi <script>alert(1)</script>",
			contains: []string{"hi"},
			excludes: []string{"<script", "alert(1)</script>"},
		},
		{
			name:     "event handlers are stripped",
			input:    `see <a href="javascript:alert(1)">x</a> <img src=x onerror=alert(1)>`,
			excludes: []string{"javascript:", "onerror"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.HTML(tt.input)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, out, e)
			}
		})
	}
}

func TestDiscussion(t *testing.T) {
	r := New(func() time.Time { return testNow })
	d := discussion.Discussion{
		ID:            1,
		Topic:         "Pitch decks",
		Category:      "startups",
		CategoryLabel: "Startups 101",
		Message:       "How long should it be?",
		Timestamp:     testNow.Add(-2 * time.Hour).UnixMilli(),
		Replies:       2,
		RepliesList: []discussion.Reply{
			{ID: 3, Message: "later", Timestamp: testNow.Add(-time.Minute).UnixMilli()},
			{ID: 2, Message: "earlier", Timestamp: testNow.Add(-30 * time.Minute).UnixMilli()},
		},
	}

	v := r.Discussion(d)

	assert.Equal(t, "Posted 2 hours ago", v.Posted)
	assert.Equal(t, "2 replies", v.RepliesLabel)
	assert.True(t, v.Deletable)
	require.Len(t, v.Replies, 2)
	assert.Equal(t, int64(2), v.Replies[0].ID)
	assert.Equal(t, "30 minutes ago", v.Replies[0].Posted)
	assert.Equal(t, "1 minute ago", v.Replies[1].Posted)
	assert.Equal(t, "<p>How long should it be?</p>", v.BodyHTML)

	d.IsSample = true
	assert.False(t, r.Discussion(d).Deletable)
}

func TestRepliesLabel(t *testing.T) {
	assert.Equal(t, "0 replies", RepliesLabel(0))
	assert.Equal(t, "1 reply", RepliesLabel(1))
	assert.Equal(t, "12 replies", RepliesLabel(12))
}

func TestPlain(t *testing.T) {
	r := New(nil)

	got := r.plain(`<b>Tom & Jerry's</b> "deck"`)
	assert.NotContains(t, got, "<b>")
	assert.Contains(t, got, "&lt;b&gt;")
	assert.Contains(t, got, "Tom &amp; Jerry")
}
