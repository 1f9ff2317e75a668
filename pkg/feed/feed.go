// Package feed imports RSS and Atom entries into the discussion board.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/elonfeng/founderboard/pkg/discussion"
)

// Source is a named feed whose entries land in one board category.
type Source struct {
	Name     string
	URL      string
	Category string
	Filter   *Filter // nil accepts every entry
}

// Board is the part of the discussion store the importer needs.
type Board interface {
	List(ctx context.Context, f discussion.Filter) []discussion.Discussion
	CreateDiscussion(ctx context.Context, topic, category, message string) (discussion.Discussion, error)
}

// Result summarizes one feed import.
type Result struct {
	Feed     string                  `json:"feed"`
	Imported []discussion.Discussion `json:"imported"`
	Skipped  int                     `json:"skipped"`
	Err      error                   `json:"-"`
}

const (
	defaultMaxItems = 10
	maxMessageRunes = 500
)

// Importer turns feed entries into discussions.
type Importer struct {
	client   *http.Client
	parser   *gofeed.Parser
	board    Board
	maxItems int
}

// NewImporter creates an importer posting to board. maxItems caps the entries
// taken from each feed per run.
func NewImporter(board Board, maxItems int) *Importer {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &Importer{
		client:   &http.Client{Timeout: 30 * time.Second},
		parser:   gofeed.NewParser(),
		board:    board,
		maxItems: maxItems,
	}
}

// ImportAll imports every source. A failing feed is reported in its Result
// and does not stop the others.
func (im *Importer) ImportAll(ctx context.Context, sources []Source) []Result {
	results := make([]Result, 0, len(sources))
	for _, src := range sources {
		res, err := im.Import(ctx, src)
		if err != nil {
			slog.Warn("feed import failed", "feed", src.Name, "error", err)
			res.Err = err
		}
		results = append(results, res)
	}
	return results
}

// Import fetches one feed and posts entries whose title is not already a
// discussion topic.
func (im *Importer) Import(ctx context.Context, src Source) (Result, error) {
	res := Result{Feed: src.Name}

	parsed, err := im.fetch(ctx, src)
	if err != nil {
		return res, err
	}

	seen := make(map[string]bool)
	for _, d := range im.board.List(ctx, discussion.Filter{}) {
		seen[topicKey(d.Topic)] = true
	}

	for i, entry := range parsed.Items {
		if i >= im.maxItems {
			break
		}
		topic := strings.TrimSpace(entry.Title)
		if topic == "" || seen[topicKey(topic)] || !src.Filter.Match(topic+" "+entry.Description) {
			res.Skipped++
			continue
		}

		d, err := im.board.CreateDiscussion(ctx, topic, src.Category, Message(entry))
		if err != nil {
			return res, fmt.Errorf("post entry %q from %s: %w", topic, src.Name, err)
		}
		seen[topicKey(topic)] = true
		res.Imported = append(res.Imported, d)
	}

	slog.Info("feed imported", "feed", src.Name, "imported", len(res.Imported), "skipped", res.Skipped)
	return res, nil
}

func (im *Importer) fetch(ctx context.Context, src Source) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", src.Name, err)
	}
	req.Header.Set("User-Agent", "founderboard/1.0")

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", src.Name, resp.StatusCode)
	}

	parsed, err := im.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}
	return parsed, nil
}

// Message builds the discussion body for a feed entry: the plain-text summary
// followed by the entry link.
func Message(entry *gofeed.Item) string {
	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}
	text := truncate(PlainText(summary), maxMessageRunes)

	link := entry.Link
	if link == "" && len(entry.Links) > 0 {
		link = entry.Links[0]
	}

	switch {
	case text != "" && link != "":
		return text + "\n\nSource: " + link
	case text != "":
		return text
	case link != "":
		return "Source: " + link
	default:
		return strings.TrimSpace(entry.Title)
	}
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
func PlainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func topicKey(topic string) string {
	return strings.ToLower(strings.Join(strings.Fields(topic), " "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
