// Package search provides full-text search over discussions.
package search

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/elonfeng/founderboard/pkg/discussion"
)

// Hit is a matching discussion.
type Hit struct {
	ID        int64               `json:"id"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

type document struct {
	Topic    string
	Message  string
	Category string
	Replies  string
}

// Index wraps an in-memory bleve index. The collection is small, so the
// index is rebuilt wholesale rather than patched.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// New creates an empty index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"

	// Topics get English stemming so "patents" finds "patent".
	topic := bleve.NewTextFieldMapping()
	topic.Analyzer = "en"

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("Topic", topic)
	doc.AddFieldMappingsAt("Message", text)
	doc.AddFieldMappingsAt("Replies", text)
	doc.AddFieldMappingsAt("Category", keyword)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Rebuild replaces the index contents with ds.
func (i *Index) Rebuild(ds []discussion.Discussion) error {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	for _, d := range ds {
		replies := make([]string, len(d.RepliesList))
		for j, r := range d.RepliesList {
			replies[j] = r.Message
		}
		err := batch.Index(strconv.FormatInt(d.ID, 10), document{
			Topic:    d.Topic,
			Message:  d.Message,
			Category: d.Category,
			Replies:  strings.Join(replies, "\n"),
		})
		if err != nil {
			idx.Close()
			return fmt.Errorf("index discussion %d: %w", d.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return fmt.Errorf("apply batch: %w", err)
	}

	i.mu.Lock()
	old := i.index
	i.index = idx
	i.mu.Unlock()
	return old.Close()
}

// Search runs a match query across topic, message and replies. A blank query
// returns no hits.
func (i *Index) Search(query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	topic := bleve.NewMatchQuery(query)
	topic.SetField("Topic")
	topic.SetBoost(3)
	message := bleve.NewMatchQuery(query)
	message.SetField("Message")
	replies := bleve.NewMatchQuery(query)
	replies.SetField("Replies")

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(topic, message, replies), limit, 0, false)
	req.Highlight = bleve.NewHighlight()

	i.mu.RLock()
	res, err := i.index.Search(req)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: h.Score, Fragments: h.Fragments})
	}
	return hits, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}
