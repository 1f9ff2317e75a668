// Package discussion owns the discussion board collection: threads with
// nested replies, kept as one JSON array under a single storage key.
package discussion

import (
	"errors"
	"fmt"
	"time"
)

// Key is the storage key holding the serialized collection.
const Key = "discussions"

// Reply is a response attached to a discussion.
type Reply struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// Time returns the reply creation time.
func (r Reply) Time() time.Time { return time.UnixMilli(r.Timestamp) }

// Discussion is a top-level thread. Replies always equals len(RepliesList)
// once a record has passed through the store.
type Discussion struct {
	ID            int64   `json:"id"`
	Topic         string  `json:"topic"`
	Category      string  `json:"category"`
	CategoryLabel string  `json:"categoryLabel"`
	Message       string  `json:"message"`
	Timestamp     int64   `json:"timestamp"` // Unix milliseconds
	Replies       int     `json:"replies"`
	IsSample      bool    `json:"isSample"`
	RepliesList   []Reply `json:"repliesList"`
}

// Time returns the discussion creation time.
func (d Discussion) Time() time.Time { return time.UnixMilli(d.Timestamp) }

// Category is a board section.
type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var categories = []Category{
	{Key: "startups", Label: "Startups 101"},
	{Key: "ai", Label: "AI in Entrepreneurship"},
	{Key: "ip", Label: "Patents & IP"},
	{Key: "data", Label: "Open Data"},
	{Key: "tools", Label: "Tools & Resources"},
	{Key: "general", Label: "General Discussion"},
}

// Categories returns the known categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryLabel resolves a category key to its display label.
func CategoryLabel(key string) (string, bool) {
	for _, c := range categories {
		if c.Key == key {
			return c.Label, true
		}
	}
	return "", false
}

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when deleting a sample discussion.
	ErrForbidden = errors.New("sample discussions cannot be deleted")
	// ErrNotFound is returned when no discussion has the requested id.
	ErrNotFound = errors.New("discussion not found")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
