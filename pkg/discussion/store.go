package discussion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Storage is the slice of the key-value store the discussion store needs.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	Category string
}

type newDiscussion struct {
	Topic    string `validate:"required"`
	Category string `validate:"required,category"`
	Message  string `validate:"required"`
}

type newReply struct {
	Message string `validate:"required"`
}

// Store is the sole owner of the discussions key. Every mutation is a full
// read-modify-write of the collection, serialized by mu.
type Store struct {
	kv       Storage
	now      func() time.Time
	validate *validator.Validate
	mu       sync.Mutex
}

// NewStore creates a discussion store. A nil clock means time.Now.
func NewStore(kv Storage, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := CategoryLabel(fl.Field().String())
		return ok
	})
	return &Store{kv: kv, now: now, validate: v}
}

// Load returns the current collection, seeding it on first use. It never
// fails: storage errors are logged and the sample set is returned unsaved.
func (s *Store) Load(ctx context.Context) []Discussion {
	s.mu.Lock()
	defer s.mu.Unlock()

	discussions, err := s.collection(ctx)
	if err != nil {
		slog.Error("load discussions", "error", err)
		return Seed(s.now())
	}
	return discussions
}

// Migrate normalizes stored records and persists them only if a migration
// step changed something.
func (s *Store) Migrate(ctx context.Context, records []Record) ([]Discussion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.migrate(ctx, records)
}

func (s *Store) migrate(ctx context.Context, records []Record) ([]Discussion, error) {
	discussions, applied := Normalize(records)
	if len(applied) == 0 {
		return discussions, nil
	}
	slog.Info("migrated discussions", "count", len(discussions), "versions", applied)
	if err := s.persist(ctx, discussions); err != nil {
		return nil, err
	}
	return discussions, nil
}

// Get returns a single discussion.
func (s *Store) Get(ctx context.Context, id int64) (Discussion, error) {
	for _, d := range s.Load(ctx) {
		if d.ID == id {
			return d, nil
		}
	}
	return Discussion{}, ErrNotFound
}

// List returns discussions newest first, optionally restricted to a category.
func (s *Store) List(ctx context.Context, f Filter) []Discussion {
	all := s.Load(ctx)
	if f.Category == "" {
		return all
	}
	out := make([]Discussion, 0, len(all))
	for _, d := range all {
		if d.Category == f.Category {
			out = append(out, d)
		}
	}
	return out
}

// CreateDiscussion validates the input, inserts a new discussion at the front
// of the collection and persists it.
func (s *Store) CreateDiscussion(ctx context.Context, topic, category, message string) (Discussion, error) {
	in := newDiscussion{
		Topic:    strings.TrimSpace(topic),
		Category: strings.TrimSpace(category),
		Message:  strings.TrimSpace(message),
	}
	if err := s.check(in); err != nil {
		return Discussion{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	discussions, err := s.collection(ctx)
	if err != nil {
		return Discussion{}, err
	}

	now := s.now().UnixMilli()
	label, _ := CategoryLabel(in.Category)
	d := Discussion{
		ID:            uniqueID(now, func(id int64) bool { return indexOf(discussions, id) >= 0 }),
		Topic:         in.Topic,
		Category:      in.Category,
		CategoryLabel: label,
		Message:       in.Message,
		Timestamp:     now,
		Replies:       0,
		IsSample:      false,
		RepliesList:   []Reply{},
	}

	discussions = append([]Discussion{d}, discussions...)
	if err := s.persist(ctx, discussions); err != nil {
		return Discussion{}, err
	}
	return d, nil
}

// DeleteDiscussion removes a user discussion. Samples are refused with
// ErrForbidden and unknown ids return ErrNotFound; neither writes.
func (s *Store) DeleteDiscussion(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	discussions, err := s.collection(ctx)
	if err != nil {
		return err
	}

	i := indexOf(discussions, id)
	if i < 0 {
		return ErrNotFound
	}
	if discussions[i].IsSample {
		return ErrForbidden
	}

	discussions = append(discussions[:i], discussions[i+1:]...)
	return s.persist(ctx, discussions)
}

// AddReply appends a reply to a discussion and keeps its reply count in step.
func (s *Store) AddReply(ctx context.Context, discussionID int64, text string) (Reply, error) {
	in := newReply{Message: strings.TrimSpace(text)}
	if err := s.check(in); err != nil {
		return Reply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	discussions, err := s.collection(ctx)
	if err != nil {
		return Reply{}, err
	}

	i := indexOf(discussions, discussionID)
	if i < 0 {
		return Reply{}, ErrNotFound
	}
	d := &discussions[i]

	now := s.now().UnixMilli()
	r := Reply{
		ID: uniqueID(now, func(id int64) bool {
			for _, existing := range d.RepliesList {
				if existing.ID == id {
					return true
				}
			}
			return false
		}),
		Message:   in.Message,
		Timestamp: now,
	}
	d.RepliesList = append(d.RepliesList, r)
	d.Replies = len(d.RepliesList)

	if err := s.persist(ctx, discussions); err != nil {
		return Reply{}, err
	}
	return r, nil
}

// ListReplies returns a discussion's replies oldest first. Stored order is
// left untouched.
func (s *Store) ListReplies(ctx context.Context, discussionID int64) ([]Reply, error) {
	d, err := s.Get(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	return SortReplies(d.RepliesList), nil
}

// SortReplies returns a copy of replies ordered by timestamp, ties kept in
// insertion order.
func SortReplies(replies []Reply) []Reply {
	out := make([]Reply, len(replies))
	copy(out, replies)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// collection reads and normalizes the stored value. A missing or malformed
// value is replaced with the seed set. Callers must hold mu.
func (s *Store) collection(ctx context.Context) ([]Discussion, error) {
	data, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("read discussions: %w", err)
	}

	var records []Record
	if ok {
		if err := json.Unmarshal(data, &records); err != nil {
			slog.Warn("stored discussions are malformed, reseeding", "error", err)
			ok = false
		} else if records == nil {
			// A literal null is as good as absent.
			ok = false
		}
	}

	if !ok {
		seed := Seed(s.now())
		if err := s.persist(ctx, seed); err != nil {
			return nil, err
		}
		slog.Info("seeded sample discussions", "count", len(seed))
		return seed, nil
	}

	return s.migrate(ctx, records)
}

func (s *Store) persist(ctx context.Context, discussions []Discussion) error {
	if discussions == nil {
		discussions = []Discussion{}
	}
	data, err := json.Marshal(discussions)
	if err != nil {
		return fmt.Errorf("marshal discussions: %w", err)
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("write discussions: %w", err)
	}
	return nil
}

func (s *Store) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate input: %w", err)
	}

	fe := verrs[0]
	reason := "is required"
	if fe.Tag() == "category" {
		reason = "is not a known category"
	}
	return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: reason}
}

func indexOf(discussions []Discussion, id int64) int {
	for i := range discussions {
		if discussions[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueID starts from a millisecond timestamp and steps forward until the id
// is free in its collection.
func uniqueID(start int64, taken func(int64) bool) int64 {
	id := start
	for taken(id) {
		id++
	}
	return id
}
