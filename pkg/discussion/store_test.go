package discussion

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

// MockStorage is an in-memory Storage that counts writes.
type MockStorage struct {
	getFunc func(key string) ([]byte, bool, error)
	setFunc func(key string, value []byte) error

	mu     sync.Mutex
	data   map[string][]byte
	writes int
}

func newMockStorage() *MockStorage {
	return &MockStorage{data: make(map[string][]byte)}
}

func (m *MockStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.getFunc != nil {
		return m.getFunc(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MockStorage) Set(ctx context.Context, key string, value []byte) error {
	if m.setFunc != nil {
		return m.setFunc(key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.data[key] = value
	return nil
}

func (m *MockStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MockStorage) stored(t *testing.T) []Discussion {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Discussion
	require.NoError(t, json.Unmarshal(m.data[Key], &out))
	return out
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// fakeClock returns testNow, advanced by step after every call.
func fakeClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := testNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := t
		t = t.Add(step)
		return now
	}
}

func newTestStore() (*Store, *MockStorage) {
	kv := newMockStorage()
	return NewStore(kv, fakeClock(0)), kv
}

// --- Tests ---

func TestLoad_SeedsEmptyStore(t *testing.T) {
	s, kv := newTestStore()

	discussions := s.Load(context.Background())

	require.Len(t, discussions, 3)
	assert.Equal(t, 1, kv.Writes())
	for i, want := range []int{5, 12, 8} {
		assert.Equal(t, want, discussions[i].Replies)
		assert.Len(t, discussions[i].RepliesList, want)
		assert.True(t, discussions[i].IsSample)
	}
	assert.Equal(t, "Startups 101", discussions[0].CategoryLabel)
	assert.Equal(t, "AI in Entrepreneurship", discussions[1].CategoryLabel)
	assert.Equal(t, "Patents & IP", discussions[2].CategoryLabel)
	assert.Equal(t, testNow.Add(-48*time.Hour).UnixMilli(), discussions[0].ID)

	// Second load reads the seeded value back without writing again.
	again := s.Load(context.Background())
	assert.Equal(t, discussions, again)
	assert.Equal(t, 1, kv.Writes())
}

func TestLoad_MalformedValueReseeds(t *testing.T) {
	for name, raw := range map[string]string{
		"broken json": `[{"id": 1,`,
		"wrong shape": `{"id": 1}`,
		"null":        `null`,
	} {
		t.Run(name, func(t *testing.T) {
			s, kv := newTestStore()
			kv.data[Key] = []byte(raw)

			discussions := s.Load(context.Background())

			assert.Len(t, discussions, 3)
			assert.Equal(t, 1, kv.Writes())
			assert.Len(t, kv.stored(t), 3)
		})
	}
}

func TestLoad_EmptyArrayIsKept(t *testing.T) {
	s, kv := newTestStore()
	kv.data[Key] = []byte(`[]`)

	discussions := s.Load(context.Background())

	assert.Empty(t, discussions)
	assert.Equal(t, 0, kv.Writes())
}

func TestLoad_ReadErrorReturnsSeedWithoutWriting(t *testing.T) {
	s, kv := newTestStore()
	kv.getFunc = func(key string) ([]byte, bool, error) {
		return nil, false, errors.New("disk on fire")
	}

	discussions := s.Load(context.Background())

	assert.Len(t, discussions, 3)
	assert.Equal(t, 0, kv.Writes())
}

func TestLoad_MigratesLegacyRecords(t *testing.T) {
	s, kv := newTestStore()
	kv.data[Key] = []byte(`[
		{"id": 10, "topic": "Old", "category": "general", "categoryLabel": "General Discussion",
		 "message": "legacy", "timestamp": 10, "replies": 4},
		{"id": 11, "topic": "Newer", "category": "ai", "categoryLabel": "AI in Entrepreneurship",
		 "message": "has replies", "timestamp": 11, "replies": 0, "isSample": false,
		 "repliesList": [{"id": 1, "message": "a", "timestamp": 1}, {"id": 2, "message": "b", "timestamp": 2}]}
	]`)

	discussions := s.Load(context.Background())

	require.Len(t, discussions, 2)
	assert.Equal(t, 1, kv.Writes())
	assert.NotNil(t, discussions[0].RepliesList)
	assert.Empty(t, discussions[0].RepliesList)
	assert.Equal(t, 0, discussions[0].Replies)
	assert.False(t, discussions[0].IsSample)
	assert.Equal(t, 2, discussions[1].Replies)

	// Already normalized: no further writes.
	s.Load(context.Background())
	assert.Equal(t, 1, kv.Writes())
}

func TestMigrate_Idempotent(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	replies := []Reply{{ID: 1, Message: "x", Timestamp: 1}}
	records := []Record{
		{ID: 1, Topic: "a", Category: "data", Message: "m", Replies: 9},
		{ID: 2, Topic: "b", Category: "ip", Message: "m", RepliesList: &replies},
	}

	first, err := s.Migrate(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 1, kv.Writes())

	normalized := make([]Record, len(first))
	for i, d := range first {
		normalized[i] = RecordOf(d)
	}
	second, err := s.Migrate(ctx, normalized)
	require.NoError(t, err)

	assert.Equal(t, 1, kv.Writes())
	assert.Equal(t, first, second)
	for _, d := range second {
		assert.Equal(t, len(d.RepliesList), d.Replies)
	}
}

func TestNormalize_ReportsAppliedVersions(t *testing.T) {
	sample := true
	empty := []Reply{}

	_, applied := Normalize([]Record{{ID: 1, IsSample: &sample, RepliesList: &empty}})
	assert.Empty(t, applied)

	_, applied = Normalize([]Record{{ID: 1, IsSample: &sample}})
	assert.Equal(t, []int{1}, applied)

	_, applied = Normalize([]Record{{ID: 1, Replies: 3}})
	assert.Equal(t, []int{1, 2, 3}, applied)
}

func TestCreateDiscussion(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	before := len(s.Load(ctx))

	d, err := s.CreateDiscussion(ctx, "  Where to find co-founders?  ", "startups", "\tAny tips?\n")
	require.NoError(t, err)

	assert.Equal(t, "Where to find co-founders?", d.Topic)
	assert.Equal(t, "Any tips?", d.Message)
	assert.Equal(t, "Startups 101", d.CategoryLabel)
	assert.Equal(t, testNow.UnixMilli(), d.ID)
	assert.Equal(t, testNow.UnixMilli(), d.Timestamp)
	assert.Zero(t, d.Replies)
	assert.NotNil(t, d.RepliesList)
	assert.False(t, d.IsSample)

	stored := kv.stored(t)
	require.Len(t, stored, before+1)
	assert.Equal(t, d, stored[0])
}

func TestCreateDiscussion_AllCategoryLabels(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	want := map[string]string{
		"startups": "Startups 101",
		"ai":       "AI in Entrepreneurship",
		"ip":       "Patents & IP",
		"data":     "Open Data",
		"tools":    "Tools & Resources",
		"general":  "General Discussion",
	}
	for key, label := range want {
		d, err := s.CreateDiscussion(ctx, "topic", key, "message")
		require.NoError(t, err)
		assert.Equal(t, label, d.CategoryLabel)
	}
	assert.Len(t, Categories(), len(want))
}

func TestCreateDiscussion_UniqueIDsWithinSameMillisecond(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	a, err := s.CreateDiscussion(ctx, "a", "general", "a")
	require.NoError(t, err)
	b, err := s.CreateDiscussion(ctx, "b", "general", "b")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	list := s.Load(ctx)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestCreateDiscussion_Validation(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		category string
		message  string
		field    string
	}{
		{"empty topic", "", "ai", "x", "topic"},
		{"blank topic", "   ", "ai", "x", "topic"},
		{"empty category", "t", "", "x", "category"},
		{"unknown category", "t", "crypto", "x", "category"},
		{"blank message", "t", "ai", " \n ", "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, kv := newTestStore()
			ctx := context.Background()
			s.Load(ctx)
			writes := kv.Writes()

			_, err := s.CreateDiscussion(ctx, tt.topic, tt.category, tt.message)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, writes, kv.Writes())
			assert.Len(t, kv.stored(t), 3)
		})
	}
}

func TestDeleteDiscussion(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	d, err := s.CreateDiscussion(ctx, "t", "tools", "m")
	require.NoError(t, err)

	require.NoError(t, s.DeleteDiscussion(ctx, d.ID))

	stored := kv.stored(t)
	assert.Len(t, stored, 3)
	for _, sd := range stored {
		assert.NotEqual(t, d.ID, sd.ID)
	}
}

func TestDeleteDiscussion_SampleIsForbidden(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	samples := s.Load(ctx)
	writes := kv.Writes()

	for _, d := range samples {
		err := s.DeleteDiscussion(ctx, d.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	}

	assert.Equal(t, writes, kv.Writes())
	assert.Len(t, s.Load(ctx), 3)
}

func TestDeleteDiscussion_NotFound(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	s.Load(ctx)
	writes := kv.Writes()

	err := s.DeleteDiscussion(ctx, 42)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, writes, kv.Writes())
}

func TestDeleteDiscussion_LastOneLeavesEmptyArray(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	kv.data[Key] = []byte(`[{"id": 5, "topic": "t", "category": "ai", "message": "m",
		"timestamp": 5, "replies": 0, "isSample": false, "repliesList": []}]`)

	require.NoError(t, s.DeleteDiscussion(ctx, 5))

	assert.Equal(t, `[]`, string(kv.data[Key]))
	assert.Empty(t, s.Load(ctx))
}

func TestAddReply(t *testing.T) {
	kv := newMockStorage()
	s := NewStore(kv, fakeClock(time.Millisecond))
	ctx := context.Background()
	target := s.Load(ctx)[1]

	r, err := s.AddReply(ctx, target.ID, "  Try Cursor too.  ")
	require.NoError(t, err)
	assert.Equal(t, "Try Cursor too.", r.Message)

	got, err := s.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, got.Replies)
	assert.Len(t, got.RepliesList, 13)
	assert.Equal(t, r, got.RepliesList[12])

	for _, d := range kv.stored(t) {
		assert.Equal(t, len(d.RepliesList), d.Replies)
	}
}

func TestAddReply_UniqueIDsWithinDiscussion(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	d, err := s.CreateDiscussion(ctx, "t", "ai", "m")
	require.NoError(t, err)

	a, err := s.AddReply(ctx, d.ID, "one")
	require.NoError(t, err)
	b, err := s.AddReply(ctx, d.ID, "two")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestAddReply_NotFoundDoesNotWrite(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	s.Load(ctx)
	writes := kv.Writes()

	_, err := s.AddReply(ctx, 123, "hello")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, writes, kv.Writes())
}

func TestAddReply_EmptyText(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	target := s.Load(ctx)[0]
	writes := kv.Writes()

	_, err := s.AddReply(ctx, target.ID, "   ")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, writes, kv.Writes())
}

func TestAddReply_WriteFailure(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	target := s.Load(ctx)[0]
	kv.setFunc = func(key string, value []byte) error { return errors.New("read-only") }

	_, err := s.AddReply(ctx, target.ID, "hello")

	assert.ErrorContains(t, err, "write discussions")
}

func TestListReplies_SortedByTimestamp(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()
	kv.data[Key] = []byte(`[{"id": 1, "topic": "t", "category": "ai", "message": "m",
		"timestamp": 1, "replies": 3, "isSample": false, "repliesList": [
			{"id": 30, "message": "third", "timestamp": 300},
			{"id": 10, "message": "first", "timestamp": 100},
			{"id": 20, "message": "second", "timestamp": 200}
		]}]`)

	replies, err := s.ListReplies(ctx, 1)
	require.NoError(t, err)

	require.Len(t, replies, 3)
	for i := 1; i < len(replies); i++ {
		assert.LessOrEqual(t, replies[i-1].Timestamp, replies[i].Timestamp)
	}
	assert.Equal(t, "first", replies[0].Message)

	// Stored order is untouched.
	stored, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), stored.RepliesList[0].ID)
}

func TestListReplies_NotFound(t *testing.T) {
	s, _ := newTestStore()

	_, err := s.ListReplies(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_FilterByCategory(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	ip := s.List(ctx, Filter{Category: "ip"})
	require.Len(t, ip, 1)
	assert.Equal(t, "Do I need a patent for my app idea?", ip[0].Topic)

	assert.Len(t, s.List(ctx, Filter{}), 3)
	assert.Empty(t, s.List(ctx, Filter{Category: "data"}))
}

func TestStore_ConcurrentReplies(t *testing.T) {
	kv := newMockStorage()
	s := NewStore(kv, nil)
	ctx := context.Background()
	target := s.Load(ctx)[2]

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddReply(ctx, target.ID, "concurrent")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 28, got.Replies)
	assert.Len(t, got.RepliesList, 28)
}
