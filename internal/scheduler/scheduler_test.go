package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/founderboard/pkg/alert"
	"github.com/elonfeng/founderboard/pkg/discussion"
	"github.com/elonfeng/founderboard/pkg/feed"
)

type MockImporter struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) []feed.Result
}

func (m *MockImporter) ImportAll(ctx context.Context, sources []feed.Source) []feed.Result {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.fn(call)
}

func (m *MockImporter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockNotifier struct {
	mu   sync.Mutex
	sent []*alert.Notification
}

func (m *MockNotifier) Name() string { return "mock" }

func (m *MockNotifier) Send(ctx context.Context, n *alert.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

var sources = []feed.Source{{Name: "news", URL: "http://example.com", Category: "startups"}}

func TestRunOnce_NotifiesAndCallsHook(t *testing.T) {
	imp := &MockImporter{fn: func(int) []feed.Result {
		return []feed.Result{
			{Feed: "a", Imported: []discussion.Discussion{{ID: 1, Topic: "one"}, {ID: 2, Topic: "two"}}},
			{Feed: "b", Err: errors.New("down")},
		}
	}}
	notifier := &MockNotifier{}
	s := New(imp, sources, alert.NewManager([]alert.Notifier{notifier}), time.Minute, "http://board")

	var hooked []discussion.Discussion
	s.AfterImport = func(ctx context.Context, created []discussion.Discussion) { hooked = created }

	created := s.RunOnce(context.Background())

	assert.Len(t, created, 2)
	assert.Len(t, hooked, 2)
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "one", notifier.sent[0].Title)
	assert.Equal(t, "http://board/api/v1/discussions/1", notifier.sent[0].URL)
}

func TestRunOnce_NothingImported(t *testing.T) {
	imp := &MockImporter{fn: func(int) []feed.Result { return []feed.Result{{Feed: "a"}} }}
	s := New(imp, sources, nil, 0, "")

	called := false
	s.AfterImport = func(context.Context, []discussion.Discussion) { called = true }

	assert.Empty(t, s.RunOnce(context.Background()))
	assert.False(t, called)
	assert.Equal(t, time.Hour, s.interval)
}

func TestRunOnce_NoSources(t *testing.T) {
	imp := &MockImporter{fn: func(int) []feed.Result { return nil }}
	s := New(imp, nil, nil, time.Minute, "")

	s.RunOnce(context.Background())
	assert.Equal(t, 0, imp.Calls())
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	imp := &MockImporter{fn: func(int) []feed.Result { return nil }}
	s := New(imp, sources, nil, 10*time.Millisecond, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return imp.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
