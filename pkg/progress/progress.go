// Package progress tracks learning progress, the MVP checklist and the
// achievements they unlock.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Storage keys.
const (
	ProgressKey       = "userProgress"
	MVPKey            = "mvpProgress"
	achievementPrefix = "achievement-"
	lastUpdatedField  = "lastUpdated"
)

// ErrInvalidItem is returned for an empty or reserved section or item name.
var ErrInvalidItem = errors.New("invalid progress item")

// Storage is the key-value store progress lives in.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Achievement is a one-time unlock.
type Achievement struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

var (
	starter     = Achievement{ID: "starter", Title: "Getting Started", Desc: "Completed 5 items"}
	learner     = Achievement{ID: "learner", Title: "Dedicated Learner", Desc: "Completed 20 items"}
	mvpComplete = Achievement{ID: "mvp-complete", Title: "MVP Master", Desc: "Completed all MVP milestones"}
)

// Progress maps section -> item -> completed.
type Progress struct {
	Sections    map[string]map[string]bool
	LastUpdated int64 // Unix milliseconds, zero when never saved
}

// SectionNames returns the tracked sections, sorted.
func (p Progress) SectionNames() []string {
	names := make([]string, 0, len(p.Sections))
	for name := range p.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SectionPercent is the rounded share of completed items in a section.
func (p Progress) SectionPercent(section string) int {
	items := p.Sections[section]
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, ok := range items {
		if ok {
			done++
		}
	}
	return percent(done, len(items))
}

// Knowledge is the rounded share of sections whose items are all complete.
func (p Progress) Knowledge() int {
	if len(p.Sections) == 0 {
		return 0
	}
	complete := 0
	for _, items := range p.Sections {
		if len(items) == 0 {
			continue
		}
		all := true
		for _, ok := range items {
			if !ok {
				all = false
				break
			}
		}
		if all {
			complete++
		}
	}
	return percent(complete, len(p.Sections))
}

// Completed counts completed items across all sections.
func (p Progress) Completed() int {
	n := 0
	for _, items := range p.Sections {
		for _, ok := range items {
			if ok {
				n++
			}
		}
	}
	return n
}

// MarshalJSON writes the flat browser layout: sections next to lastUpdated.
func (p Progress) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Sections)+1)
	for name, items := range p.Sections {
		out[name] = items
	}
	if p.LastUpdated != 0 {
		out[lastUpdatedField] = p.LastUpdated
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat browser layout. Entries that are not
// section objects are ignored.
func (p *Progress) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Sections = make(map[string]map[string]bool, len(raw))
	for name, value := range raw {
		if name == lastUpdatedField {
			var ts float64
			if err := json.Unmarshal(value, &ts); err == nil {
				p.LastUpdated = int64(ts)
			}
			continue
		}
		var items map[string]bool
		if err := json.Unmarshal(value, &items); err != nil {
			continue
		}
		p.Sections[name] = items
	}
	return nil
}

// Tracker reads and writes progress state.
type Tracker struct {
	kv  Storage
	now func() time.Time
	mu  sync.Mutex
}

// NewTracker creates a tracker. A nil clock means time.Now.
func NewTracker(kv Storage, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{kv: kv, now: now}
}

// Load returns saved progress. A malformed value reads as empty.
func (t *Tracker) Load(ctx context.Context) (Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(ctx)
}

func (t *Tracker) load(ctx context.Context) (Progress, error) {
	empty := Progress{Sections: map[string]map[string]bool{}}
	data, ok, err := t.kv.Get(ctx, ProgressKey)
	if err != nil {
		return empty, fmt.Errorf("read progress: %w", err)
	}
	if !ok {
		return empty, nil
	}
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("stored progress is malformed, starting over", "error", err)
		return empty, nil
	}
	return p, nil
}

// SetItem records an item's completion and returns the updated progress with
// any achievements unlocked by this change.
func (t *Tracker) SetItem(ctx context.Context, section, item string, completed bool) (Progress, []Achievement, error) {
	if section == "" || item == "" || section == lastUpdatedField {
		return Progress{}, nil, fmt.Errorf("%w %q/%q", ErrInvalidItem, section, item)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.load(ctx)
	if err != nil {
		return Progress{}, nil, err
	}
	if p.Sections[section] == nil {
		p.Sections[section] = map[string]bool{}
	}
	p.Sections[section][item] = completed
	p.LastUpdated = t.now().UnixMilli()

	data, err := json.Marshal(p)
	if err != nil {
		return Progress{}, nil, fmt.Errorf("marshal progress: %w", err)
	}
	if err := t.kv.Set(ctx, ProgressKey, data); err != nil {
		return Progress{}, nil, fmt.Errorf("write progress: %w", err)
	}

	var unlocked []Achievement
	total := p.Completed()
	for _, rule := range []struct {
		min int
		a   Achievement
	}{{5, starter}, {20, learner}} {
		if total < rule.min {
			continue
		}
		ok, err := t.unlock(ctx, rule.a)
		if err != nil {
			return p, unlocked, err
		}
		if ok {
			unlocked = append(unlocked, rule.a)
		}
	}
	return p, unlocked, nil
}

// LoadMVP returns the MVP checklist in milestone order.
func (t *Tracker) LoadMVP(ctx context.Context) ([]bool, error) {
	data, ok, err := t.kv.Get(ctx, MVPKey)
	if err != nil {
		return nil, fmt.Errorf("read mvp progress: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("stored mvp progress is malformed", "error", err)
		return nil, nil
	}

	checked := make([]bool, 0, len(raw))
	for i := 1; ; i++ {
		v, ok := raw[fmt.Sprintf("mvp%d", i)]
		if !ok {
			break
		}
		checked = append(checked, v)
	}
	return checked, nil
}

// SaveMVP stores the checklist and returns its completion percent. Reaching
// 100% unlocks the MVP achievement once.
func (t *Tracker) SaveMVP(ctx context.Context, checked []bool) (int, []Achievement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw := make(map[string]bool, len(checked))
	for i, c := range checked {
		raw[fmt.Sprintf("mvp%d", i+1)] = c
	}
	pct := MVPPercent(checked)

	data, err := json.Marshal(raw)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal mvp progress: %w", err)
	}
	if err := t.kv.Set(ctx, MVPKey, data); err != nil {
		return 0, nil, fmt.Errorf("write mvp progress: %w", err)
	}

	if pct < 100 {
		return pct, nil, nil
	}
	ok, err := t.unlock(ctx, mvpComplete)
	if err != nil || !ok {
		return pct, nil, err
	}
	return pct, []Achievement{mvpComplete}, nil
}

// MVPPercent is the rounded share of checked milestones, 0 for an empty list.
func MVPPercent(checked []bool) int {
	if len(checked) == 0 {
		return 0
	}
	done := 0
	for _, c := range checked {
		if c {
			done++
		}
	}
	return percent(done, len(checked))
}

// Unlocked lists achievements already earned, in unlock-rule order. Keys
// for unknown achievements are ignored.
func (t *Tracker) Unlocked(ctx context.Context) ([]Achievement, error) {
	keys, err := t.kv.Keys(ctx, achievementPrefix)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	earned := make(map[string]bool, len(keys))
	for _, k := range keys {
		earned[strings.TrimPrefix(k, achievementPrefix)] = true
	}

	var out []Achievement
	for _, a := range []Achievement{starter, learner, mvpComplete} {
		if earned[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// Reset clears progress, the MVP checklist and every achievement, so they
// can be earned again.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys, err := t.kv.Keys(ctx, achievementPrefix)
	if err != nil {
		return fmt.Errorf("list achievements: %w", err)
	}
	for _, k := range append([]string{ProgressKey, MVPKey}, keys...) {
		if err := t.kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	slog.Info("progress reset", "achievements", len(keys))
	return nil
}

// unlock records a. It reports false when a was already unlocked.
func (t *Tracker) unlock(ctx context.Context, a Achievement) (bool, error) {
	key := achievementPrefix + a.ID
	_, ok, err := t.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read achievement %s: %w", a.ID, err)
	}
	if ok {
		return false, nil
	}
	if err := t.kv.Set(ctx, key, []byte("true")); err != nil {
		return false, fmt.Errorf("write achievement %s: %w", a.ID, err)
	}
	slog.Info("achievement unlocked", "id", a.ID)
	return true, nil
}

func percent(n, total int) int {
	return int(math.Round(float64(n) / float64(total) * 100))
}
