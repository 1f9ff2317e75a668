package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/elonfeng/founderboard/pkg/alert"
	"github.com/elonfeng/founderboard/pkg/discussion"
	"github.com/elonfeng/founderboard/pkg/feed"
)

// Importer imports a set of feeds.
type Importer interface {
	ImportAll(ctx context.Context, sources []feed.Source) []feed.Result
}

// Scheduler runs periodic feed imports.
type Scheduler struct {
	importer Importer
	sources  []feed.Source
	alertMgr *alert.Manager
	interval time.Duration
	baseURL  string

	// AfterImport, when set, is called with the discussions created by a run.
	AfterImport func(ctx context.Context, created []discussion.Discussion)
}

// New creates a new scheduler.
func New(importer Importer, sources []feed.Source, alertMgr *alert.Manager, interval time.Duration, baseURL string) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		importer: importer,
		sources:  sources,
		alertMgr: alertMgr,
		interval: interval,
		baseURL:  baseURL,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("scheduler: initial import", "feeds", len(s.sources))
	s.RunOnce(ctx)

	slog.Info("scheduler: running", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce imports every feed once, announces new discussions and returns
// them.
func (s *Scheduler) RunOnce(ctx context.Context) []discussion.Discussion {
	if len(s.sources) == 0 {
		return nil
	}

	var created []discussion.Discussion
	failed := 0
	for _, res := range s.importer.ImportAll(ctx, s.sources) {
		if res.Err != nil {
			failed++
		}
		created = append(created, res.Imported...)
	}

	for _, d := range created {
		s.alertMgr.Notify(ctx, alert.ForDiscussion(d, s.baseURL))
	}
	if len(created) > 0 && s.AfterImport != nil {
		s.AfterImport(ctx, created)
	}

	slog.Info("scheduler: import done", "created", len(created), "failed_feeds", failed)
	return created
}
