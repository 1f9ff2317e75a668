package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/elonfeng/founderboard/internal/config"
	"github.com/elonfeng/founderboard/internal/logger"
	"github.com/elonfeng/founderboard/internal/scheduler"
	"github.com/elonfeng/founderboard/internal/store"
	"github.com/elonfeng/founderboard/pkg/alert"
	"github.com/elonfeng/founderboard/pkg/calc"
	"github.com/elonfeng/founderboard/pkg/discussion"
	"github.com/elonfeng/founderboard/pkg/feed"
	"github.com/elonfeng/founderboard/pkg/progress"
	"github.com/elonfeng/founderboard/pkg/render"
	"github.com/elonfeng/founderboard/pkg/search"
	"github.com/elonfeng/founderboard/pkg/server"
)

// out is where command results go; logs go to stderr.
var out io.Writer = os.Stdout

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.JSON)
	return cfg, nil
}

// app holds the components a command works with.
type app struct {
	cfg         *config.Config
	db          *store.SQLStore
	discussions *discussion.Store
	progress    *progress.Tracker
	renderer    *render.Renderer
	alerts      *alert.Manager
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Database.Driver, cfg.Database.Source())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	slog.Debug("store opened", "driver", db.Driver())

	return &app{
		cfg:         cfg,
		db:          db,
		discussions: discussion.NewStore(db, nil),
		progress:    progress.NewTracker(db, nil),
		renderer:    render.New(nil),
		alerts:      buildAlertManager(cfg),
	}, nil
}

func (a *app) Close() error { return a.db.Close() }

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func feedSources(cfg *config.Config, only []string) ([]feed.Source, error) {
	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var sources []feed.Source
	for _, f := range cfg.Feeds.Sources {
		if len(wanted) > 0 && !wanted[strings.ToLower(f.Name)] {
			continue
		}
		src := feed.Source{Name: f.Name, URL: f.URL, Category: f.Category}
		if len(f.Include) > 0 || len(f.Exclude) > 0 {
			src.Filter = feed.NewFilter(f.Include, f.Exclude)
		}
		sources = append(sources, src)
	}
	if len(only) > 0 && len(sources) == 0 {
		return nil, fmt.Errorf("no matching feeds for: %s", strings.Join(only, ", "))
	}
	return sources, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runList(category string, jsonOutput bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	views := a.renderer.Discussions(a.discussions.List(context.Background(), discussion.Filter{Category: category}))
	if jsonOutput {
		return printJSON(views)
	}

	if len(views) == 0 {
		fmt.Fprintln(out, "no discussions found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tREPLIES\tPOSTED\tTOPIC")
	for _, v := range views {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", v.ID, v.CategoryLabel, v.RepliesLabel, strings.TrimPrefix(v.Posted, "Posted "), v.Topic)
	}
	return w.Flush()
}

func runPost(topic, category, message string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	d, err := a.discussions.CreateDiscussion(ctx, topic, category, message)
	if err != nil {
		return err
	}
	a.alerts.Notify(ctx, alert.ForDiscussion(d, a.cfg.Server.BaseURL))

	fmt.Fprintf(out, "posted discussion %d in %s\n", d.ID, d.CategoryLabel)
	return nil
}

func runReply(id int64, message string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	r, err := a.discussions.AddReply(ctx, id, message)
	if err != nil {
		return err
	}
	if d, err := a.discussions.Get(ctx, id); err == nil {
		a.alerts.Notify(ctx, alert.ForReply(d, r, a.cfg.Server.BaseURL))
		fmt.Fprintf(out, "replied to %q (%s)\n", d.Topic, render.RepliesLabel(d.Replies))
		return nil
	}
	fmt.Fprintf(out, "reply %d added\n", r.ID)
	return nil
}

func runDelete(id int64) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.discussions.DeleteDiscussion(context.Background(), id); err != nil {
		if errors.Is(err, discussion.ErrForbidden) {
			return fmt.Errorf("discussion %d is a sample and cannot be deleted", id)
		}
		return err
	}
	fmt.Fprintf(out, "deleted discussion %d\n", id)
	return nil
}

func runReplies(id int64, jsonOutput bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	replies, err := a.discussions.ListReplies(context.Background(), id)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(replies)
	}

	if len(replies) == 0 {
		fmt.Fprintln(out, "no replies yet")
		return nil
	}
	now := time.Now()
	for _, r := range replies {
		fmt.Fprintf(out, "[%s] %s\n", discussion.RelativeAge(r.Time(), now), r.Message)
	}
	return nil
}

func runSearch(terms []string, limit int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if limit <= 0 {
		limit = a.cfg.Search.MaxResults
	}

	idx, err := search.New()
	if err != nil {
		return err
	}
	defer idx.Close()

	ds := a.discussions.List(context.Background(), discussion.Filter{})
	if err := idx.Rebuild(ds); err != nil {
		return err
	}

	hits, err := idx.Search(strings.Join(terms, " "), limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(out, "no matches")
		return nil
	}

	topics := make(map[int64]string, len(ds))
	for _, d := range ds {
		topics[d.ID] = d.Topic
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tID\tTOPIC")
	for _, h := range hits {
		fmt.Fprintf(w, "%.2f\t%d\t%s\n", h.Score, h.ID, topics[h.ID])
	}
	return w.Flush()
}

func runProgress(jsonOutput bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	p, err := a.progress.Load(ctx)
	if err != nil {
		return err
	}
	earned, err := a.progress.Unlocked(ctx)
	if err != nil {
		return err
	}
	mvp, err := a.progress.LoadMVP(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]any{
			"progress":     p,
			"knowledge":    p.Knowledge(),
			"mvp_percent":  progress.MVPPercent(mvp),
			"achievements": earned,
		})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tCOMPLETE")
	for _, name := range p.SectionNames() {
		fmt.Fprintf(w, "%s\t%d%%\n", name, p.SectionPercent(name))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nknowledge: %d%%  items done: %d  mvp: %d%%\n", p.Knowledge(), p.Completed(), progress.MVPPercent(mvp))
	if p.LastUpdated > 0 {
		fmt.Fprintf(out, "last updated %s\n", humanize.Time(time.UnixMilli(p.LastUpdated)))
	}
	for _, ach := range earned {
		fmt.Fprintf(out, "achievement: %s (%s)\n", ach.Title, ach.Desc)
	}
	return nil
}

func runProgressSet(section, item string, completed bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, unlocked, err := a.progress.SetItem(context.Background(), section, item, completed)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d%% complete\n", section, p.SectionPercent(section))
	for _, ach := range unlocked {
		fmt.Fprintf(out, "achievement unlocked: %s\n", ach.Title)
	}
	return nil
}

func runProgressReset() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.progress.Reset(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(out, "progress reset")
	return nil
}

func runCalcIdea(in calc.IdeaInput) error {
	s := calc.ScoreIdea(in)
	fmt.Fprintf(out, "%s %d%% (%d/%d)\n", s.Rating, s.Percent, s.Points, s.Max)
	for _, rec := range s.Recommendations {
		fmt.Fprintf(out, "  - %s\n", rec)
	}
	return nil
}

func runCalcFunding(burn, revenue, runway float64) error {
	est, err := calc.Funding(burn, revenue, runway)
	if err != nil {
		return err
	}
	for _, line := range est.Lines() {
		fmt.Fprintln(out, line)
	}
	return nil
}

func runCalcPatent(patentType, method string) error {
	est, err := calc.PatentCost(patentType, method)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Estimated cost: %s\n%s\n", est.Range(), est.Details)
	return nil
}

func runCalcPath(stage string) error {
	p := calc.LearningPath(stage)
	fmt.Fprintf(out, "Learning path for stage %q\n", p.Stage)
	for _, step := range p.Steps {
		fmt.Fprintf(out, "\n%s\n", step.Title)
		for _, item := range step.Items {
			fmt.Fprintf(out, "  - %s\n", item)
		}
	}
	return nil
}

func runImport(only []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sources, err := feedSources(a.cfg, only)
	if err != nil {
		return err
	}

	ctx := context.Background()
	importer := feed.NewImporter(a.discussions, a.cfg.Feeds.MaxItems)
	total := 0
	for _, res := range importer.ImportAll(ctx, sources) {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "  %s error: %v\n", res.Feed, res.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s: %d imported, %d skipped\n", res.Feed, len(res.Imported), res.Skipped)
		for _, d := range res.Imported {
			a.alerts.Notify(ctx, alert.ForDiscussion(d, a.cfg.Server.BaseURL))
		}
		total += len(res.Imported)
	}

	fmt.Fprintf(out, "imported %d discussions from %d feeds\n", total, len(sources))
	return nil
}

func (a *app) newServer(port int) (*server.Server, *search.Index, error) {
	if port == 0 {
		port = a.cfg.Server.Port
	}
	idx, err := search.New()
	if err != nil {
		return nil, nil, err
	}
	srv := server.New(server.Deps{
		Discussions:    a.discussions,
		Progress:       a.progress,
		Renderer:       a.renderer,
		Index:          idx,
		Alerts:         a.alerts,
		DB:             a.db,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		BaseURL:        a.cfg.Server.BaseURL,
		MaxResults:     a.cfg.Search.MaxResults,
	}, port)
	return srv, idx, nil
}

func runServe(port int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srv, idx, err := a.newServer(port)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return srv.ListenAndServe(ctx)
}

func runDaemon(port int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srv, idx, err := a.newServer(port)
	if err != nil {
		return err
	}
	defer idx.Close()

	sources, err := feedSources(a.cfg, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(
		feed.NewImporter(a.discussions, a.cfg.Feeds.MaxItems),
		sources,
		a.alerts,
		a.cfg.Feeds.ParseInterval(),
		a.cfg.Server.BaseURL,
	)
	sched.AfterImport = func(context.Context, []discussion.Discussion) { srv.MarkStale() }

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("scheduler error", "error", err)
		}
	}()

	err = srv.ListenAndServe(ctx)
	slog.Info("shutting down")
	return err
}
