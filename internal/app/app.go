package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdex/internal/config"
	"newsdex/internal/infrastructure/elastic"
	"newsdex/internal/infrastructure/embedding"
	"newsdex/internal/infrastructure/mediastack"
	"newsdex/internal/infrastructure/milvus"
	"newsdex/internal/infrastructure/scheduler"
	"newsdex/internal/usecase"
)

// Application wires configuration into pipeline runs. Collaborator
// connections are acquired per run and released on every exit path, so a
// signal-cancelled context never leaves a dangling vector-store session.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	return &Application{cfg: cfg, logger: logger}
}

// Ingest drains one feed day into the document store.
func (a *Application) Ingest(ctx context.Context, day time.Time) error {
	a.logger.Info("ingestion run starting", "day", day.Format("2006-01-02"))

	store, err := elastic.New(a.cfg.Elastic, a.logger.With("component", "elastic"))
	if err != nil {
		return err
	}

	feed := mediastack.New(a.cfg.Feed, nil)
	ingestor := usecase.NewIngestor(feed, store, a.cfg.Feed.PageSize, a.logger.With("component", "ingest"))
	return ingestor.Run(ctx, day)
}

// Enrich embeds the window [since, until] into the vector store.
func (a *Application) Enrich(ctx context.Context, since, until time.Time) error {
	a.logger.Info("enrichment run starting",
		"since", since.Format(time.RFC3339), "until", until.Format(time.RFC3339))

	store, err := elastic.New(a.cfg.Elastic, a.logger.With("component", "elastic"))
	if err != nil {
		return err
	}

	vectors, err := milvus.Connect(ctx, a.cfg.Milvus, a.cfg.Embedding.Dimension, a.logger.With("component", "milvus"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := vectors.Close(); closeErr != nil {
			a.logger.Error("closing vector store", "error", closeErr)
		}
	}()

	embedder, err := embedding.New(a.cfg.Embedding, a.logger.With("component", "embedding"))
	if err != nil {
		return err
	}
	defer embedder.Close()

	enricher := usecase.NewEnricher(store, vectors, embedder, a.cfg.Enrichment.Limit, a.logger.With("component", "enrich"))
	return enricher.Run(ctx, since, until)
}

// EnrichDay embeds a single publish day, the original same-day mode.
func (a *Application) EnrichDay(ctx context.Context, day time.Time) error {
	since := day.Truncate(24 * time.Hour)
	return a.Enrich(ctx, since, since.Add(24*time.Hour-time.Second))
}

// EnrichWindow embeds the configured trailing window ending at now.
func (a *Application) EnrichWindow(ctx context.Context, now time.Time) error {
	return a.Enrich(ctx, now.AddDate(0, 0, -a.cfg.Enrichment.WindowDays), now)
}

// RunScheduled runs ingestion followed by enrichment on the configured
// cron schedule until the context is cancelled. Per-run failures are
// logged and the schedule keeps going; idempotent writes make the next
// run the retry.
func (a *Application) RunScheduled(ctx context.Context) error {
	sched := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())

	job := func(now time.Time) {
		if err := a.Ingest(ctx, now); err != nil {
			a.logger.Error("ingestion run failed", "error", err)
			return
		}
		if err := a.EnrichWindow(ctx, now); err != nil {
			a.logger.Error("enrichment run failed", "error", err)
		}
	}

	if err := sched.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()
	a.logger.Info("shutting down")
	return sched.Stop(context.Background())
}
