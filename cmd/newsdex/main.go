package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"newsdex/internal/app"
	"newsdex/internal/config"
	"newsdex/internal/logging"
)

const dayFormat = "2006-01-02"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		Name:  "newsdex",
		Usage: "Ingest daily news into a search index and enrich it with embeddings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "Run one ingestion pass for a publish day",
				Flags: []cli.Flag{dateFlag()},
				Action: func(c *cli.Context) error {
					application, err := buildApp(c)
					if err != nil {
						return err
					}
					day, err := resolveDay(c.String("date"))
					if err != nil {
						return err
					}
					return application.Ingest(c.Context, day)
				},
			},
			{
				Name:  "enrich",
				Usage: "Embed recent documents into the vector store",
				Flags: []cli.Flag{dateFlag()},
				Action: func(c *cli.Context) error {
					application, err := buildApp(c)
					if err != nil {
						return err
					}
					if c.String("date") != "" {
						day, err := resolveDay(c.String("date"))
						if err != nil {
							return err
						}
						return application.EnrichDay(c.Context, day)
					}
					return application.EnrichWindow(c.Context, time.Now().UTC())
				},
			},
			{
				Name:  "run",
				Usage: "Run both pipelines on the configured schedule until interrupted",
				Action: func(c *cli.Context) error {
					application, err := buildApp(c)
					if err != nil {
						return err
					}
					return application.RunScheduled(c.Context)
				},
			},
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "newsdex:", err)
		os.Exit(1)
	}
}

func buildApp(c *cli.Context) (*app.Application, error) {
	cfg := config.Load(c.String("config"))

	level := cfg.Logging.Level
	if v := c.String("log-level"); v != "" {
		level = v
	}
	logger := logging.New(level)
	logger.Debug("configuration loaded",
		"feed_url", cfg.Feed.BaseURL,
		"elasticsearch", cfg.Elastic.Address,
		"milvus", cfg.Milvus.Address,
		"embedding_model", cfg.Embedding.Model)

	return app.New(cfg, logger), nil
}

func dateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "date",
		Usage: "Publish day to process (YYYY-MM-DD, defaults to today)",
	}
}

func resolveDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	day, err := time.Parse(dayFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", raw, err)
	}
	return day, nil
}
