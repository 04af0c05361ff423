package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdex/internal/domain"
	"newsdex/internal/identity"
	"newsdex/internal/ports"
)

// Ingestor drains one feed day page by page into the document store.
// Document IDs are content-derived and every write is an upsert, so the
// whole run can be safely repeated after a partial failure.
type Ingestor struct {
	feed     ports.Feed
	store    ports.DocumentStore
	pageSize int
	logger   *slog.Logger
}

// NewIngestor constructs the ingestion pipeline.
func NewIngestor(feed ports.Feed, store ports.DocumentStore, pageSize int, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		feed:     feed,
		store:    store,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Run fetches every page of the given publish day and bulk-upserts each
// page as an independent write. Any feed or store error aborts the run;
// pages committed by earlier iterations stay committed.
func (in *Ingestor) Run(ctx context.Context, day time.Time) error {
	if err := in.store.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	var (
		offset    int
		remaining int
		first     = true
	)

	for {
		page, err := in.feed.FetchPage(ctx, day, offset)
		if err != nil {
			return fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}

		count := len(page.Articles)
		in.logger.Info("page fetched", "offset", offset, "count", count, "total", page.Total)

		docs := in.buildDocuments(page, offset)
		if len(docs) > 0 {
			if err := in.store.BulkUpsert(ctx, docs); err != nil {
				return fmt.Errorf("bulk upsert at offset %d: %w", offset, err)
			}
		}

		if first {
			remaining = page.Total - count
			first = false
		} else {
			remaining -= count
		}
		offset += in.pageSize

		in.logger.Info("page committed", "documents", len(docs), "remaining", remaining)

		switch {
		case remaining == 0:
			in.logger.Info("ingestion complete", "day", day.Format("2006-01-02"))
			return nil
		case remaining < 0:
			// the feed's reported total undercounted; stop rather than
			// request pages that cannot exist
			in.logger.Warn("feed total miscounted, stopping", "remaining", remaining)
			return nil
		case count == 0:
			in.logger.Warn("empty page before total was drained, stopping", "remaining", remaining)
			return nil
		}
	}
}

// buildDocuments derives IDs and popularity for one page. Articles without
// a title cannot be identified and are skipped individually; the rest of
// the page still lands.
func (in *Ingestor) buildDocuments(page domain.FeedPage, offset int) []domain.Document {
	docs := make([]domain.Document, 0, len(page.Articles))
	for rank, article := range page.Articles {
		id, err := identity.Hash(article.Title)
		if err != nil {
			in.logger.Warn("skipping article without identity", "offset", offset, "rank", rank, "error", err)
			continue
		}
		docs = append(docs, domain.Document{
			ID:         id,
			Article:    article,
			Popularity: popularity(rank, offset, page.Total),
		})
	}
	return docs
}
