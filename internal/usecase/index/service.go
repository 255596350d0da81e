// Package index implements C3: poll the article store for records updated
// since the last watermark, compute embeddings, and bulk-upsert them into
// the search engine, advancing the watermark only after a full tick
// succeeds. Grounded on original_source/crawler/indexer.py's tick loop,
// batch-500 import and title+"\n"+body embedding input.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/observability/metrics"
	"newsfeed/internal/repository"
)

// batchSize is the number of documents bulk-imported per search-engine call
// (§4.3); each full batch still counts toward advancing the in-memory
// new_last_indexed watermark.
const batchSize = 500

// defaultPageSize bounds a single ListUpdatedSince query.
const defaultPageSize = batchSize

// Embedder computes the L2-normalized embedding for a document's text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config controls the indexer's poll cadence and embedding provenance.
type Config struct {
	PollInterval time.Duration // default 60s per indexer.py's INDEXER_INTERVAL

	// EmbeddingProvider and EmbeddingModel tag every row written to the
	// article_embeddings diagnostic side-table when Embeddings is set.
	EmbeddingProvider string
	EmbeddingModel    string
}

// Service implements C3's tick loop over the article store, embedder, search
// engine, and persisted watermark.
type Service struct {
	Articles  repository.ArticleRepository
	Engine    repository.SearchEngine
	Embedder  Embedder
	Watermark WatermarkStore
	Config    Config

	// Embeddings, if set, mirrors every embedding the tick computes into the
	// article_embeddings diagnostic side-table so re-ranking decisions can
	// later be audited against the exact vector that produced them. A write
	// failure here is logged and swallowed; it never fails the tick, since
	// nothing in the read path depends on this table.
	Embeddings repository.ArticleEmbeddingRepository
}

// WatermarkStore persists the single last_indexed scalar atomically; see
// internal/infra/watermark.Store.
type WatermarkStore interface {
	Load() (time.Time, error)
	Save(t time.Time) error
}

// NewService builds a Service from its collaborators.
func NewService(articles repository.ArticleRepository, engine repository.SearchEngine, embedder Embedder, watermark WatermarkStore, cfg Config) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	return &Service{Articles: articles, Engine: engine, Embedder: embedder, Watermark: watermark, Config: cfg}
}

// Run bootstraps the search collection, then ticks every PollInterval until
// ctx is canceled. Schema bootstrap failure is fatal (§7: "Schema conflict
// at indexer bootstrap").
func (s *Service) Run(ctx context.Context) error {
	if err := s.Engine.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("bootstrapping search collection: %w", err)
	}

	ticker := time.NewTicker(s.Config.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil {
			metrics.IndexerTickErrorsTotal.Inc()
			slog.Error("indexer tick failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick performs one pass: load the watermark, page through updated
// articles, embed and batch-upsert them, and persist the new watermark only
// if every batch succeeded. A partial-batch failure leaves the watermark
// untouched so the next tick replays the whole range (idempotent, §4.3).
func (s *Service) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.IndexerTickDuration.Observe(time.Since(start).Seconds()) }()

	originalWatermark, err := s.Watermark.Load()
	if err != nil {
		return fmt.Errorf("loading watermark: %w", err)
	}

	cursor := originalWatermark
	newWatermark := originalWatermark
	batch := make([]entity.SearchDocument, 0, batchSize)
	indexedAny := false

	for {
		articles, err := s.Articles.ListUpdatedSince(ctx, cursor, defaultPageSize)
		if err != nil {
			return fmt.Errorf("listing updated articles: %w", err)
		}
		if len(articles) == 0 {
			break
		}

		for _, a := range articles {
			doc, err := s.buildDocument(ctx, a)
			if err != nil {
				return fmt.Errorf("building search document for %s: %w", a.ID, err)
			}
			batch = append(batch, *doc)
			if a.Updated.After(newWatermark) {
				newWatermark = a.Updated
			}

			if len(batch) >= batchSize {
				if err := s.flush(ctx, batch); err != nil {
					return err
				}
				indexedAny = true
				batch = batch[:0]
			}
		}

		cursor = articles[len(articles)-1].Updated
		if len(articles) < defaultPageSize {
			break
		}
	}

	if len(batch) > 0 {
		if err := s.flush(ctx, batch); err != nil {
			return err
		}
		indexedAny = true
	}

	if indexedAny && newWatermark.After(originalWatermark) {
		if err := s.Watermark.Save(newWatermark); err != nil {
			return fmt.Errorf("persisting watermark: %w", err)
		}
		metrics.IndexerWatermarkUnixSeconds.Set(float64(newWatermark.Unix()))
	}
	return nil
}

func (s *Service) flush(ctx context.Context, batch []entity.SearchDocument) error {
	docs := append([]entity.SearchDocument(nil), batch...)
	if err := s.Engine.BulkUpsert(ctx, docs); err != nil {
		return fmt.Errorf("bulk upserting %d documents: %w", len(docs), err)
	}
	metrics.IndexerDocsIndexedTotal.Add(float64(len(docs)))
	return nil
}

func (s *Service) buildDocument(ctx context.Context, a *entity.Article) (*entity.SearchDocument, error) {
	vec, err := s.Embedder.Embed(ctx, a.Title+"\n"+a.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	s.recordEmbedding(ctx, a.ID, vec)

	var publishedAt int64
	if a.HasPublished {
		publishedAt = a.PublishedAt.Unix()
	}

	return &entity.SearchDocument{
		ID:          a.ID,
		Title:       a.Title,
		Body:        a.Body,
		Source:      a.Source,
		Tags:        a.Tags,
		PublishedAt: publishedAt,
		Vec:         vec,
	}, nil
}

// recordEmbedding mirrors vec into the article_embeddings diagnostic
// side-table when Embeddings is configured. Failures are logged, not
// returned: the side-table is for offline audit, not the read path.
func (s *Service) recordEmbedding(ctx context.Context, articleID string, vec []float32) {
	if s.Embeddings == nil {
		return
	}
	rec := &entity.ArticleEmbeddingRecord{
		ArticleID: articleID,
		Provider:  s.Config.EmbeddingProvider,
		Model:     s.Config.EmbeddingModel,
		Embedding: vec,
	}
	if err := s.Embeddings.Upsert(ctx, rec); err != nil {
		slog.Warn("failed to record article embedding diagnostic",
			slog.String("article_id", articleID), slog.Any("error", err))
	}
}
