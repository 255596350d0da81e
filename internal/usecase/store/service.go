package store

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/observability/metrics"
	"newsfeed/internal/repository"
)

// Extractor recovers article fields from raw HTML, matching
// internal/infra/extractor.Extract's signature. Accepted as an interface so
// this package never imports the extractor package directly, keeping the
// usecase layer decoupled from the concrete HTML-parsing library choice.
type Extractor func(rawHTML, pageURL string) (*ExtractedFields, error)

// ExtractedFields mirrors internal/infra/extractor.Fields; duplicated here
// so this package has no compile-time dependency on that package's types.
type ExtractedFields struct {
	CanonicalURL string
	Title        string
	Body         string
	Author       string
	Tags         []string
	PublishedAt  time.Time
	HasPublished bool
}

// Service implements C2: consume Raw Page Messages, extract and hash their
// content, and upsert Article Records into the document store.
type Service struct {
	Consumer  repository.QueueConsumer
	Articles  repository.ArticleRepository
	Extractor Extractor
}

// NewService builds a Service from its collaborators.
func NewService(consumer repository.QueueConsumer, articles repository.ArticleRepository, extractor Extractor) *Service {
	return &Service{Consumer: consumer, Articles: articles, Extractor: extractor}
}

// Run subscribes to the raw-page queue and processes deliveries until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	return s.Consumer.Consume(ctx, func(msg repository.QueueMessage) {
		s.handle(ctx, msg)
	})
}

// handle implements the per-message pipeline (§4.2): decode, extract, hash,
// derive source, upsert. A malformed payload or extraction failure is
// dropped via Nack(requeue=false) — discarded outright, or routed to a
// dead-letter exchange if the consumer's queue was declared with one
// (§9 Open Question 4). A transient store failure is requeued via
// Nack(requeue=true) so the at-least-once guarantee holds; only a
// successful upsert is Acked.
func (s *Service) handle(ctx context.Context, msg repository.QueueMessage) {
	raw, err := decodeRawPage(msg.Body)
	if err != nil {
		metrics.MessagesConsumedTotal.WithLabelValues("malformed").Inc()
		slog.Warn("dropping malformed raw page message", slog.Any("error", err))
		nack(msg, false)
		return
	}

	article, err := s.buildArticle(raw)
	if err != nil {
		metrics.MessagesConsumedTotal.WithLabelValues("malformed").Inc()
		slog.Warn("dropping unextractable raw page message",
			slog.String("url", raw.URL), slog.Any("error", err))
		nack(msg, false)
		return
	}

	if _, err := s.Articles.Upsert(ctx, article); err != nil {
		metrics.MessagesConsumedTotal.WithLabelValues("store_error").Inc()
		slog.Error("article upsert failed, requeueing",
			slog.String("canonical_url", article.CanonicalURL), slog.Any("error", err))
		nack(msg, true)
		return
	}

	metrics.MessagesConsumedTotal.WithLabelValues("ok").Inc()
	if err := msg.Ack(); err != nil {
		slog.Error("ack failed after successful upsert",
			slog.String("canonical_url", article.CanonicalURL), slog.Any("error", err))
	}
}

func (s *Service) buildArticle(raw *entity.RawPage) (*entity.Article, error) {
	start := time.Now()
	fields, err := s.Extractor(raw.HTML, raw.URL)
	metrics.ExtractDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: extracting fields: %v", ErrMalformedMessage, err)
	}

	canonicalURL := fields.CanonicalURL
	if canonicalURL == "" {
		canonicalURL = raw.URL
	}

	source, err := hostOf(canonicalURL)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving source host: %v", ErrMalformedMessage, err)
	}

	fetchedAt, err := time.Parse(time.RFC3339, raw.FetchedTime)
	if err != nil {
		fetchedAt = time.Now().UTC()
	}

	sum := md5.Sum([]byte(fields.Body)) //nolint:gosec
	hash := hex.EncodeToString(sum[:])

	return &entity.Article{
		URL:          raw.URL,
		CanonicalURL: canonicalURL,
		Source:       source,
		Title:        fields.Title,
		Body:         fields.Body,
		Author:       fields.Author,
		Tags:         fields.Tags,
		PublishedAt:  fields.PublishedAt,
		HasPublished: fields.HasPublished,
		FetchedAt:    fetchedAt,
		Hash:         hash,
	}, nil
}

func decodeRawPage(body []byte) (*entity.RawPage, error) {
	var raw entity.RawPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if raw.URL == "" {
		return nil, fmt.Errorf("%w: missing url", ErrMalformedMessage)
	}
	return &raw, nil
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url has no host")
	}
	return u.Hostname(), nil
}

func nack(msg repository.QueueMessage, requeue bool) {
	if err := msg.Nack(requeue); err != nil {
		slog.Error("nack failed", slog.Bool("requeue", requeue), slog.Any("error", err))
	}
}
