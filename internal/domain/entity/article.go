// Package entity defines the core domain entities for the ingestion pipeline:
// the article record persisted by the document store, the raw page message
// that feeds it, the search document mirrored into the search engine, the
// per-user interest record, and the indexer's watermark state.
package entity

import "time"

// Article is the document-store representation of a fetched, extracted page.
// Identity for upsert purposes is the pair (CanonicalURL, Hash): see
// ArticleRepository.Upsert.
type Article struct {
	ID           string
	URL          string
	CanonicalURL string
	Source       string
	Title        string
	Body         string
	Author       string
	Tags         []string
	PublishedAt  time.Time
	HasPublished bool
	FetchedAt    time.Time
	Hash         string
	Updated      time.Time
}

// RawPage is the queue payload produced by the fetcher and consumed by the
// article store. It is immutable and discarded after processing.
type RawPage struct {
	URL         string `json:"url"`
	HTML        string `json:"html"`
	FetchedTime string `json:"fetched_time"`
}

// SeedEntry names a source and the URLs that should be fetched on its behalf.
// Externally managed; read-only to the pipeline.
type SeedEntry struct {
	Name     string   `yaml:"-"`
	RSS      string   `yaml:"rss,omitempty"`
	Sitemap  string   `yaml:"sitemap,omitempty"`
	Sections []string `yaml:"sections,omitempty"`
	Expand   bool     `yaml:"expand,omitempty"`
}

// URLs returns the seed's configured URLs in RSS, sitemap, sections order.
func (s SeedEntry) URLs() []string {
	urls := make([]string, 0, 2+len(s.Sections))
	if s.RSS != "" {
		urls = append(urls, s.RSS)
	}
	if s.Sitemap != "" {
		urls = append(urls, s.Sitemap)
	}
	urls = append(urls, s.Sections...)
	return urls
}

// SearchDocument mirrors an Article into the search engine's schema.
// PublishedAt is epoch seconds (0 when the article has no published date),
// Vec is the L2-normalized embedding of "title\nbody".
type SearchDocument struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Source      string    `json:"source"`
	Tags        []string  `json:"tags"`
	PublishedAt int64     `json:"published_at"`
	Vec         []float32 `json:"vec"`
}

// UserInterest is the per-user running-mean interest vector maintained by
// the profile store and consulted by the search service's blend stage.
type UserInterest struct {
	UserID    string
	Interest  []float32
	Count     int64
	UpdatedAt time.Time
}

// Watermark is the single persisted scalar tracking the indexer's progress.
type Watermark struct {
	LastIndexed time.Time
}

// ArticleEmbeddingRecord is a diagnostic side-table row mirroring the
// embedding the indexer computed for an article, kept apart from the search
// engine's own vec field so re-ranking decisions can be audited against the
// exact vector that produced them.
type ArticleEmbeddingRecord struct {
	ID        int64
	ArticleID string
	Provider  string
	Model     string
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}
