// Package extractor implements C2's HTML-to-article-fields extraction: main
// content via Mozilla Readability, canonical URL and author/published
// metadata via a fallback chain over standard meta tags.
package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	neturl "net/url"
)

// Fields is the set of article attributes recovered from one raw HTML page.
type Fields struct {
	CanonicalURL string
	Title        string
	Body         string
	Author       string
	Tags         []string
	PublishedAt  time.Time
	HasPublished bool
}

// metaCandidate names one (attr, value) pair to probe for a meta tag, in
// fallback-chain order; the first hit wins.
type metaCandidate struct {
	attr  string
	value string
}

var authorCandidates = []metaCandidate{
	{"property", "article:author"},
	{"name", "author"},
	{"name", "byl"},
}

var publishedCandidates = []metaCandidate{
	{"property", "article:published_time"},
	{"name", "pubdate"},
	{"name", "publication_date"},
	{"itemprop", "datePublished"},
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Extract recovers article Fields from rawHTML fetched from pageURL. The
// main-content extraction failing is not itself fatal: Body falls back to
// empty and the caller decides whether that constitutes a malformed message.
func Extract(rawHTML, pageURL string) (*Fields, error) {
	parsedURL, err := neturl.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability extraction failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing html for metadata failed: %w", err)
	}

	f := &Fields{
		CanonicalURL: canonicalURL(doc, pageURL),
		Title:        strings.TrimSpace(article.Title),
		Body:         bodyText(article),
		Author:       firstMeta(doc, authorCandidates),
		Tags:         tags(doc),
	}
	if f.Author == "" {
		f.Author = strings.TrimSpace(article.Byline)
	}

	if ts := firstMeta(doc, publishedCandidates); ts != "" {
		if dt, ok := parseDatetime(ts); ok {
			f.PublishedAt = dt
			f.HasPublished = true
		}
	} else if article.PublishedTime != nil {
		f.PublishedAt = *article.PublishedTime
		f.HasPublished = true
	}

	return f, nil
}

func bodyText(article readability.Article) string {
	if article.Content != "" {
		return article.Content
	}
	return article.TextContent
}

func canonicalURL(doc *goquery.Document, fallback string) string {
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		href = strings.TrimSpace(href)
		if href != "" {
			return href
		}
	}
	return fallback
}

func firstMeta(doc *goquery.Document, candidates []metaCandidate) string {
	for _, c := range candidates {
		sel := fmt.Sprintf(`meta[%s="%s"]`, c.attr, c.value)
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			content = strings.TrimSpace(content)
			if content != "" {
				return content
			}
		}
	}
	return ""
}

func tags(doc *goquery.Document) []string {
	var out []string
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("content"); ok {
			v = strings.TrimSpace(v)
			if v != "" {
				out = append(out, v)
			}
		}
	})
	if len(out) == 0 {
		if kw, ok := doc.Find(`meta[name="keywords"]`).First().Attr("content"); ok {
			for _, part := range strings.Split(kw, ",") {
				part = strings.TrimSpace(part)
				if part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

func parseDatetime(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt.UTC(), true
		}
	}
	return time.Time{}, false
}
