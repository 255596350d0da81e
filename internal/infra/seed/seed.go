// Package seed loads the seed file that tells C1 which sources to fetch
// from: a YAML mapping of name to {rss, sitemap, sections}, matching
// crawler/seed.py's load_seeds() shape exactly.
package seed

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"newsfeed/internal/domain/entity"
)

// File is the top-level seed mapping: name -> entity.SeedEntry.
type File map[string]entity.SeedEntry

// Load reads and parses the seed file at path. A missing file is not an
// error; it yields an empty File, matching load_seeds() returning {} when
// SEED_FILE does not exist.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}

	if len(data) == 0 {
		return File{}, nil
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	if f == nil {
		f = File{}
	}
	for name, e := range f {
		e.Name = name
		f[name] = e
	}
	return f, nil
}

// ExpandableSeed pairs a seed name with its RSS feed URL, for entries that
// opted into feed expansion (Expand: true) rather than direct fetching.
type ExpandableSeed struct {
	Name string
	RSS  string
}

// URLs collects every RSS, sitemap and section URL of entries that did
// *not* opt into expansion, in stable name-sorted order (§4.1's seed
// expansion). Callers that wire a feed expander use this alongside
// ExpandableURLs; callers that don't should use AllURLs instead.
func (f File) URLs() []string {
	var out []string
	for _, name := range f.sortedNames() {
		e := f[name]
		if e.Expand {
			continue
		}
		out = append(out, e.URLs()...)
	}
	return out
}

// ExpandableURLs lists the feeds that should be expanded via the gofeed
// collaborator rather than fetched directly.
func (f File) ExpandableURLs() []ExpandableSeed {
	var out []ExpandableSeed
	for _, name := range f.sortedNames() {
		e := f[name]
		if e.Expand && e.RSS != "" {
			out = append(out, ExpandableSeed{Name: name, RSS: e.RSS})
		}
	}
	return out
}

// AllURLs collects every seed URL regardless of Expand, for callers with no
// feed expander wired in — the default direct-fetch-everything behavior
// (Open Question 1).
func (f File) AllURLs() []string {
	var out []string
	for _, name := range f.sortedNames() {
		out = append(out, f[name].URLs()...)
	}
	return out
}

func (f File) sortedNames() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
