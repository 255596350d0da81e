package typesense

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed/internal/domain/entity"
)

func testDocument(id string) entity.SearchDocument {
	vec := make([]float32, 384)
	vec[0] = 1
	return entity.SearchDocument{
		ID:          id,
		Title:       "integration title " + id,
		Body:        "integration body",
		Source:      "a.example",
		Tags:        []string{"news"},
		PublishedAt: 1700000000,
		Vec:         vec,
	}
}

// These exercise the pure-logic helpers without a live node. Engine's own
// methods require a real Typesense server (no in-process fake exists for
// this client), so they are covered by the skip-if-unconfigured integration
// tests below, matching the pattern used for the amqp and Postgres adapters.

func TestJoinCSV(t *testing.T) {
	assert.Equal(t, "", joinCSV(nil))
	assert.Equal(t, "1", joinCSV([]string{"1"}))
	assert.Equal(t, "1,2,3", joinCSV([]string{"1", "2", "3"}))
}

func TestDecodeDocument(t *testing.T) {
	raw := map[string]interface{}{
		"id":           "doc-1",
		"title":        "T",
		"body":         "B",
		"source":       "a.example",
		"tags":         []interface{}{"x", "y"},
		"published_at": float64(1700000000),
		"vec":          []interface{}{0.1, 0.2},
	}

	doc, err := decodeDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "T", doc.Title)
	assert.Equal(t, []string{"x", "y"}, doc.Tags)
	assert.Equal(t, int64(1700000000), doc.PublishedAt)
	require.Len(t, doc.Vec, 2)
	assert.InDelta(t, 0.1, doc.Vec[0], 1e-6)
}

func dialTestConfig(t *testing.T) Config {
	t.Helper()
	host := os.Getenv("TYPESENSE_TEST_HOST")
	if host == "" {
		t.Skip("TYPESENSE_TEST_HOST not set, skipping typesense integration test")
	}
	return Config{Host: host, Port: 8108, Protocol: "http", APIKey: os.Getenv("TYPESENSE_TEST_API_KEY")}
}

func TestEngine_EnsureCollection_Integration(t *testing.T) {
	cfg := dialTestConfig(t)
	engine := New(cfg)

	require.NoError(t, engine.EnsureCollection(t.Context()))
	require.NoError(t, engine.EnsureCollection(t.Context()))
}

func TestEngine_BulkUpsertAndSearch_Integration(t *testing.T) {
	cfg := dialTestConfig(t)
	engine := New(cfg)
	require.NoError(t, engine.EnsureCollection(t.Context()))

	doc := testDocument("integration-doc-1")
	require.NoError(t, engine.BulkUpsert(t.Context(), []entity.SearchDocument{doc}))

	got, err := engine.GetDocument(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)

	result, err := engine.Search(t.Context(), doc.Title, 10, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Found, 1)
}

func TestEngine_Health_Integration(t *testing.T) {
	cfg := dialTestConfig(t)
	engine := New(cfg)

	status, err := engine.Health(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}
