package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed/internal/domain/entity"
	pg "newsfeed/internal/infra/adapter/persistence/postgres"
)

func testEmbedding() *entity.ArticleEmbeddingRecord {
	vec := make([]float32, 384)
	for i := range vec {
		vec[i] = float32(i) / 384.0
	}
	return &entity.ArticleEmbeddingRecord{
		ArticleID: "article-1",
		Provider:  "openai",
		Model:     "text-embedding-3-small",
		Embedding: vec,
	}
}

func TestArticleEmbeddingRepo_Upsert_RejectsEmptyEmbedding(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := pg.NewArticleEmbeddingRepo(db)
	rec := testEmbedding()
	rec.Embedding = nil

	err = repo.Upsert(context.Background(), rec)
	assert.Error(t, err)
}

func TestArticleEmbeddingRepo_Upsert_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO article_embeddings")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(1), now, now))

	repo := pg.NewArticleEmbeddingRepo(db)
	rec := testEmbedding()

	err = repo.Upsert(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleEmbeddingRepo_Upsert_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO article_embeddings")).
		WillReturnError(errors.New("connection refused"))

	repo := pg.NewArticleEmbeddingRepo(db)
	err = repo.Upsert(context.Background(), testEmbedding())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleEmbeddingRepo_FindByArticleID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now()
	vec := make([]float32, 384)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, article_id, provider, model, embedding, created_at, updated_at")).
		WithArgs("article-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "article_id", "provider", "model", "embedding", "created_at", "updated_at"}).
			AddRow(int64(1), "article-1", "openai", "text-embedding-3-small", floatsToVectorLiteral(vec), now, now))

	repo := pg.NewArticleEmbeddingRepo(db)
	records, err := repo.FindByArticleID(context.Background(), "article-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "article-1", records[0].ArticleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleEmbeddingRepo_FindByArticleID_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, article_id, provider, model, embedding, created_at, updated_at")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "article_id", "provider", "model", "embedding", "created_at", "updated_at"}))

	repo := pg.NewArticleEmbeddingRepo(db)
	records, err := repo.FindByArticleID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleEmbeddingRepo_DeleteByArticleID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM article_embeddings WHERE article_id = $1")).
		WithArgs("article-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewArticleEmbeddingRepo(db)
	count, err := repo.DeleteByArticleID(context.Background(), "article-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleEmbeddingRepo_SearchSimilar_ClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT article_id, 1 - (embedding <=> $1) AS similarity")).
		WithArgs(sqlmock.AnyArg(), 100).
		WillReturnRows(sqlmock.NewRows([]string{"article_id", "similarity"}))

	repo := pg.NewArticleEmbeddingRepo(db)
	_, err = repo.SearchSimilar(context.Background(), make([]float32, 384), 1000)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// floatsToVectorLiteral renders v in pgvector's text format ("[1,2,3]"), the
// shape pgvector.Vector.Scan expects from a driver value.
func floatsToVectorLiteral(v []float32) string {
	s := "["
	for i, x := range v {
		if i > 0 {
			s += ","
		}
		s += strconv.FormatFloat(float64(x), 'g', -1, 32)
	}
	return s + "]"
}
