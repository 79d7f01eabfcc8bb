package implementation

import (
	"context"

	"rag-presupuestos-be/internal/model"
	"rag-presupuestos-be/internal/repository/contract"
	"rag-presupuestos-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{db: db}
}

func (r *ChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

type scoredRow struct {
	model.Chunk
	Filename string
	Score    float64
}

func rowsToChunks(rows []scoredRow) []*contract.ScoredChunk {
	chunks := make([]*contract.ScoredChunk, len(rows))
	for i, row := range rows {
		chunks[i] = &contract.ScoredChunk{
			ChunkId:    row.Id,
			DocumentId: row.DocumentId,
			Filename:   row.Filename,
			Content:    row.Content,
			SourcePage: row.SourcePage,
			SourceRow:  row.SourceRow,
			Score:      row.Score,
		}
	}
	return chunks
}

// SearchSimilarWithScore returns chunks ranked by cosine similarity.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) to get the similarity back.
func (r *ChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, documents.filename, 1 - (chunk_embeddings.embedding_value <=> ?) as score", queryVector).
		Joins("JOIN chunk_embeddings ON chunk_embeddings.chunk_id = chunks.id").
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.has_embedding = true").
		Where("chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL")

	query = r.applySpecifications(query, specs...)

	var rows []scoredRow
	err := query.
		Order("score DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rowsToChunks(rows), nil
}

// SearchLexical returns chunks ranked by Spanish full-text relevance.
// The GIN index on to_tsvector('spanish', content) covers this expression.
func (r *ChunkRepositoryImpl) SearchLexical(ctx context.Context, queryText string, limit int, specs ...specification.Specification) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	query := r.db.WithContext(ctx).
		Table("chunks").
		Select(`chunks.*, documents.filename, ts_rank(
			to_tsvector('spanish', COALESCE(chunks.content, '')),
			plainto_tsquery('spanish', ?)
		) as score`, queryText).
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("to_tsvector('spanish', COALESCE(chunks.content, '')) @@ plainto_tsquery('spanish', ?)", queryText).
		Where("chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL")

	query = r.applySpecifications(query, specs...)

	var rows []scoredRow
	err := query.
		Order("score DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rowsToChunks(rows), nil
}
